// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package report

import (
	"encoding/csv"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/tozd/go/errors"
)

// Column names as they appear in the POS exports. Header matching is
// case-insensitive and whitespace-trimmed because the exporter has shipped
// both "Order Id" and "Order ID" over time.
const (
	colOrderDate = "order date"
	colLocation  = "location"
	colNetPrice  = "net price"
	colQty       = "qty"
	colOrderID   = "order id"
	colVoid      = "void?"
)

// orderDateLayouts covers the timestamp formats observed in exports.
var orderDateLayouts = []string{
	"1/2/06 3:04 PM",
	"1/2/2006 3:04 PM",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Generate converts the item-selection and modifier-selection exports into
// an interval-bucketed Report. It returns ErrEmpty when the item export has
// no usable rows; a malformed export returns a regular error, which callers
// treat as a per-entity failure.
func Generate(items, modifiers io.Reader, interval time.Duration) (*Report, error) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	itemTable, err := readTable(items)
	if err != nil {
		return nil, errors.Errorf("reading item export: %w", err)
	}
	if len(itemTable.rows) == 0 {
		return nil, ErrEmpty
	}
	if err := itemTable.require(colOrderDate, colLocation, colNetPrice, colQty); err != nil {
		return nil, errors.Errorf("item export: %w", err)
	}

	modTable, err := readTable(modifiers)
	if err != nil {
		return nil, errors.Errorf("reading modifier export: %w", err)
	}

	type bucket struct {
		orders   map[string]struct{}
		itemQty  decimal.Decimal
		netSales decimal.Decimal
		modSales decimal.Decimal
	}
	buckets := map[time.Time]*bucket{}
	getBucket := func(start time.Time) *bucket {
		b, ok := buckets[start]
		if !ok {
			b = &bucket{orders: map[string]struct{}{}}
			buckets[start] = b
		}
		return b
	}

	var (
		reportDate time.Time
		location   string
		keyed      bool
	)

	for i, row := range itemTable.rows {
		if itemTable.isVoided(row) {
			continue
		}
		at, err := itemTable.timeAt(row, colOrderDate)
		if err != nil {
			return nil, errors.Errorf("item export row %d: %w", i+1, err)
		}
		// The storage key comes from the first usable row; exports hold one
		// location-day per folder.
		if !keyed {
			reportDate = time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
			location = itemTable.stringAt(row, colLocation)
			keyed = true
		}

		qty, err := itemTable.decimalAt(row, colQty)
		if err != nil {
			return nil, errors.Errorf("item export row %d: %w", i+1, err)
		}
		net, err := itemTable.decimalAt(row, colNetPrice)
		if err != nil {
			return nil, errors.Errorf("item export row %d: %w", i+1, err)
		}

		b := getBucket(at.Truncate(interval))
		b.itemQty = b.itemQty.Add(qty)
		b.netSales = b.netSales.Add(net)
		if id := itemTable.stringAt(row, colOrderID); id != "" {
			b.orders[id] = struct{}{}
		}
	}

	if len(buckets) == 0 {
		return nil, ErrEmpty
	}

	// Modifier rows only contribute sales; a folder with an empty modifier
	// export is still a valid day.
	if len(modTable.rows) > 0 {
		if err := modTable.require(colOrderDate, colNetPrice); err != nil {
			return nil, errors.Errorf("modifier export: %w", err)
		}
		for i, row := range modTable.rows {
			if modTable.isVoided(row) {
				continue
			}
			at, err := modTable.timeAt(row, colOrderDate)
			if err != nil {
				return nil, errors.Errorf("modifier export row %d: %w", i+1, err)
			}
			net, err := modTable.decimalAt(row, colNetPrice)
			if err != nil {
				return nil, errors.Errorf("modifier export row %d: %w", i+1, err)
			}
			b := getBucket(at.Truncate(interval))
			b.modSales = b.modSales.Add(net)
		}
	}

	rows := make([]Row, 0, len(buckets))
	for start, b := range buckets {
		rows = append(rows, Row{
			IntervalStart: start,
			Orders:        len(b.orders),
			ItemQty:       b.itemQty,
			NetSales:      b.netSales,
			ModifierSales: b.modSales,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].IntervalStart.Before(rows[j].IntervalStart) })

	return &Report{
		Date:     reportDate,
		Location: location,
		Interval: interval,
		Rows:     rows,
	}, nil
}

// table is a parsed CSV with case-insensitive header lookup.
type table struct {
	columns map[string]int
	rows    [][]string
}

func readTable(r io.Reader) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Errorf("parsing csv: %w", err)
	}
	t := &table{columns: map[string]int{}}
	if len(records) == 0 {
		return t, nil
	}
	for i, name := range records[0] {
		t.columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	t.rows = records[1:]
	return t, nil
}

func (t *table) require(names ...string) error {
	for _, name := range names {
		if _, ok := t.columns[name]; !ok {
			return errors.Errorf("missing required column %q", name)
		}
	}
	return nil
}

func (t *table) stringAt(row []string, name string) string {
	idx, ok := t.columns[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func (t *table) timeAt(row []string, name string) (time.Time, error) {
	raw := t.stringAt(row, name)
	for _, layout := range orderDateLayouts {
		if at, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return at, nil
		}
	}
	return time.Time{}, errors.Errorf("unparsable %s value %q", name, raw)
}

func (t *table) decimalAt(row []string, name string) (decimal.Decimal, error) {
	raw := t.stringAt(row, name)
	if raw == "" {
		return decimal.Zero, nil
	}
	negative := false
	if strings.HasPrefix(raw, "(") && strings.HasSuffix(raw, ")") {
		negative = true
		raw = raw[1 : len(raw)-1]
	}
	raw = strings.TrimSpace(strings.ReplaceAll(strings.TrimPrefix(raw, "$"), ",", ""))
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errors.Errorf("unparsable %s value %q: %w", name, raw, err)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

func (t *table) isVoided(row []string) bool {
	v := strings.ToLower(t.stringAt(row, colVoid))
	return v == "true" || v == "yes" || v == "1"
}
