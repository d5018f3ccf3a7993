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
	"time"

	"github.com/shopspring/decimal"
	"gitlab.com/tozd/go/errors"
)

// ErrEmpty signals that the source exports contained no usable data: either
// the item export had no rows or every row was voided. This is a not-ready
// condition for the caller, not a failure.
var ErrEmpty = errors.New("no usable data")

// DefaultInterval is the bucket width used when the config does not
// override it.
const DefaultInterval = time.Hour

// Row is one interval bucket of the aggregated report.
type Row struct {
	IntervalStart time.Time
	Orders        int
	ItemQty       decimal.Decimal
	NetSales      decimal.Decimal
	ModifierSales decimal.Decimal
}

// Total returns item net sales plus modifier net sales for the bucket.
func (r Row) Total() decimal.Decimal {
	return r.NetSales.Add(r.ModifierSales)
}

// Report is the interval-bucketed aggregation of one entity's daily exports.
// Date and Location form the storage key; both are derived from the first
// item row, matching the export convention that a folder holds exactly one
// location-day.
type Report struct {
	Date     time.Time
	Location string
	Interval time.Duration
	Rows     []Row
}

// ParseInterval parses a configured bucket width such as "1h", "30m" or
// "15m". The width must evenly divide a day so buckets line up across runs.
func ParseInterval(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.Errorf("parsing interval %q: %w", s, err)
	}
	if d < time.Minute || d > 24*time.Hour {
		return 0, errors.Errorf("interval %s out of range [1m, 24h]", d)
	}
	if (24*time.Hour)%d != 0 {
		return 0, errors.Errorf("interval %s does not evenly divide a day", d)
	}
	return d, nil
}
