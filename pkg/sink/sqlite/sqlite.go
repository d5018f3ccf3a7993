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

package sqlite

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/storefeed/pkg/report"
)

const schema = `
CREATE TABLE IF NOT EXISTS interval_reports (
	report_date    TEXT    NOT NULL,
	location       TEXT    NOT NULL,
	interval_start TEXT    NOT NULL,
	orders         INTEGER NOT NULL,
	item_qty       TEXT    NOT NULL,
	net_sales      TEXT    NOT NULL,
	modifier_sales TEXT    NOT NULL,
	updated_at     TEXT    NOT NULL,
	PRIMARY KEY (report_date, location, interval_start)
)`

const upsertRow = `
INSERT INTO interval_reports
	(report_date, location, interval_start, orders, item_qty, net_sales, modifier_sales, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (report_date, location, interval_start) DO UPDATE SET
	orders         = excluded.orders,
	item_qty       = excluded.item_qty,
	net_sales      = excluded.net_sales,
	modifier_sales = excluded.modifier_sales,
	updated_at     = excluded.updated_at`

// Sink persists reports to a local SQLite file. Dates are stored as
// RFC 3339 text and money as decimal strings so nothing is lost to
// float conversion.
type Sink struct {
	mu sync.Mutex
	db *sql.DB
}

// New opens (or creates) the database at path and ensures the schema.
// Use ":memory:" for an ephemeral database.
func New(ctx context.Context, path string) (*Sink, error) {
	if path == "" {
		return nil, errors.New("database path is required")
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, errors.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Errorf("pinging database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errors.Errorf("ensuring schema: %w", err)
	}
	return &Sink{db: db}, nil
}

// Upsert writes every bucket of the report in one transaction.
func (s *Sink) Upsert(ctx context.Context, rep *report.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, row := range rep.Rows {
		_, err := tx.ExecContext(ctx, upsertRow,
			rep.Date.Format("2006-01-02"),
			rep.Location,
			row.IntervalStart.UTC().Format(time.RFC3339),
			row.Orders,
			row.ItemQty.String(),
			row.NetSales.String(),
			row.ModifierSales.String(),
			now,
		)
		if err != nil {
			return errors.Errorf("upserting report row: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Errorf("committing report: %w", err)
	}
	return nil
}

// Rows returns the stored buckets for one report date and location,
// ordered by interval start. Used by tests and the status command.
func (s *Sink) Rows(ctx context.Context, date time.Time, location string) ([]report.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT interval_start, orders, item_qty, net_sales, modifier_sales
		FROM interval_reports
		WHERE report_date = ? AND location = ?
		ORDER BY interval_start`,
		date.Format("2006-01-02"), location)
	if err != nil {
		return nil, errors.Errorf("querying report rows: %w", err)
	}
	defer rows.Close()

	var out []report.Row
	for rows.Next() {
		var start, qty, net, mod string
		var row report.Row
		if err := rows.Scan(&start, &row.Orders, &qty, &net, &mod); err != nil {
			return nil, errors.Errorf("scanning report row: %w", err)
		}
		if row.IntervalStart, err = time.Parse(time.RFC3339, start); err != nil {
			return nil, errors.Errorf("parsing stored interval start: %w", err)
		}
		if row.ItemQty, err = decimal.NewFromString(qty); err != nil {
			return nil, errors.Errorf("parsing stored item qty: %w", err)
		}
		if row.NetSales, err = decimal.NewFromString(net); err != nil {
			return nil, errors.Errorf("parsing stored net sales: %w", err)
		}
		if row.ModifierSales, err = decimal.NewFromString(mod); err != nil {
			return nil, errors.Errorf("parsing stored modifier sales: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Errorf("iterating report rows: %w", err)
	}
	return out, nil
}

func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
