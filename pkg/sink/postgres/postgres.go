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

package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/storefeed/pkg/report"
)

const schema = `
CREATE TABLE IF NOT EXISTS interval_reports (
	report_date    date        NOT NULL,
	location       text        NOT NULL,
	interval_start timestamptz NOT NULL,
	orders         integer     NOT NULL,
	item_qty       numeric     NOT NULL,
	net_sales      numeric     NOT NULL,
	modifier_sales numeric     NOT NULL,
	updated_at     timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (report_date, location, interval_start)
)`

const upsertRow = `
INSERT INTO interval_reports
	(report_date, location, interval_start, orders, item_qty, net_sales, modifier_sales, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, now())
ON CONFLICT (report_date, location, interval_start) DO UPDATE SET
	orders         = EXCLUDED.orders,
	item_qty       = EXCLUDED.item_qty,
	net_sales      = EXCLUDED.net_sales,
	modifier_sales = EXCLUDED.modifier_sales,
	updated_at     = now()`

// Sink persists reports to PostgreSQL. The primary key on
// (report_date, location, interval_start) makes Upsert idempotent.
type Sink struct {
	pool *pgxpool.Pool
}

// New opens a connection pool, verifies connectivity, and ensures the
// schema exists.
func New(ctx context.Context, databaseURL string) (*Sink, error) {
	if databaseURL == "" {
		return nil, errors.New("database url is required")
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, errors.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Errorf("pinging database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, errors.Errorf("ensuring schema: %w", err)
	}
	return &Sink{pool: pool}, nil
}

// Upsert writes every bucket of the report in one transaction. Replaying
// the same report overwrites the same rows.
func (s *Sink) Upsert(ctx context.Context, rep *report.Report) error {
	batch := &pgx.Batch{}
	for _, row := range rep.Rows {
		batch.Queue(upsertRow,
			rep.Date,
			rep.Location,
			row.IntervalStart,
			row.Orders,
			row.ItemQty.String(),
			row.NetSales.String(),
			row.ModifierSales.String(),
		)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return errors.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	br := tx.SendBatch(ctx, batch)
	for range rep.Rows {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return errors.Errorf("upserting report row: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return errors.Errorf("closing batch: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return errors.Errorf("committing report: %w", err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("location", rep.Location).
		Time("report_date", rep.Date).
		Int("rows", len(rep.Rows)).
		Msg("report upserted")
	return nil
}

func (s *Sink) Close() error {
	s.pool.Close()
	return nil
}
