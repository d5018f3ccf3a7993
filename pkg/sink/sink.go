package sink

import (
	"context"

	"github.com/walteh/storefeed/pkg/report"
)

// Sink persists aggregated reports. Upsert must be idempotent per
// (report date, location, interval start): replaying a report after a crash
// or re-run must not duplicate rows.
type Sink interface {
	Upsert(ctx context.Context, rep *report.Report) error
	Close() error
}
