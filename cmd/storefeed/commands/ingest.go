package commands

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/storefeed/cmd/storefeed/opts"
	"github.com/walteh/storefeed/pkg/datescope"
)

// NewIngestCmd creates a new ingest command
func NewIngestCmd(o *opts.RootOpts) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Harvest one business day from the remote drop site",
		Long: `Ingest sweeps every store folder on the remote drop site for the given
business day, transforms each store's export pair into an interval report,
and upserts it into the database. Stores whose exports are not published
yet are retried on a sleep loop until everything is processed or the
attempt budget runs out.

The day defaults to yesterday (UTC), matching the export publishing
cadence.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctx = zerolog.Ctx(ctx).With().Str("command", "ingest").Logger().WithContext(ctx)

			scope := datescope.Yesterday(time.Now())
			if date != "" {
				var err error
				scope, err = parseDate(date)
				if err != nil {
					return errors.Errorf("parsing --date: %w", err)
				}
			}

			if err := runScope(ctx, o, scope); err != nil {
				return errors.Errorf("ingesting %s: %w", scope, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "business day to harvest (YYYYMMDD, default yesterday UTC)")

	return cmd
}
