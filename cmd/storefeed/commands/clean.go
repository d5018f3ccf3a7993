package commands

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/storefeed/cmd/storefeed/opts"
	"github.com/walteh/storefeed/pkg/checkpoint"
	"github.com/walteh/storefeed/pkg/datescope"
	"github.com/walteh/storefeed/pkg/log"
)

// NewCleanCmd creates a new clean command
func NewCleanCmd(o *opts.RootOpts) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove a checkpoint record",
		Long: `Clean deletes the durable checkpoint record for a business day so the
next ingest of that day starts from scratch. Without --date it removes
the shared range-backfill record.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctx = zerolog.Ctx(ctx).With().Str("command", "clean").Logger().WithContext(ctx)
			logger := log.FromContext(ctx)

			// The zero range scope maps to the shared backfill record.
			scope, err := datescope.Range(time.Unix(0, 0), time.Unix(0, 0))
			if err != nil {
				return err
			}
			if date != "" {
				scope, err = parseDate(date)
				if err != nil {
					return errors.Errorf("parsing --date: %w", err)
				}
			}

			store := checkpoint.NewStore(o.Config.StateDir, scope)
			if err := store.Clear(ctx); err != nil {
				return errors.Errorf("clearing checkpoint: %w", err)
			}
			logger.Successf("removed %s", store.Path())
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "business day whose record to remove (YYYYMMDD)")

	return cmd
}
