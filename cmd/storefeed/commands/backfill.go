package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/storefeed/cmd/storefeed/opts"
	"github.com/walteh/storefeed/pkg/datescope"
)

// NewBackfillCmd creates a new backfill command
func NewBackfillCmd(o *opts.RootOpts) *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Harvest a date range from the remote drop site",
		Long: `Backfill sweeps every store for an inclusive date range. For each store
the earliest eligible day holding a complete export pair is harvested;
the shared checkpoint record is cleared when the run ends so the next
backfill starts fresh.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctx = zerolog.Ctx(ctx).With().Str("command", "backfill").Logger().WithContext(ctx)

			startDay, err := datescope.ParseFolder(start)
			if err != nil {
				return errors.Errorf("parsing --start: %w", err)
			}
			endDay, err := datescope.ParseFolder(end)
			if err != nil {
				return errors.Errorf("parsing --end: %w", err)
			}
			scope, err := datescope.Range(startDay, endDay)
			if err != nil {
				return err
			}

			if err := runScope(ctx, o, scope); err != nil {
				return errors.Errorf("backfilling %s: %w", scope, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "first day of the range (YYYYMMDD)")
	cmd.Flags().StringVar(&end, "end", "", "last day of the range (YYYYMMDD)")
	cmd.MarkFlagRequired("start")
	cmd.MarkFlagRequired("end")

	return cmd
}
