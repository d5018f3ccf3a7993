package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/storefeed/cmd/storefeed/opts"
	"github.com/walteh/storefeed/pkg/checkpoint"
	"github.com/walteh/storefeed/pkg/datescope"
	"github.com/walteh/storefeed/pkg/log"
	"github.com/walteh/storefeed/pkg/remote"
)

// NewStatusCmd creates a new status command
func NewStatusCmd(o *opts.RootOpts) *cobra.Command {
	var date string
	var probeRemote bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show checkpoint progress for a business day",
		Long: `Status reports which stores are already checkpointed for the given day.
With --remote it also connects to the drop site and reports, per store,
whether a complete export pair is published yet.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctx = zerolog.Ctx(ctx).With().Str("command", "status").Logger().WithContext(ctx)
			logger := log.FromContext(ctx)

			scope := datescope.Yesterday(time.Now())
			if date != "" {
				var err error
				scope, err = parseDate(date)
				if err != nil {
					return errors.Errorf("parsing --date: %w", err)
				}
			}

			store := checkpoint.NewStore(o.Config.StateDir, scope)
			done, err := store.Load(ctx)
			if err != nil {
				return errors.Errorf("loading checkpoint: %w", err)
			}

			logger.Header(fmt.Sprintf("status for %s (%s)", scope, store.Path()))
			logger.Infof("%d stores checkpointed", done.Len())
			for _, entity := range done.Sorted() {
				logger.LogEntityOperation(ctx, log.EntityOperation{
					Entity: entity, Date: scope.Folder(), Status: "done", IsDone: true,
				})
			}

			if !probeRemote {
				return nil
			}
			return probe(ctx, o, scope, done)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "business day to inspect (YYYYMMDD, default yesterday UTC)")
	cmd.Flags().BoolVar(&probeRemote, "remote", false, "also probe the drop site for export readiness")

	return cmd
}

// probe connects to the drop site and reports readiness for every store not
// yet checkpointed.
func probe(ctx context.Context, o *opts.RootOpts, scope datescope.Scope, done checkpoint.Set) error {
	logger := log.FromContext(ctx)

	provider, err := newProvider(o)
	if err != nil {
		return err
	}
	session, err := provider.Connect(ctx)
	if err != nil {
		return errors.Errorf("connecting to remote: %w", err)
	}
	defer session.Close()

	entities, err := session.ListEntities(ctx)
	if err != nil {
		return errors.Errorf("listing entities: %w", err)
	}

	m := newMatcher(o)
	for _, entity := range entities {
		if done.Has(entity) {
			continue
		}
		files, err := session.ListFiles(ctx, entity, scope.Folder())
		if err != nil {
			if remote.IsNotFound(err) {
				logger.LogEntityOperation(ctx, log.EntityOperation{
					Entity: entity, Date: scope.Folder(), Status: "folder missing",
				})
				continue
			}
			return errors.Errorf("listing folder for %s: %w", entity, err)
		}
		res := m.Match(files)
		if res.Complete() {
			logger.LogEntityOperation(ctx, log.EntityOperation{
				Entity: entity, Date: scope.Folder(), Status: "ready",
			})
		} else {
			logger.LogEntityOperation(ctx, log.EntityOperation{
				Entity: entity, Date: scope.Folder(),
				Status: fmt.Sprintf("missing %v", res.Missing()),
			})
		}
	}
	return nil
}
