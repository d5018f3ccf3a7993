package commands

import (
	"context"

	"gitlab.com/tozd/go/errors"

	"github.com/walteh/storefeed/cmd/storefeed/opts"
	"github.com/walteh/storefeed/pkg/checkpoint"
	"github.com/walteh/storefeed/pkg/datescope"
	"github.com/walteh/storefeed/pkg/ingest"
	"github.com/walteh/storefeed/pkg/log"
	"github.com/walteh/storefeed/pkg/matcher"
	"github.com/walteh/storefeed/pkg/remote"
	"github.com/walteh/storefeed/pkg/remote/sftp"
	"github.com/walteh/storefeed/pkg/sink"
	"github.com/walteh/storefeed/pkg/sink/postgres"
	"github.com/walteh/storefeed/pkg/sink/sqlite"
)

// newProvider builds and registers the remote provider from config.
func newProvider(o *opts.RootOpts) (remote.Provider, error) {
	cfg := sftp.Config{
		Host:     o.Config.Remote.Host,
		Port:     o.Config.Remote.Port,
		Username: o.Config.Remote.Username,
		KeyPath:  o.Config.Remote.KeyPath,
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("remote config: %w", err)
	}
	remote.RegisterProvider("sftp", sftp.New(cfg))
	return remote.GetProvider("sftp")
}

// newSink builds the configured report sink. The caller owns Close.
func newSink(ctx context.Context, o *opts.RootOpts) (sink.Sink, error) {
	switch o.Config.Database.Driver {
	case "postgres":
		return postgres.New(ctx, o.Config.Database.URL)
	case "sqlite":
		return sqlite.New(ctx, o.Config.Database.Path)
	default:
		return nil, errors.Errorf("unknown database driver %q", o.Config.Database.Driver)
	}
}

func newMatcher(o *opts.RootOpts) *matcher.Matcher {
	return matcher.New(
		matcher.WithKeywords(o.Config.Ingest.ItemKeyword, o.Config.Ingest.ModifierKeyword),
		matcher.WithIgnoreGlobs(o.Config.Ingest.IgnorePatterns),
	)
}

// runScope assembles the full retry loop for a scope and runs it to its
// terminal outcome.
func runScope(ctx context.Context, o *opts.RootOpts, scope datescope.Scope) error {
	logger := log.FromContext(ctx)

	provider, err := newProvider(o)
	if err != nil {
		return err
	}
	snk, err := newSink(ctx, o)
	if err != nil {
		return errors.Errorf("opening sink: %w", err)
	}
	defer snk.Close()

	runner := &ingest.Runner{
		Pass: &ingest.Pass{
			Provider:    provider,
			Sink:        snk,
			Matcher:     newMatcher(o),
			Checkpoints: checkpoint.NewStore(o.Config.StateDir, scope),
			Scope:       scope,
			Interval:    o.Config.BucketInterval(),
			Exclude:     o.Config.Ingest.Exclude,
		},
		MaxAttempts: o.Config.Ingest.MaxAttempts,
		Sleep:       o.Config.Sleep(),
	}

	logger.Header("harvesting " + scope.String() + " from " + o.Config.Remote.Host)

	res, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	switch res.Outcome {
	case ingest.OutcomeComplete:
		logger.Successf("complete: %d entities processed in %d pass(es)", len(res.Processed), res.Attempts)
	case ingest.OutcomeExhausted:
		logger.Warningf("exhausted after %d passes, %d entities remaining: %v",
			res.Attempts, len(res.Remaining), res.Remaining)
	}
	return nil
}

// parseDate parses a --date / --start / --end flag value.
func parseDate(value string) (datescope.Scope, error) {
	day, err := datescope.ParseFolder(value)
	if err != nil {
		return datescope.Scope{}, errors.Errorf("expected YYYYMMDD: %w", err)
	}
	return datescope.Single(day), nil
}
