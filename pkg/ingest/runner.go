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

package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/storefeed/pkg/checkpoint"
	"github.com/walteh/storefeed/pkg/log"
)

// Outcome is the terminal state of a run.
type Outcome string

const (
	// OutcomeComplete means every eligible entity seen on the remote was
	// processed.
	OutcomeComplete Outcome = "COMPLETE"
	// OutcomeExhausted means the attempt budget ran out with entities
	// still unprocessed.
	OutcomeExhausted Outcome = "EXHAUSTED"
)

// Result summarizes a finished run.
type Result struct {
	Outcome   Outcome
	Attempts  int
	Processed []string
	Remaining []string
}

// Runner drives the pass/sleep retry loop: sweep the remote, and while
// entities remain unprocessed, sleep and sweep again until either nothing
// remains or the attempt budget is spent.
type Runner struct {
	Pass        *Pass
	MaxAttempts int
	Sleep       time.Duration
}

// Run executes the full retry loop. The durable checkpoint is loaded once at
// start so a restarted run resumes where the previous one stopped. For range
// scopes the checkpoint is cleared when the run ends, whatever the outcome;
// single-date checkpoints are kept so a re-run of the same date stays cheap.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	runID := uuid.NewString()
	zlog := zerolog.Ctx(ctx).With().Str("run_id", runID).Logger()
	ctx = zlog.WithContext(ctx)
	logger := log.FromContext(ctx)

	done, err := r.Pass.Checkpoints.Load(ctx)
	if err != nil {
		return Result{}, errors.Errorf("loading checkpoint: %w", err)
	}
	if done.Len() > 0 {
		logger.Infof("resuming: %d entities already done", done.Len())
	}

	if !r.Pass.Scope.IsSingle() {
		defer func() {
			if err := r.Pass.Checkpoints.Clear(context.WithoutCancel(ctx)); err != nil {
				zlog.Warn().Err(err).Msg("clearing range checkpoint failed")
			}
		}()
	}

	universe := checkpoint.NewSet()
	var remaining []string

	for attempt := 1; attempt <= r.MaxAttempts; attempt++ {
		logger.StartPassOperation(ctx, log.PassOperation{
			Attempt: attempt,
			Max:     r.MaxAttempts,
			Scope:   r.Pass.Scope.String(),
			Host:    r.Pass.Provider.Name(),
		})

		seen, passErr := r.Pass.Run(ctx, done)
		logger.EndPassOperation(ctx)

		if ctx.Err() != nil {
			return Result{}, errors.Errorf("run canceled: %w", ctx.Err())
		}

		if seen != nil {
			universe.Union(seen)
		}
		remaining = universe.Diff(done)

		switch {
		case passErr != nil:
			// A failed sweep still consumes an attempt; the remote may
			// recover before the budget runs out.
			logger.Warningf("pass %d failed: %v", attempt, passErr)
		case len(remaining) == 0:
			return Result{
				Outcome:   OutcomeComplete,
				Attempts:  attempt,
				Processed: done.Sorted(),
			}, nil
		default:
			logger.Infof("pass %d: %d of %d entities remaining", attempt, len(remaining), universe.Len())
		}

		if attempt < r.MaxAttempts {
			if err := r.sleep(ctx); err != nil {
				return Result{}, errors.Errorf("run canceled: %w", err)
			}
		}
	}

	return Result{
		Outcome:   OutcomeExhausted,
		Attempts:  r.MaxAttempts,
		Processed: done.Sorted(),
		Remaining: remaining,
	}, nil
}

// sleep waits out the inter-pass interval, cutting it short on context
// cancellation.
func (r *Runner) sleep(ctx context.Context) error {
	timer := time.NewTimer(r.Sleep)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
