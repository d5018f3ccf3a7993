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
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/walteh/storefeed/pkg/checkpoint"
	"github.com/walteh/storefeed/pkg/datescope"
	"github.com/walteh/storefeed/pkg/log"
	"github.com/walteh/storefeed/pkg/matcher"
	"github.com/walteh/storefeed/pkg/remote"
	"github.com/walteh/storefeed/pkg/report"
	"github.com/walteh/storefeed/pkg/sink"
)

// Pass performs one sweep over every entity on the remote store. Each sweep
// opens a fresh session, visits every not-yet-done entity, and marks the
// ones whose artifact pair was found, transformed, and upserted.
type Pass struct {
	Provider    remote.Provider
	Sink        sink.Sink
	Matcher     *matcher.Matcher
	Checkpoints *checkpoint.Store
	Scope       datescope.Scope
	Interval    time.Duration
	Exclude     []string
}

// Run sweeps the remote once. done is mutated in place: every entity fully
// processed this sweep is added and checkpointed before the next entity
// starts. The returned set is the universe of eligible entities seen on the
// remote, which the controller diffs against done to decide completion.
//
// A connectivity failure (connect or root listing) fails the whole sweep.
// Per-entity failures are logged and isolated; the entity stays unmarked
// and is retried on the next sweep.
func (p *Pass) Run(ctx context.Context, done checkpoint.Set) (checkpoint.Set, error) {
	logger := log.FromContext(ctx)

	session, err := p.Provider.Connect(ctx)
	if err != nil {
		return nil, errors.Errorf("connecting to remote: %w", err)
	}
	defer session.Close()

	entities, err := session.ListEntities(ctx)
	if err != nil {
		return nil, errors.Errorf("listing entities: %w", err)
	}
	sort.Strings(entities)

	excluded := checkpoint.NewSet(p.Exclude...)

	universe := checkpoint.NewSet()
	for _, entity := range entities {
		// Excluded entities never enter the universe, so they cannot hold
		// a run open.
		if excluded.Has(entity) {
			logger.LogEntityOperation(ctx, log.EntityOperation{
				Entity: entity, Status: "excluded", IsSkipped: true,
			})
			continue
		}
		universe.Add(entity)

		if done.Has(entity) {
			logger.LogEntityOperation(ctx, log.EntityOperation{
				Entity: entity, Status: "already done", IsSkipped: true,
			})
			continue
		}

		folder, rows, err := p.processEntity(ctx, session, entity)
		switch {
		case err != nil && ctx.Err() != nil:
			return universe, errors.Errorf("processing entity %s: %w", entity, err)
		case err != nil:
			logger.LogEntityOperation(ctx, log.EntityOperation{
				Entity: entity, Date: folder, Status: "failed", IsFailed: true,
			})
			zerolog.Ctx(ctx).Error().Err(err).Str("entity", entity).Msg("entity failed this pass")
		case folder == "":
			logger.LogEntityOperation(ctx, log.EntityOperation{
				Entity: entity, Status: "not ready",
			})
		default:
			done.Add(entity)
			if err := p.Checkpoints.Save(ctx, done); err != nil {
				// The entity stays marked in memory; at worst a crash
				// before the next save repeats one idempotent upsert.
				zerolog.Ctx(ctx).Warn().Err(err).Str("entity", entity).Msg("checkpoint save failed")
			}
			logger.LogEntityOperation(ctx, log.EntityOperation{
				Entity: entity,
				Date:   folder,
				Status: fmt.Sprintf("upserted %d rows", rows),
				IsDone: true,
				Rows:   rows,
			})
		}
	}

	return universe, nil
}

// processEntity walks the entity's eligible date folders in ascending order
// and processes the first one holding a complete artifact pair with usable
// data. It returns the folder processed and the number of report rows
// upserted; an empty folder means nothing was ready.
func (p *Pass) processEntity(ctx context.Context, session remote.Session, entity string) (string, int, error) {
	folders, err := p.candidateFolders(ctx, session, entity)
	if err != nil {
		return "", 0, err
	}

	for _, folder := range folders {
		files, err := session.ListFiles(ctx, entity, folder)
		if err != nil {
			if remote.IsNotFound(err) {
				continue
			}
			return folder, 0, errors.Errorf("listing folder %s: %w", folder, err)
		}

		res := p.Matcher.Match(files)
		if !res.Complete() {
			zerolog.Ctx(ctx).Debug().
				Str("entity", entity).
				Str("folder", folder).
				Strs("missing", res.Missing()).
				Msg("artifact pair incomplete")
			continue
		}

		items, modifiers, err := p.fetchPair(ctx, session, entity, folder, res.Pair)
		if err != nil {
			return folder, 0, err
		}

		rep, err := report.Generate(bytes.NewReader(items), bytes.NewReader(modifiers), p.Interval)
		if err != nil {
			if errors.Is(err, report.ErrEmpty) {
				zerolog.Ctx(ctx).Debug().
					Str("entity", entity).
					Str("folder", folder).
					Msg("exports hold no usable data yet")
				continue
			}
			return folder, 0, errors.Errorf("generating report for %s/%s: %w", entity, folder, err)
		}

		if err := p.Sink.Upsert(ctx, rep); err != nil {
			return folder, 0, errors.Errorf("upserting report for %s/%s: %w", entity, folder, err)
		}
		return folder, len(rep.Rows), nil
	}

	return "", 0, nil
}

// candidateFolders resolves the folders to try for one entity. Single-date
// scopes go straight to the named folder; range scopes list the entity's
// subfolders and filter them through the scope.
func (p *Pass) candidateFolders(ctx context.Context, session remote.Session, entity string) ([]string, error) {
	if p.Scope.IsSingle() {
		return []string{p.Scope.Folder()}, nil
	}

	folders, err := session.ListDateFolders(ctx, entity)
	if err != nil {
		if remote.IsNotFound(err) {
			return nil, nil
		}
		return nil, errors.Errorf("listing date folders for %s: %w", entity, err)
	}
	return p.Scope.Candidates(folders), nil
}

// fetchPair downloads both artifacts of the matched pair concurrently.
func (p *Pass) fetchPair(ctx context.Context, session remote.Session, entity, folder string, pair matcher.Pair) ([]byte, []byte, error) {
	var items, modifiers []byte

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = readRemoteFile(gctx, session, entity, folder, pair.Item)
		return err
	})
	g.Go(func() error {
		var err error
		modifiers, err = readRemoteFile(gctx, session, entity, folder, pair.Modifier)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return items, modifiers, nil
}

func readRemoteFile(ctx context.Context, session remote.Session, entity, folder, name string) ([]byte, error) {
	rc, err := session.Open(ctx, entity, folder, name)
	if err != nil {
		return nil, errors.Errorf("opening %s: %w", name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.Errorf("reading %s: %w", name, err)
	}
	return data, nil
}
