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

package checkpoint

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/storefeed/pkg/datescope"
)

// Set is the collection of entity identifiers marked done for the current
// run scope. It only ever grows during a run.
type Set map[string]struct{}

func NewSet(ids ...string) Set {
	s := Set{}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s Set) Add(id string) { s[id] = struct{}{} }

func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s Set) Len() int { return len(s) }

// Sorted returns the members in lexical order, the canonical serialization
// order for the durable record.
func (s Set) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Diff returns the members of s not present in other, sorted.
func (s Set) Diff(other Set) []string {
	var out []string
	for id := range s {
		if !other.Has(id) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// Union adds every member of other to s.
func (s Set) Union(other Set) {
	for id := range other {
		s.Add(id)
	}
}

// FilenameFor returns the durable record filename for a run scope.
// Single-date runs get a per-date record so concurrent backfills of
// different days never share state; range runs share one record that the
// controller clears at end of run.
func FilenameFor(scope datescope.Scope) string {
	if scope.IsSingle() {
		return "processed_stores_" + scope.Folder() + ".json"
	}
	return "processed_stores.json"
}

// Store persists a Set as a sorted JSON string array at a fixed path. The
// whole record is rewritten on every save; there are no partial writes.
type Store struct {
	path string
}

func NewStore(dir string, scope datescope.Scope) *Store {
	return &Store{path: filepath.Join(dir, FilenameFor(scope))}
}

// Path returns the durable record's location, for logs and status output.
func (s *Store) Path() string { return s.path }

// Load reads the durable record. A missing or corrupt record yields an
// empty set: corruption means "nothing processed yet", never a failed run.
func (s *Store) Load(ctx context.Context) (Set, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Set{}, nil
		}
		return nil, errors.Errorf("reading checkpoint record %s: %w", s.path, err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		zerolog.Ctx(ctx).Warn().
			Err(err).
			Str("path", s.path).
			Msg("checkpoint record is corrupt, treating as empty")
		return Set{}, nil
	}
	return NewSet(ids...), nil
}

// Save atomically overwrites the durable record with the full current set.
// It is called after every successful entity so a crash never loses more
// than the in-flight entity.
func (s *Store) Save(ctx context.Context, set Set) error {
	data, err := json.Marshal(set.Sorted())
	if err != nil {
		return errors.Errorf("encoding checkpoint record: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return errors.Errorf("creating checkpoint dir: %w", err)
	}

	// Temp file + rename keeps the record whole under crash at any point.
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return errors.Errorf("creating temp checkpoint file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Errorf("writing temp checkpoint file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Errorf("closing temp checkpoint file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return errors.Errorf("replacing checkpoint record: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("path", s.path).Int("entities", set.Len()).Msg("checkpoint saved")
	return nil
}

// Clear deletes the durable record. Clearing an absent record is not an
// error.
func (s *Store) Clear(ctx context.Context) error {
	if err := os.Remove(s.path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Errorf("removing checkpoint record %s: %w", s.path, err)
	}
	zerolog.Ctx(ctx).Debug().Str("path", s.path).Msg("checkpoint record cleared")
	return nil
}
