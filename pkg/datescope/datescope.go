package datescope

import (
	"sort"
	"time"

	"gitlab.com/tozd/go/errors"
)

// FolderLayout is the naming convention for dated folders on the remote
// store: one folder per business day, named YYYYMMDD.
const FolderLayout = "20060102"

// Scope restricts a run to a single business date or an inclusive date
// range. It is fixed for the lifetime of a run.
type Scope struct {
	start  time.Time
	end    time.Time
	single bool
}

// Single returns a scope covering exactly one business date.
func Single(day time.Time) Scope {
	day = truncate(day)
	return Scope{start: day, end: day, single: true}
}

// Range returns a scope covering the inclusive range [start, end].
func Range(start, end time.Time) (Scope, error) {
	start, end = truncate(start), truncate(end)
	if end.Before(start) {
		return Scope{}, errors.Errorf("invalid date range: start %s is after end %s",
			start.Format(FolderLayout), end.Format(FolderLayout))
	}
	return Scope{start: start, end: end}, nil
}

// ParseFolder parses a remote folder name as a business date. Folder names
// that are not valid YYYYMMDD dates return an error and are ignored by
// range scans.
func ParseFolder(name string) (time.Time, error) {
	day, err := time.ParseInLocation(FolderLayout, name, time.UTC)
	if err != nil {
		return time.Time{}, errors.Errorf("parsing folder name %q: %w", name, err)
	}
	return day, nil
}

// IsSingle reports whether the scope covers exactly one date.
func (s Scope) IsSingle() bool { return s.single }

func (s Scope) Start() time.Time { return s.start }

func (s Scope) End() time.Time { return s.end }

// Folder returns the remote folder name for a single-date scope.
func (s Scope) Folder() string { return s.start.Format(FolderLayout) }

// Contains reports whether day falls within the scope.
func (s Scope) Contains(day time.Time) bool {
	day = truncate(day)
	return !day.Before(s.start) && !day.After(s.end)
}

// Candidates filters a remote subfolder listing down to the folders eligible
// under this scope, sorted ascending by date. Names that do not parse as
// YYYYMMDD are skipped. Range scans iterate the result in order and stop at
// the first folder with a complete artifact pair.
func (s Scope) Candidates(folders []string) []string {
	type dated struct {
		name string
		day  time.Time
	}
	var eligible []dated
	for _, name := range folders {
		day, err := ParseFolder(name)
		if err != nil {
			continue
		}
		if s.Contains(day) {
			eligible = append(eligible, dated{name: name, day: day})
		}
	}
	sort.Slice(eligible, func(i, j int) bool { return eligible[i].day.Before(eligible[j].day) })

	names := make([]string, 0, len(eligible))
	for _, e := range eligible {
		names = append(names, e.name)
	}
	return names
}

// String renders the scope for logs and run summaries.
func (s Scope) String() string {
	if s.single {
		return s.start.Format(FolderLayout)
	}
	return s.start.Format(FolderLayout) + ".." + s.end.Format(FolderLayout)
}

// Yesterday returns the default single-date scope for scheduled runs: the
// previous UTC day, matching the remote store's publishing cadence.
func Yesterday(now time.Time) Scope {
	return Single(now.UTC().AddDate(0, 0, -1))
}

func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
