package matcher

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Default keywords identifying the two required exports inside a dated
// folder. Matching is case-insensitive and independent of any prefix,
// suffix, or extension the exporter tacks on.
const (
	DefaultItemKeyword     = "itemselectiondetails"
	DefaultModifierKeyword = "modifiersselectiondetails"
)

// Matcher identifies the required artifact pair within a folder listing.
type Matcher struct {
	itemKeyword     string
	modifierKeyword string
	ignoreGlobs     []string
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithKeywords overrides the default artifact keywords. Empty values keep
// the defaults.
func WithKeywords(item, modifier string) Option {
	return func(m *Matcher) {
		if item != "" {
			m.itemKeyword = strings.ToLower(item)
		}
		if modifier != "" {
			m.modifierKeyword = strings.ToLower(modifier)
		}
	}
}

// WithIgnoreGlobs excludes filenames matching any of the given doublestar
// globs before keyword matching. Useful for skipping exporter junk like
// `*.tmp` or `.*` sidecar files.
func WithIgnoreGlobs(globs []string) Option {
	return func(m *Matcher) { m.ignoreGlobs = globs }
}

func New(opts ...Option) *Matcher {
	m := &Matcher{
		itemKeyword:     DefaultItemKeyword,
		modifierKeyword: DefaultModifierKeyword,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Pair is the matched artifact pair: the item-selection export and the
// modifier-selection export within one dated folder.
type Pair struct {
	Item     string
	Modifier string
}

// Result reports the outcome of matching one folder listing. An incomplete
// result is a not-ready condition, never an error; Missing names which
// keyword(s) had no match.
type Result struct {
	Pair    Pair
	hasItem bool
	hasMod  bool
	itemKw  string
	modKw   string
}

// Complete reports whether both required artifacts were found.
func (r Result) Complete() bool { return r.hasItem && r.hasMod }

// Missing returns the keywords that had no matching filename.
func (r Result) Missing() []string {
	var missing []string
	if !r.hasItem {
		missing = append(missing, r.itemKw)
	}
	if !r.hasMod {
		missing = append(missing, r.modKw)
	}
	return missing
}

// Match scans a folder listing for the artifact pair. When multiple
// filenames match the same keyword the first in listing order wins, so a
// sorted listing yields a deterministic pick.
func (m *Matcher) Match(files []string) Result {
	res := Result{itemKw: m.itemKeyword, modKw: m.modifierKeyword}
	for _, name := range files {
		if m.ignored(name) {
			continue
		}
		lower := strings.ToLower(name)
		switch {
		case !res.hasItem && strings.Contains(lower, m.itemKeyword):
			res.Pair.Item = name
			res.hasItem = true
		case !res.hasMod && strings.Contains(lower, m.modifierKeyword):
			res.Pair.Modifier = name
			res.hasMod = true
		}
		if res.Complete() {
			break
		}
	}
	return res
}

func (m *Matcher) ignored(name string) bool {
	for _, glob := range m.ignoreGlobs {
		matched, err := doublestar.Match(glob, name)
		if err != nil {
			continue
		}
		if matched {
			return true
		}
	}
	return false
}
