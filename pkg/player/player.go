// Package player resolves free-form player names, as typed by users, to the
// canonical names recorded in the match history.
//
// Resolution is advisory: names are only ever taken from the Directory, and an
// ambiguous input is returned as a candidate list for the caller to
// disambiguate rather than being auto-picked.
package player

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Default limits.
const (
	DefaultMaxResults  = 5
	DefaultExpandLimit = 10
)

// ErrDirectoryUnavailable reports that the directory cannot be queried at
// all: no connection, no match-history table, or no directory configured.
var ErrDirectoryUnavailable = errors.New("player directory unavailable")

// MatchKind names the strategy that produced a match.
type MatchKind string

// Match kinds, in priority order.
const (
	MatchExact   MatchKind = "exact"
	MatchSurname MatchKind = "surname"
	MatchPartial MatchKind = "partial"
)

// Match is a canonical player name found for a search.
type Match struct {
	Name string    `json:"name"`
	Kind MatchKind `json:"kind"`
}

// Directory supplies canonical player names.
type Directory interface {
	// Candidates returns every canonical name whose lower-cased form contains
	// the lower-cased fragment. It may return a superset; the resolver
	// classifies each name itself.
	Candidates(ctx context.Context, fragment string) ([]string, error)
}

// Normalize trims s, collapses inner whitespace and title-cases each word.
// Words follow Unicode word boundaries, so an apostrophe does not start a new
// word: "o'brien" becomes "O'brien", not "O'Brien". Directory matching folds
// case, so this only shows in the name echoed back when the directory is
// unavailable.
func Normalize(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return cases.Title(language.Und).String(strings.Join(fields, " "))
}

// surname returns the last whitespace-separated token of name.
func surname(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// MemoryDirectory is a Directory over a fixed list of names.
type MemoryDirectory struct {
	mu    sync.RWMutex
	names []string
}

// NewMemoryDirectory creates a directory holding names, deduplicated and
// sorted. Blank names are dropped.
func NewMemoryDirectory(names ...string) *MemoryDirectory {
	d := &MemoryDirectory{}
	d.Add(names...)
	return d
}

// Add records more names.
func (d *MemoryDirectory) Add(names ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, n := range names {
		if strings.TrimSpace(n) != "" {
			d.names = append(d.names, n)
		}
	}
	slices.Sort(d.names)
	d.names = slices.Compact(d.names)
}

// Candidates implements Directory.
func (d *MemoryDirectory) Candidates(_ context.Context, fragment string) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	needle := strings.ToLower(fragment)
	var out []string
	for _, n := range d.names {
		if strings.Contains(strings.ToLower(n), needle) {
			out = append(out, n)
		}
	}
	return out, nil
}

// unavailableDirectory is used when no directory is configured.
type unavailableDirectory struct{}

func (unavailableDirectory) Candidates(context.Context, string) ([]string, error) {
	return nil, ErrDirectoryUnavailable
}

// Verify interface compliance.
var (
	_ Directory = (*MemoryDirectory)(nil)
	_ Directory = unavailableDirectory{}
)
