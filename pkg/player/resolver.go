package player

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// Status classifies the outcome of resolving an input.
type Status string

// Resolution statuses.
const (
	StatusResolved  Status = "resolved"
	StatusAmbiguous Status = "ambiguous"
	StatusNotFound  Status = "not_found"
)

// Resolution is the outcome of Resolve.
type Resolution struct {
	Input      string   `json:"input"`
	Status     Status   `json:"status"`
	Candidates []string `json:"candidates"`
}

// Name returns the canonical name of a resolved input, or "".
func (r Resolution) Name() string {
	if r.Status != StatusResolved || len(r.Candidates) == 0 {
		return ""
	}
	return r.Candidates[0]
}

// Config configures a Resolver.
type Config struct {
	// DefaultMaxResults is used by callers that pass no explicit limit.
	DefaultMaxResults int
	// ExpandLimit bounds the candidates considered by ExpandPlayerName.
	ExpandLimit int
	Logger      *slog.Logger
}

// Resolver maps user input to canonical player names.
type Resolver struct {
	dir         Directory
	maxResults  int
	expandLimit int
	logger      *slog.Logger
}

// NewResolver creates a resolver over dir. A nil dir behaves as an
// unavailable directory.
func NewResolver(dir Directory, cfg Config) *Resolver {
	if dir == nil {
		dir = unavailableDirectory{}
	}
	if cfg.DefaultMaxResults < 1 {
		cfg.DefaultMaxResults = DefaultMaxResults
	}
	if cfg.ExpandLimit < 1 {
		cfg.ExpandLimit = DefaultExpandLimit
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Resolver{
		dir:         dir,
		maxResults:  cfg.DefaultMaxResults,
		expandLimit: cfg.ExpandLimit,
		logger:      cfg.Logger,
	}
}

// DefaultMaxResults returns the configured default result limit.
func (r *Resolver) DefaultMaxResults() int {
	return r.maxResults
}

// FindPlayers returns up to maxResults canonical names matching searchName,
// exact matches first, then surname and partial matches for single-word
// input. Directory failures yield an empty list.
func (r *Resolver) FindPlayers(ctx context.Context, searchName string, maxResults int) []Match {
	matches, err := r.find(ctx, searchName, maxResults)
	if err != nil {
		r.logger.Warn("player lookup failed",
			"op", "find_players", "search", searchName, "error", err)
		return []Match{}
	}
	return matches
}

// ExpandPlayerName returns the canonical names input may refer to: a single
// name when it is unambiguous, every candidate when it is ambiguous, and an
// empty list when nothing matches.
func (r *Resolver) ExpandPlayerName(ctx context.Context, input string) []string {
	matches, err := r.find(ctx, input, r.expandLimit)
	if err != nil {
		r.logger.Warn("player expansion failed",
			"op", "expand_player_name", "search", input, "error", err)
		name := Normalize(input)
		if errors.Is(err, ErrDirectoryUnavailable) && len(strings.Fields(name)) > 1 {
			return []string{name}
		}
		return []string{}
	}

	if len(matches) > 0 && matches[0].Kind == MatchExact {
		return []string{matches[0].Name}
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m.Name)
	}
	return names
}

// Resolve classifies input as resolved, ambiguous or not found.
func (r *Resolver) Resolve(ctx context.Context, input string) Resolution {
	names := r.ExpandPlayerName(ctx, input)
	res := Resolution{Input: input, Candidates: names}
	switch len(names) {
	case 0:
		res.Status = StatusNotFound
	case 1:
		res.Status = StatusResolved
	default:
		res.Status = StatusAmbiguous
	}
	return res
}

func (r *Resolver) find(ctx context.Context, searchName string, maxResults int) ([]Match, error) {
	name := Normalize(searchName)
	if name == "" {
		return []Match{}, nil
	}
	maxResults = max(maxResults, 1)

	candidates, err := r.dir.Candidates(ctx, name)
	if err != nil {
		return nil, err
	}

	set := newMatchSet(maxResults)
	for _, c := range candidates {
		if strings.EqualFold(c, name) {
			set.add(c, MatchExact)
		}
	}
	if len(strings.Fields(name)) == 1 {
		for _, c := range candidates {
			if strings.EqualFold(surname(c), name) {
				set.add(c, MatchSurname)
			}
		}
		lower := strings.ToLower(name)
		for _, c := range candidates {
			if strings.Contains(strings.ToLower(c), lower) {
				set.add(c, MatchPartial)
			}
		}
	}
	return set.matches, nil
}

// matchSet is an insertion-ordered set of matches keyed by name.
type matchSet struct {
	limit   int
	seen    map[string]struct{}
	matches []Match
}

func newMatchSet(limit int) *matchSet {
	return &matchSet{limit: limit, seen: make(map[string]struct{}), matches: []Match{}}
}

func (s *matchSet) add(name string, kind MatchKind) {
	if len(s.matches) >= s.limit {
		return
	}
	if _, ok := s.seen[name]; ok {
		return
	}
	s.seen[name] = struct{}{}
	s.matches = append(s.matches, Match{Name: name, Kind: kind})
}
