package player

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	resTestDjokovic = "Novak Djokovic"
	resTestNadal    = "Rafael Nadal"
)

// stubDirectory returns fixed candidates or a fixed error and counts calls.
type stubDirectory struct {
	names []string
	err   error
	calls int
}

func (d *stubDirectory) Candidates(_ context.Context, _ string) ([]string, error) {
	d.calls++
	return d.names, d.err
}

func newTestResolver(dir Directory) (*Resolver, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	return NewResolver(dir, Config{Logger: logger}), &buf
}

func TestNewResolver_Defaults(t *testing.T) {
	r := NewResolver(nil, Config{})
	assert.Equal(t, DefaultMaxResults, r.DefaultMaxResults())
	assert.Equal(t, DefaultExpandLimit, r.expandLimit)
	assert.NotNil(t, r.logger)
}

func TestFindPlayers_TwoPlayerScenario(t *testing.T) {
	r, _ := newTestResolver(NewMemoryDirectory(resTestDjokovic, resTestNadal))
	ctx := context.Background()

	assert.Equal(t, []Match{{Name: resTestDjokovic, Kind: MatchSurname}}, r.FindPlayers(ctx, "Djokovic", 5))
	assert.Equal(t, []Match{{Name: resTestDjokovic, Kind: MatchExact}}, r.FindPlayers(ctx, "novak djokovic", 5))
	assert.Equal(t, []Match{{Name: resTestNadal, Kind: MatchPartial}}, r.FindPlayers(ctx, "rafa", 5))
	assert.Empty(t, r.FindPlayers(ctx, "Federer", 5))
}

func TestFindPlayers_ExactFirstForEveryName(t *testing.T) {
	names := []string{resTestDjokovic, resTestNadal, "Nadal", "Carlos Alcaraz", "Alcaraz Garfia"}
	r, _ := newTestResolver(NewMemoryDirectory(names...))

	for _, n := range names {
		for k := 1; k <= 3; k++ {
			t.Run(fmt.Sprintf("%s/%d", n, k), func(t *testing.T) {
				got := r.FindPlayers(context.Background(), n, k)
				require.NotEmpty(t, got)
				assert.Equal(t, Match{Name: n, Kind: MatchExact}, got[0])
			})
		}
	}
}

func TestFindPlayers_PriorityAndDedup(t *testing.T) {
	// "Nadal" is exact for one entry, surname for another and partial for a third.
	r, _ := newTestResolver(NewMemoryDirectory("Nadal", resTestNadal, "Nadalini Rossi"))

	got := r.FindPlayers(context.Background(), "nadal", 10)
	assert.Equal(t, []Match{
		{Name: "Nadal", Kind: MatchExact},
		{Name: resTestNadal, Kind: MatchSurname},
		{Name: "Nadalini Rossi", Kind: MatchPartial},
	}, got)
}

func TestFindPlayers_Truncates(t *testing.T) {
	r, _ := newTestResolver(NewMemoryDirectory("Andy Murray", "Jamie Murray", "Murray Ross", "Bill Murrayfield"))

	got := r.FindPlayers(context.Background(), "Murray", 2)
	assert.Len(t, got, 2)
	assert.Equal(t, MatchSurname, got[0].Kind)

	one := r.FindPlayers(context.Background(), "Murray", 0)
	assert.Len(t, one, 1, "limits below one are treated as one")
}

func TestFindPlayers_MultiTokenSkipsSurnameAndPartial(t *testing.T) {
	r, _ := newTestResolver(NewMemoryDirectory("Novak Djokovic Jr"))

	assert.Empty(t, r.FindPlayers(context.Background(), "Novak Djokovic", 5))
}

func TestFindPlayers_BlankInputNeverQueries(t *testing.T) {
	dir := &stubDirectory{names: []string{resTestNadal}}
	r, _ := newTestResolver(dir)

	assert.Empty(t, r.FindPlayers(context.Background(), "   ", 5))
	assert.Empty(t, r.ExpandPlayerName(context.Background(), ""))
	assert.Zero(t, dir.calls)
}

func TestFindPlayers_DirectoryErrorIsSoft(t *testing.T) {
	r, logs := newTestResolver(&stubDirectory{err: errors.New("syntax error at or near")})

	got := r.FindPlayers(context.Background(), "Nadal", 5)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Contains(t, logs.String(), "op=find_players")
	assert.Contains(t, logs.String(), "search=Nadal")
}

func TestFindPlayers_IgnoresNonMatchingCandidates(t *testing.T) {
	// Directories may return a superset; only real matches are kept.
	r, _ := newTestResolver(&stubDirectory{names: []string{"Roger Federer", resTestNadal}})

	assert.Equal(t, []Match{{Name: resTestNadal, Kind: MatchSurname}}, r.FindPlayers(context.Background(), "Nadal", 5))
}

func TestExpandPlayerName(t *testing.T) {
	r, _ := newTestResolver(NewMemoryDirectory(resTestDjokovic, resTestNadal, "Andy Murray", "Jamie Murray"))
	ctx := context.Background()

	tests := []struct {
		input string
		want  []string
	}{
		{"Novak", []string{resTestDjokovic}},
		{"Nadal", []string{resTestNadal}},
		{"Federer", []string{}},
		{"rafael nadal", []string{resTestNadal}},
		{"Murray", []string{"Andy Murray", "Jamie Murray"}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, r.ExpandPlayerName(ctx, tt.input))
		})
	}
}

func TestExpandPlayerName_ExactWinsOverOthers(t *testing.T) {
	r, _ := newTestResolver(NewMemoryDirectory("Murray", "Andy Murray", "Jamie Murray"))

	assert.Equal(t, []string{"Murray"}, r.ExpandPlayerName(context.Background(), "murray"))
}

func TestExpandPlayerName_RespectsExpandLimit(t *testing.T) {
	var names []string
	for i := range 15 {
		names = append(names, fmt.Sprintf("Player%02d Smith", i))
	}
	r := NewResolver(NewMemoryDirectory(names...), Config{ExpandLimit: 4, Logger: slog.New(slog.DiscardHandler)})

	assert.Len(t, r.ExpandPlayerName(context.Background(), "Smith"), 4)
}

func TestExpandPlayerName_UnavailableDirectory(t *testing.T) {
	r, logs := newTestResolver(&stubDirectory{err: fmt.Errorf("%w: dial tcp: connection refused", ErrDirectoryUnavailable)})
	ctx := context.Background()

	assert.Equal(t, []string{resTestDjokovic}, r.ExpandPlayerName(ctx, "  novak   djokovic "))
	assert.Equal(t, []string{}, r.ExpandPlayerName(ctx, "Djokovic"))
	assert.Contains(t, logs.String(), "op=expand_player_name")
}

func TestExpandPlayerName_NilDirectoryIsUnavailable(t *testing.T) {
	r := NewResolver(nil, Config{Logger: slog.New(slog.DiscardHandler)})

	assert.Equal(t, []string{"Carlos Alcaraz"}, r.ExpandPlayerName(context.Background(), "carlos alcaraz"))
}

func TestExpandPlayerName_ApostropheNames(t *testing.T) {
	r, _ := newTestResolver(NewMemoryDirectory("Aidan O'Brien", "Rafael Nadal"))
	ctx := context.Background()

	assert.Equal(t, []string{"Aidan O'Brien"}, r.ExpandPlayerName(ctx, "aidan o'brien"))
	assert.Equal(t, []string{"Aidan O'Brien"}, r.ExpandPlayerName(ctx, "O'BRIEN"))

	offline := NewResolver(nil, Config{Logger: slog.New(slog.DiscardHandler)})
	assert.Equal(t, []string{"Aidan O'brien"}, offline.ExpandPlayerName(ctx, "aidan o'brien"))
}

func TestExpandPlayerName_QueryFailureIsEmpty(t *testing.T) {
	r, _ := newTestResolver(&stubDirectory{err: errors.New("column does not exist")})

	assert.Equal(t, []string{}, r.ExpandPlayerName(context.Background(), "Novak Djokovic"))
}

func TestResolve(t *testing.T) {
	r, _ := newTestResolver(NewMemoryDirectory(resTestDjokovic, "Andy Murray", "Jamie Murray"))
	ctx := context.Background()

	res := r.Resolve(ctx, "djokovic")
	assert.Equal(t, StatusResolved, res.Status)
	assert.Equal(t, resTestDjokovic, res.Name())
	assert.Equal(t, "djokovic", res.Input)

	res = r.Resolve(ctx, "Murray")
	assert.Equal(t, StatusAmbiguous, res.Status)
	assert.Empty(t, res.Name())
	assert.Len(t, res.Candidates, 2)

	res = r.Resolve(ctx, "Federer")
	assert.Equal(t, StatusNotFound, res.Status)
	assert.Empty(t, res.Name())
}
