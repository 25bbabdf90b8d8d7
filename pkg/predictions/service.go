package predictions

import (
	"context"
	"log/slog"

	"github.com/courtline/tennis-agent/pkg/player"
)

// Lookup is the read surface of the predictions store.
type Lookup interface {
	Matchups(ctx context.Context, player string, limit int) ([]Prediction, error)
	Form(ctx context.Context, player string, matchesBack int) (*Form, error)
}

// Service resolves user input to a canonical player before reading their
// predictions. Lookups only run for resolved input.
type Service struct {
	resolver *player.Resolver
	lookup   Lookup
	logger   *slog.Logger
}

// MatchupsResult pairs a resolution with the player's matchups.
type MatchupsResult struct {
	Resolution player.Resolution `json:"resolution"`
	Matchups   []Prediction      `json:"matchups"`
}

// FormResult pairs a resolution with the player's form.
type FormResult struct {
	Resolution player.Resolution `json:"resolution"`
	Form       *Form             `json:"form,omitempty"`
}

// NewService creates a predictions service.
func NewService(resolver *player.Resolver, lookup Lookup, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{resolver: resolver, lookup: lookup, logger: logger}
}

// Resolver returns the player resolver used by the service.
func (s *Service) Resolver() *player.Resolver {
	return s.resolver
}

// Matchups returns the matchups of the player input refers to. When input is
// ambiguous or unknown, only the resolution is returned.
func (s *Service) Matchups(ctx context.Context, input string, limit int) (*MatchupsResult, error) {
	res := s.resolver.Resolve(ctx, input)
	out := &MatchupsResult{Resolution: res, Matchups: []Prediction{}}
	if res.Status != player.StatusResolved {
		return out, nil
	}

	preds, err := s.lookup.Matchups(ctx, res.Name(), limit)
	if err != nil {
		s.logger.Error("matchups lookup failed", "op", "matchups", "player", res.Name(), "error", err)
		return nil, err
	}
	out.Matchups = preds
	return out, nil
}

// Form returns the form of the player input refers to. When input is
// ambiguous or unknown, only the resolution is returned.
func (s *Service) Form(ctx context.Context, input string, matchesBack int) (*FormResult, error) {
	res := s.resolver.Resolve(ctx, input)
	out := &FormResult{Resolution: res}
	if res.Status != player.StatusResolved {
		return out, nil
	}

	form, err := s.lookup.Form(ctx, res.Name(), matchesBack)
	if err != nil {
		s.logger.Error("form lookup failed", "op", "form", "player", res.Name(), "error", err)
		return nil, err
	}
	out.Form = form
	return out, nil
}
