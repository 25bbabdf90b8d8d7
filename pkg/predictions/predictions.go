// Package predictions reads the match-prediction history for resolved players.
package predictions

import (
	"errors"
	"time"
)

// Default lookup sizes.
const (
	DefaultMatchupLimit = 20
	DefaultMatchesBack  = 10
	RecentResults       = 5
)

// ErrUnavailable reports that no prediction history is configured.
var ErrUnavailable = errors.New("predictions store unavailable")

// Prediction is one predicted match.
type Prediction struct {
	ID                int64     `json:"id"`
	Day               time.Time `json:"day"`
	Player1           string    `json:"player1"`
	Player2           string    `json:"player2"`
	Tournament        string    `json:"tournament,omitempty"`
	Surface           string    `json:"surface,omitempty"`
	PredictedWinner   string    `json:"predicted_winner"`
	ActualWinner      string    `json:"actual_winner,omitempty"`
	OddsPlayer1       float64   `json:"odds_player1"`
	OddsPlayer2       float64   `json:"odds_player2"`
	Confidence        float64   `json:"confidence"`
	RecommendedAction string    `json:"recommended_action,omitempty"`
	ValueBet          bool      `json:"value_bet"`
}

// Opponent returns the other participant of a match involving player.
func (p Prediction) Opponent(player string) string {
	if p.Player1 == player {
		return p.Player2
	}
	return p.Player1
}

// Completed reports whether the match has a recorded winner.
func (p Prediction) Completed() bool {
	return p.ActualWinner != ""
}

// PredictedOdds returns the odds quoted for the predicted winner.
func (p Prediction) PredictedOdds() float64 {
	if p.PredictedWinner == p.Player2 {
		return p.OddsPlayer2
	}
	return p.OddsPlayer1
}

// Result is a completed match from one player's point of view.
type Result struct {
	Day        time.Time `json:"day"`
	Opponent   string    `json:"opponent"`
	Won        bool      `json:"won"`
	Confidence float64   `json:"confidence"`
	ValueBet   bool      `json:"value_bet"`
}

// Form summarises a player's recent predictions.
type Form struct {
	Player             string   `json:"player"`
	MatchesAnalyzed    int      `json:"matches_analyzed"`
	Completed          int      `json:"completed"`
	Wins               int      `json:"wins"`
	WinRate            float64  `json:"win_rate"`
	PredictedWins      int      `json:"predicted_wins"`
	CorrectPredictions int      `json:"correct_predictions"`
	PredictionAccuracy float64  `json:"prediction_accuracy"`
	ValueBets          int      `json:"value_bets"`
	ValueBetWins       int      `json:"value_bet_wins"`
	Recent             []Result `json:"recent"`
}

// ComputeForm derives a Form from predictions involving player, newest first.
// Rates are percentages over completed matches.
func ComputeForm(player string, preds []Prediction) *Form {
	f := &Form{Player: player, MatchesAnalyzed: len(preds), Recent: []Result{}}
	for _, p := range preds {
		if !p.Completed() {
			continue
		}
		f.Completed++
		won := p.ActualWinner == player
		if won {
			f.Wins++
		}
		if p.PredictedWinner == player {
			f.PredictedWins++
			if won {
				f.CorrectPredictions++
			}
		}
		if p.ValueBet {
			f.ValueBets++
			if won {
				f.ValueBetWins++
			}
		}
		if len(f.Recent) < RecentResults {
			f.Recent = append(f.Recent, Result{
				Day:        p.Day,
				Opponent:   p.Opponent(player),
				Won:        won,
				Confidence: p.Confidence,
				ValueBet:   p.ValueBet,
			})
		}
	}
	f.WinRate = percent(f.Wins, f.Completed)
	f.PredictionAccuracy = percent(f.CorrectPredictions, f.PredictedWins)
	return f
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
