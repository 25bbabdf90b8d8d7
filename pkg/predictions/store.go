package predictions

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	sq "github.com/Masterminds/squirrel"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/courtline/tennis-agent/pkg/database"
)

// DefaultTable is the prediction history table.
const DefaultTable = "predictions"

const tracerName = "github.com/courtline/tennis-agent/pkg/predictions"

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// predictionColumns lists columns returned by prediction SELECT queries.
var predictionColumns = []string{
	"prediction_id", "prediction_day", "player1", "player2", "tournament", "surface",
	"predicted_winner", "actual_winner", "odds_player1", "odds_player2",
	"confidence_score", "recommended_action", "value_bet",
}

// Store reads predictions from SQL.
type Store struct {
	db      *sql.DB
	builder sq.StatementBuilderType
	table   string
	tracer  trace.Tracer
}

// Config configures the predictions store.
type Config struct {
	Table string
}

// NewStore creates a predictions store. A nil db yields a store whose
// lookups fail with ErrUnavailable.
func NewStore(db *sql.DB, dialect database.Dialect, cfg Config) (*Store, error) {
	table := cfg.Table
	if table == "" {
		table = DefaultTable
	}
	if !tableNameRe.MatchString(table) {
		return nil, fmt.Errorf("invalid predictions table name %q", table)
	}
	return &Store{db: db, builder: dialect.Builder(), table: table, tracer: otel.Tracer(tracerName)}, nil
}

// Matchups returns up to limit predictions involving player, most recent
// day first and then by confidence.
func (s *Store) Matchups(ctx context.Context, player string, limit int) ([]Prediction, error) {
	if limit < 1 {
		limit = DefaultMatchupLimit
	}
	return s.query(ctx, "predictions.Matchups", player, limit, "prediction_day DESC", "confidence_score DESC")
}

// Form computes the player's form over their last matchesBack predictions.
func (s *Store) Form(ctx context.Context, player string, matchesBack int) (*Form, error) {
	if matchesBack < 1 {
		matchesBack = DefaultMatchesBack
	}
	preds, err := s.query(ctx, "predictions.Form", player, matchesBack, "prediction_day DESC", "prediction_id DESC")
	if err != nil {
		return nil, err
	}
	return ComputeForm(player, preds), nil
}

func (s *Store) query(ctx context.Context, span string, player string, limit int, orderBy ...string) (preds []Prediction, err error) {
	ctx, sp := s.tracer.Start(ctx, span, trace.WithAttributes(attribute.String("player.name", player)))
	defer func() {
		if err != nil {
			sp.RecordError(err)
			sp.SetStatus(codes.Error, err.Error())
		}
		sp.End()
	}()

	if s.db == nil {
		return nil, ErrUnavailable
	}

	query, args, err := s.builder.
		Select(predictionColumns...).
		From(s.table).
		Where(sq.Or{sq.Eq{"player1": player}, sq.Eq{"player2": player}}).
		OrderBy(orderBy...).
		Limit(uint64(limit)). //nolint:gosec // limit is positive
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building predictions query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying predictions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	preds = make([]Prediction, 0, limit)
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating prediction rows: %w", err)
	}
	return preds, nil
}

func scanPrediction(rows *sql.Rows) (Prediction, error) {
	var (
		p                                   Prediction
		tournament, surface, actual, action sql.NullString
		odds1, odds2, confidence            sql.NullFloat64
		valueBet                            sql.NullBool
	)
	err := rows.Scan(
		&p.ID, &p.Day, &p.Player1, &p.Player2, &tournament, &surface,
		&p.PredictedWinner, &actual, &odds1, &odds2,
		&confidence, &action, &valueBet,
	)
	if err != nil {
		return Prediction{}, fmt.Errorf("scanning prediction: %w", err)
	}
	p.Tournament = tournament.String
	p.Surface = surface.String
	p.ActualWinner = actual.String
	p.RecommendedAction = action.String
	p.OddsPlayer1 = odds1.Float64
	p.OddsPlayer2 = odds2.Float64
	p.Confidence = confidence.Float64
	p.ValueBet = valueBet.Bool
	return p, nil
}
