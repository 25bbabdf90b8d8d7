// Package sqlstore provides a player.Directory over the match-history table.
package sqlstore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/courtline/tennis-agent/pkg/database"
	"github.com/courtline/tennis-agent/pkg/player"
)

// DefaultTable is the match-history table scanned for names.
const DefaultTable = "predictions"

const tracerName = "github.com/courtline/tennis-agent/pkg/player/sqlstore"

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// likeEscaper escapes LIKE wildcards with a backslash.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Directory implements player.Directory by scanning the player1 and player2
// columns of the match-history table.
type Directory struct {
	db      *sql.DB
	builder sq.StatementBuilderType
	table   string
	tracer  trace.Tracer
	// filterInSQL is set when the engine's LOWER folds Unicode; otherwise
	// names are matched in Go after the scan.
	filterInSQL bool
}

// Config configures the SQL player directory.
type Config struct {
	// Table is the match-history table. Defaults to DefaultTable.
	Table string
}

// New creates a new SQL player directory.
func New(db *sql.DB, dialect database.Dialect, cfg Config) (*Directory, error) {
	table := cfg.Table
	if table == "" {
		table = DefaultTable
	}
	if !tableNameRe.MatchString(table) {
		return nil, fmt.Errorf("invalid match-history table name %q", table)
	}
	return &Directory{
		db:          db,
		builder:     dialect.Builder(),
		table:       table,
		tracer:      otel.Tracer(tracerName),
		filterInSQL: dialect.UnicodeLower(),
	}, nil
}

// Candidates returns the distinct player names containing fragment,
// case-insensitively, ordered by name.
func (d *Directory) Candidates(ctx context.Context, fragment string) (names []string, err error) {
	ctx, span := d.tracer.Start(ctx, "player.Candidates",
		trace.WithAttributes(attribute.String("player.fragment", fragment)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if d.db == nil {
		return nil, fmt.Errorf("%w: no database configured", player.ErrDirectoryUnavailable)
	}

	needle := strings.ToLower(fragment)
	qb := d.builder.
		Select("name").
		From(fmt.Sprintf("(SELECT player1 AS name FROM %[1]s UNION SELECT player2 AS name FROM %[1]s) AS players", d.table)).
		Where(sq.NotEq{"name": nil})
	if d.filterInSQL {
		qb = qb.Where(`LOWER(name) LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(needle)+"%")
	}
	query, args, err := qb.OrderBy("name").ToSql()
	if err != nil {
		return nil, fmt.Errorf("building player query: %w", err)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer func() { _ = rows.Close() }()

	names = []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning player name: %w", err)
		}
		if !d.filterInSQL && !strings.Contains(strings.ToLower(name), needle) {
			continue
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return names, nil
}

// classify wraps structural failures in player.ErrDirectoryUnavailable.
func classify(err error) error {
	if isUnavailable(err) {
		return fmt.Errorf("%w: %w", player.ErrDirectoryUnavailable, err)
	}
	return fmt.Errorf("querying players: %w", err)
}

func isUnavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code.Class() == "08": // connection_exception
			return true
		case pqErr.Code.Class() == "28": // invalid_authorization_specification
			return true
		case pqErr.Code == "3D000", pqErr.Code == "42P01": // invalid_catalog_name, undefined_table
			return true
		}
		return false
	}
	return strings.Contains(err.Error(), "no such table")
}

// Verify interface compliance.
var _ player.Directory = (*Directory)(nil)
