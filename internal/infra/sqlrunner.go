package infra

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// SQLExecutor defines the contract required by repositories for executing SQL queries.
type SQLExecutor interface {
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
}

// ErrMissingMarker is returned for statements without a leading "--sql <uuid>" line.
var ErrMissingMarker = errors.New("sql marker missing or invalid")

// DefaultSlowQuery is the duration above which a statement is logged at warn.
const DefaultSlowQuery = 500 * time.Millisecond

var markerRegexp = regexp.MustCompile(`^--sql [0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

type statement struct {
	marker string
	body   string
	err    error
}

// SQLRunner strips the "--sql <uuid>" marker from each statement, runs it
// and logs the outcome under that marker. *pgxpool.Pool satisfies db.
type SQLRunner struct {
	db     SQLExecutor
	logger zerolog.Logger
	slow   time.Duration

	// parsed statements keyed by the raw query text
	cache sync.Map
}

func NewSQLRunner(db SQLExecutor, logger zerolog.Logger) *SQLRunner {
	return &SQLRunner{db: db, logger: logger, slow: DefaultSlowQuery}
}

// WithSlowThreshold overrides DefaultSlowQuery. Zero disables slow-query warnings.
func (r *SQLRunner) WithSlowThreshold(d time.Duration) *SQLRunner {
	r.slow = d
	return r
}

func (r *SQLRunner) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	st := r.prepare(query)
	if st.err != nil {
		return pgconn.CommandTag{}, st.err
	}
	start := time.Now()
	tag, err := r.db.Exec(ctx, st.body, args...)
	r.observe("exec", st.marker, start, err).Int64("rows", tag.RowsAffected()).Msg("sql")
	return tag, err
}

func (r *SQLRunner) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	st := r.prepare(query)
	if st.err != nil {
		return errorRow{err: st.err}
	}
	return &loggingRow{row: r.db.QueryRow(ctx, st.body, args...), runner: r, marker: st.marker, start: time.Now()}
}

func (r *SQLRunner) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	st := r.prepare(query)
	if st.err != nil {
		return nil, st.err
	}
	start := time.Now()
	rows, err := r.db.Query(ctx, st.body, args...)
	if err != nil {
		r.observe("query", st.marker, start, err).Msg("sql")
		return nil, err
	}
	return &loggingRows{Rows: rows, runner: r, marker: st.marker, start: start}, nil
}

func (r *SQLRunner) prepare(query string) statement {
	if v, ok := r.cache.Load(query); ok {
		return v.(statement)
	}
	marker, body, err := extractMarker(query)
	st := statement{marker: marker, body: body, err: err}
	if err == nil {
		r.cache.Store(query, st)
	}
	return st
}

// observe picks the log level from the outcome and elapsed time.
func (r *SQLRunner) observe(op, marker string, start time.Time, err error) *zerolog.Event {
	took := time.Since(start)
	var ev *zerolog.Event
	switch {
	case err != nil && !errors.Is(err, pgx.ErrNoRows):
		ev = r.logger.Error().Err(err)
	case r.slow > 0 && took >= r.slow:
		ev = r.logger.Warn().Bool("slow", true)
	default:
		ev = r.logger.Debug()
	}
	return ev.Str("op", op).Str("sql", marker).Dur("took", took)
}

type loggingRow struct {
	row    pgx.Row
	runner *SQLRunner
	marker string
	start  time.Time
}

func (l *loggingRow) Scan(dest ...any) error {
	err := l.row.Scan(dest...)
	l.runner.observe("query_row", l.marker, l.start, err).Msg("sql")
	return err
}

type loggingRows struct {
	pgx.Rows
	runner *SQLRunner
	marker string
	start  time.Time
	rows   int
	closed bool
}

func (l *loggingRows) Next() bool {
	if l.Rows.Next() {
		l.rows++
		return true
	}
	return false
}

func (l *loggingRows) Close() {
	l.Rows.Close()
	if l.closed {
		return
	}
	l.closed = true
	l.runner.observe("query", l.marker, l.start, l.Rows.Err()).Int("rows", l.rows).Msg("sql")
}

type errorRow struct {
	err error
}

func (e errorRow) Scan(...any) error {
	return e.err
}

func extractMarker(query string) (string, string, error) {
	trimmed := strings.TrimSpace(query)
	first, body, _ := strings.Cut(trimmed, "\n")
	first = strings.TrimSpace(first)
	if !markerRegexp.MatchString(first) {
		return "", "", ErrMissingMarker
	}
	return strings.TrimPrefix(first, "--sql "), strings.TrimSpace(body), nil
}

var _ SQLExecutor = (*SQLRunner)(nil)
