package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type sqlCall struct {
	query string
	args  []any
}

type rowFunc func(dest ...any) error

func (f rowFunc) Scan(dest ...any) error { return f(dest...) }

// fakeSQL answers queries from per-statement handlers.
type fakeSQL struct {
	calls    []sqlCall
	exec     map[string]func(args []any) (pgconn.CommandTag, error)
	queryRow map[string]func(args []any) pgx.Row
	query    map[string]func(args []any) (pgx.Rows, error)
}

func newFakeSQL() *fakeSQL {
	return &fakeSQL{
		exec:     map[string]func([]any) (pgconn.CommandTag, error){},
		queryRow: map[string]func([]any) pgx.Row{},
		query:    map[string]func([]any) (pgx.Rows, error){},
	}
}

func (f *fakeSQL) Exec(_ context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, sqlCall{query, args})
	h, ok := f.exec[query]
	if !ok {
		return pgconn.CommandTag{}, fmt.Errorf("unexpected exec: %s", query)
	}
	return h(args)
}

func (f *fakeSQL) QueryRow(_ context.Context, query string, args ...any) pgx.Row {
	f.calls = append(f.calls, sqlCall{query, args})
	h, ok := f.queryRow[query]
	if !ok {
		return rowFunc(func(...any) error { return fmt.Errorf("unexpected query: %s", query) })
	}
	return h(args)
}

func (f *fakeSQL) Query(_ context.Context, query string, args ...any) (pgx.Rows, error) {
	f.calls = append(f.calls, sqlCall{query, args})
	h, ok := f.query[query]
	if !ok {
		return nil, fmt.Errorf("unexpected query: %s", query)
	}
	return h(args)
}

// fakeRows replays rows of values through assign.
type fakeRows struct {
	rows   [][]any
	idx    int
	closed bool
}

func (r *fakeRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	if r.idx == 0 || r.idx > len(r.rows) {
		return pgx.ErrNoRows
	}
	return assign(r.rows[r.idx-1], dest)
}

func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) Close()                                       { r.closed = true }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return r.rows[r.idx-1], nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func assign(values []any, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("unexpected scan args: %d, want %d", len(dest), len(values))
	}
	for i, v := range values {
		var ok bool
		switch d := dest[i].(type) {
		case *string:
			var s string
			s, ok = v.(string)
			*d = s
		case **string:
			switch s := v.(type) {
			case nil:
				*d, ok = nil, true
			case string:
				*d, ok = &s, true
			}
		case *[]string:
			var s []string
			s, ok = v.([]string)
			*d = s
		case *int:
			var n int
			n, ok = v.(int)
			*d = n
		case *float64:
			var f float64
			f, ok = v.(float64)
			*d = f
		case *bool:
			var b bool
			b, ok = v.(bool)
			*d = b
		case *[]byte:
			var b []byte
			b, ok = v.([]byte)
			*d = append([]byte(nil), b...)
		case *time.Time:
			var ts time.Time
			ts, ok = v.(time.Time)
			*d = ts
		}
		if !ok {
			return fmt.Errorf("dest[%d] %T cannot take %T", i, dest[i], v)
		}
	}
	return nil
}
