package sources

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/ignite/marketpulse/internal/datanorm"
)

// Querier runs a query. *sql.DB, *sql.Conn and *sql.Tx satisfy it.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// SQLSource runs a query and returns its result set as an export. Column
// names become headers and every value is rendered as text so the result
// goes through the same classification as a file upload.
type SQLSource struct {
	name  string
	db    Querier
	query string
	args  []any
}

// NewSQLSource returns a source running query with args against db.
func NewSQLSource(name string, db Querier, query string, args ...any) *SQLSource {
	return &SQLSource{name: name, db: db, query: query, args: args}
}

func (s *SQLSource) Name() string { return s.name }

func (s *SQLSource) Fetch(ctx context.Context) (*datanorm.Dataset, error) {
	rows, err := s.db.QueryContext(ctx, s.query, s.args...)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", s.name, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%s: columns: %w", s.name, err)
	}

	ds := &datanorm.Dataset{Headers: cols, Rows: [][]string{}}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("%s: scan row %d: %w", s.name, len(ds.Rows)+1, err)
		}
		row := make([]string, len(cols))
		for i, v := range values {
			row[i] = stringify(v)
		}
		ds.Rows = append(ds.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", s.name, err)
	}
	return ds, nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format("2006-01-02")
		}
		return t.Format(time.RFC3339)
	}
	return fmt.Sprint(v)
}
