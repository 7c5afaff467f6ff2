// Package warehouse executes validated SQL against the configured backend
// and normalizes results into a uniform row shape. Exactly one backend is
// selected per process: the local DuckDB mock or Snowflake.
package warehouse

import (
	"context"
	"database/sql"

	"github.com/coinsight/coinsight/internal/errors"
)

// Row maps column name to scalar value. Row order is whatever the backend
// returned; only the SQL itself can guarantee ordering.
type Row map[string]any

// Executor runs one read-only query. Implementations wrap backend errors
// into a generic execution failure so callers never branch on driver types.
type Executor interface {
	Execute(ctx context.Context, sqlText string) ([]Row, error)
	Backend() string
	Close() error
}

// sqlExecutor is the shared database/sql implementation behind both
// backends.
type sqlExecutor struct {
	db      *sql.DB
	backend string
	maxRows int
}

func (e *sqlExecutor) Backend() string {
	return e.backend
}

func (e *sqlExecutor) Close() error {
	return e.db.Close()
}

// Execute runs the query and returns at most maxRows rows regardless of the
// SQL's own LIMIT. The cap is a final resource guard, not a correctness
// mechanism.
func (e *sqlExecutor) Execute(ctx context.Context, sqlText string) ([]Row, error) {
	rows, err := e.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, e.wrapErr(err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, e.wrapErr(err)
	}

	results := make([]Row, 0)

	for rows.Next() {
		if len(results) >= e.maxRows {
			break
		}

		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))

		for i := range values {
			scanTargets[i] = &values[i]
		}

		if err := rows.Scan(scanTargets...); err != nil {
			return nil, e.wrapErr(err)
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}

		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, e.wrapErr(err)
	}

	return results, nil
}

func (e *sqlExecutor) wrapErr(err error) error {
	return errors.Wrapf(err, errors.ErrTypeExecution,
		"query execution failed on %s; check that the database is seeded and the SQL is valid", e.backend)
}

func normalizeValue(value any) any {
	if b, ok := value.([]byte); ok {
		return string(b)
	}

	return value
}
