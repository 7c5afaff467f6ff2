package warehouse

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/marcboeker/go-duckdb" // DuckDB driver
)

// NewDuckDB opens the local mock warehouse read-only. Nothing on the query
// path writes to this file; the interaction log lives elsewhere.
func NewDuckDB(path string, maxRows int) (Executor, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("mock database not found at %s; run 'coinsight seed' first", path)
	}

	db, err := sql.Open("duckdb", path+"?access_mode=read_only")
	if err != nil {
		return nil, fmt.Errorf("failed to open mock database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open mock database: %w", err)
	}

	return &sqlExecutor{db: db, backend: "duckdb (mock)", maxRows: maxRows}, nil
}
