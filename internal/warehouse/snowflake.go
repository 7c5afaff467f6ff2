package warehouse

import (
	"database/sql"
	"fmt"

	_ "github.com/snowflakedb/gosnowflake" // Snowflake driver
)

// NewSnowflake connects to the production warehouse. The DSN should carry a
// read-only analyst role; the validator remains the primary write guard.
func NewSnowflake(dsn string, maxRows int) (Executor, error) {
	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open snowflake connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach snowflake: %w", err)
	}

	return &sqlExecutor{db: db, backend: "snowflake", maxRows: maxRows}, nil
}
