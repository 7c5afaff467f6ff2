// Package logsink records every agent interaction in the warehouse itself,
// so agent performance is queryable with the same SQL tools as the data.
// Writes are best-effort: the orchestrator warns on failure and moves on.
package logsink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb" // DuckDB driver
	_ "github.com/snowflakedb/gosnowflake"
)

// Record captures one complete interaction from question to answer (or
// failure). Never mutated after write.
type Record struct {
	RunID        string
	CreatedAt    time.Time
	Question     string
	GeneratedSQL string
	Answer       string
	RowCount     int
	LatencyMS    float64
	TablesUsed   []string
	Error        string
}

// NewRecord creates a Record with a fresh run id and UTC timestamp.
func NewRecord(question string) Record {
	return Record{
		RunID:     uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Question:  question,
	}
}

// Sink is an append-only destination for interaction records. Concurrent
// writers are fine; each record is independent and ordering across
// questions is not guaranteed.
type Sink interface {
	Write(ctx context.Context, rec Record) error
	Close() error
}

const createLogTableSQL = `
CREATE TABLE IF NOT EXISTS agent_query_log (
	run_id        VARCHAR PRIMARY KEY,
	created_at    TIMESTAMP,
	question      VARCHAR,
	generated_sql VARCHAR,
	answer        VARCHAR,
	row_count     INTEGER,
	latency_ms    DOUBLE,
	tables_used   VARCHAR,
	error         VARCHAR
)`

// SQLSink writes records to an agent_query_log table over database/sql.
type SQLSink struct {
	db *sql.DB
}

// OpenDuckDB opens (read-write) the local mock warehouse for log writes and
// ensures the log table exists.
func OpenDuckDB(path string) (*SQLSink, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log database: %w", err)
	}

	return newSQLSink(db)
}

// OpenSnowflake connects to the production warehouse for log writes.
func OpenSnowflake(dsn string) (*SQLSink, error) {
	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open log connection: %w", err)
	}

	return newSQLSink(db)
}

func newSQLSink(db *sql.DB) (*SQLSink, error) {
	if _, err := db.Exec(createLogTableSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create agent_query_log: %w", err)
	}

	return &SQLSink{db: db}, nil
}

// Write appends one record.
func (s *SQLSink) Write(ctx context.Context, rec Record) error {
	tablesJSON, err := json.Marshal(rec.TablesUsed)
	if err != nil {
		return fmt.Errorf("failed to encode tables list: %w", err)
	}

	var errValue any
	if rec.Error != "" {
		errValue = rec.Error
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO agent_query_log VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.CreatedAt, rec.Question, rec.GeneratedSQL, rec.Answer,
		rec.RowCount, rec.LatencyMS, string(tablesJSON), errValue,
	)
	if err != nil {
		return fmt.Errorf("failed to write interaction log: %w", err)
	}

	return nil
}

func (s *SQLSink) Close() error {
	return s.db.Close()
}
