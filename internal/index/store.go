package index

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	_ "github.com/marcboeker/go-duckdb" // DuckDB driver

	"github.com/coinsight/coinsight/internal/embedding"
	"github.com/coinsight/coinsight/internal/schema"
)

// ErrModelMismatch reports that the persisted index was built with a
// different embedding model than the one configured. Similarity scores
// across models are meaningless, so this is never papered over: the caller
// must rebuild explicitly.
var ErrModelMismatch = stderrors.New("index embedding model mismatch")

// Store persists the schema index in a local DuckDB file. One file can hold
// one collection; a rebuild drops and recreates it wholesale, there are no
// incremental updates.
type Store struct {
	path       string
	collection string
}

// NewStore creates a Store for the index file at path.
func NewStore(path, collection string) *Store {
	return &Store{path: path, collection: collection}
}

// Build returns a ready Index. If a persisted index with the same collection
// and embedding model already exists and force is false, it is loaded
// without any embedding calls. Otherwise every chunk of doc is embedded and
// the index is rewritten. Embedding errors propagate unmodified: a broken
// index build is fatal to startup, not recoverable per request.
func (s *Store) Build(ctx context.Context, doc *schema.Document, provider embedding.Provider, force bool) (*Index, error) {
	if !force {
		ix, err := s.Load(provider)
		if err == nil {
			return ix, nil
		}

		if stderrors.Is(err, ErrModelMismatch) {
			return nil, err
		}
		// Missing or unreadable index falls through to a full build.
	}

	chunks := doc.Chunks()

	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		texts = append(texts, c.Text)
	}

	vectors, err := provider.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed schema chunks: %w", err)
	}

	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedding count mismatch: %d vectors for %d chunks", len(vectors), len(chunks))
	}

	entries := make([]Entry, 0, len(chunks))
	for i, c := range chunks {
		entries = append(entries, Entry{Chunk: c, Vector: vectors[i]})
	}

	if err := s.persist(ctx, entries, provider.Model()); err != nil {
		return nil, err
	}

	return &Index{
		collection: s.collection,
		model:      provider.Model(),
		entries:    entries,
		provider:   provider,
	}, nil
}

// Load reads a persisted index from disk. It fails if the stored collection
// or embedding model doesn't match: retrieving with a different model than
// the one that built the index silently returns garbage similarity scores,
// so a mismatch must be loud.
func (s *Store) Load(provider embedding.Provider) (*Index, error) {
	db, err := sql.Open("duckdb", s.path+"?access_mode=read_only")
	if err != nil {
		return nil, fmt.Errorf("failed to open index file: %w", err)
	}
	defer db.Close()

	var storedCollection, storedModel string

	row := db.QueryRow(`SELECT collection, embedding_model FROM index_meta`)
	if err := row.Scan(&storedCollection, &storedModel); err != nil {
		return nil, fmt.Errorf("no persisted index found: %w", err)
	}

	if storedCollection != s.collection {
		return nil, fmt.Errorf("persisted index holds collection %q, want %q", storedCollection, s.collection)
	}

	if storedModel != provider.Model() {
		return nil, fmt.Errorf(
			"%w: persisted index was built with %q but %q is configured; rebuild the index",
			ErrModelMismatch, storedModel, provider.Model())
	}

	rows, err := db.Query(`SELECT id, text, table_name, warehouse_name, column_names, vector FROM schema_chunks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to read index chunks: %w", err)
	}
	defer rows.Close()

	var entries []Entry

	for rows.Next() {
		var (
			chunk      schema.Chunk
			vectorJSON string
		)

		if err := rows.Scan(&chunk.ID, &chunk.Text, &chunk.TableName, &chunk.WarehouseName, &chunk.ColumnNames, &vectorJSON); err != nil {
			return nil, fmt.Errorf("failed to scan index chunk: %w", err)
		}

		var vector []float32
		if err := json.Unmarshal([]byte(vectorJSON), &vector); err != nil {
			return nil, fmt.Errorf("failed to decode vector for chunk %s: %w", chunk.ID, err)
		}

		entries = append(entries, Entry{Chunk: chunk, Vector: vector})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read index chunks: %w", err)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("persisted index is empty")
	}

	return &Index{
		collection: s.collection,
		model:      storedModel,
		entries:    entries,
		provider:   provider,
	}, nil
}

func (s *Store) persist(ctx context.Context, entries []Entry, model string) error {
	db, err := sql.Open("duckdb", s.path)
	if err != nil {
		return fmt.Errorf("failed to open index file for writing: %w", err)
	}
	defer db.Close()

	stmts := []string{
		`DROP TABLE IF EXISTS schema_chunks`,
		`DROP TABLE IF EXISTS index_meta`,
		`CREATE TABLE index_meta (
			collection      VARCHAR,
			embedding_model VARCHAR,
			built_at        TIMESTAMP
		)`,
		`CREATE TABLE schema_chunks (
			id             VARCHAR PRIMARY KEY,
			text           VARCHAR,
			table_name     VARCHAR,
			warehouse_name VARCHAR,
			column_names   VARCHAR,
			vector         VARCHAR
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to reset index tables: %w", err)
		}
	}

	if _, err := db.ExecContext(ctx,
		`INSERT INTO index_meta VALUES (?, ?, ?)`,
		s.collection, model, time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("failed to write index metadata: %w", err)
	}

	insert, err := db.PrepareContext(ctx, `INSERT INTO schema_chunks VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare chunk insert: %w", err)
	}
	defer insert.Close()

	for _, e := range entries {
		vectorJSON, err := json.Marshal(e.Vector)
		if err != nil {
			return fmt.Errorf("failed to encode vector for chunk %s: %w", e.Chunk.ID, err)
		}

		if _, err := insert.ExecContext(ctx,
			e.Chunk.ID, e.Chunk.Text, e.Chunk.TableName, e.Chunk.WarehouseName, e.Chunk.ColumnNames, string(vectorJSON),
		); err != nil {
			return fmt.Errorf("failed to persist chunk %s: %w", e.Chunk.ID, err)
		}
	}

	return nil
}
