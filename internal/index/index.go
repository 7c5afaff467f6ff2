// Package index builds, persists, and searches the schema vector index.
// The index is built once per process (or loaded from disk) and the
// resulting handle is immutable: concurrent questions share it without
// locking, and a rebuild produces a fresh handle for the caller to swap in.
package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/coinsight/coinsight/internal/embedding"
	"github.com/coinsight/coinsight/internal/errors"
	"github.com/coinsight/coinsight/internal/schema"
)

// chunkSeparator joins retrieved chunk texts so the downstream prompt sees
// each table as a distinct block.
const chunkSeparator = "\n\n---\n\n"

// Entry pairs one schema chunk with its embedding vector.
type Entry struct {
	Chunk  schema.Chunk
	Vector []float32
}

// Index is an immutable, in-memory view of the persisted schema index plus
// the provider used to embed queries against it.
type Index struct {
	collection string
	model      string
	entries    []Entry
	provider   embedding.Provider
}

// Count returns the number of indexed chunks.
func (ix *Index) Count() int {
	return len(ix.entries)
}

// Model returns the embedding model identity the index was built with.
func (ix *Index) Model() string {
	return ix.model
}

// TableNames returns the indexed table names in index order.
func (ix *Index) TableNames() []string {
	names := make([]string, 0, len(ix.entries))
	for _, e := range ix.entries {
		names = append(names, e.Chunk.TableName)
	}

	return names
}

// Retrieve embeds the question and returns the top-n chunks by cosine
// similarity: the joined chunk texts as schema context, and the parallel
// list of table names. n is clamped to the number of chunks available.
func (ix *Index) Retrieve(ctx context.Context, question string, n int) (string, []string, error) {
	if n > len(ix.entries) {
		n = len(ix.entries)
	}

	if n <= 0 {
		return "", nil, errors.New(errors.ErrTypeInternal, "schema index is empty")
	}

	vectors, err := ix.provider.Embed(ctx, []string{question})
	if err != nil {
		return "", nil, fmt.Errorf("failed to embed question: %w", err)
	}

	queryVec := vectors[0]

	type scored struct {
		entry Entry
		score float64
	}

	ranked := make([]scored, 0, len(ix.entries))
	for _, e := range ix.entries {
		ranked = append(ranked, scored{entry: e, score: cosineSimilarity(queryVec, e.Vector)})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	texts := make([]string, 0, n)
	tables := make([]string, 0, n)

	for _, r := range ranked[:n] {
		texts = append(texts, r.entry.Chunk.Text)
		tables = append(tables, r.entry.Chunk.TableName)
	}

	return strings.Join(texts, chunkSeparator), tables, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64

	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
