package embedding

import "context"

// Provider defines the interface for embedding services. The schema index
// and the retriever must use the same provider model or similarity scores
// are meaningless; the index records Model() to enforce that at load time.
type Provider interface {
	// Embed generates one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Model returns the embedding model identity.
	Model() string
}
