package llm

import "context"

// Service defines the interface for chat-completion calls. The SQL
// generator and the answer formatter share one client; they differ only in
// prompt and sampling options.
type Service interface {
	Complete(ctx context.Context, prompt string, opts Options) (string, error)
}

// Options control sampling for one completion call. SQL generation uses
// Temperature 0; prose formatting uses a small nonzero temperature.
type Options struct {
	Temperature float64
	MaxTokens   int
}
