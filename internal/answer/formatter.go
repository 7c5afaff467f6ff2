// Package answer turns query result rows into a plain-language answer with
// a second language-model call. The trust boundary ends at SQL execution;
// the generated prose is display-only and is not post-validated.
package answer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/coinsight/coinsight/internal/llm"
	"github.com/coinsight/coinsight/internal/warehouse"
)

// NoDataMessage is returned without any model call when a query comes back
// empty. Asking a model to comment on absent data invites hallucination.
const NoDataMessage = "No data found. The pipeline may not have run yet, or the coin " +
	"you asked about isn't in the top tracked list."

const (
	rowPreviewLimit = 15
	maxAnswerTokens = 300
)

// Formatter produces the final natural-language answer.
type Formatter struct {
	llm         llm.Service
	temperature float64
}

// New creates a Formatter. A small nonzero temperature keeps the prose from
// sounding robotic; SQL-style determinism is not needed for display text.
func New(service llm.Service, temperature float64) *Formatter {
	return &Formatter{llm: service, temperature: temperature}
}

// Format answers the question from the executed SQL and its result rows.
func (f *Formatter) Format(ctx context.Context, question, sqlText string, rows []warehouse.Row) (string, error) {
	if len(rows) == 0 {
		return NoDataMessage, nil
	}

	prompt := buildPrompt(question, sqlText, rows)

	text, err := f.llm.Complete(ctx, prompt, llm.Options{Temperature: f.temperature, MaxTokens: maxAnswerTokens})
	if err != nil {
		return "", fmt.Errorf("answer formatting failed: %w", err)
	}

	return text, nil
}

func buildPrompt(question, sqlText string, rows []warehouse.Row) string {
	preview := rows
	if len(preview) > rowPreviewLimit {
		preview = preview[:rowPreviewLimit]
	}

	// Rows render as JSON; close enough to tabular for the model and stable
	// to test against.
	previewJSON, err := json.Marshal(preview)
	if err != nil {
		previewJSON = []byte(fmt.Sprintf("%v", preview))
	}

	return fmt.Sprintf(`You are a crypto market analyst. Answer the question directly and concisely.

RULES:
- Lead with the direct answer (price, value, percentage)
- Format USD amounts with commas and 2 decimal places: $95,432.10
- Format percentages with a + or - sign and 2 decimals: +3.42%%
- Always mention the data timestamp (as_of or fetched_at field) so the user knows freshness
- If the timestamp looks old (more than a few hours), note that the pipeline may not have run recently
- Keep it under 120 words
- Do not quote the SQL

QUESTION: %s
SQL USED: %s
RESULTS: %s

ANSWER:`, question, sqlText, previewJSON)
}
