// Package sqlgen renders the SQL-generation prompt and invokes the language
// model. The output here is untrusted text; the validator decides whether it
// ever reaches a warehouse.
package sqlgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/coinsight/coinsight/internal/llm"
	"github.com/coinsight/coinsight/internal/validator"
)

// Dialect tags which backend's SQL syntax the prompt targets.
type Dialect string

const (
	DialectDuckDB    Dialect = "DuckDB"
	DialectSnowflake Dialect = "Snowflake"
)

const maxSQLTokens = 512

// Generator produces one SQL statement per question.
type Generator struct {
	llm     llm.Service
	dialect Dialect
	maxRows int
}

// New creates a Generator bound to one dialect for the process lifetime.
func New(service llm.Service, dialect Dialect, maxRows int) *Generator {
	return &Generator{llm: service, dialect: dialect, maxRows: maxRows}
}

// Generate calls the model at temperature 0 and returns the raw SQL text.
// Determinism matters here: the same question and schema context must
// produce the same SQL. The cannot-answer sentinel passes through verbatim
// for the validator to turn into a user-facing error.
func (g *Generator) Generate(ctx context.Context, question, schemaContext string) (string, error) {
	prompt := g.buildPrompt(question, schemaContext)

	sql, err := g.llm.Complete(ctx, prompt, llm.Options{Temperature: 0, MaxTokens: maxSQLTokens})
	if err != nil {
		return "", fmt.Errorf("SQL generation failed: %w", err)
	}

	return stripFences(sql), nil
}

func (g *Generator) buildPrompt(question, schemaContext string) string {
	tableNote := "Use plain table names (e.g. current_top_10, daily_coin_prices)."
	if g.dialect == DialectSnowflake {
		tableNote = "Use fully qualified Snowflake names as shown in the schema (e.g. CRYPTO.ANALYTICS.CURRENT_TOP_10)."
	}

	return fmt.Sprintf(`You are an expert %s SQL analyst working with CoinMarketCap market data.
Write a single SELECT query to answer the question below.

IMPORTANT CRYPTO-SPECIFIC RULES:
- Symbol matching must be case-insensitive: use UPPER(symbol) = UPPER('BTC') or ILIKE
- "Today", "current", "now", "latest" -> use the current_top_10 table (already filtered to latest)
- For historical questions -> use daily_coin_prices or price_history_7d
- Always include the as_of or fetched_at column in SELECT so the user knows how fresh the data is
- %s
- Output ONLY the SQL - no explanation, no markdown, no code fences
- Always include LIMIT %d
- If you cannot answer from the available schema, output: %s

SCHEMA CONTEXT:
%s

QUESTION: %s

SQL QUERY:`, g.dialect, tableNote, g.maxRows, validator.Sentinel, schemaContext, question)
}

// stripFences removes a markdown code fence if the model added one despite
// the prompt: drop the first and last lines, keep the rest.
func stripFences(sql string) string {
	trimmed := strings.TrimSpace(sql)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return trimmed
	}

	return strings.TrimSpace(strings.Join(lines[1:len(lines)-1], "\n"))
}
