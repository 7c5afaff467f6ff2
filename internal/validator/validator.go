// Package validator is the safety gate between the language model and the
// warehouse. Generated SQL never reaches a backend without passing through
// Validate. Every check is pure text analysis with no side effects.
package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/coinsight/coinsight/internal/errors"
)

// Sentinel is the token the generation prompt instructs the model to emit
// when the question cannot be answered from the retrieved schema.
const Sentinel = "CANNOT_ANSWER"

// blockedKeywords are never acceptable in generated SQL. The core set covers
// DDL/DML; PUT, GET, REMOVE, COPY INTO, and SYSTEM$ cover Snowflake file
// transfer, bulk load, and system functions.
var blockedKeywords = []string{
	"DROP", "DELETE", "TRUNCATE", "UPDATE", "INSERT",
	"MERGE", "ALTER", "CREATE", "GRANT", "REVOKE",
	"EXECUTE", "EXEC", "CALL",
	"PUT", "GET", "REMOVE",
	"COPY INTO",
	"SYSTEM$",
}

// Word-boundary patterns so a column named created_at never trips CREATE.
// Compiled once; Validate is on every request path.
var blockedPatterns = func() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(blockedKeywords))
	for _, kw := range blockedKeywords {
		patterns = append(patterns, regexp.MustCompile(`\b`+regexp.QuoteMeta(kw)+`\b`))
	}

	return patterns
}()

// Validate checks a generated SQL string and returns the executable form,
// appending a LIMIT clause when the model omitted one. The returned SQL is
// always a single read-only SELECT/WITH statement bounded by maxRows.
//
// Checks run in order and the first failure aborts:
//  1. non-empty
//  2. cannot-answer sentinel
//  3. allowlist: first token must be SELECT or WITH
//  4. blocklist: no destructive keyword as a standalone token
//  5. LIMIT injection (a repair, not a failure)
func Validate(sql string, maxRows int) (string, error) {
	if strings.TrimSpace(sql) == "" {
		return "", errors.New(errors.ErrTypeValidation, "empty SQL returned by the model")
	}

	if strings.EqualFold(strings.TrimSpace(sql), Sentinel) {
		return "", errors.New(errors.ErrTypeValidation,
			"the agent couldn't map this question to the available schema; "+
				"try asking about coin prices, market caps, volume, or BTC dominance")
	}

	// Collapse whitespace runs so keyword matching is position-independent.
	normalized := strings.Join(strings.Fields(sql), " ")
	upper := strings.ToUpper(normalized)

	first := strings.Fields(upper)[0]
	if first != "SELECT" && first != "WITH" {
		return "", errors.Newf(errors.ErrTypeValidation,
			"only SELECT queries are allowed, got a query starting with: %s", first)
	}

	for i, pattern := range blockedPatterns {
		if pattern.MatchString(upper) {
			return "", errors.Newf(errors.ErrTypeValidation,
				"blocked keyword '%s' found in generated SQL", blockedKeywords[i])
		}
	}

	if !strings.Contains(upper, "LIMIT") {
		normalized = fmt.Sprintf("%s LIMIT %d", strings.TrimRight(normalized, ";"), maxRows)
	}

	return normalized, nil
}
