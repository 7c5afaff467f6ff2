// Package agent sequences the full pipeline for one question: retrieve
// schema context, generate SQL, validate it, execute it, format the answer.
// The flow is strictly linear; each step depends on the previous step's
// output. Concurrency exists only across independent questions, which share
// the immutable schema index.
package agent

import (
	"context"
	"log/slog"
	"time"

	"github.com/coinsight/coinsight/internal/errors"
	"github.com/coinsight/coinsight/internal/logsink"
	"github.com/coinsight/coinsight/internal/observability"
	"github.com/coinsight/coinsight/internal/validator"
	"github.com/coinsight/coinsight/internal/warehouse"
)

// Retriever returns schema context and the matched table names for a
// question. *index.Index satisfies this.
type Retriever interface {
	Retrieve(ctx context.Context, question string, n int) (string, []string, error)
}

// SQLGenerator produces raw SQL for a question. *sqlgen.Generator satisfies
// this.
type SQLGenerator interface {
	Generate(ctx context.Context, question, schemaContext string) (string, error)
}

// AnswerFormatter turns result rows into prose. *answer.Formatter satisfies
// this.
type AnswerFormatter interface {
	Format(ctx context.Context, question, sqlText string, rows []warehouse.Row) (string, error)
}

// Result is the outcome of one successful question.
type Result struct {
	Question   string   `json:"question"`
	SQL        string   `json:"sql"`
	Answer     string   `json:"answer"`
	RowCount   int      `json:"row_count"`
	LatencyMS  float64  `json:"latency_ms"`
	TablesUsed []string `json:"tables_used"`
}

// Agent owns the pipeline dependencies for the process lifetime.
type Agent struct {
	retriever Retriever
	generator SQLGenerator
	executor  warehouse.Executor
	formatter AnswerFormatter
	sink      logsink.Sink
	logger    *slog.Logger
	maxRows   int
	topN      int
}

// Config wires an Agent.
type Config struct {
	Retriever Retriever
	Generator SQLGenerator
	Executor  warehouse.Executor
	Formatter AnswerFormatter
	Sink      logsink.Sink
	Logger    *slog.Logger
	MaxRows   int
	TopN      int
}

// New creates an Agent.
func New(cfg Config) *Agent {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	topN := cfg.TopN
	if topN <= 0 {
		topN = 2
	}

	return &Agent{
		retriever: cfg.Retriever,
		generator: cfg.Generator,
		executor:  cfg.Executor,
		formatter: cfg.Formatter,
		sink:      cfg.Sink,
		logger:    logger,
		maxRows:   cfg.MaxRows,
		topN:      topN,
	}
}

// Ask runs one question through the pipeline. A log record is always
// written, success or failure, with whatever fields were populated before
// the failure; the log write itself never fails the request.
func (a *Agent) Ask(ctx context.Context, question string) (Result, error) {
	start := time.Now()
	rec := logsink.NewRecord(question)

	result, err := a.ask(ctx, question, &rec)

	rec.LatencyMS = float64(time.Since(start).Microseconds()) / 1000

	outcome := "ok"

	if err != nil {
		rec.Error = err.Error()

		outcome = "execution_error"
		if errors.IsType(err, errors.ErrTypeValidation) {
			outcome = "validation_error"
		}
	}

	observability.ObserveQuestion(outcome, time.Since(start).Seconds())
	a.writeLog(ctx, rec)

	if err != nil {
		return Result{}, err
	}

	result.LatencyMS = rec.LatencyMS

	return result, nil
}

func (a *Agent) ask(ctx context.Context, question string, rec *logsink.Record) (Result, error) {
	schemaContext, tablesUsed, err := a.retriever.Retrieve(ctx, question, a.topN)
	if err != nil {
		return Result{}, errors.Wrap(err, errors.ErrTypeInternal, "schema retrieval failed")
	}

	rec.TablesUsed = tablesUsed

	rawSQL, err := a.generator.Generate(ctx, question, schemaContext)
	if err != nil {
		return Result{}, errors.Wrap(err, errors.ErrTypeExecution, "SQL generation failed")
	}

	rec.GeneratedSQL = rawSQL

	safeSQL, err := validator.Validate(rawSQL, a.maxRows)
	if err != nil {
		return Result{}, err
	}

	rec.GeneratedSQL = safeSQL

	rows, err := a.executor.Execute(ctx, safeSQL)
	if err != nil {
		return Result{}, err
	}

	rec.RowCount = len(rows)

	answerText, err := a.formatter.Format(ctx, question, safeSQL, rows)
	if err != nil {
		return Result{}, errors.Wrap(err, errors.ErrTypeExecution, "answer formatting failed")
	}

	rec.Answer = answerText

	return Result{
		Question:   question,
		SQL:        safeSQL,
		Answer:     answerText,
		RowCount:   len(rows),
		TablesUsed: tablesUsed,
	}, nil
}

func (a *Agent) writeLog(ctx context.Context, rec logsink.Record) {
	if a.sink == nil {
		return
	}

	if err := a.sink.Write(ctx, rec); err != nil {
		a.logger.Warn("interaction log write failed", "run_id", rec.RunID, "error", err)
	}
}

// Backend reports which warehouse backend is active.
func (a *Agent) Backend() string {
	return a.executor.Backend()
}
