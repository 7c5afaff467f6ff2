package cmd

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/coinsight/coinsight/internal/agent"
	"github.com/coinsight/coinsight/internal/answer"
	"github.com/coinsight/coinsight/internal/config"
	"github.com/coinsight/coinsight/internal/embedding"
	"github.com/coinsight/coinsight/internal/errors"
	"github.com/coinsight/coinsight/internal/index"
	"github.com/coinsight/coinsight/internal/llm"
	"github.com/coinsight/coinsight/internal/logsink"
	"github.com/coinsight/coinsight/internal/observability"
	"github.com/coinsight/coinsight/internal/schema"
	"github.com/coinsight/coinsight/internal/sqlgen"
	"github.com/coinsight/coinsight/internal/warehouse"
)

// app holds everything the commands share: configuration, logging, and the
// lazily constructed pipeline pieces.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	closers []func() error
}

// loadApp reads .env (if present), configuration, and sets up logging.
func loadApp() (*app, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if flagBackend != "" {
		switch backend := config.Backend(flagBackend); backend {
		case config.BackendMock, config.BackendSnowflake:
			cfg.Warehouse.Backend = backend
		default:
			return nil, errors.Newf(errors.ErrTypeConfig,
				"invalid backend %q (must be mock or snowflake)", flagBackend)
		}
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	return &app{
		cfg:    cfg,
		logger: observability.NewLogger(cfg.Logging, os.Stderr),
	}, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
}

// openIndex loads the persisted schema index, building it first when it is
// missing or when rebuild is set.
func (a *app) openIndex(ctx context.Context, rebuild bool) (*index.Index, error) {
	doc, err := schema.Load(a.cfg.Index.SchemaFile)
	if err != nil {
		return nil, err
	}

	provider, err := embedding.NewOpenAIProvider(embedding.OpenAIConfig{
		BaseURL: a.cfg.OpenAI.BaseURL,
		APIKey:  a.cfg.OpenAI.APIKey,
		Model:   a.cfg.OpenAI.EmbeddingModel,
		Timeout: a.cfg.OpenAITimeout(),
	})
	if err != nil {
		return nil, err
	}

	store := index.NewStore(a.cfg.Index.Path, a.cfg.Index.Collection)

	idx, err := store.Build(ctx, doc, provider, rebuild)
	if err != nil {
		return nil, err
	}

	return idx, nil
}

// buildAgent assembles the question pipeline around an index.
func (a *app) buildAgent(idx *index.Index) (*agent.Agent, error) {
	chat, err := llm.NewClient(llm.Config{
		BaseURL: a.cfg.OpenAI.BaseURL,
		APIKey:  a.cfg.OpenAI.APIKey,
		Model:   a.cfg.OpenAI.ChatModel,
		Timeout: a.cfg.OpenAITimeout(),
	})
	if err != nil {
		return nil, err
	}

	executor, dialect, err := a.openExecutor()
	if err != nil {
		return nil, err
	}

	a.closers = append(a.closers, executor.Close)

	sink, err := a.openSink()
	if err != nil {
		return nil, err
	}

	a.closers = append(a.closers, sink.Close)

	return agent.New(agent.Config{
		Retriever: idx,
		Generator: sqlgen.New(chat, dialect, a.cfg.Warehouse.MaxRows),
		Executor:  executor,
		Formatter: answer.New(chat, a.cfg.OpenAI.AnswerTemp),
		Sink:      sink,
		Logger:    a.logger,
		MaxRows:   a.cfg.Warehouse.MaxRows,
		TopN:      a.cfg.Index.TopN,
	}), nil
}

func (a *app) openExecutor() (warehouse.Executor, sqlgen.Dialect, error) {
	switch a.cfg.Warehouse.Backend {
	case config.BackendSnowflake:
		exec, err := warehouse.NewSnowflake(a.cfg.SnowflakeDSN(), a.cfg.Warehouse.MaxRows)
		return exec, sqlgen.DialectSnowflake, err
	default:
		exec, err := warehouse.NewDuckDB(a.cfg.Warehouse.MockDBPath, a.cfg.Warehouse.MaxRows)
		return exec, sqlgen.DialectDuckDB, err
	}
}

// openSink opens the interaction log destination. In mock mode the log
// lives in its own DuckDB file next to the demo data; the demo file itself
// stays read-only.
func (a *app) openSink() (logsink.Sink, error) {
	if a.cfg.Warehouse.Backend == config.BackendSnowflake {
		return logsink.OpenSnowflake(a.cfg.SnowflakeDSN())
	}

	logPath := filepath.Join(filepath.Dir(a.cfg.Warehouse.MockDBPath), "agent_log.duckdb")

	return logsink.OpenDuckDB(logPath)
}

func (a *app) httpTimeouts() (time.Duration, time.Duration, error) {
	read, err := time.ParseDuration(a.cfg.HTTP.ReadTimeout)
	if err != nil {
		return 0, 0, errors.Newf(errors.ErrTypeConfig, "invalid read timeout %q", a.cfg.HTTP.ReadTimeout)
	}

	write, err := time.ParseDuration(a.cfg.HTTP.WriteTimeout)
	if err != nil {
		return 0, 0, errors.Newf(errors.ErrTypeConfig, "invalid write timeout %q", a.cfg.HTTP.WriteTimeout)
	}

	return read, write, nil
}
