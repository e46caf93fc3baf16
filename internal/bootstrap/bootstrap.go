package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Likith-Athreya/doc-intake/internal/config"
	"github.com/Likith-Athreya/doc-intake/internal/core/domain"
	"github.com/Likith-Athreya/doc-intake/internal/core/ports"
	"github.com/Likith-Athreya/doc-intake/internal/core/usecase"
	"github.com/Likith-Athreya/doc-intake/internal/infrastructure/extractor"
	"github.com/Likith-Athreya/doc-intake/internal/infrastructure/llm/openrouter"
	"github.com/Likith-Athreya/doc-intake/internal/infrastructure/queue/nats"
	"github.com/Likith-Athreya/doc-intake/internal/infrastructure/repository/postgres"
	"github.com/Likith-Athreya/doc-intake/internal/infrastructure/resilience"
	"github.com/Likith-Athreya/doc-intake/internal/infrastructure/schemafile"
	"github.com/Likith-Athreya/doc-intake/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue     ports.MessageQueue
	Repo      ports.DocumentRepository
	Store     ports.ContextStore
	Pipeline  ports.InputProcessor
	IngestUC  ports.DocumentIngestor
	ProcessUC ports.DocumentProcessor

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	store := postgres.NewContextStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure context schema: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure document schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	oracle := openrouter.New(cfg.OpenRouterURL, cfg.OpenRouterAPIKey, cfg.OpenRouterModel, openrouter.Options{
		MaxTokens:          cfg.OracleMaxTokens,
		Temperature:        cfg.OracleTemperature,
		Timeout:            time.Duration(cfg.OracleTimeoutSecs) * time.Second,
		ResilienceExecutor: executor,
	})

	schemas := domain.NewSchemaRegistry()
	if cfg.SchemaConfigPath != "" {
		overrides, err := schemafile.Load(cfg.SchemaConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load schema overrides: %w", err)
		}
		schemas.Merge(overrides)
	}

	files := extractor.NewReader(storage)

	classifier := usecase.NewClassifier(oracle, store, logger)
	recordAgent := usecase.NewStructuredRecordAgent(oracle, store, schemas, logger)
	mailAgent := usecase.NewCorrespondenceAgent(oracle, store, logger)
	pipeline := usecase.NewOrchestrator(classifier, recordAgent, mailAgent, store, files, logger)

	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue)
	processUC := usecase.NewProcessDocumentUseCase(repo, files, pipeline)

	return &App{
		Config: cfg,
		Logger: logger,

		Queue:     queue,
		Repo:      repo,
		Store:     store,
		Pipeline:  pipeline,
		IngestUC:  ingestUC,
		ProcessUC: processUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
