package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/doc-classifier/internal/config"
	"github.com/kirillkom/doc-classifier/internal/core/domain"
	"github.com/kirillkom/doc-classifier/internal/core/ports"
	"github.com/kirillkom/doc-classifier/internal/core/usecase"
	"github.com/kirillkom/doc-classifier/internal/infrastructure/extractor"
	"github.com/kirillkom/doc-classifier/internal/infrastructure/llm/gemini"
	"github.com/kirillkom/doc-classifier/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/doc-classifier/internal/infrastructure/mimesniff"
	"github.com/kirillkom/doc-classifier/internal/infrastructure/ocr/tesseract"
	"github.com/kirillkom/doc-classifier/internal/infrastructure/queue/nats"
	"github.com/kirillkom/doc-classifier/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/doc-classifier/internal/infrastructure/resilience"
	"github.com/kirillkom/doc-classifier/internal/infrastructure/storage/scratch"
	"github.com/kirillkom/doc-classifier/internal/observability/metrics"
)

const (
	staleScratchAge = time.Hour

	// Resilient operations per remote tier: text is one generate call, the
	// whole-document tier uploads and then generates.
	textTierOperations     = 1
	documentTierOperations = 2
)

type App struct {
	Config config.Config

	Taxonomy   *domain.Taxonomy
	Classifier *usecase.ClassifyUseCase
	// History is nil when no audit database is configured.
	History  ports.ClassificationHistory
	Registry *prometheus.Registry

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, service string, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	taxonomy, err := config.LoadTaxonomy(cfg.TaxonomyPath)
	if err != nil {
		return nil, fmt.Errorf("load taxonomy: %w", err)
	}
	tiers, err := cfg.Tiers()
	if err != nil {
		return nil, fmt.Errorf("classifier tiers: %w", err)
	}

	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	executor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts: cfg.LLMRetryMaxAttempts,
		AttemptTimeout:   cfg.LLMTimeout(),
		BreakerEnabled:   cfg.LLMBreakerEnabled,
	}, logger)

	model, err := newLanguageModel(ctx, cfg, executor, logger)
	if err != nil {
		return nil, err
	}

	space, err := scratch.New(cfg.ScratchPath)
	if err != nil {
		return nil, fmt.Errorf("init scratch space: %w", err)
	}
	if removed, err := space.Sweep(staleScratchAge); err != nil {
		logger.Warn("scratch_sweep_failed", "dir", space.Dir(), "error", err.Error())
	} else if removed > 0 {
		logger.Info("scratch_swept", "dir", space.Dir(), "removed", removed)
	}

	var ocr ports.OCREngine
	if cfg.OCREnabled {
		ocr = tesseract.New(cfg.Languages()...)
	}

	var (
		sinks   []ports.VerdictSink
		history ports.ClassificationHistory
	)
	if cfg.PostgresDSN != "" {
		db, err := postgres.OpenDB(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		closers = append(closers, func() { _ = db.Close() })
		repo := postgres.NewVerdictRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			closeAll()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		sinks = append(sinks, repo)
		history = repo
	}
	if cfg.NATSURL != "" {
		publisher, err := nats.NewPublisher(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: resilience.NewExecutor(resilience.DefaultConfig(), logger),
			Logger:             logger,
		})
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("init event publisher: %w", err)
		}
		closers = append(closers, publisher.Close)
		sinks = append(sinks, publisher)
	}

	registry := metrics.NewRegistry()
	textCfg := usecase.RemoteConfig{
		SnippetChars: cfg.TextSnippetChars,
		Timeout:      cfg.RemoteBudget(textTierOperations),
	}
	documentCfg := usecase.RemoteConfig{
		SnippetChars: cfg.TextSnippetChars,
		Timeout:      cfg.RemoteBudget(documentTierOperations),
	}

	classifier, err := usecase.NewClassifyUseCase(usecase.ClassifyDependencies{
		Taxonomy:           taxonomy,
		Tiers:              tiers,
		Filename:           usecase.NewFilenameMatcher(taxonomy),
		Sniffer:            mimesniff.New(),
		Extractor:          extractor.New(ocr, logger),
		TextClassifier:     usecase.NewTextClassifier(model, taxonomy, textCfg, logger),
		DocumentClassifier: usecase.NewDocumentClassifier(model, space, taxonomy, documentCfg, logger),
		Sinks:              sinks,
		Observer:           metrics.NewPipelineMetrics(registry, service),
		Logger:             logger,
	})
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("init classifier: %w", err)
	}

	logger.Info("classifier_ready",
		"tiers", fmt.Sprint(tiers),
		"categories", len(taxonomy.Categories()),
		"llm_provider", cfg.LLMProvider,
		"remote_enabled", model != nil,
		"ocr_enabled", ocr != nil,
		"sinks", len(sinks),
	)

	return &App{
		Config:     cfg,
		Taxonomy:   taxonomy,
		Classifier: classifier,
		History:    history,
		Registry:   registry,
		closeFn:    closeAll,
	}, nil
}

// newLanguageModel returns nil when remote classification is disabled; the
// remote tiers then report absence and the pipeline falls through.
func newLanguageModel(ctx context.Context, cfg config.Config, executor *resilience.Executor, logger *slog.Logger) (ports.LanguageModel, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.LLMProvider)) {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			logger.Warn("remote_classification_disabled", "reason", "GEMINI_API_KEY is empty")
			return nil, nil
		}
		client, err := gemini.New(ctx, gemini.Config{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			BaseURL: cfg.GeminiBaseURL,
		}, executor, logger)
		if err != nil {
			return nil, fmt.Errorf("init gemini: %w", err)
		}
		return client, nil
	case "ollama":
		return ollama.New(cfg.OllamaURL, cfg.OllamaModel, ollama.Options{
			HTTPTimeout:        cfg.LLMTimeout(),
			ResilienceExecutor: executor,
		}), nil
	case "none", "":
		logger.Warn("remote_classification_disabled", "reason", "LLM_PROVIDER is none")
		return nil, nil
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "LLM_PROVIDER", fmt.Errorf("unknown provider %q", cfg.LLMProvider))
	}
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
