// Package app builds the long-lived collaborators once at startup and hands
// them to the driving adapters.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/reinfect/internal/adapters/driven/ai"
	artifacts "github.com/custodia-labs/reinfect/internal/adapters/driven/artifacts/file"
	"github.com/custodia-labs/reinfect/internal/adapters/driven/config/file"
	"github.com/custodia-labs/reinfect/internal/adapters/driven/literature/pubmed"
	"github.com/custodia-labs/reinfect/internal/adapters/driven/storage/jsonl"
	"github.com/custodia-labs/reinfect/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/reinfect/internal/adapters/driven/storage/vectorindex"
	"github.com/custodia-labs/reinfect/internal/core/domain"
	"github.com/custodia-labs/reinfect/internal/core/ports/driven"
	"github.com/custodia-labs/reinfect/internal/core/ports/driving"
	"github.com/custodia-labs/reinfect/internal/core/services"
	"github.com/custodia-labs/reinfect/internal/logger"
	"github.com/custodia-labs/reinfect/internal/postprocessors"
)

// App holds every service the CLI, HTTP API, MCP server and TUI use.
// Services whose dependencies could not be loaded are left nil and the
// reason is recorded in Warnings.
type App struct {
	ConfigDir string
	Config    *file.ConfigStore
	Settings  *services.SettingsService

	// Populated by Start.
	Current    *domain.AppSettings
	Predictor  driving.PredictionService
	Assessor   driving.AssessmentService
	Composer   driving.ExplanationService
	Retriever  driving.RetrievalService
	History    driving.HistoryService
	Indexer    driving.IndexService
	Prompts    *file.PromptStore
	Evidence   *sqlite.Store
	Index      *vectorindex.FlatIndex
	QueryLog   *jsonl.QueryLog
	AI         *ai.InitResult
	Warnings   []string
	IndexReady bool
	// IndexErr explains why IndexReady is false. It wraps
	// domain.ErrIndexNotFound when no usable index exists.
	IndexErr error

	startOnce sync.Once
	startErr  error
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// New loads configuration from configDir (default ~/.reinfect). It does not
// touch artifacts, storage or AI providers; call Start for those.
func New(configDir string) (*App, error) {
	if configDir == "" {
		dir, err := file.DefaultConfigDir()
		if err != nil {
			return nil, err
		}
		configDir = dir
	}

	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("init config: %w", err)
	}

	return &App{
		ConfigDir: configDir,
		Config:    store,
		Settings:  services.NewSettingsService(store, ai.NewConfigValidator()),
	}, nil
}

// Start wires storage, artifacts and AI services. It runs once; later calls
// return the first result. Only storage failures are fatal.
func (a *App) Start(ctx context.Context) error {
	a.startOnce.Do(func() {
		a.startErr = a.start(ctx)
	})
	return a.startErr
}

func (a *App) start(ctx context.Context) error {
	settings, err := a.Settings.Get()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	a.Current = settings

	runCtx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.Evidence, err = sqlite.NewStore(settings.Data.Dir)
	if err != nil {
		return fmt.Errorf("open evidence store: %w", err)
	}

	a.QueryLog, err = jsonl.NewQueryLog(filepath.Join(settings.Data.Dir, domain.QueryLogFile))
	if err != nil {
		return fmt.Errorf("open query log: %w", err)
	}
	a.History = services.NewHistoryService(a.QueryLog)

	a.Prompts, err = file.NewPromptStore(filepath.Join(a.ConfigDir, "prompts"))
	if err != nil {
		return fmt.Errorf("init prompts: %w", err)
	}
	a.watchPrompts(runCtx)

	predictor := a.loadPredictor(settings)

	a.AI = ai.Initialise(ctx, settings)
	a.Warnings = append(a.Warnings, a.AI.Warnings...)

	var retriever driving.RetrievalService
	if a.AI.EmbeddingService != nil {
		a.Index = vectorindex.NewFlatIndex(a.AI.EmbeddingService.Dimensions())
		n, err := services.LoadVectorIndex(ctx, a.Evidence, a.Index)
		switch {
		case err == nil && n > 0:
			a.IndexReady = true
		case err == nil, errors.Is(err, domain.ErrIndexNotFound):
			a.IndexErr = fmt.Errorf("%w: run 'reinfect index build'", domain.ErrIndexNotFound)
			a.warn(a.IndexErr.Error())
		default:
			a.IndexErr = err
			a.warn(err.Error())
		}
		if a.IndexReady {
			r := services.NewRetriever(a.AI.EmbeddingService, a.Index, a.Evidence, settings.Retrieval.TopK)
			retriever = r
			a.Retriever = r
		}
	} else {
		a.IndexErr = fmt.Errorf("%w: no embedding provider to load it with", domain.ErrIndexNotFound)
	}

	var llm driven.LLMService
	if a.AI.LLMService != nil {
		llm = a.AI.LLMService
	}
	composer := services.NewComposer(retriever, llm, a.Prompts, a.QueryLog, settings.Retrieval.TopK)
	a.Composer = composer

	if predictor != nil {
		a.Predictor = predictor
		a.Assessor = services.NewAssessor(predictor, composer)
	}

	indexer, err := a.buildIndexer(settings)
	if err != nil {
		return err
	}
	a.Indexer = indexer

	for _, w := range a.Warnings {
		logger.Warn("%s", w)
	}
	return nil
}

// loadPredictor returns nil when the model artifacts cannot be read.
func (a *App) loadPredictor(settings *domain.AppSettings) *services.Predictor {
	arts, err := artifacts.Load(settings.Artifacts.Dir)
	if err != nil {
		a.warn(err.Error())
		return nil
	}
	var encoders driven.CategoricalEncoders
	if arts.Encoders != nil {
		encoders = arts.Encoders
	}
	deriver := services.NewFeatureDeriver(arts.Scaler, encoders)
	return services.NewPredictor(deriver, arts.Classifier)
}

func (a *App) buildIndexer(settings *domain.AppSettings) (*services.Indexer, error) {
	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry)
	pipeline, err := postprocessors.BuildPipeline(registry, a.Settings.GetPipelineConfig())
	if err != nil {
		return nil, fmt.Errorf("build chunking pipeline: %w", err)
	}

	source := pubmed.NewClient(pubmed.Config{
		BaseURL: settings.PubMed.BaseURL,
		APIKey:  settings.PubMed.APIKey,
		Email:   settings.PubMed.Email,
	})

	var embed driven.EmbeddingService
	if a.AI.EmbeddingService != nil {
		embed = a.AI.EmbeddingService
	}

	return services.NewIndexer(source, a.Evidence, pipeline, embed, services.IndexerConfig{
		BatchSize: settings.Index.EmbedBatchSize,
		Workers:   settings.Index.EmbedWorkers,
	}), nil
}

// watchPrompts reloads templates on change. A watcher failure only costs
// hot reload.
func (a *App) watchPrompts(ctx context.Context) {
	w, err := file.NewPromptWatcher(a.Prompts)
	if err != nil {
		logger.Debug("prompt hot reload disabled: %v", err)
		return
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := w.Run(ctx); err != nil {
			logger.Warn("prompt watcher stopped: %v", err)
		}
	}()
}

// RequireIndex returns IndexErr unless the evidence index was loaded.
// Servers call it before accepting requests.
func (a *App) RequireIndex() error {
	if a.IndexReady {
		return nil
	}
	if a.IndexErr != nil {
		return a.IndexErr
	}
	return domain.ErrIndexNotFound
}

func (a *App) warn(msg string) {
	a.Warnings = append(a.Warnings, msg)
}

// Close stops background work and releases storage and provider clients.
func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.wg.Wait()
	if a.QueryLog != nil {
		if err := a.QueryLog.Close(); err != nil {
			logger.Warn("close query log: %v", err)
		}
	}
	if a.Index != nil {
		_ = a.Index.Close()
	}
	if a.Evidence != nil {
		if err := a.Evidence.Close(); err != nil {
			logger.Warn("close evidence store: %v", err)
		}
	}
	if a.AI != nil {
		a.AI.Close()
	}
	logger.Sync()
}
