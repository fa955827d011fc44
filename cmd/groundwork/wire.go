package main

import (
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/groundwork/internal/adapters/driven/ai"
	"github.com/custodia-labs/groundwork/internal/adapters/driven/config/file"
	"github.com/custodia-labs/groundwork/internal/adapters/driven/pages"
	"github.com/custodia-labs/groundwork/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/groundwork/internal/adapters/driving/cli"
	"github.com/custodia-labs/groundwork/internal/core/services"
	"github.com/custodia-labs/groundwork/internal/logger"
)

// wire builds every service from the config file and environment.
func wire(opts cli.Options) (*cli.Services, func() error, error) {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("load settings: %w", err)
	}

	dbPath := settings.DatabasePath
	if dbPath == "" {
		home, err := file.HomeDir()
		if err != nil {
			return nil, nil, err
		}
		dbPath = filepath.Join(home, sqlite.DefaultFileName)
	}
	store, err := sqlite.NewStore(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open library: %w", err)
	}
	logger.Debug("Library database: %s", dbPath)

	prompts, err := file.NewPromptStore("")
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("prompts: %w", err)
	}

	models := ai.Init(settings, !opts.NoRetry)

	synth := services.NewSynthesizer(models.LLMService)
	synth.SetPromptStore(prompts)
	planner := services.NewOutlinePlanner(models.LLMService)
	planner.SetPromptStore(prompts)
	retriever := services.NewRetriever(store.ChunkStore(), store.ItemStore())

	svcs := &cli.Services{
		Ingest: services.NewIngestService(
			store.ItemStore(), store.ChunkStore(), pages.Default(), models.EmbeddingService,
			services.WithBatchSize(settings.Embedding.BatchSize),
			services.WithBatchInterval(settings.Embedding.BatchInterval),
		),
		Ask:      services.NewAskService(retriever, models.EmbeddingService, synth, settings.Retrieval),
		Expand:   services.NewExpandService(retriever, models.EmbeddingService, synth, planner, settings.Retrieval),
		Cite:     services.NewCiteService(retriever, models.EmbeddingService, synth, settings.Retrieval),
		Library:  services.NewLibraryService(store.ItemStore(), store.ChunkStore()),
		Settings: settingsService,
		Warnings: models.Warnings,
	}

	closeAll := func() error {
		models.Close()
		return store.Close()
	}
	return svcs, closeAll, nil
}
