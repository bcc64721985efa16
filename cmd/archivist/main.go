// Command archivist classifies, renames and archives documents.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/archivist-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/archivist-cli/internal/adapters/driven/llm/fallback"
	"github.com/custodia-labs/archivist-cli/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/archivist-cli/internal/adapters/driven/ocr/remote"
	"github.com/custodia-labs/archivist-cli/internal/adapters/driven/pending/fsjson"
	"github.com/custodia-labs/archivist-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/archivist-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/archivist-cli/internal/core/ports/driven"
	"github.com/custodia-labs/archivist-cli/internal/core/services"
	"github.com/custodia-labs/archivist-cli/internal/logger"
	"github.com/custodia-labs/archivist-cli/internal/readers"
	"github.com/custodia-labs/archivist-cli/internal/watcher"
)

// version is set by the build via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Best effort: a .env in the working directory supplies API keys.
	_ = godotenv.Load()

	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

// bootstrap wires adapters to services once, on the first command that
// needs them.
func bootstrap(configPath string) (*cli.Services, error) {
	cfg, err := file.Load(configPath)
	if err != nil {
		return nil, err
	}

	store, err := sqlite.NewStore(cfg.Paths.Data)
	if err != nil {
		return nil, fmt.Errorf("opening data store: %w", err)
	}

	pendingDir := cfg.Paths.Pending
	if pendingDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		pendingDir = filepath.Join(home, ".archivist", "pending")
	}
	pending, err := fsjson.New(pendingDir)
	if err != nil {
		return nil, err
	}

	archiveRoot := cfg.Paths.Archive
	if archiveRoot == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		archiveRoot = filepath.Join(home, "Archive")
	}

	classifier, vision := buildLLM(cfg)
	ocr := buildOCR(cfg)

	cascade := services.NewCascade(readers.Defaults(), ocr, vision,
		store.CacheStore(), cfg.CascadeConfig())
	router := services.NewRouter(store.PreferenceStore(), cfg.RouterConfig())
	gate := services.NewApprovalGate(pending)
	executor := services.NewExecutor(archiveRoot)

	pipeline := services.NewPipeline(cascade, classifier, router, gate,
		executor, store.AuditStore(), pending, store.PreferenceStore())

	return &cli.Services{
		Pipeline:    pipeline,
		Pending:     pending,
		Audit:       store.AuditStore(),
		Preferences: store.PreferenceStore(),
		InboxDir:    cfg.Paths.Inbox,
		WatcherConfig: watcher.Config{
			Dir:            cfg.Paths.Inbox,
			Extensions:     cfg.Watch.Extensions,
			PollInterval:   time.Duration(cfg.Watch.PollIntervalMS) * time.Millisecond,
			StableReadings: cfg.Watch.StableReadings,
			StableTimeout:  time.Duration(cfg.Watch.StableTimeoutS) * time.Second,
		},
	}, nil
}

// buildLLM returns the classifier and vision analyser, degrading to the
// filename-only fallback when no API key is configured.
func buildLLM(cfg file.Config) (driven.Classifier, driven.VisionAnalyser) {
	apiKey := os.Getenv("ARCHIVIST_OPENAI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		logger.Warn("No OpenAI API key set; classification degrades to filename-only")
		return fallback.NewClassifier(), nil
	}

	llmCfg := openai.Config{
		APIKey:            apiKey,
		BaseURL:           cfg.LLM.BaseURL,
		Model:             cfg.LLM.Model,
		VisionModel:       cfg.LLM.VisionModel,
		RequestsPerSecond: cfg.LLM.RequestsPerSecond,
		BurstSize:         cfg.LLM.BurstSize,
	}

	classifier, err := openai.NewClassifier(llmCfg)
	if err != nil {
		logger.Warn("Classifier unavailable (%v); degrading to filename-only", err)
		return fallback.NewClassifier(), nil
	}

	vision, err := openai.NewVision(llmCfg)
	if err != nil {
		logger.Warn("Vision analyser unavailable: %v", err)
		return classifier, nil
	}
	return classifier, vision
}

// buildOCR returns the OCR engine, or nil when no endpoint is configured.
func buildOCR(cfg file.Config) driven.OCREngine {
	if cfg.OCR.Endpoint == "" {
		return nil
	}

	engine, err := remote.New(remote.Config{
		Endpoint: cfg.OCR.Endpoint,
		APIKey:   os.Getenv("ARCHIVIST_OCR_API_KEY"),
		Timeout:  time.Duration(cfg.OCR.TimeoutS) * time.Second,
	})
	if err != nil {
		logger.Warn("OCR engine unavailable: %v", err)
		return nil
	}
	return engine
}
