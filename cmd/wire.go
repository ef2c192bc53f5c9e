package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	kvfile "github.com/bnema/bulkimg-cli/internal/adapters/kv/file"
	"github.com/bnema/bulkimg-cli/internal/adapters/providers/gemini"
	"github.com/bnema/bulkimg-cli/internal/adapters/providers/openai"
	"github.com/bnema/bulkimg-cli/internal/adapters/repo/kvstore"
	"github.com/bnema/bulkimg-cli/internal/application"
	"github.com/bnema/bulkimg-cli/internal/domain"
	"github.com/bnema/bulkimg-cli/internal/ports"
	"github.com/spf13/viper"
)

const (
	configName = "config"
	configType = "toml"
	configDir  = ".bulkimg"

	storagePathKey   = "storage.path"
	cooldownKey      = "generate.cooldown"
	openAIBaseURLKey = "providers.openai.base_url"
	openAIModelKey   = "providers.openai.model"
	geminiBaseURLKey = "providers.gemini.base_url"
	geminiModelKey   = "providers.gemini.model"
)

type app struct {
	pool    *application.PoolService
	history *application.HistoryService
	batch   *application.BatchService
	logger  *slog.Logger
}

func wireApp() (*app, error) {
	cfg := viper.New()

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(filepath.Join(homeDir, configDir))
	cfg.SetDefault(storagePathKey, filepath.Join(homeDir, configDir, "store"))
	cfg.SetDefault(cooldownKey, envOrDefault("BULKIMG_COOLDOWN", application.DefaultCooldown.String()))
	cfg.SetDefault(openAIBaseURLKey, envOrDefault("BULKIMG_OPENAI_BASE_URL", openai.DefaultBaseURL))
	cfg.SetDefault(openAIModelKey, openai.DefaultModel)
	cfg.SetDefault(geminiBaseURLKey, envOrDefault("BULKIMG_GEMINI_BASE_URL", gemini.DefaultBaseURL))
	cfg.SetDefault(geminiModelKey, gemini.DefaultModel)

	if err := cfg.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cooldown, err := time.ParseDuration(cfg.GetString(cooldownKey))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", cooldownKey, err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	store := kvfile.NewStore(cfg.GetString(storagePathKey))
	poolService := application.NewPoolService(kvstore.NewCredentialRepository(store, logger))
	historyService := application.NewHistoryService(kvstore.NewHistoryRepository(store, logger), logger)

	gateways := map[domain.Provider]ports.ImageGenerator{
		domain.ProviderOpenAI: openai.NewClient(cfg.GetString(openAIBaseURLKey), cfg.GetString(openAIModelKey), http.DefaultClient),
		domain.ProviderGemini: gemini.NewClient(cfg.GetString(geminiBaseURLKey), cfg.GetString(geminiModelKey), http.DefaultClient),
	}

	return &app{
		pool:    poolService,
		history: historyService,
		batch: application.NewBatchService(
			poolService,
			historyService,
			gateways,
			ports.SystemClock{},
			cooldown,
			logger,
		),
		logger: logger,
	}, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
