package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/xaenox/mindmesh/internal/bot"
	"github.com/xaenox/mindmesh/internal/llm"
	"github.com/xaenox/mindmesh/internal/planner"
	"github.com/xaenox/mindmesh/internal/storage"
	"github.com/xaenox/mindmesh/pkg/config"
)

func main() {
	configPath := "config.yaml"
	if p := os.Getenv("MINDMESH_CONFIG"); p != "" {
		configPath = p
	}

	// Load configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		zap.NewExample().Fatal("Failed to load config", zap.Error(err), zap.String("path", configPath))
	}

	// Initialize logger
	logger, _ := zap.NewProduction()
	if cfg.Log.Development {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid config", zap.Error(err))
	}
	if cfg.Telegram.Token == "" {
		logger.Fatal("Telegram token is required (telegram.token or TELEGRAM_TOKEN)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	store, err := openStorage(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer store.Close()

	// Initialize the model client
	m := cfg.Model()
	provider, err := llm.NewProvider(ctx, cfg.LLM.Provider, m.APIKey, m.Model)
	if err != nil {
		logger.Fatal("Failed to create model provider", zap.Error(err), zap.String("provider", cfg.LLM.Provider))
	}
	client := llm.NewClient(provider, cfg.Retry.Policy(), m.Temperature, m.MaxTokens, logger)
	logger.Info("Using model", zap.String("provider", cfg.LLM.Provider), zap.String("model", client.Model()))

	service := planner.NewService(planner.NewOrchestrator(client, logger), store, store, logger)

	// Initialize bot
	b, err := bot.New(cfg.Telegram.Token, store, service, logger)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	// Start the bot
	if err := b.Start(ctx); err != nil {
		logger.Fatal("Bot error", zap.Error(err))
	}
	logger.Info("Bot stopped")
}

func openStorage(ctx context.Context, db config.DatabaseConfig, logger *zap.Logger) (storage.Storage, error) {
	switch db.Backend() {
	case config.DriverMemory:
		logger.Info("Using in-memory storage")
		return storage.NewMemoryStorage(), nil
	case config.DriverSQLite:
		logger.Info("Using SQLite storage", zap.String("path", db.SQLitePath))
		s, err := storage.NewSQLiteStorage(ctx, db.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		logger.Info("Using PostgreSQL storage", zap.String("host", db.Host), zap.String("dbname", db.DBName))
		s, err := storage.NewPostgresStorage(ctx, storage.DatabaseConfig{
			Host:     db.Host,
			Port:     db.Port,
			User:     db.User,
			Password: db.Password,
			DBName:   db.DBName,
			SSLMode:  db.SSLMode,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}
