package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/austinbrady/Assist-sub001/internal/api"
	"github.com/austinbrady/Assist-sub001/internal/command"
	"github.com/austinbrady/Assist-sub001/internal/config"
	"github.com/austinbrady/Assist-sub001/internal/digest"
	"github.com/austinbrady/Assist-sub001/internal/engine"
	"github.com/austinbrady/Assist-sub001/internal/gateway"
	"github.com/austinbrady/Assist-sub001/internal/pattern"
	"github.com/austinbrady/Assist-sub001/internal/provider"
	msgrouter "github.com/austinbrady/Assist-sub001/internal/router"
	"github.com/austinbrady/Assist-sub001/internal/store"
)

func main() {
	_ = godotenv.Load()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	logger.Info("Starting Assist...")

	// Load configuration
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/assist.json"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.String("path", cfgPath), zap.Error(err))
	}
	logger.Info("Config loaded", zap.String("path", cfgPath))

	if cfg.Server.LogLevel != "" {
		if lvl, lvlErr := zap.ParseAtomicLevel(cfg.Server.LogLevel); lvlErr == nil {
			zcfg := zap.NewDevelopmentConfig()
			zcfg.Level = lvl
			if rebuilt, bErr := zcfg.Build(); bErr == nil {
				logger = rebuilt
			}
		} else {
			logger.Warn("unknown log level", zap.String("level", cfg.Server.LogLevel))
		}
	}

	// Initialize provider router
	router := provider.NewRouter(logger)
	for _, pc := range cfg.Providers {
		provCfg := provider.ProviderConfig{
			ID: pc.ID, Type: pc.Type, Name: pc.Name,
			Endpoint: pc.Endpoint, APIKey: pc.APIKey,
			Model: pc.Model, Extra: pc.Extra,
			Timeout: time.Duration(pc.TimeoutSeconds) * time.Second,
		}
		p, provErr := provider.FromConfig(provCfg, logger)
		if provErr != nil {
			logger.Warn("skipping provider", zap.String("id", pc.ID), zap.Error(provErr))
			continue
		}
		router.Register(p)
	}

	// Initialize user store
	var userStore store.UserStore
	var pgStore *store.PGStore
	switch cfg.Storage.Backend {
	case "postgres":
		ps, pgErr := store.NewPGStore(cfg.Storage.DSN, logger)
		if pgErr != nil {
			logger.Fatal("PostgreSQL unavailable", zap.Error(pgErr))
		}
		if mErr := ps.Migrate(context.Background(), "migrations"); mErr != nil {
			logger.Fatal("migration failed", zap.Error(mErr))
		}
		pgStore = ps
		userStore = ps
	default:
		fs, fsErr := store.NewFileStore(cfg.Storage.DataDir, logger)
		if fsErr != nil {
			logger.Fatal("failed to open data directory", zap.String("dir", cfg.Storage.DataDir), zap.Error(fsErr))
		}
		userStore = fs
	}

	// Initialize suggestion cache
	var cache pattern.Cache
	switch cfg.Cache.Backend {
	case "redis":
		rc, rcErr := pattern.NewRedisCache(cfg.Cache.RedisURL, logger)
		if rcErr != nil {
			logger.Warn("Redis unavailable, falling back to in-memory cache", zap.Error(rcErr))
			cache = pattern.NewMemoryCache()
		} else {
			cache = rc
		}
	default:
		cache = pattern.NewMemoryCache()
	}

	// Initialize analysis pipeline
	detector := pattern.NewDetector(userStore, cfg.Analysis.ConversationWindow, logger)
	suggester := pattern.NewSuggester(detector, cache,
		time.Duration(cfg.Cache.TTLSeconds)*time.Second, logger)

	eng := engine.New(userStore, router, suggester, logger)

	// Initialize gateway
	gw := gateway.NewGateway(logger)

	commands := command.NewRegistry()
	command.RegisterBuiltins(commands)

	// Wire message router BEFORE registering adapters (Register captures handler)
	msgRouter := msgrouter.New(eng, gw, commands, logger)
	gw.SetHandler(msgRouter.Handle)

	restAdapter := gateway.NewRESTAdapter(logger)
	gw.Register(restAdapter)

	if cfg.Gateway.Slack.Enabled && cfg.Gateway.Slack.BotToken != "" {
		gw.Register(gateway.NewSlackAdapter(cfg.Gateway.Slack.BotToken, cfg.Gateway.Slack.AppToken, logger))
	}

	if cfg.Gateway.Discord.Enabled && cfg.Gateway.Discord.BotToken != "" {
		gw.Register(gateway.NewDiscordAdapter(cfg.Gateway.Discord.BotToken, logger))
	}

	if err := gw.ConnectAll(context.Background()); err != nil {
		logger.Warn("some gateway adapters failed to connect", zap.Error(err))
	}

	// Periodic suggestion digest
	broadcaster := gateway.NewBroadcaster(gw, logger)
	digestCtx, stopDigest := context.WithCancel(context.Background())
	suggestionDigest := digest.New(eng, broadcaster,
		time.Duration(cfg.Analysis.DigestIntervalMinutes)*time.Minute, logger)
	go suggestionDigest.Start(digestCtx)

	// Build HTTP handler
	handler := api.NewHandler(eng, gw, restAdapter, logger)

	// Start server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: handler.Router(),
	}

	go func() {
		logger.Info("Assist listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down Assist...")
	stopDigest()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
	gw.Close()
	eng.WaitForLearning()
	if pgStore != nil {
		pgStore.Close()
	}
}
