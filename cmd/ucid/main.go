package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/manuelpepe/async-uci/internal/analysis"
	appcfg "github.com/manuelpepe/async-uci/internal/config"
	"github.com/manuelpepe/async-uci/internal/httpapi"
	"github.com/manuelpepe/async-uci/internal/obslog"
	"github.com/manuelpepe/async-uci/internal/preset"
	"github.com/manuelpepe/async-uci/internal/uci"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer obslog.L().Sync()
	logger := obslog.L().Named("ucid")

	if cfg.PresetFile != "" {
		if err := preset.LoadFile(cfg.PresetFile); err != nil {
			logger.Fatal("preset file error", zap.Error(err))
		}
		logger.Info("presets loaded", zap.String("file", cfg.PresetFile))
	}

	pool, err := uci.NewPool(uci.PoolConfig{
		BinaryPath:       cfg.EnginePath,
		PerSettingsLimit: cfg.PoolCapacity,
	})
	if err != nil {
		logger.Fatal("engine pool error", zap.Error(err))
	}
	defer pool.Close()

	ttl := time.Duration(cfg.EvalCacheTTLSec) * time.Second
	var store analysis.Store
	if cfg.RedisURL != "" {
		redisStore, err := analysis.NewRedisStore(cfg.RedisURL, ttl)
		if err != nil {
			logger.Fatal("redis store error", zap.Error(err))
		}
		defer redisStore.Close()
		store = redisStore
		logger.Info("using redis report cache")
	} else {
		store = analysis.NewMemoryStore(ttl)
		logger.Info("using in-memory report cache")
	}

	svc := analysis.NewService(pool, store)

	if cfg.DatabaseURL != "" {
		repo, err := analysis.NewRepository(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("archive repository error", zap.Error(err))
		}
		defer repo.Close()
		svc.AttachRepository(repo)
		logger.Info("report archival enabled")
	}

	server := httpapi.NewServer(svc, cfg.DefaultPreset)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe(cfg.ListenAddr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		if err := server.Shutdown(); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	case err := <-errCh:
		if err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}
}
