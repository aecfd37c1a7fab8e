package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

type AppConfig struct {
	EnginePath string

	DefaultPreset string
	PresetFile    string

	ListenAddr string

	RedisURL    string
	DatabaseURL string

	EvalCacheTTLSec int
	PoolCapacity    int
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		DefaultPreset:   "default",
		ListenAddr:      ":8080",
		EvalCacheTTLSec: 600,
	}

	cfg.EnginePath = strings.TrimSpace(os.Getenv("ENGINE_PATH"))
	cfg.PresetFile = strings.TrimSpace(os.Getenv("PRESET_FILE"))

	if v := strings.TrimSpace(os.Getenv("ENGINE_PRESET")); v != "" {
		cfg.DefaultPreset = v
	}
	if v := strings.TrimSpace(os.Getenv("LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	if v := strings.TrimSpace(os.Getenv("EVAL_CACHE_TTL")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.EvalCacheTTLSec = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("POOL_CAPACITY")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PoolCapacity = n
		}
	}

	if cfg.EnginePath == "" {
		return nil, errors.New("ENGINE_PATH is required")
	}

	return cfg, nil
}
