package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Veraticus/finsight/internal/common"
)

// Viper keys.
const (
	KeyDatabasePath   = "database.path"
	KeyMaxOpenConns   = "database.max_open_conns"
	KeyAutoCheckpoint = "database.auto_checkpoint"
	KeyLogLevel       = "logging.level"
	KeyLogFormat      = "logging.format"
)

// DefaultDatabasePath is used when database.path is not configured.
const DefaultDatabasePath = "$HOME/.local/share/finsight/finsight.db"

// Config is the resolved application configuration.
type Config struct {
	DatabasePath   string
	LogLevel       string
	LogFormat      string
	MaxOpenConns   int
	AutoCheckpoint bool
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDatabasePath, DefaultDatabasePath)
	v.SetDefault(KeyMaxOpenConns, 4)
	v.SetDefault(KeyAutoCheckpoint, true)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
}

// Load resolves the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		DatabasePath:   ExpandPath(v.GetString(KeyDatabasePath)),
		MaxOpenConns:   v.GetInt(KeyMaxOpenConns),
		AutoCheckpoint: v.GetBool(KeyAutoCheckpoint),
		LogLevel:       v.GetString(KeyLogLevel),
		LogFormat:      v.GetString(KeyLogFormat),
	}

	if cfg.DatabasePath == "" {
		return nil, fmt.Errorf("%w: %s", common.ErrMissingConfig, KeyDatabasePath)
	}
	if cfg.MaxOpenConns < 1 {
		return nil, fmt.Errorf("%w: %s must be at least 1, got %d", common.ErrInvalidConfig, KeyMaxOpenConns, cfg.MaxOpenConns)
	}

	return cfg, nil
}

// LoadDotEnv loads environment variables from the given .env files (or ./.env
// when none are given). Missing files are ignored; variables already set in
// the environment win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}
