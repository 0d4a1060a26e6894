// Package config handles application configuration management using Viper
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	str2duration "github.com/xhit/go-str2duration/v2"
)

// Storage driver names accepted in configuration.
const (
	StorageMemory = "memory"
	StorageBunt   = "bunt"
	StorageSQLite = "sqlite"
)

// Defaults
const (
	defaultPort           = 8080
	defaultEngineURL      = "http://localhost:5001"
	defaultEngineTimeout  = "2m"
	defaultEngineAttempts = 3
	defaultStorageDriver  = StorageMemory
	defaultStoragePath    = "./firedash.db"
)

// AppConfig holds the application configuration
type AppConfig struct {
	Port     int
	Debug    bool
	Engine   EngineConfig
	Storage  StorageConfig
	Telegram TelegramConfig
}

// EngineConfig holds the simulation service connection settings
type EngineConfig struct {
	BaseURL  string
	Timeout  time.Duration
	Attempts int
}

// StorageConfig holds snapshot persistence settings
type StorageConfig struct {
	Driver string
	Path   string
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	Enabled bool
	Token   string
	Users   []int
}

// Load reads application configuration from environment variables
func Load() (*AppConfig, error) {
	viper.AutomaticEnv()

	viper.SetDefault("FIREDASH_PORT", defaultPort)
	viper.SetDefault("FIREDASH_DEBUG", false)
	viper.SetDefault("FIREDASH_ENGINE_URL", defaultEngineURL)
	viper.SetDefault("FIREDASH_ENGINE_TIMEOUT", defaultEngineTimeout)
	viper.SetDefault("FIREDASH_ENGINE_ATTEMPTS", defaultEngineAttempts)
	viper.SetDefault("FIREDASH_STORAGE_DRIVER", defaultStorageDriver)
	viper.SetDefault("FIREDASH_STORAGE_PATH", defaultStoragePath)
	viper.SetDefault("FIREDASH_TELEGRAM_ENABLED", false)

	timeout, err := str2duration.ParseDuration(viper.GetString("FIREDASH_ENGINE_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid engine timeout: %w", err)
	}

	config := &AppConfig{
		Port:  viper.GetInt("FIREDASH_PORT"),
		Debug: viper.GetBool("FIREDASH_DEBUG"),
		Engine: EngineConfig{
			BaseURL:  viper.GetString("FIREDASH_ENGINE_URL"),
			Timeout:  timeout,
			Attempts: viper.GetInt("FIREDASH_ENGINE_ATTEMPTS"),
		},
		Storage: StorageConfig{
			Driver: viper.GetString("FIREDASH_STORAGE_DRIVER"),
			Path:   viper.GetString("FIREDASH_STORAGE_PATH"),
		},
		Telegram: TelegramConfig{
			Enabled: viper.GetBool("FIREDASH_TELEGRAM_ENABLED"),
			Token:   viper.GetString("FIREDASH_TELEGRAM_TOKEN"),
			Users:   viper.GetIntSlice("FIREDASH_TELEGRAM_USERS"),
		},
	}

	return config, nil
}
