// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like DATABASE_POSTGRES_PASSWORD
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, ignored when absent.
	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = viper.MergeInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Database.Postgres.Password == "" {
		cfg.Database.Postgres.Password = os.Getenv("POSTGRES_PASSWORD")
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile tries the usual locations so the binary and the tests
// can both find .env.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up directories looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "sylo-assistant"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.MetricsPort == 0 {
		cfg.Server.MetricsPort = 9090
	}
	if cfg.Server.AllowedOrigin == "" {
		cfg.Server.AllowedOrigin = "*"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60000
	}
	if cfg.Database.Postgres.Host == "" {
		cfg.Database.Postgres.Host = "localhost"
	}
	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 20
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Redis.Address == "" {
		cfg.Database.Redis.Address = "localhost:6379"
	}
	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = "gpt-4-turbo-preview"
	}
	if cfg.OpenAI.ParseTimeout == 0 {
		cfg.OpenAI.ParseTimeout = 10000
	}
	if cfg.OpenAI.ComposeTimeout == 0 {
		cfg.OpenAI.ComposeTimeout = 15000
	}
	if cfg.OpenAI.ParseTemperature == 0 {
		cfg.OpenAI.ParseTemperature = 0.3
	}
	if cfg.OpenAI.ComposeTemperature == 0 {
		cfg.OpenAI.ComposeTemperature = 0.7
	}
	if cfg.OpenAI.ComposeMaxTokens == 0 {
		cfg.OpenAI.ComposeMaxTokens = 500
	}
	if cfg.Assistant.SessionTTL == 0 {
		cfg.Assistant.SessionTTL = 3600
	}
	if cfg.Assistant.RequestBudget == 0 {
		cfg.Assistant.RequestBudget = 45000
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", cfg.Server.Port)
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	return nil
}
