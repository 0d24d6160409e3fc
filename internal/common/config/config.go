// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Assistant AssistantConfig `mapstructure:"assistant"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port          int    `mapstructure:"port"`
	MetricsPort   int    `mapstructure:"metrics_port"`
	AllowedOrigin string `mapstructure:"allowed_origin"`
	ReadTimeout   int    `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout  int    `mapstructure:"write_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// OpenAIConfig holds completion-capability settings.
type OpenAIConfig struct {
	APIKey             string  `mapstructure:"api_key"`
	Model              string  `mapstructure:"model"`
	ParseTimeout       int     `mapstructure:"parse_timeout"`   // milliseconds
	ComposeTimeout     int     `mapstructure:"compose_timeout"` // milliseconds
	ParseTemperature   float32 `mapstructure:"parse_temperature"`
	ComposeTemperature float32 `mapstructure:"compose_temperature"`
	ComposeMaxTokens   int     `mapstructure:"compose_max_tokens"`
}

// AssistantConfig holds pipeline-level settings.
type AssistantConfig struct {
	SchemaFile    string `mapstructure:"schema_file"`     // optional YAML registry override
	SessionTTL    int    `mapstructure:"session_ttl"`     // seconds
	RequestBudget int    `mapstructure:"request_budget"`  // milliseconds, whole turn
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
