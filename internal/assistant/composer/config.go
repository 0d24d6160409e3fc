// internal/assistant/composer/config.go
package composer

import (
	"time"

	"sylo-assistant/internal/common/config"
)

type Config struct {
	Timeout     time.Duration
	Temperature float32
	MaxTokens   int
}

func LoadConfig(cfg config.OpenAIConfig) *Config {
	return &Config{
		Timeout:     time.Duration(cfg.ComposeTimeout) * time.Millisecond,
		Temperature: cfg.ComposeTemperature,
		MaxTokens:   cfg.ComposeMaxTokens,
	}
}
