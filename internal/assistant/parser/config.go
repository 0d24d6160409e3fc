// internal/assistant/parser/config.go
package parser

import (
	"time"

	"sylo-assistant/internal/common/config"
)

type Config struct {
	Timeout     time.Duration
	Temperature float32
}

func LoadConfig(cfg config.OpenAIConfig) *Config {
	return &Config{
		Timeout:     time.Duration(cfg.ParseTimeout) * time.Millisecond,
		Temperature: cfg.ParseTemperature,
	}
}
