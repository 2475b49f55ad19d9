package config

import (
	"context"
	"time"
)

// Config represents the complete configuration of the autotune CLI.
type Config struct {
	Log      LogConfig      `koanf:"log"      json:"log"      yaml:"log"`
	Validate ValidateConfig `koanf:"validate" json:"validate" yaml:"validate"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level  string `koanf:"level"  json:"level"  yaml:"level"  validate:"oneof=debug info warn error disabled" env:"LOG_LEVEL"`
	JSON   bool   `koanf:"json"   json:"json"   yaml:"json"                                                   env:"LOG_JSON"`
	Source bool   `koanf:"source" json:"source" yaml:"source"                                                 env:"LOG_SOURCE"`
}

// ValidateConfig controls how override documents are discovered and reported.
type ValidateConfig struct {
	Patterns    []string `koanf:"patterns"    json:"patterns"    yaml:"patterns"    validate:"min=1,dive,required" env:"VALIDATE_PATTERNS"`
	Format      string   `koanf:"format"      json:"format"      yaml:"format"      validate:"oneof=text json yaml" env:"VALIDATE_FORMAT"`
	Concurrency int      `koanf:"concurrency" json:"concurrency" yaml:"concurrency" validate:"min=1,max=256"     env:"VALIDATE_CONCURRENCY"`
	Warnings    bool     `koanf:"warnings"    json:"warnings"    yaml:"warnings"                                env:"VALIDATE_WARNINGS"`
}

// EnvPrefix is prepended to every environment variable read by the loader.
const EnvPrefix = "AUTOTUNE_"

// Service defines the configuration management service interface.
type Service interface {
	// Load loads configuration from the specified sources with precedence order.
	Load(ctx context.Context, sources ...Source) (*Config, error)
	// Validate checks if the configuration meets all validation requirements.
	Validate(config *Config) error
	// GetSource returns the source type that provided a configuration key.
	GetSource(key string) SourceType
	// Metadata returns a snapshot of the source of every loaded key.
	Metadata() Metadata
}

// Source defines the interface for configuration sources.
type Source interface {
	// Load reads configuration from the source.
	Load() (map[string]any, error)
	// Type returns the source type identifier.
	Type() SourceType
}

// SourceType identifies the type of configuration source.
type SourceType string

const (
	SourceCLI     SourceType = "cli"
	SourceYAML    SourceType = "yaml"
	SourceEnv     SourceType = "env"
	SourceDefault SourceType = "default"
)

// Metadata contains metadata about configuration sources.
type Metadata struct {
	Sources  map[string]SourceType `json:"sources"   yaml:"sources"`
	LoadedAt time.Time             `json:"loaded_at" yaml:"loaded_at"`
}

// Default returns a Config with the built-in defaults.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		Validate: ValidateConfig{
			Patterns:    []string{"**/*.{json,yaml,yml}"},
			Format:      "text",
			Concurrency: 4,
			Warnings:    true,
		},
	}
}
