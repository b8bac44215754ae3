package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. MQCODEC_LOG_LEVEL.
const EnvPrefix = "MQCODEC"

// Config holds the complete command line configuration
type Config struct {
	Schema    SchemaConfig    `mapstructure:"schema"    yaml:"schema"`
	Codec     CodecConfig     `mapstructure:"codec"     yaml:"codec"`
	Processor ProcessorConfig `mapstructure:"processor" yaml:"processor"`
	Metrics   MetricsConfig   `mapstructure:"metrics"   yaml:"metrics"`
	Log       LogConfig       `mapstructure:"log"       yaml:"log"`
}

// SchemaConfig points at the schema documents
type SchemaConfig struct {
	HeaderFile  string `mapstructure:"header_file"  yaml:"header_file"`
	ServiceFile string `mapstructure:"service_file" yaml:"service_file"`
}

// CodecConfig tunes the codec
type CodecConfig struct {
	LengthFields   []string          `mapstructure:"length_fields"   yaml:"length_fields"`
	HeaderDefaults map[string]string `mapstructure:"header_defaults" yaml:"header_defaults"`
}

// ProcessorConfig holds batch processing configuration
type ProcessorConfig struct {
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"   yaml:"enabled"`
	Namespace string `mapstructure:"namespace" yaml:"namespace"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Pretty bool   `mapstructure:"pretty" yaml:"pretty"`
}

// Load reads configPath when it exists, then applies environment overrides
// and defaults. An empty or missing path yields the defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("schema.header_file", "")
	v.SetDefault("schema.service_file", "")

	v.SetDefault("codec.length_fields", []string{})
	v.SetDefault("codec.header_defaults", map[string]string{})

	v.SetDefault("processor.concurrency", 4)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.namespace", "mqcodec")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Processor.Concurrency <= 0 {
		return fmt.Errorf("processor.concurrency must be positive, got %d", c.Processor.Concurrency)
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		return fmt.Errorf("invalid log.level %q: %w", c.Log.Level, err)
	}
	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		return fmt.Errorf("metrics.namespace is required when metrics are enabled")
	}
	return nil
}
