// Package config loads pipeline configuration from environment variables
// with an optional YAML overlay file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is the environment variable prefix (ECOM_SOURCE_TYPE etc).
const EnvPrefix = "ECOM"

// Config is the complete application configuration.
type Config struct {
	Source  SourceConfig  `yaml:"source" envconfig:"SOURCE"`
	Output  OutputConfig  `yaml:"output" envconfig:"OUTPUT"`
	Server  ServerConfig  `yaml:"server" envconfig:"SERVER"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
}

// SourceConfig selects and parameterizes the raw data source.
type SourceConfig struct {
	Type        string `yaml:"type" envconfig:"TYPE" default:"csv" validate:"oneof=csv postgres"`
	CSVDir      string `yaml:"csv_dir" envconfig:"CSV_DIR" default:"data/raw"`
	DatabaseURL string `yaml:"database_url" envconfig:"DATABASE_URL" validate:"required_if=Type postgres"`
}

// OutputConfig controls where output tables are staged and published.
type OutputConfig struct {
	Dir        string `yaml:"dir" envconfig:"DIR" default:"data/analytics" validate:"required"`
	StagingDir string `yaml:"staging_dir" envconfig:"STAGING_DIR" default:"data/.staging"`
	Excel      bool   `yaml:"excel" envconfig:"EXCEL" default:"true"`
}

// ServerConfig configures the read-only serve surface.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/ecomcli.log"`
}

// Load reads configuration from the environment and, when present, overlays
// the YAML file at configPath (empty means ./config.yaml).
func Load(configPath string) (*Config, error) {
	var cfg Config

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if configPath == "" {
		configPath = "config.yaml"
	}
	if _, err := os.Stat(configPath); err == nil {
		if err := overlayFile(configPath, &cfg); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configPath, err)
		}
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, fmt.Errorf("resolve paths: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// overlayFile applies non-zero values from the YAML file over the current
// configuration.
func overlayFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// resolvePaths makes the configured directories absolute so stages and the
// serve surface agree on locations regardless of working directory.
func (c *Config) resolvePaths() error {
	for _, p := range []*string{&c.Source.CSVDir, &c.Output.Dir, &c.Output.StagingDir, &c.Logging.FilePath} {
		if *p == "" {
			continue
		}
		abs, err := filepath.Abs(*p)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", *p, err)
		}
		*p = abs
	}
	return nil
}
