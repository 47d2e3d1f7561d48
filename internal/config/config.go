// Package config loads and validates the SiteBuilder configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// DefaultFile is the configuration file looked up when --config is not given.
const DefaultFile = "sitebuilder.yaml"

// Config represents the complete site build configuration.
type Config struct {
	Site       SiteMetadata            `yaml:"site"`
	Paths      PathsConfig             `yaml:"paths"`
	Images     ImagesConfig            `yaml:"images"`
	Markdown   MarkdownConfig          `yaml:"markdown"`
	Transforms []TransformBlock        `yaml:"transforms,omitempty"`
	Build      BuildConfig             `yaml:"build"`
	Logging    LoggingConfig           `yaml:"logging"`
	Metrics    MetricsConfig           `yaml:"metrics,omitempty"`
	Schemas    map[string]SchemaConfig `yaml:"schemas,omitempty"`
	Pages      []PageSpec              `yaml:"pages"`
}

// PathsConfig locates build inputs and the published output.
type PathsConfig struct {
	Content []string `yaml:"content"`
	Assets  string   `yaml:"assets"`
	Layouts string   `yaml:"layouts,omitempty"`
	Static  string   `yaml:"static,omitempty"`
	Output  string   `yaml:"output"`
}

// ImagesConfig holds the default image resize policy.
type ImagesConfig struct {
	MaxWidth int `yaml:"max_width"`
	Quality  int `yaml:"quality"`
}

// MarkdownConfig controls body conversion.
type MarkdownConfig struct {
	ImageMaxWidth int  `yaml:"image_max_width,omitempty"`
	Sanitize      bool `yaml:"sanitize"`
	Typographer   bool `yaml:"typographer"`
}

// BuildConfig controls pipeline execution.
type BuildConfig struct {
	Concurrency int    `yaml:"concurrency"`
	ReportDir   string `yaml:"report_dir,omitempty"`
	KeepBackup  bool   `yaml:"keep_backup"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// MetricsConfig enables the Prometheus textfile export.
type MetricsConfig struct {
	File string `yaml:"file,omitempty"`
}

// Load reads, expands, defaults and validates the configuration at configPath.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, ferrors.ConfigError(fmt.Sprintf("configuration file not found: %s", configPath)).
			WithContext("file", configPath).
			Build()
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").
			WithContext("file", configPath).
			Fatal().
			Build()
	}
	cfg, err := Parse([]byte(os.ExpandEnv(string(data))))
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidatePaths(filepath.Dir(configPath)); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes an already environment-expanded document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to unmarshal config").Fatal().Build()
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Init writes an example configuration to configPath.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ferrors.ValidationError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).Build()
	}
	data, err := yaml.Marshal(Example())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write config file").Build()
	}
	return nil
}
