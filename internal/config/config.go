// Package config provides configuration loading and validation for the page server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/pagebuilder-site/internal/builder"
	"gopkg.in/yaml.v3"
)

// Defaults used when neither the config file, the environment nor flags set a value.
const (
	DefaultPort                   = 3000
	DefaultLogLevel               = "info"
	DefaultLogFormat              = "text"
	DefaultGenerateTimeoutSeconds = 30
)

// Config represents the server configuration that can be loaded from a JSON or YAML file.
// All fields are optional in the file; missing values come from the environment or defaults.
type Config struct {
	Port int `json:"port,omitempty" yaml:"port,omitempty" validate:"gte=0,lte=65535"`

	// Content API
	BuilderAPIKey  string `json:"builder_api_key,omitempty" yaml:"builder_api_key,omitempty"`
	BuilderBaseURL string `json:"builder_base_url,omitempty" yaml:"builder_base_url,omitempty" validate:"omitempty,url"`

	// Routing
	Locales         []string `json:"locales,omitempty" yaml:"locales,omitempty" validate:"dive,required"`
	DefaultLocale   string   `json:"default_locale,omitempty" yaml:"default_locale,omitempty"`
	LocaleDetection bool     `json:"locale_detection,omitempty" yaml:"locale_detection,omitempty"`

	// Regeneration
	DatabaseURL            string `json:"database_url,omitempty" yaml:"database_url,omitempty"`
	GenerateTimeoutSeconds int    `json:"generate_timeout_seconds,omitempty" yaml:"generate_timeout_seconds,omitempty" validate:"gte=0"`
	RevalidateToken        string `json:"revalidate_token,omitempty" yaml:"revalidate_token,omitempty"`

	// Rendering
	PageDataFile string `json:"page_data_file,omitempty" yaml:"page_data_file,omitempty"`

	// Logging
	LogLevel  string `json:"log_level,omitempty" yaml:"log_level,omitempty" validate:"omitempty,oneof=debug info warn error"`
	LogFormat string `json:"log_format,omitempty" yaml:"log_format,omitempty" validate:"omitempty,oneof=text json"`
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by extension.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if isYAML(path) {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// LookupFunc reads an environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// ApplyEnv returns a copy of c with values present in the environment applied on top.
func (c *Config) ApplyEnv(lookup LookupFunc) (Config, error) {
	result := *c

	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return result, fmt.Errorf("invalid PORT: %v", err)
		}
		result.Port = port
	}
	if v, ok := lookup("BUILDER_API_KEY"); ok && v != "" {
		result.BuilderAPIKey = v
	}
	if v, ok := lookup("BUILDER_BASE_URL"); ok && v != "" {
		result.BuilderBaseURL = v
	}
	if v, ok := lookup("LOCALES"); ok && v != "" {
		result.Locales = splitList(v)
	}
	if v, ok := lookup("DEFAULT_LOCALE"); ok && v != "" {
		result.DefaultLocale = v
	}
	if v, ok := lookup("LOCALE_DETECTION"); ok && v != "" {
		detect, err := strconv.ParseBool(v)
		if err != nil {
			return result, fmt.Errorf("invalid LOCALE_DETECTION: %v", err)
		}
		result.LocaleDetection = detect
	}
	if v, ok := lookup("DATABASE_URL"); ok && v != "" {
		result.DatabaseURL = v
	}
	if v, ok := lookup("GENERATE_TIMEOUT_SECONDS"); ok && v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return result, fmt.Errorf("invalid GENERATE_TIMEOUT_SECONDS: %v", err)
		}
		result.GenerateTimeoutSeconds = seconds
	}
	if v, ok := lookup("REVALIDATE_TOKEN"); ok && v != "" {
		result.RevalidateToken = v
	}
	if v, ok := lookup("PAGE_DATA_FILE"); ok && v != "" {
		result.PageDataFile = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		result.LogLevel = strings.ToLower(v)
	}
	if v, ok := lookup("LOG_FORMAT"); ok && v != "" {
		result.LogFormat = strings.ToLower(v)
	}

	return result, nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.BuilderAPIKey == "" {
		result.BuilderAPIKey = defaults.BuilderAPIKey
	}
	if result.BuilderBaseURL == "" {
		result.BuilderBaseURL = defaults.BuilderBaseURL
	}
	if len(result.Locales) == 0 {
		result.Locales = defaults.Locales
		if result.DefaultLocale == "" {
			result.DefaultLocale = defaults.DefaultLocale
		}
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.GenerateTimeoutSeconds == 0 {
		result.GenerateTimeoutSeconds = defaults.GenerateTimeoutSeconds
	}
	if result.RevalidateToken == "" {
		result.RevalidateToken = defaults.RevalidateToken
	}
	if result.PageDataFile == "" {
		result.PageDataFile = defaults.PageDataFile
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}
	if result.LogFormat == "" {
		result.LogFormat = defaults.LogFormat
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge

	return result
}

// Defaults returns the built-in configuration defaults.
func Defaults() Config {
	return Config{
		Port:                   DefaultPort,
		BuilderBaseURL:         builder.DefaultBaseURL,
		GenerateTimeoutSeconds: DefaultGenerateTimeoutSeconds,
		LogLevel:               DefaultLogLevel,
		LogFormat:              DefaultLogFormat,
	}
}

// Validate checks that the configuration has valid values.
// It doesn't require the content API key; commands that talk to the CMS check it.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if c.DefaultLocale != "" && len(c.Locales) == 0 {
		return fmt.Errorf("config error: 'default_locale' requires 'locales'")
	}

	if c.PageDataFile != "" {
		if _, err := os.Stat(c.PageDataFile); os.IsNotExist(err) {
			return fmt.Errorf("config error: page data file not found: %s", c.PageDataFile)
		}
	}

	return nil
}

// RequireAPIKey returns an error when no content API key is configured.
func (c *Config) RequireAPIKey() error {
	if strings.TrimSpace(c.BuilderAPIKey) == "" {
		return fmt.Errorf("BUILDER_API_KEY environment variable (or builder_api_key) is required")
	}
	return nil
}

// Builder returns the content API client configuration.
func (c *Config) Builder() builder.Config {
	return builder.Config{
		APIKey:  c.BuilderAPIKey,
		BaseURL: c.BuilderBaseURL,
	}
}

// GenerateTimeout returns the per-generation timeout.
func (c *Config) GenerateTimeout() time.Duration {
	if c.GenerateTimeoutSeconds <= 0 {
		return DefaultGenerateTimeoutSeconds * time.Second
	}
	return time.Duration(c.GenerateTimeoutSeconds) * time.Second
}

// LoadPageData reads the static page data handed to every render from a JSON or YAML file.
func LoadPageData(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read page data file %s: %w", path, err)
	}

	var out map[string]any
	if isYAML(path) {
		err = yaml.Unmarshal(data, &out)
	} else {
		err = json.Unmarshal(data, &out)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse page data file %s: %w", path, err)
	}
	return out, nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
