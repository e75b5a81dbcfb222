// Package config provides configuration loading and validation for the server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config is the server configuration. It can be loaded from a YAML or JSON
// file; environment variables override file values.
type Config struct {
	Port        int    `yaml:"port,omitempty" json:"port,omitempty"`
	DatabaseURL string `yaml:"database_url,omitempty" json:"database_url,omitempty"`
	Store       string `yaml:"store,omitempty" json:"store,omitempty"` // postgres | memory
	UploadDir   string `yaml:"upload_dir,omitempty" json:"upload_dir,omitempty"`

	Webhook        WebhookConfig  `yaml:"webhook,omitempty" json:"webhook,omitempty"`
	CallbackSecret string         `yaml:"callback_secret,omitempty" json:"callback_secret,omitempty"`
	Pipeline       PipelineConfig `yaml:"pipeline,omitempty" json:"pipeline,omitempty"`
}

// WebhookConfig points at the external analysis worker.
type WebhookConfig struct {
	URL     string        `yaml:"url,omitempty" json:"url,omitempty"`
	Token   string        `yaml:"token,omitempty" json:"token,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// PipelineConfig tunes process and feedback semantics.
type PipelineConfig struct {
	// EnforceStepPlan rejects steps missing from a non-empty interview plan.
	// Unset means true.
	EnforceStepPlan    *bool    `yaml:"enforce_step_plan,omitempty" json:"enforce_step_plan,omitempty"`
	FeedbackMode       string   `yaml:"feedback_mode,omitempty" json:"feedback_mode,omitempty"` // per_step | per_interviewer
	MaxWriteAttempts   int      `yaml:"max_write_attempts,omitempty" json:"max_write_attempts,omitempty"`
	AdditionalStatuses []string `yaml:"additional_statuses,omitempty" json:"additional_statuses,omitempty"`
}

// Enforce reports whether the step plan is enforced.
func (p PipelineConfig) Enforce() bool {
	return p.EnforceStepPlan == nil || *p.EnforceStepPlan
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Port:      8080,
		Store:     StorePostgres,
		UploadDir: "uploads",
		Webhook:   WebhookConfig{Timeout: 10 * time.Second},
		Pipeline: PipelineConfig{
			FeedbackMode:     "per_step",
			MaxWriteAttempts: 30,
		},
	}
}

// LoadConfig loads configuration from a YAML (.yaml, .yml) or JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

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
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file extension %q (want .yaml, .yml or .json)", filepath.Ext(path))
	}

	return &cfg, nil
}

// Load builds the effective configuration: the file at path (optional),
// then environment overrides, then defaults for anything still unset.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv()
	merged := cfg.MergeWithDefaults(Defaults())
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// ApplyEnv overrides fields from environment variables that are set.
func (c *Config) ApplyEnv() {
	c.Port = getEnvInt("PORT", c.Port)
	c.DatabaseURL = getEnvString("DATABASE_URL", c.DatabaseURL)
	c.Store = getEnvString("STORE_BACKEND", c.Store)
	c.UploadDir = getEnvString("UPLOAD_DIR", c.UploadDir)
	c.Webhook.URL = getEnvString("N8N_WEBHOOK_URL", c.Webhook.URL)
	c.Webhook.Token = getEnvString("N8N_WEBHOOK_TOKEN", c.Webhook.Token)
	c.Webhook.Timeout = getEnvDuration("N8N_WEBHOOK_TIMEOUT", c.Webhook.Timeout)
	c.CallbackSecret = getEnvString("N8N_CALLBACK_SECRET", c.CallbackSecret)
	c.Pipeline.FeedbackMode = getEnvString("FEEDBACK_MODE", c.Pipeline.FeedbackMode)
	c.Pipeline.MaxWriteAttempts = getEnvInt("MAX_WRITE_ATTEMPTS", c.Pipeline.MaxWriteAttempts)
	if v, ok := os.LookupEnv("ENFORCE_STEP_PLAN"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Pipeline.EnforceStepPlan = &b
		}
	}
	if v := os.Getenv("ADDITIONAL_STATUSES"); v != "" {
		c.Pipeline.AdditionalStatuses = strings.Split(v, ",")
	}
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' out of range: %d", c.Port)
	}
	switch c.Store {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config error: 'database_url' is required for the postgres store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("config error: unknown store %q (want postgres or memory)", c.Store)
	}
	switch c.Pipeline.FeedbackMode {
	case "", "per_step", "per_interviewer":
	default:
		return fmt.Errorf("config error: unknown feedback_mode %q", c.Pipeline.FeedbackMode)
	}
	if c.Pipeline.MaxWriteAttempts < 0 {
		return fmt.Errorf("config error: 'max_write_attempts' must be non-negative")
	}
	if c.Webhook.Timeout < 0 {
		return fmt.Errorf("config error: 'webhook.timeout' must be non-negative")
	}
	return nil
}

// MergeWithDefaults returns a new Config with unset fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.Store == "" {
		result.Store = defaults.Store
	}
	if result.UploadDir == "" {
		result.UploadDir = defaults.UploadDir
	}
	if result.Webhook.URL == "" {
		result.Webhook.URL = defaults.Webhook.URL
	}
	if result.Webhook.Token == "" {
		result.Webhook.Token = defaults.Webhook.Token
	}
	if result.Webhook.Timeout == 0 {
		result.Webhook.Timeout = defaults.Webhook.Timeout
	}
	if result.CallbackSecret == "" {
		result.CallbackSecret = defaults.CallbackSecret
	}
	if result.Pipeline.EnforceStepPlan == nil {
		result.Pipeline.EnforceStepPlan = defaults.Pipeline.EnforceStepPlan
	}
	if result.Pipeline.FeedbackMode == "" {
		result.Pipeline.FeedbackMode = defaults.Pipeline.FeedbackMode
	}
	if result.Pipeline.MaxWriteAttempts == 0 {
		result.Pipeline.MaxWriteAttempts = defaults.Pipeline.MaxWriteAttempts
	}
	if len(result.Pipeline.AdditionalStatuses) == 0 {
		result.Pipeline.AdditionalStatuses = defaults.Pipeline.AdditionalStatuses
	}

	return result
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
