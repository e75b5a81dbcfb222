package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable ApplyEnv reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "DATABASE_URL", "STORE_BACKEND", "UPLOAD_DIR",
		"N8N_WEBHOOK_URL", "N8N_WEBHOOK_TOKEN", "N8N_WEBHOOK_TIMEOUT", "N8N_CALLBACK_SECRET",
		"FEEDBACK_MODE", "MAX_WRITE_ATTEMPTS", "ENFORCE_STEP_PLAN", "ADDITIONAL_STATUSES",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_YAML(t *testing.T) {
	path := writeFile(t, "ats.yaml", `
port: 9090
store: memory
callback_secret: s3cret
webhook:
  url: http://worker.local/hook
  timeout: 3s
pipeline:
  enforce_step_plan: false
  feedback_mode: per_interviewer
  additional_statuses: [needs_review]
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, "s3cret", cfg.CallbackSecret)
	assert.Equal(t, "http://worker.local/hook", cfg.Webhook.URL)
	assert.Equal(t, 3*time.Second, cfg.Webhook.Timeout)
	assert.False(t, cfg.Pipeline.Enforce())
	assert.Equal(t, "per_interviewer", cfg.Pipeline.FeedbackMode)
	assert.Equal(t, []string{"needs_review"}, cfg.Pipeline.AdditionalStatuses)
}

func TestLoadConfig_JSON(t *testing.T) {
	path := writeFile(t, "ats.json", `{"port": 7000, "database_url": "postgres://x", "pipeline": {"max_write_attempts": 4}}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, "postgres://x", cfg.DatabaseURL)
	assert.Equal(t, 4, cfg.Pipeline.MaxWriteAttempts)
	assert.True(t, cfg.Pipeline.Enforce(), "unset enforce_step_plan means true")
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig("")
	assert.Error(t, err)

	_, err = LoadConfig("does-not-exist.yaml")
	assert.Error(t, err)

	_, err = LoadConfig(writeFile(t, "bad.json", `{"port":`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JSON")

	_, err = LoadConfig(writeFile(t, "bad.yaml", "port: [1, 2"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YAML")

	_, err = LoadConfig(writeFile(t, "ats.toml", `port = 1`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "ats.yaml", "store: postgres\ndatabase_url: postgres://file\nport: 9000\n")
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("ENFORCE_STEP_PLAN", "false")
	t.Setenv("ADDITIONAL_STATUSES", "needs_review,offer_sent")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://env", cfg.DatabaseURL)
	assert.Equal(t, 9000, cfg.Port)
	assert.False(t, cfg.Pipeline.Enforce())
	assert.Equal(t, []string{"needs_review", "offer_sent"}, cfg.Pipeline.AdditionalStatuses)
	assert.Equal(t, "per_step", cfg.Pipeline.FeedbackMode, "defaults fill the rest")
	assert.Equal(t, 30, cfg.Pipeline.MaxWriteAttempts)
}

func TestLoad_NoFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_BACKEND", "memory")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, 10*time.Second, cfg.Webhook.Timeout)
	assert.True(t, cfg.Pipeline.Enforce())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"valid memory", Config{Store: StoreMemory}, ""},
		{"valid postgres", Config{Store: StorePostgres, DatabaseURL: "postgres://x"}, ""},
		{"postgres without url", Config{Store: StorePostgres}, "database_url"},
		{"unknown store", Config{Store: "redis"}, "unknown store"},
		{"bad port", Config{Store: StoreMemory, Port: 70000}, "port"},
		{"bad feedback mode", Config{Store: StoreMemory, Pipeline: PipelineConfig{FeedbackMode: "everyone"}}, "feedback_mode"},
		{"negative attempts", Config{Store: StoreMemory, Pipeline: PipelineConfig{MaxWriteAttempts: -1}}, "max_write_attempts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	off := false
	cfg := Config{Port: 9999, Pipeline: PipelineConfig{EnforceStepPlan: &off}}
	merged := cfg.MergeWithDefaults(Defaults())

	assert.Equal(t, 9999, merged.Port, "set values win")
	assert.Equal(t, StorePostgres, merged.Store)
	assert.Equal(t, "uploads", merged.UploadDir)
	assert.False(t, merged.Pipeline.Enforce())
	assert.Equal(t, 0, cfg.Pipeline.MaxWriteAttempts, "receiver is not modified")
}
