package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envVars = []string{
	"LITBOT_LISTEN_ADDR", "SLACK_BOT_TOKEN", "SLACK_SIGNING_SECRET",
	"LLM_API_KEY", "MISTRAL_API_KEY", "LITBOT_LLM_BASE_URL", "LITBOT_LLM_MODEL",
	"S2_API_KEY", "LITBOT_OPENALEX_MAILTO", "LITBOT_STORAGE_BACKEND",
	"LITBOT_DATA_DIR", "LITBOT_POSTGRES_URL", "DATABASE_URL", "LITBOT_LOG_LEVEL",
	"LITBOT_MAX_RESULTS", "LITBOT_LOG_DEVELOPMENT",
}

// isolate clears every override and points XDG dirs at a temp directory.
func isolate(t *testing.T) string {
	t.Helper()
	for _, v := range envVars {
		t.Setenv(v, "")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	return dir
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigDir, ConfigFile)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, "/custom/config/litbot/config.yml", Path())

	t.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	assert.Equal(t, filepath.Join(home, ".config", "litbot", "config.yml"), Path())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":3000", cfg.ListenAddr)
	assert.Equal(t, "json", cfg.Storage.Backend)
	assert.Equal(t, filepath.Join(dir, "data", "litbot"), cfg.Storage.Dir)
	assert.Equal(t, 3, cfg.Search.MaxResults)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.Error(t, err)
}

func TestLoad_File(t *testing.T) {
	dir := isolate(t)
	writeConfig(t, dir, `
listen_addr: ":8080"
llm:
  api_key: file-key
  model: mistral-small-latest
  timeout: 30s
search:
  max_results: 5
  mailto: bot@example.org
storage:
  backend: sqlite
  dir: /var/lib/litbot
log:
  level: debug
`)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "file-key", cfg.LLM.APIKey)
	assert.Equal(t, "mistral-small-latest", cfg.LLM.Model)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "https://api.mistral.ai/v1", cfg.LLM.BaseURL)
	assert.Equal(t, 5, cfg.Search.MaxResults)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "/var/lib/litbot", cfg.Storage.Dir)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	writeConfig(t, dir, "llm:\n  api_key: file-key\n")

	t.Setenv("MISTRAL_API_KEY", "mistral-key")
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-1")
	t.Setenv("SLACK_SIGNING_SECRET", "shh")
	t.Setenv("LITBOT_MAX_RESULTS", "7")
	t.Setenv("LITBOT_LOG_DEVELOPMENT", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "mistral-key", cfg.LLM.APIKey)
	assert.Equal(t, 7, cfg.Search.MaxResults)
	assert.True(t, cfg.Log.Development)
	assert.NoError(t, cfg.RequireSlack())
	assert.NoError(t, cfg.RequireLLM())

	t.Setenv("LLM_API_KEY", "generic-key")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "generic-key", cfg.LLM.APIKey, "LLM_API_KEY takes precedence")
}

func TestLoad_BadEnvNumber(t *testing.T) {
	isolate(t)
	t.Setenv("LITBOT_MAX_RESULTS", "lots")
	_, err := Load("")
	assert.ErrorContains(t, err, "LITBOT_MAX_RESULTS")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown backend", "storage:\n  backend: mongo\n", "Backend"},
		{"postgres without url", "storage:\n  backend: postgres\n", "PostgresURL"},
		{"bad level", "log:\n  level: loud\n", "Level"},
		{"zero results", "search:\n  max_results: 0\n", "MaxResults"},
		{"bad yaml", "llm: [", "parsing config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			writeConfig(t, dir, tt.body)
			_, err := Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRequireCredentials(t *testing.T) {
	cfg := Default()
	assert.ErrorIs(t, cfg.RequireLLM(), ErrMissingCredential)

	err := cfg.RequireSlack()
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.ErrorContains(t, err, "SLACK_BOT_TOKEN, SLACK_SIGNING_SECRET")
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	assert.Equal(t, filepath.Join(home, "data"), ExpandPath("~/data"))
	assert.Equal(t, "/abs", ExpandPath("/abs"))
	assert.Equal(t, "", ExpandPath(""))
}
