package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everstacklabs/kai/internal/task"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"KIE_API_KEY", "KAI_PROVIDERS_KIE_API_KEY", "KAI_LOG_LEVEL", "KAI_POLL_TIMEOUT", "AWS_REGION"} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "kie", cfg.DefaultProvider)
	kie := cfg.Provider("kie")
	assert.Equal(t, "https://api.kie.ai", kie.BaseURL)
	assert.InDelta(t, 5.0, kie.RateLimit, 0)
	assert.Equal(t, "https://api.example.com/callback", kie.CallbackURL)
	assert.Equal(t, 2*time.Second, cfg.Poll.Interval)
	assert.Equal(t, 10*time.Minute, cfg.Poll.Timeout)
	assert.Equal(t, 300, cfg.Poll.MaxAttempts)
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)

	model, params := cfg.TaskDefaults(task.TypeImage)
	assert.Equal(t, "google/imagen4-fast", model)
	assert.Equal(t, map[string]any{"aspect_ratio": "16:9"}, params)

	model, _ = cfg.TaskDefaults(task.TypeMusic)
	assert.Equal(t, "V4_5", model)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("KIE_API_KEY", "sk-from-env")
	t.Setenv("KAI_LOG_LEVEL", "debug")
	t.Setenv("KAI_POLL_TIMEOUT", "30s")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	key, err := cfg.APIKey("kie")
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", key)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.Poll.Timeout)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
providers:
  kie:
    api_key: sk-from-file
    rate_limit: 2
defaults:
  video:
    model: kling/v2-1-standard
poll:
  interval: 5s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sk-from-file", cfg.Provider("kie").APIKey)
	assert.InDelta(t, 2.0, cfg.Provider("kie").RateLimit, 0)
	assert.Equal(t, "https://api.kie.ai", cfg.Provider("kie").BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Poll.Interval)

	model, params := cfg.TaskDefaults(task.TypeVideo)
	assert.Equal(t, "kling/v2-1-standard", model)
	assert.EqualValues(t, 5, params["duration"])
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"bad log format", "log_format: xml\n"},
		{"zero rate limit", "providers:\n  kie:\n    rate_limit: 0\n"},
		{"negative poll attempts", "poll:\n  max_attempts: -1\n"},
		{"malformed yaml", "poll: [\n"},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, string(rune('a'+i))+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestAPIKey_Missing(t *testing.T) {
	cfg := &Config{Providers: map[string]ProviderConfig{"kie": {APIKey: "  "}}}
	_, err := cfg.APIKey("kie")
	assert.ErrorIs(t, err, ErrAPIKeyRequired)

	_, err = cfg.APIKey("other")
	assert.ErrorIs(t, err, ErrAPIKeyRequired)
}

func TestStore_SetPersistsOnlyFileValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("KIE_API_KEY", "sk-env-only")
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	s, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, path, s.Path())

	require.NoError(t, s.Set("defaults.image.model", "flux-2/pro-text-to-image"))
	require.NoError(t, s.Set("poll.max_attempts", "50"))
	require.NoError(t, s.Set("no_cache", "true"))

	v, ok := s.Get("poll.max_attempts")
	require.True(t, ok)
	assert.EqualValues(t, 50, v)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "flux-2/pro-text-to-image")
	assert.NotContains(t, string(data), "sk-env-only")
	assert.NotContains(t, string(data), "history_path")

	reopened, err := Open(path)
	require.NoError(t, err)
	cfg, err := reopened.Config()
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Poll.MaxAttempts)
	assert.True(t, cfg.NoCache)
	model, _ := cfg.TaskDefaults(task.TypeImage)
	assert.Equal(t, "flux-2/pro-text-to-image", model)
}

func TestStore_SetUnknownKey(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	err = s.Set("colour", "blue")
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestStore_ListMasksSecrets(t *testing.T) {
	clearEnv(t)
	s, err := Open(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	require.NoError(t, s.Set("kie.apiKey", "sk-1234567890abcd"))

	find := func(list []Setting, key string) any {
		for _, st := range list {
			if st.Key == key {
				return st.Value
			}
		}
		return nil
	}

	masked := s.List(false)
	assert.Equal(t, "sk-1*********abcd", find(masked, "providers.kie.api_key"))
	assert.Equal(t, "kie", find(masked, "default_provider"))

	plain := s.List(true)
	assert.Equal(t, "sk-1234567890abcd", find(plain, "providers.kie.api_key"))

	for i := 1; i < len(masked); i++ {
		assert.Less(t, masked[i-1].Key, masked[i].Key)
	}
}

func TestNormalizeKey(t *testing.T) {
	tests := map[string]string{
		"kie.apiKey":            "providers.kie.api_key",
		"kie.api_key":           "providers.kie.api_key",
		"providers.kie.api_key": "providers.kie.api_key",
		" Log_Level ":           "log_level",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeKey(in), in)
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"true", true},
		{"false", false},
		{"42", int64(42)},
		{"0.5", 0.5},
		{"NaN", "NaN"},
		{"16:9", "16:9"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseValue(tt.in), tt.in)
	}
}

func TestMask(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"short", "*****"},
		{"12345678", "********"},
		{"123456789", "1234*6789"},
		{"sk-abcdefghijklmnop", "sk-a***********mnop"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Mask(tt.in), tt.in)
	}

	assert.Equal(t, 42, MaskSetting("providers.kie.api_key", 42))
	assert.Equal(t, "visible-value", MaskSetting("output_dir", "visible-value"))
	assert.Equal(t, "****", MaskSetting("s3.secret_access_key", "abcd"))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{LogFormat: "json", LogLevel: "warn"}
	logger := cfg.newLogger(&buf)

	logger.Info("dropped")
	logger.Warn("kept", "task_id", "t1")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), `"task_id":"t1"`)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, parseLogLevel(tt.input), tt.input)
	}
}
