// Package config loads kai settings from file, environment, and defaults,
// and persists edits made through `kai config set`.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/everstacklabs/kai/internal/task"
)

// Static errors for configuration.
var (
	// ErrAPIKeyRequired is returned when a provider is used without credentials.
	ErrAPIKeyRequired = errors.New("config: API key not configured")
	// ErrUnknownKey is returned when setting a key outside the known sections.
	ErrUnknownKey = errors.New("config: unknown key")
)

// Config holds all configuration for kai.
type Config struct {
	DefaultProvider string                    `mapstructure:"default_provider" validate:"required"`
	Providers       map[string]ProviderConfig `mapstructure:"providers" validate:"dive"`
	Defaults        map[string]map[string]any `mapstructure:"defaults"`
	OutputDir       string                    `mapstructure:"output_dir"`
	LogLevel        string                    `mapstructure:"log_level" validate:"oneof=debug info warn warning error"`
	LogFormat       string                    `mapstructure:"log_format" validate:"oneof=text json"`
	CacheDir        string                    `mapstructure:"cache_dir"`
	CacheTTL        time.Duration             `mapstructure:"cache_ttl" validate:"gte=0"`
	NoCache         bool                      `mapstructure:"no_cache"`
	HistoryPath     string                    `mapstructure:"history_path"`
	CatalogPath     string                    `mapstructure:"catalog_path"`
	Poll            PollConfig                `mapstructure:"poll"`
	S3              S3Config                  `mapstructure:"s3"`
}

// ProviderConfig holds per-provider credentials and transport settings.
type ProviderConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url" validate:"omitempty,url"`
	RateLimit   float64 `mapstructure:"rate_limit" validate:"gt=0"`
	CallbackURL string  `mapstructure:"callback_url" validate:"omitempty,url"`
}

// PollConfig holds the defaults for waiting on tasks.
type PollConfig struct {
	Interval    time.Duration `mapstructure:"interval" validate:"gt=0"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxAttempts int           `mapstructure:"max_attempts" validate:"gt=0"`
}

// S3Config holds optional credentials for s3:// download destinations.
// Empty credentials fall back to the AWS default chain.
type S3Config struct {
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint" validate:"omitempty,url"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// Load reads configuration from file, environment, and defaults.
func Load(cfgFile string) (*Config, error) {
	s, err := Open(cfgFile)
	if err != nil {
		return nil, err
	}
	return s.Config()
}

// Provider returns the settings of the named provider.
func (c *Config) Provider(name string) ProviderConfig {
	return c.Providers[name]
}

// APIKey returns the API key of the named provider or ErrAPIKeyRequired.
func (c *Config) APIKey(provider string) (string, error) {
	key := strings.TrimSpace(c.Providers[provider].APIKey)
	if key == "" {
		return "", fmt.Errorf("%w for provider %q", ErrAPIKeyRequired, provider)
	}
	return key, nil
}

// TaskDefaults returns the default model and default parameters configured
// for one task type.
func (c *Config) TaskDefaults(t task.Type) (string, map[string]any) {
	section := c.Defaults[string(t)]
	params := make(map[string]any, len(section))
	var model string
	for k, v := range section {
		if k == "model" {
			model, _ = v.(string)
			continue
		}
		params[k] = v
	}
	return model, params
}

// NewLogger creates a structured logger writing to stderr.
// When LogFormat is "json", it outputs JSON logs; otherwise text.
func (c *Config) NewLogger() *slog.Logger {
	return c.newLogger(os.Stderr)
}

func (c *Config) newLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(c.LogLevel)}

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("default_provider", "kie")
	v.SetDefault("providers.kie.api_key", "")
	v.SetDefault("providers.kie.base_url", "https://api.kie.ai")
	v.SetDefault("providers.kie.rate_limit", 5)
	v.SetDefault("providers.kie.callback_url", "https://api.example.com/callback")
	v.SetDefault("defaults.image.model", "google/imagen4-fast")
	v.SetDefault("defaults.image.aspect_ratio", "16:9")
	v.SetDefault("defaults.video.model", "grok-imagine/text-to-video")
	v.SetDefault("defaults.video.duration", 5)
	v.SetDefault("defaults.music.model", "V4_5")
	v.SetDefault("output_dir", ".")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("cache_dir", defaultDir(".cache", "kai"))
	v.SetDefault("cache_ttl", "24h")
	v.SetDefault("no_cache", false)
	v.SetDefault("history_path", filepath.Join(defaultDir(".config", "kai"), "history.json"))
	v.SetDefault("catalog_path", "")
	v.SetDefault("poll.interval", "2s")
	v.SetDefault("poll.timeout", "10m")
	v.SetDefault("poll.max_attempts", 300)
	v.SetDefault("s3.region", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("KAI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("providers.kie.api_key", "KAI_PROVIDERS_KIE_API_KEY", "KIE_API_KEY")
	_ = v.BindEnv("s3.access_key_id", "KAI_S3_ACCESS_KEY_ID", "AWS_ACCESS_KEY_ID")
	_ = v.BindEnv("s3.secret_access_key", "KAI_S3_SECRET_ACCESS_KEY", "AWS_SECRET_ACCESS_KEY")
	_ = v.BindEnv("s3.region", "KAI_S3_REGION", "AWS_REGION")
}

// readFile loads path into v. A missing file is not an error.
func readFile(v *viper.Viper, path string) error {
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// DefaultPath is the config file used when --config is not given.
func DefaultPath() string {
	return filepath.Join(defaultDir(".config", "kai"), "config.yaml")
}

func defaultDir(parts ...string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(append([]string{os.TempDir()}, parts...)...)
	}
	return filepath.Join(append([]string{home}, parts...)...)
}
