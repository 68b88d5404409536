package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Store gives key-path access to the configuration. Reads see the merged
// view (file, environment, defaults); writes touch only the file.
type Store struct {
	path string
	v    *viper.Viper
	file *viper.Viper
}

// Setting is one flattened key and its effective value.
type Setting struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

var topLevel = map[string]bool{
	"default_provider": true,
	"providers":        true,
	"defaults":         true,
	"output_dir":       true,
	"log_level":        true,
	"log_format":       true,
	"cache_dir":        true,
	"cache_ttl":        true,
	"no_cache":         true,
	"history_path":     true,
	"catalog_path":     true,
	"poll":             true,
	"s3":               true,
}

// Open reads the config file at cfgFile, or DefaultPath when empty.
func Open(cfgFile string) (*Store, error) {
	if cfgFile == "" {
		cfgFile = DefaultPath()
	}

	v := viper.New()
	setDefaults(v)
	bindEnv(v)
	if err := readFile(v, cfgFile); err != nil {
		return nil, err
	}

	file := viper.New()
	if err := readFile(file, cfgFile); err != nil {
		return nil, err
	}

	return &Store{path: cfgFile, v: v, file: file}, nil
}

// Path returns the config file location.
func (s *Store) Path() string { return s.path }

// Config decodes and validates the merged settings.
func (s *Store) Config() (*Config, error) {
	var cfg Config
	if err := s.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := structValidator.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Get returns the effective value of key.
func (s *Store) Get(key string) (any, bool) {
	key = NormalizeKey(key)
	if !s.v.IsSet(key) {
		return nil, false
	}
	return s.v.Get(key), true
}

// Set parses value and persists it under key in the config file.
func (s *Store) Set(key, value string) error {
	key = NormalizeKey(key)
	if !topLevel[strings.SplitN(key, ".", 2)[0]] {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	parsed := ParseValue(value)
	s.file.Set(key, parsed)
	s.v.Set(key, parsed)

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := s.file.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// List returns every effective setting, sorted by key. Secrets are masked
// unless unmask is set.
func (s *Store) List(unmask bool) []Setting {
	keys := s.v.AllKeys()
	sort.Strings(keys)

	out := make([]Setting, 0, len(keys))
	for _, k := range keys {
		val := s.v.Get(k)
		if !unmask {
			val = MaskSetting(k, val)
		}
		out = append(out, Setting{Key: k, Value: val})
	}
	return out
}

// NormalizeKey lowercases key and expands provider shortcuts such as
// "kie.api_key" to "providers.kie.api_key".
func NormalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	key = strings.ReplaceAll(key, "apikey", "api_key")
	if strings.HasPrefix(key, "kie.") {
		return "providers." + key
	}
	return key
}

// ParseValue converts command-line text to a bool or number when it reads
// as one, and leaves it a string otherwise.
func ParseValue(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	case "":
		return s
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	return s
}

// Sensitive reports whether the value under key should be masked.
func Sensitive(key string) bool {
	k := strings.ToLower(key)
	return strings.Contains(k, "api_key") || strings.Contains(k, "secret") || strings.Contains(k, "token")
}

// MaskSetting masks val when key is sensitive and val is a non-empty string.
func MaskSetting(key string, val any) any {
	s, ok := val.(string)
	if !ok || s == "" || !Sensitive(key) {
		return val
	}
	return Mask(s)
}

// Mask hides all but the first and last four characters of value. Values
// of eight characters or fewer are hidden entirely.
func Mask(value string) string {
	r := []rune(value)
	if len(r) <= 8 {
		return strings.Repeat("*", len(r))
	}
	return string(r[:4]) + strings.Repeat("*", len(r)-8) + string(r[len(r)-4:])
}
