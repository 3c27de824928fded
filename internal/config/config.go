// Package config loads runtime settings for the notes CLI.
//
// Settings come from an optional config.yaml in the config directory, from
// environment variables and from bound command-line flags, in increasing order
// of precedence. They are read once at startup.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	// Keys.
	KeyURL         = "url"
	KeyKey         = "key"
	KeyRealtime    = "realtime"
	KeyLogLevel    = "log_level"
	KeyLogFile     = "log_file"
	KeyHTTPTimeout = "http_timeout"

	// DirEnv overrides the default config directory.
	DirEnv = "NOTES_CONFIG_DIR"

	defaultLogLevel    = "info"
	defaultLogFile     = "notes.log"
	defaultHTTPTimeout = 15 * time.Second
)

// Config is the resolved configuration.
type Config struct {
	Dir         string
	URL         string
	Key         string
	Realtime    bool
	LogLevel    string
	LogFile     string
	HTTPTimeout time.Duration
}

// Configured reports whether both the backend URL and the key are present.
func (c *Config) Configured() bool {
	return c.URL != "" && c.Key != ""
}

// Options controls where Load looks for settings.
type Options struct {
	// Dir is the config directory. Empty means ResolveDir("").
	Dir string
	// Flags, when set, are bound by key name: url, key.
	Flags *pflag.FlagSet
}

// ResolveDir picks the config directory: the explicit value, then
// $NOTES_CONFIG_DIR, then <user config dir>/notes.
func ResolveDir(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if dir := os.Getenv(DirEnv); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(base, "notes"), nil
}

// Load reads config.yaml (if any), the environment and opts.Flags.
// A missing config.yaml is not an error.
func Load(opts Options) (*Config, error) {
	dir, err := ResolveDir(opts.Dir)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetDefault(KeyRealtime, true)
	v.SetDefault(KeyLogLevel, defaultLogLevel)
	v.SetDefault(KeyLogFile, defaultLogFile)
	v.SetDefault(KeyHTTPTimeout, defaultHTTPTimeout)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(dir)

	bindings := map[string][]string{
		KeyURL:         {"SUPABASE_URL", "NOTES_URL"},
		KeyKey:         {"SUPABASE_KEY", "NOTES_KEY"},
		KeyRealtime:    {"NOTES_REALTIME"},
		KeyLogLevel:    {"NOTES_LOG_LEVEL"},
		KeyLogFile:     {"NOTES_LOG_FILE"},
		KeyHTTPTimeout: {"NOTES_HTTP_TIMEOUT"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if opts.Flags != nil {
		for _, key := range []string{KeyURL, KeyKey} {
			if f := opts.Flags.Lookup(key); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", key, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		Dir:         dir,
		URL:         strings.TrimSpace(v.GetString(KeyURL)),
		Key:         strings.TrimSpace(v.GetString(KeyKey)),
		Realtime:    v.GetBool(KeyRealtime),
		LogLevel:    strings.ToLower(v.GetString(KeyLogLevel)),
		LogFile:     v.GetString(KeyLogFile),
		HTTPTimeout: v.GetDuration(KeyHTTPTimeout),
	}
	if cfg.LogFile != "" && !filepath.IsAbs(cfg.LogFile) {
		cfg.LogFile = filepath.Join(dir, cfg.LogFile)
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = defaultHTTPTimeout
	}
	return cfg, nil
}
