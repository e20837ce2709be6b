// Package config resolves where the library lives and the tunables of the
// catalog, the render engine and the reader.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	DataDir        string
	ThumbnailWidth int
	RecentLimit    int
	ViewMargin     int
	LogLevel       string
	LogFormat      string
}

// flagKeys maps command line flags to config keys.
var flagKeys = map[string]string{
	"data-dir":   "data_dir",
	"log-level":  "log_level",
	"log-format": "log_format",
}

// Load reads the configuration. Precedence, highest first: flags that were
// set explicitly, PDFLIB_* environment variables, configFile (if not empty),
// defaults. flags may be nil.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("data_dir", "")
	v.SetDefault("thumbnail_width", DefaultThumbnailWidth)
	v.SetDefault("recent_limit", DefaultRecentLimit)
	v.SetDefault("view_margin", DefaultViewMargin)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_format", DefaultLogFormat)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configFile, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind --%s: %w", name, err)
			}
		}
	}

	cfg := &Config{
		DataDir:        v.GetString("data_dir"),
		ThumbnailWidth: v.GetInt("thumbnail_width"),
		RecentLimit:    v.GetInt("recent_limit"),
		ViewMargin:     v.GetInt("view_margin"),
		LogLevel:       v.GetString("log_level"),
		LogFormat:      v.GetString("log_format"),
	}

	if cfg.DataDir == "" {
		dir, err := DefaultDataDir()
		if err != nil {
			return nil, err
		}
		cfg.DataDir = dir
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ThumbnailWidth <= 0 {
		return fmt.Errorf("thumbnail_width must be positive: %d", c.ThumbnailWidth)
	}
	if c.RecentLimit <= 0 {
		return fmt.Errorf("recent_limit must be positive: %d", c.RecentLimit)
	}
	if c.ViewMargin <= 0 {
		return fmt.Errorf("view_margin must be positive: %d", c.ViewMargin)
	}
	return nil
}

// DefaultDataDir returns the per-user data directory for the current
// platform. The directory is not created.
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return platformDataDir(runtime.GOOS, os.Getenv, home), nil
}

func platformDataDir(goos string, getenv func(string) string, home string) string {
	var base string
	switch goos {
	case "windows":
		base = getenv("LOCALAPPDATA")
		if base == "" {
			base = filepath.Join(home, "AppData", "Local")
		}
	case "darwin":
		base = filepath.Join(home, "Library", "Application Support")
	default:
		base = getenv("XDG_DATA_HOME")
		if base == "" || !filepath.IsAbs(base) {
			base = filepath.Join(home, ".local", "share")
		}
	}
	return filepath.Join(base, AppDirName)
}
