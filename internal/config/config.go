// Package config layers ripzip defaults, an optional TOML config file and
// RIPZIP_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/lucrnz/ripzip/internal/archive"
	"github.com/lucrnz/ripzip/internal/lockwait"
	"github.com/lucrnz/ripzip/internal/util"
)

const (
	AppName        = "ripzip"
	ConfigFileName = "config"
	ConfigFileExt  = "toml"
	EnvPrefix      = "RIPZIP"
)

// Config is the resolved configuration.
type Config struct {
	BufferSize int64
	Method     archive.Method
	Probe      ProbeConfig
	Log        LogConfig
}

// ProbeConfig controls the availability probe used by "wait" and "add --wait".
type ProbeConfig struct {
	Interval time.Duration
	Attempts int
}

// LogConfig selects the slog level and handler.
type LogConfig struct {
	Level  string
	Format string
}

// LoadOptions overrides where the config file is looked up.
type LoadOptions struct {
	// ConfigFilePath is used exclusively when set and must exist.
	ConfigFilePath string
	// ConfigDirPath replaces the platform config directory.
	ConfigDirPath string
}

// ConfigDir returns the ripzip directory under the user config directory
// ($XDG_CONFIG_HOME or ~/.config on Linux, %AppData% on Windows).
//
//nolint:revive // ConfigDir reads better than Dir at call sites
func ConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(dir, AppName), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("buffer_size", "64KiB")
	v.SetDefault("method", archive.Deflate.String())
	v.SetDefault("probe.interval", lockwait.DefaultInterval.String())
	v.SetDefault("probe.attempts", lockwait.DefaultAttempts)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load resolves the configuration and returns it with the path of the file
// it was read from, or "" when only defaults and environment applied.
func Load(opts LoadOptions) (*Config, string, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := findConfigFile(opts)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType(ConfigFileExt)
		if err := v.ReadInConfig(); err != nil {
			return nil, "", fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		if path != "" {
			return nil, "", fmt.Errorf("%s: %w", path, err)
		}
		return nil, "", err
	}
	return cfg, path, nil
}

func findConfigFile(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", fmt.Errorf("config file not found: %s", opts.ConfigFilePath)
		}
		return opts.ConfigFilePath, nil
	}

	dir := opts.ConfigDirPath
	if dir == "" {
		var err error
		if dir, err = ConfigDir(); err != nil {
			// No home directory is not fatal; fall through to the local file.
			dir = ""
		}
	}
	if dir != "" {
		if p := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt); fileExists(p) {
			return p, nil
		}
	}
	if p := AppName + "." + ConfigFileExt; fileExists(p) {
		return p, nil
	}
	return "", nil
}

func decode(v *viper.Viper) (*Config, error) {
	bufSize, err := util.ParseByteSize(v.GetString("buffer_size"))
	if err != nil {
		return nil, fmt.Errorf("buffer_size: %w", err)
	}
	if bufSize <= 0 || bufSize > int64(util.GiB) {
		return nil, fmt.Errorf("buffer_size must be between 1B and 1GiB, got %s", util.HumanReadableBytes(bufSize))
	}

	method, err := archive.ParseMethod(v.GetString("method"))
	if err != nil {
		return nil, fmt.Errorf("method: %w", err)
	}

	interval, err := util.ParseDuration(v.GetString("probe.interval"))
	if err != nil {
		return nil, fmt.Errorf("probe.interval: %w", err)
	}
	attempts := v.GetInt("probe.attempts")
	if attempts <= 0 {
		return nil, errors.New("probe.attempts must be positive")
	}

	return &Config{
		BufferSize: bufSize,
		Method:     method,
		Probe:      ProbeConfig{Interval: interval, Attempts: attempts},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
