package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type ProbeConfig struct {
	// Skip bypasses the documentation-page existence probe; every candidate
	// URL is reported as existing. Meant for automated testing.
	Skip           bool `mapstructure:"skip"`
	TimeoutSeconds int  `mapstructure:"timeout_seconds"`
}

type HostsConfig struct {
	Std      string `mapstructure:"std"`
	Registry string `mapstructure:"registry"`
}

type DaemonConfig struct {
	ExpirationSeconds int `mapstructure:"expiration_seconds"`
}

type Config struct {
	Probe  ProbeConfig  `mapstructure:"probe"`
	Hosts  HostsConfig  `mapstructure:"hosts"`
	Daemon DaemonConfig `mapstructure:"daemon"`
}

// cacheBase returns the base cache directory for ferrishover.
// Checks XDG_CACHE_HOME, then ~/.cache, then /tmp/ferrishover as fallback.
func cacheBase() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "ferrishover")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "ferrishover")
	}
	return filepath.Join(os.TempDir(), "ferrishover")
}

// DBPath returns the path to the DuckDB database file.
func DBPath() string {
	return filepath.Join(cacheBase(), "db.db")
}

// CASDir returns the path to the content-addressable storage directory.
func CASDir() string {
	return filepath.Join(cacheBase(), "cas")
}

// JSONCacheDir returns the path to the rustdoc JSON cache directory.
func JSONCacheDir() string {
	return filepath.Join(cacheBase(), "json")
}

// LogPath returns the path to the daemon's log file.
func LogPath() string {
	return filepath.Join(cacheBase(), "daemon.log")
}

// SocketPath returns the path to the daemon's unix socket.
func SocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "ferrishover", "daemon.sock")
	}
	return filepath.Join(fmt.Sprintf("/run/user/%d", os.Getuid()), "ferrishover", "daemon.sock")
}

func InitializeViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("toml")

	viper.AddConfigPath(".")
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		viper.AddConfigPath(filepath.Join(xdg, "ferrishover"))
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "ferrishover"))
	}

	viper.SetDefault("probe.skip", false)
	viper.SetDefault("probe.timeout_seconds", 10)
	viper.SetDefault("hosts.std", "https://doc.rust-lang.org/")
	viper.SetDefault("hosts.registry", "https://docs.rs/")
	viper.SetDefault("daemon.expiration_seconds", 600)

	viper.SetEnvPrefix("FERRISHOVER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

func Load() (*Config, error) {
	if err := InitializeViper(); err != nil {
		return nil, err
	}

	var config Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result: &config,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(viper.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}
