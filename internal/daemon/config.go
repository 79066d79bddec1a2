// Package daemon holds the server configuration: defaults overlaid by an
// optional TOML file at ~/.tonance/config.toml.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the full daemon configuration.
type Config struct {
	API     APIConfig     `toml:"api"`
	Storage StorageConfig `toml:"storage"`
	Metrics MetricsConfig `toml:"metrics"`
}

// APIConfig configures the HTTP listener.
type APIConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig configures the embedded database.
type StorageConfig struct {
	// Dir is the directory holding the sqlite database file.
	// Empty means ~/.tonance/data.
	Dir string `toml:"dir"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `toml:"enabled"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

// Home returns the Tonance home directory, ~/.tonance by default,
// overridable with TONANCE_HOME.
func Home() string {
	if dir := os.Getenv("TONANCE_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tonance"
	}
	return filepath.Join(home, ".tonance")
}

// ConfigPath returns the location of the config file.
func ConfigPath() string {
	return filepath.Join(Home(), "config.toml")
}

// Load reads the config file at path, overlaying the defaults. A missing
// file is not an error: the defaults are returned as-is.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// DataDir returns the configured storage directory, defaulting under Home.
func (c Config) DataDir() string {
	if c.Storage.Dir != "" {
		return c.Storage.Dir
	}
	return filepath.Join(Home(), "data")
}

// ListenAddr returns the host:port the API server binds to.
func (c Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.API.Host, c.API.Port)
}
