// Package config loads client configuration: an optional .env file, an
// optional YAML file, then environment overrides, in that order.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is everything the client needs to run.
type Config struct {
	// APIURL is the backend origin, e.g. "https://api.dishly.example".
	APIURL string `yaml:"api_url"`
	// RedisURL switches storage to the shared Redis backend when set.
	RedisURL string `yaml:"redis_url"`
	// DataDir holds the file-backed session/cart mirror.
	DataDir string `yaml:"data_dir"`
	// CacheTTL bounds the API listing cache.
	CacheTTL time.Duration `yaml:"cache_ttl"`
	// RequestTimeout bounds each backend call.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

func defaults() Config {
	return Config{
		APIURL:         "http://localhost:5000",
		DataDir:        defaultDataDir(),
		CacheTTL:       time.Minute,
		RequestTimeout: 30 * time.Second,
	}
}

func defaultDataDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "dishly")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "dishly")
}

// Load reads path (when it exists) over the defaults and applies env
// overrides. An empty path checks the default location only.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path == "" {
		path = filepath.Join(defaultDataDir(), "config.yaml")
	}
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// defaults + env only
	case err != nil:
		return Config{}, err
	default:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	}

	if v := os.Getenv("DISHLY_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("DISHLY_REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("DISHLY_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir()
	}
	return cfg, nil
}
