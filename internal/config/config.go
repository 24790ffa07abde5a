// Package config loads server settings from a TOML file, a .env file and JSONRPC_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "JSONRPC_"

type ServerConfig struct {
	Address        string   `toml:"address"`
	Path           string   `toml:"path"`
	WebSocketPath  string   `toml:"websocket_path"`
	MaxRequestSize int64    `toml:"max_request_size"`
	RateLimit      float64  `toml:"rate_limit"`
	RateBurst      int      `toml:"rate_burst"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

type LogConfig struct {
	Backend string `toml:"backend"`
	Level   string `toml:"level"`
}

type Config struct {
	Server ServerConfig `toml:"server"`
	Log    LogConfig    `toml:"log"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:        ":3000",
			Path:           "/",
			WebSocketPath:  "/ws",
			MaxRequestSize: 1 << 20,
		},
		Log: LogConfig{
			Backend: "logrus",
			Level:   "info",
		},
	}
}

// Load reads the TOML file at path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, cfg.Validate()
}

// LoadEnvFile returns the variables of a .env file. A missing file yields no variables.
func LoadEnvFile(path string) (map[string]string, error) {
	vars, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read env file '%s': %w", path, err)
	}
	return vars, nil
}

// ApplyEnv overrides cfg with JSONRPC_* variables found by lookup.
func (cfg *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}

	str("ADDRESS", &cfg.Server.Address)
	str("PATH", &cfg.Server.Path)
	str("WEBSOCKET_PATH", &cfg.Server.WebSocketPath)
	str("LOG_BACKEND", &cfg.Log.Backend)
	str("LOG_LEVEL", &cfg.Log.Level)

	if v, ok := lookup(EnvPrefix + "MAX_REQUEST_SIZE"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %sMAX_REQUEST_SIZE: %w", EnvPrefix, err)
		}
		cfg.Server.MaxRequestSize = n
	}
	if v, ok := lookup(EnvPrefix + "RATE_LIMIT"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %sRATE_LIMIT: %w", EnvPrefix, err)
		}
		cfg.Server.RateLimit = f
	}
	if v, ok := lookup(EnvPrefix + "RATE_BURST"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sRATE_BURST: %w", EnvPrefix, err)
		}
		cfg.Server.RateBurst = n
	}
	if v, ok := lookup(EnvPrefix + "ALLOWED_ORIGINS"); ok {
		cfg.Server.AllowedOrigins = nil
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.Server.AllowedOrigins = append(cfg.Server.AllowedOrigins, origin)
			}
		}
	}

	return cfg.Validate()
}

// Validate reports settings the server cannot start with.
func (cfg *Config) Validate() error {
	switch {
	case cfg.Server.Address == "":
		return errors.New("server.address must not be empty")
	case !strings.HasPrefix(cfg.Server.Path, "/"):
		return fmt.Errorf("server.path must start with '/': %q", cfg.Server.Path)
	case cfg.Server.WebSocketPath != "" && !strings.HasPrefix(cfg.Server.WebSocketPath, "/"):
		return fmt.Errorf("server.websocket_path must start with '/': %q", cfg.Server.WebSocketPath)
	case cfg.Server.WebSocketPath == cfg.Server.Path:
		return errors.New("server.websocket_path must differ from server.path")
	case cfg.Server.MaxRequestSize <= 0:
		return fmt.Errorf("server.max_request_size must be positive: %d", cfg.Server.MaxRequestSize)
	case cfg.Server.RateLimit < 0:
		return fmt.Errorf("server.rate_limit must not be negative: %v", cfg.Server.RateLimit)
	}
	return nil
}

// Lookup resolves a variable from the process environment first, then from vars.
func Lookup(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := vars[key]
		return v, ok
	}
}
