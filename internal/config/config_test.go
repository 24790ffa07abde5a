package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, ":3000", cfg.Server.Address)
	assert.Equal(t, int64(1<<20), cfg.Server.MaxRequestSize)
	assert.Equal(t, "logrus", cfg.Log.Backend)
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, "config.toml", `
[server]
address = "127.0.0.1:8080"
path = "/rpc"
rate_limit = 50.0
rate_burst = 10
allowed_origins = ["https://app.example.com"]

[log]
backend = "zap"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Address)
	assert.Equal(t, "/rpc", cfg.Server.Path)
	assert.Equal(t, "/ws", cfg.Server.WebSocketPath)
	assert.Equal(t, int64(1<<20), cfg.Server.MaxRequestSize)
	assert.Equal(t, 50.0, cfg.Server.RateLimit)
	assert.Equal(t, 10, cfg.Server.RateBurst)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "zap", cfg.Log.Backend)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = Load(writeFile(t, "bad.toml", "[server\naddress ="))
	assert.ErrorContains(t, err, "failed to parse TOML")

	_, err = Load(writeFile(t, "invalid.toml", "[server]\npath = \"rpc\"\n"))
	assert.ErrorContains(t, err, "server.path")
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"JSONRPC_ADDRESS":          ":9000",
		"JSONRPC_MAX_REQUEST_SIZE": "2048",
		"JSONRPC_RATE_LIMIT":       "2.5",
		"JSONRPC_RATE_BURST":       "5",
		"JSONRPC_ALLOWED_ORIGINS":  "https://a.example.com, https://b.example.com,",
		"JSONRPC_LOG_LEVEL":        "debug",
		"UNRELATED":                "x",
	}

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}))

	assert.Equal(t, ":9000", cfg.Server.Address)
	assert.Equal(t, "/", cfg.Server.Path)
	assert.Equal(t, int64(2048), cfg.Server.MaxRequestSize)
	assert.Equal(t, 2.5, cfg.Server.RateLimit)
	assert.Equal(t, 5, cfg.Server.RateBurst)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "logrus", cfg.Log.Backend)
}

func TestApplyEnv_Invalid(t *testing.T) {
	for _, key := range []string{"JSONRPC_MAX_REQUEST_SIZE", "JSONRPC_RATE_LIMIT", "JSONRPC_RATE_BURST"} {
		t.Run(key, func(t *testing.T) {
			err := Default().ApplyEnv(func(k string) (string, bool) {
				if k == key {
					return "lots", true
				}
				return "", false
			})
			assert.ErrorContains(t, err, key)
		})
	}

	err := Default().ApplyEnv(func(k string) (string, bool) {
		if k == "JSONRPC_MAX_REQUEST_SIZE" {
			return "0", true
		}
		return "", false
	})
	assert.ErrorContains(t, err, "max_request_size")
}

func TestLoadEnvFile(t *testing.T) {
	vars, err := LoadEnvFile(filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)
	assert.Empty(t, vars)

	path := writeFile(t, ".env", "JSONRPC_ADDRESS=:7000\n# comment\nJSONRPC_LOG_BACKEND=zerolog\n")
	vars, err = LoadEnvFile(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"JSONRPC_ADDRESS":     ":7000",
		"JSONRPC_LOG_BACKEND": "zerolog",
	}, vars)
}

func TestLookup_ProcessEnvWins(t *testing.T) {
	t.Setenv("JSONRPC_ADDRESS", ":1111")
	lookup := Lookup(map[string]string{
		"JSONRPC_ADDRESS":   ":2222",
		"JSONRPC_LOG_LEVEL": "warn",
	})

	v, ok := lookup("JSONRPC_ADDRESS")
	assert.True(t, ok)
	assert.Equal(t, ":1111", v)

	v, ok = lookup("JSONRPC_LOG_LEVEL")
	assert.True(t, ok)
	assert.Equal(t, "warn", v)

	_, ok = lookup("JSONRPC_DEFINITELY_UNSET")
	assert.False(t, ok)
}
