package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// clearConfigEnv unsets every variable LoadConfig reads for the duration of
// the test.
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SERVER_ADDR", "ALLOWED_ORIGINS", "MAX_MESSAGE_SIZE", "RATE_LIMIT_BURST",
		"RATE_LIMIT_REFILL_INTERVAL", "HEARTBEAT_INTERVAL", "CLIENT_TIMEOUT",
		"SEND_BUFFER_SIZE", "BROKER_QUEUE_SIZE", "WRITE_WAIT", "SHUTDOWN_TIMEOUT", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
	require.Equal(t, 5*time.Second, cfg.HeartbeatInterval)
	require.Equal(t, 10*time.Second, cfg.ClientTimeout)
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("SERVER_ADDR", ":9000")
	t.Setenv("ALLOWED_ORIGINS", "http://a.example, http://b.example")
	t.Setenv("HEARTBEAT_INTERVAL", "2s")
	t.Setenv("CLIENT_TIMEOUT", "7s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.Addr)
	require.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.AllowedOrigins())
	require.Equal(t, 2*time.Second, cfg.HeartbeatInterval)
	require.Equal(t, 7*time.Second, cfg.ClientTimeout)
	require.Equal(t, "DEBUG", cfg.LogLevel)
}

func TestLoadConfig_FromEnvFile(t *testing.T) {
	clearConfigEnv(t)
	path := filepath.Join(t.TempDir(), "chat.env")
	require.NoError(t, os.WriteFile(path, []byte("SERVER_ADDR=:7000\nRATE_LIMIT_BURST=9\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("SERVER_ADDR")
		_ = os.Unsetenv("RATE_LIMIT_BURST")
	})

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, ":7000", cfg.Addr)
	require.Equal(t, 9, cfg.RateLimitBurst)
}

func TestLoadConfig_EnvironmentWinsOverFile(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("SERVER_ADDR", ":9000")
	path := filepath.Join(t.TempDir(), "chat.env")
	require.NoError(t, os.WriteFile(path, []byte("SERVER_ADDR=:7000\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.Addr)
}

func TestLoadConfig_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"timeout not above heartbeat", "CLIENT_TIMEOUT", "3s"},
		{"unknown log level", "LOG_LEVEL", "verbose"},
		{"malformed duration", "HEARTBEAT_INTERVAL", "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			t.Setenv(tt.key, tt.val)

			_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
			require.Error(t, err)
		})
	}
}

func TestSanitizeConfig_FillsZeroValues(t *testing.T) {
	cfg := sanitizeConfig(Config{LogLevel: " warn "})

	require.NoError(t, cfg.Validate())
	require.Equal(t, "WARN", cfg.LogLevel)
	require.Equal(t, DefaultConfig().SendBufferSize, cfg.SendBufferSize)
	require.Empty(t, cfg.AllowedOrigins())
}
