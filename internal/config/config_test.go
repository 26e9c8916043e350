package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SESSION_SECRET", "0123456789abcdef")
	t.Setenv("STORE_DRIVER", "memory")
}

func TestFromEnv_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.GetServerAddr())
	assert.Equal(t, StoreMemory, cfg.GetStoreDriver())
	assert.Equal(t, 256, cfg.GetWSSendBuffer())
	assert.Equal(t, int64(64*1024), cfg.GetWSReadLimit())
	assert.Equal(t, 25*time.Second, cfg.GetWSPingInterval())
	assert.Equal(t, 5*time.Second, cfg.GetDBQueryTimeout())
	assert.Equal(t, 100*time.Millisecond, cfg.GetModerationTimeout())
	assert.Empty(t, cfg.GetArchiveDir())
}

func TestFromEnv_Overrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("SERVER_ADDR", ":9999")
	t.Setenv("WS_SEND_BUFFER", "8")
	t.Setenv("DB_QUERY_TIMEOUT", "250ms")
	t.Setenv("RATE_LIMIT", "2.5")
	t.Setenv("ARCHIVE_DIR", "/var/lib/organizapp/archive")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.GetServerAddr())
	assert.Equal(t, 8, cfg.GetWSSendBuffer())
	assert.Equal(t, 250*time.Millisecond, cfg.GetDBQueryTimeout())
	assert.InDelta(t, 2.5, cfg.GetRateLimit(), 0.0001)
	assert.Equal(t, "/var/lib/organizapp/archive", cfg.GetArchiveDir())
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"short session secret", map[string]string{"SESSION_SECRET": "short"}},
		{"unknown driver", map[string]string{"STORE_DRIVER": "mongo"}},
		{"surreal without url", map[string]string{"STORE_DRIVER": "surreal", "SURREAL_NS": "app", "SURREAL_DB": "app"}},
		{"bad duration", map[string]string{"DB_QUERY_TIMEOUT": "soon"}},
		{"bad buffer", map[string]string{"WS_SEND_BUFFER": "many"}},
		{"zero buffer", map[string]string{"WS_SEND_BUFFER": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestFromEnv_SurrealRequiresConnectionSettings(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("STORE_DRIVER", "surreal")
	t.Setenv("SURREAL_URL", "ws://localhost:8000/rpc")
	t.Setenv("SURREAL_NS", "organizapp")
	t.Setenv("SURREAL_DB", "chat")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "organizapp", cfg.GetDBNs())
	assert.Equal(t, "chat", cfg.GetDBDb())
}
