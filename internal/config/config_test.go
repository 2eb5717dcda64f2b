package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yumyumCoachAPI/services"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("CLERK_SECRET_KEY", "sk_test")
	t.Setenv("DATABASE_URL", "postgres://localhost/yumyum")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "3333", cfg.Port)
	assert.Equal(t, DriverPostgres, cfg.StorageDriver)
	assert.Equal(t, time.Hour, cfg.ProgressEvalInterval)
	assert.Equal(t, 4, cfg.ProgressEvalWorkers)
	assert.Equal(t, 30, cfg.RateLimitBurst)
	assert.Equal(t, services.RejoinBlockAnyRow, cfg.Rejoin())
	assert.Equal(t, "Asia/Seoul", cfg.Location().String())
}

func TestParseSQLite(t *testing.T) {
	t.Setenv("CLERK_SECRET_KEY", "sk_test")
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/coach.db")
	t.Setenv("REJOIN_POLICY", "active_only")
	t.Setenv("CHALLENGE_TIMEZONE", "UTC")
	t.Setenv("PROGRESS_EVAL_INTERVAL", "15m")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/coach.db", cfg.SQLitePath)
	assert.Equal(t, services.RejoinBlockActiveOnly, cfg.Rejoin())
	assert.Equal(t, time.UTC, cfg.Location())
	assert.Equal(t, 15*time.Minute, cfg.ProgressEvalInterval)
}

func TestParseRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing clerk key", map[string]string{"CLERK_SECRET_KEY": "", "DATABASE_URL": "postgres://x"}},
		{"postgres without url", map[string]string{"DATABASE_URL": ""}},
		{"unknown driver", map[string]string{"STORAGE_DRIVER": "mysql"}},
		{"unknown rejoin policy", map[string]string{"STORAGE_DRIVER": "sqlite", "REJOIN_POLICY": "never"}},
		{"bad timezone", map[string]string{"STORAGE_DRIVER": "sqlite", "CHALLENGE_TIMEZONE": "Mars/Olympus"}},
		{"bad interval", map[string]string{"STORAGE_DRIVER": "sqlite", "PROGRESS_EVAL_INTERVAL": "soon"}},
		{"zero workers", map[string]string{"STORAGE_DRIVER": "sqlite", "PROGRESS_EVAL_WORKERS": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CLERK_SECRET_KEY", "sk_test")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Parse()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "parse env")
		})
	}
}
