package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "local")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 90, cfg.Lookup.CacheDays)
	assert.Equal(t, 10, cfg.Lookup.MaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.Lookup.RetryDelay)
	assert.Equal(t, 900*time.Millisecond, cfg.Lookup.RepairRetryDelay)
	assert.Equal(t, 300*time.Second, cfg.Upstream.RadarTimeout)
	assert.Equal(t, 60*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, RetentionOnLookup, cfg.Lookup.RetentionMode)
	assert.Equal(t, "America/Sao_Paulo", cfg.Lookup.Location.String())
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, 5, cfg.Auth.LoginMaxFailures)
	assert.Equal(t, 15*time.Minute, cfg.Auth.LoginLockDuration)
	assert.Equal(t, 15*time.Minute, cfg.Server.WriteTimeout)
	assert.Equal(t, 10*time.Minute, cfg.Lookup.Timeout)
	assert.Equal(t, 1000, cfg.Batch.MaxSize)
}

func TestDefaultsFitTheWriteTimeout(t *testing.T) {
	t.Setenv("ENVIRONMENT", "local")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Less(t, cfg.Lookup.Timeout, cfg.Server.WriteTimeout)
	assert.Less(t, cfg.Batch.Timeout, cfg.Server.WriteTimeout)
	startAll := time.Duration(float64(cfg.Batch.MaxSize) / cfg.Batch.RatePerSecond * float64(time.Second))
	assert.Less(t, startAll, cfg.Batch.Timeout, "a full batch starts every key before its deadline")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "local")
	t.Setenv("PORT", "9090")
	t.Setenv("CACHE_DAYS", "30")
	t.Setenv("LOOKUP_RETRY_DELAY", "250ms")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("RETENTION_MODE", "scheduled")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 30, cfg.Lookup.CacheDays)
	assert.Equal(t, 250*time.Millisecond, cfg.Lookup.RetryDelay)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, RetentionScheduled, cfg.Lookup.RetentionMode)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "radar.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environment: local\ncache_days: 45\nbatch_workers: 8\n"), 0o600))
	t.Setenv("RADAR_CONFIG", path)
	t.Setenv("BATCH_WORKERS", "2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 45, cfg.Lookup.CacheDays)
	assert.Equal(t, 2, cfg.Batch.Workers, "environment wins over file")
}

func TestValidate(t *testing.T) {
	t.Run("secret required in production", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "production")
		t.Setenv("JWT_SECRET", "")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt_secret")
	})

	timeouts := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "lookup timeout at the write timeout",
			env:  map[string]string{"LOOKUP_TIMEOUT": "15m"},
			want: "lookup_timeout",
		},
		{
			name: "batch timeout above the write timeout",
			env:  map[string]string{"BATCH_TIMEOUT": "20m"},
			want: "batch_timeout",
		},
		{
			name: "batch too large for its rate",
			env:  map[string]string{"BATCH_MAX_SIZE": "5000", "BATCH_RATE_PER_SECOND": "2"},
			want: "batch_max_size",
		},
		{
			name: "batch size must be positive",
			env:  map[string]string{"BATCH_MAX_SIZE": "0"},
			want: "batch_max_size",
		},
	}
	for _, tt := range timeouts {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ENVIRONMENT", "local")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	t.Run("unthrottled batches skip the start-time bound", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "local")
		t.Setenv("BATCH_MAX_SIZE", "5000")
		t.Setenv("BATCH_RATE_PER_SECOND", "0")
		_, err := Load()
		require.NoError(t, err)
	})

	t.Run("unknown retention mode", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "local")
		t.Setenv("RETENTION_MODE", "weekly")
		_, err := Load()
		require.Error(t, err)
	})
}
