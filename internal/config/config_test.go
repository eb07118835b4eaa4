package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, BackendMemory, cfg.StorageBackend)
	assert.Equal(t, 5<<20, cfg.StorageQuotaBytes)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "cart-updated", cfg.KafkaTopic)
	assert.Equal(t, "akkaui_cart_v1", cfg.CartStorageKey)
	assert.Equal(t, "akka_cart", cfg.LegacyCartKey)
	assert.Equal(t, 3*time.Second, cfg.ToastTimeout)
	assert.Equal(t, 300*time.Millisecond, cfg.ToastExitGrace)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.Development())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("STORAGE_BACKEND", "Redis")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("TOAST_TIMEOUT", "5s")
	t.Setenv("STORAGE_QUOTA_BYTES", "1024")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, BackendRedis, cfg.StorageBackend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 5*time.Second, cfg.ToastTimeout)
	assert.Equal(t, 1024, cfg.StorageQuotaBytes)
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"TOAST_TIMEOUT":       "soon",
		"STORAGE_QUOTA_BYTES": "lots",
		"STORAGE_BACKEND":     "sqlite",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv("ENV", "production")
			t.Setenv(key, value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_DotEnvOutsideProduction(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("HTTP_PORT=7070\n"), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("ENV", "")
	// godotenv.Load never overrides a variable that is set, even to ""
	t.Setenv("HTTP_PORT", "")
	require.NoError(t, os.Unsetenv("HTTP_PORT"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.HTTPPort)
	assert.True(t, cfg.Development())
}
