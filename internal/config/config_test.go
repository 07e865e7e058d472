package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ReadHeaderTimeout)
	assert.Equal(t, 15*time.Second, cfg.Source.HTTPTimeout)
	assert.Equal(t, 3, cfg.Source.Retries)
	assert.Equal(t, "marketing", cfg.Metrics.Namespace)
	assert.False(t, cfg.Source.HasRemoteSources())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SOURCE_FACEBOOK_URL", "http://ads/fb")
	t.Setenv("SOURCE_GOOGLE_URL", "http://ads/google")
	t.Setenv("SOURCE_TIKTOK_URL", "http://ads/tiktok")
	t.Setenv("SOURCE_BUSINESS_URL", "http://biz")
	t.Setenv("SOURCE_RETRY_BASE", "250ms")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.HTTP.Port)
	assert.Equal(t, slog.LevelDebug, cfg.Log.SlogLevel())
	assert.Equal(t, 250*time.Millisecond, cfg.Source.RetryBase)
	assert.True(t, cfg.Source.HasRemoteSources())
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("SOURCE_HTTP_TIMEOUT", "soon")
	_, err := Load()
	assert.Error(t, err)
}
