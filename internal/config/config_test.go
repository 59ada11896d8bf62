package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.ServerAddress())
	assert.Equal(t, DefaultEndpoint, cfg.AnalysisEndpoint)
	assert.Equal(t, 120*time.Second, cfg.AnalysisTimeout)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxUploadSize)
	assert.Equal(t, "assets", cfg.AssetsDir)
	assert.False(t, cfg.EmptyResultNotice)
	assert.Greater(t, cfg.RequestTimeout, cfg.AnalysisTimeout)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ANALYSIS_ENDPOINT", "http://localhost:5678/webhook/test")
	t.Setenv("ANALYSIS_TIMEOUT", "5s")
	t.Setenv("MAX_UPLOAD_SIZE", "2048")
	t.Setenv("EMPTY_RESULT_NOTICE", "true")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "http://localhost:5678/webhook/test", cfg.AnalysisEndpoint)
	assert.Equal(t, 5*time.Second, cfg.AnalysisTimeout)
	assert.Equal(t, int64(2048), cfg.MaxUploadSize)
	assert.True(t, cfg.EmptyResultNotice)
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port not numeric", "PORT", "http"},
		{"port out of range", "PORT", "70000"},
		{"endpoint without scheme", "ANALYSIS_ENDPOINT", "yandri0205.app.n8n.cloud/webhook"},
		{"endpoint ftp", "ANALYSIS_ENDPOINT", "ftp://example.com/hook"},
		{"negative upload size", "MAX_UPLOAD_SIZE", "-1"},
		{"zero timeout", "ANALYSIS_TIMEOUT", "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := LoadFromEnv()
			assert.Error(t, err)
		})
	}
}

func TestMaxRequestBodySize(t *testing.T) {
	cfg := &Config{MaxUploadSize: 100}
	assert.Greater(t, cfg.MaxRequestBodySize(), cfg.MaxUploadSize)
}
