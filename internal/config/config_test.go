package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mukamba/internal/domain/lead"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := FromViper(newViper())

	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessTTL)
	assert.Zero(t, cfg.GestureTimeout)
	assert.Empty(t, cfg.StageLimits)
	assert.Empty(t, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.IsProduction())
}

func TestFromViper_Environment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://admin.mukamba.co.zw, ,https://app.mukamba.co.zw")
	t.Setenv("PIPELINE_STAGE_LIMITS", "viewing=50,qualified=20")
	t.Setenv("PIPELINE_GESTURE_TIMEOUT", "2m")
	t.Setenv("REDIS_DB", "3")

	cfg, err := FromViper(newViper())

	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, []string{"https://admin.mukamba.co.zw", "https://app.mukamba.co.zw"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, lead.StageLimits{lead.StatusViewing: 50, lead.StatusQualified: 20}, cfg.StageLimits)
	assert.Equal(t, 2*time.Minute, cfg.GestureTimeout)
	assert.Equal(t, 3, cfg.RedisDB)
}

func TestFromViper_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"bad ttl":             {"JWT_ACCESS_TTL": "soon"},
		"zero ttl":            {"JWT_ACCESS_TTL": "0s"},
		"bad stage":           {"PIPELINE_STAGE_LIMITS": "archived=1"},
		"negative timeout":    {"PIPELINE_GESTURE_TIMEOUT": "-1s"},
		"bad log format":      {"LOG_FORMAT": "xml"},
		"default prod secret": {"APP_ENV": "production"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := FromViper(newViper())
			assert.Error(t, err)
		})
	}
}

func TestFromViper_ProductionWithSecret(t *testing.T) {
	t.Setenv("APP_ENV", "release")
	t.Setenv("JWT_SECRET", "a-real-secret")

	cfg, err := FromViper(newViper())

	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}
