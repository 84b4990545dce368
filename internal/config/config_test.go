package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWith_Defaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "/login", cfg.Auth.LoginPath)
	assert.Equal(t, []string{"/dashboard3", "/account"}, cfg.Auth.ProtectedPrefixes)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 30*time.Minute, cfg.Auth.SessionIdleTimeout)
	assert.Equal(t, "dentaheal", cfg.Mongo.Database)
	assert.Equal(t, 256, cfg.Audit.BufferSize)
	assert.False(t, cfg.Audit.UseQueue)
}

func TestLoadWith_Overrides(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"API_PORT":           "9000",
		"PROTECTED_PREFIXES": "/dashboard3,/account,/reports",
		"AUDIT_USE_QUEUE":    "true",
		"SESSION_MAX_AGE":    "1h",
	}))
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, []string{"/dashboard3", "/account", "/reports"}, cfg.Auth.ProtectedPrefixes)
	assert.True(t, cfg.Audit.UseQueue)
	assert.Equal(t, time.Hour, cfg.Auth.SessionMaxAge)
}

func TestLoadWith_ReleaseRequiresSecrets(t *testing.T) {
	_, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"GIN_MODE": "release",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")

	_, err = LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"GIN_MODE":   "release",
		"JWT_SECRET": "s3cret",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_SECRET")
}

func TestLoadWith_RejectsRelativePrefix(t *testing.T) {
	_, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"PROTECTED_PREFIXES": "dashboard3",
	}))
	require.Error(t, err)
}
