package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://fieldbook@localhost/fieldbook?sslmode=disable")
	t.Setenv("JWT_SECRET_KEY", "secret")
	for _, name := range []string{
		"SERVER_PORT", "CORS_ALLOWED_ORIGINS", "FIELD_OPEN_HOUR", "FIELD_CLOSE_HOUR", "STATUS_SCHEDULER_INTERVAL",
		"R2_ACCOUNT_ID", "R2_ACCESS_KEY_ID", "R2_SECRET_ACCESS_KEY", "R2_BUCKET_NAME", "R2_PUBLIC_BASE_URL",
	} {
		t.Setenv(name, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 8, cfg.FieldOpenHour)
	assert.Equal(t, 22, cfg.FieldCloseHour)
	assert.Equal(t, time.Minute, cfg.StatusSchedulerInterval)
	assert.False(t, cfg.R2Enabled())
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("FIELD_OPEN_HOUR", "6")
	t.Setenv("FIELD_CLOSE_HOUR", "24")
	t.Setenv("STATUS_SCHEDULER_INTERVAL", "0")
	t.Setenv("R2_ACCOUNT_ID", "acc")
	t.Setenv("R2_ACCESS_KEY_ID", "key")
	t.Setenv("R2_SECRET_ACCESS_KEY", "secret")
	t.Setenv("R2_BUCKET_NAME", "banners")
	t.Setenv("R2_PUBLIC_BASE_URL", "https://pub.example.com")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 6, cfg.FieldOpenHour)
	assert.Equal(t, 24, cfg.FieldCloseHour)
	assert.Zero(t, cfg.StatusSchedulerInterval)
	assert.True(t, cfg.R2Enabled())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing database url", env: map[string]string{"DATABASE_URL": ""}},
		{name: "missing jwt secret", env: map[string]string{"JWT_SECRET_KEY": ""}},
		{name: "bad port", env: map[string]string{"SERVER_PORT": "http"}},
		{name: "port out of range", env: map[string]string{"SERVER_PORT": "70000"}},
		{name: "inverted window", env: map[string]string{"FIELD_OPEN_HOUR": "22", "FIELD_CLOSE_HOUR": "8"}},
		{name: "bad interval", env: map[string]string{"STATUS_SCHEDULER_INTERVAL": "soon"}},
		{name: "negative interval", env: map[string]string{"STATUS_SCHEDULER_INTERVAL": "-1m"}},
		{name: "partial r2", env: map[string]string{"R2_ACCOUNT_ID": "acc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()

			assert.Error(t, err)
		})
	}
}
