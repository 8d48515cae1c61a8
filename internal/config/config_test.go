package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func baseEnv() map[string]string {
	return map[string]string{"JWT_SECRET": "0123456789abcdef0123"}
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(lookupFrom(baseEnv()))
	require.NoError(t, err)

	assert.Equal(t, 3001, cfg.Port)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "data/bookmarks.db", cfg.Storage.File)
	assert.Equal(t, 3306, cfg.Storage.Port)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.True(t, cfg.RegistrationEnabled)
	assert.Empty(t, cfg.Redis.Addr)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Empty(t, cfg.AMQPURL)
	assert.Equal(t, "bookmarks.events", cfg.EventsQueue)
	assert.False(t, cfg.GitHub.Enabled())
	assert.Equal(t, "http://localhost:3001/auth/github/callback", cfg.GitHub.CallbackURL)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestFromEnv_Overrides(t *testing.T) {
	env := baseEnv()
	env["PORT"] = "8080"
	env["LOG_LEVEL"] = "debug"
	env["LOG_FORMAT"] = "JSON"
	env["DB_CLIENT"] = "mysql2"
	env["DB_HOST"] = "db"
	env["DB_NAME"] = "marks"
	env["JWT_EXPIRES"] = "12h"
	env["BCRYPT_COST"] = "4"
	env["REDIS_ADDR"] = "redis:6379"
	env["RATE_LIMIT_ENABLED"] = "off"
	env["CACHE_TTL"] = "30s"
	env["GITHUB_CLIENT_ID"] = "id"
	env["GITHUB_CLIENT_SECRET"] = "secret"
	env["CORS_ORIGINS"] = "https://a.example, https://b.example,"

	cfg, err := FromEnv(lookupFrom(env))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, BackendMySQL, cfg.Storage.Backend)
	assert.Equal(t, "db", cfg.Storage.Host)
	assert.Equal(t, "marks", cfg.Storage.Name)
	assert.Equal(t, 12*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 4, cfg.BcryptCost)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.True(t, cfg.GitHub.Enabled())
	assert.Equal(t, "http://localhost:8080/auth/github/callback", cfg.GitHub.CallbackURL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestFromEnv_BackendAliases(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"sqlite", BackendSQLite},
		{"sqlite3", BackendSQLite},
		{"SQLite3", BackendSQLite},
		{"mysql", BackendMySQL},
		{"mysql2", BackendMySQL},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			env := baseEnv()
			env["DB_CLIENT"] = tt.in
			cfg, err := FromEnv(lookupFrom(env))
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Storage.Backend)
		})
	}
}

func TestFromEnv_Errors(t *testing.T) {
	tests := []struct {
		name string
		set  map[string]string
		want string
	}{
		{"missing secret", map[string]string{"JWT_SECRET": ""}, "JWT_SECRET is required"},
		{"short secret", map[string]string{"JWT_SECRET": "short"}, "at least 16"},
		{"bad port", map[string]string{"PORT": "http"}, "invalid int for PORT"},
		{"port out of range", map[string]string{"PORT": "70000"}, "out of range"},
		{"bad backend", map[string]string{"DB_CLIENT": "postgres"}, "unsupported DB_CLIENT"},
		{"bad duration", map[string]string{"JWT_EXPIRES": "soon"}, "invalid duration for JWT_EXPIRES"},
		{"bad bool", map[string]string{"RATE_LIMIT_ENABLED": "maybe"}, "invalid bool"},
		{"bad cost", map[string]string{"BCRYPT_COST": "40"}, "BCRYPT_COST"},
		{"bad format", map[string]string{"LOG_FORMAT": "xml"}, "LOG_FORMAT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := baseEnv()
			for k, v := range tt.set {
				env[k] = v
			}
			_, err := FromEnv(lookupFrom(env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFromEnv_CollectsAllErrors(t *testing.T) {
	_, err := FromEnv(lookupFrom(map[string]string{"PORT": "x", "DB_CLIENT": "oracle"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
	assert.Contains(t, err.Error(), "DB_CLIENT")
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestRegistrationEnabled(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", true},
		{"1", true},
		{"true", true},
		{"yes", true},
		{"anything", true},
		{"0", false},
		{"false", false},
		{"FALSE", false},
		{"False", false},
		{"no", false},
		{"No", false},
		{" no ", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, RegistrationEnabled(tt.in))
		})
	}
}

func TestFromEnv_RegistrationToggle(t *testing.T) {
	env := baseEnv()
	env["REGISTRATION_ENABLED"] = "No"
	cfg, err := FromEnv(lookupFrom(env))
	require.NoError(t, err)
	assert.False(t, cfg.RegistrationEnabled)
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"7d", 7 * 24 * time.Hour, false},
		{"1d", 24 * time.Hour, false},
		{"90m", 90 * time.Minute, false},
		{"1h30m", 90 * time.Minute, false},
		{"xd", 0, true},
		{"never", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
