package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := parse(env.Options{Environment: map[string]string{}})

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "http://localhost:8080", cfg.PublicBaseURL)
	assert.Equal(t, 7*24*time.Hour, cfg.Session.Expiration)
	assert.Empty(t, cfg.Session.Secret)
	assert.Empty(t, cfg.CORSAllowedOrigins)
	assert.Equal(t, "5432", cfg.DB.Port)
	assert.Equal(t, "disable", cfg.DB.SSLMode)
	assert.False(t, cfg.DB.RunMigrations)
	assert.Equal(t, "6379", cfg.Redis.Port)
	assert.Empty(t, cfg.Redis.Host)
	assert.Equal(t, "us-east-1", cfg.Storage.Region)
	assert.Empty(t, cfg.Storage.Bucket)
}

func TestParse_FromEnvironment(t *testing.T) {
	t.Parallel()

	environ := map[string]string{
		"PORT":                  "3001",
		"PUBLIC_BASE_URL":       "https://api.example.com/",
		"CORS_ALLOWED_ORIGINS":  "https://app.example.com,http://localhost:5173",
		"JWT_SECRET":            "s3cret",
		"JWT_EXPIRATION":        "24h",
		"DB_HOST":               "db",
		"DB_USER":               "voces",
		"DB_PASSWORD":           "pw",
		"DB_NAME":               "voces",
		"RUN_MIGRATIONS":        "true",
		"REDIS_HOST":            "cache",
		"AWS_REGION":            "eu-west-1",
		"AWS_ACCESS_KEY_ID":     "AKIA",
		"AWS_SECRET_ACCESS_KEY": "secret",
		"AWS_S3_BUCKET_NAME":    "recordings",
		"AWS_S3_ENDPOINT":       "http://minio:9000",
		"EMAIL_USER":            "sender@example.com",
		"EMAIL_FROM":            "Voces <sender@example.com>",
		"GMAIL_CLIENT_ID":       "client",
		"GMAIL_CLIENT_SECRET":   "client-secret",
		"GMAIL_REFRESH_TOKEN":   "refresh",
	}

	cfg, err := parse(env.Options{Environment: environ})

	require.NoError(t, err)
	assert.Equal(t, ":3001", cfg.Addr())
	assert.Equal(t, "https://api.example.com", cfg.PublicBaseURL, "trailing slash is trimmed")
	assert.Equal(t, []string{"https://app.example.com", "http://localhost:5173"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "s3cret", cfg.Session.Secret)
	assert.Equal(t, 24*time.Hour, cfg.Session.Expiration)
	assert.Equal(t, "db", cfg.DB.Host)
	assert.True(t, cfg.DB.RunMigrations)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr())
	assert.Equal(t, "eu-west-1", cfg.Storage.Region)
	assert.Equal(t, "recordings", cfg.Storage.Bucket)
	assert.Equal(t, "http://minio:9000", cfg.Storage.Endpoint)
	assert.Empty(t, cfg.Mail.Missing())
	assert.Equal(t, "Voces <sender@example.com>", cfg.Mail.From)
}

func TestParse_InvalidDuration(t *testing.T) {
	t.Parallel()

	_, err := parse(env.Options{Environment: map[string]string{"JWT_EXPIRATION": "a week"}})

	assert.Error(t, err)
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=9999\nJWT_SECRET=from-file\n"), 0o600))

	t.Setenv("PORT", "4000")
	// t.Setenv で登録しておくと、Loadが設定した値もテスト終了時に元に戻る
	t.Setenv("JWT_SECRET", "")
	require.NoError(t, os.Unsetenv("JWT_SECRET"))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "4000", cfg.Port, "process environment wins over .env")
	assert.Equal(t, "from-file", cfg.Session.Secret)
}

func TestLoad_MissingDotEnvIsIgnored(t *testing.T) {
	t.Setenv("PORT", "5000")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))

	require.NoError(t, err)
	assert.Equal(t, "5000", cfg.Port)
}
