package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		ConfigFileEnv, "API_ADDR", "DATABASE_URL", "SESSION_SECRET", "ADMIN_USER", "ADMIN_PASS",
		"ADMIN_PASS_BCRYPT", "APP_ENV", "CORS_ORIGIN", "REDIS_URL", "MEILI_URL", "MEILI_MASTER_KEY",
		"UPLOAD_DIR", "UPLOAD_PUBLIC_BASE", "S3_ENDPOINT", "S3_ACCESS_KEY", "S3_SECRET_KEY",
		"S3_BUCKET", "S3_USE_SSL", "S3_PUBLIC_BASE", "LOG_LEVEL", "LOG_FORMAT", "APP_TIMEZONE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "/uploads", cfg.UploadPublicBase)
	assert.False(t, cfg.Production())
	assert.False(t, cfg.S3.Enabled())
	assert.Error(t, cfg.Validate())
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "pagebuilder.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_addr: ":9000"
session_secret: from-file
admin_user: admin
admin_pass_bcrypt: "$2a$10$abcdefghijklmnopqrstuu"
app_env: production
s3:
  endpoint: minio:9000
  bucket: pages
  use_ssl: true
`), 0o644))
	t.Setenv(ConfigFileEnv, path)
	t.Setenv("API_ADDR", ":7000")
	t.Setenv("S3_USE_SSL", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Addr)
	assert.Equal(t, "from-file", cfg.SessionSecret)
	assert.True(t, cfg.Production())
	assert.True(t, cfg.S3.Enabled())
	assert.False(t, cfg.S3.UseSSL)
	assert.NoError(t, cfg.Validate())
}

func TestLoadRejectsBadFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_addr: [unterminated"), 0o644))
	t.Setenv(ConfigFileEnv, path)

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := defaults()
	cfg.SessionSecret = "secret"
	cfg.AdminUser = "admin"
	assert.Error(t, cfg.Validate())

	cfg.AdminPass = "pw"
	assert.NoError(t, cfg.Validate())

	cfg.LogFormat = "xml"
	assert.Error(t, cfg.Validate())

	cfg.LogFormat = ""
	cfg.TimeZone = "Mars/Olympus"
	assert.Error(t, cfg.Validate())
}

func TestLocation(t *testing.T) {
	loc, err := Config{}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	loc, err = Config{TimeZone: "Asia/Dubai"}.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Dubai", loc.String())

	_, err = Config{TimeZone: "Mars/Olympus"}.Location()
	assert.Error(t, err)
}
