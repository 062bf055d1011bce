package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_YAMLWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
database:
  host: db
  user: spot
  password: secret
  dbname: spots
redis:
  addr: cache:6379
  ttl: 30s
jwt:
  secret: from-file
log:
  level: debug
  format: json
`)
	t.Setenv("SPOTBOOK_JWT_SECRET", "from-env")
	t.Setenv("SPOTBOOK_SERVER_PORT", "9100")
	t.Setenv("SPOTBOOK_JWT_EXPIRY", "1h")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, time.Hour, cfg.JWT.Expiry)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 30*time.Second, cfg.Redis.TTL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "postgres://spot:secret@db:5432/spots?sslmode=disable", cfg.Database.ConnString())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("SPOTBOOK_JWT_SECRET", "s")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 5, cfg.Database.ConnectAttempts)
	assert.Equal(t, 15*time.Minute, cfg.AWS.PresignExpiry)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoad_Validation(t *testing.T) {
	t.Run("missing secret", func(t *testing.T) {
		_, err := Load(writeConfig(t, "server:\n  port: 8080\n"))
		assert.ErrorContains(t, err, "jwt.secret")
	})

	t.Run("bad port override", func(t *testing.T) {
		t.Setenv("SPOTBOOK_JWT_SECRET", "s")
		t.Setenv("SPOTBOOK_SERVER_PORT", "http")
		_, err := Load("")
		assert.ErrorContains(t, err, "SPOTBOOK_SERVER_PORT")
	})

	t.Run("unknown log format", func(t *testing.T) {
		t.Setenv("SPOTBOOK_JWT_SECRET", "s")
		t.Setenv("SPOTBOOK_LOG_FORMAT", "xml")
		_, err := Load("")
		assert.ErrorContains(t, err, "log.format")
	})
}

func TestDatabaseURLWins(t *testing.T) {
	c := DatabaseConfig{URL: "postgres://x/y", Host: "ignored"}
	assert.Equal(t, "postgres://x/y", c.ConnString())
}
