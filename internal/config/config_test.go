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
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "env: test\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, "localhost:3000", cfg.HTTPServer.Address)
	assert.Equal(t, "fs", cfg.Blob.Driver)
	assert.Equal(t, "json", cfg.Catalog.Driver)
	assert.Equal(t, 30*time.Second, cfg.Catalog.CacheTTL)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, 16, cfg.Notify.MaxConcurrentSends)
	assert.Empty(t, cfg.SMTP.Host)
	assert.False(t, cfg.Push.Enabled)
	assert.Equal(t, []string{"*"}, cfg.HTTPServer.AllowedOrigins)
	assert.Equal(t, 24*time.Hour, cfg.Sweeper.Grace)
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
catalog:
  driver: sqlite
  path: /tmp/catalog.db
smtp:
  host: smtp.example.com
  from: league@example.com
push:
  enabled: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Catalog.Driver)
	assert.Equal(t, "/tmp/catalog.db", cfg.Catalog.Path)
	assert.Equal(t, "smtp.example.com", cfg.SMTP.Host)
	assert.True(t, cfg.Push.Enabled)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, "blob:\n  dir: from-file\n")
	t.Setenv("BLOB_DIR", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Blob.Dir)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestPQSQL_DSN(t *testing.T) {
	p := PQSQL{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "league", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=league sslmode=disable", p.DSN())
}
