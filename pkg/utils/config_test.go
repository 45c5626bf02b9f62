package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		EnvDBPath, EnvHTTPAddr, EnvSyncAddr, EnvJWTSecret, EnvJWTIssuer, EnvJWTTTLHours,
		EnvEditorUser, EnvEditorPasswordHash, EnvLogLevel, EnvLogFormat, EnvLogSource, EnvLogFile,
	} {
		t.Setenv(k, "")
	}
	t.Setenv(EnvConfigFile, filepath.Join(t.TempDir(), "missing.yaml"))
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	assert.Equal(t, ":7070", cfg.Server.SyncAddr)
	assert.Equal(t, DevJWTSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.Auth.JWTDuration())
	assert.Empty(t, cfg.Auth.EditorPasswordHash)
	assert.True(t, strings.HasSuffix(cfg.Database.Path, filepath.Join(".bookcatalog", "library.db")), cfg.Database.Path)
	assert.Equal(t, "info", cfg.Log().Level)
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  http_addr: ":9000"
database:
  path: /srv/books.db
auth:
  jwt_ttl_hours: 2
  editor_user: librarian
logging:
  level: debug
  format: json
`), 0o644))
	t.Setenv(EnvConfigFile, path)
	t.Setenv(EnvHTTPAddr, ":9100")
	t.Setenv(EnvLogSource, "true")
	t.Setenv(EnvJWTTTLHours, "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.Server.HTTPAddr)
	assert.Equal(t, ":7070", cfg.Server.SyncAddr)
	assert.Equal(t, "/srv/books.db", cfg.DB().Path)
	assert.Equal(t, 2*time.Hour, cfg.Auth.JWTDuration())
	assert.Equal(t, "librarian", cfg.Auth.EditorUser)

	opts := cfg.Log()
	assert.Equal(t, "debug", opts.Level)
	assert.Equal(t, "json", opts.Format)
	assert.True(t, opts.AddSource)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))
	t.Setenv(EnvConfigFile, path)

	_, err := Load()
	assert.ErrorContains(t, err, "parse")
}
