package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, DefaultAddress, cfg.Server.Address)
	assert.Equal(t, DefaultRecordingsRoot, cfg.Recording.Root)
	assert.Equal(t, time.Hour, cfg.Recording.RetentionWindow)
	assert.Equal(t, 15*time.Minute, cfg.Recording.SweepInterval)
	assert.Equal(t, 10*time.Second, cfg.Scan.URLCheckTimeout)
	assert.Equal(t, 60*time.Second, cfg.Scan.PrepTimeout)
	assert.Equal(t, DefaultBucket, cfg.Storage.Bucket)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")
	data := `
server:
  address: ":9090"
recording:
  root: /tmp/replays
  retention_window: 2h
scan:
  prep_timeout: 90s
storage:
  bucket: custom-bucket
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "/tmp/replays", cfg.Recording.Root)
	assert.Equal(t, 2*time.Hour, cfg.Recording.RetentionWindow)
	assert.Equal(t, 90*time.Second, cfg.Scan.PrepTimeout)
	assert.Equal(t, "custom-bucket", cfg.Storage.Bucket)
	// Untouched sections keep defaults.
	assert.Equal(t, DefaultSweepInterval, cfg.Recording.SweepInterval)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultAddress, cfg.Server.Address)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("R2_ACCOUNT_ID", "acct")
	t.Setenv("R2_ACCESS_KEY", "access")
	t.Setenv("R2_SECRET_KEY", "secret")
	t.Setenv("R2_BUCKET_NAME", "env-bucket")
	t.Setenv("RECORDINGS_DIR", "/var/replays")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "acct", cfg.Storage.AccountID)
	assert.Equal(t, "env-bucket", cfg.Storage.Bucket)
	assert.Equal(t, "/var/replays", cfg.Recording.Root)
	assert.True(t, cfg.StorageConfigured())
}

func TestStorageConfiguredRequiresAllCredentials(t *testing.T) {
	cfg := DefaultConfig()
	assert.False(t, cfg.StorageConfigured())

	cfg.Storage.AccountID = "acct"
	cfg.Storage.AccessKey = "access"
	assert.False(t, cfg.StorageConfigured())

	cfg.Storage.SecretKey = "secret"
	assert.True(t, cfg.StorageConfigured())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Recording.RetentionWindow = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Storage.UploadMax = time.Second
	cfg.Storage.UploadBase = 2 * time.Second
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Storage.UploadAttempts = 0
	assert.Error(t, cfg.Validate())
}
