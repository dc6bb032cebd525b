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
		"SERVER_HOST", "SERVER_PORT", "GIN_MODE", "LOG_LEVEL", "SESSION_TTL",
		"REPORT_ARCHIVE_BUCKET", "AWS_REGION", "REPORT_ORGANISATION", "UPLOAD_POLICY",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.GetServerAddr())
	assert.Equal(t, 30*time.Minute, cfg.Sessions.TTL.Std())
	assert.False(t, cfg.Archive.Enabled())
	assert.Equal(t, "reject_row", cfg.Upload.Policy)
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
		"server": {"port": 9090, "read_timeout": "5s"},
		"sessions": {"ttl": "10m"},
		"archive": {"bucket": "reports", "presign_expiry": 600}
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout.Std())
	assert.Equal(t, 10*time.Minute, cfg.Sessions.TTL.Std())
	assert.True(t, cfg.Archive.Enabled())
	assert.Equal(t, 10*time.Minute, cfg.Archive.PresignExpiry.Std())
	// untouched defaults survive
	assert.Equal(t, "ap-southeast-2", cfg.Archive.Region)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadConfigBadFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"sessions": {"ttl": "soon"}}`), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "7000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SESSION_TTL", "45m")
	t.Setenv("REPORT_ARCHIVE_BUCKET", "asrs-archive")
	t.Setenv("AWS_REGION", "us-east-1")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 45*time.Minute, cfg.Sessions.TTL.Std())
	assert.Equal(t, "asrs-archive", cfg.Archive.Bucket)
	assert.Equal(t, "us-east-1", cfg.Archive.Region)
}

func TestEnvOverrideInvalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "eighty")
	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Sessions.TTL = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Archive.Bucket = "reports"
	cfg.Archive.Region = ""
	assert.Error(t, cfg.Validate())
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"", "debug", "info", "warn", "error"} {
		logger, err := LoggingConfig{Level: level}.NewLogger()
		require.NoError(t, err, level)
		assert.NotNil(t, logger)
	}

	_, err := LoggingConfig{Level: "chatty"}.NewLogger()
	assert.Error(t, err)
}

func TestDurationFractionalSeconds(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"sessions": {"ttl": 1.5}, "archive": {"presign_expiry": 0.25}}`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, cfg.Sessions.TTL.Std())
	assert.Equal(t, 250*time.Millisecond, cfg.Archive.PresignExpiry.Std())
}
