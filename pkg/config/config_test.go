package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUDITAI_API_URL", "")
	t.Setenv("AUDITAI_PROGRESS_DELAY_MS", "")
	t.Setenv("AUDITAI_SESSION_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, 700*time.Millisecond, cfg.ProgressDelay)
	assert.Contains(t, cfg.SessionFile, "session.json")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AUDITAI_API_URL", "https://audit.example.com/")
	t.Setenv("AUDITAI_PROGRESS_DELAY_MS", "0")
	t.Setenv("AUDITAI_SESSION_FILE", "/tmp/s.json")
	t.Setenv("AUDITAI_ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://audit.example.com", cfg.APIURL)
	assert.Equal(t, time.Duration(0), cfg.ProgressDelay)
	assert.Equal(t, "/tmp/s.json", cfg.SessionFile)
	assert.Equal(t, "development", cfg.Environment)
}

func TestLoadIgnoresBadDelay(t *testing.T) {
	t.Setenv("AUDITAI_PROGRESS_DELAY_MS", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 700*time.Millisecond, cfg.ProgressDelay)
}
