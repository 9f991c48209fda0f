package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_HOST", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("NATIVE_DOWNLOAD_TIMEOUT", "")
	t.Setenv("PORTAL_BASE_DATE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.Database.Enabled())
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, 5*time.Second, cfg.Acquire.NativeDownloadTimeout)
	assert.True(t, cfg.Portal.BaseDate.IsZero())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "fetcher")
	t.Setenv("DB_PASS", "secret")
	t.Setenv("DB_NAME", "docs")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("PW_HEADLESS", "yes")
	t.Setenv("NATIVE_DOWNLOAD_TIMEOUT", "3")
	t.Setenv("VIEWER_DOWNLOAD_TIMEOUT", "45s")
	t.Setenv("VIEWER_SELECTORS", "#download; button[title='a, b'] ;")
	t.Setenv("PORTAL_BASE_DATE", "2025-09-01")
	t.Setenv("PORTAL_DAY_OFFSET", "-2")
	t.Setenv("PORTAL_FILTERS", "class=5; subject=math;broken")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Database.Enabled())
	assert.Equal(t, "postgres://fetcher:secret@db:6543/docs?sslmode=disable", cfg.Database.DSN())
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 3*time.Second, cfg.Acquire.NativeDownloadTimeout)
	assert.Equal(t, 45*time.Second, cfg.Acquire.ViewerDownloadTimeout)
	assert.Equal(t, []string{"#download", "button[title='a, b']"}, cfg.Acquire.ViewerSelectors)
	assert.Equal(t, -2, cfg.Portal.DayOffset)
	assert.Equal(t, map[string]string{"class": "5", "subject": "math"}, cfg.Portal.Filters)
	assert.Equal(t, "2025-09-01", cfg.Portal.BaseDate.Format("2006-01-02"))

	ac := cfg.AcquireConfig()
	assert.Equal(t, cfg.Acquire.ViewerSelectors, ac.ViewerSelectors)
	assert.Equal(t, "application/pdf", ac.Artifact.MIME)
}

func TestLoadBadBaseDate(t *testing.T) {
	t.Setenv("PORTAL_BASE_DATE", "01.09.2025")

	_, err := Load()
	assert.Error(t, err)
}
