package quill

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	var cfg ClientConfig
	cfg.defaults()

	require.Equal(t, defaultBaseURL, cfg.BaseURL)
	require.NotNil(t, cfg.HTTPClient)
	require.NotNil(t, cfg.Store)
	require.Equal(t, 20, cfg.PerPage)
	require.Equal(t, 10*time.Second, cfg.RefreshLeeway)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quill.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
base_url: https://staging.quill.social
timeout: 5s
user_agent: quill-web/2.1
per_page: 50
refresh_leeway: 30s
`), 0600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "https://staging.quill.social", cfg.BaseURL)
	require.Equal(t, 5*time.Second, cfg.Timeout)
	require.Equal(t, "quill-web/2.1", cfg.UserAgent)
	require.Equal(t, 50, cfg.PerPage)
	require.Equal(t, 30*time.Second, cfg.RefreshLeeway)
}

func TestLoadConfigPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quill.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_url: http://localhost:8000\n"), 0600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8000", cfg.BaseURL)
	require.Zero(t, cfg.Timeout, "absent fields stay zero for defaults() to fill")
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("timeout: fast\n"), 0600))
	_, err = LoadConfig(bad)
	require.Error(t, err)
}
