package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_OverlaysOnlyGivenKeys(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, map[string]any{
		"server_url":    "https://vault.example.com",
		"sync_interval": "30s",
		"materialize":   false,
	})
	os.Args = []string{"photovault", "--config", path, "sync"}

	var cfg Config
	cfg.LoadDefaults()
	want := cfg
	want.ServerURL = "https://vault.example.com"
	want.SyncInterval = 30 * time.Second
	want.Materialize = false

	parseJson(&cfg)
	assert.Empty(t, cmp.Diff(want, cfg))
}

func Test_parseJson_NumericDuration(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, map[string]any{"request_timeout": float64(2 * time.Second)})
	os.Args = []string{"photovault", "-c", path}

	var cfg Config
	cfg.LoadDefaults()
	parseJson(&cfg)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
}

func Test_parseJson_Errors(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	os.Args = []string{"photovault", "-c", filepath.Join(t.TempDir(), "missing.json")}
	assert.Panics(t, func() { parseJson(&Config{}) })

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
	os.Args = []string{"photovault", "-c", bad}
	assert.Panics(t, func() { parseJson(&Config{}) })
}
