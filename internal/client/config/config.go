package config

import (
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/photovault/internal/filex"
)

// Config holds runtime settings for the photovault client.
//
// Fields:
//   - ServerURL: base URL of the photovault API.
//   - DataDir: index, keystore, thumbnail cache and logs live here.
//   - DownloadDir: originals pulled from other devices; DataDir/downloads when empty.
//   - SyncInterval: period of `sync --watch`.
//   - LogDir: rotated log file location; no file logging when empty.
//   - Materialize: download remote originals instead of indexing them remote-only.
//   - RequestTimeout: per-request HTTP timeout.
//   - ThumbnailCacheTTL: lifetime of in-memory thumbnail cache entries.
type Config struct {
	ServerURL         string
	DataDir           string
	DownloadDir       string
	SyncInterval      time.Duration
	LogDir            string
	Materialize       bool
	RequestTimeout    time.Duration
	ThumbnailCacheTTL time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.DataDir = "~/.photovault"
	c.DownloadDir = ""
	c.SyncInterval = 5 * time.Minute
	c.LogDir = ""
	c.Materialize = true
	c.RequestTimeout = 5 * time.Minute
	c.ThumbnailCacheTTL = 10 * time.Minute
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present). Command-line flags are bound later by the CLI.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	return cfg
}

// Resolve expands "~" in the directory settings and fills DownloadDir.
func (c *Config) Resolve() error {
	for _, p := range []*string{&c.DataDir, &c.DownloadDir, &c.LogDir} {
		if *p == "" {
			continue
		}
		v, err := filex.ExpandHome(*p)
		if err != nil {
			return err
		}
		*p = v
	}
	if c.DownloadDir == "" {
		c.DownloadDir = filepath.Join(c.DataDir, "downloads")
	}
	return nil
}
