package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/photovault/internal/flagx"
	"github.com/dmitrijs2005/photovault/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations use
// timex.Duration, so they may be strings like "5m" or integer nanoseconds.
type JsonConfig struct {
	ServerURL         string         `json:"server_url"`
	DataDir           string         `json:"data_dir"`
	DownloadDir       string         `json:"download_dir"`
	SyncInterval      timex.Duration `json:"sync_interval"`
	LogDir            string         `json:"log_dir"`
	Materialize       bool           `json:"materialize"`
	RequestTimeout    timex.Duration `json:"request_timeout"`
	ThumbnailCacheTTL timex.Duration `json:"thumbnail_cache_ttl"`
}

// parseJson overlays cfg with the JSON file given by -c/-config/--config.
// Keys missing from the file keep their current values. Read or decode
// errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	jc := JsonConfig{
		ServerURL:         cfg.ServerURL,
		DataDir:           cfg.DataDir,
		DownloadDir:       cfg.DownloadDir,
		SyncInterval:      timex.Duration{Duration: cfg.SyncInterval},
		LogDir:            cfg.LogDir,
		Materialize:       cfg.Materialize,
		RequestTimeout:    timex.Duration{Duration: cfg.RequestTimeout},
		ThumbnailCacheTTL: timex.Duration{Duration: cfg.ThumbnailCacheTTL},
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	cfg.ServerURL = jc.ServerURL
	cfg.DataDir = jc.DataDir
	cfg.DownloadDir = jc.DownloadDir
	cfg.SyncInterval = jc.SyncInterval.Duration
	cfg.LogDir = jc.LogDir
	cfg.Materialize = jc.Materialize
	cfg.RequestTimeout = jc.RequestTimeout.Duration
	cfg.ThumbnailCacheTTL = jc.ThumbnailCacheTTL.Duration
}
