package config

import "github.com/spf13/cobra"

// BindFlags registers the persistent client flags of cmd on top of the
// values already in c, so flags override JSON and defaults.
func (c *Config) BindFlags(cmd *cobra.Command) {
	fs := cmd.PersistentFlags()

	// Consumed earlier by parseJson; registered so cobra accepts it.
	fs.StringP("config", "c", "", "path to JSON config file")

	fs.StringVar(&c.ServerURL, "server", c.ServerURL, "photovault API base URL")
	fs.StringVar(&c.DataDir, "data-dir", c.DataDir, "client data directory")
	fs.StringVar(&c.DownloadDir, "download-dir", c.DownloadDir, "directory for files pulled from other devices")
	fs.DurationVar(&c.SyncInterval, "interval", c.SyncInterval, "sync interval for --watch")
	fs.StringVar(&c.LogDir, "log-dir", c.LogDir, "directory for the rotated log file")
	fs.BoolVar(&c.Materialize, "materialize", c.Materialize, "download originals of remote files")
}
