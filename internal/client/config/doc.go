// Package config loads runtime configuration for the photovault client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c, -config or --config.
//  3. Cobra persistent flags bound by (*Config).BindFlags.
//
// # JSON schema
//
//	{
//	  "server_url": "https://vault.example.com",
//	  "data_dir": "~/.photovault",
//	  "sync_interval": "5m",
//	  "materialize": true
//	}
package config
