package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/photovault/internal/flagx"
	"github.com/dmitrijs2005/photovault/internal/timex"
)

// JsonConfig is the on-disk form of Config. Durations use timex.Duration so
// both "720h" and integer nanoseconds are accepted.
type JsonConfig struct {
	EndpointAddr                string         `json:"endpoint_addr"`
	RepositoryBackend           string         `json:"repository_backend"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	S3RootUser                  string         `json:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3Region                    string         `json:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
	BlobBackend                 string         `json:"blob_backend"`
	BlobDir                     string         `json:"blob_dir"`
	MaxUploadMB                 int            `json:"max_upload_mb"`
}

// parseJson loads the file named by -c/-config/--config into config.
// Keys missing from the file keep their current values. A file that cannot
// be read or parsed panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{
		EndpointAddr:                config.EndpointAddr,
		RepositoryBackend:           config.RepositoryBackend,
		DatabaseDSN:                 config.DatabaseDSN,
		SecretKey:                   config.SecretKey,
		AccessTokenValidityDuration: timex.Duration{Duration: config.AccessTokenValidityDuration},
		S3RootUser:                  config.S3RootUser,
		S3RootPassword:              config.S3RootPassword,
		S3Bucket:                    config.S3Bucket,
		S3Region:                    config.S3Region,
		S3BaseEndpoint:              config.S3BaseEndpoint,
		BlobBackend:                 config.BlobBackend,
		BlobDir:                     config.BlobDir,
		MaxUploadMB:                 config.MaxUploadMB,
	}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.EndpointAddr = c.EndpointAddr
	config.RepositoryBackend = c.RepositoryBackend
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
	config.BlobBackend = c.BlobBackend
	config.BlobDir = c.BlobDir
	config.MaxUploadMB = c.MaxUploadMB
}
