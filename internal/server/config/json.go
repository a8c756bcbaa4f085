package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/eeye/internal/flagx"
	"github.com/dmitrijs2005/eeye/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Lifetimes use
// timex.Duration so both "120m" and integer nanoseconds are accepted.
type JsonConfig struct {
	EndpointAddrGRPC    string         `json:"endpoint_addr_grpc"`
	MetricsAddr         string         `json:"metrics_addr"`
	DatabaseDSN         string         `json:"database_dsn"`
	SecretKey           string         `json:"secret_key"`
	TokenIssuer         string         `json:"token_issuer"`
	AccessTokenLifetime timex.Duration `json:"access_token_lifetime"`
	LogFormat           string         `json:"log_format"`
	LogLevel            string         `json:"log_level"`
	S3Bucket            string         `json:"s3_bucket"`
	S3SecretObjectKey   string         `json:"s3_secret_object_key"`
	S3Region            string         `json:"s3_region"`
	S3BaseEndpoint      string         `json:"s3_base_endpoint"`
	S3AccessKey         string         `json:"s3_access_key"`
	S3SecretAccessKey   string         `json:"s3_secret_access_key"`
}

// parseJson overlays values from the file given with -c or -config. Fields
// missing from the file keep their current value. An unreadable file or
// invalid JSON panics.
func parseJson(config *Config, args []string) {
	path := flagx.ConfigFile(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(data, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.MetricsAddr, c.MetricsAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.TokenIssuer, c.TokenIssuer)
	if c.AccessTokenLifetime.Duration != 0 {
		config.AccessTokenLifetime = c.AccessTokenLifetime.Duration
	}
	setString(&config.LogFormat, c.LogFormat)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3SecretObjectKey, c.S3SecretObjectKey)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretAccessKey, c.S3SecretAccessKey)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
