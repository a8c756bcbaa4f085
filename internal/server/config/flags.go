package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/eeye/internal/flagx"
)

var knownFlags = []string{"-a", "-m", "-d", "-s", "-i", "-t", "-f", "-l", "-b", "-k", "-g", "-e"}

// parseFlags overlays command-line flags on config.
//
//	-a string   gRPC bind address (":50051")
//	-m string   metrics bind address, empty disables /metrics
//	-d string   PostgreSQL DSN
//	-s string   token signing key
//	-i string   token issuer
//	-t int      access token lifetime, minutes
//	-f string   log format: json, text or zap
//	-l string   log level
//	-b string   S3 bucket holding the signing key
//	-k string   S3 object key of the signing key
//	-g string   S3 region
//	-e string   S3 base endpoint
//
// Unknown arguments are filtered out first with flagx.FilterArgs. Parse
// errors panic.
func parseFlags(config *Config, args []string) {
	fs := flag.NewFlagSet("eeye", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "gRPC address")
	fs.StringVar(&config.MetricsAddr, "m", config.MetricsAddr, "metrics address")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "token signing key")
	fs.StringVar(&config.TokenIssuer, "i", config.TokenIssuer, "token issuer")
	lifetime := fs.Int("t", int(config.AccessTokenLifetime.Minutes()), "access token lifetime (in minutes)")
	fs.StringVar(&config.LogFormat, "f", config.LogFormat, "log format")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3SecretObjectKey, "k", config.S3SecretObjectKey, "S3 object key")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.AccessTokenLifetime = time.Duration(*lifetime) * time.Minute
		}
	})
}
