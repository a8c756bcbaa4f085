package config

import (
	"reflect"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const envPrefix = "EEYE_"

// dotEnvFiles are loaded into the process environment when environ is nil.
// Variables that are already set win.
var dotEnvFiles = []string{".env"}

// parseEnv overlays EEYE_* variables on config. Unset variables leave the
// current value alone. A nil environ means the process environment, after
// loading any .env file.
func parseEnv(config *Config, environ map[string]string) {
	if environ == nil {
		// a missing .env file is not an error
		_ = godotenv.Load(dotEnvFiles...)
	}

	opts := env.Options{
		Prefix:      envPrefix,
		Environment: environ,
		FuncMap: map[reflect.Type]env.ParserFunc{
			reflect.TypeOf(time.Duration(0)): parseLifetime,
		},
	}
	if err := env.ParseWithOptions(config, opts); err != nil {
		panic(err)
	}
}

// parseLifetime accepts a Go duration ("90m", "2h") or a bare number of
// minutes, the unit of the -t flag.
func parseLifetime(v string) (any, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Minute, nil
	}
	return time.ParseDuration(v)
}
