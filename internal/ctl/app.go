// Package ctl implements eeyectl, an offline operator tool for credentials
// and access tokens. It talks to no server: tokens are issued and resolved
// locally with the configured signing key.
package ctl

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/dmitrijs2005/eeye/internal/logging"
	"github.com/dmitrijs2005/eeye/internal/server/auth"
	"github.com/dmitrijs2005/eeye/internal/server/config"
)

// Build information, set via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

const loggerKey = "logger"

// NewApp builds the eeyectl command tree.
func NewApp() *cli.App {
	return &cli.App{
		Name:    "eeyectl",
		Usage:   "hash passwords and issue or inspect eeye access tokens",
		Version: fmt.Sprintf("%s (commit: %s)", Version, Commit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "secret",
				Usage:   "token signing key",
				EnvVars: []string{"EEYE_SECRET_KEY"},
			},
			&cli.StringFlag{
				Name:    "issuer",
				Usage:   "token issuer",
				EnvVars: []string{"EEYE_TOKEN_ISSUER"},
				Value:   auth.DefaultIssuer,
			},
		},
		Commands: []*cli.Command{
			hashCommand(),
			verifyCommand(),
			issueCommand(),
			resolveCommand(),
		},
		Before: func(c *cli.Context) error {
			logger, err := logging.New(c.App.ErrWriter, logging.FormatText, "warn")
			if err != nil {
				return err
			}
			c.App.Metadata[loggerKey] = logger
			return nil
		},
	}
}

func loggerFrom(c *cli.Context) logging.Logger {
	if l, ok := c.App.Metadata[loggerKey].(logging.Logger); ok {
		return l
	}
	return logging.Nop{}
}

// codecFrom builds a codec from the global flags, falling back to the
// development key with a warning.
func codecFrom(c *cli.Context) (*auth.Codec, error) {
	secret := c.String("secret")
	if secret == "" || secret == config.InsecureSecretKey {
		loggerFrom(c).Warn(c.Context, "using the insecure development signing key; pass --secret or set EEYE_SECRET_KEY")
		secret = config.InsecureSecretKey
	}
	return auth.NewCodec([]byte(secret), auth.WithIssuer(c.String("issuer")))
}
