package ctl

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/urfave/cli/v2"

	"github.com/dmitrijs2005/eeye/internal/cryptox"
	"github.com/dmitrijs2005/eeye/internal/server/auth"
)

func hashCommand() *cli.Command {
	return &cli.Command{
		Name:  "hash",
		Usage: "read a password and print its argon2id credential",
		Flags: []cli.Flag{
			&cli.UintFlag{Name: "memory", Usage: "memory in KiB", Value: uint(cryptox.DefaultParams.Memory)},
			&cli.UintFlag{Name: "iterations", Usage: "time cost", Value: uint(cryptox.DefaultParams.Iterations)},
			&cli.UintFlag{Name: "parallelism", Usage: "threads", Value: uint(cryptox.DefaultParams.Threads)},
		},
		Action: func(c *cli.Context) error {
			password, err := readPasswordInput(c)
			if err != nil {
				return err
			}
			if password == "" {
				return cli.Exit("empty password", 1)
			}

			if c.Uint("parallelism") > math.MaxUint8 {
				return cli.Exit("parallelism must be at most 255", 2)
			}

			h := cryptox.NewHasher(cryptox.Params{
				Memory:     uint32(c.Uint("memory")),
				Iterations: uint32(c.Uint("iterations")),
				Threads:    uint8(c.Uint("parallelism")),
			})
			credential, err := h.Hash(password)
			if err != nil {
				return err
			}

			fmt.Fprintln(c.App.Writer, credential)
			return nil
		},
	}
}

func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "check a password read from stdin against a credential",
		ArgsUsage: "<credential>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("expected exactly one credential", 2)
			}
			credential := c.Args().First()

			password, err := readPasswordInput(c)
			if err != nil {
				return err
			}

			h := cryptox.NewHasher(cryptox.DefaultParams)
			if !h.Verify(credential, password) {
				return cli.Exit("password does not match", 1)
			}

			fmt.Fprintln(c.App.Writer, "ok")
			if h.NeedsRehash(credential) {
				fmt.Fprintln(c.App.Writer, "credential uses weaker parameters than the current defaults")
			}
			return nil
		},
	}
}

func issueCommand() *cli.Command {
	return &cli.Command{
		Name:  "issue",
		Usage: "issue an access token",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "sub", Usage: "subject (user id)", Required: true},
			&cli.StringFlag{Name: "email"},
			&cli.StringFlag{Name: "role"},
			&cli.StringFlag{Name: "subscription", Usage: "subscription level"},
			&cli.BoolFlag{Name: "active", Usage: "isActive claim"},
			&cli.IntFlag{Name: "lifetime", Usage: "lifetime in minutes, 0 for the default"},
		},
		Action: func(c *cli.Context) error {
			codec, err := codecFrom(c)
			if err != nil {
				return err
			}

			p := auth.Principal{ID: c.String("sub")}
			if c.IsSet("email") {
				p.Email = auth.Ptr(c.String("email"))
			}
			if c.IsSet("role") {
				p.Role = auth.Ptr(c.String("role"))
			}
			if c.IsSet("subscription") {
				p.SubscriptionLevel = auth.Ptr(c.String("subscription"))
			}
			if c.IsSet("active") {
				p.IsActive = auth.Ptr(c.Bool("active"))
			}

			token, err := codec.IssueWithLifetime(auth.FromPrincipal(p), c.Int("lifetime"))
			if err != nil {
				return err
			}

			fmt.Fprintln(c.App.Writer, token)
			return nil
		},
	}
}

func resolveCommand() *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "verify an access token and print its subject",
		ArgsUsage: "<token>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "claims", Usage: "print all claims as JSON"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("expected exactly one token", 2)
			}

			codec, err := codecFrom(c)
			if err != nil {
				return err
			}

			claims, err := codec.ResolveClaims(c.Args().First())
			if err != nil {
				if errors.Is(err, auth.ErrTokenRejected) {
					return cli.Exit("rejected: "+string(auth.ReasonOf(err)), 1)
				}
				return err
			}

			if !c.Bool("claims") {
				fmt.Fprintln(c.App.Writer, claims.Subject)
				return nil
			}

			enc := json.NewEncoder(c.App.Writer)
			enc.SetIndent("", "  ")
			return enc.Encode(claims)
		},
	}
}
