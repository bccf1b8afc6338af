// Command token mints an operator access token for the statusboard API.
//
//	token -operator alice -ttl 2h
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/statusboard/statusboard/internal/auth"
	"github.com/statusboard/statusboard/internal/config"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "token:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(out)
	operator := fs.String("operator", "", "operator name to embed in the token")
	ttl := fs.Duration("ttl", auth.DefaultTokenExpiry, "token lifetime")
	envDir := fs.String("env-dir", ".", "directory holding .env files")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *operator == "" {
		return errors.New("-operator is required")
	}
	if *ttl <= 0 {
		return errors.New("-ttl must be positive")
	}

	cfg, err := config.Load(*envDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	key := cfg.JWTSigningKey
	if key == "" {
		key = auth.DevSigningKey
	}

	svc := auth.NewJWTService(auth.JWTConfig{SigningKey: key, Expiry: *ttl})
	token, expiresAt, err := svc.GenerateAccessToken(*operator)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, token)
	fmt.Fprintf(out, "expires %s\n", expiresAt.UTC().Format(time.RFC3339))
	return nil
}
