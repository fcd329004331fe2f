package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ryecroft/amsync/internal/models"
	"github.com/ryecroft/amsync/internal/repositories"
	"github.com/ryecroft/amsync/internal/server"
	"github.com/ryecroft/amsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// TokenSet stores a credential of the given kind in the database.
func (r *Runner) TokenSet(ctx context.Context, cmd *cli.Command) error {
	kind := cmd.String("kind")
	value := cmd.String("value")

	if kind != models.TokenKindDeveloper && kind != models.TokenKindUser {
		return fmt.Errorf("%w: kind must be 'developer' or 'user'", shared.ErrInvalidFlag)
	}

	var expiresAt time.Time
	if expires := cmd.String("expires"); expires != "" {
		parsed, err := time.Parse(time.RFC3339, expires)
		if err != nil {
			return fmt.Errorf("%w: expires must be RFC3339, e.g. 2026-12-31T00:00:00Z", shared.ErrInvalidFlag)
		}
		expiresAt = parsed
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	tokens := repositories.NewTokenRepository(db)
	if _, err := tokens.Set(kind, value, expiresAt); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	r.logger.Info("token stored", "kind", kind)
	r.writePlain("✓ %s token stored\n", kind)
	return nil
}

// TokenStatus shows which credentials are configured and their expiry.
func (r *Runner) TokenStatus(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	tokens := repositories.NewTokenRepository(db)

	r.writePlainHeader("Credential Status")

	for _, kind := range []string{models.TokenKindDeveloper, models.TokenKindUser} {
		stored, err := tokens.GetByKind(kind)
		switch {
		case err != nil && r.configToken(kind) != "":
			r.writePlain("%-10s configured via config.toml\n", kind)
		case err != nil:
			r.writePlain("%-10s not configured\n", kind)
		case stored.Expired():
			r.writePlain("%-10s EXPIRED (%s)\n", kind, stored.ExpiresAt().Format(time.RFC3339))
		case stored.ExpiresAt().IsZero():
			r.writePlain("%-10s configured\n", kind)
		default:
			r.writePlain("%-10s configured, expires %s\n", kind, stored.ExpiresAt().Format(time.RFC3339))
		}
	}

	return nil
}

func (r *Runner) configToken(kind string) string {
	if kind == models.TokenKindDeveloper {
		return r.config.Credentials.AppleMusic.DeveloperToken
	}
	return r.config.Credentials.AppleMusic.UserToken
}

// TokenImport extracts credentials from a browser "Copy as cURL" capture
// of a music.apple.com request and stores them.
func (r *Runner) TokenImport(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}

	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	var headers *shared.CurlHeaders
	var err error

	if curlFile != "" {
		headers, err = shared.ParseCurlFile(curlFile)
		if err != nil {
			return fmt.Errorf("failed to parse cURL file: %w", err)
		}
		r.logger.Info("parsed cURL from file", "file", curlFile)
	} else {
		headers, err = shared.ParseCurlCommand([]byte(curlCmd))
		if err != nil {
			return fmt.Errorf("failed to parse cURL command: %w", err)
		}
		r.logger.Info("parsed cURL command")
	}

	developer := headers.DeveloperToken()
	user := headers.UserToken()

	if developer == "" && user == "" {
		return fmt.Errorf("%w: no authorization or media-user-token headers found", shared.ErrInvalidInput)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	tokens := repositories.NewTokenRepository(db)

	if developer != "" {
		if _, err := tokens.Set(models.TokenKindDeveloper, developer, time.Time{}); err != nil {
			return fmt.Errorf("failed to store developer token: %w", err)
		}
		r.writePlain("✓ developer token imported\n")
	}

	if user != "" {
		if _, err := tokens.Set(models.TokenKindUser, user, time.Time{}); err != nil {
			return fmt.Errorf("failed to store user token: %w", err)
		}
		r.writePlain("✓ user token imported\n")
	}

	r.writePlain("Run 'amsync token status' to verify.\n")
	return nil
}

// TokenLogin runs the browser authorization flow to obtain a user token.
func (r *Runner) TokenLogin(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	tokens := repositories.NewTokenRepository(db)
	developer, _ := r.credentials(tokens)

	userToken, err := server.CaptureUserToken(ctx, r.config.Server.Host, r.config.Server.Port, developer, r.logger)
	if err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}

	if _, err := tokens.Set(models.TokenKindUser, userToken, time.Time{}); err != nil {
		return fmt.Errorf("failed to store user token: %w", err)
	}

	r.writePlain("✓ user token captured and stored\n")
	return nil
}

// tokenCommand manages stored API credentials
func tokenCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Manage Apple Music API credentials",
		Commands: []*cli.Command{
			{
				Name:  "set",
				Usage: "Store a credential directly",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "kind",
						Usage:    "Token kind: developer or user",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "value",
						Usage:    "Token value",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "expires",
						Usage: "Expiry timestamp (RFC3339), omit for no expiry",
					},
				},
				Action: r.TokenSet,
			},
			{
				Name:   "status",
				Usage:  "Show which credentials are configured",
				Action: r.TokenStatus,
			},
			{
				Name:  "import",
				Usage: "Import credentials from a browser 'Copy as cURL' capture",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command copied from browser dev tools",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "File containing the cURL command",
					},
				},
				Action: r.TokenImport,
			},
			{
				Name:   "login",
				Usage:  "Authorize in the browser and capture a user token",
				Action: r.TokenLogin,
			},
		},
	}
}
