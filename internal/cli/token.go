package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"example.com/kickaider/internal/auth"
	"example.com/kickaider/internal/config"
)

func tokenCommand(out io.Writer) *cobra.Command {
	var (
		subject string
		tenant  string
		scopes  []string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a development bearer token with JWT_SECRET and JWT_ISSUER",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			token, err := auth.Sign(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer}, subject, tenant, scopes, ttl)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			_, err = fmt.Fprintln(out, token)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "admin-1", "token subject")
	cmd.Flags().StringVar(&tenant, "tenant", "tenant-1", "organisation the token is scoped to")
	cmd.Flags().StringSliceVar(&scopes, "scope", auth.AllScopes, "granted scopes (repeatable)")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	return cmd
}
