package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	jwttoken "empverify/internal/jwt_token"
	"empverify/internal/platform/config"
	"empverify/pkg/requestcontext"
)

func tokenCmd() *cobra.Command {
	var (
		subject string
		role    string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token signed with JWT_SIGNING_KEY",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if subject == "" {
				return fmt.Errorf("--subject is required")
			}
			if !requestcontext.Role(role).IsValid() {
				return fmt.Errorf("--role must be %s or %s", requestcontext.RoleVerifier, requestcontext.RoleHRAdmin)
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.Auth.AccessTTL
			}
			svc := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience)
			token, err := svc.GenerateAccessToken(subject, role, ttl)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "principal ID carried in the sub claim")
	cmd.Flags().StringVar(&role, "role", string(requestcontext.RoleVerifier), "verifier or hr_admin")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to JWT_ACCESS_TTL)")
	return cmd
}
