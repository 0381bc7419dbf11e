package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"empverify/internal/platform/config"
	"empverify/internal/platform/db"
	"empverify/internal/platform/logger"
	platformredis "empverify/internal/platform/redis"
	verificationAdmin "empverify/internal/verification/admin"
	"empverify/internal/verification/ports"
	"empverify/internal/verification/store/ledger"
	"empverify/pkg/requestcontext"
)

func attemptsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attempts",
		Short: "Inspect and clear verification attempt ledger entries",
	}

	var reason string
	clearCmd := &cobra.Command{
		Use:   "clear [requester-id] [subject-id]",
		Short: "Unblock a (requester, subject) pair",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(func(ctx context.Context, admin *verificationAdmin.Service) error {
				if err := admin.Clear(ctx, args[0], args[1], reason); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "cleared %s / %s\n", args[0], args[1])
				return nil
			})
		},
	}
	clearCmd.Flags().StringVar(&reason, "reason", "cleared via portalctl", "reason recorded in the audit trail")

	var limit int
	blocked := &cobra.Command{
		Use:   "blocked",
		Short: "List blocked pairs as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(func(ctx context.Context, admin *verificationAdmin.Service) error {
				states, err := admin.ListBlocked(ctx, limit)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(states)
			})
		},
	}
	blocked.Flags().IntVarP(&limit, "limit", "n", 50, "maximum pairs to list")

	cmd.AddCommand(clearCmd, blocked)
	return cmd
}

// withAdmin opens the configured durable ledger and hands an admin service to fn.
func withAdmin(fn func(ctx context.Context, admin *verificationAdmin.Service) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx := requestcontext.WithPrincipal(context.Background(), requestcontext.AuthPrincipal{
		ID:   "portalctl",
		Role: requestcontext.RoleHRAdmin,
	})

	var attemptLedger ports.AttemptLedger
	switch cfg.Ledger.Backend {
	case config.BackendPostgres:
		conn, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer conn.Close()
		attemptLedger = ledger.NewPostgres(conn)
	case config.BackendRedis:
		rc, err := platformredis.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rc.Close()
		attemptLedger = ledger.NewRedis(rc.Client)
	default:
		return fmt.Errorf("LEDGER_BACKEND %q is process-local; use the admin API instead", cfg.Ledger.Backend)
	}

	admin, err := verificationAdmin.New(attemptLedger, verificationAdmin.WithLogger(logger.New(cfg.Log)))
	if err != nil {
		return err
	}
	return fn(ctx, admin)
}
