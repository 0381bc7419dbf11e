package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"empverify/internal/employee/seed"
	employeeService "empverify/internal/employee/service"
	employeeStore "empverify/internal/employee/store"
	"empverify/internal/platform/config"
	"empverify/internal/platform/db"
	"empverify/internal/platform/logger"
	"empverify/pkg/platform/tx"
	"empverify/pkg/requestcontext"
)

var seedDryRun bool

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed [file]",
		Short: "Load canonical employee records from a YAML file",
		Long: `Load canonical employee records into Postgres.

The file holds a top-level "employees" list. Records are normalized and
validated before anything is written; existing records are replaced.

Examples:
  portalctl seed employees.yaml
  portalctl seed employees.yaml --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: runSeed,
	}
	cmd.Flags().BoolVar(&seedDryRun, "dry-run", false, "validate the file without writing")
	return cmd
}

func runSeed(cmd *cobra.Command, args []string) error {
	records, err := seed.LoadFile(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Found %d employee records\n", len(records))
	if seedDryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "Dry run - no changes made")
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx := context.Background()
	conn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer conn.Close()

	svc, err := employeeService.New(employeeStore.NewPostgres(conn),
		employeeService.WithLogger(logger.New(cfg.Log)),
		employeeService.WithTxRunner(tx.NewSQLRunner(conn)),
	)
	if err != nil {
		return err
	}

	ctx = requestcontext.WithPrincipal(ctx, requestcontext.AuthPrincipal{ID: "portalctl", Role: requestcontext.RoleHRAdmin})
	n, err := svc.Import(ctx, records)
	if err != nil {
		return fmt.Errorf("imported %d of %d: %w", n, len(records), err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d employee records\n", n)
	return nil
}
