package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cmlabs-hris/hris-timekeeping/internal/app"
	"github.com/cmlabs-hris/hris-timekeeping/internal/config"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/user"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/database"
	"github.com/cmlabs-hris/hris-timekeeping/internal/repository/postgresql"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "hrisctl",
		Short:        "Administrative commands for the timekeeping service",
		SilenceUsage: true,
	}

	root.AddCommand(
		newMigrateCmd(),
		newMigrateLeaveBucketsCmd(),
		newGeneratePayrollCmd(),
		newSyncDevicesCmd(),
		newTokenCmd(),
	)
	return root
}

// withApp loads configuration, wires the application and hands it to fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	a, err := app.New(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(cmd.Context(), a)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending PostgreSQL schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.App.Store != config.StorePostgres {
				return errors.New("migrate needs STORE=postgres")
			}

			db, err := database.NewPostgreSQLDB(cmd.Context(), cfg.DatabaseURL())
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			applied, err := postgresql.Migrate(cmd.Context(), db)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				return nil
			}
			for _, name := range applied {
				fmt.Fprintln(cmd.OutOrStdout(), "applied", name)
			}
			return nil
		},
	}
}

func newMigrateLeaveBucketsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-leave-buckets",
		Short: "Rewrite legacy leave bucket names to sick, annual, casual and unpaid",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				result, err := a.Employee.MigrateLeaveBuckets(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd, result)
			})
		},
	}
}

func newGeneratePayrollCmd() *cobra.Command {
	var (
		month       string
		employeeIDs []string
		regenerate  bool
		reason      string
		actor       string
	)

	cmd := &cobra.Command{
		Use:   "generate-payroll",
		Short: "Generate payroll snapshots for a month",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				result, err := a.Payroll.GenerateBatch(ctx, payroll.GeneratePayrollRequest{
					Month:       month,
					EmployeeIDs: employeeIDs,
					Regenerate:  regenerate,
					Reason:      reason,
					Actor:       actor,
				})
				if err != nil {
					return err
				}
				if err := printJSON(cmd, result); err != nil {
					return err
				}
				if len(result.Failed) > 0 {
					return fmt.Errorf("%d employees failed", len(result.Failed))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "Payroll month (YYYY-MM)")
	cmd.Flags().StringSliceVar(&employeeIDs, "employee", nil, "Employee id, repeatable (default: all active)")
	cmd.Flags().BoolVar(&regenerate, "regenerate", false, "Regenerate existing snapshots")
	cmd.Flags().StringVar(&reason, "reason", "", "Regeneration reason recorded in history")
	cmd.Flags().StringVar(&actor, "actor", "hrisctl", "Author recorded in history")
	_ = cmd.MarkFlagRequired("month")
	return cmd
}

func newSyncDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync-devices",
		Short: "Pull and ingest one batch from every device source",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				results, err := a.Sync.SyncAll(ctx)
				if perr := printJSON(cmd, results); perr != nil {
					return perr
				}
				return err
			})
		},
	}
}

func newTokenCmd() *cobra.Command {
	var (
		userID     string
		employeeID string
		role       string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for API testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			r := user.Role(role)
			if r != user.RoleOwner && r != user.RoleManager && r != user.RoleEmployee {
				return fmt.Errorf("unknown role %q", role)
			}
			var empID *string
			if employeeID != "" {
				empID = &employeeID
			}

			token, expiresAt, err := app.NewJWT(cfg).GenerateAccessToken(userID, empID, r)
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string]interface{}{
				"access_token": token,
				"expires_at":   expiresAt,
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User id")
	cmd.Flags().StringVar(&employeeID, "employee", "", "Employee id carried in the token")
	cmd.Flags().StringVar(&role, "role", string(user.RoleManager), "owner, manager or employee")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
