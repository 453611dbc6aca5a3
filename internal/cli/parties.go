package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sujith333333/redeemx-repo/internal/model"
	"github.com/sujith333333/redeemx-repo/internal/repository"
	"github.com/sujith333333/redeemx-repo/internal/service"
)

func init() {
	rootCmd.AddCommand(migrateCmd)

	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userAddCmd)
	userAddCmd.Flags().String("username", "", "unique login name")
	userAddCmd.Flags().String("name", "", "display name")
	userAddCmd.Flags().String("emp-id", "", "employee id from the employer directory")
	userAddCmd.Flags().String("role", string(model.RoleEmployee), "EMPLOYEE, VENDOR or ADMIN")

	rootCmd.AddCommand(vendorCmd)
	vendorCmd.AddCommand(vendorAddCmd)
	vendorAddCmd.Flags().String("owner", "", "user id of the VENDOR account")
	vendorAddCmd.Flags().String("name", "", "unique vendor name")
	vendorAddCmd.Flags().String("description", "", "vendor description")

	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().String("user", "", "user id")
	tokenCmd.Flags().String("role", "", "EMPLOYEE, VENDOR or ADMIN")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "token lifetime")
}

// ─── migrate ────────────────────────────────────────────────────────────────

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if opts.DatabaseURI == "" {
			return fmt.Errorf("database URI is required: set --database-uri or DATABASE_URI")
		}
		repo, err := repository.Connect(opts.DatabaseURI)
		if err != nil {
			return err
		}
		defer repo.Close()

		if err := repo.Migrate(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}

// ─── user ───────────────────────────────────────────────────────────────────

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage ledger accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create an employee, vendor or admin account",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		name, _ := cmd.Flags().GetString("name")
		empID, _ := cmd.Flags().GetString("emp-id")
		roleFlag, _ := cmd.Flags().GetString("role")

		role, ok := model.ParseRole(strings.ToUpper(strings.TrimSpace(roleFlag)))
		if !ok {
			return fmt.Errorf("unknown role %q", roleFlag)
		}

		return withService(cmd, func(ctx context.Context, svc *service.Service) error {
			u, err := svc.CreateUser(ctx, service.NewUser{Username: username, Name: name, EmpID: empID, Role: role})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), u)
		})
	},
}

// ─── vendor ─────────────────────────────────────────────────────────────────

var vendorCmd = &cobra.Command{
	Use:   "vendor",
	Short: "Manage vendors",
}

var vendorAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a vendor owned by a VENDOR account",
	RunE: func(cmd *cobra.Command, args []string) error {
		ownerFlag, _ := cmd.Flags().GetString("owner")
		name, _ := cmd.Flags().GetString("name")
		description, _ := cmd.Flags().GetString("description")

		owner, err := uuid.Parse(ownerFlag)
		if err != nil {
			return fmt.Errorf("invalid owner id %q", ownerFlag)
		}

		return withService(cmd, func(ctx context.Context, svc *service.Service) error {
			v, err := svc.CreateVendor(ctx, owner, name, description)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), v)
		})
	},
}

// ─── token ──────────────────────────────────────────────────────────────────

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Sign a bearer token for local testing",
	RunE:  runToken,
}
