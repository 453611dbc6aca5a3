package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sujith333333/redeemx-repo/internal/model"
	"github.com/sujith333333/redeemx-repo/internal/service"
	"github.com/sujith333333/redeemx-repo/internal/validation"
)

func init() {
	rootCmd.AddCommand(grantCmd)
	grantCmd.Flags().String("user", "", "employee user id")
	grantCmd.Flags().Int64("points", 0, "points to grant, negative to deduct")
	grantCmd.Flags().String("description", "", "entry description")

	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportPointsCmd)
	reportCmd.AddCommand(reportDailyCmd)
	addWindowFlags(reportPointsCmd)

	rootCmd.AddCommand(claimCmd)
	claimCmd.AddCommand(claimListCmd)
	claimCmd.AddCommand(claimApproveCmd)
	claimCmd.AddCommand(claimRejectCmd)
	claimListCmd.Flags().String("status", "", "PENDING, APPROVED or REJECTED")
	claimListCmd.Flags().String("vendor", "", "vendor name")
	claimApproveCmd.Flags().Int64("points", 0, "approved points")
	claimApproveCmd.Flags().String("ref", "", "bank transaction reference, generated when empty")

	rootCmd.AddCommand(accrueCmd)
	accrueCmd.Flags().String("day", "", "day to accrue, YYYY-MM-DD; today when empty")
}

func addWindowFlags(cmd *cobra.Command) {
	cmd.Flags().String("start-date", "", "window start, YYYY-MM-DD")
	cmd.Flags().String("end-date", "", "window end, YYYY-MM-DD")
	cmd.Flags().String("day", "", "single day, YYYY-MM-DD")
	cmd.Flags().Int("month", 0, "month 1-12")
	cmd.Flags().Int("year", 0, "year for --month")
}

func windowFlags(cmd *cobra.Command) validation.WindowInput {
	in := validation.WindowInput{}
	in.StartDate, _ = cmd.Flags().GetString("start-date")
	in.EndDate, _ = cmd.Flags().GetString("end-date")
	in.Day, _ = cmd.Flags().GetString("day")
	if cmd.Flags().Changed("month") {
		m, _ := cmd.Flags().GetInt("month")
		in.Month = &m
	}
	if cmd.Flags().Changed("year") {
		y, _ := cmd.Flags().GetInt("year")
		in.Year = &y
	}
	return in
}

// ─── grant ──────────────────────────────────────────────────────────────────

var grantCmd = &cobra.Command{
	Use:   "grant",
	Short: "Grant or deduct employee points as admin",
	RunE: func(cmd *cobra.Command, args []string) error {
		userFlag, _ := cmd.Flags().GetString("user")
		points, _ := cmd.Flags().GetInt64("points")
		description, _ := cmd.Flags().GetString("description")

		userID, err := uuid.Parse(userFlag)
		if err != nil {
			return fmt.Errorf("invalid user id %q", userFlag)
		}

		return withAdmin(cmd, func(ctx context.Context, svc *service.Service, admin model.Identity) error {
			entry, err := svc.GrantPoints(ctx, admin, userID, points, description)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), entry)
		})
	},
}

// ─── report ─────────────────────────────────────────────────────────────────

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print ledger reports",
}

var reportPointsCmd = &cobra.Command{
	Use:   "points",
	Short: "Print point totals for a window",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := windowFlags(cmd)

		return withAdmin(cmd, func(ctx context.Context, svc *service.Service, admin model.Identity) error {
			report, err := svc.PointsReport(ctx, admin, in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		})
	},
}

var reportDailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Print snapshots taken on each claim request",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAdmin(cmd, func(ctx context.Context, svc *service.Service, admin model.Identity) error {
			snapshots, err := svc.ListSnapshots(ctx, admin)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), snapshots)
		})
	},
}

// ─── claim ──────────────────────────────────────────────────────────────────

var claimCmd = &cobra.Command{
	Use:   "claim",
	Short: "Review vendor claims",
}

var claimListCmd = &cobra.Command{
	Use:   "list",
	Short: "List vendor claims",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		vendor, _ := cmd.Flags().GetString("vendor")

		return withAdmin(cmd, func(ctx context.Context, svc *service.Service, admin model.Identity) error {
			claims, err := svc.ListClaims(ctx, admin, status, vendor)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), claims)
		})
	},
}

var claimApproveCmd = &cobra.Command{
	Use:   "approve CLAIM_ID",
	Short: "Approve a pending claim fully or partially",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		claimID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid claim id %q", args[0])
		}
		points, _ := cmd.Flags().GetInt64("points")
		ref, _ := cmd.Flags().GetString("ref")

		return withAdmin(cmd, func(ctx context.Context, svc *service.Service, admin model.Identity) error {
			res, err := svc.ApproveClaim(ctx, admin, claimID, service.ApproveRequest{ApprovedPoints: points, TransactionReferenceID: ref})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		})
	},
}

var claimRejectCmd = &cobra.Command{
	Use:   "reject CLAIM_ID",
	Short: "Reject a pending claim",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		claimID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid claim id %q", args[0])
		}

		return withAdmin(cmd, func(ctx context.Context, svc *service.Service, admin model.Identity) error {
			res, err := svc.RejectClaim(ctx, admin, claimID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		})
	},
}

// ─── accrue ─────────────────────────────────────────────────────────────────

var accrueCmd = &cobra.Command{
	Use:   "accrue",
	Short: "Run the daily accrual for one day",
	Long: `Grant the daily points to every registered employee listed by the employee
directory. A day is accrued at most once and Sundays are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dayFlag, _ := cmd.Flags().GetString("day")

		return withService(cmd, func(ctx context.Context, svc *service.Service) error {
			day := time.Now()
			if dayFlag != "" {
				loc, err := time.LoadLocation(opts.Timezone)
				if err != nil {
					return err
				}
				day, err = time.ParseInLocation("2006-01-02", dayFlag, loc)
				if err != nil {
					return fmt.Errorf("invalid day %q, expected YYYY-MM-DD", dayFlag)
				}
			}
			res, err := svc.Accrue(ctx, day)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		})
	},
}
