package cli

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sujith333333/redeemx-repo/internal/middleware"
	"github.com/sujith333333/redeemx-repo/internal/model"
)

func runToken(cmd *cobra.Command, args []string) error {
	userFlag, _ := cmd.Flags().GetString("user")
	roleFlag, _ := cmd.Flags().GetString("role")
	ttl, _ := cmd.Flags().GetDuration("ttl")

	if opts.JWTSecret == "" {
		return fmt.Errorf("jwt secret is required: set --jwt-secret or JWT_SECRET")
	}
	userID, err := uuid.Parse(userFlag)
	if err != nil {
		return fmt.Errorf("invalid user id %q", userFlag)
	}
	role, ok := model.ParseRole(strings.ToUpper(strings.TrimSpace(roleFlag)))
	if !ok {
		return fmt.Errorf("unknown role %q", roleFlag)
	}

	token, err := middleware.NewAuthMiddleware(opts.JWTSecret).IssueToken(model.Identity{UserID: userID, Role: role}, ttl)
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
