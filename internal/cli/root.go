// Package cli содержит команды утилиты оператора redeemxctl.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sujith333333/redeemx-repo/internal/accrual"
	"github.com/sujith333333/redeemx-repo/internal/logging"
	"github.com/sujith333333/redeemx-repo/internal/model"
	"github.com/sujith333333/redeemx-repo/internal/repository"
	"github.com/sujith333333/redeemx-repo/internal/service"
)

// settings содержит общие параметры команд. Значения по умолчанию берутся из окружения.
type settings struct {
	DatabaseURI      string `env:"DATABASE_URI"`
	DirectoryAddress string `env:"EMPLOYEE_DIRECTORY_ADDRESS"`
	JWTSecret        string `env:"JWT_SECRET"`
	Timezone         string `env:"TIMEZONE" envDefault:"Asia/Kolkata"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"warn"`
	AdminID          string `env:"REDEEMX_ADMIN_ID"`
}

var opts settings

var rootCmd = &cobra.Command{
	Use:   "redeemxctl",
	Short: "Operate the redeemx points ledger",
	Long: `redeemxctl provisions users and vendors, grants points, reviews vendor
claims and prints reports directly against the ledger database.`,
	SilenceUsage: true,
}

func init() {
	_ = env.Parse(&opts)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.DatabaseURI, "database-uri", opts.DatabaseURI, "PostgreSQL connection string")
	pf.StringVar(&opts.DirectoryAddress, "directory", opts.DirectoryAddress, "employee directory address")
	pf.StringVar(&opts.JWTSecret, "jwt-secret", opts.JWTSecret, "secret used to sign bearer tokens")
	pf.StringVar(&opts.Timezone, "tz", opts.Timezone, "timezone for day and month windows")
	pf.StringVar(&opts.LogLevel, "log-level", opts.LogLevel, "log level")
	pf.StringVar(&opts.AdminID, "as", opts.AdminID, "admin user id for admin-only commands")
}

// Execute запускает корневую команду с контекстом ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// openService подключается к базе и собирает сервис. Миграции не применяются.
func openService(ctx context.Context) (*service.Service, error) {
	if opts.DatabaseURI == "" {
		return nil, fmt.Errorf("database URI is required: set --database-uri or DATABASE_URI")
	}
	loc, err := time.LoadLocation(opts.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", opts.Timezone, err)
	}
	logger, err := logging.New(opts.LogLevel)
	if err != nil {
		return nil, err
	}

	repo, err := repository.Connect(opts.DatabaseURI)
	if err != nil {
		return nil, err
	}

	var directory service.Directory
	if opts.DirectoryAddress != "" {
		directory = accrual.NewClient(opts.DirectoryAddress)
	}

	return service.NewService(repo, directory, logger.With(zap.String("component", "redeemxctl")), service.Options{
		Location: loc,
	}), nil
}

// withService открывает сервис на время выполнения fn.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc *service.Service) error) error {
	ctx := cmd.Context()
	svc, err := openService(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()
	return fn(ctx, svc)
}

func adminID() (uuid.UUID, error) {
	id, err := uuid.Parse(opts.AdminID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("admin user id is required: set --as or REDEEMX_ADMIN_ID")
	}
	return id, nil
}

// withAdmin открывает сервис и выполняет fn от имени администратора --as.
// Учётная запись должна существовать и иметь роль ADMIN.
func withAdmin(cmd *cobra.Command, fn func(ctx context.Context, svc *service.Service, admin model.Identity) error) error {
	id, err := adminID()
	if err != nil {
		return err
	}
	return withService(cmd, func(ctx context.Context, svc *service.Service) error {
		admin, err := svc.AdminIdentity(ctx, id)
		if err != nil {
			return fmt.Errorf("act as %s: %w", id, err)
		}
		return fn(ctx, svc, admin)
	})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
