// Package config содержит логику чтения конфигурации сервиса redeemx.
package config

import (
	"flag"
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
)

const (
	defaultRunAddress      = "localhost:8080"
	defaultTimezone        = "Asia/Kolkata"
	defaultAccrualPoints   = 20
	defaultAccrualInterval = time.Hour
	defaultLogLevel        = "info"
)

// Config содержит параметры конфигурации сервиса redeemx.
type Config struct {
	RunAddress               string        `env:"RUN_ADDRESS"`
	DatabaseURI              string        `env:"DATABASE_URI"`
	EmployeeDirectoryAddress string        `env:"EMPLOYEE_DIRECTORY_ADDRESS"`
	JWTSecret                string        `env:"JWT_SECRET"`
	Timezone                 string        `env:"TIMEZONE"`
	AccrualPoints            int64         `env:"ACCRUAL_POINTS"`
	AccrualInterval          time.Duration `env:"ACCRUAL_INTERVAL"`
	LogLevel                 string        `env:"LOG_LEVEL"`

	location *time.Location
}

// Location возвращает разобранную зону Timezone.
func (c *Config) Location() *time.Location {
	return c.location
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	envCfg := &Config{}
	if err := env.Parse(envCfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg := &Config{}
	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.EmployeeDirectoryAddress, "r", "", "employee directory address")
	flag.StringVar(&cfg.JWTSecret, "s", "", "secret used to verify bearer tokens")
	flag.StringVar(&cfg.Timezone, "tz", defaultTimezone, "timezone for day and month windows")
	flag.Int64Var(&cfg.AccrualPoints, "p", defaultAccrualPoints, "daily accrual points per employee")
	flag.DurationVar(&cfg.AccrualInterval, "i", defaultAccrualInterval, "daily accrual check interval")
	flag.StringVar(&cfg.LogLevel, "l", defaultLogLevel, "log level")

	flag.Parse()

	if envCfg.RunAddress != "" {
		cfg.RunAddress = envCfg.RunAddress
	}
	if envCfg.DatabaseURI != "" {
		cfg.DatabaseURI = envCfg.DatabaseURI
	}
	if envCfg.EmployeeDirectoryAddress != "" {
		cfg.EmployeeDirectoryAddress = envCfg.EmployeeDirectoryAddress
	}
	if envCfg.JWTSecret != "" {
		cfg.JWTSecret = envCfg.JWTSecret
	}
	if envCfg.Timezone != "" {
		cfg.Timezone = envCfg.Timezone
	}
	if envCfg.AccrualPoints != 0 {
		cfg.AccrualPoints = envCfg.AccrualPoints
	}
	if envCfg.AccrualInterval != 0 {
		cfg.AccrualInterval = envCfg.AccrualInterval
	}
	if envCfg.LogLevel != "" {
		cfg.LogLevel = envCfg.LogLevel
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}
	if cfg.AccrualInterval <= 0 {
		return nil, fmt.Errorf("accrual interval must be positive, got %s", cfg.AccrualInterval)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	cfg.location = loc

	return cfg, nil
}
