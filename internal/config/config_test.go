package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/glengine/internal/apperrors"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default("Test Biz")
	cfg.Accounts.CashbookRoutes = map[string]int{"LANDLORD": 6000}

	path := filepath.Join(t.TempDir(), "glengine.yaml")
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.Business.Name, got.Business.Name)
	assert.Equal(t, cfg.Fiscal.YearStart, got.Fiscal.YearStart)
	assert.Equal(t, cfg.Accounts, got.Accounts)
	assert.Equal(t, cfg.CashFlow, got.CashFlow)
	assert.Equal(t, cfg.COGSAccounts, got.COGSAccounts)
	assert.InDelta(t, cfg.Forecast.Alpha, got.Forecast.Alpha, 1e-9)
	assert.Equal(t, cfg.Forecast.Horizon, got.Forecast.Horizon)
	assert.Equal(t, cfg.Insights, got.Insights)
	assert.Equal(t, cfg.Git, got.Git)
}

func TestDefaults(t *testing.T) {
	cfg := Default("My Company")

	assert.Equal(t, "My Company", cfg.Business.Name)
	assert.Equal(t, "01-01", cfg.Fiscal.YearStart)
	assert.Equal(t, "abort", cfg.Validation.OnInvalidRow)
	assert.InDelta(t, 0.3, cfg.Forecast.Alpha, 1e-9)
	assert.Equal(t, 6, cfg.Forecast.Horizon)
	assert.InDelta(t, 0.15, cfg.Insights.AROver90Share, 1e-9)
	require.NoError(t, cfg.Validate())
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glengine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("forecast:\n  alpha: 0.5\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, cfg.Forecast.Alpha, 1e-9)
	assert.Equal(t, 6, cfg.Forecast.Horizon)
	assert.Equal(t, 1100, cfg.Accounts.Receivable)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"alpha zero", func(c *Config) { c.Forecast.Alpha = 0 }, "forecast.alpha"},
		{"alpha above one", func(c *Config) { c.Forecast.Alpha = 1.5 }, "forecast.alpha"},
		{"horizon", func(c *Config) { c.Forecast.Horizon = 0 }, "forecast.horizon"},
		{"policy", func(c *Config) { c.Validation.OnInvalidRow = "ignore" }, "validation.on_invalid_row"},
		{"year start", func(c *Config) { c.Fiscal.YearStart = "July" }, "fiscal.year_start"},
		{"duplicate section", func(c *Config) { c.CashFlow.Investing = append(c.CashFlow.Investing, 1000) }, "cash_flow"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default("x")
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			var cerr *apperrors.ConfigError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tt.field, cerr.Field)
		})
	}
}

func TestPeriodStart(t *testing.T) {
	f := FiscalConfig{YearStart: "07-01"}

	got, err := f.PeriodStart(time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), got)

	got, err = f.PeriodStart(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), got)

	got, err = FiscalConfig{}.PeriodStart(time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), got)
}

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	fs.String("config", "glengine.yaml", "")
	fs.String("input", "input", "")
	fs.String("output", "output", "")
	fs.String("as-of", "", "")
	fs.String("period-start", "", "")
	fs.String("on-invalid-row", "", "")
	fs.String("sqlite", "", "")
	fs.Bool("commit", false, "")
	fs.String("log-level", "info", "")
	return fs
}

func TestLoadSettings_Flags(t *testing.T) {
	fs := newFlags()
	require.NoError(t, fs.Parse([]string{"--input", "data", "--as-of", "2025-03-31", "--on-invalid-row", "skip", "--commit"}))

	s, err := LoadSettings(fs)
	require.NoError(t, err)
	assert.Equal(t, "data", s.InputDir)
	assert.Equal(t, "output", s.OutputDir)
	assert.Equal(t, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), s.AsOf)
	assert.True(t, s.PeriodStart.IsZero())
	assert.Equal(t, "skip", s.OnInvalidRow)
	assert.True(t, s.Commit)
}

func TestLoadSettings_Env(t *testing.T) {
	t.Setenv("GLENGINE_OUTPUT", "reports")
	t.Setenv("GLENGINE_LOG_LEVEL", "debug")

	s, err := LoadSettings(newFlags())
	require.NoError(t, err)
	assert.Equal(t, "reports", s.OutputDir)
	assert.Equal(t, "debug", s.LogLevel)
}

func TestLoadSettings_BadDate(t *testing.T) {
	fs := newFlags()
	require.NoError(t, fs.Parse([]string{"--as-of", "31/03/2025"}))
	_, err := LoadSettings(fs)
	assert.Error(t, err)
}
