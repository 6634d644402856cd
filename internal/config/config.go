package config

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/glengine/internal/apperrors"
)

// Config represents the top-level glengine.yaml configuration.
type Config struct {
	Business     BusinessConfig   `yaml:"business"`
	Fiscal       FiscalConfig     `yaml:"fiscal"`
	Accounts     AccountMapping   `yaml:"accounts"`
	CashFlow     CashFlowConfig   `yaml:"cash_flow"`
	COGSAccounts []int            `yaml:"cogs_accounts,omitempty"`
	Validation   ValidationConfig `yaml:"validation"`
	Forecast     ForecastConfig   `yaml:"forecast"`
	Insights     InsightsConfig   `yaml:"insights"`
	Git          GitConfig        `yaml:"git"`
}

// BusinessConfig identifies the business entity.
type BusinessConfig struct {
	Name string `yaml:"name"`
}

// FiscalConfig defines the fiscal year boundaries.
type FiscalConfig struct {
	YearStart string `yaml:"year_start"` // "MM-DD" format, e.g. "01-01"
}

// AccountMapping routes journalization by transaction category. Zero means
// not configured; the journalizer rejects any entry that needs an
// unconfigured mapping.
type AccountMapping struct {
	Receivable    int `yaml:"receivable"`
	Payable       int `yaml:"payable"`
	Cash          int `yaml:"cash"` // settlement account for AR/AP payments
	TaxPayable    int `yaml:"tax_payable,omitempty"`
	TaxReceivable int `yaml:"tax_receivable,omitempty"`
	Clearing      int `yaml:"clearing,omitempty"` // counter-account for unlinked cashbook rows
	Revenue       int `yaml:"revenue,omitempty"`  // used when an AR row has no AccountID
	Expense       int `yaml:"expense,omitempty"`  // used when an AP row has no AccountID
	// CashbookRoutes maps a cashbook counterparty to its counter-account.
	CashbookRoutes map[string]int `yaml:"cashbook_routes,omitempty"`
}

// CashFlowConfig classifies balance-sheet accounts for the indirect cash
// flow statement. An account not listed inherits the section of its nearest
// listed ancestor.
type CashFlowConfig struct {
	Cash      []int `yaml:"cash"`
	Operating []int `yaml:"operating"`
	NonCash   []int `yaml:"noncash,omitempty"`
	Investing []int `yaml:"investing,omitempty"`
	Financing []int `yaml:"financing,omitempty"`
	Excluded  []int `yaml:"excluded,omitempty"`
}

// Sections returns the configured id lists keyed by section name.
func (c CashFlowConfig) Sections() map[string][]int {
	return map[string][]int{
		"cash":      c.Cash,
		"operating": c.Operating,
		"noncash":   c.NonCash,
		"investing": c.Investing,
		"financing": c.Financing,
		"excluded":  c.Excluded,
	}
}

// ValidationConfig controls how invalid input rows are handled.
type ValidationConfig struct {
	OnInvalidRow string `yaml:"on_invalid_row"` // "abort" or "skip"
}

// ForecastConfig controls the revenue forecast.
type ForecastConfig struct {
	Alpha   float64 `yaml:"alpha"`
	Horizon int     `yaml:"horizon"`
}

// InsightsConfig holds the thresholds used by the insight rules. Ratios are
// fractions: 0.15 means 15%.
type InsightsConfig struct {
	AROver90Share       float64 `yaml:"ar_over_90_share"`
	APOver90Share       float64 `yaml:"ap_over_90_share"`
	MinCurrentRatio     float64 `yaml:"min_current_ratio"`
	MinQuickRatio       float64 `yaml:"min_quick_ratio"`
	MaxDSO              float64 `yaml:"max_dso"`
	CustomerConcentrate float64 `yaml:"customer_concentration"`
}

// GitConfig controls committing the output directory.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a glengine.yaml file from disk. Missing sections keep their
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config matching accounts.DefaultChart.
func Default(businessName string) *Config {
	return &Config{
		Business: BusinessConfig{Name: businessName},
		Fiscal:   FiscalConfig{YearStart: "01-01"},
		Accounts: AccountMapping{
			Receivable:    1100,
			Payable:       2000,
			Cash:          1000,
			TaxPayable:    2100,
			TaxReceivable: 1150,
			Clearing:      1999,
		},
		CashFlow: CashFlowConfig{
			Cash:      []int{1000},
			Operating: []int{1100, 1150, 1200, 1999, 2000, 2100},
			NonCash:   []int{1510},
			Investing: []int{1500},
			Financing: []int{2500, 3000},
		},
		COGSAccounts: []int{5000},
		Validation:   ValidationConfig{OnInvalidRow: "abort"},
		Forecast:     ForecastConfig{Alpha: 0.3, Horizon: 6},
		Insights: InsightsConfig{
			AROver90Share:       0.15,
			APOver90Share:       0.15,
			MinCurrentRatio:     1.0,
			MinQuickRatio:       0.8,
			MaxDSO:              45,
			CustomerConcentrate: 0.5,
		},
		Git: GitConfig{
			AuthorName:  "glengine",
			AuthorEmail: "glengine@cleared.dev",
		},
	}
}

// Validate checks values that do not depend on the chart of accounts.
// Account ids are checked by accounts.Service.ValidateMapping and
// statements.Classify.
func (c *Config) Validate() error {
	if _, err := c.Fiscal.PeriodStart(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		return err
	}
	switch c.Validation.OnInvalidRow {
	case "abort", "skip":
	default:
		return &apperrors.ConfigError{Field: "validation.on_invalid_row", Reason: fmt.Sprintf("must be abort or skip, got %q", c.Validation.OnInvalidRow)}
	}
	if c.Forecast.Alpha <= 0 || c.Forecast.Alpha > 1 {
		return &apperrors.ConfigError{Field: "forecast.alpha", Reason: fmt.Sprintf("must be in (0, 1], got %g", c.Forecast.Alpha)}
	}
	if c.Forecast.Horizon <= 0 {
		return &apperrors.ConfigError{Field: "forecast.horizon", Reason: "must be positive"}
	}
	seen := make(map[int]string)
	for _, name := range sortedKeys(c.CashFlow.Sections()) {
		for _, id := range c.CashFlow.Sections()[name] {
			if prev, ok := seen[id]; ok && prev != name {
				return &apperrors.ConfigError{Field: "cash_flow", Reason: fmt.Sprintf("account %d listed in both %s and %s", id, prev, name)}
			}
			seen[id] = name
		}
	}
	return nil
}

// PeriodStart returns the first day of the fiscal year containing asOf.
func (f FiscalConfig) PeriodStart(asOf time.Time) (time.Time, error) {
	start := f.YearStart
	if start == "" {
		start = "01-01"
	}
	md, err := time.Parse("01-02", start)
	if err != nil {
		return time.Time{}, &apperrors.ConfigError{Field: "fiscal.year_start", Reason: fmt.Sprintf("want MM-DD, got %q", f.YearStart)}
	}
	ps := time.Date(asOf.Year(), md.Month(), md.Day(), 0, 0, 0, 0, time.UTC)
	if ps.After(asOf) {
		ps = ps.AddDate(-1, 0, 0)
	}
	return ps, nil
}

func sortedKeys(m map[string][]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
