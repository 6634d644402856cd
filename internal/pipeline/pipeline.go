// Package pipeline runs the engine end to end: raw tables in, a complete
// and internally consistent set of books out. A run either returns every
// output or an error; it never returns a partial result.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cleared-dev/glengine/internal/accounts"
	"github.com/cleared-dev/glengine/internal/aging"
	"github.com/cleared-dev/glengine/internal/apperrors"
	"github.com/cleared-dev/glengine/internal/config"
	"github.com/cleared-dev/glengine/internal/forecast"
	"github.com/cleared-dev/glengine/internal/insights"
	"github.com/cleared-dev/glengine/internal/journal"
	"github.com/cleared-dev/glengine/internal/kpi"
	"github.com/cleared-dev/glengine/internal/ledger"
	"github.com/cleared-dev/glengine/internal/model"
	"github.com/cleared-dev/glengine/internal/schema"
	"github.com/cleared-dev/glengine/internal/statements"
)

// Input is the raw tables of one run keyed by table name (see the
// schema.Table* constants). Only the chart of accounts is required.
type Input struct {
	Tables map[string]schema.RawTable
}

// Options configure a run.
type Options struct {
	Config *config.Config
	// AsOf is the cutoff date. Zero means the latest transaction date.
	AsOf time.Time
	// PeriodStart opens the income statement period. Zero means the start
	// of the fiscal year containing AsOf.
	PeriodStart time.Time
	// OnInvalidRow overrides Config.Validation.OnInvalidRow when set.
	OnInvalidRow string
	Logger       *zap.Logger
	// Clock stamps CreatedAt on journal entries. Defaults to time.Now.
	Clock func() time.Time
	// Rules defaults to insights.DefaultRegistry.
	Rules *insights.Registry
}

// Stage summarises one completed stage of a run.
type Stage struct {
	Name    string
	Details string
}

// Result is the complete output of a run.
type Result struct {
	AsOf        time.Time
	PeriodStart time.Time

	Dataset        *schema.Dataset
	Chart          *accounts.Service
	Journal        []model.JournalEntry
	Ledger         *ledger.Ledger
	TrialBalance   *ledger.TrialBalance
	Classification *statements.Classification
	Income         *statements.IncomeStatement
	Balance        *statements.BalanceSheet
	CashFlow       *statements.CashFlow
	AR             *aging.Schedule
	AP             *aging.Schedule
	KPIs           kpi.Set
	Forecast       *forecast.Result
	Insights       []insights.Flag

	// Failures are the rows skipped under the skip policy.
	Failures []apperrors.RowFailure
	// Warnings are rows that were kept but disagree with related input,
	// such as a linked cashbook row whose amount differs from the payment.
	Warnings []apperrors.RowFailure
	Stages   []Stage
}

type run struct {
	opts Options
	cfg  *config.Config
	log  *zap.Logger
	res  *Result
}

func (r *run) stage(ctx context.Context, name string, fields ...zap.Field) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	r.log.Info("stage complete", append([]zap.Field{zap.String("stage", name)}, fields...)...)
	return nil
}

func (r *run) record(name, format string, args ...any) {
	r.res.Stages = append(r.res.Stages, Stage{Name: name, Details: fmt.Sprintf(format, args...)})
}

// prepare validates the configuration and input tables and builds the
// chart of accounts. It is shared by Run and Validate.
func prepare(ctx context.Context, in Input, opts Options) (*run, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default("")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policyName := cfg.Validation.OnInvalidRow
	if opts.OnInvalidRow != "" {
		policyName = opts.OnInvalidRow
	}
	policy, err := schema.ParsePolicy(policyName)
	if err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := &run{opts: opts, cfg: cfg, log: log, res: &Result{}}

	collector := schema.NewCollector(policy, log)
	ds, err := schema.Decode(in.Tables, collector)
	if err != nil {
		return nil, fmt.Errorf("validating input: %w", err)
	}
	r.res.Dataset = ds
	r.res.Failures = collector.Failures()
	schema.SortFailures(r.res.Failures)
	if err := r.stage(ctx, "validate",
		zap.Int("accounts", len(ds.Accounts)),
		zap.Int("ar_entries", len(ds.AR)),
		zap.Int("ap_entries", len(ds.AP)),
		zap.Int("cashbook", len(ds.Cashbook)),
		zap.Int("adjustment_lines", len(ds.Adjustments)),
		zap.Int("skipped", len(r.res.Failures)),
	); err != nil {
		return nil, err
	}
	r.record("validate", "%d accounts, %d AR, %d AP, %d cashbook, %d adjustment lines, %d rows skipped",
		len(ds.Accounts), len(ds.AR), len(ds.AP), len(ds.Cashbook), len(ds.Adjustments), len(r.res.Failures))

	chart, err := accounts.NewService(ds.Accounts)
	if err != nil {
		return nil, fmt.Errorf("loading chart of accounts: %w", err)
	}
	if err := chart.ValidateMapping(cfg.Accounts); err != nil {
		return nil, fmt.Errorf("account mapping: %w", err)
	}
	r.res.Chart = chart

	classification, err := statements.Classify(chart, cfg.CashFlow)
	if err != nil {
		return nil, fmt.Errorf("cash flow classification: %w", err)
	}
	r.res.Classification = classification
	return r, nil
}

// Validate runs only the input and configuration checks of Run. It returns
// the rows that would be skipped under the skip policy.
func Validate(ctx context.Context, in Input, opts Options) ([]apperrors.RowFailure, error) {
	r, err := prepare(ctx, in, opts)
	if err != nil {
		return nil, err
	}
	return r.res.Failures, nil
}

// Run executes every stage. Any error other than a forecast with too little
// history aborts the run and no result is returned.
func Run(ctx context.Context, in Input, opts Options) (*Result, error) {
	r, err := prepare(ctx, in, opts)
	if err != nil {
		return nil, err
	}
	if err := r.books(ctx); err != nil {
		return nil, err
	}
	if err := r.financials(ctx); err != nil {
		return nil, err
	}
	if err := r.analysis(ctx); err != nil {
		return nil, err
	}
	return r.res, nil
}

// books journalizes the sources, cuts the journal at AsOf and builds the
// ledger and trial balance.
func (r *run) books(ctx context.Context) error {
	ds, res := r.res.Dataset, r.res
	j := journal.NewJournalizer(res.Chart, r.cfg.Accounts, r.opts.Clock, r.log)
	book, err := j.Journalize(journal.Sources{
		AR:          ds.AR,
		AP:          ds.AP,
		Cashbook:    ds.Cashbook,
		Adjustments: ds.Adjustments,
	})
	if err != nil {
		return fmt.Errorf("journalizing: %w", err)
	}
	res.Warnings = j.Warnings()
	all := book.Entries()
	if audit := journal.Audit(all, res.Chart); len(audit) > 0 {
		return &apperrors.ReconciliationError{Check: "journal_audit", Detail: audit[0].Error()}
	}

	res.AsOf = r.opts.AsOf
	if res.AsOf.IsZero() {
		res.AsOf = book.LatestDate()
	}
	if res.AsOf.IsZero() {
		return &apperrors.ConfigError{Field: "as_of", Reason: "no transactions to date the run from; pass an as-of date"}
	}
	res.PeriodStart = r.opts.PeriodStart
	if res.PeriodStart.IsZero() {
		if res.PeriodStart, err = r.cfg.Fiscal.PeriodStart(res.AsOf); err != nil {
			return err
		}
	}
	if res.PeriodStart.After(res.AsOf) {
		return &apperrors.ConfigError{Field: "period_start", Reason: fmt.Sprintf("%s is after as-of %s",
			res.PeriodStart.Format(schema.DateFormat), res.AsOf.Format(schema.DateFormat))}
	}

	for _, e := range all {
		if !e.Date.After(res.AsOf) {
			res.Journal = append(res.Journal, e)
		}
	}
	if err := r.stage(ctx, "journalize",
		zap.Int("entries", len(all)),
		zap.Int("posted", len(res.Journal)),
		zap.String("as_of", res.AsOf.Format(schema.DateFormat)),
	); err != nil {
		return err
	}
	r.record("journalize", "%d entries, %d dated on or before %s, %d warnings",
		len(all), len(res.Journal), res.AsOf.Format(schema.DateFormat), len(res.Warnings))

	if res.Ledger, err = ledger.Build(ctx, res.Chart, res.Journal); err != nil {
		return fmt.Errorf("building ledger: %w", err)
	}
	if err := res.Ledger.AssertClosure(); err != nil {
		return err
	}
	if res.TrialBalance, err = res.Ledger.TrialBalance(res.AsOf); err != nil {
		return err
	}
	if err := r.stage(ctx, "ledger",
		zap.Int("trial_balance_rows", len(res.TrialBalance.Rows)),
		zap.String("total_debit", res.TrialBalance.TotalDebit.StringFixed(2)),
	); err != nil {
		return err
	}
	r.record("ledger", "%d trial balance rows, debits %s, credits %s",
		len(res.TrialBalance.Rows), res.TrialBalance.TotalDebit.StringFixed(2), res.TrialBalance.TotalCredit.StringFixed(2))
	return nil
}

func (r *run) financials(ctx context.Context) error {
	res := r.res
	cogs := statements.COGSAccounts(res.Dataset.Items, r.cfg.COGSAccounts)
	res.Income = statements.Income(res.Ledger, res.PeriodStart, res.AsOf, cogs)

	var err error
	if res.Balance, err = statements.Balance(res.TrialBalance); err != nil {
		return err
	}
	if res.CashFlow, err = statements.CashFlowIndirect(res.Ledger, res.Chart, res.Classification, res.Income); err != nil {
		return err
	}
	if err := r.stage(ctx, "statements",
		zap.String("net_income", res.Income.NetIncome.StringFixed(2)),
		zap.String("total_assets", res.Balance.TotalAssets.StringFixed(2)),
		zap.String("net_change_in_cash", res.CashFlow.NetChange.StringFixed(2)),
	); err != nil {
		return err
	}
	r.record("statements", "net income %s, total assets %s, net change in cash %s",
		res.Income.NetIncome.StringFixed(2), res.Balance.TotalAssets.StringFixed(2), res.CashFlow.NetChange.StringFixed(2))

	if res.AR, err = aging.Build(ctx, model.SourceAR, res.Dataset.AR, res.AsOf); err != nil {
		return fmt.Errorf("aging receivables: %w", err)
	}
	if res.AP, err = aging.Build(ctx, model.SourceAP, res.Dataset.AP, res.AsOf); err != nil {
		return fmt.Errorf("aging payables: %w", err)
	}
	for _, s := range []*aging.Schedule{res.AR, res.AP} {
		if err := s.Reconcile(); err != nil {
			return err
		}
	}
	if err := r.stage(ctx, "aging",
		zap.Int("ar_open", len(res.AR.Details)),
		zap.Int("ap_open", len(res.AP.Details)),
	); err != nil {
		return err
	}
	r.record("aging", "%d open receivables (%s), %d open payables (%s)",
		len(res.AR.Details), res.AR.Total.StringFixed(2), len(res.AP.Details), res.AP.Total.StringFixed(2))
	return nil
}

func (r *run) analysis(ctx context.Context) error {
	res := r.res
	var inventory []int
	for _, it := range res.Dataset.Items {
		if it.InventoryAccount != 0 {
			inventory = append(inventory, it.InventoryAccount)
		}
	}
	res.KPIs = kpi.Compute(kpi.Input{
		Income:            res.Income,
		Balance:           res.Balance,
		Classification:    res.Classification,
		AR:                res.AR,
		AP:                res.AP,
		ReceivableAccount: r.cfg.Accounts.Receivable,
		PayableAccount:    r.cfg.Accounts.Payable,
		InventoryAccounts: inventory,
	})

	var history []forecast.Observation
	for _, m := range statements.MonthlyRevenue(res.Ledger, res.AsOf) {
		history = append(history, forecast.Observation{Period: m.Month, Value: m.Amount})
	}
	fc, err := forecast.Forecast(history, r.cfg.Forecast.Alpha, r.cfg.Forecast.Horizon)
	switch {
	case errors.Is(err, apperrors.ErrInsufficientHistory):
		r.log.Warn("forecast skipped", zap.Error(err))
	case err != nil:
		return fmt.Errorf("forecasting revenue: %w", err)
	}
	res.Forecast = fc

	rules := r.opts.Rules
	if rules == nil {
		rules = insights.DefaultRegistry()
	}
	res.Insights = rules.Evaluate(insights.Input{
		KPIs:       res.KPIs,
		Income:     res.Income,
		AR:         res.AR,
		AP:         res.AP,
		Forecast:   res.Forecast,
		Customers:  res.Dataset.Customers,
		Thresholds: r.cfg.Insights,
	})
	if err := r.stage(ctx, "analysis",
		zap.Int("forecast_points", len(fc.Points)),
		zap.Int("insights", len(res.Insights)),
	); err != nil {
		return err
	}
	if fc.Note != "" {
		r.record("analysis", "%d insights, forecast skipped: %s", len(res.Insights), fc.Note)
	} else {
		r.record("analysis", "%d insights, %d forecast periods", len(res.Insights), fc.Horizon)
	}
	return nil
}
