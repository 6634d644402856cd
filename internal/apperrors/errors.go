// Package apperrors defines the error taxonomy of a ledger run. Every typed
// error unwraps to one of the sentinel kinds below so callers can branch with
// errors.Is and inspect details with errors.As.
package apperrors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrSchemaValidation marks malformed or missing input fields.
	ErrSchemaValidation = errors.New("schema validation failed")
	// ErrUnmappedAccount marks a journal line whose account cannot be resolved.
	ErrUnmappedAccount = errors.New("unmapped account")
	// ErrImbalancedEntry marks a constructed journal entry whose sides differ.
	ErrImbalancedEntry = errors.New("imbalanced journal entry")
	// ErrReconciliation marks a violated ledger or statement identity.
	ErrReconciliation = errors.New("reconciliation failed")
	// ErrInsufficientHistory marks a forecast requested with too little data.
	ErrInsufficientHistory = errors.New("insufficient history")
	// ErrConfig marks invalid engine configuration.
	ErrConfig = errors.New("invalid configuration")
)

// RowFailure identifies one rejected input row.
type RowFailure struct {
	Table  string
	Row    int // 1-based data row; 0 means the table itself (e.g. header)
	Column string
	Reason string
}

func (f RowFailure) String() string {
	var b strings.Builder
	b.WriteString(f.Table)
	if f.Row > 0 {
		fmt.Fprintf(&b, " row %d", f.Row)
	}
	if f.Column != "" {
		fmt.Fprintf(&b, " column %s", f.Column)
	}
	b.WriteString(": ")
	b.WriteString(f.Reason)
	return b.String()
}

// SchemaValidationError aggregates row failures.
type SchemaValidationError struct {
	Failures []RowFailure
}

func (e *SchemaValidationError) Error() string {
	switch len(e.Failures) {
	case 0:
		return ErrSchemaValidation.Error()
	case 1:
		return fmt.Sprintf("%s: %s", ErrSchemaValidation, e.Failures[0])
	default:
		return fmt.Sprintf("%s: %s (and %d more)", ErrSchemaValidation, e.Failures[0], len(e.Failures)-1)
	}
}

func (e *SchemaValidationError) Unwrap() error { return ErrSchemaValidation }

// UnmappedAccountError reports an account that could not be resolved or used.
type UnmappedAccountError struct {
	EntryID   string // source entry id or journal entry id; empty for config checks
	AccountID int
	Category  string // mapping key or classification, e.g. "receivable", "cash_flow"
	Reason    string
}

func (e *UnmappedAccountError) Error() string {
	var b strings.Builder
	b.WriteString(ErrUnmappedAccount.Error())
	if e.EntryID != "" {
		fmt.Fprintf(&b, " [%s]", e.EntryID)
	}
	if e.Category != "" {
		fmt.Fprintf(&b, " %s", e.Category)
	}
	if e.AccountID != 0 {
		fmt.Fprintf(&b, " account %d", e.AccountID)
	}
	if e.Reason != "" {
		fmt.Fprintf(&b, ": %s", e.Reason)
	}
	return b.String()
}

func (e *UnmappedAccountError) Unwrap() error { return ErrUnmappedAccount }

// ImbalancedEntryError reports a journal entry that failed construction.
type ImbalancedEntryError struct {
	EntryID string
	Debit   decimal.Decimal
	Credit  decimal.Decimal
	Reason  string
}

func (e *ImbalancedEntryError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s [%s]: %s", ErrImbalancedEntry, e.EntryID, e.Reason)
	}
	return fmt.Sprintf("%s [%s]: debits (%s) != credits (%s)",
		ErrImbalancedEntry, e.EntryID, e.Debit.StringFixed(2), e.Credit.StringFixed(2))
}

func (e *ImbalancedEntryError) Unwrap() error { return ErrImbalancedEntry }

// ReconciliationError reports a broken identity such as ledger closure or
// assets = liabilities + equity.
type ReconciliationError struct {
	Check    string
	Expected decimal.Decimal
	Actual   decimal.Decimal
	Detail   string
}

func (e *ReconciliationError) Error() string {
	msg := fmt.Sprintf("%s: %s expected %s, got %s",
		ErrReconciliation, e.Check, e.Expected.StringFixed(2), e.Actual.StringFixed(2))
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *ReconciliationError) Unwrap() error { return ErrReconciliation }

// InsufficientHistoryError reports a forecast with fewer periods than needed.
type InsufficientHistoryError struct {
	Periods  int
	Required int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("%s: %d period(s) of history, need at least %d", ErrInsufficientHistory, e.Periods, e.Required)
}

func (e *InsufficientHistoryError) Unwrap() error { return ErrInsufficientHistory }

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrConfig, e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfig }

// IsFatal reports whether err must abort a run. Only insufficient forecast
// history is recoverable.
func IsFatal(err error) bool {
	return err != nil && !errors.Is(err, ErrInsufficientHistory)
}
