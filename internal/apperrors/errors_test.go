package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelUnwrap(t *testing.T) {
	tests := []struct {
		err  error
		kind error
	}{
		{&SchemaValidationError{}, ErrSchemaValidation},
		{&UnmappedAccountError{EntryID: "AR-1"}, ErrUnmappedAccount},
		{&ImbalancedEntryError{EntryID: "2025-01-001"}, ErrImbalancedEntry},
		{&ReconciliationError{Check: "ledger_closure"}, ErrReconciliation},
		{&InsufficientHistoryError{Periods: 1, Required: 2}, ErrInsufficientHistory},
		{&ConfigError{Field: "forecast.alpha"}, ErrConfig},
	}
	for _, tt := range tests {
		wrapped := fmt.Errorf("stage: %w", tt.err)
		assert.ErrorIs(t, wrapped, tt.kind, "%T", tt.err)
	}
}

func TestErrorsAs(t *testing.T) {
	err := fmt.Errorf("journalizing: %w", &UnmappedAccountError{EntryID: "AR-7", Category: "tax_payable", Reason: "not configured"})

	var unmapped *UnmappedAccountError
	require.True(t, errors.As(err, &unmapped))
	assert.Equal(t, "AR-7", unmapped.EntryID)
	assert.Contains(t, err.Error(), "[AR-7] tax_payable: not configured")
}

func TestImbalancedMessage(t *testing.T) {
	err := &ImbalancedEntryError{
		EntryID: "2025-01-001",
		Debit:   decimal.RequireFromString("100"),
		Credit:  decimal.RequireFromString("99.5"),
	}
	assert.Equal(t, "imbalanced journal entry [2025-01-001]: debits (100.00) != credits (99.50)", err.Error())
}

func TestSchemaValidationMessage(t *testing.T) {
	err := &SchemaValidationError{Failures: []RowFailure{
		{Table: "ar_entries", Row: 3, Column: "DueDate", Reason: "missing required value"},
		{Table: "ar_entries", Row: 5, Column: "Amount", Reason: "negative"},
	}}
	assert.Equal(t, "schema validation failed: ar_entries row 3 column DueDate: missing required value (and 1 more)", err.Error())
}

func TestIsFatal(t *testing.T) {
	assert.False(t, IsFatal(nil))
	assert.False(t, IsFatal(&InsufficientHistoryError{Periods: 1, Required: 2}))
	assert.True(t, IsFatal(&ReconciliationError{Check: "balance_sheet"}))
	assert.True(t, IsFatal(errors.New("boom")))
}
