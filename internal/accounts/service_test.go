package accounts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/glengine/internal/apperrors"
	"github.com/cleared-dev/glengine/internal/config"
	"github.com/cleared-dev/glengine/internal/model"
)

func defaultService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(DefaultChart())
	require.NoError(t, err)
	return svc
}

func TestNewService(t *testing.T) {
	svc := defaultService(t)
	assert.Len(t, svc.All(), len(DefaultChart()))

	acct, ok := svc.Get(1100)
	assert.True(t, ok)
	assert.Equal(t, "Accounts Receivable", acct.Name)

	_, ok = svc.Get(9999)
	assert.False(t, ok)
	assert.True(t, svc.Exists(4000))
	assert.True(t, svc.IsActive(4000))
	assert.False(t, svc.IsActive(9999))
}

func TestNewServiceSortsByID(t *testing.T) {
	svc, err := NewService([]model.Account{
		{ID: 4000, Name: "Sales", Type: model.AccountTypeRevenue, IsActive: true},
		{ID: 1000, Name: "Cash", Type: model.AccountTypeAsset, IsActive: true},
	})
	require.NoError(t, err)
	all := svc.All()
	assert.Equal(t, 1000, all[0].ID)
	assert.Equal(t, 4000, all[1].ID)
}

func TestNewServiceRejectsBadCharts(t *testing.T) {
	tests := []struct {
		name   string
		chart  []model.Account
		reason string
	}{
		{
			name: "duplicate",
			chart: []model.Account{
				{ID: 1000, Name: "Cash", Type: model.AccountTypeAsset},
				{ID: 1000, Name: "Bank", Type: model.AccountTypeAsset},
			},
			reason: "account 1000: duplicate account id",
		},
		{
			name: "dangling parent",
			chart: []model.Account{
				{ID: 1010, Name: "Petty", Type: model.AccountTypeAsset, ParentID: 1000},
			},
			reason: "account 1010: parent 1000 does not exist",
		},
		{
			name: "cycle",
			chart: []model.Account{
				{ID: 1000, Name: "A", Type: model.AccountTypeAsset, ParentID: 1010},
				{ID: 1010, Name: "B", Type: model.AccountTypeAsset, ParentID: 1000},
			},
			reason: "account 1000: parent cycle 1000 -> 1010 -> 1000",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewService(tt.chart)
			var sve *apperrors.SchemaValidationError
			require.ErrorAs(t, err, &sve)
			assert.Equal(t, tt.reason, sve.Failures[0].Reason)
		})
	}
}

func TestByType(t *testing.T) {
	svc := defaultService(t)

	revenue := svc.ByType(model.AccountTypeRevenue)
	require.Len(t, revenue, 2)
	assert.Equal(t, 4000, revenue[0].ID)
	assert.Equal(t, 4100, revenue[1].ID)

	assert.Len(t, svc.ByType(model.AccountTypeEquity), 1)
}

func TestAncestors(t *testing.T) {
	svc, err := NewService([]model.Account{
		{ID: 1000, Name: "Current Assets", Type: model.AccountTypeAsset, IsActive: true},
		{ID: 1100, Name: "Bank", Type: model.AccountTypeAsset, ParentID: 1000, IsActive: true},
		{ID: 1110, Name: "Checking", Type: model.AccountTypeAsset, ParentID: 1100, IsActive: true},
	})
	require.NoError(t, err)

	anc := svc.Ancestors(1110)
	require.Len(t, anc, 2)
	assert.Equal(t, 1100, anc[0].ID)
	assert.Equal(t, 1000, anc[1].ID)
	assert.Empty(t, svc.Ancestors(1000))

	p, ok := svc.Parent(1100)
	assert.True(t, ok)
	assert.Equal(t, 1000, p.ID)
}

func TestRequire(t *testing.T) {
	svc, err := NewService([]model.Account{
		{ID: 1000, Name: "Cash", Type: model.AccountTypeAsset, IsActive: true},
		{ID: 1900, Name: "Old", Type: model.AccountTypeAsset},
	})
	require.NoError(t, err)

	assert.NoError(t, svc.Require("cash", 1000, model.AccountTypeAsset))
	assert.NoError(t, svc.Require("clearing", 1000))

	tests := []struct {
		id     int
		types  []model.AccountType
		reason string
	}{
		{0, nil, "not configured"},
		{2000, nil, "not in chart of accounts"},
		{1900, nil, "account is inactive"},
		{1000, []model.AccountType{model.AccountTypeLiability}, "account type Asset, want Liability"},
	}
	for _, tt := range tests {
		err := svc.Require("payable", tt.id, tt.types...)
		var uae *apperrors.UnmappedAccountError
		require.ErrorAs(t, err, &uae)
		assert.Equal(t, tt.reason, uae.Reason)
		assert.Equal(t, "payable", uae.Category)
	}
}

func TestValidateMapping(t *testing.T) {
	svc := defaultService(t)
	require.NoError(t, svc.ValidateMapping(config.Default("Acme").Accounts))

	m := config.Default("Acme").Accounts
	m.Receivable = 4000
	err := svc.ValidateMapping(m)
	assert.ErrorIs(t, err, apperrors.ErrUnmappedAccount)
	assert.Contains(t, err.Error(), "receivable")

	m = config.Default("Acme").Accounts
	m.CashbookRoutes = map[string]int{"landlord": 6000, "bank": 9999}
	err = svc.ValidateMapping(m)
	assert.ErrorIs(t, err, apperrors.ErrUnmappedAccount)
	assert.Contains(t, err.Error(), "cashbook_routes[bank]")

	m = config.Default("Acme").Accounts
	m.Expense = 1200
	assert.NoError(t, svc.ValidateMapping(m))
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart_of_accounts.csv")
	require.NoError(t, defaultService(t).Save(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, DefaultChart(), decodeChart(t, f))

	assert.Error(t, defaultService(t).Save(filepath.Join(t.TempDir(), "missing", "chart.csv")))
}
