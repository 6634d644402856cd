package accounts

import "github.com/cleared-dev/glengine/internal/model"

// DefaultChart returns the starter chart written by `glengine init`. Its ids
// line up with config.Default.
func DefaultChart() []model.Account {
	return []model.Account{
		{ID: 1000, Name: "Cash", Type: model.AccountTypeAsset, IsActive: true},
		{ID: 1100, Name: "Accounts Receivable", Type: model.AccountTypeAsset, IsActive: true},
		{ID: 1150, Name: "Input Tax Receivable", Type: model.AccountTypeAsset, IsActive: true},
		{ID: 1200, Name: "Inventory", Type: model.AccountTypeAsset, IsActive: true},
		{ID: 1500, Name: "Equipment", Type: model.AccountTypeAsset, IsActive: true},
		{ID: 1510, Name: "Accumulated Depreciation", Type: model.AccountTypeAsset, ParentID: 1500, IsActive: true},
		{ID: 1999, Name: "Cashbook Clearing", Type: model.AccountTypeAsset, IsActive: true},
		{ID: 2000, Name: "Accounts Payable", Type: model.AccountTypeLiability, IsActive: true},
		{ID: 2100, Name: "Sales Tax Payable", Type: model.AccountTypeLiability, IsActive: true},
		{ID: 2500, Name: "Long-term Loan", Type: model.AccountTypeLiability, IsActive: true},
		{ID: 3000, Name: "Owner's Equity", Type: model.AccountTypeEquity, IsActive: true},
		{ID: 4000, Name: "Sales", Type: model.AccountTypeRevenue, IsActive: true},
		{ID: 4100, Name: "Service Revenue", Type: model.AccountTypeRevenue, IsActive: true},
		{ID: 5000, Name: "Cost of Goods Sold", Type: model.AccountTypeExpense, IsActive: true},
		{ID: 6000, Name: "Rent", Type: model.AccountTypeExpense, IsActive: true},
		{ID: 6100, Name: "Software", Type: model.AccountTypeExpense, IsActive: true},
		{ID: 6200, Name: "Depreciation Expense", Type: model.AccountTypeExpense, IsActive: true},
	}
}
