package model

import (
	"fmt"
	"strings"
)

// AccountType classifies accounts in the chart of accounts.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

// AccountTypes lists the account types in reporting order.
var AccountTypes = []AccountType{
	AccountTypeAsset,
	AccountTypeLiability,
	AccountTypeEquity,
	AccountTypeRevenue,
	AccountTypeExpense,
}

// ParseAccountType accepts "Asset", "asset", "ASSET" and so on.
func ParseAccountType(s string) (AccountType, error) {
	t := AccountType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("unknown account type %q", s)
	}
	return t, nil
}

// IsValid reports whether t is one of the five account types.
func (t AccountType) IsValid() bool {
	return t.Order() >= 0
}

// Order returns the position of t in reporting order, or -1.
func (t AccountType) Order() int {
	for i, at := range AccountTypes {
		if at == t {
			return i
		}
	}
	return -1
}

// DebitNormal reports whether balances of this type increase with debits.
func (t AccountType) DebitNormal() bool {
	return t == AccountTypeAsset || t == AccountTypeExpense
}

// IsBalanceSheet reports whether the type appears on the balance sheet.
func (t AccountType) IsBalanceSheet() bool {
	return t == AccountTypeAsset || t == AccountTypeLiability || t == AccountTypeEquity
}

// Title returns the display name, e.g. "Asset".
func (t AccountType) Title() string {
	if t == "" {
		return ""
	}
	return strings.ToUpper(string(t[:1])) + string(t[1:])
}

// Account represents a row in chart_of_accounts.csv.
type Account struct {
	ID       int         `col:"AccountID" validate:"gt=0"`
	Name     string      `col:"Name" validate:"required"`
	Type     AccountType `col:"Type" validate:"oneof=asset liability equity revenue expense"`
	ParentID int         `col:"ParentID" validate:"gte=0,nefield=ID"` // 0 = top-level
	IsActive bool        `col:"IsActive"`
}
