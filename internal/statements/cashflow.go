package statements

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/glengine/internal/apperrors"
	"github.com/cleared-dev/glengine/internal/ledger"
)

// CashFlowLine is one account's cash effect over the period.
type CashFlowLine struct {
	Section   Section
	AccountID int
	Name      string
	Amount    decimal.Decimal
}

// CashFlow is the indirect cash flow statement for [PeriodStart, AsOf].
type CashFlow struct {
	PeriodStart time.Time
	AsOf        time.Time

	NetIncome      decimal.Decimal
	NonCash        []CashFlowLine
	WorkingCapital []CashFlowLine
	Investing      []CashFlowLine
	Financing      []CashFlowLine

	NetOperating decimal.Decimal
	NetInvesting decimal.Decimal
	NetFinancing decimal.Decimal
	NetChange    decimal.Decimal
	OpeningCash  decimal.Decimal
	ClosingCash  decimal.Decimal
}

// CashFlowIndirect starts from the period's net income and explains the
// change in cash through the change of every other balance-sheet account
// between the day before the period and AsOf. The cash effect of a
// non-cash account is the negated change of its debit-minus-credit balance.
// Excluded accounts must not move in the period, and the explained change
// must equal the actual change in cash.
func CashFlowIndirect(l *ledger.Ledger, chart Chart, c *Classification, is *IncomeStatement) (*CashFlow, error) {
	opening, err := l.TrialBalance(is.PeriodStart.AddDate(0, 0, -1))
	if err != nil {
		return nil, fmt.Errorf("opening trial balance: %w", err)
	}
	closing, err := l.TrialBalance(is.AsOf)
	if err != nil {
		return nil, fmt.Errorf("closing trial balance: %w", err)
	}

	cf := &CashFlow{
		PeriodStart: is.PeriodStart,
		AsOf:        is.AsOf,
		NetIncome:   is.NetIncome,
		OpeningCash: decimal.Zero,
		ClosingCash: decimal.Zero,
	}
	for _, id := range c.IDs(SectionCash) {
		cf.OpeningCash = cf.OpeningCash.Add(opening.Raw(id))
		cf.ClosingCash = cf.ClosingCash.Add(closing.Raw(id))
	}

	for _, a := range chart.All() {
		if !a.Type.IsBalanceSheet() {
			continue
		}
		section, _ := c.Section(a.ID)
		if section == SectionCash {
			continue
		}
		delta := closing.Raw(a.ID).Sub(opening.Raw(a.ID))
		if delta.IsZero() {
			continue
		}
		if section == SectionExcluded {
			return nil, &apperrors.ReconciliationError{
				Check:    "cash_flow_excluded",
				Expected: decimal.Zero,
				Actual:   delta,
				Detail:   fmt.Sprintf("excluded account %d (%s) changed during the period", a.ID, a.Name),
			}
		}
		line := CashFlowLine{Section: section, AccountID: a.ID, Name: a.Name, Amount: delta.Neg()}
		switch section {
		case SectionNonCash:
			cf.NonCash = append(cf.NonCash, line)
		case SectionOperating:
			cf.WorkingCapital = append(cf.WorkingCapital, line)
		case SectionInvesting:
			cf.Investing = append(cf.Investing, line)
		case SectionFinancing:
			cf.Financing = append(cf.Financing, line)
		}
	}

	cf.NetOperating = cf.NetIncome.Add(sumFlow(cf.NonCash)).Add(sumFlow(cf.WorkingCapital))
	cf.NetInvesting = sumFlow(cf.Investing)
	cf.NetFinancing = sumFlow(cf.Financing)
	cf.NetChange = cf.NetOperating.Add(cf.NetInvesting).Add(cf.NetFinancing)

	if actual := cf.ClosingCash.Sub(cf.OpeningCash); !cf.NetChange.Equal(actual) {
		return nil, &apperrors.ReconciliationError{
			Check:    "cash_flow",
			Expected: actual,
			Actual:   cf.NetChange,
			Detail:   "net change does not explain the change in cash",
		}
	}
	return cf, nil
}

func sumFlow(lines []CashFlowLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Amount)
	}
	return total
}
