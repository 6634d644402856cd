package accounts

import (
	"fmt"
	"sort"

	"github.com/cleared-dev/glengine/internal/config"
	"github.com/cleared-dev/glengine/internal/model"
)

// ValidateMapping checks the configured account routing against the chart.
// Optional mappings (tax, clearing, revenue, expense) are only checked when
// set; the journalizer reports the ones a row actually needs.
func (s *Service) ValidateMapping(m config.AccountMapping) error {
	required := []struct {
		name  string
		id    int
		types []model.AccountType
	}{
		{"receivable", m.Receivable, []model.AccountType{model.AccountTypeAsset}},
		{"payable", m.Payable, []model.AccountType{model.AccountTypeLiability}},
		{"cash", m.Cash, []model.AccountType{model.AccountTypeAsset}},
	}
	for _, r := range required {
		if err := s.Require(r.name, r.id, r.types...); err != nil {
			return err
		}
	}

	optional := []struct {
		name  string
		id    int
		types []model.AccountType
	}{
		{"tax_payable", m.TaxPayable, []model.AccountType{model.AccountTypeLiability}},
		{"tax_receivable", m.TaxReceivable, []model.AccountType{model.AccountTypeAsset}},
		{"clearing", m.Clearing, nil},
		{"revenue", m.Revenue, []model.AccountType{model.AccountTypeRevenue}},
		{"expense", m.Expense, []model.AccountType{model.AccountTypeExpense, model.AccountTypeAsset}},
	}
	for _, o := range optional {
		if o.id == 0 {
			continue
		}
		if err := s.Require(o.name, o.id, o.types...); err != nil {
			return err
		}
	}

	routes := make([]string, 0, len(m.CashbookRoutes))
	for k := range m.CashbookRoutes {
		routes = append(routes, k)
	}
	sort.Strings(routes)
	for _, k := range routes {
		if err := s.Require(fmt.Sprintf("cashbook_routes[%s]", k), m.CashbookRoutes[k]); err != nil {
			return err
		}
	}
	return nil
}
