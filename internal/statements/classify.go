// Package statements maps ledger balances into the income statement, the
// balance sheet and the indirect cash flow statement.
package statements

import (
	"fmt"
	"sort"

	"github.com/cleared-dev/glengine/internal/apperrors"
	"github.com/cleared-dev/glengine/internal/config"
	"github.com/cleared-dev/glengine/internal/model"
)

// Section is a cash flow classification.
type Section string

const (
	SectionCash      Section = "cash"
	SectionOperating Section = "operating"
	SectionNonCash   Section = "noncash"
	SectionInvesting Section = "investing"
	SectionFinancing Section = "financing"
	SectionExcluded  Section = "excluded"
)

// Chart is the read-only chart view the statements need.
type Chart interface {
	All() []model.Account
	Get(id int) (model.Account, bool)
	Ancestors(id int) []model.Account
}

// Classification assigns every balance-sheet account a cash flow section.
type Classification struct {
	byID map[int]Section
}

// Classify resolves each asset, liability and equity account to the section
// that lists it or, failing that, its nearest listed ancestor. The result is
// total: an account that resolves to nothing is an UnmappedAccountError.
func Classify(chart Chart, cfg config.CashFlowConfig) (*Classification, error) {
	listed := make(map[int]Section)
	sections := cfg.Sections()
	names := make([]string, 0, len(sections))
	for name := range sections {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, id := range sections[name] {
			a, ok := chart.Get(id)
			if !ok {
				return nil, &apperrors.UnmappedAccountError{Category: "cash_flow", AccountID: id, Reason: fmt.Sprintf("listed in cash_flow.%s but not in chart of accounts", name)}
			}
			if !a.Type.IsBalanceSheet() {
				return nil, &apperrors.UnmappedAccountError{Category: "cash_flow", AccountID: id, Reason: fmt.Sprintf("%s account cannot be classified for cash flow", a.Type.Title())}
			}
			listed[id] = Section(name)
		}
	}

	c := &Classification{byID: make(map[int]Section)}
	for _, a := range chart.All() {
		if !a.Type.IsBalanceSheet() {
			continue
		}
		if s, ok := listed[a.ID]; ok {
			c.byID[a.ID] = s
			continue
		}
		resolved := false
		for _, p := range chart.Ancestors(a.ID) {
			if s, ok := listed[p.ID]; ok {
				c.byID[a.ID] = s
				resolved = true
				break
			}
		}
		if !resolved {
			return nil, &apperrors.UnmappedAccountError{Category: "cash_flow", AccountID: a.ID, Reason: "no cash flow section for account or its parents"}
		}
	}
	return c, nil
}

// Section returns the section of a balance-sheet account.
func (c *Classification) Section(id int) (Section, bool) {
	s, ok := c.byID[id]
	return s, ok
}

// IDs returns the accounts in a section, ordered by id.
func (c *Classification) IDs(s Section) []int {
	var ids []int
	for id, sec := range c.byID {
		if sec == s {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

// IsCurrent reports whether an account counts as current for liquidity
// ratios: cash and working-capital (operating) accounts.
func (c *Classification) IsCurrent(id int) bool {
	s := c.byID[id]
	return s == SectionCash || s == SectionOperating
}
