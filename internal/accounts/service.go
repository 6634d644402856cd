package accounts

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/cleared-dev/glengine/internal/apperrors"
	"github.com/cleared-dev/glengine/internal/model"
	"github.com/cleared-dev/glengine/internal/schema"
)

// Service provides read-only lookup over the chart of accounts. It is built
// once per run and shared by every stage.
type Service struct {
	accounts []model.Account
	byID     map[int]model.Account
}

// NewService indexes accounts, sorted by id. It rejects duplicate ids,
// parents that do not exist and parent cycles.
func NewService(accounts []model.Account) (*Service, error) {
	sorted := append([]model.Account(nil), accounts...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	byID := make(map[int]model.Account, len(sorted))
	var failures []apperrors.RowFailure
	for _, a := range sorted {
		if _, dup := byID[a.ID]; dup {
			failures = append(failures, chartFailure(a.ID, "AccountID", "duplicate account id"))
			continue
		}
		byID[a.ID] = a
	}
	s := &Service{accounts: sorted, byID: byID}

	for _, a := range sorted {
		if a.ParentID == 0 {
			continue
		}
		if _, ok := byID[a.ParentID]; !ok {
			failures = append(failures, chartFailure(a.ID, "ParentID", fmt.Sprintf("parent %d does not exist", a.ParentID)))
			continue
		}
		if cycle := s.cycleFrom(a.ID); cycle != nil {
			failures = append(failures, chartFailure(a.ID, "ParentID", "parent cycle "+formatChain(cycle)))
		}
	}
	if len(failures) > 0 {
		return nil, &apperrors.SchemaValidationError{Failures: failures}
	}
	return s, nil
}

func chartFailure(id int, col, reason string) apperrors.RowFailure {
	return apperrors.RowFailure{Table: schema.TableAccounts, Column: col, Reason: fmt.Sprintf("account %d: %s", id, reason)}
}

// cycleFrom follows parent links from id and returns the chain if it loops
// back on itself.
func (s *Service) cycleFrom(id int) []int {
	seen := map[int]bool{id: true}
	chain := []int{id}
	for cur := s.byID[id].ParentID; cur != 0; cur = s.byID[cur].ParentID {
		chain = append(chain, cur)
		if seen[cur] {
			return chain
		}
		seen[cur] = true
	}
	return nil
}

func formatChain(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, " -> ")
}

// Save writes the chart of accounts to path.
func (s *Service) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chart of accounts file: %w", err)
	}
	defer f.Close()

	if err := WriteAccounts(f, s.accounts); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}
	return f.Close()
}

// All returns all accounts ordered by id.
func (s *Service) All() []model.Account {
	return append([]model.Account(nil), s.accounts...)
}

// Get returns an account by ID.
func (s *Service) Get(id int) (model.Account, bool) {
	a, ok := s.byID[id]
	return a, ok
}

// Exists reports whether an account ID exists.
func (s *Service) Exists(id int) bool {
	_, ok := s.byID[id]
	return ok
}

// IsActive reports whether id exists and is active.
func (s *Service) IsActive(id int) bool {
	a, ok := s.byID[id]
	return ok && a.IsActive
}

// ByType returns all accounts of the given type.
func (s *Service) ByType(accountType model.AccountType) []model.Account {
	var result []model.Account
	for _, a := range s.accounts {
		if a.Type == accountType {
			result = append(result, a)
		}
	}
	return result
}

// Parent returns the parent of id, if it has one.
func (s *Service) Parent(id int) (model.Account, bool) {
	a, ok := s.byID[id]
	if !ok || a.ParentID == 0 {
		return model.Account{}, false
	}
	return s.Get(a.ParentID)
}

// Ancestors returns the parent chain of id, nearest first.
func (s *Service) Ancestors(id int) []model.Account {
	var out []model.Account
	seen := map[int]bool{id: true}
	for p, ok := s.Parent(id); ok && !seen[p.ID]; p, ok = s.Parent(p.ID) {
		seen[p.ID] = true
		out = append(out, p)
	}
	return out
}

// Require checks that id exists, is active and, when types are given, has
// one of them. category names the mapping being checked.
func (s *Service) Require(category string, id int, types ...model.AccountType) error {
	if id == 0 {
		return &apperrors.UnmappedAccountError{Category: category, Reason: "not configured"}
	}
	a, ok := s.byID[id]
	if !ok {
		return &apperrors.UnmappedAccountError{Category: category, AccountID: id, Reason: "not in chart of accounts"}
	}
	if !a.IsActive {
		return &apperrors.UnmappedAccountError{Category: category, AccountID: id, Reason: "account is inactive"}
	}
	if len(types) == 0 {
		return nil
	}
	for _, t := range types {
		if a.Type == t {
			return nil
		}
	}
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.Title()
	}
	return &apperrors.UnmappedAccountError{
		Category:  category,
		AccountID: id,
		Reason:    fmt.Sprintf("account type %s, want %s", a.Type.Title(), strings.Join(names, " or ")),
	}
}
