package chart

import (
	"context"
	"fmt"
	"os"

	"github.com/cleared-dev/balancete/internal/model"
)

// Source lists the chart of accounts from the backing store.
type Source interface {
	ListAccounts(ctx context.Context) ([]model.Account, error)
}

// Service provides in-memory lookup over the chart of accounts.
type Service struct {
	accounts []model.Account
	byID     map[string]model.Account
	byCode   map[string]model.Account
	byName   map[string]model.Account
}

// NewService creates a Service from a slice of accounts.
func NewService(accounts []model.Account) *Service {
	s := &Service{
		accounts: accounts,
		byID:     make(map[string]model.Account, len(accounts)),
		byCode:   make(map[string]model.Account, len(accounts)),
		byName:   make(map[string]model.Account, len(accounts)),
	}
	for _, a := range accounts {
		s.byID[a.ID] = a
		s.byCode[a.Code] = a
		// Active accounts win name collisions over inactive ones.
		key := model.NormalizeName(a.Name)
		if prev, ok := s.byName[key]; !ok || (!prev.IsActive && a.IsActive) {
			s.byName[key] = a
		}
	}
	return s
}

// Load lists the chart from a store and returns a Service.
func Load(ctx context.Context, src Source) (*Service, error) {
	accts, err := src.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading chart of accounts: %w", err)
	}
	return NewService(accts), nil
}

// LoadFile reads a chart-of-accounts CSV file and returns a Service.
func LoadFile(path string) (*Service, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening chart of accounts: %w", err)
	}
	defer f.Close()

	accts, err := ReadAccounts(f)
	if err != nil {
		return nil, fmt.Errorf("reading chart of accounts: %w", err)
	}
	return NewService(accts), nil
}

// All returns all accounts.
func (s *Service) All() []model.Account {
	return s.accounts
}

// Tree builds the code hierarchy of the active accounts.
func (s *Service) Tree() *Tree {
	return Build(s.accounts)
}

// Get returns an account by ID.
func (s *Service) Get(id string) (model.Account, bool) {
	a, ok := s.byID[id]
	return a, ok
}

// Exists reports whether an account ID exists.
func (s *Service) Exists(id string) bool {
	_, ok := s.byID[id]
	return ok
}

// ByCode returns an account by its dotted code.
func (s *Service) ByCode(code string) (model.Account, bool) {
	a, ok := s.byCode[code]
	return a, ok
}

// FindByName matches an account by normalized name (case-insensitive,
// whitespace-collapsed).
func (s *Service) FindByName(name string) (model.Account, bool) {
	a, ok := s.byName[model.NormalizeName(name)]
	return a, ok
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

// Save writes the chart of accounts to a CSV file.
func (s *Service) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chart of accounts file: %w", err)
	}
	defer f.Close()

	if err := WriteAccounts(f, s.accounts); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}
	return nil
}
