package accounts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Service is the ordered set of accounts the imported entries reference.
type Service struct {
	accounts []Account
	byName   map[string]int
}

// NewService creates a Service from a slice of accounts. Later duplicates are ignored.
func NewService(accounts []Account) *Service {
	s := &Service{byName: make(map[string]int, len(accounts))}
	for _, a := range accounts {
		s.add(a)
	}
	return s
}

// Load reads an accounts CSV. A missing file yields an empty Service.
func Load(path string) (*Service, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewService(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening accounts: %w", err)
	}
	defer f.Close()

	accts, err := ReadAccounts(f)
	if err != nil {
		return nil, fmt.Errorf("reading accounts %s: %w", path, err)
	}
	return NewService(accts), nil
}

func (s *Service) add(a Account) bool {
	if _, ok := s.byName[a.Name]; ok {
		return false
	}
	s.byName[a.Name] = len(s.accounts)
	s.accounts = append(s.accounts, a)
	return true
}

// Add registers an account name for source. It reports whether the name is new.
func (s *Service) Add(name, source string) (bool, error) {
	typ, err := ParseName(name)
	if err != nil {
		return false, err
	}
	return s.add(Account{Name: name, Type: typ, Source: source}), nil
}

// All returns all accounts in insertion order.
func (s *Service) All() []Account {
	return s.accounts
}

// Get returns an account by name.
func (s *Service) Get(name string) (Account, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Account{}, false
	}
	return s.accounts[i], true
}

// Exists reports whether an account name is known.
func (s *Service) Exists(name string) bool {
	_, ok := s.byName[name]
	return ok
}

// ByType returns all accounts of the given type.
func (s *Service) ByType(t Type) []Account {
	var result []Account
	for _, a := range s.accounts {
		if a.Type == t {
			result = append(result, a)
		}
	}
	return result
}

// Save writes the accounts CSV, creating its directory.
func (s *Service) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating accounts dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating accounts file: %w", err)
	}
	if err := WriteAccounts(f, s.accounts); err != nil {
		f.Close()
		return fmt.Errorf("writing accounts: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing accounts file: %w", err)
	}
	return nil
}
