package config

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/cleared-dev/ledgersynth/internal/accounts"
	"github.com/cleared-dev/ledgersynth/internal/model"
)

// ConfigurationError reports a missing or invalid mapping. It is raised
// before any record is processed, or when a record references an
// identifier with no mapping.
type ConfigurationError struct {
	Source string
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString("configuration")
	if e.Source != "" {
		fmt.Fprintf(&b, ": source %q", e.Source)
	}
	if e.Key != "" {
		fmt.Fprintf(&b, ": %s", e.Key)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	return b.String()
}

// Validate checks the settings every source kind shares.
func (c *Config) Validate() error {
	if c.Ledger == "" {
		return &ConfigurationError{Key: "ledger", Reason: "required"}
	}
	if c.StagingDir == "" {
		return &ConfigurationError{Key: "staging_dir", Reason: "required"}
	}
	if !model.IsCurrency(c.Currency) {
		return &ConfigurationError{Key: "currency", Reason: fmt.Sprintf("unknown currency code %q", c.Currency)}
	}
	if _, err := accounts.ParseName(c.NeedsReviewAccount); err != nil {
		return &ConfigurationError{Key: "needs_review_account", Reason: err.Error()}
	}

	seen := make(map[string]bool, len(c.Sources))
	for i := range c.Sources {
		s := &c.Sources[i]
		if s.Name == "" {
			return &ConfigurationError{Key: fmt.Sprintf("sources[%d].name", i), Reason: "required"}
		}
		if seen[s.Name] {
			return &ConfigurationError{Source: s.Name, Reason: "duplicate source name"}
		}
		seen[s.Name] = true
		if err := s.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (s *SourceConfig) validate() error {
	if s.Kind == "" {
		return s.errorf("kind", "required")
	}
	if (s.File == "") == (s.Dir == "") {
		return s.errorf("file", "exactly one of file or dir is required")
	}
	for _, key := range sortedKeys(s.Accounts) {
		if _, err := accounts.ParseName(s.Accounts[key]); err != nil {
			return s.errorf("accounts."+key, err.Error())
		}
	}
	for _, key := range sortedKeys(s.SubAccounts) {
		if _, err := accounts.ParseName(s.SubAccounts[key]); err != nil {
			return s.errorf("sub_accounts."+key, err.Error())
		}
	}
	for _, key := range sortedKeys(s.Categories) {
		if _, err := accounts.ParseName(s.Categories[key]); err != nil {
			return s.errorf("categories."+key, err.Error())
		}
	}
	for i, r := range s.Rules {
		key := fmt.Sprintf("rules[%d]", i)
		if r.Name == "" {
			return s.errorf(key+".name", "required")
		}
		if r.Contains == "" && r.Type == "" {
			return s.errorf(key, "one of contains or type is required")
		}
		if _, err := accounts.ParseName(r.Account); err != nil {
			return s.errorf(key+".account", err.Error())
		}
	}
	if s.BucketLevels < 0 {
		return s.errorf("bucket_levels", "must not be negative")
	}
	return nil
}

func (s *SourceConfig) errorf(key, reason string) error {
	return &ConfigurationError{Source: s.Name, Key: key, Reason: reason}
}

// RequireAccounts fails when any of the role keys has no account mapping.
func (s SourceConfig) RequireAccounts(keys ...string) error {
	var missing []string
	for _, k := range keys {
		if s.Accounts[k] == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return &ConfigurationError{Source: s.Name, Key: "accounts", Reason: "missing mappings for: " + strings.Join(missing, ", ")}
	}
	return nil
}

// RequireKeyFields fails when a configured key field is not one of known.
// An empty KeyFields list selects defaults, which are returned instead.
func (s SourceConfig) RequireKeyFields(known []string, defaults []string) ([]string, error) {
	if len(s.KeyFields) == 0 {
		return defaults, nil
	}
	for _, f := range s.KeyFields {
		if !slices.Contains(known, f) {
			return nil, &ConfigurationError{Source: s.Name, Key: "key_fields", Reason: fmt.Sprintf("unknown field %q", f)}
		}
	}
	return s.KeyFields, nil
}

// SubAccount maps an institution account identifier to its base ledger account.
func (s SourceConfig) SubAccount(id string) (string, error) {
	acct, ok := s.SubAccounts[id]
	if !ok || acct == "" {
		return "", &ConfigurationError{Source: s.Name, Key: "sub_accounts", Reason: fmt.Sprintf("no mapping for account identifier %q", id)}
	}
	return acct, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
