package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the config file at the project root.
const FileName = "ledgersynth.yaml"

// Config represents the top-level ledgersynth.yaml configuration.
type Config struct {
	Ledger             string         `yaml:"ledger"`
	StagingDir         string         `yaml:"staging_dir"`
	Currency           string         `yaml:"currency"`
	NeedsReviewAccount string         `yaml:"needs_review_account"`
	Git                GitConfig      `yaml:"git"`
	Sources            []SourceConfig `yaml:"sources,omitempty"`
}

// SourceConfig configures one input source. Which fields apply depends on Kind.
type SourceConfig struct {
	Name        string   `yaml:"name"`
	Kind        string   `yaml:"kind"`
	File        string   `yaml:"file,omitempty"`
	Dir         string   `yaml:"dir,omitempty"`
	RecordsPath string   `yaml:"records_path,omitempty"` // JSONPath of the record array in a container document
	KeyFields   []string `yaml:"key_fields,omitempty"`

	// Accounts maps role keys (e.g. "escrow", "dividend") to ledger accounts.
	Accounts map[string]string `yaml:"accounts,omitempty"`
	// SubAccounts maps institution account identifiers to base ledger accounts.
	SubAccounts map[string]string `yaml:"sub_accounts,omitempty"`

	Rules           []RuleConfig      `yaml:"rules,omitempty"`
	BucketLevels    int               `yaml:"bucket_levels,omitempty"`
	BucketOverrides []BucketOverride  `yaml:"bucket_overrides,omitempty"`
	Categories      map[string]string `yaml:"categories,omitempty"`
}

// RuleConfig is one data-driven classification rule. Contains and Type
// must both match when both are set.
type RuleConfig struct {
	Name     string `yaml:"name"`
	Contains string `yaml:"contains,omitempty"`
	Type     string `yaml:"type,omitempty"`
	Account  string `yaml:"account"`
	Payee    string `yaml:"payee,omitempty"`
}

// BucketOverride routes items whose name contains Keyword into Bucket.
type BucketOverride struct {
	Keyword string `yaml:"keyword"`
	Bucket  string `yaml:"bucket"`
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a ledgersynth.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	return &Config{
		Ledger:             "ledger.jsonl",
		StagingDir:         "staging",
		Currency:           "USD",
		NeedsReviewAccount: "Expenses:FIXME",
		Git: GitConfig{
			AutoCommit:  false,
			AuthorName:  "ledgersynth",
			AuthorEmail: "ledgersynth@localhost",
		},
	}
}

// Path resolves p against the project root unless it is absolute.
func Path(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// Source returns the source named name.
func (c *Config) Source(name string) (SourceConfig, bool) {
	for _, s := range c.Sources {
		if s.Name == name {
			return s, true
		}
	}
	return SourceConfig{}, false
}
