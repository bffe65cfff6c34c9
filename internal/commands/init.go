package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgersynth/internal/accounts"
	"github.com/cleared-dev/ledgersynth/internal/config"
	"github.com/cleared-dev/ledgersynth/internal/gitops"
)

// accountsFile lists every account the ledger knows about.
const accountsFile = "accounts.csv"

func newInitCommand() *cobra.Command {
	var noGit bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new ledgersynth project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd, absDir, !noGit)
		},
	}

	cmd.Flags().BoolVar(&noGit, "no-git", false, "do not initialize a git repository")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, useGit bool) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking config: %w", err)
	}

	cfg := config.Default()
	cfg.Git.AutoCommit = useGit

	for _, d := range []string{"inputs", "logs", cfg.StagingDir} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, cfg.Ledger), nil, 0o644); err != nil {
		return fmt.Errorf("writing ledger: %w", err)
	}
	if err := accounts.NewService(nil).Save(filepath.Join(dir, accountsFile)); err != nil {
		return fmt.Errorf("writing accounts: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "inputs", ".gitkeep"), nil, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	if !useGit {
		fmt.Fprintf(cmd.OutOrStdout(), "Initialized ledgersynth project at %s\n", dir)
		return nil
	}

	if err := gitops.Init(dir); err != nil {
		return err
	}
	hash, err := gitops.Commit(dir, []string{"."}, "init: Initialize ledgersynth project", cfg.Git.AuthorName, cfg.Git.AuthorEmail)
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized ledgersynth project at %s (%s)\n", dir, hash)
	return nil
}
