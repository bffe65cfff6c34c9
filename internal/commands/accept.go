package commands

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgersynth/internal/accounts"
	"github.com/cleared-dev/ledgersynth/internal/importlog"
	"github.com/cleared-dev/ledgersynth/internal/journal"
	"github.com/cleared-dev/ledgersynth/internal/stage"
)

func newAcceptCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "accept",
		Short: "Validate staged entries and append them to the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.load(cmd)
			if err != nil {
				return err
			}
			return runAccept(cmd, p)
		},
	}
}

func runAccept(cmd *cobra.Command, p *project) error {
	staged, err := stage.Load(p.path(p.cfg.StagingDir))
	if err != nil {
		return err
	}
	ds := staged.Directives()
	if len(ds) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing to accept")
		return nil
	}

	ledger, err := journal.Open(p.path(p.cfg.Ledger))
	if err != nil {
		return err
	}

	known, err := accounts.Load(filepath.Join(p.root, accountsFile))
	if err != nil {
		return err
	}
	for _, a := range staged.Accounts().All() {
		if _, err := known.Add(a.Name, a.Source); err != nil {
			return fmt.Errorf("staged account %s: %w", a.Name, err)
		}
	}

	if err := ledger.Append(ds, known); err != nil {
		return err
	}
	if err := known.Save(filepath.Join(p.root, accountsFile)); err != nil {
		return err
	}
	rendered := renderedPath(ledger.Path())
	if err := ledger.Render(rendered); err != nil {
		return err
	}
	if err := staged.Clear(); err != nil {
		return err
	}

	entry := importlog.Entry{
		Timestamp: time.Now().UTC(),
		RunID:     importlog.NewRunID(),
		Source:    "*",
		Action:    importlog.ActionAccepted,
		Details:   p.cfg.Ledger,
		Count:     len(ds),
	}
	if err := importlog.Append(p.root, []importlog.Entry{entry}); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Accepted %d entries into %s\n", len(ds), p.cfg.Ledger)

	paths := []string{p.cfg.Ledger, relTo(p.root, rendered), accountsFile, p.cfg.StagingDir, importlog.Dir}
	return p.commit(paths, fmt.Sprintf("accept: Add %d entries", len(ds)))
}

// renderedPath returns the beancount file rendered next to the ledger.
func renderedPath(ledger string) string {
	return strings.TrimSuffix(ledger, filepath.Ext(ledger)) + ".beancount"
}

func relTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}
