package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgersynth/internal/accounts"
	"github.com/cleared-dev/ledgersynth/internal/config"
	"github.com/cleared-dev/ledgersynth/internal/importer"
	"github.com/cleared-dev/ledgersynth/internal/journal"
)

func newCheckCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.load(cmd)
			if err != nil {
				return err
			}
			return runCheck(cmd, p)
		},
	}
}

func runCheck(cmd *cobra.Command, p *project) error {
	out := cmd.OutOrStdout()

	// Constructing every source surfaces kind-specific mapping errors.
	sources, err := importer.DefaultRegistry().Build(p.cfg, func(config.SourceConfig) importer.Env {
		return importer.EnvFor(p.cfg, p.root, nil)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Config OK: %d sources\n", len(sources))
	for _, src := range sources {
		fmt.Fprintf(out, "  %s (%s): %s\n", src.Name(), src.Kind(), strings.Join(src.Rules(), ", "))
	}

	ledger, err := journal.Open(p.path(p.cfg.Ledger))
	if err != nil {
		return err
	}
	known, err := accounts.Load(filepath.Join(p.root, accountsFile))
	if err != nil {
		return err
	}
	var checker journal.AccountChecker
	if len(known.All()) > 0 {
		checker = known
	}

	verrs := journal.Validate(ledger.Directives(), checker)
	for _, ve := range verrs {
		fmt.Fprintln(out, ve.Error())
	}
	if len(verrs) > 0 {
		return fmt.Errorf("ledger has %d violations", len(verrs))
	}
	fmt.Fprintf(out, "Ledger OK: %d entries\n", len(ledger.Directives()))
	for _, typ := range []accounts.Type{accounts.TypeAssets, accounts.TypeLiabilities, accounts.TypeEquity, accounts.TypeIncome, accounts.TypeExpenses} {
		if n := len(known.ByType(typ)); n > 0 {
			fmt.Fprintf(out, "  %s: %d accounts\n", typ, n)
		}
	}
	return nil
}
