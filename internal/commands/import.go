package commands

import (
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgersynth/internal/config"
	"github.com/cleared-dev/ledgersynth/internal/importer"
	"github.com/cleared-dev/ledgersynth/internal/importlog"
	"github.com/cleared-dev/ledgersynth/internal/journal"
	"github.com/cleared-dev/ledgersynth/internal/logger"
	"github.com/cleared-dev/ledgersynth/internal/stage"
)

func newImportCommand(opts *rootOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import [source...]",
		Short: "Classify new records from the configured sources into staging",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.load(cmd)
			if err != nil {
				return err
			}
			return runImport(cmd, p, args, dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the staged entries without saving them")

	return cmd
}

func runImport(cmd *cobra.Command, p *project, names []string, dryRun bool) error {
	for _, n := range names {
		if _, ok := p.cfg.Source(n); !ok {
			return fmt.Errorf("unknown source %q", n)
		}
	}

	ledger, err := journal.Open(p.path(p.cfg.Ledger))
	if err != nil {
		return err
	}
	staged, err := stage.Load(p.path(p.cfg.StagingDir))
	if err != nil {
		return err
	}

	sources, err := importer.DefaultRegistry().Build(p.cfg, func(sc config.SourceConfig) importer.Env {
		return importer.EnvFor(p.cfg, p.root, logger.Status(logger.WithSource(p.log, sc.Name, sc.Kind)))
	})
	if err != nil {
		return err
	}

	runID := importlog.NewRunID()
	now := time.Now().UTC()
	var entries []importlog.Entry
	before := len(staged.Results())
	total := importer.Stats{}

	for _, src := range sources {
		if len(names) > 0 && !slices.Contains(names, src.Name()) {
			continue
		}
		// Staged-but-unaccepted entries count as known so a second import
		// before accept does not stage them twice.
		st, err := src.Prepare(importer.Union(ledger, staged), staged)
		if err != nil {
			return fmt.Errorf("importing %s: %w", src.Name(), err)
		}
		entries = append(entries, logEntries(now, runID, src.Name(), st)...)
		total.Loaded += st.Loaded
		total.Skipped += st.Skipped
		total.Excluded += st.Excluded
		total.Empty += st.Empty
		total.Staged += st.Staged
		total.Review += st.Review
	}

	if dryRun {
		return journal.FormatResults(cmd.OutOrStdout(), staged.Results()[before:])
	}

	if err := staged.Save(); err != nil {
		return err
	}
	if err := importlog.Append(p.root, entries); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Staged %d entries (%d skipped, %d for review)\n", total.Staged, total.Skipped, total.Review)

	if total.Staged == 0 {
		return nil
	}
	msg := fmt.Sprintf("import: Stage %d entries", total.Staged)
	return p.commit(append(staged.Paths(), importlog.Path(p.root)), msg)
}

func logEntries(ts time.Time, runID, source string, st importer.Stats) []importlog.Entry {
	entry := func(action string, count int, details string) importlog.Entry {
		return importlog.Entry{Timestamp: ts, RunID: runID, Source: source, Action: action, Details: details, Count: count}
	}
	out := []importlog.Entry{
		entry(importlog.ActionLoaded, st.Loaded, ""),
		entry(importlog.ActionSkipped, st.Skipped, "already in ledger"),
		entry(importlog.ActionStaged, st.Staged, ""),
	}
	if st.Excluded > 0 {
		out = append(out, entry(importlog.ActionExcluded, st.Excluded, "excluded by source"))
	}
	if st.Review > 0 {
		out = append(out, entry(importlog.ActionReview, st.Review, ""))
	}
	return out
}
