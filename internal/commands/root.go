package commands

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgersynth/internal/buildinfo"
	"github.com/cleared-dev/ledgersynth/internal/config"
	"github.com/cleared-dev/ledgersynth/internal/gitops"
	"github.com/cleared-dev/ledgersynth/internal/logger"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	dir     string
	verbose bool
}

// project is a loaded, validated ledgersynth project.
type project struct {
	root string
	cfg  *config.Config
	log  zerolog.Logger
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:     "ledgersynth",
		Short:   "Turn institution exports into reviewable ledger entries",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.dir, "dir", ".", "project directory")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newImportCommand(opts))
	rootCmd.AddCommand(newAcceptCommand(opts))
	rootCmd.AddCommand(newCheckCommand(opts))

	return rootCmd
}

// load reads and validates the project configuration.
func (o *rootOptions) load(cmd *cobra.Command) (*project, error) {
	root, err := filepath.Abs(o.dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	cfg, err := config.Load(filepath.Join(root, config.FileName))
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &project{
		root: root,
		cfg:  cfg,
		log:  logger.New(cmd.ErrOrStderr(), o.verbose),
	}, nil
}

func (p *project) path(rel string) string { return config.Path(p.root, rel) }

// commit records paths in git when auto-commit is enabled.
func (p *project) commit(paths []string, message string) error {
	if !p.cfg.Git.AutoCommit {
		return nil
	}
	hash, err := gitops.Commit(p.root, paths, message, p.cfg.Git.AuthorName, p.cfg.Git.AuthorEmail)
	if err != nil {
		return fmt.Errorf("auto-commit: %w", err)
	}
	if hash != "" {
		p.log.Debug().Str("commit", hash).Msg(message)
	}
	return nil
}
