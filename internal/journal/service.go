package journal

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cleared-dev/ledgersynth/internal/model"
)

// Ledger is the JSONL file of accepted directives.
type Ledger struct {
	path       string
	directives []model.Directive
}

// Open reads the ledger at path. A missing file is an empty ledger.
func Open(path string) (*Ledger, error) {
	l := &Ledger{path: path}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening ledger %s: %w", path, err)
	}
	defer f.Close()

	ds, err := ReadDirectives(f)
	if err != nil {
		return nil, fmt.Errorf("reading ledger %s: %w", path, err)
	}
	l.directives = ds
	return l, nil
}

// Path returns the ledger file path.
func (l *Ledger) Path() string { return l.path }

// Directives returns every directive in file order.
func (l *Ledger) Directives() []model.Directive { return l.directives }

// Append validates ds and appends them to the ledger file.
func (l *Ledger) Append(ds []model.Directive, known AccountChecker) error {
	if verrs := Validate(ds, known); len(verrs) > 0 {
		msgs := make([]string, len(verrs))
		for i, ve := range verrs {
			msgs[i] = ve.Error()
		}
		return fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("creating ledger dir: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}
	if err := WriteDirectives(f, ds); err != nil {
		f.Close()
		return fmt.Errorf("appending directives: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing ledger: %w", err)
	}
	l.directives = append(l.directives, ds...)
	return nil
}

// Render writes the beancount rendering of the whole ledger to path.
func (l *Ledger) Render(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := Format(f, l.directives); err != nil {
		f.Close()
		return fmt.Errorf("rendering ledger: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}
