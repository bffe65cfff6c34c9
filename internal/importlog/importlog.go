// Package importlog keeps an append-only CSV audit trail of import runs.
package importlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Actions recorded in the log.
const (
	ActionLoaded   = "loaded"
	ActionSkipped  = "skipped"
	ActionExcluded = "excluded"
	ActionStaged   = "staged"
	ActionReview   = "needs_review"
	ActionAccepted = "accepted"
)

// Entry is one row in the import log.
type Entry struct {
	Timestamp time.Time
	RunID     string
	Source    string
	Action    string
	Details   string
	Count     int
}

// Header is the CSV header for import-log.csv.
const Header = "timestamp,run_id,source,action,details,count"

// Dir is the log directory, relative to the project root.
const Dir = "logs"

const (
	numFields    = 6
	logFile      = "logs/import-log.csv"
	colTimestamp = 0
	colRunID     = 1
	colSource    = 2
	colAction    = 3
	colDetails   = 4
	colCount     = 5
)

// NewRunID returns a fresh identifier grouping the rows of one run.
func NewRunID() string {
	return uuid.NewString()
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colRunID] = e.RunID
	row[colSource] = e.Source
	row[colAction] = e.Action
	row[colDetails] = e.Details
	row[colCount] = strconv.Itoa(e.Count)
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	if _, err := uuid.Parse(record[colRunID]); err != nil {
		return Entry{}, fmt.Errorf("parsing run_id %q: %w", record[colRunID], err)
	}
	count, err := strconv.Atoi(record[colCount])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing count %q: %w", record[colCount], err)
	}

	return Entry{
		Timestamp: ts,
		RunID:     record[colRunID],
		Source:    record[colSource],
		Action:    record[colAction],
		Details:   record[colDetails],
		Count:     count,
	}, nil
}

// Path returns the log file location under root.
func Path(root string) string {
	return filepath.Join(root, logFile)
}

// Append writes entries to <root>/logs/import-log.csv, creating the file and header if needed.
func Append(root string, entries []Entry) error {
	dir := filepath.Join(root, Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := Path(root)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening import log: %w", err)
	}
	if err := writeEntries(f, entries, needsHeader); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing import log: %w", err)
	}
	return nil
}

func writeEntries(w io.Writer, entries []Entry, header bool) error {
	cw := csv.NewWriter(w)
	if header {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("writing import log: %w", err)
	}
	return nil
}

// Read returns all entries from <root>/logs/import-log.csv.
// Returns an empty slice if the file does not exist.
func Read(root string) ([]Entry, error) {
	f, err := os.Open(Path(root))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening import log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading import log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
