package record

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/PaesslerAG/jsonpath"

	"github.com/cleared-dev/ledgersynth/internal/model"
)

const jsonType = "application/json"

// Raw is one undecoded record and where it came from.
type Raw struct {
	Fields map[string]any
	Origin model.Provenance
}

// maxLine bounds a single JSONL record.
const maxLine = 4 << 20

// ReadLines reads a JSONL file, one object per line.
func ReadLines(path string) ([]Raw, error) {
	return readFile(path, func(r io.Reader, abs string) ([]Raw, error) {
		return DecodeLines(r, abs)
	})
}

// ReadDocument reads a whole JSON document. With an empty recordsPath the
// document itself is the record; otherwise recordsPath is a JSONPath selecting
// the array of records inside a container object.
func ReadDocument(path, recordsPath string) ([]Raw, error) {
	return readFile(path, func(r io.Reader, abs string) ([]Raw, error) {
		return DecodeDocument(r, abs, recordsPath)
	})
}

// ReadCSV reads a CSV file with a header row. Field names are the header cells.
func ReadCSV(path string) ([]Raw, error) {
	return readFile(path, func(r io.Reader, abs string) ([]Raw, error) {
		return DecodeCSV(r, abs)
	})
}

func readFile(path string, decode func(io.Reader, string) ([]Raw, error)) ([]Raw, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", abs, err)
	}
	defer f.Close()
	return decode(f, abs)
}

// DecodeLines decodes JSONL. Blank lines are skipped. Numbers are kept as
// json.Number so money is never routed through float64.
func DecodeLines(r io.Reader, path string) ([]Raw, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	var raws []Raw
	lno := 0
	for sc.Scan() {
		lno++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var obj map[string]any
		if err := decodeJSON(line, &obj); err != nil {
			return nil, &MalformedInputError{Path: path, Line: lno, Err: err}
		}
		if obj == nil {
			return nil, &MalformedInputError{Path: path, Line: lno, Err: fmt.Errorf("expected a JSON object")}
		}
		raws = append(raws, Raw{Fields: obj, Origin: model.Provenance{Path: path, Line: lno, Type: jsonType}})
	}
	if err := sc.Err(); err != nil {
		return nil, &MalformedInputError{Path: path, Line: lno + 1, Err: err}
	}
	return raws, nil
}

// DecodeDocument decodes a single JSON document. For container documents the
// Line of each record is its 1-based position in the selected array.
func DecodeDocument(r io.Reader, path, recordsPath string) ([]Raw, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &MalformedInputError{Path: path, Err: err}
	}
	var doc any
	if err := decodeJSON(data, &doc); err != nil {
		return nil, &MalformedInputError{Path: path, Err: err}
	}

	if recordsPath == "" {
		obj, ok := doc.(map[string]any)
		if !ok {
			return nil, &MalformedInputError{Path: path, Err: fmt.Errorf("expected a JSON object, got %T", doc)}
		}
		return []Raw{{Fields: obj, Origin: model.Provenance{Path: path, Type: jsonType}}}, nil
	}

	sel, err := jsonpath.Get(recordsPath, doc)
	if err != nil {
		return nil, &MalformedInputError{Path: path, Err: fmt.Errorf("selecting %s: %w", recordsPath, err)}
	}
	// jsonpath returns either the array itself or a one-element list wrapping it.
	list, ok := sel.([]any)
	if !ok {
		return nil, &MalformedInputError{Path: path, Err: fmt.Errorf("%s: expected an array, got %T", recordsPath, sel)}
	}
	if len(list) == 1 {
		if inner, ok := list[0].([]any); ok {
			list = inner
		}
	}

	raws := make([]Raw, 0, len(list))
	for i, v := range list {
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, &MalformedInputError{Path: path, Line: i + 1, Err: fmt.Errorf("expected a JSON object, got %T", v)}
		}
		raws = append(raws, Raw{Fields: obj, Origin: model.Provenance{Path: path, Line: i + 1, Type: jsonType}})
	}
	return raws, nil
}

// DecodeCSV decodes a CSV export. Line is the 1-based file line of the row.
func DecodeCSV(r io.Reader, path string) ([]Raw, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, &MalformedInputError{Path: path, Err: fmt.Errorf("reading CSV: %w", err)}
	}
	if len(records) <= 1 {
		return nil, nil
	}

	header := records[0]
	raws := make([]Raw, 0, len(records)-1)
	for i, rec := range records[1:] {
		fields := make(map[string]any, len(header))
		for c, name := range header {
			fields[name] = rec[c]
		}
		raws = append(raws, Raw{Fields: fields, Origin: model.Provenance{Path: path, Line: i + 2, Type: "text/csv"}})
	}
	return raws, nil
}

func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("trailing data after JSON value")
	}
	return nil
}
