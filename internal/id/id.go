// Package id composes ExternalKeys: the stable identities used to recognise
// records that were already imported.
//
// A key is "<source>:<part>|<part>|...". Parts are escaped so that any
// text round-trips through Split.
package id

import (
	"errors"
	"fmt"
	"strings"
)

const (
	sourceSep = ":"
	partSep   = '|'
	escape    = '\\'
)

// Compose returns the ExternalKey for the given source and key parts.
func Compose(source string, parts ...string) string {
	var b strings.Builder
	b.WriteString(source)
	b.WriteString(sourceSep)
	for i, p := range parts {
		if i > 0 {
			b.WriteRune(partSep)
		}
		for _, r := range p {
			if r == partSep || r == escape {
				b.WriteRune(escape)
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Split parses a key produced by Compose.
func Split(key string) (source string, parts []string, err error) {
	source, rest, ok := strings.Cut(key, sourceSep)
	if !ok || source == "" {
		return "", nil, fmt.Errorf("invalid external key %q: missing source", key)
	}

	var cur strings.Builder
	escaped := false
	for _, r := range rest {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == escape:
			escaped = true
		case r == partSep:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if escaped {
		return "", nil, errors.New("invalid external key: dangling escape")
	}
	parts = append(parts, cur.String())
	return source, parts, nil
}
