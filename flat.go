package pf

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

// LoadMetadata reads a flat attribute file with the default parser.
func LoadMetadata(path string) (*Metadata, error) {
	return NewParser().LoadMetadata(path)
}

// ReadMetadata reads a flat attribute stream with the default parser.
func ReadMetadata(r io.Reader) (*Metadata, error) {
	return NewParser().ParseMetadata(r, "")
}

// LoadMetadata opens path and parses it as a flat attribute stream.
func (p *Parser) LoadMetadata(path string) (*Metadata, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &LibraryError{Source: path, Msg: "cannot open attribute file", Err: err}
	}
	defer file.Close()

	return p.ParseMetadata(file, path)
}

// ParseMetadata reads "key type value" records, one per line, and puts them
// into a new store in file order. Blank and comment lines are skipped; every
// other line must be a well-formed record.
func (p *Parser) ParseMetadata(r io.Reader, name string) (*Metadata, error) {
	scanner := NewScanner(r)
	md := NewMetadata()

	for {
		lineNum, line, ok := scanner.NextLine()
		if !ok {
			break
		}
		if p.skip(line) {
			continue
		}

		key, value, err := parseRecord(line, false)
		if err != nil {
			return nil, syntaxError(name, lineNum, "", "%v", err)
		}
		md.Put(key, value)
	}

	if err := scanner.Err(); err != nil {
		return nil, &LibraryError{Source: name, Line: scanner.lineNum, Msg: "read failed", Err: err}
	}
	p.logger.Debug("attribute stream parsed", zap.String("source", name), zap.Int("attributes", md.Len()))
	return md, nil
}

// parseRecord splits a "key type value" line. With untyped set, a
// "key value" line whose second field is not a type tag is accepted and its
// kind inferred.
func parseRecord(line string, untyped bool) (string, Value, error) {
	key, rest := cutField(strings.TrimSpace(line))
	typ, raw := cutField(rest)
	raw = strings.TrimSpace(raw)

	if typ == "" {
		return "", Value{}, fmt.Errorf("malformed record %q: expected key type value", strings.TrimSpace(line))
	}

	kind, kerr := ParseKind(typ)
	if kerr != nil {
		if !untyped {
			return "", Value{}, kerr
		}
		v, err := InferValue(strings.TrimSpace(rest))
		if err != nil {
			return "", Value{}, fmt.Errorf("key %s: %w", key, err)
		}
		return key, v, nil
	}

	if raw == "" {
		if untyped {
			// "key string" with no value: the type word is the value itself.
			return key, Str(typ), nil
		}
		return "", Value{}, fmt.Errorf("malformed record %q: missing value", strings.TrimSpace(line))
	}
	v, err := ParseValue(kind, raw)
	if err != nil {
		return "", Value{}, fmt.Errorf("key %s: %w", key, err)
	}
	return key, v, nil
}

// cutField returns the first whitespace-delimited field of s and the rest.
func cutField(s string) (string, string) {
	s = strings.TrimLeft(s, " \t")
	end := strings.IndexAny(s, " \t")
	if end == -1 {
		return s, ""
	}
	return s[:end], s[end:]
}
