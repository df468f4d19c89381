// Package pf provides parsing for flat attribute streams and nested
// parameter files.
package pf

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Block delimiters recognized by the parameter file grammar.
const (
	markerTbl       = "Tbl"
	markerEndtbl    = "Endtbl"
	markerArr       = "Arr"
	markerEndarr    = "Endarr"
	markerBranch    = "Branch"
	markerEndbranch = "Endbranch"

	// Antelope-native forms: "tag &Tbl{" and "tag &Arr{", closed by "}".
	markerAntelopeTbl = "&Tbl{"
	markerAntelopeArr = "&Arr{"
	markerAntelopeEnd = "}"
)

const maxLineSize = 1 << 20

// Scanner wraps a bufio.Scanner and tracks line numbers.
type Scanner struct {
	*bufio.Scanner
	lineNum int
}

// NewScanner creates a new Scanner from an io.Reader.
func NewScanner(r io.Reader) *Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Scanner{
		Scanner: sc,
		lineNum: 0,
	}
}

// NextLine advances the scanner and returns the current line number and text.
func (s *Scanner) NextLine() (int, string, bool) {
	if !s.Scan() {
		return s.lineNum, "", false
	}
	s.lineNum++
	return s.lineNum, s.Text(), true
}

// Parser reads flat attribute streams and parameter files.
type Parser struct {
	skipEmptyLine func(string) bool
	skipComment   func(string) bool
	logger        *zap.Logger
}

// NewParser creates a new Parser with default configuration.
func NewParser() *Parser {
	return &Parser{
		skipEmptyLine: func(line string) bool { return strings.TrimSpace(line) == "" },
		skipComment:   func(line string) bool { return strings.HasPrefix(strings.TrimSpace(line), "#") },
		logger:        zap.NewNop(),
	}
}

// WithSkipEmptyLine configures the empty line skip function.
func (p *Parser) WithSkipEmptyLine(fn func(string) bool) *Parser {
	p.skipEmptyLine = fn
	return p
}

// WithSkipComment configures the comment skip function.
func (p *Parser) WithSkipComment(fn func(string) bool) *Parser {
	p.skipComment = fn
	return p
}

// WithLogger sets the logger used for debug tracing. nil restores the no-op
// logger.
func (p *Parser) WithLogger(l *zap.Logger) *Parser {
	if l == nil {
		l = zap.NewNop()
	}
	p.logger = l
	return p
}

func (p *Parser) skip(line string) bool {
	return p.skipEmptyLine(line) || p.skipComment(line)
}

// LoadPf opens and parses the parameter file at path. The file is closed
// before LoadPf returns.
func (p *Parser) LoadPf(path string) (*AntelopePf, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &LibraryError{Source: path, Msg: "cannot open parameter file", Err: err}
	}
	defer file.Close()

	return p.ParsePf(file, path)
}

// ParsePf parses a parameter file from r. name is used in error messages and
// as the result's Name.
func (p *Parser) ParsePf(r io.Reader, name string) (*AntelopePf, error) {
	scanner := NewScanner(r)
	pf, err := p.parseLevel(scanner, name, nil)
	if err != nil {
		return nil, err
	}
	pf.name = name
	p.logger.Debug("parameter file parsed",
		zap.String("source", name),
		zap.Int("attributes", pf.md.Len()),
		zap.Int("tables", len(pf.tableOrder)),
		zap.Int("branches", len(pf.branchOrder)))
	return pf, nil
}

// block describes an open table or branch.
type block struct {
	tag   string
	line  int
	close string
}

// parseLevel parses lines until the close marker of open, or end of input
// when open is nil.
func (p *Parser) parseLevel(scanner *Scanner, src string, open *block) (*AntelopePf, error) {
	level := newAntelopePf("")
	if open != nil {
		level.name = open.tag
	}
	spaces := make(map[string]Space)

	for {
		lineNum, line, ok := scanner.NextLine()
		if !ok {
			break
		}
		if p.skip(line) {
			continue
		}

		fields := strings.Fields(line)
		head := fields[0]

		if len(fields) == 1 && isCloseMarker(head) {
			if open == nil || head != open.close {
				return nil, syntaxError(src, lineNum, openTag(open), "unexpected %s", head)
			}
			return level, nil
		}

		if tag, closer, isTable := tableOpener(fields); isTable {
			if tag == "" {
				return nil, syntaxError(src, lineNum, "", "%s requires exactly one tag", head)
			}
			if err := claim(spaces, tag, SpaceTable); err != nil {
				return nil, syntaxError(src, lineNum, tag, "%v", err)
			}
			rows, err := p.parseTable(scanner, src, block{tag: tag, line: lineNum, close: closer})
			if err != nil {
				return nil, err
			}
			level.tables[tag] = rows
			level.tableOrder = append(level.tableOrder, tag)
			p.logger.Debug("table parsed",
				zap.String("source", src), zap.String("tag", tag),
				zap.Int("line", lineNum), zap.Int("rows", len(rows)))
			continue
		}

		if tag, closer, isBranch := branchOpener(fields); isBranch {
			if tag == "" {
				return nil, syntaxError(src, lineNum, "", "%s requires exactly one tag", head)
			}
			if err := claim(spaces, tag, SpaceBranch); err != nil {
				return nil, syntaxError(src, lineNum, tag, "%v", err)
			}
			child, err := p.parseLevel(scanner, src, &block{tag: tag, line: lineNum, close: closer})
			if err != nil {
				return nil, err
			}
			level.branches[tag] = child
			level.branchOrder = append(level.branchOrder, tag)
			p.logger.Debug("branch parsed",
				zap.String("source", src), zap.String("tag", tag), zap.Int("line", lineNum))
			continue
		}

		key, value, err := parseRecord(line, true)
		if err != nil {
			return nil, syntaxError(src, lineNum, "", "%v", err)
		}
		if err := claim(spaces, key, SpaceAttribute); err != nil {
			return nil, syntaxError(src, lineNum, key, "%v", err)
		}
		level.md.Put(key, value)
	}

	if err := scanner.Err(); err != nil {
		return nil, &LibraryError{Source: src, Line: scanner.lineNum, Tag: openTag(open), Msg: "read failed", Err: err}
	}
	if open != nil {
		return nil, syntaxError(src, open.line, open.tag, "unterminated branch, missing %s", open.close)
	}
	return level, nil
}

// parseTable collects raw rows until the table's close marker.
func (p *Parser) parseTable(scanner *Scanner, src string, tbl block) ([]string, error) {
	rows := []string{}

	for {
		lineNum, line, ok := scanner.NextLine()
		if !ok {
			break
		}
		if p.skip(line) {
			continue
		}

		row := strings.TrimSpace(line)
		if row == tbl.close {
			return rows, nil
		}
		if row != markerAntelopeEnd && isCloseMarker(row) {
			return nil, syntaxError(src, lineNum, tbl.tag, "unexpected %s inside table", row)
		}
		rows = append(rows, row)
	}

	if err := scanner.Err(); err != nil {
		return nil, &LibraryError{Source: src, Line: scanner.lineNum, Tag: tbl.tag, Msg: "read failed", Err: err}
	}
	return nil, syntaxError(src, tbl.line, tbl.tag, "unterminated table, missing %s", tbl.close)
}

func isCloseMarker(s string) bool {
	switch s {
	case markerEndtbl, markerEndarr, markerEndbranch, markerAntelopeEnd:
		return true
	}
	return false
}

// tableOpener recognizes "Tbl tag" and "tag &Tbl{". tag is empty when the
// opener is malformed.
func tableOpener(fields []string) (tag, closer string, ok bool) {
	switch {
	case fields[0] == markerTbl:
		if len(fields) == 2 {
			return fields[1], markerEndtbl, true
		}
		return "", markerEndtbl, true
	case len(fields) == 2 && fields[1] == markerAntelopeTbl:
		return fields[0], markerAntelopeEnd, true
	}
	return "", "", false
}

// branchOpener recognizes "Arr tag", "Branch tag" and "tag &Arr{".
func branchOpener(fields []string) (tag, closer string, ok bool) {
	switch fields[0] {
	case markerArr, markerBranch:
		closer = markerEndarr
		if fields[0] == markerBranch {
			closer = markerEndbranch
		}
		if len(fields) == 2 {
			return fields[1], closer, true
		}
		return "", closer, true
	}
	if len(fields) == 2 && fields[1] == markerAntelopeArr {
		return fields[0], markerAntelopeEnd, true
	}
	return "", "", false
}

// claim records that tag belongs to space at the current level. Attributes
// may repeat; tables and branches may not, and no tag may change space.
func claim(spaces map[string]Space, tag string, space Space) error {
	prev, seen := spaces[tag]
	if !seen {
		spaces[tag] = space
		return nil
	}
	if prev != space {
		return fmt.Errorf("%s tag %s already used as %s", space, tag, prev)
	}
	if space != SpaceAttribute {
		return fmt.Errorf("duplicate %s %s", space, tag)
	}
	return nil
}

func openTag(open *block) string {
	if open == nil {
		return ""
	}
	return open.tag
}

func syntaxError(src string, line int, tag, format string, args ...any) *LibraryError {
	return &LibraryError{Source: src, Line: line, Tag: tag, Msg: fmt.Sprintf(format, args...)}
}

// IsSyntax reports whether err is a structural fault caused by malformed
// input rather than an I/O failure.
func IsSyntax(err error) bool {
	return errors.Is(err, ErrSyntax)
}
