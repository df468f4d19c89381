// Package pf provides layered loading of parameter files.
package pf

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
)

// Table merge strategies.
const (
	TableReplace = "replace"
	TableAppend  = "append"
	TableUnique  = "unique"
)

// Layering merges a base parameter file with overlays. Scalars follow
// last-writer-wins, branches are merged recursively and tables follow the
// configured strategy.
type Layering struct {
	options LayerOptions
	parser  *Parser
	logger  *zap.Logger
}

// LayerOptions configures layering.
type LayerOptions struct {
	TableStrategy string // "replace", "append", "unique"
}

// NewLayering creates a layering with the replace strategy.
func NewLayering() *Layering {
	return &Layering{
		options: LayerOptions{TableStrategy: TableReplace},
		parser:  NewParser(),
		logger:  zap.NewNop(),
	}
}

// WithOptions sets layering options.
func (l *Layering) WithOptions(opts LayerOptions) *Layering {
	l.options = opts
	return l
}

// WithParser sets the parser used by Load.
func (l *Layering) WithParser(p *Parser) *Layering {
	l.parser = p
	return l
}

// WithLogger sets the logger for merge decisions.
func (l *Layering) WithLogger(logger *zap.Logger) *Layering {
	if logger == nil {
		logger = zap.NewNop()
	}
	l.logger = logger
	return l
}

// Load parses every path in order and layers them, the first being the base.
func (l *Layering) Load(paths ...string) (*AntelopePf, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("pf: no parameter files to layer")
	}
	layers := make([]*AntelopePf, 0, len(paths))
	for _, path := range paths {
		layer, err := l.parser.LoadPf(path)
		if err != nil {
			return nil, err
		}
		layers = append(layers, layer)
	}
	result, err := l.Apply(layers[0], layers[1:]...)
	if err != nil {
		return nil, err
	}
	result.name = filepath.Base(paths[0])
	return result, nil
}

// Apply returns base with each overlay merged on top, in order. None of the
// inputs are modified.
func (l *Layering) Apply(base *AntelopePf, overlays ...*AntelopePf) (*AntelopePf, error) {
	switch l.options.TableStrategy {
	case TableReplace, TableAppend, TableUnique:
	default:
		return nil, fmt.Errorf("pf: unknown table strategy %q", l.options.TableStrategy)
	}

	result := base.Clone()
	for _, overlay := range overlays {
		if err := l.mergeLevel(result, overlay, ""); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// mergeLevel merges overlay into dst in place. path locates the level for
// error messages.
func (l *Layering) mergeLevel(dst, overlay *AntelopePf, path string) error {
	for _, k := range overlay.md.Keys() {
		if err := l.checkSpace(dst, k, SpaceAttribute, path); err != nil {
			return err
		}
		v, _ := overlay.md.Lookup(k)
		dst.md.Put(k, v)
	}

	for _, tag := range overlay.tableOrder {
		if err := l.checkSpace(dst, tag, SpaceTable, path); err != nil {
			return err
		}
		rows := overlay.tables[tag]
		existing, exists := dst.tables[tag]
		if !exists {
			dst.tables[tag] = copyRows(rows)
			dst.tableOrder = append(dst.tableOrder, tag)
			continue
		}
		dst.tables[tag] = l.mergeRows(existing, rows)
		l.logger.Debug("table layered",
			zap.String("path", join(path, tag)),
			zap.String("strategy", l.options.TableStrategy),
			zap.Int("rows", len(dst.tables[tag])))
	}

	for _, tag := range overlay.branchOrder {
		if err := l.checkSpace(dst, tag, SpaceBranch, path); err != nil {
			return err
		}
		child := overlay.branches[tag]
		existing, exists := dst.branches[tag]
		if !exists {
			dst.branches[tag] = child.Clone()
			dst.branchOrder = append(dst.branchOrder, tag)
			continue
		}
		if err := l.mergeLevel(existing, child, join(path, tag)); err != nil {
			return err
		}
	}
	return nil
}

// checkSpace fails when tag already lives in a different namespace of dst.
func (l *Layering) checkSpace(dst *AntelopePf, tag string, space Space, path string) error {
	_, isTbl := dst.tables[tag]
	_, isBranch := dst.branches[tag]
	var prev Space
	switch {
	case dst.md.Has(tag):
		prev = SpaceAttribute
	case isTbl:
		prev = SpaceTable
	case isBranch:
		prev = SpaceBranch
	default:
		return nil
	}
	if prev == space {
		return nil
	}
	return &LibraryError{
		Source: dst.name,
		Tag:    join(path, tag),
		Msg:    fmt.Sprintf("cannot layer %s over %s", space, prev),
	}
}

// mergeRows combines table rows according to the table strategy.
func (l *Layering) mergeRows(base, overlay []string) []string {
	switch l.options.TableStrategy {
	case TableAppend:
		return append(copyRows(base), overlay...)
	case TableUnique:
		return uniqueRows(append(copyRows(base), overlay...))
	default:
		return copyRows(overlay)
	}
}

// uniqueRows keeps the first occurrence of each row.
func uniqueRows(rows []string) []string {
	seen := make(map[string]bool)
	result := []string{}
	for _, row := range rows {
		if !seen[row] {
			seen[row] = true
			result = append(result, row)
		}
	}
	return result
}

func join(path, tag string) string {
	if path == "" {
		return tag
	}
	return path + "/" + tag
}
