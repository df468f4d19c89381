package pf

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// WriteTo writes one "key<TAB>type<TAB>value" line per attribute in
// iteration order.
func (m *Metadata) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for _, k := range m.Keys() {
		v := m.values[k]
		c, err := fmt.Fprintf(bw, "%s\t%s\t%s\n", k, v.kind, v)
		n += int64(c)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// String renders the store for diagnostics.
func (m *Metadata) String() string {
	var b strings.Builder
	_, _ = m.WriteTo(&b)
	return b.String()
}

// String renders the parameter file in the Tbl/Arr block syntax. The output
// parses back into an equal AntelopePf.
func (p *AntelopePf) String() string {
	var b strings.Builder
	p.render(&b, 0)
	return b.String()
}

func (p *AntelopePf) render(b *strings.Builder, depth int) {
	indent := strings.Repeat("\t", depth)
	for _, k := range p.md.Keys() {
		v, _ := p.md.Lookup(k)
		fmt.Fprintf(b, "%s%s %s %s\n", indent, k, v.kind, v)
	}
	for _, tag := range p.tableOrder {
		fmt.Fprintf(b, "%s%s %s\n", indent, markerTbl, tag)
		for _, row := range p.tables[tag] {
			fmt.Fprintf(b, "%s\t%s\n", indent, row)
		}
		fmt.Fprintf(b, "%s%s\n", indent, markerEndtbl)
	}
	for _, tag := range p.branchOrder {
		fmt.Fprintf(b, "%s%s %s\n", indent, markerArr, tag)
		p.branches[tag].render(b, depth+1)
		fmt.Fprintf(b, "%s%s\n", indent, markerEndarr)
	}
}
