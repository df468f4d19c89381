package pf

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// MarshalYAML renders the store as a mapping in iteration order with each
// value carrying its YAML core tag.
func (m *Metadata) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	appendScalars(node, m)
	return node, nil
}

// UnmarshalYAML fills the store from a mapping of scalars. Integers, floats,
// booleans and strings map to long, double, bool and string.
func (m *Metadata) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("pf: line %d: expected a mapping of attributes", value.Line)
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		keyNode, valNode := value.Content[i], value.Content[i+1]
		v, err := valueFromNode(valNode)
		if err != nil {
			return fmt.Errorf("pf: line %d: key %s: %w", valNode.Line, keyNode.Value, err)
		}
		m.Put(keyNode.Value, v)
	}
	return nil
}

// MarshalYAML renders scalars, then tables as sequences, then branches as
// nested mappings.
func (p *AntelopePf) MarshalYAML() (any, error) {
	return p.yamlNode(), nil
}

func (p *AntelopePf) yamlNode() *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode}
	appendScalars(node, p.md)
	for _, tag := range p.tableOrder {
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, row := range p.tables[tag] {
			seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: row})
		}
		node.Content = append(node.Content, keyNode(tag), seq)
	}
	for _, tag := range p.branchOrder {
		node.Content = append(node.Content, keyNode(tag), p.branches[tag].yamlNode())
	}
	return node
}

func appendScalars(node *yaml.Node, m *Metadata) {
	for _, k := range m.Keys() {
		v, _ := m.Lookup(k)
		node.Content = append(node.Content, keyNode(k), scalarNode(v))
	}
}

func keyNode(key string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
}

func scalarNode(v Value) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode}
	switch v.kind {
	case KindLong:
		n.Tag, n.Value = "!!int", strconv.FormatInt(v.longVal, 10)
	case KindDouble:
		n.Tag, n.Value = "!!float", yamlFloat(v.doubleVal)
	case KindBool:
		n.Tag, n.Value = "!!bool", strconv.FormatBool(v.boolVal)
	default:
		n.Tag, n.Value = "!!str", v.strVal
	}
	return n
}

// yamlFloat keeps a decimal point so the value resolves as a float without an
// explicit tag.
func yamlFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	case math.IsNaN(f):
		return ".nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func valueFromNode(n *yaml.Node) (Value, error) {
	if n.Kind != yaml.ScalarNode {
		return Value{}, fmt.Errorf("only scalar values are supported")
	}
	switch n.ShortTag() {
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return Value{}, err
		}
		return Long(i), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return Value{}, err
		}
		return Double(f), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return Value{}, err
		}
		return Bool(b), nil
	case "!!str":
		return Str(n.Value), nil
	default:
		return Value{}, fmt.Errorf("unsupported YAML tag %s", n.ShortTag())
	}
}
