package pf

import (
	"fmt"
	"strings"
)

// Typedef names one attribute and the kind it must hold.
type Typedef struct {
	Tag  string
	Kind Kind
}

// MetadataList drives selective copies between stores.
type MetadataList []Typedef

// CopySelected copies the attributes named by list from in to out and returns
// how many were copied. It stops at the first attribute that is missing or
// of the wrong kind; attributes copied before the failure stay in out.
func CopySelected(in Attributes, out *Metadata, list MetadataList) (int, error) {
	count := 0
	for _, td := range list {
		v, ok := in.Lookup(td.Tag)
		if !ok {
			return count, &GetError{Key: td.Tag, Space: SpaceAttribute, Want: td.Kind}
		}
		if v.Kind() != td.Kind {
			return count, &GetError{Key: td.Tag, Space: SpaceAttribute, Want: td.Kind, Found: v.Kind()}
		}
		out.Put(td.Tag, v)
		count++
	}
	return count, nil
}

// ParseMetadataList builds a list from "name type" rows.
func ParseMetadataList(rows []string) (MetadataList, error) {
	list := make(MetadataList, 0, len(rows))
	for i, row := range rows {
		fields := strings.Fields(row)
		if len(fields) != 2 {
			return nil, fmt.Errorf("row %d: expected \"name type\", got %q", i+1, row)
		}
		kind, err := ParseKind(fields[1])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		list = append(list, Typedef{Tag: fields[0], Kind: kind})
	}
	return list, nil
}

// MetadataListFromTable reads a MetadataList from the table tagged tag.
func MetadataListFromTable(p *AntelopePf, tag string) (MetadataList, error) {
	rows, err := p.GetTbl(tag)
	if err != nil {
		return nil, err
	}
	list, err := ParseMetadataList(rows)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", tag, err)
	}
	return list, nil
}
