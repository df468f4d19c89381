package pf

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewParser(t *testing.T) {
	p := NewParser()
	if p == nil {
		t.Fatal("NewParser() returned nil")
	}
}

func TestParsePf_Simple(t *testing.T) {
	input := `name string John
age long 30
active bool true`

	p := NewParser()
	pf, err := p.ParsePf(strings.NewReader(input), "simple")
	if err != nil {
		t.Fatalf("ParsePf() failed: %v", err)
	}

	keys := pf.Keys()
	if diff := cmp.Diff([]string{"name", "age", "active"}, keys); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}

	age, err := pf.GetLong("age")
	if err != nil {
		t.Fatalf("GetLong(age) failed: %v", err)
	}
	if age != 30 {
		t.Errorf("Expected age 30, got %d", age)
	}

	if pf.Name() != "simple" {
		t.Errorf("Expected name 'simple', got '%s'", pf.Name())
	}
}

func TestParsePf_UntypedScalars(t *testing.T) {
	input := `count 12
ratio 0.25
enabled false
station ANMO
title "Albuquerque, New Mexico"`

	pf, err := NewParser().ParsePf(strings.NewReader(input), "")
	if err != nil {
		t.Fatalf("ParsePf() failed: %v", err)
	}

	tests := []struct {
		key  string
		kind Kind
		want any
	}{
		{"count", KindLong, int64(12)},
		{"ratio", KindDouble, 0.25},
		{"enabled", KindBool, false},
		{"station", KindString, "ANMO"},
		{"title", KindString, "Albuquerque, New Mexico"},
	}

	for _, test := range tests {
		v, ok := pf.Lookup(test.key)
		if !ok {
			t.Errorf("key %s missing", test.key)
			continue
		}
		if v.Kind() != test.kind {
			t.Errorf("key %s: expected kind %s, got %s", test.key, test.kind, v.Kind())
		}
		if v.Interface() != test.want {
			t.Errorf("key %s: expected %v, got %v", test.key, test.want, v.Interface())
		}
	}
}

func TestParsePf_Table(t *testing.T) {
	input := `Tbl items
apple
  banana split
cherry
apple
Endtbl`

	pf, err := NewParser().ParsePf(strings.NewReader(input), "")
	if err != nil {
		t.Fatalf("ParsePf() failed: %v", err)
	}

	rows, err := pf.GetTbl("items")
	if err != nil {
		t.Fatalf("GetTbl() failed: %v", err)
	}

	expected := []string{"apple", "banana split", "cherry", "apple"}
	if diff := cmp.Diff(expected, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePf_EmptyTable(t *testing.T) {
	pf, err := NewParser().ParsePf(strings.NewReader("Tbl empty\nEndtbl\n"), "")
	if err != nil {
		t.Fatalf("ParsePf() failed: %v", err)
	}
	rows, err := pf.GetTbl("empty")
	if err != nil {
		t.Fatalf("GetTbl() failed: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("Expected no rows, got %v", rows)
	}
}

func TestParsePf_NestedBranches(t *testing.T) {
	input := `top long 1
Arr outer
  outer_val double 1.5
  Branch inner
    inner_val string deep
    Tbl rows
      r1
    Endtbl
  Endbranch
Endarr
sibling bool true`

	pf, err := NewParser().ParsePf(strings.NewReader(input), "")
	if err != nil {
		t.Fatalf("ParsePf() failed: %v", err)
	}

	outer, err := pf.GetBranch("outer")
	if err != nil {
		t.Fatalf("GetBranch(outer) failed: %v", err)
	}
	if diff := cmp.Diff([]string{"outer_val"}, outer.Keys()); diff != "" {
		t.Errorf("outer keys mismatch (-want +got):\n%s", diff)
	}

	inner, err := outer.GetBranch("inner")
	if err != nil {
		t.Fatalf("GetBranch(inner) failed: %v", err)
	}
	s, err := inner.GetString("inner_val")
	if err != nil || s != "deep" {
		t.Errorf("Expected inner_val 'deep', got %q (%v)", s, err)
	}
	rows, err := inner.GetTbl("rows")
	if err != nil || len(rows) != 1 || rows[0] != "r1" {
		t.Errorf("Expected rows [r1], got %v (%v)", rows, err)
	}

	if !pf.Has("sibling") || !pf.Has("top") {
		t.Errorf("Expected top-level keys top and sibling, got %v", pf.Keys())
	}
	if outer.Has("sibling") || outer.Has("top") {
		t.Errorf("Branch leaked sibling content: %v", outer.Keys())
	}
}

func TestParsePf_AntelopeSyntax(t *testing.T) {
	input := `wavelet &Arr{
    front0 -5.0
    vector &Tbl{
        0.0
        1.0
    }
}`

	pf, err := NewParser().ParsePf(strings.NewReader(input), "")
	if err != nil {
		t.Fatalf("ParsePf() failed: %v", err)
	}
	br, err := pf.GetBranch("wavelet")
	if err != nil {
		t.Fatalf("GetBranch() failed: %v", err)
	}
	f, err := br.GetDouble("front0")
	if err != nil || f != -5.0 {
		t.Errorf("Expected front0 -5.0, got %v (%v)", f, err)
	}
	rows, err := br.GetTbl("vector")
	if err != nil {
		t.Fatalf("GetTbl() failed: %v", err)
	}
	if diff := cmp.Diff([]string{"0.0", "1.0"}, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePf_EmptyLinesAndComments(t *testing.T) {
	input := `# This is a comment
name string John

# Another comment
Tbl t
# not a row

row
Endtbl

`

	pf, err := NewParser().ParsePf(strings.NewReader(input), "")
	if err != nil {
		t.Fatalf("ParsePf() failed: %v", err)
	}
	if pf.AsMetadata().Len() != 1 {
		t.Fatalf("Expected 1 attribute, got %d", pf.AsMetadata().Len())
	}
	rows, _ := pf.GetTbl("t")
	if diff := cmp.Diff([]string{"row"}, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePf_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
		msg   string
	}{
		{"unterminated table", "Tbl t\nrow\n", 1, "unterminated table"},
		{"unterminated branch", "x long 1\nArr b\ny long 2\n", 2, "unterminated branch"},
		{"unterminated nested branch", "Arr a\nArr b\nEndarr\n", 1, "unterminated branch"},
		{"stray close", "x long 1\nEndarr\n", 2, "unexpected Endarr"},
		{"mismatched close", "Arr a\nEndbranch\n", 2, "unexpected Endbranch"},
		{"close tag inside table", "Tbl t\nEndarr\nEndtbl\n", 2, "unexpected Endarr inside table"},
		{"brace closes Tbl", "Tbl t\nrow\n}\n", 1, "unterminated table"},
		{"missing tag", "Tbl\nEndtbl\n", 1, "requires exactly one tag"},
		{"table reuses attribute", "t long 1\nTbl t\nEndtbl\n", 2, "already used as attribute"},
		{"branch reuses table", "Tbl t\nEndtbl\nArr t\nEndarr\n", 3, "already used as table"},
		{"duplicate branch", "Arr b\nEndarr\nArr b\nEndarr\n", 3, "duplicate branch"},
		{"bad value", "x long ten\n", 1, "cannot parse"},
		{"unquoted words", "x string two words\n", 1, "must be quoted"},
		{"lone key", "orphan\n", 1, "malformed record"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := NewParser().ParsePf(strings.NewReader(test.input), "bad.pf")
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			var le *LibraryError
			if !errors.As(err, &le) {
				t.Fatalf("Expected *LibraryError, got %T: %v", err, err)
			}
			if !IsSyntax(err) {
				t.Errorf("Expected ErrSyntax in chain: %v", err)
			}
			if le.Line != test.line {
				t.Errorf("Expected line %d, got %d (%v)", test.line, le.Line, err)
			}
			if !strings.Contains(err.Error(), test.msg) {
				t.Errorf("Expected message containing %q, got %q", test.msg, err.Error())
			}
			if le.Source != "bad.pf" {
				t.Errorf("Expected source bad.pf, got %q", le.Source)
			}
		})
	}
}

func TestParsePf_ScalarRedefinitionReplaces(t *testing.T) {
	pf, err := NewParser().ParsePf(strings.NewReader("x long 1\ny long 2\nx double 1.5\n"), "")
	if err != nil {
		t.Fatalf("ParsePf() failed: %v", err)
	}
	if diff := cmp.Diff([]string{"x", "y"}, pf.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	if _, err := pf.GetLong("x"); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("Expected type mismatch after redefinition, got %v", err)
	}
}

func TestParserWithCustomComment(t *testing.T) {
	p := NewParser().WithSkipComment(func(line string) bool {
		return strings.HasPrefix(strings.TrimSpace(line), "//")
	})

	input := "// comment\nx long 1\n"
	pf, err := p.ParsePf(strings.NewReader(input), "")
	if err != nil {
		t.Fatalf("ParsePf() failed: %v", err)
	}
	if pf.AsMetadata().Len() != 1 {
		t.Errorf("Expected 1 attribute, got %v", pf.Keys())
	}
}

func TestLoadPf_MissingFile(t *testing.T) {
	_, err := Load("testdata/does_not_exist.pf")
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
	var le *LibraryError
	if !errors.As(err, &le) {
		t.Fatalf("Expected *LibraryError, got %T", err)
	}
	if IsSyntax(err) {
		t.Errorf("Open failure should not be a syntax error: %v", err)
	}
}

func TestRender_ParsesBack(t *testing.T) {
	orig, err := Load("testdata/test_md.pf")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	again, err := NewParser().ParsePf(strings.NewReader(orig.String()), "rendered")
	if err != nil {
		t.Fatalf("re-parse failed: %v\n%s", err, orig.String())
	}
	if again.String() != orig.String() {
		t.Errorf("render not stable:\nfirst:\n%s\nsecond:\n%s", orig.String(), again.String())
	}
}
