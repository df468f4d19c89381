package pf

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrKeyNotFound is matched by a *GetError whose key is absent.
	ErrKeyNotFound = errors.New("pf: key not found")

	// ErrTypeMismatch is matched by a *GetError whose stored kind differs from
	// the requested one.
	ErrTypeMismatch = errors.New("pf: type mismatch")

	// ErrSyntax is matched by a *LibraryError raised for malformed input.
	ErrSyntax = errors.New("pf: syntax error")
)

// Space names the namespace a lookup was made in.
type Space string

const (
	SpaceAttribute Space = "attribute"
	SpaceTable     Space = "table"
	SpaceBranch    Space = "branch"
)

// GetError is returned by accessors when a key is absent or holds a value of
// a different kind than requested.
type GetError struct {
	Key   string
	Space Space
	Want  Kind // KindInvalid for table and branch lookups
	Found Kind // KindInvalid when the key is absent
}

func (e *GetError) Error() string {
	var b strings.Builder
	space := e.Space
	if space == "" {
		space = SpaceAttribute
	}
	if e.Found == KindInvalid {
		fmt.Fprintf(&b, "pf: no %s with key=%s", space, e.Key)
		if e.Want != KindInvalid {
			fmt.Fprintf(&b, " (expected an entry of type %s)", e.Want)
		}
		return b.String()
	}
	fmt.Fprintf(&b, "pf: type mismatch for key=%s: requested %s, actual entry has type %s",
		e.Key, e.Want, e.Found)
	return b.String()
}

// Unwrap lets errors.Is distinguish the two failure causes.
func (e *GetError) Unwrap() error {
	if e.Found == KindInvalid {
		return ErrKeyNotFound
	}
	return ErrTypeMismatch
}

// Missing reports whether the key was absent rather than mistyped.
func (e *GetError) Missing() bool {
	return e.Found == KindInvalid
}

// LibraryError reports malformed or unreadable input during construction.
type LibraryError struct {
	Source string // file or stream name, may be empty
	Line   int    // 1-based, 0 when not tied to a line
	Tag    string // block or key involved, may be empty
	Msg    string
	Err    error // underlying cause; ErrSyntax when nil
}

func (e *LibraryError) Error() string {
	var b strings.Builder
	b.WriteString("pf: ")
	if e.Source != "" {
		b.WriteString(e.Source)
		b.WriteString(":")
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, "%d:", e.Line)
	}
	if e.Source != "" || e.Line > 0 {
		b.WriteString(" ")
	}
	b.WriteString(e.Msg)
	if e.Tag != "" {
		fmt.Fprintf(&b, " (tag %s)", e.Tag)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *LibraryError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrSyntax
}
