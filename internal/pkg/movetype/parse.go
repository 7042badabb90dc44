// Package movetype provides utilities for parsing Move type strings of the
// form "package::module::Struct", optionally carrying generic parameters
// ("package::module::Struct<inner>").
//
// This package is intentionally placed in internal/pkg to allow imports from
// both adapters and services without violating hexagonal architecture principles.
package movetype

import (
	"fmt"
	"strings"
)

// Type is a decomposed Move type string.
type Type struct {
	// Address is the package address segment, normalized to lowercase with a
	// 0x prefix.
	Address string

	// Module is the module segment.
	Module string

	// Name is the struct segment, with any generic parameter list removed.
	Name string

	// TypeParam is the first generic parameter, verbatim, or "" when the type
	// carries none. Nested generics are preserved unparsed.
	TypeParam string
}

// String reassembles the canonical "address::module::Name" form without
// generic parameters.
func (t Type) String() string {
	return fmt.Sprintf("%s::%s::%s", t.Address, t.Module, t.Name)
}

// Parse decomposes a Move type string into its segments.
// It fails on anything that does not have exactly three "::" separated
// segments at the top level.
func Parse(s string) (Type, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Type{}, fmt.Errorf("empty type string")
	}

	// Split off the generic parameter list before splitting on "::", so that
	// separators inside the parameter list don't produce extra segments.
	base := s
	param := ""
	if open := strings.Index(s, "<"); open >= 0 {
		if !strings.HasSuffix(s, ">") {
			return Type{}, fmt.Errorf("unterminated generic parameter list in %q", s)
		}
		base = s[:open]
		param = s[open+1 : len(s)-1]
		// Only the first top-level parameter is retained.
		if comma := topLevelComma(param); comma >= 0 {
			param = strings.TrimSpace(param[:comma])
		}
	}

	segments := strings.Split(base, "::")
	if len(segments) != 3 {
		return Type{}, fmt.Errorf("expected package::module::struct, got %q", s)
	}
	for i, seg := range segments {
		if seg == "" {
			return Type{}, fmt.Errorf("empty segment %d in type %q", i, s)
		}
	}

	return Type{
		Address:   NormalizeAddress(segments[0]),
		Module:    segments[1],
		Name:      segments[2],
		TypeParam: strings.TrimSpace(param),
	}, nil
}

// topLevelComma returns the index of the first comma not nested inside angle
// brackets, or -1.
func topLevelComma(s string) int {
	depth := 0
	for i, r := range s {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// NormalizeAddress lowercases an address segment and ensures a 0x prefix.
// Leading zeros are stripped so that "0x0000...02" and "0x2" compare equal.
func NormalizeAddress(addr string) string {
	addr = strings.ToLower(strings.TrimSpace(addr))
	addr = strings.TrimPrefix(addr, "0x")
	addr = strings.TrimLeft(addr, "0")
	if addr == "" {
		addr = "0"
	}
	return "0x" + addr
}

// Normalize parses and reassembles a type string so that equivalent
// identifiers (differing in address padding or case) compare equal.
// Generic parameters are dropped. Returns the input unchanged when it does
// not parse as a Move type.
func Normalize(s string) string {
	t, err := Parse(s)
	if err != nil {
		return s
	}
	return t.String()
}
