// Package ident hands out hierarchical identifiers and resolves them back to
// the objects they name.
//
// An ID pairs the address of the allocating server (its scope) with a local
// integer. The string form nests the scope inside the local id, so the 57th
// object allocated by server "0,1" prints as "(0,1,57)".
package ident

import (
	"cmp"
	"strconv"
	"strings"

	"github.com/teranos/tygra/errors"
)

// ID is a hierarchical identifier. The zero ID is invalid.
type ID struct {
	Scope string
	Local int
}

// IsZero reports whether id was never assigned.
func (id ID) IsZero() bool {
	return id.Scope == "" && id.Local == 0
}

func (id ID) String() string {
	if id.Scope == "" {
		return "(" + strconv.Itoa(id.Local) + ")"
	}
	return "(" + id.Scope + "," + strconv.Itoa(id.Local) + ")"
}

// Compare orders ids by scope, then by local id.
func Compare(a, b ID) int {
	if c := strings.Compare(a.Scope, b.Scope); c != 0 {
		return c
	}
	return cmp.Compare(a.Local, b.Local)
}

// MarshalText encodes the id in its string form.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText decodes the string form produced by MarshalText.
func (id *ID) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Parse reads an id of the form "(0,1,57)". The parentheses are optional.
func Parse(s string) (ID, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	if s == "" {
		return ID{}, errors.Wrap(errors.ErrInvalidRequest, "empty id")
	}
	scope := ""
	local := s
	if i := strings.LastIndexByte(s, ','); i >= 0 {
		scope, local = s[:i], s[i+1:]
		for _, part := range strings.Split(scope, ",") {
			if _, err := strconv.Atoi(strings.TrimSpace(part)); err != nil {
				return ID{}, errors.Wrapf(errors.ErrInvalidRequest, "id %q: bad scope component %q", s, part)
			}
		}
		scope = strings.ReplaceAll(scope, " ", "")
	}
	n, err := strconv.Atoi(strings.TrimSpace(local))
	if err != nil {
		return ID{}, errors.Wrapf(errors.ErrInvalidRequest, "id %q: bad local component", s)
	}
	if n < 0 {
		return ID{}, errors.Wrapf(errors.ErrInvalidRequest, "id %q: negative local component", s)
	}
	return ID{Scope: scope, Local: n}, nil
}

// MustParse is Parse for ids known to be well formed, such as literals in tests.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}
