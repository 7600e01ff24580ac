package model

import (
	"strings"

	"github.com/teranos/tygra/errors"
)

// Kind distinguishes nodes from relations.
type Kind uint8

const (
	KindNode Kind = iota
	KindRelation
)

func (k Kind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindRelation:
		return "relation"
	default:
		return "unknown"
	}
}

// RelKind distinguishes plain relations from Isa edges.
type RelKind uint8

const (
	RelPlain RelKind = iota
	RelIsa
)

func (k RelKind) String() string {
	if k == RelIsa {
		return "isa"
	}
	return "plain"
}

// PropertySet is a set of relation properties.
type PropertySet uint8

const (
	Transitive PropertySet = 1 << iota
	Symmetric
	Reflexive
)

var propertyNames = []struct {
	prop PropertySet
	name string
}{
	{Transitive, "transitive"},
	{Symmetric, "symmetric"},
	{Reflexive, "reflexive"},
}

// Has reports whether every property in q is in p.
func (p PropertySet) Has(q PropertySet) bool {
	return p&q == q
}

// Names returns the property names in a fixed order.
func (p PropertySet) Names() []string {
	var out []string
	for _, pn := range propertyNames {
		if p.Has(pn.prop) {
			out = append(out, pn.name)
		}
	}
	return out
}

func (p PropertySet) String() string {
	if p == 0 {
		return "none"
	}
	return strings.Join(p.Names(), "|")
}

// ParseProperties reads property names. Matching is case-insensitive and
// accepts the long forms ("TransitiveProperty") as well.
func ParseProperties(names ...string) (PropertySet, error) {
	var p PropertySet
	for _, raw := range names {
		for _, name := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '|' || r == ' ' }) {
			n := strings.TrimSuffix(strings.ToLower(name), "property")
			found := false
			for _, pn := range propertyNames {
				if pn.name == n {
					p |= pn.prop
					found = true
				}
			}
			if !found {
				return 0, errors.Wrapf(errors.ErrInvalidRequest, "unknown relation property %q", name)
			}
		}
	}
	return p, nil
}
