// Package attrs stores named attribute values that inherit along a parent
// chain.
//
// Every graph entity owns one Attributes. A lookup that misses locally asks
// the parents depth first, in declaration order. A definition may carry a
// Default, which is what descendants see in place of its Value: the root
// node declares type=true with default false, so the root is a type while
// its descendants are not until they say so.
//
// Changes are reported to the owner, which fans them out to observers and
// isa-children. Resolved values are cached; the owner invalidates the cache
// when its parent set changes.
package attrs

import (
	"maps"
	"slices"

	"github.com/teranos/tygra/errors"
)

// Kind names the value type of an attribute for editing and serialization.
type Kind string

const (
	KindString  Kind = "string"
	KindText    Kind = "text"
	KindBool    Kind = "bool"
	KindInt     Kind = "int"
	KindFloat   Kind = "float"
	KindChoices Kind = "choices"
	KindSet     Kind = "set"
)

// Definition is one locally declared attribute.
type Definition struct {
	Value      any
	Default    any
	HasDefault bool
	Kind       Kind
	// Editable is advisory, for presentation layers.
	Editable bool
	// System definitions cannot be changed through Set.
	System bool
}

// inherited returns what a descendant sees of d.
func (d *Definition) inherited() any {
	if d.HasDefault {
		return d.Default
	}
	return d.Value
}

// Owner receives change notifications from its attributes.
type Owner interface {
	NotifyAttrChanged(src *Attributes, name string, value any)
}

// Attributes is the attribute store of a single entity.
type Attributes struct {
	owner   Owner
	parents func() []*Attributes
	local   map[string]*Definition
	cache   map[string]resolved
}

type resolved struct {
	value any
	ok    bool
}

// New returns an empty store. parents may be nil for a store without
// inheritance; owner may be nil when nobody listens.
func New(owner Owner, parents func() []*Attributes) *Attributes {
	return &Attributes{
		owner:   owner,
		parents: parents,
		local:   make(map[string]*Definition),
		cache:   make(map[string]resolved),
	}
}

// Get returns the effective value of name, or nil.
func (a *Attributes) Get(name string) any {
	v, _ := a.Lookup(name)
	return v
}

// Bool reports the effective value of name as a bool. Missing or non-bool
// values are false.
func (a *Attributes) Bool(name string) bool {
	b, _ := a.Get(name).(bool)
	return b
}

// String returns the effective value of name as a string, or "".
func (a *Attributes) String(name string) string {
	s, _ := a.Get(name).(string)
	return s
}

// Lookup returns the effective value of name and whether any definition
// along the inheritance chain provides it.
func (a *Attributes) Lookup(name string) (any, bool) {
	if d, ok := a.local[name]; ok {
		return d.Value, true
	}
	if r, ok := a.cache[name]; ok {
		return r.value, r.ok
	}
	d, ok := a.inheritedDefinition(name)
	r := resolved{ok: ok}
	if ok {
		r.value = d.inherited()
	}
	a.cache[name] = r
	return r.value, r.ok
}

// Local returns the definition declared on this store itself.
func (a *Attributes) Local(name string) (Definition, bool) {
	d, ok := a.local[name]
	if !ok {
		return Definition{}, false
	}
	return *d, true
}

// Describe returns the nearest definition of name, local or inherited.
func (a *Attributes) Describe(name string) (Definition, bool) {
	if d, ok := a.local[name]; ok {
		return *d, true
	}
	d, ok := a.inheritedDefinition(name)
	if !ok {
		return Definition{}, false
	}
	return *d, true
}

// inheritedDefinition walks the parents depth first, nearest first.
func (a *Attributes) inheritedDefinition(name string) (*Definition, bool) {
	seen := map[*Attributes]bool{a: true}
	var walk func(*Attributes) (*Definition, bool)
	walk = func(s *Attributes) (*Definition, bool) {
		if s.parents == nil {
			return nil, false
		}
		for _, p := range s.parents() {
			if p == nil || seen[p] {
				continue
			}
			seen[p] = true
			if d, ok := p.local[name]; ok {
				return d, true
			}
			if d, ok := walk(p); ok {
				return d, true
			}
		}
		return nil, false
	}
	return walk(a)
}

// Set assigns a local value. If name is only inherited, the new local
// definition copies the inherited kind and default, so a value set here is
// not passed on to descendants that rely on the default. The value is
// coerced to the kind already in force; see Coerce.
func (a *Attributes) Set(name string, value any) error {
	if value == nil {
		return errors.Wrapf(errors.ErrInvalidRequest, "attribute %q: nil value", name)
	}
	if d, ok := a.local[name]; ok {
		if d.System {
			return errors.Wrapf(errors.ErrInvalidRequest, "attribute %q is a system attribute", name)
		}
		v, err := Coerce(d.Kind, value)
		if err != nil {
			return errors.Wrapf(err, "attribute %q", name)
		}
		if equal(d.Value, v) {
			return nil
		}
		d.Value = v
		a.changed(name, v)
		return nil
	}
	d := &Definition{Kind: KindOf(value), Editable: true}
	if base, ok := a.inheritedDefinition(name); ok {
		if base.System {
			return errors.Wrapf(errors.ErrInvalidRequest, "attribute %q is a system attribute", name)
		}
		d.Kind = base.Kind
		d.Default = base.Default
		d.HasDefault = base.HasDefault
		d.Editable = base.Editable
	}
	v, err := Coerce(d.Kind, value)
	if err != nil {
		return errors.Wrapf(err, "attribute %q", name)
	}
	d.Value = v
	a.local[name] = d
	a.changed(name, d.Value)
	return nil
}

// Define declares name locally with full metadata, replacing any previous
// local definition.
func (a *Attributes) Define(name string, def Definition) error {
	if def.Value == nil {
		return errors.Wrapf(errors.ErrInvalidRequest, "attribute %q: nil value", name)
	}
	if def.Kind == "" {
		def.Kind = KindOf(def.Value)
	}
	v, err := Coerce(def.Kind, def.Value)
	if err != nil {
		return errors.Wrapf(err, "attribute %q", name)
	}
	def.Value = v
	if def.HasDefault {
		if def.Default, err = Coerce(def.Kind, def.Default); err != nil {
			return errors.Wrapf(err, "default of attribute %q", name)
		}
	}
	a.local[name] = &def
	a.changed(name, def.Value)
	return nil
}

// Delete removes the local definition of name and reports whether there
// was one. The owner is told the value that now shows through, which is nil
// when nothing is inherited either.
func (a *Attributes) Delete(name string) bool {
	if _, ok := a.local[name]; !ok {
		return false
	}
	delete(a.local, name)
	delete(a.cache, name)
	a.changed(name, a.Get(name))
	return true
}

// Keys returns every attribute name visible here, local or inherited, sorted.
func (a *Attributes) Keys() []string {
	names := make(map[string]struct{})
	seen := map[*Attributes]bool{}
	var walk func(*Attributes)
	walk = func(s *Attributes) {
		if seen[s] {
			return
		}
		seen[s] = true
		for k := range s.local {
			names[k] = struct{}{}
		}
		if s.parents == nil {
			return
		}
		for _, p := range s.parents() {
			if p != nil {
				walk(p)
			}
		}
	}
	walk(a)
	return slices.Sorted(maps.Keys(names))
}

// LocalKeys returns the locally declared names, sorted.
func (a *Attributes) LocalKeys() []string {
	return slices.Sorted(maps.Keys(a.local))
}

// Ping drops the cached resolution of name and returns the fresh value.
func (a *Attributes) Ping(name string) any {
	delete(a.cache, name)
	return a.Get(name)
}

// InvalidateAll drops every cached resolution.
func (a *Attributes) InvalidateAll() {
	clear(a.cache)
}

func (a *Attributes) changed(name string, value any) {
	delete(a.cache, name)
	if a.owner != nil {
		a.owner.NotifyAttrChanged(a, name, value)
	}
}

// Entry is a named local definition, the unit of persistence.
type Entry struct {
	Name string
	Definition
}

// Entries returns the local definitions sorted by name.
func (a *Attributes) Entries() []Entry {
	out := make([]Entry, 0, len(a.local))
	for _, k := range a.LocalKeys() {
		out = append(out, Entry{Name: k, Definition: *a.local[k]})
	}
	return out
}

// Restore installs entries without notifying the owner. Loaders use it
// before the owner is wired into a graph.
func (a *Attributes) Restore(entries []Entry) {
	for _, e := range entries {
		d := e.Definition
		if d.Kind == "" {
			d.Kind = KindOf(d.Value)
		}
		a.local[e.Name] = &d
	}
	a.InvalidateAll()
}
