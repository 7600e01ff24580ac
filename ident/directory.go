package ident

import (
	"github.com/teranos/tygra/errors"
)

// Directory maps ids back to the objects that hold them.
type Directory[V any] struct {
	entries map[ID]V
}

// NewDirectory returns an empty directory.
func NewDirectory[V any]() *Directory[V] {
	return &Directory[V]{entries: make(map[ID]V)}
}

// Register binds id to v. Registering an id twice is an error.
func (d *Directory[V]) Register(id ID, v V) error {
	if id.IsZero() {
		return errors.Wrap(errors.ErrInvalidRequest, "register zero id")
	}
	if _, ok := d.entries[id]; ok {
		return errors.Wrapf(errors.ErrInvalidRequest, "id %s already registered", id)
	}
	d.entries[id] = v
	return nil
}

// Resolve returns the object bound to id.
func (d *Directory[V]) Resolve(id ID) (V, error) {
	v, ok := d.entries[id]
	if !ok {
		return v, errors.Wrapf(errors.ErrUnresolvedReference, "id %s", id)
	}
	return v, nil
}

// Unregister drops id. It reports whether id was bound.
func (d *Directory[V]) Unregister(id ID) bool {
	if _, ok := d.entries[id]; !ok {
		return false
	}
	delete(d.entries, id)
	return true
}

// Len returns the number of bound ids.
func (d *Directory[V]) Len() int {
	return len(d.entries)
}
