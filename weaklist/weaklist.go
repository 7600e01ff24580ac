// Package weaklist provides an ordered list that does not keep its elements
// alive.
//
// Each element is held through a weak pointer. When an element is garbage
// collected it silently drops out of iteration, and a runtime cleanup marks
// the list dirty so that the next Flush compacts it. Lists of interface
// values (observers, say) are built with AppendAs, which stores a weak
// pointer to the concrete value together with a view function that turns
// it back into the interface on every access.
//
// A List is not safe for concurrent use. The dirty flag is the only state
// touched off the owning goroutine.
package weaklist

import (
	"iter"
	"runtime"
	"slices"
	"sync/atomic"
	"weak"
)

type entry[V comparable] struct {
	get     func() (V, bool)
	cleanup runtime.Cleanup
}

// List is an ordered sequence of weakly held values. The zero List is empty
// and ready to use.
type List[V comparable] struct {
	entries []entry[V]
	// dirty is allocated separately so that a pending cleanup pins only the
	// flag, never the struct that embeds the list.
	dirty *atomic.Bool
}

func (l *List[V]) flag() *atomic.Bool {
	if l.dirty == nil {
		l.dirty = new(atomic.Bool)
	}
	return l.dirty
}

func markDirty(d *atomic.Bool) { d.Store(true) }

func newEntry[E any, V comparable](l *List[V], p *E, view func(*E) V) (entry[V], bool) {
	if p == nil {
		return entry[V]{}, false
	}
	wp := weak.Make(p)
	e := entry[V]{
		get: func() (V, bool) {
			if s := wp.Value(); s != nil {
				return view(s), true
			}
			var zero V
			return zero, false
		},
	}
	e.cleanup = runtime.AddCleanup(p, markDirty, l.flag())
	return e, true
}

func identity[E any](p *E) *E { return p }

// Append adds p at the end of l. A nil p is ignored.
func Append[E any](l *List[*E], p *E) {
	AppendAs(l, p, identity[E])
}

// Extend appends every element of ps in order.
func Extend[E any](l *List[*E], ps ...*E) {
	for _, p := range ps {
		Append(l, p)
	}
}

// Insert places p before the i-th live element. An index past the end
// appends.
func Insert[E any](l *List[*E], i int, p *E) {
	InsertAs(l, i, p, identity[E])
}

// AppendAs adds p at the end of l, exposed through view.
func AppendAs[E any, V comparable](l *List[V], p *E, view func(*E) V) {
	e, ok := newEntry(l, p, view)
	if !ok {
		return
	}
	l.entries = append(l.entries, e)
}

// InsertAs places p before the i-th live element, exposed through view.
func InsertAs[E any, V comparable](l *List[V], i int, p *E, view func(*E) V) {
	e, ok := newEntry(l, p, view)
	if !ok {
		return
	}
	l.Flush()
	i = max(0, min(i, len(l.entries)))
	// Build a fresh slice so that running iterators keep their view.
	next := make([]entry[V], 0, len(l.entries)+1)
	next = append(next, l.entries[:i]...)
	next = append(next, e)
	next = append(next, l.entries[i:]...)
	l.entries = next
}

// All yields the live elements in order. Dead entries are skipped but not
// removed, so iterating never changes the list. Elements added while
// iterating are not visited.
func (l *List[V]) All() iter.Seq[V] {
	entries := l.entries
	return func(yield func(V) bool) {
		for _, e := range entries {
			v, ok := e.get()
			if !ok {
				continue
			}
			if !yield(v) {
				return
			}
		}
	}
}

// Backward yields the live elements in reverse order.
func (l *List[V]) Backward() iter.Seq[V] {
	entries := l.entries
	return func(yield func(V) bool) {
		for i := len(entries) - 1; i >= 0; i-- {
			v, ok := entries[i].get()
			if !ok {
				continue
			}
			if !yield(v) {
				return
			}
		}
	}
}

// Len returns the number of live elements. It flushes first, so a count
// never includes a collected element.
func (l *List[V]) Len() int {
	l.Flush()
	return len(l.entries)
}

// Dirty reports whether an element has been collected since the last Flush.
func (l *List[V]) Dirty() bool {
	return l.dirty != nil && l.dirty.Load()
}

// Flush drops the entries of collected elements.
func (l *List[V]) Flush() {
	if l.dirty != nil {
		l.dirty.Store(false)
	}
	live := 0
	for _, e := range l.entries {
		if _, ok := e.get(); ok {
			live++
		}
	}
	if live == len(l.entries) {
		return
	}
	next := make([]entry[V], 0, live)
	for _, e := range l.entries {
		if _, ok := e.get(); ok {
			next = append(next, e)
		}
	}
	l.entries = next
}

// Remove drops every occurrence of v and reports whether any was found.
// Only live elements compare equal.
func (l *List[V]) Remove(v V) bool {
	found := false
	next := make([]entry[V], 0, len(l.entries))
	for _, e := range l.entries {
		got, ok := e.get()
		if !ok {
			continue
		}
		if got == v {
			e.cleanup.Stop()
			found = true
			continue
		}
		next = append(next, e)
	}
	l.entries = next
	return found
}

// Contains reports whether v is a live element.
func (l *List[V]) Contains(v V) bool {
	return l.Index(v) >= 0
}

// Index returns the position of the first occurrence of v among the live
// elements, or -1.
func (l *List[V]) Index(v V) int {
	i := 0
	for got := range l.All() {
		if got == v {
			return i
		}
		i++
	}
	return -1
}

// Snapshot returns the live elements as a new slice. The caller may keep
// it and mutate the list while walking it.
func (l *List[V]) Snapshot() []V {
	return slices.Collect(l.All())
}

// Clear removes every element.
func (l *List[V]) Clear() {
	for _, e := range l.entries {
		e.cleanup.Stop()
	}
	l.entries = nil
	if l.dirty != nil {
		l.dirty.Store(false)
	}
}
