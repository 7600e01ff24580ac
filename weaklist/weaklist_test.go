package weaklist

import (
	"runtime"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// item is large enough to stay clear of the tiny allocator, whose blocks
// are freed together and would delay collection.
type item struct {
	name string
	pad  [64]byte
}

func newItem(name string) *item { return &item{name: name} }

type greeter interface{ Greet() string }

func (i *item) Greet() string { return "hi " + i.name }

func names(l *List[*item]) []string {
	var out []string
	for it := range l.All() {
		out = append(out, it.name)
	}
	return out
}

func collect(t *testing.T, l *List[*item], want int) {
	t.Helper()
	require.Eventually(t, func() bool {
		runtime.GC()
		return l.Len() == want
	}, 2*time.Second, 10*time.Millisecond)
}

func TestAppendAndIterate(t *testing.T) {
	var l List[*item]
	a, b, c := newItem("a"), newItem("b"), newItem("c")

	Append(&l, a)
	Extend(&l, b, c)
	Append[item](&l, nil)

	assert.Equal(t, []string{"a", "b", "c"}, names(&l))
	assert.Equal(t, 3, l.Len())

	// Restartable
	assert.Equal(t, names(&l), names(&l))

	var back []string
	for it := range l.Backward() {
		back = append(back, it.name)
	}
	assert.Equal(t, []string{"c", "b", "a"}, back)
	runtime.KeepAlive([]*item{a, b, c})
}

func TestInsert(t *testing.T) {
	var l List[*item]
	a, b, c := newItem("a"), newItem("b"), newItem("c")
	Append(&l, a)
	Append(&l, c)

	Insert(&l, 1, b)
	assert.Equal(t, []string{"a", "b", "c"}, names(&l))

	d := newItem("d")
	Insert(&l, 99, d)
	e := newItem("e")
	Insert(&l, -3, e)
	assert.Equal(t, []string{"e", "a", "b", "c", "d"}, names(&l))
	runtime.KeepAlive([]*item{a, b, c, d, e})
}

func TestRemoveContainsIndex(t *testing.T) {
	var l List[*item]
	a, b := newItem("a"), newItem("b")
	Extend(&l, a, b, a)

	assert.True(t, l.Contains(b))
	assert.Equal(t, 1, l.Index(b))
	assert.Equal(t, 0, l.Index(a))

	assert.True(t, l.Remove(a), "removes every occurrence")
	assert.Equal(t, []string{"b"}, names(&l))
	assert.False(t, l.Remove(a))
	assert.False(t, l.Contains(a))
	assert.Equal(t, -1, l.Index(a))
	runtime.KeepAlive(a)
}

func TestIterationIsSnapshot(t *testing.T) {
	var l List[*item]
	a, b, c := newItem("a"), newItem("b"), newItem("c")
	Extend(&l, a, b)

	var seen []string
	for it := range l.All() {
		seen = append(seen, it.name)
		if it == a {
			l.Remove(b)
			Append(&l, c)
		}
	}
	assert.Equal(t, []string{"a", "b"}, seen)
	assert.Equal(t, []string{"a", "c"}, names(&l))
	runtime.KeepAlive([]*item{a, b, c})
}

func TestSnapshotAndClear(t *testing.T) {
	var l List[*item]
	a, b := newItem("a"), newItem("b")
	Extend(&l, a, b)

	snap := l.Snapshot()
	l.Clear()
	assert.Len(t, snap, 2)
	assert.Equal(t, 0, l.Len())
	assert.Empty(t, names(&l))
	runtime.KeepAlive([]*item{a, b})
}

func TestDirtyFlag(t *testing.T) {
	var l List[*item]
	assert.False(t, l.Dirty())
	func() {
		Append(&l, newItem("short-lived"))
	}()

	require.Eventually(t, func() bool {
		runtime.GC()
		return l.Dirty()
	}, 2*time.Second, 10*time.Millisecond)
	l.Flush()
	assert.Empty(t, l.Snapshot())
}

func TestEarlyBreak(t *testing.T) {
	var l List[*item]
	a, b := newItem("a"), newItem("b")
	Extend(&l, a, b)

	count := 0
	for range l.All() {
		count++
		break
	}
	assert.Equal(t, 1, count)
	runtime.KeepAlive([]*item{a, b})
}

func TestCollectedElementsDisappear(t *testing.T) {
	var l List[*item]
	keep := newItem("keep")
	Append(&l, keep)
	func() {
		Append(&l, newItem("gone"))
	}()

	collect(t, &l, 1)
	assert.Equal(t, []string{"keep"}, names(&l))
	runtime.KeepAlive(keep)
}

func TestAllReferentsCollected(t *testing.T) {
	var l List[*item]
	func() {
		Extend(&l, newItem("x"), newItem("y"))
	}()

	collect(t, &l, 0)
	assert.Empty(t, slices.Collect(l.All()))
}

func TestAppendAsInterface(t *testing.T) {
	var l List[greeter]
	view := func(p *item) greeter { return p }
	a, b := newItem("a"), newItem("b")
	AppendAs(&l, a, view)
	InsertAs(&l, 0, b, view)

	var got []string
	for g := range l.All() {
		got = append(got, g.Greet())
	}
	assert.Equal(t, []string{"hi b", "hi a"}, got)

	assert.True(t, l.Remove(greeter(a)))
	assert.Equal(t, 1, l.Len())
	runtime.KeepAlive([]*item{a, b})
}

func TestInterfaceReferentCollected(t *testing.T) {
	var l List[greeter]
	func() {
		AppendAs(&l, newItem("tmp"), func(p *item) greeter { return p })
	}()

	require.Eventually(t, func() bool {
		runtime.GC()
		return l.Len() == 0
	}, 2*time.Second, 10*time.Millisecond)
}
