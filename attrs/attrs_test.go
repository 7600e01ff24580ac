package attrs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/tygra/errors"
)

type change struct {
	name  string
	value any
}

type recorder struct{ changes []change }

func (r *recorder) NotifyAttrChanged(_ *Attributes, name string, value any) {
	r.changes = append(r.changes, change{name, value})
}

func chain(parents ...*Attributes) func() []*Attributes {
	return func() []*Attributes { return parents }
}

func TestDefaultIsWhatDescendantsSee(t *testing.T) {
	root := New(nil, nil)
	require.NoError(t, root.Define("type", Definition{Value: true, Default: false, HasDefault: true, Kind: KindBool}))
	require.NoError(t, root.Define("label", Definition{Value: "T", Default: "", HasDefault: true}))
	require.NoError(t, root.Set("shape", "Rectangle"))

	child := New(nil, chain(root))
	grandchild := New(nil, chain(child))

	assert.True(t, root.Bool("type"))
	assert.False(t, child.Bool("type"))
	assert.Equal(t, "", child.String("label"))
	assert.Equal(t, "Rectangle", grandchild.Get("shape"))

	require.NoError(t, child.Set("type", true))
	assert.True(t, child.Bool("type"))
	assert.False(t, grandchild.Bool("type"), "a subtype is not a type until declared")

	d, ok := child.Local("type")
	require.True(t, ok)
	assert.Equal(t, KindBool, d.Kind)
	assert.True(t, d.HasDefault)
}

func TestLookupMissing(t *testing.T) {
	a := New(nil, chain(New(nil, nil)))
	v, ok := a.Lookup("nothing")
	assert.False(t, ok)
	assert.Nil(t, v)
	assert.Nil(t, a.Get("nothing"))
	assert.False(t, a.Bool("nothing"))
}

func TestMultipleParentsDeclarationOrder(t *testing.T) {
	p1 := New(nil, nil)
	p2 := New(nil, nil)
	require.NoError(t, p1.Set("color", "red"))
	require.NoError(t, p2.Set("color", "blue"))
	require.NoError(t, p2.Set("size", 3))

	a := New(nil, chain(p1, p2))
	assert.Equal(t, "red", a.Get("color"))
	assert.Equal(t, 3, a.Get("size"))
	assert.Equal(t, []string{"color", "size"}, a.Keys())
	assert.Empty(t, a.LocalKeys())
}

func TestCacheAndPing(t *testing.T) {
	parent := New(nil, nil)
	require.NoError(t, parent.Set("label", "old"))
	child := New(nil, chain(parent))

	assert.Equal(t, "old", child.Get("label"))
	require.NoError(t, parent.Set("label", "new"))
	assert.Equal(t, "old", child.Get("label"), "cached until pinged")
	assert.Equal(t, "new", child.Ping("label"))

	require.NoError(t, parent.Set("label", "newer"))
	child.InvalidateAll()
	assert.Equal(t, "newer", child.Get("label"))
}

func TestOwnerNotifications(t *testing.T) {
	rec := &recorder{}
	parent := New(nil, nil)
	require.NoError(t, parent.Set("label", "inherited"))
	a := New(rec, chain(parent))

	require.NoError(t, a.Set("label", "mine"))
	require.NoError(t, a.Set("label", "mine"))
	assert.True(t, a.Delete("label"))
	assert.False(t, a.Delete("label"))

	assert.Equal(t, []change{
		{"label", "mine"},
		{"label", "inherited"},
	}, rec.changes)
}

func TestSetRejects(t *testing.T) {
	root := New(nil, nil)
	require.NoError(t, root.Define("relationProperties", Definition{Value: []string{"TransitiveProperty"}, System: true}))
	child := New(nil, chain(root))

	err := root.Set("relationProperties", []string{})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
	err = child.Set("relationProperties", []string{})
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
	err = child.Set("x", nil)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
	assert.Error(t, child.Define("x", Definition{}))
}

func TestEntriesRestore(t *testing.T) {
	rec := &recorder{}
	a := New(nil, nil)
	require.NoError(t, a.Set("b", 2))
	require.NoError(t, a.Define("a", Definition{Value: "x", Default: "", HasDefault: true, Kind: KindText}))

	entries := a.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Name)
	assert.Equal(t, KindText, entries[0].Kind)
	assert.Equal(t, KindInt, entries[1].Kind)

	b := New(rec, nil)
	b.Restore(entries)
	assert.Empty(t, rec.changes)
	assert.Equal(t, 2, b.Get("b"))
	assert.Equal(t, entries, b.Entries())
}

func TestParentCycleTerminates(t *testing.T) {
	var a, b *Attributes
	a = New(nil, func() []*Attributes { return []*Attributes{b} })
	b = New(nil, func() []*Attributes { return []*Attributes{a} })
	require.NoError(t, b.Set("k", "v"))

	assert.Equal(t, "v", a.Get("k"))
	assert.Nil(t, a.Get("missing"))
	assert.Equal(t, []string{"k"}, a.Keys())
}

func TestFormatParse(t *testing.T) {
	tests := []struct {
		kind Kind
		in   any
		text string
	}{
		{KindBool, true, "true"},
		{KindInt, 80, "80"},
		{KindFloat, 0.5, "0.5"},
		{KindString, "Oval", "Oval"},
		{KindSet, []string{"b", "a"}, "a,b"},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			text, err := Format(tt.kind, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.text, text)
			back, err := Parse(tt.kind, tt.text)
			require.NoError(t, err)
			text, err = Format(tt.kind, back)
			require.NoError(t, err)
			assert.Equal(t, tt.text, text)
		})
	}

	_, err := Parse(KindInt, "eighty")
	assert.Error(t, err)
	_, err = Parse(Kind("blob"), "x")
	assert.True(t, errors.Is(err, errors.ErrUnsupportedFormat))

	empty, err := Parse(KindSet, "")
	require.NoError(t, err)
	assert.Equal(t, []string{}, empty)
	assert.Equal(t, KindSet, KindOf([]string{}))
	assert.Equal(t, KindFloat, KindOf(1.5))
}

func TestFormatRejectsMismatch(t *testing.T) {
	_, err := Format(KindInt, "x")
	assert.True(t, errors.Is(err, errors.ErrTypeMismatch))
	_, err = Format(KindInt, 2.5)
	assert.True(t, errors.Is(err, errors.ErrTypeMismatch))
	_, err = Format(KindText, 42)
	assert.True(t, errors.Is(err, errors.ErrTypeMismatch))

	text, err := Format(KindInt, 3.0)
	require.NoError(t, err)
	assert.Equal(t, "3", text)
	text, err = Format(KindFloat, 1)
	require.NoError(t, err)
	assert.Equal(t, "1", text)
	text, err = Format("", int64(7))
	require.NoError(t, err)
	assert.Equal(t, "7", text)
}

func TestSetCoercesToInheritedKind(t *testing.T) {
	root := New(nil, nil)
	require.NoError(t, root.Define("minSize", Definition{Value: 80, Kind: KindInt, Editable: true}))
	require.NoError(t, root.Define("aspectRatio", Definition{Value: 0.5, Kind: KindFloat, Editable: true}))
	require.NoError(t, root.Define("notes", Definition{Value: "", Kind: KindText, Editable: true}))
	child := New(nil, chain(root))

	require.NoError(t, child.Set("minSize", 3.0))
	assert.Equal(t, 3, child.Get("minSize"))
	require.NoError(t, child.Set("aspectRatio", 1))
	assert.Equal(t, 1.0, child.Get("aspectRatio"))

	tests := []struct {
		name  string
		value any
	}{
		{"minSize", 2.5},
		{"minSize", "big"},
		{"aspectRatio", true},
		{"notes", 42},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := child.Set(tt.name, tt.value)
			assert.True(t, errors.Is(err, errors.ErrTypeMismatch), "%v", err)
		})
	}
	assert.Equal(t, 3, child.Get("minSize"))
	assert.Equal(t, "", child.Get("notes"))

	// A local definition keeps its kind as well.
	err := root.Set("minSize", 2.5)
	assert.True(t, errors.Is(err, errors.ErrTypeMismatch))
	assert.Equal(t, 80, root.Get("minSize"))
}

func TestSetNormalizesNewValues(t *testing.T) {
	a := New(nil, nil)
	require.NoError(t, a.Set("n", int64(4)))
	assert.Equal(t, 4, a.Get("n"))
	require.NoError(t, a.Set("f", float32(0.25)))
	assert.Equal(t, 0.25, a.Get("f"))

	err := a.Set("blob", struct{}{})
	assert.True(t, errors.Is(err, errors.ErrTypeMismatch))
	assert.Nil(t, a.Get("blob"))
}

func TestDefineRejectsMismatch(t *testing.T) {
	a := New(nil, nil)
	err := a.Define("minSize", Definition{Value: "eighty", Kind: KindInt})
	assert.True(t, errors.Is(err, errors.ErrTypeMismatch))
	err = a.Define("minSize", Definition{Value: 80, Kind: KindInt, Default: 1.5, HasDefault: true})
	assert.True(t, errors.Is(err, errors.ErrTypeMismatch))
	assert.Nil(t, a.Get("minSize"))

	require.NoError(t, a.Define("ratio", Definition{Value: 2, Kind: KindFloat}))
	assert.Equal(t, 2.0, a.Get("ratio"))
}
