package model

import (
	"github.com/teranos/tygra/attrs"
	"github.com/teranos/tygra/logger"
)

// Labels of the system entities.
const (
	LabelTop        = "T"
	LabelRelation   = "REL"
	LabelReflexive  = "REFLEXIVE"
	LabelSymmetric  = "SYMMETRIC"
	LabelTransitive = "TRANSITIVE"
	LabelIsa        = "ISA"
)

// bootstrapSize is the number of ids the bootstrap allocates.
const bootstrapSize = 11

func typeDefinition() attrs.Definition {
	return attrs.Definition{Value: true, Default: false, HasDefault: true, Kind: attrs.KindBool}
}

func (g *Graph) bootstrap() {
	must := func(e *Entity, err error) *Entity {
		if err != nil {
			panic(err)
		}
		return e
	}
	define := func(e *Entity, name string, d attrs.Definition) {
		if err := e.attrs.Define(name, d); err != nil {
			panic(err)
		}
	}
	set := func(e *Entity, values map[string]any) {
		for k, v := range values {
			if err := e.attrs.Set(k, v); err != nil {
				panic(err)
			}
		}
	}

	g.top = must(g.NewNode())
	set(g.top, map[string]any{
		"fillColor":   "white",
		"borderColor": "black",
		"textColor":   "black",
		"aspectRatio": 0.5,
		"minSize":     80,
	})
	define(g.top, "shape", attrs.Definition{Value: "Rectangle", Kind: attrs.KindChoices, Editable: true})
	define(g.top, "label", attrs.Definition{Value: LabelTop, Default: "", HasDefault: true, Kind: attrs.KindString, Editable: true})
	define(g.top, "type", typeDefinition())
	define(g.top, "notes", attrs.Definition{Value: "All nodes inherit from this one.", Default: "", HasDefault: true, Kind: attrs.KindText, Editable: true})

	g.topRel = must(g.NewRelation(g.top, g.top))
	set(g.topRel, map[string]any{
		"fillColor":   "white",
		"borderColor": "black",
		"textColor":   "black",
		"shape":       "Oval",
		"lineColor":   "black",
		"aspectRatio": 1.0,
		"minSize":     30,
	})
	define(g.topRel, "label", attrs.Definition{Value: LabelRelation, Default: "", HasDefault: true, Kind: attrs.KindString, Editable: true})
	define(g.topRel, "type", typeDefinition())
	define(g.topRel, "notes", attrs.Definition{Value: "All relations inherit from this one.", Default: "", HasDefault: true, Kind: attrs.KindText, Editable: true})

	property := func(label string, p PropertySet) *Entity {
		r := must(g.NewRelation(g.top, g.top, g.topRel))
		r.rel.props = p
		define(r, "label", attrs.Definition{Value: label, Default: "", HasDefault: true, Kind: attrs.KindString, Editable: true})
		define(r, "type", typeDefinition())
		return r
	}
	g.reflexive = property(LabelReflexive, Reflexive)
	g.symmetric = property(LabelSymmetric, Symmetric)
	g.transitive = property(LabelTransitive, Transitive)

	g.isa = must(g.NewRelation(g.top, g.top, g.transitive, g.reflexive))
	set(g.isa, map[string]any{
		"fillColor":   "",
		"borderColor": "",
		"textColor":   "blue",
		"lineColor":   "blue",
		"shape":       "Oval",
	})
	define(g.isa, "lineWidth", attrs.Definition{Value: 2, Kind: attrs.KindInt, Editable: true})
	define(g.isa, "label", attrs.Definition{Value: LabelIsa, Default: "", HasDefault: true, Kind: attrs.KindString, Editable: true})
	define(g.isa, "type", typeDefinition())

	g.ids.Reserve(g.reservedID)
	g.log.Debugw("bootstrapped graph",
		logger.FieldCount, g.Len(),
		logger.FieldGraph, g.ids.Scope())
}
