package persist

import (
	"encoding/xml"
	"slices"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/teranos/tygra/attrs"
	"github.com/teranos/tygra/errors"
	"github.com/teranos/tygra/ident"
	"github.com/teranos/tygra/model"
)

// wireDocument is the shape shared by the XML and YAML encodings.
type wireDocument struct {
	XMLName xml.Name  `xml:"typedgraphs" yaml:"-"`
	Version string    `xml:"version,attr" yaml:"version"`
	ID      string    `xml:"id,attr" yaml:"id"`
	Model   wireModel `xml:"TGModel" yaml:"model"`
}

type wireModel struct {
	Scope     string         `xml:"id,attr" yaml:"scope"`
	Nodes     []wireNode     `xml:"nodes>MNode" yaml:"nodes,omitempty"`
	Relations []wireRelation `xml:"relations>MRelation" yaml:"relations,omitempty"`
	Isa       []wireRelation `xml:"relations>Isa" yaml:"isa,omitempty"`
}

type wireNode struct {
	ID    ident.ID   `xml:"id,attr" yaml:"id"`
	Attrs *wireAttrs `xml:"Attributes" yaml:"attributes,omitempty"`
}

type wireRelation struct {
	ID         ident.ID   `xml:"id,attr" yaml:"id"`
	From       ident.ID   `xml:"from,attr" yaml:"from"`
	To         ident.ID   `xml:"to,attr" yaml:"to"`
	Properties string     `xml:"properties,attr,omitempty" yaml:"properties,omitempty"`
	Attrs      *wireAttrs `xml:"Attributes" yaml:"attributes,omitempty"`
}

// wireAttrs is nil for records without attributes so that neither encoding
// writes an empty container. In YAML it is a plain sequence.
type wireAttrs struct {
	List []wireAttr `xml:"attr"`
}

func (w *wireAttrs) entries() []wireAttr {
	if w == nil {
		return nil
	}
	return w.List
}

func (w *wireAttrs) MarshalYAML() (any, error) {
	return w.List, nil
}

func (w *wireAttrs) UnmarshalYAML(n *yaml.Node) error {
	return n.Decode(&w.List)
}

type wireAttr struct {
	Name     string     `xml:"name,attr" yaml:"name"`
	Kind     attrs.Kind `xml:"kind,attr,omitempty" yaml:"kind,omitempty"`
	Default  *string    `xml:"default,attr,omitempty" yaml:"default,omitempty"`
	Editable bool       `xml:"editable,attr,omitempty" yaml:"editable,omitempty"`
	System   bool       `xml:"system,attr,omitempty" yaml:"system,omitempty"`
	Value    string     `xml:",chardata" yaml:"value"`
}

func toWire(d *Document) (*wireDocument, error) {
	w := &wireDocument{
		Version: d.Version,
		ID:      d.ID.String(),
		Model:   wireModel{Scope: d.Scope},
	}
	for _, rec := range d.Records {
		switch rec.Kind {
		case model.RecordNode:
			a, err := attrsToWire(rec.Attrs)
			if err != nil {
				return nil, errors.Wrapf(err, "node %s", rec.ID)
			}
			w.Model.Nodes = append(w.Model.Nodes, wireNode{ID: rec.ID, Attrs: a})
		case model.RecordRelation, model.RecordIsa:
			a, err := attrsToWire(rec.Attrs)
			if err != nil {
				return nil, errors.Wrapf(err, "relation %s", rec.ID)
			}
			r := wireRelation{
				ID:         rec.ID,
				From:       rec.From,
				To:         rec.To,
				Properties: strings.Join(rec.Properties.Names(), " "),
				Attrs:      a,
			}
			if rec.Kind == model.RecordIsa {
				w.Model.Isa = append(w.Model.Isa, r)
			} else {
				w.Model.Relations = append(w.Model.Relations, r)
			}
		}
	}
	return w, nil
}

func attrsToWire(entries []attrs.Entry) (*wireAttrs, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	out := make([]wireAttr, 0, len(entries))
	for _, e := range entries {
		d := e.Definition
		kind := d.Kind
		if kind == "" {
			kind = attrs.KindOf(d.Value)
		}
		value, err := attrs.Format(kind, d.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "attribute %s", e.Name)
		}
		a := wireAttr{
			Name:     e.Name,
			Kind:     kind,
			Editable: d.Editable,
			System:   d.System,
			Value:    value,
		}
		if d.HasDefault {
			def, err := attrs.Format(kind, d.Default)
			if err != nil {
				return nil, errors.Wrapf(err, "default of attribute %s", e.Name)
			}
			a.Default = &def
		}
		out = append(out, a)
	}
	return &wireAttrs{List: out}, nil
}

// fromWire converts a decoded document. Records come out nodes first, then
// relations, each in id order, which is the order Snapshot produces.
func fromWire(w *wireDocument) (*Document, error) {
	if err := CheckVersion(w.Version); err != nil {
		return nil, err
	}
	d := &Document{Version: w.Version, Scope: w.Model.Scope}
	if w.ID != "" {
		id, err := uuid.Parse(w.ID)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrInvalidRequest, "document id %q", w.ID)
		}
		d.ID = id
	}

	for _, n := range w.Model.Nodes {
		entries, err := attrsFromWire(n.Attrs.entries())
		if err != nil {
			return nil, errors.Wrapf(err, "node %s", n.ID)
		}
		d.Records = append(d.Records, model.Record{Kind: model.RecordNode, ID: n.ID, Attrs: entries})
	}
	slices.SortStableFunc(d.Records, func(a, b model.Record) int { return ident.Compare(a.ID, b.ID) })

	var rels []model.Record
	for kind, list := range map[model.RecordKind][]wireRelation{
		model.RecordRelation: w.Model.Relations,
		model.RecordIsa:      w.Model.Isa,
	} {
		for _, r := range list {
			rec, err := relationFromWire(kind, r)
			if err != nil {
				return nil, err
			}
			rels = append(rels, rec)
		}
	}
	slices.SortStableFunc(rels, func(a, b model.Record) int { return ident.Compare(a.ID, b.ID) })
	d.Records = append(d.Records, rels...)
	return d, nil
}

func relationFromWire(kind model.RecordKind, r wireRelation) (model.Record, error) {
	props, err := model.ParseProperties(r.Properties)
	if err != nil {
		return model.Record{}, errors.Wrapf(err, "relation %s", r.ID)
	}
	if kind == model.RecordIsa && props != 0 {
		return model.Record{}, errors.Wrapf(errors.ErrInvalidRequest, "isa edge %s carries properties", r.ID)
	}
	entries, err := attrsFromWire(r.Attrs.entries())
	if err != nil {
		return model.Record{}, errors.Wrapf(err, "relation %s", r.ID)
	}
	return model.Record{
		Kind:       kind,
		ID:         r.ID,
		From:       r.From,
		To:         r.To,
		Properties: props,
		Attrs:      entries,
	}, nil
}

func attrsFromWire(list []wireAttr) ([]attrs.Entry, error) {
	if len(list) == 0 {
		return nil, nil
	}
	out := make([]attrs.Entry, 0, len(list))
	for _, a := range list {
		if a.Name == "" {
			return nil, errors.Wrap(errors.ErrInvalidRequest, "attribute without a name")
		}
		kind := a.Kind
		if kind == "" {
			kind = attrs.KindString
		}
		v, err := attrs.Parse(kind, a.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "attribute %s", a.Name)
		}
		def := attrs.Definition{Value: v, Kind: kind, Editable: a.Editable, System: a.System}
		if a.Default != nil {
			dv, err := attrs.Parse(kind, *a.Default)
			if err != nil {
				return nil, errors.Wrapf(err, "default of attribute %s", a.Name)
			}
			def.Default, def.HasDefault = dv, true
		}
		out = append(out, attrs.Entry{Name: a.Name, Definition: def})
	}
	return out, nil
}
