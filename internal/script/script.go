// Package script builds graphs from a small line-oriented command language.
//
// Each line is one command, split the way a shell would split it:
//
//	node Person T              # node type Person under T
//	type Person                # mark Person as a type
//	node alice Person
//	relation knows REL T T     # relation type knows between two T's
//	type knows
//	prop knows symmetric
//	rel k1 alice bob knows     # k1: alice knows bob
//	set alice age 42
//	isa alice Pet
//	delete k1
//
// The first argument of node, relation and rel names the new entity; the
// name becomes its label and later lines refer to it. The system entities
// are bound up front under their labels (T, REL, REFLEXIVE, SYMMETRIC,
// TRANSITIVE, ISA).
package script

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"

	"github.com/teranos/tygra/attrs"
	"github.com/teranos/tygra/errors"
	"github.com/teranos/tygra/logger"
	"github.com/teranos/tygra/model"
)

// Runner executes commands against one graph.
type Runner struct {
	g     *model.Graph
	names map[string]*model.Entity
	log   *zap.SugaredLogger
}

// New returns a Runner for g with the system entities bound.
func New(g *model.Graph, log *zap.SugaredLogger) *Runner {
	if log == nil {
		log = logger.ComponentLogger("script")
	}
	r := &Runner{g: g, names: make(map[string]*model.Entity), log: log}
	for _, e := range []*model.Entity{
		g.TopNode(), g.TopRelation(), g.ReflexiveType(),
		g.SymmetricType(), g.TransitiveType(), g.IsaType(),
	} {
		r.names[e.Label()] = e
	}
	return r
}

// Graph returns the graph being built.
func (r *Runner) Graph() *model.Graph { return r.g }

// Entity returns the entity bound to name.
func (r *Runner) Entity(name string) (*model.Entity, bool) {
	e, ok := r.names[name]
	return e, ok
}

// Run executes every line of src. It stops at the first failing line.
func (r *Runner) Run(src io.Reader) error {
	sc := bufio.NewScanner(src)
	n := 0
	for sc.Scan() {
		n++
		if err := r.Exec(sc.Text()); err != nil {
			return errors.Wrapf(err, "line %d", n)
		}
	}
	if err := sc.Err(); err != nil {
		return errors.Wrap(err, "read script")
	}
	r.log.Debugw("script finished", logger.FieldCount, n, logger.FieldTotalCount, r.g.Len())
	return nil
}

// Exec executes a single line. Blank lines and comments are ignored.
func (r *Runner) Exec(line string) error {
	if i := strings.IndexByte(line, '#'); i >= 0 && !strings.ContainsAny(line[:i], `"'`) {
		line = line[:i]
	}
	args, err := shellquote.Split(line)
	if err != nil {
		return errors.Wrapf(errors.ErrInvalidRequest, "%v", err)
	}
	if len(args) == 0 {
		return nil
	}
	cmd, args := args[0], args[1:]
	r.log.Debugw("exec", logger.FieldOperation, cmd, "args", args)
	switch cmd {
	case "node":
		return r.node(args)
	case "type":
		return r.each(args, func(e *model.Entity) error { return e.SetAttr("type", true) })
	case "set":
		return r.set(args)
	case "relation":
		return r.relation(args)
	case "rel":
		return r.rel(args)
	case "prop":
		return r.prop(args)
	case "isa":
		return r.isa(args)
	case "delete":
		return r.each(args, func(e *model.Entity) error { return e.Delete() })
	default:
		return errors.WithHint(
			errors.Wrapf(errors.ErrInvalidRequest, "unknown command %q", cmd),
			"commands are node, type, set, relation, rel, prop, isa and delete",
		)
	}
}

func arity(cmd string, args []string, min int) error {
	if len(args) < min {
		return errors.Wrapf(errors.ErrInvalidRequest, "%s needs at least %d arguments, got %d", cmd, min, len(args))
	}
	return nil
}

func (r *Runner) lookup(name string) (*model.Entity, error) {
	e, ok := r.names[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "no entity named %q", name)
	}
	if e.Deleted() {
		return nil, errors.Wrapf(errors.ErrAlreadyDeleted, "%q", name)
	}
	return e, nil
}

func (r *Runner) lookupAll(names []string) ([]*model.Entity, error) {
	out := make([]*model.Entity, 0, len(names))
	for _, n := range names {
		e, err := r.lookup(n)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *Runner) each(names []string, fn func(*model.Entity) error) error {
	all, err := r.lookupAll(names)
	if err != nil {
		return err
	}
	for _, e := range all {
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

// bind names e and labels it.
func (r *Runner) bind(name string, e *model.Entity) error {
	r.names[name] = e
	return e.SetAttr("label", name)
}

func (r *Runner) fresh(name string) error {
	if e, ok := r.names[name]; ok && !e.Deleted() {
		return errors.Wrapf(errors.ErrInvalidRequest, "name %q is already bound to %s", name, e)
	}
	return nil
}

// node NAME [SUPERTYPE...]; defaults to T.
func (r *Runner) node(args []string) error {
	if err := arity("node", args, 1); err != nil {
		return err
	}
	if err := r.fresh(args[0]); err != nil {
		return err
	}
	supers, err := r.lookupAll(args[1:])
	if err != nil {
		return err
	}
	if len(supers) == 0 {
		supers = []*model.Entity{r.g.TopNode()}
	}
	e, err := r.g.NewNode(supers...)
	if err != nil {
		return err
	}
	return r.bind(args[0], e)
}

// relation NAME SUPERTYPE FROM TO declares a relation type.
func (r *Runner) relation(args []string) error {
	if err := arity("relation", args, 4); err != nil {
		return err
	}
	if err := r.fresh(args[0]); err != nil {
		return err
	}
	ents, err := r.lookupAll(args[1:4])
	if err != nil {
		return err
	}
	e, err := r.g.NewRelation(ents[1], ents[2], ents[0])
	if err != nil {
		return err
	}
	if err := r.bind(args[0], e); err != nil {
		return err
	}
	return e.SetAttr("type", true)
}

// rel NAME FROM TO [SUPERTYPE...]; defaults to REL.
func (r *Runner) rel(args []string) error {
	if err := arity("rel", args, 3); err != nil {
		return err
	}
	if err := r.fresh(args[0]); err != nil {
		return err
	}
	ents, err := r.lookupAll(args[1:])
	if err != nil {
		return err
	}
	supers := ents[2:]
	if len(supers) == 0 {
		supers = []*model.Entity{r.g.TopRelation()}
	}
	e, err := r.g.NewRelation(ents[0], ents[1], supers...)
	if err != nil {
		return err
	}
	return r.bind(args[0], e)
}

// prop NAME PROPERTY... replaces the declared properties.
func (r *Runner) prop(args []string) error {
	if err := arity("prop", args, 1); err != nil {
		return err
	}
	e, err := r.lookup(args[0])
	if err != nil {
		return err
	}
	p, err := model.ParseProperties(args[1:]...)
	if err != nil {
		return err
	}
	return e.SetProperties(p)
}

// isa NAME SUPERTYPE...
func (r *Runner) isa(args []string) error {
	if err := arity("isa", args, 2); err != nil {
		return err
	}
	ents, err := r.lookupAll(args)
	if err != nil {
		return err
	}
	for _, s := range ents[1:] {
		if _, err := ents[0].AddSupertype(s); err != nil {
			return err
		}
	}
	return nil
}

// set NAME ATTR VALUE. An attribute already known to NAME keeps its kind;
// otherwise the value is read as a bool, an int or a float before falling
// back to a string.
func (r *Runner) set(args []string) error {
	if err := arity("set", args, 3); err != nil {
		return err
	}
	e, err := r.lookup(args[0])
	if err != nil {
		return err
	}
	name, raw := args[1], strings.Join(args[2:], " ")
	var v any
	if d, ok := e.Attrs().Describe(name); ok && d.Kind != "" {
		if v, err = attrs.Parse(d.Kind, raw); err != nil {
			return err
		}
	} else {
		v = infer(raw)
	}
	return e.SetAttr(name, v)
}

func infer(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
