// Package provenance answers where the value of a name comes from. A
// resolution is Known only when the binding is established exactly once,
// never reassigned, never escapes into code that could swap its value, and
// is not marked as an externally controlled binding. Rules that rewrite a
// binding based on the shape of its value must get a Known result first.
package provenance

import (
	"strings"

	"github.com/esfix/esfix/pkg/ast"
	"github.com/esfix/esfix/pkg/scope"
)

// externalPrefix marks names whose value is deliberately managed outside
// the visible source (test harnesses, injected globals). They always
// resolve to unknown.
const externalPrefix = "__"

// Result is one provenance answer. Pointers returned for the same
// (scope, name) pair by the same Resolver are identical, so callers may
// compare Results by reference.
type Result struct {
	// Known reports whether Value is trustworthy.
	Known bool
	// Binding is the resolved binding, set even for unknown results when
	// the name resolves at all.
	Binding *scope.Binding
	// Value is the establishing expression, None unless Known.
	Value ast.NodeID
}

var unknown = &Result{}

type cacheKey struct {
	scope *scope.Scope
	name  string
}

// Resolver resolves identifier provenance against one analysis. It must be
// rebuilt whenever the tree or the scope info changes.
type Resolver struct {
	prog  *ast.Program
	info  *scope.Info
	cache map[cacheKey]*Result
}

// New returns a Resolver over the given program and its current analysis.
func New(p *ast.Program, info *scope.Info) *Resolver {
	return &Resolver{prog: p, info: info, cache: make(map[cacheKey]*Result)}
}

// Resolve reports the provenance of name as seen from s.
func (r *Resolver) Resolve(s *scope.Scope, name string) *Result {
	if s == nil {
		return unknown
	}
	k := cacheKey{scope: s, name: name}
	if res, ok := r.cache[k]; ok {
		return res
	}
	res := r.resolve(s, name)
	r.cache[k] = res
	return res
}

func (r *Resolver) resolve(s *scope.Scope, name string) *Result {
	if strings.HasPrefix(name, externalPrefix) {
		return unknown
	}
	b := s.Lookup(name)
	if b == nil {
		return unknown
	}
	if b.Scope.Tainted() || b.Dups > 0 {
		return &Result{Binding: b}
	}
	value := r.establishment(b)
	if value == ast.None {
		return &Result{Binding: b}
	}
	if r.escapes(b) {
		return &Result{Binding: b}
	}
	return &Result{Known: true, Binding: b, Value: value}
}

// establishment returns the single expression that gives the binding its
// value, or None when no such unique expression exists.
func (r *Resolver) establishment(b *scope.Binding) ast.NodeID {
	if b.Init != ast.None {
		if len(b.Writes) > 0 {
			return ast.None
		}
		return b.Init
	}
	// Declared without an initializer: accept exactly one unconditional
	// assignment in the declaring scope that precedes every read.
	if len(b.Writes) != 1 {
		return ast.None
	}
	w := b.Writes[0]
	assign := r.prog.Node(w).Parent
	if assign == ast.None {
		return ast.None
	}
	an := r.prog.Node(assign)
	if an.Kind != ast.Assign || an.Op != "=" || r.prog.Kid(assign, 0) != w {
		return ast.None
	}
	stmt := an.Parent
	if stmt == ast.None || r.prog.Node(stmt).Kind != ast.ExprStmt {
		return ast.None
	}
	if !r.unconditionalIn(stmt, b.Scope) {
		return ast.None
	}
	wOrder := r.info.Order(w)
	if wOrder < 0 {
		return ast.None
	}
	for _, read := range b.Reads {
		o := r.info.Order(read)
		if o < 0 || o < wOrder {
			return ast.None
		}
	}
	return r.prog.Kid(assign, 1)
}

// unconditionalIn reports whether stmt executes straight-line in the body
// that owns s: its parent must be the scope's owning node (or that node's
// function body), with no branch or loop in between.
func (r *Resolver) unconditionalIn(stmt ast.NodeID, s *scope.Scope) bool {
	parent := r.prog.Node(stmt).Parent
	if parent == ast.None {
		return false
	}
	if parent == s.Node {
		return true
	}
	// Function scopes own the function node; statements sit in its body
	// block.
	pn := r.prog.Node(parent)
	return pn.Kind == ast.Block && r.prog.Node(parent).Parent == s.Node
}

// escapes reports whether any read hands the binding's value to code that
// could observe or replace it: argument positions, shorthand property
// values, spreads, or any reference from a nested closure.
func (r *Resolver) escapes(b *scope.Binding) bool {
	declFn := r.enclosingFunctionScope(b.Scope)
	for _, read := range b.Reads {
		useScope := r.info.ScopeOf(read)
		if useScope == nil {
			return true
		}
		if r.enclosingFunctionScope(useScope) != declFn {
			return true
		}
		parent := r.prog.Node(read).Parent
		if parent == ast.None {
			continue
		}
		pn := r.prog.Node(parent)
		switch pn.Kind {
		case ast.Call, ast.New:
			if r.prog.Callee(parent) != read {
				return true
			}
		case ast.Property:
			if pn.Has(ast.FlagShorthand) {
				return true
			}
		case ast.Spread:
			return true
		}
	}
	return false
}

func (r *Resolver) enclosingFunctionScope(s *scope.Scope) *scope.Scope {
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.Kind != scope.ScopeBlock {
			return cur
		}
	}
	return nil
}
