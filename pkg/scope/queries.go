package scope

import (
	"iter"

	"github.com/esfix/esfix/pkg/ast"
)

// patternNames yields each declared name in a binding pattern together
// with the identifier node that declares it. Destructuring, defaults and
// rest elements are traversed; expression parts (defaults, computed keys)
// are not, since they declare nothing.
func patternNames(p *ast.Program, pattern ast.NodeID) iter.Seq2[string, ast.NodeID] {
	return func(yield func(string, ast.NodeID) bool) {
		walkPatternNames(p, pattern, yield)
	}
}

func walkPatternNames(p *ast.Program, id ast.NodeID, yield func(string, ast.NodeID) bool) bool {
	if id == ast.None {
		return true
	}
	n := p.Node(id)
	switch n.Kind {
	case ast.Ident:
		return yield(n.Name, id)
	case ast.AssignPattern:
		return walkPatternNames(p, p.Kid(id, 0), yield)
	case ast.ObjectPattern:
		for _, prop := range n.Kids {
			pn := p.Node(prop)
			var target ast.NodeID
			if pn.Kind == ast.Property {
				target = p.Kid(prop, 1)
			} else {
				target = prop
			}
			if !walkPatternNames(p, target, yield) {
				return false
			}
		}
	case ast.ArrayPattern:
		for _, el := range n.Kids {
			if !walkPatternNames(p, el, yield) {
				return false
			}
		}
	case ast.Rest, ast.Spread:
		return walkPatternNames(p, p.Kid(id, 0), yield)
	}
	return true
}

// DeclaredNames yields every name bound by a declaration pattern, in
// source order. The sequence is restartable.
func (in *Info) DeclaredNames(pattern ast.NodeID) iter.Seq[string] {
	return func(yield func(string) bool) {
		for name := range patternNames(in.prog, pattern) {
			if !yield(name) {
				return
			}
		}
	}
}

// IsReassigned reports whether the binding for name declared in declScope
// is ever written after its initializer. Unknown names, duplicate
// declarations and opaque regions beneath the declaring scope all answer
// true.
func (in *Info) IsReassigned(name string, declScope *Scope) bool {
	if declScope == nil {
		return true
	}
	b := declScope.Binding(name)
	if b == nil {
		return true
	}
	if declScope.Tainted() {
		return true
	}
	return len(b.Writes) > 0 || b.Dups > 0
}

// IsShadowedAt reports whether an occurrence of name at useSite resolves
// to some binding other than the one declared in declScope. Sites the
// analysis has not seen answer true.
func (in *Info) IsShadowedAt(name string, declScope *Scope, useSite ast.NodeID) bool {
	if declScope == nil {
		return true
	}
	use := in.ScopeOf(useSite)
	if use == nil {
		return true
	}
	for s := use; s != nil; s = s.Parent {
		if s == declScope {
			return false
		}
		if s.Declares(name) {
			return true
		}
	}
	// declScope is not an ancestor of the use site at all.
	return true
}

// UsesFreeIdentifier reports whether the function node references name
// without declaring it itself. "this" and "arguments" are resolved with
// their implicit-rebinding semantics: any nested non-arrow function cuts
// them off. Opaque regions inside the function answer true.
func (in *Info) UsesFreeIdentifier(fn ast.NodeID, name string) bool {
	p := in.prog
	fnScope := in.ScopeIntroducedBy(fn)
	if fnScope == nil {
		return true
	}
	if fnScope.Tainted() {
		return true
	}
	if name == "this" || name == "arguments" {
		return in.usesImplicit(fn, name)
	}
	if fnScope.Declares(name) {
		return false
	}
	found := false
	p.Walk(fn, func(id ast.NodeID) bool {
		if found {
			return false
		}
		// Any scope inside fn that redeclares name makes its subtree
		// irrelevant to the free reference.
		if id != fn {
			if s := in.ScopeIntroducedBy(id); s != nil && s.Declares(name) {
				return false
			}
		}
		n := p.Node(id)
		if n.Kind == ast.Ident && n.Name == name && in.isReference(id) {
			found = true
			return false
		}
		return true
	})
	return found
}

// usesImplicit searches for this/arguments references, stopping at nested
// non-arrow functions, which rebind both.
func (in *Info) usesImplicit(fn ast.NodeID, name string) bool {
	p := in.prog
	found := false
	p.Walk(fn, func(id ast.NodeID) bool {
		if found {
			return false
		}
		if id != fn {
			k := p.Node(id).Kind
			if k == ast.FuncDecl || k == ast.FuncExpr {
				return false
			}
		}
		n := p.Node(id)
		if name == "this" && n.Kind == ast.This {
			found = true
			return false
		}
		if name == "arguments" && n.Kind == ast.Ident && n.Name == name && in.isReference(id) {
			found = true
			return false
		}
		return true
	})
	return found
}

// isReference reports whether an identifier node occupies a position where
// it refers to a binding, as opposed to naming a property or label.
func (in *Info) isReference(id ast.NodeID) bool {
	p := in.prog
	parent := p.Node(id).Parent
	if parent == ast.None {
		return true
	}
	pn := p.Node(parent)
	switch pn.Kind {
	case ast.Member:
		return pn.Has(ast.FlagComputed) || p.MemberObject(parent) == id
	case ast.Property:
		if p.Kid(parent, 0) == id {
			return pn.Has(ast.FlagComputed)
		}
		return true
	case ast.FuncDecl, ast.FuncExpr:
		// The function's own name slot is not a reference; idents reached
		// here are always kids, which for functions are params/body nodes.
		return true
	case ast.Labeled, ast.Break, ast.Continue:
		return false
	}
	return true
}

// Equivalent reports whether two expressions are structurally identical:
// same node kind at every level, same operator, same literal text, same
// identifier names, computed and non-computed member access kept distinct.
// Functions and opaque regions are never equivalent to anything, including
// themselves.
func (in *Info) Equivalent(a, b ast.NodeID) bool {
	return equivalent(in.prog, a, b)
}

func equivalent(p *ast.Program, a, b ast.NodeID) bool {
	a, b = p.Unparen(a), p.Unparen(b)
	if a == ast.None || b == ast.None {
		return a == b
	}
	na, nb := p.Node(a), p.Node(b)
	if na.Kind != nb.Kind {
		return false
	}
	switch na.Kind {
	case ast.Opaque, ast.FuncExpr, ast.FuncDecl, ast.Arrow, ast.Template:
		return false
	case ast.This, ast.Null:
		return true
	case ast.Ident:
		return na.Name == nb.Name
	case ast.Number, ast.String, ast.Bool, ast.Regex:
		return na.Raw == nb.Raw
	}
	if na.Op != nb.Op || na.Name != nb.Name || na.Flags != nb.Flags {
		return false
	}
	if len(na.Kids) != len(nb.Kids) {
		return false
	}
	for i := range na.Kids {
		ka, kb := p.Kid(a, i), p.Kid(b, i)
		if !equivalent(p, ka, kb) {
			return false
		}
	}
	return true
}
