package engine

import (
	"github.com/esfix/esfix/pkg/ast"
)

// varToConst upgrades a `var` declaration to `const` when every declarator
// carries an initializer and no declared name is ever written again. The
// binding head of a for-in/for-of loop needs no initializer: the loop
// establishes a fresh per-iteration binding, which is exactly what `const`
// means there.
type varToConst struct{}

func (varToConst) ID() string      { return "var-to-const" }
func (varToConst) MinLevel() Level { return Level1 }

func (varToConst) Apply(a *Analysis, id ast.NodeID) (ast.NodeID, bool) {
	p := a.Prog
	if !varDeclConvertible(a, id) {
		return ast.None, false
	}
	loopHead := isForInHead(p, id)
	for _, d := range p.Node(id).Kids {
		if p.Kid(d, 1) == ast.None && !loopHead {
			return ast.None, false
		}
		for name := range a.Scopes.DeclaredNames(p.Kid(d, 0)) {
			b := declBinding(a, id, name)
			if b == nil || len(b.Writes) > 0 {
				return ast.None, false
			}
		}
	}
	p.Node(id).Op = "const"
	return id, true
}

// varToLet downgrades the remaining convertible `var` declarations, the
// ones varToConst rejected because a name is reassigned or a declarator
// has no initializer.
type varToLet struct{}

func (varToLet) ID() string      { return "var-to-let" }
func (varToLet) MinLevel() Level { return Level1 }

func (varToLet) Apply(a *Analysis, id ast.NodeID) (ast.NodeID, bool) {
	if !varDeclConvertible(a, id) {
		return ast.None, false
	}
	a.Prog.Node(id).Op = "let"
	return id, true
}

// varDeclConvertible checks the conditions shared by both conversions:
// the statement is a plain `var`, no declared name is declared twice, no
// use leans on hoisting (before the declaration or outside the statement's
// enclosing block), and the scope is fully analyzable.
func varDeclConvertible(a *Analysis, id ast.NodeID) bool {
	p := a.Prog
	n := p.Node(id)
	if n.Kind != ast.VarDecl || n.Op != "var" {
		return false
	}
	s := a.ScopeOf(id)
	if s == nil || s.Tainted() {
		return false
	}
	// The region the binding would shrink to: the parent block, or the
	// loop node for for/for-in heads.
	container := n.Parent
	if container == ast.None {
		return false
	}
	declOrder := a.Scopes.Order(id)
	if declOrder < 0 {
		return false
	}
	for _, d := range n.Kids {
		for name := range a.Scopes.DeclaredNames(p.Kid(d, 0)) {
			b := declBinding(a, id, name)
			if b == nil || b.Dups > 0 {
				return false
			}
			for _, site := range append(append([]ast.NodeID{}, b.Reads...), b.Writes...) {
				o := a.Scopes.Order(site)
				if o < 0 || o < declOrder {
					return false
				}
				if !p.EnclosedBy(site, container) {
					return false
				}
			}
		}
	}
	return true
}

// isForInHead reports whether the declaration is the binding position of a
// for-in/for-of loop.
func isForInHead(p *ast.Program, id ast.NodeID) bool {
	parent := p.Node(id).Parent
	return parent != ast.None && p.Node(parent).Kind == ast.ForIn && p.Kid(parent, 0) == id
}
