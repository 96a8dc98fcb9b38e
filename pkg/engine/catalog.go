package engine

import (
	"github.com/esfix/esfix/pkg/ast"
	"github.com/esfix/esfix/pkg/scope"
)

// Catalog returns the rule catalog in application order. Order is part of
// the engine's contract: earlier rules win when several match one node,
// and change records list rule ids from this set.
func Catalog() []Rule {
	return []Rule{
		varToConst{},
		varToLet{},
		powToExponent{},
		indexOfToIncludes{},
		hasOwnPropertyToHasOwn{},
		promiseToAwait{},
		returnAwait{},
		argumentsToRest{},
	}
}

// globalUnshadowed reports whether name at site resolves past every local
// binding, i.e. still means the well-known global. Sites unknown to the
// analysis answer false so callers decline.
func globalUnshadowed(a *Analysis, site ast.NodeID, name string) bool {
	s := a.ScopeOf(site)
	if s == nil {
		return false
	}
	return s.Lookup(name) == nil
}

// declBinding returns the binding that a VarDecl statement introduced for
// name, or nil when the name resolved elsewhere (duplicate declarations,
// unseen nodes).
func declBinding(a *Analysis, decl ast.NodeID, name string) *scope.Binding {
	s := a.ScopeOf(decl)
	if s == nil {
		return nil
	}
	b := s.Lookup(name)
	if b == nil || b.Stmt != decl {
		return nil
	}
	return b
}

// identCallee matches `name(...)` where name is the unshadowed global.
func identCallee(a *Analysis, call ast.NodeID, name string) bool {
	p := a.Prog
	callee := p.Unparen(p.Callee(call))
	if callee == ast.None || !p.IsGlobalIdent(callee, name) {
		return false
	}
	return globalUnshadowed(a, callee, name)
}

// staticMemberCall matches `object.method(...)` for a non-computed method
// name and returns the object expression.
func staticMemberCall(p *ast.Program, call ast.NodeID, method string) (ast.NodeID, bool) {
	if p.Node(call).Kind != ast.Call {
		return ast.None, false
	}
	callee := p.Unparen(p.Callee(call))
	if callee == ast.None {
		return ast.None, false
	}
	return p.IsStaticMember(callee, method)
}

// hasSpread reports whether any call argument is a spread element.
func hasSpread(p *ast.Program, call ast.NodeID) bool {
	for _, arg := range p.Args(call) {
		if arg != ast.None && p.Node(arg).Kind == ast.Spread {
			return true
		}
	}
	return false
}

// containsOpaque reports whether the subtree holds source the analysis
// cannot model.
func containsOpaque(p *ast.Program, id ast.NodeID) bool {
	found := false
	p.Walk(id, func(n ast.NodeID) bool {
		if p.Node(n).Kind == ast.Opaque {
			found = true
		}
		return !found
	})
	return found
}
