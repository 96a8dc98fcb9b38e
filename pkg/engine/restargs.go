package engine

import (
	"github.com/esfix/esfix/pkg/ast"
	"github.com/esfix/esfix/pkg/scope"
)

// argumentsToRest turns the classic arguments-copy idiom into a rest
// parameter:
//
//	function f(a) {                      function f(a, ...args) {
//	  var args = Array.prototype           ...
//	    .slice.call(arguments);          }
//	  ...
//	}
//
// The binding must provably hold exactly that slice for its whole life
// (single establishment, never reassigned, never escaping), the function
// must be a non-arrow with no other use of `arguments` and no existing
// rest parameter, and the slice must start at the first argument.
type argumentsToRest struct{}

func (argumentsToRest) ID() string      { return "arguments-to-rest" }
func (argumentsToRest) MinLevel() Level { return Level2 }

func (argumentsToRest) Apply(a *Analysis, id ast.NodeID) (ast.NodeID, bool) {
	p := a.Prog
	n := p.Node(id)
	if n.Kind != ast.FuncDecl && n.Kind != ast.FuncExpr {
		return ast.None, false
	}
	if n.Has(ast.FlagGenerator) {
		return ast.None, false
	}
	fnScope := a.Scopes.ScopeIntroducedBy(id)
	if fnScope == nil || fnScope.Tainted() {
		return ast.None, false
	}
	params := p.FuncParams(id)
	if params == ast.None || hasRestParam(p, params) {
		return ast.None, false
	}

	b := sliceBinding(a, id, fnScope)
	if b == nil {
		return ast.None, false
	}

	// Remove the copying declaration, then grow the signature.
	decl := b.Stmt
	declParent := p.Node(decl).Parent
	if p.Node(decl).Kind != ast.VarDecl || declParent == ast.None {
		return ast.None, false
	}
	if len(p.Node(decl).Kids) == 1 {
		if !p.RemoveChild(declParent, decl) {
			return ast.None, false
		}
	} else {
		declarator := p.Node(b.Decl).Parent
		if !p.RemoveChild(decl, declarator) {
			return ast.None, false
		}
	}

	line := p.Node(id).Line
	name := p.Alloc(ast.Ident, line)
	p.Node(name).Name = b.Name
	rest := p.Alloc(ast.Rest, line)
	p.SetKid(rest, 0, name)
	p.AddKid(params, rest)
	return id, true
}

func hasRestParam(p *ast.Program, params ast.NodeID) bool {
	for _, param := range p.Node(params).Kids {
		if param != ast.None && p.Node(param).Kind == ast.Rest {
			return true
		}
	}
	return false
}

// sliceBinding finds the one local whose provenance is exactly
// `Array.prototype.slice.call(arguments)`, provided the function has no
// other use of arguments.
func sliceBinding(a *Analysis, fn ast.NodeID, fnScope *scope.Scope) *scope.Binding {
	p := a.Prog
	var match *scope.Binding
	for _, name := range fnScope.Names() {
		b := fnScope.Binding(name)
		if b.Kind == scope.BindParam || b.Kind == scope.BindFunc {
			continue
		}
		if b.Init == ast.None {
			continue // established by assignment, not by the declarator
		}
		res := a.Prov.Resolve(fnScope, name)
		if !res.Known || res.Binding != b {
			continue
		}
		if !isArgumentsSlice(a, res.Value) {
			continue
		}
		if match != nil {
			return nil // two copies of arguments is too strange to touch
		}
		match = b
	}
	if match == nil {
		return nil
	}
	// The slice call must be the only place arguments is referenced.
	if countArgumentsUses(p, fn) != 1 {
		return nil
	}
	// The declaration must sit directly in the function body, not inside
	// a nested block where removal could change TDZ-visible structure.
	declParent := p.Node(match.Stmt).Parent
	if declParent == ast.None || declParent != p.FuncBody(fn) {
		return nil
	}
	return match
}

// isArgumentsSlice matches `Array.prototype.slice.call(arguments)` with
// Array unshadowed.
func isArgumentsSlice(a *Analysis, expr ast.NodeID) bool {
	p := a.Prog
	expr = p.Unparen(expr)
	if expr == ast.None {
		return false
	}
	fn, ok := staticMemberCall(p, expr, "call")
	if !ok {
		return false
	}
	proto, ok := p.IsStaticMember(p.Unparen(fn), "slice")
	if !ok {
		return false
	}
	arr, ok := p.IsStaticMember(p.Unparen(proto), "prototype")
	if !ok {
		return false
	}
	arr = p.Unparen(arr)
	if !p.IsGlobalIdent(arr, "Array") || !globalUnshadowed(a, arr, "Array") {
		return false
	}
	args := p.Args(expr)
	return len(args) == 1 && p.IsGlobalIdent(p.Unparen(args[0]), "arguments")
}

// countArgumentsUses counts references to arguments inside fn, not
// crossing into nested non-arrow functions, which rebind it.
func countArgumentsUses(p *ast.Program, fn ast.NodeID) int {
	count := 0
	p.Walk(fn, func(id ast.NodeID) bool {
		if id != fn {
			k := p.Node(id).Kind
			if k == ast.FuncDecl || k == ast.FuncExpr {
				return false
			}
		}
		n := p.Node(id)
		if n.Kind == ast.Ident && n.Name == "arguments" {
			parent := n.Parent
			if parent != ast.None {
				pn := p.Node(parent)
				if pn.Kind == ast.Member && !pn.Has(ast.FlagComputed) && p.MemberProp(parent) == id {
					return true
				}
				if pn.Kind == ast.Property && !pn.Has(ast.FlagComputed) && p.Kid(parent, 0) == id && !pn.Has(ast.FlagShorthand) {
					return true
				}
			}
			count++
		}
		return true
	})
	return count
}
