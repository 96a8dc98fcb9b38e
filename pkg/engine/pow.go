package engine

import (
	"github.com/esfix/esfix/pkg/ast"
)

// powToExponent rewrites `Math.pow(a, b)` as `a ** b` when Math still
// means the global.
type powToExponent struct{}

func (powToExponent) ID() string      { return "pow-to-exponent" }
func (powToExponent) MinLevel() Level { return Level1 }

func (powToExponent) Apply(a *Analysis, id ast.NodeID) (ast.NodeID, bool) {
	p := a.Prog
	obj, ok := staticMemberCall(p, id, "pow")
	if !ok || !p.IsGlobalIdent(p.Unparen(obj), "Math") {
		return ast.None, false
	}
	if !globalUnshadowed(a, p.Unparen(obj), "Math") {
		return ast.None, false
	}
	args := p.Args(id)
	if len(args) != 2 || hasSpread(p, id) {
		return ast.None, false
	}
	base, exp := args[0], args[1]
	// Opaque operands have unknown precedence; the printer could not
	// parenthesize them correctly.
	if containsOpaque(p, base) || containsOpaque(p, exp) {
		return ast.None, false
	}
	parent := p.Node(id).Parent
	bin := p.Alloc(ast.Binary, p.Node(id).Line)
	p.Node(bin).Op = "**"
	p.AddKid(bin, base)
	p.AddKid(bin, exp)
	if !p.ReplaceChild(parent, id, bin) {
		return ast.None, false
	}
	return bin, true
}
