package engine

import (
	"github.com/esfix/esfix/pkg/ast"
)

// indexOfToIncludes rewrites presence tests built on indexOf:
//
//	a.indexOf(b) !== -1  →  a.includes(b)
//	a.indexOf(b) === -1  →  !a.includes(b)
//
// and the loose-equality forms. The comparison may sit on either side.
type indexOfToIncludes struct{}

func (indexOfToIncludes) ID() string      { return "indexof-to-includes" }
func (indexOfToIncludes) MinLevel() Level { return Level1 }

func (indexOfToIncludes) Apply(a *Analysis, id ast.NodeID) (ast.NodeID, bool) {
	p := a.Prog
	n := p.Node(id)
	if n.Kind != ast.Binary {
		return ast.None, false
	}
	var negated bool
	switch n.Op {
	case "===", "==":
		negated = true
	case "!==", "!=":
		negated = false
	default:
		return ast.None, false
	}
	left, right := p.Kid(id, 0), p.Kid(id, 1)
	call := p.Unparen(left)
	other := right
	if !isIndexOfCall(p, call) {
		call = p.Unparen(right)
		other = left
	}
	if !isIndexOfCall(p, call) || !isMinusOne(p, other) {
		return ast.None, false
	}

	recv, _ := staticMemberCall(p, call, "indexOf")
	needle := p.Args(call)[0]
	line := n.Line

	member := p.Alloc(ast.Member, line)
	prop := p.Alloc(ast.Ident, line)
	p.Node(prop).Name = "includes"
	p.AddKid(member, recv)
	p.AddKid(member, prop)
	includes := p.Alloc(ast.Call, line)
	p.AddKid(includes, member)
	p.AddKid(includes, needle)

	repl := includes
	if negated {
		not := p.Alloc(ast.Unary, line)
		p.Node(not).Op = "!"
		p.AddKid(not, includes)
		repl = not
	}
	if !p.ReplaceChild(p.Node(id).Parent, id, repl) {
		return ast.None, false
	}
	return repl, true
}

func isIndexOfCall(p *ast.Program, id ast.NodeID) bool {
	if id == ast.None {
		return false
	}
	recv, ok := staticMemberCall(p, id, "indexOf")
	if !ok || recv == ast.None {
		return false
	}
	return len(p.Args(id)) == 1 && !hasSpread(p, id)
}

func isMinusOne(p *ast.Program, id ast.NodeID) bool {
	id = p.Unparen(id)
	if id == ast.None {
		return false
	}
	n := p.Node(id)
	if n.Kind != ast.Unary || n.Op != "-" {
		return false
	}
	arg := p.Unparen(p.Kid(id, 0))
	return arg != ast.None && p.Node(arg).Kind == ast.Number && p.Node(arg).Raw == "1"
}
