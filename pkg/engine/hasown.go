package engine

import (
	"github.com/esfix/esfix/pkg/ast"
)

// hasOwnPropertyToHasOwn rewrites the classic own-property probe
// `Object.prototype.hasOwnProperty.call(o, k)` as `Object.hasOwn(o, k)`.
type hasOwnPropertyToHasOwn struct{}

func (hasOwnPropertyToHasOwn) ID() string      { return "hasownproperty-to-hasown" }
func (hasOwnPropertyToHasOwn) MinLevel() Level { return Level1 }

func (hasOwnPropertyToHasOwn) Apply(a *Analysis, id ast.NodeID) (ast.NodeID, bool) {
	p := a.Prog
	fn, ok := staticMemberCall(p, id, "call")
	if !ok {
		return ast.None, false
	}
	// fn must be Object.prototype.hasOwnProperty with Object unshadowed.
	fn = p.Unparen(fn)
	proto, ok := p.IsStaticMember(fn, "hasOwnProperty")
	if !ok {
		return ast.None, false
	}
	objIdent, ok := p.IsStaticMember(p.Unparen(proto), "prototype")
	if !ok {
		return ast.None, false
	}
	objIdent = p.Unparen(objIdent)
	if !p.IsGlobalIdent(objIdent, "Object") || !globalUnshadowed(a, objIdent, "Object") {
		return ast.None, false
	}
	args := p.Args(id)
	if len(args) != 2 || hasSpread(p, id) {
		return ast.None, false
	}

	line := p.Node(id).Line
	object := p.Alloc(ast.Ident, line)
	p.Node(object).Name = "Object"
	prop := p.Alloc(ast.Ident, line)
	p.Node(prop).Name = "hasOwn"
	member := p.Alloc(ast.Member, line)
	p.AddKid(member, object)
	p.AddKid(member, prop)
	call := p.Alloc(ast.Call, line)
	p.AddKid(call, member)
	p.AddKid(call, args[0])
	p.AddKid(call, args[1])

	if !p.ReplaceChild(p.Node(id).Parent, id, call) {
		return ast.None, false
	}
	return call, true
}
