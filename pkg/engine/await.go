package engine

import (
	"github.com/esfix/esfix/pkg/ast"
	"github.com/esfix/esfix/pkg/scope"
)

// promiseToAwait restructures full continuation chains in statement or
// return position into straight-line await code:
//
//	base.then(ok).catch(fail);   →  try {
//	                                  const v = await base;
//	                                  ...ok body
//	                                } catch (e) {
//	                                  ...fail body
//	                                }
//
// The chain must carry both stages; a bare `.then(...)` subscription keeps
// its fire-and-forget error routing and is left alone. Handlers must be
// written inline with exactly one plain-identifier parameter and a block
// body; function-expression handlers must not lean on their own `this` or
// `arguments`. The enclosing function is marked async. The rewrite
// declines whenever inlining could capture or collide with an existing
// name, and in return position whenever a handler body can fall off its
// end (the chain's resolution value would be lost).
type promiseToAwait struct{}

func (promiseToAwait) ID() string      { return "promise-to-await" }
func (promiseToAwait) MinLevel() Level { return Level2 }

func (promiseToAwait) Apply(a *Analysis, id ast.NodeID) (ast.NodeID, bool) {
	p := a.Prog
	n := p.Node(id)
	if n.Kind != ast.ExprStmt && n.Kind != ast.Return {
		return ast.None, false
	}
	isReturn := n.Kind == ast.Return
	expr := p.Unparen(p.Kid(id, 0))
	if expr == ast.None {
		return ast.None, false
	}

	base, success, failure, ok := matchChain(p, expr)
	if !ok {
		return ast.None, false
	}

	fn := p.EnclosingFunction(id)
	if fn == ast.None || p.Node(fn).Has(ast.FlagGenerator) {
		return ast.None, false
	}

	siteScope := a.ScopeOf(id)
	if siteScope == nil || siteScope.Tainted() {
		return ast.None, false
	}

	h1, ok := matchHandler(a, success, siteScope, isReturn)
	if !ok {
		return ast.None, false
	}
	h2, ok := matchHandler(a, failure, siteScope, isReturn)
	if !ok {
		return ast.None, false
	}
	if h1.param == h2.param {
		// Same name in try head and catch clause would shadow
		// confusingly; leave the chain alone.
		return ast.None, false
	}

	line := n.Line
	parent := n.Parent
	head := awaitHead(p, h1, base, line)

	try := p.Alloc(ast.Try, line)
	tryBlock := p.Alloc(ast.Block, line)
	p.AddKid(tryBlock, head)
	for _, s := range handlerStmts(p, h1) {
		p.AddKid(tryBlock, s)
	}
	catchParam := p.Alloc(ast.Ident, line)
	p.Node(catchParam).Name = h2.param
	catchBlock := p.Alloc(ast.Block, line)
	for _, s := range handlerStmts(p, h2) {
		p.AddKid(catchBlock, s)
	}
	p.SetKid(try, 0, tryBlock)
	p.SetKid(try, 1, catchParam)
	p.SetKid(try, 2, catchBlock)
	p.SetKid(try, 3, ast.None)
	if !p.ReplaceChild(parent, id, try) {
		return ast.None, false
	}
	p.Node(fn).Flags |= ast.FlagAsync
	return try, true
}

// matchChain recognizes exactly `base.then(h1).catch(h2)`. A then-only
// subscription is not matched: removing it would silently change where a
// rejection lands. Two-argument then is likewise rejected: its rejection
// handler does not see errors thrown by the fulfillment handler, which
// try/catch would.
func matchChain(p *ast.Program, expr ast.NodeID) (base, success, failure ast.NodeID, ok bool) {
	recv, isCatch := staticMemberCall(p, expr, "catch")
	if !isCatch || len(p.Args(expr)) != 1 || hasSpread(p, expr) {
		return ast.None, ast.None, ast.None, false
	}
	failure = p.Args(expr)[0]
	inner := p.Unparen(recv)
	recv, isThen := staticMemberCall(p, inner, "then")
	if !isThen || len(p.Args(inner)) != 1 || hasSpread(p, inner) {
		return ast.None, ast.None, ast.None, false
	}
	return recv, p.Args(inner)[0], failure, true
}

// handlerInfo is a continuation handler cleared for inlining.
type handlerInfo struct {
	fn    ast.NodeID
	param string
	body  ast.NodeID
}

// matchHandler validates one handler argument against the inlining
// conditions relative to the rewrite site's scope.
func matchHandler(a *Analysis, arg ast.NodeID, site *scope.Scope, isReturn bool) (*handlerInfo, bool) {
	p := a.Prog
	fn := p.Unparen(arg)
	if fn == ast.None {
		return nil, false
	}
	n := p.Node(fn)
	if n.Kind != ast.FuncExpr && n.Kind != ast.Arrow {
		return nil, false
	}
	if n.Has(ast.FlagAsync) || n.Has(ast.FlagGenerator) {
		return nil, false
	}
	if n.Kind == ast.FuncExpr && n.Name != "" {
		return nil, false
	}
	fnScope := a.Scopes.ScopeIntroducedBy(fn)
	if fnScope == nil || fnScope.Tainted() {
		return nil, false
	}
	if n.Kind == ast.FuncExpr {
		if a.Scopes.UsesFreeIdentifier(fn, "this") || a.Scopes.UsesFreeIdentifier(fn, "arguments") {
			return nil, false
		}
	}

	h := &handlerInfo{fn: fn}
	params := p.Node(p.FuncParams(fn)).Kids
	if len(params) != 1 {
		return nil, false
	}
	pn := p.Node(params[0])
	if pn.Kind != ast.Ident {
		return nil, false
	}
	h.param = pn.Name
	// A parameter name that resolves in the surrounding scope would be
	// captured or shadowed by the inlined declaration.
	if site.Lookup(h.param) != nil {
		return nil, false
	}

	body := p.FuncBody(fn)
	if body == ast.None || n.Has(ast.FlagExprBody) || p.Node(body).Kind != ast.Block {
		return nil, false
	}
	h.body = body

	for _, s := range p.Node(body).Kids {
		switch p.Node(s).Kind {
		case ast.VarDecl:
			for _, d := range p.Node(s).Kids {
				for name := range a.Scopes.DeclaredNames(p.Kid(d, 0)) {
					if site.Lookup(name) != nil {
						return nil, false
					}
				}
			}
		case ast.FuncDecl:
			if site.Lookup(p.Node(s).Name) != nil {
				return nil, false
			}
		}
	}

	if isReturn {
		if !terminates(p, body) {
			return nil, false
		}
	} else if returnsValue(p, body) {
		return nil, false
	}
	return h, true
}

// returnsValue reports whether the block contains any return statement
// outside nested functions. Inlining in statement position would turn it
// into a return from the surrounding function.
func returnsValue(p *ast.Program, body ast.NodeID) bool {
	found := false
	p.Walk(body, func(id ast.NodeID) bool {
		if found {
			return false
		}
		k := p.Node(id).Kind
		if k.IsFunction() {
			return false
		}
		if k == ast.Return {
			found = true
			return false
		}
		return true
	})
	return found
}

// terminates reports whether the block's last real statement is a return
// or throw, so control cannot fall off its end.
func terminates(p *ast.Program, body ast.NodeID) bool {
	kids := p.Node(body).Kids
	for i := len(kids) - 1; i >= 0; i-- {
		switch p.Node(kids[i]).Kind {
		case ast.Empty, ast.Comment:
			continue
		case ast.Return, ast.Throw:
			return true
		default:
			return false
		}
	}
	return false
}

// awaitHead builds the statement that replaces the chain's subscription:
// `const <param> = await base;`.
func awaitHead(p *ast.Program, h *handlerInfo, base ast.NodeID, line int) ast.NodeID {
	await := p.Alloc(ast.Await, line)
	p.AddKid(await, base)
	name := p.Alloc(ast.Ident, line)
	p.Node(name).Name = h.param
	decl := p.Alloc(ast.Declarator, line)
	p.SetKid(decl, 0, name)
	p.SetKid(decl, 1, await)
	varDecl := p.Alloc(ast.VarDecl, line)
	p.Node(varDecl).Op = "const"
	p.AddKid(varDecl, decl)
	return varDecl
}

// handlerStmts lifts a handler's block body into statements for inlining.
func handlerStmts(p *ast.Program, h *handlerInfo) []ast.NodeID {
	return append([]ast.NodeID{}, p.Node(h.body).Kids...)
}

// returnAwait adjusts returns of recognizably pending computations so
// rejection flows through the surrounding try/catch machinery:
//
//	return Promise.resolve(v)  →  return v
//	return Promise.reject(v)   →  throw v
//	return <pending>           →  return await <pending>
//
// A plain function containing such a return becomes async as part of the
// rewrite; its callers see the same promise-valued contract either way.
// Generators are left alone, and an inner function turning async never
// propagates to an enclosing one.
type returnAwait struct{}

func (returnAwait) ID() string      { return "return-await" }
func (returnAwait) MinLevel() Level { return Level2 }

func (returnAwait) Apply(a *Analysis, id ast.NodeID) (ast.NodeID, bool) {
	p := a.Prog
	n := p.Node(id)
	if n.Kind != ast.Return {
		return ast.None, false
	}
	fn := p.EnclosingFunction(id)
	if fn == ast.None || p.Node(fn).Has(ast.FlagGenerator) {
		return ast.None, false
	}
	arg := p.Unparen(p.Kid(id, 0))
	if arg == ast.None || p.Node(arg).Kind == ast.Await {
		return ast.None, false
	}
	line := n.Line

	if v, ok := settledValue(a, arg, "resolve"); ok {
		p.SetKid(id, 0, v)
		if v == ast.None {
			p.Node(id).Kids = p.Node(id).Kids[:0]
		}
		p.Node(fn).Flags |= ast.FlagAsync
		return id, true
	}
	if v, ok := settledValue(a, arg, "reject"); ok {
		if v == ast.None {
			v = p.Alloc(ast.Ident, line)
			p.Node(v).Name = "undefined"
		}
		thr := p.Alloc(ast.Throw, line)
		p.SetKid(thr, 0, v)
		if !p.ReplaceChild(p.Node(id).Parent, id, thr) {
			return ast.None, false
		}
		p.Node(fn).Flags |= ast.FlagAsync
		return thr, true
	}

	if !isPending(a, arg) {
		return ast.None, false
	}
	await := p.Alloc(ast.Await, line)
	p.AddKid(await, arg)
	p.SetKid(id, 0, await)
	p.Node(fn).Flags |= ast.FlagAsync
	return id, true
}

// settledValue matches `Promise.resolve(v)` / `Promise.reject(v)` with
// Promise unshadowed, returning the settled value (None for the
// zero-argument forms).
func settledValue(a *Analysis, call ast.NodeID, method string) (ast.NodeID, bool) {
	p := a.Prog
	obj, ok := staticMemberCall(p, call, method)
	if !ok {
		return ast.None, false
	}
	obj = p.Unparen(obj)
	if !p.IsGlobalIdent(obj, "Promise") || !globalUnshadowed(a, obj, "Promise") {
		return ast.None, false
	}
	args := p.Args(call)
	if len(args) > 1 || hasSpread(p, call) {
		return ast.None, false
	}
	if len(args) == 0 {
		return ast.None, true
	}
	return args[0], true
}

// isPending reports whether the expression is a recognizably pending
// computation: a promise construction, a Promise combinator, or a chain
// ending in then/catch/finally.
func isPending(a *Analysis, expr ast.NodeID) bool {
	p := a.Prog
	n := p.Node(expr)
	switch n.Kind {
	case ast.New:
		callee := p.Unparen(p.Callee(expr))
		return p.IsGlobalIdent(callee, "Promise") && globalUnshadowed(a, callee, "Promise")
	case ast.Call:
		callee := p.Unparen(p.Callee(expr))
		if callee == ast.None || p.Node(callee).Kind != ast.Member {
			return false
		}
		obj, okAll := p.IsStaticMember(callee, "all")
		if !okAll {
			for _, m := range []string{"race", "any", "allSettled"} {
				if o, ok := p.IsStaticMember(callee, m); ok {
					obj, okAll = o, true
					break
				}
			}
		}
		if okAll {
			obj = p.Unparen(obj)
			return p.IsGlobalIdent(obj, "Promise") && globalUnshadowed(a, obj, "Promise")
		}
		for _, m := range []string{"then", "catch", "finally"} {
			if _, ok := p.IsStaticMember(callee, m); ok {
				return true
			}
		}
	}
	return false
}
