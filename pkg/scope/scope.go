// Package scope builds a lexical scope tree over one Program and answers
// the binding-safety questions rewrite rules depend on: is a name ever
// reassigned, is it shadowed between declaration and use, does a function
// reference it freely. Analysis is rebuilt from scratch for every engine
// pass; no binding data survives a tree mutation.
//
// The failure posture is uniformly conservative: shapes the analysis does
// not model (opaque regions, unexpected nodes) make every query answer as
// if the rewrite were unsafe, so dependent rules decline instead of
// firing.
package scope

import (
	"github.com/esfix/esfix/pkg/ast"
)

// Kind classifies a scope.
type Kind int

const (
	// ScopeModule is the file-level scope.
	ScopeModule Kind = iota
	// ScopeFunction is introduced by any function form.
	ScopeFunction
	// ScopeBlock is introduced by blocks, loops, switches and catch bodies.
	ScopeBlock
)

// BindKind records how a binding was introduced.
type BindKind int

const (
	BindVar BindKind = iota
	BindLet
	BindConst
	BindParam
	BindFunc
	BindCatch
)

// Binding is one declared name. Write and read site sets are derived once
// per analysis and refer to identifier nodes in the current tree.
type Binding struct {
	Name  string
	Kind  BindKind
	Scope *Scope
	Decl  ast.NodeID // identifier node at the declaration site
	Stmt  ast.NodeID // declaring statement (VarDecl, FuncDecl, function, Try)
	Init  ast.NodeID // initializer, None unless declared as `name = expr`

	Writes []ast.NodeID // write sites beyond the initializer
	Reads  []ast.NodeID
	Dups   int // extra declarations of the same name in the same scope
}

// Scope is one node of the lexical scope tree.
type Scope struct {
	Kind     Kind
	Node     ast.NodeID // owning tree node
	Parent   *Scope
	Children []*Scope

	names    map[string]*Binding
	order    []string
	tainted  bool // scope directly contains an opaque construct
	taintSub bool // some scope in this subtree is tainted
}

// Declares reports whether the scope itself declares name.
func (s *Scope) Declares(name string) bool {
	_, ok := s.names[name]
	return ok
}

// Binding returns the binding declared directly in this scope, or nil.
func (s *Scope) Binding(name string) *Binding {
	return s.names[name]
}

// Lookup resolves name through the scope chain, innermost first.
func (s *Scope) Lookup(name string) *Binding {
	for cur := s; cur != nil; cur = cur.Parent {
		if b, ok := cur.names[name]; ok {
			return b
		}
	}
	return nil
}

// Names returns the directly declared names in declaration order.
func (s *Scope) Names() []string { return s.order }

// Tainted reports whether this scope or any scope beneath it contains a
// construct the analysis cannot model.
func (s *Scope) Tainted() bool { return s.tainted || s.taintSub }

// Info is the result of analyzing one Program.
type Info struct {
	prog      *ast.Program
	module    *Scope
	scopes    map[ast.NodeID]*Scope // owning node -> its scope
	enclosing map[ast.NodeID]*Scope // any visited node -> containing scope
	order     map[ast.NodeID]int    // pre-order source position
}

// Module returns the file-level scope.
func (in *Info) Module() *Scope { return in.module }

// ScopeIntroducedBy returns the scope owned by node, or nil.
func (in *Info) ScopeIntroducedBy(node ast.NodeID) *Scope { return in.scopes[node] }

// ScopeOf returns the scope enclosing node. Unknown nodes (created after
// this analysis ran) resolve to nil, which every query treats
// conservatively.
func (in *Info) ScopeOf(node ast.NodeID) *Scope {
	if s, ok := in.enclosing[node]; ok {
		return s
	}
	return nil
}

// Order returns node's pre-order position in the analyzed tree, or -1 for
// nodes the analysis never saw.
func (in *Info) Order(node ast.NodeID) int {
	if o, ok := in.order[node]; ok {
		return o
	}
	return -1
}

// Analyze builds the scope tree, bindings and use sites for p's current
// state.
func (in *Info) analyze() {
	b := &builder{p: in.prog, info: in}
	root := in.prog.Root()
	in.module = b.pushScope(ScopeModule, root)
	for _, stmt := range in.prog.Node(root).Kids {
		b.walkStmt(stmt)
	}
	b.resolveAll()
	propagateTaint(in.module)
}

// Analyze derives scope and binding information for the Program's current
// tree. The result is valid until the tree changes.
func Analyze(p *ast.Program) *Info {
	in := &Info{
		prog:      p,
		scopes:    make(map[ast.NodeID]*Scope),
		enclosing: make(map[ast.NodeID]*Scope),
		order:     make(map[ast.NodeID]int),
	}
	// Pre-order source positions for before/after queries.
	pos := 0
	p.Walk(p.Root(), func(id ast.NodeID) bool {
		in.order[id] = pos
		pos++
		return true
	})
	in.analyze()
	return in
}

func propagateTaint(s *Scope) bool {
	sub := s.tainted
	for _, c := range s.Children {
		if propagateTaint(c) {
			sub = true
		}
	}
	s.taintSub = sub
	return sub
}

// pendingRef is a use site recorded during the walk and resolved once all
// declarations are known (var hoisting).
type pendingRef struct {
	scope *Scope
	node  ast.NodeID // the identifier node
	name  string
	write bool
}

type builder struct {
	p    *ast.Program
	info *Info
	cur  *Scope
	refs []pendingRef
}

func (b *builder) pushScope(kind Kind, owner ast.NodeID) *Scope {
	s := &Scope{Kind: kind, Node: owner, Parent: b.cur, names: make(map[string]*Binding)}
	if b.cur != nil {
		b.cur.Children = append(b.cur.Children, s)
	}
	b.info.scopes[owner] = s
	b.cur = s
	return s
}

func (b *builder) popScope() { b.cur = b.cur.Parent }

func (b *builder) note(id ast.NodeID) {
	if id != ast.None {
		b.info.enclosing[id] = b.cur
	}
}

// hoistTarget returns the scope a `var` or function declaration lands in.
func (b *builder) hoistTarget() *Scope {
	for s := b.cur; s != nil; s = s.Parent {
		if s.Kind != ScopeBlock {
			return s
		}
	}
	return b.cur
}

func (b *builder) declare(target *Scope, name string, kind BindKind, declNode, stmt, init ast.NodeID) {
	if prev, ok := target.names[name]; ok {
		// Redeclaration. The later initializer is a write as far as
		// fixed-once classification goes.
		prev.Dups++
		if init != ast.None {
			prev.Writes = append(prev.Writes, declNode)
		}
		return
	}
	bind := &Binding{
		Name: name, Kind: kind, Scope: target,
		Decl: declNode, Stmt: stmt, Init: init,
	}
	target.names[name] = bind
	target.order = append(target.order, name)
}

func (b *builder) taint() {
	b.cur.tainted = true
}

func (b *builder) ref(id ast.NodeID, write bool) {
	n := b.p.Node(id)
	if n.Kind != ast.Ident {
		return
	}
	b.refs = append(b.refs, pendingRef{scope: b.cur, node: id, name: n.Name, write: write})
}

func (b *builder) resolveAll() {
	for _, r := range b.refs {
		bind := r.scope.Lookup(r.name)
		if bind == nil {
			continue // global or undeclared; nothing to attach
		}
		if r.write {
			bind.Writes = append(bind.Writes, r.node)
		} else {
			bind.Reads = append(bind.Reads, r.node)
		}
	}
}

// walkStmt processes one statement in the current scope.
func (b *builder) walkStmt(id ast.NodeID) {
	if id == ast.None {
		return
	}
	b.note(id)
	p := b.p
	n := p.Node(id)
	switch n.Kind {
	case ast.VarDecl:
		b.walkVarDecl(id)
	case ast.FuncDecl:
		b.declare(b.hoistTarget(), n.Name, BindFunc, id, id, ast.None)
		b.walkFunction(id)
	case ast.Block:
		b.pushScope(ScopeBlock, id)
		for _, s := range n.Kids {
			b.walkStmt(s)
		}
		b.popScope()
	case ast.ExprStmt, ast.Throw, ast.Await:
		b.walkExpr(p.Kid(id, 0))
	case ast.Return:
		b.walkExpr(p.Kid(id, 0))
	case ast.If:
		b.walkExpr(p.Kid(id, 0))
		b.walkStmt(p.Kid(id, 1))
		b.walkStmt(p.Kid(id, 2))
	case ast.For:
		b.pushScope(ScopeBlock, id)
		init := p.Kid(id, 0)
		if init != ast.None && p.Node(init).Kind == ast.VarDecl {
			b.note(init)
			b.walkVarDecl(init)
		} else {
			b.walkExpr(init)
		}
		b.walkExpr(p.Kid(id, 1))
		b.walkExpr(p.Kid(id, 2))
		b.walkStmt(p.Kid(id, 3))
		b.popScope()
	case ast.ForIn:
		b.pushScope(ScopeBlock, id)
		left := p.Kid(id, 0)
		if left != ast.None && p.Node(left).Kind == ast.VarDecl {
			b.note(left)
			// The per-iteration rebinding is not a write: each iteration
			// conceptually gets a fresh binding, which is what makes
			// `for (const x of xs)` legal.
			b.walkVarDecl(left)
		} else {
			b.walkTarget(left)
		}
		b.walkExpr(p.Kid(id, 1))
		b.walkStmt(p.Kid(id, 2))
		b.popScope()
	case ast.While:
		b.walkExpr(p.Kid(id, 0))
		b.walkStmt(p.Kid(id, 1))
	case ast.DoWhile:
		b.walkStmt(p.Kid(id, 0))
		b.walkExpr(p.Kid(id, 1))
	case ast.Labeled:
		b.walkStmt(p.Kid(id, 0))
	case ast.Switch:
		b.walkExpr(p.Kid(id, 0))
		b.pushScope(ScopeBlock, id)
		for _, cs := range n.Kids[1:] {
			b.note(cs)
			kids := p.Node(cs).Kids
			b.walkExpr(kids[0])
			for _, s := range kids[1:] {
				b.walkStmt(s)
			}
		}
		b.popScope()
	case ast.Try:
		b.walkStmt(p.Kid(id, 0))
		if handler := p.Kid(id, 2); handler != ast.None {
			b.pushScope(ScopeBlock, handler)
			if param := p.Kid(id, 1); param != ast.None {
				b.note(param)
				for name, declNode := range patternNames(p, param) {
					b.declare(b.cur, name, BindCatch, declNode, id, ast.None)
				}
				b.walkPatternDefaults(param)
			}
			for _, s := range p.Node(handler).Kids {
				b.walkStmt(s)
			}
			b.popScope()
		}
		b.walkStmt(p.Kid(id, 3))
	case ast.Break, ast.Continue, ast.Empty, ast.Comment:
		// No bindings, no references.
	case ast.Opaque:
		b.taint()
	default:
		// A rewrite may leave a bare expression in statement position.
		b.walkExpr(id)
	}
}

// walkVarDecl declares each declarator's names and walks initializers.
func (b *builder) walkVarDecl(id ast.NodeID) {
	p := b.p
	n := p.Node(id)
	var kind BindKind
	var target *Scope
	switch n.Op {
	case "var":
		kind, target = BindVar, b.hoistTarget()
	case "const":
		kind, target = BindConst, b.cur
	default:
		kind, target = BindLet, b.cur
	}
	for _, d := range n.Kids {
		b.note(d)
		pattern := p.Kid(d, 0)
		init := p.Kid(d, 1)
		simple := pattern != ast.None && p.Node(pattern).Kind == ast.Ident
		for name, declNode := range patternNames(p, pattern) {
			bindInit := ast.None
			if simple {
				bindInit = init
			}
			b.declare(target, name, kind, declNode, id, bindInit)
		}
		b.walkPatternDefaults(pattern)
		b.walkExpr(init)
	}
}

// walkFunction handles any function form: own scope, parameter bindings,
// body without an extra block scope.
func (b *builder) walkFunction(id ast.NodeID) {
	p := b.p
	n := p.Node(id)
	b.pushScope(ScopeFunction, id)
	if n.Kind == ast.FuncExpr && n.Name != "" {
		b.declare(b.cur, n.Name, BindFunc, id, id, ast.None)
	}
	if params := p.FuncParams(id); params != ast.None {
		b.note(params)
		for _, param := range p.Node(params).Kids {
			b.note(param)
			for name, declNode := range patternNames(p, param) {
				b.declare(b.cur, name, BindParam, declNode, id, ast.None)
			}
			b.walkPatternDefaults(param)
		}
	}
	body := p.FuncBody(id)
	if body != ast.None && p.Node(body).Kind == ast.Block {
		b.note(body)
		for _, s := range p.Node(body).Kids {
			b.walkStmt(s)
		}
	} else {
		b.walkExpr(body)
	}
	b.popScope()
}

// walkExpr records reads and descends into nested structures.
func (b *builder) walkExpr(id ast.NodeID) {
	if id == ast.None {
		return
	}
	b.note(id)
	p := b.p
	n := p.Node(id)
	switch n.Kind {
	case ast.Ident:
		b.ref(id, false)
	case ast.Member:
		b.walkExpr(p.MemberObject(id))
		if n.Has(ast.FlagComputed) {
			b.walkExpr(p.MemberProp(id))
		} else {
			b.note(p.MemberProp(id))
		}
	case ast.Assign:
		b.walkTarget(p.Kid(id, 0))
		if n.Op != "=" {
			// Compound assignment also reads the target.
			b.markTargetReads(p.Kid(id, 0))
		}
		b.walkExpr(p.Kid(id, 1))
	case ast.Update:
		b.walkTarget(p.Kid(id, 0))
		b.markTargetReads(p.Kid(id, 0))
	case ast.Property:
		if n.Has(ast.FlagComputed) {
			b.walkExpr(p.Kid(id, 0))
		} else {
			b.note(p.Kid(id, 0))
		}
		b.walkExpr(p.Kid(id, 1))
	case ast.FuncExpr, ast.Arrow:
		b.walkFunction(id)
	case ast.FuncDecl:
		b.declare(b.hoistTarget(), n.Name, BindFunc, id, id, ast.None)
		b.walkFunction(id)
	case ast.Opaque:
		b.taint()
	case ast.This, ast.Number, ast.String, ast.Regex, ast.Bool, ast.Null, ast.Empty:
		// Leaves.
	default:
		for _, k := range n.Kids {
			b.walkExpr(k)
		}
	}
}

// walkTarget records writes for an assignment target, which may be an
// identifier, member access or destructuring pattern.
func (b *builder) walkTarget(id ast.NodeID) {
	if id == ast.None {
		return
	}
	b.note(id)
	p := b.p
	n := p.Node(id)
	switch n.Kind {
	case ast.Ident:
		b.ref(id, true)
	case ast.Member:
		// Writing a property reads the object.
		b.walkExpr(p.MemberObject(id))
		if n.Has(ast.FlagComputed) {
			b.walkExpr(p.MemberProp(id))
		} else {
			b.note(p.MemberProp(id))
		}
	case ast.Paren:
		b.walkTarget(p.Kid(id, 0))
	case ast.ObjectPattern, ast.Object:
		for _, prop := range n.Kids {
			b.note(prop)
			pn := p.Node(prop)
			switch pn.Kind {
			case ast.Property:
				if pn.Has(ast.FlagComputed) {
					b.walkExpr(p.Kid(prop, 0))
				} else {
					b.note(p.Kid(prop, 0))
				}
				b.walkTarget(p.Kid(prop, 1))
			case ast.Rest, ast.Spread:
				b.walkTarget(p.Kid(prop, 0))
			default:
				b.walkExpr(prop)
			}
		}
	case ast.ArrayPattern, ast.Array:
		for _, el := range n.Kids {
			b.walkTarget(el)
		}
	case ast.AssignPattern:
		b.walkTarget(p.Kid(id, 0))
		b.walkExpr(p.Kid(id, 1))
	case ast.Rest, ast.Spread:
		b.walkTarget(p.Kid(id, 0))
	case ast.Opaque:
		b.taint()
	default:
		b.walkExpr(id)
	}
}

// markTargetReads records the read half of compound assignments and
// updates for plain identifier targets.
func (b *builder) markTargetReads(id ast.NodeID) {
	if id == ast.None {
		return
	}
	if b.p.Node(id).Kind == ast.Ident {
		b.ref(id, false)
	}
}

// walkPatternDefaults visits the expression parts of a binding pattern
// (defaults and computed keys), which are evaluated as reads.
func (b *builder) walkPatternDefaults(id ast.NodeID) {
	if id == ast.None {
		return
	}
	p := b.p
	n := p.Node(id)
	switch n.Kind {
	case ast.Ident:
		b.note(id)
	case ast.AssignPattern:
		b.walkPatternDefaults(p.Kid(id, 0))
		b.walkExpr(p.Kid(id, 1))
	case ast.ObjectPattern:
		for _, prop := range n.Kids {
			b.note(prop)
			pn := p.Node(prop)
			if pn.Kind == ast.Property {
				if pn.Has(ast.FlagComputed) {
					b.walkExpr(p.Kid(prop, 0))
				}
				b.walkPatternDefaults(p.Kid(prop, 1))
			} else {
				b.walkPatternDefaults(prop)
			}
		}
	case ast.ArrayPattern:
		for _, el := range n.Kids {
			b.walkPatternDefaults(el)
		}
	case ast.Rest:
		b.walkPatternDefaults(p.Kid(id, 0))
	case ast.Opaque:
		b.taint()
	}
}
