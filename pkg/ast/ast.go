// Package ast defines the mutable syntax tree the rewrite engine operates
// on. Nodes live in an arena owned by a Program and are addressed by
// integer ids; each node records its parent id and an ordered list of
// child ids, so the tree can be restructured without pointer cycles.
package ast

// NodeID addresses a node inside a Program's arena. The zero value is
// None and never refers to a real node.
type NodeID int32

// None is the absent-node id, used for optional child slots.
const None NodeID = 0

// Kind identifies the syntactic category of a node.
type Kind uint8

const (
	Invalid Kind = iota

	// Module is the root of a parsed file. Kids: statements.
	Module

	// Statements.
	VarDecl    // Op: "var" | "let" | "const". Kids: declarators.
	Block      // Kids: statements.
	ExprStmt   // Kids: [expr].
	Return     // Kids: [arg] (None for bare return).
	If         // Kids: [test, consequent, alternate] (alternate may be None).
	For        // Kids: [init, test, update, body] (first three may be None).
	ForIn      // Op: "in" | "of". Kids: [left, right, body].
	While      // Kids: [test, body].
	DoWhile    // Kids: [body, test].
	Break      // Name: label ("" if none).
	Continue   // Name: label ("" if none).
	Labeled    // Name: label. Kids: [body].
	Switch     // Kids: [discriminant, case...].
	SwitchCase // Kids: [test, stmt...] (test is None for default).
	Throw      // Kids: [expr].
	Try        // Kids: [block, catchParam, catchBody, finallyBody]; slots 1-3 may be None.
	Empty      // ';'
	Comment    // Raw: comment text, statement position only.

	// Declarations and functions.
	Declarator // Kids: [pattern, init] (init may be None).
	FuncDecl   // Name: function name. Kids: [params, body].
	FuncExpr   // Name: optional name. Kids: [params, body].
	Arrow      // Kids: [params, body]; FlagExprBody means body is an expression.
	Params     // Kids: parameter patterns.

	// Expressions.
	Ident    // Name: identifier text.
	This     //
	Number   // Raw: literal text.
	String   // Raw: literal text including quotes.
	Template // Raw: full template text. Kids: substitution expressions.
	Regex    // Raw: literal text.
	Bool     // Raw: "true" | "false".
	Null     //
	Array    // Kids: elements (Empty for holes).
	Object   // Kids: properties.
	Property // Kids: [key, value]; FlagComputed, FlagShorthand.
	Binary   // Op: operator. Kids: [left, right].
	Unary    // Op: operator. Kids: [arg].
	Update   // Op: "++" | "--"; FlagPrefix. Kids: [arg].
	Assign   // Op: "=", "+=", ... Kids: [target, value].
	Cond     // Kids: [test, consequent, alternate].
	Seq      // Kids: expressions.
	Paren    // Kids: [expr].
	Call     // Kids: [callee, arg...].
	New      // Kids: [callee, arg...].
	Member   // Kids: [object, property]; FlagComputed.
	Await    // Kids: [expr].
	Spread   // Kids: [arg].

	// Patterns.
	ObjectPattern // Kids: properties (Property or Rest).
	ArrayPattern  // Kids: elements (Empty for holes).
	AssignPattern // Kids: [target, default].
	Rest          // Kids: [arg].

	// Opaque preserves source text the tree does not model. It is printed
	// verbatim and treated as unanalyzable by every safety query.
	Opaque // Raw: original source text.
)

var kindNames = map[Kind]string{
	Invalid: "Invalid", Module: "Module", VarDecl: "VarDecl", Block: "Block",
	ExprStmt: "ExprStmt", Return: "Return", If: "If", For: "For",
	ForIn: "ForIn", While: "While", DoWhile: "DoWhile", Break: "Break",
	Continue: "Continue", Labeled: "Labeled", Switch: "Switch",
	SwitchCase: "SwitchCase", Throw: "Throw", Try: "Try", Empty: "Empty",
	Comment: "Comment", Declarator: "Declarator", FuncDecl: "FuncDecl",
	FuncExpr: "FuncExpr", Arrow: "Arrow", Params: "Params", Ident: "Ident",
	This: "This", Number: "Number", String: "String", Template: "Template",
	Regex: "Regex", Bool: "Bool", Null: "Null", Array: "Array",
	Object: "Object", Property: "Property", Binary: "Binary", Unary: "Unary",
	Update: "Update", Assign: "Assign", Cond: "Cond", Seq: "Seq",
	Paren: "Paren", Call: "Call", New: "New", Member: "Member",
	Await: "Await", Spread: "Spread", ObjectPattern: "ObjectPattern",
	ArrayPattern: "ArrayPattern", AssignPattern: "AssignPattern",
	Rest: "Rest", Opaque: "Opaque",
}

// String returns the kind name for debugging output.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Unknown"
}

// IsFunction reports whether the kind introduces a function body.
func (k Kind) IsFunction() bool {
	return k == FuncDecl || k == FuncExpr || k == Arrow
}

// IsPattern reports whether the kind can appear as a binding pattern.
func (k Kind) IsPattern() bool {
	switch k {
	case Ident, ObjectPattern, ArrayPattern, AssignPattern, Rest:
		return true
	}
	return false
}

// Flag is a bit set of node attributes.
type Flag uint8

const (
	// FlagAsync marks an async function.
	FlagAsync Flag = 1 << iota
	// FlagComputed marks a computed member access or property key.
	FlagComputed
	// FlagShorthand marks a shorthand object property.
	FlagShorthand
	// FlagPrefix marks a prefix update expression.
	FlagPrefix
	// FlagExprBody marks an arrow function whose body is an expression.
	FlagExprBody
	// FlagGenerator marks a generator function.
	FlagGenerator
)

// Node is one arena entry. Which of Name/Op/Raw and which child slots are
// meaningful depends on Kind; the conventions are documented on the Kind
// constants.
type Node struct {
	Kind   Kind
	Flags  Flag
	Parent NodeID
	Line   int // 1-based source line
	Name   string
	Op     string
	Raw    string
	Kids   []NodeID
}

// Has reports whether all given flags are set.
func (n *Node) Has(f Flag) bool { return n.Flags&f == f }

// Program owns the arena for one parsed file. A Program is exclusively
// owned by a single engine invocation and is not safe for concurrent use.
type Program struct {
	nodes []Node
	root  NodeID
}

// NewProgram returns an empty Program. Arena slot 0 is reserved so that
// None never aliases a real node.
func NewProgram() *Program {
	return &Program{nodes: make([]Node, 1, 64)}
}

// Alloc appends a node of the given kind and source line to the arena.
func (p *Program) Alloc(kind Kind, line int) NodeID {
	p.nodes = append(p.nodes, Node{Kind: kind, Line: line})
	return NodeID(len(p.nodes) - 1)
}

// Node returns a pointer into the arena. The pointer stays valid until the
// next Alloc, so callers must not hold it across allocations.
func (p *Program) Node(id NodeID) *Node {
	return &p.nodes[id]
}

// Len returns the number of allocated nodes, including the reserved slot.
func (p *Program) Len() int { return len(p.nodes) }

// Root returns the Module node id.
func (p *Program) Root() NodeID { return p.root }

// SetRoot records the Module node id.
func (p *Program) SetRoot(id NodeID) { p.root = id }

// AddKid appends kid to parent's child list and records the back-reference.
func (p *Program) AddKid(parent, kid NodeID) {
	p.nodes[parent].Kids = append(p.nodes[parent].Kids, kid)
	if kid != None {
		p.nodes[kid].Parent = parent
	}
}

// SetKid stores kid at a fixed child slot of parent, growing the list with
// None entries if needed.
func (p *Program) SetKid(parent NodeID, slot int, kid NodeID) {
	n := &p.nodes[parent]
	for len(n.Kids) <= slot {
		n.Kids = append(n.Kids, None)
	}
	n.Kids[slot] = kid
	if kid != None {
		p.nodes[kid].Parent = parent
	}
}

// Kid returns the child at slot, or None when the slot is absent.
func (p *Program) Kid(parent NodeID, slot int) NodeID {
	n := &p.nodes[parent]
	if slot >= len(n.Kids) {
		return None
	}
	return n.Kids[slot]
}

// ReplaceChild swaps old for new in parent's child list. It returns false
// when old is not a child of parent.
func (p *Program) ReplaceChild(parent, old, new NodeID) bool {
	kids := p.nodes[parent].Kids
	for i, k := range kids {
		if k == old && k != None {
			kids[i] = new
			p.nodes[new].Parent = parent
			return true
		}
	}
	return false
}

// RemoveChild deletes old from parent's child list, shifting later
// children left. It returns false when old is not a child of parent.
func (p *Program) RemoveChild(parent, old NodeID) bool {
	kids := p.nodes[parent].Kids
	for i, k := range kids {
		if k == old && k != None {
			p.nodes[parent].Kids = append(kids[:i], kids[i+1:]...)
			return true
		}
	}
	return false
}

// Walk visits the subtree rooted at id in pre-order. The callback returns
// false to skip the node's children. None slots are not visited.
func (p *Program) Walk(id NodeID, visit func(NodeID) bool) {
	if id == None {
		return
	}
	if !visit(id) {
		return
	}
	// Child lists may be mutated by the callback; index each step so newly
	// installed children are seen and removed ones are not revisited.
	for i := 0; i < len(p.nodes[id].Kids); i++ {
		p.Walk(p.nodes[id].Kids[i], visit)
	}
}

// EnclosingFunction returns the nearest function ancestor of id, or None
// when id sits at module level.
func (p *Program) EnclosingFunction(id NodeID) NodeID {
	for cur := p.nodes[id].Parent; cur != None; cur = p.nodes[cur].Parent {
		if p.nodes[cur].Kind.IsFunction() {
			return cur
		}
	}
	return None
}

// EnclosedBy reports whether id lies inside the subtree rooted at root
// (inclusive).
func (p *Program) EnclosedBy(id, root NodeID) bool {
	for cur := id; cur != None; cur = p.nodes[cur].Parent {
		if cur == root {
			return true
		}
	}
	return false
}

// Helpers for the documented child-slot conventions.

// Callee returns the callee of a Call or New node.
func (p *Program) Callee(call NodeID) NodeID { return p.Kid(call, 0) }

// Args returns the argument ids of a Call or New node.
func (p *Program) Args(call NodeID) []NodeID { return p.nodes[call].Kids[1:] }

// MemberObject returns the object of a Member node.
func (p *Program) MemberObject(m NodeID) NodeID { return p.Kid(m, 0) }

// MemberProp returns the property of a Member node.
func (p *Program) MemberProp(m NodeID) NodeID { return p.Kid(m, 1) }

// FuncParams returns the Params node of a function node.
func (p *Program) FuncParams(fn NodeID) NodeID { return p.Kid(fn, 0) }

// FuncBody returns the body of a function node (a Block, or an expression
// for expression-bodied arrows).
func (p *Program) FuncBody(fn NodeID) NodeID { return p.Kid(fn, 1) }

// Unparen strips any Paren wrappers around an expression.
func (p *Program) Unparen(id NodeID) NodeID {
	for id != None && p.nodes[id].Kind == Paren {
		id = p.Kid(id, 0)
	}
	return id
}

// IsStaticMember reports whether id is a non-computed member access
// object.name and, if so, returns the object id.
func (p *Program) IsStaticMember(id NodeID, name string) (NodeID, bool) {
	n := p.Node(id)
	if n.Kind != Member || n.Has(FlagComputed) {
		return None, false
	}
	prop := p.MemberProp(id)
	if prop == None || p.Node(prop).Kind != Ident || p.Node(prop).Name != name {
		return None, false
	}
	return p.MemberObject(id), true
}

// IsGlobalIdent reports whether id is a bare identifier with the given
// name. Whether the name actually resolves to the global is the scope
// analysis's concern, not the tree's.
func (p *Program) IsGlobalIdent(id NodeID, name string) bool {
	n := p.Node(id)
	return n.Kind == Ident && n.Name == name
}
