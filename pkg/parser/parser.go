// Package parser turns JavaScript source text into the engine's mutable
// syntax tree. It uses tree-sitter for the heavy lifting and maps the
// parse tree onto the ast arena; constructs the arena does not model are
// preserved as opaque nodes that print verbatim and block nearby rewrites.
package parser

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	"github.com/esfix/esfix/pkg/ast"
)

// ParseError reports syntactically invalid input. It is the only hard
// failure the engine surfaces; callers batch-processing files are expected
// to report it and continue.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d: %s", e.Line, e.Msg)
}

// Parse converts source into a Program. A *ParseError is returned when the
// text is not valid JavaScript.
func Parse(source string) (*ast.Program, error) {
	p := sitter.NewParser()
	p.SetLanguage(javascript.GetLanguage())

	content := []byte(source)
	tree, err := p.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, &ParseError{Line: 1, Msg: err.Error()}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		line, msg := firstError(root)
		return nil, &ParseError{Line: line, Msg: msg}
	}

	c := &converter{src: content, prog: ast.NewProgram()}
	mod := c.prog.Alloc(ast.Module, 1)
	c.prog.SetRoot(mod)
	for i := 0; i < int(root.NamedChildCount()); i++ {
		c.prog.AddKid(mod, c.stmt(root.NamedChild(i)))
	}
	return c.prog, nil
}

// firstError locates the first ERROR or missing node for the message.
func firstError(n *sitter.Node) (int, string) {
	if n.IsMissing() {
		return int(n.StartPoint().Row) + 1, fmt.Sprintf("missing %s", n.Type())
	}
	if n.Type() == "ERROR" && n.ChildCount() == 0 {
		return int(n.StartPoint().Row) + 1, "unexpected token"
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child.HasError() || child.IsMissing() {
			return firstError(child)
		}
	}
	return int(n.StartPoint().Row) + 1, "invalid syntax"
}

type converter struct {
	src  []byte
	prog *ast.Program
}

func (c *converter) text(n *sitter.Node) string { return n.Content(c.src) }

func (c *converter) line(n *sitter.Node) int { return int(n.StartPoint().Row) + 1 }

// opaque preserves a construct verbatim.
func (c *converter) opaque(n *sitter.Node) ast.NodeID {
	id := c.prog.Alloc(ast.Opaque, c.line(n))
	c.prog.Node(id).Raw = c.text(n)
	return id
}

func (c *converter) ident(name string, line int) ast.NodeID {
	id := c.prog.Alloc(ast.Ident, line)
	c.prog.Node(id).Name = name
	return id
}

// hasToken reports whether n has a direct anonymous child of the given type.
func hasToken(n *sitter.Node, tok string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == tok {
			return true
		}
	}
	return false
}

func (c *converter) stmt(n *sitter.Node) ast.NodeID {
	switch n.Type() {
	case "variable_declaration":
		return c.varDecl(n, "var")
	case "lexical_declaration":
		kw := "let"
		if hasToken(n, "const") {
			kw = "const"
		}
		return c.varDecl(n, kw)
	case "statement_block":
		return c.block(n)
	case "expression_statement":
		expr := n.NamedChild(0)
		if expr == nil {
			return c.prog.Alloc(ast.Empty, c.line(n))
		}
		id := c.prog.Alloc(ast.ExprStmt, c.line(n))
		c.prog.AddKid(id, c.expr(expr))
		return id
	case "return_statement":
		id := c.prog.Alloc(ast.Return, c.line(n))
		if arg := firstNonComment(n); arg != nil {
			c.prog.SetKid(id, 0, c.expr(arg))
		} else {
			c.prog.SetKid(id, 0, ast.None)
		}
		return id
	case "if_statement":
		id := c.prog.Alloc(ast.If, c.line(n))
		c.prog.SetKid(id, 0, c.condition(n.ChildByFieldName("condition")))
		c.prog.SetKid(id, 1, c.stmt(n.ChildByFieldName("consequence")))
		alt := ast.None
		if e := n.ChildByFieldName("alternative"); e != nil {
			// alternative is an else_clause wrapping the statement.
			if inner := e.NamedChild(0); inner != nil {
				alt = c.stmt(inner)
			}
		}
		c.prog.SetKid(id, 2, alt)
		return id
	case "for_statement":
		id := c.prog.Alloc(ast.For, c.line(n))
		c.prog.SetKid(id, 0, c.forClause(n.ChildByFieldName("initializer")))
		c.prog.SetKid(id, 1, c.forClause(n.ChildByFieldName("condition")))
		inc := ast.None
		if e := n.ChildByFieldName("increment"); e != nil {
			inc = c.expr(e)
		}
		c.prog.SetKid(id, 2, inc)
		c.prog.SetKid(id, 3, c.stmt(n.ChildByFieldName("body")))
		return id
	case "for_in_statement":
		id := c.prog.Alloc(ast.ForIn, c.line(n))
		op := "in"
		if hasToken(n, "of") {
			op = "of"
		}
		c.prog.Node(id).Op = op
		left := n.ChildByFieldName("left")
		var leftID ast.NodeID
		if kind := n.ChildByFieldName("kind"); kind != nil {
			// `for (var x in ...)`: the declaration keyword and pattern are
			// separate fields rather than a variable_declaration node.
			decl := c.prog.Alloc(ast.VarDecl, c.line(n))
			c.prog.Node(decl).Op = kind.Content(c.src)
			d := c.prog.Alloc(ast.Declarator, c.line(n))
			c.prog.SetKid(d, 0, c.pattern(left))
			c.prog.SetKid(d, 1, ast.None)
			c.prog.AddKid(decl, d)
			leftID = decl
		} else {
			leftID = c.expr(left)
		}
		c.prog.SetKid(id, 0, leftID)
		c.prog.SetKid(id, 1, c.expr(n.ChildByFieldName("right")))
		c.prog.SetKid(id, 2, c.stmt(n.ChildByFieldName("body")))
		return id
	case "while_statement":
		id := c.prog.Alloc(ast.While, c.line(n))
		c.prog.SetKid(id, 0, c.condition(n.ChildByFieldName("condition")))
		c.prog.SetKid(id, 1, c.stmt(n.ChildByFieldName("body")))
		return id
	case "do_statement":
		id := c.prog.Alloc(ast.DoWhile, c.line(n))
		c.prog.SetKid(id, 0, c.stmt(n.ChildByFieldName("body")))
		c.prog.SetKid(id, 1, c.condition(n.ChildByFieldName("condition")))
		return id
	case "break_statement":
		id := c.prog.Alloc(ast.Break, c.line(n))
		if l := n.ChildByFieldName("label"); l != nil {
			c.prog.Node(id).Name = l.Content(c.src)
		}
		return id
	case "continue_statement":
		id := c.prog.Alloc(ast.Continue, c.line(n))
		if l := n.ChildByFieldName("label"); l != nil {
			c.prog.Node(id).Name = l.Content(c.src)
		}
		return id
	case "labeled_statement":
		id := c.prog.Alloc(ast.Labeled, c.line(n))
		if l := n.ChildByFieldName("label"); l != nil {
			c.prog.Node(id).Name = l.Content(c.src)
		}
		c.prog.SetKid(id, 0, c.stmt(n.ChildByFieldName("body")))
		return id
	case "switch_statement":
		id := c.prog.Alloc(ast.Switch, c.line(n))
		c.prog.SetKid(id, 0, c.condition(n.ChildByFieldName("value")))
		body := n.ChildByFieldName("body")
		for i := 0; i < int(body.NamedChildCount()); i++ {
			cs := body.NamedChild(i)
			switch cs.Type() {
			case "switch_case", "switch_default":
				c.prog.AddKid(id, c.switchCase(cs))
			}
		}
		return id
	case "throw_statement":
		id := c.prog.Alloc(ast.Throw, c.line(n))
		c.prog.SetKid(id, 0, c.expr(firstNonComment(n)))
		return id
	case "try_statement":
		id := c.prog.Alloc(ast.Try, c.line(n))
		c.prog.SetKid(id, 0, c.stmt(n.ChildByFieldName("body")))
		param, handler := ast.None, ast.None
		if h := n.ChildByFieldName("handler"); h != nil {
			if pn := h.ChildByFieldName("parameter"); pn != nil {
				param = c.pattern(pn)
			}
			handler = c.stmt(h.ChildByFieldName("body"))
		}
		c.prog.SetKid(id, 1, param)
		c.prog.SetKid(id, 2, handler)
		fin := ast.None
		if f := n.ChildByFieldName("finalizer"); f != nil {
			fin = c.stmt(f.ChildByFieldName("body"))
		}
		c.prog.SetKid(id, 3, fin)
		return id
	case "function_declaration", "generator_function_declaration":
		return c.function(n, ast.FuncDecl)
	case "empty_statement":
		return c.prog.Alloc(ast.Empty, c.line(n))
	case "comment":
		id := c.prog.Alloc(ast.Comment, c.line(n))
		c.prog.Node(id).Raw = c.text(n)
		return id
	default:
		return c.opaque(n)
	}
}

// condition unwraps the parenthesized_expression tree-sitter wraps around
// statement heads.
func (c *converter) condition(n *sitter.Node) ast.NodeID {
	if n == nil {
		return ast.None
	}
	if n.Type() == "parenthesized_expression" {
		if inner := n.NamedChild(0); inner != nil {
			return c.expr(inner)
		}
	}
	return c.expr(n)
}

// forClause maps a for-header slot, which tree-sitter wraps in an
// expression_statement or empty_statement.
func (c *converter) forClause(n *sitter.Node) ast.NodeID {
	if n == nil {
		return ast.None
	}
	switch n.Type() {
	case "empty_statement":
		return ast.None
	case "expression_statement":
		if inner := n.NamedChild(0); inner != nil {
			return c.expr(inner)
		}
		return ast.None
	case "variable_declaration":
		return c.varDecl(n, "var")
	case "lexical_declaration":
		kw := "let"
		if hasToken(n, "const") {
			kw = "const"
		}
		return c.varDecl(n, kw)
	default:
		return c.expr(n)
	}
}

func (c *converter) varDecl(n *sitter.Node, kw string) ast.NodeID {
	id := c.prog.Alloc(ast.VarDecl, c.line(n))
	c.prog.Node(id).Op = kw
	for i := 0; i < int(n.NamedChildCount()); i++ {
		d := n.NamedChild(i)
		if d.Type() != "variable_declarator" {
			continue
		}
		decl := c.prog.Alloc(ast.Declarator, c.line(d))
		c.prog.SetKid(decl, 0, c.pattern(d.ChildByFieldName("name")))
		init := ast.None
		if v := d.ChildByFieldName("value"); v != nil {
			init = c.expr(v)
		}
		c.prog.SetKid(decl, 1, init)
		c.prog.AddKid(id, decl)
	}
	return id
}

func (c *converter) block(n *sitter.Node) ast.NodeID {
	id := c.prog.Alloc(ast.Block, c.line(n))
	for i := 0; i < int(n.NamedChildCount()); i++ {
		c.prog.AddKid(id, c.stmt(n.NamedChild(i)))
	}
	return id
}

func (c *converter) switchCase(n *sitter.Node) ast.NodeID {
	id := c.prog.Alloc(ast.SwitchCase, c.line(n))
	test := ast.None
	if v := n.ChildByFieldName("value"); v != nil {
		test = c.expr(v)
	}
	c.prog.SetKid(id, 0, test)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if v := n.ChildByFieldName("value"); v != nil && child.Equal(v) {
			continue
		}
		c.prog.AddKid(id, c.stmt(child))
	}
	return id
}

func (c *converter) function(n *sitter.Node, kind ast.Kind) ast.NodeID {
	id := c.prog.Alloc(kind, c.line(n))
	node := c.prog.Node(id)
	if hasToken(n, "async") {
		node.Flags |= ast.FlagAsync
	}
	if strings.HasPrefix(n.Type(), "generator_") || hasToken(n, "*") {
		node.Flags |= ast.FlagGenerator
	}
	if name := n.ChildByFieldName("name"); name != nil {
		node.Name = name.Content(c.src)
	}
	params := c.prog.Alloc(ast.Params, c.line(n))
	if pn := n.ChildByFieldName("parameters"); pn != nil {
		for i := 0; i < int(pn.NamedChildCount()); i++ {
			child := pn.NamedChild(i)
			if child.Type() == "comment" {
				continue
			}
			c.prog.AddKid(params, c.pattern(child))
		}
	} else if pn := n.ChildByFieldName("parameter"); pn != nil {
		// Single-identifier arrow parameter without parentheses.
		c.prog.AddKid(params, c.pattern(pn))
	}
	c.prog.SetKid(id, 0, params)

	body := n.ChildByFieldName("body")
	if body == nil {
		c.prog.SetKid(id, 1, c.prog.Alloc(ast.Block, c.line(n)))
		return id
	}
	if body.Type() == "statement_block" {
		c.prog.SetKid(id, 1, c.block(body))
	} else {
		c.prog.Node(id).Flags |= ast.FlagExprBody
		c.prog.SetKid(id, 1, c.expr(body))
	}
	return id
}

func (c *converter) expr(n *sitter.Node) ast.NodeID {
	if n == nil {
		return ast.None
	}
	line := c.line(n)
	switch n.Type() {
	case "identifier", "property_identifier", "statement_identifier",
		"shorthand_property_identifier", "shorthand_property_identifier_pattern",
		"undefined", "super":
		return c.ident(c.text(n), line)
	case "this":
		return c.prog.Alloc(ast.This, line)
	case "null":
		return c.prog.Alloc(ast.Null, line)
	case "true", "false":
		id := c.prog.Alloc(ast.Bool, line)
		c.prog.Node(id).Raw = n.Type()
		return id
	case "number":
		id := c.prog.Alloc(ast.Number, line)
		c.prog.Node(id).Raw = c.text(n)
		return id
	case "string":
		id := c.prog.Alloc(ast.String, line)
		c.prog.Node(id).Raw = c.text(n)
		return id
	case "regex":
		id := c.prog.Alloc(ast.Regex, line)
		c.prog.Node(id).Raw = c.text(n)
		return id
	case "template_string":
		id := c.prog.Alloc(ast.Template, line)
		c.prog.Node(id).Raw = c.text(n)
		for i := 0; i < int(n.NamedChildCount()); i++ {
			sub := n.NamedChild(i)
			if sub.Type() == "template_substitution" {
				if inner := sub.NamedChild(0); inner != nil {
					c.prog.AddKid(id, c.expr(inner))
				}
			}
		}
		return id
	case "parenthesized_expression":
		id := c.prog.Alloc(ast.Paren, line)
		c.prog.SetKid(id, 0, c.expr(n.NamedChild(0)))
		return id
	case "member_expression":
		if hasToken(n, "?.") {
			return c.opaque(n)
		}
		id := c.prog.Alloc(ast.Member, line)
		c.prog.SetKid(id, 0, c.expr(n.ChildByFieldName("object")))
		c.prog.SetKid(id, 1, c.expr(n.ChildByFieldName("property")))
		return id
	case "subscript_expression":
		if hasToken(n, "?.") {
			return c.opaque(n)
		}
		id := c.prog.Alloc(ast.Member, line)
		c.prog.Node(id).Flags |= ast.FlagComputed
		c.prog.SetKid(id, 0, c.expr(n.ChildByFieldName("object")))
		c.prog.SetKid(id, 1, c.expr(n.ChildByFieldName("index")))
		return id
	case "call_expression":
		args := n.ChildByFieldName("arguments")
		if args == nil || args.Type() != "arguments" || hasToken(n, "?.") {
			// Tagged templates and optional calls stay opaque.
			return c.opaque(n)
		}
		id := c.prog.Alloc(ast.Call, line)
		c.prog.AddKid(id, c.expr(n.ChildByFieldName("function")))
		for i := 0; i < int(args.NamedChildCount()); i++ {
			a := args.NamedChild(i)
			if a.Type() == "comment" {
				continue
			}
			c.prog.AddKid(id, c.expr(a))
		}
		return id
	case "new_expression":
		id := c.prog.Alloc(ast.New, line)
		c.prog.AddKid(id, c.expr(n.ChildByFieldName("constructor")))
		if args := n.ChildByFieldName("arguments"); args != nil {
			for i := 0; i < int(args.NamedChildCount()); i++ {
				a := args.NamedChild(i)
				if a.Type() == "comment" {
					continue
				}
				c.prog.AddKid(id, c.expr(a))
			}
		}
		return id
	case "assignment_expression":
		id := c.prog.Alloc(ast.Assign, line)
		c.prog.Node(id).Op = "="
		c.prog.SetKid(id, 0, c.expr(n.ChildByFieldName("left")))
		c.prog.SetKid(id, 1, c.expr(n.ChildByFieldName("right")))
		return id
	case "augmented_assignment_expression":
		id := c.prog.Alloc(ast.Assign, line)
		if op := n.ChildByFieldName("operator"); op != nil {
			c.prog.Node(id).Op = op.Content(c.src)
		}
		c.prog.SetKid(id, 0, c.expr(n.ChildByFieldName("left")))
		c.prog.SetKid(id, 1, c.expr(n.ChildByFieldName("right")))
		return id
	case "binary_expression":
		id := c.prog.Alloc(ast.Binary, line)
		if op := n.ChildByFieldName("operator"); op != nil {
			c.prog.Node(id).Op = op.Content(c.src)
		}
		c.prog.SetKid(id, 0, c.expr(n.ChildByFieldName("left")))
		c.prog.SetKid(id, 1, c.expr(n.ChildByFieldName("right")))
		return id
	case "unary_expression":
		id := c.prog.Alloc(ast.Unary, line)
		if op := n.ChildByFieldName("operator"); op != nil {
			c.prog.Node(id).Op = op.Content(c.src)
		}
		c.prog.SetKid(id, 0, c.expr(n.ChildByFieldName("argument")))
		return id
	case "update_expression":
		id := c.prog.Alloc(ast.Update, line)
		node := c.prog.Node(id)
		if op := n.ChildByFieldName("operator"); op != nil {
			node.Op = op.Content(c.src)
		}
		if first := n.Child(0); first != nil && (first.Type() == "++" || first.Type() == "--") {
			node.Flags |= ast.FlagPrefix
		}
		c.prog.SetKid(id, 0, c.expr(n.ChildByFieldName("argument")))
		return id
	case "ternary_expression":
		id := c.prog.Alloc(ast.Cond, line)
		c.prog.SetKid(id, 0, c.expr(n.ChildByFieldName("condition")))
		c.prog.SetKid(id, 1, c.expr(n.ChildByFieldName("consequence")))
		c.prog.SetKid(id, 2, c.expr(n.ChildByFieldName("alternative")))
		return id
	case "sequence_expression":
		id := c.prog.Alloc(ast.Seq, line)
		c.flattenSeq(n, id)
		return id
	case "await_expression":
		id := c.prog.Alloc(ast.Await, line)
		c.prog.SetKid(id, 0, c.expr(firstNonComment(n)))
		return id
	case "spread_element":
		id := c.prog.Alloc(ast.Spread, line)
		c.prog.SetKid(id, 0, c.expr(n.NamedChild(0)))
		return id
	case "arrow_function":
		return c.function(n, ast.Arrow)
	case "function", "function_expression", "generator_function":
		return c.function(n, ast.FuncExpr)
	case "object":
		id := c.prog.Alloc(ast.Object, line)
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c.prog.AddKid(id, c.objectMember(n.NamedChild(i)))
		}
		return id
	case "array":
		id := c.prog.Alloc(ast.Array, line)
		for i := 0; i < int(n.NamedChildCount()); i++ {
			el := n.NamedChild(i)
			if el.Type() == "comment" {
				continue
			}
			c.prog.AddKid(id, c.expr(el))
		}
		return id
	case "object_pattern", "array_pattern", "assignment_pattern",
		"rest_pattern", "rest_parameter":
		return c.pattern(n)
	default:
		return c.opaque(n)
	}
}

// flattenSeq folds tree-sitter's nested sequence pairs into one Seq node.
func (c *converter) flattenSeq(n *sitter.Node, seq ast.NodeID) {
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	if left != nil && left.Type() == "sequence_expression" {
		c.flattenSeq(left, seq)
	} else if left != nil {
		c.prog.AddKid(seq, c.expr(left))
	}
	if right != nil {
		c.prog.AddKid(seq, c.expr(right))
	}
}

func (c *converter) objectMember(n *sitter.Node) ast.NodeID {
	line := c.line(n)
	switch n.Type() {
	case "pair":
		id := c.prog.Alloc(ast.Property, line)
		key := n.ChildByFieldName("key")
		if key != nil && key.Type() == "computed_property_name" {
			c.prog.Node(id).Flags |= ast.FlagComputed
			c.prog.SetKid(id, 0, c.expr(key.NamedChild(0)))
		} else {
			c.prog.SetKid(id, 0, c.expr(key))
		}
		c.prog.SetKid(id, 1, c.expr(n.ChildByFieldName("value")))
		return id
	case "shorthand_property_identifier":
		id := c.prog.Alloc(ast.Property, line)
		c.prog.Node(id).Flags |= ast.FlagShorthand
		name := c.text(n)
		c.prog.SetKid(id, 0, c.ident(name, line))
		c.prog.SetKid(id, 1, c.ident(name, line))
		return id
	case "spread_element":
		return c.expr(n)
	default:
		// Methods, getters and setters stay opaque.
		return c.opaque(n)
	}
}

func (c *converter) pattern(n *sitter.Node) ast.NodeID {
	if n == nil {
		return ast.None
	}
	line := c.line(n)
	switch n.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		return c.ident(c.text(n), line)
	case "object_pattern":
		id := c.prog.Alloc(ast.ObjectPattern, line)
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			switch child.Type() {
			case "pair_pattern":
				prop := c.prog.Alloc(ast.Property, c.line(child))
				key := child.ChildByFieldName("key")
				if key != nil && key.Type() == "computed_property_name" {
					c.prog.Node(prop).Flags |= ast.FlagComputed
					c.prog.SetKid(prop, 0, c.expr(key.NamedChild(0)))
				} else {
					c.prog.SetKid(prop, 0, c.expr(key))
				}
				c.prog.SetKid(prop, 1, c.pattern(child.ChildByFieldName("value")))
				c.prog.AddKid(id, prop)
			case "shorthand_property_identifier_pattern":
				prop := c.prog.Alloc(ast.Property, c.line(child))
				c.prog.Node(prop).Flags |= ast.FlagShorthand
				name := c.text(child)
				c.prog.SetKid(prop, 0, c.ident(name, c.line(child)))
				c.prog.SetKid(prop, 1, c.ident(name, c.line(child)))
				c.prog.AddKid(id, prop)
			case "object_assignment_pattern":
				prop := c.prog.Alloc(ast.Property, c.line(child))
				c.prog.Node(prop).Flags |= ast.FlagShorthand
				left := child.ChildByFieldName("left")
				name := ""
				if left != nil {
					name = c.text(left)
				}
				c.prog.SetKid(prop, 0, c.ident(name, c.line(child)))
				ap := c.prog.Alloc(ast.AssignPattern, c.line(child))
				c.prog.SetKid(ap, 0, c.ident(name, c.line(child)))
				c.prog.SetKid(ap, 1, c.expr(child.ChildByFieldName("right")))
				c.prog.SetKid(prop, 1, ap)
				c.prog.AddKid(id, prop)
			case "rest_pattern", "rest_parameter":
				c.prog.AddKid(id, c.pattern(child))
			case "comment":
			default:
				c.prog.AddKid(id, c.opaque(child))
			}
		}
		return id
	case "array_pattern":
		id := c.prog.Alloc(ast.ArrayPattern, line)
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if child.Type() == "comment" {
				continue
			}
			c.prog.AddKid(id, c.pattern(child))
		}
		return id
	case "assignment_pattern":
		id := c.prog.Alloc(ast.AssignPattern, line)
		c.prog.SetKid(id, 0, c.pattern(n.ChildByFieldName("left")))
		c.prog.SetKid(id, 1, c.expr(n.ChildByFieldName("right")))
		return id
	case "rest_pattern", "rest_parameter":
		id := c.prog.Alloc(ast.Rest, line)
		c.prog.SetKid(id, 0, c.pattern(n.NamedChild(0)))
		return id
	default:
		return c.expr(n)
	}
}

// firstNonComment returns the first named child that is not a comment.
func firstNonComment(n *sitter.Node) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() != "comment" {
			return child
		}
	}
	return nil
}
