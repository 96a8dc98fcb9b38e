package ast

import (
	"strings"
)

// Print renders the Program back to JavaScript source. Layout is owned by
// the printer: two-space indentation, one statement per line, semicolons
// throughout. Statement-level comments and opaque regions are emitted
// verbatim.
func Print(p *Program) string {
	pr := &printer{p: p}
	for _, stmt := range p.Node(p.Root()).Kids {
		pr.stmt(stmt)
	}
	return pr.buf.String()
}

type printer struct {
	p      *Program
	buf    strings.Builder
	indent int
}

func (pr *printer) line(s string) {
	pr.pad()
	pr.buf.WriteString(s)
	pr.buf.WriteByte('\n')
}

func (pr *printer) pad() {
	for i := 0; i < pr.indent; i++ {
		pr.buf.WriteString("  ")
	}
}

// Expression precedence, loosely following the ECMAScript operator table.
// Higher binds tighter. Used to decide where parentheses are required.
const (
	precSeq     = 1
	precAssign  = 2
	precCond    = 3
	precOr      = 5
	precAnd     = 6
	precEq      = 10
	precRel     = 11
	precShift   = 12
	precAdd     = 13
	precMul     = 14
	precExp     = 15
	precUnary   = 16
	precPostfix = 17
	precCall    = 19
	precMember  = 20
	precPrimary = 21
)

func binaryPrec(op string) int {
	switch op {
	case "??":
		return 4
	case "||":
		return precOr
	case "&&":
		return precAnd
	case "|":
		return 7
	case "^":
		return 8
	case "&":
		return 9
	case "==", "!=", "===", "!==":
		return precEq
	case "<", ">", "<=", ">=", "in", "instanceof":
		return precRel
	case "<<", ">>", ">>>":
		return precShift
	case "+", "-":
		return precAdd
	case "*", "/", "%":
		return precMul
	case "**":
		return precExp
	}
	return precAdd
}

func (pr *printer) exprPrec(id NodeID) int {
	n := pr.p.Node(id)
	switch n.Kind {
	case Seq:
		return precSeq
	case Assign, Arrow:
		return precAssign
	case Cond:
		return precCond
	case Binary:
		return binaryPrec(n.Op)
	case Unary, Await:
		return precUnary
	case Update:
		if n.Has(FlagPrefix) {
			return precUnary
		}
		return precPostfix
	case Call:
		return precCall
	case Member, New:
		return precMember
	case FuncExpr:
		return precPrimary
	default:
		return precPrimary
	}
}

// expr renders id, parenthesizing when its precedence falls below min.
func (pr *printer) expr(id NodeID, min int) {
	if id == None {
		return
	}
	if pr.exprPrec(id) < min {
		pr.buf.WriteByte('(')
		pr.exprBare(id)
		pr.buf.WriteByte(')')
		return
	}
	pr.exprBare(id)
}

func (pr *printer) exprBare(id NodeID) {
	p := pr.p
	n := p.Node(id)
	switch n.Kind {
	case Ident:
		pr.buf.WriteString(n.Name)
	case This:
		pr.buf.WriteString("this")
	case Null:
		pr.buf.WriteString("null")
	case Number, String, Template, Regex, Bool, Opaque:
		pr.buf.WriteString(n.Raw)
	case Paren:
		pr.buf.WriteByte('(')
		pr.expr(p.Kid(id, 0), precSeq)
		pr.buf.WriteByte(')')
	case Array, ArrayPattern:
		pr.buf.WriteByte('[')
		for i, el := range n.Kids {
			if i > 0 {
				pr.buf.WriteString(", ")
			}
			if el != None && p.Node(el).Kind != Empty {
				pr.expr(el, precAssign)
			}
		}
		pr.buf.WriteByte(']')
	case Object, ObjectPattern:
		if len(n.Kids) == 0 {
			pr.buf.WriteString("{}")
			return
		}
		pr.buf.WriteString("{ ")
		for i, prop := range n.Kids {
			if i > 0 {
				pr.buf.WriteString(", ")
			}
			pr.exprBare(prop)
		}
		pr.buf.WriteString(" }")
	case Property:
		key, value := p.Kid(id, 0), p.Kid(id, 1)
		if n.Has(FlagShorthand) {
			pr.expr(value, precAssign)
			return
		}
		if n.Has(FlagComputed) {
			pr.buf.WriteByte('[')
			pr.expr(key, precAssign)
			pr.buf.WriteByte(']')
		} else {
			pr.exprBare(key)
		}
		pr.buf.WriteString(": ")
		pr.expr(value, precAssign)
	case Binary:
		prec := binaryPrec(n.Op)
		lmin, rmin := prec, prec+1
		if n.Op == "**" {
			// Right-associative; the left operand also may not be an
			// unparenthesized unary expression.
			lmin, rmin = prec+1, prec
		}
		pr.expr(p.Kid(id, 0), lmin)
		pr.buf.WriteByte(' ')
		pr.buf.WriteString(n.Op)
		pr.buf.WriteByte(' ')
		pr.expr(p.Kid(id, 1), rmin)
	case Unary:
		pr.buf.WriteString(n.Op)
		if isWordOp(n.Op) {
			pr.buf.WriteByte(' ')
		}
		pr.expr(p.Kid(id, 0), precUnary)
	case Update:
		if n.Has(FlagPrefix) {
			pr.buf.WriteString(n.Op)
			pr.expr(p.Kid(id, 0), precUnary)
		} else {
			pr.expr(p.Kid(id, 0), precPostfix)
			pr.buf.WriteString(n.Op)
		}
	case Assign:
		pr.expr(p.Kid(id, 0), precCall)
		pr.buf.WriteByte(' ')
		pr.buf.WriteString(n.Op)
		pr.buf.WriteByte(' ')
		pr.expr(p.Kid(id, 1), precAssign)
	case Cond:
		pr.expr(p.Kid(id, 0), precCond+1)
		pr.buf.WriteString(" ? ")
		pr.expr(p.Kid(id, 1), precAssign)
		pr.buf.WriteString(" : ")
		pr.expr(p.Kid(id, 2), precAssign)
	case Seq:
		for i, e := range n.Kids {
			if i > 0 {
				pr.buf.WriteString(", ")
			}
			pr.expr(e, precAssign)
		}
	case Call:
		pr.expr(p.Callee(id), precCall)
		pr.args(p.Args(id))
	case New:
		pr.buf.WriteString("new ")
		pr.expr(p.Callee(id), precMember+1)
		pr.args(p.Args(id))
	case Member:
		pr.expr(p.MemberObject(id), precCall)
		if n.Has(FlagComputed) {
			pr.buf.WriteByte('[')
			pr.expr(p.MemberProp(id), precSeq)
			pr.buf.WriteByte(']')
		} else {
			pr.buf.WriteByte('.')
			pr.exprBare(p.MemberProp(id))
		}
	case Await:
		pr.buf.WriteString("await ")
		pr.expr(p.Kid(id, 0), precUnary)
	case Spread, Rest:
		pr.buf.WriteString("...")
		pr.expr(p.Kid(id, 0), precAssign)
	case AssignPattern:
		pr.expr(p.Kid(id, 0), precCall)
		pr.buf.WriteString(" = ")
		pr.expr(p.Kid(id, 1), precAssign)
	case FuncExpr, FuncDecl:
		if n.Has(FlagAsync) {
			pr.buf.WriteString("async ")
		}
		pr.buf.WriteString("function")
		if n.Has(FlagGenerator) {
			pr.buf.WriteByte('*')
		}
		if n.Name != "" {
			pr.buf.WriteByte(' ')
			pr.buf.WriteString(n.Name)
		}
		pr.params(p.FuncParams(id))
		pr.buf.WriteByte(' ')
		pr.blockInline(p.FuncBody(id))
	case Arrow:
		if n.Has(FlagAsync) {
			pr.buf.WriteString("async ")
		}
		pr.params(p.FuncParams(id))
		pr.buf.WriteString(" => ")
		body := p.FuncBody(id)
		if n.Has(FlagExprBody) {
			// An object literal body would parse as a block.
			if p.Node(body).Kind == Object {
				pr.buf.WriteByte('(')
				pr.exprBare(body)
				pr.buf.WriteByte(')')
			} else {
				pr.expr(body, precAssign)
			}
		} else {
			pr.blockInline(body)
		}
	case Empty:
		// Array hole; nothing to print.
	default:
		pr.buf.WriteString(n.Raw)
	}
}

func isWordOp(op string) bool {
	switch op {
	case "typeof", "void", "delete":
		return true
	}
	return false
}

func (pr *printer) args(args []NodeID) {
	pr.buf.WriteByte('(')
	for i, a := range args {
		if i > 0 {
			pr.buf.WriteString(", ")
		}
		pr.expr(a, precAssign)
	}
	pr.buf.WriteByte(')')
}

func (pr *printer) params(params NodeID) {
	pr.buf.WriteByte('(')
	if params != None {
		for i, param := range pr.p.Node(params).Kids {
			if i > 0 {
				pr.buf.WriteString(", ")
			}
			pr.expr(param, precAssign)
		}
	}
	pr.buf.WriteByte(')')
}

// blockInline prints a block starting on the current line, as in function
// bodies and if/try headers.
func (pr *printer) blockInline(id NodeID) {
	if id == None || pr.p.Node(id).Kind != Block {
		// Non-block bodies are printed on the next line, indented.
		pr.buf.WriteByte('\n')
		pr.indent++
		pr.stmt(id)
		pr.indent--
		pr.pad()
		return
	}
	kids := pr.p.Node(id).Kids
	if len(kids) == 0 {
		pr.buf.WriteString("{}")
		return
	}
	pr.buf.WriteString("{\n")
	pr.indent++
	for _, s := range kids {
		pr.stmt(s)
	}
	pr.indent--
	pr.pad()
	pr.buf.WriteByte('}')
}

// stmt prints one statement with indentation and trailing newline.
func (pr *printer) stmt(id NodeID) {
	if id == None {
		return
	}
	p := pr.p
	n := p.Node(id)
	switch n.Kind {
	case VarDecl:
		pr.pad()
		pr.varDecl(id)
		pr.buf.WriteString(";\n")
	case Block:
		pr.pad()
		pr.blockInline(id)
		pr.buf.WriteByte('\n')
	case ExprStmt:
		pr.pad()
		expr := p.Kid(id, 0)
		k := p.Node(expr).Kind
		if k == FuncExpr || k == Object {
			pr.buf.WriteByte('(')
			pr.exprBare(expr)
			pr.buf.WriteByte(')')
		} else {
			pr.expr(expr, precSeq)
		}
		pr.buf.WriteString(";\n")
	case Return:
		pr.pad()
		if arg := p.Kid(id, 0); arg != None {
			pr.buf.WriteString("return ")
			pr.expr(arg, precSeq)
		} else {
			pr.buf.WriteString("return")
		}
		pr.buf.WriteString(";\n")
	case Throw:
		pr.pad()
		pr.buf.WriteString("throw ")
		pr.expr(p.Kid(id, 0), precSeq)
		pr.buf.WriteString(";\n")
	case If:
		pr.pad()
		pr.ifChain(id)
		pr.buf.WriteByte('\n')
	case For:
		pr.pad()
		pr.buf.WriteString("for (")
		if init := p.Kid(id, 0); init != None {
			if p.Node(init).Kind == VarDecl {
				pr.varDecl(init)
			} else {
				pr.expr(init, precSeq)
			}
		}
		pr.buf.WriteString("; ")
		pr.expr(p.Kid(id, 1), precSeq)
		pr.buf.WriteString("; ")
		pr.expr(p.Kid(id, 2), precSeq)
		pr.buf.WriteString(") ")
		pr.blockInline(p.Kid(id, 3))
		pr.buf.WriteByte('\n')
	case ForIn:
		pr.pad()
		pr.buf.WriteString("for (")
		left := p.Kid(id, 0)
		if p.Node(left).Kind == VarDecl {
			pr.varDecl(left)
		} else {
			pr.expr(left, precCall)
		}
		pr.buf.WriteByte(' ')
		pr.buf.WriteString(n.Op)
		pr.buf.WriteByte(' ')
		pr.expr(p.Kid(id, 1), precAssign)
		pr.buf.WriteString(") ")
		pr.blockInline(p.Kid(id, 2))
		pr.buf.WriteByte('\n')
	case While:
		pr.pad()
		pr.buf.WriteString("while (")
		pr.expr(p.Kid(id, 0), precSeq)
		pr.buf.WriteString(") ")
		pr.blockInline(p.Kid(id, 1))
		pr.buf.WriteByte('\n')
	case DoWhile:
		pr.pad()
		pr.buf.WriteString("do ")
		pr.blockInline(p.Kid(id, 0))
		pr.buf.WriteString(" while (")
		pr.expr(p.Kid(id, 1), precSeq)
		pr.buf.WriteString(");\n")
	case Break:
		if n.Name != "" {
			pr.line("break " + n.Name + ";")
		} else {
			pr.line("break;")
		}
	case Continue:
		if n.Name != "" {
			pr.line("continue " + n.Name + ";")
		} else {
			pr.line("continue;")
		}
	case Labeled:
		pr.pad()
		pr.buf.WriteString(n.Name)
		pr.buf.WriteString(": ")
		pr.stmtInline(p.Kid(id, 0))
	case Switch:
		pr.pad()
		pr.buf.WriteString("switch (")
		pr.expr(p.Kid(id, 0), precSeq)
		pr.buf.WriteString(") {\n")
		pr.indent++
		for _, c := range n.Kids[1:] {
			pr.switchCase(c)
		}
		pr.indent--
		pr.line("}")
	case Try:
		pr.pad()
		pr.buf.WriteString("try ")
		pr.blockInline(p.Kid(id, 0))
		if handler := p.Kid(id, 2); handler != None {
			pr.buf.WriteString(" catch ")
			if param := p.Kid(id, 1); param != None {
				pr.buf.WriteByte('(')
				pr.expr(param, precAssign)
				pr.buf.WriteByte(')')
			}
			pr.buf.WriteByte(' ')
			pr.blockInline(handler)
		}
		if fin := p.Kid(id, 3); fin != None {
			pr.buf.WriteString(" finally ")
			pr.blockInline(fin)
		}
		pr.buf.WriteByte('\n')
	case FuncDecl:
		pr.pad()
		pr.exprBare(id)
		pr.buf.WriteByte('\n')
	case Empty:
		pr.line(";")
	case Comment:
		pr.line(n.Raw)
	case Opaque:
		pr.pad()
		pr.buf.WriteString(n.Raw)
		pr.buf.WriteByte('\n')
	default:
		// Expression used in statement position by a rewrite.
		pr.pad()
		pr.expr(id, precSeq)
		pr.buf.WriteString(";\n")
	}
}

// stmtInline prints a statement that begins on the current line (after a
// label). The statement's own pad has not been written yet.
func (pr *printer) stmtInline(id NodeID) {
	// Re-use stmt by unwinding the pad it writes: simplest is to print a
	// block inline and fall back to a nested line otherwise.
	if pr.p.Node(id).Kind == Block {
		pr.blockInline(id)
		pr.buf.WriteByte('\n')
		return
	}
	pr.buf.WriteByte('\n')
	pr.indent++
	pr.stmt(id)
	pr.indent--
}

func (pr *printer) switchCase(id NodeID) {
	p := pr.p
	test := p.Kid(id, 0)
	if test == None {
		pr.line("default:")
	} else {
		pr.pad()
		pr.buf.WriteString("case ")
		pr.expr(test, precSeq)
		pr.buf.WriteString(":\n")
	}
	pr.indent++
	for _, s := range p.Node(id).Kids[1:] {
		pr.stmt(s)
	}
	pr.indent--
}

func (pr *printer) ifChain(id NodeID) {
	p := pr.p
	pr.buf.WriteString("if (")
	pr.expr(p.Kid(id, 0), precSeq)
	pr.buf.WriteString(") ")
	pr.blockInline(p.Kid(id, 1))
	alt := p.Kid(id, 2)
	if alt == None {
		return
	}
	pr.buf.WriteString(" else ")
	if p.Node(alt).Kind == If {
		pr.ifChain(alt)
		return
	}
	pr.blockInline(alt)
}

// varDecl prints a declaration without the trailing semicolon so for-loop
// headers can reuse it.
func (pr *printer) varDecl(id NodeID) {
	p := pr.p
	pr.buf.WriteString(p.Node(id).Op)
	pr.buf.WriteByte(' ')
	for i, d := range p.Node(id).Kids {
		if i > 0 {
			pr.buf.WriteString(", ")
		}
		pr.expr(p.Kid(d, 0), precCall)
		if init := p.Kid(d, 1); init != None {
			pr.buf.WriteString(" = ")
			pr.expr(init, precAssign)
		}
	}
}
