package scope

import (
	"slices"
	"testing"

	"github.com/esfix/esfix/pkg/ast"
	"github.com/esfix/esfix/pkg/parser"
)

func analyze(t *testing.T, src string) (*ast.Program, *Info) {
	t.Helper()
	p, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return p, Analyze(p)
}

// findKind returns the nth node of the given kind in pre-order.
func findKind(p *ast.Program, kind ast.Kind, nth int) ast.NodeID {
	found := ast.None
	seen := 0
	p.Walk(p.Root(), func(id ast.NodeID) bool {
		if found != ast.None {
			return false
		}
		if p.Node(id).Kind == kind {
			if seen == nth {
				found = id
				return false
			}
			seen++
		}
		return true
	})
	return found
}

// findIdent returns the nth identifier with the given name in pre-order.
func findIdent(p *ast.Program, name string, nth int) ast.NodeID {
	found := ast.None
	seen := 0
	p.Walk(p.Root(), func(id ast.NodeID) bool {
		if found != ast.None {
			return false
		}
		n := p.Node(id)
		if n.Kind == ast.Ident && n.Name == name {
			if seen == nth {
				found = id
				return false
			}
			seen++
		}
		return true
	})
	return found
}

func TestVarHoistsToFunctionScope(t *testing.T) {
	_, info := analyze(t, `
function f() {
  if (cond) {
    var x = 1;
  }
  return x;
}`)
	p := info.prog
	fn := findKind(p, ast.FuncDecl, 0)
	fnScope := info.ScopeIntroducedBy(fn)
	if fnScope == nil {
		t.Fatal("no function scope")
	}
	if !fnScope.Declares("x") {
		t.Error("var x should hoist to the function scope")
	}
	block := findKind(p, ast.Block, 1) // the if body
	if bs := info.ScopeIntroducedBy(block); bs != nil && bs.Declares("x") {
		t.Error("var x should not bind in the block scope")
	}
}

func TestLetStaysInBlockScope(t *testing.T) {
	_, info := analyze(t, `
{
  let y = 1;
}
`)
	if info.Module().Declares("y") {
		t.Error("let y should not escape its block")
	}
	block := findKind(info.prog, ast.Block, 0)
	bs := info.ScopeIntroducedBy(block)
	if bs == nil || !bs.Declares("y") {
		t.Error("let y should bind in the block scope")
	}
	if b := bs.Binding("y"); b == nil || b.Kind != BindLet {
		t.Errorf("unexpected binding kind for y: %+v", bs.Binding("y"))
	}
}

func TestIsReassigned(t *testing.T) {
	_, info := analyze(t, `
var a = 1;
var b = 1;
b = 2;
var c = 1;
c++;
var d = 1;
var d = 2;
`)
	mod := info.Module()
	if info.IsReassigned("a", mod) {
		t.Error("a is never written after its initializer")
	}
	if !info.IsReassigned("b", mod) {
		t.Error("b is assigned")
	}
	if !info.IsReassigned("c", mod) {
		t.Error("c is updated")
	}
	if !info.IsReassigned("d", mod) {
		t.Error("duplicate declaration counts as reassignment")
	}
}

func TestReassignedInNestedFunction(t *testing.T) {
	_, info := analyze(t, `
var n = 0;
function bump() { n = n + 1; }
`)
	if !info.IsReassigned("n", info.Module()) {
		t.Error("writes inside nested functions must count")
	}
}

func TestShadowWriteDoesNotCount(t *testing.T) {
	_, info := analyze(t, `
var v = 1;
function g() {
  let v = 2;
  v = 3;
}
`)
	if info.IsReassigned("v", info.Module()) {
		t.Error("the write targets the inner let, not the outer var")
	}
}

func TestIsShadowedAt(t *testing.T) {
	src := `
var s = 1;
function h() {
  let s = 2;
  use(s);
}
use(s);
`
	p, info := analyze(t, src)
	inner := findIdent(p, "s", 2) // use(s) inside h
	outer := findIdent(p, "s", 3) // use(s) at module level
	if !info.IsShadowedAt("s", info.Module(), inner) {
		t.Error("inner use is shadowed by the let")
	}
	if info.IsShadowedAt("s", info.Module(), outer) {
		t.Error("module-level use is not shadowed")
	}
}

func TestDeclaredNamesDestructuring(t *testing.T) {
	p, info := analyze(t, `var {a, b: {c}, d = 1, ...rest} = obj; var [e, , f] = xs;`)
	first := findKind(p, ast.Declarator, 0)
	got := slices.Collect(info.DeclaredNames(p.Kid(first, 0)))
	want := []string{"a", "c", "d", "rest"}
	if !slices.Equal(got, want) {
		t.Errorf("DeclaredNames = %v, want %v", got, want)
	}
	second := findKind(p, ast.Declarator, 1)
	got = slices.Collect(info.DeclaredNames(p.Kid(second, 0)))
	want = []string{"e", "f"}
	if !slices.Equal(got, want) {
		t.Errorf("DeclaredNames = %v, want %v", got, want)
	}
}

func TestUsesFreeIdentifier(t *testing.T) {
	p, info := analyze(t, `
function outer() {
  var local = 1;
  return free + local;
}
`)
	fn := findKind(p, ast.FuncDecl, 0)
	if !info.UsesFreeIdentifier(fn, "free") {
		t.Error("free is referenced without a local declaration")
	}
	if info.UsesFreeIdentifier(fn, "local") {
		t.Error("local is declared inside the function")
	}
	if info.UsesFreeIdentifier(fn, "absent") {
		t.Error("absent never occurs")
	}
}

func TestUsesFreeThisAndArguments(t *testing.T) {
	p, info := analyze(t, `
function a() { return this.x; }
function b() { var inner = function () { return this.x; }; return 1; }
function c() { var arrow = () => this.x; return 1; }
function d() { return arguments.length; }
`)
	fa := findKind(p, ast.FuncDecl, 0)
	if !info.UsesFreeIdentifier(fa, "this") {
		t.Error("a uses this directly")
	}
	fb := findKind(p, ast.FuncDecl, 1)
	if info.UsesFreeIdentifier(fb, "this") {
		t.Error("this inside a nested function expression is rebound")
	}
	fc := findKind(p, ast.FuncDecl, 2)
	if !info.UsesFreeIdentifier(fc, "this") {
		t.Error("arrows do not rebind this")
	}
	fd := findKind(p, ast.FuncDecl, 3)
	if !info.UsesFreeIdentifier(fd, "arguments") {
		t.Error("d reads arguments")
	}
	if info.UsesFreeIdentifier(fa, "arguments") {
		t.Error("a never touches arguments")
	}
}

func TestPropertyNamesAreNotReferences(t *testing.T) {
	p, info := analyze(t, `
function f() { return obj.free; }
`)
	fn := findKind(p, ast.FuncDecl, 0)
	if info.UsesFreeIdentifier(fn, "free") {
		t.Error("a non-computed property name is not a binding reference")
	}
	if !info.UsesFreeIdentifier(fn, "obj") {
		t.Error("the member object is a reference")
	}
}

func TestEquivalent(t *testing.T) {
	cases := []struct {
		src  string
		want bool
	}{
		{`a.b; a.b;`, true},
		{`a.b; a["b"];`, false},
		{`f(x, 1); f(x, 1);`, true},
		{`f(x, 1); f(x, 2);`, false},
		{`(a); a;`, true},
		{`x + y; x + y;`, true},
		{`x + y; x - y;`, false},
		{`(function(){}); (function(){});`, false},
	}
	for _, tc := range cases {
		p, info := analyze(t, tc.src)
		root := p.Root()
		a := p.Kid(p.Node(root).Kids[0], 0)
		b := p.Kid(p.Node(root).Kids[1], 0)
		if got := info.Equivalent(a, b); got != tc.want {
			t.Errorf("Equivalent(%q) = %v, want %v", tc.src, got, tc.want)
		}
	}
}

func TestOpaqueTaintsScope(t *testing.T) {
	_, info := analyze(t, `
var q = 1;
class C {}
`)
	if !info.Module().Tainted() {
		t.Error("an unmodeled construct must taint the scope")
	}
	if !info.IsReassigned("q", info.Module()) {
		t.Error("tainted scopes answer conservatively")
	}
}

func TestCatchParamScope(t *testing.T) {
	p, info := analyze(t, `
try { risky(); } catch (err) { log(err); }
`)
	if info.Module().Declares("err") {
		t.Error("catch param must not leak to the module scope")
	}
	tryNode := findKind(p, ast.Try, 0)
	handler := p.Kid(tryNode, 2)
	hs := info.ScopeIntroducedBy(handler)
	if hs == nil || !hs.Declares("err") {
		t.Fatal("catch param should bind in the handler scope")
	}
	if b := hs.Binding("err"); b.Kind != BindCatch {
		t.Errorf("binding kind = %v, want BindCatch", b.Kind)
	}
	if len(hs.Binding("err").Reads) != 1 {
		t.Errorf("err reads = %d, want 1", len(hs.Binding("err").Reads))
	}
}

func TestForOfHeadIsNotAWrite(t *testing.T) {
	_, info := analyze(t, `
for (var item of list) { use(item); }
`)
	forScope := info.ScopeIntroducedBy(findKind(info.prog, ast.ForIn, 0))
	if forScope == nil {
		t.Fatal("no loop scope")
	}
	// var hoists through the loop scope to the module.
	if info.IsReassigned("item", info.Module()) {
		t.Error("the iteration rebinding alone is not a reassignment")
	}
}

func TestOrderTracksSourcePosition(t *testing.T) {
	p, info := analyze(t, `first(); second();`)
	a := findIdent(p, "first", 0)
	b := findIdent(p, "second", 0)
	if info.Order(a) >= info.Order(b) {
		t.Error("pre-order positions must follow source order")
	}
	if info.Order(ast.NodeID(9999)) != -1 {
		t.Error("unknown nodes report -1")
	}
}
