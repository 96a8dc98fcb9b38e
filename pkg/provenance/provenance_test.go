package provenance

import (
	"testing"

	"github.com/esfix/esfix/pkg/ast"
	"github.com/esfix/esfix/pkg/parser"
	"github.com/esfix/esfix/pkg/scope"
)

func resolver(t *testing.T, src string) (*ast.Program, *scope.Info, *Resolver) {
	t.Helper()
	p, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	info := scope.Analyze(p)
	return p, info, New(p, info)
}

func TestInitializerEstablishes(t *testing.T) {
	p, info, r := resolver(t, `var x = a.slice(0); use(x.length);`)
	res := r.Resolve(info.Module(), "x")
	if !res.Known {
		t.Fatal("single initializer, no writes, no escape: should be known")
	}
	if p.Node(res.Value).Kind != ast.Call {
		t.Errorf("value kind = %v, want Call", p.Node(res.Value).Kind)
	}
}

func TestReassignmentIsUnknown(t *testing.T) {
	_, info, r := resolver(t, `var x = 1; x = 2;`)
	if r.Resolve(info.Module(), "x").Known {
		t.Error("reassigned bindings must be unknown")
	}
}

func TestLateAssignmentEstablishes(t *testing.T) {
	p, info, r := resolver(t, `var x; x = compute(); use(x.length);`)
	res := r.Resolve(info.Module(), "x")
	if !res.Known {
		t.Fatal("one unconditional assignment before any read should establish")
	}
	if p.Node(res.Value).Kind != ast.Call {
		t.Errorf("value kind = %v, want Call", p.Node(res.Value).Kind)
	}
}

func TestConditionalAssignmentIsUnknown(t *testing.T) {
	_, info, r := resolver(t, `var x; if (c) { x = 1; }`)
	if r.Resolve(info.Module(), "x").Known {
		t.Error("a branch-guarded assignment does not establish")
	}
}

func TestReadBeforeAssignmentIsUnknown(t *testing.T) {
	_, info, r := resolver(t, `var x; use(x.length); x = 1;`)
	if r.Resolve(info.Module(), "x").Known {
		t.Error("a read before the establishing assignment defeats it")
	}
}

func TestCallArgumentEscapes(t *testing.T) {
	_, info, r := resolver(t, `var x = 1; f(x);`)
	if r.Resolve(info.Module(), "x").Known {
		t.Error("passing the value as an argument escapes it")
	}
}

func TestClosureReferenceEscapes(t *testing.T) {
	_, info, r := resolver(t, `var x = 1; var g = function () { return x.y; };`)
	if r.Resolve(info.Module(), "x").Known {
		t.Error("a nested closure reference escapes the binding")
	}
}

func TestShorthandPropertyEscapes(t *testing.T) {
	_, info, r := resolver(t, `var x = 1; var o = {x};`)
	if r.Resolve(info.Module(), "x").Known {
		t.Error("a shorthand property value escapes the binding")
	}
}

func TestExternalMarkerIsUnknown(t *testing.T) {
	_, info, r := resolver(t, `var __hook = 1;`)
	res := r.Resolve(info.Module(), "__hook")
	if res.Known {
		t.Error("double-underscore names are externally managed")
	}
}

func TestUnresolvedNameIsUnknown(t *testing.T) {
	_, info, r := resolver(t, `use(g);`)
	if r.Resolve(info.Module(), "g").Known {
		t.Error("globals have no visible establishment")
	}
}

func TestResultsAreReferenceStable(t *testing.T) {
	_, info, r := resolver(t, `var x = 1; use(x.y);`)
	a := r.Resolve(info.Module(), "x")
	b := r.Resolve(info.Module(), "x")
	if a != b {
		t.Error("repeated resolution must return the identical pointer")
	}
}

func TestMemberReadDoesNotEscape(t *testing.T) {
	_, info, r := resolver(t, `var x = make(); use(x.length, x[0]);`)
	// x itself appears as a member object only; the arguments are the
	// member expressions, not the bare identifier.
	if !r.Resolve(info.Module(), "x").Known {
		t.Error("member access reads do not escape the binding")
	}
}

func TestFunctionScopedResolution(t *testing.T) {
	p, info, r := resolver(t, `
function f() {
  var local = a.b;
  return local.c;
}
`)
	fn := ast.None
	p.Walk(p.Root(), func(id ast.NodeID) bool {
		if fn != ast.None {
			return false
		}
		if p.Node(id).Kind == ast.FuncDecl {
			fn = id
			return false
		}
		return true
	})
	fs := info.ScopeIntroducedBy(fn)
	if fs == nil {
		t.Fatal("no function scope")
	}
	if !r.Resolve(fs, "local").Known {
		t.Error("an initializer inside the function establishes the binding")
	}
}
