package parser

import (
	"strings"
	"testing"

	"github.com/esfix/esfix/pkg/ast"
)

func TestParseValidSource(t *testing.T) {
	prog, err := Parse("const x = 1;\nuse(x);\n")
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	root := prog.Node(prog.Root())
	if root.Kind != ast.Module {
		t.Fatalf("root kind = %v, want Module", root.Kind)
	}
	if len(root.Kids) != 2 {
		t.Errorf("module has %d statements, want 2", len(root.Kids))
	}
}

func TestParseErrorCarriesLine(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"dangling operator", "const x = ;"},
		{"unclosed brace", "function f() {"},
		{"bad token on second line", "const a = 1;\nconst = 2;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.source)
			if err == nil {
				t.Fatal("Parse() succeeded, want *ParseError")
			}
			perr, ok := err.(*ParseError)
			if !ok {
				t.Fatalf("error type = %T, want *ParseError", err)
			}
			if perr.Line < 1 {
				t.Errorf("Line = %d, want >= 1", perr.Line)
			}
			if !strings.Contains(perr.Error(), "parse error at line") {
				t.Errorf("Error() = %q, want line-prefixed message", perr.Error())
			}
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	// Printed output must itself parse; exact layout is the printer's
	// business, not the parser's.
	sources := []string{
		"const x = 1;",
		"function f(a, b) {\n  return a + b;\n}",
		"if (a) {\n  b();\n} else {\n  c();\n}",
		"for (const item of items) {\n  use(item);\n}",
		"async function g() {\n  const v = await p;\n  return v;\n}",
	}
	for _, src := range sources {
		prog, err := Parse(src)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", src, err)
		}
		printed := ast.Print(prog)
		if _, err := Parse(printed); err != nil {
			t.Errorf("reparse of printed output failed for %q: %v\nprinted: %s", src, err, printed)
		}
	}
}

func TestUnmodeledConstructBecomesOpaque(t *testing.T) {
	prog, err := Parse("class Widget {\n  render() {}\n}\n")
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	found := false
	for id := ast.NodeID(1); int(id) < prog.Len(); id++ {
		if prog.Node(id).Kind == ast.Opaque {
			found = true
			break
		}
	}
	if !found {
		t.Error("class declaration should map to an opaque node")
	}
}
