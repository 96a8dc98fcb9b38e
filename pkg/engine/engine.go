// Package engine runs the rewrite pipeline: parse once, then repeat
// analyze-and-rewrite passes until no rule fires or the pass ceiling is
// reached. Each pass rebuilds scope and provenance information from
// scratch, so rules only ever reason about nodes the current analysis has
// seen; nodes created mid-pass are picked up by the next pass.
package engine

import (
	"fmt"

	"github.com/esfix/esfix/pkg/ast"
	"github.com/esfix/esfix/pkg/parser"
	"github.com/esfix/esfix/pkg/provenance"
	"github.com/esfix/esfix/pkg/scope"
)

// Level selects how aggressive the catalog is. Each level includes every
// rule of the levels below it.
type Level int

const (
	// Level1 enables syntax-local modernizations.
	Level1 Level = 1
	// Level2 adds control-flow restructuring.
	Level2 Level = 2
)

// String returns the wire form of the level.
func (l Level) String() string {
	return fmt.Sprintf("Level%d", int(l))
}

// ParseLevel converts the wire form ("Level1", "Level2") back to a Level.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "Level1":
		return Level1, nil
	case "Level2":
		return Level2, nil
	}
	return 0, fmt.Errorf("unknown capability level %q", s)
}

// Change records one applied rewrite: the rule id and the 1-based source
// line of the rewritten construct.
type Change struct {
	Type string `json:"type"`
	Line int    `json:"line"`
}

// Result is the outcome of one Transform call. When Modified is false,
// Code is the input byte-for-byte.
type Result struct {
	Code     string   `json:"code"`
	Modified bool     `json:"modified"`
	Changes  []Change `json:"changes"`
}

// Analysis bundles everything a rule may consult during one pass. It is
// discarded and rebuilt whenever the tree changes.
type Analysis struct {
	Prog   *ast.Program
	Scopes *scope.Info
	Prov   *provenance.Resolver
}

// ScopeOf is a shorthand for the scope enclosing a node; nil for nodes the
// current analysis has not seen.
func (a *Analysis) ScopeOf(id ast.NodeID) *scope.Scope {
	return a.Scopes.ScopeOf(id)
}

// Rule is one rewrite in the catalog. Apply inspects node and either
// performs its rewrite, returning the node now standing in the original's
// position (None when the construct was removed) and true, or leaves the
// tree untouched and returns false. A rule must only mutate the tree when
// it returns true.
type Rule interface {
	ID() string
	MinLevel() Level
	Apply(a *Analysis, node ast.NodeID) (ast.NodeID, bool)
}

// MaxPasses bounds the fixpoint iteration. Hitting the ceiling is not an
// error; the source is simply left at whatever state the last pass
// produced.
const MaxPasses = 10

// Transform parses source, applies every catalog rule at or below level to
// a fixpoint, and returns the rewritten code together with one Change per
// rule application. The only error is *parser.ParseError for syntactically
// invalid input.
func Transform(source string, level Level) (*Result, error) {
	prog, err := parser.Parse(source)
	if err != nil {
		return nil, err
	}

	var active []Rule
	for _, r := range Catalog() {
		if r.MinLevel() <= level {
			active = append(active, r)
		}
	}

	changes := []Change{}
	for pass := 0; pass < MaxPasses; pass++ {
		a := &Analysis{Prog: prog, Scopes: scope.Analyze(prog)}
		a.Prov = provenance.New(prog, a.Scopes)
		w := &walker{a: a, rules: active, visited: make(map[ast.NodeID]bool)}
		w.walk(prog.Root())
		changes = append(changes, w.changes...)
		if w.applied == 0 {
			break
		}
	}

	if len(changes) == 0 {
		return &Result{Code: source, Modified: false, Changes: changes}, nil
	}
	return &Result{Code: ast.Print(prog), Modified: true, Changes: changes}, nil
}

// walker drives one pass: pre-order, first matching rule wins per node,
// rewritten nodes are not offered to further rules until the next pass.
type walker struct {
	a       *Analysis
	rules   []Rule
	visited map[ast.NodeID]bool
	changes []Change
	applied int
}

func (w *walker) walk(id ast.NodeID) {
	if id == ast.None {
		return
	}
	p := w.a.Prog
	if !w.visited[id] {
		line := p.Node(id).Line
		for _, r := range w.rules {
			repl, ok := r.Apply(w.a, id)
			if !ok {
				continue
			}
			w.applied++
			w.changes = append(w.changes, Change{Type: r.ID(), Line: line})
			if repl != ast.None {
				w.visited[repl] = true
			}
			// The subtree standing here is freshly built; the next pass
			// analyzes it properly.
			return
		}
		w.visited[id] = true
	}
	for i := 0; i < len(p.Node(id).Kids); i++ {
		w.walk(p.Kid(id, i))
	}
}
