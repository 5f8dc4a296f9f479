package scopes

import (
	"testing"

	"lien/internal/ast"
	"lien/internal/source"
)

func TestTableShadowingResolvesInnermost(t *testing.T) {
	table := NewTable()
	interner := source.NewInterner()
	x := interner.Intern("x")

	table.EnterScope(ScopeFunction, ast.NoStmtID)
	outer, shadowed := table.Declare(x, ast.ValueMove, false, ast.NoStmtID, ast.NoParamID, source.Span{})
	if shadowed.IsValid() {
		t.Fatalf("first declaration must not shadow anything")
	}

	table.EnterScope(ScopeBlock, ast.NoStmtID)
	inner, shadowed := table.Declare(x, ast.ValueCopy, true, ast.NoStmtID, ast.NoParamID, source.Span{})
	if shadowed != outer {
		t.Fatalf("expected inner declaration to shadow outer")
	}
	if got, ok := table.Resolve(x); !ok || got != inner {
		t.Fatalf("resolve must return innermost binding")
	}

	table.ExitScope()
	if got, ok := table.Resolve(x); !ok || got != outer {
		t.Fatalf("after frame exit the outer binding must be visible again")
	}
}

func TestTableExitScopeReverseDeclarationOrder(t *testing.T) {
	table := NewTable()
	interner := source.NewInterner()

	table.EnterScope(ScopeFunction, ast.NoStmtID)
	a, _ := table.Declare(interner.Intern("a"), ast.ValueMove, false, ast.NoStmtID, ast.NoParamID, source.Span{})
	b, _ := table.Declare(interner.Intern("b"), ast.ValueMove, false, ast.NoStmtID, ast.NoParamID, source.Span{})
	c, _ := table.Declare(interner.Intern("c"), ast.ValueMove, false, ast.NoStmtID, ast.NoParamID, source.Span{})

	got := table.ExitScope()
	want := []BindingID{c, b, a}
	if len(got) != len(want) {
		t.Fatalf("expected %d finalized bindings, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("finalization order mismatch at %d: want %d, got %d", i, want[i], got[i])
		}
	}
}

func TestTableResolveUnknown(t *testing.T) {
	table := NewTable()
	interner := source.NewInterner()
	table.EnterScope(ScopeFunction, ast.NoStmtID)
	if _, ok := table.Resolve(interner.Intern("ghost")); ok {
		t.Fatalf("unknown name must not resolve")
	}
}

func TestTableDepthTracksFrames(t *testing.T) {
	table := NewTable()
	table.EnterScope(ScopeFunction, ast.NoStmtID)
	table.EnterScope(ScopeBlock, ast.NoStmtID)
	if table.Depth() != 2 {
		t.Fatalf("expected depth 2, got %d", table.Depth())
	}
	inner := table.Current()
	if table.Scope(inner).Depth != 2 {
		t.Fatalf("inner frame must record depth 2")
	}
	table.ExitScope()
	if table.Depth() != 1 {
		t.Fatalf("expected depth 1 after exit, got %d", table.Depth())
	}
}

func TestTableDeclareOutsideScope(t *testing.T) {
	table := NewTable()
	interner := source.NewInterner()
	id, _ := table.Declare(interner.Intern("x"), ast.ValueCopy, false, ast.NoStmtID, ast.NoParamID, source.Span{})
	if id.IsValid() {
		t.Fatalf("declare without an open frame must fail")
	}
}
