package scopes

import (
	"testing"

	"lien/internal/ast"
	"lien/internal/diag"
	"lien/internal/source"
)

func newTestBuilder() (*ast.Builder, ast.FileID) {
	builder := ast.NewBuilder(ast.Hints{}, nil)
	fileID := builder.Files.New(source.Span{})
	return builder, fileID
}

func intern(builder *ast.Builder, s string) source.StringID {
	return builder.StringsInterner.Intern(s)
}

func addFunction(builder *ast.Builder, file ast.FileID, name string, stmts []ast.StmtID) ast.FnID {
	body := builder.Stmts.NewBlock(source.Span{}, stmts)
	fn := builder.Fns.New(intern(builder, name), source.Span{}, nil, body, source.Span{})
	builder.PushFn(file, fn)
	return fn
}

func runResolve(builder *ast.Builder, file ast.FileID) (Result, *diag.Bag) {
	bag := diag.NewBag(0)
	res := ResolveFile(builder, file, ResolveOptions{Reporter: diag.BagReporter{Bag: bag}})
	return res, bag
}

func hasCode(bag *diag.Bag, code diag.Code) bool {
	for _, item := range bag.Items() {
		if item.Code == code {
			return true
		}
	}
	return false
}

func TestResolveUnboundName(t *testing.T) {
	builder, file := newTestBuilder()
	use := builder.Exprs.NewIdent(source.Span{Start: 5, End: 6}, intern(builder, "x"))
	stmt := builder.Stmts.NewExpr(source.Span{}, use)
	addFunction(builder, file, "main", []ast.StmtID{stmt})

	res, bag := runResolve(builder, file)
	if !hasCode(bag, diag.ResolveUnboundName) {
		t.Fatalf("expected ResolveUnboundName, got %v", bag.Items())
	}
	if _, ok := res.UseBinding[use]; ok {
		t.Fatalf("unresolved use must not appear in UseBinding")
	}
}

func TestResolveLetAndUse(t *testing.T) {
	builder, file := newTestBuilder()
	x := intern(builder, "x")
	let := builder.Stmts.NewLet(source.Span{}, x, source.Span{}, ast.ValueCopy, false,
		builder.Exprs.NewLit(source.Span{}, intern(builder, "5")))
	use := builder.Exprs.NewIdent(source.Span{}, x)
	read := builder.Stmts.NewExpr(source.Span{}, use)
	addFunction(builder, file, "main", []ast.StmtID{let, read})

	res, bag := runResolve(builder, file)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Items())
	}
	bid, ok := res.UseBinding[use]
	if !ok || bid != res.LetBinding[let] {
		t.Fatalf("use must resolve to the let binding")
	}
	if res.Table.Binding(bid).Kind != ast.ValueCopy {
		t.Fatalf("binding must carry its value kind")
	}
}

func TestResolveLetInitSeesOuterBinding(t *testing.T) {
	builder, file := newTestBuilder()
	x := intern(builder, "x")
	outer := builder.Stmts.NewLet(source.Span{}, x, source.Span{}, ast.ValueCopy, false,
		builder.Exprs.NewLit(source.Span{}, intern(builder, "1")))
	selfUse := builder.Exprs.NewIdent(source.Span{}, x)
	inner := builder.Stmts.NewLet(source.Span{}, x, source.Span{}, ast.ValueCopy, false, selfUse)
	addFunction(builder, file, "main", []ast.StmtID{outer, inner})

	res, bag := runResolve(builder, file)
	if hasCode(bag, diag.ResolveUnboundName) {
		t.Fatalf("let initializer must see the outer binding")
	}
	if res.UseBinding[selfUse] != res.LetBinding[outer] {
		t.Fatalf("`let x = x` must resolve to the outer x")
	}
	if !hasCode(bag, diag.ResolveShadow) {
		t.Fatalf("re-declaration must note the shadowing")
	}
}

func TestResolveClassifiesReferences(t *testing.T) {
	builder, file := newTestBuilder()
	v := intern(builder, "v")
	letV := builder.Stmts.NewLet(source.Span{}, v, source.Span{}, ast.ValueMove, true,
		builder.Exprs.NewLit(source.Span{}, intern(builder, "0")))
	borrow := builder.Exprs.NewBorrow(source.Span{}, builder.Exprs.NewIdent(source.Span{}, v), false)
	letR := builder.Stmts.NewLet(source.Span{}, intern(builder, "r"), source.Span{}, ast.ValueCopy, false, borrow)
	copyRef := builder.Exprs.NewIdent(source.Span{}, intern(builder, "r"))
	letR2 := builder.Stmts.NewLet(source.Span{}, intern(builder, "r2"), source.Span{}, ast.ValueCopy, false, copyRef)
	addFunction(builder, file, "main", []ast.StmtID{letV, letR, letR2})

	res, _ := runResolve(builder, file)
	ref, ok := res.Refs[res.LetBinding[letR]]
	if !ok || ref.Target != res.LetBinding[letV] || ref.Mut {
		t.Fatalf("r must be classified as a shared reference to v")
	}
	ref2, ok := res.Refs[res.LetBinding[letR2]]
	if !ok || ref2.Target != res.LetBinding[letV] {
		t.Fatalf("copying a reference must keep its target")
	}
	if ref2.Expr != ref.Expr {
		t.Fatalf("a copied reference shares the originating borrow")
	}
}

func TestResolveDuplicateFunction(t *testing.T) {
	builder, file := newTestBuilder()
	addFunction(builder, file, "main", nil)
	addFunction(builder, file, "main", nil)

	_, bag := runResolve(builder, file)
	if !hasCode(bag, diag.ResolveDuplicateFn) {
		t.Fatalf("expected ResolveDuplicateFn")
	}
}

func TestResolveBlockScopes(t *testing.T) {
	builder, file := newTestBuilder()
	v := intern(builder, "v")
	letV := builder.Stmts.NewLet(source.Span{}, v, source.Span{}, ast.ValueMove, false,
		builder.Exprs.NewLit(source.Span{}, intern(builder, "0")))
	innerBlock := builder.Stmts.NewBlock(source.Span{}, []ast.StmtID{letV})
	use := builder.Exprs.NewIdent(source.Span{Start: 9, End: 10}, v)
	after := builder.Stmts.NewExpr(source.Span{}, use)
	addFunction(builder, file, "main", []ast.StmtID{innerBlock, after})

	res, bag := runResolve(builder, file)
	if !hasCode(bag, diag.ResolveUnboundName) {
		t.Fatalf("a block-local binding must not be visible after the block")
	}
	scopeID, ok := res.BlockScope[innerBlock]
	if !ok {
		t.Fatalf("block must record its scope")
	}
	if res.Table.Scope(scopeID).Depth != 2 {
		t.Fatalf("inner block must sit at depth 2")
	}
}
