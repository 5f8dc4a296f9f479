package region

import (
	"testing"

	"lien/internal/ast"
	"lien/internal/cfg"
	"lien/internal/diag"
	"lien/internal/scopes"
	"lien/internal/source"
)

type fixture struct {
	builder *ast.Builder
	file    ast.FileID
	fn      ast.FnID
}

func newFixture() *fixture {
	builder := ast.NewBuilder(ast.Hints{}, nil)
	return &fixture{builder: builder, file: builder.Files.New(source.Span{})}
}

func (f *fixture) intern(s string) source.StringID {
	return f.builder.StringsInterner.Intern(s)
}

func (f *fixture) addMain(stmts []ast.StmtID) {
	body := f.builder.Stmts.NewBlock(source.Span{}, stmts)
	f.fn = f.builder.Fns.New(f.intern("main"), source.Span{}, nil, body, source.Span{})
	f.builder.PushFn(f.file, f.fn)
}

func (f *fixture) analyze(t *testing.T) (*Analysis, scopes.Result, *diag.Bag) {
	t.Helper()
	resolveBag := diag.NewBag(0)
	res := scopes.ResolveFile(f.builder, f.file, scopes.ResolveOptions{
		Reporter: diag.BagReporter{Bag: resolveBag},
	})
	if resolveBag.HasErrors() {
		t.Fatalf("unexpected resolve errors: %v", resolveBag.Items())
	}
	g := cfg.Build(f.builder, f.fn, &res)
	bag := diag.NewBag(0)
	a := Analyze(f.builder, f.fn, &res, g, diag.BagReporter{Bag: bag})
	return a, res, bag
}

func hasCode(bag *diag.Bag, code diag.Code) bool {
	for _, item := range bag.Items() {
		if item.Code == code {
			return true
		}
	}
	return false
}

func TestRegionSpansCreationToLastUse(t *testing.T) {
	f := newFixture()
	v := f.intern("v")
	letV := f.builder.Stmts.NewLet(source.Span{}, v, source.Span{}, ast.ValueMove, true,
		f.builder.Exprs.NewLit(source.Span{}, f.intern("0")))
	borrow := f.builder.Exprs.NewBorrow(source.Span{}, f.builder.Exprs.NewIdent(source.Span{}, v), false)
	letR := f.builder.Stmts.NewLet(source.Span{}, f.intern("r"), source.Span{}, ast.ValueCopy, false, borrow)
	middle := f.builder.Stmts.NewExpr(source.Span{}, f.builder.Exprs.NewLit(source.Span{}, f.intern("1")))
	lastUse := f.builder.Stmts.NewExpr(source.Span{}, f.builder.Exprs.NewIdent(source.Span{}, f.intern("r")))
	f.addMain([]ast.StmtID{letV, letR, middle, lastUse})

	a, _, bag := f.analyze(t)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	iv, ok := a.Borrows[borrow]
	if !ok {
		t.Fatalf("borrow must have a region")
	}
	if iv.Start != a.StmtPoint[letR] {
		t.Fatalf("region must start at the borrow site")
	}
	if iv.End != a.StmtPoint[lastUse] {
		t.Fatalf("region must end at the last use, got %d want %d", iv.End, a.StmtPoint[lastUse])
	}
	if !iv.Contains(a.StmtPoint[middle]) {
		t.Fatalf("region must cover intermediate points")
	}
}

func TestAnonymousBorrowEndsAtOwnStatement(t *testing.T) {
	f := newFixture()
	v := f.intern("v")
	letV := f.builder.Stmts.NewLet(source.Span{}, v, source.Span{}, ast.ValueMove, false,
		f.builder.Exprs.NewLit(source.Span{}, f.intern("0")))
	borrow := f.builder.Exprs.NewBorrow(source.Span{}, f.builder.Exprs.NewIdent(source.Span{}, v), false)
	call := f.builder.Exprs.NewCall(source.Span{}, f.intern("read"), source.Span{}, []ast.ExprID{borrow})
	stmt := f.builder.Stmts.NewExpr(source.Span{}, call)
	f.addMain([]ast.StmtID{letV, stmt})

	a, _, _ := f.analyze(t)
	iv, ok := a.Borrows[borrow]
	if !ok {
		t.Fatalf("anonymous borrow must still get a region")
	}
	if iv.Start != iv.End || iv.Start != a.StmtPoint[stmt] {
		t.Fatalf("anonymous borrow must live only at its statement")
	}
}

func TestReturnLocalReferenceIsDangling(t *testing.T) {
	f := newFixture()
	v := f.intern("v")
	letV := f.builder.Stmts.NewLet(source.Span{}, v, source.Span{}, ast.ValueMove, false,
		f.builder.Exprs.NewCall(source.Span{}, f.intern("make"), source.Span{}, nil))
	borrow := f.builder.Exprs.NewBorrow(source.Span{Start: 20, End: 22}, f.builder.Exprs.NewIdent(source.Span{}, v), false)
	ret := f.builder.Stmts.NewReturn(source.Span{}, borrow)
	f.addMain([]ast.StmtID{letV, ret})

	_, _, bag := f.analyze(t)
	if !hasCode(bag, diag.CheckDanglingRef) {
		t.Fatalf("expected CheckDanglingRef, got %v", bag.Items())
	}
}

func TestReturnRefBindingIsDangling(t *testing.T) {
	f := newFixture()
	v := f.intern("v")
	letV := f.builder.Stmts.NewLet(source.Span{}, v, source.Span{}, ast.ValueMove, false,
		f.builder.Exprs.NewLit(source.Span{}, f.intern("0")))
	borrow := f.builder.Exprs.NewBorrow(source.Span{}, f.builder.Exprs.NewIdent(source.Span{}, v), false)
	letR := f.builder.Stmts.NewLet(source.Span{}, f.intern("r"), source.Span{}, ast.ValueCopy, false, borrow)
	ret := f.builder.Stmts.NewReturn(source.Span{}, f.builder.Exprs.NewIdent(source.Span{}, f.intern("r")))
	f.addMain([]ast.StmtID{letV, letR, ret})

	_, _, bag := f.analyze(t)
	if !hasCode(bag, diag.CheckDanglingRef) {
		t.Fatalf("forwarding a local reference through return must be dangling")
	}
}

func TestAssignToOuterBindingIsDangling(t *testing.T) {
	f := newFixture()
	// let mut r = &outer; { let inner = make(); r = &inner; }
	outer := f.intern("outer")
	letOuter := f.builder.Stmts.NewLet(source.Span{}, outer, source.Span{}, ast.ValueMove, false,
		f.builder.Exprs.NewLit(source.Span{}, f.intern("0")))
	firstBorrow := f.builder.Exprs.NewBorrow(source.Span{}, f.builder.Exprs.NewIdent(source.Span{}, outer), false)
	letR := f.builder.Stmts.NewLet(source.Span{}, f.intern("r"), source.Span{}, ast.ValueCopy, true, firstBorrow)

	inner := f.intern("inner")
	letInner := f.builder.Stmts.NewLet(source.Span{}, inner, source.Span{}, ast.ValueMove, false,
		f.builder.Exprs.NewCall(source.Span{}, f.intern("make"), source.Span{}, nil))
	innerBorrow := f.builder.Exprs.NewBorrow(source.Span{Start: 50, End: 56}, f.builder.Exprs.NewIdent(source.Span{}, inner), false)
	assign := f.builder.Stmts.NewAssign(source.Span{}, f.intern("r"), source.Span{}, innerBorrow)
	block := f.builder.Stmts.NewBlock(source.Span{}, []ast.StmtID{letInner, assign})

	f.addMain([]ast.StmtID{letOuter, letR, block})

	_, _, bag := f.analyze(t)
	if !hasCode(bag, diag.CheckDanglingRef) {
		t.Fatalf("storing &inner into an outer binding must be dangling")
	}
}

func TestAssignSameDepthIsAllowed(t *testing.T) {
	f := newFixture()
	v := f.intern("v")
	letV := f.builder.Stmts.NewLet(source.Span{}, v, source.Span{}, ast.ValueMove, false,
		f.builder.Exprs.NewLit(source.Span{}, f.intern("0")))
	firstBorrow := f.builder.Exprs.NewBorrow(source.Span{}, f.builder.Exprs.NewIdent(source.Span{}, v), false)
	letR := f.builder.Stmts.NewLet(source.Span{}, f.intern("r"), source.Span{}, ast.ValueCopy, true, firstBorrow)
	secondBorrow := f.builder.Exprs.NewBorrow(source.Span{}, f.builder.Exprs.NewIdent(source.Span{}, v), false)
	assign := f.builder.Stmts.NewAssign(source.Span{}, f.intern("r"), source.Span{}, secondBorrow)
	f.addMain([]ast.StmtID{letV, letR, assign})

	_, _, bag := f.analyze(t)
	if hasCode(bag, diag.CheckDanglingRef) {
		t.Fatalf("same-depth reference storage must be accepted: %v", bag.Items())
	}
}

func TestFrameMaxEndTracksHolders(t *testing.T) {
	f := newFixture()
	v := f.intern("v")
	letV := f.builder.Stmts.NewLet(source.Span{}, v, source.Span{}, ast.ValueMove, false,
		f.builder.Exprs.NewLit(source.Span{}, f.intern("0")))
	borrow := f.builder.Exprs.NewBorrow(source.Span{}, f.builder.Exprs.NewIdent(source.Span{}, v), false)
	letR := f.builder.Stmts.NewLet(source.Span{}, f.intern("r"), source.Span{}, ast.ValueCopy, false, borrow)
	use := f.builder.Stmts.NewExpr(source.Span{}, f.builder.Exprs.NewIdent(source.Span{}, f.intern("r")))
	f.addMain([]ast.StmtID{letV, letR, use})

	a, res, _ := f.analyze(t)
	scope := res.FnScope[f.fn]
	if a.FrameMaxEnd[scope] != a.StmtPoint[use] {
		t.Fatalf("frame max end must equal the last use point")
	}
}
