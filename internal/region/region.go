package region

import (
	"sort"

	"lien/internal/ast"
	"lien/internal/cfg"
	"lien/internal/diag"
	"lien/internal/scopes"
	"lien/internal/source"
)

// Interval is a closed range of program points during which a reference is
// live: from the borrow site to the last syntactic use.
type Interval struct {
	Start uint32
	End   uint32
}

// Contains reports whether the point lies inside the interval.
func (iv Interval) Contains(p uint32) bool {
	return iv.Start <= p && p <= iv.End
}

// Analysis carries the computed live regions for one function.
type Analysis struct {
	// Borrows maps each borrow expression to its live region. A borrow that
	// is never bound to a name ends at its own statement.
	Borrows map[ast.ExprID]Interval
	// Holders lists the bindings that hold each borrow, in binding order.
	Holders map[ast.ExprID][]scopes.BindingID
	// StmtPoint maps statements to their point ordinal in the graph.
	StmtPoint map[ast.StmtID]uint32
	// FrameMaxEnd records, per frame, the furthest region end point among
	// references held by its bindings.
	FrameMaxEnd map[scopes.ScopeID]uint32
}

// Analyze computes reference live regions for one function and reports
// references that would outlive their referent (the outlives rule):
// returning a reference to a function-local value, or storing a reference
// into a binding that lives longer than the borrow's target.
func Analyze(builder *ast.Builder, fnID ast.FnID, res *scopes.Result, g *cfg.Graph, reporter diag.Reporter) *Analysis {
	a := &Analysis{
		Borrows:     make(map[ast.ExprID]Interval),
		Holders:     make(map[ast.ExprID][]scopes.BindingID),
		StmtPoint:   make(map[ast.StmtID]uint32),
		FrameMaxEnd: make(map[scopes.ScopeID]uint32),
	}
	if builder == nil || g == nil || res == nil {
		return a
	}
	for _, block := range g.Blocks {
		for _, step := range block.Steps {
			if step.Kind == cfg.StepStmt {
				a.StmtPoint[step.Stmt] = step.Point
			}
		}
	}

	w := regionWalker{builder: builder, res: res, a: a, reporter: reporter}
	fn := builder.Fns.Get(fnID)
	if fn == nil {
		return a
	}
	// First sweep: seed every borrow at its own statement and collect the
	// bindings holding it.
	for bid, ref := range res.Refs {
		a.Holders[ref.Expr] = append(a.Holders[ref.Expr], bid)
	}
	sortBindings(a.Holders)
	w.walkStmt(fn.Body)

	for expr, iv := range a.Borrows {
		for _, holder := range a.Holders[expr] {
			scope := res.Table.Binding(holder).Scope
			if iv.End > a.FrameMaxEnd[scope] {
				a.FrameMaxEnd[scope] = iv.End
			}
		}
	}
	return a
}

type regionWalker struct {
	builder  *ast.Builder
	res      *scopes.Result
	a        *Analysis
	reporter diag.Reporter
}

func (w *regionWalker) walkStmt(id ast.StmtID) {
	stmt := w.builder.Stmts.Get(id)
	if stmt == nil {
		return
	}
	point, reachable := w.a.StmtPoint[id]
	switch stmt.Kind {
	case ast.StmtLet:
		data, _ := w.builder.Stmts.Let(id)
		if reachable {
			w.walkExpr(data.Value, point)
		}
	case ast.StmtAssign:
		data, _ := w.builder.Stmts.Assign(id)
		if reachable {
			w.walkExpr(data.Value, point)
			w.checkAssignEscape(id, data, point)
		}
	case ast.StmtExpr:
		data, _ := w.builder.Stmts.Expr(id)
		if reachable {
			w.walkExpr(data.Expr, point)
		}
	case ast.StmtBlock:
		data, _ := w.builder.Stmts.Block(id)
		for _, child := range data.Stmts {
			w.walkStmt(child)
		}
	case ast.StmtIf:
		data, _ := w.builder.Stmts.If(id)
		if reachable {
			w.walkExpr(data.Cond, point)
		}
		w.walkStmt(data.Then)
		if data.Else.IsValid() {
			w.walkStmt(data.Else)
		}
	case ast.StmtWhile:
		data, _ := w.builder.Stmts.While(id)
		if reachable && data.Cond.IsValid() {
			w.walkExpr(data.Cond, point)
		}
		w.walkStmt(data.Body)
	case ast.StmtReturn:
		data, _ := w.builder.Stmts.Return(id)
		if reachable && data.Value.IsValid() {
			w.walkExpr(data.Value, point)
			w.checkReturnEscape(data.Value)
		}
	case ast.StmtBreak, ast.StmtContinue:
		// No expressions; exits only shorten regions, which falls out of
		// the per-path flow walk never reaching later points.
	}
}

func (w *regionWalker) walkExpr(id ast.ExprID, point uint32) {
	expr := w.builder.Exprs.Get(id)
	if expr == nil {
		return
	}
	switch expr.Kind {
	case ast.ExprIdent:
		bid, ok := w.res.UseBinding[id]
		if !ok {
			return
		}
		if ref, isRef := w.res.Refs[bid]; isRef {
			w.extend(ref.Expr, point)
		}
	case ast.ExprBorrow:
		data, _ := w.builder.Exprs.Borrow(id)
		w.walkExpr(data.Target, point)
		w.extend(id, point)
	case ast.ExprCall:
		data, _ := w.builder.Exprs.Call(id)
		for _, arg := range data.Args {
			w.walkExpr(arg, point)
		}
	case ast.ExprBinary:
		data, _ := w.builder.Exprs.Binary(id)
		w.walkExpr(data.Left, point)
		w.walkExpr(data.Right, point)
	case ast.ExprLit:
	}
}

// extend grows the borrow's region to cover point, seeding it on first sight.
func (w *regionWalker) extend(borrow ast.ExprID, point uint32) {
	iv, ok := w.a.Borrows[borrow]
	if !ok {
		w.a.Borrows[borrow] = Interval{Start: point, End: point}
		return
	}
	if point < iv.Start {
		iv.Start = point
	}
	if point > iv.End {
		iv.End = point
	}
	w.a.Borrows[borrow] = iv
}

// checkReturnEscape rejects returning a reference to a function-local value:
// the caller's frame is shallower than any frame in this function.
func (w *regionWalker) checkReturnEscape(value ast.ExprID) {
	target, borrowSpan, ok := w.refTarget(value)
	if !ok {
		return
	}
	binding := w.res.Table.Binding(target)
	diag.ReportError(w.reporter, diag.CheckDanglingRef, borrowSpan,
		"returning a reference to '"+w.builder.Name(binding.Name)+"', which does not live long enough").
		WithNote(binding.Span, "'"+w.builder.Name(binding.Name)+"' is declared here and dropped at function exit").
		Emit()
}

// checkAssignEscape rejects storing a reference into a binding whose frame
// outlives the borrow target's frame.
func (w *regionWalker) checkAssignEscape(id ast.StmtID, data *ast.StmtAssignData, _ uint32) {
	dest, ok := w.res.AssignBinding[id]
	if !ok {
		return
	}
	target, borrowSpan, isRef := w.refTarget(data.Value)
	if !isRef {
		return
	}
	destBinding := w.res.Table.Binding(dest)
	targetBinding := w.res.Table.Binding(target)
	if destBinding.Depth >= targetBinding.Depth {
		return
	}
	diag.ReportError(w.reporter, diag.CheckDanglingRef, borrowSpan,
		"'"+w.builder.Name(targetBinding.Name)+"' does not live long enough").
		WithNote(destBinding.Span, "the reference is stored in '"+w.builder.Name(destBinding.Name)+"', which outlives it").
		Emit()
}

// refTarget resolves an expression that produces or forwards a reference to
// the borrow's target binding.
func (w *regionWalker) refTarget(value ast.ExprID) (scopes.BindingID, source.Span, bool) {
	expr := w.builder.Exprs.Get(value)
	if expr == nil {
		return scopes.NoBindingID, source.Span{}, false
	}
	switch expr.Kind {
	case ast.ExprBorrow:
		data, _ := w.builder.Exprs.Borrow(value)
		if target, ok := w.res.UseBinding[data.Target]; ok {
			return target, expr.Span, true
		}
	case ast.ExprIdent:
		if bid, ok := w.res.UseBinding[value]; ok {
			if ref, isRef := w.res.Refs[bid]; isRef {
				return ref.Target, expr.Span, true
			}
		}
	}
	return scopes.NoBindingID, source.Span{}, false
}

func sortBindings(holders map[ast.ExprID][]scopes.BindingID) {
	for _, ids := range holders {
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}
}
