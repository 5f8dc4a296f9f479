package verify

import (
	"lien/internal/ast"
	"lien/internal/cfg"
	"lien/internal/diag"
	"lien/internal/region"
	"lien/internal/scopes"
	"lien/internal/source"
)

// checker runs the ownership flow analysis for one function: a forward
// dataflow pass over the control-flow graph with the abstract state as the
// lattice and merge as the meet.
type checker struct {
	builder  *ast.Builder
	res      *scopes.Result
	g        *cfg.Graph
	regions  *region.Analysis
	reporter diag.Reporter
	limit    *diag.LimitReporter
	policy   JoinPolicy
	fn       *ast.FnItem
	aborted  bool
}

// run iterates the transfer function to a fixed point. Reverse postorder
// plus a monotone lattice keeps the iteration count small; the sweep bound
// catches a diverging loop instead of hanging.
func (c *checker) run() {
	if c.fn == nil || len(c.g.Blocks) == 0 {
		return
	}
	order := c.g.RPO()
	preds := c.g.Preds()
	out := make([]AbsState, len(c.g.Blocks))
	hasOut := make([]bool, len(c.g.Blocks))

	init := make(AbsState)
	for _, pid := range c.fn.Params {
		if bid, ok := c.res.ParamBinding[pid]; ok {
			init[bid] = BindState{}
		}
	}

	bound := 3*int(c.res.Table.Bindings()) + 4
	for sweep := 0; ; sweep++ {
		if sweep > bound {
			diag.ReportError(c.reporter, diag.CheckFixedPointDiverged, c.fn.NameSpan,
				"ownership analysis did not converge in function '"+c.builder.Name(c.fn.Name)+"'").Emit()
			return
		}
		changed := false
		for _, bid := range order {
			var entry AbsState
			if bid == c.g.Entry {
				entry = init.clone()
			} else {
				var reachable bool
				entry, reachable = c.meetPreds(preds[bid], out, hasOut)
				if !reachable {
					continue
				}
			}
			newOut := c.interpret(bid, entry)
			if c.aborted {
				return
			}
			if !hasOut[bid] || !newOut.equal(out[bid]) {
				out[bid] = newOut
				hasOut[bid] = true
				changed = true
			}
		}
		if !changed {
			return
		}
	}
}

// meetPreds merges the out-states of every predecessor whose state has been
// computed. A block with no computed predecessor is unreachable this sweep.
func (c *checker) meetPreds(preds []cfg.BlockID, out []AbsState, hasOut []bool) (AbsState, bool) {
	var acc AbsState
	seen := 0
	for _, pred := range preds {
		if !hasOut[pred] {
			continue
		}
		seen++
		if acc == nil {
			acc = out[pred].clone()
			continue
		}
		c.merge(acc, out[pred], seen >= 2)
	}
	return acc, acc != nil
}

// interpret applies the transfer function to every step of one block.
func (c *checker) interpret(bid cfg.BlockID, entry AbsState) AbsState {
	st := entry
	for _, step := range c.g.Blocks[bid].Steps {
		if c.limit.Exhausted() {
			c.aborted = true
			return st
		}
		c.expire(st, step.Point)
		switch step.Kind {
		case cfg.StepStmt:
			c.transfer(st, step.Stmt)
		case cfg.StepExitScope:
			c.exitScope(st, step.Scope)
		}
	}
	return st
}

// expire drops borrows whose live region does not contain the point. A
// binding returns to Owned once its last borrow ends. Regions are lexical,
// so re-entering a loop body also clears borrows created on the previous
// iteration.
func (c *checker) expire(st AbsState, point uint32) {
	for bid, bs := range st {
		changed := false
		kept := bs.Shared[:0]
		for _, borrow := range bs.Shared {
			if iv, ok := c.regions.Borrows[borrow]; ok && iv.Contains(point) {
				kept = append(kept, borrow)
			} else {
				changed = true
			}
		}
		bs.Shared = kept
		if bs.Mut.IsValid() {
			if iv, ok := c.regions.Borrows[bs.Mut]; !ok || !iv.Contains(point) {
				bs.Mut = ast.NoExprID
				changed = true
			}
		}
		if changed {
			st[bid] = bs
		}
	}
}

// exitScope finalizes one frame: its bindings leave the state in reverse
// declaration order.
func (c *checker) exitScope(st AbsState, scope scopes.ScopeID) {
	s := c.res.Table.Scope(scope)
	if s == nil {
		return
	}
	for i := len(s.Bindings) - 1; i >= 0; i-- {
		delete(st, s.Bindings[i])
	}
}

func (c *checker) transfer(st AbsState, id ast.StmtID) {
	stmt := c.builder.Stmts.Get(id)
	if stmt == nil {
		return
	}
	switch stmt.Kind {
	case ast.StmtLet:
		data, _ := c.builder.Stmts.Let(id)
		if data.Value.IsValid() {
			c.eval(st, data.Value, true)
		}
		if bid, ok := c.res.LetBinding[id]; ok {
			st[bid] = BindState{}
		}
	case ast.StmtAssign:
		data, _ := c.builder.Stmts.Assign(id)
		if data.Value.IsValid() {
			c.eval(st, data.Value, true)
		}
		c.applyWrite(st, id, data)
	case ast.StmtExpr:
		data, _ := c.builder.Stmts.Expr(id)
		c.eval(st, data.Expr, false)
	case ast.StmtIf:
		data, _ := c.builder.Stmts.If(id)
		if data.Cond.IsValid() {
			c.eval(st, data.Cond, false)
		}
	case ast.StmtWhile:
		data, _ := c.builder.Stmts.While(id)
		if data.Cond.IsValid() {
			c.eval(st, data.Cond, false)
		}
	case ast.StmtReturn:
		data, _ := c.builder.Stmts.Return(id)
		if data.Value.IsValid() {
			c.eval(st, data.Value, true)
		}
	}
}

// applyWrite checks an assignment target: mutability, moved-ness and active
// borrows. Whatever was found, the write installs a fresh owned value so the
// path recovers.
func (c *checker) applyWrite(st AbsState, id ast.StmtID, data *ast.StmtAssignData) {
	bid, ok := c.res.AssignBinding[id]
	if !ok {
		return
	}
	binding := c.res.Table.Binding(bid)
	name := c.builder.Name(binding.Name)
	if !binding.Mut {
		diag.ReportError(c.reporter, diag.CheckAssignImmutable, data.TargetSpan,
			"cannot assign twice to immutable binding '"+name+"'").
			WithNote(binding.Span, "'"+name+"' is declared immutable here").
			Emit()
	}
	bs := st[bid]
	switch {
	case bs.Moved:
		diag.ReportError(c.reporter, diag.CheckUseAfterMove, data.TargetSpan,
			"use of moved value '"+name+"'").
			WithNote(bs.MovedAt, "value moved here").
			Emit()
	default:
		if issue := bs.CanWrite(); issue.Blocked() {
			diag.ReportError(c.reporter, diag.CheckWriteWhileBorrow, data.TargetSpan,
				"cannot assign to '"+name+"' while it is borrowed").
				WithNote(c.exprSpan(issue.Borrow), "borrow of '"+name+"' occurs here").
				Emit()
		}
	}
	st[bid] = BindState{}
}

// eval walks an expression, reporting reads of moved values and registering
// borrows. consume marks value-consuming positions (let and assignment
// initializers, return values, arguments bound to by-move parameters):
// there an identifier of a move-kind binding gives up ownership.
func (c *checker) eval(st AbsState, id ast.ExprID, consume bool) {
	expr := c.builder.Exprs.Get(id)
	if expr == nil {
		return
	}
	switch expr.Kind {
	case ast.ExprIdent:
		c.evalIdent(st, id, expr.Span, consume)
	case ast.ExprLit:
	case ast.ExprBorrow:
		data, _ := c.builder.Exprs.Borrow(id)
		c.eval(st, data.Target, false)
		c.applyBorrow(st, id, data, expr.Span)
	case ast.ExprCall:
		data, _ := c.builder.Exprs.Call(id)
		params := c.calleeParams(data.Callee)
		for i, arg := range data.Args {
			// Unknown callees fall back to the argument's own value kind,
			// matching plain assignment.
			consumeArg := true
			if params != nil && i < len(params) {
				consumeArg = params[i] == ast.ValueMove
			}
			c.eval(st, arg, consumeArg)
		}
	case ast.ExprBinary:
		data, _ := c.builder.Exprs.Binary(id)
		c.eval(st, data.Left, false)
		c.eval(st, data.Right, false)
	}
}

func (c *checker) evalIdent(st AbsState, id ast.ExprID, span source.Span, consume bool) {
	bid, ok := c.res.UseBinding[id]
	if !ok {
		return
	}
	binding := c.res.Table.Binding(bid)
	name := c.builder.Name(binding.Name)
	bs := st[bid]
	if bs.Moved {
		diag.ReportError(c.reporter, diag.CheckUseAfterMove, span,
			"use of moved value '"+name+"'").
			WithNote(bs.MovedAt, "value moved here").
			Emit()
		bs.Moved = false
		st[bid] = bs
	}
	if !consume || binding.Kind != ast.ValueMove {
		return
	}
	if issue := bs.CanMove(); issue.Blocked() {
		diag.ReportError(c.reporter, diag.CheckBorrowConflict, span,
			"cannot move out of '"+name+"' while it is borrowed").
			WithNote(c.exprSpan(issue.Borrow), "borrow of '"+name+"' occurs here").
			Emit()
		return
	}
	bs.Moved = true
	bs.MovedAt = span
	st[bid] = bs
}

// applyBorrow checks the aliasing rule at a borrow site and registers the
// borrow on its target. A refused borrow is not registered, so the path
// recovers with the earlier borrow still active.
func (c *checker) applyBorrow(st AbsState, id ast.ExprID, data *ast.ExprBorrowData, span source.Span) {
	targetBid, ok := c.res.UseBinding[data.Target]
	if !ok {
		return
	}
	binding := c.res.Table.Binding(targetBid)
	name := c.builder.Name(binding.Name)
	bs := st[targetBid]

	var issue Issue
	if data.Mut {
		issue = bs.CanBorrowMut()
	} else {
		issue = bs.CanBorrowShared()
	}
	if issue.Blocked() {
		msg := "cannot borrow '" + name + "' as immutable because it is also borrowed as mutable"
		if data.Mut {
			if issue.Kind == IssueConflictMut {
				msg = "cannot borrow '" + name + "' as mutable more than once"
			} else {
				msg = "cannot borrow '" + name + "' as mutable because it is also borrowed as immutable"
			}
		}
		diag.ReportError(c.reporter, diag.CheckBorrowConflict, span, msg).
			WithNote(c.exprSpan(issue.Borrow), "previous borrow of '"+name+"' occurs here").
			Emit()
		return
	}
	if data.Mut && !binding.Mut {
		diag.ReportError(c.reporter, diag.CheckAssignImmutable, span,
			"cannot borrow '"+name+"' as mutable, as it is not declared as mutable").
			WithNote(binding.Span, "'"+name+"' is declared here").
			Emit()
	}
	if _, hasRegion := c.regions.Borrows[id]; !hasRegion {
		return
	}
	if data.Mut {
		bs.Mut = id
	} else {
		bs.AddShared(id)
	}
	st[targetBid] = bs
}

// calleeParams returns the parameter value kinds of a known function, or
// nil when the callee is external to the file.
func (c *checker) calleeParams(name source.StringID) []ast.ValueKind {
	fnID, ok := c.res.Fns[name]
	if !ok {
		return nil
	}
	fn := c.builder.Fns.Get(fnID)
	if fn == nil {
		return nil
	}
	kinds := make([]ast.ValueKind, 0, len(fn.Params))
	for _, pid := range fn.Params {
		kinds = append(kinds, c.builder.Fns.Param(pid).Kind)
	}
	return kinds
}

func (c *checker) exprSpan(id ast.ExprID) source.Span {
	if expr := c.builder.Exprs.Get(id); expr != nil {
		return expr.Span
	}
	return source.Span{}
}
