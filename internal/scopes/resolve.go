package scopes

import (
	"lien/internal/ast"
	"lien/internal/diag"
	"lien/internal/source"
)

// ResolveOptions configure the resolution pass.
type ResolveOptions struct {
	Reporter diag.Reporter
}

// Result holds the scope table plus the use-site maps later passes consume.
type Result struct {
	Table *Table

	// UseBinding maps every resolved ident expression to its binding.
	UseBinding map[ast.ExprID]BindingID
	// LetBinding maps a let statement to the binding it declares.
	LetBinding map[ast.StmtID]BindingID
	// AssignBinding maps an assignment to its resolved target binding.
	AssignBinding map[ast.StmtID]BindingID
	// ParamBinding maps a parameter to its binding in the function frame.
	ParamBinding map[ast.ParamID]BindingID
	// BlockScope maps a block statement to the frame it opened.
	BlockScope map[ast.StmtID]ScopeID
	// FnScope maps a function to its body frame.
	FnScope map[ast.FnID]ScopeID
	// Refs classifies bindings that hold references.
	Refs map[BindingID]RefTarget
	// Fns indexes the file's functions by name for call resolution.
	Fns map[source.StringID]ast.FnID
}

// ResolveFile builds the scope table for every function in the file and
// resolves each name use to a binding. Unresolved binding names are
// reported as ResolveUnboundName; unknown callees are assumed external.
func ResolveFile(builder *ast.Builder, fileID ast.FileID, opts ResolveOptions) Result {
	res := Result{
		Table:         NewTable(),
		UseBinding:    make(map[ast.ExprID]BindingID),
		LetBinding:    make(map[ast.StmtID]BindingID),
		AssignBinding: make(map[ast.StmtID]BindingID),
		ParamBinding:  make(map[ast.ParamID]BindingID),
		BlockScope:    make(map[ast.StmtID]ScopeID),
		FnScope:       make(map[ast.FnID]ScopeID),
		Refs:          make(map[BindingID]RefTarget),
		Fns:           make(map[source.StringID]ast.FnID),
	}
	if builder == nil || !fileID.IsValid() {
		return res
	}
	file := builder.Files.Get(fileID)
	if file == nil {
		return res
	}

	r := resolver{builder: builder, reporter: opts.Reporter, res: &res}
	for _, fnID := range file.Fns {
		fn := builder.Fns.Get(fnID)
		if fn == nil {
			continue
		}
		if prev, dup := res.Fns[fn.Name]; dup {
			prevFn := builder.Fns.Get(prev)
			diag.ReportError(opts.Reporter, diag.ResolveDuplicateFn, fn.NameSpan,
				"function '"+builder.Name(fn.Name)+"' is declared more than once").
				WithNote(prevFn.NameSpan, "first declaration is here").
				Emit()
			continue
		}
		res.Fns[fn.Name] = fnID
	}
	for _, fnID := range file.Fns {
		r.resolveFn(fnID)
	}
	return res
}

type resolver struct {
	builder  *ast.Builder
	reporter diag.Reporter
	res      *Result
}

func (r *resolver) resolveFn(fnID ast.FnID) {
	fn := r.builder.Fns.Get(fnID)
	if fn == nil {
		return
	}
	scope := r.res.Table.EnterScope(ScopeFunction, ast.NoStmtID)
	r.res.FnScope[fnID] = scope
	for _, paramID := range fn.Params {
		param := r.builder.Fns.Param(paramID)
		if param == nil {
			continue
		}
		id, shadowed := r.res.Table.Declare(param.Name, param.Kind, param.Mut, ast.NoStmtID, paramID, param.Span)
		r.res.ParamBinding[paramID] = id
		r.noteShadow(param.Name, param.Span, shadowed)
	}
	// The body block shares the function frame: parameters and top-level
	// locals finalize together.
	if data, ok := r.builder.Stmts.Block(fn.Body); ok {
		r.res.BlockScope[fn.Body] = scope
		for _, child := range data.Stmts {
			r.resolveStmt(child)
		}
	} else if fn.Body.IsValid() {
		r.resolveStmt(fn.Body)
	}
	r.res.Table.ExitScope()
}

func (r *resolver) resolveStmt(id ast.StmtID) {
	stmt := r.builder.Stmts.Get(id)
	if stmt == nil {
		return
	}
	switch stmt.Kind {
	case ast.StmtLet:
		data, _ := r.builder.Stmts.Let(id)
		// The initializer is resolved before the name becomes visible, so
		// `let x = x` refers to the outer x.
		if data.Value.IsValid() {
			r.resolveExpr(data.Value)
		}
		bid, shadowed := r.res.Table.Declare(data.Name, data.Kind, data.Mut, id, ast.NoParamID, data.NameSpan)
		r.res.LetBinding[id] = bid
		r.noteShadow(data.Name, data.NameSpan, shadowed)
		r.classifyRef(bid, data.Value)
	case ast.StmtAssign:
		data, _ := r.builder.Stmts.Assign(id)
		if data.Value.IsValid() {
			r.resolveExpr(data.Value)
		}
		if target, ok := r.res.Table.Resolve(data.Target); ok {
			r.res.AssignBinding[id] = target
		} else {
			r.reportUnbound(data.Target, data.TargetSpan)
		}
	case ast.StmtExpr:
		data, _ := r.builder.Stmts.Expr(id)
		r.resolveExpr(data.Expr)
	case ast.StmtBlock:
		data, _ := r.builder.Stmts.Block(id)
		scope := r.res.Table.EnterScope(ScopeBlock, id)
		r.res.BlockScope[id] = scope
		for _, child := range data.Stmts {
			r.resolveStmt(child)
		}
		r.res.Table.ExitScope()
	case ast.StmtIf:
		data, _ := r.builder.Stmts.If(id)
		if data.Cond.IsValid() {
			r.resolveExpr(data.Cond)
		}
		r.resolveStmt(data.Then)
		if data.Else.IsValid() {
			r.resolveStmt(data.Else)
		}
	case ast.StmtWhile:
		data, _ := r.builder.Stmts.While(id)
		if data.Cond.IsValid() {
			r.resolveExpr(data.Cond)
		}
		r.resolveStmt(data.Body)
	case ast.StmtReturn:
		data, _ := r.builder.Stmts.Return(id)
		if data.Value.IsValid() {
			r.resolveExpr(data.Value)
		}
	case ast.StmtBreak, ast.StmtContinue:
		// No names to resolve.
	}
}

func (r *resolver) resolveExpr(id ast.ExprID) {
	expr := r.builder.Exprs.Get(id)
	if expr == nil {
		return
	}
	switch expr.Kind {
	case ast.ExprIdent:
		data, _ := r.builder.Exprs.Ident(id)
		if bid, ok := r.res.Table.Resolve(data.Name); ok {
			r.res.UseBinding[id] = bid
		} else {
			r.reportUnbound(data.Name, expr.Span)
		}
	case ast.ExprBorrow:
		data, _ := r.builder.Exprs.Borrow(id)
		r.resolveExpr(data.Target)
	case ast.ExprCall:
		data, _ := r.builder.Exprs.Call(id)
		for _, arg := range data.Args {
			r.resolveExpr(arg)
		}
	case ast.ExprBinary:
		data, _ := r.builder.Exprs.Binary(id)
		r.resolveExpr(data.Left)
		r.resolveExpr(data.Right)
	case ast.ExprLit:
		// Nothing to resolve.
	}
}

// classifyRef records reference-holding bindings: a let whose initializer is
// a borrow expression, or a copy of another reference binding.
func (r *resolver) classifyRef(bid BindingID, value ast.ExprID) {
	if !bid.IsValid() || !value.IsValid() {
		return
	}
	expr := r.builder.Exprs.Get(value)
	if expr == nil {
		return
	}
	switch expr.Kind {
	case ast.ExprBorrow:
		data, _ := r.builder.Exprs.Borrow(value)
		targetExpr := r.builder.Exprs.Get(data.Target)
		if targetExpr == nil || targetExpr.Kind != ast.ExprIdent {
			return
		}
		if target, ok := r.res.UseBinding[data.Target]; ok {
			r.res.Refs[bid] = RefTarget{Target: target, Mut: data.Mut, Expr: value}
		}
	case ast.ExprIdent:
		if src, ok := r.res.UseBinding[value]; ok {
			if ref, isRef := r.res.Refs[src]; isRef {
				r.res.Refs[bid] = ref
			}
		}
	}
}

func (r *resolver) reportUnbound(name source.StringID, span source.Span) {
	diag.ReportError(r.reporter, diag.ResolveUnboundName, span,
		"cannot find '"+r.builder.Name(name)+"' in this scope").Emit()
}

func (r *resolver) noteShadow(name source.StringID, span source.Span, shadowed BindingID) {
	if !shadowed.IsValid() {
		return
	}
	prev := r.res.Table.Binding(shadowed)
	diag.ReportInfo(r.reporter, diag.ResolveShadow,
		span, "'"+r.builder.Name(name)+"' shadows an earlier binding").
		WithNote(prev.Span, "earlier binding is here").
		Emit()
}
