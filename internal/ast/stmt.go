package ast

import (
	"lien/internal/source"
)

type StmtKind uint8

const (
	StmtInvalid StmtKind = iota
	StmtLet
	StmtAssign
	StmtExpr
	StmtBlock
	StmtIf
	StmtWhile
	StmtReturn
	StmtBreak
	StmtContinue
)

type Stmt struct {
	Kind    StmtKind
	Span    source.Span
	Payload PayloadID
}

// StmtLetData declares a binding. Kind and Mut are input facts attached by
// the front end; shadowing an outer name is legal and handled in resolution.
type StmtLetData struct {
	Name     source.StringID
	NameSpan source.Span
	Kind     ValueKind
	Mut      bool
	Value    ExprID
}

// StmtAssignData writes Value into the named binding.
type StmtAssignData struct {
	Target     source.StringID
	TargetSpan source.Span
	Value      ExprID
}

type StmtExprData struct {
	Expr ExprID
}

// StmtBlockData is a lexical block; it opens a scope frame.
type StmtBlockData struct {
	Stmts []StmtID
}

// StmtIfData branches on Cond. Else may be NoStmtID.
type StmtIfData struct {
	Cond ExprID
	Then StmtID
	Else StmtID
}

// StmtWhileData loops over Body while Cond holds. Cond may be NoExprID for
// an unconditional loop.
type StmtWhileData struct {
	Cond ExprID
	Body StmtID
}

// StmtReturnData exits the function. Value may be NoExprID.
type StmtReturnData struct {
	Value ExprID
}
