package ast

import (
	"lien/internal/source"
)

type ExprKind uint8

const (
	ExprInvalid ExprKind = iota
	ExprIdent
	ExprLit
	ExprBorrow
	ExprCall
	ExprBinary
)

type Expr struct {
	Kind    ExprKind
	Span    source.Span
	Payload PayloadID
}

// ExprIdentData names a binding use. Every ident in expression position is a
// read of the named binding.
type ExprIdentData struct {
	Name source.StringID
}

// ExprLitData holds the literal's raw text. Literal values carry no ownership.
type ExprLitData struct {
	Value source.StringID
}

// ExprBorrowData is a borrow expression: &target or &mut target.
type ExprBorrowData struct {
	Target ExprID
	Mut    bool
}

// ExprCallData is a call by function name with by-value arguments.
type ExprCallData struct {
	Callee     source.StringID
	CalleeSpan source.Span
	Args       []ExprID
}

// ExprBinaryData pairs two operand reads. The operator itself is irrelevant
// to ownership and is not recorded.
type ExprBinaryData struct {
	Left  ExprID
	Right ExprID
}
