package ast

import (
	"lien/internal/source"
)

// Exprs manages allocation of expressions.
type Exprs struct {
	Arena    *Arena[Expr]
	Idents   *Arena[ExprIdentData]
	Literals *Arena[ExprLitData]
	Borrows  *Arena[ExprBorrowData]
	Calls    *Arena[ExprCallData]
	Binaries *Arena[ExprBinaryData]
}

// NewExprs creates an Exprs with per-kind arenas preallocated to capHint.
func NewExprs(capHint uint) *Exprs {
	if capHint == 0 {
		capHint = 1 << 8
	}
	return &Exprs{
		Arena:    NewArena[Expr](capHint),
		Idents:   NewArena[ExprIdentData](capHint),
		Literals: NewArena[ExprLitData](capHint),
		Borrows:  NewArena[ExprBorrowData](capHint),
		Calls:    NewArena[ExprCallData](capHint),
		Binaries: NewArena[ExprBinaryData](capHint),
	}
}

func (e *Exprs) new(kind ExprKind, span source.Span, payload PayloadID) ExprID {
	return ExprID(e.Arena.Allocate(Expr{
		Kind:    kind,
		Span:    span,
		Payload: payload,
	}))
}

// Get returns the expression with the given ID.
func (e *Exprs) Get(id ExprID) *Expr {
	return e.Arena.Get(uint32(id))
}

// NewIdent creates a new identifier expression.
func (e *Exprs) NewIdent(span source.Span, name source.StringID) ExprID {
	payload := e.Idents.Allocate(ExprIdentData{Name: name})
	return e.new(ExprIdent, span, PayloadID(payload))
}

// Ident returns the identifier data for the given expression ID.
func (e *Exprs) Ident(id ExprID) (*ExprIdentData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprIdent {
		return nil, false
	}
	return e.Idents.Get(uint32(expr.Payload)), true
}

// NewLit creates a new literal expression.
func (e *Exprs) NewLit(span source.Span, value source.StringID) ExprID {
	payload := e.Literals.Allocate(ExprLitData{Value: value})
	return e.new(ExprLit, span, PayloadID(payload))
}

// Lit returns the literal data for the given expression ID.
func (e *Exprs) Lit(id ExprID) (*ExprLitData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprLit {
		return nil, false
	}
	return e.Literals.Get(uint32(expr.Payload)), true
}

// NewBorrow creates a borrow expression (&target, or &mut target when mut).
func (e *Exprs) NewBorrow(span source.Span, target ExprID, mut bool) ExprID {
	payload := e.Borrows.Allocate(ExprBorrowData{Target: target, Mut: mut})
	return e.new(ExprBorrow, span, PayloadID(payload))
}

// Borrow returns the borrow data for the given expression ID.
func (e *Exprs) Borrow(id ExprID) (*ExprBorrowData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprBorrow {
		return nil, false
	}
	return e.Borrows.Get(uint32(expr.Payload)), true
}

// NewCall creates a call expression.
func (e *Exprs) NewCall(span source.Span, callee source.StringID, calleeSpan source.Span, args []ExprID) ExprID {
	payload := e.Calls.Allocate(ExprCallData{Callee: callee, CalleeSpan: calleeSpan, Args: args})
	return e.new(ExprCall, span, PayloadID(payload))
}

// Call returns the call data for the given expression ID.
func (e *Exprs) Call(id ExprID) (*ExprCallData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprCall {
		return nil, false
	}
	return e.Calls.Get(uint32(expr.Payload)), true
}

// NewBinary creates a binary expression.
func (e *Exprs) NewBinary(span source.Span, left, right ExprID) ExprID {
	payload := e.Binaries.Allocate(ExprBinaryData{Left: left, Right: right})
	return e.new(ExprBinary, span, PayloadID(payload))
}

// Binary returns the binary data for the given expression ID.
func (e *Exprs) Binary(id ExprID) (*ExprBinaryData, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != ExprBinary {
		return nil, false
	}
	return e.Binaries.Get(uint32(expr.Payload)), true
}
