package ast

import (
	"lien/internal/source"
)

// Param is a function parameter. Its ValueKind decides whether an argument
// is copied or moved at the call site.
type Param struct {
	Name source.StringID
	Kind ValueKind
	Mut  bool
	Span source.Span
}

// FnItem is a function declaration with a body block.
type FnItem struct {
	Name     source.StringID
	NameSpan source.Span
	Params   []ParamID
	Body     StmtID
	Span     source.Span
}

// Fns manages allocation of functions and their parameters.
type Fns struct {
	Arena  *Arena[FnItem]
	Params *Arena[Param]
}

func NewFns(capHint uint) *Fns {
	if capHint == 0 {
		capHint = 1 << 6
	}
	return &Fns{
		Arena:  NewArena[FnItem](capHint),
		Params: NewArena[Param](capHint),
	}
}

// New allocates a function item.
func (f *Fns) New(name source.StringID, nameSpan source.Span, params []ParamID, body StmtID, span source.Span) FnID {
	return FnID(f.Arena.Allocate(FnItem{
		Name:     name,
		NameSpan: nameSpan,
		Params:   params,
		Body:     body,
		Span:     span,
	}))
}

// Get returns the function with the given ID.
func (f *Fns) Get(id FnID) *FnItem {
	return f.Arena.Get(uint32(id))
}

// NewParam allocates a parameter record.
func (f *Fns) NewParam(name source.StringID, kind ValueKind, mut bool, span source.Span) ParamID {
	return ParamID(f.Params.Allocate(Param{
		Name: name,
		Kind: kind,
		Mut:  mut,
		Span: span,
	}))
}

// Param returns the parameter with the given ID.
func (f *Fns) Param(id ParamID) *Param {
	return f.Params.Get(uint32(id))
}
