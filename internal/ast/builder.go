package ast

import (
	"lien/internal/source"
)

type Hints struct{ Files, Fns, Stmts, Exprs uint }

// Builder owns the arenas for one tree under construction. The front end
// fills it; the verifier only reads it and never mutates the tree.
type Builder struct {
	Files           *Files
	Fns             *Fns
	Stmts           *Stmts
	Exprs           *Exprs
	StringsInterner *source.Interner
}

// NewBuilder constructs a Builder. A nil interner gets a fresh one.
func NewBuilder(hints Hints, interner *source.Interner) *Builder {
	if interner == nil {
		interner = source.NewInterner()
	}
	return &Builder{
		Files:           NewFiles(hints.Files),
		Fns:             NewFns(hints.Fns),
		Stmts:           NewStmts(hints.Stmts),
		Exprs:           NewExprs(hints.Exprs),
		StringsInterner: interner,
	}
}

// PushFn appends a function to the file's declaration order.
func (b *Builder) PushFn(file FileID, fn FnID) {
	f := b.Files.Get(file)
	f.Fns = append(f.Fns, fn)
}

// Name resolves an interned string, or "_" for unknown IDs. Used by passes
// when rendering diagnostics.
func (b *Builder) Name(id source.StringID) string {
	if b == nil || b.StringsInterner == nil {
		return "_"
	}
	if s, ok := b.StringsInterner.Lookup(id); ok && s != "" {
		return s
	}
	return "_"
}
