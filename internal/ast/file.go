package ast

import (
	"lien/internal/source"
)

// File is the root of one parsed source file: an ordered list of functions.
type File struct {
	Span source.Span
	Fns  []FnID
}

type Files struct {
	Arena *Arena[File]
}

func NewFiles(capHint uint) *Files {
	if capHint == 0 {
		capHint = 1 << 4
	}
	return &Files{
		Arena: NewArena[File](capHint),
	}
}

func (f *Files) New(span source.Span) FileID {
	return FileID(f.Arena.Allocate(File{Span: span}))
}

func (f *Files) Get(id FileID) *File {
	return f.Arena.Get(uint32(id))
}
