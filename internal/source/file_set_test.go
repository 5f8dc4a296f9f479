package source

import "testing"

func TestFileSetResolve(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("test.ln", []byte("let a = 1;\nlet b = a;\n"))

	start, end := fs.Resolve(Span{File: id, Start: 11, End: 14})
	if start.Line != 2 || start.Col != 1 {
		t.Fatalf("expected 2:1, got %d:%d", start.Line, start.Col)
	}
	if end.Line != 2 || end.Col != 4 {
		t.Fatalf("expected 2:4, got %d:%d", end.Line, end.Col)
	}
}

func TestFileSetResolvePastFirstLine(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("three.ln", []byte("ab\ncd\nef\n"))

	// The newline at offset 2 still belongs to line 1.
	nl, _ := fs.Resolve(Span{File: id, Start: 2, End: 2})
	if nl.Line != 1 || nl.Col != 3 {
		t.Fatalf("expected 1:3, got %d:%d", nl.Line, nl.Col)
	}
	// The byte right after it opens line 2.
	after, _ := fs.Resolve(Span{File: id, Start: 3, End: 3})
	if after.Line != 2 || after.Col != 1 {
		t.Fatalf("expected 2:1, got %d:%d", after.Line, after.Col)
	}
	third, _ := fs.Resolve(Span{File: id, Start: 7, End: 7})
	if third.Line != 3 || third.Col != 2 {
		t.Fatalf("expected 3:2, got %d:%d", third.Line, third.Col)
	}
}

func TestFileSetResolveSingleLine(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("one.ln", []byte("let x = 1;"))
	start, _ := fs.Resolve(Span{File: id, Start: 4, End: 5})
	if start.Line != 1 || start.Col != 5 {
		t.Fatalf("expected 1:5, got %d:%d", start.Line, start.Col)
	}
}

func TestFileSetLatestWins(t *testing.T) {
	fs := NewFileSet()
	first := fs.AddVirtual("dup.ln", []byte("a"))
	second := fs.AddVirtual("dup.ln", []byte("b"))
	if first == second {
		t.Fatalf("repeated path must get a fresh ID")
	}
	got, ok := fs.GetLatest("dup.ln")
	if !ok || got != second {
		t.Fatalf("expected latest ID %d, got %d (ok=%v)", second, got, ok)
	}
	if fs.Len() != 2 {
		t.Fatalf("expected 2 files, got %d", fs.Len())
	}
}

func TestFileSetVirtualFlag(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("v.ln", []byte("x"))
	if fs.Get(id).Flags&FileVirtual == 0 {
		t.Fatalf("virtual file must carry FileVirtual flag")
	}
}
