package source

import "testing"

func TestInternerReturnsStableIDs(t *testing.T) {
	in := NewInterner()
	a := in.Intern("alpha")
	b := in.Intern("beta")
	if a == b {
		t.Fatalf("distinct strings got the same ID")
	}
	if again := in.Intern("alpha"); again != a {
		t.Fatalf("expected stable ID %d, got %d", a, again)
	}
	if s := in.MustLookup(a); s != "alpha" {
		t.Fatalf("expected alpha, got %q", s)
	}
}

func TestInternerNoStringID(t *testing.T) {
	in := NewInterner()
	if id := in.Intern(""); id != NoStringID {
		t.Fatalf("empty string must map to NoStringID, got %d", id)
	}
	if in.Len() != 1 {
		t.Fatalf("fresh interner must hold exactly the empty string")
	}
	s, ok := in.Lookup(NoStringID)
	if !ok || s != "" {
		t.Fatalf("NoStringID must resolve to empty string")
	}
}

func TestInternerLookupInvalid(t *testing.T) {
	in := NewInterner()
	if _, ok := in.Lookup(StringID(42)); ok {
		t.Fatalf("lookup of unknown ID must fail")
	}
}
