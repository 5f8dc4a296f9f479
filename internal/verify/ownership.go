package verify

import (
	"lien/internal/ast"
	"lien/internal/source"
)

// Ownership is the observable state of a binding at one program point.
type Ownership uint8

const (
	Owned Ownership = iota
	MovedOut
	SharedBorrowed
	MutablyBorrowed
)

func (o Ownership) String() string {
	switch o {
	case Owned:
		return "owned"
	case MovedOut:
		return "moved"
	case SharedBorrowed:
		return "shared-borrowed"
	case MutablyBorrowed:
		return "mutably-borrowed"
	}
	return "invalid"
}

// BindState is the working state of one binding. Moved-ness is explicit;
// borrowed-ness is derived from the active borrow sets. Active borrows are
// identified by their borrow expression, which is unique per borrow site
// and keys into the region analysis.
type BindState struct {
	Moved   bool
	MovedAt source.Span
	// Shared holds active shared borrows, sorted by expression ID so that
	// merges and reports stay deterministic.
	Shared []ast.ExprID
	Mut    ast.ExprID
}

// Ownership collapses the state to the four-valued lattice.
func (s BindState) Ownership() Ownership {
	switch {
	case s.Moved:
		return MovedOut
	case s.Mut.IsValid():
		return MutablyBorrowed
	case len(s.Shared) > 0:
		return SharedBorrowed
	default:
		return Owned
	}
}

// IssueKind enumerates reasons a borrow-related action fails.
type IssueKind uint8

const (
	IssueNone IssueKind = iota
	// IssueConflictShared: an active shared borrow blocks the action.
	IssueConflictShared
	// IssueConflictMut: an active mutable borrow blocks the action.
	IssueConflictMut
)

// Issue carries information about a blocked action and the borrow at fault.
type Issue struct {
	Kind   IssueKind
	Borrow ast.ExprID
}

// Blocked reports whether the action was refused.
func (i Issue) Blocked() bool { return i.Kind != IssueNone }

// CanBorrowShared checks the aliasing rule for a new shared borrow:
// any number of shared borrows may coexist, a mutable borrow may not.
func (s *BindState) CanBorrowShared() Issue {
	if s.Mut.IsValid() {
		return Issue{Kind: IssueConflictMut, Borrow: s.Mut}
	}
	return Issue{}
}

// CanBorrowMut checks the aliasing rule for a new mutable borrow: it must
// be the only live borrow of any kind.
func (s *BindState) CanBorrowMut() Issue {
	if len(s.Shared) > 0 {
		return Issue{Kind: IssueConflictShared, Borrow: s.Shared[0]}
	}
	if s.Mut.IsValid() {
		return Issue{Kind: IssueConflictMut, Borrow: s.Mut}
	}
	return Issue{}
}

// CanWrite checks whether the binding may be written through its own name.
func (s *BindState) CanWrite() Issue {
	if len(s.Shared) > 0 {
		return Issue{Kind: IssueConflictShared, Borrow: s.Shared[0]}
	}
	if s.Mut.IsValid() {
		return Issue{Kind: IssueConflictMut, Borrow: s.Mut}
	}
	return Issue{}
}

// CanMove checks whether the value may be moved out of the binding.
func (s *BindState) CanMove() Issue {
	return s.CanWrite()
}

// AddShared registers an active shared borrow, keeping the set sorted.
func (s *BindState) AddShared(borrow ast.ExprID) {
	for i, id := range s.Shared {
		if id == borrow {
			return
		}
		if borrow < id {
			s.Shared = append(s.Shared, 0)
			copy(s.Shared[i+1:], s.Shared[i:])
			s.Shared[i] = borrow
			return
		}
	}
	s.Shared = append(s.Shared, borrow)
}

// DropBorrow removes one active borrow; the binding returns to Owned when
// the last borrow ends.
func (s *BindState) DropBorrow(borrow ast.ExprID) {
	if s.Mut == borrow {
		s.Mut = ast.NoExprID
		return
	}
	for i, id := range s.Shared {
		if id == borrow {
			s.Shared = append(s.Shared[:i], s.Shared[i+1:]...)
			return
		}
	}
}

func (s BindState) clone() BindState {
	out := s
	if len(s.Shared) > 0 {
		out.Shared = append([]ast.ExprID(nil), s.Shared...)
	}
	return out
}

func (s BindState) equal(other BindState) bool {
	if s.Moved != other.Moved || s.Mut != other.Mut {
		return false
	}
	if s.Moved && s.MovedAt != other.MovedAt {
		return false
	}
	if len(s.Shared) != len(other.Shared) {
		return false
	}
	for i := range s.Shared {
		if s.Shared[i] != other.Shared[i] {
			return false
		}
	}
	return true
}
