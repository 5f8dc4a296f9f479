package verify

import (
	"lien/internal/diag"
)

// JoinPolicy selects how disagreeing ownership states merge where control
// flow joins.
type JoinPolicy uint8

const (
	// JoinMoveWins folds Owned-vs-MovedOut into MovedOut silently; later
	// uses on the merged path surface as use-after-move.
	JoinMoveWins JoinPolicy = iota
	// JoinError reports the disagreement at the join itself, then still
	// merges conservatively toward MovedOut.
	JoinError
)

func (p JoinPolicy) String() string {
	switch p {
	case JoinMoveWins:
		return "move-wins"
	case JoinError:
		return "error"
	}
	return "invalid"
}

// merge folds next into acc in place. Both maps describe the same join
// point, so the conservative direction is always toward MovedOut and toward
// the union of active borrows. report enables JoinConflict diagnostics for
// the JoinError policy; it is set once the accumulator already holds a real
// predecessor, so a disagreement on any later edge still surfaces.
func (c *checker) merge(acc, next AbsState, report bool) {
	for _, bid := range next.sortedBindings() {
		nb := next[bid]
		ab, ok := acc[bid]
		if !ok {
			acc[bid] = nb.clone()
			continue
		}
		if ab.Moved != nb.Moved {
			if report && c.policy == JoinError {
				moved := ab
				if !moved.Moved {
					moved = nb
				}
				binding := c.res.Table.Binding(bid)
				name := c.builder.Name(binding.Name)
				diag.ReportError(c.reporter, diag.CheckJoinConflict, moved.MovedAt,
					"'"+name+"' is moved on one path but still owned on another").
					WithNote(binding.Span, "'"+name+"' is declared here").
					Emit()
			}
			if nb.Moved {
				ab.Moved = true
				ab.MovedAt = nb.MovedAt
			}
		}
		for _, borrow := range nb.Shared {
			ab.AddShared(borrow)
		}
		if nb.Mut.IsValid() {
			if !ab.Mut.IsValid() || nb.Mut < ab.Mut {
				ab.Mut = nb.Mut
			}
		}
		acc[bid] = ab
	}
}
