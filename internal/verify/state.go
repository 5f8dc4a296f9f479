package verify

import (
	"sort"

	"lien/internal/scopes"
)

// AbsState is the abstract ownership state of every live binding at one
// program point. A binding missing from the map has not been declared on
// the current path; a present zero-value entry is Owned.
type AbsState map[scopes.BindingID]BindState

func (s AbsState) clone() AbsState {
	out := make(AbsState, len(s))
	for bid, bs := range s {
		out[bid] = bs.clone()
	}
	return out
}

func (s AbsState) equal(other AbsState) bool {
	if len(s) != len(other) {
		return false
	}
	for bid, bs := range s {
		ob, ok := other[bid]
		if !ok || !bs.equal(ob) {
			return false
		}
	}
	return true
}

// sortedBindings returns the state's keys in ascending order so that merge
// and report iteration stays deterministic.
func (s AbsState) sortedBindings() []scopes.BindingID {
	ids := make([]scopes.BindingID, 0, len(s))
	for bid := range s {
		ids = append(ids, bid)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
