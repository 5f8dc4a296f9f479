package ast

// ValueKind classifies how a value transfers on assignment and calls.
// The classification is an input fact attached to the tree; the verifier
// performs no type inference of its own.
type ValueKind uint8

const (
	// ValueCopy values are duplicated on assignment; the source stays owned.
	ValueCopy ValueKind = iota
	// ValueMove values transfer ownership; the source becomes moved-out.
	ValueMove
)

func (k ValueKind) String() string {
	switch k {
	case ValueCopy:
		return "copy"
	case ValueMove:
		return "move"
	}
	return "invalid"
}
