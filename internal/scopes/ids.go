package scopes

type (
	// ScopeID identifies a lexical frame in a Table.
	ScopeID uint32
	// BindingID identifies one declared binding. Shadowing creates a new
	// BindingID; the shadowed record stays alive for finalization.
	BindingID uint32
)

const (
	NoScopeID   ScopeID   = 0
	NoBindingID BindingID = 0
)

func (id ScopeID) IsValid() bool   { return id != NoScopeID }
func (id BindingID) IsValid() bool { return id != NoBindingID }
