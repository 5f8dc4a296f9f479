package scopes

import (
	"fmt"

	"fortio.org/safecast"

	"lien/internal/ast"
	"lien/internal/source"
)

// Table is the scope table: a stack of lexical frames over arena-backed
// scope and binding records. Frames pushed during the resolution walk stay
// allocated afterwards so later passes can query them by ID.
type Table struct {
	scopes   *ast.Arena[Scope]
	bindings *ast.Arena[Binding]
	stack    []ScopeID
	// visible keeps a small per-name stack; the top entry is the innermost
	// visible binding, entries below it are shadowed.
	visible map[source.StringID][]BindingID
}

func NewTable() *Table {
	return &Table{
		scopes:   ast.NewArena[Scope](1 << 6),
		bindings: ast.NewArena[Binding](1 << 7),
		visible:  make(map[source.StringID][]BindingID),
	}
}

// EnterScope pushes a new frame and returns its ID.
func (t *Table) EnterScope(kind ScopeKind, owner ast.StmtID) ScopeID {
	parent := t.Current()
	depth, err := safecast.Conv[uint32](len(t.stack) + 1)
	if err != nil {
		panic(fmt.Errorf("scope depth overflow: %w", err))
	}
	id := ScopeID(t.scopes.Allocate(Scope{
		Kind:   kind,
		Parent: parent,
		Depth:  depth,
		Owner:  owner,
	}))
	t.stack = append(t.stack, id)
	return id
}

// Declare binds name to a fresh record in the current frame, shadowing any
// visible binding of the same name for the remainder of the frame. Returns
// the new binding and the binding it shadows, if any.
func (t *Table) Declare(name source.StringID, kind ast.ValueKind, mut bool, decl ast.StmtID, param ast.ParamID, span source.Span) (BindingID, BindingID) {
	cur := t.Current()
	if !cur.IsValid() {
		return NoBindingID, NoBindingID
	}
	scope := t.scopes.Get(uint32(cur))
	id := BindingID(t.bindings.Allocate(Binding{
		Name:  name,
		Kind:  kind,
		Mut:   mut,
		Scope: cur,
		Depth: scope.Depth,
		Decl:  decl,
		Param: param,
		Span:  span,
	}))
	scope.Bindings = append(scope.Bindings, id)

	var shadowed BindingID
	if prev := t.visible[name]; len(prev) > 0 {
		shadowed = prev[len(prev)-1]
	}
	t.visible[name] = append(t.visible[name], id)
	return id, shadowed
}

// Resolve returns the innermost visible binding for name.
func (t *Table) Resolve(name source.StringID) (BindingID, bool) {
	stack := t.visible[name]
	if len(stack) == 0 {
		return NoBindingID, false
	}
	return stack[len(stack)-1], true
}

// ExitScope pops the current frame and returns its bindings in reverse
// declaration order: the deterministic finalization order, since
// later-declared values may reference earlier ones.
func (t *Table) ExitScope() []BindingID {
	cur := t.Current()
	if !cur.IsValid() {
		return nil
	}
	t.stack = t.stack[:len(t.stack)-1]
	scope := t.scopes.Get(uint32(cur))

	out := make([]BindingID, 0, len(scope.Bindings))
	for i := len(scope.Bindings) - 1; i >= 0; i-- {
		id := scope.Bindings[i]
		out = append(out, id)
		name := t.bindings.Get(uint32(id)).Name
		stack := t.visible[name]
		if len(stack) > 0 && stack[len(stack)-1] == id {
			if len(stack) == 1 {
				delete(t.visible, name)
			} else {
				t.visible[name] = stack[:len(stack)-1]
			}
		}
	}
	return out
}

// Current returns the innermost open frame.
func (t *Table) Current() ScopeID {
	if len(t.stack) == 0 {
		return NoScopeID
	}
	return t.stack[len(t.stack)-1]
}

// Depth reports the number of open frames.
func (t *Table) Depth() int {
	return len(t.stack)
}

// Scope returns the frame record for the given ID.
func (t *Table) Scope(id ScopeID) *Scope {
	return t.scopes.Get(uint32(id))
}

// Binding returns the binding record for the given ID.
func (t *Table) Binding(id BindingID) *Binding {
	return t.bindings.Get(uint32(id))
}

// Bindings returns the number of allocated bindings.
func (t *Table) Bindings() uint32 {
	return t.bindings.Len()
}
