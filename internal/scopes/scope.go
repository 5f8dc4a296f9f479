package scopes

import (
	"lien/internal/ast"
	"lien/internal/source"
)

// ScopeKind enumerates supported scope categories.
type ScopeKind uint8

const (
	ScopeInvalid ScopeKind = iota
	// ScopeFunction is a function body frame; parameters live here.
	ScopeFunction
	// ScopeBlock is a lexical block frame.
	ScopeBlock
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeFunction:
		return "function"
	case ScopeBlock:
		return "block"
	default:
		return "invalid"
	}
}

// Scope models one lexical frame. Bindings holds declaration order, which
// finalization reverses on exit.
type Scope struct {
	Kind     ScopeKind
	Parent   ScopeID
	Depth    uint32 // function frame = 1
	Owner    ast.StmtID
	Bindings []BindingID
}

// Binding is the ownership record for one declared name.
type Binding struct {
	Name  source.StringID
	Kind  ast.ValueKind
	Mut   bool
	Scope ScopeID
	Depth uint32
	Decl  ast.StmtID  // declaring let, NoStmtID for parameters
	Param ast.ParamID // declaring parameter, NoParamID for lets
	Span  source.Span // name span, for diagnostics
}

// RefTarget classifies a binding that holds a reference.
type RefTarget struct {
	Target BindingID
	Mut    bool
	Expr   ast.ExprID // the borrow expression that produced the reference
}
