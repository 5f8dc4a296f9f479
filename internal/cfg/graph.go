package cfg

import (
	"lien/internal/ast"
	"lien/internal/scopes"
)

// BlockID indexes Graph.Blocks.
type BlockID uint32

// EdgeKind classifies successor edges.
type EdgeKind uint8

const (
	// EdgeSeq is sequential fall-through.
	EdgeSeq EdgeKind = iota
	// EdgeTrue is the branch taken when the condition holds.
	EdgeTrue
	// EdgeFalse is the branch taken when the condition fails.
	EdgeFalse
	// EdgeBack returns to a loop header (loop-back or continue).
	EdgeBack
	// EdgeBreak jumps to the block after the loop.
	EdgeBreak
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeSeq:
		return "seq"
	case EdgeTrue:
		return "true"
	case EdgeFalse:
		return "false"
	case EdgeBack:
		return "back"
	case EdgeBreak:
		return "break"
	}
	return "invalid"
}

type Edge struct {
	Kind EdgeKind
	To   BlockID
}

// StepKind classifies entries inside a basic block.
type StepKind uint8

const (
	// StepStmt executes one statement. For if/while the step evaluates the
	// condition only; branching is carried by edges.
	StepStmt StepKind = iota
	// StepExitScope finalizes one frame: still-owned bindings drop in
	// reverse declaration order. Emitted explicitly, including on
	// break/continue/return paths.
	StepExitScope
)

// Step is one program point. Points are lexical ordinals assigned in tree
// order during construction; regions are intervals over them.
type Step struct {
	Kind  StepKind
	Stmt  ast.StmtID     // valid for StepStmt
	Scope scopes.ScopeID // valid for StepExitScope
	Point uint32
}

// Block is a basic block: a run of steps with successor edges.
type Block struct {
	Steps []Step
	Succs []Edge
}

// Graph is the control-flow graph of one function body.
type Graph struct {
	Blocks []Block
	Entry  BlockID
	Exit   BlockID
	// Points is the number of assigned point ordinals.
	Points uint32
}

// Preds computes the predecessor lists for every block.
func (g *Graph) Preds() [][]BlockID {
	preds := make([][]BlockID, len(g.Blocks))
	for from := range g.Blocks {
		for _, e := range g.Blocks[from].Succs {
			preds[e.To] = append(preds[e.To], BlockID(from))
		}
	}
	return preds
}

// RPO returns the blocks reachable from Entry in reverse postorder, the
// visit order that lets forward dataflow converge quickly.
func (g *Graph) RPO() []BlockID {
	seen := make([]bool, len(g.Blocks))
	order := make([]BlockID, 0, len(g.Blocks))
	var visit func(BlockID)
	visit = func(id BlockID) {
		if seen[id] {
			return
		}
		seen[id] = true
		for _, e := range g.Blocks[id].Succs {
			visit(e.To)
		}
		order = append(order, id)
	}
	visit(g.Entry)
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}
