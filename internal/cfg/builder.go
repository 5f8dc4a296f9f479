package cfg

import (
	"lien/internal/ast"
	"lien/internal/scopes"
)

// Build lowers one function body into a control-flow graph. The resolution
// result supplies the frames that scope-exit steps finalize.
func Build(builder *ast.Builder, fnID ast.FnID, res *scopes.Result) *Graph {
	g := &Graph{}
	b := &graphBuilder{
		builder: builder,
		res:     res,
		g:       g,
	}
	g.Entry = b.newBlock()
	g.Exit = b.newBlock()
	b.cur = g.Entry

	fn := builder.Fns.Get(fnID)
	if fn == nil {
		b.edge(g.Entry, EdgeSeq, g.Exit)
		return g
	}
	fnScope := res.FnScope[fnID]
	b.scopeStack = append(b.scopeStack, fnScope)

	if data, ok := builder.Stmts.Block(fn.Body); ok {
		for _, child := range data.Stmts {
			b.lowerStmt(child)
			if b.terminated {
				break
			}
		}
	}
	if !b.terminated {
		b.addExit(fnScope)
		b.edge(b.cur, EdgeSeq, g.Exit)
	}
	return g
}

type loopCtx struct {
	header     BlockID
	after      BlockID
	scopeDepth int // open frames outside the loop body
}

type graphBuilder struct {
	builder    *ast.Builder
	res        *scopes.Result
	g          *Graph
	cur        BlockID
	scopeStack []scopes.ScopeID
	loops      []loopCtx
	terminated bool
}

func (b *graphBuilder) newBlock() BlockID {
	b.g.Blocks = append(b.g.Blocks, Block{})
	return BlockID(len(b.g.Blocks) - 1)
}

func (b *graphBuilder) edge(from BlockID, kind EdgeKind, to BlockID) {
	b.g.Blocks[from].Succs = append(b.g.Blocks[from].Succs, Edge{Kind: kind, To: to})
}

func (b *graphBuilder) nextPoint() uint32 {
	p := b.g.Points
	b.g.Points++
	return p
}

func (b *graphBuilder) addStmt(id ast.StmtID) {
	b.g.Blocks[b.cur].Steps = append(b.g.Blocks[b.cur].Steps, Step{
		Kind:  StepStmt,
		Stmt:  id,
		Point: b.nextPoint(),
	})
}

func (b *graphBuilder) addExit(scope scopes.ScopeID) {
	b.g.Blocks[b.cur].Steps = append(b.g.Blocks[b.cur].Steps, Step{
		Kind:  StepExitScope,
		Scope: scope,
		Point: b.nextPoint(),
	})
}

// unwindTo emits exit steps for every frame above depth, innermost first.
func (b *graphBuilder) unwindTo(depth int) {
	for i := len(b.scopeStack) - 1; i >= depth; i-- {
		b.addExit(b.scopeStack[i])
	}
}

func (b *graphBuilder) lowerStmt(id ast.StmtID) {
	stmt := b.builder.Stmts.Get(id)
	if stmt == nil {
		return
	}
	switch stmt.Kind {
	case ast.StmtLet, ast.StmtAssign, ast.StmtExpr:
		b.addStmt(id)
	case ast.StmtBlock:
		b.lowerBlock(id)
	case ast.StmtIf:
		b.lowerIf(id)
	case ast.StmtWhile:
		b.lowerWhile(id)
	case ast.StmtReturn:
		b.addStmt(id)
		b.unwindTo(0)
		b.edge(b.cur, EdgeSeq, b.g.Exit)
		b.terminated = true
	case ast.StmtBreak:
		if len(b.loops) == 0 {
			return
		}
		loop := b.loops[len(b.loops)-1]
		b.unwindTo(loop.scopeDepth)
		b.edge(b.cur, EdgeBreak, loop.after)
		b.terminated = true
	case ast.StmtContinue:
		if len(b.loops) == 0 {
			return
		}
		loop := b.loops[len(b.loops)-1]
		b.unwindTo(loop.scopeDepth)
		b.edge(b.cur, EdgeBack, loop.header)
		b.terminated = true
	}
}

func (b *graphBuilder) lowerBlock(id ast.StmtID) {
	data, ok := b.builder.Stmts.Block(id)
	if !ok {
		return
	}
	scope := b.res.BlockScope[id]
	b.scopeStack = append(b.scopeStack, scope)
	for _, child := range data.Stmts {
		b.lowerStmt(child)
		if b.terminated {
			break
		}
	}
	if !b.terminated {
		b.addExit(scope)
	}
	b.scopeStack = b.scopeStack[:len(b.scopeStack)-1]
}

func (b *graphBuilder) lowerIf(id ast.StmtID) {
	data, ok := b.builder.Stmts.If(id)
	if !ok {
		return
	}
	// The step evaluates the condition; successors carry the branch.
	b.addStmt(id)
	condBlock := b.cur

	join := b.newBlock()

	thenBlock := b.newBlock()
	b.edge(condBlock, EdgeTrue, thenBlock)
	b.cur = thenBlock
	b.terminated = false
	b.lowerStmt(data.Then)
	if !b.terminated {
		b.edge(b.cur, EdgeSeq, join)
	}
	thenTerminated := b.terminated

	elseTerminated := false
	if data.Else.IsValid() {
		elseBlock := b.newBlock()
		b.edge(condBlock, EdgeFalse, elseBlock)
		b.cur = elseBlock
		b.terminated = false
		b.lowerStmt(data.Else)
		if !b.terminated {
			b.edge(b.cur, EdgeSeq, join)
		}
		elseTerminated = b.terminated
	} else {
		b.edge(condBlock, EdgeFalse, join)
	}

	b.cur = join
	b.terminated = thenTerminated && elseTerminated
}

func (b *graphBuilder) lowerWhile(id ast.StmtID) {
	data, ok := b.builder.Stmts.While(id)
	if !ok {
		return
	}
	header := b.newBlock()
	b.edge(b.cur, EdgeSeq, header)
	b.cur = header
	// Condition evaluation lives in the header and re-runs per iteration.
	b.addStmt(id)

	after := b.newBlock()
	body := b.newBlock()
	b.edge(header, EdgeTrue, body)
	if data.Cond.IsValid() {
		b.edge(header, EdgeFalse, after)
	}

	b.loops = append(b.loops, loopCtx{
		header:     header,
		after:      after,
		scopeDepth: len(b.scopeStack),
	})
	b.cur = body
	b.terminated = false
	b.lowerStmt(data.Body)
	if !b.terminated {
		b.edge(b.cur, EdgeBack, header)
	}
	b.loops = b.loops[:len(b.loops)-1]

	b.cur = after
	b.terminated = false
}
