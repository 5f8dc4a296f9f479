// Package verify implements the ownership and borrow checks: a forward
// abstract interpretation of each function's control-flow graph tracking
// every binding through Owned, MovedOut and the borrowed states, with the
// many-shared-xor-one-mutable aliasing rule enforced at borrow sites.
package verify

import (
	"lien/internal/ast"
	"lien/internal/cfg"
	"lien/internal/diag"
	"lien/internal/region"
	"lien/internal/scopes"
)

// Options configure a verification run.
type Options struct {
	// Reporter receives diagnostics. Findings are deduplicated before they
	// reach it, so fixed-point re-visits of loop bodies report once.
	Reporter diag.Reporter
	// MaxDiagnostics caps emission; 0 means unlimited. When the cap is hit
	// the run stops early and Result.Truncated is set.
	MaxDiagnostics int
	// JoinPolicy selects the merge behavior at control-flow joins.
	JoinPolicy JoinPolicy
	// Scopes supplies a precomputed resolution; when nil the file is
	// resolved first with the same reporter.
	Scopes *scopes.Result
}

// Result carries the per-function artifacts of a verification run for
// callers that want to inspect graphs or regions after checking.
type Result struct {
	Scopes  *scopes.Result
	Graphs  map[ast.FnID]*cfg.Graph
	Regions map[ast.FnID]*region.Analysis
	// Truncated is set when the diagnostic cap stopped the run early.
	Truncated bool
}

// CheckFile verifies every function of the file in declaration order:
// resolution, graph construction, region analysis, then the ownership flow
// pass.
func CheckFile(builder *ast.Builder, fileID ast.FileID, opts Options) Result {
	limit := diag.NewLimitReporter(opts.Reporter, opts.MaxDiagnostics)
	reporter := diag.NewDedupReporter(limit)

	result := Result{
		Graphs:  make(map[ast.FnID]*cfg.Graph),
		Regions: make(map[ast.FnID]*region.Analysis),
	}
	if builder == nil || !fileID.IsValid() {
		return result
	}

	var res scopes.Result
	if opts.Scopes != nil {
		res = *opts.Scopes
	} else {
		res = scopes.ResolveFile(builder, fileID, scopes.ResolveOptions{Reporter: reporter})
	}
	result.Scopes = &res

	file := builder.Files.Get(fileID)
	if file == nil {
		return result
	}
	for _, fnID := range file.Fns {
		if limit.Exhausted() {
			break
		}
		g, a := checkOne(builder, fnID, &res, reporter, limit, opts.JoinPolicy)
		result.Graphs[fnID] = g
		result.Regions[fnID] = a
	}
	result.Truncated = limit.Exhausted()
	return result
}

// CheckFn verifies one function against a precomputed resolution. The
// driver uses this to fan functions out to workers, each with its own
// reporter.
func CheckFn(builder *ast.Builder, fnID ast.FnID, res *scopes.Result, opts Options) (*cfg.Graph, *region.Analysis) {
	limit := diag.NewLimitReporter(opts.Reporter, opts.MaxDiagnostics)
	reporter := diag.NewDedupReporter(limit)
	return checkOne(builder, fnID, res, reporter, limit, opts.JoinPolicy)
}

func checkOne(builder *ast.Builder, fnID ast.FnID, res *scopes.Result, reporter diag.Reporter, limit *diag.LimitReporter, policy JoinPolicy) (*cfg.Graph, *region.Analysis) {
	g := cfg.Build(builder, fnID, res)
	a := region.Analyze(builder, fnID, res, g, reporter)
	c := &checker{
		builder:  builder,
		res:      res,
		g:        g,
		regions:  a,
		reporter: reporter,
		limit:    limit,
		policy:   policy,
		fn:       builder.Fns.Get(fnID),
	}
	c.run()
	return g, a
}
