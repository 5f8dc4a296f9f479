// Package driver runs whole-file verification: name resolution once, then
// per-function ownership checking fanned out to a bounded worker pool, with
// results merged back in declaration order.
package driver

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"lien/internal/ast"
	"lien/internal/diag"
	"lien/internal/scopes"
	"lien/internal/verify"
)

// Options configure a driver run.
type Options struct {
	// MaxDiagnostics caps each stage's diagnostics; 0 means unlimited.
	MaxDiagnostics int
	JoinPolicy     verify.JoinPolicy
	// Jobs bounds worker parallelism; 0 uses GOMAXPROCS.
	Jobs int
	// Cache short-circuits re-verification when Digest is non-zero.
	Cache  *Cache
	Digest Digest
}

// FnResult is the outcome of checking one function.
type FnResult struct {
	Fn   ast.FnID
	Name string
	Bag  *diag.Bag
}

// FileResult is the merged outcome for one file.
type FileResult struct {
	// Fns holds per-function results in declaration order. Empty on a
	// cache hit, where only the merged view is restored.
	Fns []FnResult
	// Merged holds resolution and function diagnostics, sorted.
	Merged    *diag.Bag
	Truncated bool
	FromCache bool
}

// VerifyFile checks every function of the file. Functions are independent
// once resolution has run, so they fan out on an errgroup; ctx cancels
// in-flight workers.
func VerifyFile(ctx context.Context, builder *ast.Builder, fileID ast.FileID, opts Options) (*FileResult, error) {
	var zero Digest
	cached := opts.Cache != nil && opts.Digest != zero
	if cached {
		var payload cachePayload
		hit, err := opts.Cache.get(opts.Digest, &payload)
		if err != nil {
			return nil, err
		}
		if hit && payload.Schema == cacheSchemaVersion {
			merged := diag.NewBag(0)
			for _, d := range payload.Diags {
				merged.Add(d)
			}
			return &FileResult{
				Merged:    merged,
				Truncated: payload.Truncated,
				FromCache: true,
			}, nil
		}
	}

	resolveBag := diag.NewBag(opts.MaxDiagnostics)
	res := scopes.ResolveFile(builder, fileID, scopes.ResolveOptions{
		Reporter: diag.BagReporter{Bag: resolveBag},
	})

	var fns []ast.FnID
	if file := builder.Files.Get(fileID); file != nil {
		fns = file.Fns
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Workers write to distinct indices, so no mutex guards results.
	results := make([]FnResult, len(fns))
	g, gctx := errgroup.WithContext(ctx)
	if len(fns) > 0 {
		g.SetLimit(min(jobs, len(fns)))
	}
	for i, fnID := range fns {
		i, fnID := i, fnID
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			bag := diag.NewBag(opts.MaxDiagnostics)
			verify.CheckFn(builder, fnID, &res, verify.Options{
				Reporter:       diag.BagReporter{Bag: bag},
				MaxDiagnostics: opts.MaxDiagnostics,
				JoinPolicy:     opts.JoinPolicy,
			})
			name := "_"
			if fn := builder.Fns.Get(fnID); fn != nil {
				name = builder.Name(fn.Name)
			}
			results[i] = FnResult{Fn: fnID, Name: name, Bag: bag}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := diag.NewBag(opts.MaxDiagnostics)
	merged.Merge(resolveBag)
	for i := range results {
		merged.Merge(results[i].Bag)
	}
	merged.Sort()

	out := &FileResult{
		Fns:       results,
		Merged:    merged,
		Truncated: opts.MaxDiagnostics > 0 && merged.Len() >= opts.MaxDiagnostics,
	}
	if cached {
		payload := cachePayload{
			Schema:    cacheSchemaVersion,
			Truncated: out.Truncated,
			Diags:     merged.Items(),
		}
		if err := opts.Cache.put(opts.Digest, &payload); err != nil {
			return nil, err
		}
	}
	return out, nil
}
