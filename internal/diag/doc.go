// Package diag defines the diagnostic model shared by all verifier passes.
//
// Passes never return Go errors for findings in the analyzed program; they
// emit structured diagnostics through a Reporter. The canonical sink is Bag,
// which callers sort and render. Reporters compose: DedupReporter suppresses
// repeats produced by fixed-point re-iteration, LimitReporter implements the
// bounded-effort mode where analysis stops after the first N findings.
//
// A program with zero error diagnostics is accepted; anything else is a
// rejection. Diagnostics are never corrected or recovered automatically.
package diag
