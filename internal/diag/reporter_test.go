package diag

import (
	"testing"

	"lien/internal/source"
)

func TestDedupReporterSuppressesRepeats(t *testing.T) {
	bag := NewBag(0)
	rep := NewDedupReporter(BagReporter{Bag: bag})
	sp := source.Span{File: 1, Start: 4, End: 5}

	rep.Report(CheckUseAfterMove, SevError, sp, "use of moved value 'x'", nil)
	rep.Report(CheckUseAfterMove, SevError, sp, "use of moved value 'x'", nil)
	rep.Report(CheckUseAfterMove, SevError, sp, "use of moved value 'y'", nil)

	if bag.Len() != 2 {
		t.Fatalf("expected 2 unique diagnostics, got %d", bag.Len())
	}
}

func TestLimitReporterStopsAtCap(t *testing.T) {
	bag := NewBag(0)
	rep := NewLimitReporter(BagReporter{Bag: bag}, 2)
	for i := 0; i < 5; i++ {
		rep.Report(CheckBorrowConflict, SevError, source.Span{Start: uint32(i)}, "conflict", nil)
	}
	if bag.Len() != 2 {
		t.Fatalf("expected 2 forwarded diagnostics, got %d", bag.Len())
	}
	if !rep.Exhausted() {
		t.Fatalf("reporter must be exhausted")
	}
	if rep.Count() != 2 {
		t.Fatalf("expected count 2, got %d", rep.Count())
	}
}

func TestLimitReporterUnlimited(t *testing.T) {
	bag := NewBag(0)
	rep := NewLimitReporter(BagReporter{Bag: bag}, 0)
	for i := 0; i < 10; i++ {
		rep.Report(CheckUseAfterMove, SevError, source.Span{Start: uint32(i)}, "m", nil)
	}
	if rep.Exhausted() {
		t.Fatalf("zero cap means unlimited")
	}
	if bag.Len() != 10 {
		t.Fatalf("expected 10 diagnostics, got %d", bag.Len())
	}
}

func TestReportBuilderEmitsOnce(t *testing.T) {
	bag := NewBag(0)
	b := ReportError(BagReporter{Bag: bag}, CheckDanglingRef, source.Span{Start: 1, End: 2}, "dangling").
		WithNote(source.Span{Start: 0, End: 1}, "value declared here")
	b.Emit()
	b.Emit()
	if bag.Len() != 1 {
		t.Fatalf("expected a single emission, got %d", bag.Len())
	}
	if len(bag.Items()[0].Notes) != 1 {
		t.Fatalf("expected the note to be carried")
	}
}
