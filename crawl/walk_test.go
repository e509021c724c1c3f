package crawl

import "testing"

func TestWalkLinearTermination(t *testing.T) {
	w := NewWalk("http://example.test/page-1.html", 0)

	if !w.Running() {
		t.Fatalf("new walk should be running")
	}
	if got := w.Current(); got != "http://example.test/page-1.html" {
		t.Fatalf("current=%q", got)
	}

	w.Advance("http://example.test/page-2.html")
	if !w.Running() || w.Current() != "http://example.test/page-2.html" {
		t.Fatalf("walk should follow next reference, state=%v current=%q", w.State(), w.Current())
	}

	w.Advance("")
	if w.State() != StateDone {
		t.Fatalf("walk should be done after empty next, state=%v", w.State())
	}
	if w.Current() != "" {
		t.Fatalf("done walk should hold no current reference, got %q", w.Current())
	}
	if w.Steps() != 2 {
		t.Fatalf("steps=%d, want 2", w.Steps())
	}
}

func TestWalkEmptyStartIsDone(t *testing.T) {
	w := NewWalk("", 10)
	if w.Running() {
		t.Fatalf("walk with no start URL should already be done")
	}
}

func TestWalkStepBoundBreaksCycle(t *testing.T) {
	// a site that loops its next link back on itself must still terminate
	w := NewWalk("http://example.test/page-1.html", 5)

	steps := 0
	for w.Running() {
		w.Advance("http://example.test/page-1.html")
		steps++
		if steps > 100 {
			t.Fatalf("walk did not terminate under a next-link cycle")
		}
	}
	if steps != 5 {
		t.Fatalf("steps=%d, want bound of 5", steps)
	}
}

func TestWalkAdvanceAfterDoneIsNoOp(t *testing.T) {
	w := NewWalk("http://example.test/", 0)
	w.Advance("")
	w.Advance("http://example.test/page-2.html")

	if w.State() != StateDone || w.Current() != "" || w.Steps() != 1 {
		t.Fatalf("done walk must ignore Advance, state=%v current=%q steps=%d",
			w.State(), w.Current(), w.Steps())
	}
}

func TestStateString(t *testing.T) {
	if StateRunning.String() != "running" || StateDone.String() != "done" {
		t.Fatalf("unexpected state strings: %q %q", StateRunning, StateDone)
	}
}
