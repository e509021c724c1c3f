package crawl

// State is the phase of a pagination walk.
type State int

const (
	// StateRunning means the walk holds a current page reference.
	StateRunning State = iota
	// StateDone means no further page exists.
	StateDone
)

func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "done"
}

// Walk is the pagination state machine. The only state threaded across
// iterations is the current page URL; Advance is the single transition.
// A step bound guards against a site whose next link loops back on itself.
type Walk struct {
	state    State
	current  string
	steps    int
	maxSteps int
}

// NewWalk starts a walk at start. maxSteps <= 0 disables the step bound.
// An empty start URL yields a walk that is already done.
func NewWalk(start string, maxSteps int) *Walk {
	w := &Walk{state: StateRunning, current: start, maxSteps: maxSteps}
	if start == "" {
		w.state = StateDone
		w.current = ""
	}
	return w
}

// State reports the walk's phase.
func (w *Walk) State() State { return w.state }

// Running reports whether a current page remains to be processed.
func (w *Walk) Running() bool { return w.state == StateRunning }

// Current returns the page reference to process next, or "" once done.
func (w *Walk) Current() string { return w.current }

// Steps returns how many pages have been consumed so far.
func (w *Walk) Steps() int { return w.steps }

// Advance consumes the current page and moves to next. An empty next, or
// reaching the step bound, transitions the walk to done.
func (w *Walk) Advance(next string) {
	if w.state == StateDone {
		return
	}
	w.steps++
	if next == "" || (w.maxSteps > 0 && w.steps >= w.maxSteps) {
		w.state = StateDone
		w.current = ""
		return
	}
	w.current = next
}
