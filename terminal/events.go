package terminal

import "sync"

// EventKind discriminates the notifications a session emits.
type EventKind int

const (
	// EventOutput signals that new output was processed into the screen.
	// It carries no payload; consumers re-query the grid.
	EventOutput EventKind = iota
	// EventBell is a BEL from the child.
	EventBell
	// EventTitle carries a window title change.
	EventTitle
	// EventExit carries the child's exit code. Emitted exactly once.
	EventExit
	// EventError carries a fatal pump error message. Emitted at most once.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventOutput:
		return "output"
	case EventBell:
		return "bell"
	case EventTitle:
		return "title"
	case EventExit:
		return "exit"
	case EventError:
		return "error"
	}
	return "unknown"
}

// Event is a single notification from a session. Only the field matching
// the kind is meaningful.
type Event struct {
	Kind     EventKind
	Title    string
	ExitCode int
	Message  string
}

// eventQueue collects events from the pump and parser callbacks until the
// consumer drains them. Push never blocks and never drops; drain is
// non-blocking and preserves arrival order.
type eventQueue struct {
	mu     sync.Mutex
	events []Event
}

func (q *eventQueue) push(ev Event) {
	q.mu.Lock()
	q.events = append(q.events, ev)
	q.mu.Unlock()
}

func (q *eventQueue) drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) == 0 {
		return nil
	}
	out := q.events
	q.events = nil
	return out
}
