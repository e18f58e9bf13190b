package gridastar

import "fmt"

// EventKind identifies what an Event reports.
type EventKind uint8

const (
	// CellStateChanged reports a cell turning Visited or Path.
	CellStateChanged EventKind = iota + 1
	// NodeExpanded is emitted once per frontier expansion.
	NodeExpanded
	// SearchCompleted is the last event of a run.
	SearchCompleted
)

func (k EventKind) String() string {
	switch k {
	case CellStateChanged:
		return "cell_state_changed"
	case NodeExpanded:
		return "node_expanded"
	case SearchCompleted:
		return "search_completed"
	default:
		return fmt.Sprintf("EventKind(%d)", k)
	}
}

func (k EventKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *EventKind) UnmarshalText(text []byte) error {
	for _, kind := range []EventKind{CellStateChanged, NodeExpanded, SearchCompleted} {
		if kind.String() == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown event kind %q", text)
}

// Event is one state transition for a renderer. Only the fields relevant to
// Kind are set: Cell and State for CellStateChanged, Cell, Step and Frontier
// for NodeExpanded, Outcome for SearchCompleted.
type Event struct {
	Kind     EventKind
	Cell     Cell
	State    CellState
	Step     int
	Frontier int
	Outcome  Outcome
}

func (e Event) String() string {
	switch e.Kind {
	case CellStateChanged:
		return fmt.Sprintf("%s %s -> %s", e.Kind, e.Cell, e.State)
	case NodeExpanded:
		return fmt.Sprintf("%s #%d %s frontier=%d", e.Kind, e.Step, e.Cell, e.Frontier)
	case SearchCompleted:
		return fmt.Sprintf("%s %s", e.Kind, e.Outcome)
	default:
		return e.Kind.String()
	}
}

// Observer receives events synchronously, in order, as the engine emits them.
type Observer func(Event)

// Trace is a recorded, replayable event sequence.
type Trace []Event

// Record appends e. Pass it to WithObserver to capture a run.
func (t *Trace) Record(e Event) { *t = append(*t, e) }

// Replay feeds the recorded events to fn in order.
func (t Trace) Replay(fn Observer) {
	for _, e := range t {
		fn(e)
	}
}

// Apply replays the cell transitions onto g, leaving Start, End and Wall
// cells untouched.
func (t Trace) Apply(g *Grid) {
	for _, e := range t {
		if e.Kind == CellStateChanged && g.InBounds(e.Cell) {
			g.tag(g.index(e.Cell), e.State)
		}
	}
}

// Cells returns, in order, the cells that transitioned to state.
func (t Trace) Cells(state CellState) []Cell {
	cells := make([]Cell, 0)
	for _, e := range t {
		if e.Kind == CellStateChanged && e.State == state {
			cells = append(cells, e.Cell)
		}
	}
	return cells
}

// Outcome returns the terminal outcome, if the trace holds one.
func (t Trace) Outcome() (Outcome, bool) {
	for i := len(t) - 1; i >= 0; i-- {
		if t[i].Kind == SearchCompleted {
			return t[i].Outcome, true
		}
	}
	return 0, false
}
