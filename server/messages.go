package server

import (
	"github.com/pdrpinto/gridastar"
	"github.com/pdrpinto/gridastar/session"
)

// Client ops.
const (
	OpSelect    = "select"
	OpDraw      = "draw"
	OpClick     = "click"
	OpStart     = "start"
	OpEnd       = "end"
	OpWall      = "wall"
	OpErase     = "erase"
	OpRandomize = "randomize"
	OpMaze      = "maze"
	OpLayout    = "layout"
	OpRun       = "run"
	OpStep      = "step"
	OpSpeed     = "speed"
	OpReset     = "reset"
	OpGrid      = "grid"
)

// Server message types.
const (
	TypeGrid  = "grid"
	TypeEvent = "event"
	TypeError = "error"
)

// ClientMessage is one command read from the websocket.
type ClientMessage struct {
	Op  string `json:"op"`
	Row int    `json:"row"`
	Col int    `json:"col"`

	Erase    bool    `json:"erase,omitempty"`
	Layout   string  `json:"layout,omitempty"`
	DelayMs  int     `json:"delay_ms,omitempty"`
	Clusters int     `json:"clusters,omitempty"`
	Steps    int     `json:"steps,omitempty"`
	Density  float64 `json:"density,omitempty"`
	Seed     int64   `json:"seed,omitempty"`
}

func (m ClientMessage) cell() gridastar.Cell {
	return gridastar.Cell{Row: m.Row, Col: m.Col}
}

// ServerMessage is one update written to the websocket. Exactly one of
// Grid, Event and Error is set, matching Type.
type ServerMessage struct {
	Type  string     `json:"type"`
	Grid  *GridView  `json:"grid,omitempty"`
	Event *EventView `json:"event,omitempty"`
	Error string     `json:"error,omitempty"`
}

type CellView struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func viewCell(c gridastar.Cell) CellView { return CellView{Row: c.Row, Col: c.Col} }

func viewCells(cells []gridastar.Cell) []CellView {
	if cells == nil {
		return nil
	}
	views := make([]CellView, 0, len(cells))
	for _, c := range cells {
		views = append(views, viewCell(c))
	}
	return views
}

// GridView is the full board plus the last run's result.
type GridView struct {
	ID         string            `json:"id"`
	Rows       int               `json:"rows"`
	Cols       int               `json:"cols"`
	Mode       session.Mode      `json:"mode"`
	Cells      []string          `json:"cells"`
	Start      *CellView         `json:"start,omitempty"`
	End        *CellView         `json:"end,omitempty"`
	Outcome    gridastar.Outcome `json:"outcome"`
	Path       []CellView        `json:"path,omitempty"`
	Cost       int               `json:"cost"`
	Expansions int               `json:"expansions"`
}

func viewGrid(s *session.Session) *GridView {
	grid := s.Grid()
	result := s.Result()
	view := &GridView{
		ID:         s.ID.String(),
		Rows:       grid.Rows(),
		Cols:       grid.Cols(),
		Mode:       s.Mode(),
		Cells:      make([]string, 0, grid.Rows()),
		Outcome:    result.Outcome,
		Path:       viewCells(result.Path),
		Cost:       result.Cost,
		Expansions: result.Expansions,
	}
	for r := 0; r < grid.Rows(); r++ {
		row := make([]byte, grid.Cols())
		for c := range row {
			row[c] = grid.State(gridastar.Cell{Row: r, Col: c}).Glyph()
		}
		view.Cells = append(view.Cells, string(row))
	}
	if start, ok := grid.Start(); ok {
		v := viewCell(start)
		view.Start = &v
	}
	if end, ok := grid.End(); ok {
		v := viewCell(end)
		view.End = &v
	}
	return view
}

// EventView is one engine event as the renderer sees it.
type EventView struct {
	Kind     gridastar.EventKind `json:"kind"`
	Phase    gridastar.Phase     `json:"phase"`
	Row      int                 `json:"row"`
	Col      int                 `json:"col"`
	State    gridastar.CellState `json:"state,omitempty"`
	Step     int                 `json:"step,omitempty"`
	Frontier int                 `json:"frontier"`
	Outcome  gridastar.Outcome   `json:"outcome,omitempty"`
	Path     []CellView          `json:"path,omitempty"`
}

func viewEvent(e gridastar.Event, snapshot gridastar.StepSnapshot) *EventView {
	view := &EventView{
		Kind:     e.Kind,
		Phase:    snapshot.Phase,
		Row:      e.Cell.Row,
		Col:      e.Cell.Col,
		State:    e.State,
		Step:     e.Step,
		Frontier: e.Frontier,
		Outcome:  e.Outcome,
	}
	if e.Kind == gridastar.SearchCompleted {
		view.Frontier = snapshot.Frontier
		view.Path = viewCells(snapshot.Path)
	}
	return view
}

func gridMessage(s *session.Session) ServerMessage {
	return ServerMessage{Type: TypeGrid, Grid: viewGrid(s)}
}

func errorMessage(err error) ServerMessage {
	return ServerMessage{Type: TypeError, Error: err.Error()}
}
