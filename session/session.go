// Package session holds the editing state a visualizer keeps around the
// search engine: the grid, the endpoints, the current edit mode and the run
// in progress.
package session

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/pdrpinto/gridastar"
)

var (
	ErrRunActive       = errors.New("a search is running")
	ErrNoRun           = errors.New("no search is running")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionBusy     = errors.New("session already has a player attached")
)

// DefaultMaxCells caps the board size a session accepts.
const DefaultMaxCells = 1 << 16

// Mode is what a click on the grid does.
type Mode uint8

const (
	Idle Mode = iota
	Selecting
	Drawing
	Running
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Selecting:
		return "selecting"
	case Drawing:
		return "drawing"
	case Running:
		return "running"
	default:
		return fmt.Sprintf("Mode(%d)", m)
	}
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mode) UnmarshalText(text []byte) error {
	for _, mode := range []Mode{Idle, Selecting, Drawing, Running} {
		if mode.String() == string(text) {
			*m = mode
			return nil
		}
	}
	return fmt.Errorf("unknown mode %q", text)
}

// Session is one user's board. It is safe for concurrent use.
type Session struct {
	ID uuid.UUID

	mu      sync.Mutex
	grid    *gridastar.Grid
	mode    Mode
	erase   bool
	policy  gridastar.FrontierPolicy
	stepper *gridastar.Stepper
	result  gridastar.Result
	logger  *log.Entry

	maxCells int
	attached bool
}

// Option configures a Session.
type Option func(*Session)

// WithMaxCells caps the number of cells a board may have. Zero or less means
// no cap.
func WithMaxCells(n int) Option {
	return func(s *Session) { s.maxCells = n }
}

// New returns an idle session with an empty rows x cols grid.
func New(rows, cols int, policy gridastar.FrontierPolicy, opts ...Option) (*Session, error) {
	id := uuid.New()
	s := &Session{
		ID:       id,
		policy:   policy,
		logger:   log.WithField("session", id.String()),
		maxCells: DefaultMaxCells,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.maxCells > 0 && rows > 0 && cols > 0 && rows > s.maxCells/cols {
		return nil, fmt.Errorf("%w: grid %dx%d exceeds %d cells", gridastar.ErrInvalidInput, rows, cols, s.maxCells)
	}
	grid, err := gridastar.NewGrid(rows, cols)
	if err != nil {
		return nil, err
	}
	s.grid = grid
	return s, nil
}

// Attach claims the session for a single player.
func (s *Session) Attach() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attached {
		return ErrSessionBusy
	}
	s.attached = true
	s.logger.WithField("op", "attach").Debug("player attached")
	return nil
}

// Detach releases the claim taken by Attach.
func (s *Session) Detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attached = false
	s.logger.WithField("op", "detach").Debug("player detached")
}

// Mode returns the current edit mode.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Grid returns a copy of the board.
func (s *Session) Grid() *gridastar.Grid {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grid.Clone()
}

// Result returns the outcome of the last completed run.
func (s *Session) Result() gridastar.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Select starts placing endpoints: the next click sets the start, the one
// after sets the end. Existing endpoints are cleared.
func (s *Session) Select() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == Running {
		return ErrRunActive
	}
	s.grid.ClearSearch()
	s.grid.ClearEndpoints()
	s.mode = Selecting
	s.logger.WithField("op", "select").Debug("selecting endpoints")
	return nil
}

// Draw makes clicks place walls, or erase them when erase is set. Both
// endpoints must be placed first.
func (s *Session) Draw(erase bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == Running {
		return ErrRunActive
	}
	if err := s.requireEndpoints(); err != nil {
		return err
	}
	s.mode = Drawing
	s.erase = erase
	s.logger.WithFields(log.Fields{"op": "draw", "erase": erase}).Debug("drawing walls")
	return nil
}

// Click applies the current mode to c. Drawing over an endpoint is ignored.
func (s *Session) Click(c gridastar.Cell) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.grid.InBounds(c) {
		return fmt.Errorf("%w: click %s out of bounds", gridastar.ErrInvalidInput, c)
	}
	switch s.mode {
	case Selecting:
		if _, ok := s.grid.Start(); !ok {
			return s.grid.SetStart(c)
		}
		if start, _ := s.grid.Start(); start == c {
			return nil
		}
		if err := s.grid.SetEnd(c); err != nil {
			return err
		}
		s.mode = Idle
		return nil
	case Drawing:
		switch s.grid.State(c) {
		case gridastar.Start, gridastar.End:
			return nil
		}
		if s.erase {
			return s.grid.EraseWall(c)
		}
		return s.grid.SetWall(c)
	case Running:
		return ErrRunActive
	default:
		return nil
	}
}

// SetStart places the start cell directly.
func (s *Session) SetStart(c gridastar.Cell) error {
	return s.edit(func(g *gridastar.Grid) error { return g.SetStart(c) })
}

// SetEnd places the end cell directly.
func (s *Session) SetEnd(c gridastar.Cell) error {
	return s.edit(func(g *gridastar.Grid) error { return g.SetEnd(c) })
}

// SetWall walls c.
func (s *Session) SetWall(c gridastar.Cell) error {
	return s.edit(func(g *gridastar.Grid) error { return g.SetWall(c) })
}

// EraseWall clears a wall at c.
func (s *Session) EraseWall(c gridastar.Cell) error {
	return s.edit(func(g *gridastar.Grid) error { return g.EraseWall(c) })
}

// Randomize adds clustered random walls and returns how many were placed.
func (s *Session) Randomize(rng *rand.Rand, clusters, steps int, density float64) (int, error) {
	added := 0
	err := s.edit(func(g *gridastar.Grid) error {
		added = gridastar.GenerateWalls(g, rng, clusters, steps, density)
		return nil
	})
	return added, err
}

// Maze replaces the open part of the board with a maze and returns the
// number of walls.
func (s *Session) Maze(rng *rand.Rand) (int, error) {
	walls := 0
	err := s.edit(func(g *gridastar.Grid) error {
		walls = gridastar.GenerateMaze(g, rng)
		return nil
	})
	return walls, err
}

// LoadLayout replaces the board with one parsed from a text layout.
func (s *Session) LoadLayout(reader io.Reader) error {
	grid, err := gridastar.ParseLayoutLimited(reader, s.maxCells)
	if err != nil {
		return err
	}
	return s.edit(func(*gridastar.Grid) error {
		s.grid = grid
		s.mode = Idle
		return nil
	})
}

func (s *Session) edit(apply func(*gridastar.Grid) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == Running {
		return ErrRunActive
	}
	return apply(s.grid)
}

func (s *Session) requireEndpoints() error {
	if _, ok := s.grid.Start(); !ok {
		return fmt.Errorf("%w: start is not placed", gridastar.ErrInvalidInput)
	}
	if _, ok := s.grid.End(); !ok {
		return fmt.Errorf("%w: end is not placed", gridastar.ErrInvalidInput)
	}
	return nil
}

// Begin clears the previous run's tags and starts a search between the
// placed endpoints. Edits are rejected until the run completes or Reset.
func (s *Session) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == Running {
		return ErrRunActive
	}
	if err := s.requireEndpoints(); err != nil {
		return err
	}
	start, _ := s.grid.Start()
	end, _ := s.grid.End()

	s.grid.ClearSearch()
	stepper, err := gridastar.NewStepper(s.grid, start, end, gridastar.WithFrontierPolicy(s.policy))
	if err != nil {
		return err
	}
	s.stepper = stepper
	s.result = gridastar.Result{}
	s.mode = Running
	s.logger.WithFields(log.Fields{
		"op":     "begin",
		"start":  start.String(),
		"end":    end.String(),
		"policy": s.policy.String(),
	}).Info("search started")
	return nil
}

// Running reports whether a search is in progress.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode == Running
}

// Step advances the running search by one yield point. When the search
// completes the session returns to Idle.
func (s *Session) Step() (gridastar.StepSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != Running || s.stepper == nil {
		return gridastar.StepSnapshot{}, ErrNoRun
	}
	snapshot := s.stepper.Step()
	if snapshot.Done {
		s.result = s.stepper.Result()
		s.stepper = nil
		s.mode = Idle
		s.logger.WithFields(log.Fields{
			"op":         "complete",
			"outcome":    s.result.Outcome.String(),
			"expansions": s.result.Expansions,
			"cost":       s.result.Cost,
		}).Info("search completed")
	}
	return snapshot, nil
}

// Reset clears the board, the endpoints and any run in progress.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == Running {
		s.logger.WithField("op", "reset").Info("abandoning search")
	}
	s.grid.Reset()
	s.stepper = nil
	s.result = gridastar.Result{}
	s.mode = Idle
	s.erase = false
}
