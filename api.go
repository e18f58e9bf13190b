package gridastar

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidInput is wrapped by every error caused by a bad grid, start or end.
// It is returned before any search work starts.
var ErrInvalidInput = errors.New("invalid input")

// Outcome is the terminal result of a search.
type Outcome uint8

const (
	// Undecided is the outcome of a run that has not completed.
	Undecided Outcome = iota
	PathFound
	NoPathExists
)

func (o Outcome) String() string {
	switch o {
	case Undecided:
		return "undecided"
	case PathFound:
		return "path_found"
	case NoPathExists:
		return "no_path"
	default:
		return fmt.Sprintf("Outcome(%d)", o)
	}
}

func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *Outcome) UnmarshalText(text []byte) error {
	for _, outcome := range []Outcome{Undecided, PathFound, NoPathExists} {
		if outcome.String() == string(text) {
			*o = outcome
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", text)
}

// Result contains the outcome of a search
type Result struct {
	Outcome Outcome
	// Path runs from start to end, excluding start and including end.
	Path       []Cell
	Cost       int
	Expansions int
}

// Found reports whether a path was found.
func (r Result) Found() bool { return r.Outcome == PathFound }

// FrontierPolicy decides how an improved cell is queued.
type FrontierPolicy uint8

const (
	// LazyDuplicates queues a fresh entry on every improvement and discards
	// stale entries when they are extracted. The path is always optimal.
	LazyDuplicates FrontierPolicy = iota
	// MembershipCheck queues a cell only when the frontier holds no entry for
	// it, and a queued entry keeps the score it was queued with. The path
	// can be longer than optimal when a queued entry goes stale.
	MembershipCheck
)

func (p FrontierPolicy) String() string {
	switch p {
	case LazyDuplicates:
		return "lazy"
	case MembershipCheck:
		return "membership"
	default:
		return fmt.Sprintf("FrontierPolicy(%d)", p)
	}
}

// ParseFrontierPolicy accepts the names produced by FrontierPolicy.String.
func ParseFrontierPolicy(name string) (FrontierPolicy, error) {
	switch name {
	case "lazy":
		return LazyDuplicates, nil
	case "membership":
		return MembershipCheck, nil
	default:
		return 0, fmt.Errorf("unknown frontier policy %q", name)
	}
}

// Options defines parameters for the search.
type Options struct {
	Policy   FrontierPolicy
	Observer Observer
}

// Option is a function that modifies Options.
type Option func(*Options)

// WithFrontierPolicy selects how improved cells are queued.
func WithFrontierPolicy(policy FrontierPolicy) Option {
	return func(options *Options) { options.Policy = policy }
}

// WithObserver registers a callback invoked synchronously for every event.
func WithObserver(observer Observer) Option {
	return func(options *Options) { options.Observer = observer }
}

// Run executes the search to completion. Cancelling contextObject abandons the
// run at the next yield point; the grid keeps the tags applied so far.
func Run(
	contextObject context.Context,
	grid *Grid,
	start Cell,
	end Cell,
	options ...Option,
) (Result, error) {
	stepper, err := NewStepper(grid, start, end, options...)
	if err != nil {
		return Result{}, err
	}
	for !stepper.Done() {
		if err := contextObject.Err(); err != nil {
			return stepper.Result(), err
		}
		stepper.Step()
	}
	return stepper.Result(), nil
}

func validate(grid *Grid, start, end Cell) error {
	if grid == nil {
		return fmt.Errorf("%w: nil grid", ErrInvalidInput)
	}
	if !grid.InBounds(start) {
		return fmt.Errorf("%w: start %s out of bounds", ErrInvalidInput, start)
	}
	if !grid.InBounds(end) {
		return fmt.Errorf("%w: end %s out of bounds", ErrInvalidInput, end)
	}
	if start == end {
		return fmt.Errorf("%w: start and end are both %s", ErrInvalidInput, start)
	}
	if grid.State(start) == Wall {
		return fmt.Errorf("%w: start %s is a wall", ErrInvalidInput, start)
	}
	if grid.State(end) == Wall {
		return fmt.Errorf("%w: end %s is a wall", ErrInvalidInput, end)
	}
	return nil
}
