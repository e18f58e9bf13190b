package server

import (
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/pdrpinto/gridastar"
)

// Pacer spaces out the steps of a running search. Search steps wait the
// step delay and path steps the path delay, scaled by the same factor.
// A new step delay is eased in over the ramp rather than applied at once.
type Pacer struct {
	baseStep time.Duration
	path     time.Duration
	ramp     time.Duration

	stepMs   float32
	targetMs float32
	tween    *gween.Tween
}

func NewPacer(step, path, ramp time.Duration) *Pacer {
	return &Pacer{
		baseStep: step,
		path:     path,
		ramp:     ramp,
		stepMs:   milliseconds(step),
		targetMs: milliseconds(step),
	}
}

// rampSteps bounds how many steps a speed change takes to settle.
const rampSteps = 64

func milliseconds(d time.Duration) float32 {
	return float32(d) / float32(time.Millisecond)
}

// SetStepDelay starts easing the search step delay towards d.
func (p *Pacer) SetStepDelay(d time.Duration) {
	if d < 0 {
		d = 0
	}
	p.targetMs = milliseconds(d)
	if p.ramp <= 0 {
		p.stepMs = p.targetMs
		p.tween = nil
		return
	}
	p.tween = gween.New(p.stepMs, p.targetMs, float32(p.ramp.Seconds()), ease.OutQuad)
}

// StepDelay is the current search step delay.
func (p *Pacer) StepDelay() time.Duration {
	return time.Duration(p.stepMs * float32(time.Millisecond))
}

// Settled reports whether no speed change is still being eased in.
func (p *Pacer) Settled() bool { return p.tween == nil }

// Next returns how long to wait before the next step of phase and moves
// any speed ramp forward by that wait.
func (p *Pacer) Next(phase gridastar.Phase) time.Duration {
	delay := p.StepDelay()
	if phase == gridastar.Tracing {
		delay = p.path
		if p.baseStep > 0 {
			delay = time.Duration(float64(p.path) * float64(p.stepMs) / float64(milliseconds(p.baseStep)))
		}
	}
	p.advance(delay)
	return delay
}

func (p *Pacer) advance(elapsed time.Duration) {
	if p.tween == nil {
		return
	}
	// short waits still move the ramp, so it ends within rampSteps steps
	if floor := max(p.ramp/rampSteps, time.Microsecond); elapsed < floor {
		elapsed = floor
	}
	current, finished := p.tween.Update(float32(elapsed.Seconds()))
	if finished {
		p.stepMs = p.targetMs
		p.tween = nil
		return
	}
	// never move away from the target
	if p.targetMs < p.stepMs {
		p.stepMs = max(min(p.stepMs, current), p.targetMs)
	} else {
		p.stepMs = min(max(p.stepMs, current), p.targetMs)
	}
}
