package meter

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyStarted = errors.New("duration already started")
	ErrNotStarted     = errors.New("duration has no start")
	ErrNoCursor       = errors.New("duration has no current position")
	ErrComplete       = errors.New("duration is complete")
	ErrEndBeforeStart = errors.New("end is before start")
)

// WeakFactor marks the upper range of mensural determinacy:
// an endpoint past WeakFactor * start is only weakly determinate.
const WeakFactor = 2

// Phase is how much of a Duration is known.
// Fields accumulate in order and are never retracted.
type Phase int

const (
	Unset    Phase = iota // nothing known
	Started               // start
	Running               // start, cur
	Complete              // start, cur, end
)

func (p Phase) String() string {
	switch p {
	case Unset:
		return "unset"
	case Started:
		return "started"
	case Running:
		return "running"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// Duration is something that lasts: a Sound, or a potential tied to one.
// It is a value; Begin, Advance and Finish return the next value.
type Duration struct {
	maxLen float64
	phase  Phase
	start  float64
	cur    float64
	end    float64
}

// NewDuration returns an empty Duration judged against maxLen
func NewDuration(maxLen float64) Duration {
	return Duration{maxLen: maxLen}
}

// Begin sets the start. It can only happen once.
func (d Duration) Begin(start float64) (Duration, error) {
	if d.phase != Unset {
		return d, fmt.Errorf("begin at %v: %w", start, ErrAlreadyStarted)
	}
	d.start = start
	d.phase = Started
	return d, nil
}

// Advance moves the current position. cur may sit before start,
// the predicates treat that as indeterminate.
func (d Duration) Advance(cur float64) (Duration, error) {
	switch d.phase {
	case Unset:
		return d, fmt.Errorf("advance to %v: %w", cur, ErrNotStarted)
	case Complete:
		return d, fmt.Errorf("advance to %v: %w", cur, ErrComplete)
	}
	d.cur = cur
	d.phase = Running
	return d, nil
}

// Finish closes the Duration at end, which also becomes cur
func (d Duration) Finish(end float64) (Duration, error) {
	switch d.phase {
	case Unset:
		return d, fmt.Errorf("finish at %v: %w", end, ErrNotStarted)
	case Started:
		return d, fmt.Errorf("finish at %v: %w", end, ErrNoCursor)
	case Complete:
		return d, fmt.Errorf("finish at %v: %w", end, ErrComplete)
	}
	if end < d.start {
		return d, fmt.Errorf("finish at %v, start %v: %w", end, d.start, ErrEndBeforeStart)
	}
	d.cur = end
	d.end = end
	d.phase = Complete
	return d, nil
}

func (d Duration) Phase() Phase { return d.phase }
func (d Duration) MaxLen() float64 { return d.maxLen }
func (d Duration) IsDefined() bool { return d.phase >= Running }
func (d Duration) IsComplete() bool { return d.phase == Complete }
func (d Duration) Start() (float64, bool) { return d.start, d.phase >= Started }
func (d Duration) Cur() (float64, bool) { return d.cur, d.phase >= Running }
func (d Duration) End() (float64, bool) { return d.end, d.phase == Complete }

// endpoint is end when complete, otherwise cur
func (d Duration) endpoint() (float64, bool) {
	if d.phase == Complete {
		return d.end, true
	}
	return d.cur, d.phase == Running
}

// IsMensurallyDeterminate reports whether start to endpoint is positive
// and no longer than maxLen. A zero length is not determinate.
func (d Duration) IsMensurallyDeterminate() bool {
	ep, ok := d.endpoint()
	if !ok {
		return false
	}
	return d.start < ep && ep-d.start <= d.maxLen
}

// IsWeaklyMensurallyDeterminate is the upper range of determinacy
func (d Duration) IsWeaklyMensurallyDeterminate() bool {
	ep, _ := d.endpoint()
	return d.IsMensurallyDeterminate() && ep > WeakFactor*d.start
}

// ProjectivePotential is the span following an onset that another Sound can reproduce
type ProjectivePotential struct {
	Duration
}

// ProjectedPotential is a fixed window, the expected reproduction of a prior duration.
// Realized can flip any number of times, independent of completeness.
type ProjectedPotential struct {
	Duration
	Realized bool
}

// Sound is a perceived duration with its potentials and attributes
type Sound struct {
	Duration
	Projective ProjectivePotential
	Projected  ProjectedPotential
	before     Attribute
	around     Attribute
	after      Attribute
}

// NewSound returns an empty Sound judged against maxLen
func NewSound(maxLen float64) *Sound {
	return &Sound{
		Duration:   NewDuration(maxLen),
		Projective: ProjectivePotential{NewDuration(maxLen)},
		Projected:  ProjectedPotential{Duration: NewDuration(maxLen), Realized: true},
	}
}

// Begin starts the Sound and its projective potential together
func (s *Sound) Begin(start float64) error {
	d, err := s.Duration.Begin(start)
	if err != nil {
		return err
	}
	pp, err := s.Projective.Duration.Begin(start)
	if err != nil {
		return err
	}
	s.Duration, s.Projective.Duration = d, pp
	return nil
}

// Advance moves the Sound if it is still sounding,
// and always moves its projective potential.
func (s *Sound) Advance(cur float64) error {
	d := s.Duration
	if !d.IsComplete() {
		var err error
		if d, err = d.Advance(cur); err != nil {
			return err
		}
	}
	pp, err := s.Projective.Duration.Advance(cur)
	if err != nil {
		return err
	}
	s.Duration, s.Projective.Duration = d, pp
	return nil
}

// Finish ends the Sound. The projective potential keeps growing past it.
func (s *Sound) Finish(end float64) error {
	d, err := s.Duration.Finish(end)
	if err != nil {
		return err
	}
	s.Duration = d
	return nil
}

// FinishProjective closes the projective potential, usually at the next onset
func (s *Sound) FinishProjective(end float64) error {
	pp, err := s.Projective.Duration.Finish(end)
	if err != nil {
		return err
	}
	s.Projective.Duration = pp
	return nil
}

// AddProjectedPotential fills the projected potential in one stroke,
// from the Sound's start for length dur.
func (s *Sound) AddProjectedPotential(dur float64) error {
	start, ok := s.Duration.Start()
	if !ok {
		return fmt.Errorf("projected potential: %w", ErrNotStarted)
	}
	end := start + dur
	p, err := s.Projected.Duration.Begin(start)
	if err != nil {
		return err
	}
	if p, err = p.Advance(end); err != nil {
		return err
	}
	if p, err = p.Finish(end); err != nil {
		return err
	}
	s.Projected.Duration = p
	return nil
}

func (s *Sound) HasProjectedPotential() bool { return s.Projected.IsComplete() }
func (s *Sound) HasProjectivePotential() bool { return s.Projective.IsMensurallyDeterminate() }

func (s *Sound) Before() Attribute { return s.before }
func (s *Sound) Around() Attribute { return s.around }
func (s *Sound) After() Attribute { return s.after }

func (s *Sound) SetBefore(a Attribute) error { return setSlot(&s.before, a, "before") }
func (s *Sound) SetAround(a Attribute) error { return setSlot(&s.around, a, "around") }
func (s *Sound) SetAfter(a Attribute) error { return setSlot(&s.after, a, "after") }
