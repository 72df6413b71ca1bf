package meter

import (
	"errors"
	"fmt"
)

// Named boundary indices. Odd indices end a sound, even ones begin one.
const (
	Sound1Start = iota
	Sound1End
	Sound2Start
	Sound2End
	Sound3Start
	Sound3End

	MaxPointCount
)

// Zone factors, as multiples of the second onset
const (
	AccelFactor    = 1.75
	ExactFactor    = 2.0
	RallFactor     = 2.25
	NewProjFactor  = 2.5
	minPointCount  = 0
	firstPointOnly = 1
)

var (
	ErrCapacity  = errors.New("all points already defined")
	ErrTooMany   = errors.New("too many points")
	ErrUnderflow = errors.New("no points to remove")
)

// Projection is the drawing mode of a projective potential
type Projection int

const (
	ProjOff Projection = iota
	ProjCurrent
	ProjOn
	ProjWeak
)

func (p Projection) String() string {
	switch p {
	case ProjCurrent:
		return "current"
	case ProjOn:
		return "on"
	case ProjWeak:
		return "weak"
	default:
		return "off"
	}
}

// Cursor is the live probe position, if there is one
type Cursor struct {
	X     float64
	Valid bool
}

// NoCursor is used where no probe position is known
var NoCursor = Cursor{}

// At returns a valid Cursor at x
func At(x float64) Cursor {
	return Cursor{X: x, Valid: true}
}

// Points holds the boundaries laid down so far and answers
// every determinacy question the state table asks of them.
type Points struct {
	maxLen float64
	pts    []float64
}

// NewPoints builds a Points judged against maxLen.
// The first boundary, if given, is always stored as 0.
func NewPoints(maxLen float64, initial ...float64) (*Points, error) {
	if len(initial) > MaxPointCount {
		return nil, fmt.Errorf("%d points: %w", len(initial), ErrTooMany)
	}
	pts := make([]float64, len(initial), MaxPointCount)
	copy(pts, initial)
	if len(pts) > minPointCount {
		pts[Sound1Start] = 0
	}
	return &Points{maxLen: maxLen, pts: pts}, nil
}

// MaxLen is the longest mensurally determinate duration
func (p *Points) MaxLen() float64 { return p.maxLen }

// Len is the number of boundaries laid down
func (p *Points) Len() int { return len(p.pts) }

// Has reports whether boundary i exists
func (p *Points) Has(i int) bool { return i >= 0 && i < len(p.pts) }

// At returns boundary i, which must exist
func (p *Points) At(i int) float64 { return p.pts[i] }

// Values returns a copy of the boundaries
func (p *Points) Values() []float64 {
	out := make([]float64, len(p.pts))
	copy(out, p.pts)
	return out
}

// Clone returns an independent copy
func (p *Points) Clone() *Points {
	c := &Points{maxLen: p.maxLen, pts: make([]float64, len(p.pts), MaxPointCount)}
	copy(c.pts, p.pts)
	return c
}

// Clear drops every boundary
func (p *Points) Clear() { p.pts = p.pts[:0] }

// Push appends a boundary. The very first one is pinned to 0.
func (p *Points) Push(pos float64) error {
	if len(p.pts) >= MaxPointCount {
		return fmt.Errorf("push %v: %w", pos, ErrCapacity)
	}
	if len(p.pts) == minPointCount {
		pos = 0
	}
	p.pts = append(p.pts, pos)
	return nil
}

// Pop removes and returns the last boundary
func (p *Points) Pop() (float64, error) {
	if len(p.pts) == 0 {
		return 0, ErrUnderflow
	}
	last := p.pts[len(p.pts)-1]
	p.pts = p.pts[:len(p.pts)-1]
	return last, nil
}

// IsDeterminate: a duration from first to second is positive and no longer than maxLen
func (p *Points) IsDeterminate(first, second float64) bool {
	return first < second && second-first <= p.maxLen
}

// IsWeakDeterminate is the upper range of mensural determinacy
func (p *Points) IsWeakDeterminate(first, second float64) bool {
	return p.IsDeterminate(first, second) && second > WeakFactor*first
}

// IsAccel checks to see if the third onset is earlier than projected
func (p *Points) IsAccel(first, second, end float64) bool {
	return p.IsDeterminate(first, end) && end > second && end < AccelFactor*first
}

// IsRealized checks to see if the third onset is close to the projected duration
func (p *Points) IsRealized(start, end float64) bool {
	return p.IsDeterminate(start, end) && end > AccelFactor*start && end < ExactFactor*start
}

// IsExact checks to see if the third onset is exactly as projected
func (p *Points) IsExact(start, end float64) bool {
	return p.IsDeterminate(start, end) && end == ExactFactor*start
}

func (p *Points) IsSlightlyLate(start, end float64) bool {
	return p.IsDeterminate(start, end) && end > ExactFactor*start && end < NewProjFactor*start
}

func (p *Points) IsSlightlyLateNewProjection(start, end float64) bool {
	return p.IsDeterminate(start, end) && end >= NewProjFactor*start
}

func (p *Points) IsTooLate(start, end float64) bool {
	return !p.IsDeterminate(start, end)
}

func (p *Points) InFirstSound() bool { return len(p.pts) == firstPointOnly }
func (p *Points) InSecondSound() bool { return len(p.pts) == Sound2Start+1 }

// FirstProjection is the drawing mode of the first sound's projective potential.
// While the second onset is pending it follows the cursor.
func (p *Points) FirstProjection(cur Cursor) Projection {
	switch n := len(p.pts); {
	case n == 0:
		return ProjOff
	case n <= Sound2Start:
		if cur.Valid && p.IsDeterminate(p.pts[Sound1Start], cur.X) {
			return ProjCurrent
		}
		return ProjOff
	default:
		if p.IsDeterminate(p.pts[Sound1Start], p.pts[Sound2Start]) {
			return ProjOn
		}
		return ProjOff
	}
}

// SecondProjection is the drawing mode of the second sound's projective potential.
// Once the second sound has ended, a missing cursor counts as on.
func (p *Points) SecondProjection(cur Cursor) Projection {
	n := len(p.pts)
	if n < Sound2Start+1 || n > Sound2End+1 {
		return ProjOff
	}
	s2 := p.pts[Sound2Start]
	if n == Sound2Start+1 {
		switch {
		case !cur.Valid:
			return ProjOff
		case p.IsWeakDeterminate(s2, cur.X):
			return ProjWeak
		case p.IsDeterminate(s2, cur.X):
			return ProjOn
		default:
			return ProjOff
		}
	}
	e2 := p.pts[Sound2End]
	switch {
	case !p.IsDeterminate(s2, e2):
		return ProjOff
	case !cur.Valid || cur.X < e2:
		return ProjOn
	case p.IsDeterminate(s2, cur.X):
		return ProjOn
	default:
		return ProjOff
	}
}
