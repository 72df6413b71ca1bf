package meter

import (
	"errors"
	"fmt"
	"math"

	Mt "github.com/maroda/meter/types"
)

var (
	ErrTooFew     = errors.New("too few entries")
	ErrDecreasing = errors.New("invalid sequence")
	ErrNotFinite  = errors.New("position is not a finite number")
)

// MaxAnalyzeValues is how many values a batch analysis accepts after the threshold
const MaxAnalyzeValues = MaxPointCount - 1

// Analysis is a partial timeline classified offline.
// Everything in it describes what a session reaches by performing the
// boundaries: those the state table refuses are left out and kept in Refused.
type Analysis struct {
	Boundaries []float64 // accepted, with the implicit 0 of the first onset
	Refused    []float64 // boundaries after the session stopped taking them
	Cursor     Cursor
	Sounds     []*Sound
	Third      Zone  // where the third onset lands, ZoneNone without one
	State      State // the state a session reaches by performing the boundaries
	Snapshot   Mt.Snapshot
}

// Analyze classifies the boundaries after the first onset, which is always 0.
// With useCur the last value is the probe position instead of a boundary.
func Analyze(cfg Config, values []float64, useCur bool) (*Analysis, error) {
	switch {
	case len(values) == 0:
		return nil, ErrTooFew
	case len(values) > MaxAnalyzeValues:
		return nil, fmt.Errorf("%d values: %w", len(values), ErrTooMany)
	}
	prev := 0.0
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: %v", ErrNotFinite, v)
		}
		if v < prev {
			return nil, fmt.Errorf("%w: %v < %v", ErrDecreasing, v, prev)
		}
		prev = v
	}

	a := &Analysis{Cursor: NoCursor, Third: ZoneNone}
	bounds := append([]float64{0}, values...)
	if useCur {
		a.Cursor = At(bounds[len(bounds)-1])
		bounds = bounds[:len(bounds)-1]
	}
	table := NewStates(cfg.ZoneTable())
	d, err := replay(cfg, table, bounds, a.Cursor)
	if err != nil {
		return nil, err
	}
	a.State = d.State()
	a.Boundaries = d.Points()
	if n := len(a.Boundaries); n < len(bounds) {
		a.Refused = bounds[n:]
	}

	points, err := NewPoints(cfg.MaxLen, a.Boundaries...)
	if err != nil {
		return nil, err
	}
	if a.Sounds, a.Third, err = buildSounds(points, table.Zones, a.Cursor); err != nil {
		return nil, err
	}

	short := cfg.ShortLen
	if short <= 0 {
		short = DefaultShortSoundLen
	}
	// the replay's own cursor sits on the last boundary, a batch has none unless asked
	a.Snapshot = ComputeSnapshot(points, table, a.State, a.Cursor, short)
	return a, nil
}

// buildSounds lays the boundaries out as Sounds with their potentials and attributes
func buildSounds(p *Points, zones ZoneTable, cur Cursor) ([]*Sound, Zone, error) {
	third := ZoneNone
	n := p.Len()
	sounds := make([]*Sound, 0, 3)

	// each sound is performed up to its end, or to the cursor while still sounding
	perform := func(s *Sound, startIdx int) error {
		if err := s.Begin(p.At(startIdx)); err != nil {
			return err
		}
		switch {
		case p.Has(startIdx + 1):
			end := p.At(startIdx + 1)
			if err := s.Advance(end); err != nil {
				return err
			}
			return s.Finish(end)
		case cur.Valid:
			return s.Advance(cur.X)
		}
		return nil
	}
	// a projective potential grows until the next onset closes it
	project := func(s *Sound, nextIdx int) error {
		if !p.Has(nextIdx) {
			if cur.Valid && p.Has(nextIdx-1) {
				return s.Advance(cur.X)
			}
			return nil
		}
		next := p.At(nextIdx)
		if err := s.Advance(next); err != nil {
			return err
		}
		return s.FinishProjective(next)
	}

	for idx := Sound1Start; idx < n; idx += 2 {
		s := NewSound(p.MaxLen())
		if err := perform(s, idx); err != nil {
			return nil, third, err
		}
		sounds = append(sounds, s)
	}

	if len(sounds) > 0 {
		if err := project(sounds[0], Sound2Start); err != nil {
			return nil, third, err
		}
	}
	if len(sounds) > 1 {
		first, second := sounds[0], sounds[1]
		if first.HasProjectivePotential() {
			if err := second.AddProjectedPotential(p.At(Sound2Start) - p.At(Sound1Start)); err != nil {
				return nil, third, err
			}
		}
		if err := project(second, Sound3Start); err != nil {
			return nil, third, err
		}
	}
	if len(sounds) > 2 && p.Has(Sound2End) {
		second, s3 := sounds[1], sounds[2]
		third = zones.Classify(p, p.At(Sound2Start), p.At(Sound2End), p.At(Sound3Start))
		if third != ZoneIndeterminate {
			if err := s3.AddProjectedPotential(p.At(Sound3Start) - p.At(Sound2Start)); err != nil {
				return nil, third, err
			}
		}
		second.Projected.Realized = third != ZoneSeparate
		if err := markThird(second, s3, third); err != nil {
			return nil, third, err
		}
	}
	return sounds, third, nil
}

func markThird(second, third *Sound, z Zone) error {
	switch z {
	case ZoneAccel:
		return third.SetBefore(AttrAccel)
	case ZoneRall:
		return third.SetBefore(AttrRall)
	case ZoneRealized:
		return third.SetAround(AttrParens)
	case ZoneIndeterminate:
		return second.SetAfter(AttrHiatus)
	}
	return nil
}

// replay performs the boundaries through a Driver the way a user would
// and returns it in the state it reached
func replay(cfg Config, table *Table, bounds []float64, cur Cursor) (*Driver, error) {
	d := New(cfg, table, nil, nil)
	if err := d.HandleClick(0); err != nil {
		return nil, err
	}
	for _, b := range bounds[1:] {
		// the state after the third onset is final
		if d.points.Len() > Sound3Start {
			break
		}
		// a second move settles states that only react to being left
		for range 2 {
			if err := d.HandleMove(b); err != nil {
				return nil, err
			}
		}
		// stop where the session would restart or refuse the boundary
		guard := table.Entry(d.state).OnClick
		if guard == nil || guard(d.points, b) == Start {
			break
		}
		before := d.points.Len()
		if err := d.HandleClick(b); err != nil {
			return nil, err
		}
		if d.points.Len() == before {
			break
		}
	}
	if cur.Valid {
		if err := d.HandleMove(cur.X); err != nil {
			return nil, err
		}
	}
	return d, nil
}
