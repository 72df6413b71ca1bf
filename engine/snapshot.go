package meter

import (
	Mt "github.com/maroda/meter/types"
)

// DefaultShortSoundLen is how long a third sound lasts when nothing else defines its end
const DefaultShortSoundLen = 4

// snap collects drawing state while a Snapshot is computed
type snap struct {
	Mt.Snapshot
}

func (s *snap) point(pos float64, sound string, end bool) {
	l := s.Lines[sound]
	if end {
		e := pos
		l.End = &e
	} else {
		l.Start = pos
	}
	s.Lines[sound] = l
}

func (s *snap) duration(start, end float64, sound string) {
	s.point(start, sound, false)
	s.point(end, sound, true)
}

func (s *snap) projection(start, end float64, sound, kind string) {
	if s.Projs[sound] == nil {
		s.Projs[sound] = make(map[string]Mt.Interval)
	}
	s.Projs[sound][kind] = Mt.Interval{Start: start, End: end}
}

func marker(pos float64) *float64 { return &pos }

// ComputeSnapshot derives everything a renderer needs from the boundaries,
// the current state and the probe position. It never mutates p.
func ComputeSnapshot(p *Points, t *Table, state State, cur Cursor, shortLen float64) Mt.Snapshot {
	e := t.Entry(state)
	s := &snap{Mt.Snapshot{
		State:   state.String(),
		Points:  p.Values(),
		Lines:   make(map[string]Mt.Line),
		Projs:   make(map[string]map[string]Mt.Interval),
		Comment: e.Comment,
		Message: e.Message,
	}}
	if cur.Valid {
		s.Cursor = marker(cur.X)
	}

	if !p.Has(Sound1Start) {
		return s.Snapshot
	}

	// First sound, and its projection while the second onset is pending
	s1 := p.At(Sound1Start)
	s.point(s1, Mt.SoundFirst, false)
	if cur.Valid && cur.X != s1 && p.InFirstSound() {
		s.duration(s1, cur.X, Mt.SoundFirst)
	}

	switch p.FirstProjection(cur) {
	case ProjOn:
		end := p.At(Sound2Start)
		s.projection(s1, end, Mt.SoundFirst, Mt.ProjNormal)
		s.projection(end, end+(end-s1), Mt.SoundFirst, Mt.ProjExpected)
	case ProjCurrent:
		// never shorter than the sound already laid down
		if p.Has(Sound1End) && cur.X < p.At(Sound1End) {
			s.projection(s1, p.At(Sound1End), Mt.SoundFirst, Mt.ProjNormal)
		} else {
			s.projection(s1, cur.X, Mt.SoundFirst, Mt.ProjNormal)
		}
	}

	if !p.Has(Sound1End) {
		return s.Snapshot
	}
	s.duration(s1, p.At(Sound1End), Mt.SoundFirst)

	// Second sound
	if !p.Has(Sound2Start) {
		return s.Snapshot
	}
	s2 := p.At(Sound2Start)
	s.point(s2, Mt.SoundSecond, false)
	if cur.Valid && cur.X > s2 && p.InSecondSound() {
		s.duration(s2, cur.X, Mt.SoundSecond)
	}

	switch p.SecondProjection(cur) {
	case ProjOn:
		end := cur.X
		if p.Has(Sound2End) && (!cur.Valid || cur.X < p.At(Sound2End)) {
			end = p.At(Sound2End)
		}
		s.projection(s2, end, Mt.SoundSecond, Mt.ProjNormal)
	case ProjWeak:
		s.projection(s2, cur.X, Mt.SoundSecond, Mt.ProjWeak)
	}

	if !p.Has(Sound2End) {
		return s.Snapshot
	}
	e2 := p.At(Sound2End)
	s.duration(s2, e2, Mt.SoundSecond)

	// The third sound has no dynamic part, its end comes with its start
	if !p.Has(Sound3Start) {
		return s.Snapshot
	}
	s3 := p.At(Sound3Start)
	zone := t.Zones.Classify(p, s2, e2, s3)
	e3 := ThirdSoundEnd(p, zone, shortLen)
	s.duration(s3, e3, Mt.SoundThird)
	length := e3 - s3

	switch zone {
	case ZoneAccel:
		s.Accel = marker(s3)
	case ZoneRealized:
		switch state {
		case Sound3StartsRealized:
			s.projection(s3, e3, Mt.SoundThird, Mt.ProjExpected)
			s.Parens = marker(s3)
		case Sound3StartsAltInterpretation:
			s.Accent = marker(s3)
			s.projection(s3, e3+length, Mt.SoundThird, Mt.ProjNormal)
		}
	case ZoneRall:
		s.Decel = marker(s3)
	case ZoneSeparate:
		s.projection(s3, e3, Mt.SoundThird, Mt.ProjNormal)
	case ZoneIndeterminate:
		s.Hiatus = marker(s3)
		s.projection(s3, e3+length, Mt.SoundThird, Mt.ProjNormal)
	}

	return s.Snapshot
}

// ThirdSoundEnd is the end of the third sound: the recorded boundary if there is one,
// the projected end for early or realized onsets, otherwise a short sound.
func ThirdSoundEnd(p *Points, zone Zone, shortLen float64) float64 {
	if p.Has(Sound3End) {
		return p.At(Sound3End)
	}
	s3 := p.At(Sound3Start)
	projected := ExactFactor * p.At(Sound2Start)
	if (zone == ZoneAccel || zone == ZoneRealized) && projected > s3 {
		return projected
	}
	return s3 + shortLen
}
