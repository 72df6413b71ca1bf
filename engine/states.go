package meter

import "fmt"

// State names one interpretation the session can be in.
// The set is closed; iteration order is declaration order.
type State int

const (
	Start State = iota

	Sound1Starts
	Sound1Continues
	Sound1ContinuesTooLong
	Sound1Ends
	Sound1EndsTooLong

	Pause1
	Pause1Negative
	Pause1TooLong

	Sound2Starts
	Sound2StartsTooLong
	Sound2Continues
	Sound2ContinuesNegative
	Sound2ContinuesWithoutProjection
	Sound2ContinuesTooLong
	Sound2Ends
	Sound2EndsWithoutProjection
	Sound2EndsTooLong

	Pause2
	Pause2Negative
	Pause2TooLong

	Sound3StartsAccel
	Sound3StartsExactly
	Sound3StartsTooLate
	Sound3StartsRealized
	Sound3StartsAltInterpretation
	Sound3StartsSlightlyLate
	Sound3StartsSlightlyLateNewProjection

	NumStates
)

// NoState marks an absent back target
const NoState State = -1

var stateNames = [NumStates]string{
	"start",
	"sound1Starts",
	"sound1Continues",
	"sound1ContinuesTooLong",
	"sound1Ends",
	"sound1EndsTooLong",
	"pause1",
	"pause1Negative",
	"pause1TooLong",
	"sound2Starts",
	"sound2StartsTooLong",
	"sound2Continues",
	"sound2ContinuesNegative",
	"sound2ContinuesWithoutProjection",
	"sound2ContinuesTooLong",
	"sound2Ends",
	"sound2EndsWithoutProjection",
	"sound2EndsTooLong",
	"pause2",
	"pause2Negative",
	"pause2TooLong",
	"sound3StartsAccel",
	"sound3StartsExactly",
	"sound3StartsTooLate",
	"sound3StartsRealized",
	"sound3StartsAltInterpretation",
	"sound3StartsSlightlyLate",
	"sound3StartsSlightlyLateNewProjection",
}

func (s State) String() string {
	if s < 0 || s >= NumStates {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Valid reports whether s is one of the declared states
func (s State) Valid() bool { return s >= 0 && s < NumStates }

// ParseState looks a state up by its name
func ParseState(name string) (State, error) {
	for i, n := range stateNames {
		if n == name {
			return State(i), nil
		}
	}
	return NoState, fmt.Errorf("unknown state %q", name)
}

// Guard picks the next state from the boundaries so far and the event position.
// Guards are pure, they never touch Points.
type Guard func(p *Points, x float64) State

// Entry is one row of the state table
type Entry struct {
	Name              State
	Comment           string // interpretation of the current state
	Message           string // what to do next
	OnMove            Guard
	OnClick           Guard
	SkipPointCreation bool
	Next              []State // declared successors, for graph export
	Back              State   // where one step back lands, NoState if it can't
}

// Table is the complete state machine, indexed by State
type Table struct {
	Zones   ZoneTable
	entries [NumStates]Entry
}

// Entry returns the row for s
func (t *Table) Entry(s State) *Entry {
	return &t.entries[s]
}

// States lists every state in iteration order
func (t *Table) States() []State {
	out := make([]State, NumStates)
	for i := range out {
		out[i] = State(i)
	}
	return out
}

// NewStates builds the state machine. Third onsets in pause2 are
// dispatched through zones; nil means the standard table.
func NewStates(zones ZoneTable) *Table {
	if zones == nil {
		zones = StandardZones{}
	}
	t := &Table{Zones: zones}

	// an undeclared Back is the zero State, nothing steps back into start
	set := func(e Entry) {
		if e.Back == Start {
			e.Back = NoState
		}
		t.entries[e.Name] = e
	}

	// The starting state of the program.
	set(Entry{
		Name: Start,
		Comment: "This demonstrates the concepts in Chapter 7 of Christopher " +
			"Hasty's 'Meter as Rhythm'. Imagine time 0 as an instant that " +
			"is a potential beginning of a sound, yet prior to and " +
			"independent of it.",
		Message: "You may perform graphically up to three successive sounds by " +
			"clicking and moving. The first click sets the beginning of the sound " +
			"at time 0. Click but don't move.",
		OnClick: always(Sound1Starts),
		Next:    []State{Sound1Starts},
	})

	//
	// Sound 1
	//

	set(Entry{
		Name: Sound1Starts,
		Comment: "The first sound begins, but time 0 will not be a beginning " +
			"until it is past.",
		Message: "Perform the first sound by moving to the right.",
		OnMove:  always(Sound1Continues),
		Next:    []State{Sound1Continues},
	})

	set(Entry{
		Name: Sound1Continues,
		Comment: "The first sound is becoming. Time 0 becomes its beginning. " +
			"'Projective potential'--the potential of a duration to be " +
			"reproduced by a successive duration--accumulates, as indicated " +
			"by the solid arc.",
		Message: "End the first sound by clicking.",
		OnMove: func(p *Points, x float64) State {
			s := p.At(Sound1Start)
			if s < x && !p.IsDeterminate(s, x) {
				return Sound1ContinuesTooLong
			}
			return Sound1Continues
		},
		OnClick: endSound1(Sound1Continues, Sound1Ends),
		Next:    []State{Sound1Continues, Sound1ContinuesTooLong, Sound1Ends},
	})

	set(Entry{
		Name: Sound1ContinuesTooLong,
		Comment: "The first sound's duration is so long that it is 'mensurally " +
			"indeterminate'--it has lost its projective potential to be " +
			"reproduced.",
		Message: "To make the first sound's duration determinate, move back to " +
			"the left. Or click to end the sound.",
		OnMove: func(p *Points, x float64) State {
			if !p.IsDeterminate(p.At(Sound1Start), x) {
				return Sound1ContinuesTooLong
			}
			return Sound1Continues
		},
		OnClick: endSound1(Sound1ContinuesTooLong, Sound1EndsTooLong),
		Next:    []State{Sound1Continues, Sound1ContinuesTooLong, Sound1EndsTooLong},
	})

	set(Entry{
		Name: Sound1Ends,
		Comment: "The first sound ends. Its duration is 'mensurally determinate' " +
			"because it has the potential for being precisely reproduced.",
		Message: "To begin the second sound, click.",
		OnMove:  pause1Move,
		Next:    []State{Pause1, Pause1Negative, Pause1TooLong},
	})

	set(Entry{
		Name: Sound1EndsTooLong,
		Comment: "The first sound ends; it is too long to have projective " +
			"potential.",
		Message: "Restart to try again.",
		OnClick: always(Start),
		Next:    []State{Start},
		Back:    Sound1ContinuesTooLong,
	})

	//
	// Pause 1
	//

	set(Entry{
		Name: Pause1,
		Comment: "There is a pause between the first two sounds. Its duration is " +
			"relatively indeterminate, if our attention is focused on the " +
			"beginning of sounds. The growing line indicates that the " +
			"duration of the first sound *plus* the following silence " +
			"itself has the 'projective potential' to be reproduced.",
		Message: "Click to begin the second sound.",
		OnMove:  pause1Move,
		OnClick: func(p *Points, x float64) State {
			if x < p.At(Sound1End) {
				return Pause1
			}
			if !p.IsDeterminate(p.At(Sound1Start), x) {
				return Sound2StartsTooLong
			}
			return Sound2Starts
		},
		Next: []State{Pause1, Pause1Negative, Pause1TooLong, Sound2Starts, Sound2StartsTooLong},
	})

	set(Entry{
		Name:    Pause1Negative,
		Comment: "",
		Message: "Click at the end of the first sound or later.",
		OnMove:  pause1Move,
		Next:    []State{Pause1, Pause1Negative, Pause1TooLong},
	})

	set(Entry{
		Name: Pause1TooLong,
		Comment: "The time since the beginning of the first sound is mensurally " +
			"indeterminate, having no projective potential to be reproduced.",
		Message: "Click to begin the second sound (earlier if you want a " +
			"projection).",
		OnMove:  pause1Move,
		OnClick: always(Sound2StartsTooLong),
		Next:    []State{Pause1, Pause1Negative, Pause1TooLong, Sound2StartsTooLong},
	})

	//
	// Sound 2
	//

	set(Entry{
		Name: Sound2Starts,
		Comment: "This beginning of the second sound 'realizes' the projective " +
			"potential of the duration begun by the first event's attack. " +
			"The new line represents this projective potential. The " +
			"event now beginning has the potential to reproduce this past " +
			"duration. The new projection, extending for this duration into the " +
			"future, symbolizes this 'projected potential'.",
		Message: "Perform the second sound by moving to the right.",
		OnMove:  sound2Move,
		Next: []State{Sound2Continues, Sound2ContinuesNegative,
			Sound2ContinuesWithoutProjection, Sound2ContinuesTooLong},
	})

	set(Entry{
		Name: Sound2StartsTooLong,
		Comment: "The second sound begins. It is so long since the beginning of " +
			"the first event that the interonset duration is mensurally " +
			"indeterminate--it has no potential to be reproduced--so there " +
			"is no projection.",
		Message: "Restart to try again.",
		OnClick: always(Start),
		Next:    []State{Pause1, Start},
		Back:    Pause1,
	})

	set(Entry{
		Name: Sound2Continues,
		Comment: "The accumulating duration of the second sound is realizing the " +
			"expected projected potential of the first interonset duration. " +
			"Simultaneously the present event accumulates its own projective " +
			"potential (represented by the growing projection) to be reproduced by " +
			"a successive, third event.",
		Message: "Click to end the second sound.",
		OnMove:  sound2Move,
		OnClick: endSound2(Sound2Continues, Sound2Ends),
		Next: []State{Sound2Continues, Sound2ContinuesNegative,
			Sound2ContinuesWithoutProjection, Sound2ContinuesTooLong, Sound2Ends},
	})

	set(Entry{
		Name:    Sound2ContinuesNegative,
		Comment: "",
		Message: "Move to the right to perform the second sound.",
		OnMove: func(p *Points, x float64) State {
			if p.At(Sound2Start) <= x {
				return Sound2Continues
			}
			return Sound2ContinuesNegative
		},
		Next: []State{Sound2ContinuesNegative, Sound2Continues},
	})

	set(Entry{
		Name: Sound2ContinuesWithoutProjection,
		Comment: "The second sound exceeds the duration projected at its onset; " +
			"the projection is not clearly realized, as indicated by the change in " +
			"the projection.",
		Message: "Move to the left to shorten the second sound, or " +
			"click to end it.",
		OnMove:  sound2Move,
		OnClick: endSound2(Sound2ContinuesWithoutProjection, Sound2EndsWithoutProjection),
		Next: []State{Sound2Continues, Sound2ContinuesNegative, Sound2ContinuesWithoutProjection,
			Sound2ContinuesTooLong, Sound2EndsWithoutProjection},
	})

	set(Entry{
		Name: Sound2ContinuesTooLong,
		Comment: "The second sound is so long that it is mensurally " +
			"indeterminate. (The projection of the first interonset " +
			"duration is not realized.)",
		Message: "Move to the left to shorten the second sound, or " +
			"click to end it.",
		OnMove:  sound2Move,
		OnClick: endSound2(Sound2ContinuesTooLong, Sound2EndsTooLong),
		Next: []State{Sound2Continues, Sound2ContinuesNegative, Sound2ContinuesWithoutProjection,
			Sound2ContinuesTooLong, Sound2EndsTooLong},
	})

	set(Entry{
		Name: Sound2Ends,
		Comment: "The second sound ends. Its duration is 'mensurally " +
			"determinate' because it has the potential for being precisely " +
			"reproduced. But it does not affect the projection of the first " +
			"interonset duration, as shown.",
		Message: "Click to begin the third sound.",
		OnMove:  pause2Move,
		Next:    []State{Pause2, Pause2Negative, Pause2TooLong},
	})

	set(Entry{
		Name: Sound2EndsWithoutProjection,
		Comment: "The second sound exceeds the duration projected at its onset.  " +
			"The projection is not clearly realized, as indicated by the changed " +
			"projection.",
		Message: "Restart to try again.",
		OnClick: always(Start),
		Next:    []State{Start},
		Back:    Sound2ContinuesWithoutProjection,
	})

	set(Entry{
		Name: Sound2EndsTooLong,
		Comment: "The second sound is so long that it is mensurally " +
			"indeterminate.  Since the projected potential of the first " +
			"interonset duration is denied there is no projection at all.",
		Message: "Restart to try again.",
		OnClick: always(Start),
		Next:    []State{Start},
		Back:    Sound2ContinuesTooLong,
	})

	//
	// Pause 2
	//

	set(Entry{
		Name: Pause2,
		Comment: "The silence between the second and third sounds is relatively " +
			"indeterminate if our attention is focused on the sounds' " +
			"beginnings. The growing projection indicates that the duration from " +
			"the beginning of the second sound up to now, including the " +
			"silence, has 'projective potential' to be reproduced.",
		Message: "Click to begin the third sound.",
		OnMove:  pause2Move,
		OnClick: thirdOnset(zones),
		Next: []State{Pause2, Pause2Negative, Pause2TooLong,
			Sound3StartsAccel, Sound3StartsRealized, Sound3StartsExactly,
			Sound3StartsSlightlyLate, Sound3StartsSlightlyLateNewProjection, Sound3StartsTooLate},
	})

	set(Entry{
		Name:    Pause2Negative,
		Comment: "",
		Message: "Click at the end of the second sound or later.",
		OnMove:  pause2Move,
		Next:    []State{Pause2, Pause2Negative, Pause2TooLong},
	})

	set(Entry{
		Name: Pause2TooLong,
		Comment: "The time since the beginning of the second sound is mensurally " +
			"indeterminate, having no projective potential to be reproduced.",
		Message: "Click to begin the third sound (earlier if you want a " +
			"projection).",
		OnMove:  pause2Move,
		OnClick: always(Sound3StartsTooLate),
		Next:    []State{Pause2, Pause2Negative, Pause2TooLong, Sound3StartsTooLate},
	})

	//
	// Sound 3
	//

	set(Entry{
		Name: Sound3StartsAccel,
		Comment: "The beginning of the third sound is earlier than projected. " +
			"The second interonset duration is shorter than, but at least " +
			"three-fourths of the first interonset duration. We feel an " +
			"*acceleration* because we sense the realization of the first " +
			"projected duration even as we also perceive the difference " +
			"between the two durations.",
		Message: "Restart to try again.",
		OnClick: always(Start),
		Next:    []State{Pause2, Start},
		Back:    Pause2,
	})

	set(Entry{
		Name: Sound3StartsExactly,
		Comment: "Since the third sound begins exactly at the end of the " +
			"projected duration (the upper dashed arc), the projected " +
			"duration is 'realized'. A new projection is created, " +
			"conditioned by the first, in which the second interonset " +
			"duration has the projective potential (the lower arrow) to be " +
			"reproduced.",
		Message: "Restart to try again.",
		OnClick: always(Start),
		Next:    []State{Pause2, Start},
		Back:    Pause2,
	})

	set(Entry{
		Name: Sound3StartsTooLate,
		Comment: "The projective potential of the first interonset duration (the " +
			"dashed arc) is realized, but the projective potential of the " +
			"second interonset duration is not, since it is mensurally " +
			"indeterminate. Because the third sound begins much later than " +
			"projected, we may come to feel 'hiatus' (symbolized by the " +
			"double bar)--a break between the realization of projected " +
			"potential and a new beginning. A new and relatively " +
			"unconditioned potential emerges from the beginning of the " +
			"third sound.",
		Message: "Restart to try again.",
		OnClick: always(Start),
		Next:    []State{Pause2, Start},
		Back:    Pause2,
	})

	set(Entry{
		Name: Sound3StartsRealized,
		Comment: "The projection of the first interonset duration is realized. " +
			"As show, another projection can be completed within the promised " +
			"duration, so may enhance its mensural determinacy. The emergence of " +
			"a new beginning, shown in parentheses, would clarify this.",
		Message:           "Click anywhere to see an alternate interpretation.",
		OnClick:           always(Sound3StartsAltInterpretation),
		SkipPointCreation: true,
		Next:              []State{Sound3StartsAltInterpretation},
		Back:              Pause2,
	})

	set(Entry{
		Name: Sound3StartsAltInterpretation,
		Comment: "In this interpretation, the accent symbolizes an unequivocal " +
			"second beginning that denies the projection of the first " +
			"interonset duration in order to realize a larger projective " +
			"potential.",
		Message: "Restart to try again",
		OnClick: always(Start),
		Next:    []State{Pause2, Start},
		Back:    Pause2,
	})

	set(Entry{
		Name: Sound3StartsSlightlyLate,
		Comment: "The beginning of the third sound is slightly later than " +
			"projected. We hear a *deceleration* because we sense the " +
			"realization of the first projected duration even as we also " +
			"perceive the difference between the two durations.",
		Message: "Restart to try again.",
		OnClick: always(Start),
		Next:    []State{Pause2, Start},
		Back:    Pause2,
	})

	set(Entry{
		Name: Sound3StartsSlightlyLateNewProjection,
		Comment: "The third sound begins somewhat later than projected. A new " +
			"projection, indicated by the lowest arrow and dashed arc, " +
			"emerges, breaking off from the emerging first projection. We " +
			"reject the relevance of the first projection to the mensural " +
			"determinacy of the second interonset duration.",
		Message: "Restart to try again.",
		OnClick: always(Start),
		Next:    []State{Pause2, Start},
		Back:    Pause2,
	})

	return t
}

func always(s State) Guard {
	return func(*Points, float64) State { return s }
}

// endSound1 ignores clicks that would give the first sound no length
func endSound1(stay, next State) Guard {
	return func(p *Points, x float64) State {
		if x <= p.At(Sound1Start) {
			return stay
		}
		return next
	}
}

// endSound2 ignores clicks behind the second onset
func endSound2(stay, next State) Guard {
	return func(p *Points, x float64) State {
		if x < p.At(Sound2Start) {
			return stay
		}
		return next
	}
}

// pause1Move branches the silence after the first sound.
// Determinacy is measured from the first onset.
func pause1Move(p *Points, x float64) State {
	switch {
	case x < p.At(Sound1End):
		return Pause1Negative
	case !p.IsDeterminate(p.At(Sound1Start), x):
		return Pause1TooLong
	default:
		return Pause1
	}
}

// sound2Move classifies the second sound while it is sounding
func sound2Move(p *Points, x float64) State {
	s := p.At(Sound2Start)
	switch {
	case s > x:
		return Sound2ContinuesNegative
	case p.IsWeakDeterminate(s, x):
		return Sound2ContinuesWithoutProjection
	case p.IsDeterminate(s, x):
		return Sound2Continues
	default:
		return Sound2ContinuesTooLong
	}
}

// pause2Move branches the silence after the second sound.
// Determinacy is measured from the end of the second sound.
func pause2Move(p *Points, x float64) State {
	e := p.At(Sound2End)
	switch {
	case x < e:
		return Pause2Negative
	case !p.IsDeterminate(e, x):
		return Pause2TooLong
	default:
		return Pause2
	}
}

// thirdOnset dispatches a third onset through the zone table.
// Positions no zone claims leave the session in pause2.
func thirdOnset(zones ZoneTable) Guard {
	return func(p *Points, x float64) State {
		first, second := p.At(Sound2Start), p.At(Sound2End)
		if x < second {
			return Pause2
		}
		switch zones.Classify(p, first, second, x) {
		case ZoneIndeterminate:
			return Sound3StartsTooLate
		case ZoneAccel:
			return Sound3StartsAccel
		case ZoneExact:
			return Sound3StartsExactly
		case ZoneRealized:
			return Sound3StartsRealized
		case ZoneRall:
			return Sound3StartsSlightlyLate
		case ZoneSeparate:
			return Sound3StartsSlightlyLateNewProjection
		default:
			return Pause2
		}
	}
}
