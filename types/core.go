package types

/*

	These are the "immutable" core types of meter,
	provided for cross-package use (e.g. Plugins, Display) and testing.

	There are no functions defined here.
	Constructors and predicates are housed in the engine package.

*/

import "time"

// Sound names key the Lines and Projs maps of a Snapshot
const (
	SoundFirst  = "first"
	SoundSecond = "second"
	SoundThird  = "third"
)

// Projection kinds key the inner map of Snapshot.Projs
const (
	ProjNormal   = "normal"   // projective potential in progress or realized
	ProjWeak     = "weak"     // determinate, but past the projected duration
	ProjExpected = "expected" // the projected potential, reaching into the future
)

// Line is the drawn extent of one sound.
// End is nil while only the onset of the sound is known.
type Line struct {
	Start float64  `json:"start"`
	End   *float64 `json:"end,omitempty"`
}

// Interval is a closed span on the timeline
type Interval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Snapshot is the full drawing state handed to an output sink.
// It is rebuilt from nothing on every event, never patched.
type Snapshot struct {
	State   string                         `json:"state"`
	Points  []float64                      `json:"points"`
	Cursor  *float64                       `json:"cursor,omitempty"`
	Lines   map[string]Line                `json:"lines"`
	Projs   map[string]map[string]Interval `json:"projs"`
	Hiatus  *float64                       `json:"hiatus,omitempty"`
	Accel   *float64                       `json:"accel,omitempty"`
	Decel   *float64                       `json:"decel,omitempty"`
	Parens  *float64                       `json:"parens,omitempty"`
	Accent  *float64                       `json:"accent,omitempty"`
	Comment string                         `json:"comment"`
	Message string                         `json:"message"`
}

// EventKind names what the user did
type EventKind int

const (
	EventMove  EventKind = iota // the probe moved
	EventClick                  // a boundary was placed
	EventReset                  // start over
	EventBack                   // pop the last boundary
)

// Event is one unit of user input, as queued between producers and the driver
type Event struct {
	Kind EventKind
	X    float64
	Y    float64 // carried along, never consulted
}

// Outcome is an interpretation the session arrived at.
// These are journaled, a session is never rebuilt from them.
type Outcome struct {
	State     string             `json:"state"`
	Points    []float64          `json:"points"`
	Markers   map[string]float64 `json:"markers"`
	Timestamp time.Time          `json:"timestamp"`
	Seq       uint64             `json:"seq"` // orders outcomes sharing a timestamp
}
