package plugin

/*

	The Adapter sits aside /meter/
	Contains core interfaces for Plugin

*/

import (
	"time"

	Mt "github.com/maroda/meter/types"
)

// SnapshotTransformer reduces a drawn Snapshot to a single number,
// for instance the tempo ratio of the two interonset durations
// or one coordinate picked out by key.
type SnapshotTransformer interface {
	Transform(snap Mt.Snapshot) (float64, error)
	Type() string // Unique ID for the transformer
}

// OutputAdapter can be used to define a place for the snapshots to go,
// draw-by-draw or in batches if supported by the output type.
type OutputAdapter interface {
	WriteSnapshot(snap Mt.Snapshot) error // Write one drawn snapshot
	Flush() error                         // Flush any buffered data
	Close() error                         // Close the adapter and release resources
	Type() string                         // ID for output
}

// Journal is an OutputAdapter that remembers the outcomes it was handed
type Journal interface {
	OutputAdapter
	QueryRange(start, end time.Time) ([]*Mt.Outcome, error) // Time range query tool
}
