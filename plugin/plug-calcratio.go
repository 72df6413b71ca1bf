package plugin

/*
	CalcRatio

	Returns the second interonset duration over the first,
	how much faster (< 1) or slower (> 1) the third onset came
	than the first duration projected.

	~~~ Plugin Reference Implementation ~~~
*/

import (
	"errors"

	Mt "github.com/maroda/meter/types"
)

var ErrNoThirdOnset = errors.New("no third onset to compare")

type CalcRatioPlugin struct{}

// Transform is the main wrapper for the interface.
// Other calculation functions should be called from here.
func (p *CalcRatioPlugin) Transform(snap Mt.Snapshot) (float64, error) {
	// onsets are at even indexes: 0, 2, 4
	if len(snap.Points) < 5 {
		return 0, ErrNoThirdOnset
	}
	return CalcRatio(snap.Points[0], snap.Points[2], snap.Points[4]), nil
}

// CalcRatio is (third - second) / (second - first), 0 when the first span is empty
func CalcRatio(first, second, third float64) float64 {
	span := second - first
	if span <= 0 {
		return 0
	}
	return (third - second) / span
}

func (p *CalcRatioPlugin) Type() string { return "calc_ratio" }
