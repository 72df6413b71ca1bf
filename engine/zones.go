package meter

import (
	"fmt"
	"strings"
)

// Zone is where a third onset lands relative to the second inter-onset duration
type Zone int

const (
	ZoneNone          Zone = iota // claimed by no zone
	ZoneIndeterminate             // too late to be measured
	ZoneAccel                     // earlier than projected
	ZoneRealized                  // close to the projected duration
	ZoneExact                     // exactly as projected
	ZoneRall                      // slightly late
	ZoneSeparate                  // late enough to start a new projection
)

func (z Zone) String() string {
	switch z {
	case ZoneIndeterminate:
		return "indeterminate"
	case ZoneAccel:
		return "accel"
	case ZoneRealized:
		return "realized"
	case ZoneExact:
		return "exact"
	case ZoneRall:
		return "rall"
	case ZoneSeparate:
		return "separate"
	default:
		return "none"
	}
}

// ZoneTable classifies the onset end, measured from the second onset first
// whose sound ended at second. Points supplies maxLen and the predicates.
type ZoneTable interface {
	Name() string
	Classify(p *Points, first, second, end float64) Zone
}

// StandardZones is the authoritative table. Exact is a zero width zone
// and 1.75 * first itself belongs to no zone.
type StandardZones struct{}

func (StandardZones) Name() string { return "standard" }

func (StandardZones) Classify(p *Points, first, second, end float64) Zone {
	switch {
	case !p.IsDeterminate(first, end):
		return ZoneIndeterminate
	case p.IsAccel(first, second, end):
		return ZoneAccel
	case p.IsExact(first, end):
		return ZoneExact
	case p.IsRealized(first, end):
		return ZoneRealized
	case p.IsSlightlyLate(first, end):
		return ZoneRall
	case p.IsSlightlyLateNewProjection(first, end):
		return ZoneSeparate
	default:
		return ZoneNone
	}
}

// ExtendedZones is the batch classifier's table: realized also covers
// (2, 2.25] and slightly late shrinks to [2.25, 2.5).
type ExtendedZones struct{}

func (ExtendedZones) Name() string { return "extended" }

func (ExtendedZones) Classify(p *Points, first, second, end float64) Zone {
	if !p.IsDeterminate(first, end) {
		return ZoneIndeterminate
	}
	switch {
	case end < AccelFactor*first:
		if end > second {
			return ZoneAccel
		}
		return ZoneNone
	case end < ExactFactor*first:
		return ZoneRealized
	case end == ExactFactor*first:
		return ZoneExact
	case end <= RallFactor*first:
		return ZoneRealized
	case end < NewProjFactor*first:
		return ZoneRall
	default:
		return ZoneSeparate
	}
}

// ZonesByName picks a table; an empty name is the standard one
func ZonesByName(name string) (ZoneTable, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "standard":
		return StandardZones{}, nil
	case "extended":
		return ExtendedZones{}, nil
	default:
		return nil, fmt.Errorf("unknown zone table %q", name)
	}
}
