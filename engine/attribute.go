package meter

import (
	"errors"
	"fmt"
)

var (
	ErrNotAttribute = errors.New("not an attribute")
	ErrAttributeSet = errors.New("attribute already set")
)

// Attribute is a feature a Sound takes on in context.
// What really should show up in the display is the attribute,
// not the raw positions.
type Attribute int

const (
	AttrNone   Attribute = iota
	AttrAccel            // the beginning suggests acceleration
	AttrRall             // the beginning suggests deceleration
	AttrAccent           // the beginning suggests an accent
	AttrHiatus           // the end seems like a break
	AttrParens           // only suggested, not necessarily heard

	lastAttribute = AttrParens
)

// IsAttribute checks a value maps to a known Attribute
func IsAttribute(a Attribute) bool {
	return a >= AttrNone && a <= lastAttribute
}

func (a Attribute) String() string {
	switch a {
	case AttrNone:
		return "none"
	case AttrAccel:
		return "accel"
	case AttrRall:
		return "rall"
	case AttrAccent:
		return "accent"
	case AttrHiatus:
		return "hiatus"
	case AttrParens:
		return "parens"
	default:
		return "unknown"
	}
}

// setSlot writes a once-only attribute slot
func setSlot(slot *Attribute, a Attribute, name string) error {
	if !IsAttribute(a) {
		return fmt.Errorf("%s attribute %d: %w", name, int(a), ErrNotAttribute)
	}
	if *slot != AttrNone {
		return fmt.Errorf("%s attribute %s: %w", name, *slot, ErrAttributeSet)
	}
	*slot = a
	return nil
}
