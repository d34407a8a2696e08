package report

import "math"

// ClassTolerance is the distance to zero under which a flux bound counts as zero.
const ClassTolerance = 1e-7

// Class describes how a reaction can carry flux under the variability constraints.
type Class string

const (
	// Blocked reactions cannot carry flux.
	Blocked Class = "blocked"
	// Essential reactions must carry flux in a single direction.
	Essential Class = "essential"
	// Functional reactions may carry flux but can also be zero.
	Functional Class = "functional"
	// Unknown is used when a range bound is NaN.
	Unknown Class = "-"
)

// Classify derives the class of a reaction from its variability range.
func Classify(minimum, maximum float64) Class {
	if math.IsNaN(minimum) || math.IsNaN(maximum) {
		return Unknown
	}
	minZero := math.Abs(minimum) <= ClassTolerance
	maxZero := math.Abs(maximum) <= ClassTolerance
	if minZero {
		minimum = 0
	}
	if maxZero {
		maximum = 0
	}

	switch {
	case minZero && maxZero:
		return Blocked
	case minimum > 0 || maximum < 0:
		return Essential
	default:
		return Functional
	}
}
