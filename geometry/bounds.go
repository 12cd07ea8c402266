package geometry

import (
	"fmt"
	"math"

	"RStarDB/types"
)

// Bounds is a closed interval [Lower, Upper] on one axis.
type Bounds struct {
	Lower float64
	Upper float64
}

// NewBounds rejects lower > upper and non-finite endpoints.
func NewBounds(lower, upper float64) (Bounds, error) {
	if math.IsNaN(lower) || math.IsNaN(upper) {
		return Bounds{}, fmt.Errorf("bounds [%v, %v]: NaN endpoint: %w", lower, upper, types.ErrInvalidBounds)
	}
	if math.IsInf(lower, 0) || math.IsInf(upper, 0) {
		return Bounds{}, fmt.Errorf("bounds [%v, %v]: infinite endpoint: %w", lower, upper, types.ErrInvalidBounds)
	}
	if lower > upper {
		return Bounds{}, fmt.Errorf("bounds [%v, %v]: lower exceeds upper: %w", lower, upper, types.ErrInvalidBounds)
	}
	return Bounds{Lower: lower, Upper: upper}, nil
}

func (b Bounds) Extent() float64 {
	return b.Upper - b.Lower
}

func (b Bounds) Center() float64 {
	return (b.Lower + b.Upper) / 2
}

// Contains reports whether v lies inside the closed interval.
func (b Bounds) Contains(v float64) bool {
	return v >= b.Lower && v <= b.Upper
}

func (b Bounds) String() string {
	return fmt.Sprintf("[%g,%g]", b.Lower, b.Upper)
}
