// Package geometry holds the bounding-box algebra every structural decision
// of the R*-tree is made with. Boxes are immutable values: volume, perimeter
// and center are computed once when the box is built.
package geometry

import (
	"fmt"
	"math"
	"strings"

	"RStarDB/types"
)

type BoundingBox struct {
	bounds    []Bounds
	center    []float64
	volume    float64
	perimeter float64
}

// NewBoundingBox validates every interval and copies the slice.
func NewBoundingBox(bounds []Bounds) (BoundingBox, error) {
	if len(bounds) == 0 {
		return BoundingBox{}, fmt.Errorf("bounding box: no dimensions: %w", types.ErrOutOfRange)
	}
	own := make([]Bounds, len(bounds))
	for d, b := range bounds {
		nb, err := NewBounds(b.Lower, b.Upper)
		if err != nil {
			return BoundingBox{}, fmt.Errorf("bounding box dim %d: %w", d, err)
		}
		own[d] = nb
	}
	return build(own), nil
}

// PointBox returns the degenerate box lower == upper == coords[d].
func PointBox(coords []float64) (BoundingBox, error) {
	if len(coords) == 0 {
		return BoundingBox{}, fmt.Errorf("point box: no coordinates: %w", types.ErrOutOfRange)
	}
	bounds := make([]Bounds, len(coords))
	for d, c := range coords {
		b, err := NewBounds(c, c)
		if err != nil {
			return BoundingBox{}, fmt.Errorf("point box dim %d: %w", d, err)
		}
		bounds[d] = b
	}
	return build(bounds), nil
}

// build takes ownership of already validated bounds.
func build(bounds []Bounds) BoundingBox {
	box := BoundingBox{
		bounds: bounds,
		center: make([]float64, len(bounds)),
		volume: 1,
	}
	for d, b := range bounds {
		ext := b.Extent()
		box.volume *= ext
		box.perimeter += ext
		box.center[d] = b.Center()
	}
	return box
}

func (b BoundingBox) Dimensions() int {
	return len(b.bounds)
}

// Bounds returns the interval on axis d.
func (b BoundingBox) Bounds(d int) Bounds {
	return b.bounds[d]
}

func (b BoundingBox) Lower(d int) float64 { return b.bounds[d].Lower }
func (b BoundingBox) Upper(d int) float64 { return b.bounds[d].Upper }

// Volume is the product of the per-axis extents.
func (b BoundingBox) Volume() float64 {
	return b.volume
}

// Perimeter is the sum of the per-axis extents (the R*-tree "margin").
func (b BoundingBox) Perimeter() float64 {
	return b.perimeter
}

// Center returns a copy of the per-axis midpoints.
func (b BoundingBox) Center() []float64 {
	out := make([]float64, len(b.center))
	copy(out, b.center)
	return out
}

// Contains reports whether point lies inside or on the box.
func (b BoundingBox) Contains(point []float64) bool {
	if len(point) != len(b.bounds) {
		return false
	}
	for d, bd := range b.bounds {
		if !bd.Contains(point[d]) {
			return false
		}
	}
	return true
}

// Equal compares the intervals exactly.
func (b BoundingBox) Equal(o BoundingBox) bool {
	if len(b.bounds) != len(o.bounds) {
		return false
	}
	for d := range b.bounds {
		if b.bounds[d] != o.bounds[d] {
			return false
		}
	}
	return true
}

func (b BoundingBox) String() string {
	parts := make([]string, len(b.bounds))
	for d, bd := range b.bounds {
		parts[d] = bd.String()
	}
	return strings.Join(parts, "x")
}

// Union is the minimum bounding box of a and b. Both must have the same
// dimensionality.
func Union(a, b BoundingBox) BoundingBox {
	bounds := make([]Bounds, len(a.bounds))
	for d := range a.bounds {
		bounds[d] = Bounds{
			Lower: math.Min(a.bounds[d].Lower, b.bounds[d].Lower),
			Upper: math.Max(a.bounds[d].Upper, b.bounds[d].Upper),
		}
	}
	return build(bounds)
}

// UnionAll scans every axis independently for the smallest lower and the
// largest upper bound.
func UnionAll(boxes []BoundingBox) (BoundingBox, error) {
	if len(boxes) == 0 {
		return BoundingBox{}, fmt.Errorf("union of empty set: %w", types.ErrOutOfRange)
	}
	dims := boxes[0].Dimensions()
	bounds := make([]Bounds, dims)
	for d := 0; d < dims; d++ {
		lo, hi := math.Inf(1), math.Inf(-1)
		for i, box := range boxes {
			if box.Dimensions() != dims {
				return BoundingBox{}, fmt.Errorf("union: box %d has %d dims, want %d: %w", i, box.Dimensions(), dims, types.ErrOutOfRange)
			}
			lo = math.Min(lo, box.bounds[d].Lower)
			hi = math.Max(hi, box.bounds[d].Upper)
		}
		bounds[d] = Bounds{Lower: lo, Upper: hi}
	}
	return build(bounds), nil
}

// Overlap is the volume of the intersection of a and b. It returns 0 as soon
// as one axis has no positive intersection.
func Overlap(a, b BoundingBox) float64 {
	result := 1.0
	for d := range a.bounds {
		lo := math.Max(a.bounds[d].Lower, b.bounds[d].Lower)
		hi := math.Min(a.bounds[d].Upper, b.bounds[d].Upper)
		if hi-lo <= 0 {
			return 0
		}
		result *= hi - lo
	}
	return result
}

// Enlargement is the volume growth needed for box to absorb add.
func Enlargement(box, add BoundingBox) float64 {
	return Union(box, add).Volume() - box.Volume()
}

// MinDistance is the Euclidean distance from point to the nearest point in
// the box; 0 when the point is inside.
func MinDistance(box BoundingBox, point []float64) (float64, error) {
	if len(point) != box.Dimensions() {
		return 0, fmt.Errorf("min distance: point has %d coordinates, box has %d dims: %w", len(point), box.Dimensions(), types.ErrOutOfRange)
	}
	var sum float64
	for d, bd := range box.bounds {
		c := math.Max(bd.Lower, math.Min(point[d], bd.Upper))
		diff := point[d] - c
		sum += diff * diff
	}
	return math.Sqrt(sum), nil
}

func DistanceBetweenCenters(a, b BoundingBox) float64 {
	var sum float64
	for d := range a.center {
		diff := a.center[d] - b.center[d]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}
