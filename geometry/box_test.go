package geometry

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"RStarDB/types"
)

func mustBox(t *testing.T, bounds ...Bounds) BoundingBox {
	t.Helper()
	b, err := NewBoundingBox(bounds)
	if err != nil {
		t.Fatalf("NewBoundingBox(%v): %v", bounds, err)
	}
	return b
}

func randomBox(r *rand.Rand, dims int) BoundingBox {
	bounds := make([]Bounds, dims)
	for d := range bounds {
		a, b := r.Float64()*100, r.Float64()*100
		if a > b {
			a, b = b, a
		}
		bounds[d] = Bounds{Lower: a, Upper: b}
	}
	box, _ := NewBoundingBox(bounds)
	return box
}

func TestNewBoundsRejectsInvertedInterval(t *testing.T) {
	if _, err := NewBounds(2, 1); !errors.Is(err, types.ErrInvalidBounds) {
		t.Fatalf("expected ErrInvalidBounds, got %v", err)
	}
	if _, err := NewBounds(math.NaN(), 1); !errors.Is(err, types.ErrInvalidBounds) {
		t.Fatalf("expected ErrInvalidBounds for NaN, got %v", err)
	}
	if _, err := NewBounds(math.Inf(-1), 1); !errors.Is(err, types.ErrInvalidBounds) {
		t.Fatalf("expected ErrInvalidBounds for -Inf, got %v", err)
	}
	if _, err := NewBounds(0, math.Inf(1)); !errors.Is(err, types.ErrInvalidBounds) {
		t.Fatalf("expected ErrInvalidBounds for +Inf, got %v", err)
	}
	if _, err := NewBounds(3, 3); err != nil {
		t.Fatalf("degenerate interval should be valid: %v", err)
	}
	if _, err := NewBoundingBox([]Bounds{{Lower: 0, Upper: 1}, {Lower: 5, Upper: 4}}); !errors.Is(err, types.ErrInvalidBounds) {
		t.Fatalf("expected ErrInvalidBounds from box, got %v", err)
	}
}

func TestPointBoxRejectsNonFiniteCoordinates(t *testing.T) {
	tests := []struct {
		name   string
		coords []float64
	}{
		{"positive infinity", []float64{1, math.Inf(1)}},
		{"negative infinity", []float64{math.Inf(-1), 0}},
		{"NaN", []float64{math.NaN(), 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := PointBox(tt.coords); !errors.Is(err, types.ErrInvalidBounds) {
				t.Fatalf("expected ErrInvalidBounds, got %v", err)
			}
		})
	}
}

func TestDerivedAttributes(t *testing.T) {
	box := mustBox(t, Bounds{0, 2}, Bounds{1, 4}, Bounds{-1, 1})

	if got := box.Volume(); got != 12 {
		t.Errorf("volume = %v, want 12", got)
	}
	if got := box.Perimeter(); got != 7 {
		t.Errorf("perimeter = %v, want 7", got)
	}
	want := []float64{1, 2.5, 0}
	for d, c := range box.Center() {
		if c != want[d] {
			t.Errorf("center[%d] = %v, want %v", d, c, want[d])
		}
	}

	// Center must hand out a copy.
	c := box.Center()
	c[0] = 99
	if box.Center()[0] != 1 {
		t.Errorf("Center leaked internal state")
	}
}

func TestOverlapProperties(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		a, b := randomBox(r, 3), randomBox(r, 3)
		if Overlap(a, b) != Overlap(b, a) {
			t.Fatalf("overlap not symmetric for %v and %v", a, b)
		}
		if math.Abs(Overlap(a, a)-a.Volume()) > 1e-9*math.Max(1, a.Volume()) {
			t.Fatalf("overlap(A,A)=%v, volume=%v", Overlap(a, a), a.Volume())
		}
	}

	a := mustBox(t, Bounds{0, 1}, Bounds{0, 1})
	b := mustBox(t, Bounds{0.5, 2}, Bounds{2, 3}) // disjoint on the y axis
	if got := Overlap(a, b); got != 0 {
		t.Errorf("overlap of disjoint boxes = %v, want 0", got)
	}
	touching := mustBox(t, Bounds{1, 2}, Bounds{0, 1})
	if got := Overlap(a, touching); got != 0 {
		t.Errorf("overlap of touching boxes = %v, want 0", got)
	}
	c := mustBox(t, Bounds{0.5, 2}, Bounds{0.5, 2})
	if got := Overlap(a, c); got != 0.25 {
		t.Errorf("overlap = %v, want 0.25", got)
	}
}

func TestUnionIdempotentAndCommutative(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	for i := 0; i < 200; i++ {
		a, b := randomBox(r, 2), randomBox(r, 2)
		if !Union(a, a).Equal(a) {
			t.Fatalf("union(A,A) != A for %v", a)
		}
		if !Union(a, b).Equal(Union(b, a)) {
			t.Fatalf("union not commutative for %v, %v", a, b)
		}
	}
}

func TestUnionAllScansEachAxis(t *testing.T) {
	boxes := []BoundingBox{
		mustBox(t, Bounds{0, 1}, Bounds{5, 9}),
		mustBox(t, Bounds{-3, -2}, Bounds{6, 7}),
		mustBox(t, Bounds{4, 4}, Bounds{0, 1}),
	}
	got, err := UnionAll(boxes)
	if err != nil {
		t.Fatalf("UnionAll: %v", err)
	}
	want := mustBox(t, Bounds{-3, 4}, Bounds{0, 9})
	if !got.Equal(want) {
		t.Errorf("UnionAll = %v, want %v", got, want)
	}

	if _, err := UnionAll(nil); !errors.Is(err, types.ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange for empty union, got %v", err)
	}
}

func TestMinDistanceAndCenters(t *testing.T) {
	box := mustBox(t, Bounds{0, 2}, Bounds{0, 2})

	tests := []struct {
		name  string
		point []float64
		want  float64
	}{
		{"inside", []float64{1, 1}, 0},
		{"on edge", []float64{2, 1}, 0},
		{"right", []float64{5, 1}, 3},
		{"corner", []float64{5, 6}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MinDistance(box, tt.point)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("MinDistance(%v) = %v, want %v", tt.point, got, tt.want)
			}
		})
	}

	for _, point := range [][]float64{{1}, {1, 1, 1}, nil} {
		if _, err := MinDistance(box, point); !errors.Is(err, types.ErrOutOfRange) {
			t.Errorf("MinDistance(%v): expected ErrOutOfRange, got %v", point, err)
		}
	}

	other := mustBox(t, Bounds{3, 5}, Bounds{4, 6})
	if got := DistanceBetweenCenters(box, other); got != 5 {
		t.Errorf("DistanceBetweenCenters = %v, want 5", got)
	}
}

func TestEnlargement(t *testing.T) {
	box := mustBox(t, Bounds{0, 1}, Bounds{0, 1})
	p, err := PointBox([]float64{2, 1})
	if err != nil {
		t.Fatal(err)
	}
	if got := Enlargement(box, p); got != 1 {
		t.Errorf("Enlargement = %v, want 1", got)
	}
	if !box.Contains([]float64{0.5, 1}) || box.Contains([]float64{2, 1}) {
		t.Errorf("Contains gave wrong answer")
	}
}
