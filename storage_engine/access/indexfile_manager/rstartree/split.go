package rstar

import (
	"fmt"
	"sort"

	"RStarDB/geometry"
	"RStarDB/types"
)

/*
R*-tree split of an overflowing node.

ChooseSplitAxis: for every axis sort the entries by lower and by upper bound.
Each ordering yields n-2m+1 distributions (first m-1+k entries | rest). The
axis whose distributions have the smallest summed perimeter wins.

ChooseSplitIndex: among the distributions of the winning axis (both
orderings) take the least overlap between the two groups, then the least
perimeter sum.

The resulting nodes keep the input level; block ids are left to the caller.
*/

// distribution is one candidate split: sorted[:cut] | sorted[cut:].
type distribution struct {
	sorted []Entry
	cut    int
	boxA   geometry.BoundingBox
	boxB   geometry.BoundingBox
}

func (d distribution) perimeter() float64 {
	return d.boxA.Perimeter() + d.boxB.Perimeter()
}

func (d distribution) overlap() float64 {
	return geometry.Overlap(d.boxA, d.boxB)
}

// splitNode divides node's entries into two nodes of at least minEntries each.
func splitNode(node *Node, minEntries int) (*Node, *Node, error) {
	axis, candidates, err := chooseSplitAxis(node.Entries, minEntries)
	if err != nil {
		return nil, nil, fmt.Errorf("split node %d: %w", node.BlockID, err)
	}
	best, err := chooseSplitIndex(candidates)
	if err != nil {
		return nil, nil, fmt.Errorf("split node %d on axis %d: %w", node.BlockID, axis, err)
	}

	a := &Node{Level: node.Level, Entries: append([]Entry(nil), best.sorted[:best.cut]...)}
	b := &Node{Level: node.Level, Entries: append([]Entry(nil), best.sorted[best.cut:]...)}
	return a, b, nil
}

func chooseSplitAxis(entries []Entry, minEntries int) (int, []distribution, error) {
	if minEntries < 1 || len(entries) < 2*minEntries {
		return 0, nil, fmt.Errorf("%d entries cannot form two groups of %d: %w", len(entries), minEntries, types.ErrInvalidSplit)
	}

	dims := entries[0].box.Dimensions()
	bestAxis := -1
	var bestSum float64
	var bestCandidates []distribution

	for d := 0; d < dims; d++ {
		var sum float64
		var candidates []distribution
		for _, sorted := range [][]Entry{sortByLower(entries, d), sortByUpper(entries, d)} {
			for _, dist := range distributions(sorted, minEntries) {
				sum += dist.perimeter()
				candidates = append(candidates, dist)
			}
		}
		if bestAxis < 0 || sum < bestSum {
			bestAxis, bestSum, bestCandidates = d, sum, candidates
		}
	}

	if len(bestCandidates) == 0 {
		return 0, nil, fmt.Errorf("no split distributions for %d entries: %w", len(entries), types.ErrInvalidSplit)
	}
	return bestAxis, bestCandidates, nil
}

func chooseSplitIndex(candidates []distribution) (distribution, error) {
	if len(candidates) == 0 {
		return distribution{}, fmt.Errorf("no candidate distributions: %w", types.ErrInvalidSplit)
	}
	best := candidates[0]
	bestOverlap, bestPerimeter := best.overlap(), best.perimeter()
	for _, c := range candidates[1:] {
		o, p := c.overlap(), c.perimeter()
		if o < bestOverlap || (o == bestOverlap && p < bestPerimeter) {
			best, bestOverlap, bestPerimeter = c, o, p
		}
	}
	return best, nil
}

// distributions lists the n-2m+1 splits of one ordering, with both group
// boxes taken from prefix and suffix unions.
func distributions(sorted []Entry, m int) []distribution {
	n := len(sorted)
	if n < 2*m {
		return nil
	}

	prefix := make([]geometry.BoundingBox, n)
	suffix := make([]geometry.BoundingBox, n)
	prefix[0] = sorted[0].box
	for i := 1; i < n; i++ {
		prefix[i] = geometry.Union(prefix[i-1], sorted[i].box)
	}
	suffix[n-1] = sorted[n-1].box
	for i := n - 2; i >= 0; i-- {
		suffix[i] = geometry.Union(sorted[i].box, suffix[i+1])
	}

	out := make([]distribution, 0, n-2*m+1)
	for k := 1; k <= n-2*m+1; k++ {
		cut := m - 1 + k
		out = append(out, distribution{
			sorted: sorted,
			cut:    cut,
			boxA:   prefix[cut-1],
			boxB:   suffix[cut],
		})
	}
	return out
}

func sortByLower(entries []Entry, d int) []Entry {
	sorted := append([]Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		bi, bj := sorted[i].box.Bounds(d), sorted[j].box.Bounds(d)
		if bi.Lower != bj.Lower {
			return bi.Lower < bj.Lower
		}
		return bi.Upper < bj.Upper
	})
	return sorted
}

func sortByUpper(entries []Entry, d int) []Entry {
	sorted := append([]Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		bi, bj := sorted[i].box.Bounds(d), sorted[j].box.Bounds(d)
		if bi.Upper != bj.Upper {
			return bi.Upper < bj.Upper
		}
		return bi.Lower < bj.Lower
	})
	return sorted
}
