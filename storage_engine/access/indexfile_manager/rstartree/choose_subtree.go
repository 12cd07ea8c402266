package rstar

import (
	"fmt"
	"sort"

	"RStarDB/geometry"
	"RStarDB/types"
)

// chooseSubtree returns the index of the entry of node to descend through to
// place box at targetLevel.
//
// Directly above the target level the entry with the least overlap
// enlargement wins (ties: volume enlargement, then volume). In big nodes only
// the candidatePool entries with the least volume enlargement are tested.
// Higher up the least volume enlargement wins (ties: volume).
func chooseSubtree(node *Node, box geometry.BoundingBox, targetLevel, maxEntries int) (int, error) {
	if len(node.Entries) == 0 {
		return 0, fmt.Errorf("choose subtree in empty node %d at level %d: %w", node.BlockID, node.Level, types.ErrInvariant)
	}

	enlargement := make([]float64, len(node.Entries))
	for i, e := range node.Entries {
		enlargement[i] = geometry.Enlargement(e.box, box)
	}

	if node.Level != targetLevel+1 {
		return leastEnlargement(node.Entries, enlargement), nil
	}

	candidates := make([]int, len(node.Entries))
	for i := range candidates {
		candidates[i] = i
	}
	if maxEntries > (candidatePool*2)/3 && len(node.Entries) > candidatePool {
		sort.SliceStable(candidates, func(a, b int) bool {
			return enlargement[candidates[a]] < enlargement[candidates[b]]
		})
		candidates = candidates[:candidatePool]
	}

	best := -1
	var bestOverlap float64
	for _, i := range candidates {
		inc := overlapEnlargement(node.Entries, i, box)
		if best < 0 || inc < bestOverlap || (inc == bestOverlap && betterByVolume(node.Entries, enlargement, i, best)) {
			best, bestOverlap = i, inc
		}
	}
	return best, nil
}

func leastEnlargement(entries []Entry, enlargement []float64) int {
	best := 0
	for i := 1; i < len(entries); i++ {
		if betterByVolume(entries, enlargement, i, best) {
			best = i
		}
	}
	return best
}

// betterByVolume reports whether entry i beats entry j on volume enlargement,
// falling back to the smaller volume.
func betterByVolume(entries []Entry, enlargement []float64, i, j int) bool {
	if enlargement[i] != enlargement[j] {
		return enlargement[i] < enlargement[j]
	}
	return entries[i].box.Volume() < entries[j].box.Volume()
}

// overlapEnlargement is how much the overlap of entry i with every other entry
// of the node grows once it absorbs box.
func overlapEnlargement(entries []Entry, i int, box geometry.BoundingBox) float64 {
	grown := geometry.Union(entries[i].box, box)
	var before, after float64
	for j, other := range entries {
		if j == i {
			continue
		}
		before += geometry.Overlap(entries[i].box, other.box)
		after += geometry.Overlap(grown, other.box)
	}
	return after - before
}
