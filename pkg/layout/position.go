package layout

import (
	"sort"

	"github.com/matzehuels/goalgraph/pkg/goal"
)

// Default spacing constants, in pixels.
const (
	// GapDistance separates the facing edges of adjacent level slices.
	GapDistance = 150.0
	// VerticalSpacing is the pitch between successive node tops within a slice.
	VerticalSpacing = 120.0
)

// Position is a node's top-left corner.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Options tunes the positioner. Zero values fall back to the defaults.
type Options struct {
	Gap             float64
	VerticalSpacing float64
}

func (o Options) withDefaults() Options {
	if o.Gap == 0 {
		o.Gap = GapDistance
	}
	if o.VerticalSpacing == 0 {
		o.VerticalSpacing = VerticalSpacing
	}
	return o
}

// PositionSlices computes top-left coordinates for every node in the slice.
//
// Each level occupies a vertical column whose width is the widest node in it.
// Column midpoints follow the recurrence
//
//	mid[0] = 0
//	mid[i] = mid[i-1] + w[i-1]/2 + gap + w[i]/2
//
// so facing edges are always exactly gap apart regardless of how node widths
// vary inside a column. Every node is left-aligned to its column's leftmost
// edge. Within a column, nodes stack downward: each top advances by the
// vertical pitch, or by the node's height when the node is taller than the
// pitch.
//
// sizeOf supplies the box for each node; pass a closure over [SizeOf] to get
// observed-or-estimated behavior. The function is deterministic for a given
// slice order and size function.
func PositionSlices(slice []*goal.Node, h Hierarchy, sizeOf func(*goal.Node) Size, opts Options) map[goal.NodeID]Position {
	opts = opts.withDefaults()
	positions := make(map[goal.NodeID]Position, len(slice))
	if len(slice) == 0 {
		return positions
	}

	byID := make(map[goal.NodeID]*goal.Node, len(slice))
	for _, n := range slice {
		byID[n.ID] = n
	}

	levels := make([]int, 0, len(h.Levels))
	for l := range h.Levels {
		levels = append(levels, l)
	}
	sort.Ints(levels)

	sliceWidth := make(map[int]float64, len(levels))
	for _, l := range levels {
		for _, id := range h.Levels[l] {
			if w := sizeOf(byID[id]).Width; w > sliceWidth[l] {
				sliceWidth[l] = w
			}
		}
	}

	mids := make(map[int]float64, len(levels))
	for i, l := range levels {
		if i == 0 {
			mids[l] = 0
			continue
		}
		prev := levels[i-1]
		mids[l] = mids[prev] + sliceWidth[prev]/2 + opts.Gap + sliceWidth[l]/2
	}

	for _, l := range levels {
		leftmost := mids[l] - sliceWidth[l]/2
		y := 0.0
		for _, id := range h.Levels[l] {
			positions[id] = Position{X: leftmost, Y: y}
			step := opts.VerticalSpacing
			if hgt := sizeOf(byID[id]).Height; hgt > step {
				step = hgt
			}
			y += step
		}
	}

	return positions
}
