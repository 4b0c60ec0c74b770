package layout

import (
	"sync"

	"github.com/matzehuels/goalgraph/pkg/goal"
)

// Size is a node box in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Maximum plausible node box. Mobile browsers occasionally report a
// pre-layout measurement spanning the whole viewport; anything past these
// bounds is discarded rather than clamped into range.
const (
	MaxMeasuredWidth  = 500.0
	MaxMeasuredHeight = 300.0
)

// Text estimation constants, tuned against the rendered node card styles.
const (
	estimateFontSize  = 14.0
	estimateCharWidth = 0.55 // width of an average glyph as a fraction of font size
	estimatePaddingX  = 32.0
	estimateMinWidth  = 100.0
)

// fallbackSizes supplies a per-node-type box for first-pass layout, before
// any real measurement has been observed.
var fallbackSizes = map[string]Size{
	"goal":      {Width: 180, Height: 100},
	"milestone": {Width: 170, Height: 90},
	"task":      {Width: 160, Height: 80},
}

// defaultFallbackSize covers unknown node types.
var defaultFallbackSize = Size{Width: 160, Height: 80}

// FallbackSize returns the estimated box for a node type.
func FallbackSize(nodeType string) Size {
	if s, ok := fallbackSizes[nodeType]; ok {
		return s
	}
	return defaultFallbackSize
}

// Measurer supplies node box sizes to the positioner.
//
// Measure estimates a box from the label text alone and is always available.
// ObservedSize reports the real rendered box once the UI has measured it;
// until then it returns false and layout proceeds on estimates.
type Measurer interface {
	Measure(label, nodeType string) Size
	ObservedSize(id goal.NodeID) (Size, bool)
}

// EstimateMeasurer is the default Measurer. It estimates widths from label
// length using fixed glyph metrics and records observed sizes reported after
// rendering. It is safe for concurrent use.
type EstimateMeasurer struct {
	mu       sync.RWMutex
	observed map[goal.NodeID]Size
}

// NewEstimateMeasurer returns an empty measurer.
func NewEstimateMeasurer() *EstimateMeasurer {
	return &EstimateMeasurer{observed: make(map[goal.NodeID]Size)}
}

// Measure estimates a box from the label and node type. Width scales with
// label length and is clamped to [estimateMinWidth, MaxMeasuredWidth]; height
// comes from the per-type fallback.
func (m *EstimateMeasurer) Measure(label, nodeType string) Size {
	w := float64(len([]rune(label)))*estimateFontSize*estimateCharWidth + estimatePaddingX
	if w < estimateMinWidth {
		w = estimateMinWidth
	}
	if w > MaxMeasuredWidth {
		w = MaxMeasuredWidth
	}
	return Size{Width: w, Height: FallbackSize(nodeType).Height}
}

// Observe records a rendered size for the node. Sizes beyond the sane maxima
// are ignored entirely, as are non-positive ones.
func (m *EstimateMeasurer) Observe(id goal.NodeID, s Size) {
	if s.Width <= 0 || s.Height <= 0 {
		return
	}
	if s.Width > MaxMeasuredWidth || s.Height > MaxMeasuredHeight {
		return
	}
	m.mu.Lock()
	m.observed[id] = s
	m.mu.Unlock()
}

// Forget drops a recorded observation, typically after the node is deleted.
func (m *EstimateMeasurer) Forget(id goal.NodeID) {
	m.mu.Lock()
	delete(m.observed, id)
	m.mu.Unlock()
}

// ObservedSize returns the recorded rendered size for the node, if any.
func (m *EstimateMeasurer) ObservedSize(id goal.NodeID) (Size, bool) {
	m.mu.RLock()
	s, ok := m.observed[id]
	m.mu.RUnlock()
	return s, ok
}

var _ Measurer = (*EstimateMeasurer)(nil)

// SizeOf resolves a node's box: the observed size when one exists, otherwise
// the measurer's estimate.
func SizeOf(m Measurer, n *goal.Node) Size {
	if s, ok := m.ObservedSize(n.ID); ok {
		return s
	}
	return m.Measure(n.Label, n.Type)
}
