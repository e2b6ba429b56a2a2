package coordinator

import "github.com/matzehuels/flowscope/pkg/hgraph"

// ViewOptions accompany viewport calls.
type ViewOptions struct {
	// Animate requests a smooth transition instead of a jump.
	Animate bool

	// Padding is extra space around the fitted content, in layout points.
	Padding float64
}

// Viewport is the external render-surface handle used by navigation and
// fit operations. Absence of a live handle (nil Viewport) falls back to the
// registered fit callback.
type Viewport interface {
	// GetNode returns the on-surface rectangle of an entity, if the
	// surface knows it.
	GetNode(id string) (hgraph.Rect, bool)

	// SetCenter moves the view center to the given layout coordinates.
	SetCenter(x, y float64, opts ViewOptions) error

	// FitView adjusts the view so all visible content fits.
	FitView(opts ViewOptions) error
}
