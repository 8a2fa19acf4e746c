package monitor

import (
	"image"

	"github.com/genricoloni/backdrop/internal/domain"
	"github.com/kbinani/screenshot"
	"go.uber.org/zap"
)

// fallbackDisplay is used when no display can be queried
var fallbackDisplay = image.Rect(0, 0, 1920, 1080)

// NewDisplayLayout detects the physical displays at startup. Their union
// seeds the global canvas before the first window snapshot.
func NewDisplayLayout(logger *zap.Logger) *domain.DisplayLayout {
	n := screenshot.NumActiveDisplays()
	if n <= 0 {
		logger.Warn("No active displays detected, falling back to 1920x1080")
		return layoutFrom([]image.Rectangle{fallbackDisplay})
	}

	displays := make([]image.Rectangle, 0, n)
	for i := 0; i < n; i++ {
		displays = append(displays, screenshot.GetDisplayBounds(i))
	}
	layout := layoutFrom(displays)

	logger.Info("Display layout detected",
		zap.Int("displays", layout.Count),
		zap.Stringer("bounds", layout.Bounds))
	return layout
}

// layoutFrom unions the non-empty display rectangles
func layoutFrom(displays []image.Rectangle) *domain.DisplayLayout {
	var union image.Rectangle
	count := 0
	for _, d := range displays {
		if d.Empty() {
			continue
		}
		union = union.Union(d)
		count++
	}
	if count == 0 {
		union = fallbackDisplay
	}
	return &domain.DisplayLayout{
		Bounds: domain.Rect{
			X:      float64(union.Min.X),
			Y:      float64(union.Min.Y),
			Width:  float64(union.Dx()),
			Height: float64(union.Dy()),
		},
		Count: count,
	}
}
