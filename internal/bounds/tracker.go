package bounds

import (
	"math"

	"github.com/genricoloni/backdrop/internal/domain"
	"go.uber.org/zap"
)

// Tracker holds the virtual canvas spanned by every decoratable window
type Tracker struct {
	logger *zap.Logger
	bounds domain.Rect
}

// NewTracker creates a tracker seeded with the display layout so the
// canvas is never a zero rectangle before the first update
func NewTracker(logger *zap.Logger, layout *domain.DisplayLayout) *Tracker {
	t := &Tracker{logger: logger}
	if layout != nil {
		t.bounds = layout.Bounds
	}
	return t
}

// Bounds returns the last computed canvas
func (t *Tracker) Bounds() domain.Rect { return t.bounds }

// Update recomputes the tight enclosing rectangle of windows. Invalid,
// exempt and zero-area windows are skipped; with nothing left the previous value is kept.
// It reports whether the bounds changed.
func (t *Tracker) Update(windows []domain.Window) (domain.Rect, bool) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	n := 0

	for _, w := range windows {
		if w == nil || !w.Valid() || !w.Decoratable() {
			continue
		}
		p := w.Position()
		if !finite(p) {
			t.logger.Debug("Skipping window with non-finite geometry", zap.Uint64("window", uint64(w.ID())))
			continue
		}
		if p.Empty() {
			t.logger.Debug("Skipping window with no area", zap.Uint64("window", uint64(w.ID())))
			continue
		}
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.Right())
		maxY = math.Max(maxY, p.Bottom())
		n++
	}

	if n == 0 {
		return t.bounds, false
	}

	next := domain.Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
	if next == t.bounds {
		return t.bounds, false
	}
	t.logger.Debug("Global bounds changed",
		zap.Stringer("from", t.bounds),
		zap.Stringer("to", next),
		zap.Int("windows", n))
	t.bounds = next
	return next, true
}

func finite(r domain.Rect) bool {
	for _, v := range [...]float64{r.X, r.Y, r.Width, r.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
