package scene

import (
	"math"

	"github.com/genricoloni/backdrop/internal/domain"
)

// Resolve places a layout inside parent and returns the node's box in the
// parent's coordinate space
func Resolve(parent domain.Rect, layout domain.Layout) domain.Rect {
	if layout.Mode == domain.LayoutAbsolute {
		f := layout.Frame
		return domain.Rect{X: parent.X + f.X, Y: parent.Y + f.Y, Width: f.Width, Height: f.Height}
	}
	in := layout.Insets
	return domain.Rect{
		X:      parent.X + in.Left,
		Y:      parent.Y + in.Top,
		Width:  math.Max(0, parent.Width-in.Left-in.Right),
		Height: math.Max(0, parent.Height-in.Top-in.Bottom),
	}
}

// ImageRect returns where one copy of the style's texture lands inside box
func ImageRect(style domain.Style, box domain.Rect) (domain.Rect, bool) {
	tex := style.Texture
	if tex == nil || tex.Width() == 0 || tex.Height() == 0 {
		return domain.Rect{}, false
	}
	tw, th := float64(tex.Width()), float64(tex.Height())

	var w, h float64
	switch style.ImageSize.Kind {
	case domain.SizeCover:
		s := math.Max(box.Width/tw, box.Height/th)
		w, h = tw*s, th*s
	case domain.SizeContain:
		s := math.Min(box.Width/tw, box.Height/th)
		w, h = tw*s, th*s
	case domain.SizeStretch:
		return box, true
	default:
		w, h = style.ImageSize.Width, style.ImageSize.Height
	}
	if w <= 0 || h <= 0 {
		return domain.Rect{}, false
	}

	pos := style.ImagePosition
	return domain.Rect{
		X:      anchor(pos.Horizontal, box.X, box.Width, w) + pos.OffsetX,
		Y:      anchor(pos.Vertical, box.Y, box.Height, h) + pos.OffsetY,
		Width:  w,
		Height: h,
	}, true
}

func anchor(edge domain.Edge, start, span, size float64) float64 {
	switch edge {
	case domain.EdgeStart:
		return start
	case domain.EdgeEnd:
		return start + span - size
	default:
		return start + (span-size)/2
	}
}

// SourcePixel maps the point (x, y), in box coordinates, to the texture
// pixel drawn there. ok is false when no image covers the point.
func SourcePixel(style domain.Style, box domain.Rect, x, y float64) (px, py int, ok bool) {
	if !contains(box, x, y) {
		return 0, 0, false
	}
	r, ok := ImageRect(style, box)
	if !ok {
		return 0, 0, false
	}

	u, okX := axis(x-r.X, r.Width, style.RepeatX)
	v, okY := axis(y-r.Y, r.Height, style.RepeatY)
	if !okX || !okY {
		return 0, 0, false
	}

	tw, th := style.Texture.Width(), style.Texture.Height()
	px = min(tw-1, int(math.Floor(u*float64(tw))))
	py = min(th-1, int(math.Floor(v*float64(th))))
	return px, py, true
}

// axis returns the normalized position of d along a span of size
func axis(d, size float64, repeat bool) (float64, bool) {
	if repeat {
		d = math.Mod(d, size)
		if d < 0 {
			d += size
		}
	} else if d < 0 || d >= size {
		return 0, false
	}
	return d / size, true
}

func contains(r domain.Rect, x, y float64) bool {
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}
