package domain

import "fmt"

// WindowID is the stable identity token of a host window
type WindowID uint64

// Rect is an axis-aligned rectangle in screen coordinates
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Right returns the x coordinate of the right edge
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Empty reports whether the rectangle has no area
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

func (r Rect) String() string {
	return fmt.Sprintf("(%g,%g %gx%g)", r.X, r.Y, r.Width, r.Height)
}

// Color is a straight-alpha RGBA color with channels in 0..1
type Color struct {
	R float64
	G float64
	B float64
	A float64
}

// WithAlpha returns a copy of c with the alpha channel replaced
func (c Color) WithAlpha(a float64) Color {
	c.A = a
	return c
}

// ImageSourceMode selects where the backdrop image comes from
type ImageSourceMode int

const (
	// SourceSingleFile uses the configured image path
	SourceSingleFile ImageSourceMode = iota
	// SourceFolder picks images from the configured folder
	SourceFolder
)

// Valid reports whether m is a known mode
func (m ImageSourceMode) Valid() bool { return m == SourceSingleFile || m == SourceFolder }

func (m ImageSourceMode) String() string {
	switch m {
	case SourceSingleFile:
		return "single-file"
	case SourceFolder:
		return "folder"
	default:
		return fmt.Sprintf("ImageSourceMode(%d)", int(m))
	}
}

// ScaleMode controls how the image is sized inside its node
type ScaleMode int

const (
	// ScaleCover scales uniformly until the area is fully covered
	ScaleCover ScaleMode = iota
	// ScaleFit scales uniformly until the image fits inside the area
	ScaleFit
	// ScaleStretch scales each axis independently to fill the area
	ScaleStretch
	// ScaleTile repeats the image at tileScale times its native size
	ScaleTile
	// ScaleCorner draws the image once, anchored to a corner
	ScaleCorner
)

// Valid reports whether m is a known scale mode
func (m ScaleMode) Valid() bool { return m >= ScaleCover && m <= ScaleCorner }

func (m ScaleMode) String() string {
	switch m {
	case ScaleCover:
		return "cover"
	case ScaleFit:
		return "fit"
	case ScaleStretch:
		return "stretch"
	case ScaleTile:
		return "tile"
	case ScaleCorner:
		return "corner"
	default:
		return fmt.Sprintf("ScaleMode(%d)", int(m))
	}
}

// CornerPosition is the anchor used by ScaleCorner
type CornerPosition int

const (
	CornerTopLeft CornerPosition = iota
	CornerTopRight
	CornerBottomLeft
	CornerBottomRight
)

// Valid reports whether c is a known corner
func (c CornerPosition) Valid() bool { return c >= CornerTopLeft && c <= CornerBottomRight }

func (c CornerPosition) String() string {
	switch c {
	case CornerTopLeft:
		return "top-left"
	case CornerTopRight:
		return "top-right"
	case CornerBottomLeft:
		return "bottom-left"
	case CornerBottomRight:
		return "bottom-right"
	default:
		return fmt.Sprintf("CornerPosition(%d)", int(c))
	}
}

// Settings is a snapshot of every persisted configuration field
type Settings struct {
	Enabled           bool
	ImageSourceMode   ImageSourceMode
	ImagePath         string
	FolderPath        string
	Opacity           float64
	ScaleMode         ScaleMode
	TileScale         float64
	CornerPosition    CornerPosition
	OffsetX           float64
	OffsetY           float64
	TintColor         Color
	GlobalMode        bool
	OverlayEnabled    bool
	OverlayColor      Color
	BorderEnabled     bool
	BorderColor       Color
	BorderWidth       float64
	SlideshowInterval float64 // seconds, 0 disables rotation
	RandomPerWindow   bool
}

// PerWindowRandom reports whether each window should get its own folder image.
// Folder emptiness is checked by the caller.
func (s Settings) PerWindowRandom() bool {
	return s.ImageSourceMode == SourceFolder && s.RandomPerWindow && !s.GlobalMode
}

// HasImageSource reports whether a background image is configured at all
func (s Settings) HasImageSource() bool {
	if s.ImageSourceMode == SourceFolder {
		return s.FolderPath != ""
	}
	return s.ImagePath != ""
}

// DisplayLayout describes the physical displays found at startup
type DisplayLayout struct {
	Bounds Rect // union of every display
	Count  int
}
