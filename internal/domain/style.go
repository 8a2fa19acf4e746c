package domain

// LayoutMode selects how a node is placed inside its parent
type LayoutMode int

const (
	// LayoutFill stretches the node to the parent minus Insets
	LayoutFill LayoutMode = iota
	// LayoutAbsolute places the node at Frame, relative to the parent origin
	LayoutAbsolute
)

// Insets are distances from the parent's edges
type Insets struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// Layout positions a node
type Layout struct {
	Mode   LayoutMode
	Insets Insets
	Frame  Rect
}

// ImageSizeKind selects how a texture is sized inside its node
type ImageSizeKind int

const (
	SizeCover ImageSizeKind = iota
	SizeContain
	SizeStretch
	SizeExplicit
)

// ImageSize is the rendered size of a texture; Width and Height are used by SizeExplicit
type ImageSize struct {
	Kind   ImageSizeKind
	Width  float64
	Height float64
}

// Edge anchors an image along one axis
type Edge int

const (
	EdgeCenter Edge = iota
	EdgeStart       // left or top
	EdgeEnd         // right or bottom
)

// ImagePosition anchors a texture inside its node. Positive offsets move
// the image right and down regardless of the anchoring edge.
type ImagePosition struct {
	Horizontal Edge
	Vertical   Edge
	OffsetX    float64
	OffsetY    float64
}

// Style is the visual state of a node
type Style struct {
	Layout Layout

	Texture       *Texture
	ImageSize     ImageSize
	RepeatX       bool
	RepeatY       bool
	ImagePosition ImagePosition
	Tint          Color

	Fill    Color
	HasFill bool

	BorderColor Color
	BorderWidth float64

	ClipOverflow       bool
	PointerTransparent bool
}
