package decorator

import (
	"context"

	"github.com/genricoloni/backdrop/internal/domain"
	"go.uber.org/zap"
)

// Node names owned by the manager
const (
	BackgroundName      = "backdrop-background"
	BackgroundInnerName = "backdrop-background-inner"
	OverlayName         = "backdrop-overlay"
	BorderName          = "backdrop-border"
)

var ownedNames = [...]string{BackgroundName, OverlayName, BorderName}

// minTileSize is the smallest rendered tile edge
const minTileSize = 16.0

// ImageSource is what the manager needs from the image resolver
type ImageSource interface {
	Texture(ctx context.Context) (*domain.Texture, bool)
	RandomTexture(ctx context.Context) (*domain.Texture, bool)
	FolderImages() []string
}

// decoration is the set of nodes attached to one window
type decoration struct {
	window     domain.Window
	background domain.Node // outer node in global mode
	inner      domain.Node // global mode only
	overlay    domain.Node
	border     domain.Node
	exempt     bool
}

func (d *decoration) nodes() []domain.Node {
	var out []domain.Node
	for _, n := range [...]domain.Node{d.background, d.overlay, d.border} {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

// Manager owns the decoration nodes of every tracked window
type Manager struct {
	logger *zap.Logger
	host   domain.Host
	images ImageSource

	decorations map[domain.WindowID]*decoration

	// per-window random picks, owned by the manager
	windowTextures map[domain.WindowID]*domain.Texture
}

// NewManager creates a decoration manager
func NewManager(logger *zap.Logger, host domain.Host, images ImageSource) *Manager {
	return &Manager{
		logger:         logger,
		host:           host,
		images:         images,
		decorations:    make(map[domain.WindowID]*decoration),
		windowTextures: make(map[domain.WindowID]*domain.Texture),
	}
}

// Tracked reports whether the window has been seen since the last teardown
func (m *Manager) Tracked(id domain.WindowID) bool {
	_, ok := m.decorations[id]
	return ok
}

// Decorate attaches nodes to a window seen for the first time.
// Exempt windows are tracked with no nodes.
func (m *Manager) Decorate(ctx context.Context, w domain.Window, s domain.Settings, bounds domain.Rect) {
	if w == nil || !w.Valid() || m.Tracked(w.ID()) {
		return
	}
	root := w.RootNode()
	if root == nil {
		return
	}

	d := &decoration{window: w}
	m.decorations[w.ID()] = d
	if !w.Decoratable() {
		d.exempt = true
		m.logger.Debug("Window exempt from decoration", zap.Uint64("window", uint64(w.ID())))
		return
	}

	m.attachBackground(ctx, d, root, s, bounds)

	if s.OverlayEnabled {
		d.overlay = m.host.NewNode(OverlayName)
		d.overlay.SetStyle(domain.Style{
			Fill:               s.OverlayColor,
			HasFill:            true,
			PointerTransparent: true,
		})
		// Directly above the background, below everything else
		index := 0
		if d.background != nil {
			index = 1
		}
		root.Insert(index, d.overlay)
	}

	if s.BorderEnabled {
		d.border = m.host.NewNode(BorderName)
		d.border.SetStyle(domain.Style{
			BorderColor:        s.BorderColor,
			BorderWidth:        s.BorderWidth,
			PointerTransparent: true,
		})
		root.Append(d.border)
	}

	m.logger.Debug("Window decorated",
		zap.Uint64("window", uint64(w.ID())),
		zap.Bool("global", s.GlobalMode),
		zap.Bool("background", d.background != nil),
		zap.Bool("overlay", d.overlay != nil),
		zap.Bool("border", d.border != nil))
}

// Update refreshes a tracked window: the background is retried when it
// is missing, and in global mode the inner node follows the window
func (m *Manager) Update(ctx context.Context, w domain.Window, s domain.Settings, bounds domain.Rect) {
	if w == nil || !w.Valid() {
		return
	}
	d, ok := m.decorations[w.ID()]
	if !ok {
		return
	}
	if d.exempt == w.Decoratable() {
		// Capability flipped, start over for this window
		m.Remove(w.ID())
		m.Decorate(ctx, w, s, bounds)
		return
	}
	if d.exempt {
		return
	}
	d.window = w

	if d.background == nil {
		if root := w.RootNode(); root != nil && s.HasImageSource() {
			m.attachBackground(ctx, d, root, s, bounds)
		}
		return
	}

	if s.GlobalMode && d.inner != nil {
		st := d.inner.Style()
		frame := innerFrame(w.Position(), bounds)
		if st.Layout.Frame != frame {
			st.Layout.Frame = frame
			d.inner.SetStyle(st)
		}
	}
}

// attachBackground inserts the background at the bottom of root when an
// image is available
func (m *Manager) attachBackground(ctx context.Context, d *decoration, root domain.Node, s domain.Settings, bounds domain.Rect) {
	tex, ok := m.texture(ctx, d.window.ID(), s)
	if !ok {
		return
	}

	image := imageStyle(tex, s)
	bg := m.host.NewNode(BackgroundName)
	if s.GlobalMode {
		bg.SetStyle(domain.Style{ClipOverflow: true, PointerTransparent: true})
		inner := m.host.NewNode(BackgroundInnerName)
		image.Layout = domain.Layout{
			Mode:  domain.LayoutAbsolute,
			Frame: innerFrame(d.window.Position(), bounds),
		}
		inner.SetStyle(image)
		bg.Append(inner)
		d.inner = inner
	} else {
		bg.SetStyle(image)
	}

	root.Insert(0, bg)
	d.background = bg
}

// texture picks the per-window image when randomization applies, the
// shared one otherwise
func (m *Manager) texture(ctx context.Context, id domain.WindowID, s domain.Settings) (*domain.Texture, bool) {
	if !s.PerWindowRandom() || len(m.images.FolderImages()) == 0 {
		return m.images.Texture(ctx)
	}
	if tex, ok := m.windowTextures[id]; ok {
		return tex, true
	}
	tex, ok := m.images.RandomTexture(ctx)
	if ok {
		m.windowTextures[id] = tex
	}
	return tex, ok
}

// innerFrame places the canvas relative to the window origin
func innerFrame(window, bounds domain.Rect) domain.Rect {
	return domain.Rect{
		X:      bounds.X - window.X,
		Y:      bounds.Y - window.Y,
		Width:  bounds.Width,
		Height: bounds.Height,
	}
}

// imageStyle builds the textured style for the configured scale mode.
// Opacity folds into the tint alpha.
func imageStyle(tex *domain.Texture, s domain.Settings) domain.Style {
	st := domain.Style{
		Texture:            tex,
		Tint:               s.TintColor.WithAlpha(s.TintColor.A * s.Opacity),
		PointerTransparent: true,
	}

	switch s.ScaleMode {
	case domain.ScaleFit:
		st.ImageSize = domain.ImageSize{Kind: domain.SizeContain}
	case domain.ScaleStretch:
		st.ImageSize = domain.ImageSize{Kind: domain.SizeStretch}
	case domain.ScaleTile:
		w, h := tileSize(tex, s.TileScale)
		st.ImageSize = domain.ImageSize{Kind: domain.SizeExplicit, Width: w, Height: h}
		st.RepeatX, st.RepeatY = true, true
		st.ImagePosition = domain.ImagePosition{Horizontal: domain.EdgeStart, Vertical: domain.EdgeStart}
	case domain.ScaleCorner:
		st.ImageSize = domain.ImageSize{
			Kind:   domain.SizeExplicit,
			Width:  float64(tex.Width()) * s.TileScale,
			Height: float64(tex.Height()) * s.TileScale,
		}
		st.ImagePosition = cornerPosition(s)
	default:
		st.ImageSize = domain.ImageSize{Kind: domain.SizeCover}
	}
	return st
}

// tileSize scales the texture, growing it uniformly until both edges
// reach minTileSize
func tileSize(tex *domain.Texture, scale float64) (float64, float64) {
	w := float64(tex.Width()) * scale
	h := float64(tex.Height()) * scale
	if w <= 0 || h <= 0 {
		return minTileSize, minTileSize
	}
	if w < minTileSize || h < minTileSize {
		ratio := max(minTileSize/w, minTileSize/h)
		w *= ratio
		h *= ratio
	}
	return w, h
}

func cornerPosition(s domain.Settings) domain.ImagePosition {
	p := domain.ImagePosition{OffsetX: s.OffsetX, OffsetY: s.OffsetY}
	switch s.CornerPosition {
	case domain.CornerTopLeft:
		p.Horizontal, p.Vertical = domain.EdgeStart, domain.EdgeStart
	case domain.CornerTopRight:
		p.Horizontal, p.Vertical = domain.EdgeEnd, domain.EdgeStart
	case domain.CornerBottomLeft:
		p.Horizontal, p.Vertical = domain.EdgeStart, domain.EdgeEnd
	default:
		p.Horizontal, p.Vertical = domain.EdgeEnd, domain.EdgeEnd
	}
	return p
}
