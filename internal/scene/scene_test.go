package scene

import (
	"encoding/json"
	"image"
	"testing"

	"github.com/genricoloni/backdrop/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(nodes []domain.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name()
	}
	return out
}

func TestElement_InsertAndAppend(t *testing.T) {
	root := NewElement("root")
	root.Append(NewElement("content"))
	root.Insert(0, NewElement("bottom"))
	root.Insert(99, NewElement("top"))
	root.Insert(-3, NewElement("lowest"))

	assert.Equal(t, []string{"lowest", "bottom", "content", "top"}, names(root.Children()))
}

func TestElement_InsertMovesChild(t *testing.T) {
	a := NewElement("a")
	b := NewElement("b")
	child := NewElement("child")

	a.Append(child)
	b.Append(child)

	assert.Empty(t, a.Children())
	assert.Equal(t, []string{"child"}, names(b.Children()))
	assert.Same(t, b, child.Parent())
}

func TestElement_FindByNameAndRemove(t *testing.T) {
	root := NewElement("root")
	outer := NewElement("outer")
	inner := NewElement("inner")
	outer.Append(inner)
	root.Append(outer)

	assert.Same(t, inner, root.FindByName("inner"))
	assert.Nil(t, root.FindByName("missing"))
	assert.Nil(t, root.FindByName("root"), "search covers descendants only")

	inner.RemoveFromParent()
	inner.RemoveFromParent()
	assert.Nil(t, root.FindByName("inner"))
	assert.Equal(t, 1, root.Count("outer"))
}

func TestHost_ClosedWindowsReportedOnce(t *testing.T) {
	h := NewHost()
	h.AddWindow(2, domain.Rect{Width: 10, Height: 10})
	h.AddWindow(1, domain.Rect{Width: 10, Height: 10})

	live := h.EnumerateLiveWindows()
	require.Len(t, live, 2)
	assert.Equal(t, domain.WindowID(1), live[0].ID())

	h.Close(1)
	live = h.EnumerateLiveWindows()
	require.Len(t, live, 2)
	assert.True(t, live[0].Valid())
	assert.False(t, live[1].Valid())
	assert.Nil(t, live[1].RootNode())

	live = h.EnumerateLiveWindows()
	require.Len(t, live, 1)
	assert.Equal(t, domain.WindowID(2), live[0].ID())
}

func TestHost_FrameCallbacks(t *testing.T) {
	h := NewHost()
	var order []string
	cancelA := h.RegisterPerFrameCallback(func() { order = append(order, "a") })
	h.RegisterPerFrameCallback(func() { order = append(order, "b") })

	h.Frame()
	cancelA()
	h.Frame()

	assert.Equal(t, []string{"a", "b", "b"}, order)
}

func testTexture(w, h int) *domain.Texture {
	return domain.NewTexture("t", image.NewNRGBA(image.Rect(0, 0, w, h)), true)
}

func TestResolve(t *testing.T) {
	parent := domain.Rect{X: 10, Y: 20, Width: 100, Height: 50}

	fill := Resolve(parent, domain.Layout{Insets: domain.Insets{Left: 5, Right: 5, Top: 1}})
	assert.Equal(t, domain.Rect{X: 15, Y: 21, Width: 90, Height: 49}, fill)

	abs := Resolve(parent, domain.Layout{
		Mode:  domain.LayoutAbsolute,
		Frame: domain.Rect{X: -10, Y: 0, Width: 300, Height: 50},
	})
	assert.Equal(t, domain.Rect{X: 0, Y: 20, Width: 300, Height: 50}, abs)
}

func TestImageRect(t *testing.T) {
	box := domain.Rect{Width: 200, Height: 100}
	tex := testTexture(100, 100)

	tests := []struct {
		name  string
		style domain.Style
		want  domain.Rect
	}{
		{
			name:  "cover",
			style: domain.Style{Texture: tex, ImageSize: domain.ImageSize{Kind: domain.SizeCover}},
			want:  domain.Rect{X: 0, Y: -50, Width: 200, Height: 200},
		},
		{
			name:  "contain",
			style: domain.Style{Texture: tex, ImageSize: domain.ImageSize{Kind: domain.SizeContain}},
			want:  domain.Rect{X: 50, Y: 0, Width: 100, Height: 100},
		},
		{
			name:  "stretch",
			style: domain.Style{Texture: tex, ImageSize: domain.ImageSize{Kind: domain.SizeStretch}},
			want:  box,
		},
		{
			name: "explicit bottom right with offset",
			style: domain.Style{
				Texture:   tex,
				ImageSize: domain.ImageSize{Kind: domain.SizeExplicit, Width: 20, Height: 10},
				ImagePosition: domain.ImagePosition{
					Horizontal: domain.EdgeEnd,
					Vertical:   domain.EdgeEnd,
					OffsetX:    -5,
					OffsetY:    3,
				},
			},
			want: domain.Rect{X: 175, Y: 93, Width: 20, Height: 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ImageRect(tt.style, box)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := ImageRect(domain.Style{}, box)
	assert.False(t, ok, "no texture")
}

func TestSourcePixel(t *testing.T) {
	box := domain.Rect{Width: 100, Height: 100}
	tile := domain.Style{
		Texture:       testTexture(10, 10),
		ImageSize:     domain.ImageSize{Kind: domain.SizeExplicit, Width: 20, Height: 20},
		RepeatX:       true,
		RepeatY:       true,
		ImagePosition: domain.ImagePosition{Horizontal: domain.EdgeStart, Vertical: domain.EdgeStart},
	}

	px, py, ok := SourcePixel(tile, box, 45, 2)
	require.True(t, ok)
	assert.Equal(t, 2, px)
	assert.Equal(t, 1, py)

	once := tile
	once.RepeatX, once.RepeatY = false, false
	_, _, ok = SourcePixel(once, box, 45, 2)
	assert.False(t, ok, "outside the single copy")

	_, _, ok = SourcePixel(tile, box, 150, 2)
	assert.False(t, ok, "outside the node box")
}

func TestDump(t *testing.T) {
	h := NewHost()
	w := h.AddWindow(7, domain.Rect{Width: 40, Height: 30})
	h.SetTitle(7, "term")
	bg := NewElement("bg")
	bg.SetStyle(domain.Style{
		Texture: testTexture(4, 4),
		Tint:    domain.Color{R: 1, G: 1, B: 1, A: 1},
		Layout:  domain.Layout{Mode: domain.LayoutAbsolute, Frame: domain.Rect{X: -5, Width: 50, Height: 30}},
	})
	w.Root().Append(bg)

	data, err := Dump(h.EnumerateLiveWindows())
	require.NoError(t, err)

	var got []WindowDump
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "term", got[0].Title)
	require.NotNil(t, got[0].Root)
	require.Len(t, got[0].Root.Children, 1)
	child := got[0].Root.Children[0]
	assert.Equal(t, "absolute", child.Layout)
	assert.Equal(t, "FFFFFFFF", child.Tint)
	assert.Equal(t, -5.0, child.Frame.X)
}
