package domain

import "image"

// Texture is a decoded image resource handed to decoration nodes.
// External textures were loaded from the filesystem by this process and
// must be released by their owner; managed textures belong to the asset store.
type Texture struct {
	Key      string
	Image    image.Image
	External bool

	width    int
	height   int
	released bool
}

// NewTexture wraps a decoded image
func NewTexture(key string, img image.Image, external bool) *Texture {
	b := img.Bounds()
	return &Texture{
		Key:      key,
		Image:    img,
		External: external,
		width:    b.Dx(),
		height:   b.Dy(),
	}
}

// Width returns the native pixel width
func (t *Texture) Width() int { return t.width }

// Height returns the native pixel height
func (t *Texture) Height() int { return t.height }

// Release drops the pixel data. It is safe to call more than once.
func (t *Texture) Release() {
	if t == nil || t.released {
		return
	}
	t.Image = nil
	t.released = true
}

// Released reports whether Release has been called
func (t *Texture) Released() bool { return t != nil && t.released }
