package domain

import (
	"context"
	"image"
)

// Node is one element of a window's visual node tree
type Node interface {
	// Name identifies the node for FindByName
	Name() string

	// Insert adds child at index (clamped to the child count); index 0 is the bottom of the stack
	Insert(index int, child Node)

	// Append adds child on top of all existing children
	Append(child Node)

	// FindByName searches the subtree below this node, depth first
	// Returns nil when nothing matches
	FindByName(name string) Node

	// RemoveFromParent detaches the node; a no-op for detached nodes
	RemoveFromParent()

	// Children returns the direct children, bottom first
	Children() []Node

	Style() Style
	SetStyle(Style)
}

// Window is a host window observed, never owned, by the core.
// A handle may become invalid at any point between ticks.
type Window interface {
	ID() WindowID

	// Valid reports whether the host window still exists
	Valid() bool

	// Position returns the current screen geometry
	Position() Rect

	// RootNode returns the root of the window's node tree, nil once invalid
	RootNode() Node

	// Decoratable is the host capability flag; false for exempt windows
	Decoratable() bool
}

// Host is the narrow surface the core consumes from the windowing host
type Host interface {
	// EnumerateLiveWindows returns a snapshot that may contain invalid handles
	EnumerateLiveWindows() []Window

	// NewNode creates a detached node
	NewNode(name string) Node

	// RegisterPerFrameCallback runs fn on every idle tick until cancel is called
	RegisterPerFrameCallback(fn func()) (cancel func())
}

// AssetStore resolves images living in the host's managed content store
type AssetStore interface {
	// LoadManagedImage returns a texture owned by the store
	LoadManagedImage(ctx context.Context, path string) (*Texture, error)
}

// Fetcher defines the interface for reading raw image bytes
type Fetcher interface {
	// Fetch reads the raw bytes of the image at an absolute path
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// ImageDecoder turns raw bytes into an image
// This is OS-agnostic and works purely with byte streams
type ImageDecoder interface {
	Decode(data []byte) (image.Image, error)
}

// SettingsSource is the read side of the configuration store
type SettingsSource interface {
	Values() Settings
	Subscribe(fn func()) (unsubscribe func())
}
