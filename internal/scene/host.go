package scene

import (
	"sort"
	"sync"

	"github.com/genricoloni/backdrop/internal/domain"
)

// RootName is the name given to every window root element
const RootName = "window-root"

// Window is a host window backed by an Element tree
type Window struct {
	id          domain.WindowID
	position    domain.Rect
	root        *Element
	valid       bool
	decoratable bool
	title       string
}

func (w *Window) ID() domain.WindowID { return w.id }
func (w *Window) Valid() bool         { return w.valid }
func (w *Window) Decoratable() bool   { return w.decoratable }
func (w *Window) Title() string       { return w.title }

func (w *Window) Position() domain.Rect { return w.position }

// RootNode returns nil once the window is closed
func (w *Window) RootNode() domain.Node {
	if !w.valid {
		return nil
	}
	return w.root
}

// Root returns the element tree even after the window closed
func (w *Window) Root() *Element { return w.root }

// Host keeps a set of windows and per-frame callbacks.
// Closed windows stay in the next snapshot as invalid handles, then vanish.
type Host struct {
	mu        sync.Mutex
	windows   map[domain.WindowID]*Window
	closed    []*Window
	callbacks map[int]func()
	nextID    int
}

// NewHost creates an empty host
func NewHost() *Host {
	return &Host{
		windows:   make(map[domain.WindowID]*Window),
		callbacks: make(map[int]func()),
	}
}

// AddWindow opens a decoratable window, or returns the existing one with its geometry updated
func (h *Host) AddWindow(id domain.WindowID, position domain.Rect) *Window {
	h.mu.Lock()
	defer h.mu.Unlock()

	if w, ok := h.windows[id]; ok {
		w.position = position
		return w
	}
	w := &Window{
		id:          id,
		position:    position,
		root:        NewElement(RootName),
		valid:       true,
		decoratable: true,
	}
	h.windows[id] = w
	return w
}

// Window returns the open window with id
func (h *Host) Window(id domain.WindowID) (*Window, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, ok := h.windows[id]
	return w, ok
}

// Move changes a window's geometry
func (h *Host) Move(id domain.WindowID, position domain.Rect) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if w, ok := h.windows[id]; ok {
		w.position = position
	}
}

// SetDecoratable changes the capability flag of a window
func (h *Host) SetDecoratable(id domain.WindowID, decoratable bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if w, ok := h.windows[id]; ok {
		w.decoratable = decoratable
	}
}

// SetTitle records a human readable label for dumps
func (h *Host) SetTitle(id domain.WindowID, title string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if w, ok := h.windows[id]; ok {
		w.title = title
	}
}

// Close destroys a window. Its handle turns invalid immediately.
func (h *Host) Close(id domain.WindowID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, ok := h.windows[id]
	if !ok {
		return
	}
	w.valid = false
	delete(h.windows, id)
	h.closed = append(h.closed, w)
}

// IDs returns the ids of every open window
func (h *Host) IDs() []domain.WindowID {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := make([]domain.WindowID, 0, len(h.windows))
	for id := range h.windows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// EnumerateLiveWindows returns open windows ordered by id, followed by
// windows closed since the previous call
func (h *Host) EnumerateLiveWindows() []domain.Window {
	h.mu.Lock()
	defer h.mu.Unlock()

	open := make([]*Window, 0, len(h.windows))
	for _, w := range h.windows {
		open = append(open, w)
	}
	sort.Slice(open, func(i, j int) bool { return open[i].id < open[j].id })

	out := make([]domain.Window, 0, len(open)+len(h.closed))
	for _, w := range open {
		out = append(out, w)
	}
	for _, w := range h.closed {
		out = append(out, w)
	}
	h.closed = nil
	return out
}

func (h *Host) NewNode(name string) domain.Node {
	return NewElement(name)
}

func (h *Host) RegisterPerFrameCallback(fn func()) (cancel func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	h.callbacks[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.callbacks, id)
	}
}

// Frame runs every registered callback once, in registration order
func (h *Host) Frame() {
	h.mu.Lock()
	ids := make([]int, 0, len(h.callbacks))
	for id := range h.callbacks {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, h.callbacks[id])
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
