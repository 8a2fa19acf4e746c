package x11

import (
	"strings"

	"github.com/genricoloni/backdrop/internal/config"
	"github.com/genricoloni/backdrop/internal/domain"
	"github.com/genricoloni/backdrop/internal/scene"
	"go.uber.org/zap"
)

// ClientWindow is one managed window as reported by the window manager
type ClientWindow struct {
	ID     uint32
	Rect   domain.Rect
	Class  string
	Title  string
	Normal bool // _NET_WM_WINDOW_TYPE is normal or unset
	Hidden bool // _NET_WM_STATE_HIDDEN
}

// windowSource lists the current client windows
type windowSource interface {
	Windows() ([]ClientWindow, error)
	Close() error
}

// Scheduler runs per-frame callbacks
type Scheduler interface {
	RegisterPerFrameCallback(fn func()) (cancel func())
}

// Host mirrors the X11 client list into scene windows, refreshed at the
// start of every frame
type Host struct {
	logger    *zap.Logger
	source    windowSource
	scene     *scene.Host
	scheduler Scheduler
	exempt    map[string]bool

	cancel  func()
	failing bool
}

// NewHost connects to the X server. Without one the host stays empty
// and the daemon idles.
func NewHost(logger *zap.Logger, cfg *config.AppConfig, scheduler Scheduler) *Host {
	source, err := newSource()
	if err != nil {
		logger.Warn("X11 unavailable, no windows will be decorated", zap.Error(err))
		source = emptySource{}
	}
	return newHost(logger, source, scheduler, cfg.GetExemptClasses())
}

func newHost(logger *zap.Logger, source windowSource, scheduler Scheduler, exemptClasses []string) *Host {
	h := &Host{
		logger:    logger,
		source:    source,
		scene:     scene.NewHost(),
		scheduler: scheduler,
		exempt:    make(map[string]bool, len(exemptClasses)),
	}
	for _, c := range exemptClasses {
		h.exempt[strings.ToLower(c)] = true
	}
	// Registered first so every later callback sees this frame's geometry
	h.cancel = scheduler.RegisterPerFrameCallback(h.Refresh)
	return h
}

// Refresh reads the client list and updates the mirrored windows
func (h *Host) Refresh() {
	clients, err := h.source.Windows()
	if err != nil {
		if !h.failing {
			h.logger.Warn("Failed to list X11 windows, keeping last snapshot", zap.Error(err))
			h.failing = true
		}
		return
	}
	if h.failing {
		h.logger.Info("X11 window listing recovered")
		h.failing = false
	}

	seen := make(map[domain.WindowID]bool, len(clients))
	for _, c := range clients {
		id := domain.WindowID(c.ID)
		seen[id] = true
		h.scene.AddWindow(id, c.Rect)
		h.scene.SetDecoratable(id, h.decoratable(c))
		h.scene.SetTitle(id, c.Title)
	}
	for _, id := range h.scene.IDs() {
		if !seen[id] {
			h.logger.Debug("Window left the client list", zap.Uint64("window", uint64(id)))
			h.scene.Close(id)
		}
	}
}

func (h *Host) decoratable(c ClientWindow) bool {
	return c.Normal && !c.Hidden && !h.exempt[strings.ToLower(c.Class)]
}

func (h *Host) EnumerateLiveWindows() []domain.Window { return h.scene.EnumerateLiveWindows() }

func (h *Host) NewNode(name string) domain.Node { return h.scene.NewNode(name) }

func (h *Host) RegisterPerFrameCallback(fn func()) (cancel func()) {
	return h.scheduler.RegisterPerFrameCallback(fn)
}

// Close stops refreshing and disconnects
func (h *Host) Close() error {
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
	return h.source.Close()
}

type emptySource struct{}

func (emptySource) Windows() ([]ClientWindow, error) { return nil, nil }
func (emptySource) Close() error                     { return nil }
