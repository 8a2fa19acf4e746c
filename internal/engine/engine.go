package engine

import (
	"context"
	"time"

	"github.com/genricoloni/backdrop/internal/bounds"
	"github.com/genricoloni/backdrop/internal/decorator"
	"github.com/genricoloni/backdrop/internal/domain"
	"go.uber.org/zap"
)

// Resolver is the image side of the engine
type Resolver interface {
	decorator.ImageSource

	// Advance moves the slideshow to another folder image
	Advance() bool

	// Invalidate drops every cached image and selection
	Invalidate()

	Close() error
}

// Status is a point-in-time summary of the engine
type Status struct {
	Running    bool        `json:"running"`
	Enabled    bool        `json:"enabled"`
	GlobalMode bool        `json:"globalMode"`
	Windows    int         `json:"windows"`
	Decorated  int         `json:"decorated"`
	Bounds     domain.Rect `json:"bounds"`
}

// Engine keeps window decorations in sync with the window set and the settings.
// Every method must run on the host's frame goroutine.
type Engine struct {
	logger   *zap.Logger
	host     domain.Host
	settings domain.SettingsSource
	resolver Resolver
	tracker  *bounds.Tracker
	manager  *decorator.Manager

	ctx         context.Context
	last        domain.Settings
	hasLast     bool
	lastAdvance time.Time
	now         func() time.Time

	cancelFrame func()
	unsubscribe func()
}

// NewEngine creates a new synchronization engine
func NewEngine(
	logger *zap.Logger,
	host domain.Host,
	settings domain.SettingsSource,
	res Resolver,
	tracker *bounds.Tracker,
	manager *decorator.Manager,
) *Engine {
	return &Engine{
		logger:   logger,
		host:     host,
		settings: settings,
		resolver: res,
		tracker:  tracker,
		manager:  manager,
		ctx:      context.Background(),
		now:      time.Now,
	}
}

// Start subscribes to settings changes and hooks the per-frame tick.
// It returns immediately (non-blocking).
func (e *Engine) Start(ctx context.Context) error {
	e.logger.Info("Engine starting...")

	// The start context only bounds startup
	e.ctx = context.WithoutCancel(ctx)
	e.last, e.hasLast = e.settings.Values(), true
	e.unsubscribe = e.settings.Subscribe(e.OnSettingsChanged)
	e.cancelFrame = e.host.RegisterPerFrameCallback(e.Tick)
	return nil
}

// Stop unhooks the engine, removes every decoration and releases every texture
func (e *Engine) Stop(ctx context.Context) error {
	e.logger.Info("Engine stopping...")

	if e.cancelFrame != nil {
		e.cancelFrame()
		e.cancelFrame = nil
	}
	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}

	e.manager.Close()
	if err := e.resolver.Close(); err != nil {
		e.logger.Error("Failed to release backdrop images", zap.Error(err))
		return err
	}

	e.logger.Info("Decorations removed")
	return nil
}

// Tick is the per-frame pass: purge stale windows, recompute bounds in
// global mode, then decorate new windows and update tracked ones
func (e *Engine) Tick() {
	windows := e.host.EnumerateLiveWindows()
	e.manager.Purge(windows)

	s := e.settings.Values()
	if !s.Enabled {
		return
	}

	if e.slideshowDue(s) && e.resolver.Advance() {
		e.logger.Info("Slideshow advanced, rebuilding decorations")
		e.rebuild(windows, s)
		return
	}

	canvas := e.tracker.Bounds()
	if s.GlobalMode {
		canvas, _ = e.tracker.Update(windows)
	}

	for _, w := range windows {
		if w == nil || !w.Valid() {
			continue
		}
		if e.manager.Tracked(w.ID()) {
			e.manager.Update(e.ctx, w, s, canvas)
		} else {
			e.manager.Decorate(e.ctx, w, s, canvas)
		}
	}
}

// OnSettingsChanged tears everything down and rebuilds from scratch.
// Cached images survive unless the image source changed.
func (e *Engine) OnSettingsChanged() {
	s := e.settings.Values()
	prev, had := e.last, e.hasLast
	e.last, e.hasLast = s, true

	// Evaluated before the disabled check so a source edited while
	// disabled is not mistaken for the old one on re-enable
	stale := !had || sourceChanged(prev, s)

	if !s.Enabled {
		e.manager.RemoveAll()
		if stale {
			e.invalidate(s)
		}
		e.logger.Info("Backdrop disabled, decorations removed")
		return
	}

	if stale {
		e.invalidate(s)
	}

	windows := e.host.EnumerateLiveWindows()
	e.manager.Purge(windows)
	e.rebuild(windows, s)
}

// Refresh drops every cached image and rebuilds, picking up files that
// changed on disk
func (e *Engine) Refresh() {
	e.manager.ReleaseWindowTextures()
	e.resolver.Invalidate()

	windows := e.host.EnumerateLiveWindows()
	e.manager.Purge(windows)
	if s := e.settings.Values(); s.Enabled {
		e.rebuild(windows, s)
	}
}

// Status returns the current counters
func (e *Engine) Status() Status {
	s := e.settings.Values()
	tracked, decorated := e.manager.Counts()
	return Status{
		Running:    e.cancelFrame != nil,
		Enabled:    s.Enabled,
		GlobalMode: s.GlobalMode,
		Windows:    tracked,
		Decorated:  decorated,
		Bounds:     e.tracker.Bounds(),
	}
}

// rebuild removes every decoration and decorates windows again against
// bounds computed from this snapshot
func (e *Engine) rebuild(windows []domain.Window, s domain.Settings) {
	e.manager.RemoveAll()

	canvas := e.tracker.Bounds()
	if s.GlobalMode {
		canvas, _ = e.tracker.Update(windows)
	}
	for _, w := range windows {
		if w == nil || !w.Valid() {
			continue
		}
		e.manager.Decorate(e.ctx, w, s, canvas)
	}

	tracked, decorated := e.manager.Counts()
	e.logger.Debug("Decorations rebuilt",
		zap.Int("windows", tracked),
		zap.Int("decorated", decorated),
		zap.Stringer("bounds", canvas))
}

// invalidate releases every resolved image and restarts the slideshow clock
func (e *Engine) invalidate(s domain.Settings) {
	e.logger.Info("Image source changed, releasing cached images",
		zap.Stringer("mode", s.ImageSourceMode),
		zap.Bool("global", s.GlobalMode))
	e.manager.ReleaseWindowTextures()
	e.resolver.Invalidate()
	e.lastAdvance = time.Time{}
}

// slideshowDue reports whether the rotation interval elapsed. The first
// call only starts the clock.
func (e *Engine) slideshowDue(s domain.Settings) bool {
	if s.SlideshowInterval <= 0 || s.ImageSourceMode != domain.SourceFolder || s.PerWindowRandom() {
		return false
	}

	now := e.now()
	if e.lastAdvance.IsZero() {
		e.lastAdvance = now
		return false
	}
	interval := time.Duration(s.SlideshowInterval * float64(time.Second))
	if now.Sub(e.lastAdvance) < interval {
		return false
	}
	e.lastAdvance = now
	return true
}

// sourceChanged reports whether previously resolved images are stale
func sourceChanged(prev, next domain.Settings) bool {
	return prev.ImagePath != next.ImagePath ||
		prev.ImageSourceMode != next.ImageSourceMode ||
		prev.FolderPath != next.FolderPath ||
		prev.RandomPerWindow != next.RandomPerWindow ||
		prev.GlobalMode != next.GlobalMode
}
