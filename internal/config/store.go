package config

import (
	"math"
	"strings"

	"github.com/genricoloni/backdrop/internal/domain"
	"go.uber.org/zap"
)

// maxNotifyRounds bounds how often handlers that mutate the store during a
// notification can cause another round
const maxNotifyRounds = 4

type floatRange struct{ lo, hi float64 }

func (r floatRange) clamp(v float64) float64 { return min(max(v, r.lo), r.hi) }

var (
	opacityRange     = floatRange{0, 1}
	tileScaleRange   = floatRange{0.01, 5}
	offsetRange      = floatRange{-500, 500}
	borderWidthRange = floatRange{1, 10}
	slideshowRange   = floatRange{0, 86400}
)

// Defaults returns the documented default value of every field
func Defaults() domain.Settings {
	return domain.Settings{
		Enabled:         true,
		ImageSourceMode: domain.SourceSingleFile,
		Opacity:         0.08,
		ScaleMode:       domain.ScaleCover,
		TileScale:       1,
		CornerPosition:  domain.CornerBottomRight,
		TintColor:       mustColor("FFFFFFFF"),
		GlobalMode:      true,
		OverlayColor:    mustColor("334CCC1A"),
		BorderColor:     mustColor("6699FF80"),
		BorderWidth:     2,
	}
}

func mustColor(hex string) domain.Color {
	c, err := ParseColor(hex)
	if err != nil {
		panic(err)
	}
	return c
}

type observer struct {
	id int
	fn func()
}

// Store owns the persisted settings. Every setter clamps its input, ignores
// writes that do not change the value, and otherwise persists the whole
// record and notifies subscribers once.
//
// The store is not safe for concurrent use; it lives on the frame loop.
type Store struct {
	logger    *zap.Logger
	backend   backend
	values    domain.Settings
	observers []observer
	nextID    int
	notifying bool
	pending   bool
}

// NewStore creates a store persisting to path; the format follows the extension.
// The store starts at the defaults; call Load to read persisted state.
func NewStore(logger *zap.Logger, path string) (*Store, error) {
	b, err := newBackend(path, logger)
	if err != nil {
		return nil, err
	}
	return &Store{
		logger:  logger,
		backend: b,
		values:  Defaults(),
	}, nil
}

// NewLoadedStore creates a store from the application configuration and loads it
func NewLoadedStore(logger *zap.Logger, cfg *AppConfig) (*Store, error) {
	s, err := NewStore(logger, cfg.GetSettingsPath())
	if err != nil {
		return nil, err
	}
	s.Load()
	return s, nil
}

// Load replaces the in-memory values with the persisted ones. It never
// fails: unreadable or corrupt state falls back to defaults and is logged.
func (s *Store) Load() {
	doc, found, err := s.backend.load()
	switch {
	case err != nil:
		s.logger.Warn("Failed to load settings, using defaults",
			zap.String("backend", s.backend.String()),
			zap.Error(err))
		s.values = Defaults()
	case !found:
		s.logger.Info("No persisted settings, using defaults",
			zap.String("backend", s.backend.String()))
		s.values = Defaults()
	default:
		s.values = doc.settings(s.logger)
		s.logger.Info("Settings loaded", zap.String("backend", s.backend.String()))
	}
}

// Reload re-reads persisted state and notifies once if anything changed
func (s *Store) Reload() bool {
	before := s.values
	s.Load()
	if before == s.values {
		return false
	}
	s.notify()
	return true
}

// Save writes every field at once
func (s *Store) Save() error {
	return s.backend.save(documentFrom(s.values))
}

// ResetToDefault restores every default, persists and notifies once
func (s *Store) ResetToDefault() {
	s.values = Defaults()
	s.persist()
	s.notify()
}

// Close releases the persistence backend
func (s *Store) Close() error {
	return s.backend.close()
}

// Subscribe registers fn to run synchronously after every committed change
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
	s.nextID++
	id := s.nextID
	s.observers = append(s.observers, observer{id: id, fn: fn})
	return func() {
		for i, o := range s.observers {
			if o.id == id {
				s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

// Values returns a snapshot of all fields
func (s *Store) Values() domain.Settings { return s.values }

func (s *Store) Enabled() bool                          { return s.values.Enabled }
func (s *Store) ImageSourceMode() domain.ImageSourceMode { return s.values.ImageSourceMode }
func (s *Store) ImagePath() string                      { return s.values.ImagePath }
func (s *Store) FolderPath() string                     { return s.values.FolderPath }
func (s *Store) Opacity() float64                       { return s.values.Opacity }
func (s *Store) ScaleMode() domain.ScaleMode            { return s.values.ScaleMode }
func (s *Store) TileScale() float64                     { return s.values.TileScale }
func (s *Store) CornerPosition() domain.CornerPosition  { return s.values.CornerPosition }
func (s *Store) OffsetX() float64                       { return s.values.OffsetX }
func (s *Store) OffsetY() float64                       { return s.values.OffsetY }
func (s *Store) TintColor() domain.Color                { return s.values.TintColor }
func (s *Store) GlobalMode() bool                       { return s.values.GlobalMode }
func (s *Store) OverlayEnabled() bool                   { return s.values.OverlayEnabled }
func (s *Store) OverlayColor() domain.Color             { return s.values.OverlayColor }
func (s *Store) BorderEnabled() bool                    { return s.values.BorderEnabled }
func (s *Store) BorderColor() domain.Color              { return s.values.BorderColor }
func (s *Store) BorderWidth() float64                   { return s.values.BorderWidth }
func (s *Store) SlideshowInterval() float64             { return s.values.SlideshowInterval }
func (s *Store) RandomPerWindow() bool                  { return s.values.RandomPerWindow }

func (s *Store) SetEnabled(v bool) bool         { return s.setBool(&s.values.Enabled, v) }
func (s *Store) SetGlobalMode(v bool) bool      { return s.setBool(&s.values.GlobalMode, v) }
func (s *Store) SetOverlayEnabled(v bool) bool  { return s.setBool(&s.values.OverlayEnabled, v) }
func (s *Store) SetBorderEnabled(v bool) bool   { return s.setBool(&s.values.BorderEnabled, v) }
func (s *Store) SetRandomPerWindow(v bool) bool { return s.setBool(&s.values.RandomPerWindow, v) }

func (s *Store) SetImagePath(v string) bool  { return s.setString(&s.values.ImagePath, v) }
func (s *Store) SetFolderPath(v string) bool { return s.setString(&s.values.FolderPath, v) }

func (s *Store) SetOpacity(v float64) bool     { return s.setFloat(&s.values.Opacity, v, opacityRange) }
func (s *Store) SetTileScale(v float64) bool   { return s.setFloat(&s.values.TileScale, v, tileScaleRange) }
func (s *Store) SetOffsetX(v float64) bool     { return s.setFloat(&s.values.OffsetX, v, offsetRange) }
func (s *Store) SetOffsetY(v float64) bool     { return s.setFloat(&s.values.OffsetY, v, offsetRange) }
func (s *Store) SetBorderWidth(v float64) bool { return s.setFloat(&s.values.BorderWidth, v, borderWidthRange) }

// SetSlideshowInterval sets the rotation period in seconds; 0 disables it
func (s *Store) SetSlideshowInterval(v float64) bool {
	return s.setFloat(&s.values.SlideshowInterval, v, slideshowRange)
}

func (s *Store) SetTintColor(v domain.Color) bool    { return s.setColor(&s.values.TintColor, v) }
func (s *Store) SetOverlayColor(v domain.Color) bool { return s.setColor(&s.values.OverlayColor, v) }
func (s *Store) SetBorderColor(v domain.Color) bool  { return s.setColor(&s.values.BorderColor, v) }

// SetImageSourceMode clamps unknown ordinals to the nearest known mode
func (s *Store) SetImageSourceMode(v domain.ImageSourceMode) bool {
	v = domain.ImageSourceMode(clampOrdinal(int(v), int(domain.SourceSingleFile), int(domain.SourceFolder)))
	if s.values.ImageSourceMode == v {
		return false
	}
	s.values.ImageSourceMode = v
	return s.commit()
}

// SetScaleMode clamps unknown ordinals to the nearest known mode
func (s *Store) SetScaleMode(v domain.ScaleMode) bool {
	v = domain.ScaleMode(clampOrdinal(int(v), int(domain.ScaleCover), int(domain.ScaleCorner)))
	if s.values.ScaleMode == v {
		return false
	}
	s.values.ScaleMode = v
	return s.commit()
}

// SetCornerPosition clamps unknown ordinals to the nearest known corner
func (s *Store) SetCornerPosition(v domain.CornerPosition) bool {
	v = domain.CornerPosition(clampOrdinal(int(v), int(domain.CornerTopLeft), int(domain.CornerBottomRight)))
	if s.values.CornerPosition == v {
		return false
	}
	s.values.CornerPosition = v
	return s.commit()
}

func (s *Store) setBool(dst *bool, v bool) bool {
	if *dst == v {
		return false
	}
	*dst = v
	return s.commit()
}

func (s *Store) setString(dst *string, v string) bool {
	v = strings.TrimSpace(v)
	if *dst == v {
		return false
	}
	*dst = v
	return s.commit()
}

func (s *Store) setFloat(dst *float64, v float64, r floatRange) bool {
	if math.IsNaN(v) {
		s.logger.Debug("Ignoring NaN setting value")
		return false
	}
	v = r.clamp(v)
	if approxEqual(*dst, v) {
		return false
	}
	*dst = v
	return s.commit()
}

func (s *Store) setColor(dst *domain.Color, v domain.Color) bool {
	v = quantizeColor(v)
	if colorsEqual(*dst, v) {
		return false
	}
	*dst = v
	return s.commit()
}

func (s *Store) commit() bool {
	s.persist()
	s.notify()
	return true
}

func (s *Store) persist() {
	if err := s.Save(); err != nil {
		s.logger.Warn("Failed to save settings",
			zap.String("backend", s.backend.String()),
			zap.Error(err))
	}
}

// notify runs every observer. A change committed by an observer while the
// round is running is folded into one follow-up round.
func (s *Store) notify() {
	if s.notifying {
		s.pending = true
		return
	}
	s.notifying = true
	defer func() { s.notifying = false }()

	for round := 1; ; round++ {
		s.pending = false
		observers := append([]observer(nil), s.observers...)
		for _, o := range observers {
			o.fn()
		}
		if !s.pending {
			return
		}
		if round >= maxNotifyRounds {
			s.logger.Warn("Dropping nested settings notification", zap.Int("rounds", round))
			s.pending = false
			return
		}
	}
}

func clampOrdinal(v, lo, hi int) int { return min(max(v, lo), hi) }

// approxEqual mirrors single-precision tolerance: values within a few ulps of
// a float32 are the same setting
func approxEqual(a, b float64) bool {
	diff := math.Abs(a - b)
	return diff < max(1e-6*max(math.Abs(a), math.Abs(b)), 1e-9)
}
