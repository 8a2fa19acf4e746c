package config

import (
	"fmt"
	"math"
	"strconv"

	"github.com/genricoloni/backdrop/internal/domain"
	"go.uber.org/zap"
)

// document is the persisted shape of the settings: enums as ordinals, colors as RRGGBBAA
type document struct {
	Enabled           bool    `json:"enabled" yaml:"enabled" toml:"enabled"`
	ImageSourceMode   int     `json:"imageSourceMode" yaml:"imageSourceMode" toml:"imageSourceMode"`
	ImagePath         string  `json:"imagePath" yaml:"imagePath" toml:"imagePath"`
	ImageFolderPath   string  `json:"imageFolderPath" yaml:"imageFolderPath" toml:"imageFolderPath"`
	Opacity           float64 `json:"opacity" yaml:"opacity" toml:"opacity"`
	ScaleMode         int     `json:"scaleMode" yaml:"scaleMode" toml:"scaleMode"`
	TileScale         float64 `json:"tileScale" yaml:"tileScale" toml:"tileScale"`
	CornerPosition    int     `json:"cornerPosition" yaml:"cornerPosition" toml:"cornerPosition"`
	OffsetX           float64 `json:"offsetX" yaml:"offsetX" toml:"offsetX"`
	OffsetY           float64 `json:"offsetY" yaml:"offsetY" toml:"offsetY"`
	TintColor         string  `json:"tintColor" yaml:"tintColor" toml:"tintColor"`
	GlobalMode        bool    `json:"globalMode" yaml:"globalMode" toml:"globalMode"`
	OverlayEnabled    bool    `json:"overlayEnabled" yaml:"overlayEnabled" toml:"overlayEnabled"`
	OverlayColor      string  `json:"overlayColor" yaml:"overlayColor" toml:"overlayColor"`
	BorderEnabled     bool    `json:"borderEnabled" yaml:"borderEnabled" toml:"borderEnabled"`
	BorderColor       string  `json:"borderColor" yaml:"borderColor" toml:"borderColor"`
	BorderWidth       float64 `json:"borderWidth" yaml:"borderWidth" toml:"borderWidth"`
	SlideshowInterval float64 `json:"slideshowInterval" yaml:"slideshowInterval" toml:"slideshowInterval"`
	RandomPerWindow   bool    `json:"randomPerWindow" yaml:"randomPerWindow" toml:"randomPerWindow"`
}

func documentFrom(s domain.Settings) document {
	return document{
		Enabled:           s.Enabled,
		ImageSourceMode:   int(s.ImageSourceMode),
		ImagePath:         s.ImagePath,
		ImageFolderPath:   s.FolderPath,
		Opacity:           s.Opacity,
		ScaleMode:         int(s.ScaleMode),
		TileScale:         s.TileScale,
		CornerPosition:    int(s.CornerPosition),
		OffsetX:           s.OffsetX,
		OffsetY:           s.OffsetY,
		TintColor:         FormatColor(s.TintColor),
		GlobalMode:        s.GlobalMode,
		OverlayEnabled:    s.OverlayEnabled,
		OverlayColor:      FormatColor(s.OverlayColor),
		BorderEnabled:     s.BorderEnabled,
		BorderColor:       FormatColor(s.BorderColor),
		BorderWidth:       s.BorderWidth,
		SlideshowInterval: s.SlideshowInterval,
		RandomPerWindow:   s.RandomPerWindow,
	}
}

// settings converts the document back, replacing corrupt fields with their
// defaults and clamping everything into range
func (d document) settings(logger *zap.Logger) domain.Settings {
	def := Defaults()
	s := domain.Settings{
		Enabled:         d.Enabled,
		ImagePath:       d.ImagePath,
		FolderPath:      d.ImageFolderPath,
		GlobalMode:      d.GlobalMode,
		OverlayEnabled:  d.OverlayEnabled,
		BorderEnabled:   d.BorderEnabled,
		RandomPerWindow: d.RandomPerWindow,
	}

	s.ImageSourceMode = domain.ImageSourceMode(d.ImageSourceMode)
	if !s.ImageSourceMode.Valid() {
		logger.Warn("Corrupt setting, using default", zap.String("field", "imageSourceMode"), zap.Int("value", d.ImageSourceMode))
		s.ImageSourceMode = def.ImageSourceMode
	}
	s.ScaleMode = domain.ScaleMode(d.ScaleMode)
	if !s.ScaleMode.Valid() {
		logger.Warn("Corrupt setting, using default", zap.String("field", "scaleMode"), zap.Int("value", d.ScaleMode))
		s.ScaleMode = def.ScaleMode
	}
	s.CornerPosition = domain.CornerPosition(d.CornerPosition)
	if !s.CornerPosition.Valid() {
		logger.Warn("Corrupt setting, using default", zap.String("field", "cornerPosition"), zap.Int("value", d.CornerPosition))
		s.CornerPosition = def.CornerPosition
	}

	floatField := func(name string, v, fallback float64, r floatRange) float64 {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			logger.Warn("Corrupt setting, using default", zap.String("field", name), zap.Float64("value", v))
			return fallback
		}
		return r.clamp(v)
	}
	s.Opacity = floatField("opacity", d.Opacity, def.Opacity, opacityRange)
	s.TileScale = floatField("tileScale", d.TileScale, def.TileScale, tileScaleRange)
	s.OffsetX = floatField("offsetX", d.OffsetX, def.OffsetX, offsetRange)
	s.OffsetY = floatField("offsetY", d.OffsetY, def.OffsetY, offsetRange)
	s.BorderWidth = floatField("borderWidth", d.BorderWidth, def.BorderWidth, borderWidthRange)
	s.SlideshowInterval = floatField("slideshowInterval", d.SlideshowInterval, def.SlideshowInterval, slideshowRange)

	colorField := func(name, raw string, fallback domain.Color) domain.Color {
		c, err := ParseColor(raw)
		if err != nil {
			logger.Warn("Corrupt setting, using default", zap.String("field", name), zap.Error(err))
			return fallback
		}
		return c
	}
	s.TintColor = colorField("tintColor", d.TintColor, def.TintColor)
	s.OverlayColor = colorField("overlayColor", d.OverlayColor, def.OverlayColor)
	s.BorderColor = colorField("borderColor", d.BorderColor, def.BorderColor)

	return s
}

type fieldKind int

const (
	kindBool fieldKind = iota
	kindInt
	kindFloat
	kindString
)

// kvField maps one document field to a flat key/value pair
type kvField struct {
	key    string
	kind   fieldKind
	encode func(*document) string
	decode func(*document, string) error
}

// text renders a decoded structured value in the flat form, refusing
// values of the wrong type
func (f kvField) text(v any) (string, bool) {
	switch x := v.(type) {
	case bool:
		return strconv.FormatBool(x), f.kind == kindBool
	case string:
		return x, f.kind == kindString
	case float64:
		if f.kind == kindInt && x != math.Trunc(x) {
			return "", false
		}
		return strconv.FormatFloat(x, 'f', -1, 64), f.kind == kindInt || f.kind == kindFloat
	case int:
		return strconv.Itoa(x), f.kind == kindInt || f.kind == kindFloat
	case int64:
		return strconv.FormatInt(x, 10), f.kind == kindInt || f.kind == kindFloat
	case uint64:
		return strconv.FormatUint(x, 10), f.kind == kindInt || f.kind == kindFloat
	default:
		return "", false
	}
}

func boolKV(key string, ptr func(*document) *bool) kvField {
	return kvField{
		key:    key,
		kind:   kindBool,
		encode: func(d *document) string { return strconv.FormatBool(*ptr(d)) },
		decode: func(d *document, v string) error {
			b, err := strconv.ParseBool(v)
			if err == nil {
				*ptr(d) = b
			}
			return err
		},
	}
}

func intKV(key string, ptr func(*document) *int) kvField {
	return kvField{
		key:    key,
		kind:   kindInt,
		encode: func(d *document) string { return strconv.Itoa(*ptr(d)) },
		decode: func(d *document, v string) error {
			n, err := strconv.Atoi(v)
			if err == nil {
				*ptr(d) = n
			}
			return err
		},
	}
}

func floatKV(key string, ptr func(*document) *float64) kvField {
	return kvField{
		key:    key,
		kind:   kindFloat,
		encode: func(d *document) string { return strconv.FormatFloat(*ptr(d), 'g', -1, 64) },
		decode: func(d *document, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err == nil {
				*ptr(d) = f
			}
			return err
		},
	}
}

func stringKV(key string, ptr func(*document) *string) kvField {
	return kvField{
		key:    key,
		kind:   kindString,
		encode: func(d *document) string { return *ptr(d) },
		decode: func(d *document, v string) error {
			*ptr(d) = v
			return nil
		},
	}
}

var kvFields = []kvField{
	boolKV("enabled", func(d *document) *bool { return &d.Enabled }),
	intKV("imageSourceMode", func(d *document) *int { return &d.ImageSourceMode }),
	stringKV("imagePath", func(d *document) *string { return &d.ImagePath }),
	stringKV("imageFolderPath", func(d *document) *string { return &d.ImageFolderPath }),
	floatKV("opacity", func(d *document) *float64 { return &d.Opacity }),
	intKV("scaleMode", func(d *document) *int { return &d.ScaleMode }),
	floatKV("tileScale", func(d *document) *float64 { return &d.TileScale }),
	intKV("cornerPosition", func(d *document) *int { return &d.CornerPosition }),
	floatKV("offsetX", func(d *document) *float64 { return &d.OffsetX }),
	floatKV("offsetY", func(d *document) *float64 { return &d.OffsetY }),
	stringKV("tintColor", func(d *document) *string { return &d.TintColor }),
	boolKV("globalMode", func(d *document) *bool { return &d.GlobalMode }),
	boolKV("overlayEnabled", func(d *document) *bool { return &d.OverlayEnabled }),
	stringKV("overlayColor", func(d *document) *string { return &d.OverlayColor }),
	boolKV("borderEnabled", func(d *document) *bool { return &d.BorderEnabled }),
	stringKV("borderColor", func(d *document) *string { return &d.BorderColor }),
	floatKV("borderWidth", func(d *document) *float64 { return &d.BorderWidth }),
	floatKV("slideshowInterval", func(d *document) *float64 { return &d.SlideshowInterval }),
	boolKV("randomPerWindow", func(d *document) *bool { return &d.RandomPerWindow }),
}

func (d document) pairs() map[string]string {
	out := make(map[string]string, len(kvFields))
	for _, f := range kvFields {
		out[f.key] = f.encode(&d)
	}
	return out
}

// documentFromPairs starts from the defaults and overlays every parsable pair
func documentFromPairs(pairs map[string]string, logger *zap.Logger) document {
	d := documentFrom(Defaults())
	for _, f := range kvFields {
		raw, ok := pairs[f.key]
		if !ok {
			continue
		}
		if err := f.decode(&d, raw); err != nil {
			logger.Warn("Corrupt setting, using default",
				zap.String("field", f.key),
				zap.Error(fmt.Errorf("parse %q: %w", raw, err)))
		}
	}
	return d
}

// documentFromValues does the same for a decoded structured document, so
// one wrong-typed field does not cost the others
func documentFromValues(values map[string]any, logger *zap.Logger) document {
	d := documentFrom(Defaults())
	for _, f := range kvFields {
		v, ok := values[f.key]
		if !ok {
			continue
		}
		raw, ok := f.text(v)
		if !ok {
			logger.Warn("Corrupt setting, using default",
				zap.String("field", f.key),
				zap.String("type", fmt.Sprintf("%T", v)))
			continue
		}
		if err := f.decode(&d, raw); err != nil {
			logger.Warn("Corrupt setting, using default",
				zap.String("field", f.key),
				zap.Error(fmt.Errorf("parse %q: %w", raw, err)))
		}
	}
	return d
}
