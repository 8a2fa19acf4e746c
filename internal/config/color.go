package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/genricoloni/backdrop/internal/domain"
	"github.com/lucasb-eyer/go-colorful"
)

// ParseColor parses an RRGGBBAA (or RRGGBB) hex string, with or without a leading '#'
func ParseColor(s string) (domain.Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 && len(s) != 8 {
		return domain.Color{}, fmt.Errorf("invalid color %q: want RRGGBBAA", s)
	}

	rgb, err := colorful.Hex("#" + s[:6])
	if err != nil {
		return domain.Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}

	alpha := 1.0
	if len(s) == 8 {
		a, err := strconv.ParseUint(s[6:], 16, 8)
		if err != nil {
			return domain.Color{}, fmt.Errorf("invalid color alpha %q: %w", s, err)
		}
		alpha = float64(a) / 255
	}

	return quantizeColor(domain.Color{R: rgb.R, G: rgb.G, B: rgb.B, A: alpha}), nil
}

// FormatColor renders c as upper-case RRGGBBAA
func FormatColor(c domain.Color) string {
	rgb := colorful.Color{R: c.R, G: c.G, B: c.B}.Clamped().Hex()
	return strings.ToUpper(strings.TrimPrefix(rgb, "#")) + fmt.Sprintf("%02X", channelByte(c.A))
}

// quantizeColor clamps every channel and snaps it to the 8-bit grid used on disk
func quantizeColor(c domain.Color) domain.Color {
	return domain.Color{
		R: float64(channelByte(c.R)) / 255,
		G: float64(channelByte(c.G)) / 255,
		B: float64(channelByte(c.B)) / 255,
		A: float64(channelByte(c.A)) / 255,
	}
}

// colorsEqual compares colors at persisted precision
func colorsEqual(a, b domain.Color) bool {
	return FormatColor(a) == FormatColor(b)
}

func channelByte(v float64) uint8 {
	if math.IsNaN(v) {
		return 0
	}
	return uint8(math.Round(min(max(v, 0), 1) * 255))
}
