package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/genricoloni/backdrop/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	zapobserver "go.uber.org/zap/zaptest/observer"
)

func newTestStore(t *testing.T, name string) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	s, err := NewStore(zap.NewNop(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestStore_Clamping(t *testing.T) {
	tests := []struct {
		name string
		set  func(*Store)
		get  func(*Store) float64
		want float64
	}{
		{"Opacity above range", func(s *Store) { s.SetOpacity(1.5) }, (*Store).Opacity, 1},
		{"Opacity below range", func(s *Store) { s.SetOpacity(-0.5) }, (*Store).Opacity, 0},
		{"Border width zero", func(s *Store) { s.SetBorderWidth(0) }, (*Store).BorderWidth, 1},
		{"Border width twenty", func(s *Store) { s.SetBorderWidth(20) }, (*Store).BorderWidth, 10},
		{"Tile scale zero", func(s *Store) { s.SetTileScale(0) }, (*Store).TileScale, 0.01},
		{"Tile scale huge", func(s *Store) { s.SetTileScale(100) }, (*Store).TileScale, 5},
		{"Offset X", func(s *Store) { s.SetOffsetX(-900) }, (*Store).OffsetX, -500},
		{"Offset Y", func(s *Store) { s.SetOffsetY(900) }, (*Store).OffsetY, 500},
		{"Slideshow negative", func(s *Store) { s.SetSlideshowInterval(-3) }, (*Store).SlideshowInterval, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestStore(t, "settings.json")
			tt.set(s)
			assert.InDelta(t, tt.want, tt.get(s), 1e-9)
		})
	}
}

func TestStore_EnumClamping(t *testing.T) {
	s, _ := newTestStore(t, "settings.json")

	s.SetScaleMode(domain.ScaleMode(42))
	assert.Equal(t, domain.ScaleCorner, s.ScaleMode())

	s.SetCornerPosition(domain.CornerPosition(-1))
	assert.Equal(t, domain.CornerTopLeft, s.CornerPosition())

	s.SetImageSourceMode(domain.ImageSourceMode(9))
	assert.Equal(t, domain.SourceFolder, s.ImageSourceMode())
}

func TestStore_NotifiesOncePerChange(t *testing.T) {
	s, path := newTestStore(t, "settings.json")

	calls := 0
	s.Subscribe(func() { calls++ })

	assert.True(t, s.SetOpacity(0.5))
	assert.Equal(t, 1, calls)

	// No-op writes are suppressed, including approximate float matches
	assert.False(t, s.SetOpacity(0.5))
	assert.False(t, s.SetOpacity(0.5+1e-12))
	assert.False(t, s.SetEnabled(true))
	assert.False(t, s.SetTintColor(domain.Color{R: 1, G: 1, B: 1, A: 1}))
	assert.False(t, s.SetImagePath("  "))
	assert.Equal(t, 1, calls)

	assert.True(t, s.SetBorderColor(domain.Color{R: 1, A: 1}))
	assert.Equal(t, 2, calls)

	_, err := os.Stat(path)
	assert.NoError(t, err, "a committed change must be persisted")
}

func TestStore_Unsubscribe(t *testing.T) {
	s, _ := newTestStore(t, "settings.json")

	calls := 0
	unsubscribe := s.Subscribe(func() { calls++ })
	s.SetGlobalMode(false)
	unsubscribe()
	s.SetGlobalMode(true)

	assert.Equal(t, 1, calls)
}

func TestStore_NestedNotificationIsBounded(t *testing.T) {
	s, _ := newTestStore(t, "settings.json")

	calls := 0
	s.Subscribe(func() {
		calls++
		// Every round mutates again; the store must stop on its own
		s.SetOffsetX(float64(calls))
	})

	s.SetOffsetY(10)
	assert.Equal(t, maxNotifyRounds, calls)
}

func TestStore_ResetToDefault(t *testing.T) {
	s, _ := newTestStore(t, "settings.json")
	s.SetOpacity(0.9)
	s.SetScaleMode(domain.ScaleTile)
	s.SetImagePath("/tmp/a.png")

	calls := 0
	s.Subscribe(func() { calls++ })
	s.ResetToDefault()

	assert.Equal(t, 1, calls)
	assert.Equal(t, Defaults(), s.Values())
}

func TestStore_RoundTrip(t *testing.T) {
	formats := []string{"settings.json", "settings.yaml", "settings.toml", "settings.db"}

	for _, name := range formats {
		t.Run(name, func(t *testing.T) {
			s, path := newTestStore(t, name)

			s.SetEnabled(false)
			s.SetImageSourceMode(domain.SourceFolder)
			s.SetImagePath("/home/user/Pictures/wall.png")
			s.SetFolderPath("/home/user/Pictures")
			s.SetOpacity(0.35)
			s.SetScaleMode(domain.ScaleCorner)
			s.SetTileScale(2.25)
			s.SetCornerPosition(domain.CornerTopRight)
			s.SetOffsetX(-12.5)
			s.SetOffsetY(40)
			s.SetTintColor(domain.Color{R: 0.2, G: 0.4, B: 0.6, A: 0.8})
			s.SetGlobalMode(false)
			s.SetOverlayEnabled(true)
			s.SetOverlayColor(domain.Color{R: 1, G: 0, B: 0.5, A: 0.25})
			s.SetBorderEnabled(true)
			s.SetBorderColor(domain.Color{R: 0, G: 1, B: 0, A: 1})
			s.SetBorderWidth(3.5)
			s.SetSlideshowInterval(90)
			s.SetRandomPerWindow(true)
			want := s.Values()

			reloaded, err := NewStore(zap.NewNop(), path)
			require.NoError(t, err)
			defer reloaded.Close()
			reloaded.Load()

			got := reloaded.Values()
			assert.Equal(t, want, got)
			assert.Equal(t, "336699CC", FormatColor(got.TintColor))
		})
	}
}

func TestStore_LoadFallbacks(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		check     func(t *testing.T, s domain.Settings)
		wantWarns int
	}{
		{
			name:    "Missing file",
			content: "",
			check: func(t *testing.T, s domain.Settings) {
				assert.Equal(t, Defaults(), s)
			},
		},
		{
			name:    "Unparsable document",
			content: "{not json",
			check: func(t *testing.T, s domain.Settings) {
				assert.Equal(t, Defaults(), s)
			},
			wantWarns: 1,
		},
		{
			name:    "Missing fields keep defaults",
			content: `{"opacity": 0.5, "globalMode": false}`,
			check: func(t *testing.T, s domain.Settings) {
				assert.InDelta(t, 0.5, s.Opacity, 1e-9)
				assert.False(t, s.GlobalMode)
				assert.True(t, s.Enabled)
				assert.Equal(t, Defaults().BorderColor, s.BorderColor)
			},
		},
		{
			name:    "Corrupt fields fall back individually",
			content: `{"tintColor": "zz", "scaleMode": 17, "borderWidth": 50, "opacity": 0.25}`,
			check: func(t *testing.T, s domain.Settings) {
				assert.Equal(t, Defaults().TintColor, s.TintColor)
				assert.Equal(t, domain.ScaleCover, s.ScaleMode)
				assert.InDelta(t, 10, s.BorderWidth, 1e-9)
				assert.InDelta(t, 0.25, s.Opacity, 1e-9)
			},
			wantWarns: 2,
		},
		{
			name:    "Wrong typed field keeps the rest",
			content: `{"opacity": "bad", "borderWidth": 5, "globalMode": false, "scaleMode": 1.5}`,
			check: func(t *testing.T, s domain.Settings) {
				assert.InDelta(t, Defaults().Opacity, s.Opacity, 1e-9)
				assert.Equal(t, Defaults().ScaleMode, s.ScaleMode)
				assert.InDelta(t, 5, s.BorderWidth, 1e-9)
				assert.False(t, s.GlobalMode)
			},
			wantWarns: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "settings.json")
			if tt.content != "" {
				require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			}

			core, logs := zapobserver.New(zapcore.WarnLevel)
			s, err := NewStore(zap.New(core), path)
			require.NoError(t, err)
			s.Load()

			tt.check(t, s.Values())
			assert.Equal(t, tt.wantWarns, logs.Len())
		})
	}
}

func TestStore_WrongTypedFieldPerFormat(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"YAML", "settings.yaml", "opacity: bad\nborderWidth: 5\nglobalMode: false\n"},
		{"TOML", "settings.toml", "opacity = \"bad\"\nborderWidth = 5.0\nglobalMode = false\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			core, logs := zapobserver.New(zapcore.WarnLevel)
			s, err := NewStore(zap.New(core), path)
			require.NoError(t, err)
			s.Load()

			assert.InDelta(t, Defaults().Opacity, s.Opacity(), 1e-9)
			assert.InDelta(t, 5, s.BorderWidth(), 1e-9)
			assert.False(t, s.GlobalMode())
			assert.Equal(t, 1, logs.FilterMessage("Corrupt setting, using default").Len())
		})
	}
}

func TestStore_Reload(t *testing.T) {
	s, path := newTestStore(t, "settings.json")
	s.SetOpacity(0.3)

	calls := 0
	s.Subscribe(func() { calls++ })

	assert.False(t, s.Reload(), "unchanged file must not notify")
	assert.Equal(t, 0, calls)

	other, err := NewStore(zap.NewNop(), path)
	require.NoError(t, err)
	other.Load()
	other.SetOpacity(0.6)

	assert.True(t, s.Reload())
	assert.Equal(t, 1, calls)
	assert.InDelta(t, 0.6, s.Opacity(), 1e-9)
}

func TestNewStore_UnsupportedFormat(t *testing.T) {
	_, err := NewStore(zap.NewNop(), filepath.Join(t.TempDir(), "settings.ini"))
	assert.ErrorContains(t, err, "unsupported settings format")
}

func TestSQLiteBackend_CorruptPair(t *testing.T) {
	s, path := newTestStore(t, "settings.db")
	s.SetOpacity(0.4)

	b := s.backend.(*sqliteBackend)
	_, err := b.db.Exec(`UPDATE settings SET value = 'abc' WHERE key = 'borderWidth'`)
	require.NoError(t, err)

	core, logs := zapobserver.New(zapcore.WarnLevel)
	reloaded, err := NewStore(zap.New(core), path)
	require.NoError(t, err)
	defer reloaded.Close()
	reloaded.Load()

	assert.InDelta(t, 0.4, reloaded.Opacity(), 1e-9)
	assert.InDelta(t, Defaults().BorderWidth, reloaded.BorderWidth(), 1e-9)
	assert.Equal(t, 1, logs.FilterMessage("Corrupt setting, using default").Len())
}
