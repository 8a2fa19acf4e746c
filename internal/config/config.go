package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultSettingsPath  = "~/.config/backdrop/settings.json"
	defaultAssetDir      = "~/.local/share/backdrop/assets"
	defaultFrameInterval = 50 * time.Millisecond
	minFrameInterval     = 10 * time.Millisecond
	maxFrameInterval     = time.Second
)

// AppConfig holds process configuration read from the environment
type AppConfig struct {
	logger        *zap.Logger
	settingsPath  string
	assetDir      string
	frameInterval time.Duration
	exemptClasses []string
}

// NewAppConfig creates a new application configuration instance
func NewAppConfig(logger *zap.Logger) *AppConfig {
	settingsPath := os.Getenv("BACKDROP_SETTINGS_PATH")
	if settingsPath == "" {
		settingsPath = defaultSettingsPath
	}

	assetDir := os.Getenv("BACKDROP_ASSET_DIR")
	if assetDir == "" {
		assetDir = defaultAssetDir
	}

	interval := defaultFrameInterval
	if raw := os.Getenv("BACKDROP_FRAME_INTERVAL"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			logger.Warn("Invalid frame interval, using default",
				zap.String("value", raw),
				zap.Error(err))
		} else {
			interval = parsed
		}
	}
	interval = min(max(interval, minFrameInterval), maxFrameInterval)

	var exempt []string
	for _, class := range strings.Split(os.Getenv("BACKDROP_EXEMPT_CLASSES"), ",") {
		if class = strings.TrimSpace(class); class != "" {
			exempt = append(exempt, class)
		}
	}

	cfg := &AppConfig{
		logger:        logger,
		settingsPath:  expandPath(settingsPath),
		assetDir:      expandPath(assetDir),
		frameInterval: interval,
		exemptClasses: exempt,
	}

	logger.Info("Configuration loaded",
		zap.String("settingsPath", cfg.settingsPath),
		zap.String("assetDir", cfg.assetDir),
		zap.Duration("frameInterval", cfg.frameInterval),
		zap.Strings("exemptClasses", cfg.exemptClasses))

	return cfg
}

// GetSettingsPath returns the file holding the persisted settings
func (c *AppConfig) GetSettingsPath() string {
	return c.settingsPath
}

// GetAssetDir returns the root of the managed content store
func (c *AppConfig) GetAssetDir() string {
	return c.assetDir
}

// GetFrameInterval returns the idle tick period
func (c *AppConfig) GetFrameInterval() time.Duration {
	return c.frameInterval
}

// GetExemptClasses returns WM_CLASS values that must never be decorated
func (c *AppConfig) GetExemptClasses() []string {
	return c.exemptClasses
}

// expandPath expands environment variables and a leading ~
func expandPath(path string) string {
	path = os.ExpandEnv(path)
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[1:])
		}
	}
	return path
}
