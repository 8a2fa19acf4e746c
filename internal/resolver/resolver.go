package resolver

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/genricoloni/backdrop/internal/domain"
	"github.com/genricoloni/backdrop/internal/processor"
	"go.uber.org/zap"
)

const (
	// retryBackoff is how long a failed source key is left alone
	retryBackoff = 2 * time.Second

	// listingTTL bounds how stale a folder listing may get
	listingTTL = 5 * time.Second
)

// Resolver turns the configured image source into a texture.
// It holds at most one shared texture; per-window random textures are
// handed to the caller, who owns them from then on.
type Resolver struct {
	logger   *zap.Logger
	settings domain.SettingsSource
	assets   domain.AssetStore
	fetcher  domain.Fetcher
	decoder  domain.ImageDecoder

	current    *domain.Texture
	currentKey string

	// folder mode: the file currently selected for every window
	selection       string
	selectionFolder string

	listing       []string
	listingFolder string
	listedAt      time.Time

	failures map[string]time.Time

	intn func(n int) int
	now  func() time.Time
}

// NewResolver creates an image resolver reading the live settings
func NewResolver(
	logger *zap.Logger,
	settings domain.SettingsSource,
	assets domain.AssetStore,
	fetch domain.Fetcher,
	dec domain.ImageDecoder,
) *Resolver {
	return &Resolver{
		logger:   logger,
		settings: settings,
		assets:   assets,
		fetcher:  fetch,
		decoder:  dec,
		failures: make(map[string]time.Time),
		intn:     rand.Intn,
		now:      time.Now,
	}
}

// Texture returns the shared texture for the current source, loading it
// on first use or after the source key changed
func (r *Resolver) Texture(ctx context.Context) (*domain.Texture, bool) {
	s := r.settings.Values()

	path, key := r.source(s)
	if key == "" {
		return nil, false
	}
	if key == r.currentKey && r.current != nil {
		return r.current, true
	}
	if r.backingOff(key) {
		return nil, false
	}

	tex, err := r.load(ctx, path, key)
	if err != nil {
		r.fail(key, err)
		return nil, false
	}

	delete(r.failures, key)
	r.releaseCurrent()
	r.current = tex
	r.currentKey = key
	r.logger.Info("Backdrop image resolved",
		zap.String("key", key),
		zap.Int("w", tex.Width()),
		zap.Int("h", tex.Height()))
	return tex, true
}

// RandomTexture loads a uniformly chosen folder image. The caller owns
// the texture and must release it.
func (r *Resolver) RandomTexture(ctx context.Context) (*domain.Texture, bool) {
	images := r.FolderImages()
	if len(images) == 0 {
		return nil, false
	}

	path := images[r.intn(len(images))]
	if r.backingOff(path) {
		return nil, false
	}
	tex, err := r.load(ctx, path, path)
	if err != nil {
		r.fail(path, err)
		return nil, false
	}
	delete(r.failures, path)
	return tex, true
}

// FolderImages lists the supported images of the configured folder, sorted
func (r *Resolver) FolderImages() []string {
	folder := r.settings.Values().FolderPath
	if folder == "" {
		return nil
	}
	if folder == r.listingFolder && r.now().Sub(r.listedAt) < listingTTL {
		return r.listing
	}

	r.listingFolder = folder
	r.listedAt = r.now()
	r.listing = nil

	if !filepath.IsAbs(folder) {
		r.logger.Warn("Image folder must be an absolute path", zap.String("folder", folder))
		return nil
	}
	entries, err := os.ReadDir(folder)
	if err != nil {
		r.logger.Warn("Failed to list image folder", zap.String("folder", folder), zap.Error(err))
		return nil
	}
	for _, e := range entries {
		if e.IsDir() || !processor.IsSupportedImage(e.Name()) {
			continue
		}
		r.listing = append(r.listing, filepath.Join(folder, e.Name()))
	}
	return r.listing
}

// Advance moves the folder selection to a different image. It reports
// false when there is nothing else to show.
func (r *Resolver) Advance() bool {
	s := r.settings.Values()
	if s.ImageSourceMode != domain.SourceFolder {
		return false
	}
	images := r.FolderImages()
	candidates := make([]string, 0, len(images))
	for _, img := range images {
		if img != r.selection {
			candidates = append(candidates, img)
		}
	}
	if len(candidates) == 0 {
		return false
	}
	r.selection = candidates[r.intn(len(candidates))]
	r.selectionFolder = s.FolderPath
	r.logger.Debug("Slideshow advanced", zap.String("image", r.selection))
	return true
}

// Invalidate drops the shared texture and every remembered selection
func (r *Resolver) Invalidate() {
	r.releaseCurrent()
	r.current = nil
	r.currentKey = ""
	r.selection = ""
	r.selectionFolder = ""
	r.listing = nil
	r.listingFolder = ""
	r.listedAt = time.Time{}
	clear(r.failures)
}

// Close releases the shared texture
func (r *Resolver) Close() error {
	r.Invalidate()
	return nil
}

// source returns the path to load and the cache key for the current settings
func (r *Resolver) source(s domain.Settings) (path, key string) {
	if s.ImageSourceMode == domain.SourceSingleFile {
		return s.ImagePath, s.ImagePath
	}

	if s.FolderPath == "" {
		return "", ""
	}
	images := r.FolderImages()
	if len(images) == 0 {
		return "", ""
	}
	if r.selectionFolder != s.FolderPath || !slices.Contains(images, r.selection) {
		r.selection = images[r.intn(len(images))]
		r.selectionFolder = s.FolderPath
	}
	return r.selection, "folder:" + s.FolderPath + "#" + r.selection
}

// load resolves relative paths through the managed store and everything
// else through a raw read and decode
func (r *Resolver) load(ctx context.Context, path, key string) (*domain.Texture, error) {
	if !filepath.IsAbs(path) {
		return r.assets.LoadManagedImage(ctx, path)
	}

	data, err := r.fetcher.Fetch(ctx, path)
	if err != nil {
		return nil, err
	}
	img, err := r.decoder.Decode(data)
	if err != nil {
		return nil, err
	}
	return domain.NewTexture(key, img, true), nil
}

func (r *Resolver) backingOff(key string) bool {
	at, ok := r.failures[key]
	return ok && r.now().Sub(at) < retryBackoff
}

func (r *Resolver) fail(key string, err error) {
	if _, seen := r.failures[key]; !seen {
		r.logger.Warn("Failed to resolve backdrop image", zap.String("key", key), zap.Error(err))
	} else {
		r.logger.Debug("Backdrop image still unavailable", zap.String("key", key), zap.Error(err))
	}
	r.failures[key] = r.now()
}

// releaseCurrent frees the shared texture when this process loaded it
func (r *Resolver) releaseCurrent() {
	if r.current != nil && r.current.External {
		r.current.Release()
	}
}
