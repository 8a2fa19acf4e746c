package assets

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/genricoloni/backdrop/internal/config"
	"github.com/genricoloni/backdrop/internal/domain"
	"go.uber.org/zap"
)

// ErrOutsideRoot is returned for managed paths that resolve outside the asset directory
var ErrOutsideRoot = errors.New("path escapes the asset directory")

// Store is the managed content store. Textures it returns stay owned by
// the store and are released only by Close.
type Store struct {
	logger  *zap.Logger
	root    string
	fetcher domain.Fetcher
	decoder domain.ImageDecoder
	cache   map[string]*domain.Texture
}

// NewStore creates a store rooted at the configured asset directory
func NewStore(logger *zap.Logger, cfg *config.AppConfig, fetch domain.Fetcher, dec domain.ImageDecoder) *Store {
	return newStore(logger, cfg.GetAssetDir(), fetch, dec)
}

func newStore(logger *zap.Logger, root string, fetch domain.Fetcher, dec domain.ImageDecoder) *Store {
	return &Store{
		logger:  logger,
		root:    filepath.Clean(root),
		fetcher: fetch,
		decoder: dec,
		cache:   make(map[string]*domain.Texture),
	}
}

// Root returns the asset directory
func (s *Store) Root() string { return s.root }

// LoadManagedImage resolves a path relative to the asset directory
func (s *Store) LoadManagedImage(ctx context.Context, path string) (*domain.Texture, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}

	if tex, ok := s.cache[full]; ok {
		return tex, nil
	}

	data, err := s.fetcher.Fetch(ctx, full)
	if err != nil {
		return nil, fmt.Errorf("failed to load managed image %s: %w", path, err)
	}
	img, err := s.decoder.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load managed image %s: %w", path, err)
	}

	tex := domain.NewTexture("asset:"+filepath.ToSlash(path), img, false)
	s.cache[full] = tex
	s.logger.Debug("Managed image loaded",
		zap.String("path", full),
		zap.Int("w", tex.Width()),
		zap.Int("h", tex.Height()))
	return tex, nil
}

func (s *Store) resolve(path string) (string, error) {
	if path == "" || filepath.IsAbs(path) {
		return "", fmt.Errorf("%q: %w", path, ErrOutsideRoot)
	}
	full := filepath.Join(s.root, path)
	rel, err := filepath.Rel(s.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%q: %w", path, ErrOutsideRoot)
	}
	return full, nil
}

// Close releases every managed texture
func (s *Store) Close() error {
	for key, tex := range s.cache {
		tex.Release()
		delete(s.cache, key)
	}
	return nil
}
