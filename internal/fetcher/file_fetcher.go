package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"
)

const _maxImageSize = 64 * 1024 * 1024 // 64 MB

var (
	// ErrTooLarge is returned for files above the size limit
	ErrTooLarge = errors.New("image file too large")
	// ErrNotImage is returned when the content is clearly not an image
	ErrNotImage = errors.New("file is not an image")
)

// FileFetcher reads raw image bytes from the local filesystem
type FileFetcher struct {
	logger  *zap.Logger
	maxSize int64
}

// NewFileFetcher creates a new filesystem-based fetcher instance
func NewFileFetcher(logger *zap.Logger) *FileFetcher {
	return &FileFetcher{
		logger:  logger,
		maxSize: _maxImageSize,
	}
}

// Fetch reads the image at path
func (f *FileFetcher) Fetch(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat image: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory: %w", path, ErrNotImage)
	}
	if info.Size() > f.maxSize {
		return nil, fmt.Errorf("%s is %d bytes: %w", path, info.Size(), ErrTooLarge)
	}

	// Read one byte past the limit to catch files that grew after Stat
	data, err := io.ReadAll(io.LimitReader(file, f.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if int64(len(data)) > f.maxSize {
		return nil, fmt.Errorf("%s exceeds %d bytes: %w", path, f.maxSize, ErrTooLarge)
	}

	// Sniffing cannot identify every image format (TIFF comes back as
	// octet-stream), so only reject content that is plainly something else
	contentType := http.DetectContentType(data)
	if strings.HasPrefix(contentType, "text/") {
		return nil, fmt.Errorf("%s has content type %s: %w", path, contentType, ErrNotImage)
	}

	f.logger.Debug("Image file read",
		zap.String("path", path),
		zap.Int("bytes", len(data)),
		zap.String("contentType", contentType))

	return data, nil
}
