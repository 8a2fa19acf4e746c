package processor

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // GIF format support
	_ "image/jpeg" // JPEG format support
	_ "image/png"  // PNG format support
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // BMP format support
	_ "golang.org/x/image/tiff" // TIFF format support
	_ "golang.org/x/image/webp" // WebP format support
	"go.uber.org/zap"
)

// defaultMaxDimension caps the decoded size per side to keep textures bounded
const defaultMaxDimension = 8192

var supportedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// IsSupportedImage reports whether path has an extension the decoder handles
func IsSupportedImage(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// Decoder turns raw file bytes into orientation-corrected images
type Decoder struct {
	logger       *zap.Logger
	maxDimension int
}

// NewDecoder creates a new image decoder
func NewDecoder(logger *zap.Logger) *Decoder {
	return &Decoder{
		logger:       logger,
		maxDimension: defaultMaxDimension,
	}
}

// Decode decodes imageData, applying EXIF orientation and the size cap
func (d *Decoder) Decode(imageData []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(imageData), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	// Zero-sized images would break every size computation downstream
	bounds := img.Bounds()
	if bounds.Dy() == 0 || bounds.Dx() == 0 {
		return nil, fmt.Errorf("invalid image dimensions: %dx%d", bounds.Dx(), bounds.Dy())
	}

	if bounds.Dx() > d.maxDimension || bounds.Dy() > d.maxDimension {
		d.logger.Debug("Downscaling oversized image",
			zap.Int("w", bounds.Dx()),
			zap.Int("h", bounds.Dy()),
			zap.Int("max", d.maxDimension))
		img = imaging.Fit(img, d.maxDimension, d.maxDimension, imaging.Lanczos)
	}

	d.logger.Debug("Image decoded",
		zap.Int("w", img.Bounds().Dx()),
		zap.Int("h", img.Bounds().Dy()))
	return img, nil
}
