package processor

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"golang.org/x/image/bmp"
	"go.uber.org/zap"
)

func TestDecoder_Decode(t *testing.T) {
	tests := []struct {
		name          string
		imageData     []byte
		maxDimension  int
		expectedError string
		expectedW     int
		expectedH     int
	}{
		{
			name:      "Success - Valid JPEG",
			imageData: createTestJPEG(100, 60, color.RGBA{R: 255, A: 255}),
			expectedW: 100,
			expectedH: 60,
		},
		{
			name:      "Success - Valid PNG",
			imageData: createTestPNG(32, 16),
			expectedW: 32,
			expectedH: 16,
		},
		{
			name:      "Success - BMP via x/image",
			imageData: createTestBMP(8, 8),
			expectedW: 8,
			expectedH: 8,
		},
		{
			name:          "Error - Invalid Image Data",
			imageData:     []byte("not-an-image"),
			expectedError: "failed to decode image",
		},
		{
			name:          "Error - Empty Data",
			imageData:     []byte{},
			expectedError: "failed to decode image",
		},
		{
			name:          "Error - Corrupted JPEG",
			imageData:     []byte{0xFF, 0xD8, 0xFF, 0x00, 0x00}, // Partial JPEG header
			expectedError: "failed to decode image",
		},
		{
			name:         "Edge Case - Oversized Image Is Capped",
			imageData:    createTestPNG(400, 100),
			maxDimension: 200,
			expectedW:    200,
			expectedH:    50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecoder(zap.NewNop())
			if tt.maxDimension > 0 {
				d.maxDimension = tt.maxDimension
			}
			img, err := d.Decode(tt.imageData)

			if tt.expectedError != "" {
				if err == nil {
					t.Fatalf("expected error containing '%s', got nil", tt.expectedError)
				}
				if !strings.Contains(err.Error(), tt.expectedError) {
					t.Errorf("expected error '%s' to contain '%s'", err.Error(), tt.expectedError)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			b := img.Bounds()
			if b.Dx() != tt.expectedW || b.Dy() != tt.expectedH {
				t.Errorf("expected %dx%d, got %dx%d", tt.expectedW, tt.expectedH, b.Dx(), b.Dy())
			}
		})
	}
}

func TestIsSupportedImage(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/a/b/wall.png", true},
		{"photo.JPG", true},
		{"scan.tiff", true},
		{"anim.webp", true},
		{"notes.txt", false},
		{"noext", false},
	}

	for _, tt := range tests {
		if got := IsSupportedImage(tt.path); got != tt.want {
			t.Errorf("IsSupportedImage(%s): expected %v, got %v", tt.path, tt.want, got)
		}
	}
}

// createTestJPEG generates a simple JPEG image for testing
func createTestJPEG(width, height int, col color.Color) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, col)
		}
	}

	buf := new(bytes.Buffer)
	err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 80})
	if err != nil {
		panic("failed to create test JPEG: " + err.Error())
	}
	return buf.Bytes()
}

func createTestPNG(width, height int) []byte {
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, image.NewNRGBA(image.Rect(0, 0, width, height))); err != nil {
		panic("failed to create test PNG: " + err.Error())
	}
	return buf.Bytes()
}

func createTestBMP(width, height int) []byte {
	buf := new(bytes.Buffer)
	if err := bmp.Encode(buf, image.NewRGBA(image.Rect(0, 0, width, height))); err != nil {
		panic("failed to create test BMP: " + err.Error())
	}
	return buf.Bytes()
}
