package render

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"
)

// ParseCompression maps a compression name (default, speed, best, none) to a png level.
func ParseCompression(name string) (png.CompressionLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "default":
		return png.DefaultCompression, nil
	case "speed":
		return png.BestSpeed, nil
	case "best":
		return png.BestCompression, nil
	case "none":
		return png.NoCompression, nil
	default:
		return png.DefaultCompression, fmt.Errorf("invalid png compression %q: must be default, speed, best or none", name)
	}
}

// EncodePNG writes img as PNG using the named compression level.
func EncodePNG(w io.Writer, img image.Image, compression string) error {
	level, err := ParseCompression(compression)
	if err != nil {
		return err
	}
	enc := png.Encoder{CompressionLevel: level}
	if err := enc.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// PNGBytes encodes img as PNG into memory.
func PNGBytes(img image.Image, compression string) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, img, compression); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
