// Package imageio loads source photographs and encodes compiled masks.
package imageio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// Format is a lossless mask encoding.
type Format string

const (
	PNG  Format = "png"
	WebP Format = "webp"
)

// ParseFormat accepts png and webp, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case PNG, "":
		return PNG, nil
	case WebP:
		return WebP, nil
	}
	return "", fmt.Errorf("unsupported mask format %q", s)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == WebP {
		return "image/webp"
	}
	return "image/png"
}

// Ext returns the file extension of f including the dot.
func (f Format) Ext() string {
	if f == WebP {
		return ".webp"
	}
	return ".png"
}

// ErrUnknownFormat is returned when no decoder accepts the data.
var ErrUnknownFormat = errors.New("image: unknown or unsupported format")

// Load reads an image file, falling back to an explicit WebP decode.
func Load(path string) (image.Image, error) {
	if img, err := imaging.Open(path); err == nil {
		return img, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// LoadSource loads path, or downloads it when it is an http(s) URL.
func LoadSource(ctx context.Context, client *http.Client, source string) (image.Image, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return Fetch(ctx, client, source)
	}
	return Load(source)
}

// Fetch downloads and decodes an image.
func Fetch(ctx context.Context, client *http.Client, url string) (image.Image, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download image: HTTP %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read image data: %w", err)
	}
	return Decode(data)
}

// Decode tries the registered decoders and then WebP.
func Decode(data []byte) (image.Image, error) {
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	return nil, ErrUnknownFormat
}

// EncodeMask serializes img losslessly.
func EncodeMask(img image.Image, f Format) ([]byte, error) {
	var buf bytes.Buffer
	switch f {
	case WebP:
		if err := webp.Encode(&buf, img, &webp.Options{Lossless: true}); err != nil {
			return nil, fmt.Errorf("encode webp mask: %w", err)
		}
	case PNG, "":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode png mask: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported mask format %q", f)
	}
	return buf.Bytes(), nil
}

// Save writes img to path choosing the encoder from the extension. WebP is
// written losslessly.
func Save(img image.Image, path string) error {
	if strings.EqualFold(filepath.Ext(path), ".webp") {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := webp.Encode(f, img, &webp.Options{Lossless: true}); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	}
	return imaging.Save(img, path)
}

// WriteFile writes an already encoded payload.
func WriteFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}
