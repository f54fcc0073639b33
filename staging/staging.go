package staging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/gift"
)

const JPEGQuality = 90

// Area is a local directory holding attachments for the duration of one
// request. Files get unique names so concurrent uploads of the same
// client filename never collide.
type Area struct {
	dir          string
	maxDimension int
	maxPixels    int
}

// ErrImageTooLarge is returned for images whose declared canvas exceeds the
// pixel limit. They are rejected before any pixel data is decoded.
var ErrImageTooLarge = errors.New("image canvas exceeds the pixel limit")

// NewArea creates a staging directory under baseDir. Images larger than
// maxDimension on either side are downscaled while staging; zero disables
// resizing. Images declaring more than maxPixels pixels are refused; zero
// disables the limit.
func NewArea(baseDir string, maxDimension, maxPixels int) (*Area, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, errors.New("staging base path is required")
	}
	dir := filepath.Join(baseDir, "recipe-staging")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	return &Area{dir: dir, maxDimension: maxDimension, maxPixels: maxPixels}, nil
}

func (a *Area) Dir() string {
	return a.dir
}

// Write stages the blob and returns its local path. The original filename
// only contributes its extension.
func (a *Area) Write(filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read attachment: %w", err)
	}

	ext := safeExtension(filename)
	data, err = a.normalize(data, ext)
	if err != nil {
		return "", err
	}

	out, err := os.CreateTemp(a.dir, "upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create staged file: %w", err)
	}
	if _, err := out.Write(data); err != nil {
		out.Close()
		_ = os.Remove(out.Name())
		return "", fmt.Errorf("write staged file: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(out.Name())
		return "", fmt.Errorf("close staged file: %w", err)
	}
	return out.Name(), nil
}

// Delete removes a staged file. Paths outside the area are refused and a
// file that is already gone is not an error.
func (a *Area) Delete(path string) error {
	rel, err := filepath.Rel(a.dir, filepath.Clean(path))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("path %q is outside the staging area", path)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove staged file: %w", err)
	}
	return nil
}

// normalize refuses huge canvases and downsizes oversized images.
// Anything that is not a decodable image is staged unchanged.
func (a *Area) normalize(data []byte, ext string) ([]byte, error) {
	if a.maxDimension <= 0 && a.maxPixels <= 0 {
		return data, nil
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return data, nil
	}
	if a.maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(a.maxPixels) {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}
	if a.maxDimension <= 0 {
		return data, nil
	}
	if cfg.Width <= a.maxDimension && cfg.Height <= a.maxDimension {
		return data, nil
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data, nil
	}
	g := gift.New(gift.ResizeToFit(a.maxDimension, a.maxDimension, gift.LanczosResampling))
	dst := image.NewNRGBA(g.Bounds(src.Bounds()))
	g.Draw(dst, src)

	var buf bytes.Buffer
	switch format {
	case "png":
		err = png.Encode(&buf, dst)
	case "gif":
		err = gif.Encode(&buf, dst, nil)
	default:
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: JPEGQuality})
	}
	if err != nil {
		return nil, fmt.Errorf("encode resized image: %w", err)
	}
	return buf.Bytes(), nil
}

func safeExtension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if len(ext) < 2 || len(ext) > 6 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
