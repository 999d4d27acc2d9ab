// Package thumbs produces square thumbnails from listing artwork. Thumbnails
// are content-addressed by source URL, so re-scrapes reuse existing files
// instead of re-downloading.
package thumbs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/image/draw"

	"cinescrapers/internal/hashid"
	"cinescrapers/internal/logging"
	"cinescrapers/internal/services"
)

// Size is the edge length of generated thumbnails in pixels.
const Size = 300

// Generator downloads artwork and writes square JPEG thumbnails into a
// directory. It satisfies showtime.Thumbnailer.
type Generator struct {
	dir        string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customizes generator construction.
type Option func(*Generator)

// WithHTTPClient overrides the HTTP client used for downloads.
func WithHTTPClient(client *http.Client) Option {
	return func(g *Generator) {
		g.httpClient = client
	}
}

// NewGenerator creates a thumbnail generator writing into dir.
func NewGenerator(dir string, logger *slog.Logger, opts ...Option) (*Generator, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("thumbnail directory required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	g := &Generator{
		dir:        dir,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logging.NewComponentLogger(logger, "thumbs"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Thumbnail ensures a square thumbnail exists for the given image URL and
// returns its filename relative to the generator directory.
func (g *Generator) Thumbnail(ctx context.Context, imageURL string) (string, error) {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return "", errors.New("image url required")
	}

	filename := hashid.Hash(imageURL) + ".jpg"
	path := filepath.Join(g.dir, filename)
	if _, err := os.Stat(path); err == nil {
		return filename, nil
	}

	data, err := g.fetch(ctx, imageURL)
	if err != nil {
		return "", err
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode image %s: %w", imageURL, err)
	}

	thumb := squareThumbnail(src, Size)

	if err := g.write(path, thumb); err != nil {
		return "", err
	}

	g.logger.Debug("generated thumbnail",
		logging.String("source", imageURL),
		logging.String("file", filename))

	return filename, nil
}

func (g *Generator) fetch(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "thumbs", "fetch image", "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrTransient, "thumbs", "fetch image",
			fmt.Sprintf("status %d for %s", resp.StatusCode, imageURL), nil)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("read image body: %w", err)
	}
	return buf.Bytes(), nil
}

// write encodes the thumbnail as JPEG atomically via a temp file.
func (g *Generator) write(path string, thumb image.Image) error {
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return fmt.Errorf("create thumbnail directory: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 85}); err != nil {
		return fmt.Errorf("encode thumbnail: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// squareThumbnail crops the largest centered square from src and scales it to
// size pixels per edge.
func squareThumbnail(src image.Image, size int) image.Image {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	edge := width
	if height < edge {
		edge = height
	}
	x0 := bounds.Min.X + (width-edge)/2
	y0 := bounds.Min.Y + (height-edge)/2
	crop := image.Rect(x0, y0, x0+edge, y0+edge)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Over, nil)
	return dst
}
