// Package matting is the boundary to the background-removal collaborator.
// The segmentation network itself lives behind an HTTP service; this package
// only ships rasters to it and receives RGBA rasters with a populated alpha
// channel back.
package matting

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"time"

	"spritesplit/internal/raster"
)

// Remover produces an RGBA raster whose alpha channel separates foreground
// ink from background.
type Remover interface {
	Remove(ctx context.Context, img *image.NRGBA) (*image.NRGBA, error)
}

// Client calls a background-removal HTTP service: POST of a PNG body,
// response is a PNG with the alpha channel filled in.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient creates a matting client for the given service endpoint.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		// Model inference on large sheets is slow; the deadline covers a
		// cold model load on the service side.
		http: &http.Client{Timeout: 5 * time.Minute},
	}
}

// Remove sends the raster to the matting service and returns the result.
func (c *Client) Remove(ctx context.Context, img *image.NRGBA) (*image.NRGBA, error) {
	var body bytes.Buffer
	if err := png.Encode(&body, img); err != nil {
		return nil, fmt.Errorf("matting: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("matting: %w", err)
	}
	req.Header.Set("Content-Type", "image/png")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("matting: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("matting: service returned %d: %s", resp.StatusCode, msg)
	}

	decoded, err := png.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("matting: decode response: %w", err)
	}
	out := raster.EnsureNRGBA(decoded)
	if !raster.HasAlpha(out) {
		return nil, fmt.Errorf("matting: service returned a raster with no transparency")
	}
	return out, nil
}

// Passthrough accepts rasters that already carry an alpha channel and
// rejects everything else. Used when no matting service is configured.
type Passthrough struct{}

// Remove returns the raster unchanged when its alpha channel is populated.
func (Passthrough) Remove(_ context.Context, img *image.NRGBA) (*image.NRGBA, error) {
	if !raster.HasAlpha(img) {
		return nil, fmt.Errorf("matting: raster has no alpha channel and no matting service is configured")
	}
	return img, nil
}
