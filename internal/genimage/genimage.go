// Package genimage is the boundary to the generative image collaborator: a
// text prompt goes out, an RGB/RGBA raster comes back. Generation failures
// are terminal for a job; no geometry work has run yet that would be worth
// retrying.
package genimage

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"strings"
	"time"

	"spritesplit/internal/raster"
)

// Generator creates a raster from a text prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*image.NRGBA, error)
}

// Client calls a generative image HTTP service with a JSON request and
// expects a base64-encoded PNG back.
type Client struct {
	endpoint    string
	model       string
	temperature float64
	http        *http.Client
}

// NewClient creates a generation client. model may be empty to use the
// service default.
func NewClient(endpoint, model string, temperature float64) *Client {
	return &Client{
		endpoint:    endpoint,
		model:       model,
		temperature: temperature,
		http:        &http.Client{Timeout: 5 * time.Minute},
	}
}

type generateRequest struct {
	Prompt      string  `json:"prompt"`
	Model       string  `json:"model,omitempty"`
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	ImagePNG string `json:"image_png"`
	Error    string `json:"error,omitempty"`
}

// Generate requests one image for the prompt. The prompt is augmented with
// sprite-friendly hints before submission.
func (c *Client) Generate(ctx context.Context, prompt string) (*image.NRGBA, error) {
	payload, err := json.Marshal(generateRequest{
		Prompt:      OptimizePrompt(prompt),
		Model:       c.model,
		Temperature: c.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("genimage: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("genimage: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("genimage: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("genimage: service returned %d: %s", resp.StatusCode, msg)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("genimage: decode response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("genimage: %s", out.Error)
	}
	if out.ImagePNG == "" {
		return nil, fmt.Errorf("genimage: no image generated")
	}

	data, err := base64.StdEncoding.DecodeString(out.ImagePNG)
	if err != nil {
		return nil, fmt.Errorf("genimage: decode image payload: %w", err)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("genimage: decode image: %w", err)
	}
	return raster.EnsureNRGBA(decoded), nil
}

// OptimizePrompt appends sprite-friendly hints the prompt does not already
// carry: a removable background, sprite styling, and clear element
// separation, which downstream segmentation depends on.
func OptimizePrompt(prompt string) string {
	lower := strings.ToLower(prompt)

	var additions []string
	if !strings.Contains(lower, "transparent") && !strings.Contains(lower, "background") {
		additions = append(additions, "with transparent or solid color background")
	}
	if !strings.Contains(lower, "sprite") && !strings.Contains(lower, "game") {
		additions = append(additions, "game sprite style")
	}
	if !strings.Contains(lower, "isolated") && !strings.Contains(lower, "separate") {
		additions = append(additions, "clearly isolated elements")
	}

	if len(additions) == 0 {
		return prompt
	}
	return prompt + ", " + strings.Join(additions, ", ")
}
