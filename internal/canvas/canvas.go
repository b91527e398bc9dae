// Package canvas normalizes cropped sprites onto fixed-size transparent
// canvases for each named size preset.
package canvas

import (
	"fmt"
	"image"
	"strconv"
	"strings"

	xdraw "golang.org/x/image/draw"
)

// Preset names a target canvas size with a max-side shrink bound.
type Preset struct {
	Name    string `json:"name"`
	MaxSide int    `json:"maxSide"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

// DefaultPresets returns the built-in size presets.
func DefaultPresets() []Preset {
	return []Preset{
		{Name: "large", MaxSide: 260, Width: 280, Height: 280},
		{Name: "medium", MaxSide: 220, Width: 240, Height: 240},
		{Name: "small", MaxSide: 70, Width: 96, Height: 74},
	}
}

// Normalize scales the sprite down so its longer side fits MaxSide (never
// upscaling) and centers it on a transparent canvas of the preset size. The
// sprite's own alpha masks the composite so soft edges blend instead of
// hard-clipping.
func Normalize(sprite *image.NRGBA, p Preset) (*image.NRGBA, error) {
	if p.Width <= 0 || p.Height <= 0 || p.MaxSide <= 0 {
		return nil, fmt.Errorf("canvas: invalid preset %q (%d, %dx%d)", p.Name, p.MaxSide, p.Width, p.Height)
	}
	b := sprite.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("canvas: empty sprite")
	}

	longer := max(w, h)
	if longer > p.MaxSide {
		scale := float64(p.MaxSide) / float64(longer)
		w = int(float64(w) * scale)
		h = int(float64(h) * scale)
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
		resized := image.NewNRGBA(image.Rect(0, 0, w, h))
		xdraw.CatmullRom.Scale(resized, resized.Bounds(), sprite, b, xdraw.Src, nil)
		sprite = resized
	}

	out := image.NewNRGBA(image.Rect(0, 0, p.Width, p.Height))
	offset := image.Point{X: (p.Width - w) / 2, Y: (p.Height - h) / 2}
	dst := image.Rect(offset.X, offset.Y, offset.X+w, offset.Y+h)
	xdraw.Draw(out, dst, sprite, sprite.Bounds().Min, xdraw.Over)
	return out, nil
}

// ParsePresetSpec parses a custom preset list of the form
// "name:maxSide:width:height,name:maxSide:width:height". An empty spec yields
// the default presets.
func ParsePresetSpec(spec string) ([]Preset, error) {
	if strings.TrimSpace(spec) == "" {
		return DefaultPresets(), nil
	}

	var presets []Preset
	for _, entry := range strings.Split(spec, ",") {
		fields := strings.Split(strings.TrimSpace(entry), ":")
		if len(fields) != 4 {
			return nil, fmt.Errorf("canvas: preset %q must be name:maxSide:width:height", entry)
		}
		name := strings.TrimSpace(fields[0])
		if name == "" {
			return nil, fmt.Errorf("canvas: preset %q has an empty name", entry)
		}
		nums := make([]int, 3)
		for i, f := range fields[1:] {
			v, err := strconv.Atoi(strings.TrimSpace(f))
			if err != nil || v <= 0 {
				return nil, fmt.Errorf("canvas: preset %q has invalid dimension %q", entry, f)
			}
			nums[i] = v
		}
		presets = append(presets, Preset{Name: name, MaxSide: nums[0], Width: nums[1], Height: nums[2]})
	}
	return presets, nil
}
