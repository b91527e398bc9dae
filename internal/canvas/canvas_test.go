package canvas

import (
	"image"
	"image/color"
	"image/draw"
	"testing"
)

func opaqueSprite(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.NRGBA{R: 200, G: 50, B: 50, A: 255}}, image.Point{}, draw.Src)
	return img
}

func TestNormalizeShrinksToMaxSide(t *testing.T) {
	p := Preset{Name: "large", MaxSide: 260, Width: 280, Height: 280}
	out, err := Normalize(opaqueSprite(520, 130), p)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got := out.Bounds(); got.Dx() != 280 || got.Dy() != 280 {
		t.Fatalf("canvas = %dx%d, want 280x280", got.Dx(), got.Dy())
	}

	// 520x130 scaled by 260/520: content occupies 260x65 centered at (10,107).
	if c := out.NRGBAAt(140, 140); c.A == 0 {
		t.Fatal("center pixel transparent, sprite not composited")
	}
	if c := out.NRGBAAt(140, 30); c.A != 0 {
		t.Fatalf("pixel above the sprite band should stay transparent, got %+v", c)
	}
	if c := out.NRGBAAt(5, 140); c.A != 0 {
		t.Fatalf("left margin should stay transparent, got %+v", c)
	}
}

func TestNormalizeNeverUpscales(t *testing.T) {
	p := Preset{Name: "small", MaxSide: 70, Width: 96, Height: 74}
	out, err := Normalize(opaqueSprite(30, 20), p)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got := out.Bounds(); got.Dx() != 96 || got.Dy() != 74 {
		t.Fatalf("canvas = %dx%d, want 96x74", got.Dx(), got.Dy())
	}

	// Content stays 30x20 centered at (33,27); count opaque pixels.
	opaque := 0
	for y := 0; y < 74; y++ {
		for x := 0; x < 96; x++ {
			if out.NRGBAAt(x, y).A != 0 {
				opaque++
			}
		}
	}
	if opaque != 30*20 {
		t.Fatalf("opaque pixel count = %d, want 600 (no upscale)", opaque)
	}
}

func TestNormalizeMaxSideBound(t *testing.T) {
	for _, dims := range [][2]int{{500, 500}, {701, 99}, {64, 900}} {
		p := Preset{Name: "medium", MaxSide: 220, Width: 240, Height: 240}
		out, err := Normalize(opaqueSprite(dims[0], dims[1]), p)
		if err != nil {
			t.Fatalf("normalize %v: %v", dims, err)
		}
		minX, minY := 240, 240
		maxX, maxY := -1, -1
		for y := 0; y < 240; y++ {
			for x := 0; x < 240; x++ {
				if out.NRGBAAt(x, y).A != 0 {
					if x < minX {
						minX = x
					}
					if y < minY {
						minY = y
					}
					if x > maxX {
						maxX = x
					}
					if y > maxY {
						maxY = y
					}
				}
			}
		}
		if maxX < 0 {
			t.Fatalf("sprite %v vanished", dims)
		}
		if w, h := maxX-minX+1, maxY-minY+1; w > 220 || h > 220 {
			t.Fatalf("sprite %v resized to %dx%d, exceeds maxSide 220", dims, w, h)
		}
	}
}

func TestNormalizeEmptySprite(t *testing.T) {
	if _, err := Normalize(image.NewNRGBA(image.Rect(0, 0, 0, 0)), DefaultPresets()[0]); err == nil {
		t.Fatal("expect error for empty sprite")
	}
}

func TestParsePresetSpec(t *testing.T) {
	presets, err := ParsePresetSpec("thumb:48:64:64, banner:120:200:80")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(presets) != 2 {
		t.Fatalf("expect 2 presets, got %d", len(presets))
	}
	if presets[0] != (Preset{Name: "thumb", MaxSide: 48, Width: 64, Height: 64}) {
		t.Fatalf("unexpected preset %+v", presets[0])
	}
	if presets[1].Name != "banner" || presets[1].Height != 80 {
		t.Fatalf("unexpected preset %+v", presets[1])
	}
}

func TestParsePresetSpecDefaults(t *testing.T) {
	presets, err := ParsePresetSpec("  ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(presets) != 3 || presets[0].Name != "large" {
		t.Fatalf("expect built-in defaults, got %+v", presets)
	}
}

func TestParsePresetSpecRejectsMalformed(t *testing.T) {
	for _, spec := range []string{"bad", "x:1:2", "a:0:10:10", "a:-5:10:10", ":5:10:10"} {
		if _, err := ParsePresetSpec(spec); err == nil {
			t.Fatalf("expect error for %q", spec)
		}
	}
}
