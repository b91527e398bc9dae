// Package raster provides image loading, saving, and image/Mat conversion.
package raster

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"os"

	"spritesplit/pkg/geometry"

	"gocv.io/x/gocv"
	_ "golang.org/x/image/tiff"
)

// Load decodes a PNG, JPEG, or TIFF file into an NRGBA raster.
func Load(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", path, err)
	}
	return EnsureNRGBA(img), nil
}

// SavePNG writes an image to path as PNG.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}

// EnsureNRGBA converts any image to non-premultiplied RGBA.
func EnsureNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Bounds().Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// HasAlpha reports whether any pixel is not fully opaque.
func HasAlpha(img *image.NRGBA) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y) : img.PixOffset(b.Max.X, y) : img.PixOffset(b.Max.X, y)]
		for i := 3; i < len(row); i += 4 {
			if row[i] != 255 {
				return true
			}
		}
	}
	return false
}

// AlphaMat extracts the alpha channel as a single-channel 8-bit Mat.
// The caller owns the returned Mat.
func AlphaMat(img *image.NRGBA) gocv.Mat {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8U)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			mat.SetUCharAt(y, x, img.Pix[img.PixOffset(b.Min.X+x, b.Min.Y+y)+3])
		}
	}
	return mat
}

// ToBGRMat converts an image to a 3-channel BGR Mat for OpenCV drawing.
// The caller owns the returned Mat.
func ToBGRMat(img image.Image) gocv.Mat {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			mat.SetUCharAt(y, x*3+0, uint8(bl>>8))
			mat.SetUCharAt(y, x*3+1, uint8(g>>8))
			mat.SetUCharAt(y, x*3+2, uint8(r>>8))
		}
	}
	return mat
}

// Crop copies the given rectangle out of the raster into a new image with a
// zero-based origin.
func Crop(img *image.NRGBA, r geometry.RectInt) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, r.Width, r.Height))
	src := image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
	draw.Draw(out, out.Bounds(), img, src.Min, draw.Src)
	return out
}
