package sprite

import (
	"fmt"
	"image"
	"image/color"

	"spritesplit/internal/raster"

	"github.com/lucasb-eyer/go-colorful"
	"gocv.io/x/gocv"
)

// Singleton regions share one color; every merged-from-multiple group gets
// its own hue so adjacent groups stay visually distinct.
var singletonColor = color.RGBA{R: 70, G: 110, B: 255, A: 255}

// groupPalette returns n distinct saturated colors, hue-spaced around the
// wheel.
func groupPalette(n int) []color.RGBA {
	palette := make([]color.RGBA, n)
	for i := 0; i < n; i++ {
		c := colorful.Hsv(float64(i)*360.0/float64(max(n, 1)), 0.85, 0.95)
		r, g, b := c.RGB255()
		palette[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return palette
}

// writeVisualization overlays the detected geometry on the sheet and writes
// it as a JPEG: merged boxes with per-group colors and M<n> labels in region
// mode, the separator line sets in grid mode.
func writeVisualization(img *image.NRGBA, result *Result, path string) error {
	vis := raster.ToBGRMat(img)
	defer vis.Close()

	if result.GridLines != nil {
		drawGridLines(&vis, result)
	} else {
		drawRegionBoxes(&vis, result)
	}

	if ok := gocv.IMWrite(path, vis); !ok {
		return fmt.Errorf("write %s failed", path)
	}
	return nil
}

func drawRegionBoxes(vis *gocv.Mat, result *Result) {
	mergedCount := 0
	for _, r := range result.Regions {
		if r.MergedFrom > 1 {
			mergedCount++
		}
	}
	palette := groupPalette(mergedCount)

	next := 0
	for _, r := range result.Regions {
		col := singletonColor
		if r.MergedFrom > 1 {
			col = palette[next]
			next++
		}

		rect := image.Rect(r.Box.X, r.Box.Y, r.Box.X+r.Box.Width, r.Box.Y+r.Box.Height)
		gocv.Rectangle(vis, rect, col, 2)

		if r.MergedFrom > 1 {
			label := fmt.Sprintf("M%d", r.MergedFrom)
			origin := image.Point{X: r.Box.X, Y: max(r.Box.Y-5, 12)}
			gocv.PutText(vis, label, origin, gocv.FontHersheySimplex, 0.5, col, 1)
		}
	}
}

func drawGridLines(vis *gocv.Mat, result *Result) {
	h, w := vis.Rows(), vis.Cols()
	rowColor := color.RGBA{R: 255, G: 80, B: 80, A: 255}
	colColor := color.RGBA{R: 80, G: 220, B: 80, A: 255}

	for _, y := range result.GridLines.Rows {
		gocv.Line(vis, image.Point{X: 0, Y: y}, image.Point{X: w, Y: y}, rowColor, 2)
	}
	for _, x := range result.GridLines.Cols {
		gocv.Line(vis, image.Point{X: x, Y: 0}, image.Point{X: x, Y: h}, colColor, 2)
	}
	for _, cell := range result.Regions {
		rect := image.Rect(cell.Box.X, cell.Box.Y, cell.Box.X+cell.Box.Width, cell.Box.Y+cell.Box.Height)
		gocv.Rectangle(vis, rect, color.RGBA{R: 240, G: 200, B: 40, A: 255}, 1)
	}
}
