// Command gridtest runs grid line detection on a sheet and outputs results.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"spritesplit/internal/grid"
	"spritesplit/internal/raster"
)

func main() {
	imagePath := flag.String("image", "", "Path to sheet image (PNG, JPEG, or TIFF)")
	threshold := flag.Int("threshold", 80, "Hough vote threshold")
	minLen := flag.Float64("min-len", 0.5, "Minimum line length as a fraction of the axis")
	rows := flag.Int("rows", 0, "Fallback row count")
	cols := flag.Int("cols", 0, "Fallback column count")
	flag.Parse()

	if *imagePath == "" {
		fmt.Println("Usage: gridtest -image <path> [-threshold 80] [-min-len 0.5] [-rows N] [-cols N]")
		os.Exit(1)
	}

	img, err := raster.Load(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load image: %v\n", err)
		os.Exit(1)
	}
	b := img.Bounds()
	fmt.Printf("Loaded image: %dx%d pixels\n", b.Dx(), b.Dy())

	params := grid.DefaultParams()
	params.LineThreshold = *threshold
	params.MinLineLengthRatio = *minLen
	params.FallbackRows = *rows
	params.FallbackCols = *cols

	fmt.Printf("\nDetection parameters:\n")
	fmt.Printf("  Hough threshold: %d\n", params.LineThreshold)
	fmt.Printf("  Min line length: %.0f%% of axis\n", params.MinLineLengthRatio*100)
	fmt.Printf("  Cluster distance: %d px\n", params.ClusterDistance)
	fmt.Printf("  Color-diff cutoff factor: %.2f\n", params.DiffThreshold)
	fmt.Printf("  Fallback: %d rows, %d cols\n", params.FallbackRows, params.FallbackCols)

	bgr := raster.ToBGRMat(img)
	defer bgr.Close()

	fmt.Printf("\nDetecting grid lines...\n")
	lines, err := grid.Segment(bgr, params)
	if err != nil {
		var noGrid *grid.ErrNoGrid
		if errors.As(err, &noGrid) {
			fmt.Fprintf(os.Stderr, "No grid: %v\n", err)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "Detection failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nRow separators (%d): %v\n", len(lines.Rows), lines.Rows)
	fmt.Printf("Col separators (%d): %v\n", len(lines.Cols), lines.Cols)

	cells := grid.Cells(lines, params.CellPadding)
	fmt.Printf("\n%d usable cells:\n", len(cells))
	fmt.Printf("%-6s %8s %8s %8s %8s\n", "Cell", "X", "Y", "Width", "Height")
	for i, c := range cells {
		fmt.Printf("%-6d %8d %8d %8d %8d\n", i, c.X, c.Y, c.Width, c.Height)
	}
}
