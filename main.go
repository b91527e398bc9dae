// Command spritesplit segments a sprite sheet (or a directory of sheets)
// into individual sprites on disk.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"spritesplit/internal/canvas"
	"spritesplit/internal/raster"
	"spritesplit/internal/sprite"
	"spritesplit/internal/version"
)

func main() {
	input := flag.String("input", "", "Path to a sprite sheet (PNG, JPEG, or TIFF)")
	batch := flag.String("batch", "", "Directory of sheets to process instead of -input")
	out := flag.String("out", "output", "Output directory")

	alphaThreshold := flag.Int("alpha-threshold", 50, "Alpha values above this count as foreground (1-254)")
	minArea := flag.Float64("min-area", 0.0005, "Minimum region area as a fraction of the sheet")
	maxArea := flag.Float64("max-area", 0.25, "Maximum region area as a fraction of the sheet")
	distance := flag.Float64("distance", 80, "Maximum box-center distance for merging regions")
	sizeRatio := flag.Float64("size-ratio", 0.4, "Fraction of the median area splitting fragments from sprites")
	padding := flag.Int("padding", 5, "Crop padding around each sprite, in pixels")

	gridMode := flag.Bool("grid", false, "Slice along detected grid lines instead of alpha regions")
	rows := flag.Int("rows", 0, "Fallback row count when no horizontal lines are detected")
	cols := flag.Int("cols", 0, "Fallback column count when no vertical lines are detected")

	presets := flag.String("presets", "", "Size presets as name:maxSide:width:height,... (default large, medium, small)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if *input == "" && *batch == "" {
		fmt.Println("Usage: spritesplit -input <sheet> [options]")
		fmt.Println("       spritesplit -batch <dir> [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	opts := sprite.DefaultOptions()
	opts.Detect.AlphaThreshold = *alphaThreshold
	opts.Detect.MinAreaRatio = *minArea
	opts.Detect.MaxAreaRatio = *maxArea
	opts.Merge.DistanceThreshold = *distance
	opts.Merge.SizeRatioThreshold = *sizeRatio
	opts.Padding = *padding
	opts.GridMode = *gridMode
	opts.Grid.FallbackRows = *rows
	opts.Grid.FallbackCols = *cols

	if *presets != "" {
		parsed, err := canvas.ParsePresetSpec(*presets)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid -presets: %v\n", err)
			os.Exit(1)
		}
		opts.Presets = parsed
	}

	sheets := []string{*input}
	if *batch != "" {
		var err error
		sheets, err = listSheets(*batch)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to list %s: %v\n", *batch, err)
			os.Exit(1)
		}
		if len(sheets) == 0 {
			fmt.Fprintf(os.Stderr, "No sheets found in %s\n", *batch)
			os.Exit(1)
		}
	}

	failures := 0
	for _, sheet := range sheets {
		if err := processSheet(sheet, *out, len(sheets) > 1, opts); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", sheet, err)
			failures++
		}
	}
	if failures > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d sheets failed\n", failures, len(sheets))
		os.Exit(1)
	}
}

func processSheet(path, outRoot string, perSheetDir bool, opts sprite.Options) error {
	img, err := raster.Load(path)
	if err != nil {
		return err
	}
	if !opts.GridMode && !raster.HasAlpha(img) {
		return fmt.Errorf("sheet has no transparency; pre-matte it or use -grid")
	}

	outDir := outRoot
	if perSheetDir {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		outDir = filepath.Join(outRoot, name)
	}

	fmt.Printf("Processing %s -> %s\n", path, outDir)
	result, err := sprite.Split(img, outDir, opts)
	if err != nil {
		return err
	}
	fmt.Printf("Extracted %d sprites\n\n", result.Count())
	return nil
}

// listSheets returns the raster files directly inside dir.
func listSheets(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var sheets []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg", ".tif", ".tiff":
			sheets = append(sheets, filepath.Join(dir, e.Name()))
		}
	}
	return sheets, nil
}
