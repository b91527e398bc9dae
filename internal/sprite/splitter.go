// Package sprite orchestrates the geometric engine: segmentation, cropping,
// size normalization, and the detection visualization.
package sprite

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"spritesplit/internal/canvas"
	"spritesplit/internal/grid"
	"spritesplit/internal/raster"
	"spritesplit/internal/region"
	"spritesplit/pkg/geometry"
)

// Options configures a split run.
type Options struct {
	Detect  region.DetectParams
	Merge   region.MergeParams
	Padding int // Outward crop padding around each merged box, in pixels

	GridMode bool
	Grid     grid.Params

	Presets []canvas.Preset
}

// DefaultOptions returns the default split configuration.
func DefaultOptions() Options {
	return Options{
		Detect:  region.DefaultDetectParams(),
		Merge:   region.DefaultMergeParams(),
		Padding: 5,
		Grid:    grid.DefaultParams(),
		Presets: canvas.DefaultPresets(),
	}
}

// Result reports what a split run produced.
type Result struct {
	Regions     []region.Region
	GridLines   *grid.Lines // set only in grid mode
	SpritePaths []string
	SpriteDir   string
	VisPath     string
}

// Count returns the number of extracted sprites.
func (r *Result) Count() int {
	return len(r.SpritePaths)
}

const (
	spriteDirName = "original_sprites"
	visFileName   = "detection_visualization.jpg"
)

// Split segments the raster into sprites, writes the cropped originals and
// one normalized copy per size preset, and writes a visualization of the
// detected geometry. The raster must carry a populated alpha channel unless
// grid mode is selected.
func Split(img *image.NRGBA, outDir string, opts Options) (*Result, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("split: empty raster")
	}

	spriteDir := filepath.Join(outDir, spriteDirName)
	if err := os.MkdirAll(spriteDir, 0o755); err != nil {
		return nil, fmt.Errorf("split: %w", err)
	}

	result := &Result{SpriteDir: spriteDir}

	var crops []geometry.RectInt
	if opts.GridMode {
		lines, cells, err := segmentGrid(img, opts.Grid)
		if err != nil {
			return nil, err
		}
		result.GridLines = &lines
		crops = cells
		for i, cell := range cells {
			result.Regions = append(result.Regions, region.Region{
				Index:      i,
				Box:        cell,
				PixelArea:  cell.Area(),
				Centroid:   cell.Center(),
				MergedFrom: 1,
			})
		}
	} else {
		merged, err := detectRegions(img, opts)
		if err != nil {
			return nil, err
		}
		result.Regions = merged
		for _, r := range merged {
			// Outward padding keeps soft antialiased fringes in the crop.
			crops = append(crops, r.Box.Pad(opts.Padding, w, h))
		}
	}

	for i, crop := range crops {
		if crop.Empty() {
			continue
		}
		name := fmt.Sprintf("sprite_%03d.png", i)
		path := filepath.Join(spriteDir, name)
		if err := raster.SavePNG(path, raster.Crop(img, crop)); err != nil {
			return nil, fmt.Errorf("split: %w", err)
		}
		result.SpritePaths = append(result.SpritePaths, path)
		fmt.Printf("  wrote %s (%dx%d)\n", name, crop.Width, crop.Height)
	}

	visPath := filepath.Join(outDir, visFileName)
	if err := writeVisualization(img, result, visPath); err != nil {
		fmt.Fprintf(os.Stderr, "split: visualization failed: %v\n", err)
	} else {
		result.VisPath = visPath
	}

	if err := normalizeAll(result.SpritePaths, outDir, opts.Presets); err != nil {
		return nil, err
	}

	fmt.Printf("split complete: %d sprites\n", result.Count())
	return result, nil
}

// detectRegions runs the connected-component path: alpha binarization,
// component extraction, and proximity merge.
func detectRegions(img *image.NRGBA, opts Options) ([]region.Region, error) {
	alpha := raster.AlphaMat(img)
	defer alpha.Close()

	raw, err := region.Detect(alpha, opts.Detect)
	if err != nil {
		return nil, fmt.Errorf("split: %w", err)
	}
	fmt.Printf("detected %d raw regions\n", len(raw))

	merged := region.Merge(raw, opts.Merge)
	fmt.Printf("merged into %d sprites\n", len(merged))
	return merged, nil
}

// segmentGrid runs the alternate path: table structure discovery and cell
// slicing.
func segmentGrid(img *image.NRGBA, p grid.Params) (grid.Lines, []geometry.RectInt, error) {
	bgr := raster.ToBGRMat(img)
	defer bgr.Close()

	lines, err := grid.Segment(bgr, p)
	if err != nil {
		return grid.Lines{}, nil, fmt.Errorf("split: %w", err)
	}
	cells := grid.Cells(lines, p.CellPadding)
	fmt.Printf("grid: %d rows x %d cols, %d usable cells\n",
		len(lines.Rows)-1, len(lines.Cols)-1, len(cells))
	return lines, cells, nil
}

// normalizeAll writes one canvas-normalized copy of every sprite per preset.
// A failing sprite is logged and excluded; the batch continues.
func normalizeAll(spritePaths []string, outDir string, presets []canvas.Preset) error {
	for _, preset := range presets {
		presetDir := filepath.Join(outDir, preset.Name)
		if err := os.MkdirAll(presetDir, 0o755); err != nil {
			return fmt.Errorf("split: %w", err)
		}

		for _, src := range spritePaths {
			if err := normalizeOne(src, presetDir, preset); err != nil {
				fmt.Fprintf(os.Stderr, "  skip %s [%s]: %v\n", filepath.Base(src), preset.Name, err)
			}
		}
		fmt.Printf("normalized %s (%dx%d)\n", preset.Name, preset.Width, preset.Height)
	}
	return nil
}

func normalizeOne(src, presetDir string, preset canvas.Preset) error {
	img, err := raster.Load(src)
	if err != nil {
		return err
	}
	normalized, err := canvas.Normalize(img, preset)
	if err != nil {
		return err
	}
	return raster.SavePNG(filepath.Join(presetDir, filepath.Base(src)), normalized)
}
