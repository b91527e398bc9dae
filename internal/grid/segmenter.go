// Package grid discovers an implicit row/column table structure in a sheet
// raster and slices it into cells. It is the alternate segmentation strategy
// to connected-component region detection, used for regular icon sheets.
package grid

import (
	"fmt"
	"image"
	"math"
	"sort"

	"spritesplit/pkg/geometry"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"
)

// Params configures grid segmentation.
type Params struct {
	LineThreshold      int     // Hough accumulator votes required for a segment
	MinLineLengthRatio float64 // Minimum segment length as a fraction of W (or H)
	EdgeMargin         int     // Segments this close to the sheet border are the border
	ClusterDistance    int     // Coordinates within this distance collapse to one line
	DiffThreshold      float64 // Color-discontinuity multiplier over the mean difference
	FallbackRows       int     // Synthesized row count when detection fails (0 = unset)
	FallbackCols       int     // Synthesized column count when detection fails (0 = unset)
	CellPadding        int     // Inward padding excluding the separator stroke
}

// DefaultParams returns grid segmentation defaults.
func DefaultParams() Params {
	return Params{
		LineThreshold:      80,
		MinLineLengthRatio: 0.5,
		EdgeMargin:         10,
		ClusterDistance:    10,
		DiffThreshold:      1.5,
		CellPadding:        3,
	}
}

// Lines holds the discovered separator coordinates. Rows are Y coordinates
// beginning with 0 and ending with the image height; Cols likewise along X.
// Both sequences are strictly increasing. N entries bound N-1 cell bands.
type Lines struct {
	Rows []int `json:"rows"`
	Cols []int `json:"cols"`
}

// ErrNoGrid reports that no separator lines were detectable and no fallback
// row/column counts were configured. This is a configuration error, not a
// transient one.
type ErrNoGrid struct {
	Axis string
}

func (e *ErrNoGrid) Error() string {
	return fmt.Sprintf("grid: no %s separators detected and no fallback count configured", e.Axis)
}

// Maximum endpoint deviation in the perpendicular axis for a segment to count
// as horizontal or vertical.
const axisTolerance = 20

// Segment discovers the grid line sets for a BGR raster. Line detection runs
// first; directions with no internal line fall back to color-discontinuity
// scanning, then to evenly spaced synthesis from FallbackRows/FallbackCols.
func Segment(img gocv.Mat, p Params) (Lines, error) {
	if img.Empty() {
		return Lines{}, fmt.Errorf("grid: empty raster")
	}
	h, w := img.Rows(), img.Cols()

	gray := gocv.NewMat()
	defer gray.Close()
	if img.Channels() == 3 {
		gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
	} else {
		img.CopyTo(&gray)
	}

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(gray, &edges, 50, 150)

	rows := detectAxis(img, edges, p, true, w, h)
	cols := detectAxis(img, edges, p, false, w, h)

	var err error
	if rows, err = resolveAxis(rows, h, p.FallbackRows, "row"); err != nil {
		return Lines{}, err
	}
	if cols, err = resolveAxis(cols, w, p.FallbackCols, "column"); err != nil {
		return Lines{}, err
	}

	return Lines{Rows: rows, Cols: cols}, nil
}

// detectAxis finds internal separator coordinates along one axis, returning
// the full line set (bounds included) or a short set when nothing was found.
func detectAxis(img, edges gocv.Mat, p Params, horizontal bool, w, h int) []int {
	dim := w
	if !horizontal {
		dim = h
	}

	// A long thin kernel aligned with the sought direction closes broken
	// separator strokes while leaving perpendicular detail untouched.
	klen := max(10, dim/30)
	kernelSize := image.Point{X: klen, Y: 1}
	if !horizontal {
		kernelSize = image.Point{X: 1, Y: klen}
	}
	kernel := gocv.GetStructuringElement(gocv.MorphRect, kernelSize)
	defer kernel.Close()

	directional := gocv.NewMat()
	defer directional.Close()
	gocv.MorphologyEx(edges, &directional, gocv.MorphClose, kernel)

	coords := houghCoords(directional, p, horizontal, w, h)
	lines := finalize(coords, dim, p.ClusterDistance)
	if len(lines) > 2 {
		return lines
	}

	// No usable internal line: scan for color discontinuities instead.
	coords = colorDiffCoords(img, p.DiffThreshold, horizontal)
	return finalize(coords, dim, p.ClusterDistance)
}

// resolveAxis applies the final fallback policy for one direction.
func resolveAxis(lines []int, dim, fallbackCount int, axis string) ([]int, error) {
	if len(lines) > 2 {
		return lines, nil
	}
	if fallbackCount > 0 {
		return evenLines(dim, fallbackCount), nil
	}
	return nil, &ErrNoGrid{Axis: axis}
}

// houghCoords runs the probabilistic line detector on a directional edge map
// and returns the perpendicular coordinate of every near-axis segment whose
// midpoint is clear of the sheet border.
func houghCoords(edges gocv.Mat, p Params, horizontal bool, w, h int) []int {
	dim := w
	if !horizontal {
		dim = h
	}
	minLen := float32(float64(dim) * p.MinLineLengthRatio)

	lines := gocv.NewMat()
	defer lines.Close()
	gocv.HoughLinesPWithParams(edges, &lines, 1, math.Pi/180, p.LineThreshold, minLen, 10)

	var coords []int
	for i := 0; i < lines.Rows(); i++ {
		seg := lines.GetVeciAt(i, 0)
		x1, y1, x2, y2 := int(seg[0]), int(seg[1]), int(seg[2]), int(seg[3])

		var coord, limit int
		if horizontal {
			if abs(y1-y2) >= axisTolerance {
				continue
			}
			coord, limit = (y1+y2)/2, h
		} else {
			if abs(x1-x2) >= axisTolerance {
				continue
			}
			coord, limit = (x1+x2)/2, w
		}

		if coord <= p.EdgeMargin || coord >= limit-p.EdgeMargin {
			continue
		}
		coords = append(coords, coord)
	}
	return coords
}

// colorDiffCoords flags positions where the mean absolute channel difference
// between adjacent columns (or rows) exceeds DiffThreshold times the overall
// mean difference.
func colorDiffCoords(img gocv.Mat, diffThreshold float64, horizontal bool) []int {
	h, w := img.Rows(), img.Cols()
	ch := img.Channels()

	var diffs []float64
	if horizontal {
		// Row separators: compare adjacent pixel rows.
		diffs = make([]float64, h-1)
		for y := 0; y < h-1; y++ {
			diffs[y] = meanRowDiff(img, y, w, ch)
		}
	} else {
		diffs = make([]float64, w-1)
		for x := 0; x < w-1; x++ {
			diffs[x] = meanColDiff(img, x, h, ch)
		}
	}
	if len(diffs) == 0 {
		return nil
	}

	cutoff := diffThreshold * stat.Mean(diffs, nil)
	var coords []int
	for i, d := range diffs {
		if d > cutoff && cutoff > 0 {
			coords = append(coords, i+1)
		}
	}
	return coords
}

func meanRowDiff(img gocv.Mat, y, w, ch int) float64 {
	var sum float64
	if ch == 3 {
		for x := 0; x < w; x++ {
			a := img.GetVecbAt(y, x)
			b := img.GetVecbAt(y+1, x)
			sum += math.Abs(float64(a[0])-float64(b[0])) +
				math.Abs(float64(a[1])-float64(b[1])) +
				math.Abs(float64(a[2])-float64(b[2]))
		}
		return sum / float64(w*3)
	}
	for x := 0; x < w; x++ {
		sum += math.Abs(float64(img.GetUCharAt(y, x)) - float64(img.GetUCharAt(y+1, x)))
	}
	return sum / float64(w)
}

func meanColDiff(img gocv.Mat, x, h, ch int) float64 {
	var sum float64
	if ch == 3 {
		for y := 0; y < h; y++ {
			a := img.GetVecbAt(y, x)
			b := img.GetVecbAt(y, x+1)
			sum += math.Abs(float64(a[0])-float64(b[0])) +
				math.Abs(float64(a[1])-float64(b[1])) +
				math.Abs(float64(a[2])-float64(b[2]))
		}
		return sum / float64(h*3)
	}
	for y := 0; y < h; y++ {
		sum += math.Abs(float64(img.GetUCharAt(y, x)) - float64(img.GetUCharAt(y, x+1)))
	}
	return sum / float64(h)
}

// cluster sorts the coordinates and greedily groups consecutive values within
// clusterDistance of the running cluster mean, replacing each cluster with its
// rounded mean. Duplicate detections of one physical line collapse here.
func cluster(coords []int, clusterDistance int) []int {
	if len(coords) == 0 {
		return nil
	}
	sorted := make([]int, len(coords))
	copy(sorted, coords)
	sort.Ints(sorted)

	var out []int
	sum, n := sorted[0], 1
	flush := func() {
		out = append(out, int(math.Round(float64(sum)/float64(n))))
	}
	for _, v := range sorted[1:] {
		mean := float64(sum) / float64(n)
		if float64(v)-mean <= float64(clusterDistance) {
			sum += v
			n++
			continue
		}
		flush()
		sum, n = v, 1
	}
	flush()
	return out
}

// finalize clusters raw coordinates and brackets them with 0 and the full
// dimension, keeping the sequence strictly increasing.
func finalize(coords []int, dim, clusterDistance int) []int {
	clustered := cluster(coords, clusterDistance)
	lines := make([]int, 0, len(clustered)+2)
	lines = append(lines, 0)
	for _, c := range clustered {
		if c > lines[len(lines)-1] && c < dim {
			lines = append(lines, c)
		}
	}
	return append(lines, dim)
}

// evenLines synthesizes count evenly spaced bands across the dimension.
func evenLines(dim, count int) []int {
	lines := make([]int, count+1)
	for i := 0; i <= count; i++ {
		lines[i] = i * dim / count
	}
	return lines
}

// Cells returns the crop rectangle for every grid cell, shrunk inward by
// padding so the separator stroke stays out of the crop. Cells whose padded
// extents collapse are skipped rather than reported as errors.
func Cells(lines Lines, padding int) []geometry.RectInt {
	var cells []geometry.RectInt
	for r := 0; r+1 < len(lines.Rows); r++ {
		for c := 0; c+1 < len(lines.Cols); c++ {
			cell := geometry.RectInt{
				X:      lines.Cols[c],
				Y:      lines.Rows[r],
				Width:  lines.Cols[c+1] - lines.Cols[c],
				Height: lines.Rows[r+1] - lines.Rows[r],
			}.Shrink(padding)
			if cell.Empty() {
				continue
			}
			cells = append(cells, cell)
		}
	}
	return cells
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
