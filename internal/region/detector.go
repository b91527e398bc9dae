package region

import (
	"fmt"
	"image"

	"spritesplit/pkg/geometry"

	"gocv.io/x/gocv"
)

// Detect binarizes the alpha channel and extracts bounding regions for every
// disjoint ink component. The alpha Mat must be single-channel 8-bit.
// Detection is deterministic for identical input and parameters.
func Detect(alpha gocv.Mat, p DetectParams) ([]Region, error) {
	if alpha.Empty() {
		return nil, fmt.Errorf("empty alpha raster")
	}
	if alpha.Type() != gocv.MatTypeCV8U {
		return nil, fmt.Errorf("alpha raster must be single-channel 8-bit, got type %d", alpha.Type())
	}

	h, w := alpha.Rows(), alpha.Cols()

	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(alpha, &binary, float32(p.AlphaThreshold), 255, gocv.ThresholdBinary)

	// Small elliptical close bridges hairline gaps inside a single object
	// (outlines, antialiased strokes) without welding neighbors together.
	kernel := gocv.GetStructuringElement(gocv.MorphEllipse, image.Point{X: 3, Y: 3})
	defer kernel.Close()
	gocv.MorphologyEx(binary, &binary, gocv.MorphClose, kernel)

	labels := gocv.NewMat()
	defer labels.Close()
	stats := gocv.NewMat()
	defer stats.Close()
	centroids := gocv.NewMat()
	defer centroids.Close()

	numLabels := gocv.ConnectedComponentsWithStats(binary, &labels, &stats, &centroids)
	if numLabels <= 0 {
		return nil, fmt.Errorf("component labeling failed on %dx%d raster", w, h)
	}

	minArea := float64(w) * float64(h) * p.MinAreaRatio
	maxArea := float64(w) * float64(h) * p.MaxAreaRatio

	var regions []Region
	// Label 0 is the background component.
	for i := 1; i < numLabels; i++ {
		area := int(stats.GetIntAt(i, int(gocv.CCStatArea)))
		if float64(area) <= minArea || float64(area) >= maxArea {
			continue
		}

		box := geometry.RectInt{
			X:      int(stats.GetIntAt(i, int(gocv.CCStatLeft))),
			Y:      int(stats.GetIntAt(i, int(gocv.CCStatTop))),
			Width:  int(stats.GetIntAt(i, int(gocv.CCStatWidth))),
			Height: int(stats.GetIntAt(i, int(gocv.CCStatHeight))),
		}
		if box.Height <= 0 {
			continue
		}
		aspect := float64(box.Width) / float64(box.Height)
		if aspect <= minAspect || aspect >= maxAspect {
			continue
		}

		regions = append(regions, Region{
			Index:     len(regions),
			Box:       box,
			PixelArea: area,
			Centroid: geometry.Point2D{
				X: centroids.GetDoubleAt(i, 0),
				Y: centroids.GetDoubleAt(i, 1),
			},
			Contour:    componentContour(labels, box, i),
			MergedFrom: 1,
		})
	}

	return regions, nil
}

// componentContour extracts the single external contour of component id,
// working only inside its bounding box. Contours are kept for visualization.
func componentContour(labels gocv.Mat, box geometry.RectInt, id int) []image.Point {
	mask := gocv.NewMatWithSize(box.Height, box.Width, gocv.MatTypeCV8U)
	defer mask.Close()
	for y := 0; y < box.Height; y++ {
		for x := 0; x < box.Width; x++ {
			if int(labels.GetIntAt(box.Y+y, box.X+x)) == id {
				mask.SetUCharAt(y, x, 255)
			}
		}
	}

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()
	if contours.Size() == 0 {
		return nil
	}

	pts := contours.At(0).ToPoints()
	out := make([]image.Point, len(pts))
	for i, pt := range pts {
		out[i] = image.Point{X: pt.X + box.X, Y: pt.Y + box.Y}
	}
	return out
}
