// Package region provides connected-component sprite region detection and
// proximity-based region merging.
package region

import (
	"image"

	"spritesplit/pkg/geometry"
)

// Region is a detected connected foreground component, or the result of
// merging several of them. Regions are value types carried by index; merging
// produces new Region values and never mutates its inputs.
type Region struct {
	Index      int                `json:"index"`
	Box        geometry.RectInt   `json:"box"`
	PixelArea  int                `json:"pixelArea"`
	Centroid   geometry.Point2D   `json:"centroid"`
	Contour    []image.Point      `json:"-"`
	MergedFrom int                `json:"mergedFrom"`
}

// DetectParams configures region detection.
type DetectParams struct {
	AlphaThreshold int     // Alpha values above this are foreground
	MinAreaRatio   float64 // Minimum pixel area relative to W*H
	MaxAreaRatio   float64 // Maximum pixel area relative to W*H
}

// DefaultDetectParams returns detection defaults tuned for generated sheets.
func DefaultDetectParams() DetectParams {
	return DetectParams{
		AlphaThreshold: 50,
		MinAreaRatio:   0.0005,
		MaxAreaRatio:   0.25,
	}
}

// MergeParams configures region merging.
type MergeParams struct {
	DistanceThreshold  float64 // Max box-center distance for a union
	SizeRatioThreshold float64 // Fraction of median pixel area splitting small from large
}

// DefaultMergeParams returns merge defaults.
func DefaultMergeParams() MergeParams {
	return MergeParams{
		DistanceThreshold:  80,
		SizeRatioThreshold: 0.4,
	}
}

// Aspect-ratio gate bounds for detected boxes. Boxes outside this range are
// antialiasing slivers, not sprites.
const (
	minAspect = 0.05
	maxAspect = 20.0
)
