package region

import (
	"testing"

	"gocv.io/x/gocv"
)

// fillSquare paints an opaque size x size square centered at (cx, cy).
func fillSquare(alpha *gocv.Mat, cx, cy, size int) {
	half := size / 2
	for y := cy - half; y < cy-half+size; y++ {
		for x := cx - half; x < cx-half+size; x++ {
			alpha.SetUCharAt(y, x, 255)
		}
	}
}

func TestDetectFullyTransparentRaster(t *testing.T) {
	alpha := gocv.NewMatWithSize(512, 512, gocv.MatTypeCV8U)
	defer alpha.Close()

	regions, err := Detect(alpha, DefaultDetectParams())
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if len(regions) != 0 {
		t.Fatalf("expect 0 regions for transparent raster, got %d", len(regions))
	}
}

func TestDetectSquares(t *testing.T) {
	alpha := gocv.NewMatWithSize(512, 512, gocv.MatTypeCV8U)
	defer alpha.Close()
	fillSquare(&alpha, 100, 100, 40)
	fillSquare(&alpha, 300, 300, 40)

	regions, err := Detect(alpha, DefaultDetectParams())
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if len(regions) != 2 {
		t.Fatalf("expect 2 regions, got %d", len(regions))
	}
	for _, r := range regions {
		if r.PixelArea != 40*40 {
			t.Errorf("pixel area = %d, want 1600", r.PixelArea)
		}
		if r.Box.Width != 40 || r.Box.Height != 40 {
			t.Errorf("box = %+v, want 40x40", r.Box)
		}
		if r.Box.X < 0 || r.Box.Y < 0 || r.Box.X+r.Box.Width > 512 || r.Box.Y+r.Box.Height > 512 {
			t.Errorf("box %+v outside raster bounds", r.Box)
		}
		if len(r.Contour) == 0 {
			t.Errorf("region %d has no contour", r.Index)
		}
	}
}

func TestDetectAreaAndAspectGates(t *testing.T) {
	alpha := gocv.NewMatWithSize(512, 512, gocv.MatTypeCV8U)
	defer alpha.Close()
	// 512*512*0.0005 = 131: a 5x5 speck falls under the relative-size gate.
	fillSquare(&alpha, 50, 50, 5)
	// A 2x300 sliver clears the area gate but fails the aspect gate.
	for y := 100; y < 400; y++ {
		alpha.SetUCharAt(y, 450, 255)
		alpha.SetUCharAt(y, 451, 255)
	}
	// One legitimate sprite.
	fillSquare(&alpha, 250, 250, 40)

	regions, err := Detect(alpha, DefaultDetectParams())
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if len(regions) != 1 {
		t.Fatalf("expect only the 40x40 sprite to survive the gates, got %d regions", len(regions))
	}
	if regions[0].Box.Width != 40 {
		t.Fatalf("surviving region = %+v, want the 40x40 square", regions[0].Box)
	}
}

func TestDetectAlphaThreshold(t *testing.T) {
	alpha := gocv.NewMatWithSize(512, 512, gocv.MatTypeCV8U)
	defer alpha.Close()
	// Everything at alpha 40 sits below the default threshold of 50.
	for y := 100; y < 140; y++ {
		for x := 100; x < 140; x++ {
			alpha.SetUCharAt(y, x, 40)
		}
	}

	regions, err := Detect(alpha, DefaultDetectParams())
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if len(regions) != 0 {
		t.Fatalf("alpha 40 must not pass threshold 50, got %d regions", len(regions))
	}

	p := DefaultDetectParams()
	p.AlphaThreshold = 30
	regions, err = Detect(alpha, p)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if len(regions) != 1 {
		t.Fatalf("alpha 40 should pass threshold 30, got %d regions", len(regions))
	}
}

// Two disjoint squares whose box centers sit 30px apart: merged into one
// region at distanceThreshold 80, kept separate at 10.
func TestDetectThenMergeTwoSquares(t *testing.T) {
	alpha := gocv.NewMatWithSize(512, 512, gocv.MatTypeCV8U)
	defer alpha.Close()
	fillSquare(&alpha, 100, 100, 24)
	fillSquare(&alpha, 130, 100, 24)

	regions, err := Detect(alpha, DefaultDetectParams())
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if len(regions) != 2 {
		t.Fatalf("expect 2 raw regions, got %d", len(regions))
	}

	wide := Merge(regions, MergeParams{DistanceThreshold: 80, SizeRatioThreshold: 0.4})
	if len(wide) != 1 || wide[0].MergedFrom != 2 {
		t.Fatalf("distance 80: expect 1 merged region from 2, got %+v", wide)
	}
	want := regions[0].Box.Union(regions[1].Box)
	if wide[0].Box != want {
		t.Fatalf("merged box %+v, want %+v", wide[0].Box, want)
	}

	tight := Merge(regions, MergeParams{DistanceThreshold: 10, SizeRatioThreshold: 0.4})
	if len(tight) != 2 {
		t.Fatalf("distance 10: expect 2 separate regions, got %d", len(tight))
	}
}
