package region

import (
	"image"
	"sort"
)

// Merge reconciles over-segmented regions into coherent sprite groups.
// Fragments of one drawing (head vs. body, a label vs. its icon) detect as
// separate components; proximity plus relative size is used as a purely
// geometric proxy for belonging to the same sprite.
//
// Every input region lands in exactly one output group, merged boxes never
// shrink relative to any member, and output order is grouping order, not
// input order.
func Merge(regions []Region, p MergeParams) []Region {
	if len(regions) == 0 {
		return nil
	}

	// Split regions into large and small around a fraction of the median
	// pixel area. The lower-middle element is used for even-length lists;
	// downstream behavior depends on this exact tie-break.
	areas := make([]int, len(regions))
	for i, r := range regions {
		areas[i] = r.PixelArea
	}
	sort.Ints(areas)
	cutoff := float64(areas[len(areas)/2]) * p.SizeRatioThreshold

	var large, small []int
	for i, r := range regions {
		if float64(r.PixelArea) >= cutoff {
			large = append(large, i)
		} else {
			small = append(small, i)
		}
	}

	d := newDSU(len(regions))

	// Pass A: attract small fragments to any large region within range.
	for _, li := range large {
		lc := regions[li].Box.Center()
		for _, si := range small {
			if lc.Distance(regions[si].Box.Center()) < p.DistanceThreshold {
				d.union(li, si)
			}
		}
	}

	// Pass B: cohere large regions with each other, reuniting splits where
	// both halves individually clear the size cutoff.
	for i := 0; i < len(large); i++ {
		ci := regions[large[i]].Box.Center()
		for j := i + 1; j < len(large); j++ {
			if ci.Distance(regions[large[j]].Box.Center()) < p.DistanceThreshold {
				d.union(large[i], large[j])
			}
		}
	}

	// Collect groups by set root, first-seen order.
	groups := make(map[int][]int)
	var order []int
	for i := range regions {
		root := d.find(i)
		if _, seen := groups[root]; !seen {
			order = append(order, root)
		}
		groups[root] = append(groups[root], i)
	}

	merged := make([]Region, 0, len(order))
	for _, root := range order {
		members := groups[root]

		box := regions[members[0]].Box
		pixels := 0
		var cx, cy float64
		var contour []image.Point
		for _, m := range members {
			box = box.Union(regions[m].Box)
			pixels += regions[m].PixelArea
			cx += regions[m].Centroid.X * float64(regions[m].PixelArea)
			cy += regions[m].Centroid.Y * float64(regions[m].PixelArea)
			contour = append(contour, regions[m].Contour...)
		}

		out := Region{
			Index:      len(merged),
			Box:        box,
			PixelArea:  pixels,
			Contour:    contour,
			MergedFrom: len(members),
		}
		if pixels > 0 {
			out.Centroid.X = cx / float64(pixels)
			out.Centroid.Y = cy / float64(pixels)
		}
		merged = append(merged, out)
	}

	return merged
}
