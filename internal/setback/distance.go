package setback

import "math"

// Clearance is the computed gap between one building and one boundary.
// It exists only for the duration of an evaluation.
type Clearance struct {
	Building Entity
	Boundary Entity
	Distance float64
}

// axisGap returns the clearance between two intervals centered at posA and
// posB with total extents extA and extB. Overlapping intervals contribute
// zero; the clamp keeps negative intermediates out of the combined distance.
func axisGap(posA, posB, extA, extB float64) float64 {
	return math.Max(0, math.Abs(posA-posB)-(extA/2+extB/2))
}

// Distance computes the clearance between the axis-aligned bounding
// rectangles of two entities: the per-axis gaps combined as a Euclidean
// distance. It is a conservative separating-axis approximation, not exact
// polygon-to-polygon distance. The result is never negative; rectangles
// that overlap on both axes yield exactly 0. An entity with zero extents
// is treated as a point.
func Distance(a, b Entity) float64 {
	xGap := axisGap(a.X, b.X, a.Width, b.Width)
	yGap := axisGap(a.Y, b.Y, a.Height, b.Height)
	return math.Sqrt(xGap*xGap + yGap*yGap)
}
