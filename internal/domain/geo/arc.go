package geo

import "math"

// ArcResolution is the number of Bézier segments per arc; arcs carry
// ArcResolution+1 sample points.
const ArcResolution = 20

const (
	// offsetDistanceFactor converts the planar span into a perpendicular
	// displacement of the control point.
	offsetDistanceFactor = 0.2
	// maxBaseOffset caps curvature on long spans, in degrees.
	maxBaseOffset = 5.0
)

// BaseOffset returns the unscaled perpendicular displacement for an arc
// between a and b: min(distance*0.2, 5).
func BaseOffset(a, b LatLng) float64 {
	return math.Min(PlanarDistance(a, b)*offsetDistanceFactor, maxBaseOffset)
}

// ControlPoint returns the quadratic Bézier control point for an arc from a
// to b displaced by offsetMultiplier times the base offset.  A zero-length
// segment yields the midpoint, since atan2(0, 0) is 0 and the offset is 0.
func ControlPoint(a, b LatLng, offsetMultiplier float64) LatLng {
	mid := Midpoint(a, b)
	off := BaseOffset(a, b) * offsetMultiplier
	angle := math.Atan2(b.Lat-a.Lat, b.Lng-a.Lng)
	return LatLng{
		Lat: mid.Lat + off*math.Cos(angle),
		Lng: mid.Lng - off*math.Sin(angle),
	}
}

// BuildArc samples a quadratic Bézier curve from c1 to c2 at
// ArcResolution+1 evenly spaced parameter values.  The first and last points
// are exactly c1 and c2.  A multiplier of 0 yields points on the straight
// segment; negative multipliers bend the arc to the other side.
func BuildArc(c1, c2 LatLng, offsetMultiplier float64) []LatLng {
	ctrl := ControlPoint(c1, c2, offsetMultiplier)

	points := make([]LatLng, ArcResolution+1)
	for i := 0; i <= ArcResolution; i++ {
		t := float64(i) / ArcResolution
		points[i] = quadraticBezier(c1, ctrl, c2, t)
	}
	points[0] = c1
	points[ArcResolution] = c2
	return points
}

func quadraticBezier(p0, p1, p2 LatLng, t float64) LatLng {
	u := 1 - t
	return LatLng{
		Lat: u*u*p0.Lat + 2*u*t*p1.Lat + t*t*p2.Lat,
		Lng: u*u*p0.Lng + 2*u*t*p1.Lng + t*t*p2.Lng,
	}
}
