// Package geo holds the planar geometry used to draw relation arcs on the
// world map: coordinate value objects, the quadratic Bézier arc sampler and
// the intensity colour ramp.  Everything here is pure and allocation-light;
// callers may invoke it from any goroutine.
package geo

import (
	"fmt"
	"math"
)

// EarthRadiusKm is the mean Earth radius used by Haversine.
const EarthRadiusKm = 6371.0

// LatLng is a map point in rendering order (latitude first), matching what
// the map layer consumes for polylines.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// LngLat is a point in dataset (GeoJSON) order, longitude first.
type LngLat struct {
	Lng float64 `json:"lng" yaml:"lng"`
	Lat float64 `json:"lat" yaml:"lat"`
}

// LatLng converts a dataset coordinate into rendering order.
func (p LngLat) LatLng() LatLng {
	return LatLng{Lat: p.Lat, Lng: p.Lng}
}

// Validate checks that the coordinate is a finite WGS84 decimal-degree pair.
func (p LngLat) Validate() error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return fmt.Errorf("coordinate (%v, %v) is not finite", p.Lng, p.Lat)
	}
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("latitude %v is out of range [-90, 90]", p.Lat)
	}
	if p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("longitude %v is out of range [-180, 180]", p.Lng)
	}
	return nil
}

// Midpoint returns the planar midpoint of a and b.
func Midpoint(a, b LatLng) LatLng {
	return LatLng{Lat: (a.Lat + b.Lat) / 2, Lng: (a.Lng + b.Lng) / 2}
}

// PlanarDistance is the Euclidean distance between a and b in degree space.
// It is the approximation the arc sampler uses; it is not geodesic.
func PlanarDistance(a, b LatLng) float64 {
	dLat := b.Lat - a.Lat
	dLng := b.Lng - a.Lng
	return math.Sqrt(dLat*dLat + dLng*dLng)
}

// Haversine returns the great-circle distance between a and b in kilometres.
func Haversine(a, b LatLng) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}
