// Package geo holds the pure distance math used by the clock-in geofence.
// Nothing here touches storage or the network, so the foreground clock flow
// and the background fall monitor can share it freely.
package geo

import "math"

// EarthRadiusMeters is the mean Earth radius used by Distance.
const EarthRadiusMeters = 6_371_000.0

// DefaultGeofenceRadius is the clock-in radius around a project site.
const DefaultGeofenceRadius = 500.0

// Point is a WGS-84 coordinate in decimal degrees.
type Point struct {
	Latitude  float64
	Longitude float64
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Distance returns the great-circle distance between a and b in meters
// (haversine formula).
func Distance(a, b Point) float64 {
	phi1 := toRadians(a.Latitude)
	phi2 := toRadians(b.Latitude)
	dPhi := toRadians(b.Latitude - a.Latitude)
	dLambda := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// Within reports whether p lies inside the circle of radius meters around center.
// A point exactly on the boundary is inside.
func Within(p, center Point, radius float64) bool {
	return Distance(p, center) <= radius
}

// Valid reports whether p is a plausible coordinate.
func (p Point) Valid() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 && p.Longitude >= -180 && p.Longitude <= 180
}
