// Package geo holds coordinate math shared by the pickup-point catalog and
// the map controller.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used by the haversine formula
const EarthRadiusKm = 6371.0

// Coordinate is a WGS-84 latitude/longitude pair in degrees
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Moscow is the default map center when nothing else is known
var Moscow = Coordinate{Lat: 55.7558, Lon: 37.6173}

// DistanceKm returns the great-circle distance between a and b in kilometers
func DistanceKm(a, b Coordinate) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)

	h := sinLat*sinLat + math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*sinLon*sinLon
	// rounding can leave h just outside [0,1] for near-antipodal points
	h = math.Min(1, math.Max(0, h))
	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// DistanceM returns the great-circle distance between a and b in meters
func DistanceM(a, b Coordinate) float64 {
	return DistanceKm(a, b) * 1000
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
