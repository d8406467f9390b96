package geo

import "math"

// earthRadiusMeters is the mean sphere radius PostGIS uses for
// ST_DistanceSphere.
const earthRadiusMeters = 6371008.8

const metersPerMile = 1609.34

// MilesToMeters converts a search radius expressed in miles to meters.
func MilesToMeters(miles float64) float64 {
	return miles * metersPerMile
}

// Haversine returns the great-circle distance between two points in meters.
// The proximity query itself runs in the database; this is the reference
// used to cross-check its results.
func Haversine(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}
