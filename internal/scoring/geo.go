// Package scoring is the scoring-profile engine (§4.5): freshness,
// magnitude, distance, and tag functions, each shaped by one of four
// interpolation curves and combined by a profile's aggregation. Grounded on
// the teacher's pkg/geo/geospatial.go haversineDistance for the distance
// function and pkg/core/aggregations.go for the combine-many-signals shape.
package scoring

import "math"

const earthRadiusKM = 6371.0

// haversineKM is the great-circle distance between two WGS84 points in
// kilometers (ported from the teacher's pkg/geo/geospatial.go
// haversineDistance, generalized from its Coordinate type to plain floats).
func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKM * c
}
