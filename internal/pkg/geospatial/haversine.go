package geospatial

import "math"

const earthRadiusKm = 6371.0

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c * 1000 // meters
}

// BoundingBox returns the box spanning radiusKm around a point, rounded to 7
// decimal places. The longitude span widens with latitude; callers must not
// pass a pole.
func BoundingBox(lat, lon, radiusKm float64) (minLat, minLon, maxLat, maxLon float64) {
	angular := radiusKm / earthRadiusKm
	latRad := toRad(lat)
	lonRad := toRad(lon)
	lonDelta := angular / math.Cos(latRad)

	return Round7(toDeg(latRad - angular)),
		Round7(toDeg(lonRad - lonDelta)),
		Round7(toDeg(latRad + angular)),
		Round7(toDeg(lonRad + lonDelta))
}

// Round7 rounds to 7 decimal places (~1 cm).
func Round7(v float64) float64 {
	return math.Round(v*1e7) / 1e7
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
