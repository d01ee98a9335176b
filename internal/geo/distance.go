package geo

import "math"

const earthRadiusKm = 6371.0

// Distance returns the haversine great-circle distance between two
// lat/lng points in whole meters.
func Distance(lat1, lon1, lat2, lon2 float64) int {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return int(math.Round(earthRadiusKm * c * 1000))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
