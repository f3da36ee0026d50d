package geo

import (
	"math"

	"cardmeet/backend/internal/config"
)

// DistanceKm returns the great-circle distance in kilometers between two
// coordinates, using the haversine formula on a spherical Earth
// (mean radius 6371 km). Symmetric in its arguments and zero for
// identical points.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	la1 := toRad(lat1)
	la2 := toRad(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLng/2)*math.Sin(dLng/2)*math.Cos(la1)*math.Cos(la2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return config.EarthRadiusKm * c
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180.0
}
