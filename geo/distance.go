package geo

import "math"

// earthRadiusKm is the IUGG mean earth radius.
const earthRadiusKm = 6371.0088

// HaversineKm returns the great-circle distance in kilometers between two
// lat/lon pairs given in decimal degrees.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dPhi := radians(lat2 - lat1)
	dLambda := radians(lon2 - lon1)
	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
