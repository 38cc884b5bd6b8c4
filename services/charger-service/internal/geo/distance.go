package geo

import "math"

const earthRadiusKM = 6371.0

// DistanceKM is the great-circle distance between two points (haversine).
func DistanceKM(lat1, lng1, lat2, lng2 float64) float64 {
	rlat1 := lat1 * math.Pi / 180
	rlat2 := lat2 * math.Pi / 180
	dlat := (lat2 - lat1) * math.Pi / 180
	dlng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(rlat1)*math.Cos(rlat2)*math.Sin(dlng/2)*math.Sin(dlng/2)
	return 2 * earthRadiusKM * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// BoundingBox returns a lat/lng box enclosing the radius around a point,
// used as a cheap SQL prefilter before the exact distance check. Longitude
// spread widens toward the poles; near them the box degenerates to the full
// longitude range.
func BoundingBox(lat, lng, radiusKM float64) (minLat, maxLat, minLng, maxLng float64) {
	dLat := radiusKM / 111.0
	minLat = lat - dLat
	maxLat = lat + dLat

	cos := math.Cos(lat * math.Pi / 180)
	if cos < 0.01 {
		return minLat, maxLat, -180, 180
	}
	dLng := radiusKM / (111.0 * cos)
	return minLat, maxLat, lng - dLng, lng + dLng
}
