package models

import "math"

const earthRadiusKm = 6371.0

type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type Geolocation struct {
	ZipCodePrefix string   `json:"geolocation_zip_code_prefix"`
	Location      Location `json:"location"`
	City          string   `json:"geolocation_city"`
	State         string   `json:"geolocation_state"`
}

// DistanceKm is the haversine distance between two points.
func (l Location) DistanceKm(other Location) float64 {
	dLat := degreesToRadians(other.Lat - l.Lat)
	dLon := degreesToRadians(other.Lon - l.Lon)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(degreesToRadians(l.Lat))*math.Cos(degreesToRadians(other.Lat))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func degreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
