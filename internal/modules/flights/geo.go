package flights

import "math"

const (
	earthRadiusKm = 6371.0
	cruiseKmh     = 820.0
	// taxi, climb and descent on top of cruise time
	blockOverheadMin = 40
	layoverMin       = 95
)

type coord struct{ lat, lng float64 }

var airportCoords = map[string]coord{
	"AMS": {52.3105, 4.7683},
	"BCN": {41.2974, 2.0833},
	"BER": {52.3667, 13.5033},
	"BKK": {13.6900, 100.7501},
	"BOM": {19.0896, 72.8656},
	"CDG": {49.0097, 2.5479},
	"CUN": {21.0365, -86.8771},
	"DEL": {28.5562, 77.1000},
	"DPS": {-8.7482, 115.1672},
	"DXB": {25.2532, 55.3657},
	"FCO": {41.8003, 12.2389},
	"GOI": {15.3808, 73.8314},
	"HKG": {22.3080, 113.9185},
	"HKT": {8.1132, 98.3169},
	"ICN": {37.4602, 126.4407},
	"JFK": {40.6413, -73.7781},
	"NYC": {40.6413, -73.7781},
	"KEF": {63.9850, -22.6056},
	"KIX": {34.4347, 135.2440},
	"LAX": {33.9416, -118.4085},
	"LHR": {51.4700, -0.4543},
	"LIS": {38.7742, -9.1342},
	"MAD": {40.4983, -3.5676},
	"MEL": {-37.6690, 144.8410},
	"MEX": {19.4361, -99.0719},
	"MIA": {25.7959, -80.2870},
	"NRT": {35.7720, 140.3929},
	"ORD": {41.9742, -87.9073},
	"SFO": {37.6213, -122.3790},
	"SIN": {1.3644, 103.9915},
	"SYD": {-33.9399, 151.1753},
}

// haversineKm returns the great-circle distance in kilometres between two
// points specified in decimal degrees.
func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLng := degreesToRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(degreesToRadians(lat1))*math.Cos(degreesToRadians(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// routeKm is the great-circle distance between two known airports.
func routeKm(origin, destination string) (float64, bool) {
	o, ok := airportCoords[origin]
	if !ok {
		return 0, false
	}
	d, ok := airportCoords[destination]
	if !ok {
		return 0, false
	}
	return haversineKm(o.lat, o.lng, d.lat, d.lng), true
}

// blockMinutes estimates gate-to-gate time for a route with the given stops.
func blockMinutes(km float64, stops int) int {
	return int(math.Round(km/cruiseKmh*60)) + blockOverheadMin + stops*layoverMin
}
