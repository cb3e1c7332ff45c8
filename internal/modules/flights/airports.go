package flights

import (
	"fmt"
	"sort"
	"strings"
)

var airportCodes = map[string]string{
	"bangkok":       "BKK",
	"thailand":      "BKK",
	"phuket":        "HKT",
	"new york":      "JFK",
	"nyc":           "JFK",
	"los angeles":   "LAX",
	"san francisco": "SFO",
	"chicago":       "ORD",
	"miami":         "MIA",
	"london":        "LHR",
	"paris":         "CDG",
	"rome":          "FCO",
	"italy":         "FCO",
	"barcelona":     "BCN",
	"madrid":        "MAD",
	"amsterdam":     "AMS",
	"berlin":        "BER",
	"lisbon":        "LIS",
	"iceland":       "KEF",
	"reykjavik":     "KEF",
	"tokyo":         "NRT",
	"japan":         "NRT",
	"kyoto":         "KIX",
	"osaka":         "KIX",
	"seoul":         "ICN",
	"singapore":     "SIN",
	"dubai":         "DXB",
	"hong kong":     "HKG",
	"bali":          "DPS",
	"mumbai":        "BOM",
	"delhi":         "DEL",
	"new delhi":     "DEL",
	"goa":           "GOI",
	"sydney":        "SYD",
	"melbourne":     "MEL",
	"cancun":        "CUN",
	"mexico city":   "MEX",
}

// airportKeys are matched longest first so "new delhi" wins over "delhi".
var airportKeys = func() []string {
	keys := make([]string, 0, len(airportCodes))
	for k := range airportCodes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

// ResolveAirport maps a city or country name to an IATA code. Three-letter
// upper-case inputs are treated as codes already.
func ResolveAirport(location string) (string, error) {
	trimmed := strings.TrimSpace(location)
	if len(trimmed) == 3 && strings.ToUpper(trimmed) == trimmed {
		return trimmed, nil
	}
	lower := strings.ToLower(trimmed)
	if code, ok := airportCodes[lower]; ok {
		return code, nil
	}
	for _, k := range airportKeys {
		if strings.Contains(lower, k) {
			return airportCodes[k], nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAirport, location)
}
