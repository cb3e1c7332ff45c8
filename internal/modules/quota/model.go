package quota

import "errors"

// ErrExhausted is returned when a caller has no trips left for the current month.
var ErrExhausted = errors.New("monthly trip quota exhausted")

// DefaultMonthlyTrips is the allowance granted when none is configured.
const DefaultMonthlyTrips = 30

const monthLayout = "2006-01"
