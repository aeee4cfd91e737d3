package simulator

import (
	"math"
	"time"
)

// hourlyPattern is the relative purchase rate per hour of day: quiet at
// night, rising through the morning, peaking in the evening.
var hourlyPattern = [24]float64{
	0.25, 0.12, 0.06, 0.04, 0.04, 0.06,
	0.15, 0.35, 0.6, 0.85, 1.0, 1.05,
	1.0, 0.95, 1.0, 1.05, 1.05, 1.0,
	0.95, 0.95, 1.1, 1.15, 0.95, 0.6,
}

// maxIntensity bounds purchaseIntensity for rejection sampling.
const maxIntensity = 1.15 * 1.1 * 3.0

// purchaseIntensity is the relative rate of purchases at t. Weekends are a
// little quieter; the Black Friday week and the run-up to Christmas spike.
func purchaseIntensity(t time.Time) float64 {
	rate := hourlyPattern[t.Hour()]

	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		rate *= 0.85
	case time.Monday, time.Tuesday:
		rate *= 1.1
	}

	rate *= seasonalFactor(t)
	return rate
}

func seasonalFactor(t time.Time) float64 {
	if isBlackFriday(t) {
		return 3.0
	}
	// gentle yearly wave peaking towards the end of the year
	day := float64(t.YearDay())
	factor := 1 + 0.1*math.Sin(2*math.Pi*(day-260)/365)
	if t.Month() == time.December && t.Day() <= 20 {
		factor *= 1.2
	}
	return factor
}

// isBlackFriday covers the fourth Friday of November and the weekend after.
func isBlackFriday(t time.Time) bool {
	if t.Month() != time.November {
		return false
	}
	first := time.Date(t.Year(), time.November, 1, 0, 0, 0, 0, t.Location())
	offset := (int(time.Friday) - int(first.Weekday()) + 7) % 7
	friday := 1 + offset + 21
	return t.Day() >= friday && t.Day() <= friday+2
}

// randomTime draws a purchase instant in [StartDate, EndDate) following
// purchaseIntensity.
func (s *Simulator) randomTime() time.Time {
	span := s.Config.EndDate.Sub(s.Config.StartDate)
	for attempt := 0; ; attempt++ {
		t := s.Config.StartDate.Add(time.Duration(s.Rng.Int63n(int64(span)))).Truncate(time.Second)
		// bounded so a degenerate window cannot spin
		if attempt >= 50 || s.Rng.Float64()*maxIntensity < purchaseIntensity(t) {
			return t
		}
	}
}
