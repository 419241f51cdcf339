package stage

import (
	"strconv"
	"time"
)

// Countdown is a remaining duration decomposed into its coarsest non-zero
// display unit.
type Countdown struct {
	Time string `json:"time"`
	Unit string `json:"unit"`
}

// Calendar-free approximations, matching the front end's diff units.
var countdownUnits = []struct {
	name string
	span time.Duration
}{
	{"years", 365 * 24 * time.Hour},
	{"months", 30 * 24 * time.Hour},
	{"days", 24 * time.Hour},
	{"hours", time.Hour},
	{"minutes", time.Minute},
}

// RenderCountdown formats a remaining duration using the coarsest unit with a
// non-zero value among {years, months, days, hours, minutes}. Sub-minute
// remainders are floored to "1 minutes" so a deadline never renders as zero
// or negative while it is still in the future.
func RenderCountdown(remaining time.Duration) Countdown {
	for _, unit := range countdownUnits {
		if v := remaining / unit.span; v > 0 {
			return Countdown{
				Time: strconv.FormatInt(int64(v), 10),
				Unit: unit.name,
			}
		}
	}

	return Countdown{Time: "1", Unit: "minutes"}
}
