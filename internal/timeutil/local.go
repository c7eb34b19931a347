package timeutil

import (
	"time"
)

// Local is the shop's operating timezone (Cuiabá, UTC-4, no DST)
var Local *time.Location

func init() {
	var err error
	Local, err = time.LoadLocation("America/Cuiaba")
	if err != nil {
		// Fallback: fixed zone if tzdata is not installed
		Local = time.FixedZone("AMT", -4*60*60)
	}
}

// Now returns the current time in the shop timezone
func Now() time.Time {
	return time.Now().In(Local)
}

// FormatLocal formats a time in the shop timezone using the given layout
func FormatLocal(t time.Time, layout string) string {
	return t.In(Local).Format(layout)
}

// DisplayLayout is the day/month layout shown to operators and drivers
const DisplayLayout = "02/01/2006 15:04"
