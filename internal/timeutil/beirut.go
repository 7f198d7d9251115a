package timeutil

import (
	"time"
)

// Beirut is the operational timezone; ledger dates and reference timestamps
// are recorded in it.
var Beirut *time.Location

func init() {
	var err error
	Beirut, err = time.LoadLocation("Asia/Beirut")
	if err != nil {
		// Fallback when the zone database is unavailable. EET without DST.
		Beirut = time.FixedZone("EET", 2*60*60)
	}
}

// Now returns the current time in the operational timezone.
func Now() time.Time {
	return time.Now().In(Beirut)
}

// ToLocal converts any time to the operational timezone.
func ToLocal(t time.Time) time.Time {
	return t.In(Beirut)
}

// Format formats a time in the operational timezone using the given layout.
func Format(t time.Time, layout string) string {
	return t.In(Beirut).Format(layout)
}

// Plausible reports whether a client-supplied timestamp is usable as a ledger
// date. Zero values, dates before the system existed and far-future dates are
// all rejected; callers substitute Now().
func Plausible(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	if t.Year() < 2000 {
		return false
	}
	if t.After(time.Now().Add(24 * time.Hour)) {
		return false
	}
	return true
}

// Common layouts.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
	DisplayLayout  = "02 Jan 2006, 03:04 PM"
)
