package solar

import (
	"math"
	"time"
)

// daylightZenithDeg is the solar zenith angle at official sunrise and sunset:
// 90° plus standard refraction and the apparent solar radius.
const daylightZenithDeg = 90.833

// DaylightTimes computes sunrise and sunset in UTC for the civil date of t at
// the given coordinates. ok is false during polar day and polar night, when
// the sun does not cross the horizon.
func DaylightTimes(t time.Time, latitude, longitude float64) (sunrise, sunset time.Time, ok bool) {
	utc := t.UTC()
	midnight := time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)

	// Declination and the equation of time drift slowly enough that their
	// values at local solar noon serve for the whole day.
	noonMin := 720 - 4*longitude
	pos := SunPosition(latitude, longitude, midnight.Add(time.Duration(noonMin*float64(time.Minute))))
	noonMin -= pos.EqOfTimeMin

	latRad := degToRad(latitude)
	declRad := degToRad(pos.DeclinationDeg)
	cosH := (math.Cos(degToRad(daylightZenithDeg)) - math.Sin(latRad)*math.Sin(declRad)) /
		(math.Cos(latRad) * math.Cos(declRad))
	if cosH < -1 || cosH > 1 {
		return time.Time{}, time.Time{}, false
	}

	halfDayMin := 4 * radToDeg(math.Acos(cosH))
	sunrise = midnight.Add(time.Duration((noonMin - halfDayMin) * float64(time.Minute)))
	sunset = midnight.Add(time.Duration((noonMin + halfDayMin) * float64(time.Minute)))
	return sunrise, sunset, true
}
