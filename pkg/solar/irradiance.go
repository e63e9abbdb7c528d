// Package solar computes solar position, clear-sky irradiance and
// sunrise/sunset times.
package solar

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

const (
	solarConstant = 1367.0      // W/m² at the top of the atmosphere
	auKilometers  = 149597870.7 // kilometers per astronomical unit
)

// ClearSkyTurbidity is a typical Bras model atmospheric turbidity factor for
// clear air. Smoggy air runs 4 to 5.
const ClearSkyTurbidity = 2.0

// Position is the sun's apparent position for an observer at an instant.
type Position struct {
	ElevationDeg   float64
	AzimuthDeg     float64
	DeclinationDeg float64
	EqOfTimeMin    float64
	CosZenith      float64
	SunEarthDistKm float64

	distanceAU float64
}

func degToRad(deg float64) float64 { return deg * math.Pi / 180.0 }
func radToDeg(rad float64) float64 { return rad * 180.0 / math.Pi }
func fixAngle(a float64) float64   { return a - 360.0*math.Floor(a/360.0) }

// SunPosition computes the sun's apparent position at t for an observer at
// lat/lon. Elevation includes the standard refraction correction.
func SunPosition(lat, lon float64, t time.Time) Position {
	jd := julian.TimeToJD(t.UTC())
	T := (jd - 2451545.0) / 36525.0

	meanLong := fixAngle(280.46646 + T*(36000.76983+T*0.0003032))
	meanAnom := fixAngle(357.52911 + T*(35999.05029-T*0.0001537))
	eccent := 0.016708634 - T*(0.000042037+T*0.0000001267)
	center := math.Sin(degToRad(meanAnom))*(1.914602-T*(0.004817+T*0.000014)) +
		math.Sin(degToRad(2*meanAnom))*(0.019993-T*0.000101) +
		math.Sin(degToRad(3*meanAnom))*0.000289
	trueLong := meanLong + center
	omega := 125.04 - 1934.136*T
	apparentLong := trueLong - 0.00569 - 0.00478*math.Sin(degToRad(omega))
	obliquity := 23 + (26+(21.448-T*(46.815+T*(0.00059-T*0.001813)))/60)/60
	declRad := math.Asin(math.Sin(degToRad(obliquity)) * math.Sin(degToRad(apparentLong)))

	y := math.Tan(degToRad(obliquity)/2) * math.Tan(degToRad(obliquity)/2)
	eqTimeMin := radToDeg(y*math.Sin(degToRad(2*meanLong))-
		2*eccent*math.Sin(degToRad(meanAnom))+
		4*eccent*y*math.Sin(degToRad(meanAnom))*math.Cos(degToRad(2*meanLong))-
		0.5*y*y*math.Sin(degToRad(4*meanLong))-
		1.25*eccent*eccent*math.Sin(degToRad(2*meanAnom))) * 4

	utc := t.UTC()
	utcMin := float64(utc.Hour()*60+utc.Minute()) + float64(utc.Second())/60.0
	trueSolarMin := utcMin + 4*lon + eqTimeMin
	hourAngle := trueSolarMin/4 - 180

	latRad := degToRad(lat)
	cosZen := math.Sin(latRad)*math.Sin(declRad) + math.Cos(latRad)*math.Cos(declRad)*math.Cos(degToRad(hourAngle))
	zenRad := math.Acos(cosZen)

	pos := Position{
		DeclinationDeg: radToDeg(declRad),
		EqOfTimeMin:    eqTimeMin,
		CosZenith:      cosZen,
		// Standard refraction correction at the horizon
		ElevationDeg: 90 - radToDeg(zenRad) + 0.5667,
	}

	// Sun-Earth distance via the eccentric anomaly (libastro s_edist)
	anomRad := degToRad(meanAnom)
	e := 0.016708617 - T*(0.000042037+T*0.0000001236)
	eccAnom := anomRad + e*math.Sin(anomRad)*(1+e*math.Cos(anomRad))
	trueAnom := 2 * math.Atan(math.Sqrt((1+e)/(1-e))*math.Tan(eccAnom/2))
	pos.distanceAU = (1 - e*e) / (1 + e*math.Cos(trueAnom))
	pos.SunEarthDistKm = pos.distanceAU * auKilometers

	if pos.ElevationDeg > 0 {
		azNum := math.Sin(declRad) - math.Sin(latRad)*cosZen
		azDen := math.Cos(latRad) * math.Sin(zenRad)
		azDeg := radToDeg(math.Acos(azNum / azDen))
		if hourAngle > 0 {
			azDeg = 360 - azDeg
		}
		pos.AzimuthDeg = azDeg
	}

	return pos
}

// PotentialIrradiance estimates clear-sky solar irradiance in W/m² at
// lat/lon using the Bras atmospheric attenuation model. Returns zero when
// the sun is below the horizon.
func PotentialIrradiance(lat, lon float64, t time.Time, turbidity float64) float64 {
	pos := SunPosition(lat, lon, t)
	if pos.ElevationDeg <= 0 {
		return 0
	}

	extraterrestrial := pos.CosZenith * solarConstant / (pos.distanceAU * pos.distanceAU)
	airMass := 1.0 / (pos.CosZenith + 0.15*math.Pow(pos.ElevationDeg+3.885, -1.253))
	attenuation := 0.128 - 0.054*math.Log(airMass)/math.Ln10
	irradiance := extraterrestrial * math.Exp(-turbidity*attenuation*airMass)
	if irradiance < 0 {
		return 0
	}
	return irradiance
}
