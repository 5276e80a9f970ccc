package geometry

import (
	"fmt"
	"math"
	"time"

	"github.com/westphae/geomag/pkg/egm96"
	"github.com/westphae/geomag/pkg/wmm"
)

const (
	EarthRadiusM   = 6371e3 // Mean earth radius in metres
	MetresPerNM    = 1852.0
	FeetToMetres   = 0.3048
	degreesToRadii = math.Pi / 180
)

// Coordinate is a latitude/longitude pair in decimal degrees
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the coordinate lies within the usual lat/lon bounds
func (c Coordinate) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.4f,%.4f", c.Latitude, c.Longitude)
}

// Distance returns the great-circle distance between a and b in nautical miles
func Distance(a, b Coordinate) float64 {
	return EarthRadiusM * centralAngle(a, b) / MetresPerNM
}

// Haversine returns the distance between two lat/lon points in nautical miles,
// rounded to the nearest whole mile
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	return math.Round(Distance(Coordinate{lat1, lon1}, Coordinate{lat2, lon2}))
}

// centralAngle is the angle in radians subtended at the earth's centre
func centralAngle(a, b Coordinate) float64 {
	phi1 := a.Latitude * degreesToRadii
	phi2 := b.Latitude * degreesToRadii
	dPhi := (b.Latitude - a.Latitude) * degreesToRadii
	dLambda := (b.Longitude - a.Longitude) * degreesToRadii

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	// Rounding can push h a hair outside [0,1] for antipodal points
	h = math.Min(1, math.Max(0, h))

	return 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// InitialBearing returns the true course from a towards b in degrees [0,360)
func InitialBearing(a, b Coordinate) float64 {
	phi1 := a.Latitude * degreesToRadii
	phi2 := b.Latitude * degreesToRadii
	dLambda := (b.Longitude - a.Longitude) * degreesToRadii

	y := math.Sin(dLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)

	return normalizeDegrees(math.Atan2(y, x) / degreesToRadii)
}

// MagneticVariation returns the magnetic declination at c in degrees (+East, -West)
func MagneticVariation(c Coordinate, altFt float64, date time.Time) (float64, error) {
	loc := egm96.NewLocationGeodetic(c.Latitude, c.Longitude, altFt*FeetToMetres)

	mag, err := wmm.CalculateWMMMagneticField(loc, date)
	if err != nil {
		return 0, fmt.Errorf("failed to calculate magnetic field at %s: %w", c, err)
	}

	return mag.D(), nil
}

// MagneticBearing returns the magnetic course from a towards b using the
// variation at a on the given date
func MagneticBearing(a, b Coordinate, date time.Time) (float64, error) {
	variation, err := MagneticVariation(a, 0, date)
	if err != nil {
		return 0, err
	}
	return normalizeDegrees(InitialBearing(a, b) - variation), nil
}

func normalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
