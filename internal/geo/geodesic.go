package geo

import (
	"math"

	"github.com/OCAP2/sonar-trainer/pkg/core"
)

// EarthRadiusMeters is the mean radius of the spherical earth model
const EarthRadiusMeters = 6371000.0

// MetersPerSecondToKnots converts m/s to knots
const MetersPerSecondToKnots = 1.94384

// KnotsToMetersPerSecond converts knots to m/s
const KnotsToMetersPerSecond = 1 / MetersPerSecondToKnots

// NauticalMileMeters is one international nautical mile
const NauticalMileMeters = 1852.0

func toRad(deg float64) float64 { return deg * math.Pi / 180 }
func toDeg(rad float64) float64 { return rad * 180 / math.Pi }

// NormalizeDeg wraps an angle into [0, 360).
func NormalizeDeg(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}

// RelativeDeg wraps an angle into (-180, 180].
func RelativeDeg(d float64) float64 {
	d = NormalizeDeg(d)
	if d > 180 {
		d -= 360
	}
	return d
}

// NormalizeRad wraps an angle into [0, 2π).
func NormalizeRad(r float64) float64 {
	r = math.Mod(r, 2*math.Pi)
	if r < 0 {
		r += 2 * math.Pi
	}
	return r
}

// DistanceMeters is the haversine great-circle distance.
func DistanceMeters(a, b core.GeoPoint) float64 {
	phi1, phi2 := toRad(a.Lat), toRad(b.Lat)
	dPhi := phi2 - phi1
	dLambda := toRad(b.Lon - a.Lon)
	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * EarthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// InitialBearingDeg is the great-circle initial bearing from a to b in [0, 360).
func InitialBearingDeg(a, b core.GeoPoint) float64 {
	phi1, phi2 := toRad(a.Lat), toRad(b.Lat)
	dLambda := toRad(b.Lon - a.Lon)
	y := math.Sin(dLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)
	return NormalizeDeg(toDeg(math.Atan2(y, x)))
}

// BearingAndRange returns the true bearing and distance from a to b.
func BearingAndRange(a, b core.GeoPoint) (bearingDeg, rangeMeters float64) {
	return InitialBearingDeg(a, b), DistanceMeters(a, b)
}

// Destination travels distanceMeters from `from` along the initial bearing.
func Destination(from core.GeoPoint, bearingDeg, distanceMeters float64) core.GeoPoint {
	phi1 := toRad(from.Lat)
	lambda1 := toRad(from.Lon)
	theta := toRad(bearingDeg)
	delta := distanceMeters / EarthRadiusMeters

	phi2 := math.Asin(math.Sin(phi1)*math.Cos(delta) + math.Cos(phi1)*math.Sin(delta)*math.Cos(theta))
	lambda2 := lambda1 + math.Atan2(
		math.Sin(theta)*math.Sin(delta)*math.Cos(phi1),
		math.Cos(delta)-math.Sin(phi1)*math.Sin(phi2),
	)

	lon := toDeg(lambda2)
	// keep longitude in [-180, 180]
	lon = math.Mod(lon+540, 360) - 180
	return core.GeoPoint{Lat: toDeg(phi2), Lon: lon}
}

// PathLengthMeters sums the geodesic segment lengths of a polyline.
func PathLengthMeters(points []core.GeoPoint) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += DistanceMeters(points[i-1], points[i])
	}
	return total
}
