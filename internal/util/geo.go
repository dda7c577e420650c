package util

import (
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
)

const earthRadiusMeters = 6371000.0

// HaversineDistance returns the great-circle distance in meters between
// two points given in degrees.
func HaversineDistance(lat1, lng1, lat2, lng2 float64) float64 {
	// Convert coordinates from degrees to S2 points
	point1 := s2.PointFromLatLng(s2.LatLngFromDegrees(lat1, lng1))
	point2 := s2.PointFromLatLng(s2.LatLngFromDegrees(lat2, lng2))

	// Calculate angle between points
	angle := s1.Angle(s2.ChordAngleBetweenPoints(point1, point2).Angle())

	return angle.Radians() * earthRadiusMeters
}

// DestinationPoint returns the point reached by travelling
// distanceMeters from (lat, lng) along the given bearing in degrees
// (0 = north, 90 = east).
func DestinationPoint(lat, lng, bearingDegrees, distanceMeters float64) (float64, float64) {
	latRad := degToRad(lat)
	lngRad := degToRad(lng)
	brng := degToRad(bearingDegrees)
	d := distanceMeters / earthRadiusMeters

	lat2 := math.Asin(math.Sin(latRad)*math.Cos(d) +
		math.Cos(latRad)*math.Sin(d)*math.Cos(brng))
	lng2 := lngRad + math.Atan2(math.Sin(brng)*math.Sin(d)*math.Cos(latRad),
		math.Cos(d)-math.Sin(latRad)*math.Sin(lat2))

	// Normalize longitude to -180..180
	lng2 = math.Mod(lng2+3*math.Pi, 2*math.Pi) - math.Pi

	return radToDeg(lat2), radToDeg(lng2)
}

// RadiusBoundingBox returns [minLat, minLng, maxLat, maxLng] in degrees
// for a circle of radiusMeters around the center. Used for coarse
// filtering before exact distance checks.
func RadiusBoundingBox(centerLat, centerLng, radiusMeters float64) [4]float64 {
	radDist := radiusMeters / earthRadiusMeters
	radLat := degToRad(centerLat)
	radLng := degToRad(centerLng)

	minLat := radLat - radDist
	maxLat := radLat + radDist

	var deltaLng float64
	if minLat > -math.Pi/2 && maxLat < math.Pi/2 {
		// Degrees of longitude shrink with latitude
		deltaLng = radDist / math.Min(math.Cos(minLat), math.Cos(maxLat))
	} else {
		// Circle reaches a pole: cover all longitudes
		minLat = math.Max(minLat, -math.Pi/2)
		maxLat = math.Min(maxLat, math.Pi/2)
		deltaLng = math.Pi
	}

	minLng := radLng - deltaLng
	maxLng := radLng + deltaLng

	return [4]float64{radToDeg(minLat), radToDeg(minLng), radToDeg(maxLat), radToDeg(maxLng)}
}

// PointInPolygon reports whether a point is inside the polygon's outer
// ring using ray casting. Works for simple polygons in either winding
// direction. orb points are (lng, lat).
func PointInPolygon(polygon orb.Polygon, point orb.Point) bool {
	if len(polygon) == 0 {
		return false
	}
	return pointInRing(polygon[0], point)
}

func pointInRing(ring orb.Ring, point orb.Point) bool {
	n := len(ring)
	if n >= 2 && ring[0] == ring[n-1] {
		// Ignore an explicit closing vertex
		n--
	}
	if n < 3 {
		return false
	}

	x, y := point[0], point[1]
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		if ((yi > y) != (yj > y)) &&
			(x < (xj-xi)*(y-yi)/(yj-yi)+xi) {
			inside = !inside
		}
	}
	return inside
}

// DistanceToSegment returns the distance in meters from a point to the
// closest point on a segment, all in degrees. The projection is planar
// in degree space, which is accurate enough at game-area scales.
func DistanceToSegment(pLat, pLng, aLat, aLng, bLat, bLng float64) float64 {
	if aLat == bLat && aLng == bLng {
		return HaversineDistance(pLat, pLng, aLat, aLng)
	}

	dLat := bLat - aLat
	dLng := bLng - aLng
	t := ((pLat-aLat)*dLat + (pLng-aLng)*dLng) / (dLat*dLat + dLng*dLng)
	t = math.Max(0, math.Min(1, t))

	closestLat := aLat + t*dLat
	closestLng := aLng + t*dLng

	return HaversineDistance(pLat, pLng, closestLat, closestLng)
}

// PolygonCentroid returns the shoelace centroid of the ring formed by
// the given (lng, lat) points, falling back to the vertex average for
// degenerate (zero-area) rings. Returns false for fewer than 3 points.
func PolygonCentroid(points []orb.Point) (orb.Point, bool) {
	n := len(points)
	if n > 1 && points[0] == points[n-1] {
		n--
	}
	if n < 3 {
		return orb.Point{}, false
	}

	var cx, cy, signedArea float64
	for i := 0; i < n; i++ {
		p1 := points[i]
		p2 := points[(i+1)%n]
		cross := p1[0]*p2[1] - p2[0]*p1[1]
		signedArea += cross
		cx += (p1[0] + p2[0]) * cross
		cy += (p1[1] + p2[1]) * cross
	}

	if math.Abs(signedArea) < 1e-12 {
		// Degenerate polygon: average the vertices
		var sx, sy float64
		for i := 0; i < n; i++ {
			sx += points[i][0]
			sy += points[i][1]
		}
		return orb.Point{sx / float64(n), sy / float64(n)}, true
	}

	signedArea *= 0.5
	return orb.Point{cx / (6 * signedArea), cy / (6 * signedArea)}, true
}

func degToRad(d float64) float64 { return d * math.Pi / 180 }
func radToDeg(r float64) float64 { return r * 180 / math.Pi }
