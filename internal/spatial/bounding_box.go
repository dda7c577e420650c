package spatial

import (
	"fmt"

	"manhunt/internal/model"
	"manhunt/internal/util"
)

// BoundingBox is an axis-aligned lat/lng rectangle. The invariant
// SouthWest <= NorthEast componentwise is expected from callers.
type BoundingBox struct {
	SouthWest model.Coordinate
	NorthEast model.Coordinate
}

// NewBoundingBox builds a box from its southwest and northeast corners.
func NewBoundingBox(southWest, northEast model.Coordinate) BoundingBox {
	return BoundingBox{SouthWest: southWest, NorthEast: northEast}
}

// Contains reports whether the point lies inside the box, edges included.
func (b BoundingBox) Contains(p model.Coordinate) bool {
	return p.Latitude >= b.SouthWest.Latitude &&
		p.Latitude <= b.NorthEast.Latitude &&
		p.Longitude >= b.SouthWest.Longitude &&
		p.Longitude <= b.NorthEast.Longitude
}

// Intersects reports whether two boxes overlap. Touching edges count.
func (b BoundingBox) Intersects(other BoundingBox) bool {
	return !(other.NorthEast.Latitude < b.SouthWest.Latitude ||
		other.SouthWest.Latitude > b.NorthEast.Latitude ||
		other.NorthEast.Longitude < b.SouthWest.Longitude ||
		other.SouthWest.Longitude > b.NorthEast.Longitude)
}

// MinDistanceTo returns the haversine distance in meters from the point
// to the closest point of the box; zero when the point is inside.
func (b BoundingBox) MinDistanceTo(p model.Coordinate) float64 {
	closestLat := clamp(p.Latitude, b.SouthWest.Latitude, b.NorthEast.Latitude)
	closestLng := clamp(p.Longitude, b.SouthWest.Longitude, b.NorthEast.Longitude)
	return util.HaversineDistance(p.Latitude, p.Longitude, closestLat, closestLng)
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("BoundingBox[SW=(%f,%f), NE=(%f,%f)]",
		b.SouthWest.Latitude, b.SouthWest.Longitude,
		b.NorthEast.Latitude, b.NorthEast.Longitude)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
