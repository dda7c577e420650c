package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"manhunt/internal/model"
	"manhunt/internal/util"
)

func box(swLat, swLng, neLat, neLng float64) BoundingBox {
	return NewBoundingBox(
		model.Coordinate{Latitude: swLat, Longitude: swLng},
		model.Coordinate{Latitude: neLat, Longitude: neLng},
	)
}

func TestBoundingBoxContains(t *testing.T) {
	b := box(51.0, 0.0, 52.0, 1.0)

	tests := []struct {
		name  string
		point model.Coordinate
		want  bool
	}{
		{"interior", model.Coordinate{Latitude: 51.5, Longitude: 0.5}, true},
		{"southwest corner", model.Coordinate{Latitude: 51.0, Longitude: 0.0}, true},
		{"northeast corner", model.Coordinate{Latitude: 52.0, Longitude: 1.0}, true},
		{"on south edge", model.Coordinate{Latitude: 51.0, Longitude: 0.5}, true},
		{"just below", model.Coordinate{Latitude: 50.9999, Longitude: 0.5}, false},
		{"west of box", model.Coordinate{Latitude: 51.5, Longitude: -0.1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.Contains(tt.point))
		})
	}
}

func TestBoundingBoxIntersects(t *testing.T) {
	b := box(51.0, 0.0, 52.0, 1.0)

	tests := []struct {
		name  string
		other BoundingBox
		want  bool
	}{
		{"overlapping", box(51.5, 0.5, 52.5, 1.5), true},
		{"contained", box(51.2, 0.2, 51.8, 0.8), true},
		{"containing", box(50.0, -1.0, 53.0, 2.0), true},
		{"touching edge", box(52.0, 0.0, 53.0, 1.0), true},
		{"touching corner", box(52.0, 1.0, 53.0, 2.0), true},
		{"disjoint north", box(52.1, 0.0, 53.0, 1.0), false},
		{"disjoint east", box(51.0, 1.1, 52.0, 2.0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.Intersects(tt.other))
			assert.Equal(t, tt.want, tt.other.Intersects(b), "intersection must be symmetric")
		})
	}
}

func TestMinDistanceToInteriorPointIsZero(t *testing.T) {
	b := box(51.0, 0.0, 52.0, 1.0)
	assert.Zero(t, b.MinDistanceTo(model.Coordinate{Latitude: 51.5, Longitude: 0.5}))
	assert.Zero(t, b.MinDistanceTo(model.Coordinate{Latitude: 51.0, Longitude: 0.0}), "edge point is distance zero")
}

func TestMinDistanceToExteriorPoint(t *testing.T) {
	b := box(51.0, 0.0, 52.0, 1.0)

	// Due east of the box: nearest box point is on the east edge at the
	// same latitude.
	p := model.Coordinate{Latitude: 51.5, Longitude: 1.5}
	want := util.HaversineDistance(51.5, 1.5, 51.5, 1.0)
	assert.InDelta(t, want, b.MinDistanceTo(p), 0.001)

	// Diagonal: nearest box point is the northeast corner.
	p = model.Coordinate{Latitude: 52.5, Longitude: 1.5}
	want = util.HaversineDistance(52.5, 1.5, 52.0, 1.0)
	assert.InDelta(t, want, b.MinDistanceTo(p), 0.001)
}
