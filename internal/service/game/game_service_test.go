package game

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"manhunt/internal/model"
)

func squareGame(id string, status model.GameStatus) *model.Game {
	return &model.Game{
		ID:     id,
		Name:   "test game",
		Status: status,
		Boundary: []model.Coordinate{
			{Latitude: 0, Longitude: 0},
			{Latitude: 0, Longitude: 1},
			{Latitude: 1, Longitude: 1},
			{Latitude: 1, Longitude: 0},
		},
	}
}

func TestGetGame(t *testing.T) {
	svc := NewService()
	svc.AddGame(squareGame("g1", model.GameStatusActive))

	game, err := svc.GetGame(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, "g1", game.ID)

	_, err = svc.GetGame(context.Background(), "nope")
	assert.True(t, errors.Is(err, model.ErrGameNotFound))
}

func TestSetGameStatus(t *testing.T) {
	svc := NewService()
	svc.AddGame(squareGame("g1", model.GameStatusPending))

	require.NoError(t, svc.SetGameStatus(context.Background(), "g1", model.GameStatusActive))
	game, err := svc.GetGame(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, model.GameStatusActive, game.Status)

	err = svc.SetGameStatus(context.Background(), "missing", model.GameStatusCompleted)
	assert.True(t, errors.Is(err, model.ErrGameNotFound))
}

func TestActiveGameIDs(t *testing.T) {
	svc := NewService()
	svc.AddGame(squareGame("active1", model.GameStatusActive))
	svc.AddGame(squareGame("active2", model.GameStatusActive))
	svc.AddGame(squareGame("pending", model.GameStatusPending))
	svc.AddGame(squareGame("done", model.GameStatusCompleted))

	ids := svc.ActiveGameIDs()
	assert.ElementsMatch(t, []string{"active1", "active2"}, ids)
}

func TestContainsLocation(t *testing.T) {
	svc := NewService()
	svc.AddGame(squareGame("g1", model.GameStatusActive))

	tests := []struct {
		name string
		loc  model.Coordinate
		want bool
	}{
		{"center", model.Coordinate{Latitude: 0.5, Longitude: 0.5}, true},
		{"near edge inside", model.Coordinate{Latitude: 0.001, Longitude: 0.5}, true},
		{"outside north", model.Coordinate{Latitude: 1.5, Longitude: 0.5}, false},
		{"outside west", model.Coordinate{Latitude: 0.5, Longitude: -0.5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inside, err := svc.ContainsLocation(context.Background(), "g1", tt.loc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, inside)
		})
	}
}

func TestContainsLocationTriangleBoundary(t *testing.T) {
	svc := NewService()
	svc.AddGame(&model.Game{
		ID:     "tri",
		Name:   "triangle",
		Status: model.GameStatusActive,
		Boundary: []model.Coordinate{
			{Latitude: 0, Longitude: 0},
			{Latitude: 0, Longitude: 1},
			{Latitude: 1, Longitude: 0},
		},
	})

	tests := []struct {
		name string
		loc  model.Coordinate
		want bool
	}{
		{"inside triangle", model.Coordinate{Latitude: 0.2, Longitude: 0.2}, true},
		// Inside the bounding rectangle but outside the hypotenuse.
		{"inside bound outside polygon", model.Coordinate{Latitude: 0.9, Longitude: 0.9}, false},
		{"outside bounding rectangle", model.Coordinate{Latitude: 2.0, Longitude: 0.2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inside, err := svc.ContainsLocation(context.Background(), "tri", tt.loc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, inside)
		})
	}
}

func TestContainsLocationWithoutBoundary(t *testing.T) {
	svc := NewService()
	svc.AddGame(&model.Game{ID: "open", Status: model.GameStatusActive})

	inside, err := svc.ContainsLocation(context.Background(), "open", model.Coordinate{Latitude: 80, Longitude: 150})
	require.NoError(t, err)
	assert.True(t, inside)

	d, err := svc.DistanceToBoundary(context.Background(), "open", model.Coordinate{Latitude: 80, Longitude: 150})
	require.NoError(t, err)
	assert.True(t, math.IsInf(d, 1))
}

func TestDistanceToBoundarySign(t *testing.T) {
	svc := NewService()
	svc.AddGame(squareGame("g1", model.GameStatusActive))

	// Just inside the southern edge: positive and small.
	inside, err := svc.DistanceToBoundary(context.Background(), "g1", model.Coordinate{Latitude: 0.001, Longitude: 0.5})
	require.NoError(t, err)
	assert.Greater(t, inside, 0.0)
	assert.InDelta(t, 111.195, inside, 5.0)

	// Mirrored just outside: negative with the same magnitude.
	outside, err := svc.DistanceToBoundary(context.Background(), "g1", model.Coordinate{Latitude: -0.001, Longitude: 0.5})
	require.NoError(t, err)
	assert.Less(t, outside, 0.0)
	assert.InDelta(t, inside, -outside, 5.0)
}

func TestDistanceToBoundaryUnknownGame(t *testing.T) {
	svc := NewService()
	_, err := svc.DistanceToBoundary(context.Background(), "missing", model.Coordinate{})
	assert.True(t, errors.Is(err, model.ErrGameNotFound))

	_, err = svc.ContainsLocation(context.Background(), "missing", model.Coordinate{})
	assert.True(t, errors.Is(err, model.ErrGameNotFound))
}
