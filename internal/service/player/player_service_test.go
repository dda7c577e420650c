package player

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"manhunt/internal/model"
	"manhunt/internal/service/geofence"
	"manhunt/internal/service/location"
)

func newTestService() *Service {
	return NewService(location.NewHistoryManager(3, time.Minute))
}

func activePlayer(id, gameID string, lat, lng float64) *model.Player {
	return &model.Player{
		ID:        id,
		GameID:    gameID,
		Status:    model.PlayerStatusActive,
		Latitude:  &lat,
		Longitude: &lng,
	}
}

func TestGetPlayer(t *testing.T) {
	svc := newTestService()
	svc.AddPlayer(activePlayer("p1", "g1", 51.5, 0.0))

	got, err := svc.GetPlayer(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", got.ID)

	_, err = svc.GetPlayer(context.Background(), "ghost")
	assert.ErrorIs(t, err, model.ErrPlayerNotFound)
}

func TestUpdatePlayerLocation(t *testing.T) {
	svc := newTestService()
	svc.AddPlayer(activePlayer("p1", "g1", 51.5, 0.0))

	_, err := svc.UpdatePlayerLocation(context.Background(), "p1", 51.6, 0.1)
	require.NoError(t, err)

	got, err := svc.GetPlayer(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 51.6, *got.Latitude)
	assert.Equal(t, 0.1, *got.Longitude)
	assert.False(t, got.LocationTimestamp.IsZero())
	assert.Equal(t, 1, svc.History().HistorySize("p1"), "updates must feed the smoothing history")

	_, err = svc.UpdatePlayerLocation(context.Background(), "ghost", 51.6, 0.1)
	assert.ErrorIs(t, err, model.ErrPlayerNotFound)
}

func TestNearbyPlayersUsesGameIndex(t *testing.T) {
	svc := newTestService()
	svc.AddPlayer(activePlayer("p1", "g1", 51.5, 0.0))
	svc.AddPlayer(activePlayer("p2", "g1", 51.5002, 0.0)) // ~22m north
	svc.AddPlayer(activePlayer("far", "g1", 51.6, 0.0))
	svc.AddPlayer(activePlayer("other-game", "g2", 51.5, 0.0))

	near := svc.NearbyPlayers("g1", model.Coordinate{Latitude: 51.5, Longitude: 0.0}, 100)
	ids := make([]string, 0, len(near))
	for _, p := range near {
		ids = append(ids, p.ID)
	}
	assert.ElementsMatch(t, []string{"p1", "p2"}, ids)

	assert.Nil(t, svc.NearbyPlayers("unknown-game", model.Coordinate{Latitude: 51.5, Longitude: 0.0}, 100))
}

func TestNearbyPlayersTracksMovement(t *testing.T) {
	svc := newTestService()
	svc.AddPlayer(activePlayer("p1", "g1", 51.5, 0.0))

	_, err := svc.UpdatePlayerLocation(context.Background(), "p1", 51.9, 0.5)
	require.NoError(t, err)

	assert.Empty(t, svc.NearbyPlayers("g1", model.Coordinate{Latitude: 51.5, Longitude: 0.0}, 100))
	moved := svc.NearbyPlayers("g1", model.Coordinate{Latitude: 51.9, Longitude: 0.5}, 100)
	require.Len(t, moved, 1)
	assert.Equal(t, "p1", moved[0].ID)
}

func TestRemovePlayer(t *testing.T) {
	svc := newTestService()
	svc.AddPlayer(activePlayer("p1", "g1", 51.5, 0.0))
	svc.History().AddLocation("p1", 51.5, 0.0)

	require.True(t, svc.RemovePlayer("p1"))
	assert.False(t, svc.RemovePlayer("p1"))

	_, err := svc.GetPlayer(context.Background(), "p1")
	assert.ErrorIs(t, err, model.ErrPlayerNotFound)
	assert.Empty(t, svc.NearbyPlayers("g1", model.Coordinate{Latitude: 51.5, Longitude: 0.0}, 100))
	assert.Zero(t, svc.History().HistorySize("p1"))
}

func TestSetPlayerStatus(t *testing.T) {
	svc := newTestService()
	svc.AddPlayer(activePlayer("p1", "g1", 51.5, 0.0))

	require.NoError(t, svc.SetPlayerStatus(context.Background(), "p1", model.PlayerStatusDead))
	got, err := svc.GetPlayer(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, model.PlayerStatusDead, got.Status)

	err = svc.SetPlayerStatus(context.Background(), "ghost", model.PlayerStatusDead)
	assert.ErrorIs(t, err, model.ErrPlayerNotFound)
}

func TestPlayersInGame(t *testing.T) {
	svc := newTestService()
	svc.AddPlayer(activePlayer("p1", "g1", 51.5, 0.0))
	svc.AddPlayer(activePlayer("p2", "g1", 51.6, 0.0))
	svc.AddPlayer(activePlayer("p3", "g2", 51.5, 0.0))

	assert.Len(t, svc.PlayersInGame("g1"), 2)
	assert.Len(t, svc.PlayersInGame("g2"), 1)
	assert.Empty(t, svc.PlayersInGame("g3"))
}

// northOracle treats latitude >= 51.5 as inside the boundary.
type northOracle struct{}

func (northOracle) ContainsLocation(_ context.Context, _ string, loc model.Coordinate) (bool, error) {
	return loc.Latitude >= 51.5, nil
}

func (northOracle) DistanceToBoundary(_ context.Context, _ string, loc model.Coordinate) (float64, error) {
	return (loc.Latitude - 51.5) * 111195, nil
}

func TestUpdatePlayerLocationRunsGeofencing(t *testing.T) {
	svc := newTestService()
	svc.SetGeofenceManager(geofence.NewManager(northOracle{}, 10, time.Minute))
	svc.AddPlayer(activePlayer("p1", "g1", 51.4, 0.0))

	// First observation records the baseline only.
	ev, err := svc.UpdatePlayerLocation(context.Background(), "p1", 51.4, 0.0)
	require.NoError(t, err)
	assert.Nil(t, ev)

	ev, err = svc.UpdatePlayerLocation(context.Background(), "p1", 51.6, 0.0)
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, geofence.EventEnterBoundary, ev.Type)
}
