package safezone

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"manhunt/internal/model"
)

func millis(t time.Time) int64 { return t.UnixMilli() }

func publicZone(id, gameID string, lat, lng, radius float64) *model.SafeZone {
	return &model.SafeZone{
		ID:           id,
		GameID:       gameID,
		Type:         model.SafeZoneTypePublic,
		CenterLat:    lat,
		CenterLng:    lng,
		RadiusMeters: radius,
	}
}

func TestZonesAtPoint(t *testing.T) {
	svc := NewService()
	svc.AddZone(publicZone("z1", "g1", 51.5, 0.0, 100))
	svc.AddZone(publicZone("z2", "g1", 51.6, 0.0, 100))
	now := millis(time.Now())

	inside := svc.ZonesAtPoint("g1", 51.5, 0.0, now)
	require.Len(t, inside, 1)
	assert.Equal(t, "z1", inside[0].ID)

	// ~550m north of z1's center, outside its 100m radius but possibly
	// inside its bounding box candidates.
	assert.Empty(t, svc.ZonesAtPoint("g1", 51.505, 0.0, now))
}

func TestZonesAtPointFiltersByGame(t *testing.T) {
	svc := NewService()
	svc.AddZone(publicZone("z1", "g1", 51.5, 0.0, 100))
	svc.AddZone(publicZone("z2", "g2", 51.5, 0.0, 100))
	now := millis(time.Now())

	zones := svc.ZonesAtPoint("g1", 51.5, 0.0, now)
	require.Len(t, zones, 1)
	assert.Equal(t, "z1", zones[0].ID)
}

func TestTimedZoneOnlyActiveInWindow(t *testing.T) {
	now := time.Now()
	zone := publicZone("z1", "g1", 51.5, 0.0, 100)
	zone.Type = model.SafeZoneTypeTimed
	zone.StartTimeMillis = millis(now.Add(-time.Hour))
	zone.EndTimeMillis = millis(now.Add(time.Hour))

	svc := NewService()
	svc.AddZone(zone)

	assert.Len(t, svc.ZonesAtPoint("g1", 51.5, 0.0, millis(now)), 1)
	assert.Empty(t, svc.ZonesAtPoint("g1", 51.5, 0.0, millis(now.Add(2*time.Hour))))
	assert.Empty(t, svc.ZonesAtPoint("g1", 51.5, 0.0, millis(now.Add(-2*time.Hour))))
}

func TestIsPlayerProtected(t *testing.T) {
	svc := NewService()
	svc.AddZone(publicZone("z1", "g1", 51.5, 0.0, 100))
	ctx := context.Background()
	now := millis(time.Now())

	protected, err := svc.IsPlayerProtected(ctx, "g1", "p1", 51.5, 0.0, now)
	require.NoError(t, err)
	assert.True(t, protected)

	protected, err = svc.IsPlayerProtected(ctx, "g1", "p1", 52.0, 0.0, now)
	require.NoError(t, err)
	assert.False(t, protected)
}

func TestPrivateZoneProtectsOnlyAuthorizedPlayers(t *testing.T) {
	zone := publicZone("z1", "g1", 51.5, 0.0, 100)
	zone.Type = model.SafeZoneTypePrivate
	zone.AuthorizedPlayerIDs = []string{"p1", "p2"}

	svc := NewService()
	svc.AddZone(zone)
	ctx := context.Background()
	now := millis(time.Now())

	protected, err := svc.IsPlayerProtected(ctx, "g1", "p1", 51.5, 0.0, now)
	require.NoError(t, err)
	assert.True(t, protected)

	protected, err = svc.IsPlayerProtected(ctx, "g1", "intruder", 51.5, 0.0, now)
	require.NoError(t, err)
	assert.False(t, protected)
}

func TestRemoveZone(t *testing.T) {
	svc := NewService()
	svc.AddZone(publicZone("z1", "g1", 51.5, 0.0, 100))
	now := millis(time.Now())

	require.True(t, svc.RemoveZone("z1"))
	assert.False(t, svc.RemoveZone("z1"))
	assert.Empty(t, svc.ZonesAtPoint("g1", 51.5, 0.0, now))
}

func TestZonesForGame(t *testing.T) {
	svc := NewService()
	svc.AddZone(publicZone("z1", "g1", 51.5, 0.0, 100))
	svc.AddZone(publicZone("z2", "g1", 51.6, 0.0, 100))
	svc.AddZone(publicZone("z3", "g2", 51.7, 0.0, 100))

	assert.Len(t, svc.ZonesForGame("g1"), 2)
	assert.Len(t, svc.ZonesForGame("g2"), 1)
	assert.Empty(t, svc.ZonesForGame("g3"))
}
