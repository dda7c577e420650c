package geofence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"manhunt/internal/model"
)

// fakeOracle treats latitude >= 0 as inside; distance is the latitude
// scaled to meters, signed.
type fakeOracle struct {
	containsErr error
	distanceErr error
}

func (o *fakeOracle) ContainsLocation(_ context.Context, _ string, loc model.Coordinate) (bool, error) {
	if o.containsErr != nil {
		return false, o.containsErr
	}
	return loc.Latitude >= 0, nil
}

func (o *fakeOracle) DistanceToBoundary(_ context.Context, _ string, loc model.Coordinate) (float64, error) {
	if o.distanceErr != nil {
		return 0, o.distanceErr
	}
	return loc.Latitude * 1000, nil
}

func newTestManager(t *testing.T) (*Manager, *time.Time) {
	t.Helper()
	m := NewManager(&fakeOracle{}, 50, 10*time.Second)
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return current }
	return m, &current
}

func at(lat float64) model.Coordinate {
	return model.Coordinate{Latitude: lat, Longitude: 0}
}

func TestFirstObservationRecordsBaselineOnly(t *testing.T) {
	m, _ := newTestManager(t)

	ev, err := m.UpdatePlayerLocation(context.Background(), "g1", "p1", at(1.0))
	require.NoError(t, err)
	assert.Nil(t, ev, "first observation must not produce an event")
}

func TestEnterAndExitTransitions(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.UpdatePlayerLocation(ctx, "g1", "p1", at(-1.0))
	require.NoError(t, err)

	ev, err := m.UpdatePlayerLocation(ctx, "g1", "p1", at(1.0))
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, EventEnterBoundary, ev.Type)
	assert.Equal(t, "p1", ev.PlayerID)
	assert.InDelta(t, 1000.0, ev.DistanceToBoundaryMeters, 1e-9)

	ev, err = m.UpdatePlayerLocation(ctx, "g1", "p1", at(-2.0))
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, EventExitBoundary, ev.Type)
	assert.InDelta(t, -2000.0, ev.DistanceToBoundaryMeters, 1e-9, "distance is signed negative outside")
}

func TestApproachingFiresInsideNearBoundary(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	// Baseline well inside (distance 1000m > 50m threshold).
	_, err := m.UpdatePlayerLocation(ctx, "g1", "p1", at(1.0))
	require.NoError(t, err)

	// Still inside but within 50m of the boundary.
	ev, err := m.UpdatePlayerLocation(ctx, "g1", "p1", at(0.04))
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, EventApproachingBoundary, ev.Type)
}

func TestApproachingIsRateLimited(t *testing.T) {
	m, current := newTestManager(t)
	ctx := context.Background()

	_, err := m.UpdatePlayerLocation(ctx, "g1", "p1", at(1.0))
	require.NoError(t, err)

	ev, err := m.UpdatePlayerLocation(ctx, "g1", "p1", at(0.04))
	require.NoError(t, err)
	require.NotNil(t, ev)

	// Within the suppression window nothing fires.
	*current = current.Add(5 * time.Second)
	ev, err = m.UpdatePlayerLocation(ctx, "g1", "p1", at(0.03))
	require.NoError(t, err)
	assert.Nil(t, ev)

	// After the window it fires again.
	*current = current.Add(6 * time.Second)
	ev, err = m.UpdatePlayerLocation(ctx, "g1", "p1", at(0.03))
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, EventApproachingBoundary, ev.Type)
}

func TestStillInsideFarFromBoundaryNoEvent(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.UpdatePlayerLocation(ctx, "g1", "p1", at(1.0))
	require.NoError(t, err)

	ev, err := m.UpdatePlayerLocation(ctx, "g1", "p1", at(2.0))
	require.NoError(t, err)
	assert.Nil(t, ev)
}

func TestListenerInvokedSynchronously(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	var received []Event
	m.RegisterListener("g1", "p1", func(e Event) { received = append(received, e) })

	_, err := m.UpdatePlayerLocation(ctx, "g1", "p1", at(-1.0))
	require.NoError(t, err)
	_, err = m.UpdatePlayerLocation(ctx, "g1", "p1", at(1.0))
	require.NoError(t, err)

	require.Len(t, received, 1)
	assert.Equal(t, EventEnterBoundary, received[0].Type)

	m.UnregisterListener("g1", "p1")
	_, err = m.UpdatePlayerLocation(ctx, "g1", "p1", at(-1.0))
	require.NoError(t, err)
	assert.Len(t, received, 1, "unregistered listener must not fire")
}

func TestClearGameResetsBaselines(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.UpdatePlayerLocation(ctx, "g1", "p1", at(-1.0))
	require.NoError(t, err)
	_, err = m.UpdatePlayerLocation(ctx, "g2", "p2", at(-1.0))
	require.NoError(t, err)

	m.ClearGame("g1")

	// g1 behaves as a first observation again.
	ev, err := m.UpdatePlayerLocation(ctx, "g1", "p1", at(1.0))
	require.NoError(t, err)
	assert.Nil(t, ev)

	// g2 state is untouched.
	ev, err = m.UpdatePlayerLocation(ctx, "g2", "p2", at(1.0))
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, EventEnterBoundary, ev.Type)
}

func TestContainmentErrorPropagates(t *testing.T) {
	oracle := &fakeOracle{containsErr: errors.New("boom")}
	m := NewManager(oracle, 50, 10*time.Second)

	_, err := m.UpdatePlayerLocation(context.Background(), "g1", "p1", at(1.0))
	assert.Error(t, err)
}

func TestDistanceErrorDegradesToZero(t *testing.T) {
	oracle := &fakeOracle{}
	m := NewManager(oracle, 50, 10*time.Second)
	ctx := context.Background()

	_, err := m.UpdatePlayerLocation(ctx, "g1", "p1", at(-1.0))
	require.NoError(t, err)

	oracle.distanceErr = errors.New("boom")
	ev, err := m.UpdatePlayerLocation(ctx, "g1", "p1", at(1.0))
	require.NoError(t, err, "distance failures must not fail the update")
	require.NotNil(t, ev)
	assert.Equal(t, EventEnterBoundary, ev.Type)
	assert.Zero(t, ev.DistanceToBoundaryMeters)
}
