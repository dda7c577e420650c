package zone

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"manhunt/internal/model"
	"manhunt/internal/service/storage"
)

const zoneStateRedisKey = "zone_state"

// StateStore persists GameZoneState between ticks.
type StateStore interface {
	// Load returns nil without error when no state exists for the game.
	Load(ctx context.Context, gameID string) (*model.GameZoneState, error)
	Save(ctx context.Context, state *model.GameZoneState) error
	Delete(ctx context.Context, gameID string) error
}

// MemoryStateStore keeps zone states in process memory.
type MemoryStateStore struct {
	states storage.Storage[string, *model.GameZoneState]
}

// NewMemoryStateStore creates an empty in-memory store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{
		states: storage.NewMemoryStorage[string, *model.GameZoneState](),
	}
}

func (s *MemoryStateStore) Load(_ context.Context, gameID string) (*model.GameZoneState, error) {
	state, ok := s.states.Get(gameID)
	if !ok {
		return nil, nil
	}
	return state.Clone(), nil
}

func (s *MemoryStateStore) Save(_ context.Context, state *model.GameZoneState) error {
	s.states.Set(state.GameID, state.Clone())
	return nil
}

func (s *MemoryStateStore) Delete(_ context.Context, gameID string) error {
	s.states.Delete(gameID)
	return nil
}

// RedisStateStore persists zone states as JSON in Redis so state
// survives restarts and is shared between instances.
type RedisStateStore struct {
	client *redis.Client
}

// NewRedisStateStore creates a store backed by the given client.
func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{client: client}
}

func stateKey(gameID string) string {
	return fmt.Sprintf("%s:%s", zoneStateRedisKey, gameID)
}

func (s *RedisStateStore) Load(ctx context.Context, gameID string) (*model.GameZoneState, error) {
	raw, err := s.client.Get(ctx, stateKey(gameID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	state := &model.GameZoneState{}
	if err := json.Unmarshal([]byte(raw), state); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *RedisStateStore) Save(ctx context.Context, state *model.GameZoneState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, stateKey(state.GameID), raw, 0).Err()
}

func (s *RedisStateStore) Delete(ctx context.Context, gameID string) error {
	return s.client.Del(ctx, stateKey(gameID)).Err()
}
