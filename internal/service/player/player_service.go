package player

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"manhunt/internal/model"
	pg "manhunt/internal/postgres"
	redis_client "manhunt/internal/redis"
	"manhunt/internal/service/geofence"
	"manhunt/internal/service/location"
	"manhunt/internal/service/storage"
	"manhunt/internal/spatial"
)

const PlayerRedisKey = "player"

// playerElement is the projection of a player indexed for nearby
// queries.
type playerElement struct {
	id  string
	loc model.Coordinate
}

func (e *playerElement) ElementID() string                 { return e.id }
func (e *playerElement) ElementLocation() model.Coordinate { return e.loc }

// worldBounds covers every valid coordinate; exact distance filters in
// the index keep queries correct regardless of the coarse cells.
func worldBounds() spatial.BoundingBox {
	return spatial.NewBoundingBox(
		model.Coordinate{Latitude: -90, Longitude: -180},
		model.Coordinate{Latitude: 90, Longitude: 180},
	)
}

// Service keeps all players in memory, indexes their positions per
// game, and writes changes behind to Redis and PostgreSQL.
type Service struct {
	storage storage.Storage[string, *model.Player]
	history *location.HistoryManager

	// geofences is optional; when set, location updates are run through
	// boundary transition detection.
	geofences *geofence.Manager

	indexMutex sync.RWMutex
	indexes    map[string]*spatial.Index[*playerElement]

	initialized bool
	initMutex   sync.RWMutex

	now func() time.Time
}

var (
	playerServiceInstance *Service
	playerServiceOnce     sync.Once
)

// GetPlayerService returns the singleton instance of the Service.
func GetPlayerService() *Service {
	playerServiceOnce.Do(func() {
		playerServiceInstance = NewService(location.NewHistoryManager(location.DefaultHistorySize, location.DefaultHistoryTTL))
	})
	return playerServiceInstance
}

// NewService creates a service around the given history manager.
func NewService(history *location.HistoryManager) *Service {
	return &Service{
		storage: storage.NewMemoryStorage[string, *model.Player](),
		history: history,
		indexes: make(map[string]*spatial.Index[*playerElement]),
		now:     time.Now,
	}
}

// SetGeofenceManager wires boundary detection into location updates.
func (s *Service) SetGeofenceManager(m *geofence.Manager) {
	s.geofences = m
}

// History exposes the location history manager so collaborators can
// share the same smoothing state.
func (s *Service) History() *location.HistoryManager {
	return s.history
}

// InitService loads players from PostgreSQL, overlays newer Redis
// updates and builds the per-game spatial indexes.
func (s *Service) InitService(ctx context.Context) error {
	s.initMutex.Lock()
	defer s.initMutex.Unlock()

	if s.initialized {
		return nil
	}

	log.Println("Initializing PlayerService...")
	startTime := time.Now()

	pgPlayers, err := s.loadAllPlayersFromPG()
	if err != nil {
		return fmt.Errorf("failed to load players from PostgreSQL: %w", err)
	}
	log.Printf("Loaded %d players from PostgreSQL in %v", len(pgPlayers), time.Since(startTime))

	redisPlayers, err := s.loadAllPlayersFromRedis(ctx)
	if err != nil {
		return fmt.Errorf("failed to load players from Redis: %w", err)
	}
	log.Printf("Loaded %d player updates from Redis", len(redisPlayers))

	merged := s.mergePlayersIntoMemory(pgPlayers, redisPlayers)
	log.Printf("Merged %d newer players from Redis", merged)

	s.storage.ForEach(func(id string, player *model.Player) bool {
		s.indexPlayer(player)
		return true
	})

	log.Printf("Initialization complete: %d players in memory, took %v",
		s.storage.Count(), time.Since(startTime))

	s.initialized = true
	return nil
}

func (s *Service) loadAllPlayersFromPG() ([]*model.Player, error) {
	db := pg.GetDB()
	var players []*model.Player

	result := db.Find(&players)
	if result.Error != nil {
		return nil, result.Error
	}
	return players, nil
}

func (s *Service) loadAllPlayersFromRedis(ctx context.Context) (map[string]*model.Player, error) {
	keys, err := redis_client.ScanKeys(ctx, fmt.Sprintf("%s:*", PlayerRedisKey))
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return make(map[string]*model.Player), nil
	}

	jsonData, err := redis_client.GetClient().MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	players := make(map[string]*model.Player)
	for _, data := range jsonData {
		jsonStr, ok := data.(string)
		if !ok || jsonStr == "" {
			continue
		}

		player := &model.Player{}
		if err := json.Unmarshal([]byte(jsonStr), player); err != nil {
			continue
		}
		players[player.ID] = player
	}
	return players, nil
}

// mergePlayersIntoMemory applies Redis updates on top of PostgreSQL
// data when they are newer.
func (s *Service) mergePlayersIntoMemory(pgPlayers []*model.Player, redisPlayers map[string]*model.Player) int {
	for _, p := range pgPlayers {
		s.storage.Set(p.ID, p)
	}

	mergedCount := 0
	for id, redisPlayer := range redisPlayers {
		existing, exists := s.storage.Get(id)
		if !exists || redisPlayer.UpdatedAt.After(existing.UpdatedAt) {
			if exists {
				redisPlayer.CreatedAt = existing.CreatedAt
				redisPlayer.DeletedAt = existing.DeletedAt
			}
			s.storage.Set(id, redisPlayer)
			mergedCount++
		}
	}
	return mergedCount
}

// GetPlayer returns a player by id or ErrPlayerNotFound.
func (s *Service) GetPlayer(_ context.Context, playerID string) (*model.Player, error) {
	player, ok := s.storage.Get(playerID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrPlayerNotFound, playerID)
	}
	return player, nil
}

// AddPlayer registers a player and indexes their position.
func (s *Service) AddPlayer(player *model.Player) {
	if player.UpdatedAt.IsZero() {
		player.UpdatedAt = s.now()
	}
	s.storage.Set(player.ID, player)
	s.indexPlayer(player)
}

// RemovePlayer drops a player from storage, the index and history.
func (s *Service) RemovePlayer(playerID string) bool {
	player, ok := s.storage.Get(playerID)
	if !ok {
		return false
	}
	s.storage.Delete(playerID)
	s.history.ClearHistory(playerID)

	if player.GameID != "" {
		s.indexMutex.RLock()
		index := s.indexes[player.GameID]
		s.indexMutex.RUnlock()
		if index != nil {
			index.Remove(&playerElement{id: playerID})
		}
	}
	return true
}

// SetPlayerStatus updates the lifecycle status of a player.
func (s *Service) SetPlayerStatus(ctx context.Context, playerID string, status model.PlayerStatus) error {
	player, err := s.GetPlayer(ctx, playerID)
	if err != nil {
		return err
	}
	player.Status = status
	player.UpdatedAt = s.now()
	s.storage.Set(player.ID, player)
	return nil
}

// UpdatePlayerLocation stores a new fix for the player, feeds the
// smoothing history and the spatial index, and runs geofence detection.
// Returns the geofence event the movement triggered, if any.
func (s *Service) UpdatePlayerLocation(ctx context.Context, playerID string, lat, lng float64) (*geofence.Event, error) {
	player, err := s.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	player.Latitude = &lat
	player.Longitude = &lng
	player.LocationTimestamp = now
	player.UpdatedAt = now
	s.storage.Set(player.ID, player)

	s.history.AddLocationAt(playerID, lat, lng, now)
	s.indexPlayer(player)

	if s.geofences == nil || player.GameID == "" {
		return nil, nil
	}
	return s.geofences.UpdatePlayerLocation(ctx, player.GameID, playerID, model.Coordinate{Latitude: lat, Longitude: lng})
}

// PlayersInGame returns every player registered to the game.
func (s *Service) PlayersInGame(gameID string) []*model.Player {
	var players []*model.Player
	s.storage.ForEach(func(id string, player *model.Player) bool {
		if player.GameID == gameID {
			players = append(players, player)
		}
		return true
	})
	return players
}

// NearbyPlayers returns the game's players within radiusMeters of the
// center, using the per-game spatial index.
func (s *Service) NearbyPlayers(gameID string, center model.Coordinate, radiusMeters float64) []*model.Player {
	s.indexMutex.RLock()
	index := s.indexes[gameID]
	s.indexMutex.RUnlock()
	if index == nil {
		return nil
	}

	elements := index.FindWithinRadius(center, radiusMeters)
	players := make([]*model.Player, 0, len(elements))
	for _, e := range elements {
		if player, ok := s.storage.Get(e.ElementID()); ok {
			players = append(players, player)
		}
	}
	return players
}

// indexPlayer places the player's current position in their game's
// index, creating the index on first use.
func (s *Service) indexPlayer(player *model.Player) {
	if player.GameID == "" || !player.HasLocation() {
		return
	}

	s.indexMutex.Lock()
	index, ok := s.indexes[player.GameID]
	if !ok {
		index = spatial.NewIndex[*playerElement](worldBounds())
		s.indexes[player.GameID] = index
	}
	s.indexMutex.Unlock()

	index.Update(&playerElement{id: player.ID, loc: player.Location()})
}

// DropGameIndex removes the spatial index of a finished game.
func (s *Service) DropGameIndex(gameID string) {
	s.indexMutex.Lock()
	defer s.indexMutex.Unlock()
	delete(s.indexes, gameID)
}

// StartPersistenceWorkers starts workers for persisting data to Redis and PostgreSQL
func (s *Service) StartPersistenceWorkers(redisInterval, pgInterval time.Duration) {
	redisTimer := time.NewTicker(redisInterval)
	go func() {
		for range redisTimer.C {
			if err := s.SaveDirtyPlayersToRedis(); err != nil {
				log.Printf("Error saving players to Redis: %v", err)
			}
		}
	}()

	pgTimer := time.NewTicker(pgInterval)
	go func() {
		for range pgTimer.C {
			if err := s.SaveAllPlayersToPG(); err != nil {
				log.Printf("Error saving players to PostgreSQL: %v", err)
			}
		}
	}()
}

// SaveDirtyPlayersToRedis saves modified players to Redis
func (s *Service) SaveDirtyPlayersToRedis() error {
	dirtyPlayers := s.storage.GetDirty()
	if len(dirtyPlayers) == 0 {
		return nil
	}

	client := redis_client.GetClient()
	ctx := context.Background()
	pipe := client.Pipeline()

	// Collect keys to clear flags after successful save
	keys := make([]string, 0, len(dirtyPlayers))

	for id, player := range dirtyPlayers {
		playerKey := fmt.Sprintf("%s:%s", PlayerRedisKey, id)
		playerJSON, err := json.Marshal(player)
		if err != nil {
			return err
		}
		pipe.Set(ctx, playerKey, playerJSON, 0)
		keys = append(keys, id)
	}

	_, err := pipe.Exec(ctx)
	if err != nil {
		return err
	}

	// Clear flags only after successful save
	s.storage.ClearDirty(keys)

	log.Printf("Saved %d players to Redis", len(dirtyPlayers))
	return nil
}

// SaveAllPlayersToPG saves all players to PostgreSQL in batches
func (s *Service) SaveAllPlayersToPG() error {
	allPlayers := s.storage.GetAllValues()
	if len(allPlayers) == 0 {
		return nil
	}

	db := pg.GetDB()
	batchSize := 1000

	for i := 0; i < len(allPlayers); i += batchSize {
		end := i + batchSize
		if end > len(allPlayers) {
			end = len(allPlayers)
		}

		batch := allPlayers[i:end]

		err := db.Transaction(func(tx *gorm.DB) error {
			for _, player := range batch {
				if result := tx.Save(player); result.Error != nil {
					return result.Error
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}
