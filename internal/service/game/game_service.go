package game

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"gorm.io/gorm"

	"manhunt/internal/model"
	pg "manhunt/internal/postgres"
	redis_client "manhunt/internal/redis"
	"manhunt/internal/service/storage"
	"manhunt/internal/util"
)

const GameRedisKey = "game"

// Service keeps all games in memory and answers boundary containment
// queries against their polygons. Changes are written behind to Redis
// and PostgreSQL.
type Service struct {
	storage storage.Storage[string, *model.Game]

	initialized bool
	initMutex   sync.RWMutex

	now func() time.Time
}

var (
	gameServiceInstance *Service
	gameServiceOnce     sync.Once
)

// GetGameService returns the singleton instance of the Service.
func GetGameService() *Service {
	gameServiceOnce.Do(func() {
		gameServiceInstance = NewService()
	})
	return gameServiceInstance
}

// NewService creates an empty game service.
func NewService() *Service {
	return &Service{
		storage: storage.NewMemoryStorage[string, *model.Game](),
		now:     time.Now,
	}
}

// InitService loads games from PostgreSQL and overlays newer Redis
// updates.
func (s *Service) InitService(ctx context.Context) error {
	s.initMutex.Lock()
	defer s.initMutex.Unlock()

	if s.initialized {
		return nil
	}

	log.Println("Initializing GameService...")
	startTime := time.Now()

	db := pg.GetDB()
	var games []*model.Game
	if result := db.Find(&games); result.Error != nil {
		return fmt.Errorf("failed to load games from PostgreSQL: %w", result.Error)
	}
	for _, g := range games {
		s.storage.Set(g.ID, g)
	}

	redisGames, err := s.loadAllGamesFromRedis(ctx)
	if err != nil {
		return fmt.Errorf("failed to load games from Redis: %w", err)
	}
	merged := 0
	for id, redisGame := range redisGames {
		existing, exists := s.storage.Get(id)
		if !exists || redisGame.UpdatedAt.After(existing.UpdatedAt) {
			s.storage.Set(id, redisGame)
			merged++
		}
	}

	log.Printf("Initialization complete: %d games in memory (%d from Redis), took %v",
		s.storage.Count(), merged, time.Since(startTime))

	s.initialized = true
	return nil
}

func (s *Service) loadAllGamesFromRedis(ctx context.Context) (map[string]*model.Game, error) {
	keys, err := redis_client.ScanKeys(ctx, fmt.Sprintf("%s:*", GameRedisKey))
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return make(map[string]*model.Game), nil
	}

	jsonData, err := redis_client.GetClient().MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	games := make(map[string]*model.Game)
	for _, data := range jsonData {
		jsonStr, ok := data.(string)
		if !ok || jsonStr == "" {
			continue
		}
		game := &model.Game{}
		if err := json.Unmarshal([]byte(jsonStr), game); err != nil {
			continue
		}
		games[game.ID] = game
	}
	return games, nil
}

// GetGame returns a game by id or ErrGameNotFound.
func (s *Service) GetGame(_ context.Context, gameID string) (*model.Game, error) {
	game, ok := s.storage.Get(gameID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrGameNotFound, gameID)
	}
	return game, nil
}

// AddGame registers a game.
func (s *Service) AddGame(game *model.Game) {
	if game.UpdatedAt.IsZero() {
		game.UpdatedAt = s.now()
	}
	s.storage.Set(game.ID, game)
}

// SetGameStatus updates the lifecycle status of a game.
func (s *Service) SetGameStatus(ctx context.Context, gameID string, status model.GameStatus) error {
	game, err := s.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	game.Status = status
	game.UpdatedAt = s.now()
	s.storage.Set(game.ID, game)
	return nil
}

// ActiveGameIDs returns the ids of every ACTIVE game, for tick workers.
func (s *Service) ActiveGameIDs() []string {
	var ids []string
	s.storage.ForEach(func(id string, game *model.Game) bool {
		if game.Status == model.GameStatusActive {
			ids = append(ids, id)
		}
		return true
	})
	return ids
}

// ContainsLocation reports whether the coordinate lies inside the
// game's boundary polygon. Games without a boundary contain everything.
func (s *Service) ContainsLocation(ctx context.Context, gameID string, loc model.Coordinate) (bool, error) {
	game, err := s.GetGame(ctx, gameID)
	if err != nil {
		return false, err
	}

	polygon := game.BoundaryPolygon()
	if polygon == nil {
		return true, nil
	}
	point := orb.Point{loc.Longitude, loc.Latitude}
	// Cheap rectangle rejection before the ray cast.
	if bound := game.BoundaryBound(); bound != nil && !bound.Contains(point) {
		return false, nil
	}
	return util.PointInPolygon(*polygon, point), nil
}

// DistanceToBoundary returns the signed distance in meters from the
// coordinate to the game's boundary: positive inside, negative outside.
// Games without a boundary report +Inf (never near an edge).
func (s *Service) DistanceToBoundary(ctx context.Context, gameID string, loc model.Coordinate) (float64, error) {
	game, err := s.GetGame(ctx, gameID)
	if err != nil {
		return 0, err
	}

	polygon := game.BoundaryPolygon()
	if polygon == nil {
		return math.Inf(1), nil
	}

	ring := (*polygon)[0]
	minDistance := math.Inf(1)
	for i := 0; i < len(ring)-1; i++ {
		a, b := ring[i], ring[i+1]
		// orb points are (lng, lat).
		d := util.DistanceToSegment(loc.Latitude, loc.Longitude, a[1], a[0], b[1], b[0])
		minDistance = math.Min(minDistance, d)
	}

	if util.PointInPolygon(*polygon, orb.Point{loc.Longitude, loc.Latitude}) {
		return minDistance, nil
	}
	return -minDistance, nil
}

// StartPersistenceWorkers starts workers for persisting data to Redis and PostgreSQL
func (s *Service) StartPersistenceWorkers(redisInterval, pgInterval time.Duration) {
	redisTimer := time.NewTicker(redisInterval)
	go func() {
		for range redisTimer.C {
			if err := s.SaveDirtyGamesToRedis(); err != nil {
				log.Printf("Error saving games to Redis: %v", err)
			}
		}
	}()

	pgTimer := time.NewTicker(pgInterval)
	go func() {
		for range pgTimer.C {
			if err := s.SaveAllGamesToPG(); err != nil {
				log.Printf("Error saving games to PostgreSQL: %v", err)
			}
		}
	}()
}

// SaveDirtyGamesToRedis saves modified games to Redis
func (s *Service) SaveDirtyGamesToRedis() error {
	dirtyGames := s.storage.GetDirty()
	if len(dirtyGames) == 0 {
		return nil
	}

	client := redis_client.GetClient()
	ctx := context.Background()
	pipe := client.Pipeline()

	keys := make([]string, 0, len(dirtyGames))
	for id, game := range dirtyGames {
		gameJSON, err := json.Marshal(game)
		if err != nil {
			return err
		}
		pipe.Set(ctx, fmt.Sprintf("%s:%s", GameRedisKey, id), gameJSON, 0)
		keys = append(keys, id)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	s.storage.ClearDirty(keys)
	log.Printf("Saved %d games to Redis", len(dirtyGames))
	return nil
}

// SaveAllGamesToPG saves all games to PostgreSQL
func (s *Service) SaveAllGamesToPG() error {
	allGames := s.storage.GetAllValues()
	if len(allGames) == 0 {
		return nil
	}

	db := pg.GetDB()
	return db.Transaction(func(tx *gorm.DB) error {
		for _, game := range allGames {
			if result := tx.Save(game); result.Error != nil {
				return result.Error
			}
		}
		return nil
	})
}
