package safezone

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dhconnelly/rtreego"

	"manhunt/internal/model"
	pg "manhunt/internal/postgres"
	"manhunt/internal/service/storage"
	"manhunt/internal/util"
)

// zoneSpatial wraps a safe zone with its bounding rectangle for R-tree
// indexing. Zones are circles; the rectangle is the circle's bounding
// box in degree space.
type zoneSpatial struct {
	ID   string
	Zone *model.SafeZone
	rect rtreego.Rect
}

// Bounds implements the rtreego.Spatial interface
func (z *zoneSpatial) Bounds() rtreego.Rect {
	return z.rect
}

func newZoneSpatial(zone *model.SafeZone) *zoneSpatial {
	bbox := util.RadiusBoundingBox(zone.CenterLat, zone.CenterLng, zone.RadiusMeters)
	minLat, minLng, maxLat, maxLng := bbox[0], bbox[1], bbox[2], bbox[3]

	rect, _ := rtreego.NewRect(
		rtreego.Point{minLng, minLat},
		[]float64{maxLng - minLng, maxLat - minLat},
	)
	return &zoneSpatial{ID: zone.ID, Zone: zone, rect: rect}
}

// Service manages safe zone data and spatial indexing. It answers
// protection queries for the elimination workflow.
type Service struct {
	storage      storage.Storage[string, *model.SafeZone]
	spatialIndex *rtreego.Rtree // R-tree spatial index
	indexMutex   sync.RWMutex   // Mutex for thread-safe index operations
	initialized  bool           // Flag indicating if service is initialized
	initMutex    sync.RWMutex   // Mutex for initialization
}

var (
	safeZoneServiceInstance *Service
	safeZoneServiceOnce     sync.Once
)

// GetSafeZoneService returns the singleton instance of the Service
func GetSafeZoneService() *Service {
	safeZoneServiceOnce.Do(func() {
		safeZoneServiceInstance = NewService()
	})
	return safeZoneServiceInstance
}

// NewService creates an empty, ready-to-use service. Tests and callers
// that seed zones by hand use this instead of the singleton.
func NewService() *Service {
	return &Service{
		storage:      storage.NewShardedMemoryStorage[string, *model.SafeZone](8, nil),
		spatialIndex: rtreego.NewTree(2, 25, 50), // 2D index with min 25, max 50 entries per node
		initialized:  true,
	}
}

// InitService loads safe zones from PostgreSQL and builds the spatial
// index.
func (s *Service) InitService(ctx context.Context) error {
	s.initMutex.Lock()
	defer s.initMutex.Unlock()

	log.Println("Initializing SafeZoneService...")
	startTime := time.Now()

	zones, err := s.loadAllZonesFromPG()
	if err != nil {
		return fmt.Errorf("failed to load safe zones from PostgreSQL: %w", err)
	}

	for _, zone := range zones {
		s.storage.Set(zone.ID, zone)
	}
	s.rebuildSpatialIndex()

	log.Printf("SafeZoneService initialized: %d zones in %v", s.storage.Count(), time.Since(startTime))
	s.initialized = true
	return nil
}

// loadAllZonesFromPG loads all safe zones from PostgreSQL
func (s *Service) loadAllZonesFromPG() ([]*model.SafeZone, error) {
	db := pg.GetDB()
	var zones []*model.SafeZone

	result := db.Find(&zones)
	if result.Error != nil {
		return nil, result.Error
	}
	return zones, nil
}

// rebuildSpatialIndex rebuilds the spatial index for efficient searching
func (s *Service) rebuildSpatialIndex() {
	s.indexMutex.Lock()
	defer s.indexMutex.Unlock()

	s.spatialIndex = rtreego.NewTree(2, 25, 50)
	s.storage.ForEach(func(id string, zone *model.SafeZone) bool {
		s.spatialIndex.Insert(newZoneSpatial(zone))
		return true
	})
}

// AddZone registers a safe zone and indexes it.
func (s *Service) AddZone(zone *model.SafeZone) {
	s.storage.Set(zone.ID, zone)

	s.indexMutex.Lock()
	defer s.indexMutex.Unlock()
	s.spatialIndex.Insert(newZoneSpatial(zone))
}

// RemoveZone drops a safe zone from storage and the index.
func (s *Service) RemoveZone(zoneID string) bool {
	if !s.storage.Delete(zoneID) {
		return false
	}
	// rtreego deletes by spatial comparison, so rebuild instead.
	s.rebuildSpatialIndex()
	return true
}

// GetZone returns a safe zone by id.
func (s *Service) GetZone(zoneID string) (*model.SafeZone, bool) {
	return s.storage.Get(zoneID)
}

// ZonesAtPoint returns the game's safe zones whose circle covers the
// point and whose active window covers the instant.
func (s *Service) ZonesAtPoint(gameID string, lat, lng float64, atMillis int64) []*model.SafeZone {
	s.indexMutex.RLock()
	defer s.indexMutex.RUnlock()

	searchRect, err := rtreego.NewRect(
		rtreego.Point{lng, lat},
		[]float64{0.0001, 0.0001}, // Small radius for point search
	)
	if err != nil {
		log.Printf("invalid search rect: %v", err)
		return nil
	}

	// Candidates whose bounding boxes contain the point.
	spatialResults := s.spatialIndex.SearchIntersect(searchRect)
	if len(spatialResults) == 0 {
		return nil
	}

	var result []*model.SafeZone
	for _, item := range spatialResults {
		zs := item.(*zoneSpatial)
		zone := zs.Zone
		if zone.GameID != gameID || !zone.ActiveAt(atMillis) {
			continue
		}
		// Exact circle check after the coarse box filter.
		d := util.HaversineDistance(lat, lng, zone.CenterLat, zone.CenterLng)
		if d <= zone.RadiusMeters {
			result = append(result, zone)
		}
	}
	return result
}

// IsPlayerProtected reports whether any safe zone shields the player at
// the given position and instant.
func (s *Service) IsPlayerProtected(ctx context.Context, gameID, playerID string, lat, lng float64, atMillis int64) (bool, error) {
	for _, zone := range s.ZonesAtPoint(gameID, lat, lng, atMillis) {
		if zone.Protects(playerID, atMillis) {
			return true, nil
		}
	}
	return false, nil
}

// ZonesForGame returns every safe zone registered for the game.
func (s *Service) ZonesForGame(gameID string) []*model.SafeZone {
	var result []*model.SafeZone
	s.storage.ForEach(func(id string, zone *model.SafeZone) bool {
		if zone.GameID == gameID {
			result = append(result, zone)
		}
		return true
	})
	return result
}
