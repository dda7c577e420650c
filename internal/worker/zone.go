package worker

import (
	"context"
	"log"
	"time"

	"manhunt/internal/service/zone"
)

// ActiveGameSource lists the games whose zones should be ticked.
type ActiveGameSource interface {
	ActiveGameIDs() []string
}

// StartZoneWorker advances the shrinking zone of every active game on a
// fixed interval. Phase timing is derived from stored phase end times,
// so a slow or missed tick only delays when clients observe a
// transition, never when it takes effect.
func StartZoneWorker(zoneService *zone.Service, games ActiveGameSource, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for range ticker.C {
			zoneService.AdvanceGames(context.Background(), games.ActiveGameIDs())
		}
	}()

	log.Println("Zone worker started with interval:", interval)
}
