package worker

import (
	"log"
	"time"

	"manhunt/internal/service/zone"
)

// StartAllWorkers initializes and starts all background workers
func StartAllWorkers(zoneService *zone.Service, games ActiveGameSource, zoneTickInterval time.Duration) {
	log.Println("Starting all workers...")

	StartZoneWorker(zoneService, games, zoneTickInterval)

	log.Println("All workers started")
}
