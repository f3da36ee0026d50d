package sweeper

import (
	"log"
	"time"

	"cardmeet/backend/internal/config"
	"cardmeet/backend/internal/storage"
)

// Service periodically reclaims stale listings: every OPEN or RESERVED
// listing past its expiry is moved to EXPIRED. It runs independently of the
// request path and shares no state with it beyond the storage backend.
type Service struct {
	Storage  storage.Storage
	Interval time.Duration
}

func NewService(s storage.Storage) *Service {
	return &Service{
		Storage:  s,
		Interval: config.SweepInterval,
	}
}

// Run starts the sweep loop. Intended to be launched as a goroutine.
func (s *Service) Run() {
	log.Println("Expiry sweeper started.")

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for range ticker.C {
		s.Tick(time.Now())
	}
}

// Tick performs one sweep pass. A short-lived Redis lock keeps replicas
// from issuing the same bulk update simultaneously; losing the lock is
// harmless, the expiry update is conditional and idempotent either way.
// A failed or panicking tick is isolated: it never takes down the server.
func (s *Service) Tick(now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: Sweep tick panicked: %v", r)
		}
	}()

	locked, err := s.Storage.AcquireSweepLock(config.SweepLockKey, s.Interval)
	if err != nil {
		log.Printf("ERROR: Failed to acquire sweep lock: %v", err)
		return
	}
	if !locked {
		return
	}

	expired, err := s.Storage.ExpireStaleListings(now)
	if err != nil {
		log.Printf("ERROR: Sweep tick failed: %v", err)
		return
	}
	if expired > 0 {
		log.Printf("INFO: Sweeper expired %d listing(s).", expired)
	}
}
