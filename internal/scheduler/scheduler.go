package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/eruebush/snotel-go/internal/snotel"
)

// Scheduler periodically re-fetches configured stations so interactive
// requests keep hitting a warm cache.
type Scheduler struct {
	scheduler *gocron.Scheduler
	client    *snotel.Client
	stations  []string
	interval  time.Duration
}

// New creates a Scheduler refreshing the given stations at the interval.
func New(stations []string, interval time.Duration, client *snotel.Client) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		client:    client,
		stations:  stations,
		interval:  interval,
	}
}

// Start schedules the periodic refresh job and starts the underlying
// scheduler.
func (s *Scheduler) Start() error {
	if len(s.stations) == 0 {
		log.Println("scheduler: no stations configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 60
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		log.Println("scheduler: running station refresh job")

		var wg sync.WaitGroup
		for _, stationID := range s.stations {
			stationID := stationID
			wg.Add(1)
			go func() {
				defer wg.Done()

				ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
				defer cancel()

				if err := s.client.Refresh(ctx, stationID); err != nil {
					log.Printf("scheduler: refresh failed for %s: %v", stationID, err)
				}
			}()
		}
		wg.Wait()
		log.Println("scheduler: completed station refresh job")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
