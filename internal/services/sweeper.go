package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Sweeper purges stories whose expiry has passed
type Sweeper struct {
	stories ExpiredStoryPurger
	events  Publisher
	now     func() time.Time
}

// NewSweeper creates a new expiry sweeper
func NewSweeper(stories ExpiredStoryPurger, events Publisher) *Sweeper {
	return &Sweeper{
		stories: stories,
		events:  publisherOrNoop(events),
		now:     time.Now,
	}
}

// Sweep deletes every story expired before now, whatever its active flag,
// and returns how many this call removed. Overlapping sweeps are safe.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	purged, err := s.stories.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, storeError("purge expired stories", err)
	}

	if purged > 0 {
		log.Info().Int64("count", purged).Msg("Expired stories purged")
		s.events.Publish(Event{
			Type: EventStoriesExpired,
			Data: map[string]interface{}{"count": purged},
		})
	}
	return purged, nil
}

// Run sweeps once immediately and then every interval until ctx is done.
// A failed sweep is logged and retried on the next tick.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().Dur("interval", interval).Msg("Story sweeper started")
	for {
		if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
			log.Error().Err(err).Msg("Story sweep failed")
		}

		select {
		case <-ctx.Done():
			log.Info().Msg("Story sweeper stopped")
			return
		case <-ticker.C:
		}
	}
}
