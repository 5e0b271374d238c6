package service

import (
	"time"

	"github.com/okian/levelup/internal/adapters/eventlog"
	"github.com/okian/levelup/internal/domain/pool"
	"github.com/okian/levelup/internal/domain/progression"
	"github.com/okian/levelup/internal/domain/scoring"
	"github.com/okian/levelup/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the submission queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache. Zero or less
// keeps every id.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		s.dedupeSize = size
	}
}

// WithFeedSize bounds the notifications kept per subject.
func WithFeedSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.feedSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore sets the event log. The caller keeps ownership and closes it
// after Stop.
func WithStore(store eventlog.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithStoreName labels the store in stats.
func WithStoreName(name string) Option {
	return func(s *Service) {
		s.storeName = name
	}
}

// WithScorer replaces the damage scoring policy.
func WithScorer(scorer scoring.Scorer) Option {
	return func(s *Service) {
		if scorer != nil {
			s.scorer = scorer
		}
	}
}

// WithLevelSize sets the points needed per level.
func WithLevelSize(size int64) Option {
	return func(s *Service) {
		s.levelSize = size
	}
}

// WithPointsPerPress sets the amount used when a point request has none.
func WithPointsPerPress(points int64) Option {
	return func(s *Service) {
		s.pointsPerPress = points
	}
}

// WithLevelAssets sets the level presentation table.
func WithLevelAssets(assets []progression.LevelAsset) Option {
	return func(s *Service) {
		s.levelAssets = assets
	}
}

// WithLevelUpMessages sets the rotating level-up messages.
func WithLevelUpMessages(messages []string) Option {
	return func(s *Service) {
		s.messages = progression.Messages(messages)
	}
}

// WithStages sets the pool stages.
func WithStages(stages []pool.Stage) Option {
	return func(s *Service) {
		s.stages = stages
	}
}

// WithCalendarDays sets the default calendar length.
func WithCalendarDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.calendarDays = days
		}
	}
}

// WithSummaryWeeks sets the default weekly summary length.
func WithSummaryWeeks(weeks int) Option {
	return func(s *Service) {
		if weeks > 0 {
			s.summaryWeeks = weeks
		}
	}
}

// WithMaxCalendarDays caps the days a calendar request may ask for.
func WithMaxCalendarDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.maxDays = days
		}
	}
}

// WithMaxSummaryWeeks caps the weeks a weekly summary request may ask for.
func WithMaxSummaryWeeks(weeks int) Option {
	return func(s *Service) {
		if weeks > 0 {
			s.maxWeeks = weeks
		}
	}
}

// WithClock replaces time.Now for timestamps and activity views.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
