// Package service owns the event log and the engines and implements the
// operations the HTTP API exposes.
package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"runtime"
	"sync"
	"time"

	"github.com/okian/levelup/internal/adapters/eventlog"
	eventqueue "github.com/okian/levelup/internal/adapters/mq/queue"
	workerpool "github.com/okian/levelup/internal/adapters/mq/worker"
	"github.com/okian/levelup/internal/adapters/repository"
	"github.com/okian/levelup/internal/domain/dedupe"
	"github.com/okian/levelup/internal/domain/model"
	"github.com/okian/levelup/internal/domain/pool"
	"github.com/okian/levelup/internal/domain/progression"
	"github.com/okian/levelup/internal/domain/scoring"
	"github.com/okian/levelup/pkg/logger"
	"github.com/okian/levelup/pkg/metrics"
)

const (
	subjectLockStripes = 256
	stopTimeout        = 10 * time.Second
)

// Service implements the API dependencies for the levelup system.
type Service struct {
	mu sync.RWMutex

	// Collaborators
	store     eventlog.Store
	storeName string
	standings repository.Store
	deduper   dedupe.Deduper
	queue     eventqueue.Queue
	scorer    scoring.Scorer
	workers   *workerpool.Pool
	feed      *feed

	// Configuration
	workerCount    int
	queueSize      int
	dedupeSize     int
	feedSize       int
	levelSize      int64
	pointsPerPress int64
	levelAssets    []progression.LevelAsset
	levels         *progression.LevelTable
	messages       progression.Messages
	stages         []pool.Stage
	calendarDays   int
	summaryWeeks   int
	maxDays        int
	maxWeeks       int
	now            func() time.Time

	// Per-subject serialization of log mutations.
	locks [subjectLockStripes]sync.Mutex

	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// New constructs a Service. The level table, level size and stages are
// validated here so a misconfiguration fails at startup.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		storeName:      "memory",
		workerCount:    runtime.NumCPU(),
		queueSize:      10_000,
		dedupeSize:     50_000,
		feedSize:       20,
		levelSize:      100,
		pointsPerPress: 10,
		levelAssets:    []progression.LevelAsset{{Level: 1, Title: "Level 1"}},
		stages:         []pool.Stage{{Name: "Stage 1", Capacity: 1000}, {Name: "Stage 2", Capacity: 1500}, {Name: "Stage 3", Capacity: 2000}},
		calendarDays:   60,
		summaryWeeks:   8,
		maxDays:        366,
		maxWeeks:       104,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := progression.ValidateLevelSize(s.levelSize); err != nil {
		return nil, err
	}
	if err := pool.ValidateStages(s.stages); err != nil {
		return nil, err
	}
	if s.pointsPerPress < 0 {
		return nil, fmt.Errorf("%w: points per press %d is negative", model.ErrConfiguration, s.pointsPerPress)
	}
	if s.calendarDays > s.maxDays || s.summaryWeeks > s.maxWeeks {
		return nil, fmt.Errorf("%w: default calendar %d/%d or summary %d/%d exceeds its cap",
			model.ErrConfiguration, s.calendarDays, s.maxDays, s.summaryWeeks, s.maxWeeks)
	}
	levels, err := progression.NewLevelTable(s.levelAssets)
	if err != nil {
		return nil, err
	}
	s.levels = levels

	if s.store == nil {
		s.store = eventlog.NewMemoryStore()
	}
	if s.scorer == nil {
		s.scorer = scoring.NewMultiplierScorer()
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.standings = repository.NewTreapStore()
	s.feed = newFeed(s.feedSize)
	return s, nil
}

// Start rebuilds the standings and the seen event ids from the event log and
// starts the workers. A stopped Service can be started again.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting levelup service...")

	subjects, err := s.store.Subjects(ctx)
	if err != nil {
		return fmt.Errorf("list subjects: %w", err)
	}
	deduper := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	for _, subject := range subjects {
		if err := s.rebuild(ctx, subject, deduper); err != nil {
			return fmt.Errorf("rebuild standing for %s: %w", subject, err)
		}
	}

	s.deduper = deduper
	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.workers = workerpool.NewPool(s.workerCount, s.queue, applierFunc(func(ctx context.Context, sub model.Submission) error {
		_, err := s.Apply(ctx, sub)
		return err
	}))

	// Workers outlive the request context that started them.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.workers.Start(runCtx)
	s.started = true

	metrics.UpdateSubjectsTracked(len(subjects))
	s.logger.Info(ctx, "levelup service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
		logger.String("store", s.storeName),
		logger.Int("subjects", len(subjects)),
	)
	return nil
}

// Stop drains queued submissions and stops the workers. The event log is
// left open; closing it belongs to whoever opened it.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping levelup service...")

	drainCtx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()
	if err := s.workers.Shutdown(drainCtx); err != nil {
		s.logger.Warn(ctx, "workers did not drain", logger.Error(err))
	}
	s.cancel()
	s.started = false
	s.logger.Info(ctx, "levelup service stopped")
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"store":       s.storeName,
		"subjects":    s.standings.Count(ctx),
	}
	if s.started {
		stats["queueLength"] = s.queue.Len(ctx)
		stats["dedupeEntries"] = s.deduper.Size()
		stats["processed"] = s.workers.Processed()
		stats["failed"] = s.workers.Failed()
	}
	return stats
}

// RefreshGauges publishes point-in-time gauges. It is meant to run on a schedule.
func (s *Service) RefreshGauges(ctx context.Context) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()

	metrics.UpdateSubjectsTracked(s.standings.Count(ctx))
	if started {
		metrics.UpdateQueueSize(s.queue.Len(ctx))
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	metrics.UpdateSystemMemoryUsage(ms.HeapAlloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
	if ms.NumGC > 0 {
		last := ms.PauseNs[(ms.NumGC+255)%256]
		metrics.RecordSystemGCPauseTime(float64(last) / float64(time.Millisecond))
	}
}

func (s *Service) lockSubject(subject string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(subject))
	m := &s.locks[h.Sum32()%subjectLockStripes]
	m.Lock()
	return m.Unlock
}

func (s *Service) running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

type applierFunc func(ctx context.Context, s model.Submission) error

func (f applierFunc) Apply(ctx context.Context, s model.Submission) error { //nolint:gocritic // hugeParam: matches worker.Applier
	return f(ctx, s)
}
