package service

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/levelup/internal/adapters/repository"
	"github.com/okian/levelup/internal/domain/dedupe"
	"github.com/okian/levelup/internal/domain/model"
	"github.com/okian/levelup/internal/domain/pool"
	"github.com/okian/levelup/internal/domain/progression"
	"github.com/okian/levelup/internal/domain/types"
	"github.com/okian/levelup/pkg/logger"
	"github.com/okian/levelup/pkg/metrics"
)

// snapshot is a subject's derived state at one point in time.
type snapshot struct {
	points int
	damage int
	prog   progression.State
	pool   pool.State
}

func (s snapshot) empty() bool { return s.points == 0 && s.damage == 0 }

// Apply appends one submission to the event log and reports what changed.
// Submissions for the same subject are applied one at a time; before and
// after states are recomputed from fresh reads of the log.
func (s *Service) Apply(ctx context.Context, sub model.Submission) (types.Outcome, error) { //nolint:gocritic // hugeParam: Submission travels by value
	start := time.Now()
	kind := string(sub.Kind)
	out, appended, err := s.apply(ctx, sub)
	if err != nil {
		// Let a retry of the same id through unless the event is already in the log.
		if !appended && s.deduper != nil {
			s.deduper.Unrecord(ctx, dedupeKey(sub.Subject, sub.Kind, sub.EventID()))
		}
		metrics.RecordErrorByComponent("service", "apply")
		s.logger.Error(ctx, "applying submission failed",
			logger.String("subject", sub.Subject),
			logger.String("kind", kind),
			logger.String("event_id", sub.EventID()),
			logger.Error(err),
		)
		return types.Outcome{}, err
	}
	metrics.RecordEventRecorded(kind)
	metrics.RecordApplyLatency(kind, float64(time.Since(start).Microseconds())/1000.0)
	return out, nil
}

// apply reports whether the event reached the log, even when a later step fails.
func (s *Service) apply(ctx context.Context, sub model.Submission) (types.Outcome, bool, error) { //nolint:gocritic // hugeParam
	unlock := s.lockSubject(sub.Subject)
	defer unlock()

	before, err := s.snapshot(ctx, sub.Subject)
	if err != nil {
		return types.Outcome{}, false, err
	}

	switch sub.Kind {
	case model.KindPoints:
		err = s.store.AppendPoint(ctx, sub.Subject, sub.Point)
	case model.KindDamage:
		err = s.store.AppendDamage(ctx, sub.Subject, sub.Damage)
	default:
		err = fmt.Errorf("%w: %q", model.ErrInvalidEvent, sub.Kind)
	}
	if err != nil {
		return types.Outcome{}, false, fmt.Errorf("append %s event: %w", sub.Kind, err)
	}

	after, err := s.snapshot(ctx, sub.Subject)
	if err != nil {
		return types.Outcome{}, true, err
	}
	if err := s.storeStanding(ctx, sub.Subject, after); err != nil {
		return types.Outcome{}, true, err
	}

	out := types.Outcome{
		Subject:     sub.Subject,
		Kind:        string(sub.Kind),
		Progression: after.prog,
		Pool:        after.pool,
		LevelUp:     progression.DetectLevelUp(before.prog.Level, after.prog.Level),
		StageClear:  pool.DetectStageClear(before.pool, after.pool),
	}

	switch sub.Kind {
	case model.KindPoints:
		metrics.RecordPointsAwarded(sub.Point.Amount)
		if out.LevelUp.LeveledUp {
			s.notifyLevelUp(ctx, sub, out.LevelUp)
		}
	case model.KindDamage:
		metrics.RecordDamageDealt(sub.Damage.Damage)
		if out.StageClear.Cleared {
			s.notifyStageClear(ctx, sub, out.StageClear, after.pool)
		}
	}
	return out, true, nil
}

func (s *Service) notifyLevelUp(ctx context.Context, sub model.Submission, lu progression.LevelUp) { //nolint:gocritic // hugeParam
	metrics.RecordLevelUp()
	asset := s.levels.Lookup(lu.To)
	n := types.Notification{
		Kind:    types.NotifyLevelUp,
		Subject: sub.Subject,
		EventID: sub.Point.ID,
		At:      sub.Point.Timestamp,
		From:    lu.From,
		To:      lu.To,
		Message: s.messages.For(lu.To),
		Title:   asset.Title,
		Asset:   asset.Asset,
	}
	s.feed.push(n)
	s.logger.Info(ctx, "level up",
		logger.String("subject", sub.Subject),
		logger.Int64("from", lu.From),
		logger.Int64("to", lu.To),
	)
}

func (s *Service) notifyStageClear(ctx context.Context, sub model.Submission, sc pool.StageClear, state pool.State) { //nolint:gocritic // hugeParam
	metrics.RecordStagesCleared(sc.To - sc.From)
	// Present the last stage defeated.
	stage := s.stages[sc.To-1]
	n := types.Notification{
		Kind:    types.NotifyStageClear,
		Subject: sub.Subject,
		EventID: sub.Damage.ID,
		At:      sub.Damage.Timestamp,
		From:    int64(sc.From),
		To:      int64(sc.To),
		Title:   stage.Name,
		Asset:   stage.Asset,
	}
	if state.Cleared {
		n.Message = "every stage cleared"
	}
	s.feed.push(n)
	s.logger.Info(ctx, "stage cleared",
		logger.String("subject", sub.Subject),
		logger.String("stage", stage.Name),
		logger.Int("stages_cleared", sc.To),
		logger.Bool("pool_cleared", state.Cleared),
	)
}

func (s *Service) snapshot(ctx context.Context, subject string) (snapshot, error) {
	points, damage, err := s.logs(ctx, subject)
	if err != nil {
		return snapshot{}, err
	}
	return s.compute(points, damage)
}

func (s *Service) logs(ctx context.Context, subject string) ([]model.PointEvent, []model.DamageEvent, error) {
	points, err := s.store.Points(ctx, subject)
	if err != nil {
		return nil, nil, fmt.Errorf("read point log: %w", err)
	}
	damage, err := s.store.Damage(ctx, subject)
	if err != nil {
		return nil, nil, fmt.Errorf("read damage log: %w", err)
	}
	return points, damage, nil
}

func (s *Service) compute(points []model.PointEvent, damage []model.DamageEvent) (snapshot, error) {
	prog, err := progression.Compute(points, s.levelSize)
	if err != nil {
		return snapshot{}, err
	}
	ps, err := pool.Compute(damage, s.stages)
	if err != nil {
		return snapshot{}, err
	}
	return snapshot{points: len(points), damage: len(damage), prog: prog, pool: ps}, nil
}

// storeStanding replaces the subject's standing, or drops it once both logs
// are empty.
func (s *Service) storeStanding(ctx context.Context, subject string, snap snapshot) error { //nolint:gocritic // hugeParam
	if snap.empty() {
		return s.standings.Remove(ctx, subject)
	}
	return s.standings.Update(ctx, repository.Standing{
		Subject:       subject,
		TotalPoints:   snap.prog.TotalPoints,
		Level:         snap.prog.Level,
		TotalDamage:   snap.pool.TotalDamage,
		StagesCleared: snap.pool.StagesCleared,
	})
}

func (s *Service) refreshStanding(ctx context.Context, subject string) error {
	snap, err := s.snapshot(ctx, subject)
	if err != nil {
		return err
	}
	return s.storeStanding(ctx, subject, snap)
}

// rebuild restores the subject's standing from its logs and marks every
// logged event id as seen.
func (s *Service) rebuild(ctx context.Context, subject string, seen dedupe.Deduper) error {
	points, damage, err := s.logs(ctx, subject)
	if err != nil {
		return err
	}
	for i := range points {
		seen.SeenAndRecord(ctx, dedupeKey(subject, model.KindPoints, points[i].ID))
	}
	for i := range damage {
		seen.SeenAndRecord(ctx, dedupeKey(subject, model.KindDamage, damage[i].ID))
	}
	snap, err := s.compute(points, damage)
	if err != nil {
		return err
	}
	return s.storeStanding(ctx, subject, snap)
}
