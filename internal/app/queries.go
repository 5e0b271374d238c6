package service

import (
	"context"
	"fmt"
	"io"

	"github.com/okian/levelup/internal/adapters/eventlog"
	"github.com/okian/levelup/internal/adapters/eventlog/flatfile"
	"github.com/okian/levelup/internal/adapters/repository"
	"github.com/okian/levelup/internal/domain/activity"
	"github.com/okian/levelup/internal/domain/model"
	"github.com/okian/levelup/internal/domain/types"
	"github.com/okian/levelup/pkg/logger"
)

// Progression returns the subject's current level and its presentation.
// Unknown subjects are at level 1 with no points.
func (s *Service) Progression(ctx context.Context, subject string) (types.ProgressionView, error) {
	snap, err := s.read(ctx, subject)
	if err != nil {
		return types.ProgressionView{}, err
	}
	asset := s.levels.Lookup(snap.prog.Level)
	return types.ProgressionView{
		Subject:  subject,
		State:    snap.prog,
		Progress: snap.prog.Progress(),
		Title:    asset.Title,
		Asset:    asset.Asset,
	}, nil
}

// Pool returns the subject's position in the stage sequence.
func (s *Service) Pool(ctx context.Context, subject string) (types.PoolView, error) {
	snap, err := s.read(ctx, subject)
	if err != nil {
		return types.PoolView{}, err
	}
	return types.PoolView{
		Subject: subject,
		State:   snap.pool,
		Stage:   s.stages[snap.pool.CurrentStageIndex],
	}, nil
}

// History returns the point log in append order.
func (s *Service) History(ctx context.Context, subject string) ([]model.PointEvent, error) {
	if err := eventlog.ValidateSubject(subject); err != nil {
		return nil, err
	}
	return s.store.Points(ctx, subject)
}

// DamageHistory returns the damage log in append order.
func (s *Service) DamageHistory(ctx context.Context, subject string) ([]model.DamageEvent, error) {
	if err := eventlog.ValidateSubject(subject); err != nil {
		return nil, err
	}
	return s.store.Damage(ctx, subject)
}

// Undo removes the last event of kind and reports whether there was one.
// The removed id stays in the dedupe cache.
func (s *Service) Undo(ctx context.Context, subject string, kind model.Kind) (bool, error) {
	if err := s.checkTarget(subject, kind); err != nil {
		return false, err
	}
	unlock := s.lockSubject(subject)
	defer unlock()

	removed, err := s.store.RemoveLast(ctx, subject, kind)
	if err != nil || !removed {
		return removed, err
	}
	if err := s.refreshStanding(ctx, subject); err != nil {
		return true, err
	}
	s.logger.Info(ctx, "last event undone", logger.String("subject", subject), logger.String("kind", string(kind)))
	return true, nil
}

// Reset removes every event of kind for the subject and the notices it produced.
func (s *Service) Reset(ctx context.Context, subject string, kind model.Kind) error {
	if err := s.checkTarget(subject, kind); err != nil {
		return err
	}
	unlock := s.lockSubject(subject)
	defer unlock()

	if err := s.store.Reset(ctx, subject, kind); err != nil {
		return err
	}
	s.feed.clear(subject, kind)
	if err := s.refreshStanding(ctx, subject); err != nil {
		return err
	}
	s.logger.Info(ctx, "log reset", logger.String("subject", subject), logger.String("kind", string(kind)))
	return nil
}

// Calendar returns per-day study activity ending today. days <= 0 uses the
// configured default; more than the configured cap is ErrOutOfRange.
func (s *Service) Calendar(ctx context.Context, subject string, days int) ([]activity.Day, error) {
	if days <= 0 {
		days = s.calendarDays
	}
	if days > s.maxDays {
		return nil, fmt.Errorf("%w: days %d exceeds %d", ErrOutOfRange, days, s.maxDays)
	}
	events, err := s.History(ctx, subject)
	if err != nil {
		return nil, err
	}
	return activity.Calendar(events, s.now(), days), nil
}

// Weekly returns per-week record counts ending with the current week.
func (s *Service) Weekly(ctx context.Context, subject string, weeks int) ([]activity.Week, error) {
	if weeks <= 0 {
		weeks = s.summaryWeeks
	}
	if weeks > s.maxWeeks {
		return nil, fmt.Errorf("%w: weeks %d exceeds %d", ErrOutOfRange, weeks, s.maxWeeks)
	}
	events, err := s.History(ctx, subject)
	if err != nil {
		return nil, err
	}
	return activity.Weekly(events, s.now(), weeks), nil
}

// Export writes the subject's point log as CSV.
func (s *Service) Export(ctx context.Context, subject string, w io.Writer) error {
	events, err := s.History(ctx, subject)
	if err != nil {
		return err
	}
	if err := flatfile.WritePoints(w, events); err != nil {
		return fmt.Errorf("export %s: %w", subject, err)
	}
	return nil
}

// TopN returns the first n standings.
func (s *Service) TopN(ctx context.Context, n int) ([]repository.Entry, error) {
	return s.standings.TopN(ctx, n)
}

// Rank returns the subject's standing.
func (s *Service) Rank(ctx context.Context, subject string) (repository.Entry, error) {
	return s.standings.Rank(ctx, subject)
}

// Notifications returns up to limit feed entries, newest first. limit <= 0
// returns the whole feed.
func (s *Service) Notifications(_ context.Context, subject string, limit int) ([]types.Notification, error) {
	if err := eventlog.ValidateSubject(subject); err != nil {
		return nil, err
	}
	return s.feed.list(subject, limit), nil
}

func (s *Service) read(ctx context.Context, subject string) (snapshot, error) {
	if err := eventlog.ValidateSubject(subject); err != nil {
		return snapshot{}, err
	}
	return s.snapshot(ctx, subject)
}

func (s *Service) checkTarget(subject string, kind model.Kind) error {
	if err := eventlog.ValidateSubject(subject); err != nil {
		return err
	}
	return eventlog.CheckKind(kind)
}
