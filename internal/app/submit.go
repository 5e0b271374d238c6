package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/okian/levelup/internal/adapters/eventlog"
	"github.com/okian/levelup/internal/domain/model"
	"github.com/okian/levelup/internal/domain/scoring"
	"github.com/okian/levelup/internal/domain/types"
	"github.com/okian/levelup/pkg/logger"
	"github.com/okian/levelup/pkg/metrics"
)

// SubmitPoints validates a point request and queues it for recording.
func (s *Service) SubmitPoints(ctx context.Context, subject string, req types.PointRequest) (types.Ack, error) { //nolint:gocritic // hugeParam: request value from the decoder
	if err := eventlog.ValidateSubject(subject); err != nil {
		metrics.RecordEventRejected(string(model.KindPoints), "subject")
		return types.Ack{}, err
	}
	amount := s.pointsPerPress
	if req.Amount != nil {
		amount = *req.Amount
	}
	e, err := model.NewPointEvent(s.eventID(req.EventID), s.timestamp(req.Timestamp), amount, req.Label)
	if err != nil {
		metrics.RecordEventRejected(string(model.KindPoints), "invalid")
		return types.Ack{}, err
	}
	ack := types.Ack{Subject: subject, Kind: string(model.KindPoints), EventID: e.ID, Amount: e.Amount}
	return s.submit(ctx, model.Submission{Subject: subject, Kind: model.KindPoints, Point: e}, ack)
}

// SubmitDamage scores a damage request and queues it for recording.
func (s *Service) SubmitDamage(ctx context.Context, subject string, req types.DamageRequest) (types.Ack, error) { //nolint:gocritic // hugeParam: request value from the decoder
	if err := eventlog.ValidateSubject(subject); err != nil {
		metrics.RecordEventRejected(string(model.KindDamage), "subject")
		return types.Ack{}, err
	}
	res, err := s.scorer.Damage(ctx, scoring.Input{Subject: subject, SourceLabel: req.Source, RawScore: req.RawScore})
	if err != nil {
		metrics.RecordEventRejected(string(model.KindDamage), "score")
		return types.Ack{}, err
	}
	e, err := model.NewDamageEvent(s.eventID(req.EventID), s.timestamp(req.Timestamp), req.Source, req.RawScore, res.Damage)
	if err != nil {
		metrics.RecordEventRejected(string(model.KindDamage), "invalid")
		return types.Ack{}, err
	}
	ack := types.Ack{Subject: subject, Kind: string(model.KindDamage), EventID: e.ID, Damage: e.Damage}
	return s.submit(ctx, model.Submission{Subject: subject, Kind: model.KindDamage, Damage: e}, ack)
}

func (s *Service) submit(ctx context.Context, sub model.Submission, ack types.Ack) (types.Ack, error) { //nolint:gocritic // hugeParam: enqueued by value
	if !s.running() {
		return types.Ack{}, ErrNotStarted
	}
	kind := string(sub.Kind)
	key := dedupeKey(sub.Subject, sub.Kind, sub.EventID())
	if s.deduper.SeenAndRecord(ctx, key) {
		metrics.RecordEventDuplicate(kind)
		s.logger.Debug(ctx, "duplicate submission",
			logger.String("subject", sub.Subject),
			logger.String("kind", kind),
			logger.String("event_id", sub.EventID()),
		)
		ack.Status = types.StatusDuplicate
		return ack, nil
	}
	if !s.queue.Enqueue(ctx, sub) {
		s.deduper.Unrecord(ctx, key)
		metrics.RecordEventRejected(kind, "backpressure")
		if err := ctx.Err(); err != nil {
			return types.Ack{}, err
		}
		return types.Ack{}, ErrBackpressure
	}
	ack.Status = types.StatusAccepted
	return ack, nil
}

func (s *Service) eventID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func (s *Service) timestamp(ts *time.Time) time.Time {
	if ts != nil && !ts.IsZero() {
		return *ts
	}
	return s.now()
}

func dedupeKey(subject string, kind model.Kind, id string) string {
	return subject + "\x00" + string(kind) + "\x00" + id
}
