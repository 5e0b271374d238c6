// Package sqlite provides a SQLite-backed event log.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/okian/levelup/internal/adapters/eventlog"
	"github.com/okian/levelup/internal/domain/model"
	_ "modernc.org/sqlite"
)

const pragmas = "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

// Store persists point and damage events in two append-only tables.
type Store struct {
	db     *sql.DB
	closed atomic.Bool
}

// Open opens the database at path and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	db, err := sql.Open("sqlite", filepath.Clean(path)+pragmas)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) check(ctx context.Context, subject string) error {
	if s.closed.Load() {
		return eventlog.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return eventlog.ValidateSubject(subject)
}

func table(kind model.Kind) string {
	if kind == model.KindDamage {
		return "damage_events"
	}
	return "point_events"
}

// AppendPoint implements eventlog.Store.
func (s *Store) AppendPoint(ctx context.Context, subject string, e model.PointEvent) error {
	defer eventlog.ObserveLatency("append", time.Now())
	if err := s.check(ctx, subject); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO point_events (subject, event_id, occurred_at, amount, label) VALUES (?, ?, ?, ?, ?)`,
		subject, e.ID, e.Timestamp.UnixNano(), e.Amount, e.Label,
	)
	if err != nil {
		return fmt.Errorf("insert point event: %w", err)
	}
	return nil
}

// AppendDamage implements eventlog.Store.
func (s *Store) AppendDamage(ctx context.Context, subject string, e model.DamageEvent) error {
	defer eventlog.ObserveLatency("append", time.Now())
	if err := s.check(ctx, subject); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO damage_events (subject, event_id, occurred_at, source, raw_score, damage) VALUES (?, ?, ?, ?, ?, ?)`,
		subject, e.ID, e.Timestamp.UnixNano(), e.SourceLabel, e.RawScore, e.Damage,
	)
	if err != nil {
		return fmt.Errorf("insert damage event: %w", err)
	}
	return nil
}

// Points implements eventlog.Store.
func (s *Store) Points(ctx context.Context, subject string) ([]model.PointEvent, error) {
	defer eventlog.ObserveLatency("read", time.Now())
	if err := s.check(ctx, subject); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT event_id, occurred_at, amount, label FROM point_events WHERE subject = ? ORDER BY seq`,
		subject,
	)
	if err != nil {
		return nil, fmt.Errorf("query point events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []model.PointEvent{}
	for rows.Next() {
		var e model.PointEvent
		var nanos int64
		if err := rows.Scan(&e.ID, &nanos, &e.Amount, &e.Label); err != nil {
			return nil, fmt.Errorf("scan point event: %w", err)
		}
		e.Timestamp = time.Unix(0, nanos).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// Damage implements eventlog.Store.
func (s *Store) Damage(ctx context.Context, subject string) ([]model.DamageEvent, error) {
	defer eventlog.ObserveLatency("read", time.Now())
	if err := s.check(ctx, subject); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT event_id, occurred_at, source, raw_score, damage FROM damage_events WHERE subject = ? ORDER BY seq`,
		subject,
	)
	if err != nil {
		return nil, fmt.Errorf("query damage events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []model.DamageEvent{}
	for rows.Next() {
		var e model.DamageEvent
		var nanos int64
		if err := rows.Scan(&e.ID, &nanos, &e.SourceLabel, &e.RawScore, &e.Damage); err != nil {
			return nil, fmt.Errorf("scan damage event: %w", err)
		}
		e.Timestamp = time.Unix(0, nanos).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// RemoveLast implements eventlog.Store.
func (s *Store) RemoveLast(ctx context.Context, subject string, kind model.Kind) (bool, error) {
	defer eventlog.ObserveLatency("remove_last", time.Now())
	if err := eventlog.CheckKind(kind); err != nil {
		return false, err
	}
	if err := s.check(ctx, subject); err != nil {
		return false, err
	}
	t := table(kind)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM `+t+` WHERE seq = (SELECT MAX(seq) FROM `+t+` WHERE subject = ?)`,
		subject,
	)
	if err != nil {
		return false, fmt.Errorf("delete last %s event: %w", kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Reset implements eventlog.Store.
func (s *Store) Reset(ctx context.Context, subject string, kind model.Kind) error {
	defer eventlog.ObserveLatency("reset", time.Now())
	if err := eventlog.CheckKind(kind); err != nil {
		return err
	}
	if err := s.check(ctx, subject); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM `+table(kind)+` WHERE subject = ?`, subject); err != nil {
		return fmt.Errorf("reset %s events: %w", kind, err)
	}
	return nil
}

// Subjects implements eventlog.Store.
func (s *Store) Subjects(ctx context.Context) ([]string, error) {
	if s.closed.Load() {
		return nil, eventlog.ErrClosed
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT subject FROM point_events UNION SELECT subject FROM damage_events ORDER BY subject`,
	)
	if err != nil {
		return nil, fmt.Errorf("query subjects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []string{}
	for rows.Next() {
		var subject string
		if err := rows.Scan(&subject); err != nil {
			return nil, err
		}
		out = append(out, subject)
	}
	return out, rows.Err()
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}
