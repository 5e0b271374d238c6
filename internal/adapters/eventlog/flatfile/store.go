// Package flatfile stores event logs as CSV objects, one per subject and
// kind, on a pluggable Backend (local directory or S3-compatible storage).
package flatfile

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/okian/levelup/internal/adapters/eventlog"
	"github.com/okian/levelup/internal/domain/model"
)

// ErrNotFound is returned by a Backend when a key does not exist.
var ErrNotFound = errors.New("object not found")

// Backend is a minimal blob store keyed by slash-separated paths.
type Backend interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	// List returns every key currently stored.
	List(ctx context.Context) ([]string, error)
}

const (
	pointsFile = "points.csv"
	damageFile = "damage.csv"
)

// Store implements eventlog.Store over a Backend. Writes are read-modify-write
// and serialized within the process; one process should own a given backend.
type Store struct {
	mu      sync.Mutex
	backend Backend
	closed  bool
}

// NewStore wraps backend.
func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

func key(subject string, kind model.Kind) string {
	if kind == model.KindDamage {
		return subject + "/" + damageFile
	}
	return subject + "/" + pointsFile
}

func (s *Store) read(ctx context.Context, subject string, kind model.Kind) ([]byte, error) {
	if s.closed {
		return nil, eventlog.ErrClosed
	}
	if err := eventlog.ValidateSubject(subject); err != nil {
		return nil, err
	}
	data, err := s.backend.Read(ctx, key(subject, kind))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return data, err
}

func (s *Store) appendRecord(ctx context.Context, subject string, kind model.Kind, header, record []string) error {
	defer eventlog.ObserveLatency("append", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.read(ctx, subject, kind)
	if err != nil {
		return err
	}
	next, err := appendRow(data, header, record)
	if err != nil {
		return err
	}
	return s.backend.Write(ctx, key(subject, kind), next)
}

// AppendPoint implements eventlog.Store.
func (s *Store) AppendPoint(ctx context.Context, subject string, e model.PointEvent) error {
	return s.appendRecord(ctx, subject, model.KindPoints, pointHeader, pointRecord(e))
}

// AppendDamage implements eventlog.Store.
func (s *Store) AppendDamage(ctx context.Context, subject string, e model.DamageEvent) error {
	return s.appendRecord(ctx, subject, model.KindDamage, damageHeader, damageRecord(e))
}

// Points implements eventlog.Store.
func (s *Store) Points(ctx context.Context, subject string) ([]model.PointEvent, error) {
	defer eventlog.ObserveLatency("read", time.Now())
	s.mu.Lock()
	data, err := s.read(ctx, subject, model.KindPoints)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	events, err := ReadPoints(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []model.PointEvent{}
	}
	return events, nil
}

// Damage implements eventlog.Store.
func (s *Store) Damage(ctx context.Context, subject string) ([]model.DamageEvent, error) {
	defer eventlog.ObserveLatency("read", time.Now())
	s.mu.Lock()
	data, err := s.read(ctx, subject, model.KindDamage)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	events, err := ReadDamage(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []model.DamageEvent{}
	}
	return events, nil
}

// RemoveLast implements eventlog.Store.
func (s *Store) RemoveLast(ctx context.Context, subject string, kind model.Kind) (bool, error) {
	defer eventlog.ObserveLatency("remove_last", time.Now())
	if err := eventlog.CheckKind(kind); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.read(ctx, subject, kind)
	if err != nil || len(data) == 0 {
		return false, err
	}

	var buf bytes.Buffer
	var n int
	if kind == model.KindPoints {
		events, err := ReadPoints(bytes.NewReader(data))
		if err != nil {
			return false, err
		}
		if n = len(events); n > 0 {
			err = WritePoints(&buf, events[:n-1])
		}
		if err != nil {
			return false, err
		}
	} else {
		events, err := ReadDamage(bytes.NewReader(data))
		if err != nil {
			return false, err
		}
		if n = len(events); n > 0 {
			err = WriteDamage(&buf, events[:n-1])
		}
		if err != nil {
			return false, err
		}
	}
	switch {
	case n == 0:
		return false, nil
	case n == 1:
		return true, s.backend.Delete(ctx, key(subject, kind))
	default:
		return true, s.backend.Write(ctx, key(subject, kind), buf.Bytes())
	}
}

// Reset implements eventlog.Store.
func (s *Store) Reset(ctx context.Context, subject string, kind model.Kind) error {
	defer eventlog.ObserveLatency("reset", time.Now())
	if err := eventlog.CheckKind(kind); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return eventlog.ErrClosed
	}
	if err := eventlog.ValidateSubject(subject); err != nil {
		return err
	}
	err := s.backend.Delete(ctx, key(subject, kind))
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// Subjects implements eventlog.Store.
func (s *Store) Subjects(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, eventlog.ErrClosed
	}
	keys, err := s.backend.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	out := []string{}
	for _, k := range keys {
		subject, file, ok := strings.Cut(k, "/")
		if !ok || (file != pointsFile && file != damageFile) {
			continue
		}
		if _, dup := seen[subject]; dup {
			continue
		}
		seen[subject] = struct{}{}
		out = append(out, subject)
	}
	sort.Strings(out)
	return out, nil
}

// Close implements eventlog.Store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
