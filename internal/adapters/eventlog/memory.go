package eventlog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/okian/levelup/internal/domain/model"
	"github.com/okian/levelup/pkg/metrics"
)

type memoryLogs struct {
	points []model.PointEvent
	damage []model.DamageEvent
}

// MemoryStore keeps logs in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	subjects map[string]*memoryLogs
	closed   bool
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{subjects: make(map[string]*memoryLogs)}
}

// ValidateSubject rejects empty subjects and path separators, which the
// file-backed stores use as key delimiters.
func ValidateSubject(subject string) error {
	if strings.TrimSpace(subject) == "" {
		return fmt.Errorf("%w: empty subject", ErrInvalidSubject)
	}
	if strings.ContainsAny(subject, `/\`) || subject == "." || subject == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidSubject, subject)
	}
	return nil
}

// CheckKind rejects kinds other than points and damage.
func CheckKind(kind model.Kind) error {
	if kind != model.KindPoints && kind != model.KindDamage {
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return nil
}

func (s *MemoryStore) logs(subject string, create bool) (*memoryLogs, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if err := ValidateSubject(subject); err != nil {
		return nil, err
	}
	l, ok := s.subjects[subject]
	if !ok && create {
		l = &memoryLogs{}
		s.subjects[subject] = l
	}
	return l, nil
}

// AppendPoint implements Store.
func (s *MemoryStore) AppendPoint(_ context.Context, subject string, e model.PointEvent) error {
	defer ObserveLatency("append", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	l, err := s.logs(subject, true)
	if err != nil {
		return err
	}
	l.points = append(l.points, e)
	return nil
}

// Points implements Store. The returned slice is a copy.
func (s *MemoryStore) Points(_ context.Context, subject string) ([]model.PointEvent, error) {
	defer ObserveLatency("read", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, err := s.logs(subject, false)
	if err != nil || l == nil {
		return []model.PointEvent{}, err
	}
	out := make([]model.PointEvent, len(l.points))
	copy(out, l.points)
	return out, nil
}

// AppendDamage implements Store.
func (s *MemoryStore) AppendDamage(_ context.Context, subject string, e model.DamageEvent) error {
	defer ObserveLatency("append", time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	l, err := s.logs(subject, true)
	if err != nil {
		return err
	}
	l.damage = append(l.damage, e)
	return nil
}

// Damage implements Store. The returned slice is a copy.
func (s *MemoryStore) Damage(_ context.Context, subject string) ([]model.DamageEvent, error) {
	defer ObserveLatency("read", time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, err := s.logs(subject, false)
	if err != nil || l == nil {
		return []model.DamageEvent{}, err
	}
	out := make([]model.DamageEvent, len(l.damage))
	copy(out, l.damage)
	return out, nil
}

// RemoveLast implements Store.
func (s *MemoryStore) RemoveLast(_ context.Context, subject string, kind model.Kind) (bool, error) {
	defer ObserveLatency("remove_last", time.Now())
	if err := CheckKind(kind); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l, err := s.logs(subject, false)
	if err != nil || l == nil {
		return false, err
	}
	if kind == model.KindPoints {
		if len(l.points) == 0 {
			return false, nil
		}
		l.points = l.points[:len(l.points)-1]
	} else {
		if len(l.damage) == 0 {
			return false, nil
		}
		l.damage = l.damage[:len(l.damage)-1]
	}
	s.dropIfEmpty(subject, l)
	return true, nil
}

// Reset implements Store.
func (s *MemoryStore) Reset(_ context.Context, subject string, kind model.Kind) error {
	defer ObserveLatency("reset", time.Now())
	if err := CheckKind(kind); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l, err := s.logs(subject, false)
	if err != nil || l == nil {
		return err
	}
	if kind == model.KindPoints {
		l.points = nil
	} else {
		l.damage = nil
	}
	s.dropIfEmpty(subject, l)
	return nil
}

func (s *MemoryStore) dropIfEmpty(subject string, l *memoryLogs) {
	if len(l.points) == 0 && len(l.damage) == 0 {
		delete(s.subjects, subject)
	}
}

// Subjects implements Store.
func (s *MemoryStore) Subjects(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := make([]string, 0, len(s.subjects))
	for id := range s.subjects {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// ObserveLatency records how long a store operation took. Call it deferred with
// the start time.
func ObserveLatency(op string, start time.Time) {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Milliseconds()))
}
