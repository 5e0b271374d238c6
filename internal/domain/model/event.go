// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Kind names one of the append-only logs kept per subject.
type Kind string

// Log kinds.
const (
	KindPoints Kind = "points"
	KindDamage Kind = "damage"
)

// ParseKind converts a user supplied string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindPoints:
		return KindPoints, nil
	case KindDamage:
		return KindDamage, nil
	default:
		return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidEvent, s)
	}
}

// PointEvent records points earned for one completed activity.
// Values are never mutated once constructed.
type PointEvent struct {
	ID        string    `json:"id"`        // unique id for idempotency
	Timestamp time.Time `json:"timestamp"` // when the activity was completed
	Amount    int64     `json:"amount"`    // points earned, >= 0
	Label     string    `json:"label"`     // free-form note shown in history views
}

// NewPointEvent validates and builds a PointEvent.
func NewPointEvent(id string, ts time.Time, amount int64, label string) (PointEvent, error) {
	if strings.TrimSpace(id) == "" {
		return PointEvent{}, fmt.Errorf("%w: missing event id", ErrInvalidEvent)
	}
	if ts.IsZero() {
		return PointEvent{}, fmt.Errorf("%w: missing timestamp", ErrInvalidEvent)
	}
	if amount < 0 {
		return PointEvent{}, fmt.Errorf("%w: amount %d is negative", ErrInvalidEvent, amount)
	}
	return PointEvent{ID: id, Timestamp: ts, Amount: amount, Label: label}, nil
}

// DamageEvent records damage dealt by one scored attempt (e.g. a mock exam).
// Damage is computed by the caller's scoring policy before construction.
type DamageEvent struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	SourceLabel string    `json:"source"`
	RawScore    float64   `json:"raw_score"`
	Damage      int64     `json:"damage"`
}

// NewDamageEvent validates and builds a DamageEvent.
func NewDamageEvent(id string, ts time.Time, source string, rawScore float64, damage int64) (DamageEvent, error) {
	if strings.TrimSpace(id) == "" {
		return DamageEvent{}, fmt.Errorf("%w: missing event id", ErrInvalidEvent)
	}
	if ts.IsZero() {
		return DamageEvent{}, fmt.Errorf("%w: missing timestamp", ErrInvalidEvent)
	}
	if math.IsNaN(rawScore) || math.IsInf(rawScore, 0) || rawScore < 0 {
		return DamageEvent{}, fmt.Errorf("%w: raw score %v", ErrInvalidScore, rawScore)
	}
	if damage < 0 {
		return DamageEvent{}, fmt.Errorf("%w: damage %d is negative", ErrInvalidEvent, damage)
	}
	return DamageEvent{ID: id, Timestamp: ts, SourceLabel: source, RawScore: rawScore, Damage: damage}, nil
}

// Submission is the payload flowing through the ingestion queue. Exactly one
// of Point or Damage is meaningful, selected by Kind.
type Submission struct {
	Subject string
	Kind    Kind
	Point   PointEvent
	Damage  DamageEvent
}

// EventID returns the id of the carried event.
func (s Submission) EventID() string { //nolint:gocritic // hugeParam: Submission travels by value through channels
	if s.Kind == KindDamage {
		return s.Damage.ID
	}
	return s.Point.ID
}
