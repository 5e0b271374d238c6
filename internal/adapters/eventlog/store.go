// Package eventlog defines the append-only event log the engines read from.
//
// A Store keeps two logs per subject, one of point events and one of damage
// events, and always returns them in append order. Derived state is never
// stored here.
package eventlog

import (
	"context"

	"github.com/okian/levelup/internal/domain/model"
)

// Store provides append/read access to per-subject event logs.
type Store interface {
	// AppendPoint appends e to the subject's point log.
	AppendPoint(ctx context.Context, subject string, e model.PointEvent) error
	// Points returns the subject's point log in append order.
	Points(ctx context.Context, subject string) ([]model.PointEvent, error)

	// AppendDamage appends e to the subject's damage log.
	AppendDamage(ctx context.Context, subject string, e model.DamageEvent) error
	// Damage returns the subject's damage log in append order.
	Damage(ctx context.Context, subject string) ([]model.DamageEvent, error)

	// RemoveLast drops the most recently appended event of kind.
	// Returns false when the log was already empty.
	RemoveLast(ctx context.Context, subject string, kind model.Kind) (bool, error)

	// Reset drops every event of kind for subject.
	Reset(ctx context.Context, subject string, kind model.Kind) error

	// Subjects lists subjects with at least one log, sorted.
	Subjects(ctx context.Context) ([]string, error)

	Close() error
}
