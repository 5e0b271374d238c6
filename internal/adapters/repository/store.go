// Package repository keeps the standings: subjects ranked by total points.
package repository

import "context"

// Standing is the derived state ranked for one subject.
type Standing struct {
	Subject       string `json:"subject"`
	TotalPoints   int64  `json:"total_points"`
	Level         int64  `json:"level"`
	TotalDamage   int64  `json:"total_damage"`
	StagesCleared int    `json:"stages_cleared"`
}

// Entry is a ranked standing. Equal totals share a rank and the next rank
// skips accordingly (1, 2, 2, 4).
type Entry struct {
	Rank int `json:"rank"`
	Standing
}

// Store provides read/write access to the standings.
type Store interface {
	// Update replaces the standing for s.Subject.
	Update(ctx context.Context, s Standing) error
	// Remove drops a subject. Unknown subjects are ignored.
	Remove(ctx context.Context, subject string) error

	// Rank returns ErrNotFound if the subject is unknown.
	Rank(ctx context.Context, subject string) (Entry, error)
	// TopN returns the first n entries by total points desc, subject asc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	Count(ctx context.Context) int
}
