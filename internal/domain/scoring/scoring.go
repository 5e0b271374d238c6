// Package scoring defines the contract for turning raw exam scores into damage.
package scoring

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/levelup/internal/domain/pool"
)

// Default scoring configuration constants.
const (
	defaultMultiplier = 2.0
)

// Option applies a configuration option to the MultiplierScorer.
type Option func(*MultiplierScorer)

// WithDefaultMultiplier sets the multiplier used for sources without an override.
func WithDefaultMultiplier(multiplier float64) Option {
	return func(s *MultiplierScorer) {
		if multiplier >= 0 {
			s.defaultMultiplier = multiplier
		}
	}
}

// WithSourceMultipliers sets per-source overrides keyed by source label
// (case-insensitive).
func WithSourceMultipliers(multipliers map[string]float64) Option {
	return func(s *MultiplierScorer) {
		// Copy the map to avoid external modifications
		s.sourceMultipliers = make(map[string]float64, len(multipliers))
		for source, m := range multipliers {
			if m >= 0 {
				s.sourceMultipliers[normalize(source)] = m
			}
		}
	}
}

// Input abstracts the submission fields needed for scoring.
type Input struct {
	Subject     string
	SourceLabel string
	RawScore    float64
}

// Result contains the computed damage.
type Result struct {
	Subject    string
	Damage     int64
	Multiplier float64
}

// Scorer computes damage from a raw score. Implementations must be pure
// with respect to the input so damage can be recomputed for audits.
type Scorer interface {
	// Damage computes damage, honoring ctx for cancellation.
	Damage(ctx context.Context, in Input) (Result, error)
}

// MultiplierScorer applies floor(raw * multiplier).
type MultiplierScorer struct {
	defaultMultiplier float64
	sourceMultipliers map[string]float64
}

// NewMultiplierScorer creates a scorer with configuration options.
func NewMultiplierScorer(opts ...Option) *MultiplierScorer {
	s := &MultiplierScorer{
		defaultMultiplier: defaultMultiplier,
		sourceMultipliers: make(map[string]float64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Damage computes damage for the given input.
func (s *MultiplierScorer) Damage(ctx context.Context, in Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("context cancelled: %w", err)
	}
	m := s.MultiplierFor(in.SourceLabel)
	d, err := pool.RecordDamage(in.RawScore, m)
	if err != nil {
		return Result{}, err
	}
	return Result{Subject: in.Subject, Damage: d, Multiplier: m}, nil
}

// MultiplierFor returns the multiplier applied to a source label.
func (s *MultiplierScorer) MultiplierFor(source string) float64 {
	if m, ok := s.sourceMultipliers[normalize(source)]; ok {
		return m
	}
	return s.defaultMultiplier
}

func normalize(source string) string {
	return strings.ToLower(strings.TrimSpace(source))
}
