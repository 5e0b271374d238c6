// Package pool converts cumulative damage into progress through an ordered
// list of fixed-capacity stages (bosses).
//
// The pool is a one-directional automaton driven only by the damage total:
// stage i is left once the total reaches the sum of capacities 0..i, and the
// last stage leads to the terminal cleared state. Since only the sum matters,
// the order in which events arrive never changes the outcome.
package pool

import (
	"fmt"
	"math"

	"github.com/okian/levelup/internal/domain/model"
)

// Stage is one boss in the sequence.
type Stage struct {
	Name     string `koanf:"name" json:"name"`
	Capacity int64  `koanf:"capacity" json:"capacity"`
	Asset    string `koanf:"asset" json:"asset"`
}

// State is the pool position derived from a damage log.
type State struct {
	TotalDamage             int64 `json:"total_damage"`
	CurrentStageIndex       int   `json:"current_stage_index"`
	CurrentStageRemainingHP int64 `json:"current_stage_remaining_hp"`
	StagesCleared           int   `json:"stages_cleared"`
	// Cleared is true once every stage is exhausted. The last stage is then
	// reported with zero remaining HP.
	Cleared bool `json:"cleared"`
}

// StageClear reports stages defeated between two snapshots.
type StageClear struct {
	Cleared bool `json:"cleared"`
	From    int  `json:"from"`
	To      int  `json:"to"`
}

// ValidateStages rejects an empty list and non-positive capacities.
func ValidateStages(stages []Stage) error {
	if len(stages) == 0 {
		return fmt.Errorf("%w: stage list is empty", model.ErrConfiguration)
	}
	for i, s := range stages {
		if s.Capacity <= 0 {
			return fmt.Errorf("%w: stage %d (%q) capacity %d must be positive", model.ErrConfiguration, i, s.Name, s.Capacity)
		}
	}
	return nil
}

// Compute sums damage over events and walks the stages in order.
func Compute(events []model.DamageEvent, stages []Stage) (State, error) {
	if err := ValidateStages(stages); err != nil {
		return State{}, err
	}
	var total int64
	for i := range events {
		d := events[i].Damage
		if d > 0 && total > math.MaxInt64-d {
			total = math.MaxInt64
			continue
		}
		total += d
	}
	return FromTotal(total, stages), nil
}

// FromTotal walks validated stages with a precomputed damage total.
func FromTotal(total int64, stages []Stage) State {
	remaining := total
	for i, s := range stages {
		if remaining < s.Capacity {
			return State{
				TotalDamage:             total,
				CurrentStageIndex:       i,
				CurrentStageRemainingHP: s.Capacity - remaining,
				StagesCleared:           i,
			}
		}
		remaining -= s.Capacity
	}
	return State{
		TotalDamage:             total,
		CurrentStageIndex:       len(stages) - 1,
		CurrentStageRemainingHP: 0,
		StagesCleared:           len(stages),
		Cleared:                 true,
	}
}

// DetectStageClear compares two pool snapshots.
func DetectStageClear(before, after State) StageClear {
	return StageClear{
		Cleared: after.StagesCleared > before.StagesCleared,
		From:    before.StagesCleared,
		To:      after.StagesCleared,
	}
}

// RecordDamage converts a raw score into damage: floor(rawScore * multiplier).
func RecordDamage(rawScore, multiplier float64) (int64, error) {
	if math.IsNaN(rawScore) || math.IsInf(rawScore, 0) || rawScore < 0 {
		return 0, fmt.Errorf("%w: raw score %v must be a non-negative number", model.ErrInvalidScore, rawScore)
	}
	if math.IsNaN(multiplier) || math.IsInf(multiplier, 0) || multiplier < 0 {
		return 0, fmt.Errorf("%w: damage multiplier %v must be a non-negative number", model.ErrConfiguration, multiplier)
	}
	d := math.Floor(rawScore * multiplier)
	if d >= math.MaxInt64 {
		return math.MaxInt64, nil
	}
	return int64(d), nil
}
