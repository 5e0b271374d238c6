// Package progression derives levels from an append-only log of point events.
//
// Nothing here is stored: callers re-run Compute against a fresh read of the
// log whenever they need the current state.
package progression

import (
	"fmt"
	"math"

	"github.com/okian/levelup/internal/domain/model"
)

// State is the progression derived from a point log.
type State struct {
	TotalPoints       int64 `json:"total_points"`
	Level             int64 `json:"level"`
	PointsIntoLevel   int64 `json:"points_into_level"`
	PointsToNextLevel int64 `json:"points_to_next_level"`
}

// LevelUp reports the transition between two level snapshots.
type LevelUp struct {
	LeveledUp bool  `json:"leveled_up"`
	From      int64 `json:"from"`
	To        int64 `json:"to"`
}

// ValidateLevelSize rejects level sizes that cannot partition points.
func ValidateLevelSize(levelSize int64) error {
	if levelSize <= 0 {
		return fmt.Errorf("%w: level size %d must be positive", model.ErrConfiguration, levelSize)
	}
	return nil
}

// Compute sums the event amounts and splits the total into fixed-size levels.
// Levels are 1-based. The order of events does not affect the result.
func Compute(events []model.PointEvent, levelSize int64) (State, error) {
	if err := ValidateLevelSize(levelSize); err != nil {
		return State{}, err
	}
	var total int64
	for i := range events {
		total = saturatingAdd(total, events[i].Amount)
	}
	return FromTotal(total, levelSize), nil
}

// FromTotal splits a precomputed total. levelSize must already be validated.
func FromTotal(total, levelSize int64) State {
	into := total % levelSize
	return State{
		TotalPoints:       total,
		Level:             total/levelSize + 1,
		PointsIntoLevel:   into,
		PointsToNextLevel: levelSize - into,
	}
}

// DetectLevelUp compares two level snapshots. A multi-level jump is reported
// as a single transition; callers decide how to present it.
func DetectLevelUp(previous, next int64) LevelUp {
	return LevelUp{LeveledUp: next > previous, From: previous, To: next}
}

// Progress returns the fraction of the current level completed, in [0, 1).
func (s State) Progress() float64 {
	size := s.PointsIntoLevel + s.PointsToNextLevel
	if size <= 0 {
		return 0
	}
	return float64(s.PointsIntoLevel) / float64(size)
}

func saturatingAdd(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}
