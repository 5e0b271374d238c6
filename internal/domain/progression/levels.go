package progression

import (
	"fmt"
	"sort"

	"github.com/okian/levelup/internal/domain/model"
)

// LevelAsset maps a level to its decorative title and asset reference.
type LevelAsset struct {
	Level int64  `koanf:"level" json:"level"`
	Title string `koanf:"title" json:"title"`
	Asset string `koanf:"asset" json:"asset"`
}

// LevelTable resolves the asset for a level. Levels past the last entry reuse
// the last entry; levels before the first entry use the first.
type LevelTable struct {
	entries []LevelAsset
}

// NewLevelTable copies and sorts entries by level.
func NewLevelTable(entries []LevelAsset) (*LevelTable, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: level table is empty", model.ErrConfiguration)
	}
	sorted := make([]LevelAsset, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Level < sorted[j].Level })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Level == sorted[i-1].Level {
			return nil, fmt.Errorf("%w: level %d listed twice", model.ErrConfiguration, sorted[i].Level)
		}
	}
	return &LevelTable{entries: sorted}, nil
}

// Lookup returns the entry with the greatest Level <= level.
func (t *LevelTable) Lookup(level int64) LevelAsset {
	i := sort.Search(len(t.entries), func(i int) bool { return t.entries[i].Level > level })
	if i == 0 {
		return t.entries[0]
	}
	return t.entries[i-1]
}

// Len returns the number of configured entries.
func (t *LevelTable) Len() int { return len(t.entries) }

// Messages is a rotating list of level-up encouragements.
type Messages []string

// For picks the message for reaching level.
func (m Messages) For(level int64) string {
	if len(m) == 0 {
		return ""
	}
	n := int64(len(m))
	i := (level - 1) % n
	if i < 0 {
		i += n
	}
	return m[i]
}
