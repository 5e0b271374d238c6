package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/okian/levelup/internal/domain/pool"
	"github.com/okian/levelup/internal/domain/progression"
)

// Validate reports the first invalid setting, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	if strings.TrimSpace(c.Addr) == "" {
		return invalid("addr must not be empty")
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return invalid("log_format %q", c.LogFormat)
	}
	if c.EventQueueSize <= 0 {
		return invalid("queue_size must be positive, got %d", c.EventQueueSize)
	}
	if c.WorkerCount <= 0 {
		return invalid("worker_count must be positive, got %d", c.WorkerCount)
	}
	if c.MaxLeaderboardLimit <= 0 {
		return invalid("max_leaderboard_limit must be positive, got %d", c.MaxLeaderboardLimit)
	}
	if c.FeedSize < 0 {
		return invalid("feed_size must not be negative")
	}
	if err := progression.ValidateLevelSize(c.LevelSize); err != nil {
		return invalid("level_size: %v", err)
	}
	if c.PointsPerPress < 0 {
		return invalid("points_per_press must not be negative")
	}
	if _, err := progression.NewLevelTable(c.LevelAssets); err != nil {
		return invalid("level_assets: %v", err)
	}
	if !validMultiplier(c.DamageMultiplier) {
		return invalid("damage_multiplier %v", c.DamageMultiplier)
	}
	for source, m := range c.SourceMultipliers {
		if !validMultiplier(m) {
			return invalid("source_multipliers[%s] %v", source, m)
		}
	}
	if err := pool.ValidateStages(c.Stages); err != nil {
		return invalid("stages: %v", err)
	}
	if c.CalendarDays <= 0 || c.SummaryWeeks <= 0 {
		return invalid("calendar_days and summary_weeks must be positive")
	}
	if c.MaxCalendarDays < c.CalendarDays || c.MaxSummaryWeeks < c.SummaryWeeks {
		return invalid("max_calendar_days and max_summary_weeks must cover calendar_days and summary_weeks")
	}
	if c.StatsIntervalMS <= 0 {
		return invalid("stats_interval_ms must be positive")
	}

	switch c.StoreDriver {
	case DriverMemory:
	case DriverCSV, DriverSQLite:
		if strings.TrimSpace(c.StorePath) == "" {
			return invalid("store_path is required for the %s driver", c.StoreDriver)
		}
	case DriverS3:
		if strings.TrimSpace(c.S3Bucket) == "" {
			return invalid("s3_bucket is required for the s3 driver")
		}
	default:
		return invalid("unknown store_driver %q", c.StoreDriver)
	}
	return nil
}

func validMultiplier(m float64) bool {
	return m >= 0 && !math.IsNaN(m) && !math.IsInf(m, 0)
}
