// Package config defines service configuration and how it is loaded.
//
// Values are layered: defaults from New, then an optional YAML file named by
// LEVELUP_CONFIG, then LEVELUP_* environment variables.
package config

import (
	"context"
	"runtime"

	"github.com/okian/levelup/internal/domain/pool"
	"github.com/okian/levelup/internal/domain/progression"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverCSV    = "csv"
	DriverS3     = "s3"
	DriverSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// EventQueueSize bounds the in-memory submission queue.
	EventQueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of workers applying submissions.
	WorkerCount int `koanf:"worker_count"`
	// DedupeSize bounds the event id cache. Zero or less means unbounded.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`
	// FeedSize bounds the notifications kept per subject.
	FeedSize int `koanf:"feed_size"`

	// LevelSize is the points needed per level.
	LevelSize int64 `koanf:"level_size"`
	// PointsPerPress is used when a point submission has no amount.
	PointsPerPress  int64                    `koanf:"points_per_press"`
	LevelAssets     []progression.LevelAsset `koanf:"level_assets"`
	LevelUpMessages []string                 `koanf:"level_up_messages"`

	// DamageMultiplier applies to sources missing from SourceMultipliers.
	DamageMultiplier  float64            `koanf:"damage_multiplier"`
	SourceMultipliers map[string]float64 `koanf:"source_multipliers"`
	Stages            []pool.Stage       `koanf:"stages"`

	CalendarDays int `koanf:"calendar_days"`
	SummaryWeeks int `koanf:"summary_weeks"`
	// MaxCalendarDays and MaxSummaryWeeks cap the ?days and ?weeks queries.
	MaxCalendarDays int `koanf:"max_calendar_days"`
	MaxSummaryWeeks int `koanf:"max_summary_weeks"`

	// StatsIntervalMS is how often gauges are refreshed.
	StatsIntervalMS int `koanf:"stats_interval_ms"`

	// StoreDriver selects the event log: memory, csv, s3 or sqlite.
	StoreDriver string `koanf:"store_driver"`
	// StorePath is the csv directory or the sqlite file.
	StorePath string `koanf:"store_path"`

	S3Bucket          string `koanf:"s3_bucket"`
	S3Prefix          string `koanf:"s3_prefix"`
	S3Region          string `koanf:"s3_region"`
	S3Endpoint        string `koanf:"s3_endpoint"`
	S3AccessKeyID     string `koanf:"s3_access_key_id"`
	S3SecretAccessKey string `koanf:"s3_secret_access_key"`
}

// New returns a Config populated with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		EventQueueSize:      10_000,
		WorkerCount:         runtime.NumCPU(),
		DedupeSize:          50_000,
		MaxLeaderboardLimit: 100,
		FeedSize:            20,
		LevelSize:           100,
		PointsPerPress:      10,
		LevelAssets: []progression.LevelAsset{
			{Level: 1, Title: "Student (starting out)", Asset: "😪"},
			{Level: 2, Title: "Steady grinder", Asset: "🙂"},
			{Level: 3, Title: "Motivation up", Asset: "😤"},
			{Level: 4, Title: "Focus mode", Asset: "🧠"},
			{Level: 5, Title: "Straight to the exam", Asset: "🩺"},
			{Level: 6, Title: "Almost there!", Asset: "🏆"},
		},
		LevelUpMessages: []string{
			"You're working really hard!",
			"Keep it up, you can do this!",
			"Great focus. Don't forget to take breaks.",
			"You're getting closer bit by bit!",
		},
		DamageMultiplier:  2,
		SourceMultipliers: map[string]float64{},
		Stages: []pool.Stage{
			{Name: "Slime", Capacity: 1000, Asset: "🟢"},
			{Name: "Golem", Capacity: 1500, Asset: "🗿"},
			{Name: "Dragon", Capacity: 2000, Asset: "🐉"},
		},
		CalendarDays:    60,
		SummaryWeeks:    8,
		MaxCalendarDays: 366,
		MaxSummaryWeeks: 104,
		StatsIntervalMS: 5000,
		StoreDriver:     DriverMemory,
		S3Prefix:        "levelup",
		S3Region:        "auto",
	}
}
