// Package types holds the request and response shapes shared by the service
// and its transports.
package types

import (
	"time"

	"github.com/okian/levelup/internal/domain/pool"
	"github.com/okian/levelup/internal/domain/progression"
)

// Submission statuses.
const (
	StatusAccepted  = "accepted"
	StatusDuplicate = "duplicate"
)

// PointRequest asks to record points. A nil Amount means one press worth of
// points; an empty EventID is replaced by a generated one.
type PointRequest struct {
	EventID   string     `json:"event_id,omitempty"`
	Amount    *int64     `json:"amount,omitempty"`
	Label     string     `json:"label,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// DamageRequest asks to record a scored attempt against the pool.
type DamageRequest struct {
	EventID   string     `json:"event_id,omitempty"`
	Source    string     `json:"source"`
	RawScore  float64    `json:"raw_score"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// Ack acknowledges a submission. Recording happens asynchronously.
type Ack struct {
	Status  string `json:"status"`
	EventID string `json:"event_id"`
	Subject string `json:"subject"`
	Kind    string `json:"kind"`
	Amount  int64  `json:"amount,omitempty"`
	Damage  int64  `json:"damage,omitempty"`
}

// ProgressionView is a subject's progression with its level presentation.
type ProgressionView struct {
	Subject string `json:"subject"`
	progression.State
	Progress float64 `json:"progress"`
	Title    string  `json:"title"`
	Asset    string  `json:"asset"`
}

// PoolView is a subject's pool position with the current stage.
type PoolView struct {
	Subject string `json:"subject"`
	pool.State
	Stage pool.Stage `json:"stage"`
}

// NotificationKind distinguishes feed entries.
type NotificationKind string

// Notification kinds.
const (
	NotifyLevelUp    NotificationKind = "level_up"
	NotifyStageClear NotificationKind = "stage_clear"
)

// Notification is a level-up or stage-clear notice kept in a subject's feed.
type Notification struct {
	Kind    NotificationKind `json:"kind"`
	Subject string           `json:"subject"`
	EventID string           `json:"event_id"`
	At      time.Time        `json:"at"`
	From    int64            `json:"from"`
	To      int64            `json:"to"`
	Message string           `json:"message,omitempty"`
	Title   string           `json:"title,omitempty"`
	Asset   string           `json:"asset,omitempty"`
}

// Outcome is what applying one submission changed.
type Outcome struct {
	Subject     string              `json:"subject"`
	Kind        string              `json:"kind"`
	Progression progression.State   `json:"progression"`
	Pool        pool.State          `json:"pool"`
	LevelUp     progression.LevelUp `json:"level_up"`
	StageClear  pool.StageClear     `json:"stage_clear"`
}
