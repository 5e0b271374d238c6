// Package activity summarises when points were earned: a per-day study
// calendar and a per-week count of recorded sessions.
package activity

import (
	"time"

	"github.com/okian/levelup/internal/domain/model"
)

// Day is one calendar cell.
type Day struct {
	Date    time.Time `json:"date"`
	Studied bool      `json:"studied"`
	Records int       `json:"records"`
}

// Week counts records in the week starting on Start (a Monday).
type Week struct {
	Start time.Time `json:"start"`
	Times int       `json:"times"`
}

// Calendar returns the last days days ending on today, oldest first. Event
// timestamps are bucketed by date in today's location.
func Calendar(events []model.PointEvent, today time.Time, days int) []Day {
	if days <= 0 {
		return []Day{}
	}
	loc := today.Location()
	end := truncateDay(today)
	start := end.AddDate(0, 0, -(days - 1))

	out := make([]Day, days)
	for i := range out {
		out[i].Date = start.AddDate(0, 0, i)
	}
	for i := range events {
		d := truncateDay(events[i].Timestamp.In(loc))
		if d.Before(start) || d.After(end) {
			continue
		}
		idx := daysBetween(start, d)
		out[idx].Records++
		out[idx].Studied = true
	}
	return out
}

// Weekly returns record counts for the last weeks weeks, oldest first. The
// current week (the one containing today) is the last element.
func Weekly(events []model.PointEvent, today time.Time, weeks int) []Week {
	if weeks <= 0 {
		return []Week{}
	}
	loc := today.Location()
	current := WeekStart(today)
	first := current.AddDate(0, 0, -7*(weeks-1))

	out := make([]Week, weeks)
	for i := range out {
		out[i].Start = first.AddDate(0, 0, 7*i)
	}
	for i := range events {
		ws := WeekStart(events[i].Timestamp.In(loc))
		if ws.Before(first) || ws.After(current) {
			continue
		}
		out[daysBetween(first, ws)/7].Times++
	}
	return out
}

// WeekStart returns midnight of the Monday on or before t.
func WeekStart(t time.Time) time.Time {
	d := truncateDay(t)
	offset := (int(d.Weekday()) + 6) % 7 // Monday = 0
	return d.AddDate(0, 0, -offset)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// daysBetween counts calendar days; robust to DST shifts within the span.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
