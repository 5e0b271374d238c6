// Package eventlogtest holds the behaviour every eventlog.Store must share.
package eventlogtest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/levelup/internal/adapters/eventlog"
	"github.com/okian/levelup/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var base = time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

// Point builds a point event n hours after a fixed base time.
func Point(id string, n int, amount int64, label string) model.PointEvent {
	return model.PointEvent{ID: id, Timestamp: base.Add(time.Duration(n) * time.Hour), Amount: amount, Label: label}
}

// Hit builds a damage event n hours after a fixed base time.
func Hit(id string, n int, raw float64, damage int64) model.DamageEvent {
	return model.DamageEvent{ID: id, Timestamp: base.Add(time.Duration(n) * time.Hour), SourceLabel: "mock " + id, RawScore: raw, Damage: damage}
}

// Run exercises a fresh store returned by newStore for each scenario.
func Run(t *testing.T, name string, newStore func() eventlog.Store) {
	t.Helper()
	ctx := context.Background()

	Convey("Given an empty "+name+" store", t, func() {
		store := newStore()
		defer func() { _ = store.Close() }()

		Convey("When reading an unknown subject", func() {
			points, perr := store.Points(ctx, "nobody")
			hits, derr := store.Damage(ctx, "nobody")

			Convey("Then both logs are empty", func() {
				So(perr, ShouldBeNil)
				So(derr, ShouldBeNil)
				So(points, ShouldBeEmpty)
				So(hits, ShouldBeEmpty)
			})
		})

		Convey("When point events are appended", func() {
			So(store.AppendPoint(ctx, "alice", Point("p1", 0, 10, "vocab")), ShouldBeNil)
			So(store.AppendPoint(ctx, "alice", Point("p2", 2, 25, "")), ShouldBeNil)
			So(store.AppendPoint(ctx, "alice", Point("p3", 1, 5, "with, comma")), ShouldBeNil)
			So(store.AppendPoint(ctx, "bob", Point("b1", 0, 7, "")), ShouldBeNil)

			Convey("Then they are returned in append order with all fields", func() {
				got, err := store.Points(ctx, "alice")
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 3)
				So(got[0].ID, ShouldEqual, "p1")
				So(got[1].ID, ShouldEqual, "p2")
				So(got[2].ID, ShouldEqual, "p3")
				So(got[2].Label, ShouldEqual, "with, comma")
				So(got[1].Amount, ShouldEqual, 25)
				So(got[0].Timestamp.Equal(base), ShouldBeTrue)
			})

			Convey("Then subjects are listed sorted", func() {
				subjects, err := store.Subjects(ctx)
				So(err, ShouldBeNil)
				So(subjects, ShouldResemble, []string{"alice", "bob"})
			})

			Convey("Then undo removes only the last point event", func() {
				removed, err := store.RemoveLast(ctx, "alice", model.KindPoints)
				So(err, ShouldBeNil)
				So(removed, ShouldBeTrue)
				got, _ := store.Points(ctx, "alice")
				So(len(got), ShouldEqual, 2)
				So(got[1].ID, ShouldEqual, "p2")
			})

			Convey("Then reset clears the subject's point log only", func() {
				So(store.Reset(ctx, "alice", model.KindPoints), ShouldBeNil)
				got, _ := store.Points(ctx, "alice")
				So(got, ShouldBeEmpty)
				other, _ := store.Points(ctx, "bob")
				So(len(other), ShouldEqual, 1)
			})
		})

		Convey("When damage events are appended", func() {
			So(store.AppendDamage(ctx, "alice", Hit("d1", 0, 150, 300)), ShouldBeNil)
			So(store.AppendDamage(ctx, "alice", Hit("d2", 1, 72.5, 145)), ShouldBeNil)

			Convey("Then they round-trip in order", func() {
				got, err := store.Damage(ctx, "alice")
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 2)
				So(got[0].Damage, ShouldEqual, 300)
				So(got[1].RawScore, ShouldEqual, 72.5)
				So(got[1].SourceLabel, ShouldEqual, "mock d2")
			})

			Convey("Then the point log is untouched", func() {
				got, _ := store.Points(ctx, "alice")
				So(got, ShouldBeEmpty)
			})

			Convey("Then undo on damage leaves one event", func() {
				removed, err := store.RemoveLast(ctx, "alice", model.KindDamage)
				So(err, ShouldBeNil)
				So(removed, ShouldBeTrue)
				got, _ := store.Damage(ctx, "alice")
				So(len(got), ShouldEqual, 1)
			})
		})

		Convey("When undoing on an empty log", func() {
			removed, err := store.RemoveLast(ctx, "alice", model.KindPoints)

			Convey("Then nothing is removed", func() {
				So(err, ShouldBeNil)
				So(removed, ShouldBeFalse)
			})
		})

		Convey("When using an unknown kind", func() {
			_, err := store.RemoveLast(ctx, "alice", model.Kind("xp"))
			rerr := store.Reset(ctx, "alice", model.Kind("xp"))

			Convey("Then ErrUnknownKind is returned", func() {
				So(errors.Is(err, eventlog.ErrUnknownKind), ShouldBeTrue)
				So(errors.Is(rerr, eventlog.ErrUnknownKind), ShouldBeTrue)
			})
		})

		Convey("When the subject contains a path separator", func() {
			err := store.AppendPoint(ctx, "../etc", Point("x", 0, 1, ""))

			Convey("Then it is rejected", func() {
				So(errors.Is(err, eventlog.ErrInvalidSubject), ShouldBeTrue)
			})
		})
	})
}
