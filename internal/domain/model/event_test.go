package model_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/okian/levelup/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewPointEvent(t *testing.T) {
	Convey("Given point event construction", t, func() {
		ts := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

		Convey("When all fields are valid", func() {
			e, err := model.NewPointEvent("evt-1", ts, 10, "chapter 3")

			Convey("Then the event carries them unchanged", func() {
				So(err, ShouldBeNil)
				So(e.ID, ShouldEqual, "evt-1")
				So(e.Timestamp, ShouldEqual, ts)
				So(e.Amount, ShouldEqual, 10)
				So(e.Label, ShouldEqual, "chapter 3")
			})
		})

		Convey("When the amount is zero", func() {
			_, err := model.NewPointEvent("evt-0", ts, 0, "")

			Convey("Then it is accepted", func() {
				So(err, ShouldBeNil)
			})
		})

		Convey("When the amount is negative", func() {
			_, err := model.NewPointEvent("evt-2", ts, -1, "")

			Convey("Then it is rejected as an invalid event", func() {
				So(errors.Is(err, model.ErrInvalidEvent), ShouldBeTrue)
			})
		})

		Convey("When the id is blank", func() {
			_, err := model.NewPointEvent("  ", ts, 5, "")

			Convey("Then it is rejected", func() {
				So(errors.Is(err, model.ErrInvalidEvent), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "missing event id")
			})
		})

		Convey("When the timestamp is zero", func() {
			_, err := model.NewPointEvent("evt-3", time.Time{}, 5, "")

			Convey("Then it is rejected", func() {
				So(errors.Is(err, model.ErrInvalidEvent), ShouldBeTrue)
			})
		})
	})
}

func TestNewDamageEvent(t *testing.T) {
	Convey("Given damage event construction", t, func() {
		ts := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

		Convey("When the score and damage are valid", func() {
			e, err := model.NewDamageEvent("dmg-1", ts, "mock exam 1", 150, 300)

			Convey("Then the event is built", func() {
				So(err, ShouldBeNil)
				So(e.SourceLabel, ShouldEqual, "mock exam 1")
				So(e.RawScore, ShouldEqual, 150)
				So(e.Damage, ShouldEqual, 300)
			})
		})

		Convey("When the raw score is negative", func() {
			_, err := model.NewDamageEvent("dmg-2", ts, "x", -1, 0)

			Convey("Then it is an invalid score", func() {
				So(errors.Is(err, model.ErrInvalidScore), ShouldBeTrue)
			})
		})

		Convey("When the raw score is NaN", func() {
			_, err := model.NewDamageEvent("dmg-3", ts, "x", math.NaN(), 0)

			Convey("Then it is an invalid score", func() {
				So(errors.Is(err, model.ErrInvalidScore), ShouldBeTrue)
			})
		})

		Convey("When the damage is negative", func() {
			_, err := model.NewDamageEvent("dmg-4", ts, "x", 10, -5)

			Convey("Then it is an invalid event", func() {
				So(errors.Is(err, model.ErrInvalidEvent), ShouldBeTrue)
			})
		})
	})
}

func TestParseKind(t *testing.T) {
	Convey("Given kind parsing", t, func() {
		Convey("Then known kinds parse case-insensitively", func() {
			k, err := model.ParseKind(" Points ")
			So(err, ShouldBeNil)
			So(k, ShouldEqual, model.KindPoints)

			k, err = model.ParseKind("damage")
			So(err, ShouldBeNil)
			So(k, ShouldEqual, model.KindDamage)
		})

		Convey("Then unknown kinds fail", func() {
			_, err := model.ParseKind("xp")
			So(errors.Is(err, model.ErrInvalidEvent), ShouldBeTrue)
		})
	})

	Convey("Given a submission", t, func() {
		Convey("Then EventID follows the kind", func() {
			s := model.Submission{Kind: model.KindDamage, Point: model.PointEvent{ID: "p"}, Damage: model.DamageEvent{ID: "d"}}
			So(s.EventID(), ShouldEqual, "d")
			s.Kind = model.KindPoints
			So(s.EventID(), ShouldEqual, "p")
		})
	})
}
