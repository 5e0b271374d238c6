package progression_test

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/okian/levelup/internal/domain/model"
	"github.com/okian/levelup/internal/domain/progression"
	. "github.com/smartystreets/goconvey/convey"
)

func events(amounts ...int64) []model.PointEvent {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]model.PointEvent, len(amounts))
	for i, a := range amounts {
		out[i] = model.PointEvent{ID: "e", Timestamp: base.Add(time.Duration(i) * time.Hour), Amount: a}
	}
	return out
}

func TestCompute(t *testing.T) {
	Convey("Given the progression engine", t, func() {
		Convey("When there are no events", func() {
			s, err := progression.Compute(nil, 150)

			Convey("Then the subject starts at level 1", func() {
				So(err, ShouldBeNil)
				So(s.TotalPoints, ShouldEqual, 0)
				So(s.Level, ShouldEqual, 1)
				So(s.PointsIntoLevel, ShouldEqual, 0)
				So(s.PointsToNextLevel, ShouldEqual, 150)
				So(s.Progress(), ShouldEqual, 0)
			})
		})

		Convey("When points cross two level boundaries", func() {
			s, err := progression.Compute(events(10, 100, 120), 100)

			Convey("Then level and in-level progress follow the total", func() {
				So(err, ShouldBeNil)
				So(s.TotalPoints, ShouldEqual, 230)
				So(s.Level, ShouldEqual, 3)
				So(s.PointsIntoLevel, ShouldEqual, 30)
				So(s.PointsToNextLevel, ShouldEqual, 70)
				So(s.Progress(), ShouldAlmostEqual, 0.3)
			})
		})

		Convey("When the total lands exactly on a boundary", func() {
			s, err := progression.Compute(events(50, 50), 100)

			Convey("Then the next level has just started", func() {
				So(err, ShouldBeNil)
				So(s.Level, ShouldEqual, 2)
				So(s.PointsIntoLevel, ShouldEqual, 0)
			})
		})

		Convey("When the level size is zero or negative", func() {
			_, errZero := progression.Compute(events(10), 0)
			_, errNeg := progression.Compute(events(10), -5)

			Convey("Then it fails with a configuration error", func() {
				So(errors.Is(errZero, model.ErrConfiguration), ShouldBeTrue)
				So(errors.Is(errNeg, model.ErrConfiguration), ShouldBeTrue)
			})
		})

		Convey("When the sum would overflow int64", func() {
			s, err := progression.Compute(events(math.MaxInt64, 10), 100)

			Convey("Then the total saturates instead of wrapping", func() {
				So(err, ShouldBeNil)
				So(s.TotalPoints, ShouldEqual, int64(math.MaxInt64))
				So(s.Level, ShouldBeGreaterThan, 1)
			})
		})
	})
}

func TestComputeProperties(t *testing.T) {
	Convey("Given random non-negative amounts", t, func() {
		rng := rand.New(rand.NewSource(7))

		Convey("Then the arithmetic invariants hold for every sample", func() {
			for n := 0; n < 200; n++ {
				size := int64(rng.Intn(300) + 1)
				amounts := make([]int64, rng.Intn(20))
				var sum int64
				for i := range amounts {
					amounts[i] = int64(rng.Intn(500))
					sum += amounts[i]
				}
				s, err := progression.Compute(events(amounts...), size)
				So(err, ShouldBeNil)
				So(s.TotalPoints, ShouldEqual, sum)
				So(s.Level, ShouldEqual, sum/size+1)
				So(s.PointsIntoLevel, ShouldEqual, sum%size)
				So(s.PointsIntoLevel, ShouldBeGreaterThanOrEqualTo, 0)
				So(s.PointsIntoLevel, ShouldBeLessThan, size)
			}
		})

		Convey("Then repeated computation is idempotent", func() {
			log := events(5, 70, 33, 12)
			a, _ := progression.Compute(log, 100)
			b, _ := progression.Compute(log, 100)
			So(a, ShouldResemble, b)
		})

		Convey("Then permuting the log does not change the result", func() {
			log := events(5, 70, 33, 12, 99, 1)
			want, _ := progression.Compute(log, 40)
			for n := 0; n < 20; n++ {
				shuffled := make([]model.PointEvent, len(log))
				copy(shuffled, log)
				rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
				got, _ := progression.Compute(shuffled, 40)
				So(got, ShouldResemble, want)
			}
		})

		Convey("Then appending an event never lowers the level", func() {
			log := []model.PointEvent{}
			prev, _ := progression.Compute(log, 25)
			for n := 0; n < 50; n++ {
				log = append(log, events(int64(rng.Intn(40)))...)
				next, _ := progression.Compute(log, 25)
				So(next.Level, ShouldBeGreaterThanOrEqualTo, prev.Level)
				prev = next
			}
		})
	})
}

func TestDetectLevelUp(t *testing.T) {
	Convey("Given two level snapshots", t, func() {
		Convey("When the level is unchanged", func() {
			r := progression.DetectLevelUp(3, 3)

			Convey("Then no level-up is reported", func() {
				So(r.LeveledUp, ShouldBeFalse)
			})
		})

		Convey("When the level jumps by two", func() {
			r := progression.DetectLevelUp(3, 5)

			Convey("Then a single transition carries both ends", func() {
				So(r.LeveledUp, ShouldBeTrue)
				So(r.From, ShouldEqual, 3)
				So(r.To, ShouldEqual, 5)
			})
		})

		Convey("When the level drops after an undo", func() {
			r := progression.DetectLevelUp(4, 2)

			Convey("Then it is not a level-up", func() {
				So(r.LeveledUp, ShouldBeFalse)
			})
		})
	})
}
