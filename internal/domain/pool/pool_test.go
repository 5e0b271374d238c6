package pool_test

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/okian/levelup/internal/domain/model"
	"github.com/okian/levelup/internal/domain/pool"
	. "github.com/smartystreets/goconvey/convey"
)

var bosses = []pool.Stage{
	{Name: "slime", Capacity: 1000, Asset: "slime.png"},
	{Name: "golem", Capacity: 1500, Asset: "golem.png"},
	{Name: "dragon", Capacity: 2000, Asset: "dragon.png"},
}

func damage(values ...int64) []model.DamageEvent {
	out := make([]model.DamageEvent, len(values))
	for i, v := range values {
		out[i] = model.DamageEvent{ID: "d", Damage: v}
	}
	return out
}

func TestCompute(t *testing.T) {
	Convey("Given three bosses of 1000, 1500 and 2000 HP", t, func() {
		Convey("When no damage has been dealt", func() {
			s, err := pool.Compute(nil, bosses)

			Convey("Then the first boss is at full HP", func() {
				So(err, ShouldBeNil)
				So(s.CurrentStageIndex, ShouldEqual, 0)
				So(s.CurrentStageRemainingHP, ShouldEqual, 1000)
				So(s.StagesCleared, ShouldEqual, 0)
				So(s.Cleared, ShouldBeFalse)
			})
		})

		Convey("When damage stays inside the first boss", func() {
			s, err := pool.Compute(damage(300, 400), bosses)

			Convey("Then only the first boss loses HP", func() {
				So(err, ShouldBeNil)
				So(s.CurrentStageIndex, ShouldEqual, 0)
				So(s.CurrentStageRemainingHP, ShouldEqual, 300)
			})
		})

		Convey("When damage exactly meets the first capacity", func() {
			s, _ := pool.Compute(damage(1000), bosses)

			Convey("Then the second boss is current at full HP", func() {
				So(s.CurrentStageIndex, ShouldEqual, 1)
				So(s.CurrentStageRemainingHP, ShouldEqual, 1500)
				So(s.StagesCleared, ShouldEqual, 1)
			})
		})

		Convey("When damage sums to 2600", func() {
			s, err := pool.Compute(damage(1200, 900, 500), bosses)

			Convey("Then two bosses fall and the third has 1900 HP left", func() {
				So(err, ShouldBeNil)
				So(s.TotalDamage, ShouldEqual, 2600)
				So(s.CurrentStageIndex, ShouldEqual, 2)
				So(s.CurrentStageRemainingHP, ShouldEqual, 1900)
				So(s.StagesCleared, ShouldEqual, 2)
			})
		})

		Convey("When damage meets or exceeds the 4500 total", func() {
			exact, _ := pool.Compute(damage(4500), bosses)
			over, _ := pool.Compute(damage(4000, 9000), bosses)

			Convey("Then the last boss is pinned at zero HP", func() {
				for _, s := range []pool.State{exact, over} {
					So(s.CurrentStageIndex, ShouldEqual, 2)
					So(s.CurrentStageRemainingHP, ShouldEqual, 0)
					So(s.StagesCleared, ShouldEqual, 3)
					So(s.Cleared, ShouldBeTrue)
				}
			})
		})

		Convey("When damage totals overflow int64", func() {
			s, err := pool.Compute(damage(math.MaxInt64, 5), bosses)

			Convey("Then the total saturates and the pool is cleared", func() {
				So(err, ShouldBeNil)
				So(s.TotalDamage, ShouldEqual, int64(math.MaxInt64))
				So(s.Cleared, ShouldBeTrue)
			})
		})
	})

	Convey("Given invalid stage lists", t, func() {
		Convey("When the list is empty", func() {
			_, err := pool.Compute(damage(10), nil)
			So(errors.Is(err, model.ErrConfiguration), ShouldBeTrue)
		})

		Convey("When a capacity is not positive", func() {
			_, err := pool.Compute(nil, []pool.Stage{{Name: "ghost", Capacity: 0}})
			So(errors.Is(err, model.ErrConfiguration), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "ghost")
		})
	})
}

func TestComputeMonotone(t *testing.T) {
	Convey("Given a growing damage log", t, func() {
		rng := rand.New(rand.NewSource(11))
		log := []model.DamageEvent{}
		prev, _ := pool.Compute(log, bosses)

		Convey("Then stage index and clears never decrease and HP only rises on a transition", func() {
			for n := 0; n < 100; n++ {
				log = append(log, damage(int64(rng.Intn(300)))...)
				next, err := pool.Compute(log, bosses)
				So(err, ShouldBeNil)
				So(next.CurrentStageIndex, ShouldBeGreaterThanOrEqualTo, prev.CurrentStageIndex)
				So(next.StagesCleared, ShouldBeGreaterThanOrEqualTo, prev.StagesCleared)
				if next.CurrentStageIndex == prev.CurrentStageIndex {
					So(next.CurrentStageRemainingHP, ShouldBeLessThanOrEqualTo, prev.CurrentStageRemainingHP)
				}
				prev = next
			}
		})

		Convey("Then the order of events is irrelevant", func() {
			log := damage(700, 50, 1300, 20, 880)
			want, _ := pool.Compute(log, bosses)
			rng.Shuffle(len(log), func(i, j int) { log[i], log[j] = log[j], log[i] })
			got, _ := pool.Compute(log, bosses)
			So(got, ShouldResemble, want)
		})
	})
}

func TestDetectStageClear(t *testing.T) {
	Convey("Given two pool snapshots", t, func() {
		before := pool.FromTotal(900, bosses)

		Convey("When a boss falls", func() {
			r := pool.DetectStageClear(before, pool.FromTotal(2600, bosses))

			Convey("Then the clear spans both defeated bosses", func() {
				So(r.Cleared, ShouldBeTrue)
				So(r.From, ShouldEqual, 0)
				So(r.To, ShouldEqual, 2)
			})
		})

		Convey("When no boss falls", func() {
			r := pool.DetectStageClear(before, pool.FromTotal(950, bosses))
			So(r.Cleared, ShouldBeFalse)
		})
	})
}

func TestRecordDamage(t *testing.T) {
	Convey("Given the damage formula", t, func() {
		Convey("Then 150 at x2 is 300", func() {
			d, err := pool.RecordDamage(150, 2)
			So(err, ShouldBeNil)
			So(d, ShouldEqual, 300)
		})

		Convey("Then fractional results are floored", func() {
			d, err := pool.RecordDamage(72.5, 1.5)
			So(err, ShouldBeNil)
			So(d, ShouldEqual, 108)
		})

		Convey("Then negative scores are invalid", func() {
			_, err := pool.RecordDamage(-1, 2)
			So(errors.Is(err, model.ErrInvalidScore), ShouldBeTrue)
		})

		Convey("Then NaN scores are invalid", func() {
			_, err := pool.RecordDamage(math.NaN(), 2)
			So(errors.Is(err, model.ErrInvalidScore), ShouldBeTrue)
		})

		Convey("Then a negative multiplier is a configuration error", func() {
			_, err := pool.RecordDamage(10, -2)
			So(errors.Is(err, model.ErrConfiguration), ShouldBeTrue)
		})

		Convey("Then huge products saturate", func() {
			d, err := pool.RecordDamage(math.MaxFloat64/2, 4)
			So(err, ShouldBeNil)
			So(d, ShouldEqual, int64(math.MaxInt64))
		})
	})
}
