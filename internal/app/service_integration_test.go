package service_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/levelup/internal/adapters/eventlog"
	service "github.com/okian/levelup/internal/app"
	"github.com/okian/levelup/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestServiceIntegration(t *testing.T) {
	drivers := []struct {
		name string
		cfg  func(dir string) service.StoreConfig
	}{
		{"csv", func(dir string) service.StoreConfig {
			return service.StoreConfig{Driver: "csv", Path: filepath.Join(dir, "logs")}
		}},
		{"sqlite", func(dir string) service.StoreConfig {
			return service.StoreConfig{Driver: "sqlite", Path: filepath.Join(dir, "levelup.db")}
		}},
	}

	for _, d := range drivers {
		Convey(fmt.Sprintf("Given a service persisting to %s", d.name), t, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			cfg := d.cfg(t.TempDir())

			var stores []eventlog.Store
			Reset(func() {
				for _, st := range stores {
					_ = st.Close()
				}
			})
			// start reopens the store the way a new process would.
			start := func() *service.Service {
				for _, st := range stores {
					So(st.Close(), ShouldBeNil)
				}
				stores = nil
				store, err := service.OpenStore(ctx, cfg)
				So(err, ShouldBeNil)
				stores = append(stores, store)
				svc := newService(service.WithStore(store), service.WithStoreName(d.name), service.WithWorkerCount(1))
				So(svc.Start(ctx), ShouldBeNil)
				return svc
			}

			svc := start()

			Convey("When many submissions are recorded and the service restarts", func() {
				for i := 0; i < 20; i++ {
					_, err := svc.SubmitPoints(ctx, "alice", types.PointRequest{EventID: fmt.Sprintf("p%d", i)})
					So(err, ShouldBeNil)
				}
				_, err := svc.SubmitPoints(ctx, "bob", types.PointRequest{EventID: "b1", Amount: int64p(500)})
				So(err, ShouldBeNil)
				_, err = svc.SubmitDamage(ctx, "alice", types.DamageRequest{Source: "mock", RawScore: 700})
				So(err, ShouldBeNil)

				// Stop drains the queue.
				svc.Stop()
				restarted := start()
				defer restarted.Stop()

				Convey("Then the standings are rebuilt from the log", func() {
					top, err := restarted.TopN(ctx, 10)
					So(err, ShouldBeNil)
					So(len(top), ShouldEqual, 2)
					So(top[0].Subject, ShouldEqual, "bob")
					So(top[0].Level, ShouldEqual, 6)
					So(top[1].Subject, ShouldEqual, "alice")
					So(top[1].TotalPoints, ShouldEqual, 200)
					So(top[1].StagesCleared, ShouldEqual, 1)

					history, err := restarted.History(ctx, "alice")
					So(err, ShouldBeNil)
					So(len(history), ShouldEqual, 20)
					So(history[0].ID, ShouldEqual, "p0")
					So(history[19].ID, ShouldEqual, "p19")

					stats := restarted.GetStats()
					So(stats["store"], ShouldEqual, d.name)
					So(stats["subjects"], ShouldEqual, 2)
				})
			})

			Convey("When an event id is resubmitted after a restart", func() {
				first, err := svc.SubmitPoints(ctx, "alice", types.PointRequest{EventID: "evt-1"})
				So(err, ShouldBeNil)
				_, err = svc.SubmitDamage(ctx, "alice", types.DamageRequest{EventID: "dmg-1", Source: "mock", RawScore: 10})
				So(err, ShouldBeNil)
				svc.Stop()
				restarted := start()
				defer restarted.Stop()

				points, err := restarted.SubmitPoints(ctx, "alice", types.PointRequest{EventID: "evt-1"})
				So(err, ShouldBeNil)
				dmg, err := restarted.SubmitDamage(ctx, "alice", types.DamageRequest{EventID: "dmg-1", Source: "mock", RawScore: 10})
				So(err, ShouldBeNil)
				fresh, err := restarted.SubmitPoints(ctx, "alice", types.PointRequest{EventID: "evt-2"})
				So(err, ShouldBeNil)

				Convey("Then it is acknowledged as a duplicate and not appended again", func() {
					So(first.Status, ShouldEqual, types.StatusAccepted)
					So(points.Status, ShouldEqual, types.StatusDuplicate)
					So(dmg.Status, ShouldEqual, types.StatusDuplicate)
					So(fresh.Status, ShouldEqual, types.StatusAccepted)
					So(eventually(func() bool {
						h, _ := restarted.History(ctx, "alice")
						return len(h) == 2
					}), ShouldBeTrue)
					history, err := restarted.History(ctx, "alice")
					So(err, ShouldBeNil)
					So(history[0].ID, ShouldEqual, "evt-1")
					So(history[1].ID, ShouldEqual, "evt-2")
					hits, err := restarted.DamageHistory(ctx, "alice")
					So(err, ShouldBeNil)
					So(len(hits), ShouldEqual, 1)
				})
			})
		})
	}

	Convey("Given an unknown store driver", t, func() {
		_, err := service.OpenStore(context.Background(), service.StoreConfig{Driver: "tape"})

		Convey("Then OpenStore fails", func() {
			So(errors.Is(err, service.ErrUnknownDriver), ShouldBeTrue)
		})
	})
}
