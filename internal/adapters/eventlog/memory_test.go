package eventlog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/levelup/internal/adapters/eventlog"
	"github.com/okian/levelup/internal/adapters/eventlog/eventlogtest"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemoryStore(t *testing.T) {
	eventlogtest.Run(t, "memory", func() eventlog.Store { return eventlog.NewMemoryStore() })
}

func TestMemoryStore_Close(t *testing.T) {
	Convey("Given a closed memory store", t, func() {
		store := eventlog.NewMemoryStore()
		So(store.Close(), ShouldBeNil)

		Convey("Then writes fail with ErrClosed", func() {
			err := store.AppendPoint(context.Background(), "alice", eventlogtest.Point("p", 0, 1, ""))
			So(errors.Is(err, eventlog.ErrClosed), ShouldBeTrue)
		})
	})

	Convey("Given a read result", t, func() {
		store := eventlog.NewMemoryStore()
		ctx := context.Background()
		_ = store.AppendPoint(ctx, "alice", eventlogtest.Point("p", 0, 1, ""))

		Convey("Then mutating it does not change the log", func() {
			got, _ := store.Points(ctx, "alice")
			got[0].Amount = 999
			again, _ := store.Points(ctx, "alice")
			So(again[0].Amount, ShouldEqual, 1)
		})
	})
}
