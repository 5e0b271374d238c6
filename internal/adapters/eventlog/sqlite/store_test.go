package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/okian/levelup/internal/adapters/eventlog"
	"github.com/okian/levelup/internal/adapters/eventlog/eventlogtest"
	"github.com/okian/levelup/internal/adapters/eventlog/sqlite"
	. "github.com/smartystreets/goconvey/convey"
)

func open(t *testing.T, path string) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return store
}

func TestStore(t *testing.T) {
	eventlogtest.Run(t, "sqlite", func() eventlog.Store {
		return open(t, filepath.Join(t.TempDir(), "events.db"))
	})
}

func TestStore_Reopen(t *testing.T) {
	Convey("Given events written to a database file", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "events.db")
		store := open(t, path)
		So(store.AppendPoint(ctx, "alice", eventlogtest.Point("p1", 0, 10, "")), ShouldBeNil)
		So(store.AppendDamage(ctx, "carol", eventlogtest.Hit("d1", 0, 1.25, 2)), ShouldBeNil)
		So(store.Close(), ShouldBeNil)

		Convey("When the file is opened again", func() {
			again := open(t, path)
			defer func() { _ = again.Close() }()

			Convey("Then migrations are not reapplied and data survives", func() {
				points, err := again.Points(ctx, "alice")
				So(err, ShouldBeNil)
				So(len(points), ShouldEqual, 1)
				subjects, err := again.Subjects(ctx)
				So(err, ShouldBeNil)
				So(subjects, ShouldResemble, []string{"alice", "carol"})
			})
		})

		Convey("When the closed store is used", func() {
			_, err := store.Points(ctx, "alice")

			Convey("Then ErrClosed is returned", func() {
				So(errors.Is(err, eventlog.ErrClosed), ShouldBeTrue)
				So(store.Close(), ShouldBeNil)
			})
		})
	})

	Convey("Given an empty path", t, func() {
		_, err := sqlite.Open(context.Background(), " ")

		Convey("Then Open fails", func() {
			So(err, ShouldNotBeNil)
		})
	})
}
