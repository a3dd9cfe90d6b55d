package rowstore_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/wildforest/ticketsync/internal/adapters/rowstore"
	"github.com/wildforest/ticketsync/internal/domain/ticket"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSQLiteGrid(t *testing.T) {
	Convey("Given a SQLite grid in a temp dir", t, func() {
		path := filepath.Join(t.TempDir(), "tickets.db")
		grid, err := rowstore.OpenSQLiteGrid(path, "客服記錄")
		So(err, ShouldBeNil)
		defer grid.Close()
		ctx := context.Background()

		Convey("When the sheet is empty", func() {
			rows, err := grid.Values(ctx)
			h, herr := grid.Header(ctx)

			Convey("Then values and header should be empty", func() {
				So(err, ShouldBeNil)
				So(herr, ShouldBeNil)
				So(len(rows), ShouldEqual, 0)
				So(len(h), ShouldEqual, 0)
			})
		})

		Convey("When seeding the demo rows", func() {
			demo := rowstore.DemoRows(ticket.DefaultColumns())
			So(grid.Seed(ctx, demo), ShouldBeNil)

			Convey("Then values should round-trip", func() {
				rows, err := grid.Values(ctx)
				So(err, ShouldBeNil)
				So(rows, ShouldResemble, demo)
			})

			Convey("And seeding again should not duplicate rows", func() {
				So(grid.Seed(ctx, demo), ShouldBeNil)
				rows, err := grid.Values(ctx)
				So(err, ShouldBeNil)
				So(len(rows), ShouldEqual, len(demo))
			})

			Convey("And a cell update should touch only that cell", func() {
				So(grid.SetCell(ctx, 4, 3, "已完成"), ShouldBeNil)
				rows, err := grid.Values(ctx)
				So(err, ShouldBeNil)
				So(rows[3][3], ShouldEqual, "已完成")
				So(rows[3][0], ShouldEqual, "TK003")
			})

			Convey("And writing past the last row should be rejected", func() {
				err := grid.SetCell(ctx, 10, 0, "x")
				So(errors.Is(err, ticket.ErrRemoteRejected), ShouldBeTrue)
			})

			Convey("And the client should read tickets through it", func() {
				res, err := newClient(grid).ReadAll(ctx)
				So(err, ShouldBeNil)
				So(len(res.Tickets), ShouldEqual, 3)
				So(res.Tickets[2].Status, ShouldEqual, "未讀")
			})
		})

		Convey("When another sheet in the same file has rows", func() {
			other, err := rowstore.OpenSQLiteGrid(path, "other")
			So(err, ShouldBeNil)
			defer other.Close()
			So(other.Append(ctx, []string{"x"}), ShouldBeNil)

			Convey("Then sheets should stay isolated", func() {
				rows, err := grid.Values(ctx)
				So(err, ShouldBeNil)
				So(len(rows), ShouldEqual, 0)
			})
		})
	})
}
