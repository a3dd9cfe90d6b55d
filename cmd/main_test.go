package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/wildforest/ticketsync/internal/adapters/rowstore"
	app "github.com/wildforest/ticketsync/internal/app"
	"github.com/wildforest/ticketsync/internal/config"
	"github.com/wildforest/ticketsync/internal/domain/ticket"
	"github.com/wildforest/ticketsync/pkg/logger"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestOpenGrid(t *testing.T) {
	convey.Convey("Given the default configuration", t, func() {
		ctx := context.Background()
		cfg := config.New()
		cols := ticket.DefaultColumns()

		convey.Convey("When the memory backend seeds demo tickets", func() {
			grid, closer, err := openGrid(ctx, cfg, cols, logger.Discard())

			convey.Convey("Then the sheet should hold the header and three tickets", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(closer, convey.ShouldBeNil)
				rows, err := grid.Values(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(rows), convey.ShouldEqual, 4)
				convey.So(rows[0], convey.ShouldResemble, cols.Headers())
			})
		})

		convey.Convey("When demo seeding is off", func() {
			cfg.SeedDemo = false
			grid, _, err := openGrid(ctx, cfg, cols, logger.Discard())

			convey.Convey("Then the sheet should start empty", func() {
				convey.So(err, convey.ShouldBeNil)
				rows, err := grid.Values(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(rows), convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When the sqlite backend is opened twice", func() {
			cfg.Backend = config.BackendSQLite
			cfg.SQLite.Path = filepath.Join(t.TempDir(), "tickets.db")

			first, _, err := openGrid(ctx, cfg, cols, logger.Discard())
			convey.So(err, convey.ShouldBeNil)
			convey.So(first.(*rowstore.SQLiteGrid).Close(), convey.ShouldBeNil)

			second, _, err := openGrid(ctx, cfg, cols, logger.Discard())
			convey.So(err, convey.ShouldBeNil)
			defer second.(*rowstore.SQLiteGrid).Close()

			convey.Convey("Then the demo tickets should be seeded only once", func() {
				rows, err := second.Values(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(rows), convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When the redis backend is selected", func() {
			cfg.Backend = config.BackendRedis
			grid, closer, err := openGrid(ctx, cfg, cols, logger.Discard())

			convey.Convey("Then a grid and a client closer should be returned without dialing", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(grid, convey.ShouldHaveSameTypeAs, &rowstore.RedisGrid{})
				convey.So(closer, convey.ShouldNotBeNil)
				convey.So(closer.Close(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the backend is unknown", func() {
			cfg.Backend = "ftp"
			_, _, err := openGrid(ctx, cfg, cols, logger.Discard())

			convey.Convey("Then an error should be returned", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "ftp")
			})
		})
	})
}

func TestNewMux(t *testing.T) {
	convey.Convey("Given a started service behind the full mux", t, func() {
		ctx := context.Background()
		svc := app.New(
			app.WithGrid(rowstore.NewMemoryGrid(rowstore.DemoRows(ticket.DefaultColumns())...)),
			app.WithLogger(logger.Discard()),
		)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()
		mux := newMux(ctx, svc)

		get := func(path string) *httptest.ResponseRecorder {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			return rec
		}

		convey.Convey("Then the API, docs and UI should all be reachable", func() {
			convey.So(get("/healthz").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/api/tickets").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/openapi.yaml").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/api-docs").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/").Code, convey.ShouldEqual, http.StatusOK)
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the background metrics updaters", t, func() {
		svc := app.New(app.WithGrid(rowstore.NewMemoryGrid()), app.WithLogger(logger.Discard()))
		convey.So(svc.Start(context.Background()), convey.ShouldBeNil)
		defer svc.Stop()

		convey.Convey("Then single updates should not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
		})

		convey.Convey("Then the loops should return once the context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
			convey.So(func() { startServiceMetricsUpdater(ctx, svc) }, convey.ShouldNotPanic)
		})
	})
}
