package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/wildforest/ticketsync/internal/adapters/rowstore"
	service "github.com/wildforest/ticketsync/internal/app"
	"github.com/wildforest/ticketsync/internal/domain/ticket"
	"github.com/wildforest/ticketsync/internal/domain/view"
	"github.com/wildforest/ticketsync/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)}
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func startService(grid rowstore.Grid, c *clock, opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithGrid(grid),
		service.WithClock(c.now),
		service.WithCacheTTL(time.Minute),
		service.WithLogger(logger.Discard()),
	}
	svc := service.New(append(base, opts...)...)
	if err := svc.Start(context.Background()); err != nil {
		panic(err)
	}
	return svc
}

func demoGrid() *rowstore.MemoryGrid {
	return rowstore.NewMemoryGrid(rowstore.DemoRows(ticket.DefaultColumns())...)
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a service without a grid", t, func() {
		svc := service.New(service.WithLogger(logger.Discard()))

		Convey("Then Start should refuse to run", func() {
			So(errors.Is(svc.Start(context.Background()), service.ErrNoGrid), ShouldBeTrue)
		})

		Convey("And sessions should not be handed out", func() {
			_, _, err := svc.Session("")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})
	})

	Convey("Given a started service", t, func() {
		svc := startService(demoGrid(), newClock(), service.WithBackendName("memory"))

		Convey("Then stats should report it as started", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, true)
			So(stats["backend"], ShouldEqual, "memory")
			So(stats["sessions"], ShouldEqual, 0)
		})

		Convey("When stopping it", func() {
			svc.Stop()

			Convey("Then it should be marked as stopped", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
			})

			Convey("And stopping twice should be harmless", func() {
				So(func() { svc.Stop() }, ShouldNotPanic)
			})
		})
	})
}

func TestService_TinyIdleTimeout(t *testing.T) {
	Convey("Given a service whose sessions expire after a nanosecond", t, func() {
		svc := service.New(
			service.WithGrid(demoGrid()),
			service.WithSessionIdleTimeout(time.Nanosecond),
			service.WithLogger(logger.Discard()),
		)

		Convey("Then starting it should not panic", func() {
			var err error
			So(func() { err = svc.Start(context.Background()) }, ShouldNotPanic)
			So(err, ShouldBeNil)
			svc.Stop()
		})
	})
}

func TestService_Sessions(t *testing.T) {
	Convey("Given a service limited to two sessions", t, func() {
		c := newClock()
		svc := startService(demoGrid(), c,
			service.WithMaxSessions(2),
			service.WithSessionIdleTimeout(10*time.Minute),
		)
		defer svc.Stop()

		first, created, err := svc.Session("")
		So(err, ShouldBeNil)
		So(created, ShouldBeTrue)
		So(first.ID(), ShouldNotBeEmpty)

		Convey("When the session id is presented again", func() {
			again, created, err := svc.Session(first.ID())

			Convey("Then the same session should be returned", func() {
				So(err, ShouldBeNil)
				So(created, ShouldBeFalse)
				So(again, ShouldEqual, first)
			})
		})

		Convey("When an unknown id is presented", func() {
			sess, created, err := svc.Session("not-a-session")

			Convey("Then a new session should be created under a fresh id", func() {
				So(err, ShouldBeNil)
				So(created, ShouldBeTrue)
				So(sess.ID(), ShouldNotEqual, "not-a-session")
			})
		})

		Convey("When more sessions are opened than the limit", func() {
			second, _, _ := svc.Session("")
			_, _, _ = svc.Session(second.ID())
			_, _, _ = svc.Session("")

			Convey("Then the least recently used session should be evicted", func() {
				_, created, _ := svc.Session(first.ID())
				So(created, ShouldBeTrue)
				So(svc.GetStats()["sessions"], ShouldEqual, 2)
			})
		})

		Convey("When a session sits idle past the timeout", func() {
			c.advance(11 * time.Minute)
			sess, created, _ := svc.Session(first.ID())

			Convey("Then it should be replaced", func() {
				So(created, ShouldBeTrue)
				So(sess.ID(), ShouldNotEqual, first.ID())
			})
		})

		Convey("When a session is ended", func() {
			svc.EndSession(first.ID())

			Convey("Then its id should no longer resolve", func() {
				_, created, _ := svc.Session(first.ID())
				So(created, ShouldBeTrue)
			})
		})
	})

	Convey("Given two sessions over one sheet", t, func() {
		c := newClock()
		svc := startService(demoGrid(), c)
		defer svc.Stop()
		ctx := context.Background()

		alice, _, _ := svc.Session("")
		bob, _, _ := svc.Session("")

		before, err := alice.List(ctx, view.Filter{})
		So(err, ShouldBeNil)
		So(before.Total, ShouldEqual, 3)

		Convey("When one session creates a ticket", func() {
			_, err := bob.Create(ctx, service.CreateInput{TicketID: "TK100", CustomerName: "Bob"})
			So(err, ShouldBeNil)

			Convey("Then it should see the ticket at once", func() {
				l, err := bob.List(ctx, view.Filter{})
				So(err, ShouldBeNil)
				So(l.Total, ShouldEqual, 4)
			})

			Convey("And the other session should keep its snapshot until its TTL expires", func() {
				l, _ := alice.List(ctx, view.Filter{})
				So(l.Total, ShouldEqual, 3)

				c.advance(61 * time.Second)
				l, _ = alice.List(ctx, view.Filter{})
				So(l.Total, ShouldEqual, 4)
			})
		})
	})
}

func TestService_SharedEmptySheet(t *testing.T) {
	Convey("Given several sessions over an empty sheet", t, func() {
		grid := rowstore.NewMemoryGrid()
		svc := startService(grid, newClock())
		defer svc.Stop()
		ctx := context.Background()

		Convey("When each creates its first ticket at once", func() {
			var wg sync.WaitGroup
			errs := make([]error, 4)
			for i := range errs {
				sess, _, err := svc.Session("")
				So(err, ShouldBeNil)
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, errs[i] = sess.Create(ctx, service.CreateInput{
						TicketID:     "TK50" + string(rune('0'+i)),
						CustomerName: "Walk-in",
					})
				}(i)
			}
			wg.Wait()

			Convey("Then the header row should be written once", func() {
				for _, err := range errs {
					So(err, ShouldBeNil)
				}
				rows := grid.Rows()
				So(len(rows), ShouldEqual, 5)
				So(rows[0], ShouldResemble, ticket.DefaultColumns().Headers())
				for _, row := range rows[1:] {
					So(row[0], ShouldStartWith, "TK50")
				}
			})
		})
	})
}

func TestSession_List(t *testing.T) {
	Convey("Given a session over the demo sheet", t, func() {
		c := newClock()
		grid := demoGrid()
		svc := startService(grid, c)
		defer svc.Stop()
		sess, _, _ := svc.Session("")
		ctx := context.Background()

		Convey("When listing with a status filter", func() {
			l, err := sess.List(ctx, view.NewFilter([]string{"已完成", "未讀"}, nil))

			Convey("Then only matching tickets should be returned in sheet order", func() {
				So(err, ShouldBeNil)
				So(len(l.Tickets), ShouldEqual, 2)
				So(l.Tickets[0].ID, ShouldEqual, "TK002")
				So(l.Tickets[1].ID, ShouldEqual, "TK003")
			})

			Convey("And metrics should describe the filtered tickets", func() {
				So(l.Metrics.Total, ShouldEqual, 2)
				So(l.Metrics.Count(ticket.KindCompleted), ShouldEqual, 1)
				So(l.Metrics.Count(ticket.KindInProgress), ShouldEqual, 0)
			})

			Convey("And options should come from every ticket", func() {
				So(l.Options.Statuses, ShouldResemble, []string{"處理中", "已完成", "未讀"})
				So(l.Options.Staff, ShouldResemble, []string{"師傄斯", "太郎", "久美"})
				So(l.Total, ShouldEqual, 3)
			})
		})

		Convey("When the sheet goes down before anything is cached", func() {
			grid.SetFailure(ticket.WrapKind("test", ticket.ErrRemoteUnavailable, errors.New("offline")))
			_, err := sess.List(ctx, view.Filter{})

			Convey("Then the failure should be reported as unavailable", func() {
				So(errors.Is(err, ticket.ErrRemoteUnavailable), ShouldBeTrue)
			})
		})

		Convey("When the sheet goes down after a successful read", func() {
			_, err := sess.List(ctx, view.Filter{})
			So(err, ShouldBeNil)
			grid.SetFailure(ticket.WrapKind("test", ticket.ErrRemoteUnavailable, errors.New("offline")))
			c.advance(2 * time.Minute)
			l, err := sess.List(ctx, view.Filter{})

			Convey("Then the last snapshot should be served as stale", func() {
				So(err, ShouldBeNil)
				So(l.Stale, ShouldBeTrue)
				So(l.Total, ShouldEqual, 3)
			})
		})
	})
}
