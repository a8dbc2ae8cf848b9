package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	service "github.com/okian/stadu/internal/app"
	"github.com/okian/stadu/internal/domain/model"
	"github.com/okian/stadu/internal/domain/policy"
	"github.com/okian/stadu/internal/ingest"
	"github.com/okian/stadu/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// scriptedConn replays messages and then blocks until closed.
type scriptedConn struct {
	msgs   chan []byte
	closed chan struct{}
	once   sync.Once
}

func (c *scriptedConn) ReadMessage() ([]byte, error) {
	select {
	case m := <-c.msgs:
		return m, nil
	case <-c.closed:
		return nil, ingest.ErrConnClosed
	}
}

func (c *scriptedConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func feed(msgs ...string) ingest.Transport {
	return ingest.TransportFunc(func(context.Context) (ingest.Conn, error) {
		c := &scriptedConn{msgs: make(chan []byte, len(msgs)), closed: make(chan struct{})}
		for _, m := range msgs {
			c.msgs <- []byte(m)
		}
		return c, nil
	})
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return false
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		ctx := context.Background()
		svc := service.New()

		Convey("Then the stadium is empty with default capacity", func() {
			st := svc.Snapshot(ctx)
			So(st.TotalCapacity, ShouldEqual, 240)
			So(st.TotalOccupants, ShouldEqual, 0)
			So(len(st.Sectors), ShouldEqual, 4)
		})

		Convey("And the feed is disconnected and cannot connect", func() {
			So(svc.Connection(ctx).State, ShouldEqual, "DISCONNECTED")
			So(errors.Is(svc.Connect(ctx), service.ErrNoFeed), ShouldBeTrue)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(8),
			service.WithEventBufferSize(128),
			service.WithEventLogSize(10),
			service.WithPolicy(policy.New(policy.WithBlockCapacity(10))),
		)

		Convey("Then the options take effect", func() {
			stats := svc.GetStats(context.Background())
			So(stats.Workers, ShouldEqual, 8)
			So(stats.BlockCapacity, ShouldEqual, 10)
			So(svc.Snapshot(context.Background()).TotalCapacity, ShouldEqual, 120)
		})
	})
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := service.New()
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When it is started again nothing changes", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Stop(ctx), ShouldBeNil)
		})

		Convey("When it is stopped it cannot be restarted", func() {
			So(svc.Stop(ctx), ShouldBeNil)
			So(svc.Stop(ctx), ShouldBeNil)
			So(errors.Is(svc.Start(ctx), service.ErrStopped), ShouldBeTrue)
		})
	})
}

func TestService_Submit(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithEventLogSize(5))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When a red shirt is submitted at Gate A", func() {
			pe := svc.Submit(ctx, model.EntryEvent{Type: "ENTRY", Gate: "Gate A", ShirtColor: "RED"})

			Convey("Then it is seated in North C", func() {
				So(pe.ID, ShouldNotBeEmpty)
				So(pe.Result.Outcome, ShouldEqual, "SUCCESS")
				So(pe.Result.Sector, ShouldEqual, "NORTH")
				So(pe.Result.Block, ShouldEqual, "C")
				So(pe.Result.Distance, ShouldEqual, 10)
				So(svc.Snapshot(ctx).Metrics.TotalAdmitted, ShouldEqual, 1)
			})

			Convey("And it shows up in the event log", func() {
				So(eventually(func() bool {
					list, err := svc.Recent(ctx, 10)
					return err == nil && len(list) == 1
				}), ShouldBeTrue)
				got, err := svc.Event(ctx, pe.ID)
				So(err, ShouldBeNil)
				So(got.ID, ShouldEqual, pe.ID)
			})
		})

		Convey("When more events than the log holds are submitted", func() {
			var last string
			for i := 0; i < 8; i++ {
				last = svc.Submit(ctx, model.EntryEvent{Type: "ENTRY", Gate: "Gate B", ShirtColor: "multicolor"}).ID
			}

			Convey("Then only the newest are retained, newest first", func() {
				So(eventually(func() bool {
					list, err := svc.Recent(ctx, 100)
					return err == nil && len(list) == 5 && list[0].ID == last
				}), ShouldBeTrue)
				So(svc.Snapshot(ctx).Metrics.TotalBlocked, ShouldEqual, 8)
			})
		})

		Convey("When the limit is invalid an error is returned", func() {
			_, err := svc.Recent(ctx, 0)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestService_Feed(t *testing.T) {
	Convey("Given a service fed by a scripted transport", t, func() {
		ctx := context.Background()
		svc := service.New(
			service.WithTransport(feed(
				`{"type":"ENTRY","gate":"Gate A","shirtColor":"RED"}`,
				`{"type":"ENTRY","gate":"Gate B","shirtColor":"BLUE"}`,
				`not json at all`,
				`{"type":"ENTRY","gate":"Gate C","shirtColor":"MULTICOLOR"}`,
			)),
			service.WithAutoConnect(true),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("Then every valid message is decided", func() {
			So(eventually(func() bool { return svc.Snapshot(ctx).Metrics.TotalAdmitted == 2 }), ShouldBeTrue)
			So(eventually(func() bool { return svc.Snapshot(ctx).Metrics.TotalBlocked == 1 }), ShouldBeTrue)
			So(svc.Connection(ctx).IsConnected, ShouldBeTrue)
			So(svc.Connection(ctx).Error, ShouldBeEmpty)

			stats := svc.GetStats(ctx)
			So(stats.EventsProcessed, ShouldEqual, 3)
			So(stats.ConnectionState, ShouldEqual, "CONNECTED")
		})

		Convey("When the feed is disconnected", func() {
			So(svc.Disconnect(ctx), ShouldBeNil)
			So(svc.Connection(ctx).State, ShouldEqual, "DISCONNECTED")

			Convey("Then it can be connected again", func() {
				So(svc.Connect(ctx), ShouldBeNil)
				So(eventually(func() bool { return svc.Connection(ctx).IsConnected }), ShouldBeTrue)
			})
		})
	})

	Convey("Given a feed that keeps failing", t, func() {
		ctx := context.Background()
		svc := service.New(
			service.WithTransport(ingest.TransportFunc(func(context.Context) (ingest.Conn, error) {
				return nil, errors.New("refused")
			})),
			service.WithBackoff(ingest.Backoff{Initial: time.Hour, Factor: 2, Max: time.Hour}),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()
		So(svc.Connect(ctx), ShouldBeNil)

		Convey("Then the connection view reports the error", func() {
			So(eventually(func() bool { return svc.Connection(ctx).State == "RECONNECTING" }), ShouldBeTrue)
			c := svc.Connection(ctx)
			So(c.IsConnecting, ShouldBeTrue)
			So(c.Error, ShouldEqual, "Connection Error")
			So(c.Attempt, ShouldEqual, 1)
		})
	})
}
