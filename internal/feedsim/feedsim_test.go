package feedsim

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/stadu/internal/ingest"
	"github.com/okian/stadu/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

func TestScenario(t *testing.T) {
	Convey("Given the default scenario", t, func() {
		s := DefaultScenario()

		Convey("It is valid and paces at its rate", func() {
			So(s.Validate(), ShouldBeNil)
			So(s.Interval(), ShouldEqual, 200*time.Millisecond)
		})
	})

	Convey("Given YAML overriding some fields", t, func() {
		s, err := ParseScenario([]byte("rate: 50\ncount: 10\ncolors:\n  - {value: BLUE, weight: 1}\n"))

		Convey("Overrides apply and the rest keeps defaults", func() {
			So(err, ShouldBeNil)
			So(s.Rate, ShouldEqual, 50)
			So(s.Count, ShouldEqual, 10)
			So(s.Colors, ShouldHaveLength, 1)
			So(s.Gates, ShouldResemble, DefaultScenario().Gates)
		})
	})

	Convey("Given invalid scenarios", t, func() {
		cases := []string{
			"rate: 0\n",
			"count: -1\n",
			"gates: []\n",
			"colors:\n  - {value: RED, weight: 0}\n",
			"gates:\n  - {value: Gate A, weight: -2}\n",
			"rate: [oops\n",
		}
		for _, c := range cases {
			_, err := ParseScenario([]byte(c))
			So(errors.Is(err, ErrInvalidScenario), ShouldBeTrue)
		}
	})

	Convey("Given a scenario file", t, func() {
		path := filepath.Join(t.TempDir(), "scenario.yaml")
		So(os.WriteFile(path, []byte("rate: 20\nseed: 7\n"), 0o600), ShouldBeNil)

		s, err := LoadScenario(path)
		So(err, ShouldBeNil)
		So(s.Seed, ShouldEqual, 7)

		_, err = LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
		So(err, ShouldNotBeNil)
	})
}

func TestGenerator(t *testing.T) {
	Convey("Given two generators with the same seed", t, func() {
		s := DefaultScenario()
		s.Seed = 42
		a, b := NewGenerator(s), NewGenerator(s)

		Convey("They draw the same stream", func() {
			for i := 0; i < 50; i++ {
				So(a.Next(), ShouldResemble, b.Next())
			}
			So(a.Generated(), ShouldEqual, 50)
		})
	})

	Convey("Given zero-weight entries", t, func() {
		s := DefaultScenario()
		s.Seed = 1
		s.Gates = []Weighted{{Value: "Gate A", Weight: 1}, {Value: "Gate B", Weight: 0}}
		s.Colors = []Weighted{{Value: "BLUE", Weight: 0}, {Value: "RED", Weight: 1}}
		g := NewGenerator(s)

		Convey("They are never drawn", func() {
			for i := 0; i < 100; i++ {
				ev := g.Next()
				So(ev.Type, ShouldEqual, "ENTRY")
				So(ev.Gate, ShouldEqual, "Gate A")
				So(ev.ShirtColor, ShouldEqual, "RED")
			}
		})
	})

	Convey("Given payloads", t, func() {
		s := DefaultScenario()
		s.MalformedEvery = 3
		g := NewGenerator(s)

		Convey("They decode, except every third one", func() {
			for i := 1; i <= 9; i++ {
				ev, err := ingest.DecodeEntryEvent(g.NextPayload())
				if i%3 == 0 {
					So(errors.Is(err, ingest.ErrDecode), ShouldBeTrue)
					continue
				}
				So(err, ShouldBeNil)
				So(ev.Type, ShouldEqual, "ENTRY")
			}
		})

		Convey("Extra fields are present on the wire", func() {
			var m Message
			So(json.Unmarshal(g.NextPayload(), &m), ShouldBeNil)
			So(m.ID, ShouldNotBeEmpty)
			So(m.SentAt, ShouldBeGreaterThan, 0)
		})
	})
}

func dial(srv *httptest.Server) (*websocket.Conn, error) {
	c, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	return c, err
}

func waitClients(s *Server, n int) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.ClientCount() == n {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestServer(t *testing.T) {
	Convey("Given a feed limited to five events", t, func() {
		sc := DefaultScenario()
		sc.Rate = 200
		sc.Count = 5
		sc.Seed = 3
		feed := NewServer(sc)
		srv := httptest.NewServer(feed.Handler())
		defer srv.Close()

		a, err := dial(srv)
		So(err, ShouldBeNil)
		defer a.Close()
		b, err := dial(srv)
		So(err, ShouldBeNil)
		defer b.Close()
		So(waitClients(feed, 2), ShouldBeTrue)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		So(feed.Run(ctx), ShouldBeNil)

		Convey("Every client receives every event, then a going-away close", func() {
			for _, c := range []*websocket.Conn{a, b} {
				_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
				for i := 0; i < 5; i++ {
					_, data, err := c.ReadMessage()
					So(err, ShouldBeNil)
					_, err = ingest.DecodeEntryEvent(data)
					So(err, ShouldBeNil)
				}
				_, _, err := c.ReadMessage()
				So(websocket.IsCloseError(err, websocket.CloseGoingAway), ShouldBeTrue)
			}
			So(feed.Sent(), ShouldEqual, 5)
			So(feed.ClientCount(), ShouldEqual, 0)
		})
	})

	Convey("Given a connected client that hangs up", t, func() {
		feed := NewServer(DefaultScenario())
		srv := httptest.NewServer(feed.Handler())
		defer srv.Close()

		c, err := dial(srv)
		So(err, ShouldBeNil)
		So(waitClients(feed, 1), ShouldBeTrue)
		_ = c.Close()

		Convey("It is removed", func() {
			So(waitClients(feed, 0), ShouldBeTrue)
		})
	})

	Convey("Given a running feed with no clients", t, func() {
		sc := DefaultScenario()
		sc.Rate = 500
		feed := NewServer(sc)
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		Convey("Nothing is sent and Run returns on cancel", func() {
			So(feed.Run(ctx), ShouldBeNil)
			So(feed.Sent(), ShouldEqual, 0)
		})
	})
}
