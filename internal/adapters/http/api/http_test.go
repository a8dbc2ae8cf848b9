package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/okian/stadu/internal/adapters/http/api"
	repository "github.com/okian/stadu/internal/adapters/repository"
	"github.com/okian/stadu/internal/domain/model"
	"github.com/okian/stadu/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

// mockDependencies records calls and returns canned values.
type mockDependencies struct {
	mu          sync.Mutex
	submitted   []model.EntryEvent
	events      []types.ProcessedEvent
	recentErr   error
	state       string
	connectErr  error
	connects    int
	disconnects int
}

func (m *mockDependencies) Snapshot(context.Context) types.Stadium {
	return types.FromStadium(model.NewStadiumState(20))
}

func (m *mockDependencies) Submit(_ context.Context, ev model.EntryEvent) types.ProcessedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitted = append(m.submitted, ev)
	return types.ProcessedEvent{
		ID:     fmt.Sprintf("ev-%d", len(m.submitted)),
		Event:  ev,
		Result: types.Result{Outcome: "SUCCESS", Sector: "NORTH", Block: "C", Distance: 10},
	}
}

func (m *mockDependencies) Recent(_ context.Context, limit int) ([]types.ProcessedEvent, error) {
	if m.recentErr != nil {
		return nil, m.recentErr
	}
	if limit > len(m.events) {
		return m.events, nil
	}
	return m.events[:limit], nil
}

func (m *mockDependencies) Event(_ context.Context, id string) (types.ProcessedEvent, error) {
	for _, e := range m.events {
		if e.ID == id {
			return e, nil
		}
	}
	return types.ProcessedEvent{}, repository.ErrNotFound
}

func (m *mockDependencies) Connection(context.Context) types.Connection {
	return types.Connection{State: m.state, IsConnected: m.state == "CONNECTED"}
}

func (m *mockDependencies) Connect(context.Context) error {
	if m.connectErr != nil {
		return m.connectErr
	}
	m.connects++
	m.state = "CONNECTING"
	return nil
}

func (m *mockDependencies) Disconnect(context.Context) error {
	m.disconnects++
	m.state = "DISCONNECTED"
	return nil
}

func (m *mockDependencies) GetStats(context.Context) types.Stats {
	return types.Stats{EventsProcessed: 7, ConnectionState: m.state}
}

func newMux(deps *mockDependencies) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, 500).Register(context.Background(), mux)
	return mux
}

func do(mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestServer_HealthAndMetrics(t *testing.T) {
	Convey("Given a registered server", t, func() {
		mux := newMux(&mockDependencies{state: "DISCONNECTED"})

		Convey("Then /healthz reports ok", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(strings.TrimSpace(w.Body.String()), ShouldEqual, `{"status":"ok"}`)
		})

		Convey("And /metrics exposes the custom registry", func() {
			_ = do(mux, http.MethodGet, "/healthz", "")
			w := do(mux, http.MethodGet, "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "stadu_admission_http_requests_total")
		})

		Convey("And /stats returns the provider's numbers", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var s types.Stats
			So(json.Unmarshal(w.Body.Bytes(), &s), ShouldBeNil)
			So(s.EventsProcessed, ShouldEqual, 7)
		})

		Convey("And wrong methods are refused", func() {
			w := do(mux, http.MethodPost, "/stadium", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestServer_Stadium(t *testing.T) {
	Convey("Given a registered server", t, func() {
		mux := newMux(&mockDependencies{})

		w := do(mux, http.MethodGet, "/stadium", "")
		So(w.Code, ShouldEqual, http.StatusOK)

		var st types.Stadium
		So(json.Unmarshal(w.Body.Bytes(), &st), ShouldBeNil)
		So(len(st.Sectors), ShouldEqual, 4)
		So(st.Sectors[0].Name, ShouldEqual, "NORTH")
		So(len(st.Sectors[0].Blocks), ShouldEqual, 3)
		So(st.TotalCapacity, ShouldEqual, 240)
	})
}

func TestServer_Entries(t *testing.T) {
	Convey("Given a registered server", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("When a valid entry is posted", func() {
			w := do(mux, http.MethodPost, "/entries", `{"type":"ENTRY","gate":"Gate A","shirtColor":"RED","extra":1}`)

			Convey("Then the decision is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var pe types.ProcessedEvent
				So(json.Unmarshal(w.Body.Bytes(), &pe), ShouldBeNil)
				So(pe.ID, ShouldEqual, "ev-1")
				So(pe.Result.Outcome, ShouldEqual, "SUCCESS")
				So(deps.submitted, ShouldHaveLength, 1)
				So(deps.submitted[0].Gate, ShouldEqual, "Gate A")
			})
		})

		Convey("When malformed JSON is posted", func() {
			w := do(mux, http.MethodPost, "/entries", `{"gate":`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(deps.submitted, ShouldBeEmpty)
		})

		Convey("When a field is missing", func() {
			w := do(mux, http.MethodPost, "/entries", `{"type":"ENTRY","gate":"Gate A"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(w.Body.String(), ShouldContainSubstring, "shirtColor")
		})
	})
}

func TestServer_Events(t *testing.T) {
	Convey("Given a server with history", t, func() {
		deps := &mockDependencies{}
		for i := 3; i >= 1; i-- {
			deps.events = append(deps.events, types.ProcessedEvent{ID: fmt.Sprintf("ev-%d", i)})
		}
		mux := newMux(deps)

		Convey("Then GET /events lists newest first", func() {
			w := do(mux, http.MethodGet, "/events", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var list []types.ProcessedEvent
			So(json.Unmarshal(w.Body.Bytes(), &list), ShouldBeNil)
			So(list, ShouldHaveLength, 3)
			So(list[0].ID, ShouldEqual, "ev-3")
		})

		Convey("And limit bounds the page", func() {
			w := do(mux, http.MethodGet, "/events?limit=2", "")
			var list []types.ProcessedEvent
			So(json.Unmarshal(w.Body.Bytes(), &list), ShouldBeNil)
			So(list, ShouldHaveLength, 2)
		})

		Convey("And bad limits are rejected", func() {
			for _, q := range []string{"0", "-1", "abc", "501"} {
				w := do(mux, http.MethodGet, "/events?limit="+q, "")
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			}
		})

		Convey("And a single event can be fetched", func() {
			w := do(mux, http.MethodGet, "/events/ev-2", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"id":"ev-2"`)
		})

		Convey("And an unknown event is a 404", func() {
			w := do(mux, http.MethodGet, "/events/nope", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("And store failures are a 500", func() {
			deps.recentErr = errors.New("boom")
			w := do(mux, http.MethodGet, "/events", "")
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
		})
	})
}

func TestServer_Connection(t *testing.T) {
	Convey("Given a disconnected feed", t, func() {
		deps := &mockDependencies{state: "DISCONNECTED"}
		mux := newMux(deps)

		Convey("Then GET /connection reports it", func() {
			w := do(mux, http.MethodGet, "/connection", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"state":"DISCONNECTED"`)
		})

		Convey("When connect is requested", func() {
			w := do(mux, http.MethodPost, "/connection/connect", "")
			So(w.Code, ShouldEqual, http.StatusAccepted)
			So(deps.connects, ShouldEqual, 1)
			So(w.Body.String(), ShouldContainSubstring, "CONNECTING")

			Convey("And disconnect afterwards", func() {
				w := do(mux, http.MethodPost, "/connection/disconnect", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.disconnects, ShouldEqual, 1)
				So(w.Body.String(), ShouldContainSubstring, "DISCONNECTED")
			})
		})

		Convey("When connect fails", func() {
			deps.connectErr = errors.New("no feed transport configured")
			w := do(mux, http.MethodPost, "/connection/connect", "")
			So(w.Code, ShouldEqual, http.StatusConflict)
			So(w.Body.String(), ShouldContainSubstring, "no feed")
		})
	})
}
