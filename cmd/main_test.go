package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/okian/stadu/internal/adapters/http/api"
	"github.com/okian/stadu/internal/config"
	"github.com/okian/stadu/internal/domain/model"
	"github.com/okian/stadu/pkg/logger"
	"github.com/okian/stadu/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When configuration comes from the environment", func() {
			_ = os.Setenv("STADU_ADDR", ":8080")
			_ = os.Setenv("STADU_WORKER_COUNT", "4")
			_ = os.Setenv("STADU_BLOCK_CAPACITY", "10")
			defer func() {
				_ = os.Unsetenv("STADU_ADDR")
				_ = os.Unsetenv("STADU_WORKER_COUNT")
				_ = os.Unsetenv("STADU_BLOCK_CAPACITY")
			}()

			convey.Convey("Then it loads and maps onto the service", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)

				svc := newService(cfg, logger.Get())
				stats := svc.GetStats(context.Background())
				convey.So(stats.Workers, convey.ShouldEqual, 4)
				convey.So(stats.BlockCapacity, convey.ShouldEqual, 10)
				convey.So(svc.Snapshot(context.Background()).TotalCapacity, convey.ShouldEqual, 120)
			})
		})

		convey.Convey("When the address is empty", func() {
			_ = os.Setenv("STADU_ADDR", "")
			defer func() { _ = os.Unsetenv("STADU_ADDR") }()

			convey.Convey("Then configuration loading fails", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When testing metrics initialization", func() {
			manager := metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))
			convey.So(manager, convey.ShouldNotBeNil)
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When the system metrics updater runs until cancel", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()

			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
		})

		convey.Convey("When system metrics are updated directly", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})
	})
}

func TestMainApplicationIntegration(t *testing.T) {
	convey.Convey("Given a service built from defaults with auto-connect off", t, func() {
		cfg := config.New(context.Background())
		cfg.AutoConnect = false
		cfg.FeedURL = "ws://127.0.0.1:1/ws"

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		svc := newService(cfg, logger.Get())
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		mux := http.NewServeMux()
		api.NewServer(svc, cfg.EventLogSize).Register(ctx, mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		convey.Convey("Then the HTTP surface answers", func() {
			for _, path := range []string{"/healthz", "/stadium", "/events", "/connection", "/stats"} {
				resp, err := http.Get(srv.URL + path)
				convey.So(err, convey.ShouldBeNil)
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
				_ = resp.Body.Close()
			}
		})

		convey.Convey("Then a submitted entry is decided", func() {
			pe := svc.Submit(ctx, model.EntryEvent{Type: "ENTRY", Gate: "Gate A", ShirtColor: "RED"})
			convey.So(pe.Result.Outcome, convey.ShouldEqual, "SUCCESS")
			convey.So(pe.Result.Sector, convey.ShouldEqual, "NORTH")
		})
	})
}
