package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/okian/stadu/internal/feedsim"
	"github.com/okian/stadu/pkg/logger"
)

const (
	defaultAddr     = ":8081"
	shutdownTimeout = 5 * time.Second
)

type options struct {
	addr      string
	path      string
	scenario  string
	rate      float64
	count     int
	seed      uint64
	malformed int
	logFormat string
	verbose   bool
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var o options
	flagSet := pflag.NewFlagSet("feed-sim", pflag.ContinueOnError)
	flagSet.StringVar(&o.addr, "addr", defaultAddr, "listen address")
	flagSet.StringVar(&o.path, "path", "/ws", "WebSocket endpoint path")
	flagSet.StringVarP(&o.scenario, "scenario", "s", "", "YAML scenario file (default: built-in mix)")
	flagSet.Float64VarP(&o.rate, "rate", "r", 0, "events per second, overrides the scenario")
	flagSet.IntVarP(&o.count, "count", "n", 0, "stop after this many events, overrides the scenario (0 = forever)")
	flagSet.Uint64Var(&o.seed, "seed", 0, "random seed, overrides the scenario")
	flagSet.IntVar(&o.malformed, "malformed-every", 0, "send a broken payload every n events")
	flagSet.StringVar(&o.logFormat, "log-format", "text", "log format: text or json")
	flagSet.BoolVarP(&o.verbose, "verbose", "v", false, "enable debug logging")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	sc, err := buildScenario(flagSet, o)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.WithFormat(o.logFormat)); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	if o.verbose {
		_ = logger.SetLevelString("debug")
	}
	log := logger.Get().Named("feed-sim")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	feed := feedsim.NewServer(sc, feedsim.WithLogger(log))
	mux := http.NewServeMux()
	mux.Handle("GET "+o.path, feed.Handler())

	srv := &http.Server{Addr: o.addr, Handler: mux, ReadHeaderTimeout: shutdownTimeout}
	go func() {
		log.Info(ctx, "feed simulator listening", logger.String("addr", o.addr), logger.String("path", o.path))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "listen failed", logger.Error(err))
			stop()
		}
	}()

	if err := feed.Run(ctx); err != nil {
		log.Error(ctx, "feed failed", logger.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildScenario loads the scenario file, if any, and applies only the flags
// that were set on the command line.
func buildScenario(flagSet *pflag.FlagSet, o options) (feedsim.Scenario, error) {
	sc := feedsim.DefaultScenario()
	if o.scenario != "" {
		loaded, err := feedsim.LoadScenario(o.scenario)
		if err != nil {
			return feedsim.Scenario{}, err
		}
		sc = loaded
	}
	if flagSet.Changed("rate") {
		sc.Rate = o.rate
	}
	if flagSet.Changed("count") {
		sc.Count = o.count
	}
	if flagSet.Changed("seed") {
		sc.Seed = o.seed
	}
	if flagSet.Changed("malformed-every") {
		sc.MalformedEvery = o.malformed
	}
	if err := sc.Validate(); err != nil {
		return feedsim.Scenario{}, err
	}
	return sc, nil
}
