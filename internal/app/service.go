// Package service wires the admission engine, the feed pipeline, the
// consumer pool and the event log into the dependency set the HTTP API needs.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	workerpool "github.com/okian/stadu/internal/adapters/mq/worker"
	repository "github.com/okian/stadu/internal/adapters/repository"
	"github.com/okian/stadu/internal/domain/engine"
	"github.com/okian/stadu/internal/domain/model"
	"github.com/okian/stadu/internal/domain/policy"
	"github.com/okian/stadu/internal/domain/types"
	"github.com/okian/stadu/internal/ingest"
	"github.com/okian/stadu/pkg/logger"
	"github.com/okian/stadu/pkg/metrics"
)

const (
	defaultWorkerCount = 2
	defaultBufferSize  = 64
	stopTimeout        = 10 * time.Second
)

// Service implements the API dependencies for the admission system.
type Service struct {
	mu sync.RWMutex

	// Core components
	policy   *policy.Policy
	engine   *engine.Engine
	pipeline *ingest.Pipeline
	pool     *workerpool.Pool
	events   *repository.EventLog

	// Configuration
	workerCount  int
	bufferSize   int
	eventLogSize int
	backoff      ingest.Backoff
	transport    ingest.Transport
	feedURL      string
	autoConnect  bool

	// State
	started   bool
	stopped   bool
	startedAt time.Time
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	logger logger.Logger
}

// New constructs a Service. Components exist immediately; Start launches the
// background loops.
func New(opts ...Option) *Service {
	s := &Service{
		policy:       policy.Default(),
		workerCount:  defaultWorkerCount,
		bufferSize:   defaultBufferSize,
		eventLogSize: repository.DefaultCapacity,
		backoff:      ingest.DefaultBackoff(),
		logger:       logger.Get(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.engine = engine.New(
		engine.WithPolicy(s.policy),
		engine.WithLogger(s.logger.Named("engine")),
	)
	s.events = repository.NewEventLog(repository.WithCapacity(s.eventLogSize))

	transport := s.transport
	if transport == nil {
		transport = ingest.TransportFunc(func(context.Context) (ingest.Conn, error) { return nil, ErrNoFeed })
	}
	s.pipeline = ingest.New(transport,
		ingest.WithBackoff(s.backoff),
		ingest.WithBufferSize(s.bufferSize),
		ingest.WithLogger(s.logger.Named("ingest")),
	)
	s.pool = workerpool.NewPool(s.workerCount, s.pipeline.Events(), s.engine)

	s.exportState(s.engine.Snapshot())
	return s
}

// Start launches the consumer pool and observers, and connects when
// auto-connect is on.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrStopped
	}
	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting admission service...")

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	// Subscribe before any worker runs so the log sees every decision.
	sub := s.engine.Subscribe(s.eventLogSize)
	s.wg.Add(2)
	go s.record(runCtx, sub)
	go s.watchState(runCtx)

	s.pool.Start(runCtx)

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "admission service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("bufferSize", s.bufferSize),
		logger.Int("eventLogSize", s.eventLogSize),
		logger.Int("blockCapacity", s.policy.BlockCapacity()),
		logger.Float64("lockThreshold", s.policy.LockThreshold()),
		logger.String("feedURL", s.feedURL),
	)

	if s.autoConnect && s.transport != nil {
		if err := s.pipeline.Connect(ctx); err != nil {
			return fmt.Errorf("connect feed: %w", err)
		}
	}
	return nil
}

// Stop disconnects the feed, drains the buffer and stops the observers.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || s.stopped {
		return nil
	}
	s.logger.Info(ctx, "stopping admission service...")

	stopCtx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()

	var errs []error
	if err := s.pipeline.Disconnect(stopCtx); err != nil {
		errs = append(errs, err)
	}
	// Closes the event buffer; workers drain it before exiting.
	if err := s.pool.Shutdown(stopCtx); err != nil {
		errs = append(errs, err)
	}

	s.cancel()
	s.wg.Wait()

	s.started = false
	s.stopped = true
	s.logger.Info(ctx, "admission service stopped")
	return errors.Join(errs...)
}

// record appends every committed decision to the event log in commit order.
func (s *Service) record(ctx context.Context, sub *engine.Subscription) {
	defer s.wg.Done()
	defer func() { _ = sub.Close() }()
	for {
		pe, err := sub.Next(ctx)
		if err != nil {
			return
		}
		s.events.Append(ctx, pe)
	}
}

// watchState exports gauges for the newest snapshot.
func (s *Service) watchState(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case st := <-s.engine.Updates():
			s.exportState(st)
		}
	}
}

func (s *Service) exportState(st *model.StadiumState) {
	for _, sec := range st.Sectors {
		for _, b := range sec.Blocks {
			metrics.UpdateBlock(sec.Name.String(), b.Name.String(), b.Occupants, b.Blocked)
		}
	}
	if c := st.TotalCapacity(); c > 0 {
		metrics.UpdateStadiumOccupancy(float64(st.TotalOccupants()) / float64(c))
	}
	metrics.UpdateAverageDistance(st.Metrics.AverageDistanceGlobal)
}

// Submit decides ev immediately and returns the record.
func (s *Service) Submit(ctx context.Context, ev model.EntryEvent) types.ProcessedEvent {
	return types.FromProcessed(s.engine.ProcessEvent(ctx, ev))
}

// Snapshot returns the current stadium view.
func (s *Service) Snapshot(_ context.Context) types.Stadium {
	return types.FromStadium(s.engine.Snapshot())
}

// Recent returns up to limit processed events, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]types.ProcessedEvent, error) {
	list, err := s.events.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	return types.FromProcessedList(list), nil
}

// Event returns a retained processed event by id.
func (s *Service) Event(ctx context.Context, id string) (types.ProcessedEvent, error) {
	pe, err := s.events.Get(ctx, id)
	if err != nil {
		return types.ProcessedEvent{}, err
	}
	return types.FromProcessed(pe), nil
}

// Connection returns the feed status.
func (s *Service) Connection(_ context.Context) types.Connection {
	st := s.pipeline.State()
	v := types.Connection{
		State:        st.String(),
		IsConnecting: st == ingest.Connecting || st == ingest.Reconnecting,
		IsConnected:  st == ingest.Connected,
		Attempt:      s.pipeline.Attempt(),
		URL:          s.feedURL,
	}
	if st == ingest.Error || (st == ingest.Reconnecting && s.pipeline.LastError() != nil) {
		v.Error = types.ConnectionErrorMessage
	}
	return v
}

// Connect starts the feed.
func (s *Service) Connect(ctx context.Context) error {
	if s.transport == nil {
		return ErrNoFeed
	}
	s.mu.RLock()
	stopped := s.stopped
	s.mu.RUnlock()
	if stopped {
		return ErrStopped
	}
	return s.pipeline.Connect(ctx)
}

// Disconnect stops the feed until Connect is called again.
func (s *Service) Disconnect(ctx context.Context) error {
	return s.pipeline.Disconnect(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) types.Stats {
	s.mu.RLock()
	startedAt := s.startedAt
	s.mu.RUnlock()

	st := s.engine.Snapshot()
	locked := 0
	for _, sec := range st.Sectors {
		for _, b := range sec.Blocks {
			if b.Blocked {
				locked++
			}
		}
	}

	stats := types.Stats{
		EventsProcessed: int64(st.Metrics.Processed()),
		EventsRetained:  s.events.Count(ctx),
		EventsBuffered:  s.pipeline.Events().Len(ctx),
		EventsDropped:   s.pipeline.Events().Dropped(),
		Workers:         s.pool.Size(),
		ConnectionState: s.pipeline.State().String(),
		LockedBlocks:    locked,
		BlockCapacity:   s.policy.BlockCapacity(),
		LockThreshold:   s.policy.LockThreshold(),
	}
	if c := st.TotalCapacity(); c > 0 {
		stats.StadiumOccupancy = float64(st.TotalOccupants()) / float64(c)
	}
	if !startedAt.IsZero() {
		stats.UptimeSeconds = time.Since(startedAt).Seconds()
	}
	return stats
}
