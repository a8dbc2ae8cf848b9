// Package engine owns the canonical stadium state and serialises every
// admission decision against it.
//
// ProcessEvent is the only writer. It holds a single mutex for the whole
// decide-apply-publish sequence, so a check against a block's occupancy and the
// matching increment can never interleave with another event. Readers use
// Snapshot, which loads an immutable *model.StadiumState through an atomic
// pointer and never waits for a writer.
package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/stadu/internal/adapters/mq/queue"
	"github.com/okian/stadu/internal/domain/assignment"
	"github.com/okian/stadu/internal/domain/model"
	"github.com/okian/stadu/internal/domain/policy"
	"github.com/okian/stadu/pkg/logger"
	"github.com/okian/stadu/pkg/metrics"
)

const (
	defaultSubscriptionBuffer = 64
	subscriptionQueueName     = "engine_subscription"
)

// Engine is the stadium state machine.
type Engine struct {
	mu    sync.Mutex
	state atomic.Pointer[model.StadiumState]

	policy   *policy.Policy
	strategy assignment.Strategy
	now      func() time.Time
	newID    func() string

	subMu   sync.Mutex
	subs    map[*Subscription]struct{}
	updates chan *model.StadiumState

	logger logger.Logger
}

// New creates an engine with an empty stadium built from the configured policy.
func New(opts ...Option) *Engine {
	e := &Engine{
		policy:   policy.Default(),
		strategy: assignment.New(),
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
		subs:     make(map[*Subscription]struct{}),
		updates:  make(chan *model.StadiumState, 1),
		logger:   logger.Get().Named("engine"),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.state.Store(model.NewStadiumState(e.policy.BlockCapacity()))
	return e
}

// Snapshot returns the latest published state. The caller must not modify it.
func (e *Engine) Snapshot() *model.StadiumState {
	return e.state.Load()
}

// Policy returns the policy the engine was built with.
func (e *Engine) Policy() *policy.Policy { return e.policy }

// ProcessEvent decides ev against the current state, commits the outcome and
// returns the record of the decision. Concurrent callers are serialised.
func (e *Engine) ProcessEvent(ctx context.Context, ev model.EntryEvent) model.ProcessedEvent {
	start := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	cur := e.state.Load()
	result := e.strategy.Decide(cur, ev)
	next := e.apply(ctx, cur, result)
	e.state.Store(next)

	pe := model.ProcessedEvent{
		ID:        e.newID(),
		Event:     ev,
		Result:    result,
		Timestamp: e.now(),
	}

	// Publishing under the lock keeps subscribers in commit order; neither
	// path blocks.
	e.publish(ctx, pe, next)

	metrics.RecordEventProcessed(string(result.Outcome()))
	metrics.RecordDecisionLatency(float64(time.Since(start).Microseconds()) / 1000)

	e.logger.Debug(ctx, "event processed",
		logger.String("id", pe.ID),
		logger.String("gate", ev.Gate),
		logger.String("shirtColor", ev.ShirtColor),
		logger.String("outcome", string(result.Outcome())),
	)
	return pe
}

// apply returns the state that follows cur after result. cur is never modified.
func (e *Engine) apply(ctx context.Context, cur *model.StadiumState, result model.AssignmentResult) *model.StadiumState {
	next := *cur

	switch r := result.(type) {
	case model.Blocked:
		next.Metrics.TotalBlocked++
	case model.Rejected:
		next.Metrics.TotalRefused++
	case model.Success:
		if !r.Sector.Valid() || !r.Block.Valid() {
			e.logger.Error(ctx, "success result names an unknown block",
				logger.Int("sector", int(r.Sector)),
				logger.Int("block", int(r.Block)),
			)
			metrics.RecordErrorByComponent("engine", "unknown_block")
			return cur
		}

		blk := next.Sectors[r.Sector].Blocks[r.Block]
		blk.Occupants++
		blk.AccumulatedDistance += r.Distance
		blk.AssignmentCount++
		blk.Blocked = blk.Blocked || e.policy.ShouldLock(blk.Occupants, blk.Capacity)
		next.Sectors[r.Sector].Blocks[r.Block] = blk

		n := next.Metrics.TotalAdmitted
		next.Metrics.AverageDistanceGlobal = (next.Metrics.AverageDistanceGlobal*float64(n) + float64(r.Distance)) / float64(n+1)
		next.Metrics.TotalAdmitted = n + 1

		metrics.RecordAdmission(r.Sector.String(), r.Block.String(), r.Distance)
		if blk.Blocked && !cur.Sectors[r.Sector].Blocks[r.Block].Blocked {
			e.logger.Info(ctx, "block locked",
				logger.String("sector", r.Sector.String()),
				logger.String("block", r.Block.String()),
				logger.Int("occupants", blk.Occupants),
			)
		}
	}
	return &next
}

func (e *Engine) publish(ctx context.Context, pe model.ProcessedEvent, next *model.StadiumState) {
	// Single-slot latest value: replace whatever the reader has not taken yet.
	select {
	case <-e.updates:
	default:
	}
	select {
	case e.updates <- next:
	default:
	}

	e.subMu.Lock()
	for s := range e.subs {
		s.events.Enqueue(ctx, pe)
	}
	e.subMu.Unlock()
}

// Updates returns a channel that always holds at most the newest snapshot.
// There is a single slot; several readers compete for it.
func (e *Engine) Updates() <-chan *model.StadiumState {
	return e.updates
}

// Subscribe registers a new observer of processed events. A subscriber that
// falls behind by more than buffer events loses the oldest ones.
func (e *Engine) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = defaultSubscriptionBuffer
	}
	s := &Subscription{
		engine: e,
		events: queue.NewRing[model.ProcessedEvent](
			queue.WithCapacity(buffer),
			queue.WithName(subscriptionQueueName),
		),
	}

	e.subMu.Lock()
	e.subs[s] = struct{}{}
	e.subMu.Unlock()
	return s
}

func (e *Engine) unsubscribe(s *Subscription) {
	e.subMu.Lock()
	delete(e.subs, s)
	e.subMu.Unlock()
}

// Subscription is a bounded, drop-oldest stream of ProcessedEvents.
type Subscription struct {
	engine *Engine
	events *queue.Ring[model.ProcessedEvent]
}

// Next blocks until the next event, ctx cancellation or Close.
func (s *Subscription) Next(ctx context.Context) (model.ProcessedEvent, error) {
	return s.events.Dequeue(ctx)
}

// Dropped returns how many events this subscriber lost to overflow.
func (s *Subscription) Dropped() uint64 { return s.events.Dropped() }

// Close detaches the subscription. Events already buffered can still be read.
func (s *Subscription) Close() error {
	s.engine.unsubscribe(s)
	return s.events.Close()
}
