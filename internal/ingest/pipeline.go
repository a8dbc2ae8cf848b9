// Package ingest keeps a connection to the entry-event feed alive and hands
// decoded events to the consumer through a bounded drop-oldest buffer.
//
// A Pipeline runs one session goroutine at a time. Each session carries a
// generation number; every state change is published under p.mu only when the
// session's generation is still current. Disconnect bumps the generation and
// cancels the session context under the same lock, so a session that was
// sleeping in backoff or finishing a dial can never publish CONNECTING or
// CONNECTED afterwards.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/stadu/internal/adapters/mq/queue"
	"github.com/okian/stadu/internal/domain/model"
	"github.com/okian/stadu/pkg/logger"
	"github.com/okian/stadu/pkg/metrics"
)

const (
	defaultBufferSize = 64
	eventsQueueName   = "ingest_events"
)

// Pipeline is the connection state machine.
type Pipeline struct {
	transport  Transport
	backoff    Backoff
	bufferSize int
	events     *queue.Ring[model.EntryEvent]

	mu       sync.Mutex
	state    ConnectionState
	gen      uint64
	attempt  int
	cancel   context.CancelFunc
	conn     Conn
	done     chan struct{}
	lastErr  error
	watchers map[chan ConnectionState]struct{}

	logger logger.Logger
}

// New creates a disconnected pipeline over t.
func New(t Transport, opts ...Option) *Pipeline {
	p := &Pipeline{
		transport:  t,
		backoff:    DefaultBackoff(),
		bufferSize: defaultBufferSize,
		state:      Disconnected,
		watchers:   make(map[chan ConnectionState]struct{}),
		logger:     logger.Get().Named("ingest"),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.events = queue.NewRing[model.EntryEvent](
		queue.WithCapacity(p.bufferSize),
		queue.WithName(eventsQueueName),
	)
	metrics.UpdateConnectionState(int(p.state), p.state.String())
	return p
}

// Events is the buffer decoded events are delivered to.
func (p *Pipeline) Events() *queue.Ring[model.EntryEvent] { return p.events }

// Backoff returns the reconnection schedule in use.
func (p *Pipeline) Backoff() Backoff { return p.backoff }

// State returns the current connection state.
func (p *Pipeline) State() ConnectionState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Attempt returns the number of consecutive failed cycles since the last
// successful connection.
func (p *Pipeline) Attempt() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.attempt
}

// LastError returns the failure that caused the most recent ERROR state, if any.
func (p *Pipeline) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// WatchState returns a channel holding the latest state, starting with the
// current one. It has a single slot: a slow reader skips intermediate states.
// The channel is closed when ctx is done.
func (p *Pipeline) WatchState(ctx context.Context) <-chan ConnectionState {
	ch := make(chan ConnectionState, 1)

	p.mu.Lock()
	ch <- p.state
	p.watchers[ch] = struct{}{}
	p.mu.Unlock()

	go func() {
		<-ctx.Done()
		p.mu.Lock()
		delete(p.watchers, ch)
		close(ch)
		p.mu.Unlock()
	}()
	return ch
}

// Connect starts a session unless one is already connecting or connected.
// From ERROR or RECONNECTING it abandons the pending wait and dials now.
func (p *Pipeline) Connect(ctx context.Context) error {
	p.mu.Lock()
	if p.state.Active() {
		p.mu.Unlock()
		return nil
	}
	prevDone := p.stopLocked()

	sessionCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p.gen++
	gen := p.gen
	p.cancel = cancel
	done := make(chan struct{})
	p.done = done
	p.setStateLocked(ctx, Connecting)
	p.mu.Unlock()

	go p.run(sessionCtx, gen, prevDone, done)
	return nil
}

// Disconnect cancels any pending reconnect, closes the stream and stays
// DISCONNECTED until Connect is called again. It waits for the session
// goroutine to exit or ctx to end.
func (p *Pipeline) Disconnect(ctx context.Context) error {
	p.mu.Lock()
	done := p.stopLocked()
	p.attempt = 0
	p.lastErr = nil
	if p.state != Disconnected {
		p.setStateLocked(ctx, Disconnected)
	}
	p.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("disconnect: %w", ctx.Err())
	}
}

// Close disconnects and closes the event buffer.
func (p *Pipeline) Close(ctx context.Context) error {
	err := p.Disconnect(ctx)
	if cerr := p.events.Close(); err == nil {
		err = cerr
	}
	return err
}

// stopLocked invalidates the current session and returns its done channel.
func (p *Pipeline) stopLocked() chan struct{} {
	p.gen++
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
	done := p.done
	p.done = nil
	return done
}

func (p *Pipeline) setStateLocked(ctx context.Context, s ConnectionState) {
	if p.state == s {
		return
	}
	prev := p.state
	p.state = s
	for ch := range p.watchers {
		select {
		case <-ch:
		default:
		}
		ch <- s
	}
	metrics.UpdateConnectionState(int(s), s.String())
	p.logger.Info(ctx, "connection state changed",
		logger.String("from", prev.String()),
		logger.String("to", s.String()),
		logger.Int("attempt", p.attempt),
	)
}

// transition publishes s if gen is still the live session.
func (p *Pipeline) transition(ctx context.Context, gen uint64, s ConnectionState) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gen != gen || ctx.Err() != nil {
		return false
	}
	p.setStateLocked(ctx, s)
	return true
}

func (p *Pipeline) connected(ctx context.Context, gen uint64, conn Conn) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gen != gen || ctx.Err() != nil {
		return false
	}
	p.conn = conn
	p.attempt = 0
	p.lastErr = nil
	p.setStateLocked(ctx, Connected)
	return true
}

// failed records the end of a cycle and returns the delay before the next one.
func (p *Pipeline) failed(ctx context.Context, gen uint64, conn Conn, err error) (time.Duration, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gen != gen || ctx.Err() != nil {
		return 0, false
	}
	if conn != nil && p.conn == conn {
		p.conn = nil
	}

	if errors.Is(err, ErrConnClosed) {
		p.setStateLocked(ctx, Disconnected)
	} else {
		p.lastErr = err
		p.setStateLocked(ctx, Error)
	}

	delay := p.backoff.Delay(p.attempt)
	p.attempt++
	p.setStateLocked(ctx, Reconnecting)
	return delay, true
}

func (p *Pipeline) run(ctx context.Context, gen uint64, prevDone, done chan struct{}) {
	defer close(done)
	if prevDone != nil {
		// Let the previous session finish tearing down first.
		select {
		case <-prevDone:
		case <-ctx.Done():
			return
		}
	}

	first := true
	for {
		if !first && !p.transition(ctx, gen, Connecting) {
			return
		}
		first = false

		conn, err := p.transport.Dial(ctx)
		if err == nil {
			if !p.connected(ctx, gen, conn) {
				_ = conn.Close()
				return
			}
			err = p.readLoop(ctx, conn)
			_ = conn.Close()
		} else {
			metrics.RecordErrorByComponent("ingest", "dial")
			p.logger.Warn(ctx, "dial failed", logger.Error(err))
		}

		delay, ok := p.failed(ctx, gen, conn, err)
		if !ok {
			return
		}
		metrics.RecordReconnect(float64(delay.Milliseconds()))
		p.logger.Info(ctx, "reconnect scheduled", logger.Duration("delay", delay))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// readLoop forwards messages until the stream ends.
func (p *Pipeline) readLoop(ctx context.Context, conn Conn) error {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		metrics.RecordMessageReceived()

		ev, err := DecodeEntryEvent(data)
		if err != nil {
			metrics.RecordDecodeError()
			p.logger.Warn(ctx, "dropping malformed message",
				logger.String("payload", truncate(data, 256)),
				logger.Error(err),
			)
			continue
		}
		p.events.Enqueue(ctx, ev)
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
