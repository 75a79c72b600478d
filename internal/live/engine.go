// Package live simulates a push feed of increasing star counts. Each entity
// with at least one subscriber gets its own emission loop; the loop starts
// with the first subscriber and is torn down with the last.
package live

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultMinDelay = 100 * time.Millisecond
	DefaultMaxDelay = 1000 * time.Millisecond
	DefaultMinStep  = 1
	DefaultMaxStep  = 3
)

// ErrClosed is returned by Subscribe once the engine has been closed.
var ErrClosed = errors.New("live: engine closed")

// Subscriber receives every value emitted for the entity it subscribed to.
// It runs on the entity's loop goroutine and should return quickly.
type Subscriber func(value int)

// Clock schedules the wait before each tick.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Engine owns every feed and serializes all bookkeeping behind one mutex.
type Engine struct {
	mu     sync.Mutex
	feeds  map[int64]*feed
	closed bool
	wg     sync.WaitGroup

	clock    Clock
	minDelay time.Duration
	maxDelay time.Duration
	minStep  int
	maxStep  int

	rngMu sync.Mutex
	rng   *rand.Rand

	l *zap.Logger
}

type feed struct {
	entityID    int64
	subscribers map[uuid.UUID]Subscriber
	ctx         context.Context
	cancel      context.CancelFunc
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithDelay sets the inclusive range of the random wait between ticks.
func WithDelay(lo, hi time.Duration) Option {
	return func(e *Engine) {
		if hi < lo {
			lo, hi = hi, lo
		}
		e.minDelay, e.maxDelay = lo, hi
	}
}

// WithStep sets the inclusive range of the random increment per tick.
func WithStep(lo, hi int) Option {
	return func(e *Engine) {
		if hi < lo {
			lo, hi = hi, lo
		}
		e.minStep, e.maxStep = lo, hi
	}
}

// WithRand sets the random source used for delays and steps.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.l = l }
}

// NewEngine creates an engine with no active feeds.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		feeds:    make(map[int64]*feed),
		clock:    realClock{},
		minDelay: DefaultMinDelay,
		maxDelay: DefaultMaxDelay,
		minStep:  DefaultMinStep,
		maxStep:  DefaultMaxStep,
		l:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return e
}

// Subscribe registers fn for entityID. The first subscriber of an entity
// starts its loop from initial; later subscribers join the running loop and
// only see values emitted after they joined.
func (e *Engine) Subscribe(entityID int64, initial int, fn Subscriber) (*Subscription, error) {
	if fn == nil {
		return nil, errors.New("live: nil subscriber")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, ErrClosed
	}

	f, ok := e.feeds[entityID]
	if !ok {
		ctx, cancel := context.WithCancel(context.Background())
		f = &feed{
			entityID:    entityID,
			subscribers: make(map[uuid.UUID]Subscriber),
			ctx:         ctx,
			cancel:      cancel,
		}
		e.feeds[entityID] = f
		e.wg.Add(1)
		go e.run(f, initial)
		e.l.Debug("feed started", zap.Int64("entity_id", entityID), zap.Int("seed", initial))
	}

	id := uuid.New()
	f.subscribers[id] = fn

	return &Subscription{engine: e, feed: f, id: id}, nil
}

// Subscribers returns the number of live subscriptions for entityID.
func (e *Engine) Subscribers(entityID int64) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if f, ok := e.feeds[entityID]; ok {
		return len(f.subscribers)
	}
	return 0
}

// ActiveFeeds returns the number of entities with a running loop.
func (e *Engine) ActiveFeeds() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.feeds)
}

// Close stops every loop and waits for them to exit.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	for id, f := range e.feeds {
		f.cancel()
		delete(e.feeds, id)
	}
	e.mu.Unlock()

	e.wg.Wait()
}

func (e *Engine) remove(f *feed, id uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := f.subscribers[id]; !ok {
		return
	}
	delete(f.subscribers, id)
	if len(f.subscribers) > 0 {
		return
	}

	f.cancel()
	if e.feeds[f.entityID] == f {
		delete(e.feeds, f.entityID)
	}
	e.l.Debug("feed stopped", zap.Int64("entity_id", f.entityID))
}

func (e *Engine) run(f *feed, value int) {
	defer e.wg.Done()

	for {
		select {
		case <-f.ctx.Done():
			return
		case <-e.clock.After(e.nextDelay()):
		}

		value += e.nextStep()

		ids, ok := e.snapshot(f)
		if !ok {
			return
		}
		for _, id := range ids {
			fn, ok := e.lookup(f, id)
			if !ok {
				continue
			}
			fn(value)
		}
	}
}

// snapshot lists the feed's subscriptions, or reports false once teardown
// has started.
func (e *Engine) snapshot(f *feed) ([]uuid.UUID, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if f.ctx.Err() != nil {
		return nil, false
	}
	out := make([]uuid.UUID, 0, len(f.subscribers))
	for id := range f.subscribers {
		out = append(out, id)
	}
	return out, true
}

// lookup returns the callback for id if it is still subscribed.
func (e *Engine) lookup(f *feed, id uuid.UUID) (Subscriber, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn, ok := f.subscribers[id]
	return fn, ok
}

func (e *Engine) nextDelay() time.Duration {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.minDelay + time.Duration(e.rng.Int63n(int64(e.maxDelay-e.minDelay)+1))
}

func (e *Engine) nextStep() int {
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return e.minStep + e.rng.Intn(e.maxStep-e.minStep+1)
}

// Subscription is the caller's handle on one registration.
type Subscription struct {
	engine *Engine
	feed   *feed
	id     uuid.UUID
	once   sync.Once
}

// EntityID returns the entity the subscription listens to.
func (s *Subscription) EntityID() int64 {
	return s.feed.entityID
}

// Cancel removes the subscription. Calling it more than once is a no-op.
// Once Cancel returns no new delivery starts; a callback already running
// on the feed goroutine finishes.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.engine.remove(s.feed, s.id)
	})
}
