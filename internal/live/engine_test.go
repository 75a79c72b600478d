package live

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualClock hands out one shared channel; every send releases exactly one
// waiting loop.
type manualClock struct {
	ticks chan time.Time
}

func newManualClock() *manualClock {
	return &manualClock{ticks: make(chan time.Time)}
}

func (c *manualClock) After(time.Duration) <-chan time.Time { return c.ticks }

// tick releases a waiting loop and fails the test if none is waiting.
func (c *manualClock) tick(t *testing.T) {
	t.Helper()
	select {
	case c.ticks <- time.Now():
	case <-time.After(time.Second):
		t.Fatal("no emission loop waiting for a tick")
	}
}

// idle reports whether no loop picked up a tick within d.
func (c *manualClock) idle(d time.Duration) bool {
	select {
	case c.ticks <- time.Now():
		return false
	case <-time.After(d):
		return true
	}
}

func recv(t *testing.T, ch <-chan int) int {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for an emitted value")
		return 0
	}
}

// waitLoops blocks until every emission loop of e has returned. Only valid
// while no new subscription is being made.
func waitLoops(t *testing.T, e *Engine) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("emission loop did not exit")
	}
}

func newTestEngine(t *testing.T, clock Clock) *Engine {
	t.Helper()
	e := NewEngine(WithClock(clock), WithStep(2, 2))
	t.Cleanup(e.Close)
	return e
}

func TestSubscribe_FirstTick(t *testing.T) {
	clock := newManualClock()
	e := newTestEngine(t, clock)

	got := make(chan int, 1)
	_, err := e.Subscribe(42, 100, func(v int) { got <- v })
	require.NoError(t, err)

	clock.tick(t)
	assert.Equal(t, 102, recv(t, got))

	clock.tick(t)
	assert.Equal(t, 104, recv(t, got))
}

func TestSubscribe_SharedFeed(t *testing.T) {
	clock := newManualClock()
	e := newTestEngine(t, clock)

	first := make(chan int, 4)
	second := make(chan int, 4)

	_, err := e.Subscribe(42, 100, func(v int) { first <- v })
	require.NoError(t, err)
	_, err = e.Subscribe(42, 5000, func(v int) { second <- v })
	require.NoError(t, err)

	assert.Equal(t, 1, e.ActiveFeeds())
	assert.Equal(t, 2, e.Subscribers(42))

	clock.tick(t)
	assert.Equal(t, 102, recv(t, first))
	assert.Equal(t, 102, recv(t, second), "a later seed must not restart a running feed")
}

func TestSubscribe_LateJoinerSeesOnlyFutureValues(t *testing.T) {
	clock := newManualClock()
	e := newTestEngine(t, clock)

	first := make(chan int, 4)
	_, err := e.Subscribe(7, 10, func(v int) { first <- v })
	require.NoError(t, err)

	clock.tick(t)
	require.Equal(t, 12, recv(t, first))

	late := make(chan int, 4)
	_, err = e.Subscribe(7, 0, func(v int) { late <- v })
	require.NoError(t, err)
	assert.Empty(t, late)

	clock.tick(t)
	assert.Equal(t, 14, recv(t, first))
	assert.Equal(t, 14, recv(t, late))
}

func TestCancel_LastSubscriberStopsFeed(t *testing.T) {
	clock := newManualClock()
	e := newTestEngine(t, clock)

	var calls atomic.Int32
	sub, err := e.Subscribe(42, 100, func(int) { calls.Add(1) })
	require.NoError(t, err)

	sub.Cancel()

	assert.Equal(t, 0, e.ActiveFeeds())
	assert.Equal(t, 0, e.Subscribers(42))

	waitLoops(t, e)
	assert.True(t, clock.idle(50*time.Millisecond), "loop still waiting for ticks after teardown")
	assert.Zero(t, calls.Load())
}

func TestCancel_Idempotent(t *testing.T) {
	clock := newManualClock()
	e := newTestEngine(t, clock)

	a, err := e.Subscribe(42, 100, func(int) {})
	require.NoError(t, err)
	_, err = e.Subscribe(42, 100, func(int) {})
	require.NoError(t, err)

	a.Cancel()
	a.Cancel()

	assert.Equal(t, 1, e.Subscribers(42))
	assert.Equal(t, 1, e.ActiveFeeds())
	assert.Equal(t, int64(42), a.EntityID())
}

func TestCancel_OnlyRemovesOwnSubscription(t *testing.T) {
	clock := newManualClock()
	e := newTestEngine(t, clock)

	var dropped atomic.Int32
	kept := make(chan int, 1)

	a, err := e.Subscribe(42, 100, func(int) { dropped.Add(1) })
	require.NoError(t, err)
	_, err = e.Subscribe(42, 100, func(v int) { kept <- v })
	require.NoError(t, err)

	a.Cancel()
	clock.tick(t)

	assert.Equal(t, 102, recv(t, kept))
	assert.Zero(t, dropped.Load())
}

func TestCancel_SkipsPendingDeliveryInSameTick(t *testing.T) {
	clock := newManualClock()
	e := newTestEngine(t, clock)

	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	var once sync.Once
	_, err := e.Subscribe(42, 100, func(int) {
		once.Do(func() {
			entered <- struct{}{}
			<-release
		})
	})
	require.NoError(t, err)

	var calls atomic.Int32
	other, err := e.Subscribe(42, 100, func(int) { calls.Add(1) })
	require.NoError(t, err)

	clock.tick(t)
	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("first subscriber never called")
	}

	// The loop is parked inside the first callback, so the other one has
	// either run already or not started.
	before := calls.Load()
	other.Cancel()
	close(release)

	// A second tick is only taken once the first round of deliveries is over.
	clock.tick(t)
	assert.Equal(t, before, calls.Load())
}

func TestResubscribe_ResetsCounter(t *testing.T) {
	clock := newManualClock()
	e := newTestEngine(t, clock)

	got := make(chan int, 4)
	sub, err := e.Subscribe(42, 100, func(v int) { got <- v })
	require.NoError(t, err)

	clock.tick(t)
	require.Equal(t, 102, recv(t, got))
	sub.Cancel()

	waitLoops(t, e)

	_, err = e.Subscribe(42, 500, func(v int) { got <- v })
	require.NoError(t, err)

	clock.tick(t)
	assert.Equal(t, 502, recv(t, got))
}

func TestEntitiesAreIndependent(t *testing.T) {
	clock := newManualClock()
	e := newTestEngine(t, clock)

	a := make(chan int, 4)
	b := make(chan int, 4)
	subA, err := e.Subscribe(1, 10, func(v int) { a <- v })
	require.NoError(t, err)
	_, err = e.Subscribe(2, 20, func(v int) { b <- v })
	require.NoError(t, err)

	assert.Equal(t, 2, e.ActiveFeeds())

	subA.Cancel()
	assert.Equal(t, 1, e.ActiveFeeds())
	assert.Equal(t, 1, e.Subscribers(2))
}

func TestClose(t *testing.T) {
	clock := newManualClock()
	e := NewEngine(WithClock(clock))

	_, err := e.Subscribe(1, 0, func(int) {})
	require.NoError(t, err)
	_, err = e.Subscribe(2, 0, func(int) {})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		e.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not wait for loops to exit")
	}

	assert.Equal(t, 0, e.ActiveFeeds())
	_, err = e.Subscribe(3, 0, func(int) {})
	assert.ErrorIs(t, err, ErrClosed)

	e.Close()
}

func TestSubscribe_NilSubscriber(t *testing.T) {
	e := newTestEngine(t, newManualClock())
	_, err := e.Subscribe(1, 0, nil)
	assert.Error(t, err)
	assert.Equal(t, 0, e.ActiveFeeds())
}

func TestRealClock_ValuesIncreaseWithinStepRange(t *testing.T) {
	e := NewEngine(WithDelay(time.Millisecond, 2*time.Millisecond))
	defer e.Close()

	var mu sync.Mutex
	var values []int
	sub, err := e.Subscribe(9, 50, func(v int) {
		mu.Lock()
		values = append(values, v)
		mu.Unlock()
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(values) >= 5
	}, 2*time.Second, 5*time.Millisecond)
	sub.Cancel()

	mu.Lock()
	defer mu.Unlock()
	prev := 50
	for _, v := range values {
		step := v - prev
		assert.GreaterOrEqual(t, step, DefaultMinStep)
		assert.LessOrEqual(t, step, DefaultMaxStep)
		prev = v
	}
}

func TestConcurrentSubscribeCancel(t *testing.T) {
	e := NewEngine(WithDelay(time.Millisecond, time.Millisecond))
	defer e.Close()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				sub, err := e.Subscribe(int64(i%4), j, func(int) {})
				if err != nil {
					t.Error(err)
					return
				}
				sub.Cancel()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, e.ActiveFeeds())
	for id := int64(0); id < 4; id++ {
		assert.Equal(t, 0, e.Subscribers(id))
	}
}

func TestOptions_SwapInvertedRanges(t *testing.T) {
	e := NewEngine(WithDelay(time.Second, time.Millisecond), WithStep(5, 2))
	defer e.Close()

	assert.Equal(t, time.Millisecond, e.minDelay)
	assert.Equal(t, time.Second, e.maxDelay)
	assert.Equal(t, 2, e.minStep)
	assert.Equal(t, 5, e.maxStep)
}
