package live

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type manualClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	at      time.Duration
	f       func()
	pending bool
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now + d, f: f, pending: true}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := t.pending
	t.pending = false
	return was
}

// Advance moves time forward and runs every timer that came due, in order.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*manualTimer
	for _, t := range c.timers {
		if t.pending && t.at <= c.now {
			t.pending = false
			due = append(due, t)
		}
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].at < due[j].at })
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

func (c *manualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if t.pending {
			n++
		}
	}
	return n
}

type fetchCall struct {
	ctx   context.Context
	req   Request
	reply chan Outcome[string]
}

func (fc *fetchCall) succeed(results ...string) {
	fc.reply <- Outcome[string]{Results: results}
}

func (fc *fetchCall) fail(msg string) {
	fc.reply <- Outcome[string]{Err: &FetchFailure{Message: msg}}
}

// scriptedFetcher hands every call to the test and blocks until it replies.
type scriptedFetcher struct {
	calls chan *fetchCall
}

func newScriptedFetcher() *scriptedFetcher {
	return &scriptedFetcher{calls: make(chan *fetchCall, 16)}
}

func (f *scriptedFetcher) Fetch(ctx context.Context, req Request) ([]string, error) {
	call := &fetchCall{ctx: ctx, req: req, reply: make(chan Outcome[string], 1)}
	f.calls <- call
	out := <-call.reply
	if out.Err != nil {
		return nil, out.Err
	}
	return out.Results, nil
}

func (f *scriptedFetcher) next(t *testing.T) *fetchCall {
	t.Helper()
	select {
	case call := <-f.calls:
		return call
	case <-time.After(time.Second):
		t.Fatal("expected a fetch, got none")
		return nil
	}
}

func (f *scriptedFetcher) none(t *testing.T) {
	t.Helper()
	select {
	case call := <-f.calls:
		t.Fatalf("unexpected fetch for %+v", call.req)
	case <-time.After(30 * time.Millisecond):
	}
}

type harness struct {
	c       *Coordinator[string]
	clock   *manualClock
	fetcher *scriptedFetcher
	stop    Teardown
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := &manualClock{}
	fetcher := newScriptedFetcher()
	c := New[string](fetcher, WithClock(clock))
	stop, err := c.Start()
	require.NoError(t, err)
	t.Cleanup(stop)
	return &harness{c: c, clock: clock, fetcher: fetcher, stop: stop}
}

func (h *harness) settled(t *testing.T) ResultSnapshot[string] {
	t.Helper()
	require.Eventually(t, func() bool {
		return !h.c.Result().Loading()
	}, time.Second, time.Millisecond)
	return h.c.Result().Snapshot()
}
