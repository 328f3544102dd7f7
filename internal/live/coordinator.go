package live

import (
	"context"
	"log/slog"
	"sync"
)

// Teardown stops a started coordinator. It is safe to call more than once.
type Teardown func()

type Option func(*options)

type options struct {
	windows Windows
	clock   Clock
	logger  *slog.Logger
}

func WithWindows(w Windows) Option {
	return func(o *options) { o.windows = w }
}

func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

type pendingTimer struct {
	timer Timer
	seq   uint64
}

// Coordinator turns filter, input and refresh triggers into fetches and writes
// their outcomes into a ResultState.
type Coordinator[R any] struct {
	sec     *section
	filter  *FilterState
	input   *InputSearchState
	result  *ResultState[R]
	fetcher Fetcher[R]

	windows Windows
	clock   Clock
	log     *slog.Logger

	started bool
	stopped bool
	ctx     context.Context
	cancel  context.CancelFunc

	timers [numSources]pendingTimer

	// gen identifies the only fetch whose outcome may still be applied.
	gen   uint64
	abort context.CancelFunc
}

func New[R any](fetcher Fetcher[R], opts ...Option) *Coordinator[R] {
	o := options{
		windows: DefaultWindows(),
		clock:   realClock{},
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&o)
	}

	sec := newSection()
	return &Coordinator[R]{
		sec:     sec,
		filter:  newFilterState(sec),
		input:   newInputSearchState(sec),
		result:  newResultState[R](sec),
		fetcher: fetcher,
		windows: o.windows,
		clock:   o.clock,
		log:     o.logger,
	}
}

func (c *Coordinator[R]) Filter() *FilterState { return c.filter }

func (c *Coordinator[R]) Input() *InputSearchState { return c.input }

func (c *Coordinator[R]) Result() *ResultState[R] { return c.result }

// Subscribe registers fn to be called after any change to the coordinator's
// states. fn runs outside the critical section.
func (c *Coordinator[R]) Subscribe(fn func()) (unsubscribe func()) {
	return c.sec.subscribe(fn)
}

// Start connects the trigger sources. A coordinator can be started once.
func (c *Coordinator[R]) Start() (Teardown, error) {
	var err error
	c.sec.run(func() {
		if c.started {
			err = ErrAlreadyStarted
			return
		}
		c.started = true
		c.ctx, c.cancel = context.WithCancel(context.Background())
		c.sec.trigger = c.onTrigger
		c.sec.hidden = c.onHidden
	})
	if err != nil {
		return nil, err
	}

	var once sync.Once
	return func() { once.Do(c.teardown) }, nil
}

// Refresh emits a refresh trigger.
func (c *Coordinator[R]) Refresh() {
	c.sec.run(func() {
		c.sec.emit(SourceRefresh)
	})
}

func (c *Coordinator[R]) teardown() {
	c.sec.run(func() {
		c.stopped = true
		c.sec.trigger = nil
		c.sec.hidden = nil
		for i := range c.timers {
			if c.timers[i].timer != nil {
				c.timers[i].timer.Stop()
				c.timers[i].timer = nil
			}
		}
		c.abort = nil
		c.cancel()
		c.log.Debug("coordinator stopped")
	})
}

func (c *Coordinator[R]) onTrigger(src Source) {
	if !c.input.visible {
		c.log.Debug("trigger dropped, panel hidden", "source", src)
		return
	}

	c.result.clear()
	c.result.setLoading(true)
	c.arm(src)
}

func (c *Coordinator[R]) onHidden() {
	c.result.setLoading(false)
}

// arm restarts the debounce timer of src.
func (c *Coordinator[R]) arm(src Source) {
	t := &c.timers[src]
	if t.timer != nil {
		t.timer.Stop()
	}
	t.seq++
	seq := t.seq
	t.timer = c.clock.AfterFunc(c.windows.For(src), func() {
		c.sec.run(func() { c.fire(src, seq) })
	})
}

func (c *Coordinator[R]) fire(src Source, seq uint64) {
	// A timer that was stopped too late still runs; seq tells it apart.
	if c.stopped || c.timers[src].seq != seq {
		return
	}
	c.timers[src].timer = nil
	c.dispatch(src)
}

// dispatch starts a new fetch generation, abandoning the previous one.
func (c *Coordinator[R]) dispatch(src Source) {
	c.gen++
	gen := c.gen
	if c.abort != nil {
		c.abort()
		c.abort = nil
	}

	if !c.input.visible {
		c.log.Debug("search skipped, panel hidden", "source", src, "generation", gen)
		c.result.setLoading(false)
		c.result.clear()
		return
	}

	req := Request{
		Keyword: c.input.keyword,
		Checked: c.filter.value.Checked,
	}
	ctx, cancel := context.WithCancel(c.ctx)
	c.abort = cancel

	c.log.Debug("search dispatched",
		"source", src,
		"generation", gen,
		"keyword", req.Keyword,
		"checked", req.Checked,
	)
	go c.fetch(ctx, gen, req)
}

func (c *Coordinator[R]) fetch(ctx context.Context, gen uint64, req Request) {
	results, err := c.fetcher.Fetch(ctx, req)
	outcome := materialize(results, err)
	c.sec.run(func() { c.settle(gen, outcome) })
}

func (c *Coordinator[R]) settle(gen uint64, outcome Outcome[R]) {
	if c.stopped || gen != c.gen {
		c.log.Debug("stale outcome discarded", "generation", gen, "current", c.gen)
		return
	}
	if c.abort != nil {
		c.abort()
		c.abort = nil
	}

	c.result.setLoading(false)
	if !c.input.visible {
		c.log.Debug("outcome discarded, panel hidden", "generation", gen, "ok", outcome.OK())
		return
	}

	if !outcome.OK() {
		c.log.Debug("search failed", "generation", gen, "error", outcome.Err)
		c.result.setError(outcome.Err)
		return
	}
	c.result.setResults(outcome.Results)
}
