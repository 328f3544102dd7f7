package search

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/mgomes/obslive/internal/live"
)

var ErrSimulated = errors.New("Some error happened")

// DemoFetcher is a stand-in backend that needs neither an API key nor an index.
// It fails at random and otherwise answers after a random delay.
type DemoFetcher struct {
	failureRate float64
	maxDelay    time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

func NewDemoFetcher(failureRate float64, maxDelay time.Duration, rng *rand.Rand) *DemoFetcher {
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	return &DemoFetcher{
		failureRate: failureRate,
		maxDelay:    maxDelay,
		rng:         rng,
	}
}

func (d *DemoFetcher) Fetch(ctx context.Context, req live.Request) ([]Result, error) {
	d.mu.Lock()
	fail := d.rng.Float64() < d.failureRate
	var delay time.Duration
	if d.maxDelay > 0 {
		delay = time.Duration(d.rng.Int64N(int64(d.maxDelay)))
	}
	d.mu.Unlock()

	if fail {
		return nil, ErrSimulated
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	results := make([]Result, 5)
	for i := range results {
		results[i] = Result{
			Rank: i + 1,
			Path: fmt.Sprintf("%s - %d|checked:%t", req.Keyword, i+1, req.Checked),
		}
	}
	return results, nil
}
