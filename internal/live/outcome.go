package live

import (
	"context"
	"errors"
)

var ErrAlreadyStarted = errors.New("coordinator already started")

// Request is the snapshot of filter and keyword handed to a Fetcher.
type Request struct {
	Keyword string
	Checked bool
}

// Fetcher performs one search. It may be slow and may fail; the coordinator
// cancels ctx when the fetch is superseded but does not depend on it stopping.
type Fetcher[R any] interface {
	Fetch(ctx context.Context, req Request) ([]R, error)
}

type FetcherFunc[R any] func(ctx context.Context, req Request) ([]R, error)

func (f FetcherFunc[R]) Fetch(ctx context.Context, req Request) ([]R, error) {
	return f(ctx, req)
}

// FetchFailure is the only error kind stored in ResultState.
type FetchFailure struct {
	Message string
	Err     error
}

func (f *FetchFailure) Error() string {
	return f.Message
}

func (f *FetchFailure) Unwrap() error {
	return f.Err
}

// Outcome is a fetch result carried as a value, so success and failure travel
// the same path through the coordinator.
type Outcome[R any] struct {
	Results []R
	Err     *FetchFailure
}

func (o Outcome[R]) OK() bool {
	return o.Err == nil
}

func materialize[R any](results []R, err error) Outcome[R] {
	if err == nil {
		return Outcome[R]{Results: results}
	}

	var failure *FetchFailure
	if !errors.As(err, &failure) {
		failure = &FetchFailure{Message: err.Error(), Err: err}
	}
	return Outcome[R]{Err: failure}
}
