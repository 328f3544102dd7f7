package live

// ResultSnapshot is a read-only copy of ResultState.
type ResultSnapshot[R any] struct {
	Loading bool
	Err     *FetchFailure
	Results []R
}

// ResultState holds the outcome of the latest search. Only the coordinator
// mutates it.
type ResultState[R any] struct {
	sec     *section
	loading bool
	err     *FetchFailure
	results []R
}

func newResultState[R any](sec *section) *ResultState[R] {
	return &ResultState[R]{sec: sec}
}

func (r *ResultState[R]) Snapshot() ResultSnapshot[R] {
	r.sec.mu.Lock()
	defer r.sec.mu.Unlock()
	return ResultSnapshot[R]{
		Loading: r.loading,
		Err:     r.err,
		Results: append([]R(nil), r.results...),
	}
}

func (r *ResultState[R]) Loading() bool {
	return r.Snapshot().Loading
}

func (r *ResultState[R]) Err() *FetchFailure {
	return r.Snapshot().Err
}

func (r *ResultState[R]) Results() []R {
	return r.Snapshot().Results
}

func (r *ResultState[R]) clear() {
	r.results = nil
	r.err = nil
	r.sec.touch()
}

func (r *ResultState[R]) setLoading(v bool) {
	if r.loading == v {
		return
	}
	r.loading = v
	r.sec.touch()
}

func (r *ResultState[R]) setResults(results []R) {
	r.results = results
	r.err = nil
	r.sec.touch()
}

func (r *ResultState[R]) setError(err *FetchFailure) {
	r.err = err
	r.sec.touch()
}
