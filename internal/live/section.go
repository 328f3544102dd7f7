package live

import "sync"

// section is the critical section shared by a coordinator and its states.
type section struct {
	mu    sync.Mutex
	dirty bool

	// hooks installed by Coordinator.Start and removed on teardown
	trigger func(Source)
	hidden  func()

	listeners    map[uint64]func()
	nextListener uint64
}

func newSection() *section {
	return &section{listeners: make(map[uint64]func())}
}

// run executes fn atomically and then notifies listeners if fn changed
// anything observable.
func (s *section) run(fn func()) {
	s.mu.Lock()
	fn()
	var notify []func()
	if s.dirty {
		s.dirty = false
		notify = make([]func(), 0, len(s.listeners))
		for _, l := range s.listeners {
			notify = append(notify, l)
		}
	}
	s.mu.Unlock()

	for _, l := range notify {
		l()
	}
}

func (s *section) touch() {
	s.dirty = true
}

func (s *section) emit(src Source) {
	if s.trigger != nil {
		s.trigger(src)
	}
}

func (s *section) hide() {
	if s.hidden != nil {
		s.hidden()
	}
}

func (s *section) subscribe(fn func()) func() {
	s.mu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}
