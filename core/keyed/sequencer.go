package keyed

import (
	"errors"
	"sync"
)

// ErrSequencerClosed is returned by Submit after Close was called.
var ErrSequencerClosed = errors.New("keyed: sequencer closed")

// Sequencer runs work for each key on its own worker goroutine in FIFO order.
// A worker is started on first submission and exits once its queue drains.
type Sequencer[K comparable] struct {
	mu     sync.Mutex
	queues map[K][]func()
	closed bool
	wg     sync.WaitGroup
}

// NewSequencer constructs an idle sequencer.
func NewSequencer[K comparable]() *Sequencer[K] {
	return &Sequencer[K]{queues: make(map[K][]func())}
}

// Submit appends fn to the queue of key. It never blocks on running work.
func (s *Sequencer[K]) Submit(key K, fn func()) error {
	if fn == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSequencerClosed
	}
	if s.queues == nil {
		s.queues = make(map[K][]func())
	}
	if pending, active := s.queues[key]; active {
		s.queues[key] = append(pending, fn)
		return nil
	}
	// An empty, non-nil slice marks the key as having a live worker.
	s.queues[key] = []func(){}
	s.wg.Add(1)
	go s.run(key, fn)
	return nil
}

func (s *Sequencer[K]) run(key K, fn func()) {
	defer s.wg.Done()
	for fn != nil {
		fn()
		fn = s.next(key)
	}
}

func (s *Sequencer[K]) next(key K) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending := s.queues[key]
	if len(pending) == 0 {
		delete(s.queues, key)
		return nil
	}
	fn := pending[0]
	pending[0] = nil
	s.queues[key] = pending[1:]
	return fn
}

// Active reports the number of keys with a running worker.
func (s *Sequencer[K]) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queues)
}

// Close rejects further submissions and waits for queued work to finish.
func (s *Sequencer[K]) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wg.Wait()
}
