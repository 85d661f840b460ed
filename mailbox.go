package courier

import (
	"sync"

	"github.com/rs/zerolog"
)

// mailbox delivers values to fn one at a time, in order, on its own goroutine.
// put never blocks: a slow consumer only grows the queue. A panicking fn is
// logged and the mailbox keeps going.
type mailbox[T any] struct {
	fn  func(T)
	log zerolog.Logger

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []T
	closed bool
	done   chan struct{}
}

func newMailbox[T any](log zerolog.Logger, fn func(T)) *mailbox[T] {
	m := &mailbox[T]{fn: fn, log: log, done: make(chan struct{})}
	m.cond = sync.NewCond(&m.mu)
	go m.loop()
	return m
}

func (m *mailbox[T]) put(v T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.queue = append(m.queue, v)
	m.cond.Signal()
}

// close stops accepting values. Queued values are still delivered; close does
// not wait for them.
func (m *mailbox[T]) close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.cond.Signal()
}

func (m *mailbox[T]) loop() {
	defer close(m.done)
	for {
		m.mu.Lock()
		for len(m.queue) == 0 && !m.closed {
			m.cond.Wait()
		}
		if len(m.queue) == 0 {
			m.mu.Unlock()
			return
		}
		v := m.queue[0]
		var zero T
		m.queue[0] = zero
		m.queue = m.queue[1:]
		m.mu.Unlock()

		m.deliver(v)
	}
}

func (m *mailbox[T]) deliver(v T) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error().Interface("panic", r).Msg("listener panicked")
		}
	}()
	m.fn(v)
}
