package store

import (
	"bytes"
	"cmp"
	"slices"
	"sync"
	"time"
)

var _ Store = (*Memory)(nil)

// Memory is a process-local Store. Nothing survives a restart.
type Memory struct {
	mu      sync.Mutex
	cfg     Config
	entries []PendingMessage // ordered by ID
	seq     uint64
	closed  bool
}

// NewMemory returns an empty in-memory store.
func NewMemory(cfg Config) (*Memory, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Memory{cfg: cfg}, nil
}

func (m *Memory) Enqueue(msg PendingMessage) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClosed
	}
	if m.cfg.full(len(m.entries)) {
		if m.cfg.Eviction == EvictNone {
			return 0, &StoreFullError{Capacity: m.cfg.Capacity}
		}
		evicted := m.entries[0]
		m.entries = m.entries[1:]
		if m.cfg.OnEvict != nil {
			m.cfg.OnEvict(evicted)
		}
	}
	m.seq++
	msg.ID = m.seq
	msg.Payload = bytes.Clone(msg.Payload)
	if msg.Enqueued.IsZero() {
		msg.Enqueued = time.Now()
	}
	m.entries = append(m.entries, msg)
	return msg.ID, nil
}

func (m *Memory) find(id uint64) (int, bool) {
	return slices.BinarySearchFunc(m.entries, id, func(e PendingMessage, id uint64) int {
		return cmp.Compare(e.ID, id)
	})
}

func (m *Memory) Ack(id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i, ok := m.find(id); ok {
		m.entries = slices.Delete(m.entries, i, i+1)
	}
	return nil
}

func (m *Memory) Update(msg PendingMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i, ok := m.find(msg.ID); ok {
		msg.Payload = bytes.Clone(msg.Payload)
		m.entries[i] = msg
	}
	return nil
}

func (m *Memory) AllPending() ([]PendingMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PendingMessage, len(m.entries))
	for i, e := range m.entries {
		e.Payload = bytes.Clone(e.Payload)
		out[i] = e
	}
	return out, nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
	return nil
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed, m.entries = true, nil
	return nil
}
