// Package store keeps outbound messages that still await broker acknowledgment.
package store

import (
	"errors"
	"fmt"
	"time"
)

// PendingMessage is an outbound QoS 1 or QoS 2 publish that has not completed
// its acknowledgment handshake.
type PendingMessage struct {
	// ID is assigned by the store on Enqueue and increases with every enqueue.
	ID       uint64    `json:"id"`
	PacketID uint16    `json:"packet_id"`
	Topic    string    `json:"topic"`
	Payload  []byte    `json:"payload"`
	QoS      byte      `json:"qos"`
	Retained bool      `json:"retained,omitempty"`
	Sent     bool      `json:"sent,omitempty"`     // written to a transport at least once
	Retries  int       `json:"retries,omitempty"`  // re-transmissions after the first send
	Released bool      `json:"released,omitempty"` // QoS 2: PUBREC seen, PUBREL owed
	Enqueued time.Time `json:"enqueued"`
}

// Store persists pending messages. Implementations are safe for concurrent use.
type Store interface {
	// Enqueue saves msg and returns its new ID. It fails with *StoreFullError when
	// the store is at capacity and the eviction policy is EvictNone.
	Enqueue(msg PendingMessage) (uint64, error)
	// Ack removes the message. Unknown IDs are ignored.
	Ack(id uint64) error
	// Update replaces the stored message with the same ID. Unknown IDs are ignored.
	Update(msg PendingMessage) error
	// AllPending returns every pending message in enqueue order.
	AllPending() ([]PendingMessage, error)
	Clear() error
	Len() int
	Close() error
}

// EvictionPolicy decides what a bounded store does when it is full.
type EvictionPolicy int

const (
	// EvictNone rejects new messages.
	EvictNone EvictionPolicy = iota
	// EvictOldest drops the oldest pending message to make room.
	EvictOldest
)

func (p EvictionPolicy) String() string {
	switch p {
	case EvictNone:
		return "none"
	case EvictOldest:
		return "oldest"
	default:
		return fmt.Sprintf("EvictionPolicy(%d)", int(p))
	}
}

// ParseEvictionPolicy is the inverse of EvictionPolicy.String.
func ParseEvictionPolicy(s string) (EvictionPolicy, error) {
	switch s {
	case "", "none":
		return EvictNone, nil
	case "oldest":
		return EvictOldest, nil
	}
	return EvictNone, fmt.Errorf("store: unknown eviction policy %q", s)
}

// Config bounds a store.
type Config struct {
	// Capacity is the maximum number of pending messages, 0 means unbounded.
	Capacity int
	Eviction EvictionPolicy
	// OnEvict is called, with the store lock held, for every evicted message.
	OnEvict func(PendingMessage)
}

func (c Config) validate() error {
	if c.Capacity < 0 {
		return fmt.Errorf("store: negative capacity %d", c.Capacity)
	}
	if c.Eviction != EvictNone && c.Eviction != EvictOldest {
		return fmt.Errorf("store: unknown eviction policy %d", c.Eviction)
	}
	return nil
}

func (c Config) full(n int) bool {
	return c.Capacity > 0 && n >= c.Capacity
}

var (
	ErrStoreFull = errors.New("store: full")
	ErrClosed    = errors.New("store: closed")
)

// StoreFullError is returned by Enqueue on a full store with EvictNone.
type StoreFullError struct {
	Capacity int
}

func (e *StoreFullError) Error() string {
	return fmt.Sprintf("store: full, capacity %d", e.Capacity)
}

func (e *StoreFullError) Is(target error) bool {
	return target == ErrStoreFull
}
