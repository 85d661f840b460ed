package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

var _ Store = (*Badger)(nil)

var (
	pendingPrefix = []byte("pending/")
	sequenceKey   = []byte("seq/pending")
)

// Badger is a crash-durable Store backed by BadgerDB. Every write is synced
// before Enqueue, Ack or Update return.
//
// Key format:
//   - pending/{big-endian id}
type Badger struct {
	db  *badger.DB
	seq *badger.Sequence
	cfg Config

	mu     sync.Mutex
	count  int
	closed bool

	gcStopCh chan struct{}
	gcDone   chan struct{}
}

// OpenBadger opens or creates the store in dir. Messages left by a previous
// process are kept.
func OpenBadger(dir string, cfg Config) (*Badger, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	opts.SyncWrites = true
	opts.NumVersionsToKeep = 1

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", dir, err)
	}
	seq, err := db.GetSequence(sequenceKey, 100)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: sequence: %w", err)
	}

	s := &Badger{
		db:       db,
		seq:      seq,
		cfg:      cfg,
		gcStopCh: make(chan struct{}),
		gcDone:   make(chan struct{}),
	}
	if s.count, err = s.countKeys(); err != nil {
		seq.Release()
		db.Close()
		return nil, err
	}

	go s.runGC()
	return s, nil
}

func pendingKey(id uint64) []byte {
	key := make([]byte, len(pendingPrefix)+8)
	copy(key, pendingPrefix)
	binary.BigEndian.PutUint64(key[len(pendingPrefix):], id)
	return key
}

func (s *Badger) countKeys() (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = pendingPrefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// oldest returns the first pending message in key order.
func oldest(txn *badger.Txn) (PendingMessage, bool, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = pendingPrefix
	opts.PrefetchSize = 1
	it := txn.NewIterator(opts)
	defer it.Close()

	it.Rewind()
	if !it.Valid() {
		return PendingMessage{}, false, nil
	}
	var msg PendingMessage
	err := it.Item().Value(func(val []byte) error {
		return json.Unmarshal(val, &msg)
	})
	return msg, err == nil, err
}

func (s *Badger) Enqueue(msg PendingMessage) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	evict := s.cfg.full(s.count)
	if evict && s.cfg.Eviction == EvictNone {
		return 0, &StoreFullError{Capacity: s.cfg.Capacity}
	}

	next, err := s.seq.Next()
	if err != nil {
		return 0, fmt.Errorf("store: next id: %w", err)
	}
	msg.ID = next + 1
	if msg.Enqueued.IsZero() {
		msg.Enqueued = time.Now()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return 0, fmt.Errorf("store: marshal message: %w", err)
	}

	var evicted PendingMessage
	var dropped bool
	err = s.db.Update(func(txn *badger.Txn) error {
		if evict {
			if evicted, dropped, err = oldest(txn); err != nil {
				return err
			}
			if dropped {
				if err := txn.Delete(pendingKey(evicted.ID)); err != nil {
					return err
				}
			}
		}
		return txn.Set(pendingKey(msg.ID), data)
	})
	if err != nil {
		return 0, fmt.Errorf("store: enqueue: %w", err)
	}
	if !dropped {
		s.count++
	}
	if dropped && s.cfg.OnEvict != nil {
		s.cfg.OnEvict(evicted)
	}
	return msg.ID, nil
}

func (s *Badger) Ack(id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	key := pendingKey(id)
	found := false
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		found = true
		return txn.Delete(key)
	})
	if err != nil {
		return fmt.Errorf("store: ack %d: %w", id, err)
	}
	if found {
		s.count--
	}
	return nil
}

func (s *Badger) Update(msg PendingMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("store: marshal message: %w", err)
	}
	key := pendingKey(msg.ID)
	err = s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return fmt.Errorf("store: update %d: %w", msg.ID, err)
	}
	return nil
}

func (s *Badger) AllPending() ([]PendingMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	var messages []PendingMessage
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = pendingPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var msg PendingMessage
				if err := json.Unmarshal(val, &msg); err != nil {
					return err
				}
				messages = append(messages, msg)
				return nil
			})
			if err != nil {
				return fmt.Errorf("failed to unmarshal message: %w", err)
			}
		}
		return nil
	})
	return messages, err
}

func (s *Badger) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := s.db.DropPrefix(pendingPrefix); err != nil {
		return fmt.Errorf("store: clear: %w", err)
	}
	s.count = 0
	return nil
}

func (s *Badger) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Close releases the id sequence and closes the database.
func (s *Badger) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.gcStopCh)
	<-s.gcDone

	err := s.seq.Release()
	if cerr := s.db.Close(); err == nil {
		err = cerr
	}
	return err
}

// runGC runs BadgerDB's value log garbage collection periodically.
func (s *Badger) runGC() {
	defer close(s.gcDone)

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// ErrNoRewrite just means there was nothing to reclaim
			_ = s.db.RunValueLogGC(0.5)
		case <-s.gcStopCh:
			return
		}
	}
}
