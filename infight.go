package courier

import (
	"sync"
)

// InFight is the inbound QoS 2 window: packet identifiers whose PUBLISH was
// delivered to listeners and whose PUBREL has not arrived yet. A PUBLISH for
// an identifier still in the window is a redelivery and is not dispatched again.
type InFight struct {
	mu   sync.Mutex
	maps map[uint16]string
}

func newInFight() *InFight {
	return &InFight{maps: make(map[uint16]string)}
}

// Put records id and reports whether it was new.
func (i *InFight) Put(id uint16, topic string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.maps[id]; ok {
		return false
	}
	i.maps[id] = topic
	return true
}

// Get removes id from the window on PUBREL.
func (i *InFight) Get(id uint16) (string, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	topic, ok := i.maps[id]
	if ok {
		delete(i.maps, id)
	}
	return topic, ok
}

func (i *InFight) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.maps)
}

// Reset empties the window when a clean session starts.
func (i *InFight) Reset() {
	i.mu.Lock()
	defer i.mu.Unlock()
	clear(i.maps)
}
