package courier

import (
	"sync"

	"github.com/golang-io/courier/topic"
	"github.com/rs/zerolog"
)

// Subscription asks the broker for messages matching TopicFilter at up to QoS.
type Subscription struct {
	TopicFilter string `yaml:"topic"`
	QoS         QoS    `yaml:"qos"`
}

type listener struct {
	id     uint64
	filter string
	box    *mailbox[Message]
}

// router fans inbound messages out to the listeners whose filter matches.
// Global listeners see every message.
type router struct {
	log zerolog.Logger

	mu     sync.Mutex
	next   uint64
	trie   *topic.Trie[*listener]
	byID   map[uint64]*listener
	global map[uint64]*listener
}

func newRouter(log zerolog.Logger) *router {
	return &router{
		log:    log,
		trie:   topic.NewTrie[*listener](),
		byID:   make(map[uint64]*listener),
		global: make(map[uint64]*listener),
	}
}

func (r *router) newListener(filter string, l MessageListener) *listener {
	r.next++
	return &listener{
		id:     r.next,
		filter: filter,
		box:    newMailbox(r.log.With().Str("filter", filter).Logger(), l.OnMessageReceived),
	}
}

func (r *router) add(filter string, l MessageListener) (func(), error) {
	if err := topic.ValidateFilter(filter); err != nil {
		return nil, err
	}
	r.mu.Lock()
	ln := r.newListener(filter, l)
	r.trie.Add(filter, ln.id, ln)
	r.byID[ln.id] = ln
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			r.trie.Remove(filter, ln.id)
			delete(r.byID, ln.id)
			r.mu.Unlock()
			ln.box.close()
		})
	}, nil
}

func (r *router) addGlobal(l MessageListener) func() {
	r.mu.Lock()
	ln := r.newListener("#", l)
	r.global[ln.id] = ln
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.global, ln.id)
			r.mu.Unlock()
			ln.box.close()
		})
	}
}

// dispatch queues msg on every matching listener and reports how many there were.
func (r *router) dispatch(msg Message) int {
	r.mu.Lock()
	targets := r.trie.Match(msg.Topic)
	for _, ln := range r.global {
		targets = append(targets, ln)
	}
	r.mu.Unlock()

	for _, ln := range targets {
		// each listener gets its own copy of the payload
		m := msg
		m.Payload = append([]byte(nil), msg.Payload...)
		ln.box.put(m)
	}
	if len(targets) == 0 {
		r.log.Debug().Str("topic", msg.Topic).Msg("no listener for message")
	}
	return len(targets)
}

// close stops every listener mailbox.
func (r *router) close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ln := range r.global {
		ln.box.close()
	}
	for _, ln := range r.byID {
		ln.box.close()
	}
	r.global = make(map[uint64]*listener)
	r.byID = make(map[uint64]*listener)
	r.trie = topic.NewTrie[*listener]()
}
