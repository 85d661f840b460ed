package topic

import (
	"cmp"
	"slices"
	"strings"
	"sync"
)

type node[V any] struct {
	path   string // 路由过滤器的部分
	next   map[string]*node[V]
	values map[uint64]V // filters ending at this node
}

func newNode[V any](path string) *node[V] {
	return &node[V]{path: path, next: make(map[string]*node[V])}
}

func (n *node[V]) empty() bool {
	return len(n.next) == 0 && len(n.values) == 0
}

type entry[V any] struct {
	key   uint64
	value V
}

func (n *node[V]) match(levels []string, system bool, out *[]entry[V]) {
	if next, ok := n.next["#"]; ok && !system {
		next.collect(out)
	}
	if len(levels) == 0 {
		n.collect(out)
		return
	}
	if next, ok := n.next["+"]; ok && !system {
		next.match(levels[1:], false, out)
	}
	// a wildcard in a topic name is not a literal level
	if levels[0] == "+" || levels[0] == "#" {
		return
	}
	if next, ok := n.next[levels[0]]; ok {
		next.match(levels[1:], false, out)
	}
}

func (n *node[V]) collect(out *[]entry[V]) {
	for k, v := range n.values {
		*out = append(*out, entry[V]{key: k, value: v})
	}
}

// Trie 主题过滤树. Each filter holds values under caller chosen keys, so one
// filter can be registered several times and removed one registration at a time.
// It is safe for concurrent use.
type Trie[V any] struct {
	m    sync.RWMutex
	root *node[V]
	size int
}

func NewTrie[V any]() *Trie[V] {
	return &Trie[V]{root: newNode[V]("")}
}

// Add registers v under key for filter. The filter must already be valid.
func (t *Trie[V]) Add(filter string, key uint64, v V) {
	t.m.Lock()
	defer t.m.Unlock()
	current := t.root
	for _, subPath := range strings.Split(filter, "/") {
		next, ok := current.next[subPath]
		if !ok {
			next = newNode[V](subPath)
			current.next[subPath] = next
		}
		current = next
	}
	if current.values == nil {
		current.values = make(map[uint64]V)
	}
	if _, ok := current.values[key]; !ok {
		t.size++
	}
	current.values[key] = v
}

// Remove drops the registration and prunes branches left empty.
// It reports whether the registration existed.
func (t *Trie[V]) Remove(filter string, key uint64) bool {
	t.m.Lock()
	defer t.m.Unlock()
	levels := strings.Split(filter, "/")
	path := make([]*node[V], 0, len(levels)+1)
	current := t.root
	path = append(path, current)
	for _, subPath := range levels {
		next, ok := current.next[subPath]
		if !ok {
			return false
		}
		current = next
		path = append(path, current)
	}
	if _, ok := current.values[key]; !ok {
		return false
	}
	delete(current.values, key)
	t.size--
	for i := len(path) - 1; i > 0 && path[i].empty(); i-- {
		delete(path[i-1].next, path[i].path)
	}
	return true
}

// Match returns the values of every filter matching the topic name, ordered by key.
func (t *Trie[V]) Match(name string) []V {
	t.m.RLock()
	var found []entry[V]
	t.root.match(strings.Split(name, "/"), isSystem(name), &found)
	t.m.RUnlock()

	slices.SortFunc(found, func(a, b entry[V]) int { return cmp.Compare(a.key, b.key) })
	out := make([]V, len(found))
	for i, e := range found {
		out[i] = e.value
	}
	return out
}

// Len returns the number of registrations.
func (t *Trie[V]) Len() int {
	t.m.RLock()
	defer t.m.RUnlock()
	return t.size
}
