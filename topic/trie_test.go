package topic

import (
	"slices"
	"testing"
)

func TestTrie_Match(t *testing.T) {
	trie := NewTrie[string]()
	filters := []string{"a/b/c", "a/+/c", "a/#", "#", "+/b/+", "$SYS/#", "$SYS/+/x", "a/b", "+"}
	for i, f := range filters {
		trie.Add(f, uint64(i), f)
	}

	testCases := []struct {
		name     string
		expected []string
	}{
		{"a/b/c", []string{"a/b/c", "a/+/c", "a/#", "#", "+/b/+"}},
		{"a/x/c", []string{"a/+/c", "a/#", "#"}},
		{"a/b/c/d", []string{"a/#", "#"}},
		{"a", []string{"a/#", "#", "+"}},
		{"a/b", []string{"a/#", "#", "a/b"}},
		{"z/b/", []string{"#", "+/b/+"}},
		{"$SYS/broker/x", []string{"$SYS/#", "$SYS/+/x"}},
		{"$SYS", []string{"$SYS/#"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := trie.Match(tc.name)
			if !slices.Equal(got, tc.expected) {
				t.Errorf("Match(%s) = %v, want %v", tc.name, got, tc.expected)
			}
		})
	}
}

func TestTrie_MatchWildcardName(t *testing.T) {
	trie := NewTrie[string]()
	trie.Add("a/+", 1, "a/+")
	trie.Add("#", 2, "#")

	if got := trie.Match("a/+"); !slices.Equal(got, []string{"a/+", "#"}) {
		t.Errorf("Match(a/+) = %v", got)
	}
	if got := trie.Match("#"); !slices.Equal(got, []string{"#"}) {
		t.Errorf("Match(#) = %v", got)
	}
}

func TestTrie_Remove(t *testing.T) {
	trie := NewTrie[int]()
	trie.Add("a/+/c", 1, 1)
	trie.Add("a/+/c", 2, 2)
	trie.Add("a/b", 3, 3)
	if trie.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", trie.Len())
	}

	if !trie.Remove("a/+/c", 1) {
		t.Error("Remove() of an existing registration = false")
	}
	if trie.Remove("a/+/c", 1) {
		t.Error("second Remove() = true")
	}
	if trie.Remove("a/x", 3) {
		t.Error("Remove() of an unknown filter = true")
	}
	if got := trie.Match("a/b/c"); !slices.Equal(got, []int{2}) {
		t.Errorf("Match() = %v, want [2]", got)
	}

	trie.Remove("a/+/c", 2)
	if _, ok := trie.root.next["a"].next["+"]; ok {
		t.Error("empty branch a/+ was not pruned")
	}
	if got := trie.Match("a/b"); !slices.Equal(got, []int{3}) {
		t.Errorf("Match() = %v, want [3]", got)
	}
	trie.Remove("a/b", 3)
	if len(trie.root.next) != 0 || trie.Len() != 0 {
		t.Errorf("trie not empty: %d nodes, %d registrations", len(trie.root.next), trie.Len())
	}
}

func TestTrie_Replace(t *testing.T) {
	trie := NewTrie[string]()
	trie.Add("x", 1, "old")
	trie.Add("x", 1, "new")
	if got := trie.Match("x"); !slices.Equal(got, []string{"new"}) || trie.Len() != 1 {
		t.Errorf("Match() = %v, Len() = %d", got, trie.Len())
	}
}
