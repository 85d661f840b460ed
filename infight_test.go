package courier

import "testing"

func TestInFight(t *testing.T) {
	i := newInFight()
	if !i.Put(7, "a/b") {
		t.Fatal("first Put should be new")
	}
	if i.Put(7, "a/b") {
		t.Fatal("second Put should be a redelivery")
	}
	if topic, ok := i.Get(7); !ok || topic != "a/b" {
		t.Fatalf("Get(7) = %q, %v", topic, ok)
	}
	if _, ok := i.Get(7); ok {
		t.Fatal("Get should remove the id")
	}
	i.Put(1, "x")
	i.Put(2, "y")
	i.Reset()
	if n := i.Len(); n != 0 {
		t.Fatalf("Len() = %d after Reset", n)
	}
}
