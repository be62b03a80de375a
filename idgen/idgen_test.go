// Copyright (c) 2025 StratX21

package idgen

import "testing"

func TestGenerator(t *testing.T) {
	a := New("test-seed", 0)
	b := New("test-seed", 0)

	var ids []string
	for i := 0; i < 10; i++ {
		ids = append(ids, a.NextID())
	}
	for i := 0; i < 10; i++ {
		if v := b.NextID(); v != ids[i] {
			t.Fatalf("id at offset %d: got %s, want %s", i, v, ids[i])
		}
	}

	seen := make(map[string]bool)
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestRevertID(t *testing.T) {
	g := New("test-seed", 5)
	first := g.NextID()
	g.RevertID()
	if v := g.NextID(); v != first {
		t.Fatalf("reverted id: got %s, want %s", v, first)
	}
	if v := g.Offset(); v != 6 {
		t.Fatalf("offset: got %d, want 6", v)
	}
}
