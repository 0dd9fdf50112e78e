// Paddock - Offline-Tolerant Farm Operations Data Layer
// Copyright 2026 Paddock Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/paddockhq/paddock

package cache

import (
	"sync"
	"testing"
)

func TestLRUIndex_AddAndLen(t *testing.T) {
	idx := newLRUIndex(3, nil)

	idx.Add("a")
	idx.Add("b")
	idx.Add("c")

	if idx.Len() != 3 {
		t.Errorf("Len = %d, want 3", idx.Len())
	}

	// Re-adding an existing key must not grow the index.
	idx.Add("a")
	if idx.Len() != 3 {
		t.Errorf("Len after duplicate Add = %d, want 3", idx.Len())
	}
}

func TestLRUIndex_EvictsLeastRecentlyUsed(t *testing.T) {
	var evicted []string
	idx := newLRUIndex(3, func(key string) { evicted = append(evicted, key) })

	idx.Add("a")
	idx.Add("b")
	idx.Add("c")

	// Touch "a" so "b" is now the oldest.
	idx.Touch("a")

	idx.Add("d")

	if len(evicted) != 1 || evicted[0] != "b" {
		t.Errorf("evicted = %v, want [b]", evicted)
	}
	if idx.Len() != 3 {
		t.Errorf("Len = %d, want 3", idx.Len())
	}
}

func TestLRUIndex_RemoveSkipsEvictionCallback(t *testing.T) {
	var evicted []string
	idx := newLRUIndex(2, func(key string) { evicted = append(evicted, key) })

	idx.Add("a")
	idx.Remove("a")

	if len(evicted) != 0 {
		t.Errorf("Remove must not trigger eviction callback, got %v", evicted)
	}
	if idx.Len() != 0 {
		t.Errorf("Len = %d, want 0", idx.Len())
	}

	// Removing an absent key is a no-op.
	idx.Remove("ghost")
}

func TestLRUIndex_UnboundedCapacity(t *testing.T) {
	idx := newLRUIndex(0, func(string) { t.Error("unbounded index must never evict") })

	for i := 0; i < 100; i++ {
		idx.Add(string(rune('a' + i%26)))
	}
	if idx.Len() != 26 {
		t.Errorf("Len = %d, want 26", idx.Len())
	}
}

func TestLRUIndex_ConcurrentOperations(t *testing.T) {
	idx := newLRUIndex(50, func(string) {})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				key := string(rune('a'+n)) + string(rune('0'+j%10))
				idx.Add(key)
				idx.Touch(key)
				if j%3 == 0 {
					idx.Remove(key)
				}
			}
		}(i)
	}
	wg.Wait()

	if idx.Len() > 50 {
		t.Errorf("Len = %d exceeds capacity 50", idx.Len())
	}
}
