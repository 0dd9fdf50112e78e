// Paddock - Offline-Tolerant Farm Operations Data Layer
// Copyright 2026 Paddock Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/paddockhq/paddock

package cache

import "sync"

// lruEntry is a node in the LRU index's doubly-linked list.
type lruEntry struct {
	key  string
	prev *lruEntry
	next *lruEntry
}

// lruIndex tracks live cache keys in recency order so the store can bound
// entry count. It holds keys only; payloads live in the durable store.
//
// O(1) Add, Touch, Remove, and eviction. head.next is the most recently
// used entry, tail.prev the least recently used.
type lruIndex struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*lruEntry
	head     *lruEntry
	tail     *lruEntry

	// onEvict is called outside the recency decision but under the index
	// lock, with the evicted key. The store uses it to delete the durable
	// entry backing the key.
	onEvict func(key string)
}

// newLRUIndex creates an index bounded to capacity entries. A capacity of
// zero or less disables bounding (the index still tracks keys for the
// entries gauge).
func newLRUIndex(capacity int, onEvict func(key string)) *lruIndex {
	idx := &lruIndex{
		capacity: capacity,
		items:    make(map[string]*lruEntry),
		head:     &lruEntry{},
		tail:     &lruEntry{},
		onEvict:  onEvict,
	}
	idx.head.next = idx.tail
	idx.tail.prev = idx.head
	return idx
}

// Add records key as most recently used, evicting the least recently used
// key if the index is over capacity. Adding an existing key just refreshes
// its recency.
func (idx *lruIndex) Add(key string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if entry, ok := idx.items[key]; ok {
		idx.unlink(entry)
		idx.pushFront(entry)
		return
	}

	entry := &lruEntry{key: key}
	idx.items[key] = entry
	idx.pushFront(entry)

	if idx.capacity > 0 && len(idx.items) > idx.capacity {
		oldest := idx.tail.prev
		if oldest != idx.head {
			idx.unlink(oldest)
			delete(idx.items, oldest.key)
			if idx.onEvict != nil {
				idx.onEvict(oldest.key)
			}
		}
	}
}

// Touch marks key as most recently used if present.
func (idx *lruIndex) Touch(key string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if entry, ok := idx.items[key]; ok {
		idx.unlink(entry)
		idx.pushFront(entry)
	}
}

// Remove drops key from the index without invoking the eviction callback.
func (idx *lruIndex) Remove(key string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if entry, ok := idx.items[key]; ok {
		idx.unlink(entry)
		delete(idx.items, key)
	}
}

// Len returns the number of tracked keys.
func (idx *lruIndex) Len() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return len(idx.items)
}

func (idx *lruIndex) unlink(entry *lruEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
}

func (idx *lruIndex) pushFront(entry *lruEntry) {
	entry.prev = idx.head
	entry.next = idx.head.next
	idx.head.next.prev = entry
	idx.head.next = entry
}
