// Paddock - Offline-Tolerant Farm Operations Data Layer
// Copyright 2026 Paddock Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/paddockhq/paddock

// Package kvstore provides the durable key-value store underneath the cache
// and session layers. The production implementation is backed by BadgerDB;
// an in-memory implementation exists for tests and ephemeral mode.
//
// Keys are flat strings namespaced by convention ("cache:...", "session:...").
// Values are opaque bytes; callers own serialization.
package kvstore

import "errors"

// ErrKeyNotFound is returned by Get when no value exists for the key.
var ErrKeyNotFound = errors.New("kvstore: key not found")

// Store is the durable string-to-bytes store contract.
//
// All methods are safe for concurrent use. DeletePrefix and Keys operate on
// the byte-wise prefix of the key, which is how namespaces ("cache:") are
// cleared wholesale on logout.
type Store interface {
	// Get returns the value for key, or ErrKeyNotFound.
	Get(key string) ([]byte, error)

	// Set stores value under key, overwriting any existing value.
	Set(key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error

	// DeletePrefix removes every key with the given prefix.
	DeletePrefix(prefix string) error

	// Keys returns all keys with the given prefix, in unspecified order.
	Keys(prefix string) ([]string, error)

	// Close releases underlying resources.
	Close() error
}
