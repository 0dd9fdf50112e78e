// Paddock - Offline-Tolerant Farm Operations Data Layer
// Copyright 2026 Paddock Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/paddockhq/paddock

package fetch

import (
	"errors"
	"sync"

	"github.com/paddockhq/paddock/internal/metrics"
)

// ErrSuperseded is returned when a response arrives after a newer query was
// issued for the same render target. The response is correct but no longer
// wanted; callers drop it without surfacing an error to the user.
var ErrSuperseded = errors.New("fetch: response superseded by a newer query")

// Sequencer orders overlapping fetches for one render target. Every issued
// query takes a monotonically increasing token; only the response carrying
// the latest token may be committed. A slow early response arriving after a
// faster later one is discarded, so the rendered state always reflects the
// most recently requested descriptor.
type Sequencer struct {
	mu     sync.Mutex
	issued uint64
}

// Begin issues a token for a new query. Issuing invalidates every earlier
// outstanding token.
func (s *Sequencer) Begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.issued++
	return s.issued
}

// Commit reports whether the response carrying token is still the latest.
// A false return means a newer query was issued while this one was in
// flight and its response must be discarded.
func (s *Sequencer) Commit(token uint64) bool {
	return s.CommitDo(token, nil)
}

// CommitDo runs fn under the sequencer's lock if token is still the latest,
// and reports whether it ran. Publishing the committed result inside fn
// keeps the token check and the publication atomic: a goroutine that passed
// a bare Commit could otherwise be preempted and overwrite a newer result
// published in the meantime.
func (s *Sequencer) CommitDo(token uint64, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.issued {
		metrics.FetchSuperseded.Inc()
		return false
	}
	if fn != nil {
		fn()
	}
	return true
}
