// Paddock - Offline-Tolerant Farm Operations Data Layer
// Copyright 2026 Paddock Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/paddockhq/paddock

package api

import (
	"errors"
	"fmt"
)

// APIError is an application-level rejection: ok:false in the response
// envelope or an HTTP error status. The server-provided message is carried
// verbatim so write paths can surface it to the user unchanged.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %s (HTTP %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("api: request rejected (HTTP %d)", e.StatusCode)
}

// IsApplicationError reports whether err is an application-level rejection
// rather than a transport failure. Read paths treat both the same way
// (cache fallback); the distinction is kept for surfacing and logging.
func IsApplicationError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
