// Paddock - Offline-Tolerant Farm Operations Data Layer
// Copyright 2026 Paddock Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/paddockhq/paddock

// Package session owns the persisted client-side session state: the bearer
// token issued by the auth collaborator and the acting tenant (farm)
// context. Logout clears the session key and the entire cache namespace so
// no snapshot can leak across accounts.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/paddockhq/paddock/internal/cache"
	"github.com/paddockhq/paddock/internal/kvstore"
	"github.com/paddockhq/paddock/internal/logging"
)

// tokenKey is where the bearer token lives in the durable store, outside
// the cache namespace so cache bounding can never evict it.
const tokenKey = "session:token"

// ErrNoToken is returned when no bearer token has been stored.
var ErrNoToken = errors.New("session: no bearer token stored")

// Session holds the client-side session state. One instance per process.
// It implements api.TokenSource.
type Session struct {
	kv     kvstore.Store
	cache  *cache.Store
	tenant string
	id     string
}

// New creates a session for the given tenant over the durable store.
func New(kv kvstore.Store, cacheStore *cache.Store, tenant string) *Session {
	return &Session{
		kv:     kv,
		cache:  cacheStore,
		tenant: tenant,
		id:     uuid.NewString(),
	}
}

// ID is the per-process session identifier, used for log correlation.
func (s *Session) ID() string { return s.id }

// Tenant is the acting farm context used to namespace cache keys.
func (s *Session) Tenant() string { return s.tenant }

// SetToken persists the bearer token. An already-expired token is stored
// anyway (the server is the authority) but logged, since every request
// carrying it is doomed.
func (s *Session) SetToken(token string) error {
	if exp, ok := TokenExpiry(token); ok && time.Now().After(exp) {
		logging.Warn().Time("expired_at", exp).Msg("storing an already-expired bearer token")
	}

	if err := s.kv.Set(tokenKey, []byte(token)); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	return nil
}

// Token returns the stored bearer token. Implements api.TokenSource.
func (s *Session) Token() (string, error) {
	raw, err := s.kv.Get(tokenKey)
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return string(raw), nil
}

// Logout deletes the bearer token and clears the whole cache namespace.
func (s *Session) Logout() error {
	if err := s.cache.Clear(""); err != nil {
		return fmt.Errorf("clear cache on logout: %w", err)
	}
	if err := s.kv.Delete(tokenKey); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	logging.Info().Str("session_id", s.id).Msg("session logged out, cache cleared")
	return nil
}

// TokenExpiry extracts the exp claim from a JWT bearer token without
// verifying its signature (verification is the server's job; this is only
// for local warnings). Returns ok=false for opaque tokens or tokens
// without an expiry.
func TokenExpiry(token string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
