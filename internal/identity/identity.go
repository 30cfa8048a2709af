// Package identity resolves the current user id: an authenticated principal
// from a remote identity provider when one is available, or a device-local
// guest id otherwise.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"scoutapi/internal/kv"
	"scoutapi/internal/model"
)

// GuestSessionKey is the local-store key holding the guest session blob.
const GuestSessionKey = "sr_guest_session"

// fallbackGuestID is returned when even the local store cannot be read or
// written. It keeps the resolver total.
const fallbackGuestID = "guest"

// Provider supplies the currently authenticated principal, or none.
// Any error from it is treated identically to "not authenticated".
type Provider interface {
	// CurrentUserID returns the authenticated user id, or "" when there is
	// no signed-in user.
	CurrentUserID(ctx context.Context) (string, error)
}

// Identity is the outcome of one resolution.
type Identity struct {
	UserID string
	// Remote is true when UserID came from the identity provider. It selects
	// remote-mode routing for the operation that performed the probe.
	Remote bool
}

// Resolver decides between a remote principal and a persistent guest id.
// It never returns an error: provider failures fall through to the guest
// path, and guest-store failures degrade to a non-persistent guest id.
type Resolver struct {
	provider Provider
	store    kv.Store
	now      func() time.Time
	randInt  func(n int) int
}

// NewResolver builds a resolver. provider may be nil when no identity
// provider is configured; every call then resolves to the guest path.
func NewResolver(provider Provider, store kv.Store) *Resolver {
	return &Resolver{
		provider: provider,
		store:    store,
		now:      time.Now,
		randInt:  rand.Intn,
	}
}

// Resolve performs one availability probe. Each store operation calls this
// once and stays in the resulting mode for its whole duration.
func (r *Resolver) Resolve(ctx context.Context) Identity {
	if r.provider != nil {
		if id, err := r.provider.CurrentUserID(ctx); err == nil && id != "" {
			return Identity{UserID: id, Remote: true}
		}
		// Provider errors are indistinguishable from "not signed in" here;
		// both route to the guest path.
	}
	return Identity{UserID: r.GuestID(ctx)}
}

// GuestID returns the persistent guest id, creating and persisting a session
// on first use.
func (r *Resolver) GuestID(ctx context.Context) string {
	raw, ok, err := r.store.Get(ctx, GuestSessionKey)
	if err != nil {
		return fallbackGuestID
	}
	if ok {
		var sess model.GuestSession
		if err := json.Unmarshal([]byte(raw), &sess); err == nil && sess.UserID != "" {
			return sess.UserID
		}
	}

	now := r.now()
	sess := model.GuestSession{
		UserID:      fmt.Sprintf("guest_%d_%d", now.UnixMilli(), r.randInt(10000)),
		DisplayName: "Guest",
		CreatedAt:   now,
		Mode:        "guest",
	}
	blob, err := json.Marshal(sess)
	if err != nil {
		return fallbackGuestID
	}
	if err := r.store.Set(ctx, GuestSessionKey, string(blob)); err != nil {
		return fallbackGuestID
	}
	return sess.UserID
}

// ClearGuest removes the guest session. Called on explicit sign-out while in
// local mode; the next resolution generates a fresh guest id.
func (r *Resolver) ClearGuest(ctx context.Context) error {
	return r.store.Delete(ctx, GuestSessionKey)
}
