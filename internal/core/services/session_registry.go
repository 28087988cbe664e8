package services

import (
	"sync"

	"github.com/google/uuid"

	"github.com/lorrc/newsroom-notifications/internal/core/ports"
)

// SessionRegistry maps each user to their single live connection.
// The most recent connection wins; state is in-memory and per-process.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]string
}

var (
	_ ports.SessionLookup  = (*SessionRegistry)(nil)
	_ ports.SessionTracker = (*SessionRegistry)(nil)
)

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[uuid.UUID]string),
	}
}

// Register records connectionID as the user's live connection, replacing
// any previous one.
func (r *SessionRegistry) Register(userID uuid.UUID, connectionID string) {
	r.mu.Lock()
	r.sessions[userID] = connectionID
	r.mu.Unlock()
}

// Unregister removes the user's entry only if it still points at
// connectionID. A stale disconnect from a superseded connection is a no-op.
func (r *SessionRegistry) Unregister(userID uuid.UUID, connectionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.sessions[userID]
	if !ok || current != connectionID {
		return false
	}
	delete(r.sessions, userID)
	return true
}

// Lookup returns the user's live connection, if any.
func (r *SessionRegistry) Lookup(userID uuid.UUID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	connectionID, ok := r.sessions[userID]
	return connectionID, ok
}

// Count returns the number of users with a live connection.
func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
