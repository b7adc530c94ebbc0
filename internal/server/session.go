package server

import (
	"context"
	"strings"
	"sync"

	"github.com/shipledger/shipledger/internal/identity"
	"github.com/shipledger/shipledger/internal/ledger"
)

// session owns the currently selected actor and hands out the connection
// bound to that actor's signing key. The rendering layer supplies the actor
// id; an empty id is the anonymous/default identity.
type session struct {
	keyring  *identity.Keyring
	registry *ledger.Registry

	mu      sync.RWMutex
	actorID string
}

func newSession(keyring *identity.Keyring, registry *ledger.Registry) *session {
	return &session{keyring: keyring, registry: registry}
}

// Actor returns the selected actor id, empty when anonymous.
func (s *session) Actor() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.actorID
}

// SetActor selects the acting user and reports whether the identity actually
// changed.
func (s *session) SetActor(actorID string) bool {
	actorID = strings.TrimSpace(actorID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.actorID == actorID {
		return false
	}
	s.actorID = actorID
	return true
}

// Conn returns the live connection for the current identity.
func (s *session) Conn(ctx context.Context) (*ledger.Connection, error) {
	key := s.keyring.Resolve(s.Actor())
	return s.registry.Acquire(ctx, key)
}
