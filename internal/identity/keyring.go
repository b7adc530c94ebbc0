// Package identity binds acting users to the signing keys that authorize
// their ledger transactions.
//
// It intentionally avoids signing internals and key storage policy; the
// ledger endpoint verifies signatures.
package identity

import (
	"strings"
	"sync"
)

// SigningKey identifies one private key used to sign ledger transactions.
// DID is opaque metadata recorded next to the key; nothing here interprets it.
type SigningKey struct {
	PrivateKey string
	DID        string
}

// Keyring maps actor ids to signing keys. Lookups never fail: an unknown or
// empty actor resolves to the root key.
type Keyring struct {
	mu      sync.RWMutex
	root    SigningKey
	byActor map[string]SigningKey
}

// NewKeyring builds a keyring around one root default key.
func NewKeyring(root SigningKey) *Keyring {
	return &Keyring{
		root:    root,
		byActor: make(map[string]SigningKey),
	}
}

// Bind registers a signing key for one actor id. Binding an empty actor id is
// a no-op; the root key already covers the anonymous case.
func (k *Keyring) Bind(actorID string, key SigningKey) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.byActor[actorID] = key
}

// Resolve returns the signing key for the given actor id, or the root key
// when the actor is empty or has no binding. Absence is not an error.
func (k *Keyring) Resolve(actorID string) SigningKey {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return k.root
	}
	k.mu.RLock()
	defer k.mu.RUnlock()
	if key, ok := k.byActor[actorID]; ok {
		return key
	}
	return k.root
}

// Root returns the system default key.
func (k *Keyring) Root() SigningKey {
	return k.root
}

// Actors returns a snapshot of the bound actor ids.
func (k *Keyring) Actors() []string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := make([]string, 0, len(k.byActor))
	for actor := range k.byActor {
		out = append(out, actor)
	}
	return out
}
