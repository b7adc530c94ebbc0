package ledger

import (
	"context"
	"sync"

	"github.com/shipledger/shipledger/internal/identity"
)

// Registry owns the single live connection per active identity. Acquiring
// with the current key returns the memoized connection; acquiring with a new
// key releases the old connection and dials a fresh one. The connection is
// never shared across identities and never mutated in place.
type Registry struct {
	ledgerName string
	host       HostConfig

	mu     sync.Mutex
	active *Connection
}

// NewRegistry builds a registry for one named ledger.
func NewRegistry(ledgerName string, host HostConfig) *Registry {
	return &Registry{ledgerName: ledgerName, host: host}
}

// Acquire returns the live connection for the given signing key, creating or
// replacing it as needed.
func (r *Registry) Acquire(ctx context.Context, key identity.SigningKey) (*Connection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != nil && r.active.key == key {
		return r.active, nil
	}
	if r.active != nil {
		r.active.Release()
		r.active = nil
	}
	conn, err := Connect(ctx, key, r.ledgerName, r.host)
	if err != nil {
		return nil, err
	}
	r.active = conn
	return conn, nil
}

// Close releases the active connection, if any.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != nil {
		r.active.Release()
		r.active = nil
	}
}
