// Package update submits guarded shipment patches to the ledger and reports
// the outcome.
//
// The orchestrator owns no collection state. A successful commit marks the
// collections stale so the coordinator refetches them; the local view is
// never patched optimistically, which keeps server-assigned fields from
// drifting. A failed commit changes nothing locally.
package update

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/shipledger/shipledger/internal/ledger"
	"github.com/shipledger/shipledger/internal/lifecycle"
	"github.com/shipledger/shipledger/internal/observability"
)

// Upserter is the slice of the store connection an update needs.
type Upserter interface {
	Upsert(ctx context.Context, doc map[string]any) (ledger.CommitResult, error)
}

// Source yields the connection for the currently active identity.
type Source func(ctx context.Context) (Upserter, error)

// Resync is the staleness hook into the fetch coordinator.
type Resync interface {
	MarkStale()
}

// Orchestrator builds and submits transactional shipment patches.
type Orchestrator struct {
	source Source
	resync Resync
	notes  *Notifications
	log    zerolog.Logger
}

func NewOrchestrator(source Source, resync Resync, notes *Notifications, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		source: source,
		resync: resync,
		notes:  notes,
		log:    log,
	}
}

// Apply submits one patch for one shipment as a transactional upsert.
// Nil-valued fields are stripped first: a field omitted from the patch must
// leave the remote field untouched, not clear it.
func (o *Orchestrator) Apply(ctx context.Context, shipmentID string, patch lifecycle.Patch) error {
	doc := make(map[string]any, len(patch)+1)
	doc["id"] = shipmentID
	for field, value := range patch {
		if value == nil {
			continue
		}
		doc[field] = value
	}

	err := o.submit(ctx, doc)
	observability.RecordLedgerUpsert(err)
	if err != nil {
		detail := ledger.ExtractMessage(err)
		o.log.Error().Err(err).Str("shipment_id", shipmentID).Msg("shipment update failed")
		o.notes.set(false, "Failure", detail)
		return err
	}

	o.log.Info().Str("shipment_id", shipmentID).Msg("shipment updated")
	o.notes.set(true, "Success", "Shipment updated")
	o.resync.MarkStale()
	return nil
}

func (o *Orchestrator) submit(ctx context.Context, doc map[string]any) error {
	conn, err := o.source(ctx)
	if err != nil {
		return err
	}
	_, err = conn.Upsert(ctx, doc)
	return err
}
