// Package fetch owns the refresh cycle that replaces the in-memory
// collections with a consistent snapshot of the ledger.
//
// A cycle runs one query per collection; the four queries execute
// concurrently but publish together, so the rendering layer never observes a
// partially updated view. Overlapping refresh requests coalesce into the
// in-flight cycle instead of duplicating round-trips.
package fetch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/shipledger/shipledger/internal/ledger"
	"github.com/shipledger/shipledger/internal/model"
	"github.com/shipledger/shipledger/internal/observability"
)

// shipmentFields are the fields the shipment query selects explicitly; the
// other collections select everything.
var shipmentFields = []string{
	"id",
	"trackingNumber",
	"fromLocation",
	"toLocation",
	"items",
	"initiatedBy",
	"status",
	"shippedDate",
	"deliveredDate",
}

// Querier is the slice of the store connection a cycle needs.
type Querier interface {
	Query(ctx context.Context, spec ledger.QuerySpec, out any) error
}

// Source yields the connection for the currently active identity. It is
// called once per cycle so an identity switch takes effect on the next one.
type Source func(ctx context.Context) (Querier, error)

// Snapshot is one atomically published view of the four collections.
// LastError and StaleSince are set when the newest cycle failed and the
// collections shown are older than the caller asked for.
type Snapshot struct {
	Shipments []model.Shipment `json:"shipments"`
	Locations []model.Location `json:"locations"`
	Items     []model.Item     `json:"items"`
	Users     []model.User     `json:"users"`

	FetchedAt  time.Time  `json:"fetchedAt"`
	Generation uint64     `json:"-"`
	LastError  string     `json:"lastError,omitempty"`
	StaleSince *time.Time `json:"staleSince,omitempty"`
}

// Coordinator serializes refresh cycles and owns the published snapshot.
//
// Single-flight is provided by singleflight.Group rather than a boolean
// guard, so a request arriving while a cycle tears down joins or starts a
// cycle instead of racing one. Cycles are tagged with a generation that
// advances on identity change and on committed updates; a cycle that
// resolves under an older generation is discarded rather than published.
// In-flight cycles are never cancelled.
type Coordinator struct {
	source Source
	log    zerolog.Logger

	group      singleflight.Group
	generation atomic.Uint64
	loading    atomic.Bool
	stale      atomic.Bool

	mu   sync.RWMutex
	snap Snapshot
}

func NewCoordinator(source Source, log zerolog.Logger) *Coordinator {
	return &Coordinator{source: source, log: log}
}

// Refresh runs one fetch cycle, or joins the cycle already in flight.
// Failures are logged and reflected on the snapshot's LastError; the prior
// collections stay published. The returned error mirrors LastError for
// callers that want it.
func (c *Coordinator) Refresh(ctx context.Context) error {
	gen := c.generation.Load()
	_, err, _ := c.group.Do("refresh", func() (any, error) {
		c.loading.Store(true)
		defer c.loading.Store(false)
		return nil, c.runCycle(ctx, gen)
	})
	return err
}

// Loading reports whether a cycle is in flight.
func (c *Coordinator) Loading() bool {
	return c.loading.Load()
}

// Stale reports whether an update committed since the last published cycle.
func (c *Coordinator) Stale() bool {
	return c.stale.Load()
}

// MarkStale records that the collections no longer reflect the ledger and
// starts a resynchronization in the background. A cycle already in flight
// predates the commit, so it is superseded rather than joined; otherwise its
// pre-commit result would publish and clear the stale flag.
func (c *Coordinator) MarkStale() {
	c.stale.Store(true)
	c.supersede("stale resync failed")
}

// IdentityChanged invalidates the current generation so that an in-flight
// cycle for the previous identity cannot publish, then starts a fresh cycle.
func (c *Coordinator) IdentityChanged() {
	c.supersede("identity switch refresh failed")
}

// supersede bumps the generation, detaches any in-flight cycle from the
// single-flight group and starts a fresh cycle in the background. The old
// cycle still runs to completion but its publish is discarded.
func (c *Coordinator) supersede(failMsg string) {
	c.generation.Add(1)
	c.group.Forget("refresh")
	go func() {
		if err := c.Refresh(context.Background()); err != nil {
			c.log.Error().Err(err).Msg(failMsg)
		}
	}()
}

// Snapshot returns the currently published view.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

func (c *Coordinator) runCycle(ctx context.Context, gen uint64) error {
	start := time.Now()
	err := c.fetchAndPublish(ctx, gen)
	if err != nil {
		// Read failures are terminal for the cycle, not the process: log,
		// record on the snapshot, keep showing the prior collections.
		c.log.Error().Err(err).Msg("fetch cycle failed")
		observability.RecordRefreshCycle("error", time.Since(start))
		c.recordFailure(err)
		return err
	}
	observability.RecordRefreshCycle("success", time.Since(start))
	return nil
}

func (c *Coordinator) fetchAndPublish(ctx context.Context, gen uint64) error {
	q, err := c.source(ctx)
	if err != nil {
		return err
	}

	var (
		shipments []model.Shipment
		locations []model.Location
		items     []model.Item
		users     []model.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.query(gctx, q, "Shipment", ledger.CollectionQuery("Shipment", shipmentFields...), &shipments)
	})
	g.Go(func() error {
		return c.query(gctx, q, "Location", ledger.CollectionQuery("Location"), &locations)
	})
	g.Go(func() error {
		return c.query(gctx, q, "Item", ledger.CollectionQuery("Item"), &items)
	})
	g.Go(func() error {
		return c.query(gctx, q, "User", ledger.CollectionQuery("User"), &users)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation.Load() != gen {
		// The identity changed or an update committed while the cycle was in
		// flight; the result predates the current view. Drop it.
		c.log.Warn().Uint64("cycle_generation", gen).Msg("discarding superseded fetch cycle")
		return nil
	}
	c.snap = Snapshot{
		Shipments:  shipments,
		Locations:  locations,
		Items:      items,
		Users:      users,
		FetchedAt:  time.Now(),
		Generation: gen,
	}
	c.stale.Store(false)
	return nil
}

func (c *Coordinator) query(ctx context.Context, q Querier, collection string, spec ledger.QuerySpec, out any) error {
	err := q.Query(ctx, spec, out)
	observability.RecordLedgerQuery(collection, err)
	return err
}

func (c *Coordinator) recordFailure(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.LastError = err.Error()
	if c.snap.StaleSince == nil {
		now := time.Now()
		c.snap.StaleSince = &now
	}
}
