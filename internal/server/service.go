// Package server exposes the sync layer to the rendering layer over HTTP.
//
// The rendering layer is an external collaborator: it reads snapshots and
// the notification surface, selects the acting user, and invokes lifecycle
// transitions. It never mutates shipment state directly.
package server

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/shipledger/shipledger/internal/fetch"
	"github.com/shipledger/shipledger/internal/identity"
	"github.com/shipledger/shipledger/internal/ledger"
	"github.com/shipledger/shipledger/internal/lifecycle"
	"github.com/shipledger/shipledger/internal/observability"
	"github.com/shipledger/shipledger/internal/update"
)

type Config struct {
	Addr        string
	CorsOrigins []string
}

func DefaultConfig() Config {
	return Config{Addr: ":8080"}
}

// Service wires the sync-layer components behind the HTTP API.
type Service struct {
	cfg     Config
	log     zerolog.Logger
	session *session

	coordinator  *fetch.Coordinator
	orchestrator *update.Orchestrator
	machine      *lifecycle.Machine
	notes        *update.Notifications

	router *gin.Engine
}

// NewService assembles the full sync layer around one keyring and one
// connection registry.
func NewService(cfg Config, keyring *identity.Keyring, registry *ledger.Registry, machine *lifecycle.Machine, log zerolog.Logger) *Service {
	if cfg.Addr == "" {
		cfg.Addr = DefaultConfig().Addr
	}
	svc := &Service{
		cfg:     cfg,
		log:     log,
		session: newSession(keyring, registry),
		machine: machine,
		notes:   update.NewNotifications(),
	}
	svc.coordinator = fetch.NewCoordinator(svc.querySource, log)
	svc.orchestrator = update.NewOrchestrator(svc.upsertSource, svc.coordinator, svc.notes, log)
	svc.router = svc.buildRouter()
	return svc
}

// Coordinator exposes the fetch coordinator, mainly so the daemon can run an
// initial refresh before serving.
func (s *Service) Coordinator() *fetch.Coordinator {
	return s.coordinator
}

// Run serves the API until the listener fails.
func (s *Service) Run() error {
	s.log.Info().Str("addr", s.cfg.Addr).Msg("serving rendering-layer api")
	return s.router.Run(s.cfg.Addr)
}

func (s *Service) buildRouter() *gin.Engine {
	r := gin.New()
	// Middleware: keep it lean
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(s.log))
	r.Use(observability.RequestMetrics())
	if len(s.cfg.CorsOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: s.cfg.CorsOrigins,
			AllowMethods: []string{"GET", "POST", "DELETE"},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}
	s.registerRoutes(r)
	return r
}

// querySource and upsertSource adapt the session connection to the narrow
// interfaces the coordinator and orchestrator depend on.

func (s *Service) querySource(ctx context.Context) (fetch.Querier, error) {
	conn, err := s.session.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (s *Service) upsertSource(ctx context.Context) (update.Upserter, error) {
	conn, err := s.session.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
