package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shipledger/shipledger/internal/fetch"
	"github.com/shipledger/shipledger/internal/ledger"
	"github.com/shipledger/shipledger/internal/lifecycle"
	"github.com/shipledger/shipledger/internal/model"
	"github.com/shipledger/shipledger/internal/resolve"
)

var startedAt = time.Now()

func (s *Service) registerRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(startedAt).String(),
			"service": "shipledger",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.GET("/snapshot", s.handleSnapshot)
	api.POST("/actor", s.handleSetActor)
	api.POST("/refresh", s.handleRefresh)
	// Shipment ids are IRIs containing slashes ("shipment/1"), so the id
	// rides in a trailing wildcard rather than a single-segment param.
	api.POST("/shipments/ship-out/*id", s.transitionHandler(lifecycle.ActionShipOut))
	api.POST("/shipments/confirm-receipt/*id", s.transitionHandler(lifecycle.ActionConfirmReceipt))
	api.GET("/notification", s.handleNotification)
	api.DELETE("/notification", s.handleDismissNotification)
}

// shipmentView is one resolved shipment plus the action labels the rendering
// layer shows, so it never re-implements the state machine.
type shipmentView struct {
	resolve.Shipment
	CanShipOut        bool `json:"canShipOut"`
	CanConfirmReceipt bool `json:"canConfirmReceipt"`
}

type snapshotView struct {
	IsLoading bool           `json:"isLoading"`
	Actor     string         `json:"actor,omitempty"`
	Stale     bool           `json:"stale"`
	Resolved  []shipmentView `json:"resolvedShipments"`
	fetch.Snapshot
}

func (s *Service) handleSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, s.snapshotView())
}

func (s *Service) snapshotView() snapshotView {
	snap := s.coordinator.Snapshot()
	actorID := s.session.Actor()
	actor := s.actingUser(snap, actorID)

	resolved := resolve.Collections(snap.Shipments, snap.Locations, snap.Items, snap.Users)
	views := make([]shipmentView, 0, len(resolved))
	for _, rs := range resolved {
		views = append(views, shipmentView{
			Shipment:          rs,
			CanShipOut:        s.machine.Can(lifecycle.ActionShipOut, rs.Shipment, actor),
			CanConfirmReceipt: s.machine.Can(lifecycle.ActionConfirmReceipt, rs.Shipment, actor),
		})
	}
	return snapshotView{
		IsLoading: s.coordinator.Loading(),
		Actor:     actorID,
		Stale:     s.coordinator.Stale(),
		Resolved:  views,
		Snapshot:  snap,
	}
}

func (s *Service) actingUser(snap fetch.Snapshot, actorID string) *model.User {
	if actorID == "" {
		return nil
	}
	user, ok := resolve.User(snap.Users, actorID)
	if !ok {
		return nil
	}
	return &user
}

func (s *Service) handleSetActor(c *gin.Context) {
	var req struct {
		ActorID string `json:"actorId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid actor payload"})
		return
	}
	if s.session.SetActor(req.ActorID) {
		// New identity, new connection, fresh collections.
		s.coordinator.IdentityChanged()
	}
	c.JSON(http.StatusOK, gin.H{"actor": s.session.Actor()})
}

func (s *Service) handleRefresh(c *gin.Context) {
	if err := s.coordinator.Refresh(c.Request.Context()); err != nil {
		// Read failures stay non-fatal; the snapshot carries the detail.
		c.JSON(http.StatusOK, gin.H{"refreshed": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"refreshed": true})
}

func (s *Service) transitionHandler(action lifecycle.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Wildcard params carry their leading slash.
		shipmentID := strings.TrimPrefix(c.Param("id"), "/")
		snap := s.coordinator.Snapshot()

		var shipment *model.Shipment
		for i := range snap.Shipments {
			if snap.Shipments[i].ID == shipmentID {
				shipment = &snap.Shipments[i]
				break
			}
		}
		if shipment == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown shipment"})
			return
		}

		actor := s.actingUser(snap, s.session.Actor())
		patch, err := s.machine.Apply(action, *shipment, actor)
		if err != nil {
			var invalid *lifecycle.InvalidTransitionError
			switch {
			case errors.As(err, &invalid):
				c.JSON(http.StatusConflict, gin.H{"error": invalid.Error()})
			case errors.Is(err, lifecycle.ErrNotEligible):
				c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			default:
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			}
			return
		}

		if err := s.orchestrator.Apply(c.Request.Context(), shipmentID, patch); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": ledger.ExtractMessage(err)})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func (s *Service) handleNotification(c *gin.Context) {
	c.JSON(http.StatusOK, s.notes.Current())
}

func (s *Service) handleDismissNotification(c *gin.Context) {
	s.notes.Dismiss()
	c.JSON(http.StatusOK, gin.H{"dismissed": true})
}
