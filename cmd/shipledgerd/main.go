package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/shipledger/shipledger/internal/config"
	"github.com/shipledger/shipledger/internal/identity"
	"github.com/shipledger/shipledger/internal/ledger"
	"github.com/shipledger/shipledger/internal/lifecycle"
	"github.com/shipledger/shipledger/internal/observability"
	"github.com/shipledger/shipledger/internal/server"
)

func main() {
	configPath := flag.String("config", "shipledger.toml", "path to TOML config")
	flag.Parse()

	logger := observability.InitLogger("shipledgerd")
	observability.RegisterMetrics()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error().Err(err).Msg("config load failed")
		os.Exit(1)
	}

	keyring := identity.NewKeyring(identity.SigningKey{
		PrivateKey: cfg.Identity.RootKey,
		DID:        cfg.Identity.RootDID,
	})
	for _, actor := range cfg.Identity.Actors {
		keyring.Bind(actor.Actor, identity.SigningKey{
			PrivateKey: actor.Key,
			DID:        actor.DID,
		})
	}

	registry := ledger.NewRegistry(cfg.Ledger.Name, ledger.HostConfig{
		Host: cfg.Ledger.Host,
		Port: cfg.Ledger.Port,
	})
	defer registry.Close()

	machineOpts := []lifecycle.Option{}
	if cfg.Lifecycle.EnforceGuard {
		machineOpts = append(machineOpts, lifecycle.WithGuard(lifecycle.LocationRoleGuard))
	}
	machine := lifecycle.NewMachine(machineOpts...)

	svc := server.NewService(server.Config{
		Addr:        cfg.Server.Addr,
		CorsOrigins: cfg.Server.CorsOrigins,
	}, keyring, registry, machine, logger)

	// Warm the collections before serving; a failure here is the same
	// non-fatal stale state the rendering layer already handles.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := svc.Coordinator().Refresh(ctx); err != nil {
		logger.Warn().Err(err).Msg("initial fetch failed, serving stale view")
	}
	cancel()

	if err := svc.Run(); err != nil {
		logger.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
}
