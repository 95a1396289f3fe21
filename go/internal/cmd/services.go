package main

import (
	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/racedash/go/internal/config"
	"github.com/mcdev12/racedash/go/internal/gateway"
	"github.com/mcdev12/racedash/go/internal/race"
	"github.com/mcdev12/racedash/go/internal/rpc"
	"github.com/mcdev12/racedash/go/internal/store"
)

type Services struct {
	Store   store.Store
	App     *race.App
	Race    *race.Service
	Gateway *gateway.Service
	Auth    rpc.AdminAuth
}

func setupServices(cfg *config.Config, st store.Store, clock clockwork.Clock) *Services {
	// Wire up dependency injection chain
	// Store → Repository layer → App layer → Service layer
	repo := race.NewRepository(st)
	app := race.NewApp(repo, repo, clock)
	raceService := race.NewService(app)

	auth := rpc.NewAdminAuth(cfg.AdminToken)

	// Gateway reads the same store and serves the dashboard
	gatewayConfig := gateway.DefaultConfig()
	if cfg.TickInterval > 0 {
		gatewayConfig.TickInterval = cfg.TickInterval
	}
	gatewayService := gateway.NewService(gatewayConfig, st, app, auth, clock)

	return &Services{
		Store:   st,
		App:     app,
		Race:    raceService,
		Gateway: gatewayService,
		Auth:    auth,
	}
}
