package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/racedash/go/internal/rpc"
	"github.com/mcdev12/racedash/go/internal/store"
	"github.com/mcdev12/racedash/go/internal/timer"
)

// Service is the dashboard gateway: it pushes live state to websocket
// clients and serves the pages and state endpoints
type Service struct {
	connectionManager *ConnectionManager
	feed              *Feed
	wsHandler         *WebSocketHandler
	stateHandler      *StateHandler
	auth              rpc.AdminAuth
}

// Config holds configuration for the gateway service
type Config struct {
	ConnectionConfig ConnectionConfig
	TickInterval     time.Duration
}

// DefaultConfig returns default configuration for the gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		TickInterval:     timer.DefaultInterval,
	}
}

// NewService creates a new gateway service
func NewService(config Config, st store.Store, provider StateProvider, auth rpc.AdminAuth, clock clockwork.Clock) *Service {
	connectionManager := NewConnectionManager(config.ConnectionConfig)
	feed := NewFeed(st, connectionManager, clock, config.TickInterval)

	return &Service{
		connectionManager: connectionManager,
		feed:              feed,
		wsHandler:         NewWebSocketHandler(connectionManager, feed, auth),
		stateHandler:      NewStateHandler(provider, auth),
		auth:              auth,
	}
}

// Start runs the gateway until ctx is done
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting gateway service")

	go s.connectionManager.Start(ctx)

	if err := s.feed.Start(ctx); err != nil {
		return fmt.Errorf("failed to start feed: %w", err)
	}

	<-ctx.Done()
	s.feed.Wait()

	log.Info().Msg("gateway service stopped")
	return nil
}

// RegisterRoutes registers the websocket, state and page routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	s.stateHandler.RegisterStateRoutes(mux)
	RegisterPageRoutes(mux, s.feed, s.auth)
	log.Info().Msg("gateway routes registered")
}

// Feed returns the service feed
func (s *Service) Feed() *Feed {
	return s.feed
}

// GetStats returns statistics about the gateway service
func (s *Service) GetStats() ConnectionStats {
	return s.connectionManager.GetConnectionStats()
}
