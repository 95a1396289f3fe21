package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/racedash/go/internal/roster"
	"github.com/mcdev12/racedash/go/internal/rpc"
)

// WebSocketHandler handles WebSocket upgrade requests for dashboard surfaces
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	feed              *Feed
	auth              rpc.AdminAuth
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(cm *ConnectionManager, feed *Feed, auth rpc.AdminAuth) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		feed:              feed,
		auth:              auth,
	}
}

// HandleViewerConnection handles GET /ws
func (h *WebSocketHandler) HandleViewerConnection(w http.ResponseWriter, r *http.Request) {
	h.upgrade(w, r, roster.ModeViewer)
}

// HandleAdminConnection handles GET /ws/admin, which requires the admin token
func (h *WebSocketHandler) HandleAdminConnection(w http.ResponseWriter, r *http.Request) {
	if !h.auth.Authorized(r) {
		http.Error(w, "Admin token required", http.StatusUnauthorized)
		return
	}
	h.upgrade(w, r, roster.ModeAdmin)
}

func (h *WebSocketHandler) upgrade(w http.ResponseWriter, r *http.Request, mode roster.Mode) {
	// Upgrade writes its own error response on failure
	if err := h.connectionManager.UpgradeConnection(w, r, mode, h.feed.InitialEvents); err != nil {
		log.Error().
			Err(err).
			Str("mode", string(mode)).
			Msg("failed to upgrade WebSocket connection")
	}
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.connectionManager.GetConnectionStats()); err != nil {
		log.Error().Err(err).Msg("failed to encode connection stats")
	}
}

// RegisterRoutes registers WebSocket routes with an HTTP mux
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", h.HandleViewerConnection)
	mux.HandleFunc("/ws/admin", h.HandleAdminConnection)
	mux.HandleFunc("/ws/stats", h.HandleConnectionStats)
}
