package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/racedash/go/internal/models"
	"github.com/mcdev12/racedash/go/internal/race"
	"github.com/mcdev12/racedash/go/internal/roster"
	"github.com/mcdev12/racedash/go/internal/rpc"
	"github.com/mcdev12/racedash/go/internal/timer"
)

// StateProvider defines what the state handler needs from the race app
type StateProvider interface {
	Now() time.Time
	GetTimer(ctx context.Context) (*models.TimerRecord, error)
	ListDrivers(ctx context.Context) (models.Drivers, error)
	ExportDrivers(ctx context.Context) (models.Drivers, error)
}

// StateResponse represents the complete dashboard state
type StateResponse struct {
	Timer   TimerState   `json:"timer"`
	Drivers []roster.Row `json:"drivers"`
}

// TimerState is the stored record plus its display at read time
type TimerState struct {
	models.TimerRecord
	Display string `json:"display"`
}

// StateHandler handles HTTP requests for dashboard state
type StateHandler struct {
	stateProvider StateProvider
	auth          rpc.AdminAuth
}

// NewStateHandler creates a new state handler
func NewStateHandler(provider StateProvider, auth rpc.AdminAuth) *StateHandler {
	return &StateHandler{
		stateProvider: provider,
		auth:          auth,
	}
}

// HandleGetState handles GET /api/state
func (h *StateHandler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rec, err := h.stateProvider.GetTimer(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to get timer state")
		http.Error(w, "Failed to get timer state", http.StatusInternalServerError)
		return
	}
	drivers, err := h.stateProvider.ListDrivers(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to get drivers")
		http.Error(w, "Failed to get drivers", http.StatusInternalServerError)
		return
	}

	state := StateResponse{
		Timer: TimerState{
			TimerRecord: *rec,
			Display:     timer.FormatElapsed(timer.Displayed(rec, h.stateProvider.Now())),
		},
		Drivers: roster.Project(drivers),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(state); err != nil {
		log.Error().Err(err).Msg("failed to encode state response")
	}
}

// HandleExportDrivers handles GET /api/drivers/export
func (h *StateHandler) HandleExportDrivers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !h.auth.Authorized(r) {
		http.Error(w, "Admin token required", http.StatusUnauthorized)
		return
	}

	drivers, err := h.stateProvider.ExportDrivers(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to export drivers")
		http.Error(w, "Failed to export drivers", http.StatusInternalServerError)
		return
	}
	data, err := race.MarshalExport(drivers)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal export")
		http.Error(w, "Failed to export drivers", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+race.ExportFilename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if _, err := w.Write(data); err != nil {
		log.Error().Err(err).Msg("failed to write export")
	}
}

// RegisterStateRoutes registers state-related HTTP routes
func (h *StateHandler) RegisterStateRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/state", h.HandleGetState)
	mux.HandleFunc("/api/drivers/export", h.HandleExportDrivers)
}
