package api

import (
	"database/sql"
	"net/http"

	"github.com/ecotrack/ecotrack/internal/metrics"
	"github.com/ecotrack/ecotrack/internal/model"
	"github.com/ecotrack/ecotrack/internal/store"
)

// PickupsHandler handles pickup scheduling endpoints.
type PickupsHandler struct {
	DB *sql.DB
}

type createPickupRequest struct {
	Address          string `json:"address"`
	ItemsDescription string `json:"items_description"`
}

// List handles GET /api/pickups.
func (h *PickupsHandler) List(w http.ResponseWriter, r *http.Request) {
	pickups, err := store.ListPickups(r.Context(), h.DB, UserID(r.Context()))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list pickups")
		return
	}
	if pickups == nil {
		pickups = []model.Pickup{}
	}
	jsonResponse(w, http.StatusOK, pickups)
}

// Create handles POST /api/pickups.
func (h *PickupsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPickupRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Address == "" || req.ItemsDescription == "" {
		jsonError(w, http.StatusBadRequest, "address and items_description required")
		return
	}

	pickup, err := store.CreatePickup(r.Context(), h.DB, UserID(r.Context()), req.Address, req.ItemsDescription)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create pickup")
		return
	}
	if pickup == nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	metrics.PickupsCreated.Inc()
	jsonResponse(w, http.StatusCreated, pickup)
}
