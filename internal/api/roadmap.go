package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/ecotrack/ecotrack/internal/metrics"
	"github.com/ecotrack/ecotrack/internal/model"
	"github.com/ecotrack/ecotrack/internal/store"
)

// RoadmapHandler handles the batch pipeline endpoints.
type RoadmapHandler struct {
	DB *sql.DB
}

type createBatchRequest struct {
	Source      string                 `json:"source"`
	TotalWeight float64                `json:"total_weight"`
	Notes       string                 `json:"notes"`
	Items       []store.BatchItemInput `json:"items"`
}

type setStageRequest struct {
	Stage string `json:"stage"`
	Notes string `json:"notes"`
}

// List handles GET /api/roadmap.
func (h *RoadmapHandler) List(w http.ResponseWriter, r *http.Request) {
	batches, err := store.ListBatches(r.Context(), h.DB, UserID(r.Context()))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list batches")
		return
	}
	if batches == nil {
		batches = []model.Batch{}
	}
	jsonResponse(w, http.StatusOK, batches)
}

// Get handles GET /api/roadmap/{id}.
func (h *RoadmapHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid batch id")
		return
	}

	detail, err := store.GetBatchDetail(r.Context(), h.DB, UserID(r.Context()), id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get batch")
		return
	}
	if detail == nil {
		jsonError(w, http.StatusNotFound, "batch not found")
		return
	}

	jsonResponse(w, http.StatusOK, detail)
}

// Create handles POST /api/roadmap.
func (h *RoadmapHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBatchRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Source == "" || len(req.Items) == 0 {
		jsonError(w, http.StatusBadRequest, "source and at least one item required")
		return
	}

	batch, err := store.CreateBatch(r.Context(), h.DB, UserID(r.Context()), req.Source, req.TotalWeight, req.Notes, req.Items)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create batch")
		return
	}

	metrics.BatchesCreated.Inc()
	jsonResponse(w, http.StatusCreated, batch)
}

// SetStage handles PUT /api/roadmap/{id}. Any stage pair is accepted,
// including backwards moves; only membership in the stage vocabulary is
// checked.
func (h *RoadmapHandler) SetStage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid batch id")
		return
	}

	var req setStageRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Stage == "" {
		jsonError(w, http.StatusBadRequest, "stage required")
		return
	}
	if !model.ValidStage(req.Stage) {
		jsonError(w, http.StatusBadRequest, "invalid stage")
		return
	}

	batch, err := store.SetStage(r.Context(), h.DB, UserID(r.Context()), id, req.Stage, req.Notes)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update batch")
		return
	}
	if batch == nil {
		jsonError(w, http.StatusNotFound, "batch not found")
		return
	}

	metrics.StageChanges.Inc()
	jsonResponse(w, http.StatusOK, batch)
}
