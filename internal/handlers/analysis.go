package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"nutrition-tracker-backend/internal/middleware"
	"nutrition-tracker-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// AnalysisHandler turns uploaded photos into candidate meals
type AnalysisHandler struct {
	analyzer services.Analyzer
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(analyzer services.Analyzer) *AnalysisHandler {
	return &AnalysisHandler{
		analyzer: analyzer,
	}
}

// AnalysisRequest references the photo to analyze
type AnalysisRequest struct {
	ImageURL string `json:"image_url"`
}

// Analyze handles POST /api/v1/analyses. The candidate is not stored; the
// client accepts it with POST /api/v1/foods.
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ImageURL == "" {
		respondError(w, "image_url is required", http.StatusBadRequest)
		return
	}

	candidate, err := h.analyzer.Analyze(ctx, req.ImageURL)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Debug().Str("user_id", userID).Msg("Analysis cancelled by client")
			return
		}
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to analyze photo")
		respondError(w, "Failed to analyze photo", http.StatusInternalServerError)
		return
	}

	respondJSON(w, candidate, http.StatusOK)
}
