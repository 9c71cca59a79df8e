package handlers

import (
	"net/http"
	"time"

	"nutrition-tracker-backend/internal/middleware"
	"nutrition-tracker-backend/internal/models"
	"nutrition-tracker-backend/internal/nutrition"
	"nutrition-tracker-backend/internal/services"
)

// SummaryHandler serves the evaluated daily summary
type SummaryHandler struct {
	sessions *services.SessionManager
	now      func() time.Time
}

// NewSummaryHandler creates a new summary handler
func NewSummaryHandler(sessions *services.SessionManager) *SummaryHandler {
	return &SummaryHandler{
		sessions: sessions,
		now:      time.Now,
	}
}

// SummaryResponse combines today's meals with their evaluation
type SummaryResponse struct {
	nutrition.Summary
	Foods []models.FoodEntry `json:"foods"`
	Goals models.UserGoals   `json:"goals"`
}

// GetSummary handles GET /api/v1/summary
func (h *SummaryHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := h.sessions.Get(ctx, middleware.GetUserID(ctx))

	foods, totals := session.Foods.Snapshot()
	goals := session.Goals.Goals()

	respondJSON(w, SummaryResponse{
		Summary: nutrition.Evaluate(totals, goals, h.now()),
		Foods:   foods,
		Goals:   goals,
	}, http.StatusOK)
}
