package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"nutrition-tracker-backend/internal/middleware"
	"nutrition-tracker-backend/internal/models"
	"nutrition-tracker-backend/internal/nutrition"
	"nutrition-tracker-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// GoalHandler handles goal-related HTTP requests
type GoalHandler struct {
	sessions *services.SessionManager
	now      func() time.Time
}

// NewGoalHandler creates a new goal handler
func NewGoalHandler(sessions *services.SessionManager) *GoalHandler {
	return &GoalHandler{
		sessions: sessions,
		now:      time.Now,
	}
}

// GoalsResponse is the goal snapshot with its store state
type GoalsResponse struct {
	Goals models.UserGoals    `json:"goals"`
	State services.StoreState `json:"state"`
}

// GetGoals handles GET /api/v1/goals
func (h *GoalHandler) GetGoals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := h.sessions.Get(ctx, middleware.GetUserID(ctx))

	respondJSON(w, GoalsResponse{
		Goals: session.Goals.Goals(),
		State: session.Goals.State(),
	}, http.StatusOK)
}

// UpdateGoals handles PUT /api/v1/goals
func (h *GoalHandler) UpdateGoals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req models.UserGoals
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	session := h.sessions.Get(ctx, userID)
	goals, ok := session.Goals.CompleteGoals(ctx, req)
	if !ok {
		respondError(w, "Failed to load stored goals", http.StatusBadGateway)
		return
	}
	if err := goals.Validate(); err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if !session.Goals.UpdateGoals(ctx, goals) {
		respondError(w, "Failed to save goals", http.StatusBadGateway)
		return
	}

	log.Info().
		Str("user_id", userID).
		Int("daily_calories", goals.DailyCalories).
		Msg("Goals saved")

	respondJSON(w, GoalsResponse{
		Goals: session.Goals.Goals(),
		State: session.Goals.State(),
	}, http.StatusOK)
}

// GetSuggestion handles GET /api/v1/goals/suggestion for the stored goals
// and POST /api/v1/goals/suggestion for a draft that has not been saved
func (h *GoalHandler) GetSuggestion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := h.sessions.Get(ctx, middleware.GetUserID(ctx))

	goals := session.Goals.Goals()
	if r.Method == http.MethodPost {
		if err := json.NewDecoder(r.Body).Decode(&goals); err != nil {
			respondError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	respondJSON(w, nutrition.Suggest(goals, h.now()), http.StatusOK)
}
