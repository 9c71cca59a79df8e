package handlers

import (
	"encoding/json"
	"net/http"

	"nutrition-tracker-backend/internal/middleware"
	"nutrition-tracker-backend/internal/models"
	"nutrition-tracker-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// FoodHandler handles food log HTTP requests
type FoodHandler struct {
	sessions *services.SessionManager
}

// NewFoodHandler creates a new food handler
func NewFoodHandler(sessions *services.SessionManager) *FoodHandler {
	return &FoodHandler{
		sessions: sessions,
	}
}

// FoodsResponse lists today's meals with their totals
type FoodsResponse struct {
	Foods  []models.FoodEntry     `json:"foods"`
	Totals models.NutritionTotals `json:"totals"`
	Window services.Window        `json:"window"`
	State  services.StoreState    `json:"state"`
}

func foodsResponse(store *services.FoodLogStore) FoodsResponse {
	foods, totals := store.Snapshot()
	return FoodsResponse{
		Foods:  foods,
		Totals: totals,
		Window: store.Window(),
		State:  store.State(),
	}
}

// GetFoods handles GET /api/v1/foods
func (h *FoodHandler) GetFoods(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := h.sessions.Get(ctx, middleware.GetUserID(ctx))

	respondJSON(w, foodsResponse(session.Foods), http.StatusOK)
}

// RefreshFoods handles POST /api/v1/foods/refresh
func (h *FoodHandler) RefreshFoods(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := h.sessions.Get(ctx, middleware.GetUserID(ctx))

	session.Foods.Refresh(ctx)

	respondJSON(w, foodsResponse(session.Foods), http.StatusOK)
}

// AddFood handles POST /api/v1/foods, accepting an analyzed meal
func (h *FoodHandler) AddFood(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req models.NewFoodEntry
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Name == "" {
		respondError(w, "name is required", http.StatusBadRequest)
		return
	}
	if req.Image == "" {
		respondError(w, "image is required", http.StatusBadRequest)
		return
	}
	if n := req.Nutrition; n.Calories < 0 || n.Protein < 0 || n.Vegetables < 0 ||
		n.Carbs < 0 || n.Fiber < 0 || n.Sugar < 0 {
		respondError(w, "nutrition values must not be negative", http.StatusBadRequest)
		return
	}

	session := h.sessions.Get(ctx, userID)
	entry, ok := session.Foods.AddFood(ctx, req)
	if !ok {
		respondError(w, "Failed to save meal", http.StatusBadGateway)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("food_id", entry.ID).
		Int("calories", entry.Nutrition.Calories).
		Msg("Meal logged")

	respondJSON(w, entry, http.StatusCreated)
}

// DeleteFood handles DELETE /api/v1/foods/{food_id}
func (h *FoodHandler) DeleteFood(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	foodID := chi.URLParam(r, "food_id")

	if _, err := uuid.Parse(foodID); err != nil {
		respondError(w, "food_id must be a UUID", http.StatusBadRequest)
		return
	}

	session := h.sessions.Get(ctx, userID)
	if !session.Foods.DeleteFood(ctx, foodID) {
		respondError(w, "Failed to delete meal", http.StatusBadGateway)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("food_id", foodID).
		Msg("Meal deleted")

	w.WriteHeader(http.StatusNoContent)
}
