package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"nutrition-tracker-backend/internal/middleware"
	"nutrition-tracker-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// UploadURLIssuer issues pre-signed upload URLs for meal photos
type UploadURLIssuer interface {
	GetUploadURL(ctx context.Context, userID, contentType string) (*services.UploadResponse, error)
}

// PhotoHandler handles meal photo HTTP requests
type PhotoHandler struct {
	photoService UploadURLIssuer
}

// NewPhotoHandler creates a new photo handler
func NewPhotoHandler(photoService UploadURLIssuer) *PhotoHandler {
	return &PhotoHandler{
		photoService: photoService,
	}
}

// UploadPhoto handles POST /api/v1/photos/upload
func (h *PhotoHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req services.UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.ContentType == "" {
		req.ContentType = "image/jpeg" // Default
	}

	response, err := h.photoService.GetUploadURL(ctx, userID, req.ContentType)
	if errors.Is(err, services.ErrUnsupportedContentType) {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("content_type", req.ContentType).
			Msg("Failed to generate pre-signed URL")

		respondError(w, "Failed to generate upload URL", http.StatusInternalServerError)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("image_url", response.ImageURL).
		Msg("Pre-signed URL generated")

	respondJSON(w, response, http.StatusOK)
}
