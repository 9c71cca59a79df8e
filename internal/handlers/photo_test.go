package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"nutrition-tracker-backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIssuer struct {
	contentType string
	err         error
}

func (f *fakeIssuer) GetUploadURL(ctx context.Context, userID, contentType string) (*services.UploadResponse, error) {
	f.contentType = contentType
	if f.err != nil {
		return nil, f.err
	}
	return &services.UploadResponse{
		UploadURL: "https://s3.example.com/put",
		ImageURL:  "https://cdn.example.com/meals/" + userID + "/a.jpg",
		ExpiresIn: 300,
	}, nil
}

func TestUploadPhotoDefaultsToJPEG(t *testing.T) {
	issuer := &fakeIssuer{}
	h := NewPhotoHandler(issuer)
	rec := httptest.NewRecorder()

	h.UploadPhoto(rec, authed(http.MethodPost, "/api/v1/photos/upload", "", "user-1"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", issuer.contentType)
	var resp services.UploadResponse
	decodeBody(t, rec.Body, &resp)
	assert.Equal(t, "https://cdn.example.com/meals/user-1/a.jpg", resp.ImageURL)
}

func TestUploadPhotoUnsupportedType(t *testing.T) {
	issuer := &fakeIssuer{err: fmt.Errorf("%w %q", services.ErrUnsupportedContentType, "application/pdf")}
	h := NewPhotoHandler(issuer)
	rec := httptest.NewRecorder()

	h.UploadPhoto(rec, authed(http.MethodPost, "/api/v1/photos/upload", `{"content_type":"application/pdf"}`, "user-1"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/pdf", issuer.contentType)
	var resp map[string]string
	decodeBody(t, rec.Body, &resp)
	assert.Contains(t, resp["error"], "application/pdf")
}

func TestUploadPhotoPresignFailureIsServerError(t *testing.T) {
	issuer := &fakeIssuer{err: errors.New("failed to generate pre-signed URL: no EC2 IMDS role found")}
	h := NewPhotoHandler(issuer)
	rec := httptest.NewRecorder()

	h.UploadPhoto(rec, authed(http.MethodPost, "/api/v1/photos/upload", `{"content_type":"image/png"}`, "user-1"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "IMDS")
	var resp map[string]string
	decodeBody(t, rec.Body, &resp)
	assert.Equal(t, "Failed to generate upload URL", resp["error"])
}
