package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/DocDesk/internal/middleware"
	"github.com/atinyakov/DocDesk/internal/models"
)

// DoctorService defines the profile operations required by DoctorHandler.
type DoctorService interface {
	Get(ctx context.Context, id string) (*models.DoctorProfile, error)
	// Update applies a partial update made of the JSON keys present in patch.
	Update(ctx context.Context, actor *models.User, id string, patch map[string]json.RawMessage) (*models.DoctorProfile, error)
}

// DoctorHandler serves /api/doctors/{id}.
type DoctorHandler struct {
	Doctors DoctorService
	Log     *zap.Logger
}

// Get handles GET /api/doctors/{id}.
func (h *DoctorHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.Doctors.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, models.Response[*models.DoctorProfile]{
		Success: true,
		Message: "doctor found",
		Data:    p,
	})
}

// Update handles PUT /api/doctors/{id}. The body is an object holding only
// the changed profile fields.
func (h *DoctorHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actor := middleware.GetUserFromContext(r.Context())
	p, err := h.Doctors.Update(r.Context(), actor, chi.URLParam(r, "id"), patch)
	if err != nil {
		writeServiceError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, models.Response[*models.DoctorProfile]{
		Success: true,
		Message: "profile updated successfully",
		Data:    p,
	})
}
