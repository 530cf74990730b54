package http

import (
	"net/http"

	"github.com/atinyakov/DocDesk/internal/models"
)

// FAQHandler serves the static FAQ list.
type FAQHandler struct {
	FAQs []models.FAQ
}

// List handles GET /api/faqs.
func (h *FAQHandler) List(w http.ResponseWriter, r *http.Request) {
	faqs := h.FAQs
	if faqs == nil {
		faqs = []models.FAQ{}
	}
	writeJSON(w, http.StatusOK, models.Response[[]models.FAQ]{Success: true, Message: "ok", Data: faqs})
}
