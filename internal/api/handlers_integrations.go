package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/marketpulse/internal/pkg/httputil"
	"github.com/ignite/marketpulse/internal/service/integration"
)

// ListIntegrations returns every integration with masked keys.
func (h *Handlers) ListIntegrations(w http.ResponseWriter, r *http.Request) {
	if h.integrations == nil {
		unavailable(w, "integration store")
		return
	}
	items, err := h.integrations.List(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, items)
}

// GetIntegration returns one integration with its key masked.
func (h *Handlers) GetIntegration(w http.ResponseWriter, r *http.Request) {
	if h.integrations == nil {
		unavailable(w, "integration store")
		return
	}
	in, err := h.integrations.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, in)
}

// CreateIntegration stores a new, disconnected integration.
func (h *Handlers) CreateIntegration(w http.ResponseWriter, r *http.Request) {
	if h.integrations == nil {
		unavailable(w, "integration store")
		return
	}
	var input integration.CreateInput
	if !httputil.Decode(w, r, &input) {
		return
	}
	in, err := h.integrations.Create(r.Context(), input)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.Created(w, in)
}

// UpdateIntegration changes status, key or account.
func (h *Handlers) UpdateIntegration(w http.ResponseWriter, r *http.Request) {
	if h.integrations == nil {
		unavailable(w, "integration store")
		return
	}
	var u integration.UpdateFields
	if !httputil.Decode(w, r, &u) {
		return
	}
	in, err := h.integrations.Update(r.Context(), chi.URLParam(r, "id"), u)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, in)
}

// DeleteIntegration removes an integration.
func (h *Handlers) DeleteIntegration(w http.ResponseWriter, r *http.Request) {
	if h.integrations == nil {
		unavailable(w, "integration store")
		return
	}
	if err := h.integrations.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.NoContent(w)
}
