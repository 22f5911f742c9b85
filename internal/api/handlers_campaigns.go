package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/marketpulse/internal/pkg/httputil"
	"github.com/ignite/marketpulse/internal/service/campaign"
)

// ListCampaigns returns a page of campaigns.
//
//	GET /api/campaigns?status=&platform=&search=&page=&limit=
func (h *Handlers) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	if h.campaigns == nil {
		unavailable(w, "campaign store")
		return
	}
	p := ParsePagination(r, 50, 200)
	q := r.URL.Query()
	items, total, err := h.campaigns.List(r.Context(), campaign.ListFilter{
		Status:   q.Get("status"),
		Platform: q.Get("platform"),
		Search:   q.Get("search"),
		Limit:    p.Limit,
		Offset:   p.Offset,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, NewPaginatedResponse(items, p, total))
}

// GetCampaign returns one campaign.
func (h *Handlers) GetCampaign(w http.ResponseWriter, r *http.Request) {
	if h.campaigns == nil {
		unavailable(w, "campaign store")
		return
	}
	c, err := h.campaigns.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, c)
}

// CreateCampaign validates and stores a campaign.
func (h *Handlers) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	if h.campaigns == nil {
		unavailable(w, "campaign store")
		return
	}
	var input campaign.CreateInput
	if !httputil.Decode(w, r, &input) {
		return
	}
	c, err := h.campaigns.Create(r.Context(), input)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.Created(w, c)
}

// UpdateCampaign applies a partial update.
func (h *Handlers) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	if h.campaigns == nil {
		unavailable(w, "campaign store")
		return
	}
	var u campaign.UpdateFields
	if !httputil.Decode(w, r, &u) {
		return
	}
	c, err := h.campaigns.Update(r.Context(), chi.URLParam(r, "id"), u)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, c)
}

// DeleteCampaign removes a campaign.
func (h *Handlers) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	if h.campaigns == nil {
		unavailable(w, "campaign store")
		return
	}
	if err := h.campaigns.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.NoContent(w)
}

// GetCampaignReport computes or serves the cached report of a campaign.
//
//	GET /api/campaigns/{id}/report?refresh=true
func (h *Handlers) GetCampaignReport(w http.ResponseWriter, r *http.Request) {
	if h.reports == nil {
		unavailable(w, "report service")
		return
	}
	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	res, err := h.reports.Generate(r.Context(), chi.URLParam(r, "id"), refresh)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, res)
}

// ListCampaignReports returns stored report snapshots, newest first.
//
//	GET /api/campaigns/{id}/reports?limit=
func (h *Handlers) ListCampaignReports(w http.ResponseWriter, r *http.Request) {
	if h.reports == nil {
		unavailable(w, "report service")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	snaps, err := h.reports.History(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"reports": snaps, "count": len(snaps)})
}
