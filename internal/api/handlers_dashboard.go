package api

import (
	"net/http"
	"strconv"

	"github.com/ignite/marketpulse/internal/pkg/httputil"
	"github.com/ignite/marketpulse/internal/service/dashboard"
)

// GetPerformance returns daily performance rows.
//
//	GET /api/performance?from=2024-03-01&to=2024-03-31&platform=&campaign_id=
func (h *Handlers) GetPerformance(w http.ResponseWriter, r *http.Request) {
	if h.dashboard == nil {
		unavailable(w, "performance store")
		return
	}
	q := r.URL.Query()
	rows, err := h.dashboard.Performance(r.Context(), dashboard.PerformanceFilter{
		From:       q.Get("from"),
		To:         q.Get("to"),
		Platform:   q.Get("platform"),
		CampaignID: q.Get("campaign_id"),
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, rows)
}

// GetMetrics returns the dashboard KPI tiles.
//
//	GET /api/metrics?period=7
func (h *Handlers) GetMetrics(w http.ResponseWriter, r *http.Request) {
	if h.dashboard == nil {
		unavailable(w, "performance store")
		return
	}
	period := 7
	if v := r.URL.Query().Get("period"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 366 {
			httputil.BadRequest(w, "period must be a number of days between 1 and 366")
			return
		}
		period = n
	}
	tiles, err := h.dashboard.KPITiles(r.Context(), period)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, tiles)
}
