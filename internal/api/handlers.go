package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/ignite/marketpulse/internal/analytics"
	"github.com/ignite/marketpulse/internal/domain"
	"github.com/ignite/marketpulse/internal/pkg/httputil"
	"github.com/ignite/marketpulse/internal/service/campaign"
	"github.com/ignite/marketpulse/internal/service/dashboard"
	"github.com/ignite/marketpulse/internal/service/integration"
	"github.com/ignite/marketpulse/internal/service/report"
	"github.com/ignite/marketpulse/internal/storage"
)

// CampaignService is the campaign CRUD surface used by the handlers.
type CampaignService interface {
	Get(ctx context.Context, id string) (*domain.Campaign, error)
	List(ctx context.Context, f campaign.ListFilter) ([]domain.Campaign, int, error)
	Create(ctx context.Context, input campaign.CreateInput) (*domain.Campaign, error)
	Update(ctx context.Context, id string, u campaign.UpdateFields) (*domain.Campaign, error)
	Delete(ctx context.Context, id string) error
}

// IntegrationService is the integration CRUD surface used by the handlers.
type IntegrationService interface {
	Get(ctx context.Context, id string) (*domain.Integration, error)
	List(ctx context.Context) ([]domain.Integration, error)
	Create(ctx context.Context, input integration.CreateInput) (*domain.Integration, error)
	Update(ctx context.Context, id string, u integration.UpdateFields) (*domain.Integration, error)
	Delete(ctx context.Context, id string) error
}

// DashboardService serves performance rows and KPI tiles.
type DashboardService interface {
	Performance(ctx context.Context, f dashboard.PerformanceFilter) ([]domain.PerformanceData, error)
	KPITiles(ctx context.Context, periodDays int) ([]domain.Metric, error)
}

// ReportService computes and lists campaign reports.
type ReportService interface {
	Generate(ctx context.Context, campaignID string, refresh bool) (*report.Result, error)
	History(ctx context.Context, campaignID string, limit int) ([]storage.Snapshot, error)
}

// Handlers contains all HTTP handlers
type Handlers struct {
	campaigns    CampaignService
	integrations IntegrationService
	dashboard    DashboardService
	reports      ReportService
	engine       *analytics.Engine
	scalingPct   float64
}

// NewHandlers creates a new Handlers instance. Nil services leave their
// routes answering 503.
func NewHandlers(campaigns CampaignService, integrations IntegrationService, dash DashboardService, reports ReportService, engine *analytics.Engine) *Handlers {
	if engine == nil {
		engine = analytics.NewEngine(analytics.DefaultThresholds())
	}
	return &Handlers{
		campaigns:    campaigns,
		integrations: integrations,
		dashboard:    dash,
		reports:      reports,
		engine:       engine,
		scalingPct:   25,
	}
}

// SetDefaultScalingIncrease sets the increase used when a projection
// request gives none.
func (h *Handlers) SetDefaultScalingIncrease(pct float64) {
	if pct > 0 {
		h.scalingPct = pct
	}
}

// respondServiceError maps service sentinel errors onto HTTP statuses.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, campaign.ErrNotFound):
		httputil.NotFound(w, "campaign not found")
	case errors.Is(err, integration.ErrNotFound):
		httputil.NotFound(w, "integration not found")
	case errors.Is(err, campaign.ErrInvalidInput), errors.Is(err, integration.ErrInvalidInput):
		httputil.ValidationFailed(w, err)
	case errors.Is(err, dashboard.ErrInvalidPeriod):
		httputil.BadRequest(w, err.Error())
	case errors.Is(err, integration.ErrNoToken):
		httputil.Conflict(w, "integration is not connected")
	case errors.Is(err, report.ErrNoData):
		httputil.ErrorWithCode(w, http.StatusUnprocessableEntity, "no_data", "no report source returned data", nil)
	case errors.Is(err, context.DeadlineExceeded):
		respondSafeError(w, http.StatusGatewayTimeout, err)
	default:
		respondSafeError(w, http.StatusInternalServerError, err)
	}
}

func unavailable(w http.ResponseWriter, what string) {
	httputil.ServiceUnavailable(w, what+" is not configured")
}
