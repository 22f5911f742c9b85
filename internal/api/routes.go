package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// OAuthHandlers serves the analytics account connection flow.
type OAuthHandlers interface {
	HandleLogin(w http.ResponseWriter, r *http.Request)
	HandleCallback(w http.ResponseWriter, r *http.Request)
}

// SetupRoutes configures all routes. hc and oauth may be nil.
func SetupRoutes(h *Handlers, hc *HealthChecker, oauth OAuthHandlers, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if hc == nil {
		hc = NewHealthChecker(nil, nil, nil)
	}
	r.Get("/health", hc.HandleHealth)
	r.Get("/health/live", hc.HandleLiveness)
	r.Get("/health/ready", hc.HandleReadiness)

	if oauth != nil {
		r.Get("/auth/google/login", oauth.HandleLogin)
		r.Get("/auth/google/callback", oauth.HandleCallback)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", hc.HandleHealth)

		r.Route("/campaigns", func(r chi.Router) {
			r.Get("/", h.ListCampaigns)
			r.Post("/", h.CreateCampaign)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetCampaign)
				r.Patch("/", h.UpdateCampaign)
				r.Delete("/", h.DeleteCampaign)
				r.Get("/report", h.GetCampaignReport)
				r.Get("/reports", h.ListCampaignReports)
			})
		})

		r.Route("/integrations", func(r chi.Router) {
			r.Get("/", h.ListIntegrations)
			r.Post("/", h.CreateIntegration)
			r.Get("/{id}", h.GetIntegration)
			r.Patch("/{id}", h.UpdateIntegration)
			r.Delete("/{id}", h.DeleteIntegration)
		})

		r.Get("/performance", h.GetPerformance)
		r.Get("/metrics", h.GetMetrics)

		r.Route("/analytics", func(r chi.Router) {
			r.Post("/columns", h.ClassifyColumns)
			r.Post("/match", h.MatchRows)
			r.Post("/report", h.AnalyzeDataset)
			r.Post("/upload", h.AnalyzeUpload)
			r.Post("/projection", h.ProjectScaling)
		})
	})

	return r
}
