package httpserver

import (
	"context"
	"net/http"
	"time"

	"realtycore/internal/auth"
	"realtycore/internal/httpserver/handlers"
	"realtycore/internal/metrics"
	"realtycore/internal/models"
	"realtycore/internal/storage"
	"realtycore/internal/tracing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Deps struct {
	Store     *storage.Store
	Issuer    *auth.Issuer
	Metrics   *metrics.Metrics
	Logger    *zap.SugaredLogger
	DevUserID int64
}

func NewRouter(d Deps) http.Handler {
	st, lg := d.Store, d.Logger
	if lg == nil {
		lg = zap.NewNop().Sugar()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(lg), middleware.Recoverer, tracing.Middleware)
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := st.Ping(ctx); err != nil {
			lg.Warnw("health check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/register", handlers.Register(st, d.Issuer, lg))
		api.Post("/auth/login", handlers.Login(st, d.Issuer, lg))
		api.Post("/public/leads", handlers.CapturePublicLead(st, lg))
		api.Get("/properties/{id}", handlers.GetProperty(st, lg))

		api.Group(func(protected chi.Router) {
			protected.Use(auth.Authenticate(st.DB(), d.Issuer, d.DevUserID))
			protected.Post("/auth/logout", handlers.Logout(st, lg))
			protected.Get("/users/me", handlers.Me(st, lg))
			protected.Get("/favorites", handlers.ListFavorites(st, lg))
			protected.Post("/favorites/{propertyId}", handlers.ToggleFavorite(st, lg))
			protected.Get("/activities/recent", handlers.RecentActivities(st, lg))
			protected.Get("/activities", handlers.ActivityLogs(st, lg))

			protected.Group(func(staff chi.Router) {
				staff.Use(auth.RequireRole(models.RoleAgent, models.RoleAdmin, models.RoleAssistant))

				staff.Get("/crm/stages", handlers.GetCrmStages(st, lg))
				staff.Get("/crm/stages/config", handlers.GetCrmStageConfigs(st, lg))
				staff.Put("/crm/stages/config", handlers.UpdateCrmStageConfigs(st, lg))
				staff.Get("/crm/leads", handlers.ListLeads(st, lg))
				staff.Post("/crm/leads", handlers.CreateLead(st, lg))
				staff.Get("/crm/leads/{leadId}", handlers.GetLead(st, lg))
				staff.Patch("/crm/leads/{leadId}", handlers.UpdateLeadStage(st, lg))

				staff.Get("/affiliate/marketplace", handlers.GetMarketplace(st, lg))
				staff.Post("/affiliate/request", handlers.RequestAffiliation(st, lg))
				staff.Get("/affiliate/requests", handlers.ListIncomingAffiliations(st, lg))
				staff.Get("/affiliate/mine", handlers.ListMyAffiliations(st, lg))
				staff.Patch("/affiliate/{id}", handlers.UpdateAffiliationStatus(st, lg))

				staff.Get("/properties", handlers.ListProperties(st, lg))
				staff.Post("/properties", handlers.CreateProperty(st, lg))
				staff.Put("/properties/{id}", handlers.UpdateProperty(st, lg))
				staff.Delete("/properties/{id}", handlers.DeleteProperty(st, lg))
				staff.Put("/properties/{id}/affiliation", handlers.SetPropertyAffiliation(st, lg))

				staff.Get("/developments", handlers.ListDevelopments(st, lg))
				staff.Post("/developments", handlers.CreateDevelopment(st, lg))
				staff.Put("/developments/{id}", handlers.UpdateDevelopment(st, lg))
				staff.Delete("/developments/{id}", handlers.DeleteDevelopment(st, lg))
				staff.Get("/developments/{id}/units", handlers.ListUnits(st, lg))
				staff.Post("/developments/{id}/units", handlers.CreateUnit(st, lg))

				staff.Get("/documents", handlers.ListDocuments(st, lg))
				staff.Post("/documents", handlers.CreateDocument(st, lg))
				staff.Patch("/documents/{id}", handlers.UpdateDocumentStatus(st, lg))
				staff.Delete("/documents/{id}", handlers.DeleteDocument(st, lg))

				staff.Get("/users/me/website", handlers.GetWebsite(st, lg))
				staff.Put("/users/me/website", handlers.UpdateWebsite(st, lg))
				staff.Get("/dashboard", handlers.Dashboard(st, lg))
			})
		})
	})
	return r
}
