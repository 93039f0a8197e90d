package httpserver

import (
	"net/http"
	"time"

	"fridge-app-go/internal/config"
	"fridge-app-go/internal/metrics"
	"fridge-app-go/internal/transport/httpserver/handler"
	authmw "fridge-app-go/internal/transport/httpserver/middleware"
	"fridge-app-go/pkg/logger"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

const requestTimeout = 30 * time.Second

func NewRouter(cfg config.Config, handlers *handler.Handlers, profiles authmw.ProfileEnsurer, m *metrics.Metrics, log logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	if m != nil {
		r.Use(m.Middleware)
	}
	r.Use(authmw.NewCORS(cfg.CORSAllowedOrigins))

	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.With(chimw.Timeout(requestTimeout)).Get("/health", handlers.Common.Health)

		auth := authmw.NewSupabaseAuth(cfg.Supabase, profiles, log)
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			// Long-lived; no request timeout.
			r.Get("/stream", handlers.Stream.Stream)

			r.Group(func(r chi.Router) {
				r.Use(chimw.Timeout(requestTimeout))

				r.Get("/auth/me", handlers.Common.AuthMe)
				r.Post("/auth/signout", handlers.Common.SignOut)

				r.Get("/profile", handlers.Common.GetProfile)
				r.Patch("/profile", handlers.Common.UpdateProfile)
				r.Put("/profile/current-fridge", handlers.Common.SetCurrentFridge)

				r.Get("/fridges", handlers.Fridges.ListFridges)
				r.Post("/fridges", handlers.Fridges.CreateFridge)
				r.Post("/fridges/join", handlers.Fridges.JoinFridge)

				r.Route("/fridges/{fridge_id}", func(r chi.Router) {
					r.Get("/", handlers.Fridges.GetFridge)
					r.Patch("/", handlers.Fridges.RenameFridge)
					r.Delete("/", handlers.Fridges.DeleteFridge)
					r.Post("/leave", handlers.Fridges.LeaveFridge)
					r.Post("/transfer", handlers.Fridges.TransferOwnership)
					r.Get("/members", handlers.Fridges.ListMembers)

					r.Get("/stock", handlers.Inventory.ListStock)
					r.Post("/stock", handlers.Inventory.AddItem)
					r.Post("/stock/{item_id}/remove", handlers.Inventory.RemoveQuantity)
					r.Get("/groups", handlers.Inventory.ListGroups)
					r.Post("/groups/remove", handlers.Inventory.BulkRemove)
					r.Delete("/groups/{group_id}", handlers.Inventory.DeleteGroup)
					r.Get("/history", handlers.Inventory.ListHistory)

					r.Get("/shopping", handlers.Shopping.ListEntries)
					r.Post("/shopping", handlers.Shopping.Promote)
					r.Patch("/shopping/{entry_id}", handlers.Shopping.UpdateEntry)
					r.Delete("/shopping/{entry_id}", handlers.Shopping.DeleteEntry)
					r.Post("/shopping/{entry_id}/purchase", handlers.Shopping.MarkPurchased)
				})

				r.Get("/barcodes/{code}", handlers.Inventory.LookupBarcode)
				r.Get("/shopping/candidates", handlers.Shopping.Candidates)
				r.Get("/admin/membership-audit", handlers.Fridges.MembershipAudit)
			})
		})
	})

	return r
}
