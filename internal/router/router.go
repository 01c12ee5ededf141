package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rasoi-app/api/internal/config"
	"github.com/rasoi-app/api/internal/database"
	"github.com/rasoi-app/api/internal/enum"
	"github.com/rasoi-app/api/internal/handler"
	invhandler "github.com/rasoi-app/api/internal/inventory/handler"
	mw "github.com/rasoi-app/api/internal/middleware"
	"github.com/rasoi-app/api/internal/service"
	"github.com/rasoi-app/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// The storefront routes (menu, checkout) are public; everything under /admin
// requires authentication, with mutations restricted to admins.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret, cfg.AllowRegistration)
	r.Route("/auth", authHandler.RegisterRoutes)

	// Storefront routes (public, no account needed to browse or order)
	menuHandler := handler.NewMenuHandler(queries)
	r.Route("/menu", menuHandler.RegisterRoutes)

	checkoutService := service.NewCheckoutService(pool, func(db database.DBTX) service.CheckoutStore {
		return database.New(db)
	})
	checkoutHandler := handler.NewCheckoutHandler(checkoutService, hub)
	r.Route("/orders", checkoutHandler.RegisterRoutes)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Back-office routes (require authentication)
	r.Route("/admin", func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))
		r.Use(mw.RequireRole(enum.UserRoleAdmin, enum.UserRoleStaff))

		// Orders
		orderHandler := handler.NewOrderHandler(
			queries,
			pool,
			func(db database.DBTX) handler.OrderStore {
				return database.New(db)
			},
			cfg.PurgeConfirmCode,
			hub,
		)
		r.Route("/orders", orderHandler.RegisterRoutes)

		// Catalog
		productHandler := handler.NewProductHandler(queries)
		r.Route("/products", productHandler.RegisterRoutes)

		// Earnings report + exports
		earningsHandler := handler.NewEarningsHandler(queries)
		r.Route("/earnings", earningsHandler.RegisterRoutes)

		exportHandler := handler.NewExportHandler(queries)
		r.Route("/export", exportHandler.RegisterRoutes)

		// Invested-items inventory
		r.Route("/inventory", func(r chi.Router) {
			masterHandler := invhandler.NewMasterHandler(queries, queries)
			masterHandler.RegisterRoutes(r)

			purchaseHandler := invhandler.NewPurchaseHandler(queries)
			purchaseHandler.RegisterRoutes(r)
		})
	})

	return r
}
