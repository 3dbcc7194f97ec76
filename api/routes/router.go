package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shinwarieats/restaurant-backend/api/controllers"
	"github.com/shinwarieats/restaurant-backend/api/middleware"
	authsvc "github.com/shinwarieats/restaurant-backend/internal/auth"
	"github.com/shinwarieats/restaurant-backend/internal/branches"
	"github.com/shinwarieats/restaurant-backend/internal/cart"
	"github.com/shinwarieats/restaurant-backend/internal/categories"
	checkoutsvc "github.com/shinwarieats/restaurant-backend/internal/checkout"
	"github.com/shinwarieats/restaurant-backend/internal/engagement"
	"github.com/shinwarieats/restaurant-backend/internal/loyalty"
	"github.com/shinwarieats/restaurant-backend/internal/orders"
	"github.com/shinwarieats/restaurant-backend/internal/products"
	"github.com/shinwarieats/restaurant-backend/internal/reviews"
	"github.com/shinwarieats/restaurant-backend/internal/users"
	"github.com/shinwarieats/restaurant-backend/pkg/auth/session"
	"github.com/shinwarieats/restaurant-backend/pkg/config"
	"github.com/shinwarieats/restaurant-backend/pkg/db"
	"github.com/shinwarieats/restaurant-backend/pkg/logger"
	"github.com/shinwarieats/restaurant-backend/pkg/metrics"
	"github.com/shinwarieats/restaurant-backend/pkg/redis"
)

// Deps collects everything the HTTP surface needs. Grouping them in a struct
// keeps NewRouter callable from both main and the router tests.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DBPinger       db.Pinger
	RedisPinger    redis.Pinger
	SessionChecker session.AccessSessionChecker
	HTTPMetrics    *metrics.HTTPMetrics
	TxRunner       controllers.LoyaltyTxRunner

	Auth       authsvc.Service
	Users      users.Service
	Products   products.Service
	Categories categories.Service
	Branches   branches.Service
	Cart       cart.Service
	Checkout   checkoutsvc.Service
	Orders     orders.Service
	Loyalty    loyalty.Service
	Reviews    reviews.Service
	Engagement engagement.Service
}

// NewRouter assembles the full route tree.
func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(d.HTTPMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.DBPinger, d.RedisPinger))
	})

	if d.HTTPMetrics != nil {
		r.Method(http.MethodGet, "/metrics", d.HTTPMetrics.Handler())
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", controllers.AuthRegister(d.Auth, logg))
		r.Post("/login", controllers.AuthLogin(d.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(d.Auth, logg))
		r.With(middleware.Auth(cfg.JWT, d.SessionChecker, logg)).Post("/logout", controllers.AuthLogout(d.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Public catalog and engagement surface. The menu takes OptionalAuth
		// so a signed-in customer's stored branch choice scopes the listing.
		r.With(middleware.OptionalAuth(cfg.JWT, d.SessionChecker, logg)).
			Get("/menu", controllers.MenuList(d.Products, d.Branches, logg))
		r.Get("/menu/{slug}", controllers.MenuItemBySlug(d.Products, logg))
		r.Get("/categories", controllers.CategoryList(d.Categories, logg))
		r.Get("/branches", controllers.BranchList(d.Branches, logg))
		r.Get("/products/{productId}/reviews", controllers.ReviewListByProduct(d.Reviews, logg))
		r.Post("/contact", controllers.ContactSubmit(d.Engagement, logg))
		r.Post("/newsletter/subscribe", controllers.NewsletterSubscribe(d.Engagement, logg))
		r.Post("/feedback", controllers.FeedbackSubmit(d.Engagement, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, d.SessionChecker, logg))

			r.Route("/profile", func(r chi.Router) {
				r.Get("/", controllers.ProfileGet(d.Users, logg))
				r.Patch("/", controllers.ProfileUpdate(d.Users, logg))
			})

			r.Route("/branch", func(r chi.Router) {
				r.Get("/", controllers.BranchSelected(d.Branches, logg))
				r.Post("/select", controllers.BranchSelect(d.Branches, logg))
				r.Delete("/", controllers.BranchClearSelection(d.Branches, logg))
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartGet(d.Cart, logg))
				r.Post("/items", controllers.CartAddItem(d.Cart, logg))
				r.Put("/items/{productId}", controllers.CartSetItemQuantity(d.Cart, logg))
				r.Delete("/items/{productId}", controllers.CartRemoveItem(d.Cart, logg))
				r.Delete("/", controllers.CartClear(d.Cart, logg))
			})

			r.Post("/checkout", controllers.CheckoutPlaceOrder(d.Checkout, d.Branches, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrderList(d.Orders, logg))
				r.Get("/{orderId}", controllers.OrderGet(d.Orders, logg))
				r.Post("/{orderId}/cancel", controllers.OrderCancel(d.Orders, logg))
				r.Post("/{orderId}/payment-session", controllers.CheckoutPaymentSession(d.Checkout, logg))
			})

			r.Route("/loyalty", func(r chi.Router) {
				r.Get("/", controllers.LoyaltyProfile(d.Loyalty, logg))
				r.Get("/history", controllers.LoyaltyHistory(d.Loyalty, logg))
				r.Post("/redeem", controllers.LoyaltyRedeem(d.Loyalty, d.TxRunner, logg))
			})

			r.Post("/reviews", controllers.ReviewSubmit(d.Reviews, logg))
			r.Delete("/reviews/{reviewId}", controllers.ReviewDelete(d.Reviews, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, d.SessionChecker, logg))
		r.Use(middleware.RequireStaff(logg))

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.AdminProductCreate(d.Products, logg))
			r.Patch("/{productId}", controllers.AdminProductUpdate(d.Products, logg))
			r.Delete("/{productId}", controllers.AdminProductDelete(d.Products, logg))
			r.Post("/{productId}/availability", controllers.AdminProductSetAvailability(d.Products, logg))
		})

		r.Route("/categories", func(r chi.Router) {
			r.Post("/", controllers.AdminCategoryCreate(d.Categories, logg))
			r.Patch("/{categoryId}", controllers.AdminCategoryUpdate(d.Categories, logg))
			r.Delete("/{categoryId}", controllers.AdminCategoryDelete(d.Categories, logg))
		})

		r.Route("/branches", func(r chi.Router) {
			r.Post("/", controllers.AdminBranchCreate(d.Branches, logg))
			r.Patch("/{branchId}", controllers.AdminBranchUpdate(d.Branches, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrderList(d.Orders, logg))
			r.Get("/{orderId}", controllers.AdminOrderGet(d.Orders, logg))
			r.Post("/{orderId}/status", controllers.AdminOrderUpdateStatus(d.Orders, logg))
		})

		r.Get("/dashboard", controllers.AdminDashboard(d.Orders, logg))
		r.Get("/contact-messages", controllers.AdminContactMessages(d.Engagement, logg))
		r.Get("/feedback", controllers.AdminFeedbackList(d.Engagement, logg))
	})

	return r
}
