package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/shinwarieats/restaurant-backend/api/routes"
	"github.com/shinwarieats/restaurant-backend/internal/auth"
	"github.com/shinwarieats/restaurant-backend/internal/branches"
	"github.com/shinwarieats/restaurant-backend/internal/cart"
	"github.com/shinwarieats/restaurant-backend/internal/categories"
	"github.com/shinwarieats/restaurant-backend/internal/checkout"
	"github.com/shinwarieats/restaurant-backend/internal/engagement"
	"github.com/shinwarieats/restaurant-backend/internal/loyalty"
	"github.com/shinwarieats/restaurant-backend/internal/orders"
	"github.com/shinwarieats/restaurant-backend/internal/products"
	"github.com/shinwarieats/restaurant-backend/internal/reviews"
	"github.com/shinwarieats/restaurant-backend/internal/users"
	"github.com/shinwarieats/restaurant-backend/pkg/auth/session"
	"github.com/shinwarieats/restaurant-backend/pkg/config"
	"github.com/shinwarieats/restaurant-backend/pkg/db"
	"github.com/shinwarieats/restaurant-backend/pkg/env"
	"github.com/shinwarieats/restaurant-backend/pkg/logger"
	"github.com/shinwarieats/restaurant-backend/pkg/metrics"
	"github.com/shinwarieats/restaurant-backend/pkg/migrate"
	"github.com/shinwarieats/restaurant-backend/pkg/outbox"
	"github.com/shinwarieats/restaurant-backend/pkg/payments"
	"github.com/shinwarieats/restaurant-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	var stripeClient payments.SessionCreator
	if cfg.Payment.StripeAPIKey != "" {
		client, err := payments.NewClient(context.Background(), cfg.Payment, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create stripe client", err)
			os.Exit(1)
		}
		stripeClient = client
	} else {
		logg.Warn(context.Background(), "stripe api key not set, payment sessions disabled")
	}

	gormDB := dbClient.DB()
	outboxSvc := outbox.NewService(outbox.NewRepository(gormDB), logg)

	userRepo := users.NewRepository(gormDB)
	productRepo := products.NewRepository(gormDB)
	cartRepo := cart.NewRepository(gormDB)
	orderRepo := orders.NewRepository(gormDB)

	userService, err := users.NewService(userRepo)
	exitOnError(logg, "user service", err)

	productService, err := products.NewService(productRepo)
	exitOnError(logg, "product service", err)

	categoryService, err := categories.NewService(categories.NewRepository(gormDB))
	exitOnError(logg, "category service", err)

	branchService, err := branches.NewService(branches.NewRepository(gormDB), redisClient)
	exitOnError(logg, "branch service", err)

	cartService, err := cart.NewService(cartRepo, productRepo)
	exitOnError(logg, "cart service", err)

	loyaltyService, err := loyalty.NewService(loyalty.NewRepository(gormDB), cfg.Loyalty)
	exitOnError(logg, "loyalty service", err)

	orderService, err := orders.NewService(orderRepo, dbClient, outboxSvc)
	exitOnError(logg, "order service", err)

	checkoutService, err := checkout.NewService(cartRepo, orderRepo, loyaltyService, dbClient, outboxSvc, stripeClient, cfg.Checkout, logg)
	exitOnError(logg, "checkout service", err)

	reviewService, err := reviews.NewService(reviews.NewRepository(gormDB), productRepo)
	exitOnError(logg, "review service", err)

	engagementService, err := engagement.NewService(engagement.NewRepository(gormDB), dbClient, outboxSvc)
	exitOnError(logg, "engagement service", err)

	authService, err := auth.NewService(
		userRepo,
		dbClient,
		sessionManager,
		redisClient,
		loyaltyService,
		cartService,
		outboxSvc,
		cfg.JWT,
		cfg.Password,
		cfg.AuthRateLimit,
		logg,
	)
	exitOnError(logg, "auth service", err)

	httpMetrics := metrics.NewHTTPMetrics()

	router := routes.NewRouter(routes.Deps{
		Config:         cfg,
		Logger:         logg,
		DBPinger:       dbClient,
		RedisPinger:    redisClient,
		SessionChecker: sessionManager,
		HTTPMetrics:    httpMetrics,
		TxRunner:       dbClient,
		Auth:           authService,
		Users:          userService,
		Products:       productService,
		Categories:     categoryService,
		Branches:       branchService,
		Cart:           cartService,
		Checkout:       checkoutService,
		Orders:         orderService,
		Loyalty:        loyaltyService,
		Reviews:        reviewService,
		Engagement:     engagementService,
	})

	addr := ":" + env.Get("PORT", cfg.App.Port)
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutting down api server")
		drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

func exitOnError(logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to create "+resource, err)
	os.Exit(1)
}
