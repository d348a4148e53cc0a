package main

import (
	"Brokerage/internal/config"
	"Brokerage/internal/http_client"
	"Brokerage/internal/services/auth"
	"Brokerage/internal/services/funds"
	"Brokerage/internal/services/market"
	"Brokerage/internal/services/order"
	"Brokerage/internal/services/payment"
	"Brokerage/internal/services/portfolio"
	"Brokerage/internal/services/valuation"
	"Brokerage/internal/storage/postgres"
	"Brokerage/internal/storage/redis"
	handler "Brokerage/transport"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/stripe/stripe-go/v82/client"
)

const (
	envLocal = "local"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("starting application", slog.String("env", cfg.Env))

	storage, err := postgres.New(cfg.PostgresCfg.ConnString())
	if err != nil {
		log.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer storage.Close()

	redisClient := redis.New(cfg.RedisCfg)
	quoteClient := http_client.New(cfg.QuoteProvider, *log)

	stripeClient := &client.API{}
	stripeClient.Init(cfg.Stripe.SecretKey, nil)

	validate := validator.New()

	pricer := valuation.NewPricer(*log, redisClient, quoteClient)
	authService := auth.New(*log, storage, cfg.Auth.Secret, cfg.Auth.TokenTTL)
	orderService := order.New(*log, storage, storage, storage, storage)
	portfolioService := portfolio.New(*log, storage, storage, pricer, orderService,
		cfg.QuoteProvider.HoldingsTTL, cfg.QuoteProvider.PositionsTTL)
	fundsService := funds.New(*log, storage)
	marketService := market.New(*log, storage, pricer, quoteClient, cfg.QuoteProvider.WatchlistTTL)
	paymentService := payment.New(*log, stripeClient.PaymentIntents, fundsService, "")

	authHandler := handler.NewAuthHandler(log, authService, validate, cfg.Auth.TokenTTL)
	orderHandler := handler.NewOrderHandler(log, orderService, validate)
	holdingsHandler := handler.NewHoldingsHandler(log, portfolioService, validate)
	positionsHandler := handler.NewPositionsHandler(log, portfolioService, validate)
	fundsHandler := handler.NewFundsHandler(log, fundsService, validate)
	paymentHandler := handler.NewPaymentHandler(log, paymentService, validate)
	marketHandler := handler.NewMarketHandler(log, marketService, validate)
	summaryHandler := handler.NewSummaryHandler(log, portfolioService)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.HTTPServer.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Mount("/api/auth", authHandler.Routes())

	r.Group(func(r chi.Router) {
		r.Use(handler.AuthMiddleware(log, authService))

		r.Mount("/api/orders", orderHandler.Routes())
		r.Mount("/api/holdings", holdingsHandler.Routes())
		r.Mount("/api/positions", positionsHandler.Routes())
		r.Mount("/api/funds", fundsHandler.Routes())
		r.Mount("/api/payment", paymentHandler.Routes())
		r.Mount("/api/watchlist", marketHandler.WatchlistRoutes())
		r.Mount("/api/indices", marketHandler.IndicesRoutes())
		r.Mount("/api/stocks", marketHandler.StocksRoutes())
		r.Mount("/api/summary", summaryHandler.Routes())
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      r,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))
	if err := srv.ListenAndServe(); err != nil {
		log.Error("server failed", "error", err)
	}
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(
				os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	case envLocal:
		fallthrough
	default:
		log = slog.New(
			slog.NewJSONHandler(
				os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	}

	return log
}
