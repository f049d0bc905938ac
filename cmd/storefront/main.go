package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fmagalhaes/storefront-backend/internal/catalog"
	"github.com/fmagalhaes/storefront-backend/internal/config"
	"github.com/fmagalhaes/storefront-backend/internal/customer"
	"github.com/fmagalhaes/storefront-backend/internal/db"
	apphttp "github.com/fmagalhaes/storefront-backend/internal/handler/http"
	"github.com/fmagalhaes/storefront-backend/internal/order"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Info().Msg("Starting storefront backend...")

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	dbPool, err := db.New(context.Background(), cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	if err := dbPool.ApplyMigrations(cfg.Postgres); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	catalogRepo := catalog.NewRepository(dbPool.Pool)
	catalogSvc := catalog.NewService(catalogRepo)

	customerRepo := customer.NewRepository(dbPool.Pool)
	customerSvc := customer.NewService(customerRepo)

	orderRepo := order.NewRepository(dbPool.Pool)
	orderSvc := order.NewService(orderRepo, catalogSvc)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	apphttp.NewCategoryHandler(catalogSvc).RegisterRoutes(router)
	apphttp.NewProductHandler(catalogSvc).RegisterRoutes(router)
	apphttp.NewCustomerHandler(customerSvc).RegisterRoutes(router)
	apphttp.NewOrderHandler(orderSvc).RegisterRoutes(router)

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Str("port", cfg.App.Port).Msg("Could not listen")
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server shutdown failed")
	}

	dbPool.Close()

	log.Info().Msg("Storefront backend stopped gracefully.")
}
