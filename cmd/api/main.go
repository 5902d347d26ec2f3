package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aquaticpose/aquaticpose-backend/api/routes"
	authsvc "github.com/aquaticpose/aquaticpose-backend/internal/auth"
	blogsvc "github.com/aquaticpose/aquaticpose-backend/internal/blog"
	categorysvc "github.com/aquaticpose/aquaticpose-backend/internal/categories"
	"github.com/aquaticpose/aquaticpose-backend/internal/locations"
	mediasvc "github.com/aquaticpose/aquaticpose-backend/internal/media"
	productsvc "github.com/aquaticpose/aquaticpose-backend/internal/products"
	promotionsvc "github.com/aquaticpose/aquaticpose-backend/internal/promotions"
	reviewsvc "github.com/aquaticpose/aquaticpose-backend/internal/reviews"
	"github.com/aquaticpose/aquaticpose-backend/pkg/config"
	"github.com/aquaticpose/aquaticpose-backend/pkg/db"
	"github.com/aquaticpose/aquaticpose-backend/pkg/logger"
	"github.com/aquaticpose/aquaticpose-backend/pkg/mailer"
	"github.com/aquaticpose/aquaticpose-backend/pkg/metrics"
	"github.com/aquaticpose/aquaticpose-backend/pkg/migrate"
	"github.com/aquaticpose/aquaticpose-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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

	mailSender, err := mailer.NewSMTPSender(cfg.SMTP)
	if err != nil {
		logg.Error(context.Background(), "failed to configure mailer", err)
		os.Exit(1)
	}

	conn := dbClient.DB()
	categoryRepo := categorysvc.NewRepository(conn)
	productRepo := productsvc.NewRepository(conn)

	categoryService, err := categorysvc.NewService(categoryRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create category service", err)
		os.Exit(1)
	}
	productService, err := productsvc.NewService(productRepo, categoryRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}
	promotionService, err := promotionsvc.NewService(promotionsvc.NewRepository(conn), productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create promotion service", err)
		os.Exit(1)
	}
	reviewService, err := reviewsvc.NewService(reviewsvc.NewRepository(conn), productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create review service", err)
		os.Exit(1)
	}
	blogService, err := blogsvc.NewService(blogsvc.NewRepository(conn))
	if err != nil {
		logg.Error(context.Background(), "failed to create blog service", err)
		os.Exit(1)
	}
	authService, err := authsvc.NewService(authsvc.NewRepository(conn), redisClient, mailSender, cfg.JWT, cfg.Password, cfg.OTP)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	uploader, err := mediasvc.NewHTTPUploader(cfg.Media)
	if err != nil {
		logg.Error(context.Background(), "failed to configure media uploader", err)
		os.Exit(1)
	}
	mediaService, err := mediasvc.NewService(mediasvc.NewRepository(conn), uploader, cfg.Media)
	if err != nil {
		logg.Error(context.Background(), "failed to create media service", err)
		os.Exit(1)
	}

	locationsClient, err := locations.NewClient(cfg.Locations)
	if err != nil {
		logg.Error(context.Background(), "failed to create locations client", err)
		os.Exit(1)
	}

	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)

	handler := routes.NewRouter(cfg, logg, dbClient, redisClient, httpMetrics, routes.Services{
		Auth:       authService,
		Categories: categoryService,
		Products:   productService,
		Promotions: promotionService,
		Reviews:    reviewService,
		Blog:       blogService,
		Media:      mediaService,
		Locations:  locationsClient,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}

	logg.Info(ctx, "api server stopped")
}
