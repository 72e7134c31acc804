package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/lmstore/backend/internal/config"
	"github.com/lmstore/backend/internal/httpserver"
	"github.com/lmstore/backend/internal/logging"
	"github.com/lmstore/backend/internal/mykafka"
	"github.com/lmstore/backend/internal/repo"
	"github.com/lmstore/backend/internal/search"
	"github.com/lmstore/backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	cfg.MustValidate()

	logger := logging.New(cfg.LogLevel)

	ctx := context.Background()
	db, err := config.InitDB(ctx, cfg)
	if err != nil {
		logger.Error("init database", "error", err)
		os.Exit(1)
	}

	var producer *mykafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = mykafka.NewProducer(cfg.KafkaBrokers)
		defer producer.Close()
	} else {
		logger.Warn("KAFKA_BROKERS not set, events disabled")
	}

	var searchClient *search.Client
	if cfg.ESURL != "" {
		searchClient, err = search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword, "products")
		if err != nil {
			logger.Error("connect elasticsearch", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("ES_URL not set, product search disabled")
	}

	gormRepo := repo.New(db)
	authSvc := &service.AuthService{Repo: gormRepo, JWTSecret: cfg.JWTSecret}
	cartSvc := &service.CartService{Repo: gormRepo}
	orderSvc := &service.OrderService{Repo: gormRepo}
	catalogSvc := &service.CatalogService{Repo: gormRepo}
	if searchClient != nil {
		catalogSvc.Indexer = searchClient
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), httpserver.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler:    &httpserver.AuthHandler{Auth: authSvc, Producer: producer},
		CartHandler:    &httpserver.CartHandler{Cart: cartSvc, Producer: producer},
		OrderHandler:   &httpserver.OrderHandler{Order: orderSvc, Producer: producer},
		CatalogHandler: &httpserver.CatalogHandler{Catalog: catalogSvc, Search: searchClient, Producer: producer},
		AuthMW:         &httpserver.AuthMiddleware{Auth: authSvc},
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("close database", "error", err)
		}
	}
}
