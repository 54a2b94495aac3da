package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/content"
	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/handler"
	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/ledger"
	mid "github.com/Yuvraj-Singh-HIT/VeriChain/internal/middleware"
	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/repository"
	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/service"
	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/signing"
	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/tracking"
	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/verify"
	"github.com/Yuvraj-Singh-HIT/VeriChain/pkg/config"
	"github.com/Yuvraj-Singh-HIT/VeriChain/pkg/database"
	"github.com/Yuvraj-Singh-HIT/VeriChain/pkg/jwtutil"
	"github.com/Yuvraj-Singh-HIT/VeriChain/pkg/logger"
	"github.com/Yuvraj-Singh-HIT/VeriChain/prometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	logger.InitLogger(appConfig)
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting VeriChain backend", appConfig.LogFields()...)

	// Initialize Prometheus metrics
	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Persistence
	var store repository.Store
	switch appConfig.DB.Driver {
	case "memory":
		store = repository.NewMemoryStore()
		log.Warn("Using in-memory storage, data is lost on restart")
	default:
		if err := database.InitDB(appConfig, log); err != nil {
			log.Fatal("Failed to initialize database", zap.Error(err))
		}
		defer database.Close()
		store = repository.NewGormStore(database.GetDB())
		log.Info("Database connection established")
	}

	// Content store: IPFS when configured, local fallback always
	var primaryContent content.Store
	if appConfig.Content.IPFSURL != "" {
		primaryContent = content.NewIPFSStore(appConfig.Content.IPFSURL, appConfig.Content.Timeout, log)
	}
	localContent, err := content.NewLocalStoreWithPath(appConfig.Content.LocalDir)
	if err != nil {
		log.Fatal("Failed to open local content store", zap.Error(err))
	}
	contents := content.NewFallbackStore(primaryContent, localContent, log)

	// Ledger: notary service when configured, local fallback always
	var primaryLedger ledger.Ledger
	if appConfig.Ledger.URL != "" {
		primaryLedger = ledger.NewHTTPLedger(appConfig.Ledger.URL, appConfig.Ledger.APIKey, appConfig.Ledger.Timeout, log)
	}
	localLedger, err := ledger.NewLocalLedgerWithPath(appConfig.Ledger.LocalDir)
	if err != nil {
		log.Fatal("Failed to open local ledger", zap.Error(err))
	}
	notary := ledger.NewNotary(primaryLedger, localLedger.WithIndex(store), log)

	// Verification tokens
	signer, err := signing.New(appConfig.Signing.PrivateKey)
	if err != nil {
		log.Fatal("Invalid signing key", zap.Error(err))
	}
	log.Info("Verification token signer ready",
		zap.String("mode", string(signer.Mode())),
		zap.String("address", signer.Address()))

	// Custody event feed
	var publisher tracking.Publisher = tracking.NoopPublisher{}
	if len(appConfig.Kafka.Brokers) > 0 {
		publisher = tracking.NewKafkaPublisher(appConfig.Kafka.Brokers, appConfig.Kafka.Topic, log)
		log.Info("Publishing tracking events to Kafka",
			zap.Strings("brokers", appConfig.Kafka.Brokers),
			zap.String("topic", appConfig.Kafka.Topic))
	}
	defer publisher.Close()

	jwt := jwtutil.NewJWTUtil(&appConfig.JWT)

	h := &handler.Handler{
		Products: service.NewProductService(store, contents, notary, signer, log),
		Verifier: verify.NewEngine(store, notary, contents, signer, log),
		Chain:    tracking.NewChain(store, contents, publisher, log),
		Invoices: service.NewInvoiceService(store, log),
		Funding:  service.NewFundingService(store),
		Stats:    service.NewStatsService(store, store),
		Auth:     service.NewAuthService(store, jwt, appConfig.Auth.BcryptCost),
	}

	// Initialize Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware)
	e.Use(logger.Middleware())

	var protect echo.MiddlewareFunc
	if appConfig.Auth.Required {
		protect = mid.AuthMiddleware(jwt)
	}
	h.Routes(e, protect)

	// Start server
	go func() {
		port := appConfig.Server.Port
		log.Info("Starting server", zap.String("port", port))
		if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("Shutting down server")
	if err := e.Shutdown(ctx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
}
