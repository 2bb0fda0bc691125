package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"traddy-backend-go/internal/api"
	"traddy-backend-go/internal/cache"
	"traddy-backend-go/internal/config"
	"traddy-backend-go/internal/core"
	"traddy-backend-go/internal/db"
	"traddy-backend-go/internal/dispatch"
	"traddy-backend-go/internal/mailer"
	"traddy-backend-go/internal/middleware"
	"traddy-backend-go/internal/payments"
)

func main() {
	// Load .env file. In production, environment variables should be set directly.
	if os.Getenv("GIN_MODE") != "release" {
		if err := godotenv.Load(); err != nil {
			log.Println("Warning: Error loading .env file:", err)
		}
	}

	// --- 1. Logger ---
	var zapLogger *zap.Logger
	var err error
	if strings.ToLower(os.Getenv("GIN_MODE")) == "release" {
		zapLogger, err = zap.NewProduction()
	} else {
		zapLogger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()

	// --- 2. Configuration ---
	appConfig, err := config.LoadConfig()
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to load application configuration", zap.Error(err))
	}
	zapLogger.Info("Application configuration loaded",
		zap.String("backend", appConfig.DataBackend),
		zap.String("dispatch", appConfig.UploadDispatch))

	// --- 3. Firebase (Auth always, Firestore for the document backend) ---
	initCtx, cancelInitCtx := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInitCtx()
	fb, err := db.InitFirebase(initCtx, appConfig, zapLogger, appConfig.DataBackend == config.BackendFirestore)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize Firebase Admin SDK", zap.Error(err))
	}
	defer fb.Close()

	// --- 4. Storage ---
	store, closeStore, err := db.OpenStore(appConfig, fb)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to open data store", zap.Error(err))
	}
	defer closeStore()

	// --- 5. Infrastructure adapters ---
	var facetCache cache.Cache = cache.NewMemoryCache()
	if appConfig.RedisAddress != "" {
		rc, err := cache.NewRedisCache(initCtx, cache.RedisConfig{
			Address:  appConfig.RedisAddress,
			Password: appConfig.RedisPassword,
			DB:       appConfig.RedisDB,
		}, zapLogger)
		if err != nil {
			zapLogger.Warn("Redis unavailable, using in-process facet cache", zap.Error(err))
		} else {
			defer rc.Close()
			facetCache = rc
		}
	}

	var dispatcher dispatch.Dispatcher
	switch appConfig.UploadDispatch {
	case config.DispatchQueue:
		publisher, err := dispatch.NewRabbitMQPublisher(appConfig.RabbitMQURL, zapLogger)
		if err != nil {
			zapLogger.Fatal("CRITICAL_ERROR: Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer publisher.Close()
		dispatcher = dispatch.NewQueueDispatcher(publisher, appConfig.RabbitMQQueue, zapLogger)
	default:
		dispatcher = dispatch.NewWebhookDispatcher(appConfig.UploadWebhookURL, zapLogger)
	}

	var mail mailer.Mailer = mailer.NopMailer{}
	if appConfig.MailEnabled() {
		mail = mailer.NewSMTPMailer(mailer.Config{
			Host:     appConfig.SMTPHost,
			Port:     appConfig.SMTPPort,
			Username: appConfig.SMTPUsername,
			Password: appConfig.SMTPPassword,
			From:     appConfig.MailFrom,
		}, zapLogger)
	} else {
		zapLogger.Info("SMTP not configured, sale notifications disabled")
	}

	gateway := payments.NewStripeGateway(appConfig.StripeSecretKey, appConfig.StripeWebhookSecret, zapLogger)

	// --- 6. Services ---
	activityService := core.NewActivityService(store.Activities)
	services := api.Services{
		Profiles: core.NewProfileService(store.Profiles, activityService, zapLogger),
		Uploads:  core.NewUploadService(store.LeadFiles, dispatcher, activityService, zapLogger),
		Listings: core.NewListingService(store.Leads, store.Packs, facetCache, appConfig.FacetCacheTTL, zapLogger),
		Billing: core.NewBillingService(store, gateway, mail, activityService, core.BillingOptions{
			FeePercent:            appConfig.PlatformFeePercent,
			Currency:              appConfig.Currency,
			ClientURL:             appConfig.ClientURL,
			DirectPurchaseEnabled: appConfig.DirectPurchaseEnabled,
		}, zapLogger),
		PaymentAccounts: core.NewPaymentAccountService(store.Profiles, gateway, activityService, core.PaymentAccountOptions{
			Country:   appConfig.StripeAccountCountry,
			ClientURL: appConfig.ClientURL,
		}, zapLogger),
		Dashboard: core.NewDashboardService(store.LeadFiles, store.Transactions, activityService),
	}

	// --- 7. HTTP engine ---
	if strings.ToLower(appConfig.GinMode) == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	router.Use(middleware.CORSMiddleware(appConfig.ClientURL))

	authMW := middleware.NewAuthMiddleware(fb.Auth, zapLogger)
	api.SetupRoutes(router, services, authMW.VerifyToken(), api.RouteOptions{
		WorkflowSecret: appConfig.WorkflowCallbackSecret,
		MaxUploadBytes: appConfig.MaxUploadBytes,
	}, zapLogger)
	if appConfig.WorkflowCallbackSecret == "" {
		zapLogger.Warn("WORKFLOW_CALLBACK_SECRET is empty, lead file status callbacks will be rejected")
	}

	// --- 8. Server with graceful shutdown ---
	serverAddr := fmt.Sprintf(":%s", appConfig.Port)
	httpServer := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	zapLogger.Info("Starting HTTP server...", zap.String("address", serverAddr), zap.String("ginMode", gin.Mode()))
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quitChannel := make(chan os.Signal, 1)
	signal.Notify(quitChannel, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quitChannel
	zapLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	zapLogger.Info("Server exiting gracefully.")
}
