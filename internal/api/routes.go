package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"traddy-backend-go/internal/core"
	"traddy-backend-go/internal/middleware"
)

// WorkflowSecretHeader authenticates the processing workflow callback.
const WorkflowSecretHeader = "X-Workflow-Secret"

// Services groups the core services the HTTP layer depends on.
type Services struct {
	Profiles        core.ProfileService
	Uploads         core.UploadService
	Listings        core.ListingService
	Billing         core.BillingService
	PaymentAccounts core.PaymentAccountService
	Dashboard       core.DashboardService
}

// RouteOptions carries the settings handlers need beyond their services.
type RouteOptions struct {
	WorkflowSecret string
	MaxUploadBytes int64
}

// SetupRoutes configures all the application routes with their handlers and middleware.
// Global middleware (request id, logging, recovery, CORS) is applied in main.go
// before this is called. requireAuth must reject requests without a valid ID token.
func SetupRoutes(router *gin.Engine, services Services, requireAuth gin.HandlerFunc, opts RouteOptions, logger *zap.Logger) {
	profileHandler := NewProfileHandler(services.Profiles, logger)
	leadFileHandler := NewLeadFileHandler(services.Uploads, opts.MaxUploadBytes, logger)
	listingHandler := NewListingHandler(services.Listings, logger)
	billingHandler := NewBillingHandler(services.Billing, logger)
	paymentHandler := NewPaymentHandler(services.PaymentAccounts, logger)
	dashboardHandler := NewDashboardHandler(services.Dashboard, logger)

	apiV1 := router.Group("/api/v1")
	{
		// Public: Stripe authenticates webhooks via signature, checked by the service.
		apiV1.POST("/billing/webhooks/stripe", billingHandler.HandleStripeWebhook)

		// Workflow callback, authenticated by a shared secret instead of a user token.
		hooks := apiV1.Group("/hooks", middleware.RequireSharedSecret(WorkflowSecretHeader, opts.WorkflowSecret))
		{
			hooks.POST("/lead-files/:id/status", leadFileHandler.UpdateStatus)
		}

		authed := apiV1.Group("", requireAuth)
		{
			profiles := authed.Group("/profiles")
			{
				profiles.POST("/initialize", profileHandler.InitializeProfile)
				profiles.GET("/me", profileHandler.GetCurrentProfile)
				profiles.PUT("/me/onboarding", profileHandler.CompleteOnboarding)
			}

			leadFiles := authed.Group("/lead-files")
			{
				leadFiles.POST("", leadFileHandler.Upload)
				leadFiles.GET("", leadFileHandler.ListFiles)
				leadFiles.DELETE("/:id", leadFileHandler.DeleteFile)
			}

			leads := authed.Group("/leads")
			{
				leads.GET("", listingHandler.ListLeads)
				leads.GET("/facets", listingHandler.Facets)
				leads.GET("/purchased", listingHandler.ListPurchased)
			}

			packs := authed.Group("/packs")
			{
				packs.GET("", listingHandler.ListPacks)
				packs.POST("/:id/checkout", billingHandler.CreatePackCheckout)
			}

			authed.POST("/checkout-sessions", billingHandler.CreateCheckoutSession)
			authed.POST("/purchases", billingHandler.PurchaseDirect)
			authed.GET("/transactions", billingHandler.ListTransactions)

			payments := authed.Group("/payments")
			{
				payments.GET("/account", paymentHandler.GetAccount)
				payments.POST("/account", paymentHandler.CreateAccount)
				payments.POST("/login-link", paymentHandler.CreateLoginLink)
			}
			authed.GET("/notices", paymentHandler.Notice)

			authed.GET("/dashboard/stats", dashboardHandler.Stats)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "Traddy backend is healthy."})
	})

	logger.Info("API routes configured successfully under /api/v1 and /health.")
}
