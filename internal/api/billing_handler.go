package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"traddy-backend-go/internal/core"
	"traddy-backend-go/internal/models"
)

const maxWebhookBodyBytes int64 = 65536

// BillingHandler handles checkout, settlement and transaction endpoints.
type BillingHandler struct {
	billingService core.BillingService
	logger         *zap.Logger
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(bs core.BillingService, logger *zap.Logger) *BillingHandler {
	return &BillingHandler{billingService: bs, logger: logger}
}

// packCheckoutRequest is the optional body of POST /packs/:id/checkout.
type packCheckoutRequest struct {
	Origin string `json:"origin,omitempty"`
}

// mapBillingErrorToStatus maps errors from core.BillingService to HTTP status codes and ErrorResponse.
func (h *BillingHandler) mapBillingErrorToStatus(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrLeadNotFound), errors.Is(err, core.ErrPackNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Not found", Details: err.Error()})
	case errors.Is(err, core.ErrDirectPurchaseDisabled):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Not found"})
	case errors.Is(err, core.ErrLeadUnavailable):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Lead no longer available", Details: err.Error()})
	case errors.Is(err, core.ErrOwnLead):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Forbidden", Details: err.Error()})
	case errors.Is(err, core.ErrSellerNotOnboarded), errors.Is(err, core.ErrInvalidPrice):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "Lead cannot be purchased", Details: err.Error()})
	case errors.Is(err, core.ErrPaymentProvider):
		h.logger.Error("payment provider error", zap.Error(err))
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "Payment provider error", Details: "Could not complete the operation with the payment provider."})
	case errors.Is(err, core.ErrWebhookSignature):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Webhook signature verification failed"})
	case errors.Is(err, core.ErrWebhookProcessing):
		// 5xx makes Stripe redeliver the event.
		h.logger.Error("webhook processing error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Webhook processing error"})
	default:
		h.logger.Error("billing handler error", zap.Error(err))
		internalError(c)
	}
}

// CreateCheckoutSession handles POST /checkout-sessions.
func (h *BillingHandler) CreateCheckoutSession(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req models.CreateCheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}
	if req.Origin == "" {
		req.Origin = c.GetHeader("Origin")
	}
	url, err := h.billingService.CreateLeadCheckout(c.Request.Context(), userID, req)
	if err != nil {
		h.mapBillingErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, models.URLResponse{URL: url})
}

// CreatePackCheckout handles POST /packs/:id/checkout.
func (h *BillingHandler) CreatePackCheckout(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req packCheckoutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
			return
		}
	}
	if req.Origin == "" {
		req.Origin = c.GetHeader("Origin")
	}
	url, err := h.billingService.CreatePackCheckout(c.Request.Context(), userID, c.Param("id"), req.Origin)
	if err != nil {
		h.mapBillingErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, models.URLResponse{URL: url})
}

// HandleStripeWebhook handles POST /billing/webhooks/stripe.
// Public endpoint: the payload is authenticated by its Stripe signature.
func (h *BillingHandler) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Error reading request body"})
		return
	}
	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Missing Stripe-Signature header"})
		return
	}
	if err := h.billingService.HandleStripeWebhook(c.Request.Context(), signature, payload); err != nil {
		h.mapBillingErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// PurchaseDirect handles POST /purchases.
func (h *BillingHandler) PurchaseDirect(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req models.DirectPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}
	tx, err := h.billingService.PurchaseDirect(c.Request.Context(), userID, req.LeadID)
	if err != nil {
		h.mapBillingErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusCreated, tx)
}

// ListTransactions handles GET /transactions.
func (h *BillingHandler) ListTransactions(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	txs, err := h.billingService.ListTransactions(c.Request.Context(), userID)
	if err != nil {
		h.mapBillingErrorToStatus(c, err)
		return
	}
	if txs == nil {
		txs = []*models.TransactionWithFile{}
	}
	c.JSON(http.StatusOK, txs)
}
