package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"traddy-backend-go/internal/core"
	"traddy-backend-go/internal/middleware"
	"traddy-backend-go/internal/models"
)

// PaymentHandler handles the seller payout-account lifecycle.
type PaymentHandler struct {
	accountService core.PaymentAccountService
	logger         *zap.Logger
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(as core.PaymentAccountService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{accountService: as, logger: logger}
}

func (h *PaymentHandler) mapPaymentErrorToStatus(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrUserMismatch):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Forbidden", Details: err.Error()})
	case errors.Is(err, core.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "User profile not found", Details: err.Error()})
	case errors.Is(err, core.ErrNoPaymentAccount):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "No payment account", Details: err.Error()})
	case errors.Is(err, core.ErrPaymentProvider):
		h.logger.Error("payment provider error", zap.Error(err))
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "Payment provider error", Details: "Could not complete the operation with the payment provider."})
	default:
		h.logger.Error("payment handler error", zap.Error(err))
		internalError(c)
	}
}

// GetAccount handles GET /payments/account.
func (h *PaymentHandler) GetAccount(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	status, err := h.accountService.GetStatus(c.Request.Context(), userID)
	if err != nil {
		h.mapPaymentErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// CreateAccount handles POST /payments/account.
func (h *PaymentHandler) CreateAccount(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req models.CreatePaymentAccountRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
			return
		}
	}
	if req.Origin == "" {
		req.Origin = c.GetHeader("Origin")
	}
	url, err := h.accountService.CreateOrResume(c.Request.Context(), userID, c.GetString(middleware.ContextUserEmail), req)
	if err != nil {
		h.mapPaymentErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, models.URLResponse{URL: url})
}

// CreateLoginLink handles POST /payments/login-link.
func (h *PaymentHandler) CreateLoginLink(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	url, err := h.accountService.CreateLoginLink(c.Request.Context(), userID)
	if err != nil {
		h.mapPaymentErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, models.URLResponse{URL: url})
}

// Notice handles GET /notices, turning return-trip query flags into a banner.
func (h *PaymentHandler) Notice(c *gin.Context) {
	notice := core.ResolveNotice(c.Query("success"), c.Query("refresh"), c.Query("canceled"))
	if notice == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, notice)
}
