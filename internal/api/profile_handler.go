package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"traddy-backend-go/internal/core"
	"traddy-backend-go/internal/middleware"
)

// ProfileHandler handles profile endpoints.
type ProfileHandler struct {
	profileService core.ProfileService
	logger         *zap.Logger
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(ps core.ProfileService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{profileService: ps, logger: logger}
}

func (h *ProfileHandler) mapProfileErrorToStatus(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "User profile not found", Details: err.Error()})
	default:
		h.logger.Error("profile handler error", zap.Error(err))
		internalError(c)
	}
}

// InitializeProfile handles POST /profiles/initialize.
// Called right after client-side sign-in so the backend profile exists.
func (h *ProfileHandler) InitializeProfile(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	email := c.GetString(middleware.ContextUserEmail)
	displayName := c.GetString(middleware.ContextUserDisplayName)

	profile, created, err := h.profileService.GetOrCreate(c.Request.Context(), userID, email, displayName)
	if err != nil {
		h.mapProfileErrorToStatus(c, err)
		return
	}
	if created {
		c.JSON(http.StatusCreated, profile)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// GetCurrentProfile handles GET /profiles/me.
func (h *ProfileHandler) GetCurrentProfile(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	profile, err := h.profileService.GetByID(c.Request.Context(), userID)
	if err != nil {
		h.mapProfileErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// CompleteOnboarding handles PUT /profiles/me/onboarding.
func (h *ProfileHandler) CompleteOnboarding(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	profile, err := h.profileService.CompleteOnboarding(c.Request.Context(), userID)
	if err != nil {
		h.mapProfileErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
