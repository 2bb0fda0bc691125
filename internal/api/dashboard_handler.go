package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"traddy-backend-go/internal/core"
)

// DashboardHandler serves the seller dashboard.
type DashboardHandler struct {
	dashboardService core.DashboardService
	logger           *zap.Logger
}

func NewDashboardHandler(ds core.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{dashboardService: ds, logger: logger}
}

// Stats handles GET /dashboard/stats.
func (h *DashboardHandler) Stats(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	stats, err := h.dashboardService.Stats(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to compute dashboard stats", zap.String("user_id", userID), zap.Error(err))
		internalError(c)
		return
	}
	c.JSON(http.StatusOK, stats)
}
