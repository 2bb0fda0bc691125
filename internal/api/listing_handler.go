package api

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"traddy-backend-go/internal/core"
	"traddy-backend-go/internal/models"
)

const dateOnlyLayout = "2006-01-02"

// ListingHandler serves the marketplace read endpoints.
type ListingHandler struct {
	listingService core.ListingService
	logger         *zap.Logger
}

// NewListingHandler creates a new ListingHandler.
func NewListingHandler(ls core.ListingService, logger *zap.Logger) *ListingHandler {
	return &ListingHandler{listingService: ls, logger: logger}
}

// ListLeads handles GET /leads. Every returned lead is available and matches the query.
func (h *ListingHandler) ListLeads(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	filter, err := parseLeadFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters", Details: err.Error()})
		return
	}
	leads, err := h.listingService.ListAvailable(c.Request.Context(), userID, filter)
	if err != nil {
		h.logger.Error("failed to list leads", zap.String("user_id", userID), zap.Error(err))
		internalError(c)
		return
	}
	if leads == nil {
		leads = []*models.Lead{}
	}
	c.JSON(http.StatusOK, leads)
}

// Facets handles GET /leads/facets.
func (h *ListingHandler) Facets(c *gin.Context) {
	facets, err := h.listingService.Facets(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to compute facets", zap.Error(err))
		internalError(c)
		return
	}
	c.JSON(http.StatusOK, facets)
}

// ListPurchased handles GET /leads/purchased.
func (h *ListingHandler) ListPurchased(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	leads, err := h.listingService.ListPurchased(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list purchased leads", zap.String("user_id", userID), zap.Error(err))
		internalError(c)
		return
	}
	if leads == nil {
		leads = []*models.Lead{}
	}
	c.JSON(http.StatusOK, leads)
}

// ListPacks handles GET /packs.
func (h *ListingHandler) ListPacks(c *gin.Context) {
	packs, err := h.listingService.ListPacks(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list packs", zap.Error(err))
		internalError(c)
		return
	}
	if packs == nil {
		packs = []*models.LeadPack{}
	}
	c.JSON(http.StatusOK, packs)
}

func parseLeadFilter(c *gin.Context) (models.LeadFilter, error) {
	filter := models.LeadFilter{
		City:      strings.TrimSpace(c.Query("city")),
		Country:   strings.TrimSpace(c.Query("country")),
		Company:   strings.TrimSpace(c.Query("company")),
		Industry:  strings.TrimSpace(c.Query("industry")),
		Intention: strings.TrimSpace(c.Query("intention")),
		Source:    strings.TrimSpace(c.Query("source")),
	}

	var err error
	if filter.MinAge, err = queryInt(c, "minAge"); err != nil {
		return filter, err
	}
	if filter.MaxAge, err = queryInt(c, "maxAge"); err != nil {
		return filter, err
	}
	if filter.MinPrice, err = queryFloat(c, "minPrice"); err != nil {
		return filter, err
	}
	if filter.MaxPrice, err = queryFloat(c, "maxPrice"); err != nil {
		return filter, err
	}
	if filter.ContactFrom, err = queryDate(c, "contactFrom", false); err != nil {
		return filter, err
	}
	if filter.ContactTo, err = queryDate(c, "contactTo", true); err != nil {
		return filter, err
	}

	switch sort := models.LeadSort(c.Query("sort")); sort {
	case "", models.SortByCreatedAt, models.SortByContactDate:
		filter.Sort = sort
	default:
		return filter, fmt.Errorf("sort must be %q or %q", models.SortByCreatedAt, models.SortByContactDate)
	}

	if limit, err := queryInt(c, "limit"); err != nil {
		return filter, err
	} else if limit != nil {
		if *limit < 1 {
			return filter, fmt.Errorf("limit must be positive")
		}
		filter.Limit = *limit
	}
	return filter, nil
}

func queryInt(c *gin.Context, key string) (*int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer", key)
	}
	return &v, nil
}

func queryFloat(c *gin.Context, key string) (*float64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", key)
	}
	// ParseFloat accepts "NaN" and "Inf", which would poison range filters
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("%s must be a finite number", key)
	}
	return &v, nil
}

// queryDate accepts RFC3339 or YYYY-MM-DD. A bare date used as an upper
// bound covers the whole day.
func queryDate(c *gin.Context, key string, endOfDay bool) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateOnlyLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be RFC3339 or YYYY-MM-DD", key)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
