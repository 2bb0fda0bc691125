package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"traddy-backend-go/internal/core"
	"traddy-backend-go/internal/models"
)

const defaultMaxUploadBytes int64 = 10 << 20

// LeadFileHandler handles the seller upload pipeline and the workflow callback.
type LeadFileHandler struct {
	uploadService  core.UploadService
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewLeadFileHandler creates a new LeadFileHandler. A non-positive limit falls back to 10 MiB.
func NewLeadFileHandler(us core.UploadService, maxUploadBytes int64, logger *zap.Logger) *LeadFileHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &LeadFileHandler{uploadService: us, maxUploadBytes: maxUploadBytes, logger: logger}
}

func (h *LeadFileHandler) mapLeadFileErrorToStatus(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidFileType):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Veuillez sélectionner un fichier CSV", Details: err.Error()})
	case errors.Is(err, core.ErrInvalidFileStatus):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid status", Details: err.Error()})
	case errors.Is(err, core.ErrConsentRequired):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "Consent required", Details: err.Error()})
	case errors.Is(err, core.ErrLeadFileNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Lead file not found", Details: err.Error()})
	case errors.Is(err, core.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Forbidden", Details: err.Error()})
	case errors.Is(err, core.ErrDispatchFailed):
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "Une erreur est survenue lors de l'import", Details: err.Error()})
	default:
		h.logger.Error("lead file handler error", zap.Error(err))
		internalError(c)
	}
}

// Upload handles POST /lead-files (multipart: file, gdprAccepted, consentVerified).
func (h *LeadFileHandler) Upload(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "File too large", Details: err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: "a 'file' part is required"})
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}

	req := models.UploadLeadFileRequest{
		FileName:        fileHeader.Filename,
		ContentType:     fileHeader.Header.Get("Content-Type"),
		Content:         content,
		GDPRAccepted:    formBool(c, "gdprAccepted"),
		ConsentVerified: formBool(c, "consentVerified"),
	}
	result, err := h.uploadService.Upload(c.Request.Context(), userID, req)
	if err != nil {
		h.mapLeadFileErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// ListFiles handles GET /lead-files.
func (h *LeadFileHandler) ListFiles(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	files, err := h.uploadService.ListFiles(c.Request.Context(), userID)
	if err != nil {
		h.mapLeadFileErrorToStatus(c, err)
		return
	}
	if files == nil {
		files = []*models.LeadFile{}
	}
	c.JSON(http.StatusOK, files)
}

// DeleteFile handles DELETE /lead-files/:id.
func (h *LeadFileHandler) DeleteFile(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	if err := h.uploadService.DeleteFile(c.Request.Context(), userID, c.Param("id")); err != nil {
		h.mapLeadFileErrorToStatus(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UpdateStatus handles POST /hooks/lead-files/:id/status, called by the processing workflow.
func (h *LeadFileHandler) UpdateStatus(c *gin.Context) {
	var req models.UpdateLeadFileStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
		return
	}
	file, err := h.uploadService.UpdateStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.mapLeadFileErrorToStatus(c, err)
		return
	}
	c.JSON(http.StatusOK, file)
}

func formBool(c *gin.Context, key string) bool {
	v, err := strconv.ParseBool(c.PostForm(key))
	return err == nil && v
}
