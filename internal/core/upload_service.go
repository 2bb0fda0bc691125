package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"traddy-backend-go/internal/db"
	"traddy-backend-go/internal/dispatch"
	"traddy-backend-go/internal/models"
)

// CSVContentType is the only accepted upload MIME type.
const CSVContentType = "text/csv"

// UploadRedirect is where the browser goes after an accepted upload.
const UploadRedirect = "/my-leads"

var (
	ErrInvalidFileType   = errors.New("only CSV files are accepted")
	ErrConsentRequired   = errors.New("GDPR and consent acknowledgments are required")
	ErrLeadFileNotFound  = errors.New("lead file not found")
	ErrForbidden         = errors.New("operation not permitted for this user")
	ErrInvalidFileStatus = errors.New("invalid lead file status")
	ErrDispatchFailed    = errors.New("lead file could not be sent for processing")
)

// uploadService implements the UploadService interface.
type uploadService struct {
	fileRepo   db.LeadFileRepository
	dispatcher dispatch.Dispatcher
	activity   ActivityService
	logger     *zap.Logger
}

// NewUploadService creates a new UploadService instance.
func NewUploadService(fileRepo db.LeadFileRepository, dispatcher dispatch.Dispatcher, activity ActivityService, logger *zap.Logger) UploadService {
	return &uploadService{fileRepo: fileRepo, dispatcher: dispatcher, activity: activity, logger: logger}
}

// Upload validates, records and dispatches one CSV. Validation happens before
// any write. A failed dispatch marks the stored file as errored.
func (s *uploadService) Upload(ctx context.Context, userID string, req models.UploadLeadFileRequest) (*models.UploadResult, error) {
	if req.ContentType != CSVContentType {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidFileType, req.ContentType)
	}
	if !req.GDPRAccepted || !req.ConsentVerified {
		return nil, ErrConsentRequired
	}

	now := time.Now().UTC()
	file := &models.LeadFile{
		UserID:     userID,
		FileName:   req.FileName,
		LeadCount:  CountDataLines(req.Content),
		Status:     models.LeadFileStatusProcessing,
		ImportedAt: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	warnings := InspectColumns(req.Content)

	fileID, err := s.fileRepo.Create(ctx, file)
	if err != nil {
		s.logger.Error("failed to record lead file", zap.String("user_id", userID), zap.String("file_name", req.FileName), zap.Error(err))
		return nil, fmt.Errorf("failed to record lead file: %w", err)
	}
	file.ID = fileID

	err = s.dispatcher.Dispatch(ctx, dispatch.File{
		LeadFileID:  fileID,
		UserID:      userID,
		Name:        req.FileName,
		ContentType: req.ContentType,
		Content:     req.Content,
	})
	if err != nil {
		detail := err.Error()
		// The request context may already be gone; the status fix must still land.
		if uerr := s.fileRepo.UpdateStatus(context.WithoutCancel(ctx), fileID, models.LeadFileStatusError, detail, nil); uerr != nil {
			s.logger.Error("failed to mark lead file as errored", zap.String("lead_file_id", fileID), zap.Error(uerr))
		}
		s.record(ctx, userID, models.ActivityFileFailed, fileID, map[string]interface{}{"fileName": req.FileName})
		return nil, fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}

	s.record(ctx, userID, models.ActivityFileUploaded, fileID, map[string]interface{}{
		"fileName":  req.FileName,
		"leadCount": file.LeadCount,
	})
	return &models.UploadResult{LeadFile: file, Warnings: warnings, Redirect: UploadRedirect}, nil
}

func (s *uploadService) ListFiles(ctx context.Context, userID string) ([]*models.LeadFile, error) {
	files, err := s.fileRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lead files for user '%s': %w", userID, err)
	}
	return files, nil
}

func (s *uploadService) DeleteFile(ctx context.Context, userID, fileID string) error {
	file, err := s.getFile(ctx, fileID)
	if err != nil {
		return err
	}
	if file.UserID != userID {
		return fmt.Errorf("%w: user '%s' does not own lead file '%s'", ErrForbidden, userID, fileID)
	}
	if err := s.fileRepo.Delete(ctx, fileID); err != nil {
		return fmt.Errorf("failed to delete lead file '%s': %w", fileID, err)
	}
	return nil
}

func (s *uploadService) UpdateStatus(ctx context.Context, fileID string, req models.UpdateLeadFileStatusRequest) (*models.LeadFile, error) {
	if !req.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFileStatus, req.Status)
	}
	if req.LeadCount != nil && *req.LeadCount < 0 {
		return nil, fmt.Errorf("%w: negative lead count", ErrInvalidFileStatus)
	}
	if _, err := s.getFile(ctx, fileID); err != nil {
		return nil, err
	}
	if err := s.fileRepo.UpdateStatus(ctx, fileID, req.Status, req.Detail, req.LeadCount); err != nil {
		return nil, fmt.Errorf("failed to update lead file '%s': %w", fileID, err)
	}
	s.logger.Info("lead file status updated", zap.String("lead_file_id", fileID), zap.String("status", string(req.Status)))
	return s.getFile(ctx, fileID)
}

func (s *uploadService) getFile(ctx context.Context, fileID string) (*models.LeadFile, error) {
	file, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrLeadFileNotFound, fileID)
		}
		return nil, fmt.Errorf("failed to get lead file '%s': %w", fileID, err)
	}
	return file, nil
}

func (s *uploadService) record(ctx context.Context, userID, action, fileID string, details map[string]interface{}) {
	err := s.activity.Record(ctx, models.Activity{
		UserID:     userID,
		Action:     action,
		TargetType: "LEAD_FILE",
		TargetID:   fileID,
		Details:    details,
	})
	if err != nil {
		s.logger.Warn("failed to record activity", zap.String("action", action), zap.String("user_id", userID), zap.Error(err))
	}
}
