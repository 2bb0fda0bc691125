package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"go.uber.org/zap"
)

// WebhookDispatcher posts the raw CSV as multipart/form-data field "files".
type WebhookDispatcher struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewWebhookDispatcher creates a dispatcher for a workflow webhook URL.
func NewWebhookDispatcher(url string, logger *zap.Logger) *WebhookDispatcher {
	return &WebhookDispatcher{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

func (d *WebhookDispatcher) Dispatch(ctx context.Context, file File) error {
	body, contentType, err := encodeMultipart(file)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.Error("workflow webhook unreachable",
			zap.String("lead_file_id", file.LeadFileID), zap.String("user_id", file.UserID), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		d.logger.Error("workflow webhook rejected file",
			zap.String("lead_file_id", file.LeadFileID), zap.String("user_id", file.UserID),
			zap.Int("status_code", resp.StatusCode))
		return fmt.Errorf("%w: webhook responded %s", ErrDispatchFailed, resp.Status)
	}
	d.logger.Info("lead file sent to workflow", zap.String("lead_file_id", file.LeadFileID))
	return nil
}

func encodeMultipart(file File) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, file.Name))
	ct := file.ContentType
	if ct == "" {
		ct = "text/csv"
	}
	h.Set("Content-Type", ct)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(file.Content); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
