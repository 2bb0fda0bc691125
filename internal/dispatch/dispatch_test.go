package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testFile = File{
	LeadFileID:  "file-1",
	UserID:      "seller-1",
	Name:        "leads.csv",
	ContentType: "text/csv",
	Content:     []byte("ENTREPRISE;TELEPHONE\nAcme;0102030405\n"),
}

func TestWebhookDispatcher_SendsMultipartFilesField(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		files := r.MultipartForm.File["files"]
		require.Len(t, files, 1)
		assert.Equal(t, "leads.csv", files[0].Filename)
		f, err := files[0].Open()
		require.NoError(t, err)
		defer f.Close()
		content, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, testFile.Content, content)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	d := NewWebhookDispatcher(srv.URL, zap.NewNop())
	require.NoError(t, d.Dispatch(context.Background(), testFile))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestWebhookDispatcher_NonSuccessIsFailure(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	d := NewWebhookDispatcher(srv.URL, zap.NewNop())
	err := d.Dispatch(context.Background(), testFile)
	assert.ErrorIs(t, err, ErrDispatchFailed)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "no retry")
}

func TestWebhookDispatcher_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := NewWebhookDispatcher(url, zap.NewNop()).Dispatch(context.Background(), testFile)
	assert.ErrorIs(t, err, ErrDispatchFailed)
}

type recordingPublisher struct {
	queue string
	body  []byte
	err   error
}

func (p *recordingPublisher) Publish(_ context.Context, queueName string, body []byte) error {
	p.queue = queueName
	p.body = body
	return p.err
}

func TestQueueDispatcher(t *testing.T) {
	pub := &recordingPublisher{}
	d := NewQueueDispatcher(pub, "lead_files.uploaded", zap.NewNop())

	require.NoError(t, d.Dispatch(context.Background(), testFile))
	assert.Equal(t, "lead_files.uploaded", pub.queue)

	var decoded File
	require.NoError(t, json.Unmarshal(pub.body, &decoded))
	assert.Equal(t, testFile, decoded)

	pub.err = errors.New("channel closed")
	assert.ErrorIs(t, d.Dispatch(context.Background(), testFile), ErrDispatchFailed)
}
