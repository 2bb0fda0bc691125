package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traddy-backend-go/internal/core"
	"traddy-backend-go/internal/models"
)

func doRequest(router http.Handler, method, path, user string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set(testUserHeader, user)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func uploadBody(t *testing.T, contentType, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="leads.csv"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHealth(t *testing.T) {
	router := newTestRouter(Services{})
	w := doRequest(router, http.MethodGet, "/health", "", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "UP")
}

func TestAuthenticatedRoutesRequireToken(t *testing.T) {
	router := newTestRouter(Services{})
	for _, path := range []string{"/api/v1/leads", "/api/v1/profiles/me", "/api/v1/dashboard/stats", "/api/v1/transactions"} {
		w := doRequest(router, http.MethodGet, path, "", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestInitializeProfile_CreatedThenExisting(t *testing.T) {
	created := true
	ps := &mockProfileService{
		GetOrCreateFunc: func(_ context.Context, userID, email, displayName string) (*models.Profile, bool, error) {
			assert.Equal(t, "u1@example.com", email)
			assert.Equal(t, "Test u1", displayName)
			return &models.Profile{ID: userID, Email: email}, created, nil
		},
	}
	router := newTestRouter(Services{Profiles: ps})

	w := doRequest(router, http.MethodPost, "/api/v1/profiles/initialize", "u1", nil, nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	created = false
	w = doRequest(router, http.MethodPost, "/api/v1/profiles/initialize", "u1", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetCurrentProfile_NotFound(t *testing.T) {
	ps := &mockProfileService{
		GetByIDFunc: func(_ context.Context, userID string) (*models.Profile, error) {
			return nil, fmt.Errorf("%w: %s", core.ErrProfileNotFound, userID)
		},
	}
	w := doRequest(newTestRouter(Services{Profiles: ps}), http.MethodGet, "/api/v1/profiles/me", "u1", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCompleteOnboarding(t *testing.T) {
	now := time.Now()
	ps := &mockProfileService{
		CompleteOnboardingFunc: func(_ context.Context, userID string) (*models.Profile, error) {
			return &models.Profile{ID: userID, OnboardingCompletedAt: &now}, nil
		},
	}
	w := doRequest(newTestRouter(Services{Profiles: ps}), http.MethodPut, "/api/v1/profiles/me/onboarding", "u1", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "onboardingCompletedAt")
}

func TestUpload_PassesPartAndConsent(t *testing.T) {
	var got models.UploadLeadFileRequest
	us := &mockUploadService{
		UploadFunc: func(_ context.Context, userID string, req models.UploadLeadFileRequest) (*models.UploadResult, error) {
			assert.Equal(t, "seller", userID)
			got = req
			return &models.UploadResult{LeadFile: &models.LeadFile{ID: "f1", LeadCount: 2}, Redirect: core.UploadRedirect}, nil
		},
	}
	body, ct := uploadBody(t, "text/csv", "A;B\n1;2\n3;4\n", map[string]string{"gdprAccepted": "true", "consentVerified": "true"})
	w := doRequest(newTestRouter(Services{Uploads: us}), http.MethodPost, "/api/v1/lead-files", "seller", body.Bytes(), map[string]string{"Content-Type": ct})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "leads.csv", got.FileName)
	assert.Equal(t, "text/csv", got.ContentType)
	assert.Equal(t, "A;B\n1;2\n3;4\n", string(got.Content))
	assert.True(t, got.GDPRAccepted)
	assert.True(t, got.ConsentVerified)
	assert.Contains(t, w.Body.String(), `"redirect":"/my-leads"`)
}

func TestUpload_ErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{core.ErrInvalidFileType, http.StatusBadRequest},
		{core.ErrConsentRequired, http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: webhook returned 500", core.ErrDispatchFailed), http.StatusBadGateway},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			us := &mockUploadService{
				UploadFunc: func(context.Context, string, models.UploadLeadFileRequest) (*models.UploadResult, error) {
					return nil, tt.err
				},
			}
			body, ct := uploadBody(t, "text/csv", "A\n1\n", nil)
			w := doRequest(newTestRouter(Services{Uploads: us}), http.MethodPost, "/api/v1/lead-files", "seller", body.Bytes(), map[string]string{"Content-Type": ct})
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestUpload_MissingFilePart(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("gdprAccepted", "true"))
	require.NoError(t, mw.Close())

	w := doRequest(newTestRouter(Services{}), http.MethodPost, "/api/v1/lead-files", "seller", buf.Bytes(), map[string]string{"Content-Type": mw.FormDataContentType()})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteFile_Forbidden(t *testing.T) {
	us := &mockUploadService{
		DeleteFileFunc: func(_ context.Context, userID, fileID string) error {
			assert.Equal(t, "f9", fileID)
			return core.ErrForbidden
		},
	}
	w := doRequest(newTestRouter(Services{Uploads: us}), http.MethodDelete, "/api/v1/lead-files/f9", "other", nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestWorkflowCallback_RequiresSecret(t *testing.T) {
	calls := 0
	us := &mockUploadService{
		UpdateStatusFunc: func(_ context.Context, fileID string, req models.UpdateLeadFileStatusRequest) (*models.LeadFile, error) {
			calls++
			assert.Equal(t, models.LeadFileStatusCompleted, req.Status)
			require.NotNil(t, req.LeadCount)
			assert.Equal(t, 12, *req.LeadCount)
			return &models.LeadFile{ID: fileID, Status: req.Status, LeadCount: *req.LeadCount}, nil
		},
	}
	router := newTestRouter(Services{Uploads: us})
	body := []byte(`{"status":"completed","leadCount":12}`)

	w := doRequest(router, http.MethodPost, "/api/v1/hooks/lead-files/f1/status", "", body, map[string]string{WorkflowSecretHeader: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, calls)

	w = doRequest(router, http.MethodPost, "/api/v1/hooks/lead-files/f1/status", "", body, map[string]string{WorkflowSecretHeader: testWorkflowSecret})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, calls)
}

func TestListLeads_ParsesFilter(t *testing.T) {
	var got models.LeadFilter
	ls := &mockListingService{
		ListAvailableFunc: func(_ context.Context, viewerID string, filter models.LeadFilter) ([]*models.Lead, error) {
			assert.Equal(t, "buyer", viewerID)
			got = filter
			return nil, nil
		},
	}
	path := "/api/v1/leads?city=Paris&industry=Tech&minAge=25&maxPrice=99.5&contactFrom=2024-01-01&contactTo=2024-01-31&sort=contact_date&limit=20"
	w := doRequest(newTestRouter(Services{Listings: ls}), http.MethodGet, path, "buyer", nil, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
	assert.Equal(t, "Paris", got.City)
	assert.Equal(t, "Tech", got.Industry)
	require.NotNil(t, got.MinAge)
	assert.Equal(t, 25, *got.MinAge)
	assert.Nil(t, got.MaxAge)
	require.NotNil(t, got.MaxPrice)
	assert.Equal(t, 99.5, *got.MaxPrice)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *got.ContactFrom)
	assert.Equal(t, time.Date(2024, 1, 31, 23, 59, 59, 999999999, time.UTC), *got.ContactTo)
	assert.Equal(t, models.SortByContactDate, got.Sort)
	assert.Equal(t, 20, got.Limit)
}

func TestListLeads_RejectsBadQuery(t *testing.T) {
	router := newTestRouter(Services{})
	for _, q := range []string{"minAge=abc", "maxPrice=cheap", "contactFrom=01/02/2024", "sort=price", "limit=0", "maxPrice=NaN", "minPrice=Inf", "minPrice=-Infinity"} {
		w := doRequest(router, http.MethodGet, "/api/v1/leads?"+q, "buyer", nil, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestFacets(t *testing.T) {
	ls := &mockListingService{
		FacetsFunc: func(context.Context) (*models.LeadFacets, error) {
			return &models.LeadFacets{Cities: []string{"Lyon", "Paris"}}, nil
		},
	}
	w := doRequest(newTestRouter(Services{Listings: ls}), http.MethodGet, "/api/v1/leads/facets", "buyer", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cities":["Lyon","Paris"]`)
}

func TestCreateCheckoutSession(t *testing.T) {
	bs := &mockBillingService{
		CreateLeadCheckoutFunc: func(_ context.Context, buyerID string, req models.CreateCheckoutSessionRequest) (string, error) {
			assert.Equal(t, "buyer", buyerID)
			assert.Equal(t, "l1", req.LeadID)
			assert.Equal(t, "https://app.example", req.Origin)
			return "https://checkout.stripe.com/c/pay/cs_1", nil
		},
	}
	w := doRequest(newTestRouter(Services{Billing: bs}), http.MethodPost, "/api/v1/checkout-sessions", "buyer",
		[]byte(`{"leadId":"l1"}`), map[string]string{"Origin": "https://app.example"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"url":"https://checkout.stripe.com/c/pay/cs_1"}`, w.Body.String())
}

func TestCreateCheckoutSession_MissingLeadID(t *testing.T) {
	w := doRequest(newTestRouter(Services{}), http.MethodPost, "/api/v1/checkout-sessions", "buyer", []byte(`{}`), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request payload", decodeError(t, w).Error)
}

func TestBillingErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{core.ErrLeadNotFound, http.StatusNotFound},
		{core.ErrLeadUnavailable, http.StatusConflict},
		{core.ErrOwnLead, http.StatusForbidden},
		{core.ErrSellerNotOnboarded, http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: card_declined", core.ErrPaymentProvider), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			bs := &mockBillingService{
				CreateLeadCheckoutFunc: func(context.Context, string, models.CreateCheckoutSessionRequest) (string, error) {
					return "", tt.err
				},
			}
			w := doRequest(newTestRouter(Services{Billing: bs}), http.MethodPost, "/api/v1/checkout-sessions", "buyer", []byte(`{"leadId":"l1"}`), nil)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestCreatePackCheckout_WithoutBody(t *testing.T) {
	bs := &mockBillingService{
		CreatePackCheckoutFunc: func(_ context.Context, buyerID, packID, origin string) (string, error) {
			assert.Equal(t, "p1", packID)
			assert.Empty(t, origin)
			return "https://checkout.stripe.com/pack", nil
		},
	}
	w := doRequest(newTestRouter(Services{Billing: bs}), http.MethodPost, "/api/v1/packs/p1/checkout", "buyer", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStripeWebhook(t *testing.T) {
	var gotSig string
	var gotPayload []byte
	bs := &mockBillingService{
		HandleStripeWebhookFunc: func(_ context.Context, signature string, payload []byte) error {
			gotSig, gotPayload = signature, payload
			if signature == "bad" {
				return core.ErrWebhookSignature
			}
			if signature == "retry" {
				return fmt.Errorf("%w: refund failed", core.ErrWebhookProcessing)
			}
			return nil
		},
	}
	router := newTestRouter(Services{Billing: bs})
	payload := []byte(`{"id":"evt_1"}`)

	w := doRequest(router, http.MethodPost, "/api/v1/billing/webhooks/stripe", "", payload, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "missing signature")

	w = doRequest(router, http.MethodPost, "/api/v1/billing/webhooks/stripe", "", payload, map[string]string{"Stripe-Signature": "t=1,v1=abc"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "t=1,v1=abc", gotSig)
	assert.Equal(t, payload, gotPayload)

	w = doRequest(router, http.MethodPost, "/api/v1/billing/webhooks/stripe", "", payload, map[string]string{"Stripe-Signature": "bad"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodPost, "/api/v1/billing/webhooks/stripe", "", payload, map[string]string{"Stripe-Signature": "retry"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestPurchaseDirect(t *testing.T) {
	bs := &mockBillingService{
		PurchaseDirectFunc: func(_ context.Context, buyerID, leadID string) (*models.Transaction, error) {
			if leadID == "gone" {
				return nil, core.ErrLeadUnavailable
			}
			return &models.Transaction{ID: "t1", LeadID: leadID, BuyerID: buyerID, Status: models.TransactionStatusCompleted}, nil
		},
	}
	router := newTestRouter(Services{Billing: bs})

	w := doRequest(router, http.MethodPost, "/api/v1/purchases", "buyer", []byte(`{"leadId":"l1"}`), nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(router, http.MethodPost, "/api/v1/purchases", "buyer", []byte(`{"leadId":"gone"}`), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPurchaseDirect_DisabledIsNotFound(t *testing.T) {
	bs := &mockBillingService{
		PurchaseDirectFunc: func(context.Context, string, string) (*models.Transaction, error) {
			return nil, core.ErrDirectPurchaseDisabled
		},
	}
	w := doRequest(newTestRouter(Services{Billing: bs}), http.MethodPost, "/api/v1/purchases", "buyer", []byte(`{"leadId":"l1"}`), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListTransactions_EmptyIsArray(t *testing.T) {
	bs := &mockBillingService{
		ListTransactionsFunc: func(context.Context, string) ([]*models.TransactionWithFile, error) { return nil, nil },
	}
	w := doRequest(newTestRouter(Services{Billing: bs}), http.MethodGet, "/api/v1/transactions", "u1", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestPaymentAccount(t *testing.T) {
	pas := &mockPaymentAccountService{
		GetStatusFunc: func(context.Context, string) (*models.PaymentAccountStatus, error) {
			return &models.PaymentAccountStatus{OnboardingRequired: true}, nil
		},
		CreateOrResumeFunc: func(_ context.Context, callerID, callerEmail string, req models.CreatePaymentAccountRequest) (string, error) {
			assert.Equal(t, "seller@example.com", callerEmail)
			if req.UserID != "" && req.UserID != callerID {
				return "", core.ErrUserMismatch
			}
			return "https://connect.stripe.com/setup/e/acct_1", nil
		},
		CreateLoginLinkFunc: func(context.Context, string) (string, error) {
			return "", core.ErrNoPaymentAccount
		},
	}
	router := newTestRouter(Services{PaymentAccounts: pas})

	w := doRequest(router, http.MethodGet, "/api/v1/payments/account", "seller", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"onboardingRequired":true`)

	w = doRequest(router, http.MethodPost, "/api/v1/payments/account", "seller", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "acct_1")

	w = doRequest(router, http.MethodPost, "/api/v1/payments/account", "seller", []byte(`{"userId":"someone-else"}`), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(router, http.MethodPost, "/api/v1/payments/login-link", "seller", nil, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestNotices(t *testing.T) {
	router := newTestRouter(Services{})

	w := doRequest(router, http.MethodGet, "/api/v1/notices", "u1", nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(router, http.MethodGet, "/api/v1/notices?success=true&canceled=true", "u1", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var notice models.Notice
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &notice))
	assert.Equal(t, "info", notice.Level)
}

func TestDashboardStats(t *testing.T) {
	ds := &mockDashboardService{
		StatsFunc: func(_ context.Context, userID string) (*models.DashboardStats, error) {
			return &models.DashboardStats{Stats: []models.DashboardStat{{Name: "Revenue", Value: "42.00€", Change: "N/A", Trend: models.TrendUp}}}, nil
		},
	}
	w := doRequest(newTestRouter(Services{Dashboard: ds}), http.MethodGet, "/api/v1/dashboard/stats", "seller", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "42.00€"))
}
