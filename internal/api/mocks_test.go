package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"traddy-backend-go/internal/middleware"
	"traddy-backend-go/internal/models"
)

type mockProfileService struct {
	GetOrCreateFunc        func(ctx context.Context, userID, email, displayName string) (*models.Profile, bool, error)
	GetByIDFunc            func(ctx context.Context, userID string) (*models.Profile, error)
	CompleteOnboardingFunc func(ctx context.Context, userID string) (*models.Profile, error)
}

func (m *mockProfileService) GetOrCreate(ctx context.Context, userID, email, displayName string) (*models.Profile, bool, error) {
	return m.GetOrCreateFunc(ctx, userID, email, displayName)
}
func (m *mockProfileService) GetByID(ctx context.Context, userID string) (*models.Profile, error) {
	return m.GetByIDFunc(ctx, userID)
}
func (m *mockProfileService) CompleteOnboarding(ctx context.Context, userID string) (*models.Profile, error) {
	return m.CompleteOnboardingFunc(ctx, userID)
}

type mockUploadService struct {
	UploadFunc       func(ctx context.Context, userID string, req models.UploadLeadFileRequest) (*models.UploadResult, error)
	ListFilesFunc    func(ctx context.Context, userID string) ([]*models.LeadFile, error)
	DeleteFileFunc   func(ctx context.Context, userID, fileID string) error
	UpdateStatusFunc func(ctx context.Context, fileID string, req models.UpdateLeadFileStatusRequest) (*models.LeadFile, error)
}

func (m *mockUploadService) Upload(ctx context.Context, userID string, req models.UploadLeadFileRequest) (*models.UploadResult, error) {
	return m.UploadFunc(ctx, userID, req)
}
func (m *mockUploadService) ListFiles(ctx context.Context, userID string) ([]*models.LeadFile, error) {
	return m.ListFilesFunc(ctx, userID)
}
func (m *mockUploadService) DeleteFile(ctx context.Context, userID, fileID string) error {
	return m.DeleteFileFunc(ctx, userID, fileID)
}
func (m *mockUploadService) UpdateStatus(ctx context.Context, fileID string, req models.UpdateLeadFileStatusRequest) (*models.LeadFile, error) {
	return m.UpdateStatusFunc(ctx, fileID, req)
}

type mockListingService struct {
	ListAvailableFunc func(ctx context.Context, viewerID string, filter models.LeadFilter) ([]*models.Lead, error)
	FacetsFunc        func(ctx context.Context) (*models.LeadFacets, error)
	ListPurchasedFunc func(ctx context.Context, buyerID string) ([]*models.Lead, error)
	ListPacksFunc     func(ctx context.Context) ([]*models.LeadPack, error)
}

func (m *mockListingService) ListAvailable(ctx context.Context, viewerID string, filter models.LeadFilter) ([]*models.Lead, error) {
	return m.ListAvailableFunc(ctx, viewerID, filter)
}
func (m *mockListingService) Facets(ctx context.Context) (*models.LeadFacets, error) {
	return m.FacetsFunc(ctx)
}
func (m *mockListingService) ListPurchased(ctx context.Context, buyerID string) ([]*models.Lead, error) {
	return m.ListPurchasedFunc(ctx, buyerID)
}
func (m *mockListingService) ListPacks(ctx context.Context) ([]*models.LeadPack, error) {
	return m.ListPacksFunc(ctx)
}

type mockBillingService struct {
	CreateLeadCheckoutFunc  func(ctx context.Context, buyerID string, req models.CreateCheckoutSessionRequest) (string, error)
	CreatePackCheckoutFunc  func(ctx context.Context, buyerID, packID, origin string) (string, error)
	HandleStripeWebhookFunc func(ctx context.Context, signature string, payload []byte) error
	PurchaseDirectFunc      func(ctx context.Context, buyerID, leadID string) (*models.Transaction, error)
	ListTransactionsFunc    func(ctx context.Context, userID string) ([]*models.TransactionWithFile, error)
}

func (m *mockBillingService) CreateLeadCheckout(ctx context.Context, buyerID string, req models.CreateCheckoutSessionRequest) (string, error) {
	return m.CreateLeadCheckoutFunc(ctx, buyerID, req)
}
func (m *mockBillingService) CreatePackCheckout(ctx context.Context, buyerID, packID, origin string) (string, error) {
	return m.CreatePackCheckoutFunc(ctx, buyerID, packID, origin)
}
func (m *mockBillingService) HandleStripeWebhook(ctx context.Context, signature string, payload []byte) error {
	return m.HandleStripeWebhookFunc(ctx, signature, payload)
}
func (m *mockBillingService) PurchaseDirect(ctx context.Context, buyerID, leadID string) (*models.Transaction, error) {
	return m.PurchaseDirectFunc(ctx, buyerID, leadID)
}
func (m *mockBillingService) ListTransactions(ctx context.Context, userID string) ([]*models.TransactionWithFile, error) {
	return m.ListTransactionsFunc(ctx, userID)
}

type mockPaymentAccountService struct {
	GetStatusFunc       func(ctx context.Context, userID string) (*models.PaymentAccountStatus, error)
	CreateOrResumeFunc  func(ctx context.Context, callerID, callerEmail string, req models.CreatePaymentAccountRequest) (string, error)
	CreateLoginLinkFunc func(ctx context.Context, userID string) (string, error)
}

func (m *mockPaymentAccountService) GetStatus(ctx context.Context, userID string) (*models.PaymentAccountStatus, error) {
	return m.GetStatusFunc(ctx, userID)
}
func (m *mockPaymentAccountService) CreateOrResume(ctx context.Context, callerID, callerEmail string, req models.CreatePaymentAccountRequest) (string, error) {
	return m.CreateOrResumeFunc(ctx, callerID, callerEmail, req)
}
func (m *mockPaymentAccountService) CreateLoginLink(ctx context.Context, userID string) (string, error) {
	return m.CreateLoginLinkFunc(ctx, userID)
}

type mockDashboardService struct {
	StatsFunc func(ctx context.Context, userID string) (*models.DashboardStats, error)
}

func (m *mockDashboardService) Stats(ctx context.Context, userID string) (*models.DashboardStats, error) {
	return m.StatsFunc(ctx, userID)
}

const (
	testUserHeader     = "X-Test-User"
	testWorkflowSecret = "wf-secret"
)

// fakeAuth trusts X-Test-User in place of a verified ID token.
func fakeAuth(c *gin.Context) {
	uid := c.GetHeader(testUserHeader)
	if uid == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authorization header is required"})
		return
	}
	c.Set(middleware.ContextUserID, uid)
	c.Set(middleware.ContextUserEmail, uid+"@example.com")
	c.Set(middleware.ContextUserDisplayName, "Test "+uid)
	c.Next()
}

func newTestRouter(s Services) *gin.Engine {
	gin.SetMode(gin.TestMode)
	if s.Profiles == nil {
		s.Profiles = &mockProfileService{}
	}
	if s.Uploads == nil {
		s.Uploads = &mockUploadService{}
	}
	if s.Listings == nil {
		s.Listings = &mockListingService{}
	}
	if s.Billing == nil {
		s.Billing = &mockBillingService{}
	}
	if s.PaymentAccounts == nil {
		s.PaymentAccounts = &mockPaymentAccountService{}
	}
	if s.Dashboard == nil {
		s.Dashboard = &mockDashboardService{}
	}
	router := gin.New()
	SetupRoutes(router, s, fakeAuth, RouteOptions{WorkflowSecret: testWorkflowSecret, MaxUploadBytes: 1 << 20}, zap.NewNop())
	return router
}
