package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"traddy-backend-go/internal/db"
	"traddy-backend-go/internal/dispatch"
	"traddy-backend-go/internal/mailer"
	"traddy-backend-go/internal/models"
	"traddy-backend-go/internal/payments"
)

// memStore is an in-memory implementation of every repository.
type memStore struct {
	mu         sync.Mutex
	seq        int
	profiles   map[string]*models.Profile
	files      map[string]*models.LeadFile
	leads      map[string]*models.Lead
	txs        map[string]*models.Transaction
	packs      map[string]*models.LeadPack
	activities []models.Activity

	createFileErr   error
	updateStatusErr error
	settleErr       error
	activityErr     error
	listCalls       int

	// beforeSessionLookup runs outside the lock so tests can line up
	// concurrent webhook deliveries past the settled check.
	beforeSessionLookup func()
}

func newMemStore() *memStore {
	return &memStore{
		profiles: map[string]*models.Profile{},
		files:    map[string]*models.LeadFile{},
		leads:    map[string]*models.Lead{},
		txs:      map[string]*models.Transaction{},
		packs:    map[string]*models.LeadPack{},
	}
}

func (m *memStore) store() *db.Store {
	return &db.Store{
		Profiles:     memProfiles{m},
		LeadFiles:    memFiles{m},
		Leads:        memLeads{m},
		Transactions: memTxs{m},
		Packs:        memPacks{m},
		Activities:   memActivities{m},
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memStore) sessionTaken(sessionID string) bool {
	if sessionID == "" {
		return false
	}
	for _, tx := range m.txs {
		if tx.CheckoutSessionID == sessionID {
			return true
		}
	}
	return false
}

func (m *memStore) actions(userID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, a := range m.activities {
		if a.UserID == userID {
			out = append(out, a.Action)
		}
	}
	return out
}

type memProfiles struct{ m *memStore }

func (r memProfiles) GetByID(_ context.Context, id string) (*models.Profile, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.profiles[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r memProfiles) Create(_ context.Context, p *models.Profile) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	cp := *p
	r.m.profiles[p.ID] = &cp
	return nil
}

func (r memProfiles) SetStripeAccountID(_ context.Context, id, accountID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.profiles[id]
	if !ok {
		return db.ErrNotFound
	}
	p.StripeAccountID = accountID
	return nil
}

func (r memProfiles) SetOnboardingCompleted(_ context.Context, id string, at time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.profiles[id]
	if !ok {
		return db.ErrNotFound
	}
	p.OnboardingCompletedAt = &at
	return nil
}

type memFiles struct{ m *memStore }

func (r memFiles) Create(_ context.Context, f *models.LeadFile) (string, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.createFileErr != nil {
		return "", r.m.createFileErr
	}
	cp := *f
	cp.ID = r.m.nextID("file")
	r.m.files[cp.ID] = &cp
	return cp.ID, nil
}

func (r memFiles) GetByID(_ context.Context, id string) (*models.LeadFile, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	f, ok := r.m.files[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (r memFiles) ListByUser(_ context.Context, userID string) ([]*models.LeadFile, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.LeadFile
	for _, f := range r.m.files {
		if f.UserID == userID {
			cp := *f
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memFiles) UpdateStatus(_ context.Context, id string, status models.LeadFileStatus, detail string, leadCount *int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.updateStatusErr != nil {
		return r.m.updateStatusErr
	}
	f, ok := r.m.files[id]
	if !ok {
		return db.ErrNotFound
	}
	f.Status = status
	f.StatusDetail = detail
	if leadCount != nil {
		f.LeadCount = *leadCount
	}
	return nil
}

func (r memFiles) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.files[id]; !ok {
		return db.ErrNotFound
	}
	delete(r.m.files, id)
	return nil
}

type memLeads struct{ m *memStore }

func (r memLeads) GetByID(_ context.Context, id string) (*models.Lead, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	l, ok := r.m.leads[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

// ListAvailable deliberately returns every lead so callers' own filtering is exercised.
func (r memLeads) ListAvailable(_ context.Context, f models.LeadFilter) ([]*models.Lead, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.listCalls++
	var out []*models.Lead
	for _, l := range r.m.leads {
		cp := *l
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memLeads) ListByBuyer(_ context.Context, buyerID string) ([]*models.Lead, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.Lead
	for _, l := range r.m.leads {
		if l.BuyerID == buyerID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r memLeads) Create(_ context.Context, l *models.Lead) (string, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	cp := *l
	if cp.ID == "" {
		cp.ID = r.m.nextID("lead")
	}
	r.m.leads[cp.ID] = &cp
	return cp.ID, nil
}

type memTxs struct{ m *memStore }

func (r memTxs) Create(_ context.Context, tx *models.Transaction) (string, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.sessionTaken(tx.CheckoutSessionID) {
		return "", fmt.Errorf("create: %w", db.ErrDuplicateCheckout)
	}
	tx.ID = r.m.nextID("tx")
	cp := *tx
	r.m.txs[cp.ID] = &cp
	return cp.ID, nil
}

func (r memTxs) SettleLeadSale(_ context.Context, tx *models.Transaction) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.settleErr != nil {
		return r.m.settleErr
	}
	if r.m.sessionTaken(tx.CheckoutSessionID) {
		return fmt.Errorf("settle: %w", db.ErrDuplicateCheckout)
	}
	l, ok := r.m.leads[tx.LeadID]
	if !ok {
		return fmt.Errorf("settle: %w", db.ErrNotFound)
	}
	if l.Status != models.LeadStatusAvailable {
		return fmt.Errorf("settle: %w", db.ErrLeadNotAvailable)
	}
	l.Status = models.LeadStatusSold
	l.BuyerID = tx.BuyerID
	soldAt := tx.CreatedAt
	l.SoldAt = &soldAt
	tx.ID = r.m.nextID("tx")
	cp := *tx
	r.m.txs[cp.ID] = &cp
	return nil
}

func (r memTxs) GetByCheckoutSession(_ context.Context, sessionID string) (*models.Transaction, error) {
	if r.m.beforeSessionLookup != nil {
		r.m.beforeSessionLookup()
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, tx := range r.m.txs {
		if tx.CheckoutSessionID != "" && tx.CheckoutSessionID == sessionID {
			cp := *tx
			return &cp, nil
		}
	}
	return nil, db.ErrNotFound
}

func (r memTxs) ListBySeller(_ context.Context, sellerID string) ([]*models.Transaction, error) {
	return r.list(func(tx *models.Transaction) bool { return tx.SellerID == sellerID })
}

func (r memTxs) ListByBuyer(_ context.Context, buyerID string) ([]*models.Transaction, error) {
	return r.list(func(tx *models.Transaction) bool { return tx.BuyerID == buyerID })
}

func (r memTxs) list(keep func(*models.Transaction) bool) ([]*models.Transaction, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.Transaction
	for _, tx := range r.m.txs {
		if keep(tx) {
			cp := *tx
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type memPacks struct{ m *memStore }

func (r memPacks) List(_ context.Context) ([]*models.LeadPack, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.LeadPack
	for _, p := range r.m.packs {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (r memPacks) GetByID(_ context.Context, id string) (*models.LeadPack, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.packs[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r memPacks) Create(_ context.Context, p *models.LeadPack) (string, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	cp := *p
	if cp.ID == "" {
		cp.ID = r.m.nextID("pack")
	}
	r.m.packs[cp.ID] = &cp
	return cp.ID, nil
}

type memActivities struct{ m *memStore }

func (r memActivities) Create(_ context.Context, e models.Activity) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.activityErr != nil {
		return r.m.activityErr
	}
	r.m.activities = append(r.m.activities, e)
	return nil
}

func (r memActivities) ListByUser(_ context.Context, userID string, limit int) ([]*models.Activity, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []*models.Activity
	for i := len(r.m.activities) - 1; i >= 0 && len(out) < limit; i-- {
		if r.m.activities[i].UserID == userID {
			cp := r.m.activities[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

// fakeDispatcher records dispatched files.
type fakeDispatcher struct {
	mu    sync.Mutex
	files []dispatch.File
	err   error
}

func (d *fakeDispatcher) Dispatch(_ context.Context, f dispatch.File) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.files = append(d.files, f)
	return d.err
}

// fakeGateway is a scripted payments.Gateway.
type fakeGateway struct {
	mu              sync.Mutex
	accounts        map[string]*payments.Account
	createdAccounts int
	checkouts       []payments.CheckoutParams
	refunds         []string
	loginLinks      int
	onboardingLinks []string
	event           *payments.Event
	parseErr        error
	checkoutErr     error
	refundErr       error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{accounts: map[string]*payments.Account{}}
}

func (g *fakeGateway) CreateAccount(_ context.Context, p payments.AccountParams) (*payments.Account, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.createdAccounts++
	acct := &payments.Account{ID: "acct_" + p.UserID}
	g.accounts[acct.ID] = acct
	return acct, nil
}

func (g *fakeGateway) GetAccount(_ context.Context, id string) (*payments.Account, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	acct, ok := g.accounts[id]
	if !ok {
		return nil, fmt.Errorf("%w: no such account", payments.ErrProvider)
	}
	return acct, nil
}

func (g *fakeGateway) CreateOnboardingLink(_ context.Context, id, refreshURL, returnURL string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onboardingLinks = append(g.onboardingLinks, refreshURL, returnURL)
	return "https://connect.stripe.test/setup/" + id, nil
}

func (g *fakeGateway) CreateLoginLink(_ context.Context, id string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.loginLinks++
	return "https://connect.stripe.test/express/" + id, nil
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, p payments.CheckoutParams) (*payments.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.checkoutErr != nil {
		return nil, g.checkoutErr
	}
	g.checkouts = append(g.checkouts, p)
	return &payments.CheckoutSession{ID: "cs_test", URL: "https://checkout.stripe.test/cs_test"}, nil
}

func (g *fakeGateway) RefundPayment(_ context.Context, pi string, _ bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.refundErr != nil {
		return g.refundErr
	}
	g.refunds = append(g.refunds, pi)
	return nil
}

func (g *fakeGateway) ParseWebhook(_ []byte, _ string) (*payments.Event, error) {
	if g.parseErr != nil {
		return nil, g.parseErr
	}
	return g.event, nil
}

// fakeMailer records sent messages.
type fakeMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (m *fakeMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func strPtr(s string) *string { return &s }
