package core

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"traddy-backend-go/internal/db"
	"traddy-backend-go/internal/mailer"
	"traddy-backend-go/internal/models"
	"traddy-backend-go/internal/payments"
)

var (
	ErrLeadNotFound           = errors.New("lead not found")
	ErrLeadUnavailable        = errors.New("lead is no longer available")
	ErrOwnLead                = errors.New("sellers cannot buy their own leads")
	ErrSellerNotOnboarded     = errors.New("seller has no payout account")
	ErrPackNotFound           = errors.New("lead pack not found")
	ErrInvalidPrice           = errors.New("price must be positive")
	ErrDirectPurchaseDisabled = errors.New("direct purchase is disabled")
	ErrPaymentProvider        = errors.New("payment provider operation failed")
	ErrWebhookSignature       = errors.New("stripe webhook signature verification failed")
	ErrWebhookProcessing      = errors.New("stripe webhook processing failed")
)

// BillingOptions configures pricing and redirects.
type BillingOptions struct {
	FeePercent            float64
	Currency              string
	ClientURL             string
	DirectPurchaseEnabled bool
}

// billingService implements the BillingService interface.
type billingService struct {
	store    *db.Store
	gateway  payments.Gateway
	mail     mailer.Mailer
	activity ActivityService
	opts     BillingOptions
	logger   *zap.Logger
}

// NewBillingService creates a new BillingService instance.
func NewBillingService(store *db.Store, gateway payments.Gateway, mail mailer.Mailer, activity ActivityService, opts BillingOptions, logger *zap.Logger) BillingService {
	if opts.Currency == "" {
		opts.Currency = "eur"
	}
	return &billingService{store: store, gateway: gateway, mail: mail, activity: activity, opts: opts, logger: logger}
}

// CreateLeadCheckout opens a destination-charge checkout for one available lead
// and returns the hosted checkout URL.
func (s *billingService) CreateLeadCheckout(ctx context.Context, buyerID string, req models.CreateCheckoutSessionRequest) (string, error) {
	lead, err := s.getLead(ctx, req.LeadID)
	if err != nil {
		return "", err
	}
	if lead.Status != models.LeadStatusAvailable {
		return "", fmt.Errorf("%w: %s", ErrLeadUnavailable, lead.ID)
	}
	if lead.UserID == buyerID {
		return "", ErrOwnLead
	}

	seller, err := s.store.Profiles.GetByID(ctx, lead.UserID)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return "", fmt.Errorf("failed to get seller profile '%s': %w", lead.UserID, err)
	}
	if !seller.HasPaymentAccount() {
		return "", fmt.Errorf("%w: seller '%s'", ErrSellerNotOnboarded, lead.UserID)
	}

	amount := toCents(lead.Price)
	if amount <= 0 {
		return "", fmt.Errorf("%w: lead '%s'", ErrInvalidPrice, lead.ID)
	}
	fee := feeCents(amount, s.opts.FeePercent)
	origin := resolveOrigin(req.Origin, s.opts.ClientURL)

	session, err := s.gateway.CreateCheckoutSession(ctx, payments.CheckoutParams{
		ProductName: fmt.Sprintf("Lead - %s", lead.Intention),
		Description: fmt.Sprintf("Lead de %s, %s", lead.City, lead.Country),
		Currency:    s.opts.Currency,
		AmountCents: amount,
		FeeCents:    fee,
		Destination: seller.StripeAccountID,
		SuccessURL:  origin + "/dashboard?success=true",
		CancelURL:   origin + "/listing?canceled=true",
		CustomerRef: buyerID,
		Metadata: map[string]string{
			payments.MetaKind:     payments.KindLead,
			payments.MetaLeadID:   lead.ID,
			payments.MetaBuyerID:  buyerID,
			payments.MetaSellerID: lead.UserID,
			payments.MetaFileID:   lead.LeadFileID,
			payments.MetaFeeCents: strconv.FormatInt(fee, 10),
		},
	})
	if err != nil {
		s.logger.Error("failed to create lead checkout", zap.String("user_id", buyerID), zap.String("lead_id", lead.ID), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrPaymentProvider, err)
	}
	return session.URL, nil
}

// CreatePackCheckout opens a platform-collected checkout for a catalog pack.
func (s *billingService) CreatePackCheckout(ctx context.Context, buyerID, packID, origin string) (string, error) {
	pack, err := s.store.Packs.GetByID(ctx, packID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return "", fmt.Errorf("%w: %s", ErrPackNotFound, packID)
		}
		return "", fmt.Errorf("failed to get pack '%s': %w", packID, err)
	}
	amount := toCents(pack.Price)
	if amount <= 0 {
		return "", fmt.Errorf("%w: pack '%s'", ErrInvalidPrice, pack.ID)
	}
	base := resolveOrigin(origin, s.opts.ClientURL)

	session, err := s.gateway.CreateCheckoutSession(ctx, payments.CheckoutParams{
		ProductName: pack.Name,
		Description: pack.Description,
		Currency:    s.opts.Currency,
		AmountCents: amount,
		SuccessURL:  base + "/packs?success=true",
		CancelURL:   base + "/packs?canceled=true",
		CustomerRef: buyerID,
		Metadata: map[string]string{
			payments.MetaKind:    payments.KindPack,
			payments.MetaPackID:  pack.ID,
			payments.MetaBuyerID: buyerID,
		},
	})
	if err != nil {
		s.logger.Error("failed to create pack checkout", zap.String("user_id", buyerID), zap.String("pack_id", pack.ID), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrPaymentProvider, err)
	}
	return session.URL, nil
}

// HandleStripeWebhook settles completed checkouts. Redelivered events are
// recognized by their checkout session and ignored.
func (s *billingService) HandleStripeWebhook(ctx context.Context, signature string, payload []byte) error {
	evt, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, payments.ErrInvalidSignature) {
			return fmt.Errorf("%w: %v", ErrWebhookSignature, err)
		}
		return fmt.Errorf("%w: %v", ErrWebhookProcessing, err)
	}
	if evt.Type != payments.EventCheckoutCompleted || evt.Checkout == nil {
		s.logger.Debug("ignoring stripe event", zap.String("event_id", evt.ID), zap.String("type", evt.Type))
		return nil
	}
	co := evt.Checkout
	if !co.Paid {
		s.logger.Info("checkout completed without payment", zap.String("session_id", co.SessionID))
		return nil
	}

	settled, err := s.alreadySettled(ctx, co.SessionID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWebhookProcessing, err)
	}
	if settled {
		s.logger.Info("checkout already settled", zap.String("session_id", co.SessionID))
		return nil
	}

	switch co.Metadata[payments.MetaKind] {
	case payments.KindLead:
		return s.settleLeadCheckout(ctx, co)
	case payments.KindPack:
		return s.settlePackCheckout(ctx, co)
	default:
		s.logger.Warn("checkout without marketplace metadata", zap.String("session_id", co.SessionID))
		return nil
	}
}

func (s *billingService) settleLeadCheckout(ctx context.Context, co *payments.CompletedCheckout) error {
	fee, err := strconv.ParseInt(co.Metadata[payments.MetaFeeCents], 10, 64)
	if err != nil || fee < 0 {
		fee = feeCents(co.AmountTotal, s.opts.FeePercent)
		s.logger.Warn("checkout fee metadata unreadable, recomputed from amount",
			zap.String("session_id", co.SessionID), zap.String("fee_meta", co.Metadata[payments.MetaFeeCents]), zap.Int64("fee_cents", fee))
	}
	tx := &models.Transaction{
		LeadID:            co.Metadata[payments.MetaLeadID],
		LeadFileID:        co.Metadata[payments.MetaFileID],
		BuyerID:           co.Metadata[payments.MetaBuyerID],
		SellerID:          co.Metadata[payments.MetaSellerID],
		Amount:            fromCents(co.AmountTotal),
		PlatformFee:       fromCents(fee),
		Currency:          co.Currency,
		Status:            models.TransactionStatusCompleted,
		CheckoutSessionID: co.SessionID,
		PaymentIntentID:   co.PaymentIntentID,
		CreatedAt:         time.Now().UTC(),
	}

	err = s.store.Transactions.SettleLeadSale(ctx, tx)
	if err == nil {
		s.afterLeadSale(ctx, tx)
		return nil
	}
	if errors.Is(err, db.ErrDuplicateCheckout) {
		s.logger.Info("checkout already settled", zap.String("session_id", co.SessionID))
		return nil
	}
	if !errors.Is(err, db.ErrLeadNotAvailable) && !errors.Is(err, db.ErrNotFound) {
		s.logger.Error("failed to settle lead sale", zap.String("session_id", co.SessionID), zap.String("lead_id", tx.LeadID), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrWebhookProcessing, err)
	}

	// A concurrent delivery of the same event may have won the race.
	if settled, cerr := s.alreadySettled(ctx, co.SessionID); cerr == nil && settled {
		return nil
	}

	s.logger.Warn("lead sold to another buyer, refunding",
		zap.String("session_id", co.SessionID), zap.String("lead_id", tx.LeadID), zap.String("user_id", tx.BuyerID))
	if rerr := s.gateway.RefundPayment(ctx, co.PaymentIntentID, true); rerr != nil {
		s.logger.Error("refund failed", zap.String("payment_intent_id", co.PaymentIntentID), zap.Error(rerr))
		return fmt.Errorf("%w: refund of %s: %v", ErrWebhookProcessing, co.PaymentIntentID, rerr)
	}
	s.record(ctx, models.Activity{
		UserID:     tx.BuyerID,
		Action:     models.ActivityPurchaseRefund,
		TargetType: "LEAD",
		TargetID:   tx.LeadID,
		Details:    map[string]interface{}{"amount": tx.Amount, "currency": tx.Currency},
	})
	return nil
}

func (s *billingService) settlePackCheckout(ctx context.Context, co *payments.CompletedCheckout) error {
	amount := fromCents(co.AmountTotal)
	tx := &models.Transaction{
		PackID:            co.Metadata[payments.MetaPackID],
		BuyerID:           co.Metadata[payments.MetaBuyerID],
		Amount:            amount,
		PlatformFee:       amount,
		Currency:          co.Currency,
		Status:            models.TransactionStatusCompleted,
		CheckoutSessionID: co.SessionID,
		PaymentIntentID:   co.PaymentIntentID,
		CreatedAt:         time.Now().UTC(),
	}
	if _, err := s.store.Transactions.Create(ctx, tx); err != nil {
		if errors.Is(err, db.ErrDuplicateCheckout) {
			s.logger.Info("checkout already settled", zap.String("session_id", co.SessionID))
			return nil
		}
		s.logger.Error("failed to record pack purchase", zap.String("session_id", co.SessionID), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrWebhookProcessing, err)
	}
	s.record(ctx, models.Activity{
		UserID:     tx.BuyerID,
		Action:     models.ActivityPackPurchased,
		TargetType: "PACK",
		TargetID:   tx.PackID,
		Details:    map[string]interface{}{"amount": tx.Amount},
	})
	return nil
}

// PurchaseDirect marks a lead as sold without collecting payment. It shares
// the settlement path with the checkout flow.
func (s *billingService) PurchaseDirect(ctx context.Context, buyerID, leadID string) (*models.Transaction, error) {
	if !s.opts.DirectPurchaseEnabled {
		return nil, ErrDirectPurchaseDisabled
	}
	lead, err := s.getLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if lead.UserID == buyerID {
		return nil, ErrOwnLead
	}
	if lead.Status != models.LeadStatusAvailable {
		return nil, fmt.Errorf("%w: %s", ErrLeadUnavailable, lead.ID)
	}

	tx := &models.Transaction{
		LeadID:     lead.ID,
		LeadFileID: lead.LeadFileID,
		BuyerID:    buyerID,
		SellerID:   lead.UserID,
		Amount:     lead.Price,
		Currency:   s.opts.Currency,
		Status:     models.TransactionStatusCompleted,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.Transactions.SettleLeadSale(ctx, tx); err != nil {
		switch {
		case errors.Is(err, db.ErrLeadNotAvailable):
			return nil, fmt.Errorf("%w: %s", ErrLeadUnavailable, lead.ID)
		case errors.Is(err, db.ErrNotFound):
			return nil, fmt.Errorf("%w: %s", ErrLeadNotFound, lead.ID)
		}
		return nil, fmt.Errorf("failed to settle purchase of lead '%s': %w", lead.ID, err)
	}
	s.afterLeadSale(ctx, tx)
	return tx, nil
}

// ListTransactions returns the user's purchases and sales, newest first.
func (s *billingService) ListTransactions(ctx context.Context, userID string) ([]*models.TransactionWithFile, error) {
	bought, err := s.store.Transactions.ListByBuyer(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases of '%s': %w", userID, err)
	}
	sold, err := s.store.Transactions.ListBySeller(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales of '%s': %w", userID, err)
	}

	seen := make(map[string]bool, len(bought)+len(sold))
	files := make(map[string]*models.LeadFile)
	out := make([]*models.TransactionWithFile, 0, len(bought)+len(sold))
	for _, tx := range append(bought, sold...) {
		if seen[tx.ID] {
			continue
		}
		seen[tx.ID] = true
		row := &models.TransactionWithFile{Transaction: *tx}
		if tx.LeadFileID != "" {
			file, ok := files[tx.LeadFileID]
			if !ok {
				file, err = s.store.LeadFiles.GetByID(ctx, tx.LeadFileID)
				if err != nil && !errors.Is(err, db.ErrNotFound) {
					return nil, fmt.Errorf("failed to join lead file '%s': %w", tx.LeadFileID, err)
				}
				files[tx.LeadFileID] = file
			}
			if file != nil {
				row.FileName = file.FileName
				row.LeadCount = file.LeadCount
			}
		}
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *billingService) afterLeadSale(ctx context.Context, tx *models.Transaction) {
	details := map[string]interface{}{"amount": tx.Amount, "currency": tx.Currency}
	s.record(ctx, models.Activity{UserID: tx.BuyerID, Action: models.ActivityLeadPurchased, TargetType: "LEAD", TargetID: tx.LeadID, Details: details})
	s.record(ctx, models.Activity{UserID: tx.SellerID, Action: models.ActivityLeadSold, TargetType: "LEAD", TargetID: tx.LeadID, Details: details})
	s.notifySeller(ctx, tx)
}

func (s *billingService) notifySeller(ctx context.Context, tx *models.Transaction) {
	seller, err := s.store.Profiles.GetByID(ctx, tx.SellerID)
	if err != nil || seller.Email == "" {
		return
	}
	err = s.mail.Send(ctx, mailer.Message{
		To:      seller.Email,
		Subject: "Votre lead a été vendu",
		Body: fmt.Sprintf("<p>Bonne nouvelle ! Un de vos leads vient d'être acheté pour %.2f %s.</p>",
			tx.Amount, strings.ToUpper(tx.Currency)),
	})
	if err != nil {
		s.logger.Warn("sale notification not sent", zap.String("user_id", tx.SellerID), zap.Error(err))
	}
}

func (s *billingService) alreadySettled(ctx context.Context, sessionID string) (bool, error) {
	_, err := s.store.Transactions.GetByCheckoutSession(ctx, sessionID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, db.ErrNotFound) {
		return false, nil
	}
	return false, err
}

func (s *billingService) getLead(ctx context.Context, leadID string) (*models.Lead, error) {
	lead, err := s.store.Leads.GetByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrLeadNotFound, leadID)
		}
		return nil, fmt.Errorf("failed to get lead '%s': %w", leadID, err)
	}
	return lead, nil
}

func (s *billingService) record(ctx context.Context, entry models.Activity) {
	if entry.UserID == "" {
		return
	}
	if err := s.activity.Record(ctx, entry); err != nil {
		s.logger.Warn("failed to record activity", zap.String("action", entry.Action), zap.String("user_id", entry.UserID), zap.Error(err))
	}
}

// toCents converts a decimal price to minor units, rounding half away from zero.
func toCents(price float64) int64 {
	return decimal.NewFromFloat(price).Shift(2).Round(0).IntPart()
}

func fromCents(cents int64) float64 {
	return decimal.New(cents, -2).InexactFloat64()
}

// feeCents is percent of amount, rounded to the nearest cent.
func feeCents(amount int64, percent float64) int64 {
	return decimal.NewFromInt(amount).Mul(decimal.NewFromFloat(percent)).Div(decimal.NewFromInt(100)).Round(0).IntPart()
}

// resolveOrigin keeps a caller-supplied origin only when it points at the
// configured client host, so redirects cannot leave the front-end.
func resolveOrigin(requested, clientURL string) string {
	fallback := strings.TrimRight(clientURL, "/")
	if requested == "" {
		return fallback
	}
	req, err := url.Parse(requested)
	if err != nil || req.Host == "" || (req.Scheme != "http" && req.Scheme != "https") {
		return fallback
	}
	client, err := url.Parse(clientURL)
	if err != nil || !strings.EqualFold(req.Host, client.Host) {
		return fallback
	}
	return req.Scheme + "://" + req.Host
}
