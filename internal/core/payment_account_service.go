package core

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"traddy-backend-go/internal/db"
	"traddy-backend-go/internal/models"
	"traddy-backend-go/internal/payments"
)

var (
	ErrUserMismatch     = errors.New("payment account can only be created for the caller")
	ErrNoPaymentAccount = errors.New("no payment account configured")
)

// PaymentAccountOptions configures new connected accounts.
type PaymentAccountOptions struct {
	Country   string
	ClientURL string
}

// paymentAccountService implements the PaymentAccountService interface.
type paymentAccountService struct {
	profileRepo db.ProfileRepository
	gateway     payments.Gateway
	activity    ActivityService
	opts        PaymentAccountOptions
	logger      *zap.Logger
}

// NewPaymentAccountService creates a new PaymentAccountService instance.
func NewPaymentAccountService(profileRepo db.ProfileRepository, gateway payments.Gateway, activity ActivityService, opts PaymentAccountOptions, logger *zap.Logger) PaymentAccountService {
	if opts.Country == "" {
		opts.Country = "FR"
	}
	return &paymentAccountService{profileRepo: profileRepo, gateway: gateway, activity: activity, opts: opts, logger: logger}
}

func (s *paymentAccountService) GetStatus(ctx context.Context, userID string) (*models.PaymentAccountStatus, error) {
	profile, err := s.getProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !profile.HasPaymentAccount() {
		return &models.PaymentAccountStatus{OnboardingRequired: true}, nil
	}
	account, err := s.gateway.GetAccount(ctx, profile.StripeAccountID)
	if err != nil {
		s.logger.Error("failed to fetch payment account", zap.String("user_id", userID), zap.String("account_id", profile.StripeAccountID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrPaymentProvider, err)
	}
	return &models.PaymentAccountStatus{
		AccountID:          account.ID,
		OnboardingRequired: !account.DetailsSubmitted,
		DetailsSubmitted:   account.DetailsSubmitted,
		ChargesEnabled:     account.ChargesEnabled,
	}, nil
}

// CreateOrResume reuses the stored account when there is one and only creates
// a new account otherwise. The new id is saved before any link is issued.
func (s *paymentAccountService) CreateOrResume(ctx context.Context, callerID, callerEmail string, req models.CreatePaymentAccountRequest) (string, error) {
	if req.UserID != "" && req.UserID != callerID {
		return "", ErrUserMismatch
	}
	profile, err := s.getProfile(ctx, callerID)
	if err != nil {
		return "", err
	}

	accountID := profile.StripeAccountID
	detailsSubmitted := false
	if accountID == "" {
		email := profile.Email
		if email == "" {
			email = callerEmail
		}
		account, err := s.gateway.CreateAccount(ctx, payments.AccountParams{UserID: callerID, Email: email, Country: s.opts.Country})
		if err != nil {
			s.logger.Error("failed to create payment account", zap.String("user_id", callerID), zap.Error(err))
			return "", fmt.Errorf("%w: %v", ErrPaymentProvider, err)
		}
		if err := s.profileRepo.SetStripeAccountID(ctx, callerID, account.ID); err != nil {
			return "", fmt.Errorf("failed to save payment account for '%s': %w", callerID, err)
		}
		accountID = account.ID
		detailsSubmitted = account.DetailsSubmitted
		if err := s.activity.Record(ctx, models.Activity{UserID: callerID, Action: models.ActivityPayoutAccount, TargetType: "PAYMENT_ACCOUNT", TargetID: accountID}); err != nil {
			s.logger.Warn("failed to record activity", zap.String("user_id", callerID), zap.Error(err))
		}
	} else {
		account, err := s.gateway.GetAccount(ctx, accountID)
		if err != nil {
			s.logger.Error("failed to fetch payment account", zap.String("user_id", callerID), zap.String("account_id", accountID), zap.Error(err))
			return "", fmt.Errorf("%w: %v", ErrPaymentProvider, err)
		}
		detailsSubmitted = account.DetailsSubmitted
	}

	if detailsSubmitted {
		return s.loginLink(ctx, callerID, accountID)
	}
	origin := resolveOrigin(req.Origin, s.opts.ClientURL)
	link, err := s.gateway.CreateOnboardingLink(ctx, accountID, origin+"/settings?refresh=true", origin+"/settings?success=true")
	if err != nil {
		s.logger.Error("failed to create onboarding link", zap.String("user_id", callerID), zap.String("account_id", accountID), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrPaymentProvider, err)
	}
	return link, nil
}

func (s *paymentAccountService) CreateLoginLink(ctx context.Context, userID string) (string, error) {
	profile, err := s.getProfile(ctx, userID)
	if err != nil {
		return "", err
	}
	if !profile.HasPaymentAccount() {
		return "", ErrNoPaymentAccount
	}
	return s.loginLink(ctx, userID, profile.StripeAccountID)
}

func (s *paymentAccountService) loginLink(ctx context.Context, userID, accountID string) (string, error) {
	link, err := s.gateway.CreateLoginLink(ctx, accountID)
	if err != nil {
		s.logger.Error("failed to create login link", zap.String("user_id", userID), zap.String("account_id", accountID), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrPaymentProvider, err)
	}
	return link, nil
}

func (s *paymentAccountService) getProfile(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, userID)
		}
		return nil, fmt.Errorf("failed to get profile '%s': %w", userID, err)
	}
	return profile, nil
}
