package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"traddy-backend-go/internal/models"
)

func notFound(err error, kind, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s with ID '%s' not found: %w", kind, id, ErrNotFound)
	}
	return fmt.Errorf("failed to get %s with ID '%s': %w", kind, id, err)
}

// sqlProfileRepository implements ProfileRepository with gorm.
type sqlProfileRepository struct {
	db *gorm.DB
}

func (r *sqlProfileRepository) GetByID(ctx context.Context, userID string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", userID).First(&profile).Error; err != nil {
		return nil, notFound(err, "profile", userID)
	}
	return &profile, nil
}

func (r *sqlProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	if profile.ID == "" {
		return errors.New("profile ID cannot be empty for Create operation")
	}
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		return fmt.Errorf("failed to create profile with ID '%s': %w", profile.ID, err)
	}
	return nil
}

func (r *sqlProfileRepository) SetStripeAccountID(ctx context.Context, userID, accountID string) error {
	return r.update(ctx, userID, map[string]interface{}{"stripe_account_id": accountID})
}

func (r *sqlProfileRepository) SetOnboardingCompleted(ctx context.Context, userID string, at time.Time) error {
	return r.update(ctx, userID, map[string]interface{}{"onboarding_completed_at": at})
}

func (r *sqlProfileRepository) update(ctx context.Context, userID string, values map[string]interface{}) error {
	values["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", userID).Updates(values)
	if res.Error != nil {
		return fmt.Errorf("failed to update profile with ID '%s': %w", userID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("profile with ID '%s' not found: %w", userID, ErrNotFound)
	}
	return nil
}

// sqlLeadFileRepository implements LeadFileRepository with gorm.
type sqlLeadFileRepository struct {
	db *gorm.DB
}

func (r *sqlLeadFileRepository) Create(ctx context.Context, file *models.LeadFile) (string, error) {
	if file.ID == "" {
		file.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(file).Error; err != nil {
		return "", fmt.Errorf("failed to create lead file: %w", err)
	}
	return file.ID, nil
}

func (r *sqlLeadFileRepository) GetByID(ctx context.Context, fileID string) (*models.LeadFile, error) {
	var file models.LeadFile
	if err := r.db.WithContext(ctx).Where("id = ?", fileID).First(&file).Error; err != nil {
		return nil, notFound(err, "lead file", fileID)
	}
	return &file, nil
}

func (r *sqlLeadFileRepository) ListByUser(ctx context.Context, userID string) ([]*models.LeadFile, error) {
	var files []*models.LeadFile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list lead files for user '%s': %w", userID, err)
	}
	return files, nil
}

func (r *sqlLeadFileRepository) UpdateStatus(ctx context.Context, fileID string, status models.LeadFileStatus, detail string, leadCount *int) error {
	values := map[string]interface{}{
		"status":        string(status),
		"status_detail": detail,
		"updated_at":    time.Now().UTC(),
	}
	if leadCount != nil {
		values["lead_count"] = *leadCount
	}
	res := r.db.WithContext(ctx).Model(&models.LeadFile{}).Where("id = ?", fileID).Updates(values)
	if res.Error != nil {
		return fmt.Errorf("failed to update status of lead file '%s': %w", fileID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("lead file with ID '%s' not found: %w", fileID, ErrNotFound)
	}
	return nil
}

func (r *sqlLeadFileRepository) Delete(ctx context.Context, fileID string) error {
	res := r.db.WithContext(ctx).Where("id = ?", fileID).Delete(&models.LeadFile{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete lead file '%s': %w", fileID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("lead file with ID '%s' not found: %w", fileID, ErrNotFound)
	}
	return nil
}

// sqlLeadRepository implements LeadRepository with gorm.
type sqlLeadRepository struct {
	db *gorm.DB
}

func (r *sqlLeadRepository) GetByID(ctx context.Context, leadID string) (*models.Lead, error) {
	var lead models.Lead
	if err := r.db.WithContext(ctx).Where("id = ?", leadID).First(&lead).Error; err != nil {
		return nil, notFound(err, "lead", leadID)
	}
	return &lead, nil
}

// ListAvailable pushes every predicate into SQL. Equality is case-insensitive
// and whitespace-trimmed to match models.LeadFilter.Matches.
func (r *sqlLeadRepository) ListAvailable(ctx context.Context, f models.LeadFilter) ([]*models.Lead, error) {
	q := r.db.WithContext(ctx).Model(&models.Lead{}).Where("status = ?", string(models.LeadStatusAvailable))

	for column, value := range map[string]string{
		"city":         f.City,
		"country":      f.Country,
		"company_name": f.Company,
		"industry":     f.Industry,
		"intention":    f.Intention,
		"source":       f.Source,
	} {
		if value != "" {
			q = q.Where("LOWER(TRIM("+column+")) = ?", strings.ToLower(strings.TrimSpace(value)))
		}
	}
	if f.MinAge != nil {
		q = q.Where("age >= ?", *f.MinAge)
	}
	if f.MaxAge != nil {
		q = q.Where("age <= ?", *f.MaxAge)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	if f.ContactFrom != nil {
		q = q.Where("contact_date >= ?", f.ContactFrom.UTC())
	}
	if f.ContactTo != nil {
		q = q.Where("contact_date <= ?", f.ContactTo.UTC())
	}

	if f.Sort == models.SortByContactDate {
		q = q.Order("contact_date IS NULL").Order("contact_date DESC")
	}
	q = q.Order("created_at DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var leads []*models.Lead
	if err := q.Find(&leads).Error; err != nil {
		return nil, fmt.Errorf("failed to list available leads: %w", err)
	}
	return leads, nil
}

func (r *sqlLeadRepository) ListByBuyer(ctx context.Context, buyerID string) ([]*models.Lead, error) {
	var leads []*models.Lead
	err := r.db.WithContext(ctx).Where("buyer_id = ?", buyerID).Order("sold_at DESC").Find(&leads).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list leads bought by '%s': %w", buyerID, err)
	}
	return leads, nil
}

func (r *sqlLeadRepository) Create(ctx context.Context, lead *models.Lead) (string, error) {
	if lead.ID == "" {
		lead.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(lead).Error; err != nil {
		return "", fmt.Errorf("failed to create lead: %w", err)
	}
	return lead.ID, nil
}

// sqlTransactionRepository implements TransactionRepository with gorm.
type sqlTransactionRepository struct {
	db *gorm.DB
}

func (r *sqlTransactionRepository) Create(ctx context.Context, tx *models.Transaction) (string, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		if isDuplicateKey(err) {
			return "", fmt.Errorf("%w: session '%s'", ErrDuplicateCheckout, tx.CheckoutSessionID)
		}
		return "", fmt.Errorf("failed to create transaction: %w", err)
	}
	return tx.ID, nil
}

// SettleLeadSale uses a conditional UPDATE on status as the compare-and-swap.
// Zero affected rows means another buyer got there first, or the lead is gone.
func (r *sqlTransactionRepository) SettleLeadSale(ctx context.Context, tx *models.Transaction) error {
	if tx.LeadID == "" {
		return errors.New("transaction has no lead to settle")
	}
	err := r.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
		res := gtx.Model(&models.Lead{}).
			Where("id = ? AND status = ?", tx.LeadID, string(models.LeadStatusAvailable)).
			Updates(map[string]interface{}{
				"status":   string(models.LeadStatusSold),
				"buyer_id": tx.BuyerID,
				"sold_at":  tx.CreatedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := gtx.Model(&models.Lead{}).Where("id = ?", tx.LeadID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return fmt.Errorf("lead with ID '%s' not found: %w", tx.LeadID, ErrNotFound)
			}
			return fmt.Errorf("%w: lead '%s'", ErrLeadNotAvailable, tx.LeadID)
		}
		if tx.ID == "" {
			tx.ID = uuid.NewString()
		}
		return gtx.Create(tx).Error
	})
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: session '%s'", ErrDuplicateCheckout, tx.CheckoutSessionID)
		}
		return fmt.Errorf("failed to settle sale of lead '%s': %w", tx.LeadID, err)
	}
	return nil
}

// isDuplicateKey recognizes unique-constraint violations. gorm translates them
// when TranslateError is set; the message check covers drivers that do not.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

func (r *sqlTransactionRepository) GetByCheckoutSession(ctx context.Context, sessionID string) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.db.WithContext(ctx).Where("checkout_session_id = ?", sessionID).First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("transaction for session '%s' not found: %w", sessionID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to look up transaction for session '%s': %w", sessionID, err)
	}
	return &tx, nil
}

func (r *sqlTransactionRepository) ListBySeller(ctx context.Context, sellerID string) ([]*models.Transaction, error) {
	return r.listBy(ctx, "seller_id", sellerID)
}

func (r *sqlTransactionRepository) ListByBuyer(ctx context.Context, buyerID string) ([]*models.Transaction, error) {
	return r.listBy(ctx, "buyer_id", buyerID)
}

func (r *sqlTransactionRepository) listBy(ctx context.Context, column, userID string) ([]*models.Transaction, error) {
	var txs []*models.Transaction
	err := r.db.WithContext(ctx).Where(column+" = ?", userID).Order("created_at DESC").Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions by %s '%s': %w", column, userID, err)
	}
	return txs, nil
}

// sqlPackRepository implements LeadPackRepository with gorm.
type sqlPackRepository struct {
	db *gorm.DB
}

func (r *sqlPackRepository) List(ctx context.Context) ([]*models.LeadPack, error) {
	var packs []*models.LeadPack
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&packs).Error; err != nil {
		return nil, fmt.Errorf("failed to list lead packs: %w", err)
	}
	return packs, nil
}

func (r *sqlPackRepository) GetByID(ctx context.Context, packID string) (*models.LeadPack, error) {
	var pack models.LeadPack
	if err := r.db.WithContext(ctx).Where("id = ?", packID).First(&pack).Error; err != nil {
		return nil, notFound(err, "lead pack", packID)
	}
	return &pack, nil
}

func (r *sqlPackRepository) Create(ctx context.Context, pack *models.LeadPack) (string, error) {
	if pack.ID == "" {
		pack.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(pack).Error; err != nil {
		return "", fmt.Errorf("failed to create lead pack: %w", err)
	}
	return pack.ID, nil
}

// sqlActivityRepository implements ActivityRepository with gorm.
type sqlActivityRepository struct {
	db *gorm.DB
}

func (r *sqlActivityRepository) Create(ctx context.Context, entry models.Activity) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to create activity entry: %w", err)
	}
	return nil
}

func (r *sqlActivityRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.Activity, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("occurred_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var entries []*models.Activity
	if err := q.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list activity for user '%s': %w", userID, err)
	}
	return entries, nil
}
