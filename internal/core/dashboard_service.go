package core

import (
	"context"
	"fmt"
	"math"
	"time"

	"traddy-backend-go/internal/db"
	"traddy-backend-go/internal/models"
)

const recentActivityLimit = 5

// dashboardService implements the DashboardService interface.
type dashboardService struct {
	fileRepo db.LeadFileRepository
	txRepo   db.TransactionRepository
	activity ActivityService
	now      func() time.Time
}

// NewDashboardService creates a new DashboardService instance.
func NewDashboardService(fileRepo db.LeadFileRepository, txRepo db.TransactionRepository, activity ActivityService) DashboardService {
	return &dashboardService{fileRepo: fileRepo, txRepo: txRepo, activity: activity, now: time.Now}
}

// Stats aggregates the caller's files and sales. Periods are split one
// calendar month before now: recent is strictly after the cutoff.
func (s *dashboardService) Stats(ctx context.Context, userID string) (*models.DashboardStats, error) {
	files, err := s.fileRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load lead files for dashboard: %w", err)
	}
	sales, err := s.txRepo.ListBySeller(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales for dashboard: %w", err)
	}
	purchases, err := s.txRepo.ListByBuyer(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load purchases for dashboard: %w", err)
	}
	recent, err := s.activity.Recent(ctx, userID, recentActivityLimit)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	cutoff := now.AddDate(0, -1, 0)

	var totalLeads, recentLeads, previousLeads float64
	for _, f := range files {
		n := float64(f.LeadCount)
		totalLeads += n
		if f.CreatedAt.After(cutoff) {
			recentLeads += n
		} else {
			previousLeads += n
		}
	}

	var revenue, recentRevenue, previousRevenue float64
	for _, tx := range sales {
		if tx.Status == models.TransactionStatusRefunded {
			continue
		}
		revenue += tx.Amount
		if tx.CreatedAt.After(cutoff) {
			recentRevenue += tx.Amount
		} else {
			previousRevenue += tx.Amount
		}
	}

	leadsChange, leadsTrend := PeriodChange(recentLeads, previousLeads)
	revenueChange, revenueTrend := PeriodChange(recentRevenue, previousRevenue)

	return &models.DashboardStats{
		Stats: []models.DashboardStat{
			{Name: "Total Leads", Value: fmt.Sprintf("%d", int64(totalLeads)), Change: leadsChange, Trend: leadsTrend},
			{Name: "Revenue", Value: fmt.Sprintf("%.2f€", revenue), Change: revenueChange, Trend: revenueTrend},
			{Name: "Leads Achetés", Value: fmt.Sprintf("%d", len(purchases)), Change: "N/A", Trend: models.TrendUp},
			{Name: "Active Listings", Value: fmt.Sprintf("%d", len(files)), Change: "N/A", Trend: models.TrendUp},
		},
		RecentActivity: recent,
		GeneratedAt:    now,
	}, nil
}

// PeriodChange formats the relative change from previous to recent.
// A zero previous period has no defined change and reads "N/A".
func PeriodChange(recent, previous float64) (string, models.Trend) {
	if previous == 0 {
		return "N/A", models.TrendUp
	}
	change := (recent - previous) / previous * 100
	trend := models.TrendUp
	if change < 0 {
		trend = models.TrendDown
	}
	return fmt.Sprintf("%.1f%%", math.Abs(change)), trend
}
