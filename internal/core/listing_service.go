package core

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"traddy-backend-go/internal/cache"
	"traddy-backend-go/internal/db"
	"traddy-backend-go/internal/models"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 500
	facetsCacheKey   = "leads:facets:v1"
)

// listingService implements the ListingService interface.
type listingService struct {
	leadRepo db.LeadRepository
	packRepo db.LeadPackRepository
	cache    cache.Cache
	facetTTL time.Duration
	logger   *zap.Logger
}

// NewListingService creates a new ListingService instance.
func NewListingService(leadRepo db.LeadRepository, packRepo db.LeadPackRepository, c cache.Cache, facetTTL time.Duration, logger *zap.Logger) ListingService {
	return &listingService{leadRepo: leadRepo, packRepo: packRepo, cache: c, facetTTL: facetTTL, logger: logger}
}

func (s *listingService) ListAvailable(ctx context.Context, viewerID string, filter models.LeadFilter) ([]*models.Lead, error) {
	if filter.Sort != models.SortByContactDate {
		filter.Sort = models.SortByCreatedAt
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultListLimit
	}
	if filter.Limit > MaxListLimit {
		filter.Limit = MaxListLimit
	}

	leads, err := s.leadRepo.ListAvailable(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list available leads: %w", err)
	}
	out := make([]*models.Lead, 0, len(leads))
	for _, l := range leads {
		// Repositories already filter; this keeps the invariant if one drifts.
		if !filter.Matches(l) {
			continue
		}
		out = append(out, redactFor(l, viewerID))
	}
	return out, nil
}

// Facets returns distinct filter values over every available lead,
// independent of any filter the caller has applied.
func (s *listingService) Facets(ctx context.Context) (*models.LeadFacets, error) {
	if cached, err := s.cache.Get(ctx, facetsCacheKey); err == nil && cached != "" {
		var facets models.LeadFacets
		if err := json.Unmarshal([]byte(cached), &facets); err == nil {
			return &facets, nil
		}
	} else if err != nil {
		s.logger.Warn("facet cache read failed", zap.Error(err))
	}

	leads, err := s.leadRepo.ListAvailable(ctx, models.LeadFilter{Sort: models.SortByCreatedAt})
	if err != nil {
		return nil, fmt.Errorf("failed to load leads for facets: %w", err)
	}
	facets := buildFacets(leads)

	if raw, err := json.Marshal(facets); err == nil {
		if err := s.cache.Set(ctx, facetsCacheKey, string(raw), s.facetTTL); err != nil {
			s.logger.Warn("facet cache write failed", zap.Error(err))
		}
	}
	return facets, nil
}

func (s *listingService) ListPurchased(ctx context.Context, buyerID string) ([]*models.Lead, error) {
	leads, err := s.leadRepo.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchased leads for '%s': %w", buyerID, err)
	}
	return leads, nil
}

func (s *listingService) ListPacks(ctx context.Context) ([]*models.LeadPack, error) {
	packs, err := s.packRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list lead packs: %w", err)
	}
	return packs, nil
}

func buildFacets(leads []*models.Lead) *models.LeadFacets {
	var cities, countries, companies, industries, intentions, sources distinct
	for _, l := range leads {
		if l.Status != models.LeadStatusAvailable {
			continue
		}
		cities.add(l.City)
		countries.add(l.Country)
		companies.add(l.CompanyName)
		industries.add(l.Industry)
		intentions.add(l.Intention)
		sources.add(l.Source)
	}
	return &models.LeadFacets{
		Cities:     cities.sorted(),
		Countries:  countries.sorted(),
		Companies:  companies.sorted(),
		Industries: industries.sorted(),
		Intentions: intentions.sorted(),
		Sources:    sources.sorted(),
	}
}

// distinct collects values case-insensitively, keeping the first spelling seen.
type distinct struct {
	seen   map[string]bool
	values []string
}

func (d *distinct) add(v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	if d.seen == nil {
		d.seen = make(map[string]bool)
	}
	key := strings.ToLower(v)
	if d.seen[key] {
		return
	}
	d.seen[key] = true
	d.values = append(d.values, v)
}

func (d *distinct) sorted() []string {
	out := append([]string{}, d.values...)
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i]) < strings.ToLower(out[j]) })
	return out
}
