package service

import (
	"context"

	"github.com/nomena/pharmastock/internal/cache"
	"github.com/nomena/pharmastock/internal/domain"
	"github.com/nomena/pharmastock/internal/repository"
	"github.com/rs/zerolog/log"
)

const topRankingLimit = 10

// DashboardService assembles the read-only dashboard projections. Each
// projection is a stateless query; the assembled result is cached until the
// next stock mutation.
type DashboardService struct {
	reports repository.ReportRepository
	cache   cache.DashboardCache
}

func NewDashboardService(reports repository.ReportRepository, dashboardCache cache.DashboardCache) *DashboardService {
	return &DashboardService{reports: reports, cache: dashboardCache}
}

func (s *DashboardService) Dashboard(ctx context.Context) (*domain.Dashboard, error) {
	if cached, ok, err := s.cache.Get(ctx); err != nil {
		log.Warn().Err(err).Msg("dashboard cache read failed")
	} else if ok {
		return cached, nil
	}

	totals, err := s.reports.Totals(ctx)
	if err != nil {
		return nil, err
	}

	stockPerMedicine, err := s.reports.StockPerMedicine(ctx)
	if err != nil {
		return nil, err
	}

	mostUsed, err := s.reports.MostUsed(ctx, topRankingLimit)
	if err != nil {
		return nil, err
	}

	villageUsage, err := s.reports.VillageUsage(ctx, topRankingLimit)
	if err != nil {
		return nil, err
	}

	inventory, err := s.reports.Inventory(ctx)
	if err != nil {
		return nil, err
	}

	// Global stock sums per-medicine stock clamped at zero: an over-shipped
	// medicine is excluded, not subtracted.
	for _, row := range stockPerMedicine {
		if row.Stock > 0 {
			totals.Stock += row.Stock
		}
	}

	dashboard := &domain.Dashboard{
		Totals:           *totals,
		StockPerMedicine: stockPerMedicine,
		MostUsed:         mostUsed,
		VillageUsage:     villageUsage,
		Inventory:        inventory,
	}

	if err := s.cache.Set(ctx, dashboard); err != nil {
		log.Warn().Err(err).Msg("dashboard cache write failed")
	}

	return dashboard, nil
}
