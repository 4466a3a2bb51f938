package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/gestor/backoffice/internal/finance/domain"
	finrepo "github.com/gestor/backoffice/internal/finance/repository"
	fleetrepo "github.com/gestor/backoffice/internal/fleet/repository"
	payrollrepo "github.com/gestor/backoffice/internal/payroll/repository"
	"github.com/gestor/backoffice/pkg/logger"
)

const (
	recentEntriesLimit  = 10
	topVehiclesLimit    = 5
	recentPaymentsLimit = 5
)

// Stats is the back-office overview for one calendar month
type Stats struct {
	From           time.Time                 `json:"from"`
	To             time.Time                 `json:"to"`
	Income         decimal.Decimal           `json:"total_income"`
	Expense        decimal.Decimal           `json:"total_expense"`
	Net            decimal.Decimal           `json:"net"`
	VehicleCount   int                       `json:"vehicle_count"`
	RecentEntries  []*domain.Entry           `json:"recent_entries"`
	TopVehicles    []*fleetrepo.VehicleTotal `json:"top_vehicles"`
	RecentPayments []*payrollrepo.Payment    `json:"recent_payments"`
}

// DashboardService reads across the finance, fleet and payroll stores
type DashboardService struct {
	entries  *finrepo.EntryRepository
	vehicles *fleetrepo.VehicleRepository
	costs    *fleetrepo.CostRepository
	payments *payrollrepo.PaymentRepository
	logger   *logger.Logger
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	entries *finrepo.EntryRepository,
	vehicles *fleetrepo.VehicleRepository,
	costs *fleetrepo.CostRepository,
	payments *payrollrepo.PaymentRepository,
	log *logger.Logger,
) *DashboardService {
	return &DashboardService{
		entries:  entries,
		vehicles: vehicles,
		costs:    costs,
		payments: payments,
		logger:   log.WithComponent("dashboard"),
	}
}

// Stats gathers the overview for the month containing now. The queries are
// independent and run concurrently; the first failure cancels the rest.
func (s *DashboardService) Stats(ctx context.Context, now time.Time) (*Stats, error) {
	from, to := domain.MonthRange(now)
	stats := &Stats{From: from, To: to}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		income, expense, err := s.entries.Totals(ctx, from, to)
		if err != nil {
			return err
		}
		stats.Income, stats.Expense, stats.Net = income, expense, income.Sub(expense)
		return nil
	})
	g.Go(func() error {
		n, err := s.vehicles.Count(ctx)
		stats.VehicleCount = n
		return err
	})
	g.Go(func() error {
		entries, err := s.entries.List(ctx, domain.EntryFilter{Limit: recentEntriesLimit})
		stats.RecentEntries = entries
		return err
	})
	g.Go(func() error {
		totals, err := s.costs.TotalsByVehicle(ctx, from, to, topVehiclesLimit)
		stats.TopVehicles = totals
		return err
	})
	g.Go(func() error {
		payments, err := s.payments.List(ctx, payrollrepo.PaymentFilter{Limit: recentPaymentsLimit})
		stats.RecentPayments = payments
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Time("month", from).Msg("failed to gather dashboard stats")
		return nil, err
	}

	if stats.RecentEntries == nil {
		stats.RecentEntries = []*domain.Entry{}
	}
	if stats.TopVehicles == nil {
		stats.TopVehicles = []*fleetrepo.VehicleTotal{}
	}
	if stats.RecentPayments == nil {
		stats.RecentPayments = []*payrollrepo.Payment{}
	}
	return stats, nil
}
