package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gestor/backoffice/internal/finance/domain"
	finance "github.com/gestor/backoffice/internal/finance/service"
	"github.com/gestor/backoffice/internal/fleet/events"
	"github.com/gestor/backoffice/internal/fleet/repository"
	"github.com/gestor/backoffice/pkg/database"
	"github.com/gestor/backoffice/pkg/errors"
	"github.com/gestor/backoffice/pkg/logger"
	"github.com/gestor/backoffice/pkg/validation"
)

// VehicleInput is the writable part of a vehicle
type VehicleInput struct {
	Plate string `json:"plate" validate:"required,max=20"`
	Model string `json:"model" validate:"required,max=255"`
	Brand string `json:"brand" validate:"required,max=255"`
	Year  *int   `json:"year" validate:"omitempty,gte=1900"`
}

// CostInput is the writable part of a vehicle cost
type CostInput struct {
	Type        repository.CostType `json:"type" validate:"required,oneof=FUEL MAINTENANCE TIRES INSURANCE TAX OTHER"`
	Description string              `json:"description" validate:"required,max=255"`
	Amount      decimal.Decimal     `json:"amount" validate:"gt=0,lte=99999999.99,money"`
	Date        time.Time           `json:"date" validate:"required"`
	Odometer    *int                `json:"odometer" validate:"omitempty,gte=0"`
	Location    *string             `json:"location" validate:"omitempty,max=255"`
}

// VehicleDetail is a vehicle with its costs
type VehicleDetail struct {
	*repository.Vehicle
	Costs      []*repository.VehicleCost `json:"costs"`
	TotalCosts decimal.Decimal           `json:"total_costs"`
}

// CostWithEntry is a cost together with the ledger entry it owns
type CostWithEntry struct {
	*repository.VehicleCost
	Entry *domain.Entry `json:"financial_entry"`
}

// FleetService handles vehicles and their costs
type FleetService struct {
	db        *database.DB
	vehicles  *repository.VehicleRepository
	costs     *repository.CostRepository
	ledger    *finance.LedgerService
	publisher *events.FleetEventPublisher
	logger    *logger.Logger
	now       func() time.Time
}

// NewFleetService creates a new fleet service
func NewFleetService(
	db *database.DB,
	vehicles *repository.VehicleRepository,
	costs *repository.CostRepository,
	ledger *finance.LedgerService,
	publisher *events.FleetEventPublisher,
	log *logger.Logger,
) *FleetService {
	return &FleetService{
		db:        db,
		vehicles:  vehicles,
		costs:     costs,
		ledger:    ledger,
		publisher: publisher,
		logger:    log,
		now:       time.Now,
	}
}

// WithClock replaces the clock used to bound vehicle years
func (s *FleetService) WithClock(now func() time.Time) *FleetService {
	s.now = now
	return s
}

// Vehicle operations

// CreateVehicle registers a vehicle
func (s *FleetService) CreateVehicle(ctx context.Context, in VehicleInput) (*repository.Vehicle, error) {
	if err := s.checkVehicle(in); err != nil {
		return nil, err
	}

	v := &repository.Vehicle{
		Plate: strings.TrimSpace(in.Plate),
		Model: in.Model,
		Brand: in.Brand,
		Year:  in.Year,
	}
	if err := s.vehicles.Create(ctx, v); err != nil {
		return nil, err
	}

	s.publisher.PublishVehicleCreated(ctx, v)
	return v, nil
}

// GetVehicle gets a vehicle with its costs and their total
func (s *FleetService) GetVehicle(ctx context.Context, id string) (*VehicleDetail, error) {
	v, err := s.vehicles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	costs, err := s.costs.List(ctx, repository.CostFilter{VehicleID: id})
	if err != nil {
		return nil, err
	}

	total, err := s.costs.SumCosts(ctx, id)
	if err != nil {
		return nil, err
	}

	return &VehicleDetail{Vehicle: v, Costs: costs, TotalCosts: total}, nil
}

// ListVehicles lists vehicles
func (s *FleetService) ListVehicles(ctx context.Context, filter repository.VehicleFilter) ([]*repository.Vehicle, error) {
	return s.vehicles.List(ctx, filter)
}

// UpdateVehicle updates a vehicle
func (s *FleetService) UpdateVehicle(ctx context.Context, id string, in VehicleInput) (*repository.Vehicle, error) {
	if err := s.checkVehicle(in); err != nil {
		return nil, err
	}

	v, err := s.vehicles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	v.Plate = strings.TrimSpace(in.Plate)
	v.Model = in.Model
	v.Brand = in.Brand
	v.Year = in.Year
	if err := s.vehicles.Update(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// DeleteVehicle deletes a vehicle that has no costs.
// The row lock keeps a cost from being added between the check and the delete.
func (s *FleetService) DeleteVehicle(ctx context.Context, id string) error {
	var deleted *repository.Vehicle

	err := s.db.Transaction(ctx, func(ctx context.Context) error {
		v, err := s.vehicles.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		n, err := s.vehicles.CountCosts(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return errors.DeletionBlocked("vehicle", "costs")
		}

		deleted = v
		return s.vehicles.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.publisher.PublishVehicleDeleted(ctx, deleted)
	return nil
}

func (s *FleetService) checkVehicle(in VehicleInput) error {
	errs := validation.Struct(in)
	if in.Year != nil {
		if current := s.now().Year(); *in.Year < 1900 || *in.Year > current {
			delete(errs, "year")
			errs.Add("year", "year_range", strconv.Itoa(current))
		}
	}
	return errs.Err()
}

// Cost operations

// CreateCost records a cost against a vehicle and books its expense entry
func (s *FleetService) CreateCost(ctx context.Context, vehicleID string, in CostInput) (*CostWithEntry, error) {
	if err := validation.Check(in); err != nil {
		return nil, err
	}

	var cost *repository.VehicleCost
	entry, err := s.ledger.CreateLinked(ctx, func(ctx context.Context) (finance.Owner, error) {
		if _, err := s.vehicles.GetByID(ctx, vehicleID); err != nil {
			return nil, err
		}

		cost = &repository.VehicleCost{VehicleID: vehicleID}
		applyCost(cost, in)
		if err := s.costs.Create(ctx, cost); err != nil {
			return nil, err
		}
		return costOwner{cost}, nil
	})
	if err != nil {
		return nil, err
	}

	return &CostWithEntry{VehicleCost: cost, Entry: entry}, nil
}

// GetCost gets a cost of a vehicle
func (s *FleetService) GetCost(ctx context.Context, vehicleID, costID string) (*repository.VehicleCost, error) {
	cost, err := s.costs.GetByID(ctx, costID)
	if err != nil {
		return nil, err
	}
	if cost.VehicleID != vehicleID {
		return nil, errors.NotFound("vehicle_cost")
	}
	return cost, nil
}

// ListCosts lists costs matching filter
func (s *FleetService) ListCosts(ctx context.Context, filter repository.CostFilter) ([]*repository.VehicleCost, error) {
	var errs validation.Errors
	if filter.Type != "" && !filter.Type.Valid() {
		errs.Add("type", "oneof", "FUEL MAINTENANCE TIRES INSURANCE TAX OTHER")
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		errs.Add("to", "date_range", "")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	return s.costs.List(ctx, filter)
}

// UpdateCost rewrites a cost and its entry together
func (s *FleetService) UpdateCost(ctx context.Context, vehicleID, costID string, in CostInput) (*CostWithEntry, error) {
	if err := validation.Check(in); err != nil {
		return nil, err
	}

	var cost *repository.VehicleCost
	entry, err := s.ledger.UpdateLinked(ctx, func(ctx context.Context) (finance.Owner, error) {
		var err error
		if cost, err = s.costs.GetForVehicle(ctx, vehicleID, costID); err != nil {
			return nil, err
		}

		applyCost(cost, in)
		if err := s.costs.Update(ctx, cost); err != nil {
			return nil, err
		}
		return costOwner{cost}, nil
	})
	if err != nil {
		return nil, err
	}

	return &CostWithEntry{VehicleCost: cost, Entry: entry}, nil
}

// DeleteCost deletes a cost together with its entry
func (s *FleetService) DeleteCost(ctx context.Context, vehicleID, costID string) error {
	return s.ledger.DeleteLinked(ctx, domain.VehicleCostOrigin(costID), nil, func(ctx context.Context) error {
		return s.costs.DeleteForVehicle(ctx, vehicleID, costID)
	})
}

func applyCost(c *repository.VehicleCost, in CostInput) {
	c.Type = in.Type
	c.Description = in.Description
	c.Amount = in.Amount
	c.Date = in.Date
	c.Odometer = in.Odometer
	c.Location = in.Location
}

// costOwner books a vehicle cost as an expense under its type's category
type costOwner struct {
	cost *repository.VehicleCost
}

func (o costOwner) LedgerOrigin() domain.Origin {
	return domain.VehicleCostOrigin(o.cost.ID)
}

func (o costOwner) LedgerLink() finance.Link {
	return finance.Link{
		CategoryName:        CategoryFor(o.cost.Type),
		CategoryDescription: categoryDescription,
		Description:         o.cost.Description,
		Amount:              o.cost.Amount,
		Date:                o.cost.Date,
	}
}
