package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gestor/backoffice/pkg/database"
	"github.com/gestor/backoffice/pkg/errors"
)

// CostType classifies a vehicle cost
type CostType string

const (
	CostFuel        CostType = "FUEL"
	CostMaintenance CostType = "MAINTENANCE"
	CostTires       CostType = "TIRES"
	CostInsurance   CostType = "INSURANCE"
	CostTax         CostType = "TAX"
	CostOther       CostType = "OTHER"
)

// CostTypes lists every valid cost type
var CostTypes = []CostType{CostFuel, CostMaintenance, CostTires, CostInsurance, CostTax, CostOther}

// Valid reports whether t is a known cost type
func (t CostType) Valid() bool {
	for _, known := range CostTypes {
		if t == known {
			return true
		}
	}
	return false
}

// VehicleCost is an expense incurred by a vehicle
type VehicleCost struct {
	ID          string          `db:"id" json:"id"`
	VehicleID   string          `db:"vehicle_id" json:"vehicle_id"`
	Type        CostType        `db:"type" json:"type"`
	Description string          `db:"description" json:"description"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Date        time.Time       `db:"date" json:"date"`
	Odometer    *int            `db:"odometer" json:"odometer,omitempty"`
	Location    *string         `db:"location" json:"location,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// CostFilter narrows cost listings. Zero fields do not filter.
type CostFilter struct {
	VehicleID string
	Type      CostType
	From      *time.Time
	To        *time.Time
	Limit     int
}

// VehicleTotal is the cost sum of one vehicle over a period
type VehicleTotal struct {
	VehicleID string          `db:"vehicle_id" json:"vehicle_id"`
	Plate     string          `db:"plate" json:"plate"`
	Model     string          `db:"model" json:"model"`
	Brand     string          `db:"brand" json:"brand"`
	Total     decimal.Decimal `db:"total" json:"total"`
}

const costColumns = `id, vehicle_id, type, description, amount, date, odometer, location, created_at, updated_at`

// CostRepository handles vehicle cost persistence
type CostRepository struct {
	db *database.DB
}

// NewCostRepository creates a new cost repository
func NewCostRepository(db *database.DB) *CostRepository {
	return &CostRepository{db: db}
}

// Create creates a new cost
func (r *CostRepository) Create(ctx context.Context, c *VehicleCost) error {
	c.ID = uuid.New().String()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt

	query := `
		INSERT INTO vehicle_costs (id, vehicle_id, type, description, amount, date, odometer, location, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Querier(ctx).ExecContext(ctx, query,
		c.ID, c.VehicleID, c.Type, c.Description, c.Amount, database.Date(c.Date),
		c.Odometer, c.Location, c.CreatedAt, c.UpdatedAt,
	)
	return database.MapError(err)
}

// GetByID gets a cost by ID
func (r *CostRepository) GetByID(ctx context.Context, id string) (*VehicleCost, error) {
	var c VehicleCost
	query := `SELECT ` + costColumns + ` FROM vehicle_costs WHERE id = $1`

	if err := r.db.Querier(ctx).GetContext(ctx, &c, query, id); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFound("vehicle_cost")
		}
		return nil, err
	}
	return &c, nil
}

// GetForVehicle gets a cost that belongs to vehicleID and locks its row until
// the transaction on ctx ends. A cost of another vehicle is not found.
func (r *CostRepository) GetForVehicle(ctx context.Context, vehicleID, id string) (*VehicleCost, error) {
	var c VehicleCost
	query := `SELECT ` + costColumns + ` FROM vehicle_costs WHERE id = $1 AND vehicle_id = $2 FOR UPDATE`

	if err := r.db.Querier(ctx).GetContext(ctx, &c, query, id, vehicleID); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFound("vehicle_cost")
		}
		return nil, err
	}
	return &c, nil
}

// Update updates a cost. The vehicle never changes.
func (r *CostRepository) Update(ctx context.Context, c *VehicleCost) error {
	c.UpdatedAt = time.Now()

	query := `
		UPDATE vehicle_costs SET
			type = $2, description = $3, amount = $4, date = $5, odometer = $6, location = $7, updated_at = $8
		WHERE id = $1
	`

	result, err := r.db.Querier(ctx).ExecContext(ctx, query,
		c.ID, c.Type, c.Description, c.Amount, database.Date(c.Date), c.Odometer, c.Location, c.UpdatedAt,
	)
	if err != nil {
		return database.MapError(err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.NotFound("vehicle_cost")
	}
	return nil
}

// DeleteForVehicle deletes a cost that belongs to vehicleID
func (r *CostRepository) DeleteForVehicle(ctx context.Context, vehicleID, id string) error {
	result, err := r.db.Querier(ctx).ExecContext(ctx,
		`DELETE FROM vehicle_costs WHERE id = $1 AND vehicle_id = $2`, id, vehicleID)
	if err != nil {
		return database.MapError(err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.NotFound("vehicle_cost")
	}
	return nil
}

// List lists costs matching the filter, most recent first
func (r *CostRepository) List(ctx context.Context, filter CostFilter) ([]*VehicleCost, error) {
	c := CostConditions(filter)
	query := `SELECT ` + costColumns + ` FROM vehicle_costs` + c.Where() +
		` ORDER BY date DESC, created_at DESC` + c.Limit(filter.Limit)

	var costs []*VehicleCost
	if err := r.db.Querier(ctx).SelectContext(ctx, &costs, query, c.Args()...); err != nil {
		return nil, err
	}
	return costs, nil
}

// SumCosts totals every cost of a vehicle
func (r *CostRepository) SumCosts(ctx context.Context, vehicleID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	query := `SELECT COALESCE(SUM(amount), 0) FROM vehicle_costs WHERE vehicle_id = $1`

	if err := r.db.Querier(ctx).GetContext(ctx, &total, query, vehicleID); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// TotalsByVehicle ranks vehicles by their cost sum within [from, to].
// Vehicles without costs in the period are left out.
func (r *CostRepository) TotalsByVehicle(ctx context.Context, from, to time.Time, limit int) ([]*VehicleTotal, error) {
	c := &database.Conditions{}
	c.Add("vc.date >= $%d", database.Date(from))
	c.Add("vc.date <= $%d", database.Date(to))

	query := `
		SELECT v.id AS vehicle_id, v.plate, v.model, v.brand, SUM(vc.amount) AS total
		FROM vehicle_costs vc
		JOIN vehicles v ON v.id = vc.vehicle_id` + c.Where() + `
		GROUP BY v.id, v.plate, v.model, v.brand
		ORDER BY total DESC, v.plate` + c.Limit(limit)

	var totals []*VehicleTotal
	if err := r.db.Querier(ctx).SelectContext(ctx, &totals, query, c.Args()...); err != nil {
		return nil, err
	}
	return totals, nil
}
