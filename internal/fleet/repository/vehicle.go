package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/google/uuid"

	"github.com/gestor/backoffice/pkg/database"
	"github.com/gestor/backoffice/pkg/errors"
)

// Vehicle represents a fleet vehicle
type Vehicle struct {
	ID        string    `db:"id" json:"id"`
	Plate     string    `db:"plate" json:"plate"`
	Model     string    `db:"model" json:"model"`
	Brand     string    `db:"brand" json:"brand"`
	Year      *int      `db:"year" json:"year,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// VehicleFilter narrows vehicle listings. Zero fields do not filter.
type VehicleFilter struct {
	Brand  string
	Model  string
	Search string
	Limit  int
}

const vehicleColumns = `id, plate, model, brand, year, created_at, updated_at`

// VehicleRepository handles vehicle persistence
type VehicleRepository struct {
	db *database.DB
}

// NewVehicleRepository creates a new vehicle repository
func NewVehicleRepository(db *database.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

// Create creates a new vehicle
func (r *VehicleRepository) Create(ctx context.Context, v *Vehicle) error {
	v.ID = uuid.New().String()
	v.CreatedAt = time.Now()
	v.UpdatedAt = v.CreatedAt

	query := `
		INSERT INTO vehicles (id, plate, model, brand, year, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Querier(ctx).ExecContext(ctx, query,
		v.ID, v.Plate, v.Model, v.Brand, v.Year, v.CreatedAt, v.UpdatedAt,
	)
	return database.MapError(err)
}

// GetByID gets a vehicle by ID
func (r *VehicleRepository) GetByID(ctx context.Context, id string) (*Vehicle, error) {
	return r.get(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`, id)
}

// GetForUpdate gets a vehicle and locks its row until the transaction on ctx ends
func (r *VehicleRepository) GetForUpdate(ctx context.Context, id string) (*Vehicle, error) {
	return r.get(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1 FOR UPDATE`, id)
}

func (r *VehicleRepository) get(ctx context.Context, query, id string) (*Vehicle, error) {
	var v Vehicle
	if err := r.db.Querier(ctx).GetContext(ctx, &v, query, id); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFound("vehicle")
		}
		return nil, err
	}
	return &v, nil
}

// Update updates a vehicle
func (r *VehicleRepository) Update(ctx context.Context, v *Vehicle) error {
	v.UpdatedAt = time.Now()

	query := `
		UPDATE vehicles SET plate = $2, model = $3, brand = $4, year = $5, updated_at = $6
		WHERE id = $1
	`

	result, err := r.db.Querier(ctx).ExecContext(ctx, query,
		v.ID, v.Plate, v.Model, v.Brand, v.Year, v.UpdatedAt,
	)
	if err != nil {
		return database.MapError(err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.NotFound("vehicle")
	}
	return nil
}

// Delete deletes a vehicle
func (r *VehicleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Querier(ctx).ExecContext(ctx, `DELETE FROM vehicles WHERE id = $1`, id)
	if err != nil {
		return database.MapError(err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.NotFound("vehicle")
	}
	return nil
}

// List lists vehicles, newest first
func (r *VehicleRepository) List(ctx context.Context, filter VehicleFilter) ([]*Vehicle, error) {
	c := VehicleConditions(filter)
	query := `SELECT ` + vehicleColumns + ` FROM vehicles` + c.Where() + ` ORDER BY created_at DESC` + c.Limit(filter.Limit)

	var vehicles []*Vehicle
	if err := r.db.Querier(ctx).SelectContext(ctx, &vehicles, query, c.Args()...); err != nil {
		return nil, err
	}
	return vehicles, nil
}

// Count counts all vehicles
func (r *VehicleRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.Querier(ctx).GetContext(ctx, &n, `SELECT COUNT(*) FROM vehicles`); err != nil {
		return 0, err
	}
	return n, nil
}

// CountCosts counts the costs recorded against a vehicle
func (r *VehicleRepository) CountCosts(ctx context.Context, id string) (int, error) {
	var n int
	if err := r.db.Querier(ctx).GetContext(ctx, &n, `SELECT COUNT(*) FROM vehicle_costs WHERE vehicle_id = $1`, id); err != nil {
		return 0, err
	}
	return n, nil
}
