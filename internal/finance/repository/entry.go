package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gestor/backoffice/internal/finance/domain"
	"github.com/gestor/backoffice/pkg/database"
	"github.com/gestor/backoffice/pkg/errors"
)

const entrySelect = `
	SELECT e.id, e.description, e.amount, e.type, e.date, e.category_id, c.name AS category_name,
	       e.vehicle_cost_id, e.employee_payment_id, e.created_at, e.updated_at
	FROM financial_entries e
	JOIN financial_categories c ON c.id = e.category_id
`

// entryRow is the storage shape of an entry: the origin is split across two
// nullable columns, at most one of which is set.
type entryRow struct {
	ID                string          `db:"id"`
	Description       string          `db:"description"`
	Amount            decimal.Decimal `db:"amount"`
	Kind              domain.Kind     `db:"type"`
	Date              time.Time       `db:"date"`
	CategoryID        string          `db:"category_id"`
	CategoryName      sql.NullString  `db:"category_name"`
	VehicleCostID     sql.NullString  `db:"vehicle_cost_id"`
	EmployeePaymentID sql.NullString  `db:"employee_payment_id"`
	CreatedAt         time.Time       `db:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at"`
}

func (r *entryRow) toDomain() *domain.Entry {
	origin := domain.NoOrigin()
	switch {
	case r.VehicleCostID.Valid:
		origin = domain.VehicleCostOrigin(r.VehicleCostID.String)
	case r.EmployeePaymentID.Valid:
		origin = domain.EmployeePaymentOrigin(r.EmployeePaymentID.String)
	}

	return &domain.Entry{
		ID:           r.ID,
		Description:  r.Description,
		Amount:       r.Amount,
		Kind:         r.Kind,
		Date:         r.Date,
		CategoryID:   r.CategoryID,
		CategoryName: r.CategoryName.String,
		Origin:       origin,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// originColumns splits an origin into the vehicle_cost_id and employee_payment_id values
func originColumns(o domain.Origin) (sql.NullString, sql.NullString) {
	switch o.Kind() {
	case domain.OriginVehicleCost:
		return sql.NullString{String: o.ID(), Valid: true}, sql.NullString{}
	case domain.OriginEmployeePayment:
		return sql.NullString{}, sql.NullString{String: o.ID(), Valid: true}
	default:
		return sql.NullString{}, sql.NullString{}
	}
}

// originColumn names the column that stores o
func originColumn(o domain.Origin) (string, error) {
	switch o.Kind() {
	case domain.OriginVehicleCost:
		return "vehicle_cost_id", nil
	case domain.OriginEmployeePayment:
		return "employee_payment_id", nil
	default:
		return "", fmt.Errorf("origin %s has no owner column", o)
	}
}

// EntryRepository handles financial entry persistence
type EntryRepository struct {
	db *database.DB
}

// NewEntryRepository creates a new entry repository
func NewEntryRepository(db *database.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

// Create creates a new entry
func (r *EntryRepository) Create(ctx context.Context, e *domain.Entry) error {
	e.ID = uuid.New().String()
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt

	vehicleCostID, employeePaymentID := originColumns(e.Origin)

	query := `
		INSERT INTO financial_entries (
			id, description, amount, type, date, category_id,
			vehicle_cost_id, employee_payment_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Querier(ctx).ExecContext(ctx, query,
		e.ID, e.Description, e.Amount, e.Kind, database.Date(e.Date), e.CategoryID,
		vehicleCostID, employeePaymentID, e.CreatedAt, e.UpdatedAt,
	)
	return database.MapError(err)
}

// GetByID gets an entry by ID
func (r *EntryRepository) GetByID(ctx context.Context, id string) (*domain.Entry, error) {
	var row entryRow
	query := entrySelect + ` WHERE e.id = $1`

	if err := r.db.Querier(ctx).GetContext(ctx, &row, query, id); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFound("entry")
		}
		return nil, err
	}
	return row.toDomain(), nil
}

// GetByOrigin gets the entry owned by a cost or payment
func (r *EntryRepository) GetByOrigin(ctx context.Context, origin domain.Origin) (*domain.Entry, error) {
	column, err := originColumn(origin)
	if err != nil {
		return nil, err
	}

	var row entryRow
	query := entrySelect + ` WHERE e.` + column + ` = $1`

	if err := r.db.Querier(ctx).GetContext(ctx, &row, query, origin.ID()); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFound("entry")
		}
		return nil, err
	}
	return row.toDomain(), nil
}

// Update rewrites the mutable fields of an entry. The origin never changes.
func (r *EntryRepository) Update(ctx context.Context, e *domain.Entry) error {
	e.UpdatedAt = time.Now()

	query := `
		UPDATE financial_entries SET
			description = $2, amount = $3, type = $4, date = $5, category_id = $6, updated_at = $7
		WHERE id = $1
	`

	result, err := r.db.Querier(ctx).ExecContext(ctx, query,
		e.ID, e.Description, e.Amount, e.Kind, database.Date(e.Date), e.CategoryID, e.UpdatedAt,
	)
	if err != nil {
		return database.MapError(err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.NotFound("entry")
	}
	return nil
}

// Delete deletes an entry
func (r *EntryRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Querier(ctx).ExecContext(ctx, `DELETE FROM financial_entries WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.NotFound("entry")
	}
	return nil
}

// DeleteByOrigin deletes the entry owned by a cost or payment and returns its ID.
// An owner without an entry yields an empty ID and no error.
func (r *EntryRepository) DeleteByOrigin(ctx context.Context, origin domain.Origin) (string, error) {
	column, err := originColumn(origin)
	if err != nil {
		return "", err
	}

	var id string
	query := `DELETE FROM financial_entries WHERE ` + column + ` = $1 RETURNING id`

	if err := r.db.Querier(ctx).GetContext(ctx, &id, query, origin.ID()); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return id, nil
}

// List lists entries matching the filter, most recent first
func (r *EntryRepository) List(ctx context.Context, filter domain.EntryFilter) ([]*domain.Entry, error) {
	c := EntryConditions(filter)
	query := entrySelect + c.Where() + ` ORDER BY e.date DESC, e.created_at DESC` + c.Limit(filter.Limit)

	var rows []entryRow
	if err := r.db.Querier(ctx).SelectContext(ctx, &rows, query, c.Args()...); err != nil {
		return nil, err
	}

	entries := make([]*domain.Entry, 0, len(rows))
	for i := range rows {
		entries = append(entries, rows[i].toDomain())
	}
	return entries, nil
}

// Totals sums income and expense for entries dated within [from, to]
func (r *EntryRepository) Totals(ctx context.Context, from, to time.Time) (income, expense decimal.Decimal, err error) {
	var totals struct {
		Income  decimal.Decimal `db:"income"`
		Expense decimal.Decimal `db:"expense"`
	}

	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE type = 'INCOME'), 0) AS income,
			COALESCE(SUM(amount) FILTER (WHERE type = 'EXPENSE'), 0) AS expense
		FROM financial_entries
		WHERE date BETWEEN $1 AND $2
	`

	if err := r.db.Querier(ctx).GetContext(ctx, &totals, query, database.Date(from), database.Date(to)); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return totals.Income, totals.Expense, nil
}
