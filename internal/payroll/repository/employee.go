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

// Employee represents a person on the payroll
type Employee struct {
	ID        string           `db:"id" json:"id"`
	Name      string           `db:"name" json:"name"`
	Email     string           `db:"email" json:"email"`
	Phone     *string          `db:"phone" json:"phone,omitempty"`
	Position  string           `db:"position" json:"position"`
	Salary    *decimal.Decimal `db:"salary" json:"salary,omitempty"`
	HireDate  time.Time        `db:"hire_date" json:"hire_date"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// EmployeeFilter narrows employee listings. Zero fields do not filter.
type EmployeeFilter struct {
	Position string
	Search   string
	Limit    int
}

const employeeColumns = `id, name, email, phone, position, salary, hire_date, created_at, updated_at`

// EmployeeRepository handles employee persistence
type EmployeeRepository struct {
	db *database.DB
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *database.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// Create creates a new employee
func (r *EmployeeRepository) Create(ctx context.Context, e *Employee) error {
	e.ID = uuid.New().String()
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt

	query := `
		INSERT INTO employees (id, name, email, phone, position, salary, hire_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Querier(ctx).ExecContext(ctx, query,
		e.ID, e.Name, e.Email, e.Phone, e.Position, e.Salary, database.Date(e.HireDate), e.CreatedAt, e.UpdatedAt,
	)
	return database.MapError(err)
}

// GetByID gets an employee by ID
func (r *EmployeeRepository) GetByID(ctx context.Context, id string) (*Employee, error) {
	return r.get(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id)
}

// GetForUpdate gets an employee and locks its row until the transaction on ctx ends
func (r *EmployeeRepository) GetForUpdate(ctx context.Context, id string) (*Employee, error) {
	return r.get(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1 FOR UPDATE`, id)
}

func (r *EmployeeRepository) get(ctx context.Context, query, id string) (*Employee, error) {
	var e Employee
	if err := r.db.Querier(ctx).GetContext(ctx, &e, query, id); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFound("employee")
		}
		return nil, err
	}
	return &e, nil
}

// Update updates an employee
func (r *EmployeeRepository) Update(ctx context.Context, e *Employee) error {
	e.UpdatedAt = time.Now()

	query := `
		UPDATE employees SET
			name = $2, email = $3, phone = $4, position = $5, salary = $6, hire_date = $7, updated_at = $8
		WHERE id = $1
	`

	result, err := r.db.Querier(ctx).ExecContext(ctx, query,
		e.ID, e.Name, e.Email, e.Phone, e.Position, e.Salary, database.Date(e.HireDate), e.UpdatedAt,
	)
	if err != nil {
		return database.MapError(err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.NotFound("employee")
	}
	return nil
}

// Delete deletes an employee
func (r *EmployeeRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Querier(ctx).ExecContext(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return database.MapError(err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.NotFound("employee")
	}
	return nil
}

// List lists employees by name
func (r *EmployeeRepository) List(ctx context.Context, filter EmployeeFilter) ([]*Employee, error) {
	c := EmployeeConditions(filter)
	query := `SELECT ` + employeeColumns + ` FROM employees` + c.Where() + ` ORDER BY name, id` + c.Limit(filter.Limit)

	var employees []*Employee
	if err := r.db.Querier(ctx).SelectContext(ctx, &employees, query, c.Args()...); err != nil {
		return nil, err
	}
	return employees, nil
}

// CountPayments counts the payments made to an employee
func (r *EmployeeRepository) CountPayments(ctx context.Context, id string) (int, error) {
	var n int
	if err := r.db.Querier(ctx).GetContext(ctx, &n, `SELECT COUNT(*) FROM employee_payments WHERE employee_id = $1`, id); err != nil {
		return 0, err
	}
	return n, nil
}
