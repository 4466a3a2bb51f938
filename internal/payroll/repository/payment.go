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

// Payment is money paid to an employee
type Payment struct {
	ID            string          `db:"id" json:"id"`
	EmployeeID    string          `db:"employee_id" json:"employee_id"`
	EmployeeName  string          `db:"employee_name" json:"employee_name,omitempty"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	PaymentDate   time.Time       `db:"payment_date" json:"payment_date"`
	PaymentMethod string          `db:"payment_method" json:"payment_method"`
	Description   *string         `db:"description" json:"description,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// PaymentFilter narrows payment listings. Zero fields do not filter.
type PaymentFilter struct {
	EmployeeID    string
	PaymentMethod string
	From          *time.Time
	To            *time.Time
	Limit         int
}

const paymentSelect = `
	SELECT p.id, p.employee_id, e.name AS employee_name, p.amount, p.payment_date,
	       p.payment_method, p.description, p.created_at, p.updated_at
	FROM employee_payments p
	JOIN employees e ON e.id = p.employee_id
`

// PaymentRepository handles employee payment persistence
type PaymentRepository struct {
	db *database.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *database.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create creates a new payment
func (r *PaymentRepository) Create(ctx context.Context, p *Payment) error {
	p.ID = uuid.New().String()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt

	query := `
		INSERT INTO employee_payments (id, employee_id, amount, payment_date, payment_method, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Querier(ctx).ExecContext(ctx, query,
		p.ID, p.EmployeeID, p.Amount, database.Date(p.PaymentDate), p.PaymentMethod, p.Description, p.CreatedAt, p.UpdatedAt,
	)
	return database.MapError(err)
}

// GetByID gets a payment by ID
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*Payment, error) {
	return r.get(ctx, paymentSelect+` WHERE p.id = $1`, id)
}

// GetForEmployee gets a payment that belongs to employeeID
func (r *PaymentRepository) GetForEmployee(ctx context.Context, employeeID, id string) (*Payment, error) {
	return r.get(ctx, paymentSelect+` WHERE p.id = $1 AND p.employee_id = $2`, id, employeeID)
}

// GetForUpdate gets a payment that belongs to employeeID and locks its row
// until the transaction on ctx ends
func (r *PaymentRepository) GetForUpdate(ctx context.Context, employeeID, id string) (*Payment, error) {
	return r.get(ctx, paymentSelect+` WHERE p.id = $1 AND p.employee_id = $2 FOR UPDATE OF p`, id, employeeID)
}

func (r *PaymentRepository) get(ctx context.Context, query string, args ...interface{}) (*Payment, error) {
	var p Payment
	if err := r.db.Querier(ctx).GetContext(ctx, &p, query, args...); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFound("payment")
		}
		return nil, err
	}
	return &p, nil
}

// Update updates a payment. The employee never changes.
func (r *PaymentRepository) Update(ctx context.Context, p *Payment) error {
	p.UpdatedAt = time.Now()

	query := `
		UPDATE employee_payments SET
			amount = $2, payment_date = $3, payment_method = $4, description = $5, updated_at = $6
		WHERE id = $1
	`

	result, err := r.db.Querier(ctx).ExecContext(ctx, query,
		p.ID, p.Amount, database.Date(p.PaymentDate), p.PaymentMethod, p.Description, p.UpdatedAt,
	)
	if err != nil {
		return database.MapError(err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.NotFound("payment")
	}
	return nil
}

// DeleteForEmployee deletes a payment that belongs to employeeID
func (r *PaymentRepository) DeleteForEmployee(ctx context.Context, employeeID, id string) error {
	result, err := r.db.Querier(ctx).ExecContext(ctx,
		`DELETE FROM employee_payments WHERE id = $1 AND employee_id = $2`, id, employeeID)
	if err != nil {
		return database.MapError(err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.NotFound("payment")
	}
	return nil
}

// List lists payments matching the filter, most recent first
func (r *PaymentRepository) List(ctx context.Context, filter PaymentFilter) ([]*Payment, error) {
	c := PaymentConditions(filter)
	query := paymentSelect + c.Where() + ` ORDER BY p.payment_date DESC, p.created_at DESC` + c.Limit(filter.Limit)

	var payments []*Payment
	if err := r.db.Querier(ctx).SelectContext(ctx, &payments, query, c.Args()...); err != nil {
		return nil, err
	}
	return payments, nil
}

// SumPayments totals every payment made to an employee
func (r *PaymentRepository) SumPayments(ctx context.Context, employeeID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	query := `SELECT COALESCE(SUM(amount), 0) FROM employee_payments WHERE employee_id = $1`

	if err := r.db.Querier(ctx).GetContext(ctx, &total, query, employeeID); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}
