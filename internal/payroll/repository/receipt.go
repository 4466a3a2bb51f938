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

// Receipt is the numbered proof of a payment
type Receipt struct {
	ID            string          `db:"id" json:"id"`
	PaymentID     string          `db:"employee_payment_id" json:"employee_payment_id"`
	ReceiptNumber string          `db:"receipt_number" json:"receipt_number"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	IssueDate     time.Time       `db:"issue_date" json:"issue_date"`
	Description   *string         `db:"description" json:"description,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// ReceiptFilter narrows receipt listings. Zero fields do not filter.
type ReceiptFilter struct {
	PaymentID     string
	ReceiptNumber string
	From          *time.Time
	To            *time.Time
	Limit         int
}

const receiptColumns = `id, employee_payment_id, receipt_number, amount, issue_date, description, created_at, updated_at`

// ReceiptRepository handles receipt persistence
type ReceiptRepository struct {
	db *database.DB
}

// NewReceiptRepository creates a new receipt repository
func NewReceiptRepository(db *database.DB) *ReceiptRepository {
	return &ReceiptRepository{db: db}
}

// Create creates a new receipt
func (r *ReceiptRepository) Create(ctx context.Context, rc *Receipt) error {
	rc.ID = uuid.New().String()
	rc.CreatedAt = time.Now()
	rc.UpdatedAt = rc.CreatedAt

	query := `
		INSERT INTO receipts (id, employee_payment_id, receipt_number, amount, issue_date, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Querier(ctx).ExecContext(ctx, query,
		rc.ID, rc.PaymentID, rc.ReceiptNumber, rc.Amount, database.Date(rc.IssueDate), rc.Description, rc.CreatedAt, rc.UpdatedAt,
	)
	return database.MapError(err)
}

// GetByID gets a receipt by ID
func (r *ReceiptRepository) GetByID(ctx context.Context, id string) (*Receipt, error) {
	var rc Receipt
	query := `SELECT ` + receiptColumns + ` FROM receipts WHERE id = $1`

	if err := r.db.Querier(ctx).GetContext(ctx, &rc, query, id); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFound("receipt")
		}
		return nil, err
	}
	return &rc, nil
}

// ListByPayment lists the receipts of a payment, oldest first
func (r *ReceiptRepository) ListByPayment(ctx context.Context, paymentID string) ([]*Receipt, error) {
	var receipts []*Receipt
	query := `SELECT ` + receiptColumns + ` FROM receipts WHERE employee_payment_id = $1 ORDER BY receipt_number`

	if err := r.db.Querier(ctx).SelectContext(ctx, &receipts, query, paymentID); err != nil {
		return nil, err
	}
	return receipts, nil
}

// List lists receipts matching the filter, newest number first
func (r *ReceiptRepository) List(ctx context.Context, filter ReceiptFilter) ([]*Receipt, error) {
	c := ReceiptConditions(filter)
	query := `SELECT ` + receiptColumns + ` FROM receipts` + c.Where() + ` ORDER BY issue_date DESC, receipt_number DESC` + c.Limit(filter.Limit)

	var receipts []*Receipt
	if err := r.db.Querier(ctx).SelectContext(ctx, &receipts, query, c.Args()...); err != nil {
		return nil, err
	}
	return receipts, nil
}

// CountByPayment counts the receipts of a payment
func (r *ReceiptRepository) CountByPayment(ctx context.Context, paymentID string) (int, error) {
	var n int
	if err := r.db.Querier(ctx).GetContext(ctx, &n, `SELECT COUNT(*) FROM receipts WHERE employee_payment_id = $1`, paymentID); err != nil {
		return 0, err
	}
	return n, nil
}

// DeleteByPayment deletes every receipt of a payment and returns how many went
func (r *ReceiptRepository) DeleteByPayment(ctx context.Context, paymentID string) (int64, error) {
	result, err := r.db.Querier(ctx).ExecContext(ctx, `DELETE FROM receipts WHERE employee_payment_id = $1`, paymentID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// LatestNumberInMonth returns the highest receipt number issued in the given
// month, or an empty string when the month has none
func (r *ReceiptRepository) LatestNumberInMonth(ctx context.Context, year int, month time.Month) (string, error) {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)

	var number string
	query := `
		SELECT receipt_number FROM receipts
		WHERE issue_date >= $1 AND issue_date < $2
		ORDER BY receipt_number DESC
		LIMIT 1
	`

	err := r.db.Querier(ctx).GetContext(ctx, &number, query, database.Date(first), database.Date(first.AddDate(0, 1, 0)))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return number, nil
}
