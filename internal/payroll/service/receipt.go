package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gestor/backoffice/internal/payroll/events"
	"github.com/gestor/backoffice/internal/payroll/repository"
	"github.com/gestor/backoffice/pkg/database"
	"github.com/gestor/backoffice/pkg/errors"
	"github.com/gestor/backoffice/pkg/logger"
	"github.com/gestor/backoffice/pkg/validation"
)

const (
	receiptPrefix = "REC"
	maxSequence   = 9999
)

// ReceiptInput is the writable part of a receipt
type ReceiptInput struct {
	Description *string `json:"description" validate:"omitempty,max=255"`
}

// ReceiptService issues numbered receipts for payments
type ReceiptService struct {
	db        *database.DB
	payments  *repository.PaymentRepository
	receipts  *repository.ReceiptRepository
	publisher *events.PayrollEventPublisher
	logger    *logger.Logger
	now       func() time.Time
}

// NewReceiptService creates a new receipt service
func NewReceiptService(
	db *database.DB,
	payments *repository.PaymentRepository,
	receipts *repository.ReceiptRepository,
	publisher *events.PayrollEventPublisher,
	log *logger.Logger,
) *ReceiptService {
	return &ReceiptService{
		db:        db,
		payments:  payments,
		receipts:  receipts,
		publisher: publisher,
		logger:    log.WithComponent("receipts"),
		now:       time.Now,
	}
}

// WithClock replaces the clock that dates receipts
func (s *ReceiptService) WithClock(now func() time.Time) *ReceiptService {
	s.now = now
	return s
}

// FormatReceiptNumber renders REC, the year, the month and a four digit sequence
func FormatReceiptNumber(year int, month time.Month, seq int) string {
	return fmt.Sprintf("%s%04d%02d%04d", receiptPrefix, year, int(month), seq)
}

// NextReceiptNumber returns the number that follows latest in the given
// month. An empty latest starts the month at 0001.
func NextReceiptNumber(year int, month time.Month, latest string) (string, error) {
	seq := 1
	if latest != "" {
		if len(latest) < 4 {
			return "", errors.Internal("malformed receipt number " + latest)
		}
		last, err := strconv.Atoi(latest[len(latest)-4:])
		if err != nil {
			return "", errors.Internal("malformed receipt number " + latest).WithCause(err)
		}
		seq = last + 1
	}
	if seq > maxSequence {
		return "", errors.ReceiptSequenceExhausted(year, int(month))
	}
	return FormatReceiptNumber(year, month, seq), nil
}

// GenerateNumber allocates the next receipt number of a month. It must run
// inside a transaction: the month's advisory lock is held until that
// transaction ends, so two issuers can never read the same latest number.
func (s *ReceiptService) GenerateNumber(ctx context.Context, year int, month time.Month) (string, error) {
	if err := s.db.AdvisoryXactLock(ctx, fmt.Sprintf("receipt_number:%04d-%02d", year, int(month))); err != nil {
		return "", err
	}

	latest, err := s.receipts.LatestNumberInMonth(ctx, year, month)
	if err != nil {
		return "", err
	}
	return NextReceiptNumber(year, month, latest)
}

// IssueReceipt issues the receipt of a payment, dated today. A payment gets
// at most one receipt.
func (s *ReceiptService) IssueReceipt(ctx context.Context, employeeID, paymentID string, in ReceiptInput) (*repository.Receipt, error) {
	if err := validation.Check(in); err != nil {
		return nil, err
	}

	var receipt *repository.Receipt
	err := s.db.Transaction(ctx, func(ctx context.Context) error {
		payment, err := s.payments.GetForUpdate(ctx, employeeID, paymentID)
		if err != nil {
			return err
		}

		n, err := s.receipts.CountByPayment(ctx, paymentID)
		if err != nil {
			return err
		}
		if n > 0 {
			return errors.AlreadyIssued()
		}

		today := s.now()
		number, err := s.GenerateNumber(ctx, today.Year(), today.Month())
		if err != nil {
			return err
		}

		receipt = &repository.Receipt{
			PaymentID:     payment.ID,
			ReceiptNumber: number,
			Amount:        payment.Amount,
			IssueDate:     today,
			Description:   in.Description,
		}
		return s.receipts.Create(ctx, receipt)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("receipt_number", receipt.ReceiptNumber).Str("payment_id", paymentID).Msg("receipt issued")
	s.publisher.PublishReceiptIssued(ctx, employeeID, receipt)
	return receipt, nil
}

// GetReceipt gets a receipt of a payment of an employee
func (s *ReceiptService) GetReceipt(ctx context.Context, employeeID, paymentID, receiptID string) (*repository.Receipt, error) {
	if _, err := s.payments.GetForEmployee(ctx, employeeID, paymentID); err != nil {
		return nil, err
	}

	receipt, err := s.receipts.GetByID(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	if receipt.PaymentID != paymentID {
		return nil, errors.NotFound("receipt")
	}
	return receipt, nil
}

// ListPaymentReceipts lists the receipts of a payment of an employee
func (s *ReceiptService) ListPaymentReceipts(ctx context.Context, employeeID, paymentID string) ([]*repository.Receipt, error) {
	if _, err := s.payments.GetForEmployee(ctx, employeeID, paymentID); err != nil {
		return nil, err
	}
	return s.receipts.ListByPayment(ctx, paymentID)
}

// ListReceipts lists receipts matching filter
func (s *ReceiptService) ListReceipts(ctx context.Context, filter repository.ReceiptFilter) ([]*repository.Receipt, error) {
	var errs validation.Errors
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		errs.Add("to", "date_range", "")
	}
	if filter.Limit < 0 {
		errs.Add("limit", "min", "0")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return s.receipts.List(ctx, filter)
}
