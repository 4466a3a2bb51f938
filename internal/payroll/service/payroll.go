package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gestor/backoffice/internal/finance/domain"
	finance "github.com/gestor/backoffice/internal/finance/service"
	"github.com/gestor/backoffice/internal/payroll/events"
	"github.com/gestor/backoffice/internal/payroll/repository"
	"github.com/gestor/backoffice/pkg/database"
	"github.com/gestor/backoffice/pkg/errors"
	"github.com/gestor/backoffice/pkg/logger"
	"github.com/gestor/backoffice/pkg/validation"
)

// EmployeeInput is the writable part of an employee
type EmployeeInput struct {
	// Salary entries are described as "Pagamento - <name>" in a 255 character column
	Name     string           `json:"name" validate:"required,max=243"`
	Email    string           `json:"email" validate:"required,email,max=255"`
	Phone    *string          `json:"phone" validate:"omitempty,max=20"`
	Position string           `json:"position" validate:"required,max=255"`
	Salary   *decimal.Decimal `json:"salary" validate:"omitempty,gte=0,lte=99999999.99,money"`
	HireDate time.Time        `json:"hire_date" validate:"required"`
}

// PaymentInput is the writable part of an employee payment
type PaymentInput struct {
	Amount        decimal.Decimal `json:"amount" validate:"gt=0,lte=99999999.99,money"`
	PaymentDate   time.Time       `json:"payment_date" validate:"required"`
	PaymentMethod string          `json:"payment_method" validate:"required,max=50"`
	Description   *string         `json:"description" validate:"omitempty,max=255"`
}

// EmployeeDetail is an employee with their payments and the amount paid so far
type EmployeeDetail struct {
	*repository.Employee
	Payments  []*repository.Payment `json:"payments"`
	TotalPaid decimal.Decimal        `json:"total_paid"`
}

// PaymentWithEntry is a payment together with the ledger entry it owns
type PaymentWithEntry struct {
	*repository.Payment
	Entry *domain.Entry `json:"financial_entry"`
}

// PayrollService handles employees and their payments
type PayrollService struct {
	db        *database.DB
	employees *repository.EmployeeRepository
	payments  *repository.PaymentRepository
	receipts  *repository.ReceiptRepository
	ledger    *finance.LedgerService
	publisher *events.PayrollEventPublisher
	logger    *logger.Logger
}

// NewPayrollService creates a new payroll service
func NewPayrollService(
	db *database.DB,
	employees *repository.EmployeeRepository,
	payments *repository.PaymentRepository,
	receipts *repository.ReceiptRepository,
	ledger *finance.LedgerService,
	publisher *events.PayrollEventPublisher,
	log *logger.Logger,
) *PayrollService {
	return &PayrollService{
		db:        db,
		employees: employees,
		payments:  payments,
		receipts:  receipts,
		ledger:    ledger,
		publisher: publisher,
		logger:    log,
	}
}

// Employee operations

// CreateEmployee hires an employee
func (s *PayrollService) CreateEmployee(ctx context.Context, in EmployeeInput) (*repository.Employee, error) {
	if err := validation.Check(in); err != nil {
		return nil, err
	}

	e := &repository.Employee{}
	applyEmployee(e, in)
	if err := s.employees.Create(ctx, e); err != nil {
		return nil, err
	}

	s.publisher.PublishEmployeeCreated(ctx, e)
	return e, nil
}

// GetEmployee gets an employee with their payments
func (s *PayrollService) GetEmployee(ctx context.Context, id string) (*EmployeeDetail, error) {
	e, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	payments, err := s.payments.List(ctx, repository.PaymentFilter{EmployeeID: id})
	if err != nil {
		return nil, err
	}

	total, err := s.payments.SumPayments(ctx, id)
	if err != nil {
		return nil, err
	}

	return &EmployeeDetail{Employee: e, Payments: payments, TotalPaid: total}, nil
}

// ListEmployees lists employees
func (s *PayrollService) ListEmployees(ctx context.Context, filter repository.EmployeeFilter) ([]*repository.Employee, error) {
	return s.employees.List(ctx, filter)
}

// UpdateEmployee updates an employee
func (s *PayrollService) UpdateEmployee(ctx context.Context, id string, in EmployeeInput) (*repository.Employee, error) {
	if err := validation.Check(in); err != nil {
		return nil, err
	}

	e, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	applyEmployee(e, in)
	if err := s.employees.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// DeleteEmployee deletes an employee who has never been paid
func (s *PayrollService) DeleteEmployee(ctx context.Context, id string) error {
	var deleted *repository.Employee

	err := s.db.Transaction(ctx, func(ctx context.Context) error {
		e, err := s.employees.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		n, err := s.employees.CountPayments(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return errors.DeletionBlocked("employee", "payments")
		}

		deleted = e
		return s.employees.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.publisher.PublishEmployeeDeleted(ctx, deleted)
	return nil
}

func applyEmployee(e *repository.Employee, in EmployeeInput) {
	e.Name = in.Name
	e.Email = strings.ToLower(strings.TrimSpace(in.Email))
	e.Phone = in.Phone
	e.Position = in.Position
	e.Salary = in.Salary
	e.HireDate = in.HireDate
}

// Payment operations

// CreatePayment pays an employee and books the salary expense
func (s *PayrollService) CreatePayment(ctx context.Context, employeeID string, in PaymentInput) (*PaymentWithEntry, error) {
	if err := validation.Check(in); err != nil {
		return nil, err
	}

	var payment *repository.Payment
	entry, err := s.ledger.CreateLinked(ctx, func(ctx context.Context) (finance.Owner, error) {
		employee, err := s.employees.GetByID(ctx, employeeID)
		if err != nil {
			return nil, err
		}

		payment = &repository.Payment{EmployeeID: employeeID, EmployeeName: employee.Name}
		applyPayment(payment, in)
		if err := s.payments.Create(ctx, payment); err != nil {
			return nil, err
		}
		return paymentOwner{payment}, nil
	})
	if err != nil {
		return nil, err
	}

	return &PaymentWithEntry{Payment: payment, Entry: entry}, nil
}

// GetPayment gets a payment of an employee
func (s *PayrollService) GetPayment(ctx context.Context, employeeID, paymentID string) (*repository.Payment, error) {
	return s.payments.GetForEmployee(ctx, employeeID, paymentID)
}

// ListPayments lists payments matching filter
func (s *PayrollService) ListPayments(ctx context.Context, filter repository.PaymentFilter) ([]*repository.Payment, error) {
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
	return s.payments.List(ctx, filter)
}

// UpdatePayment rewrites a payment and its entry together
func (s *PayrollService) UpdatePayment(ctx context.Context, employeeID, paymentID string, in PaymentInput) (*PaymentWithEntry, error) {
	if err := validation.Check(in); err != nil {
		return nil, err
	}

	var payment *repository.Payment
	entry, err := s.ledger.UpdateLinked(ctx, func(ctx context.Context) (finance.Owner, error) {
		var err error
		if payment, err = s.payments.GetForUpdate(ctx, employeeID, paymentID); err != nil {
			return nil, err
		}

		applyPayment(payment, in)
		if err := s.payments.Update(ctx, payment); err != nil {
			return nil, err
		}
		return paymentOwner{payment}, nil
	})
	if err != nil {
		return nil, err
	}

	return &PaymentWithEntry{Payment: payment, Entry: entry}, nil
}

// DeletePayment deletes a payment with its receipts and its entry
func (s *PayrollService) DeletePayment(ctx context.Context, employeeID, paymentID string) error {
	return s.ledger.DeleteLinked(ctx, domain.EmployeePaymentOrigin(paymentID),
		func(ctx context.Context) error {
			n, err := s.receipts.DeleteByPayment(ctx, paymentID)
			if err != nil {
				return err
			}
			if n > 0 {
				s.logger.Debug().Int64("receipts", n).Str("payment_id", paymentID).Msg("removing payment receipts")
			}
			return nil
		},
		func(ctx context.Context) error {
			return s.payments.DeleteForEmployee(ctx, employeeID, paymentID)
		},
	)
}

func applyPayment(p *repository.Payment, in PaymentInput) {
	p.Amount = in.Amount
	p.PaymentDate = in.PaymentDate
	p.PaymentMethod = in.PaymentMethod
	p.Description = in.Description
}

// paymentOwner books a payment as a salary expense
type paymentOwner struct {
	payment *repository.Payment
}

func (o paymentOwner) LedgerOrigin() domain.Origin {
	return domain.EmployeePaymentOrigin(o.payment.ID)
}

func (o paymentOwner) LedgerLink() finance.Link {
	return finance.Link{
		CategoryName:        SalaryCategory,
		CategoryDescription: salaryCategoryDescription,
		Description:         entryDescriptionPrefix + o.payment.EmployeeName,
		Amount:              o.payment.Amount,
		Date:                o.payment.PaymentDate,
	}
}
