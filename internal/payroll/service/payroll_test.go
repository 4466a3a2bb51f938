package service_test

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	finevents "github.com/gestor/backoffice/internal/finance/events"
	finrepo "github.com/gestor/backoffice/internal/finance/repository"
	finance "github.com/gestor/backoffice/internal/finance/service"
	"github.com/gestor/backoffice/internal/payroll/events"
	"github.com/gestor/backoffice/internal/payroll/repository"
	"github.com/gestor/backoffice/internal/payroll/service"
	"github.com/gestor/backoffice/pkg/database"
	"github.com/gestor/backoffice/pkg/errors"
	"github.com/gestor/backoffice/pkg/i18n"
	"github.com/gestor/backoffice/pkg/logger"
	"github.com/gestor/backoffice/pkg/messaging"
	"github.com/gestor/backoffice/pkg/testutil"
)

const (
	employeeID = "0b1c2d3e-4f5a-4b6c-8d7e-9f0a1b2c3d4e"
	paymentID  = "1c2d3e4f-5a6b-4c7d-8e9f-0a1b2c3d4e5f"
	entryID    = "2d3e4f5a-6b7c-4d8e-9f0a-1b2c3d4e5f6a"
	categoryID = "3e4f5a6b-7c8d-4e9f-8a1b-2c3d4e5f6a7b"
)

func newServices(db *database.DB, pub messaging.EventPublisher) (*service.PayrollService, *service.ReceiptService) {
	log := logger.Nop()
	ledger := finance.NewLedgerService(
		db,
		finrepo.NewCategoryRepository(db),
		finrepo.NewEntryRepository(db),
		finevents.NewFinanceEventPublisher(pub, log),
		log,
	)
	employees := repository.NewEmployeeRepository(db)
	payments := repository.NewPaymentRepository(db)
	receipts := repository.NewReceiptRepository(db)
	publisher := events.NewPayrollEventPublisher(pub, log)

	return service.NewPayrollService(db, employees, payments, receipts, ledger, publisher, log),
		service.NewReceiptService(db, payments, receipts, publisher, log)
}

func employeeRows() *sqlmock.Rows {
	now := time.Now()
	return testutil.MockRows("id", "name", "email", "phone", "position", "salary", "hire_date", "created_at", "updated_at").
		AddRow(employeeID, "Maria Souza", "maria@example.com", nil, "Motorista", "3500.00", testutil.Date(2023, time.January, 9), now, now)
}

func paymentRows() *sqlmock.Rows {
	now := time.Now()
	return testutil.MockRows(
		"id", "employee_id", "employee_name", "amount", "payment_date", "payment_method", "description", "created_at", "updated_at",
	).AddRow(paymentID, employeeID, "Maria Souza", "2000.00", testutil.Date(2024, time.March, 15), "PIX", nil, now, now)
}

func TestDeleteEmployee_BlockedWhilePaymentsExist(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	pub := testutil.NewMockPublisher()
	payroll, _ := newServices(mockDB.DB, pub)

	mockDB.ExpectBegin()
	mockDB.ExpectQuery("FROM employees WHERE id = $1 FOR UPDATE").WithArgs(employeeID).WillReturnRows(employeeRows())
	mockDB.ExpectQuery("SELECT COUNT(*) FROM employee_payments WHERE employee_id = $1").WithArgs(employeeID).
		WillReturnRows(testutil.MockRows("count").AddRow(2))
	mockDB.ExpectRollback()

	err := payroll.DeleteEmployee(context.Background(), employeeID)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "DELETION_BLOCKED", appErr.Code)
	assert.True(t, errors.Is(err, errors.ErrDeletionBlocked))
	assert.Equal(t, "payments", appErr.Params["children"])
	pub.AssertNoEventsPublished(t)
	mockDB.ExpectationsWereMet(t)
}

func TestDeleteEmployee_RemovesEmployeeWithoutPayments(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	pub := testutil.NewMockPublisher()
	payroll, _ := newServices(mockDB.DB, pub)

	mockDB.ExpectBegin()
	mockDB.ExpectQuery("FOR UPDATE").WithArgs(employeeID).WillReturnRows(employeeRows())
	mockDB.ExpectQuery("SELECT COUNT(*) FROM employee_payments").WillReturnRows(testutil.MockRows("count").AddRow(0))
	mockDB.ExpectExec("DELETE FROM employees WHERE id = $1").WithArgs(employeeID).WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()

	require.NoError(t, payroll.DeleteEmployee(context.Background(), employeeID))
	assert.Equal(t, []string{messaging.EventEmployeeDeleted}, pub.Types())
	mockDB.ExpectationsWereMet(t)
}

func TestCreateEmployee_Validation(t *testing.T) {
	hired := testutil.Date(2023, time.January, 9)
	negative := testutil.Money("-1")
	fractional := testutil.Money("10.005")
	oversized := testutil.Money("100000000.00")

	tests := []struct {
		name  string
		in    service.EmployeeInput
		field string
	}{
		{"missing name", service.EmployeeInput{Email: "a@b.com", Position: "Motorista", HireDate: hired}, "name"},
		{"name too long for salary entries", service.EmployeeInput{Name: strings.Repeat("n", 244), Email: "a@b.com", Position: "Motorista", HireDate: hired}, "name"},
		{"bad email", service.EmployeeInput{Name: "Ana", Email: "not-an-email", Position: "Motorista", HireDate: hired}, "email"},
		{"long phone", service.EmployeeInput{Name: "Ana", Email: "a@b.com", Phone: testutil.PtrString("+55 11 99999-0000 ramal 12"), Position: "Motorista", HireDate: hired}, "phone"},
		{"missing position", service.EmployeeInput{Name: "Ana", Email: "a@b.com", HireDate: hired}, "position"},
		{"negative salary", service.EmployeeInput{Name: "Ana", Email: "a@b.com", Position: "Motorista", Salary: &negative, HireDate: hired}, "salary"},
		{"salary over column precision", service.EmployeeInput{Name: "Ana", Email: "a@b.com", Position: "Motorista", Salary: &oversized, HireDate: hired}, "salary"},
		{"salary below cents", service.EmployeeInput{Name: "Ana", Email: "a@b.com", Position: "Motorista", Salary: &fractional, HireDate: hired}, "salary"},
		{"missing hire date", service.EmployeeInput{Name: "Ana", Email: "a@b.com", Position: "Motorista"}, "hire_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockDB := testutil.NewMockDB(t)
			defer mockDB.Close()
			payroll, _ := newServices(mockDB.DB, testutil.NewMockPublisher())

			_, err := payroll.CreateEmployee(context.Background(), tt.in)

			var appErr *errors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
			assert.Contains(t, appErr.Details, tt.field)
			mockDB.ExpectationsWereMet(t)
		})
	}
}

func TestCreatePayment_Validation(t *testing.T) {
	paid := testutil.Date(2024, time.March, 15)

	tests := []struct {
		name  string
		in    service.PaymentInput
		field string
	}{
		{"zero amount", service.PaymentInput{PaymentDate: paid, PaymentMethod: "PIX"}, "amount"},
		{"amount over column precision", service.PaymentInput{Amount: testutil.Money("100000000.00"), PaymentDate: paid, PaymentMethod: "PIX"}, "amount"},
		{"fraction of a cent", service.PaymentInput{Amount: testutil.Money("0.001"), PaymentDate: paid, PaymentMethod: "PIX"}, "amount"},
		{"missing date", service.PaymentInput{Amount: testutil.Money("10"), PaymentMethod: "PIX"}, "payment_date"},
		{"missing method", service.PaymentInput{Amount: testutil.Money("10"), PaymentDate: paid}, "payment_method"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockDB := testutil.NewMockDB(t)
			defer mockDB.Close()
			payroll, _ := newServices(mockDB.DB, testutil.NewMockPublisher())

			_, err := payroll.CreatePayment(context.Background(), employeeID, tt.in)

			var appErr *errors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Contains(t, appErr.Details, tt.field)
			mockDB.ExpectationsWereMet(t)
		})
	}
}

func TestCreatePayment_BooksSalaryEntryNamedAfterEmployee(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	pub := testutil.NewMockPublisher()
	payroll, _ := newServices(mockDB.DB, pub)

	now := time.Now()
	mockDB.ExpectBegin()
	mockDB.ExpectQuery("FROM employees WHERE id = $1").WithArgs(employeeID).WillReturnRows(employeeRows())
	mockDB.ExpectExec("INSERT INTO employee_payments").
		WithArgs(testutil.AnyUUID{}, employeeID, testutil.Decimal("2000.00"), "2024-03-15", "PIX", nil, testutil.AnyTime{}, testutil.AnyTime{}).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectAdvisoryLock("financial_category:EXPENSE:Salários")
	mockDB.ExpectQuery("FROM financial_categories").
		WithArgs("Salários", "EXPENSE").
		WillReturnRows(testutil.MockRows("id", "name", "description", "type", "created_at", "updated_at").
			AddRow(categoryID, "Salários", "Pagamentos de funcionários", "EXPENSE", now, now))
	mockDB.ExpectExec("INSERT INTO financial_entries").
		WithArgs(
			testutil.AnyUUID{}, "Pagamento - Maria Souza", testutil.Decimal("2000"), "EXPENSE", "2024-03-15", categoryID,
			nil, testutil.AnyUUID{}, testutil.AnyTime{}, testutil.AnyTime{},
		).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()

	result, err := payroll.CreatePayment(context.Background(), employeeID, service.PaymentInput{
		Amount:        testutil.Money("2000.00"),
		PaymentDate:   testutil.Date(2024, time.March, 15),
		PaymentMethod: "PIX",
	})
	require.NoError(t, err)

	assert.Equal(t, "Pagamento - Maria Souza", result.Entry.Description)
	assert.Equal(t, "Salários", result.Entry.CategoryName)
	assert.Equal(t, []string{messaging.EventEntryLinked}, pub.Types())
	mockDB.ExpectationsWereMet(t)
}

func TestDeletePayment_RemovesReceiptsThenEntryThenPayment(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	pub := testutil.NewMockPublisher()
	payroll, _ := newServices(mockDB.DB, pub)

	mockDB.ExpectBegin()
	mockDB.ExpectExec("DELETE FROM receipts WHERE employee_payment_id = $1").WithArgs(paymentID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectQuery("DELETE FROM financial_entries WHERE employee_payment_id = $1 RETURNING id").WithArgs(paymentID).
		WillReturnRows(testutil.MockRows("id").AddRow(entryID))
	mockDB.ExpectExec("DELETE FROM employee_payments WHERE id = $1 AND employee_id = $2").WithArgs(paymentID, employeeID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()

	require.NoError(t, payroll.DeletePayment(context.Background(), employeeID, paymentID))
	assert.Equal(t, []string{messaging.EventEntryUnlinked}, pub.Types())
	mockDB.ExpectationsWereMet(t)
}

func TestDeletePayment_WrongEmployeeRollsBack(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	pub := testutil.NewMockPublisher()
	payroll, _ := newServices(mockDB.DB, pub)

	mockDB.ExpectBegin()
	mockDB.ExpectExec("DELETE FROM receipts").WillReturnResult(sqlmock.NewResult(0, 0))
	mockDB.ExpectQuery("DELETE FROM financial_entries").WillReturnRows(testutil.MockRows("id").AddRow(entryID))
	mockDB.ExpectExec("DELETE FROM employee_payments").WillReturnResult(sqlmock.NewResult(0, 0))
	mockDB.ExpectRollback()

	err := payroll.DeletePayment(context.Background(), "another-employee", paymentID)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "NOT_FOUND", appErr.Code)
	pub.AssertNoEventsPublished(t)
	mockDB.ExpectationsWereMet(t)
}

func TestDeletePayment_ReceiptFailureIsWrapped(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	payroll, _ := newServices(mockDB.DB, testutil.NewMockPublisher())

	storeErr := stderrors.New("connection reset")
	mockDB.ExpectBegin()
	mockDB.ExpectExec("DELETE FROM receipts").WillReturnError(storeErr)
	mockDB.ExpectRollback()

	err := payroll.DeletePayment(context.Background(), employeeID, paymentID)

	assert.True(t, errors.Is(err, errors.ErrLinkDeleteFailed))
	assert.True(t, errors.Is(err, storeErr))
	mockDB.ExpectationsWereMet(t)
}

func TestPaymentMethodLabel(t *testing.T) {
	assert.Equal(t, "Transferência Bancária", service.PaymentMethodLabel(i18n.LocalePortuguese, "BANK_TRANSFER"))
	assert.Equal(t, "Bank transfer", service.PaymentMethodLabel(i18n.LocaleEnglish, "BANK_TRANSFER"))
	assert.Equal(t, "BOLETO", service.PaymentMethodLabel(i18n.LocalePortuguese, "BOLETO"))
}
