package service_test

import (
	"context"
	"flag"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestor/backoffice/internal/finance/domain"
	finrepo "github.com/gestor/backoffice/internal/finance/repository"
	"github.com/gestor/backoffice/internal/payroll/service"
	"github.com/gestor/backoffice/pkg/errors"
	"github.com/gestor/backoffice/pkg/testutil"
)

var suite *testutil.IntegrationSuite

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()

	var err error
	suite, err = testutil.NewIntegrationSuite(ctx)
	if err != nil {
		log.Fatalf("failed to create integration suite: %v", err)
	}

	code := m.Run()
	testutil.TerminateContainer(ctx)
	os.Exit(code)
}

func salaryInput() service.PaymentInput {
	return service.PaymentInput{
		Amount:        testutil.Money("2000.00"),
		PaymentDate:   testutil.Date(2024, time.March, 15),
		PaymentMethod: "PIX",
	}
}

func clockAt(year int, month time.Month, day int) func() time.Time {
	return func() time.Time { return time.Date(year, month, day, 9, 0, 0, 0, time.UTC) }
}

func TestCreatePayment_BooksSalaryExpense(t *testing.T) {
	testutil.SkipIfShort(t)
	suite.Reset(t)

	ctx := testutil.DefaultTestContext(t)
	payroll, _ := newServices(suite.DB, testutil.NewMockPublisher())
	employee := suite.InsertEmployee(t, suite.Fixtures.Employee(testutil.WithEmployeeName("João Lima")))

	result, err := payroll.CreatePayment(ctx, employee.ID, salaryInput())
	require.NoError(t, err)

	entry, err := finrepo.NewEntryRepository(suite.DB).GetByOrigin(ctx, domain.EmployeePaymentOrigin(result.ID))
	require.NoError(t, err)

	assert.Equal(t, "Pagamento - João Lima", entry.Description)
	assert.Equal(t, "Salários", entry.CategoryName)
	assert.Equal(t, domain.KindExpense, entry.Kind)
	assert.True(t, testutil.Money("2000.00").Equal(entry.Amount))
	assert.Equal(t, "2024-03-15", entry.Date.Format("2006-01-02"))
}

func TestCreatePayment_LongestEmployeeNameFitsEntry(t *testing.T) {
	testutil.SkipIfShort(t)
	suite.Reset(t)

	ctx := testutil.DefaultTestContext(t)
	payroll, _ := newServices(suite.DB, testutil.NewMockPublisher())

	employee, err := payroll.CreateEmployee(ctx, service.EmployeeInput{
		Name:     strings.Repeat("n", 243),
		Email:    "longname@example.com",
		Position: "Motorista",
		HireDate: testutil.Date(2023, time.January, 9),
	})
	require.NoError(t, err)

	result, err := payroll.CreatePayment(ctx, employee.ID, salaryInput())
	require.NoError(t, err)
	assert.Len(t, result.Entry.Description, 255)
}

func TestCreatePayment_AmountOverColumnPrecision(t *testing.T) {
	testutil.SkipIfShort(t)
	suite.Reset(t)

	ctx := testutil.DefaultTestContext(t)
	payroll, _ := newServices(suite.DB, testutil.NewMockPublisher())
	employee := suite.InsertEmployee(t, suite.Fixtures.Employee())

	in := salaryInput()
	in.Amount = testutil.Money("100000000.00")
	_, err := payroll.CreatePayment(ctx, employee.ID, in)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	assert.Zero(t, suite.Count(t, "employee_payments", "employee_id = $1", employee.ID))
	assert.Zero(t, suite.Count(t, "financial_entries", "employee_payment_id IS NOT NULL"))
}

func TestUpdatePayment_SyncsEntry(t *testing.T) {
	testutil.SkipIfShort(t)
	suite.Reset(t)

	ctx := testutil.DefaultTestContext(t)
	payroll, _ := newServices(suite.DB, testutil.NewMockPublisher())
	employee := suite.InsertEmployee(t, suite.Fixtures.Employee())

	created, err := payroll.CreatePayment(ctx, employee.ID, salaryInput())
	require.NoError(t, err)

	in := salaryInput()
	in.Amount = testutil.Money("2150.50")
	in.PaymentDate = testutil.Date(2024, time.March, 29)
	updated, err := payroll.UpdatePayment(ctx, employee.ID, created.ID, in)
	require.NoError(t, err)

	assert.Equal(t, created.Entry.ID, updated.Entry.ID)
	assert.True(t, testutil.Money("2150.50").Equal(updated.Entry.Amount))
	assert.Equal(t, "2024-03-29", updated.Entry.Date.Format("2006-01-02"))
	assert.Equal(t, 1, suite.Count(t, "financial_entries", "employee_payment_id = $1", created.ID))
}

func TestIssueReceipt_SequenceWithinMonthAndReset(t *testing.T) {
	testutil.SkipIfShort(t)
	suite.Reset(t)

	ctx := testutil.DefaultTestContext(t)
	payroll, receipts := newServices(suite.DB, testutil.NewMockPublisher())
	employee := suite.InsertEmployee(t, suite.Fixtures.Employee())

	var numbers []string
	for _, clock := range []func() time.Time{
		clockAt(2024, time.March, 5),
		clockAt(2024, time.March, 20),
		clockAt(2024, time.March, 31),
		clockAt(2024, time.April, 1),
	} {
		payment, err := payroll.CreatePayment(ctx, employee.ID, salaryInput())
		require.NoError(t, err)

		receipt, err := receipts.WithClock(clock).IssueReceipt(ctx, employee.ID, payment.ID, service.ReceiptInput{})
		require.NoError(t, err)
		numbers = append(numbers, receipt.ReceiptNumber)
	}

	assert.Equal(t, []string{"REC2024030001", "REC2024030002", "REC2024030003", "REC2024040001"}, numbers)
}

func TestIssueReceipt_ConcurrentIssuersGetDistinctNumbers(t *testing.T) {
	testutil.SkipIfShort(t)
	suite.Reset(t)

	ctx := testutil.DefaultTestContext(t)
	payroll, receipts := newServices(suite.DB, testutil.NewMockPublisher())
	receipts.WithClock(clockAt(2024, time.May, 10))
	employee := suite.InsertEmployee(t, suite.Fixtures.Employee())

	const n = 8
	paymentIDs := make([]string, n)
	for i := range paymentIDs {
		payment, err := payroll.CreatePayment(ctx, employee.ID, salaryInput())
		require.NoError(t, err)
		paymentIDs[i] = payment.ID
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers []string
		errs    []error
	)
	for _, id := range paymentIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			receipt, err := receipts.IssueReceipt(ctx, employee.ID, id, service.ReceiptInput{})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			numbers = append(numbers, receipt.ReceiptNumber)
		}(id)
	}
	wg.Wait()

	require.Empty(t, errs)
	sort.Strings(numbers)
	want := make([]string, n)
	for i := range want {
		want[i] = service.FormatReceiptNumber(2024, time.May, i+1)
	}
	assert.Equal(t, want, numbers)
}

func TestIssueReceipt_SecondReceiptRejected(t *testing.T) {
	testutil.SkipIfShort(t)
	suite.Reset(t)

	ctx := testutil.DefaultTestContext(t)
	payroll, receipts := newServices(suite.DB, testutil.NewMockPublisher())
	employee := suite.InsertEmployee(t, suite.Fixtures.Employee())

	payment, err := payroll.CreatePayment(ctx, employee.ID, salaryInput())
	require.NoError(t, err)

	first, err := receipts.IssueReceipt(ctx, employee.ID, payment.ID, service.ReceiptInput{})
	require.NoError(t, err)
	assert.True(t, testutil.Money("2000.00").Equal(first.Amount))

	_, err = receipts.IssueReceipt(ctx, employee.ID, payment.ID, service.ReceiptInput{})
	assert.True(t, errors.Is(err, errors.ErrAlreadyIssued))
	assert.Equal(t, 1, suite.Count(t, "receipts", "employee_payment_id = $1", payment.ID))
}

func TestDeletePayment_RemovesReceiptsAndEntry(t *testing.T) {
	testutil.SkipIfShort(t)
	suite.Reset(t)

	ctx := testutil.DefaultTestContext(t)
	payroll, receipts := newServices(suite.DB, testutil.NewMockPublisher())
	employee := suite.InsertEmployee(t, suite.Fixtures.Employee())

	payment, err := payroll.CreatePayment(ctx, employee.ID, salaryInput())
	require.NoError(t, err)
	_, err = receipts.IssueReceipt(ctx, employee.ID, payment.ID, service.ReceiptInput{})
	require.NoError(t, err)

	require.NoError(t, payroll.DeletePayment(ctx, employee.ID, payment.ID))

	assert.Zero(t, suite.Count(t, "employee_payments", "id = $1", payment.ID))
	assert.Zero(t, suite.Count(t, "receipts", "employee_payment_id = $1", payment.ID))
	assert.Zero(t, suite.Count(t, "financial_entries", "employee_payment_id = $1", payment.ID))
}

func TestDeleteEmployee_GuardedByPayments(t *testing.T) {
	testutil.SkipIfShort(t)
	suite.Reset(t)

	ctx := testutil.DefaultTestContext(t)
	payroll, _ := newServices(suite.DB, testutil.NewMockPublisher())
	employee := suite.InsertEmployee(t, suite.Fixtures.Employee())

	payment, err := payroll.CreatePayment(ctx, employee.ID, salaryInput())
	require.NoError(t, err)

	err = payroll.DeleteEmployee(ctx, employee.ID)
	assert.True(t, errors.Is(err, errors.ErrDeletionBlocked))
	assert.Equal(t, 1, suite.Count(t, "employees", "id = $1", employee.ID))

	require.NoError(t, payroll.DeletePayment(ctx, employee.ID, payment.ID))
	require.NoError(t, payroll.DeleteEmployee(ctx, employee.ID))
	assert.Zero(t, suite.Count(t, "employees", "id = $1", employee.ID))
}

func TestCreateEmployee_DuplicateEmail(t *testing.T) {
	testutil.SkipIfShort(t)
	suite.Reset(t)

	ctx := testutil.DefaultTestContext(t)
	payroll, _ := newServices(suite.DB, testutil.NewMockPublisher())
	existing := suite.InsertEmployee(t, suite.Fixtures.Employee())

	_, err := payroll.CreateEmployee(ctx, service.EmployeeInput{
		Name:     "Outra Pessoa",
		Email:    existing.Email,
		Position: "Mecânico",
		HireDate: testutil.Date(2024, time.February, 1),
	})

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "DUPLICATE", appErr.Code)
}

func TestGetEmployee_TotalsPayments(t *testing.T) {
	testutil.SkipIfShort(t)
	suite.Reset(t)

	ctx := testutil.DefaultTestContext(t)
	payroll, _ := newServices(suite.DB, testutil.NewMockPublisher())
	employee := suite.InsertEmployee(t, suite.Fixtures.Employee())

	for _, amount := range []string{"2000.00", "350.25"} {
		in := salaryInput()
		in.Amount = testutil.Money(amount)
		_, err := payroll.CreatePayment(ctx, employee.ID, in)
		require.NoError(t, err)
	}

	detail, err := payroll.GetEmployee(ctx, employee.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Payments, 2)
	assert.True(t, testutil.Money("2350.25").Equal(detail.TotalPaid), detail.TotalPaid.String())
	assert.Equal(t, employee.Name, detail.Payments[0].EmployeeName)
}
