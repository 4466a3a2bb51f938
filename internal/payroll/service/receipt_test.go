package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestor/backoffice/internal/payroll/service"
	"github.com/gestor/backoffice/pkg/database"
	"github.com/gestor/backoffice/pkg/errors"
	"github.com/gestor/backoffice/pkg/messaging"
	"github.com/gestor/backoffice/pkg/testutil"
)

func TestFormatReceiptNumber(t *testing.T) {
	assert.Equal(t, "REC2024030001", service.FormatReceiptNumber(2024, time.March, 1))
	assert.Equal(t, "REC2024120042", service.FormatReceiptNumber(2024, time.December, 42))
	assert.Len(t, service.FormatReceiptNumber(2024, time.March, 9999), 13)
}

func TestNextReceiptNumber(t *testing.T) {
	tests := []struct {
		name   string
		latest string
		want   string
	}{
		{"first of the month", "", "REC2024030001"},
		{"follows the latest", "REC2024030007", "REC2024030008"},
		{"carries into the next digit", "REC2024030099", "REC2024030100"},
		{"last available", "REC2024039998", "REC2024039999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := service.NextReceiptNumber(2024, time.March, tt.latest)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextReceiptNumber_Exhausted(t *testing.T) {
	_, err := service.NextReceiptNumber(2024, time.March, "REC2024039999")

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "RECEIPT_SEQUENCE_EXHAUSTED", appErr.Code)
	assert.Equal(t, "2024-03", appErr.Params["period"])
	assert.True(t, errors.Is(err, errors.ErrReceiptSequenceExhausted))
}

func TestNextReceiptNumber_Malformed(t *testing.T) {
	_, err := service.NextReceiptNumber(2024, time.March, "REC20240300AB")
	assert.True(t, errors.Is(err, errors.ErrInternal))
}

func TestGenerateNumber_RequiresTransaction(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	_, receipts := newServices(mockDB.DB, testutil.NewMockPublisher())

	_, err := receipts.GenerateNumber(context.Background(), 2024, time.March)

	assert.ErrorIs(t, err, database.ErrNoTransaction)
	mockDB.ExpectationsWereMet(t)
}

func TestGenerateNumber_LocksTheMonthAndReadsItsLatest(t *testing.T) {
	tests := []struct {
		name     string
		month    time.Month
		lockKey  string
		from, to string
		latest   *string
		want     string
	}{
		{"empty month", time.March, "receipt_number:2024-03", "2024-03-01", "2024-04-01", nil, "REC2024030001"},
		{"continues the month", time.March, "receipt_number:2024-03", "2024-03-01", "2024-04-01", testutil.PtrString("REC2024030004"), "REC2024030005"},
		{"december bounds", time.December, "receipt_number:2024-12", "2024-12-01", "2025-01-01", nil, "REC2024120001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockDB := testutil.NewMockDB(t)
			defer mockDB.Close()
			_, receipts := newServices(mockDB.DB, testutil.NewMockPublisher())

			rows := testutil.MockRows("receipt_number")
			if tt.latest != nil {
				rows.AddRow(*tt.latest)
			}

			mockDB.ExpectBegin()
			mockDB.ExpectAdvisoryLock(tt.lockKey)
			mockDB.ExpectQuery("SELECT receipt_number FROM receipts").WithArgs(tt.from, tt.to).WillReturnRows(rows)
			mockDB.ExpectCommit()

			var got string
			err := mockDB.DB.Transaction(context.Background(), func(ctx context.Context) error {
				var err error
				got, err = receipts.GenerateNumber(ctx, 2024, tt.month)
				return err
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			mockDB.ExpectationsWereMet(t)
		})
	}
}

func TestIssueReceipt_NumbersAndStoresReceipt(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	pub := testutil.NewMockPublisher()
	_, receipts := newServices(mockDB.DB, pub)
	receipts.WithClock(func() time.Time { return time.Date(2024, time.March, 20, 10, 30, 0, 0, time.UTC) })

	mockDB.ExpectBegin()
	mockDB.ExpectQuery("FOR UPDATE OF p").WithArgs(paymentID, employeeID).WillReturnRows(paymentRows())
	mockDB.ExpectQuery("SELECT COUNT(*) FROM receipts WHERE employee_payment_id = $1").WithArgs(paymentID).
		WillReturnRows(testutil.MockRows("count").AddRow(0))
	mockDB.ExpectAdvisoryLock("receipt_number:2024-03")
	mockDB.ExpectQuery("SELECT receipt_number FROM receipts").
		WillReturnRows(testutil.MockRows("receipt_number").AddRow("REC2024030004"))
	mockDB.ExpectExec("INSERT INTO receipts").
		WithArgs(testutil.AnyUUID{}, paymentID, "REC2024030005", testutil.Decimal("2000.00"), "2024-03-20",
			"Março", testutil.AnyTime{}, testutil.AnyTime{}).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()

	receipt, err := receipts.IssueReceipt(context.Background(), employeeID, paymentID,
		service.ReceiptInput{Description: testutil.PtrString("Março")})
	require.NoError(t, err)

	assert.Equal(t, "REC2024030005", receipt.ReceiptNumber)
	assert.True(t, testutil.Money("2000.00").Equal(receipt.Amount))

	require.Len(t, pub.PublishedEvents, 1)
	assert.Equal(t, messaging.EventReceiptIssued, pub.PublishedEvents[0].Type)
	data := pub.PublishedEvents[0].Payload.(messaging.ReceiptIssuedEvent)
	assert.Equal(t, "REC2024030005", data.ReceiptNumber)
	assert.Equal(t, employeeID, data.EmployeeID)
	assert.Equal(t, "2024-03-20", data.IssueDate)
	mockDB.ExpectationsWereMet(t)
}

func TestIssueReceipt_AlreadyIssued(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	pub := testutil.NewMockPublisher()
	_, receipts := newServices(mockDB.DB, pub)

	mockDB.ExpectBegin()
	mockDB.ExpectQuery("FOR UPDATE OF p").WithArgs(paymentID, employeeID).WillReturnRows(paymentRows())
	mockDB.ExpectQuery("SELECT COUNT(*) FROM receipts").WillReturnRows(testutil.MockRows("count").AddRow(1))
	mockDB.ExpectRollback()

	_, err := receipts.IssueReceipt(context.Background(), employeeID, paymentID, service.ReceiptInput{})

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "ALREADY_ISSUED", appErr.Code)
	pub.AssertNoEventsPublished(t)
	mockDB.ExpectationsWereMet(t)
}

func TestIssueReceipt_UnknownPayment(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()
	_, receipts := newServices(mockDB.DB, testutil.NewMockPublisher())

	mockDB.ExpectBegin()
	mockDB.ExpectQuery("FOR UPDATE OF p").WillReturnRows(testutil.MockRows("id"))
	mockDB.ExpectRollback()

	_, err := receipts.IssueReceipt(context.Background(), employeeID, paymentID, service.ReceiptInput{})
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	mockDB.ExpectationsWereMet(t)
}
