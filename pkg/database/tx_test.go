package database_test

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestor/backoffice/pkg/database"
	"github.com/gestor/backoffice/pkg/testutil"
)

func TestTransaction_CommitsOnSuccess(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectBegin()
	mockDB.ExpectExec("UPDATE vehicles").WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()

	err := mockDB.DB.Transaction(context.Background(), func(ctx context.Context) error {
		assert.True(t, database.InTransaction(ctx))
		_, err := mockDB.DB.Querier(ctx).ExecContext(ctx, "UPDATE vehicles SET plate = plate")
		return err
	})

	require.NoError(t, err)
	mockDB.ExpectationsWereMet(t)
}

func TestTransaction_RollsBackOnError(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	boom := stderrors.New("boom")
	mockDB.ExpectBegin()
	mockDB.ExpectRollback()

	err := mockDB.DB.Transaction(context.Background(), func(ctx context.Context) error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
	mockDB.ExpectationsWereMet(t)
}

func TestTransaction_NestedCallJoinsOuter(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectBegin()
	mockDB.ExpectExec("INSERT INTO vehicle_costs").WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectExec("INSERT INTO financial_entries").WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()

	err := mockDB.DB.Transaction(context.Background(), func(ctx context.Context) error {
		if _, err := mockDB.DB.Querier(ctx).ExecContext(ctx, "INSERT INTO vehicle_costs DEFAULT VALUES"); err != nil {
			return err
		}
		return mockDB.DB.Transaction(ctx, func(ctx context.Context) error {
			_, err := mockDB.DB.Querier(ctx).ExecContext(ctx, "INSERT INTO financial_entries DEFAULT VALUES")
			return err
		})
	})

	require.NoError(t, err)
	mockDB.ExpectationsWereMet(t)
}

func TestTransaction_NestedFailureRollsBackOuter(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	boom := stderrors.New("entry rejected")
	mockDB.ExpectBegin()
	mockDB.ExpectExec("INSERT INTO vehicle_costs").WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectRollback()

	err := mockDB.DB.Transaction(context.Background(), func(ctx context.Context) error {
		if _, err := mockDB.DB.Querier(ctx).ExecContext(ctx, "INSERT INTO vehicle_costs DEFAULT VALUES"); err != nil {
			return err
		}
		return mockDB.DB.Transaction(ctx, func(ctx context.Context) error {
			return boom
		})
	})

	assert.ErrorIs(t, err, boom)
	mockDB.ExpectationsWereMet(t)
}

func TestTransaction_PanicRollsBackAndRepanics(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectBegin()
	mockDB.ExpectRollback()

	assert.PanicsWithValue(t, "kaboom", func() {
		_ = mockDB.DB.Transaction(context.Background(), func(ctx context.Context) error {
			panic("kaboom")
		})
	})
	mockDB.ExpectationsWereMet(t)
}

func TestTransaction_BeginFailure(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectBegin().WillReturnError(stderrors.New("too many connections"))

	called := false
	err := mockDB.DB.Transaction(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})

	assert.Error(t, err)
	assert.False(t, called)
	mockDB.ExpectationsWereMet(t)
}

func TestQuerier_OutsideTransactionUsesPool(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	assert.False(t, database.InTransaction(context.Background()))
	assert.Same(t, mockDB.DB.DB, mockDB.DB.Querier(context.Background()))
}

func TestAdvisoryXactLock(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	assert.ErrorIs(t, mockDB.DB.AdvisoryXactLock(context.Background(), "receipt_number:2024-03"), database.ErrNoTransaction)

	mockDB.ExpectBegin()
	mockDB.ExpectAdvisoryLock("receipt_number:2024-03")
	mockDB.ExpectCommit()

	err := mockDB.DB.Transaction(context.Background(), func(ctx context.Context) error {
		return mockDB.DB.AdvisoryXactLock(ctx, "receipt_number:2024-03")
	})
	require.NoError(t, err)
	mockDB.ExpectationsWereMet(t)
}
