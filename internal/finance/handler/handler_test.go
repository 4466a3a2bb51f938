package handler_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/gestor/backoffice/internal/finance/events"
	"github.com/gestor/backoffice/internal/finance/handler"
	"github.com/gestor/backoffice/internal/finance/repository"
	"github.com/gestor/backoffice/internal/finance/service"
	"github.com/gestor/backoffice/pkg/i18n"
	"github.com/gestor/backoffice/pkg/logger"
	"github.com/gestor/backoffice/pkg/testutil"
)

const entryID = "c4d5e6f7-8a9b-4c0d-9e1f-2a3b4c5d6e7f"

func newRouter(mockDB *testutil.MockDB) http.Handler {
	log := logger.Nop()
	svc := service.NewFinanceService(
		repository.NewCategoryRepository(mockDB.DB),
		repository.NewEntryRepository(mockDB.DB),
		events.NewFinanceEventPublisher(testutil.NewMockPublisher(), log),
		log,
	)

	r := chi.NewRouter()
	r.Use(i18n.Middleware)
	r.Route("/api/v1/financial", handler.NewFinanceHandler(svc, log).Routes)
	return r
}

func TestCreateEntry_BadDate(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	req := testutil.NewHTTPRequest(http.MethodPost, "/api/v1/financial/entries", map[string]interface{}{
		"description": "Venda",
		"amount":      "10.00",
		"type":        "INCOME",
		"date":        "03/10/2024",
		"category_id": "2f6e9d4c-1a3b-4c5d-8e7f-9a0b1c2d3e4f",
	})
	rr := testutil.ExecuteRequest(newRouter(mockDB), req)

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	assert.Equal(t, "BAD_REQUEST", testutil.ErrorCode(t, rr))
	mockDB.ExpectationsWereMet(t)
}

func TestCreateEntry_ValidationDetails(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	req := testutil.NewHTTPRequest(http.MethodPost, "/api/v1/financial/entries", map[string]interface{}{
		"amount": "-1",
		"type":   "INCOME",
		"date":   "2024-03-10",
	})
	req.Header.Set("Accept-Language", "pt-BR")
	rr := testutil.ExecuteRequest(newRouter(mockDB), req)

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	assert.Equal(t, "VALIDATION_ERROR", testutil.ErrorCode(t, rr))
	assert.Contains(t, rr.Body.String(), `"description"`)
	assert.Contains(t, rr.Body.String(), `"category_id"`)
	assert.Equal(t, "pt", rr.Header().Get("Content-Language"))
}

func TestDeleteEntry_LinkedIsConflict(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	now := time.Now()
	mockDB.ExpectQuery("WHERE e.id = $1").WithArgs(entryID).WillReturnRows(testutil.MockRows(
		"id", "description", "amount", "type", "date", "category_id", "category_name",
		"vehicle_cost_id", "employee_payment_id", "created_at", "updated_at",
	).AddRow(
		entryID, "Pagamento - Ana", "2500.00", "EXPENSE", testutil.Date(2024, time.March, 5),
		"2f6e9d4c-1a3b-4c5d-8e7f-9a0b1c2d3e4f", "Salários",
		nil, "9e8d7c6b-5a4f-4e3d-8c2b-1a0f9e8d7c6b", now, now,
	))

	req := testutil.NewHTTPRequest(http.MethodDelete, "/api/v1/financial/entries/"+entryID, nil)
	rr := testutil.ExecuteRequest(newRouter(mockDB), req)

	testutil.AssertStatus(t, rr, http.StatusConflict)
	assert.Equal(t, "LINKED_ENTRY", testutil.ErrorCode(t, rr))
	mockDB.ExpectationsWereMet(t)
}

func TestListEntries_PassesFilters(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.ExpectQuery("WHERE e.type = $1 AND e.date >= $2 AND e.date <= $3 AND e.employee_payment_id IS NOT NULL").
		WithArgs("EXPENSE", "2024-03-01", "2024-03-31", 5).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	req := testutil.NewHTTPRequest(http.MethodGet,
		"/api/v1/financial/entries?type=EXPENSE&from=2024-03-01&to=2024-03-31&origin=employee_payment&limit=5", nil)
	rr := testutil.ExecuteRequest(newRouter(mockDB), req)

	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Contains(t, rr.Body.String(), `"total":0`)
	mockDB.ExpectationsWereMet(t)
}

func TestSummary_RejectsBadQueryDate(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	req := testutil.NewHTTPRequest(http.MethodGet, "/api/v1/financial/summary?from=yesterday", nil)
	rr := testutil.ExecuteRequest(newRouter(mockDB), req)

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}
