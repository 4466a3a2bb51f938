package errors_test

import (
	"context"
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestor/backoffice/pkg/errors"
	"github.com/gestor/backoffice/pkg/i18n"
)

func TestLinkFailures_WrapCause(t *testing.T) {
	cause := stderrors.New("insert into financial_entries: connection reset")

	tests := []struct {
		name     string
		err      *errors.AppError
		sentinel error
	}{
		{"creation", errors.LinkCreationFailed(cause), errors.ErrLinkCreationFailed},
		{"update", errors.LinkUpdateFailed(cause), errors.ErrLinkUpdateFailed},
		{"delete", errors.LinkDeleteFailed(cause), errors.ErrLinkDeleteFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error = tt.err
			assert.True(t, stderrors.Is(err, tt.sentinel))
			assert.True(t, stderrors.Is(err, cause))
			assert.Contains(t, err.Error(), "connection reset")
			assert.Equal(t, http.StatusInternalServerError, tt.err.StatusCode)
			assert.False(t, tt.err.IsClientError())
		})
	}
}

func TestAs_FindsAppErrorThroughWrapping(t *testing.T) {
	inner := errors.NotFound("vehicle")
	wrapped := errors.LinkUpdateFailed(inner)

	var appErr *errors.AppError
	require.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, "LINK_UPDATE_FAILED", appErr.Code)
	assert.True(t, errors.Is(wrapped, errors.ErrNotFound))
}

func TestDeletionBlocked(t *testing.T) {
	err := errors.DeletionBlocked("vehicle", "costs")

	assert.True(t, errors.Is(err, errors.ErrDeletionBlocked))
	assert.Equal(t, http.StatusConflict, err.StatusCode)
	assert.True(t, err.IsClientError())

	pt := i18n.NewLocalizer(i18n.LocalePortuguese)
	assert.Equal(t, "Não é possível excluir Veículo enquanto houver custos registrados", err.LocalizeWith(pt))
}

func TestReceiptSequenceExhausted(t *testing.T) {
	err := errors.ReceiptSequenceExhausted(2024, 3)

	assert.True(t, errors.Is(err, errors.ErrReceiptSequenceExhausted))
	assert.Equal(t, "2024-03", err.Params["period"])
	assert.Equal(t, "No receipt numbers left for 2024-03", err.Localize(context.Background()))
}

func TestNotFound_Localize(t *testing.T) {
	err := errors.NotFound("employee")

	assert.Equal(t, "Employee not found", err.Message)
	ctx := i18n.WithLocale(context.Background(), i18n.LocalePortuguese)
	assert.Equal(t, "Funcionário não encontrado", err.Localize(ctx))
}

func TestLinkedEntry(t *testing.T) {
	err := errors.LinkedEntry("vehicle_cost")

	assert.Equal(t, "LINKED_ENTRY", err.Code)
	assert.True(t, errors.Is(err, errors.ErrConflict))
	assert.Equal(t, "This entry belongs to a Vehicle cost and can only change through it",
		err.LocalizeWith(i18n.NewLocalizer(i18n.LocaleEnglish)))
}

func TestValidation_Details(t *testing.T) {
	err := errors.Validation(map[string]string{"plate": "is required"})

	assert.Equal(t, "VALIDATION_ERROR", err.Code)
	assert.Equal(t, "is required", err.Details["plate"])
	assert.Len(t, err.Unwrap(), 1)
}

func TestBadRequest_LocalizesKey(t *testing.T) {
	err := errors.BadRequest("errors.invalid_json")

	assert.Equal(t, "BAD_REQUEST", err.Code)
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.True(t, errors.Is(err, errors.ErrBadRequest))
	assert.Equal(t, "Invalid JSON body", err.LocalizeWith(i18n.NewLocalizer(i18n.LocaleEnglish)))
}
