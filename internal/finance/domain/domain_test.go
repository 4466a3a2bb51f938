package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestor/backoffice/internal/finance/domain"
)

func TestOrigin(t *testing.T) {
	tests := []struct {
		name   string
		origin domain.Origin
		kind   domain.OriginKind
		id     string
		none   bool
		json   string
	}{
		{"none", domain.NoOrigin(), domain.OriginNone, "", true, `null`},
		{"vehicle cost", domain.VehicleCostOrigin("c-1"), domain.OriginVehicleCost, "c-1", false, `{"kind":"vehicle_cost","id":"c-1"}`},
		{"employee payment", domain.EmployeePaymentOrigin("p-1"), domain.OriginEmployeePayment, "p-1", false, `{"kind":"employee_payment","id":"p-1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.origin.Kind())
			assert.Equal(t, tt.id, tt.origin.ID())
			assert.Equal(t, tt.none, tt.origin.IsNone())

			b, err := json.Marshal(tt.origin)
			require.NoError(t, err)
			assert.JSONEq(t, tt.json, string(b))

			var back domain.Origin
			require.NoError(t, json.Unmarshal(b, &back))
			assert.Equal(t, tt.origin, back)
		})
	}
}

func TestOrigin_UnmarshalUnknownKind(t *testing.T) {
	var o domain.Origin
	assert.Error(t, json.Unmarshal([]byte(`{"kind":"invoice","id":"x"}`), &o))
}

func TestMonthRange(t *testing.T) {
	from, to := domain.MonthRange(time.Date(2024, 2, 15, 13, 0, 0, 0, time.UTC))

	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), to)
}

func TestKind_Valid(t *testing.T) {
	assert.True(t, domain.KindIncome.Valid())
	assert.True(t, domain.KindExpense.Valid())
	assert.False(t, domain.Kind("TRANSFER").Valid())
}
