package repository_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gestor/backoffice/internal/finance/domain"
	"github.com/gestor/backoffice/internal/finance/repository"
)

func TestEntryConditions(t *testing.T) {
	from := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)
	vehicle := domain.OriginVehicleCost
	manual := domain.OriginNone

	tests := []struct {
		name      string
		filter    domain.EntryFilter
		wantWhere string
		wantArgs  []interface{}
	}{
		{
			name:      "empty filter",
			filter:    domain.EntryFilter{},
			wantWhere: "",
			wantArgs:  nil,
		},
		{
			name:      "kind and category",
			filter:    domain.EntryFilter{Kind: domain.KindExpense, CategoryID: "cat-1"},
			wantWhere: " WHERE e.type = $1 AND e.category_id = $2",
			wantArgs:  []interface{}{domain.KindExpense, "cat-1"},
		},
		{
			name:      "date range",
			filter:    domain.EntryFilter{From: &from, To: &to},
			wantWhere: " WHERE e.date >= $1 AND e.date <= $2",
			wantArgs:  []interface{}{"2024-01-01", "2024-01-31"},
		},
		{
			name:      "search escapes wildcards",
			filter:    domain.EntryFilter{Search: " 50%_off "},
			wantWhere: " WHERE e.description ILIKE $1",
			wantArgs:  []interface{}{`%50\%\_off%`},
		},
		{
			name:      "vehicle cost origin",
			filter:    domain.EntryFilter{OriginKind: &vehicle},
			wantWhere: " WHERE e.vehicle_cost_id IS NOT NULL",
			wantArgs:  nil,
		},
		{
			name:      "manual entries only",
			filter:    domain.EntryFilter{Kind: domain.KindIncome, OriginKind: &manual},
			wantWhere: " WHERE e.type = $1 AND e.vehicle_cost_id IS NULL AND e.employee_payment_id IS NULL",
			wantArgs:  []interface{}{domain.KindIncome},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := repository.EntryConditions(tt.filter)
			assert.Equal(t, tt.wantWhere, c.Where())
			assert.Equal(t, tt.wantArgs, c.Args())
		})
	}
}

func TestEntryConditions_LimitFollowsFilterArgs(t *testing.T) {
	c := repository.EntryConditions(domain.EntryFilter{Kind: domain.KindExpense})

	assert.Equal(t, " LIMIT $2", c.Limit(10))
	assert.Equal(t, []interface{}{domain.KindExpense, 10}, c.Args())
}
