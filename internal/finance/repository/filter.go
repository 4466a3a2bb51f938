package repository

import (
	"github.com/gestor/backoffice/internal/finance/domain"
	"github.com/gestor/backoffice/pkg/database"
)

// EntryConditions translates f into predicates over the entrySelect aliases
func EntryConditions(f domain.EntryFilter) *database.Conditions {
	c := &database.Conditions{}

	if f.Kind != "" {
		c.Add("e.type = $%d", f.Kind)
	}
	if f.CategoryID != "" {
		c.Add("e.category_id = $%d", f.CategoryID)
	}
	if f.From != nil {
		c.Add("e.date >= $%d", database.Date(*f.From))
	}
	if f.To != nil {
		c.Add("e.date <= $%d", database.Date(*f.To))
	}
	c.Contains("e.description", f.Search)

	if f.OriginKind != nil {
		switch *f.OriginKind {
		case domain.OriginVehicleCost:
			c.AddRaw("e.vehicle_cost_id IS NOT NULL")
		case domain.OriginEmployeePayment:
			c.AddRaw("e.employee_payment_id IS NOT NULL")
		default:
			c.AddRaw("e.vehicle_cost_id IS NULL AND e.employee_payment_id IS NULL")
		}
	}

	return c
}
