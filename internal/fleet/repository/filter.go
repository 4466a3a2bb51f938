package repository

import (
	"github.com/gestor/backoffice/pkg/database"
)

// VehicleConditions translates f into predicates over the vehicles table
func VehicleConditions(f VehicleFilter) *database.Conditions {
	c := &database.Conditions{}

	if f.Brand != "" {
		c.Add("brand = $%d", f.Brand)
	}
	if f.Model != "" {
		c.Add("model = $%d", f.Model)
	}
	if f.Search != "" {
		c.Contains("(plate || ' ' || brand || ' ' || model)", f.Search)
	}

	return c
}

// CostConditions translates f into predicates over the vehicle_costs table
func CostConditions(f CostFilter) *database.Conditions {
	c := &database.Conditions{}

	if f.VehicleID != "" {
		c.Add("vehicle_id = $%d", f.VehicleID)
	}
	if f.Type != "" {
		c.Add("type = $%d", f.Type)
	}
	if f.From != nil {
		c.Add("date >= $%d", database.Date(*f.From))
	}
	if f.To != nil {
		c.Add("date <= $%d", database.Date(*f.To))
	}

	return c
}
