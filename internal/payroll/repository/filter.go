package repository

import (
	"github.com/gestor/backoffice/pkg/database"
)

// EmployeeConditions translates f into predicates over the employees table
func EmployeeConditions(f EmployeeFilter) *database.Conditions {
	c := &database.Conditions{}

	if f.Position != "" {
		c.Add("position = $%d", f.Position)
	}
	if f.Search != "" {
		c.Contains("(name || ' ' || email)", f.Search)
	}

	return c
}

// PaymentConditions translates f into predicates over the paymentSelect aliases
func PaymentConditions(f PaymentFilter) *database.Conditions {
	c := &database.Conditions{}

	if f.EmployeeID != "" {
		c.Add("p.employee_id = $%d", f.EmployeeID)
	}
	if f.PaymentMethod != "" {
		c.Add("p.payment_method = $%d", f.PaymentMethod)
	}
	if f.From != nil {
		c.Add("p.payment_date >= $%d", database.Date(*f.From))
	}
	if f.To != nil {
		c.Add("p.payment_date <= $%d", database.Date(*f.To))
	}

	return c
}

// ReceiptConditions translates f into predicates over the receipts table
func ReceiptConditions(f ReceiptFilter) *database.Conditions {
	c := &database.Conditions{}

	if f.PaymentID != "" {
		c.Add("employee_payment_id = $%d", f.PaymentID)
	}
	if f.ReceiptNumber != "" {
		c.Add("receipt_number = $%d", f.ReceiptNumber)
	}
	if f.From != nil {
		c.Add("issue_date >= $%d", database.Date(*f.From))
	}
	if f.To != nil {
		c.Add("issue_date <= $%d", database.Date(*f.To))
	}

	return c
}
