package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VehicleFixture represents test vehicle data
type VehicleFixture struct {
	ID    string
	Plate string
	Model string
	Brand string
	Year  *int
}

// EmployeeFixture represents test employee data
type EmployeeFixture struct {
	ID       string
	Name     string
	Email    string
	Position string
	Salary   *decimal.Decimal
	HireDate time.Time
}

// CategoryFixture represents test financial category data
type CategoryFixture struct {
	ID   string
	Name string
	Kind string
}

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

// nextSeq returns the next sequence number for unique values
func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

// Vehicle creates a vehicle fixture with defaults
func (f *FixtureFactory) Vehicle(opts ...func(*VehicleFixture)) VehicleFixture {
	seq := f.nextSeq()
	year := 2020

	v := VehicleFixture{
		ID:    uuid.New().String(),
		Plate: fmt.Sprintf("TST%04d", seq),
		Model: "Fiorino",
		Brand: "Fiat",
		Year:  &year,
	}

	for _, opt := range opts {
		opt(&v)
	}

	return v
}

// WithPlate sets the vehicle plate
func WithPlate(plate string) func(*VehicleFixture) {
	return func(v *VehicleFixture) {
		v.Plate = plate
	}
}

// Employee creates an employee fixture with defaults
func (f *FixtureFactory) Employee(opts ...func(*EmployeeFixture)) EmployeeFixture {
	seq := f.nextSeq()

	e := EmployeeFixture{
		ID:       uuid.New().String(),
		Name:     fmt.Sprintf("Funcionário %d", seq),
		Email:    fmt.Sprintf("funcionario%d@test.backoffice.dev", seq),
		Position: "Motorista",
		HireDate: Date(2023, time.January, 9),
	}

	for _, opt := range opts {
		opt(&e)
	}

	return e
}

// WithEmployeeName sets the employee name
func WithEmployeeName(name string) func(*EmployeeFixture) {
	return func(e *EmployeeFixture) {
		e.Name = name
	}
}

// Category creates an expense category fixture with defaults
func (f *FixtureFactory) Category(opts ...func(*CategoryFixture)) CategoryFixture {
	seq := f.nextSeq()

	c := CategoryFixture{
		ID:   uuid.New().String(),
		Name: fmt.Sprintf("Categoria %d", seq),
		Kind: "EXPENSE",
	}

	for _, opt := range opts {
		opt(&c)
	}

	return c
}

// InsertVehicle writes a vehicle fixture to the suite database
func (s *IntegrationSuite) InsertVehicle(t *testing.T, v VehicleFixture) VehicleFixture {
	t.Helper()

	_, err := s.DB.ExecContext(context.Background(),
		`INSERT INTO vehicles (id, plate, model, brand, year) VALUES ($1, $2, $3, $4, $5)`,
		v.ID, v.Plate, v.Model, v.Brand, v.Year,
	)
	if err != nil {
		t.Fatalf("failed to insert vehicle fixture: %v", err)
	}
	return v
}

// InsertEmployee writes an employee fixture to the suite database
func (s *IntegrationSuite) InsertEmployee(t *testing.T, e EmployeeFixture) EmployeeFixture {
	t.Helper()

	_, err := s.DB.ExecContext(context.Background(),
		`INSERT INTO employees (id, name, email, position, salary, hire_date) VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.Name, e.Email, e.Position, e.Salary, e.HireDate.Format("2006-01-02"),
	)
	if err != nil {
		t.Fatalf("failed to insert employee fixture: %v", err)
	}
	return e
}

// InsertCategory writes a category fixture to the suite database
func (s *IntegrationSuite) InsertCategory(t *testing.T, c CategoryFixture) CategoryFixture {
	t.Helper()

	_, err := s.DB.ExecContext(context.Background(),
		`INSERT INTO financial_categories (id, name, type) VALUES ($1, $2, $3)`,
		c.ID, c.Name, c.Kind,
	)
	if err != nil {
		t.Fatalf("failed to insert category fixture: %v", err)
	}
	return c
}
