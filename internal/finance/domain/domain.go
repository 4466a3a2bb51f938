// Package domain holds the ledger types shared by every workflow that posts
// to the financial journal.
package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Kind separates income from expense in categories and entries
type Kind string

const (
	KindIncome  Kind = "INCOME"
	KindExpense Kind = "EXPENSE"
)

// Valid reports whether k is a known kind
func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// Category groups entries under a (name, kind) label
type Category struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	Kind        Kind      `db:"type" json:"type"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Entry is one line of the financial journal
type Entry struct {
	ID           string          `json:"id"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	Kind         Kind            `json:"type"`
	Date         time.Time       `json:"date"`
	CategoryID   string          `json:"category_id"`
	CategoryName string          `json:"category_name,omitempty"`
	Origin       Origin          `json:"origin"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Linked reports whether the entry is owned by a cost or payment
func (e *Entry) Linked() bool {
	return !e.Origin.IsNone()
}

// EntryFilter narrows List results. Zero fields do not filter.
type EntryFilter struct {
	Kind       Kind
	CategoryID string
	From       *time.Time
	To         *time.Time
	Search     string
	OriginKind *OriginKind
	Limit      int
}

// Summary totals entries over a period
type Summary struct {
	From    time.Time       `json:"from"`
	To      time.Time       `json:"to"`
	Income  decimal.Decimal `json:"total_income"`
	Expense decimal.Decimal `json:"total_expense"`
	Net     decimal.Decimal `json:"net_balance"`
}

// MonthRange returns the first and last calendar day of t's month
func MonthRange(t time.Time) (time.Time, time.Time) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, 1, -1)
}

// OriginKind names the record type an entry traces back to
type OriginKind string

const (
	OriginNone            OriginKind = ""
	OriginVehicleCost     OriginKind = "vehicle_cost"
	OriginEmployeePayment OriginKind = "employee_payment"
)

// Origin is the record that owns an entry: none, a vehicle cost, or an
// employee payment. At most one is ever set.
type Origin struct {
	kind OriginKind
	id   string
}

// NoOrigin marks an entry managed directly by the user
func NoOrigin() Origin {
	return Origin{}
}

func VehicleCostOrigin(id string) Origin {
	return Origin{kind: OriginVehicleCost, id: id}
}

func EmployeePaymentOrigin(id string) Origin {
	return Origin{kind: OriginEmployeePayment, id: id}
}

func (o Origin) Kind() OriginKind { return o.kind }

func (o Origin) ID() string { return o.id }

func (o Origin) IsNone() bool { return o.kind == OriginNone }

func (o Origin) String() string {
	if o.IsNone() {
		return "none"
	}
	return fmt.Sprintf("%s:%s", o.kind, o.id)
}

type originJSON struct {
	Kind OriginKind `json:"kind"`
	ID   string     `json:"id"`
}

// MarshalJSON renders null for entries without an owner
func (o Origin) MarshalJSON() ([]byte, error) {
	if o.IsNone() {
		return []byte("null"), nil
	}
	return json.Marshal(originJSON{Kind: o.kind, ID: o.id})
}

// UnmarshalJSON accepts the MarshalJSON form
func (o *Origin) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = NoOrigin()
		return nil
	}

	var v originJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	switch v.Kind {
	case OriginVehicleCost:
		*o = VehicleCostOrigin(v.ID)
	case OriginEmployeePayment:
		*o = EmployeePaymentOrigin(v.ID)
	case OriginNone:
		*o = NoOrigin()
	default:
		return fmt.Errorf("unknown origin kind %q", v.Kind)
	}
	return nil
}
