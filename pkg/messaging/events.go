package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types
const (
	// Ledger events
	EventEntryLinked   = "finance.entry.linked"
	EventEntrySynced   = "finance.entry.synced"
	EventEntryUnlinked = "finance.entry.unlinked"
	EventEntryCreated  = "finance.entry.created"
	EventEntryUpdated  = "finance.entry.updated"
	EventEntryDeleted  = "finance.entry.deleted"

	// Fleet events
	EventVehicleCreated = "fleet.vehicle.created"
	EventVehicleDeleted = "fleet.vehicle.deleted"

	// Payroll events
	EventEmployeeCreated = "payroll.employee.created"
	EventEmployeeDeleted = "payroll.employee.deleted"
	EventReceiptIssued   = "payroll.receipt.issued"
)

// ExchangeEvents is the default topic exchange for every back-office event
const ExchangeEvents = "backoffice.events"

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// Ledger Events

// EntryLinkedEvent is published when an entry is created, or re-synced, for a cost or payment
type EntryLinkedEvent struct {
	EntryID    string          `json:"entry_id"`
	OriginKind string          `json:"origin_kind"`
	OriginID   string          `json:"origin_id"`
	CategoryID string          `json:"category_id"`
	Amount     decimal.Decimal `json:"amount"`
	Date       string          `json:"date"`
}

// EntryUnlinkedEvent is published when a cost or payment is deleted with its entry
type EntryUnlinkedEvent struct {
	EntryID    string `json:"entry_id,omitempty"`
	OriginKind string `json:"origin_kind"`
	OriginID   string `json:"origin_id"`
}

// EntryChangedEvent is published for manual entries
type EntryChangedEvent struct {
	EntryID    string          `json:"entry_id"`
	Kind       string          `json:"kind,omitempty"`
	CategoryID string          `json:"category_id,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
}

// Fleet and payroll events

// RecordChangedEvent carries the identity of a vehicle or employee
type RecordChangedEvent struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// ReceiptIssuedEvent is published after a receipt is committed
type ReceiptIssuedEvent struct {
	ReceiptID     string          `json:"receipt_id"`
	ReceiptNumber string          `json:"receipt_number"`
	PaymentID     string          `json:"payment_id"`
	EmployeeID    string          `json:"employee_id"`
	Amount        decimal.Decimal `json:"amount"`
	IssueDate     string          `json:"issue_date"`
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return uuid.New().String()
}
