package events

import (
	"context"
	"time"

	"github.com/gestor/backoffice/internal/payroll/repository"
	"github.com/gestor/backoffice/pkg/logger"
	"github.com/gestor/backoffice/pkg/messaging"
)

// PayrollEventPublisher publishes employee and receipt events
type PayrollEventPublisher struct {
	publisher messaging.EventPublisher
	logger    *logger.Logger
}

// NewPayrollEventPublisher creates a new payroll event publisher
func NewPayrollEventPublisher(publisher messaging.EventPublisher, log *logger.Logger) *PayrollEventPublisher {
	return &PayrollEventPublisher{
		publisher: publisher,
		logger:    log,
	}
}

// PublishEmployeeCreated publishes an employee created event
func (p *PayrollEventPublisher) PublishEmployeeCreated(ctx context.Context, e *repository.Employee) {
	p.publish(ctx, messaging.EventEmployeeCreated, e.ID, messaging.RecordChangedEvent{ID: e.ID, Name: e.Name})
}

// PublishEmployeeDeleted publishes an employee deleted event
func (p *PayrollEventPublisher) PublishEmployeeDeleted(ctx context.Context, e *repository.Employee) {
	p.publish(ctx, messaging.EventEmployeeDeleted, e.ID, messaging.RecordChangedEvent{ID: e.ID, Name: e.Name})
}

// PublishReceiptIssued publishes a receipt issued event
func (p *PayrollEventPublisher) PublishReceiptIssued(ctx context.Context, employeeID string, rc *repository.Receipt) {
	data := messaging.ReceiptIssuedEvent{
		ReceiptID:     rc.ID,
		ReceiptNumber: rc.ReceiptNumber,
		PaymentID:     rc.PaymentID,
		EmployeeID:    employeeID,
		Amount:        rc.Amount,
		IssueDate:     rc.IssueDate.Format(time.DateOnly),
	}
	p.publish(ctx, messaging.EventReceiptIssued, rc.ID, data)
}

func (p *PayrollEventPublisher) publish(ctx context.Context, eventType, id string, data interface{}) {
	if err := p.publisher.Publish(ctx, eventType, data); err != nil {
		p.logger.Error().Err(err).Str("event_type", eventType).Str("record_id", id).Msg("failed to publish payroll event")
	}
}
