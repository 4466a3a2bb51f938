package events

import (
	"context"
	"time"

	"github.com/gestor/backoffice/internal/finance/domain"
	"github.com/gestor/backoffice/pkg/logger"
	"github.com/gestor/backoffice/pkg/messaging"
)

// FinanceEventPublisher publishes ledger events. Failures are logged, never returned:
// the ledger change is already committed when an event goes out.
type FinanceEventPublisher struct {
	publisher messaging.EventPublisher
	logger    *logger.Logger
}

// NewFinanceEventPublisher creates a new finance event publisher
func NewFinanceEventPublisher(publisher messaging.EventPublisher, log *logger.Logger) *FinanceEventPublisher {
	return &FinanceEventPublisher{
		publisher: publisher,
		logger:    log,
	}
}

// PublishEntryLinked publishes an entry created for a cost or payment
func (p *FinanceEventPublisher) PublishEntryLinked(ctx context.Context, entry *domain.Entry) {
	p.publish(ctx, messaging.EventEntryLinked, entry.ID, linkedData(entry))
}

// PublishEntrySynced publishes an entry rewritten to match its owner
func (p *FinanceEventPublisher) PublishEntrySynced(ctx context.Context, entry *domain.Entry) {
	p.publish(ctx, messaging.EventEntrySynced, entry.ID, linkedData(entry))
}

// PublishEntryUnlinked publishes the removal of an owner together with its entry
func (p *FinanceEventPublisher) PublishEntryUnlinked(ctx context.Context, origin domain.Origin, entryID string) {
	data := messaging.EntryUnlinkedEvent{
		EntryID:    entryID,
		OriginKind: string(origin.Kind()),
		OriginID:   origin.ID(),
	}
	p.publish(ctx, messaging.EventEntryUnlinked, entryID, data)
}

// PublishEntryChanged publishes a manual entry create, update or delete
func (p *FinanceEventPublisher) PublishEntryChanged(ctx context.Context, eventType string, entry *domain.Entry) {
	data := messaging.EntryChangedEvent{
		EntryID:    entry.ID,
		Kind:       string(entry.Kind),
		CategoryID: entry.CategoryID,
		Amount:     entry.Amount,
	}
	p.publish(ctx, eventType, entry.ID, data)
}

func (p *FinanceEventPublisher) publish(ctx context.Context, eventType, entryID string, data interface{}) {
	if err := p.publisher.Publish(ctx, eventType, data); err != nil {
		p.logger.Error().Err(err).Str("event_type", eventType).Str("entry_id", entryID).Msg("failed to publish ledger event")
	}
}

func linkedData(entry *domain.Entry) messaging.EntryLinkedEvent {
	return messaging.EntryLinkedEvent{
		EntryID:    entry.ID,
		OriginKind: string(entry.Origin.Kind()),
		OriginID:   entry.Origin.ID(),
		CategoryID: entry.CategoryID,
		Amount:     entry.Amount,
		Date:       entry.Date.Format(time.DateOnly),
	}
}
