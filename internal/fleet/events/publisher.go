package events

import (
	"context"

	"github.com/gestor/backoffice/internal/fleet/repository"
	"github.com/gestor/backoffice/pkg/logger"
	"github.com/gestor/backoffice/pkg/messaging"
)

// FleetEventPublisher publishes vehicle lifecycle events
type FleetEventPublisher struct {
	publisher messaging.EventPublisher
	logger    *logger.Logger
}

// NewFleetEventPublisher creates a new fleet event publisher
func NewFleetEventPublisher(publisher messaging.EventPublisher, log *logger.Logger) *FleetEventPublisher {
	return &FleetEventPublisher{
		publisher: publisher,
		logger:    log,
	}
}

// PublishVehicleCreated publishes a vehicle created event
func (p *FleetEventPublisher) PublishVehicleCreated(ctx context.Context, v *repository.Vehicle) {
	p.publish(ctx, messaging.EventVehicleCreated, v)
}

// PublishVehicleDeleted publishes a vehicle deleted event
func (p *FleetEventPublisher) PublishVehicleDeleted(ctx context.Context, v *repository.Vehicle) {
	p.publish(ctx, messaging.EventVehicleDeleted, v)
}

func (p *FleetEventPublisher) publish(ctx context.Context, eventType string, v *repository.Vehicle) {
	data := messaging.RecordChangedEvent{ID: v.ID, Name: v.Plate}
	if err := p.publisher.Publish(ctx, eventType, data); err != nil {
		p.logger.Error().Err(err).Str("event_type", eventType).Str("vehicle_id", v.ID).Msg("failed to publish fleet event")
	}
}
