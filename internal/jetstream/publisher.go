package jetstream

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/apperrors"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/model"
)

// Header names set on every domain event message.
const (
	HeaderEventType      = "Event-Type"
	HeaderOrganizationID = "Organization-Id"
	HeaderAggregateID    = "Aggregate-Id"
)

// DomainEventPublisher writes domain events to JetStream as JSON, one subject per event type.
type DomainEventPublisher struct {
	client        ClientInterface
	subjectPrefix string
}

// NewDomainEventPublisher creates a publisher that sends to "<subjectPrefix>.<event type>".
func NewDomainEventPublisher(client ClientInterface, subjectPrefix string) *DomainEventPublisher {
	return &DomainEventPublisher{client: client, subjectPrefix: subjectPrefix}
}

// Subject returns the subject an event of eventType is published on.
func (p *DomainEventPublisher) Subject(eventType string) string {
	return p.subjectPrefix + "." + eventType
}

// Publish sends one event. The event id doubles as the JetStream message id.
func (p *DomainEventPublisher) Publish(ctx context.Context, event model.DomainEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return apperrors.NewFatal(err, "marshal domain event %s", event.Type)
	}

	headers := map[string]string{
		HeaderEventType:      event.Type,
		HeaderOrganizationID: event.OrganizationID,
		HeaderAggregateID:    event.AggregateID,
	}
	if err := p.client.Publish(ctx, p.Subject(event.Type), event.ID, data, headers); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrNATS, err)
	}
	return nil
}
