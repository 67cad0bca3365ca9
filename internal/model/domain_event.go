package model

import "time"

// Domain event types published after call reconciliation.
const (
	DomainEventCallCompleted = "call.completed"
)

// AggregateCall is the aggregate type of call domain events.
const AggregateCall = "call"

// DomainEvent is an integration event announced to other services.
type DomainEvent struct {
	ID             string                 `json:"id"`
	Type           string                 `json:"type"`
	OrganizationID string                 `json:"organizationId"`
	AggregateType  string                 `json:"aggregateType"`
	AggregateID    string                 `json:"aggregateId"`
	Data           map[string]interface{} `json:"data"`
	OccurredAt     time.Time              `json:"occurredAt"`
}
