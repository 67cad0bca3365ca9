package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm/schema"
)

// ExhaustedEvent is a domain event whose publication kept failing until the retry budget ran out.
type ExhaustedEvent struct {
	ID             uint           `gorm:"primaryKey"`
	CreatedAt      time.Time      // Automatically set by GORM
	OrganizationID string         `gorm:"index;not null"`
	Subject        string         `gorm:"index;not null"` // Subject the event was meant for
	EventType      string         `gorm:"index;not null"`
	AggregateID    string         `gorm:"index"`
	LastError      string         // The last error message encountered
	Attempts       int            // Publish attempts made before giving up
	OccurredAt     time.Time      `gorm:"index"`
	Payload        datatypes.JSON `gorm:"type:jsonb;not null"`
	Resolved       bool           `gorm:"index;default:false"` // Flag to mark if the event has been replayed manually
	ResolvedAt     *time.Time     `gorm:"index"`
	Notes          string         `gorm:"type:text"`
}

// TableName specifies the table name for the ExhaustedEvent model, respecting the Namer.
func (ExhaustedEvent) TableName(namer schema.Namer) string {
	return namer.TableName("exhausted_events")
}
