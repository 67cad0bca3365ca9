package model

import (
	"time"

	"gorm.io/gorm/schema"
)

// RecoveryMethodAIAnswered records that the assistant picked up a call a human would have missed.
const RecoveryMethodAIAnswered = "ai_answered"

// Attribution credits a call outcome to the channel that recovered it.
type Attribution struct {
	ID             string    `json:"id" gorm:"primaryKey;type:uuid"`
	CallID         string    `json:"call_id" gorm:"column:call_id;index;not null"`
	OrganizationID string    `json:"organization_id" gorm:"column:organization_id;index;not null"`
	CustomerID     *string   `json:"customer_id,omitempty" gorm:"column:customer_id"`
	RecoveryMethod string    `json:"recovery_method" gorm:"column:recovery_method;type:varchar(32)"`
	ResponseTimeMs *int64    `json:"response_time_ms,omitempty" gorm:"column:response_time_ms"`
	CreatedAt      time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

// TableName specifies the base table name for GORM migrations, respecting the Namer.
func (Attribution) TableName(namer schema.Namer) string {
	return namer.TableName("attributions")
}
