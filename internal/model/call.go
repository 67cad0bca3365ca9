package model

import (
	"time"

	"gorm.io/gorm/schema"
)

// Call is the authoritative record of one inbound phone call, keyed by the
// provider's call identifier.
type Call struct {
	ID              string     `json:"id" gorm:"primaryKey;type:uuid"`
	ExternalCallID  string     `json:"external_call_id" gorm:"column:external_call_id;uniqueIndex;not null"`
	OrganizationID  string     `json:"organization_id" gorm:"column:organization_id;index;not null"`
	CustomerID      *string    `json:"customer_id,omitempty" gorm:"column:customer_id;index"`
	FromNumber      string     `json:"from_number,omitempty" gorm:"column:from_number"`
	ToNumber        string     `json:"to_number,omitempty" gorm:"column:to_number"`
	Status          CallStatus `json:"status" gorm:"column:status;type:varchar(32);not null;default:ringing"`
	Transcript      string     `json:"transcript,omitempty" gorm:"column:transcript;type:text"`
	Summary         string     `json:"summary,omitempty" gorm:"column:summary;type:text"`
	RecordingURL    string     `json:"recording_url,omitempty" gorm:"column:recording_url"`
	DurationSeconds int        `json:"duration_seconds" gorm:"column:duration_seconds;default:0"`
	AIHandled       bool       `json:"ai_handled" gorm:"column:ai_handled;default:false"`
	EndedAt         *time.Time `json:"ended_at,omitempty" gorm:"column:ended_at"`
	CreatedAt       time.Time  `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the base table name for GORM migrations, respecting the Namer.
func (Call) TableName(namer schema.Namer) string {
	return namer.TableName("calls")
}

// IsFinalized reports whether the end-of-call report has already been applied.
func (c *Call) IsFinalized() bool {
	return c.EndedAt != nil
}

// CallFinalization carries the values written to a call when its end-of-call report arrives.
type CallFinalization struct {
	Transcript      string
	Summary         string
	RecordingURL    string
	DurationSeconds int
	EndedAt         time.Time
}
