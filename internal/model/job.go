package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm/schema"
)

// JobPriority distinguishes emergency work from routine requests.
type JobPriority string

const (
	JobPriorityEmergency JobPriority = "emergency"
	JobPriorityNormal    JobPriority = "normal"
)

// JobStatusLead is the status of jobs created from a phone booking.
const JobStatusLead = "lead"

// JobSourceAICall marks jobs booked by the voice assistant.
const JobSourceAICall = "ai_call"

// Job is a unit of work requested by a customer.
type Job struct {
	ID             string         `json:"id" gorm:"primaryKey;type:uuid"`
	OrganizationID string         `json:"organization_id" gorm:"column:organization_id;index;not null"`
	CustomerID     string         `json:"customer_id" gorm:"column:customer_id;index;not null"`
	CallID         *string        `json:"call_id,omitempty" gorm:"column:call_id;index"`
	Title          string         `json:"title" gorm:"column:title"`
	Description    string         `json:"description" gorm:"column:description;type:text"`
	Address        string         `json:"address,omitempty" gorm:"column:address"`
	Priority       JobPriority    `json:"priority" gorm:"column:priority;type:varchar(16)"`
	Status         string         `json:"status" gorm:"column:status;type:varchar(32)"`
	Source         string         `json:"source" gorm:"column:source;type:varchar(32)"`
	PreferredDate  *time.Time     `json:"preferred_date,omitempty" gorm:"column:preferred_date"`
	Details        datatypes.JSON `json:"details,omitempty" gorm:"column:details;type:jsonb"`
	CreatedAt      time.Time      `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time      `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the base table name for GORM migrations, respecting the Namer.
func (Job) TableName(namer schema.Namer) string {
	return namer.TableName("jobs")
}
