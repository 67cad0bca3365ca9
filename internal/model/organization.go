package model

import (
	"time"

	"gorm.io/gorm/schema"
)

// Organization is a business whose phone line is answered by the assistant.
type Organization struct {
	ID            string    `json:"id" gorm:"primaryKey;type:uuid"`
	Name          string    `json:"name" gorm:"column:name;not null"`
	PhoneNumber   string    `json:"phone_number" gorm:"column:phone_number;uniqueIndex"` // Dialed number, E.164
	AssistantName string    `json:"assistant_name,omitempty" gorm:"column:assistant_name"`
	Greeting      string    `json:"greeting,omitempty" gorm:"column:greeting"`
	Timezone      string    `json:"timezone,omitempty" gorm:"column:timezone"`
	CreatedAt     time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the base table name for GORM migrations, respecting the Namer.
func (Organization) TableName(namer schema.Namer) string {
	return namer.TableName("organizations")
}
