package model

import (
	"time"

	"gorm.io/gorm/schema"
)

// Customer is a caller known to an organization, identified by phone number.
type Customer struct {
	ID             string    `json:"id" gorm:"primaryKey;type:uuid"`
	OrganizationID string    `json:"organization_id" gorm:"column:organization_id;not null;uniqueIndex:idx_customers_org_phone"`
	Name           string    `json:"name" gorm:"column:name"`
	Phone          string    `json:"phone" gorm:"column:phone;not null;uniqueIndex:idx_customers_org_phone"`
	Address        string    `json:"address,omitempty" gorm:"column:address"`
	Source         string    `json:"source,omitempty" gorm:"column:source"`
	CreatedAt      time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the base table name for GORM migrations, respecting the Namer.
func (Customer) TableName(namer schema.Namer) string {
	return namer.TableName("customers")
}
