package model

import (
	"time"

	"github.com/google/uuid"
)

// UsageLog is an append-only usage record. The write path is owned by
// the analytics collaborator; the engine only defines the schema.
type UsageLog struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID string    `gorm:"type:varchar(50);not null;index"`

	UsageType string  `gorm:"type:varchar(50);not null;index"`
	Amount    int     `gorm:"default:1"`
	ExtraData JSONMap `gorm:"type:jsonb"`

	Timestamp time.Time `gorm:"not null;index"`
}

func (UsageLog) TableName() string {
	return "usage_logs"
}
