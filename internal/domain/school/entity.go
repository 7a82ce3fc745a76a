package school

import (
	"time"

	"github.com/google/uuid"
)

// School represents the schools table. Email is also the school's chat identity.
type School struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email        string    `gorm:"uniqueIndex;not null"`
	Name         string    `gorm:"not null"`
	PasswordHash string    `gorm:"not null"`
	IsActive     bool      `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (School) TableName() string {
	return "schools"
}
