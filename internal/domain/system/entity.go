package system

import "time"

const KeyServiceRate = "service_rate"

// BusinessConfig represents business_configs, platform settings edited by operators.
type BusinessConfig struct {
	Key       string `gorm:"primaryKey"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

func (BusinessConfig) TableName() string {
	return "business_configs"
}
