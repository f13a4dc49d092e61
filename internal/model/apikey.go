package model

import (
	"strings"
	"time"
)

// AIAPIKey stores a third-party AI provider credential. At most one row per
// provider should be primary and one fallback at a time; the key manager
// maintains that invariant inside a transaction when flags are reassigned.
type AIAPIKey struct {
	ID       uint   `gorm:"primaryKey;autoIncrement;->" json:"id"`
	Provider string `gorm:"type:varchar(64);not null;index" json:"provider"`
	Key      string `gorm:"type:text;not null" json:"-"`

	IsActive   bool `gorm:"not null;default:true" json:"is_active"`
	IsPrimary  bool `gorm:"not null;default:false" json:"is_primary"`
	IsFallback bool `gorm:"not null;default:false" json:"is_fallback"`

	UsageCount int64      `gorm:"not null;default:0" json:"usage_count"`
	LastUsed   *time.Time `gorm:"type:timestamp" json:"last_used"`

	CreatedAt time.Time `gorm:"type:timestamp;default:CURRENT_TIMESTAMP;->" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamp;autoUpdateTime" json:"updated_at"`
}

// Masked returns the key with everything but the last four characters hidden,
// for admin listings.
func (k *AIAPIKey) Masked() string {
	if len(k.Key) <= 4 {
		return strings.Repeat("*", len(k.Key))
	}
	return strings.Repeat("*", len(k.Key)-4) + k.Key[len(k.Key)-4:]
}
