package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Resume is gorm model for a saved resume. Each save is an independent row;
// there is no versioning beyond the timestamps.
type Resume struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index;<-:create" json:"user_id"`
	User   User      `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`

	TemplateID uint           `gorm:"not null" json:"template_id"`
	Template   ResumeTemplate `gorm:"foreignKey:TemplateID;references:ID" json:"-"`

	Title string         `gorm:"type:text" json:"title"`
	Data  datatypes.JSON `gorm:"type:jsonb" json:"resume_data"`

	CreatedAt time.Time `gorm:"type:timestamp;default:CURRENT_TIMESTAMP;->" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamp;autoUpdateTime" json:"updated_at"`
}
