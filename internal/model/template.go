package model

import "time"

// ResumeTemplate is gorm model for a resume layout in the template gallery.
// The HTML body is a html/template document rendered with the resume data.
type ResumeTemplate struct {
	ID          uint   `gorm:"primaryKey;autoIncrement;->" json:"id"`
	Slug        string `gorm:"type:text;uniqueIndex;not null" json:"slug"`
	Name        string `gorm:"type:text;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Premium     bool   `gorm:"not null;default:false" json:"premium"`
	HTML        string `gorm:"type:text" json:"-"`

	CreatedAt time.Time `gorm:"type:timestamp;default:CURRENT_TIMESTAMP;->" json:"created_at"`
}
