package model

import (
	"time"

	"github.com/google/uuid"
)

// Role constants for User.Role
var (
	// RoleApplicant is a regular user building resumes
	RoleApplicant = "applicant"
	// RoleRecruiter is an organization user that posts jobs and runs the hiring pipeline
	RoleRecruiter = "recruiter"
	// RoleAdmin manages AI keys, templates and users
	RoleAdmin = "admin"
)

// User is gorm model for the account record shared by every role
type User struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	Username       string    `gorm:"type:text;uniqueIndex" json:"username"`
	Email          *string   `gorm:"type:text" json:"email"`
	Tel            *string   `gorm:"type:text" json:"tel"`
	Password       string    `gorm:"type:text" json:"-"`
	GoogleID       string    `gorm:"type:text" json:"-"`
	Role           string    `gorm:"type:text;not null;default:'applicant'" json:"role"`
	ProfilePicture string    `gorm:"type:text" json:"profile_picture"`

	CreatedAt time.Time `gorm:"type:timestamp;default:CURRENT_TIMESTAMP;->" json:"created_at"`
}

// LoginResponse is returned by every login/register endpoint
type LoginResponse struct {
	User        User   `json:"user"`
	AccessToken string `json:"access_token"`
}
