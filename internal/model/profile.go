package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// EditableProfileInfo is the part of a profile the owner can edit.
// The per-category entry lists (experience, education, ...) are stored as JSON
// blobs exactly as the frontend submits them; the backend only checks they are
// well-formed arrays.
type EditableProfileInfo struct {
	FullName string  `gorm:"type:text" json:"full_name"`
	Headline string  `gorm:"type:text" json:"headline"`
	Summary  string  `gorm:"type:text" json:"summary"`
	Email    *string `gorm:"type:text" json:"email"`
	Phone    *string `gorm:"type:text" json:"phone"`
	Location *string `gorm:"type:text" json:"location"`

	Experience     datatypes.JSON `gorm:"type:jsonb" json:"experience"`
	Education      datatypes.JSON `gorm:"type:jsonb" json:"education"`
	Skills         datatypes.JSON `gorm:"type:jsonb" json:"skills"`
	Projects       datatypes.JSON `gorm:"type:jsonb" json:"projects"`
	Certifications datatypes.JSON `gorm:"type:jsonb" json:"certifications"`
	Languages      datatypes.JSON `gorm:"type:jsonb" json:"languages"`
	Volunteer      datatypes.JSON `gorm:"type:jsonb" json:"volunteer"`
}

// Profile is gorm model for an applicant profile, one row per user,
// mutated wholesale via upsert keyed on user_id.
type Profile struct {
	UserID uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	User   User      `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`

	EditableProfileInfo

	Completeness int       `gorm:"not null;default:0" json:"completeness"`
	UpdatedAt    time.Time `gorm:"type:timestamp;autoUpdateTime" json:"updated_at"`
}

// Section weights for the completeness score. The total is 100.
var completenessWeights = []struct {
	weight  int
	present func(e *EditableProfileInfo) bool
}{
	{15, func(e *EditableProfileInfo) bool { return e.FullName != "" }},
	{10, func(e *EditableProfileInfo) bool { return e.Headline != "" }},
	{15, func(e *EditableProfileInfo) bool { return e.Summary != "" }},
	{10, func(e *EditableProfileInfo) bool { return e.Email != nil && *e.Email != "" }},
	{5, func(e *EditableProfileInfo) bool { return e.Phone != nil && *e.Phone != "" }},
	{5, func(e *EditableProfileInfo) bool { return e.Location != nil && *e.Location != "" }},
	{15, func(e *EditableProfileInfo) bool { return jsonArrayFilled(e.Experience) }},
	{10, func(e *EditableProfileInfo) bool { return jsonArrayFilled(e.Education) }},
	{10, func(e *EditableProfileInfo) bool { return jsonArrayFilled(e.Skills) }},
	{5, func(e *EditableProfileInfo) bool { return jsonArrayFilled(e.Projects) }},
}

// CompletenessScore computes the weighted completeness percentage of the profile.
// Empty or malformed section blobs score zero for that section.
func (e *EditableProfileInfo) CompletenessScore() int {
	score := 0
	for _, w := range completenessWeights {
		if w.present(e) {
			score += w.weight
		}
	}
	if score > 100 {
		score = 100
	}
	return score
}

func jsonArrayFilled(blob datatypes.JSON) bool {
	if len(blob) == 0 {
		return false
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(blob, &entries); err != nil {
		return false
	}
	return len(entries) > 0
}
