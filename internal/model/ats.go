package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// EditableJobInfo is the part of a job post that can be edited
type EditableJobInfo struct {
	Title    string         `gorm:"type:text" json:"title"`
	Desc     string         `gorm:"type:text" json:"desc"`
	Location string         `gorm:"type:text" json:"location"`
	Type     string         `gorm:"type:text" json:"type"`
	Salary   string         `gorm:"type:text" json:"salary"`
	Tags     pq.StringArray `gorm:"type:text[]" json:"tags"`
}

// Job is gorm model for a recruiter's job posting
type Job struct {
	ID          uint      `gorm:"primaryKey;autoIncrement;->" json:"id"`
	RecruiterID uuid.UUID `gorm:"type:uuid;not null;index;<-:create" json:"recruiter_id"`
	Recruiter   User      `gorm:"foreignKey:RecruiterID;references:ID" json:"-"`

	EditableJobInfo

	Open     bool      `gorm:"not null;default:true" json:"open"`
	PostTime time.Time `gorm:"type:timestamp;default:CURRENT_TIMESTAMP;->" json:"post_time"`

	Stages       []PipelineStage  `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE" json:"stages"`
	Applications []JobApplication `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE" json:"-"`
}

// PipelineStage is an ordered named bucket applications move through.
// stage_order is assigned max+1 on insert and never reused.
type PipelineStage struct {
	ID    uint `gorm:"primaryKey;autoIncrement;->" json:"id"`
	JobID uint `gorm:"not null;index" json:"job_id"`

	Name       string `gorm:"type:text;not null" json:"name"`
	StageOrder int    `gorm:"not null;default:0" json:"stage_order"`
	Color      string `gorm:"type:text" json:"color"`
}

// DefaultStages returns the stages seeded when a job is created.
func DefaultStages(jobID uint) []PipelineStage {
	return []PipelineStage{
		{JobID: jobID, Name: "Phone Screen", StageOrder: 1, Color: "#3b82f6"},
		{JobID: jobID, Name: "Interview", StageOrder: 2, Color: "#8b5cf6"},
		{JobID: jobID, Name: "Offer", StageOrder: 3, Color: "#f59e0b"},
		{JobID: jobID, Name: "Hired", StageOrder: 4, Color: "#22c55e"},
	}
}

// JobApplication is gorm model for a candidate applying to a job.
// CurrentStageID null means the application sits in the virtual
// "New Applications" column.
type JobApplication struct {
	ID    uint `gorm:"primaryKey;autoIncrement;->" json:"id"`
	JobID uint `gorm:"not null;index;<-:create" json:"job_id"`
	Job   Job  `gorm:"foreignKey:JobID;references:ID" json:"-"`

	CandidateName  string `gorm:"type:text;not null" json:"candidate_name"`
	CandidateEmail string `gorm:"type:text;not null" json:"candidate_email"`
	Note           string `gorm:"type:text" json:"note"`

	ResumeFileID *int  `json:"resume_file_id"`
	ResumeFile   *File `gorm:"foreignKey:ResumeFileID;references:ID;constraint:OnDelete:SET NULL" json:"-"`

	CurrentStageID *uint          `json:"current_stage_id"`
	CurrentStage   *PipelineStage `gorm:"foreignKey:CurrentStageID;references:ID;constraint:OnDelete:SET NULL" json:"-"`

	AppliedAt time.Time `gorm:"type:timestamp;default:CURRENT_TIMESTAMP;->" json:"applied_at"`
}
