package ats

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ResumeForge-backend/internal/model"
	"ResumeForge-backend/internal/utilities"
)

type stageInfo struct {
	Name  string `json:"name" binding:"required"`
	Color string `json:"color"`
}

type editStageInfo struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type applyInfo struct {
	CandidateName  string `json:"candidate_name" binding:"required"`
	CandidateEmail string `json:"candidate_email" binding:"required,email"`
	Note           string `json:"note"`
	ResumeFileID   *int   `json:"resume_file_id"`
}

type moveStageInfo struct {
	// null moves the application back to the unassigned column
	StageID *uint `json:"stage_id"`
}

// stageBucket is one kanban column in the grouped applications view.
type stageBucket struct {
	StageID      *uint                  `json:"stage_id"`
	Name         string                 `json:"name"`
	Color        string                 `json:"color"`
	StageOrder   int                    `json:"stage_order"`
	Applications []model.JobApplication `json:"applications"`
}

// fetchOwnedStage loads the stage in the id param and checks its job belongs
// to the authenticated recruiter. Writes the error response itself.
func (ac *ATSController) fetchOwnedStage(c *gin.Context) (model.PipelineStage, bool) {
	var stage model.PipelineStage

	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return stage, false
	}

	id, ok := uintParam(c, "id")
	if !ok {
		return stage, false
	}

	if err := ac.DB.First(&stage, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{
				Error: "Stage not found",
			})
			return stage, false
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve stage: %s", err.Error()),
		})
		return stage, false
	}

	var job model.Job
	if err := ac.DB.First(&job, stage.JobID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve job: %s", err.Error()),
		})
		return stage, false
	}
	if job.RecruiterID != user.ID {
		c.JSON(http.StatusForbidden, utilities.ErrorResponse{
			Error: "You don't have permission to manage this job",
		})
		return stage, false
	}

	return stage, true
}

// CreateStageHandler appends a new stage to the job's pipeline. The new stage
// gets the highest order so it lands at the end of the board.
// @Summary Add a pipeline stage to a job
// @Tags ATS
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path int true "Job ID"
// @Param Stage body stageInfo true "Stage name and color"
// @Success 201 {object} model.PipelineStage "Created stage"
// @Failure 400 {object} utilities.ErrorResponse "Missing stage name"
// @Failure 403 {object} utilities.ErrorResponse "Not the owner"
// @Failure 404 {object} utilities.ErrorResponse "Job not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /ats/job/{id}/stage [post]
func (ac *ATSController) CreateStageHandler(c *gin.Context) {
	job, ok := ac.fetchOwnedJob(c)
	if !ok {
		return
	}

	var info stageInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Stage name must be provided",
		})
		return
	}

	stage := model.PipelineStage{
		JobID: job.ID,
		Name:  info.Name,
		Color: info.Color,
	}

	err := ac.DB.Transaction(func(tx *gorm.DB) error {
		var maxOrder int
		if err := tx.Model(&model.PipelineStage{}).
			Where("job_id = ?", job.ID).
			Select("COALESCE(MAX(stage_order), 0)").
			Scan(&maxOrder).Error; err != nil {
			return err
		}
		stage.StageOrder = maxOrder + 1
		return tx.Create(&stage).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to create stage: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusCreated, stage)
}

// UpdateStageHandler renames or recolors a stage.
// @Summary Rename or recolor a pipeline stage
// @Tags ATS
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path int true "Stage ID"
// @Param Stage body editStageInfo true "Fields to change"
// @Success 200 {object} model.PipelineStage "Updated stage"
// @Failure 400 {object} utilities.ErrorResponse "Invalid body"
// @Failure 403 {object} utilities.ErrorResponse "Not the owner"
// @Failure 404 {object} utilities.ErrorResponse "Stage not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /ats/stage/{id} [patch]
func (ac *ATSController) UpdateStageHandler(c *gin.Context) {
	stage, ok := ac.fetchOwnedStage(c)
	if !ok {
		return
	}

	var info editStageInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid request body: %s", err.Error()),
		})
		return
	}

	if info.Name != "" {
		stage.Name = info.Name
	}
	if info.Color != "" {
		stage.Color = info.Color
	}

	if err := ac.DB.Save(&stage).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to update stage: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, stage)
}

// DeleteStageHandler removes a stage. Applications sitting in it fall back to
// the unassigned column.
// @Summary Delete a pipeline stage
// @Description Applications in the deleted stage move to the unassigned column
// @Tags ATS
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path int true "Stage ID"
// @Success 200 {object} utilities.MessageResponse "Stage deleted"
// @Failure 403 {object} utilities.ErrorResponse "Not the owner"
// @Failure 404 {object} utilities.ErrorResponse "Stage not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /ats/stage/{id} [delete]
func (ac *ATSController) DeleteStageHandler(c *gin.Context) {
	stage, ok := ac.fetchOwnedStage(c)
	if !ok {
		return
	}

	err := ac.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.JobApplication{}).
			Where("current_stage_id = ?", stage.ID).
			Update("current_stage_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&stage).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to delete stage: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, utilities.MessageResponse{Message: "Stage deleted"})
}

// ApplyHandler records a candidate application on an open job.
// @Summary Apply to a job
// @Tags ATS
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path int true "Job ID"
// @Param Application body applyInfo true "Candidate details"
// @Success 201 {object} model.JobApplication "Recorded application, initially unassigned"
// @Failure 400 {object} utilities.ErrorResponse "Missing candidate details or job closed"
// @Failure 404 {object} utilities.ErrorResponse "Job not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /jobs/{id}/apply [post]
func (ac *ATSController) ApplyHandler(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var job model.Job
	if err := ac.DB.First(&job, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{
				Error: "Job not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve job: %s", err.Error()),
		})
		return
	}

	if !job.Open {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Job is not accepting applications",
		})
		return
	}

	var info applyInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Candidate name and a valid candidate email must be provided",
		})
		return
	}

	application := model.JobApplication{
		JobID:          job.ID,
		CandidateName:  info.CandidateName,
		CandidateEmail: info.CandidateEmail,
		Note:           info.Note,
		ResumeFileID:   info.ResumeFileID,
	}
	if err := ac.DB.Create(&application).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to record application: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusCreated, application)
}

// ApplicationsGroupedHandler returns the job's applications grouped into
// kanban columns: the unassigned bucket first, then stages in board order.
// @Summary Get a job's applications grouped by pipeline stage
// @Description The first bucket is the virtual "New Applications" column holding unassigned applications
// @Tags ATS
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path int true "Job ID"
// @Success 200 {array} stageBucket "Ordered columns with their applications"
// @Failure 403 {object} utilities.ErrorResponse "Not the owner"
// @Failure 404 {object} utilities.ErrorResponse "Job not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /ats/job/{id}/applications [get]
func (ac *ATSController) ApplicationsGroupedHandler(c *gin.Context) {
	job, ok := ac.fetchOwnedJob(c)
	if !ok {
		return
	}

	var applications []model.JobApplication
	if err := ac.DB.Where("job_id = ?", job.ID).Order("applied_at ASC, id ASC").Find(&applications).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to list applications: %s", err.Error()),
		})
		return
	}

	byStage := make(map[uint][]model.JobApplication)
	var unassigned []model.JobApplication
	for _, app := range applications {
		if app.CurrentStageID == nil {
			unassigned = append(unassigned, app)
			continue
		}
		byStage[*app.CurrentStageID] = append(byStage[*app.CurrentStageID], app)
	}

	buckets := make([]stageBucket, 0, len(job.Stages)+1)
	buckets = append(buckets, stageBucket{
		StageID:      nil,
		Name:         "New Applications",
		StageOrder:   0,
		Applications: emptyIfNil(unassigned),
	})
	for _, stage := range job.Stages {
		stageID := stage.ID
		buckets = append(buckets, stageBucket{
			StageID:      &stageID,
			Name:         stage.Name,
			Color:        stage.Color,
			StageOrder:   stage.StageOrder,
			Applications: emptyIfNil(byStage[stage.ID]),
		})
	}

	c.JSON(http.StatusOK, buckets)
}

func emptyIfNil(apps []model.JobApplication) []model.JobApplication {
	if apps == nil {
		return []model.JobApplication{}
	}
	return apps
}

// MoveStageHandler moves an application to another pipeline stage, or back to
// the unassigned column when stage_id is null. The target stage must belong
// to the application's job.
// @Summary Move an application to a pipeline stage
// @Description stage_id null moves the application back to the unassigned column
// @Tags ATS
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path int true "Application ID"
// @Param Move body moveStageInfo true "Target stage"
// @Success 200 {object} model.JobApplication "Application after the move"
// @Failure 400 {object} utilities.ErrorResponse "Stage belongs to another job or invalid body"
// @Failure 403 {object} utilities.ErrorResponse "Not the owner"
// @Failure 404 {object} utilities.ErrorResponse "Application not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /ats/application/{id}/stage [patch]
func (ac *ATSController) MoveStageHandler(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var application model.JobApplication
	if err := ac.DB.Preload("Job").First(&application, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{
				Error: "Application not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve application: %s", err.Error()),
		})
		return
	}

	if application.Job.RecruiterID != user.ID {
		c.JSON(http.StatusForbidden, utilities.ErrorResponse{
			Error: "You don't have permission to manage this job",
		})
		return
	}

	var info moveStageInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid request body: %s", err.Error()),
		})
		return
	}

	if info.StageID != nil {
		var stage model.PipelineStage
		if err := ac.DB.First(&stage, *info.StageID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
					Error: "Stage not found",
				})
				return
			}
			c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
				Error: fmt.Sprintf("Failed to retrieve stage: %s", err.Error()),
			})
			return
		}
		if stage.JobID != application.JobID {
			c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
				Error: "Stage belongs to a different job",
			})
			return
		}
	}

	if err := ac.DB.Model(&application).Update("current_stage_id", info.StageID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to move application: %s", err.Error()),
		})
		return
	}

	application.CurrentStageID = info.StageID
	c.JSON(http.StatusOK, application)
}
