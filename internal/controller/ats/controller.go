// Package ats provides HTTP handlers for recruiter job postings, pipeline
// stages and candidate applications.
package ats

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ResumeForge-backend/internal/database"
	"ResumeForge-backend/internal/model"
	"ResumeForge-backend/internal/utilities"
)

// ATSController handles job, stage and application endpoints
type ATSController struct {
	DB *database.DBinstanceStruct
}

// NewATSController creates a new instance of ATSController
func NewATSController(db *database.DBinstanceStruct) *ATSController {
	return &ATSController{
		DB: db,
	}
}

func uintParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid %s", name),
		})
		return 0, false
	}
	return uint(id), true
}

// fetchOwnedJob loads the job in the id param and checks it belongs to the
// authenticated recruiter. Writes the error response itself.
func (ac *ATSController) fetchOwnedJob(c *gin.Context) (model.Job, bool) {
	var job model.Job

	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return job, false
	}

	id, ok := uintParam(c, "id")
	if !ok {
		return job, false
	}

	if err := ac.DB.Preload("Stages", func(db *gorm.DB) *gorm.DB {
		return db.Order("stage_order ASC")
	}).First(&job, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{
				Error: "Job not found",
			})
			return job, false
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve job: %s", err.Error()),
		})
		return job, false
	}

	if job.RecruiterID != user.ID {
		c.JSON(http.StatusForbidden, utilities.ErrorResponse{
			Error: "You don't have permission to manage this job",
		})
		return job, false
	}

	return job, true
}

// CreateJobHandler creates a job posting and seeds its default pipeline stages.
// @Summary Create a job posting
// @Description Only recruiters have access to this endpoint. The default pipeline stages are created with the job.
// @Tags ATS
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param Job body model.EditableJobInfo true "Job fields"
// @Success 201 {object} model.Job "Created job with its stages"
// @Failure 400 {object} utilities.ErrorResponse "Invalid request body"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not a recruiter"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /ats/job [post]
func (ac *ATSController) CreateJobHandler(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	job := model.Job{}
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&job.EditableJobInfo); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid request body: %s", err.Error()),
		})
		return
	}
	if job.Title == "" {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Title must be provided",
		})
		return
	}

	job.RecruiterID = user.ID

	err = ac.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&job).Error; err != nil {
			return err
		}
		stages := model.DefaultStages(job.ID)
		if err := tx.Create(&stages).Error; err != nil {
			return err
		}
		job.Stages = stages
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprint("Failed to create job: ", err),
		})
		return
	}

	c.JSON(http.StatusCreated, job)
}

// ListOpenJobsHandler returns open job postings for applicants to browse.
// @Summary List open job postings
// @Tags ATS
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param search query string false "Search from job title with substring matching and case insensitive"
// @Param tag query string false "Search if tags field contain tag param, no substring matching and case insensitive"
// @Success 200 {array} model.Job "Open jobs"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /jobs [get]
func (ac *ATSController) ListOpenJobsHandler(c *gin.Context) {
	query := ac.DB.Where("open = ?", true).Order("post_time DESC")

	if search := c.Query("search"); search != "" {
		query = query.Where("title ILIKE ?", "%"+search+"%")
	}
	if tag := c.Query("tag"); tag != "" {
		query = query.Where("? ILIKE ANY (tags)", tag)
	}

	var jobs []model.Job
	if err := query.Find(&jobs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to list jobs: %s", err.Error()),
		})
		return
	}
	c.JSON(http.StatusOK, jobs)
}

// ListMyJobsHandler returns the authenticated recruiter's job postings.
// @Summary List the authenticated recruiter's jobs
// @Tags ATS
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {array} model.Job "Jobs with their stages"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /ats/job [get]
func (ac *ATSController) ListMyJobsHandler(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	var jobs []model.Job
	err = ac.DB.Preload("Stages", func(db *gorm.DB) *gorm.DB {
		return db.Order("stage_order ASC")
	}).Where("recruiter_id = ?", user.ID).Order("post_time DESC").Find(&jobs).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to list jobs: %s", err.Error()),
		})
		return
	}
	c.JSON(http.StatusOK, jobs)
}

// UpdateJobHandler edits the editable fields of a job posting.
// @Summary Update a job posting
// @Description Empty fields in the body are left unchanged
// @Tags ATS
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path int true "Job ID"
// @Param Job body model.EditableJobInfo true "Fields to change"
// @Success 200 {object} model.Job "Updated job"
// @Failure 400 {object} utilities.ErrorResponse "Invalid request body"
// @Failure 403 {object} utilities.ErrorResponse "Not the owner"
// @Failure 404 {object} utilities.ErrorResponse "Job not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /ats/job/{id} [patch]
func (ac *ATSController) UpdateJobHandler(c *gin.Context) {
	job, ok := ac.fetchOwnedJob(c)
	if !ok {
		return
	}

	var info model.EditableJobInfo
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid request body: %s", err.Error()),
		})
		return
	}

	utilities.MergeNonEmpty(&job.EditableJobInfo, &info)

	if err := ac.DB.Omit("Stages", "Applications").Save(&job).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to update job: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, job)
}

type openInfo struct {
	Open *bool `json:"open" binding:"required"`
}

// SetJobOpenHandler opens or closes a job for new applications.
// @Summary Open or close a job posting
// @Tags ATS
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path int true "Job ID"
// @Param Open body openInfo true "Desired open state"
// @Success 200 {object} model.Job "Updated job"
// @Failure 400 {object} utilities.ErrorResponse "Invalid body"
// @Failure 403 {object} utilities.ErrorResponse "Not the owner"
// @Failure 404 {object} utilities.ErrorResponse "Job not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /ats/job/{id}/open [patch]
func (ac *ATSController) SetJobOpenHandler(c *gin.Context) {
	job, ok := ac.fetchOwnedJob(c)
	if !ok {
		return
	}

	var info openInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Field 'open' must be provided",
		})
		return
	}

	if err := ac.DB.Model(&job).Update("open", *info.Open).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to update job: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, job)
}

// DeleteJobHandler removes a job with its stages and applications.
// @Summary Delete a job posting
// @Tags ATS
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path int true "Job ID"
// @Success 200 {object} utilities.MessageResponse "Job deleted"
// @Failure 403 {object} utilities.ErrorResponse "Not the owner"
// @Failure 404 {object} utilities.ErrorResponse "Job not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /ats/job/{id} [delete]
func (ac *ATSController) DeleteJobHandler(c *gin.Context) {
	job, ok := ac.fetchOwnedJob(c)
	if !ok {
		return
	}

	if err := ac.DB.Select("Stages", "Applications").Delete(&job).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to delete job: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, utilities.MessageResponse{Message: "Job deleted"})
}
