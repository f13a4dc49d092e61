// Package resume provides HTTP handlers for resume documents, their
// templates and rendered exports.
package resume

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"ResumeForge-backend/internal/database"
	"ResumeForge-backend/internal/model"
	"ResumeForge-backend/internal/payment"
	"ResumeForge-backend/internal/pdf"
	"ResumeForge-backend/internal/utilities"
)

// Renderer turns a rendered HTML document into PDF bytes.
type Renderer interface {
	RenderHTMLToPDF(ctx context.Context, html string) ([]byte, error)
}

// ResumeController handles resume related endpoints
type ResumeController struct {
	DB       *database.DBinstanceStruct
	Renderer Renderer
}

// NewResumeController creates a new instance of ResumeController
func NewResumeController(db *database.DBinstanceStruct) *ResumeController {
	return &ResumeController{
		DB:       db,
		Renderer: pdf.NewChromedpRenderer(),
	}
}

type resumeInfo struct {
	Title      string          `json:"title" binding:"required"`
	TemplateID uint            `json:"template_id"`
	ResumeData json.RawMessage `json:"resume_data" binding:"required"`
}

type editResumeInfo struct {
	Title      *string         `json:"title"`
	TemplateID *uint           `json:"template_id"`
	ResumeData json.RawMessage `json:"resume_data"`
}

// ListTemplatesHandler returns the template gallery. Template HTML stays on
// the server.
// @Summary List available resume templates
// @Tags Resume
// @Produce json
// @Success 200 {array} model.ResumeTemplate "Template gallery"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /templates [get]
func (rc *ResumeController) ListTemplatesHandler(c *gin.Context) {
	var templates []model.ResumeTemplate
	if err := rc.DB.Order("id ASC").Find(&templates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to list templates: %s", err.Error()),
		})
		return
	}
	c.JSON(http.StatusOK, templates)
}

// GetTemplateHandler returns a single gallery entry looked up by slug.
// @Summary Get a resume template by slug
// @Tags Resume
// @Produce json
// @Param slug path string true "Template slug"
// @Success 200 {object} model.ResumeTemplate "Template"
// @Failure 404 {object} utilities.ErrorResponse "Unknown template slug"
// @Router /templates/{slug} [get]
func (rc *ResumeController) GetTemplateHandler(c *gin.Context) {
	var tmpl model.ResumeTemplate
	err := rc.DB.Where("slug = ?", c.Param("slug")).First(&tmpl).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Template not found"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve template: %s", err.Error()),
		})
		return
	}
	c.JSON(http.StatusOK, tmpl)
}

// CreateResumeHandler saves a new resume document for the authenticated user.
// @Summary Create a resume
// @Description resume_data must satisfy the resume document schema
// @Tags Resume
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param Resume body resumeInfo true "Title, template and resume document"
// @Success 201 {object} model.Resume "Created resume"
// @Failure 400 {object} utilities.ErrorResponse "Missing title, unknown template or invalid resume_data"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /resume [post]
func (rc *ResumeController) CreateResumeHandler(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	var info resumeInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Title and resume_data must be provided",
		})
		return
	}

	if err := ValidateResumeData(info.ResumeData); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	template, ok := rc.resolveTemplate(c, info.TemplateID)
	if !ok {
		return
	}

	resume := model.Resume{
		UserID:     user.ID,
		TemplateID: template.ID,
		Title:      info.Title,
		Data:       []byte(info.ResumeData),
	}
	if err := rc.DB.Create(&resume).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to create resume: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusCreated, resume)
}

// resolveTemplate loads the requested template, defaulting to the first
// gallery entry when no id is given. Writes the error response itself.
func (rc *ResumeController) resolveTemplate(c *gin.Context, templateID uint) (model.ResumeTemplate, bool) {
	var template model.ResumeTemplate
	query := rc.DB.Order("id ASC")
	if templateID != 0 {
		query = query.Where("id = ?", templateID)
	}
	if err := query.First(&template).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
				Error: "Template not found",
			})
			return template, false
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to load template: %s", err.Error()),
		})
		return template, false
	}
	return template, true
}

// ListMyResumesHandler returns the authenticated user's resumes.
// @Summary List the authenticated user's resumes
// @Tags Resume
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {array} model.Resume "Resumes"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /resume [get]
func (rc *ResumeController) ListMyResumesHandler(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	var resumes []model.Resume
	if err := rc.DB.Where("user_id = ?", user.ID).Order("updated_at DESC").Find(&resumes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to list resumes: %s", err.Error()),
		})
		return
	}
	c.JSON(http.StatusOK, resumes)
}

// fetchOwnedResume loads the resume in the id param and checks it belongs to
// the authenticated user. Writes the error response itself.
func (rc *ResumeController) fetchOwnedResume(c *gin.Context) (model.Resume, bool) {
	var resume model.Resume

	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return resume, false
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Invalid resume id",
		})
		return resume, false
	}

	if err := rc.DB.Preload("Template").Where("id = ?", id).First(&resume).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{
				Error: "Resume not found",
			})
			return resume, false
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve resume: %s", err.Error()),
		})
		return resume, false
	}

	if resume.UserID != user.ID {
		c.JSON(http.StatusForbidden, utilities.ErrorResponse{
			Error: "You don't have permission to access this resume",
		})
		return resume, false
	}

	return resume, true
}

// GetResumeHandler returns one of the authenticated user's resumes.
// @Summary Get a resume by id
// @Tags Resume
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path string true "Resume ID"
// @Success 200 {object} model.Resume "Resume"
// @Failure 400 {object} utilities.ErrorResponse "Invalid resume id"
// @Failure 403 {object} utilities.ErrorResponse "Not the owner"
// @Failure 404 {object} utilities.ErrorResponse "Resume not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /resume/{id} [get]
func (rc *ResumeController) GetResumeHandler(c *gin.Context) {
	resume, ok := rc.fetchOwnedResume(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, resume)
}

// UpdateResumeHandler edits a resume's title, template or document.
// @Summary Update a resume
// @Description Only provided fields change; resume_data is revalidated when present
// @Tags Resume
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path string true "Resume ID"
// @Param Resume body editResumeInfo true "Fields to change"
// @Success 200 {object} model.Resume "Updated resume"
// @Failure 400 {object} utilities.ErrorResponse "Invalid body, unknown template or invalid resume_data"
// @Failure 403 {object} utilities.ErrorResponse "Not the owner"
// @Failure 404 {object} utilities.ErrorResponse "Resume not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /resume/{id} [patch]
func (rc *ResumeController) UpdateResumeHandler(c *gin.Context) {
	resume, ok := rc.fetchOwnedResume(c)
	if !ok {
		return
	}

	var info editResumeInfo
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid request body: %s", err.Error()),
		})
		return
	}

	if info.Title != nil {
		if *info.Title == "" {
			c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
				Error: "Title must not be empty",
			})
			return
		}
		resume.Title = *info.Title
	}

	if info.TemplateID != nil {
		template, ok := rc.resolveTemplate(c, *info.TemplateID)
		if !ok {
			return
		}
		resume.TemplateID = template.ID
		resume.Template = template
	}

	if info.ResumeData != nil {
		if err := ValidateResumeData(info.ResumeData); err != nil {
			c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: err.Error()})
			return
		}
		resume.Data = []byte(info.ResumeData)
	}

	if err := rc.DB.Omit("Template").Save(&resume).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to update resume: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, resume)
}

// DeleteResumeHandler removes a resume.
// @Summary Delete a resume
// @Tags Resume
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path string true "Resume ID"
// @Success 200 {object} utilities.MessageResponse "Resume deleted"
// @Failure 403 {object} utilities.ErrorResponse "Not the owner"
// @Failure 404 {object} utilities.ErrorResponse "Resume not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /resume/{id} [delete]
func (rc *ResumeController) DeleteResumeHandler(c *gin.Context) {
	resume, ok := rc.fetchOwnedResume(c)
	if !ok {
		return
	}

	if err := rc.DB.Delete(&resume).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to delete resume: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, utilities.MessageResponse{Message: "Resume deleted"})
}

// PreviewResumeHandler renders the resume to HTML for the in-app preview.
// @Summary Render a resume to HTML
// @Tags Resume
// @Produce html
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path string true "Resume ID"
// @Success 200 {string} string "Rendered HTML document"
// @Failure 403 {object} utilities.ErrorResponse "Not the owner"
// @Failure 404 {object} utilities.ErrorResponse "Resume not found"
// @Failure 500 {object} utilities.ErrorResponse "Render failure"
// @Router /resume/{id}/preview [get]
func (rc *ResumeController) PreviewResumeHandler(c *gin.Context) {
	resume, ok := rc.fetchOwnedResume(c)
	if !ok {
		return
	}

	html, err := renderResumeHTML(resume.Template, resume.Data)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to render resume: %s", err.Error()),
		})
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// ExportResumeHandler renders the resume to a downloadable PDF. Premium
// templates are reserved for premium subscribers.
// @Summary Export a resume as PDF
// @Description Exports using a premium template require an active premium subscription
// @Tags Resume
// @Produce application/pdf
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path string true "Resume ID"
// @Success 200 {string} binary "PDF document"
// @Failure 402 {object} utilities.ErrorResponse "Premium template without premium subscription"
// @Failure 403 {object} utilities.ErrorResponse "Not the owner"
// @Failure 404 {object} utilities.ErrorResponse "Resume not found"
// @Failure 500 {object} utilities.ErrorResponse "Render failure"
// @Router /resume/{id}/export [get]
func (rc *ResumeController) ExportResumeHandler(c *gin.Context) {
	resume, ok := rc.fetchOwnedResume(c)
	if !ok {
		return
	}

	if resume.Template.Premium {
		premium, err := payment.HasPremium(rc.DB, resume.UserID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
				Error: fmt.Sprintf("Failed to check subscription: %s", err.Error()),
			})
			return
		}
		if !premium {
			c.JSON(http.StatusPaymentRequired, utilities.ErrorResponse{
				Error: "This template requires a premium subscription",
			})
			return
		}
	}

	html, err := renderResumeHTML(resume.Template, resume.Data)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to render resume: %s", err.Error()),
		})
		return
	}

	pdfBytes, err := rc.Renderer.RenderHTMLToPDF(c.Request.Context(), html)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to generate PDF: %s", err.Error()),
		})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", resume.Title+".pdf"))
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}
