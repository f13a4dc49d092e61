// Package admin provides HTTP handlers restricted to administrator accounts.
package admin

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ResumeForge-backend/internal/database"
	"ResumeForge-backend/internal/model"
	"ResumeForge-backend/internal/utilities"
)

// AdminController handles administrative endpoints
type AdminController struct {
	DB *database.DBinstanceStruct
}

// NewAdminController creates a new instance of AdminController
func NewAdminController(db *database.DBinstanceStruct) *AdminController {
	return &AdminController{
		DB: db,
	}
}

// ListUsersHandler function query the users from the database based on given query "role"
// @Summary Get users based on given query
// @Description Only admin can access this endpoints
// @Description If no query given, the server will return all users
// @Tags Admin
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param role query string false "Only applicant, recruiter, or admin with case insensitive" example(applicant recruiter)
// @Success 200 {array} model.User
// @Failure 400 {object} utilities.ErrorResponse "Invalid authorization header"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Do not logged in as admin"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /admin/users [get]
func (ac *AdminController) ListUsersHandler(c *gin.Context) {
	rawRole := c.Query("role")

	result := ac.DB.Order("created_at ASC")
	if rawRole != "" {
		roles := strings.Split(rawRole, " ")
		for i := range roles {
			roles[i] = strings.ToLower(roles[i])
		}
		result = result.Where("role IN ?", roles)
	}

	var users []model.User
	if err := result.Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Database error: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, users)
}

type templateInfo struct {
	Slug        string `json:"slug" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Premium     bool   `json:"premium"`
	HTML        string `json:"html" binding:"required"`
}

type editTemplateInfo struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Premium     *bool   `json:"premium"`
	HTML        *string `json:"html"`
}

// CreateTemplateHandler adds a new layout to the template gallery. The HTML
// body must parse as a html/template document.
// @Summary Create a resume template
// @Description Only admin can access this endpoints
// @Tags Admin
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param Template body templateInfo true "Slug, display name and template HTML"
// @Success 201 {object} model.ResumeTemplate "Created template"
// @Failure 400 {object} utilities.ErrorResponse "Missing fields or broken template HTML"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Do not logged in as admin"
// @Failure 409 {object} utilities.ErrorResponse "Slug already taken"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /admin/template [post]
func (ac *AdminController) CreateTemplateHandler(c *gin.Context) {
	var info templateInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Slug, name and template HTML must be provided",
		})
		return
	}

	if _, err := template.New(info.Slug).Parse(info.HTML); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Template HTML does not parse: %s", err.Error()),
		})
		return
	}

	var existing model.ResumeTemplate
	err := ac.DB.Where("slug = ?", info.Slug).First(&existing).Error
	switch {
	case err == nil:
		c.JSON(http.StatusConflict, utilities.ErrorResponse{
			Error: "Template slug already taken",
		})
		return
	case errors.Is(err, gorm.ErrRecordNotFound):
		// Do nothing
	default:
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Database error: %s", err.Error()),
		})
		return
	}

	tmpl := model.ResumeTemplate{
		Slug:        info.Slug,
		Name:        info.Name,
		Description: info.Description,
		Premium:     info.Premium,
		HTML:        info.HTML,
	}
	if err := ac.DB.Create(&tmpl).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to create template: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusCreated, tmpl)
}

// UpdateTemplateHandler edits an existing gallery template looked up by slug.
// @Summary Update a resume template
// @Description Only admin can access this endpoints
// @Tags Admin
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param slug path string true "Template slug"
// @Param Template body editTemplateInfo true "Fields to change"
// @Success 200 {object} model.ResumeTemplate "Updated template"
// @Failure 400 {object} utilities.ErrorResponse "Broken template HTML"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Do not logged in as admin"
// @Failure 404 {object} utilities.ErrorResponse "Unknown template slug"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /admin/template/{slug} [patch]
func (ac *AdminController) UpdateTemplateHandler(c *gin.Context) {
	var tmpl model.ResumeTemplate
	err := ac.DB.Where("slug = ?", c.Param("slug")).First(&tmpl).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Template not found"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Database error: %s", err.Error()),
		})
		return
	}

	var info editTemplateInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Failed to parse request body",
		})
		return
	}

	if info.HTML != nil {
		if _, err := template.New(tmpl.Slug).Parse(*info.HTML); err != nil {
			c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
				Error: fmt.Sprintf("Template HTML does not parse: %s", err.Error()),
			})
			return
		}
		tmpl.HTML = *info.HTML
	}
	if info.Name != nil {
		tmpl.Name = *info.Name
	}
	if info.Description != nil {
		tmpl.Description = *info.Description
	}
	if info.Premium != nil {
		tmpl.Premium = *info.Premium
	}

	if err := ac.DB.Save(&tmpl).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to update template: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, tmpl)
}
