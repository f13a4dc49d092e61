package aikey

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ResumeForge-backend/internal/database"
	"ResumeForge-backend/internal/model"
	"ResumeForge-backend/internal/utilities"
)

// KeyController handles admin endpoints for managing stored AI provider keys.
type KeyController struct {
	DB      *database.DBinstanceStruct
	Manager *Manager
}

// NewKeyController creates a new instance of KeyController
func NewKeyController(db *database.DBinstanceStruct) *KeyController {
	return &KeyController{
		DB:      db,
		Manager: NewManager(db),
	}
}

type createKeyInfo struct {
	Provider string `json:"provider" binding:"required"`
	Key      string `json:"key" binding:"required"`
}

// maskedKey is the API view of a stored key. The secret never leaves the
// server unmasked.
type maskedKey struct {
	ID         uint       `json:"id"`
	Provider   string     `json:"provider"`
	MaskedKey  string     `json:"masked_key"`
	IsActive   bool       `json:"is_active"`
	IsPrimary  bool       `json:"is_primary"`
	IsFallback bool       `json:"is_fallback"`
	UsageCount int64      `json:"usage_count"`
	LastUsed   *time.Time `json:"last_used"`
}

func maskKey(k model.AIAPIKey) maskedKey {
	return maskedKey{
		ID:         k.ID,
		Provider:   k.Provider,
		MaskedKey:  k.Masked(),
		IsActive:   k.IsActive,
		IsPrimary:  k.IsPrimary,
		IsFallback: k.IsFallback,
		UsageCount: k.UsageCount,
		LastUsed:   k.LastUsed,
	}
}

func keyIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Invalid key id",
		})
		return 0, false
	}
	return uint(id), true
}

// CreateKeyHandler stores a new provider key. New keys start active with no
// primary or fallback role.
// @Summary Store a new AI provider API key
// @Description Only admin have access to this endpoint
// @Tags AIKey
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param Key body createKeyInfo true "Provider name and secret key"
// @Success 201 {object} maskedKey "Successfully stored key"
// @Failure 400 {object} utilities.ErrorResponse "Provider or key missing"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /admin/ai-keys [post]
func (kc *KeyController) CreateKeyHandler(c *gin.Context) {
	var info createKeyInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Provider and key must be provided",
		})
		return
	}

	key := model.AIAPIKey{
		Provider: info.Provider,
		Key:      info.Key,
		IsActive: true,
	}
	if err := kc.DB.Create(&key).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to store key: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusCreated, maskKey(key))
}

// ListKeysHandler returns every stored key with the secret masked.
// @Summary List stored AI provider keys
// @Description Only admin have access to this endpoint. Secrets are masked.
// @Tags AIKey
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param provider query string false "Filter by provider name"
// @Success 200 {array} maskedKey "Stored keys"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /admin/ai-keys [get]
func (kc *KeyController) ListKeysHandler(c *gin.Context) {
	query := kc.DB.Model(&model.AIAPIKey{}).Order("id ASC")
	if provider := c.Query("provider"); provider != "" {
		query = query.Where("provider = ?", provider)
	}

	var keys []model.AIAPIKey
	if err := query.Find(&keys).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to list keys: %s", err.Error()),
		})
		return
	}

	masked := make([]maskedKey, 0, len(keys))
	for _, k := range keys {
		masked = append(masked, maskKey(k))
	}
	c.JSON(http.StatusOK, masked)
}

// SetActiveHandler activates or deactivates a key.
// @Summary Activate or deactivate a stored key
// @Description Only admin have access to this endpoint
// @Tags AIKey
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path int true "Key ID"
// @Param Active body activeInfo true "Desired active state"
// @Success 200 {object} utilities.MessageResponse "State updated"
// @Failure 400 {object} utilities.ErrorResponse "Invalid key id or body"
// @Failure 404 {object} utilities.ErrorResponse "Key not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /admin/ai-keys/{id}/active [patch]
func (kc *KeyController) SetActiveHandler(c *gin.Context) {
	id, ok := keyIDParam(c)
	if !ok {
		return
	}

	var info activeInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Field 'is_active' must be provided",
		})
		return
	}

	if err := kc.Manager.SetActive(id, *info.IsActive); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{
				Error: "Key not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to update key: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, utilities.MessageResponse{Message: "Key state updated"})
}

type activeInfo struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// SetPrimaryHandler promotes a key to be the provider's only primary.
// @Summary Mark a stored key as the provider's primary
// @Description Only admin have access to this endpoint. Any previous primary for the provider is demoted.
// @Tags AIKey
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path int true "Key ID"
// @Success 200 {object} utilities.MessageResponse "Primary updated"
// @Failure 400 {object} utilities.ErrorResponse "Invalid key id"
// @Failure 404 {object} utilities.ErrorResponse "Key not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /admin/ai-keys/{id}/primary [patch]
func (kc *KeyController) SetPrimaryHandler(c *gin.Context) {
	id, ok := keyIDParam(c)
	if !ok {
		return
	}

	if err := kc.Manager.SetPrimary(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{
				Error: "Key not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to set primary key: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, utilities.MessageResponse{Message: "Primary key updated"})
}

// SetFallbackHandler promotes a key to be the provider's only fallback.
// @Summary Mark a stored key as the provider's fallback
// @Description Only admin have access to this endpoint. Any previous fallback for the provider is demoted.
// @Tags AIKey
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path int true "Key ID"
// @Success 200 {object} utilities.MessageResponse "Fallback updated"
// @Failure 400 {object} utilities.ErrorResponse "Invalid key id"
// @Failure 404 {object} utilities.ErrorResponse "Key not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /admin/ai-keys/{id}/fallback [patch]
func (kc *KeyController) SetFallbackHandler(c *gin.Context) {
	id, ok := keyIDParam(c)
	if !ok {
		return
	}

	if err := kc.Manager.SetFallback(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{
				Error: "Key not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to set fallback key: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, utilities.MessageResponse{Message: "Fallback key updated"})
}

// DeleteKeyHandler removes a stored key permanently.
// @Summary Delete a stored AI provider key
// @Description Only admin have access to this endpoint
// @Tags AIKey
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path int true "Key ID"
// @Success 200 {object} utilities.MessageResponse "Key deleted"
// @Failure 400 {object} utilities.ErrorResponse "Invalid key id"
// @Failure 404 {object} utilities.ErrorResponse "Key not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /admin/ai-keys/{id} [delete]
func (kc *KeyController) DeleteKeyHandler(c *gin.Context) {
	id, ok := keyIDParam(c)
	if !ok {
		return
	}

	res := kc.DB.Delete(&model.AIAPIKey{}, id)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to delete key: %s", res.Error.Error()),
		})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, utilities.ErrorResponse{
			Error: "Key not found",
		})
		return
	}

	c.JSON(http.StatusOK, utilities.MessageResponse{Message: "Key deleted"})
}
