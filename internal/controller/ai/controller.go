package ai

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ResumeForge-backend/internal/aikey"
	"ResumeForge-backend/internal/database"
	"ResumeForge-backend/internal/model"
	"ResumeForge-backend/internal/utilities"
)

// geminiProvider is the provider name stored keys are registered under.
const geminiProvider = "gemini"

// AIController handles AI suggestion endpoints
type AIController struct {
	DB      *database.DBinstanceStruct
	Manager *aikey.Manager
	Client  *GeminiClient
}

// NewAIController creates a new instance of AIController
func NewAIController(db *database.DBinstanceStruct) *AIController {
	return &AIController{
		DB:      db,
		Manager: aikey.NewManager(db),
		Client:  NewGeminiClient(),
	}
}

type suggestInfo struct {
	Prompt string `json:"prompt" binding:"required"`
}

type suggestResponse struct {
	Suggestion string `json:"suggestion"`
}

// keyCandidate is one key to try. stored is nil for the environment key;
// counted marks keys whose usage Resolve already recorded.
type keyCandidate struct {
	value   string
	stored  *model.AIAPIKey
	counted bool
}

// candidateKeys returns the keys to try in order: the resolved key, then the
// provider's fallback key if it is a different one, then the environment key.
func (ai *AIController) candidateKeys() []keyCandidate {
	var candidates []keyCandidate
	var seen []string

	resolved, err := ai.Manager.Resolve(geminiProvider)
	if err == nil {
		candidates = append(candidates, keyCandidate{value: resolved.Key, stored: &resolved, counted: true})
		seen = append(seen, resolved.Key)
	} else if !errors.Is(err, aikey.ErrNoActiveKey) {
		log.Printf("failed to resolve AI key: %v", err)
	}

	var fallback model.AIAPIKey
	err = ai.DB.Where("provider = ? AND is_active = ? AND is_fallback = ?", geminiProvider, true, true).
		First(&fallback).Error
	if err == nil && !utilities.Contains(seen, fallback.Key) {
		candidates = append(candidates, keyCandidate{value: fallback.Key, stored: &fallback})
		seen = append(seen, fallback.Key)
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("failed to load fallback AI key: %v", err)
	}

	if envKey := os.Getenv("GEMINI_API_KEY"); envKey != "" && !utilities.Contains(seen, envKey) {
		candidates = append(candidates, keyCandidate{value: envKey})
	}

	return candidates
}

// SuggestHandler generates an AI writing suggestion for resume content. When
// the first key is rejected by the provider, the request is retried once with
// the next candidate key.
// @Summary Generate an AI suggestion for resume content
// @Description Uses the stored provider keys by precedence, falling back to the GEMINI_API_KEY environment variable
// @Tags AI
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param Prompt body suggestInfo true "What to write or improve"
// @Success 200 {object} suggestResponse "Generated suggestion"
// @Failure 400 {object} utilities.ErrorResponse "Missing prompt"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 500 {object} utilities.ErrorResponse "No usable API key or the provider rejected the request"
// @Router /ai/suggest [post]
func (ai *AIController) SuggestHandler(c *gin.Context) {
	var info suggestInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Prompt must be provided",
		})
		return
	}

	candidates := ai.candidateKeys()
	if len(candidates) == 0 {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: "AI suggestions are not available",
		})
		return
	}

	// at most one retry with the next key
	if len(candidates) > 2 {
		candidates = candidates[:2]
	}

	var lastErr error
	for _, candidate := range candidates {
		suggestion, err := ai.Client.GenerateContent(c.Request.Context(), candidate.value, info.Prompt)
		if err == nil {
			if candidate.stored != nil && !candidate.counted {
				if err := ai.Manager.RecordUsage(candidate.stored); err != nil {
					log.Printf("failed to record usage for AI key %d: %v", candidate.stored.ID, err)
				}
			}
			c.JSON(http.StatusOK, suggestResponse{Suggestion: suggestion})
			return
		}
		lastErr = err

		var providerErr *ProviderError
		if errors.As(err, &providerErr) && providerErr.KeyRelated() {
			log.Printf("AI key rejected by provider, trying next key: %v", err)
			continue
		}
		break
	}

	c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
		Error: fmt.Sprintf("AI provider request failed: %s", lastErr.Error()),
	})
}
