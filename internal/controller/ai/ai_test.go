package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/testcontainers/testcontainers-go"
	"gorm.io/gorm"

	"ResumeForge-backend/internal/aikey"
	"ResumeForge-backend/internal/auth"
	"ResumeForge-backend/internal/database"
	"ResumeForge-backend/internal/middleware"
	"ResumeForge-backend/internal/model"
	"ResumeForge-backend/internal/testutil"
)

var testDB *database.DBinstanceStruct

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	_ = os.Unsetenv("GEMINI_API_KEY")

	var err error
	var teardown func(context.Context, ...testcontainers.TerminateOption) error
	teardown, testDB, err = database.GetTestDB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start test db: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if teardown != nil {
		_ = teardown(ctx)
	}
	os.Exit(code)
}

// fakeGemini mimics the generateContent endpoint: the "rejected-" key prefix
// gets a PERMISSION_DENIED error, anything else a fixed suggestion.
func fakeGemini(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Query().Get("key")
		w.Header().Set("Content-Type", "application/json")
		if strings.HasPrefix(key, "rejected-") {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`))
			return
		}
		if strings.HasPrefix(key, "broken-") {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"code":500,"message":"backend blew up","status":"INTERNAL"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Led a team of four engineers."}]}}]}`))
	}))
}

func aiRouter(upstream string) *gin.Engine {
	r := gin.New()
	controller := NewAIController(testDB)
	controller.Client.BaseURL = upstream
	protected := r.Group("/", middleware.RequireAuth(testDB))
	protected.POST("/ai/suggest", controller.SuggestHandler)
	return r
}

func clearKeys(t *testing.T) {
	t.Helper()
	err := testDB.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.AIAPIKey{}).Error
	assert.NoError(t, err)
}

func seedKey(t *testing.T, key string, primary, fallback bool) {
	t.Helper()
	assert.NoError(t, testDB.Create(&model.AIAPIKey{
		Provider:   "gemini",
		Key:        key,
		IsActive:   true,
		IsPrimary:  primary,
		IsFallback: fallback,
	}).Error)
}

func userToken(t *testing.T) string {
	t.Helper()
	token, err := auth.GetAccessToken(t, testDB, database.TestUserApplicant1.Username, database.TestSeedPassword)
	assert.NoError(t, err)
	return token
}

func TestSuggestWithStoredKey(t *testing.T) {
	upstream := fakeGemini(t)
	defer upstream.Close()
	clearKeys(t)
	seedKey(t, "working-key-1", true, false)

	router := aiRouter(upstream.URL)
	rec, resp := testutil.MakeJSONRequest(gin.H{
		"prompt": "Improve this bullet point: managed people",
	}, userToken(t), router, "/ai/suggest", http.MethodPost)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Led a team of four engineers.", resp["suggestion"])

	// usage was recorded on the resolved key
	var key model.AIAPIKey
	assert.NoError(t, testDB.Where("key = ?", "working-key-1").First(&key).Error)
	assert.Equal(t, int64(1), key.UsageCount)
}

func TestSuggestRetriesWithFallbackKey(t *testing.T) {
	upstream := fakeGemini(t)
	defer upstream.Close()
	clearKeys(t)
	seedKey(t, "rejected-primary", true, false)
	seedKey(t, "working-fallback", false, true)

	router := aiRouter(upstream.URL)
	rec, resp := testutil.MakeJSONRequest(gin.H{
		"prompt": "Summarize my experience",
	}, userToken(t), router, "/ai/suggest", http.MethodPost)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Led a team of four engineers.", resp["suggestion"])

	// the fallback key that served the request gets its usage recorded too
	var fallback model.AIAPIKey
	assert.NoError(t, testDB.Where("key = ?", "working-fallback").First(&fallback).Error)
	assert.Equal(t, int64(1), fallback.UsageCount)
	assert.NotNil(t, fallback.LastUsed)

	// the rejected primary was counted once by resolution
	var primary model.AIAPIKey
	assert.NoError(t, testDB.Where("key = ?", "rejected-primary").First(&primary).Error)
	assert.Equal(t, int64(1), primary.UsageCount)
}

func TestSuggestAllKeysRejected(t *testing.T) {
	upstream := fakeGemini(t)
	defer upstream.Close()
	clearKeys(t)
	seedKey(t, "rejected-primary", true, false)
	seedKey(t, "rejected-fallback", false, true)

	router := aiRouter(upstream.URL)
	rec, _ := testutil.MakeJSONRequest(gin.H{
		"prompt": "Anything",
	}, userToken(t), router, "/ai/suggest", http.MethodPost)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "PERMISSION_DENIED")
}

func TestSuggestNonKeyErrorNotRetried(t *testing.T) {
	upstream := fakeGemini(t)
	defer upstream.Close()
	clearKeys(t)
	seedKey(t, "broken-primary", true, false)
	seedKey(t, "working-fallback", false, true)

	router := aiRouter(upstream.URL)
	rec, _ := testutil.MakeJSONRequest(gin.H{
		"prompt": "Anything",
	}, userToken(t), router, "/ai/suggest", http.MethodPost)

	// an upstream failure that is not key related fails fast
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSuggestEnvKeyLastResort(t *testing.T) {
	upstream := fakeGemini(t)
	defer upstream.Close()
	clearKeys(t)

	_ = os.Setenv("GEMINI_API_KEY", "env-key-1")
	defer func() { _ = os.Unsetenv("GEMINI_API_KEY") }()

	router := aiRouter(upstream.URL)
	rec, resp := testutil.MakeJSONRequest(gin.H{
		"prompt": "Write a headline",
	}, userToken(t), router, "/ai/suggest", http.MethodPost)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Led a team of four engineers.", resp["suggestion"])
}

func TestSuggestNoKeysAvailable(t *testing.T) {
	upstream := fakeGemini(t)
	defer upstream.Close()
	clearKeys(t)

	router := aiRouter(upstream.URL)
	rec, _ := testutil.MakeJSONRequest(gin.H{
		"prompt": "Anything",
	}, userToken(t), router, "/ai/suggest", http.MethodPost)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSuggestMissingPrompt(t *testing.T) {
	upstream := fakeGemini(t)
	defer upstream.Close()

	router := aiRouter(upstream.URL)
	rec, _ := testutil.MakeJSONRequest(gin.H{}, userToken(t), router, "/ai/suggest", http.MethodPost)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestManagerUsedByController(t *testing.T) {
	clearKeys(t)
	seedKey(t, "only-key", false, false)

	manager := aikey.NewManager(testDB)
	key, err := manager.Resolve("gemini")
	assert.NoError(t, err)
	assert.Equal(t, "only-key", key.Key)
}
