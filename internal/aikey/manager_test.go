package aikey

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/testcontainers/testcontainers-go"
	"gorm.io/gorm"

	"ResumeForge-backend/internal/database"
	"ResumeForge-backend/internal/model"
)

var testDB *database.DBinstanceStruct

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)

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

func clearKeys(t *testing.T) {
	t.Helper()
	err := testDB.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.AIAPIKey{}).Error
	assert.NoError(t, err)
}

func seedKey(t *testing.T, provider string, active, primary, fallback bool) model.AIAPIKey {
	t.Helper()
	key := model.AIAPIKey{
		Provider:   provider,
		Key:        fmt.Sprintf("sk-%s-%d", provider, time.Now().UnixNano()),
		IsActive:   active,
		IsPrimary:  primary,
		IsFallback: fallback,
	}
	assert.NoError(t, testDB.Create(&key).Error)
	return key
}

func TestResolvePrefersPrimary(t *testing.T) {
	clearKeys(t)
	manager := NewManager(testDB)

	seedKey(t, "gemini", true, false, false)
	fallback := seedKey(t, "gemini", true, false, true)
	primary := seedKey(t, "gemini", true, true, false)

	got, err := manager.Resolve("gemini")
	assert.NoError(t, err)
	assert.Equal(t, primary.ID, got.ID)
	assert.NotEqual(t, fallback.ID, got.ID)
}

func TestResolveFallsBackWhenPrimaryInactive(t *testing.T) {
	clearKeys(t)
	manager := NewManager(testDB)

	seedKey(t, "gemini", false, true, false)
	fallback := seedKey(t, "gemini", true, false, true)
	seedKey(t, "gemini", true, false, false)

	got, err := manager.Resolve("gemini")
	assert.NoError(t, err)
	assert.Equal(t, fallback.ID, got.ID)
}

func TestResolveAnyActiveWhenNoRoles(t *testing.T) {
	clearKeys(t)
	manager := NewManager(testDB)

	seedKey(t, "gemini", false, true, false)
	seedKey(t, "gemini", false, false, true)
	plain := seedKey(t, "gemini", true, false, false)

	got, err := manager.Resolve("gemini")
	assert.NoError(t, err)
	assert.Equal(t, plain.ID, got.ID)
}

func TestResolveNoActiveKey(t *testing.T) {
	clearKeys(t)
	manager := NewManager(testDB)

	seedKey(t, "gemini", false, true, false)

	_, err := manager.Resolve("gemini")
	assert.ErrorIs(t, err, ErrNoActiveKey)
}

func TestResolveIgnoresOtherProviders(t *testing.T) {
	clearKeys(t)
	manager := NewManager(testDB)

	seedKey(t, "openai", true, true, false)

	_, err := manager.Resolve("gemini")
	assert.ErrorIs(t, err, ErrNoActiveKey)
}

func TestResolveRecordsUsage(t *testing.T) {
	clearKeys(t)
	manager := NewManager(testDB)

	key := seedKey(t, "gemini", true, true, false)
	assert.Equal(t, int64(0), key.UsageCount)
	assert.Nil(t, key.LastUsed)

	got, err := manager.Resolve("gemini")
	assert.NoError(t, err)
	assert.Equal(t, int64(1), got.UsageCount)
	assert.NotNil(t, got.LastUsed)

	var stored model.AIAPIKey
	assert.NoError(t, testDB.First(&stored, key.ID).Error)
	assert.Equal(t, int64(1), stored.UsageCount)
	assert.NotNil(t, stored.LastUsed)
}

func TestSetPrimaryDemotesPreviousPrimary(t *testing.T) {
	clearKeys(t)
	manager := NewManager(testDB)

	old := seedKey(t, "gemini", true, true, false)
	next := seedKey(t, "gemini", true, false, false)
	other := seedKey(t, "openai", true, true, false)

	assert.NoError(t, manager.SetPrimary(next.ID))

	var count int64
	assert.NoError(t, testDB.Model(&model.AIAPIKey{}).
		Where("provider = ? AND is_primary = ?", "gemini", true).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var reloaded model.AIAPIKey
	assert.NoError(t, testDB.First(&reloaded, next.ID).Error)
	assert.True(t, reloaded.IsPrimary)

	assert.NoError(t, testDB.First(&reloaded, old.ID).Error)
	assert.False(t, reloaded.IsPrimary)

	// Primary on a different provider is untouched
	assert.NoError(t, testDB.First(&reloaded, other.ID).Error)
	assert.True(t, reloaded.IsPrimary)
}

func TestSetFallbackDemotesPreviousFallback(t *testing.T) {
	clearKeys(t)
	manager := NewManager(testDB)

	old := seedKey(t, "gemini", true, false, true)
	next := seedKey(t, "gemini", true, false, false)

	assert.NoError(t, manager.SetFallback(next.ID))

	var count int64
	assert.NoError(t, testDB.Model(&model.AIAPIKey{}).
		Where("provider = ? AND is_fallback = ?", "gemini", true).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var reloaded model.AIAPIKey
	assert.NoError(t, testDB.First(&reloaded, old.ID).Error)
	assert.False(t, reloaded.IsFallback)
}

func TestSetActiveUnknownKey(t *testing.T) {
	clearKeys(t)
	manager := NewManager(testDB)

	err := manager.SetActive(99999, false)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestMaskedKeyNeverExposesSecret(t *testing.T) {
	key := model.AIAPIKey{Key: "sk-super-secret-1234"}
	masked := key.Masked()
	assert.NotContains(t, masked, "secret")
	assert.Contains(t, masked, "1234")
}
