// Package aikey selects which stored AI provider credential each outbound
// AI request should use.
package aikey

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"ResumeForge-backend/internal/database"
	"ResumeForge-backend/internal/model"
)

// ErrNoActiveKey is returned by Resolve when no active key exists for the provider.
var ErrNoActiveKey = errors.New("no active API key for provider")

// Manager resolves stored provider keys by precedence: the primary key wins,
// then the fallback key, then any remaining active key.
type Manager struct {
	DB *database.DBinstanceStruct
}

// NewManager creates a new Manager backed by the given database.
func NewManager(db *database.DBinstanceStruct) *Manager {
	return &Manager{DB: db}
}

// Resolve picks the key to use for the provider and records the usage on it.
// Precedence: active primary, then active fallback, then any active key.
func (m *Manager) Resolve(provider string) (model.AIAPIKey, error) {
	var key model.AIAPIKey

	queries := []*gorm.DB{
		m.DB.Where("provider = ? AND is_active = ? AND is_primary = ?", provider, true, true),
		m.DB.Where("provider = ? AND is_active = ? AND is_fallback = ?", provider, true, true),
		m.DB.Where("provider = ? AND is_active = ?", provider, true).Order("id ASC"),
	}

	for _, q := range queries {
		err := q.First(&key).Error
		if err == nil {
			if err := m.recordUsage(&key); err != nil {
				return key, err
			}
			return key, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return key, fmt.Errorf("failed to query API keys: %w", err)
		}
	}

	return key, ErrNoActiveKey
}

// recordUsage bumps the usage counter and last-used timestamp in a single
// UPDATE so concurrent resolves never lose increments.
func (m *Manager) recordUsage(key *model.AIAPIKey) error {
	now := time.Now()
	err := m.DB.Model(&model.AIAPIKey{}).
		Where("id = ?", key.ID).
		Updates(map[string]interface{}{
			"usage_count": gorm.Expr("usage_count + 1"),
			"last_used":   now,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to record key usage: %w", err)
	}
	key.UsageCount++
	key.LastUsed = &now
	return nil
}

// RecordUsage bumps the usage counter on a key that was used outside Resolve,
// such as a fallback key serving a retried request.
func (m *Manager) RecordUsage(key *model.AIAPIKey) error {
	return m.recordUsage(key)
}

// SetPrimary marks the key as the sole primary for its provider. The clear
// and set run in one transaction so readers never observe two primaries.
func (m *Manager) SetPrimary(keyID uint) error {
	return m.DB.Transaction(func(tx *gorm.DB) error {
		var key model.AIAPIKey
		if err := tx.First(&key, keyID).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.AIAPIKey{}).
			Where("provider = ? AND is_primary = ?", key.Provider, true).
			Update("is_primary", false).Error; err != nil {
			return err
		}
		return tx.Model(&key).Update("is_primary", true).Error
	})
}

// SetFallback marks the key as the sole fallback for its provider, same
// clear-then-set scheme as SetPrimary.
func (m *Manager) SetFallback(keyID uint) error {
	return m.DB.Transaction(func(tx *gorm.DB) error {
		var key model.AIAPIKey
		if err := tx.First(&key, keyID).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.AIAPIKey{}).
			Where("provider = ? AND is_fallback = ?", key.Provider, true).
			Update("is_fallback", false).Error; err != nil {
			return err
		}
		return tx.Model(&key).Update("is_fallback", true).Error
	})
}

// SetActive flips the active flag on a key. Deactivating a primary or
// fallback keeps the flag so the role is restored on reactivation.
func (m *Manager) SetActive(keyID uint, active bool) error {
	res := m.DB.Model(&model.AIAPIKey{}).Where("id = ?", keyID).Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
