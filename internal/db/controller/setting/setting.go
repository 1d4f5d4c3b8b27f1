// Package setting provides CRUD operations for managing tenant-scoped settings.
package setting

import (
	"errors"

	"gorm.io/gorm"

	"github.com/crewdesk/crewdesk/internal/db/models"
)

const (
	userKeyQueryPattern = "user_id = ? AND `key` = ?"
	userQueryPattern    = "user_id = ?"
)

var (
	// ErrSettingNotFound is returned when a setting is not found.
	ErrSettingNotFound = errors.New("setting not found")
	// ErrSettingKeyEmpty is returned when attempting to create/update a setting with an empty key.
	ErrSettingKeyEmpty = errors.New("setting key cannot be empty")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Get retrieves a setting by its owning user ID and key.
func Get(db *gorm.DB, userID uint64, key string) (*models.Setting, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if key == "" {
		return nil, ErrSettingKeyEmpty
	}

	var setting models.Setting
	result := db.Where(userKeyQueryPattern, userID, key).First(&setting)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSettingNotFound
		}
		return nil, result.Error
	}

	return &setting, nil
}

// GetMany retrieves the given keys for an owning user ID as a key/value map.
// Keys without a stored row are absent from the result.
func GetMany(db *gorm.DB, userID uint64, keys []string) (map[string]string, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var settings []models.Setting

	tx := db.Where(userQueryPattern, userID)
	if len(keys) > 0 {
		tx = tx.Where("`key` IN ?", keys)
	}

	if result := tx.Find(&settings); result.Error != nil {
		return nil, result.Error
	}

	out := make(map[string]string, len(settings))
	for _, s := range settings {
		out[s.Key] = s.Value
	}

	return out, nil
}

// GetAll retrieves all settings for an owning user ID.
func GetAll(db *gorm.DB, userID uint64) ([]models.Setting, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var settings []models.Setting
	result := db.Where(userQueryPattern, userID).Find(&settings)
	if result.Error != nil {
		return nil, result.Error
	}

	return settings, nil
}

// Set creates or updates a setting for the owning user ID (upsert operation).
func Set(db *gorm.DB, userID uint64, key, value string) (*models.Setting, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if key == "" {
		return nil, ErrSettingKeyEmpty
	}

	var setting models.Setting
	result := db.Where(userKeyQueryPattern, userID, key).First(&setting)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		setting = models.Setting{
			UserID: userID,
			Key:    key,
			Value:  value,
		}

		if result = db.Create(&setting); result.Error != nil {
			return nil, result.Error
		}

		return &setting, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}

	// Setting exists, update it
	setting.Value = value
	result = db.Save(&setting)
	if result.Error != nil {
		return nil, result.Error
	}

	return &setting, nil
}

// SetMany upserts a map of settings for the owning user ID.
func SetMany(db *gorm.DB, userID uint64, values map[string]string) error {
	if db == nil {
		return ErrDBNil
	}

	for key, value := range values {
		if _, err := Set(db, userID, key, value); err != nil {
			return err
		}
	}

	return nil
}

// Delete deletes a setting by its owning user ID and key.
func Delete(db *gorm.DB, userID uint64, key string) error {
	if db == nil {
		return ErrDBNil
	}
	if key == "" {
		return ErrSettingKeyEmpty
	}

	result := db.Where(userKeyQueryPattern, userID, key).Delete(&models.Setting{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSettingNotFound
	}

	return nil
}
