package setting

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/crewdesk/crewdesk/internal/db/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	// Migrate the schema
	err = db.AutoMigrate(&models.Setting{})
	require.NoError(t, err, "failed to migrate test database")

	return db
}

// seedSettings inserts test data into the database.
func seedSettings(t *testing.T, db *gorm.DB, settings []models.Setting) {
	t.Helper()
	for _, setting := range settings {
		err := db.Create(&setting).Error
		require.NoError(t, err, "failed to seed test data")
	}
}

func TestGet(t *testing.T) {
	db := setupTestDB(t)

	testCases := []struct {
		name          string
		dbParam       *gorm.DB
		userID        uint64
		settingKey    string
		seedData      []models.Setting
		expectedError error
		expectedValue string
	}{
		{
			name:          "nil database",
			dbParam:       nil,
			userID:        1,
			settingKey:    "storage_type",
			expectedError: ErrDBNil,
		},
		{
			name:          "empty key",
			dbParam:       db,
			userID:        1,
			settingKey:    "",
			expectedError: ErrSettingKeyEmpty,
		},
		{
			name:          "setting not found",
			dbParam:       db,
			userID:        1,
			settingKey:    "nonexistent",
			expectedError: ErrSettingNotFound,
		},
		{
			name:       "successful get",
			dbParam:    db,
			userID:     1,
			settingKey: "storage_type",
			seedData: []models.Setting{
				{UserID: 1, Key: "storage_type", Value: "aws_s3"},
			},
			expectedValue: "aws_s3",
		},
		{
			name:       "setting owned by another user",
			dbParam:    db,
			userID:     2,
			settingKey: "storage_type",
			seedData: []models.Setting{
				{UserID: 1, Key: "storage_type", Value: "aws_s3"},
			},
			expectedError: ErrSettingNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Clean database for each test
			if tc.dbParam != nil {
				tc.dbParam.Exec("DELETE FROM settings")
			}

			if tc.seedData != nil {
				seedSettings(t, tc.dbParam, tc.seedData)
			}

			setting, err := Get(tc.dbParam, tc.userID, tc.settingKey)

			if tc.expectedError != nil {
				require.Error(t, err)
				require.ErrorIs(t, err, tc.expectedError)
				assert.Nil(t, setting)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, setting)
				assert.Equal(t, tc.settingKey, setting.Key)
				assert.Equal(t, tc.expectedValue, setting.Value)
			}
		})
	}
}

func TestGetMany(t *testing.T) {
	db := setupTestDB(t)

	seedSettings(t, db, []models.Setting{
		{UserID: 1, Key: "storage_type", Value: "wasabi"},
		{UserID: 1, Key: "wasabi_bucket", Value: "crewdesk-files"},
		{UserID: 2, Key: "storage_type", Value: "local"},
	})

	t.Run("nil database", func(t *testing.T) {
		out, err := GetMany(nil, 1, []string{"storage_type"})
		require.ErrorIs(t, err, ErrDBNil)
		assert.Nil(t, out)
	})

	t.Run("subset of keys for owning user", func(t *testing.T) {
		out, err := GetMany(db, 1, []string{"storage_type", "wasabi_bucket", "missing_key"})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{
			"storage_type":  "wasabi",
			"wasabi_bucket": "crewdesk-files",
		}, out)
	})

	t.Run("other tenant rows are not visible", func(t *testing.T) {
		out, err := GetMany(db, 2, []string{"storage_type", "wasabi_bucket"})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"storage_type": "local"}, out)
	})
}

func TestSet(t *testing.T) {
	db := setupTestDB(t)

	t.Run("nil database", func(t *testing.T) {
		setting, err := Set(nil, 1, "storage_type", "local")
		require.ErrorIs(t, err, ErrDBNil)
		assert.Nil(t, setting)
	})

	t.Run("empty key", func(t *testing.T) {
		setting, err := Set(db, 1, "", "local")
		require.ErrorIs(t, err, ErrSettingKeyEmpty)
		assert.Nil(t, setting)
	})

	t.Run("create then update keeps one row per user and key", func(t *testing.T) {
		created, err := Set(db, 1, "storage_type", "local")
		require.NoError(t, err)
		assert.Equal(t, "local", created.Value)

		updated, err := Set(db, 1, "storage_type", "aws_s3")
		require.NoError(t, err)
		assert.Equal(t, "aws_s3", updated.Value)
		assert.Equal(t, created.ID, updated.ID)

		var count int64
		require.NoError(t, db.Model(&models.Setting{}).
			Where("user_id = ? AND `key` = ?", 1, "storage_type").
			Count(&count).Error)
		assert.EqualValues(t, 1, count)
	})

	t.Run("same key for different users creates separate rows", func(t *testing.T) {
		_, err := Set(db, 1, "mail_host", "smtp.one.example")
		require.NoError(t, err)
		_, err = Set(db, 2, "mail_host", "smtp.two.example")
		require.NoError(t, err)

		one, err := Get(db, 1, "mail_host")
		require.NoError(t, err)
		two, err := Get(db, 2, "mail_host")
		require.NoError(t, err)

		assert.Equal(t, "smtp.one.example", one.Value)
		assert.Equal(t, "smtp.two.example", two.Value)
	})
}

func TestDelete(t *testing.T) {
	db := setupTestDB(t)

	seedSettings(t, db, []models.Setting{
		{UserID: 1, Key: "storage_type", Value: "wasabi"},
	})

	t.Run("nil database", func(t *testing.T) {
		require.ErrorIs(t, Delete(nil, 1, "storage_type"), ErrDBNil)
	})

	t.Run("empty key", func(t *testing.T) {
		require.ErrorIs(t, Delete(db, 1, ""), ErrSettingKeyEmpty)
	})

	t.Run("not found", func(t *testing.T) {
		require.ErrorIs(t, Delete(db, 1, "nonexistent"), ErrSettingNotFound)
	})

	t.Run("successful delete", func(t *testing.T) {
		require.NoError(t, Delete(db, 1, "storage_type"))

		_, err := Get(db, 1, "storage_type")
		require.ErrorIs(t, err, ErrSettingNotFound)
	})
}
