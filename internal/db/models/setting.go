// Package models contains database model definitions.
package models

// Setting represents a tenant-scoped configuration setting stored in the
// database. At most one row exists per (UserID, Key) pair; writes go through
// upsert semantics in the setting controller.
type Setting struct {
	ID     uint64 `gorm:"primaryKey"`
	UserID uint64 `gorm:"uniqueIndex:idx_settings_user_key;not null"`
	Key    string `gorm:"uniqueIndex:idx_settings_user_key;size:191;not null"`
	Value  string `gorm:"type:text"`
}
