package models

import "time"

// Meeting represents a scheduled meeting owned by a tenant.
type Meeting struct {
	ID     uint64 `gorm:"primaryKey"`
	UserID uint64 `gorm:"index;not null"`
	Title  string `gorm:"size:255;not null"`
	Date   string `gorm:"size:10"` // YYYY-MM-DD
	// StartTime and EndTime in HH:MM.
	StartTime string `gorm:"size:5"`
	EndTime   string `gorm:"size:5"`
	// EmployeeIDs is a comma separated list of invited employee IDs.
	EmployeeIDs string `gorm:"size:500"`
	Note        string `gorm:"type:text"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
