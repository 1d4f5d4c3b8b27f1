package models

import "time"

// Coupon represents a discount coupon owned by a tenant.
type Coupon struct {
	ID     uint64 `gorm:"primaryKey"`
	UserID uint64 `gorm:"index;not null"`
	Name   string `gorm:"size:100;not null"`
	Code   string `gorm:"uniqueIndex;size:50;not null"`
	// Discount is a percentage in [0,100].
	Discount float64
	// Limit is the maximum number of redemptions (0 = unlimited).
	Limit     int
	UsedCount int
	Active    bool `gorm:"default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
