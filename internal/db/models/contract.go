package models

import "time"

// ContractStatus is the approval state of a contract.
type ContractStatus string

const (
	ContractPending  ContractStatus = "pending"
	ContractAccepted ContractStatus = "accepted"
	ContractDeclined ContractStatus = "declined"
)

// Contract represents a contract between a tenant and an employee.
type Contract struct {
	ID         uint64 `gorm:"primaryKey"`
	UserID     uint64 `gorm:"index;not null"`
	EmployeeID uint64 `gorm:"index;not null"`
	Employee   Employee `gorm:"foreignKey:EmployeeID;constraint:OnDelete:CASCADE"`
	Subject    string `gorm:"size:255;not null"`
	// Value is the total contract value.
	Value     float64
	StartDate *time.Time
	EndDate   *time.Time
	Status    ContractStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	Notes     string         `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
