package models

import "time"

// JobStatus is the moderation state of a job posting.
type JobStatus string

const (
	JobPending  JobStatus = "pending"
	JobApproved JobStatus = "approved"
	JobRejected JobStatus = "rejected"
	JobClosed   JobStatus = "closed"
)

// ApplicationStatus tracks a candidate through the recruitment pipeline.
type ApplicationStatus string

const (
	ApplicationApplied     ApplicationStatus = "applied"
	ApplicationShortlisted ApplicationStatus = "shortlisted"
	ApplicationInterviewed ApplicationStatus = "interviewed"
	ApplicationHired       ApplicationStatus = "hired"
	ApplicationRejected    ApplicationStatus = "rejected"
)

// JobPosting represents an open position published by a tenant.
type JobPosting struct {
	ID          uint64 `gorm:"primaryKey"`
	UserID      uint64 `gorm:"index;not null"`
	Title       string `gorm:"size:255;not null"`
	Department  string `gorm:"size:100"`
	Description string `gorm:"type:text"`
	Vacancies   int
	Status      JobStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	ClosesAt    *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// JobApplication represents a candidate applying to a posting.
type JobApplication struct {
	ID           uint64     `gorm:"primaryKey"`
	JobPostingID uint64     `gorm:"index;not null"`
	JobPosting   JobPosting `gorm:"foreignKey:JobPostingID;constraint:OnDelete:CASCADE"`
	Name         string     `gorm:"size:100;not null"`
	Email        string     `gorm:"size:255;not null"`
	Phone        string     `gorm:"size:30"`
	ResumePath   string     `gorm:"size:500"`
	Status       ApplicationStatus `gorm:"type:varchar(20);not null;default:'applied'"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
