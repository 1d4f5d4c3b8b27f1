package models

import "time"

// WebhookEvent names an event a tenant can subscribe a webhook to.
type WebhookEvent string

const (
	WebhookEmployeeCreated WebhookEvent = "employee.created"
	WebhookContractCreated WebhookEvent = "contract.created"
	WebhookJobCreated      WebhookEvent = "job.created"
	WebhookMeetingCreated  WebhookEvent = "meeting.created"
	WebhookPayrollCreated  WebhookEvent = "payroll.created"
)

// WebhookEndpoint is a tenant-configured webhook target.
// Delivery is fire-and-forget; see the webhook package.
type WebhookEndpoint struct {
	ID     uint64 `gorm:"primaryKey"`
	UserID uint64 `gorm:"index;not null"`
	URL    string `gorm:"size:500;not null"`
	// Method is POST or PUT.
	Method    string       `gorm:"size:10;not null;default:'POST'"`
	Event     WebhookEvent `gorm:"size:50;not null"`
	Active    bool         `gorm:"default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
