package model

import (
	"time"

	"gorm.io/datatypes"
)

// Job types.
const (
	JobTypeScraper   = "scraper"
	JobTypeMessaging = "messaging"
	JobTypeSummary   = "summary"
)

// Job statuses.
const (
	JobStatusPending    = "pending"
	JobStatusInProgress = "in_progress"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
	JobStatusCancelled  = "cancelled"
)

// Job records one background run (scrape, daily outreach, summary batch).
type Job struct {
	ID             string         `json:"id" gorm:"primaryKey;type:text"`
	JobType        string         `json:"job_type" gorm:"index;type:text" validate:"required,oneof=scraper messaging summary"`
	Status         string         `json:"status" gorm:"index;type:text;default:pending" validate:"omitempty,oneof=pending in_progress completed failed cancelled"`
	LeadsProcessed int            `json:"leads_processed" gorm:"default:0"`
	LeadsSent      int            `json:"leads_sent" gorm:"default:0"`
	ErrorMessage   string         `json:"error_message,omitempty" gorm:"type:text"`
	Details        datatypes.JSON `json:"details,omitempty" gorm:"type:jsonb;column:details"`
	StartedAt      *time.Time     `json:"started_at,omitempty" gorm:"column:started_at"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty" gorm:"column:completed_at"`
	CreatedAt      time.Time      `json:"created_at,omitempty" gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `json:"updated_at,omitempty" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for the Job model.
func (Job) TableName() string {
	return "jobs"
}
