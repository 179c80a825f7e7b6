package model

import (
	"time"

	"gorm.io/datatypes"
)

// Summary holds the AI-generated conversation digest for one lead.
// One row per lead; regeneration overwrites in place.
type Summary struct {
	ID                  string         `json:"id" gorm:"primaryKey;type:text"`
	LeadID              string         `json:"lead_id" gorm:"uniqueIndex;type:text;not null" validate:"required"`
	ConversationSummary string         `json:"conversation_summary" gorm:"type:text"`
	KeyPoints           datatypes.JSON `json:"key_points,omitempty" gorm:"type:jsonb;column:key_points"` // JSON array of strings
	CreatedAt           time.Time      `json:"created_at,omitempty" gorm:"autoCreateTime"`
	UpdatedAt           time.Time      `json:"updated_at,omitempty" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for the Summary model.
func (Summary) TableName() string {
	return "summaries"
}
