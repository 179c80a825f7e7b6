package model

import (
	"time"

	"gorm.io/datatypes"
)

// Lead statuses. A lead moves new -> contacted -> replied; qualified and
// unqualified are terminal.
const (
	LeadStatusNew         = "new"
	LeadStatusContacted   = "contacted"
	LeadStatusReplied     = "replied"
	LeadStatusQualified   = "qualified"
	LeadStatusUnqualified = "unqualified"
)

// Outreach channels.
const (
	ChannelWhatsApp = "whatsapp"
	ChannelEmail    = "email"
)

// Lead represents a prospect in the PostgreSQL database.
type Lead struct {
	ID            string         `json:"id" gorm:"primaryKey;type:text"`
	Name          string         `json:"name" gorm:"type:text" validate:"required"`
	Email         string         `json:"email,omitempty" gorm:"type:text;uniqueIndex:idx_leads_email,where:email <> ''" validate:"omitempty,email"`
	Phone         string         `json:"phone,omitempty" gorm:"type:text;uniqueIndex:idx_leads_phone,where:phone <> ''"`
	Company       string         `json:"company,omitempty" gorm:"type:text"`
	Source        string         `json:"source,omitempty" gorm:"type:text"` // scraper, import, manual
	SourceURL     string         `json:"source_url,omitempty" gorm:"column:source_url;type:text"`
	DateScraped   *time.Time     `json:"date_scraped,omitempty" gorm:"column:date_scraped"`
	Status        string         `json:"status" gorm:"index;type:text;default:new" validate:"omitempty,oneof=new contacted replied qualified unqualified"`
	LastContacted *time.Time     `json:"last_contacted,omitempty" gorm:"column:last_contacted"`
	Notes         string         `json:"notes,omitempty" gorm:"type:text"`
	Metadata      datatypes.JSON `json:"metadata,omitempty" gorm:"type:jsonb;column:metadata"`
	CreatedAt     time.Time      `json:"created_at,omitempty" gorm:"autoCreateTime"`
	UpdatedAt     time.Time      `json:"updated_at,omitempty" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for the Lead model.
func (Lead) TableName() string {
	return "leads"
}

// PreferredChannel returns the outreach channel for the lead. WhatsApp wins
// whenever a phone number is present.
func (l *Lead) PreferredChannel() string {
	if l.Phone != "" {
		return ChannelWhatsApp
	}
	return ChannelEmail
}

// Contactable reports whether the lead has at least one usable contact field.
func (l *Lead) Contactable() bool {
	return l.Phone != "" || l.Email != ""
}
