package model

import "time"

// Message directions on the responses table.
const (
	DirectionOutgoing = "outgoing"
	DirectionIncoming = "incoming"
)

// Response delivery statuses.
const (
	ResponseStatusSent     = "sent"
	ResponseStatusFailed   = "failed"
	ResponseStatusReceived = "received"
)

// Response is one message exchanged with a lead, in either direction.
// Rows are append-only; delivery state lives in Status.
type Response struct {
	ID                string    `json:"id" gorm:"primaryKey;type:text"`
	LeadID            string    `json:"lead_id" gorm:"index;type:text;not null" validate:"required"`
	Channel           string    `json:"channel" gorm:"type:text" validate:"required,oneof=whatsapp email"`
	Direction         string    `json:"direction" gorm:"type:text" validate:"required,oneof=outgoing incoming"`
	MessageContent    string    `json:"message_content" gorm:"type:text" validate:"required"`
	Status            string    `json:"status" gorm:"type:text;default:sent"`
	ExternalMessageID string    `json:"external_message_id,omitempty" gorm:"type:text"` // Provider-side ID (WA message ID, SMTP message ID)
	CreatedAt         time.Time `json:"created_at,omitempty" gorm:"autoCreateTime"`
}

// TableName specifies the table name for the Response model.
func (Response) TableName() string {
	return "responses"
}
