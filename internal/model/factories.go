package model

import (
	"encoding/json"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"gitlab.com/timkado/api/daisi-lead-outreach/pkg/utils"
)

// RandomJSONB generates random JSON data for testing.
func RandomJSONB() datatypes.JSON {
	jsonData := map[string]interface{}{
		"note":  gofakeit.Word(),
		"score": gofakeit.Number(1, 100),
	}
	bytes, _ := json.Marshal(jsonData)
	return datatypes.JSON(bytes)
}

// JSONBMap generates JSON data from a map.
func JSONBMap(data map[string]interface{}) datatypes.JSON {
	bytes, _ := json.Marshal(data)
	return datatypes.JSON(bytes)
}

// init ensures gofakeit is seeded.
func init() {
	gofakeit.Seed(time.Now().UnixNano())
}

// NewLead creates a new Lead instance with default fake data.
func NewLead(overrideDefaults ...*Lead) *Lead {
	base := &Lead{
		ID:        uuid.NewString(),
		Name:      gofakeit.Name(),
		Email:     gofakeit.Email(),
		Phone:     "+62" + gofakeit.DigitN(10),
		Company:   gofakeit.Company(),
		Source:    gofakeit.RandomString([]string{"scraper", "import", "manual"}),
		SourceURL: gofakeit.URL(),
		Status:    LeadStatusNew,
		Metadata:  RandomJSONB(),
		CreatedAt: utils.Now().Add(-time.Duration(gofakeit.Number(1, 100)) * time.Hour),
		UpdatedAt: utils.Now(),
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		// Allow overriding with empty string by direct assignment
		base.Name = ovr.Name
		base.Email = ovr.Email
		base.Phone = ovr.Phone
		base.Company = ovr.Company
		base.Source = ovr.Source
		base.SourceURL = ovr.SourceURL
		if ovr.DateScraped != nil {
			base.DateScraped = ovr.DateScraped
		}

		if ovr.ID != "" {
			base.ID = ovr.ID
		}
		if ovr.Status != "" {
			base.Status = ovr.Status
		}
		if ovr.LastContacted != nil {
			base.LastContacted = ovr.LastContacted
		}
		if ovr.Metadata != nil {
			base.Metadata = ovr.Metadata
		}
		if !ovr.CreatedAt.IsZero() {
			base.CreatedAt = ovr.CreatedAt
		}
		if !ovr.UpdatedAt.IsZero() {
			base.UpdatedAt = ovr.UpdatedAt
		}
	}
	return base
}

// NewResponse creates a new Response instance with default fake data.
func NewResponse(overrideDefaults ...*Response) *Response {
	base := &Response{
		ID:                uuid.NewString(),
		LeadID:            uuid.NewString(),
		Channel:           gofakeit.RandomString([]string{ChannelWhatsApp, ChannelEmail}),
		Direction:         DirectionOutgoing,
		MessageContent:    gofakeit.Sentence(12),
		Status:            ResponseStatusSent,
		ExternalMessageID: gofakeit.UUID(),
		CreatedAt:         utils.Now(),
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.ID != "" {
			base.ID = ovr.ID
		}
		if ovr.LeadID != "" {
			base.LeadID = ovr.LeadID
		}
		if ovr.Channel != "" {
			base.Channel = ovr.Channel
		}
		if ovr.Direction != "" {
			base.Direction = ovr.Direction
		}
		if ovr.MessageContent != "" {
			base.MessageContent = ovr.MessageContent
		}
		if ovr.Status != "" {
			base.Status = ovr.Status
		}
		base.ExternalMessageID = ovr.ExternalMessageID
		if !ovr.CreatedAt.IsZero() {
			base.CreatedAt = ovr.CreatedAt
		}
	}
	return base
}

// NewJob creates a new Job instance with default fake data.
func NewJob(overrideDefaults ...*Job) *Job {
	base := &Job{
		ID:        uuid.NewString(),
		JobType:   gofakeit.RandomString([]string{JobTypeScraper, JobTypeMessaging, JobTypeSummary}),
		Status:    JobStatusPending,
		CreatedAt: utils.Now(),
		UpdatedAt: utils.Now(),
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.ID != "" {
			base.ID = ovr.ID
		}
		if ovr.JobType != "" {
			base.JobType = ovr.JobType
		}
		if ovr.Status != "" {
			base.Status = ovr.Status
		}
		base.LeadsProcessed = ovr.LeadsProcessed
		base.LeadsSent = ovr.LeadsSent
		base.ErrorMessage = ovr.ErrorMessage
		if ovr.Details != nil {
			base.Details = ovr.Details
		}
		if ovr.StartedAt != nil {
			base.StartedAt = ovr.StartedAt
		}
		if ovr.CompletedAt != nil {
			base.CompletedAt = ovr.CompletedAt
		}
		if !ovr.CreatedAt.IsZero() {
			base.CreatedAt = ovr.CreatedAt
		}
	}
	return base
}

// NewSummary creates a new Summary instance with default fake data.
func NewSummary(overrideDefaults ...*Summary) *Summary {
	points, _ := json.Marshal([]string{gofakeit.Sentence(5), gofakeit.Sentence(5)})
	base := &Summary{
		ID:                  uuid.NewString(),
		LeadID:              uuid.NewString(),
		ConversationSummary: gofakeit.Paragraph(1, 3, 10, " "),
		KeyPoints:           datatypes.JSON(points),
		CreatedAt:           utils.Now(),
		UpdatedAt:           utils.Now(),
	}

	if len(overrideDefaults) > 0 && overrideDefaults[0] != nil {
		ovr := overrideDefaults[0]
		if ovr.ID != "" {
			base.ID = ovr.ID
		}
		if ovr.LeadID != "" {
			base.LeadID = ovr.LeadID
		}
		if ovr.ConversationSummary != "" {
			base.ConversationSummary = ovr.ConversationSummary
		}
		if ovr.KeyPoints != nil {
			base.KeyPoints = ovr.KeyPoints
		}
	}
	return base
}
