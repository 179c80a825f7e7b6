package storage

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"gitlab.com/timkado/api/daisi-lead-outreach/internal/apperrors"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/model"
	"gitlab.com/timkado/api/daisi-lead-outreach/pkg/utils"
)

func TestPostgresRepo_UpsertSummary(t *testing.T) {
	repo, mock, teardown := newTestRepo(t)
	t.Cleanup(teardown)

	summary := &model.Summary{
		LeadID:              "lead-1",
		ConversationSummary: "Interested in pricing, asked for a demo.",
		KeyPoints:           model.JSONBMap(map[string]interface{}{"points": []string{"pricing", "demo"}}),
	}

	mock.ExpectExec(`INSERT INTO "summaries" .* ON CONFLICT`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpsertSummary(context.Background(), summary)
	assert.NoError(t, err)
	assert.NotEmpty(t, summary.ID)
}

func TestPostgresRepo_FindSummaryByLeadID(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		repo, mock, teardown := newTestRepo(t)
		t.Cleanup(teardown)

		now := utils.Now()
		cols := []string{"id", "lead_id", "conversation_summary", "created_at", "updated_at"}
		rows := sqlmock.NewRows(cols).AddRow("sum-1", "lead-1", "Asked for a demo.", now, now)
		mock.ExpectQuery(`SELECT \* FROM "summaries" WHERE lead_id = \$1`).
			WithArgs("lead-1", 1).
			WillReturnRows(rows)

		summary, err := repo.FindSummaryByLeadID(context.Background(), "lead-1")
		assert.NoError(t, err)
		assert.Equal(t, "sum-1", summary.ID)
	})

	t.Run("NotFound", func(t *testing.T) {
		repo, mock, teardown := newTestRepo(t)
		t.Cleanup(teardown)

		mock.ExpectQuery(`SELECT \* FROM "summaries" WHERE lead_id = \$1`).
			WithArgs("lead-404", 1).
			WillReturnError(gorm.ErrRecordNotFound)

		summary, err := repo.FindSummaryByLeadID(context.Background(), "lead-404")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		assert.Nil(t, summary)
	})
}
