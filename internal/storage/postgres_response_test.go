package storage

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"gitlab.com/timkado/api/daisi-lead-outreach/internal/model"
	"gitlab.com/timkado/api/daisi-lead-outreach/pkg/utils"
)

func TestPostgresRepo_SaveResponse_Success(t *testing.T) {
	repo, mock, teardown := newTestRepo(t)
	t.Cleanup(teardown)

	response := &model.Response{
		LeadID:         "lead-1",
		Channel:        model.ChannelWhatsApp,
		Direction:      model.DirectionOutgoing,
		MessageContent: "Hi there",
		Status:         model.ResponseStatusSent,
	}

	mock.ExpectExec(`INSERT INTO "responses"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SaveResponse(context.Background(), response)
	assert.NoError(t, err)
	assert.NotEmpty(t, response.ID)
}

func TestPostgresRepo_FindResponsesByLeadID(t *testing.T) {
	t.Run("WithLimit", func(t *testing.T) {
		repo, mock, teardown := newTestRepo(t)
		t.Cleanup(teardown)

		now := utils.Now()
		cols := []string{"id", "lead_id", "channel", "direction", "message_content", "status", "created_at"}
		rows := sqlmock.NewRows(cols).
			AddRow("resp-2", "lead-1", model.ChannelWhatsApp, model.DirectionIncoming, "Tell me more", model.ResponseStatusReceived, now).
			AddRow("resp-1", "lead-1", model.ChannelWhatsApp, model.DirectionOutgoing, "Hi there", model.ResponseStatusSent, now.Add(-time.Hour))
		mock.ExpectQuery(`SELECT \* FROM "responses" WHERE lead_id = \$1`).
			WithArgs("lead-1", 10).
			WillReturnRows(rows)

		responses, err := repo.FindResponsesByLeadID(context.Background(), "lead-1", 10)
		assert.NoError(t, err)
		assert.Len(t, responses, 2)
		assert.Equal(t, model.DirectionIncoming, responses[0].Direction)
	})

	t.Run("Empty", func(t *testing.T) {
		repo, mock, teardown := newTestRepo(t)
		t.Cleanup(teardown)

		mock.ExpectQuery(`SELECT \* FROM "responses" WHERE lead_id = \$1`).
			WithArgs("lead-empty").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		responses, err := repo.FindResponsesByLeadID(context.Background(), "lead-empty", 0)
		assert.NoError(t, err)
		assert.NotNil(t, responses)
		assert.Empty(t, responses)
	})
}

func TestPostgresRepo_CountOutgoingSentSince(t *testing.T) {
	repo, mock, teardown := newTestRepo(t)
	t.Cleanup(teardown)

	since := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT count\(\*\) FROM "responses" WHERE direction = \$1 AND status = \$2 AND created_at >= \$3`).
		WithArgs(model.DirectionOutgoing, model.ResponseStatusSent, since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := repo.CountOutgoingSentSince(context.Background(), since)
	assert.NoError(t, err)
	assert.EqualValues(t, 7, count)
}
