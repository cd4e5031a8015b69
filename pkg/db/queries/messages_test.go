package queries

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/animateai/animateai-backend/pkg/db"
	"github.com/animateai/animateai-backend/pkg/errs"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMessage_RejectsUnknownRole(t *testing.T) {
	_, err := CreateMessage(uuid.New(), "system", "be helpful")
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestFindMessagesByProjectID_BreaksTimestampTies(t *testing.T) {
	mock := newMockDB(t)
	projectID := uuid.New()
	userMsgID := uuid.New()
	assistantMsgID := uuid.New()
	now := time.Now()

	// A user message and the assistant reply can land on the same timestamp;
	// the insertion sequence keeps them in conversation order.
	rows := sqlmock.NewRows([]string{"id", "project_id", "content", "role", "created_at"}).
		AddRow(userMsgID.String(), projectID.String(), "draw a circle", db.RoleUser, now).
		AddRow(assistantMsgID.String(), projectID.String(), "Here is a circle.", db.RoleAssistant, now)

	mock.ExpectQuery(`SELECT id, project_id, content, role, created_at FROM messages WHERE project_id = $1 ORDER BY created_at ASC, seq ASC`).
		WithArgs(projectID).
		WillReturnRows(rows)

	messages, err := FindMessagesByProjectID(projectID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, db.RoleUser, messages[0].Role)
	assert.Equal(t, db.RoleAssistant, messages[1].Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}
