package queries

import (
	"database/sql"
	"fmt"

	"github.com/animateai/animateai-backend/pkg/db"
	"github.com/animateai/animateai-backend/pkg/errs"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// CreateMessage appends a message to a project's conversation log. The log
// is append-only: messages are never updated or deleted individually, and
// conversation order is derived from created_at.
func CreateMessage(projectID uuid.UUID, role, content string) (*db.Message, error) {
	if role != db.RoleUser && role != db.RoleAssistant {
		return nil, fmt.Errorf("%w: invalid message role %q", errs.ErrValidation, role)
	}

	message := &db.Message{
		ProjectID: projectID,
		Role:      role,
		Content:   content,
	}

	query := `
        INSERT INTO messages (project_id, content, role)
        VALUES (:project_id, :content, :role)
        RETURNING id, created_at`

	rows, err := db.DB.NamedQuery(query, message)
	if err != nil {
		log.Errorf("Error creating message for project '%s': %v", projectID.String(), err)
		return nil, fmt.Errorf("%w: failed to append message: %v", errs.ErrPersistence, err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.StructScan(message); err != nil {
			log.Errorf("Error scanning message data after creation: %v", err)
			return nil, fmt.Errorf("%w: error scanning message after creation: %v", errs.ErrPersistence, err)
		}
	} else {
		log.Error("No rows returned after message creation.")
		return nil, fmt.Errorf("%w: no rows returned after message creation", errs.ErrPersistence)
	}

	log.Debugf("Message %s (%s) appended to project %s.", message.ID.String(), role, projectID.String())
	return message, nil
}

// FindMessagesByProjectID returns a project's full conversation ordered by
// creation time ascending, with the insertion sequence breaking ties so a
// user message and its reply written in the same timestamp resolution never
// swap. An empty slice means no messages exist; the read is idempotent.
func FindMessagesByProjectID(projectID uuid.UUID) ([]db.Message, error) {
	messages := []db.Message{}
	query := `SELECT id, project_id, content, role, created_at FROM messages WHERE project_id = $1 ORDER BY created_at ASC, seq ASC`
	err := db.DB.Select(&messages, query, projectID)
	if err != nil {
		log.Errorf("Error finding messages for project ID '%s': %v", projectID.String(), err)
		return nil, fmt.Errorf("%w: error finding messages by project ID: %v", errs.ErrPersistence, err)
	}
	return messages, nil
}

// FindMessageByID retrieves a single message. Returns (nil, nil) when the
// message does not exist.
func FindMessageByID(messageID uuid.UUID) (*db.Message, error) {
	message := &db.Message{}
	query := `SELECT id, project_id, content, role, created_at FROM messages WHERE id = $1`
	err := db.DB.Get(message, query, messageID)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Debugf("Message with ID '%s' not found.", messageID.String())
			return nil, nil
		}
		log.Errorf("Error finding message by ID '%s': %v", messageID.String(), err)
		return nil, fmt.Errorf("%w: error finding message by ID: %v", errs.ErrPersistence, err)
	}
	return message, nil
}
