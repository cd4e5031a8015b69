package queries

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/animateai/animateai-backend/pkg/animation"
	"github.com/animateai/animateai-backend/pkg/db"
	"github.com/animateai/animateai-backend/pkg/errs"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// CorrelationWindow is the half-width of the time window used to correlate a
// message with the animation its generation produced, for rows written
// before message_id was recorded on animations.
const CorrelationWindow = 60 * time.Second

const animationColumns = `id, project_id, message_id, manim_code, status, video_url, error_message, created_at, updated_at`

// CreateAnimation inserts a new animation record at status pending with the
// generated Manim code and the user message that triggered the generation.
// Every generation cycle creates a fresh record; existing records are never
// reused.
func CreateAnimation(projectID uuid.UUID, messageID uuid.NullUUID, manimCode string) (*db.Animation, error) {
	anim := &db.Animation{
		ProjectID: projectID,
		MessageID: messageID,
		ManimCode: sql.NullString{String: manimCode, Valid: manimCode != ""},
		Status:    string(animation.StatusPending),
	}

	query := `
        INSERT INTO animations (project_id, message_id, manim_code, status)
        VALUES (:project_id, :message_id, :manim_code, :status)
        RETURNING id, created_at, updated_at`

	rows, err := db.DB.NamedQuery(query, anim)
	if err != nil {
		log.Errorf("Error creating animation for project '%s': %v", projectID.String(), err)
		return nil, fmt.Errorf("%w: failed to create animation: %v", errs.ErrPersistence, err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.StructScan(anim); err != nil {
			log.Errorf("Error scanning animation data after creation: %v", err)
			return nil, fmt.Errorf("%w: error scanning animation after creation: %v", errs.ErrPersistence, err)
		}
	} else {
		log.Error("No rows returned after animation creation.")
		return nil, fmt.Errorf("%w: no rows returned after animation creation", errs.ErrPersistence)
	}

	log.Infof("Animation %s created (pending) for project %s.", anim.ID.String(), projectID.String())
	return anim, nil
}

// FindAnimationByID retrieves an animation record. Returns (nil, nil) when
// absent.
func FindAnimationByID(animationID uuid.UUID) (*db.Animation, error) {
	anim := &db.Animation{}
	query := `SELECT ` + animationColumns + ` FROM animations WHERE id = $1`
	err := db.DB.Get(anim, query, animationID)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Debugf("Animation with ID '%s' not found.", animationID.String())
			return nil, nil
		}
		log.Errorf("Error finding animation by ID '%s': %v", animationID.String(), err)
		return nil, fmt.Errorf("%w: error finding animation by ID: %v", errs.ErrPersistence, err)
	}
	return anim, nil
}

// FindLatestAnimationByProjectID returns the current animation of a project,
// defined as the most recently created record. Returns (nil, nil) when the
// project has no animations yet.
func FindLatestAnimationByProjectID(projectID uuid.UUID) (*db.Animation, error) {
	anim := &db.Animation{}
	query := `SELECT ` + animationColumns + ` FROM animations WHERE project_id = $1 ORDER BY created_at DESC LIMIT 1`
	err := db.DB.Get(anim, query, projectID)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Debugf("No animation found for project '%s'.", projectID.String())
			return nil, nil
		}
		log.Errorf("Error finding latest animation for project '%s': %v", projectID.String(), err)
		return nil, fmt.Errorf("%w: error finding latest animation: %v", errs.ErrPersistence, err)
	}
	return anim, nil
}

// FindAnimationForMessage resolves which animation a message's generation
// produced. Rows created by this API carry the triggering message id, so the
// exact lookup is tried first. Older rows fall back to the time-window
// heuristic: the most recent animation of the same project created within
// CorrelationWindow of the message. Returns (nil, nil) when nothing
// qualifies.
func FindAnimationForMessage(message *db.Message) (*db.Animation, error) {
	anim := &db.Animation{}
	query := `SELECT ` + animationColumns + ` FROM animations WHERE message_id = $1 ORDER BY created_at DESC LIMIT 1`
	err := db.DB.Get(anim, query, message.ID)
	if err == nil {
		return anim, nil
	}
	if err != sql.ErrNoRows {
		log.Errorf("Error finding animation by message ID '%s': %v", message.ID.String(), err)
		return nil, fmt.Errorf("%w: error finding animation by message ID: %v", errs.ErrPersistence, err)
	}

	windowStart := message.CreatedAt.Add(-CorrelationWindow)
	windowEnd := message.CreatedAt.Add(CorrelationWindow)

	query = `SELECT ` + animationColumns + ` FROM animations
        WHERE project_id = $1 AND created_at >= $2 AND created_at <= $3
        ORDER BY created_at DESC LIMIT 1`
	err = db.DB.Get(anim, query, message.ProjectID, windowStart, windowEnd)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Debugf("No animation found within ±%s of message '%s'.", CorrelationWindow, message.ID.String())
			return nil, nil
		}
		log.Errorf("Error finding animation in time window for message '%s': %v", message.ID.String(), err)
		return nil, fmt.Errorf("%w: error finding animation in time window: %v", errs.ErrPersistence, err)
	}
	return anim, nil
}

// MarkAnimationRendering moves an animation from pending to rendering. The
// status precondition in the WHERE clause is the concurrency guard: of two
// racing render triggers only one sees a pending row, the other gets
// ErrConflict. No lock is held anywhere else.
func MarkAnimationRendering(animationID uuid.UUID) error {
	query := `UPDATE animations SET status = $1 WHERE id = $2 AND status = $3`
	result, err := db.DB.Exec(query, string(animation.StatusRendering), animationID, string(animation.StatusPending))
	return checkTransition(result, err, animationID, animation.StatusPending, animation.StatusRendering)
}

// MarkAnimationCompleted resolves a rendering animation to completed with
// the produced video URL. Any stale error message is cleared so a resolved
// record never carries both a video and an error.
func MarkAnimationCompleted(animationID uuid.UUID, videoURL string) error {
	query := `UPDATE animations SET status = $1, video_url = $2, error_message = NULL WHERE id = $3 AND status = $4`
	result, err := db.DB.Exec(query, string(animation.StatusCompleted), videoURL, animationID, string(animation.StatusRendering))
	return checkTransition(result, err, animationID, animation.StatusRendering, animation.StatusCompleted)
}

// MarkAnimationError resolves a rendering animation to error with a
// human-readable message; the video URL is cleared.
func MarkAnimationError(animationID uuid.UUID, errorMessage string) error {
	query := `UPDATE animations SET status = $1, error_message = $2, video_url = NULL WHERE id = $3 AND status = $4`
	result, err := db.DB.Exec(query, string(animation.StatusError), errorMessage, animationID, string(animation.StatusRendering))
	return checkTransition(result, err, animationID, animation.StatusRendering, animation.StatusError)
}

func checkTransition(result sql.Result, err error, animationID uuid.UUID, from, to animation.Status) error {
	if err != nil {
		log.Errorf("Error transitioning animation '%s' to %s: %v", animationID.String(), to, err)
		return fmt.Errorf("%w: failed to transition animation: %v", errs.ErrPersistence, err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		log.Warnf("Animation '%s' was not in %s; transition to %s dropped.", animationID.String(), from, to)
		return fmt.Errorf("%w: animation %s is not %s", errs.ErrConflict, animationID.String(), from)
	}

	log.Infof("Animation %s transitioned %s -> %s.", animationID.String(), from, to)
	return nil
}
