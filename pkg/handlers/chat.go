package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/animateai/animateai-backend/pkg/db"
	"github.com/animateai/animateai-backend/pkg/db/queries"
	"github.com/animateai/animateai-backend/pkg/errs"
	"github.com/animateai/animateai-backend/pkg/middleware"
	"github.com/animateai/animateai-backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// apologyMessage is appended to the conversation when generation fails, so
// the user sees a visible failure instead of a silent gap in the transcript.
const apologyMessage = "Sorry, I encountered an error processing your request. Please try again."

type ChatMessage struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content" binding:"required"`
}

type ChatRequest struct {
	ProjectID string        `json:"projectId" binding:"required,uuid"`
	Messages  []ChatMessage `json:"messages" binding:"required,min=1,dive"`
}

type ChatResponse struct {
	Content string `json:"content"`
	HasCode bool   `json:"hasCode"`
}

type MessageResponse struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"project_id"`
	Content   string    `json:"content"`
	Role      string    `json:"role"`
	CreatedAt string    `json:"created_at"`
}

func newMessageResponse(message *db.Message) MessageResponse {
	return MessageResponse{
		ID:        message.ID,
		ProjectID: message.ProjectID,
		Content:   message.Content,
		Role:      message.Role,
		CreatedAt: message.CreatedAt.Format(time.RFC3339),
	}
}

// Chat runs one conversation turn: the trailing user message is appended to
// the project's conversation log, the stored conversation is sent to the
// generation client, a pending animation is created when the response
// carries Manim code, and the assistant reply is appended and returned.
func (h *Handlers) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("Chat: Invalid request body: %v", err)
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	last := req.Messages[len(req.Messages)-1]
	if last.Role != db.RoleUser {
		log.Warn("Chat: Last message in request is not a user message.")
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid message format", nil)
		return
	}

	projectID := uuid.MustParse(req.ProjectID)
	project, ok := h.requireOwnedProject(c, projectID, "Chat")
	if !ok {
		return
	}

	userMessage, err := queries.CreateMessage(project.ID, db.RoleUser, last.Content)
	if err != nil {
		log.Errorf("Chat: Failed to append user message for project %s: %v", project.ID.String(), err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to save message", nil)
		return
	}

	conversation, err := queries.FindMessagesByProjectID(project.ID)
	if err != nil {
		log.Errorf("Chat: Failed to load conversation for project %s: %v", project.ID.String(), err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to load conversation", nil)
		return
	}

	result, err := h.Generator.Generate(conversation)
	if err != nil {
		log.Errorf("Chat: Generation failed for project %s: %v", project.ID.String(), err)
		// Record a visible failure in the transcript; best effort.
		if _, aerr := queries.CreateMessage(project.ID, db.RoleAssistant, apologyMessage); aerr != nil {
			log.Warnf("Chat: Could not append apology message: %v", aerr)
		}
		status := http.StatusInternalServerError
		if errors.Is(err, errs.ErrUpstreamUnavailable) {
			status = http.StatusBadGateway
		}
		utils.ResponseWithError(c, status, "Failed to generate a response", nil)
		return
	}

	if result.HasCode() {
		// The animation row carries the triggering message so the
		// message-to-animation lookup is an exact join rather than a
		// timestamp guess.
		messageID := uuid.NullUUID{UUID: userMessage.ID, Valid: true}
		if _, aerr := queries.CreateAnimation(project.ID, messageID, result.ManimCode); aerr != nil {
			// The chat turn still succeeds; the user can retry rendering
			// by asking again.
			log.Errorf("Chat: Failed to store animation for project %s: %v", project.ID.String(), aerr)
		}
	}

	if _, err := queries.CreateMessage(project.ID, db.RoleAssistant, result.Explanation); err != nil {
		log.Errorf("Chat: Failed to append assistant message for project %s: %v", project.ID.String(), err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to save assistant message", nil)
		return
	}

	log.Infof("Chat turn completed for project %s (hasCode=%t).", project.ID.String(), result.HasCode())
	utils.ResponseWithSuccess(c, http.StatusOK, "Response generated", ChatResponse{
		Content: result.Explanation,
		HasCode: result.HasCode(),
	})
}

// GetMessages returns a project's conversation ordered by creation time
// ascending.
func (h *Handlers) GetMessages(c *gin.Context) {
	projectID, err := uuid.Parse(c.Query("projectId"))
	if err != nil {
		log.Warnf("GetMessages: Invalid or missing projectId '%s': %v", c.Query("projectId"), err)
		utils.ResponseWithError(c, http.StatusBadRequest, "Project ID is required", nil)
		return
	}

	project, ok := h.requireOwnedProject(c, projectID, "GetMessages")
	if !ok {
		return
	}

	messages, err := queries.FindMessagesByProjectID(project.ID)
	if err != nil {
		log.Errorf("GetMessages: Failed to fetch messages for project %s: %v", project.ID.String(), err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to retrieve messages", nil)
		return
	}

	messageResponses := make([]MessageResponse, len(messages))
	for i, m := range messages {
		messageResponses[i] = newMessageResponse(&m)
	}

	utils.ResponseWithSuccess(c, http.StatusOK, "Messages retrieved successfully", messageResponses)
}

// requireOwnedProject loads a project and enforces that it belongs to the
// authenticated user, writing the error response itself when it does not.
func (h *Handlers) requireOwnedProject(c *gin.Context, projectID uuid.UUID, op string) (*db.Project, bool) {
	claims, exists := middleware.GetUserClaimsFromContext(c)
	if !exists {
		log.Errorf("%s: User claims not found in context.", op)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Authentication error: User claims not found", nil)
		return nil, false
	}

	project, err := queries.FindProjectByID(projectID)
	if err != nil {
		log.Errorf("%s: Failed to fetch project %s: %v", op, projectID.String(), err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to retrieve project", nil)
		return nil, false
	}
	if project == nil {
		utils.ResponseWithError(c, http.StatusNotFound, "Project not found", nil)
		return nil, false
	}
	if project.UserID != claims.UserID {
		log.Warnf("%s: User %s attempted to access project %s owned by %s.", op, claims.UserID.String(), projectID.String(), project.UserID.String())
		utils.ResponseWithError(c, http.StatusForbidden, "You do not have permission to access this project", nil)
		return nil, false
	}
	return project, true
}
