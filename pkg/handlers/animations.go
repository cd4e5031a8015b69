package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/animateai/animateai-backend/pkg/animation"
	"github.com/animateai/animateai-backend/pkg/db"
	"github.com/animateai/animateai-backend/pkg/db/queries"
	"github.com/animateai/animateai-backend/pkg/errs"
	"github.com/animateai/animateai-backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type RenderRequest struct {
	ProjectID string `json:"projectId" binding:"required,uuid"`
}

// RenderCallbackRequest is what the external render service POSTs back once
// a job resolves.
type RenderCallbackRequest struct {
	AnimationID  string `json:"animation_id" binding:"required,uuid"`
	Status       string `json:"status" binding:"required,oneof=completed error"`
	VideoURL     string `json:"video_url"`
	ErrorMessage string `json:"error_message"`
}

type AnimationResponse struct {
	ID           uuid.UUID  `json:"id"`
	ProjectID    uuid.UUID  `json:"project_id"`
	MessageID    *uuid.UUID `json:"message_id,omitempty"`
	ManimCode    string     `json:"manim_code,omitempty"`
	Status       string     `json:"status"`
	VideoURL     string     `json:"video_url,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    string     `json:"created_at"`
	UpdatedAt    string     `json:"updated_at"`
}

func newAnimationResponse(anim *db.Animation) AnimationResponse {
	resp := AnimationResponse{
		ID:        anim.ID,
		ProjectID: anim.ProjectID,
		Status:    anim.Status,
		CreatedAt: anim.CreatedAt.Format(time.RFC3339),
		UpdatedAt: anim.UpdatedAt.Format(time.RFC3339),
	}
	if anim.MessageID.Valid {
		id := anim.MessageID.UUID
		resp.MessageID = &id
	}
	if anim.ManimCode.Valid {
		resp.ManimCode = anim.ManimCode.String
	}
	if anim.VideoURL.Valid {
		resp.VideoURL = anim.VideoURL.String
	}
	if anim.ErrorMessage.Valid {
		resp.ErrorMessage = anim.ErrorMessage.String
	}
	return resp
}

// TriggerRender moves a project's current animation from pending to
// rendering and dispatches the configured renderer. The guarded transition
// is the duplicate-trigger protection: of two back-to-back triggers only one
// wins, the other gets a conflict.
func (h *Handlers) TriggerRender(c *gin.Context) {
	var req RenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("TriggerRender: Invalid request body: %v", err)
		utils.ResponseWithError(c, http.StatusBadRequest, "Missing projectId", err.Error())
		return
	}

	projectID := uuid.MustParse(req.ProjectID)
	project, ok := h.requireOwnedProject(c, projectID, "TriggerRender")
	if !ok {
		return
	}

	anim, err := queries.FindLatestAnimationByProjectID(project.ID)
	if err != nil {
		log.Errorf("TriggerRender: Failed to fetch latest animation for project %s: %v", project.ID.String(), err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to retrieve animation", nil)
		return
	}
	if anim == nil {
		utils.ResponseWithError(c, http.StatusNotFound, "No animation found for this project", nil)
		return
	}
	if !anim.ManimCode.Valid || anim.ManimCode.String == "" {
		log.Warnf("TriggerRender: Animation %s has no Manim code.", anim.ID.String())
		utils.ResponseWithError(c, http.StatusBadRequest, "Animation has no generated code to render", nil)
		return
	}

	if err := queries.MarkAnimationRendering(anim.ID); err != nil {
		if errors.Is(err, errs.ErrConflict) {
			log.Warnf("TriggerRender: Animation %s is not pending (status: %s).", anim.ID.String(), anim.Status)
			utils.ResponseWithError(c, http.StatusConflict, "Animation is already rendering or resolved", nil)
			return
		}
		log.Errorf("TriggerRender: Failed to transition animation %s: %v", anim.ID.String(), err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to start rendering", nil)
		return
	}

	if err := h.Renderer.Render(anim.ID, anim.ManimCode.String); err != nil {
		log.Errorf("TriggerRender: Renderer dispatch failed for animation %s: %v", anim.ID.String(), err)
		// The animation already moved to rendering; resolve it to error so
		// it does not hang there forever.
		if merr := queries.MarkAnimationError(anim.ID, "Failed to hand the animation to the render service."); merr != nil {
			log.Errorf("TriggerRender: Could not mark animation %s as errored: %v", anim.ID.String(), merr)
		}
		utils.ResponseWithError(c, http.StatusBadGateway, "Failed to start the rendering process", nil)
		return
	}

	log.Infof("Rendering started for animation %s (project %s).", anim.ID.String(), project.ID.String())
	utils.ResponseWithSuccess(c, http.StatusAccepted, "Rendering started", gin.H{
		"message":     "Rendering started",
		"animationId": anim.ID,
	})
}

// GetLatestAnimation returns the most recent animation record of a project.
func (h *Handlers) GetLatestAnimation(c *gin.Context) {
	projectID, err := uuid.Parse(c.Query("projectId"))
	if err != nil {
		log.Warnf("GetLatestAnimation: Invalid or missing projectId '%s': %v", c.Query("projectId"), err)
		utils.ResponseWithError(c, http.StatusBadRequest, "Project ID is required", nil)
		return
	}

	project, ok := h.requireOwnedProject(c, projectID, "GetLatestAnimation")
	if !ok {
		return
	}

	anim, err := queries.FindLatestAnimationByProjectID(project.ID)
	if err != nil {
		log.Errorf("GetLatestAnimation: Failed to fetch animation for project %s: %v", project.ID.String(), err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to fetch animation", nil)
		return
	}
	if anim == nil {
		utils.ResponseWithError(c, http.StatusNotFound, "No animation found for this project", nil)
		return
	}

	utils.ResponseWithSuccess(c, http.StatusOK, "Animation retrieved successfully", newAnimationResponse(anim))
}

// GetAnimationByMessage resolves which animation a message's generation
// produced: an exact lookup via the stored message link, with the ±60s
// time-window heuristic as fallback for older rows.
func (h *Handlers) GetAnimationByMessage(c *gin.Context) {
	messageID, err := uuid.Parse(c.Query("messageId"))
	if err != nil {
		log.Warnf("GetAnimationByMessage: Invalid or missing messageId '%s': %v", c.Query("messageId"), err)
		utils.ResponseWithError(c, http.StatusBadRequest, "Message ID is required", nil)
		return
	}

	message, err := queries.FindMessageByID(messageID)
	if err != nil {
		log.Errorf("GetAnimationByMessage: Failed to fetch message %s: %v", messageID.String(), err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to fetch message", nil)
		return
	}
	if message == nil {
		utils.ResponseWithError(c, http.StatusNotFound, "Message not found", nil)
		return
	}

	if _, ok := h.requireOwnedProject(c, message.ProjectID, "GetAnimationByMessage"); !ok {
		return
	}

	anim, err := queries.FindAnimationForMessage(message)
	if err != nil {
		log.Errorf("GetAnimationByMessage: Failed to correlate animation for message %s: %v", messageID.String(), err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to fetch animation", nil)
		return
	}
	if anim == nil {
		utils.ResponseWithError(c, http.StatusNotFound, "Animation not found", nil)
		return
	}

	utils.ResponseWithSuccess(c, http.StatusOK, "Animation retrieved successfully", newAnimationResponse(anim))
}

// HandleRenderCallback receives the outcome of a render job from the
// external render service and finalizes the animation. The guarded
// transition drops duplicate or late callbacks for already-resolved records.
func (h *Handlers) HandleRenderCallback(c *gin.Context) {
	var callback RenderCallbackRequest
	if err := c.ShouldBindJSON(&callback); err != nil {
		log.Errorf("HandleRenderCallback: Invalid callback request body: %v", err)
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid callback request body", err.Error())
		return
	}

	animationID := uuid.MustParse(callback.AnimationID)
	log.Infof("Received render callback for animation %s, status: %s", callback.AnimationID, callback.Status)

	var err error
	switch animation.Status(callback.Status) {
	case animation.StatusCompleted:
		if callback.VideoURL == "" || callback.VideoURL == "N/A" {
			log.Warnf("HandleRenderCallback: Completed callback for %s carries no video URL.", callback.AnimationID)
			err = queries.MarkAnimationError(animationID, "Render service reported success without a video URL.")
		} else {
			err = queries.MarkAnimationCompleted(animationID, callback.VideoURL)
		}
	case animation.StatusError:
		message := callback.ErrorMessage
		if message == "" {
			message = "Failed to render animation. Please check your Manim code."
		}
		err = queries.MarkAnimationError(animationID, message)
	}

	if err != nil {
		if errors.Is(err, errs.ErrConflict) {
			log.Warnf("HandleRenderCallback: Animation %s is not rendering; callback dropped.", callback.AnimationID)
			utils.ResponseWithError(c, http.StatusConflict, "Animation is not rendering", nil)
			return
		}
		log.Errorf("HandleRenderCallback: Failed to finalize animation %s: %v", callback.AnimationID, err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to update animation after rendering callback", nil)
		return
	}

	utils.ResponseWithSuccess(c, http.StatusOK, "Callback processed successfully", nil)
}
