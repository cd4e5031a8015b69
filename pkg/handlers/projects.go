package handlers

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/animateai/animateai-backend/pkg/db"
	"github.com/animateai/animateai-backend/pkg/db/queries"
	"github.com/animateai/animateai-backend/pkg/middleware"
	"github.com/animateai/animateai-backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=255"`
	Description string `json:"description"`
}

type UpdateProjectRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
}

type ProjectResponse struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   string    `json:"created_at"`
	UpdatedAt   string    `json:"updated_at"`
}

func newProjectResponse(project *db.Project) ProjectResponse {
	description := ""
	if project.Description.Valid {
		description = project.Description.String
	}
	return ProjectResponse{
		ID:          project.ID,
		UserID:      project.UserID,
		Name:        project.Name,
		Description: description,
		CreatedAt:   project.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   project.UpdatedAt.Format(time.RFC3339),
	}
}

// CreateProject creates a new project for the authenticated user.
func CreateProject(c *gin.Context) {
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("CreateProject: Invalid request body: %v", err)
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	claims, exists := middleware.GetUserClaimsFromContext(c)
	if !exists {
		log.Error("CreateProject: User claims not found in context.")
		utils.ResponseWithError(c, http.StatusInternalServerError, "Authentication error: User claims not found", nil)
		return
	}

	existingProject, err := queries.FindProjectByNameAndUserID(strings.TrimSpace(req.Name), claims.UserID)
	if err != nil {
		log.Errorf("CreateProject: Database error checking existing project: %v", err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to check project existence", nil)
		return
	}
	if existingProject != nil {
		log.Debugf("CreateProject: Project with name '%s' already exists for user %s.", req.Name, claims.UserID.String())
		utils.ResponseWithError(c, http.StatusConflict, "Project with this name already exists for your account", nil)
		return
	}

	description := strings.TrimSpace(req.Description)
	project := &db.Project{
		UserID:      claims.UserID,
		Name:        strings.TrimSpace(req.Name),
		Description: sql.NullString{String: description, Valid: description != ""},
	}

	createdProject, err := queries.CreateProject(project)
	if err != nil {
		log.Errorf("CreateProject: Failed to create project in DB: %v", err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to create project", nil)
		return
	}

	log.Infof("Project '%s' created successfully for user %s. ID: %s", createdProject.Name, claims.UserID.String(), createdProject.ID.String())
	utils.ResponseWithSuccess(c, http.StatusCreated, "Project created successfully", newProjectResponse(createdProject))
}

// GetUserProjects lists the authenticated user's projects.
func GetUserProjects(c *gin.Context) {
	claims, exists := middleware.GetUserClaimsFromContext(c)
	if !exists {
		log.Error("GetUserProjects: User claims not found in context.")
		utils.ResponseWithError(c, http.StatusInternalServerError, "Authentication error: User claims not found", nil)
		return
	}

	projects, err := queries.FindProjectsByUserID(claims.UserID)
	if err != nil {
		log.Errorf("GetUserProjects: Failed to fetch projects for user %s: %v", claims.UserID.String(), err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to retrieve projects", nil)
		return
	}

	projectResponses := make([]ProjectResponse, len(projects))
	for i, p := range projects {
		projectResponses[i] = newProjectResponse(&p)
	}

	log.Infof("Found %d projects for user %s.", len(projects), claims.UserID.String())
	utils.ResponseWithSuccess(c, http.StatusOK, "Projects retrieved successfully", projectResponses)
}

// GetProjectByID fetches a single project, enforcing ownership.
func GetProjectByID(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		log.Warnf("GetProjectByID: Invalid project ID format '%s': %v", c.Param("id"), err)
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid project ID format", nil)
		return
	}

	claims, exists := middleware.GetUserClaimsFromContext(c)
	if !exists {
		log.Error("GetProjectByID: User claims not found in context.")
		utils.ResponseWithError(c, http.StatusInternalServerError, "Authentication error: User claims not found", nil)
		return
	}

	project, err := queries.FindProjectByID(projectID)
	if err != nil {
		log.Errorf("GetProjectByID: Failed to fetch project %s: %v", projectID.String(), err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to retrieve project", nil)
		return
	}
	if project == nil {
		utils.ResponseWithError(c, http.StatusNotFound, "Project not found", nil)
		return
	}
	if project.UserID != claims.UserID {
		log.Warnf("GetProjectByID: User %s attempted to access project %s owned by %s.", claims.UserID.String(), projectID.String(), project.UserID.String())
		utils.ResponseWithError(c, http.StatusForbidden, "You do not have permission to access this project", nil)
		return
	}

	utils.ResponseWithSuccess(c, http.StatusOK, "Project retrieved successfully", newProjectResponse(project))
}

// UpdateProject renames or re-describes a project, enforcing ownership.
func UpdateProject(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		log.Warnf("UpdateProject: Invalid project ID format '%s': %v", c.Param("id"), err)
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid project ID format", nil)
		return
	}

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("UpdateProject: Invalid request body: %v", err)
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	claims, exists := middleware.GetUserClaimsFromContext(c)
	if !exists {
		log.Error("UpdateProject: User claims not found in context.")
		utils.ResponseWithError(c, http.StatusInternalServerError, "Authentication error: User claims not found", nil)
		return
	}

	existingProject, err := queries.FindProjectByID(projectID)
	if err != nil {
		log.Errorf("UpdateProject: Database error fetching project %s: %v", projectID.String(), err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to check project existence", nil)
		return
	}
	if existingProject == nil {
		utils.ResponseWithError(c, http.StatusNotFound, "Project not found", nil)
		return
	}
	if existingProject.UserID != claims.UserID {
		log.Warnf("UpdateProject: User %s attempted to update project %s owned by %s.", claims.UserID.String(), projectID.String(), existingProject.UserID.String())
		utils.ResponseWithError(c, http.StatusForbidden, "You do not have permission to modify this project", nil)
		return
	}

	if req.Name != nil {
		newName := strings.TrimSpace(*req.Name)
		if newName != existingProject.Name {
			conflictProject, err := queries.FindProjectByNameAndUserID(newName, claims.UserID)
			if err != nil {
				log.Errorf("UpdateProject: Database error checking name conflict: %v", err)
				utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to check name conflict", nil)
				return
			}
			if conflictProject != nil && conflictProject.ID != existingProject.ID {
				utils.ResponseWithError(c, http.StatusConflict, "Another project with this name already exists for your account", nil)
				return
			}
		}
		existingProject.Name = newName
	}
	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		existingProject.Description = sql.NullString{String: description, Valid: description != ""}
	}

	if err := queries.UpdateProject(existingProject); err != nil {
		if err == sql.ErrNoRows {
			log.Warnf("UpdateProject: Project %s disappeared during update process.", projectID.String())
			utils.ResponseWithError(c, http.StatusNotFound, "Project not found for update", nil)
			return
		}
		log.Errorf("UpdateProject: Failed to update project %s in DB: %v", projectID.String(), err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to update project", nil)
		return
	}

	log.Infof("Project %s updated successfully for user %s.", projectID.String(), claims.UserID.String())
	utils.ResponseWithSuccess(c, http.StatusOK, "Project updated successfully", newProjectResponse(existingProject))
}

// DeleteProject removes a project; ownership is enforced in the query's
// WHERE clause.
func DeleteProject(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		log.Warnf("DeleteProject: Invalid project ID format '%s': %v", c.Param("id"), err)
		utils.ResponseWithError(c, http.StatusBadRequest, "Invalid project ID format", nil)
		return
	}

	claims, exists := middleware.GetUserClaimsFromContext(c)
	if !exists {
		log.Error("DeleteProject: User claims not found in context.")
		utils.ResponseWithError(c, http.StatusInternalServerError, "Authentication error: User claims not found", nil)
		return
	}

	if err := queries.DeleteProject(projectID, claims.UserID); err != nil {
		if err == sql.ErrNoRows {
			utils.ResponseWithError(c, http.StatusNotFound, "Project not found or you do not have permission to delete it", nil)
			return
		}
		log.Errorf("DeleteProject: Failed to delete project %s for user %s: %v", projectID.String(), claims.UserID.String(), err)
		utils.ResponseWithError(c, http.StatusInternalServerError, "Failed to delete project", nil)
		return
	}

	log.Infof("Project %s deleted successfully for user %s.", projectID.String(), claims.UserID.String())
	utils.ResponseWithSuccess(c, http.StatusNoContent, "Project deleted successfully", nil)
}
