package queries

import (
	"database/sql"
	"fmt"

	"github.com/animateai/animateai-backend/pkg/db"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// CreateProject inserts a new project for a user.
func CreateProject(project *db.Project) (*db.Project, error) {
	query := `
        INSERT INTO projects (user_id, name, description)
        VALUES (:user_id, :name, :description)
        RETURNING id, created_at, updated_at`

	rows, err := db.DB.NamedQuery(query, project)
	if err != nil {
		log.Errorf("Error creating project: %v", err)
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.StructScan(project); err != nil {
			log.Errorf("Error scanning project data after creation: %v", err)
			return nil, fmt.Errorf("error scanning project after creation: %w", err)
		}
	} else {
		log.Error("No rows returned after project creation.")
		return nil, fmt.Errorf("no rows returned after project creation")
	}

	log.Infof("Project '%s' created for user ID: %s (ID: %s)", project.Name, project.UserID.String(), project.ID.String())
	return project, nil
}

// FindProjectByID retrieves a project by its ID. Returns (nil, nil) when the
// project does not exist.
func FindProjectByID(projectID uuid.UUID) (*db.Project, error) {
	project := &db.Project{}
	query := `SELECT id, user_id, name, description, created_at, updated_at FROM projects WHERE id = $1`
	err := db.DB.Get(project, query, projectID)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Debugf("Project with ID '%s' not found.", projectID.String())
			return nil, nil
		}
		log.Errorf("Error finding project by ID '%s': %v", projectID.String(), err)
		return nil, fmt.Errorf("error finding project by ID: %w", err)
	}
	return project, nil
}

// FindProjectsByUserID retrieves all projects for a user, most recently
// updated first.
func FindProjectsByUserID(userID uuid.UUID) ([]db.Project, error) {
	var projects []db.Project
	query := `SELECT id, user_id, name, description, created_at, updated_at FROM projects WHERE user_id = $1 ORDER BY updated_at DESC`
	err := db.DB.Select(&projects, query, userID)
	if err != nil {
		log.Errorf("Error finding projects for user ID '%s': %v", userID.String(), err)
		return nil, fmt.Errorf("error finding projects by user ID: %w", err)
	}
	return projects, nil
}

// FindProjectByNameAndUserID retrieves a project by name within one user's
// account, used for duplicate-name checks. Returns (nil, nil) when absent.
func FindProjectByNameAndUserID(name string, userID uuid.UUID) (*db.Project, error) {
	project := &db.Project{}
	query := `SELECT id, user_id, name, description, created_at, updated_at FROM projects WHERE name = $1 AND user_id = $2`
	err := db.DB.Get(project, query, name, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Debugf("Project with name '%s' not found for user ID '%s'.", name, userID.String())
			return nil, nil
		}
		log.Errorf("Error finding project by name '%s' for user ID '%s': %v", name, userID.String(), err)
		return nil, fmt.Errorf("error finding project by name and user ID: %w", err)
	}
	return project, nil
}

// UpdateProject updates a project's name and description. updated_at is
// refreshed by the database trigger.
func UpdateProject(project *db.Project) error {
	query := `
        UPDATE projects
        SET name = :name, description = :description
        WHERE id = :id AND user_id = :user_id`

	result, err := db.DB.NamedExec(query, project)
	if err != nil {
		log.Errorf("Error updating project with ID '%s': %v", project.ID.String(), err)
		return fmt.Errorf("failed to update project: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		log.Warnf("No project found with ID '%s' for user ID '%s' for update.", project.ID.String(), project.UserID.String())
		return sql.ErrNoRows
	}

	log.Infof("Project with ID '%s' updated.", project.ID.String())
	return nil
}

// DeleteProject removes a project; the user_id in the WHERE clause enforces
// ownership. Messages and animations cascade via foreign keys.
func DeleteProject(projectID, userID uuid.UUID) error {
	query := `DELETE FROM projects WHERE id = $1 AND user_id = $2`
	result, err := db.DB.Exec(query, projectID, userID)
	if err != nil {
		log.Errorf("Error deleting project with ID '%s' for user ID '%s': %v", projectID.String(), userID.String(), err)
		return err
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		log.Warnf("No project found with ID '%s' for user ID '%s' for deletion.", projectID.String(), userID.String())
		return sql.ErrNoRows
	}

	log.Infof("Project with ID '%s' deleted.", projectID.String())
	return nil
}
