package queries

import (
	"database/sql"
	"fmt"

	"github.com/animateai/animateai-backend/pkg/db"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// CreateUser inserts a new user on the free plan and scans the generated
// fields back into the struct.
func CreateUser(user *db.User) (*db.User, error) {
	if user.Plan == "" {
		user.Plan = "free"
	}

	query := `
		INSERT INTO users (username, email, password_hash, plan, has_unlimited_access)
		VALUES (:username, :email, :password_hash, :plan, :has_unlimited_access)
		RETURNING id, created_at, updated_at`

	rows, err := db.DB.NamedQuery(query, user)
	if err != nil {
		log.Errorf("Error creating user: %v", err)
		return nil, err
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.StructScan(user); err != nil {
			log.Errorf("Error scanning user data after creation: %v", err)
			return nil, err
		}
	} else {
		log.Error("No rows returned after user creation.")
		return nil, fmt.Errorf("no rows returned after user creation")
	}

	log.Infof("User %s created with ID: %s", user.Email, user.ID.String())
	return user, nil
}

// FindUserByEmail retrieves a user by email. Returns (nil, nil) when absent.
func FindUserByEmail(email string) (*db.User, error) {
	user := &db.User{}
	query := `SELECT id, username, email, password_hash, plan, has_unlimited_access, created_at, updated_at FROM users WHERE email = $1`
	err := db.DB.Get(user, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Debugf("User with email '%s' not found.", email)
			return nil, nil
		}
		log.Errorf("Error finding user by email '%s': %v", email, err)
		return nil, err
	}
	return user, nil
}

// FindUserByID retrieves a user by ID. Returns (nil, nil) when absent.
func FindUserByID(id uuid.UUID) (*db.User, error) {
	user := &db.User{}
	query := `SELECT id, username, email, password_hash, plan, has_unlimited_access, created_at, updated_at FROM users WHERE id = $1`
	err := db.DB.Get(user, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Debugf("User with ID '%s' not found.", id.String())
			return nil, nil
		}
		log.Errorf("Error finding user by ID '%s': %v", id.String(), err)
		return nil, err
	}
	return user, nil
}

// UpgradeUserPlan moves a user to the pro plan after a verified payment.
func UpgradeUserPlan(id uuid.UUID) error {
	query := `UPDATE users SET plan = 'pro', has_unlimited_access = TRUE WHERE id = $1`
	result, err := db.DB.Exec(query, id)
	if err != nil {
		log.Errorf("Error upgrading plan for user '%s': %v", id.String(), err)
		return err
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		log.Warnf("No user found with ID '%s' for plan upgrade.", id.String())
		return sql.ErrNoRows
	}

	log.Infof("User '%s' upgraded to pro plan.", id.String())
	return nil
}

// DeleteUser removes a user account; owned projects cascade.
func DeleteUser(id uuid.UUID) error {
	query := `DELETE FROM users WHERE id = $1`
	result, err := db.DB.Exec(query, id)
	if err != nil {
		log.Errorf("Error deleting user with ID '%s': %v", id.String(), err)
		return err
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		log.Warnf("No user found with ID '%s' for deletion.", id.String())
		return nil
	}

	log.Infof("User with ID '%s' deleted.", id.String())
	return nil
}
