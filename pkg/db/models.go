package db

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                 uuid.UUID `db:"id"`
	Username           string    `db:"username"`
	Email              string    `db:"email"`
	PasswordHash       string    `db:"password_hash"`
	Plan               string    `db:"plan"`                 // "free" or "pro"
	HasUnlimitedAccess bool      `db:"has_unlimited_access"` // flipped on successful payment
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}

// Project is a named container for one conversation and its generated
// animations, owned by a single user. The generation pipeline never mutates
// project rows.
type Project struct {
	ID          uuid.UUID      `db:"id"`
	UserID      uuid.UUID      `db:"user_id"`
	Name        string         `db:"name"`
	Description sql.NullString `db:"description"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of a project's conversation log. Messages are
// immutable once written; conversation order is created_at ascending.
type Message struct {
	ID        uuid.UUID `db:"id"`
	ProjectID uuid.UUID `db:"project_id"`
	Content   string    `db:"content"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
}

// Animation tracks one generation/render cycle: the generated Manim code,
// its render status and, once resolved, either a video URL or an error
// message. The "current" animation of a project is the most recently created
// row; no explicit flag is stored.
type Animation struct {
	ID           uuid.UUID      `db:"id"`
	ProjectID    uuid.UUID      `db:"project_id"`
	MessageID    uuid.NullUUID  `db:"message_id"` // user message that triggered the generation
	ManimCode    sql.NullString `db:"manim_code"`
	Status       string         `db:"status"`
	VideoURL     sql.NullString `db:"video_url"`
	ErrorMessage sql.NullString `db:"error_message"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

// Payment records a verified Razorpay checkout for a user.
type Payment struct {
	ID        uuid.UUID `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	PaymentID string    `db:"payment_id"`
	OrderID   string    `db:"order_id"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}
