package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/animateai/animateai-backend/pkg/config"
	"github.com/animateai/animateai-backend/pkg/db"
	"github.com/animateai/animateai-backend/pkg/handlers"
	"github.com/animateai/animateai-backend/pkg/middleware"
	"github.com/animateai/animateai-backend/pkg/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	projectByIDQuery   = `SELECT id, user_id, name, description, created_at, updated_at FROM projects WHERE id = $1`
	latestAnimQuery    = `SELECT id, project_id, message_id, manim_code, status, video_url, error_message, created_at, updated_at FROM animations WHERE project_id = $1 ORDER BY created_at DESC LIMIT 1`
	markRenderingStmt  = `UPDATE animations SET status = $1 WHERE id = $2 AND status = $3`
	markCompletedStmt  = `UPDATE animations SET status = $1, video_url = $2, error_message = NULL WHERE id = $3 AND status = $4`
	testAnimationCode  = "from manim import *\n\nclass MyScene(Scene):\n    def construct(self):\n        self.play(Create(Circle()))"
)

func newMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	prev := db.DB
	db.DB = sqlx.NewDb(mockDB, "sqlmock")
	t.Cleanup(func() {
		db.DB.Close()
		db.DB = prev
	})
	return mock
}

// authAs installs claims for userID the way the auth middleware would.
func authAs(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserClaimsContextKey, &services.Claims{
			UserID:   userID,
			Email:    "user@example.com",
			Username: "user",
		})
		c.Next()
	}
}

type countingRenderer struct {
	calls int
}

func (r *countingRenderer) Render(animationID uuid.UUID, script string) error {
	r.calls++
	return nil
}

func newAnimationsRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := handlers.NewHandlers(&config.Config{}, nil, nil, nil)
	router := gin.New()
	router.POST("/api/animations/render", h.TriggerRender)
	router.GET("/api/animations/latest", h.GetLatestAnimation)
	router.GET("/api/animations/by-message", h.GetAnimationByMessage)
	router.POST("/api/animations/render-callback", h.HandleRenderCallback)
	return router
}

func TestTriggerRender_MissingProjectID(t *testing.T) {
	router := newAnimationsRouter()

	w := postJSON(router, "/api/animations/render", gin.H{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "projectId")
}

func TestTriggerRender_InvalidProjectID(t *testing.T) {
	router := newAnimationsRouter()

	w := postJSON(router, "/api/animations/render", gin.H{"projectId": "42"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTriggerRender_SecondTriggerConflicts(t *testing.T) {
	mock := newMockDB(t)
	userID := uuid.New()
	projectID := uuid.New()
	animationID := uuid.New()
	now := time.Now()

	renderer := &countingRenderer{}
	gin.SetMode(gin.TestMode)
	h := handlers.NewHandlers(&config.Config{}, nil, renderer, nil)
	router := gin.New()
	router.Use(authAs(userID))
	router.POST("/api/animations/render", h.TriggerRender)

	pendingAnimRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "project_id", "message_id", "manim_code", "status", "video_url", "error_message", "created_at", "updated_at"}).
			AddRow(animationID.String(), projectID.String(), nil, testAnimationCode, "pending", nil, nil, now, now)
	}
	projectRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "user_id", "name", "description", "created_at", "updated_at"}).
			AddRow(projectID.String(), userID.String(), "demo", nil, now, now)
	}

	// First trigger wins the pending -> rendering transition.
	mock.ExpectQuery(projectByIDQuery).WithArgs(projectID).WillReturnRows(projectRows())
	mock.ExpectQuery(latestAnimQuery).WithArgs(projectID).WillReturnRows(pendingAnimRows())
	mock.ExpectExec(markRenderingStmt).
		WithArgs("rendering", animationID, "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))

	// The second trigger finds no pending row to claim.
	mock.ExpectQuery(projectByIDQuery).WithArgs(projectID).WillReturnRows(projectRows())
	mock.ExpectQuery(latestAnimQuery).WithArgs(projectID).WillReturnRows(pendingAnimRows())
	mock.ExpectExec(markRenderingStmt).
		WithArgs("rendering", animationID, "pending").
		WillReturnResult(sqlmock.NewResult(0, 0))

	w := postJSON(router, "/api/animations/render", gin.H{"projectId": projectID.String()})
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = postJSON(router, "/api/animations/render", gin.H{"projectId": projectID.String()})
	assert.Equal(t, http.StatusConflict, w.Code)

	assert.Equal(t, 1, renderer.calls, "only the winning trigger may dispatch the renderer")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLatestAnimation_MissingProjectID(t *testing.T) {
	router := newAnimationsRouter()

	req, _ := http.NewRequest("GET", "/api/animations/latest", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Project ID is required")
}

func TestGetAnimationByMessage_MissingMessageID(t *testing.T) {
	router := newAnimationsRouter()

	req, _ := http.NewRequest("GET", "/api/animations/by-message", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Message ID is required")
}

func TestHandleRenderCallback_InvalidBody(t *testing.T) {
	router := newAnimationsRouter()

	w := postJSON(router, "/api/animations/render-callback", gin.H{
		"animation_id": uuid.NewString(),
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleRenderCallback_RejectsNonTerminalStatus(t *testing.T) {
	router := newAnimationsRouter()

	// Only terminal outcomes may arrive on the callback; the service cannot
	// push an animation back to pending or rendering.
	for _, status := range []string{"pending", "rendering", "done"} {
		w := postJSON(router, "/api/animations/render-callback", gin.H{
			"animation_id": uuid.NewString(),
			"status":       status,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code, "status %q must be rejected", status)
	}
}

func TestHandleRenderCallback_DropsDuplicateCompletion(t *testing.T) {
	mock := newMockDB(t)
	animationID := uuid.New()
	videoURL := "https://cdn.example.com/out.mp4"
	router := newAnimationsRouter()

	mock.ExpectExec(markCompletedStmt).
		WithArgs("completed", videoURL, animationID, "rendering").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(markCompletedStmt).
		WithArgs("completed", videoURL, animationID, "rendering").
		WillReturnResult(sqlmock.NewResult(0, 0))

	body := gin.H{
		"animation_id": animationID.String(),
		"status":       "completed",
		"video_url":    videoURL,
	}

	w := postJSON(router, "/api/animations/render-callback", body)
	assert.Equal(t, http.StatusOK, w.Code)

	// The animation already resolved; a replayed callback must not win.
	w = postJSON(router, "/api/animations/render-callback", body)
	assert.Equal(t, http.StatusConflict, w.Code)

	assert.NoError(t, mock.ExpectationsWereMet())
}
