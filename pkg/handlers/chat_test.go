package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/animateai/animateai-backend/pkg/config"
	"github.com/animateai/animateai-backend/pkg/handlers"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func newChatRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := handlers.NewHandlers(&config.Config{}, nil, nil, nil)
	router := gin.New()
	router.POST("/api/chat", h.Chat)
	return router
}

func postJSON(router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req, _ := http.NewRequest("POST", path, bytes.NewBuffer(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestChat_MissingProjectID(t *testing.T) {
	router := newChatRouter()

	w := postJSON(router, "/api/chat", gin.H{
		"messages": []gin.H{{"role": "user", "content": "draw a circle"}},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChat_InvalidProjectID(t *testing.T) {
	router := newChatRouter()

	w := postJSON(router, "/api/chat", gin.H{
		"projectId": "not-a-uuid",
		"messages":  []gin.H{{"role": "user", "content": "draw a circle"}},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChat_EmptyMessages(t *testing.T) {
	router := newChatRouter()

	w := postJSON(router, "/api/chat", gin.H{
		"projectId": uuid.NewString(),
		"messages":  []gin.H{},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChat_LastMessageMustBeFromUser(t *testing.T) {
	router := newChatRouter()

	w := postJSON(router, "/api/chat", gin.H{
		"projectId": uuid.NewString(),
		"messages": []gin.H{
			{"role": "user", "content": "draw a circle"},
			{"role": "assistant", "content": "Here is a circle."},
		},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid message format")
}

func TestChat_RejectsUnknownRole(t *testing.T) {
	router := newChatRouter()

	w := postJSON(router, "/api/chat", gin.H{
		"projectId": uuid.NewString(),
		"messages":  []gin.H{{"role": "system", "content": "be helpful"}},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
